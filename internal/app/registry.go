package app

import (
	"database/sql"
	"path/filepath"

	"github.com/kikoon-ek/hr-erp/internal/annualleave"
	"github.com/kikoon-ek/hr-erp/internal/attendance"
	"github.com/kikoon-ek/hr-erp/internal/audit"
	"github.com/kikoon-ek/hr-erp/internal/auth"
	"github.com/kikoon-ek/hr-erp/internal/employee"
	"github.com/kikoon-ek/hr-erp/internal/leaverequest"
	"github.com/kikoon-ek/hr-erp/internal/messaging/kafka"
	"github.com/kikoon-ek/hr-erp/internal/rbac"
	"github.com/kikoon-ek/hr-erp/internal/rbac/infra"
	"github.com/kikoon-ek/hr-erp/internal/shared/counter"
	"github.com/kikoon-ek/hr-erp/internal/workschedule"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func registerModules(
	router *gin.Engine,
	db *sql.DB,
	gormDB *gorm.DB,
	rdb *redis.Client,
) error {
	logger := zap.L()

	// --- Repositories ---
	rbacRepo := rbac.NewRepository(gormDB)
	authRepo := auth.NewRepository(gormDB)
	counterRepo := counter.NewRepository(gormDB)
	employeeRepo := employee.NewRepository(gormDB)
	attendanceRepo := attendance.NewRepository(gormDB)
	scheduleRepo := workschedule.NewRepository(gormDB)
	leaveRepo := annualleave.NewRepository(gormDB, db)
	requestRepo := leaverequest.NewRepository(gormDB, db)
	outboxRepo := kafka.NewOutboxRepository(db)

	// --- RBAC core ---
	enforcer, err := infra.NewEnforcer(filepath.Join("internal", "rbac", "infra", "model.conf"))
	if err != nil {
		return err
	}
	rbacService := rbac.NewService(rbacRepo, enforcer)

	// Audit entries go through the outbox so the trail survives restarts.
	auditRec := audit.NewOutboxRecorder(outboxRepo, logger)

	// --- Services ---
	authService := auth.NewService(authRepo, rbacService, employeeRepo, logger)
	employeeService := employee.NewService(db, employeeRepo, counterRepo, rdb, auditRec, logger)
	scheduleService := workschedule.NewService(db, scheduleRepo, logger)
	attendanceService := attendance.NewService(db, attendanceRepo, scheduleService, auditRec, logger)
	leaveService := annualleave.NewService(db, leaveRepo, employeeRepo, auditRec, logger)
	requestService := leaverequest.NewService(db, requestRepo, leaveRepo, employeeRepo, auditRec, logger)

	// --- Handlers ---
	authHandler := auth.NewHandler(authService, logger)
	employeeHandler := employee.NewHandler(employeeService, logger)
	scheduleHandler := workschedule.NewHandler(scheduleService)
	attendanceHandler := attendance.NewHandler(attendanceService)
	leaveHandler := annualleave.NewHandlerWithRedis(leaveService, rdb, logger)
	requestHandler := leaverequest.NewHandler(requestService, logger)

	// --- Routes ---
	api := router.Group("/api/v1")
	{
		auth.RegisterRoutes(api, authHandler)
		employee.RegisterRoutes(api, employeeHandler, rbacService, logger)
		workschedule.RegisterRoutes(api, scheduleHandler, rbacService)
		attendance.RegisterRoutes(api, attendanceHandler, rbacService)
		annualleave.RegisterRoutes(api, leaveHandler, rbacService, rdb, logger)
		leaverequest.RegisterRoutes(api, requestHandler, rbacService, logger)
	}

	return nil
}
