package workschedule

import (
	"github.com/kikoon-ek/hr-erp/internal/middleware"
	"github.com/kikoon-ek/hr-erp/internal/rbac"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.RouterGroup, h *Handler, rbacService rbac.Service) {
	schedules := r.Group("/work-schedules")
	schedules.Use(middleware.AuthMiddleware())
	{
		schedules.PUT("", middleware.RBACAuthorize(rbacService, "work_schedule", "manage"), h.Upsert)
		schedules.GET("/:employee_id", middleware.RBACAuthorize(rbacService, "work_schedule", "read"), h.GetByEmployee)
		schedules.DELETE("/:employee_id/:day_of_week", middleware.RBACAuthorize(rbacService, "work_schedule", "manage"), h.Delete)
	}
}
