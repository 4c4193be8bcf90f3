package annualleave

import (
	"github.com/kikoon-ek/hr-erp/internal/middleware"
	"github.com/kikoon-ek/hr-erp/internal/rbac"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func RegisterRoutes(
	r *gin.RouterGroup,
	handler *Handler,
	rbacService rbac.Service,
	rdb *redis.Client,
	logger *zap.Logger,
) {
	leave := r.Group("/annual-leave")
	leave.Use(middleware.AuthMiddleware())
	leave.Use(middleware.ExtractUserID())
	leave.Use(middleware.ContextLogger(logger))
	{
		leave.GET("/grants",
			middleware.RBACAuthorize(rbacService, "annual_leave", "read"),
			handler.GetGrants,
		)
		leave.POST("/grants",
			middleware.RBACAuthorize(rbacService, "annual_leave", "manage"),
			handler.CreateGrant,
		)

		leave.GET("/usages",
			middleware.RBACAuthorize(rbacService, "annual_leave", "read"),
			handler.GetUsages,
		)
		leave.POST("/use",
			middleware.RBACAuthorize(rbacService, "annual_leave", "manage"),
			handler.RecordUsage,
		)

		leave.GET("/balance",
			middleware.RBACAuthorize(rbacService, "annual_leave", "read"),
			handler.GetMyBalance,
		)
		leave.GET("/balance/:employee_id",
			middleware.RBACAuthorize(rbacService, "annual_leave", "read"),
			handler.GetBalance,
		)

		// The batch run is idempotent but heavy, so retried submissions
		// are deduplicated.
		leave.POST("/auto-grant",
			middleware.RateLimitByUser(0.05, 1),
			middleware.Idempotency(rdb),
			middleware.RBACAuthorize(rbacService, "annual_leave", "manage"),
			handler.AutoGrant,
		)
	}
}
