package leaverequest

import (
	"github.com/kikoon-ek/hr-erp/internal/middleware"
	"github.com/kikoon-ek/hr-erp/internal/rbac"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func RegisterRoutes(
	r *gin.RouterGroup,
	handler *Handler,
	rbacService rbac.Service,
	logger *zap.Logger,
) {
	requests := r.Group("/annual-leave/requests")
	requests.Use(middleware.AuthMiddleware())
	requests.Use(middleware.ExtractUserID())
	requests.Use(middleware.ContextLogger(logger))
	{
		requests.GET("",
			middleware.RBACAuthorize(rbacService, "leave_request", "read"),
			handler.GetAll,
		)
		requests.POST("",
			middleware.RBACAuthorize(rbacService, "leave_request", "create"),
			handler.Create,
		)
		requests.GET("/statistics",
			middleware.RBACAuthorize(rbacService, "leave_request", "manage"),
			handler.GetStatistics,
		)
		requests.POST("/:id/approve",
			middleware.RBACAuthorize(rbacService, "leave_request", "manage"),
			handler.Approve,
		)
		requests.POST("/:id/reject",
			middleware.RBACAuthorize(rbacService, "leave_request", "manage"),
			handler.Reject,
		)
		requests.DELETE("/:id",
			middleware.RBACAuthorize(rbacService, "leave_request", "delete"),
			handler.Delete,
		)
	}
}
