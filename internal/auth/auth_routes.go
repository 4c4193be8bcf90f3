package auth

import (
	"github.com/kikoon-ek/hr-erp/internal/middleware"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.RouterGroup, handler *Handler) {
	authGroup := r.Group("/auth")
	{
		authGroup.POST("/login", middleware.RateLimitByIP(0.08, 5), handler.Login)
		authGroup.POST("/refresh", handler.RefreshToken)
		authGroup.POST("/logout", middleware.RateLimitByUser(2, 5), handler.Logout)
		authGroup.GET("/me", middleware.AuthMiddleware(), middleware.RateLimitByUser(2, 5), handler.Me)

		// Account provisioning is an admin action inside an existing company.
		authGroup.POST("/register",
			middleware.AuthMiddleware(),
			middleware.RoleMiddleware("SUPER_ADMIN", "ADMIN", "HR"),
			handler.Register,
		)
	}
}
