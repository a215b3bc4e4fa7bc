package auth

import (
	"shopino/internal/shared/middleware"
	"shopino/pkg/tokens"

	"github.com/gin-gonic/gin"
)

// Router handles auth-related routes
type Router struct {
	controller *Controller
	issuer     *tokens.Issuer
}

// NewRouter creates a new auth router
func NewRouter(controller *Controller, issuer *tokens.Issuer) *Router {
	return &Router{
		controller: controller,
		issuer:     issuer,
	}
}

// SetupRoutes registers all auth routes
func (authRouter *Router) SetupRoutes(rg *gin.RouterGroup) {
	auth := rg.Group("/auth")
	{
		// Public routes (no authentication required)
		auth.POST("/register", authRouter.controller.Register)
		auth.POST("/login", authRouter.controller.Login)
		auth.POST("/refresh", authRouter.controller.Refresh)

		// Protected routes (authentication required)
		protected := auth.Group("")
		protected.Use(middleware.JWTAuth(authRouter.issuer))
		{
			protected.POST("/logout", authRouter.controller.Logout)
			protected.GET("/profile", authRouter.controller.Profile)
		}
	}
}
