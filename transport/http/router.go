package http

import (
	"github.com/gin-gonic/gin"

	"github.com/layer-3/mailgate/secure"
	"github.com/layer-3/mailgate/service"
)

// SetupRouter sets up the Gin router.
func SetupRouter(dispatch *service.DispatchService, twoFactor *secure.TwoFactor) *gin.Engine {
	router := gin.Default()

	handlers := NewHandlers(dispatch, twoFactor)

	router.GET("/healthz", handlers.Health)

	api := router.Group("/")
	api.Use(ClientIdentityMiddleware())
	{
		api.POST("/contact", handlers.Contact)

		twofa := api.Group("/2fa")
		{
			twofa.POST("/setup", handlers.TwoFactorSetup)
			twofa.POST("/verify", handlers.TwoFactorVerify)
		}
	}

	return router
}
