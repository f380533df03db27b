package http

import (
	"crypto/ecdsa"

	"github.com/gin-gonic/gin"

	"github.com/layer-3/custos/service"
)

// SetupRouter sets up the Gin router.
func SetupRouter(provisioning *service.ProvisioningService, publicKey *ecdsa.PublicKey, audience string) *gin.Engine {
	router := gin.Default()

	// Create handlers
	handlers := NewWalletHandlers(provisioning)

	// Protected API routes
	api := router.Group("/api")
	api.Use(AuthMiddleware(publicKey, audience))
	{
		api.GET("/wallets", handlers.Wallets)
		api.POST("/wallets/provision", handlers.Provision)
		api.GET("/wallets/provision/status", handlers.Status)
	}

	return router
}
