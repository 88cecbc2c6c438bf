package http

import (
	"github.com/gin-gonic/gin"

	"github.com/chaintrack/backend/internal/config"
	"github.com/chaintrack/backend/internal/http/controller"
	"github.com/chaintrack/backend/internal/http/middleware"
)

func InitRouter(_ *config.Config, server *gin.Engine, ctr *controller.Controller, productCtr *controller.ProductController, chainCtr *controller.ChainController) *gin.Engine {
	// Apply recovery middleware globally to prevent panics from crashing the server
	server.Use(middleware.Recovery())

	server.GET("/ping", ctr.Ping)

	// Product endpoints
	products := server.Group("/products")
	{
		products.POST("", productCtr.RegisterProduct)
		products.GET("", productCtr.ListProducts)
		products.GET("/:id", productCtr.GetProduct)
		products.POST("/:id/transfer", productCtr.TransferProduct)
		products.PATCH("/:id", productCtr.UpdateProduct)
	}

	// Public verification uses query params so the link can be shared
	server.GET("/verify", productCtr.VerifyProduct)

	// Ledger-backed endpoints
	server.GET("/transactions", chainCtr.ListTransactions)
	server.GET("/accounts/:address/roles/:role", chainCtr.GetRole)
	server.GET("/agreements/:id", chainCtr.GetAgreement)

	return server
}
