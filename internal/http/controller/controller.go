package controller

import (
	"github.com/gin-gonic/gin"

	"github.com/chaintrack/backend/internal/config"
)

// Controller handles general HTTP requests.
type Controller struct {
	config *config.Config
}

// New creates a new Controller with the given configuration.
func New(config *config.Config) *Controller {
	return &Controller{
		config: config,
	}
}

// Ping handles the HTTP GET request for health check endpoint.
func (con *Controller) Ping(c *gin.Context) {
	c.JSON(200, gin.H{
		"message": "pong",
	})
}
