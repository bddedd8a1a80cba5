package main

import (
	"voicecoach/internal/httpapi"

	"github.com/gin-gonic/gin"
)

// registerRoutes wires HTTP routes to handlers.
// Keep this file free of business logic; handlers delegate to internal modules.
func registerRoutes(r *gin.Engine, h httpapi.Handlers, authMW gin.HandlerFunc) {
	// public
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	r.POST("/v1/auth/login", h.Login)

	// protected API group
	v1 := r.Group("/v1")
	v1.Use(authMW)
	{
		v1.GET("/assistants", h.ListAssistants)

		sess := v1.Group("/session")
		{
			sess.GET("", h.GetSession)
			sess.POST("/assistant", h.SelectAssistant)
			sess.POST("/call/start", h.StartCall)
			sess.POST("/call/stop", h.StopCall)
			sess.POST("/reset", h.ResetSession)
		}
	}
}
