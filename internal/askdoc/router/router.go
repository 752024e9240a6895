// Package router wires the askdoc HTTP routes.
package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kart-io/logger"

	"github.com/askdoc-io/askdoc/internal/askdoc/handler"
)

// Register registers the askdoc routes on the engine.
func Register(engine *gin.Engine, kh *handler.KnowledgeHandler, qh *handler.QueryHandler) {
	engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := engine.Group("/v1")
	{
		docs := v1.Group("/documents")
		{
			docs.POST("", kh.Upload)
			docs.GET("", kh.List)
			docs.GET("/deleted", kh.ListDeleted)
			docs.DELETE("/deleted", kh.Purge)
			docs.DELETE("/:id", kh.Delete)
			docs.POST("/:id/restore", kh.Restore)
			docs.POST("/:id/tags", kh.ToggleTag)
		}

		v1.POST("/query", qh.Query)
		v1.DELETE("/sessions", qh.ResetSessions)
		v1.POST("/reset", kh.Reset)
		v1.GET("/stats", kh.Stats)
	}

	logger.Info("HTTP routes registered")
}
