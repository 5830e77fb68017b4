package http

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// NewRouter builds the engine with logging, panic recovery and open CORS.
// Files under staticDir are served at /files when staticDir is set.
func NewRouter(h *Handler, staticDir string) *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery(), cors.Default())

	if staticDir != "" {
		r.Static("/files", staticDir)
	}
	h.RegisterRoutes(r)
	return r
}
