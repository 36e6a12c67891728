package http

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
)

// RegisterStatic serves the SPA bundle from staticDir and falls back to its
// entry document for unknown non-API paths so client-side routing works.
func RegisterStatic(router *gin.Engine, staticDir string) {
	index := filepath.Join(staticDir, "index.html")

	router.GET("/", func(c *gin.Context) {
		c.File(index)
	})
	router.Static("/_app", filepath.Join(staticDir, "_app"))
	router.Static("/static/images", filepath.Join(staticDir, "images"))
	router.GET("/favicon.png", func(c *gin.Context) {
		c.File(filepath.Join(staticDir, "favicon.png"))
	})
	router.GET("/sql-wasm.wasm", func(c *gin.Context) {
		wasm := filepath.Join(staticDir, "sql-wasm.wasm")
		if _, err := os.Stat(wasm); err != nil {
			c.Status(http.StatusNotFound)
			return
		}
		c.Header("Content-Type", "application/wasm")
		c.File(wasm)
	})

	router.NoRoute(func(c *gin.Context) {
		path := strings.TrimPrefix(c.Request.URL.Path, "/")
		// API misses stay 404; so do paths that look like file requests
		segment := path
		if i := strings.LastIndex(path, "/"); i >= 0 {
			segment = path[i+1:]
		}
		if strings.HasPrefix(path, "api/") || strings.Contains(segment, ".") {
			c.Status(http.StatusNotFound)
			return
		}
		c.File(index)
	})
}
