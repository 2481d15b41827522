package api

import (
	"embed"
	"io/fs"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// registerDashboard serves the embedded status page on every path the API
// does not claim. Unknown non-API paths fall back to index.html.
func registerDashboard(router *gin.Engine, assets embed.FS) {
	static, err := fs.Sub(assets, "static")
	if err != nil {
		log.Warn().Err(err).Msg("dashboard assets unavailable")
		return
	}

	fileServer := http.FileServer(http.FS(static))

	router.NoRoute(func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/api/") {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}
		if _, err := fs.Stat(static, strings.TrimPrefix(c.Request.URL.Path, "/")); err != nil {
			c.Request.URL.Path = "/"
		}
		fileServer.ServeHTTP(c.Writer, c.Request)
	})
}
