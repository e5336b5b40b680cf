package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jonesrussell/north-cloud/index-orchestrator/internal/infra/jwt"
)

// AuthConfig gates the admin group.
type AuthConfig struct {
	JWTSecret string
	AdminRole string
}

// SetupRoutes configures the admin API and /metrics. /health is registered by
// the server builder.
func SetupRoutes(router *gin.Engine, handler *Handler, auth AuthConfig, metrics http.Handler) {
	if metrics != nil {
		router.GET("/metrics", gin.WrapH(metrics))
	}

	v1 := router.Group("/api/v1")
	adminGroup := v1.Group("/admin")
	adminGroup.Use(jwt.Middleware(auth.JWTSecret), jwt.RequireRole(auth.AdminRole))

	adminGroup.GET("/overview", handler.GetOverview)                           // GET /api/v1/admin/overview
	adminGroup.POST("/indices/provision", handler.ProvisionIndices)            // POST /api/v1/admin/indices/provision
	adminGroup.DELETE("/indices", handler.DeleteAllIndices)                    // DELETE /api/v1/admin/indices
	adminGroup.DELETE("/indices/:index_name", handler.DeleteIndex)             // DELETE /api/v1/admin/indices/:index_name
	adminGroup.POST("/indices/:index_name/tokenizer", handler.ChangeTokenizer) // POST /api/v1/admin/indices/:index_name/tokenizer
	adminGroup.POST("/jobs/index/run", handler.RunIndexJob)                    // POST /api/v1/admin/jobs/index/run
	adminGroup.GET("/history", handler.GetHistory)                             // GET /api/v1/admin/history
}
