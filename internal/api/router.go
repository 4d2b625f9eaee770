package api

import (
	"net/http"

	routes "velocirrus/internal/api/handlers"

	"github.com/gin-gonic/gin"
)

// SetupRouter initializes all application routes. A nil metrics handler
// leaves /metrics unregistered.
func SetupRouter(r *gin.Engine, info map[string]string, refresh *routes.RefreshHandlers, metrics http.Handler) {
	// API group
	api := r.Group("/api")

	// Setup main handlers
	routes.SetupMainHandlers(r.Group(""), info)

	// Setup refresh handlers
	routes.SetupRefreshHandlers(api, refresh)

	if metrics != nil {
		r.GET("/metrics", gin.WrapH(metrics))
	}
}
