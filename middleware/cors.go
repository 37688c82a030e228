package middleware

import (
	"strings"
	"time"

	"taps-alert-api/config"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// SetupCORS builds the CORS policy from CORS_ALLOWED_ORIGINS. A single "*"
// opens the API to any origin without credentials; an explicit origin list
// enables credentialed requests. Authorization must stay in the allowed
// headers for the bearer-token endpoints (the websocket carries its token in
// the query string instead).
func SetupCORS(cfg config.CORSConfig) gin.HandlerFunc {
	corsCfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}

	origins := strings.Split(cfg.AllowedOrigins, ",")
	if len(origins) == 1 && origins[0] == "*" {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = origins
		corsCfg.AllowCredentials = true
	}

	return cors.New(corsCfg)
}
