package middleware

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// CORSMiddleware allows the web client origins to reach the gateway.
func CORSMiddleware() gin.HandlerFunc {
	config := cors.Config{
		AllowOrigins: []string{
			"http://localhost:3000",
			"http://localhost:8700",
			"http://127.0.0.1:3000",
			"http://127.0.0.1:8700",
			"http://[::1]:3000", // IPv6 localhost
			"http://[::1]:8700", // IPv6 localhost
		},
		AllowMethods: []string{
			"GET", "POST", "PUT", "DELETE", "OPTIONS",
		},
		AllowHeaders: []string{
			"Origin", "Content-Type", "Accept", "Authorization",
			"X-Requested-With", "Cache-Control",
			"X-Gathersync-Destination", "Sec-Fetch-Mode",
		},
		AllowCredentials: true,
		ExposeHeaders: []string{
			"Content-Type", "Cache-Control",
			"X-Gathersync-Cached-At", "X-Gathersync-Cache-Version",
		},
	}

	return cors.New(config)
}
