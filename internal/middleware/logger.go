package middleware

import (
	"log"
	"time"

	"github.com/gin-gonic/gin"
)

// RequestLogger writes one line per request through the standard logger so
// access lines land in the same rotated file as the rest of the server log.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		status := c.Writer.Status()
		if c.Request.URL.Path == "/health" && status < 400 {
			return
		}
		user := GetUserID(c)
		if user == "" {
			user = "-"
		}
		log.Printf("[HTTP] %s %s %d %s user=%s ip=%s",
			c.Request.Method, c.Request.URL.Path, status, time.Since(start).Round(time.Microsecond), user, c.ClientIP())
	}
}
