// README: Access-log middleware on the shared zap logger.
package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"chauffeur/internal/logging"
)

func Logging(log logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Info("request",
			logging.String("method", c.Request.Method),
			logging.String("path", c.Request.URL.Path),
			logging.Int("status", c.Writer.Status()),
			logging.Duration("took", time.Since(start)))
	}
}
