package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func RequestLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		// never log credentials: anything that smells like a token is redacted
		scrub := func(h http.Header) []string {
			redacted := make([]string, 0, len(h))
			for k := range h {
				lower := strings.ToLower(k)
				if strings.Contains(lower, "authorization") || strings.Contains(lower, "cookie") {
					redacted = append(redacted, k+": [redacted]")
					continue
				}
				redacted = append(redacted, k+": "+strings.Join(h[k], ","))
			}
			return redacted
		}

		log.Debug("incoming request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Strings("hdr", scrub(c.Request.Header)),
		)

		ts := time.Now()
		c.Next()

		latency := time.Since(ts)
		respStatus := c.Writer.Status()

		if len(c.Errors) > 0 {
			for _, e := range c.Errors {
				log.Error("handler error",
					zap.Int("status", respStatus),
					zap.Error(e),
					zap.String("path", c.Request.URL.Path),
				)
			}
		}

		log.Info("completed",
			zap.Int("status", respStatus),
			zap.Duration("latency", latency),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
		)
	}
}
