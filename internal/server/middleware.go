package server

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ezoic/svrdash/pkg/log"
)

// requestLogger logs one line per request through the global zerolog logger.
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		l := log.GetLogger()
		status := c.Writer.Status()
		ev := l.Info()
		switch {
		case status >= 500:
			ev = l.Error()
		case status >= 400:
			ev = l.Warn()
		}
		if len(c.Errors) > 0 {
			ev = ev.Str("errors", c.Errors.String())
		}
		if id := c.Param("id"); id != "" {
			ev = ev.Str(log.SessionKey, id)
		}
		ev.Str("method", c.Request.Method).
			Str("path", path).
			Int("status", status).
			Int("size", c.Writer.Size()).
			Str("client_ip", c.ClientIP()).
			Int64(log.DurationMsKey, time.Since(start).Milliseconds()).
			Msg("request")
	}
}
