package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	domain "github.com/yungbote/schoolbridge-backend/internal/domain/mastery"
	"github.com/yungbote/schoolbridge-backend/internal/platform/ctxutil"
	"github.com/yungbote/schoolbridge-backend/internal/platform/logger"
)

// RequestLogger writes one access line per request. Errors attached by the
// handlers are logged with their engine code; health probes log at debug.
func RequestLogger(log *logger.Logger) gin.HandlerFunc {
	if log == nil {
		return func(c *gin.Context) { c.Next() }
	}
	log = log.With("component", "http")
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		kv := []interface{}{
			"method", c.Request.Method,
			"route", route,
			"status", status,
			"duration_ms", time.Since(start).Milliseconds(),
		}
		if td := ctxutil.GetTraceData(c.Request.Context()); td != nil {
			kv = append(kv, "trace_id", td.TraceID, "request_id", td.RequestID)
		}
		if rd := ctxutil.GetRequestData(c.Request.Context()); rd != nil {
			kv = append(kv, "user_id", rd.UserID.String(), "org_id", rd.OrganizationID.String())
		}
		if last := c.Errors.Last(); last != nil {
			kv = append(kv, "error", last.Err.Error(), "error_code", string(domain.CodeOf(last.Err)))
		}

		switch {
		case status >= 500:
			log.Error("HTTP request", kv...)
		case status >= 400:
			log.Warn("HTTP request", kv...)
		case route == "/healthcheck":
			log.Debug("HTTP request", kv...)
		default:
			log.Info("HTTP request", kv...)
		}
	}
}
