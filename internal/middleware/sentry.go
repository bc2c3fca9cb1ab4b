package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/getsentry/sentry-go"
	"github.com/gin-gonic/gin"

	"clinicdesk/internal/monitoring"
)

// SentryMiddleware gives each request its own hub and transaction, and
// reports errors handlers attached with c.Error once the request is done.
func SentryMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if sentry.CurrentHub().Client() == nil {
			c.Next()
			return
		}
		hub := sentry.CurrentHub().Clone()
		ctx := sentry.SetHubOnContext(c.Request.Context(), hub)

		transaction := sentry.StartTransaction(ctx,
			fmt.Sprintf("%s %s", c.Request.Method, c.FullPath()),
			sentry.ContinueFromRequest(c.Request),
		)
		defer func() {
			transaction.Status = sentry.HTTPtoSpanStatus(c.Writer.Status())
			transaction.Finish()
		}()
		defer func() {
			if r := recover(); r != nil {
				hub.RecoverWithContext(ctx, r)
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
			}
		}()

		hub.ConfigureScope(func(scope *sentry.Scope) {
			scope.SetContext("Request", map[string]interface{}{
				"Method":  c.Request.Method,
				"URL":     c.Request.URL.String(),
				"Headers": safeHeaders(c.Request.Header),
			})
			scope.SetTag("http.method", c.Request.Method)
			scope.SetTag("http.route", c.FullPath())
			if rid, ok := c.Get("request_id"); ok {
				scope.SetTag("request_id", fmt.Sprint(rid))
			}
		})

		c.Request = c.Request.WithContext(transaction.Context())
		c.Next()

		for _, e := range c.Errors {
			monitoring.CaptureError(hub, e.Err, map[string]interface{}{"route": c.FullPath()})
		}
	}
}

func safeHeaders(h http.Header) map[string]interface{} {
	safe := make(map[string]interface{})
	for k, v := range h {
		if strings.EqualFold(k, "Authorization") || strings.EqualFold(k, "Cookie") {
			safe[k] = "[FILTERED]"
		} else {
			safe[k] = v
		}
	}
	return safe
}
