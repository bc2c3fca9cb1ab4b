package monitoring

import (
	"fmt"
	"time"

	"github.com/getsentry/sentry-go"
)

// InitSentry configures the global hub. An empty DSN leaves Sentry disabled
// and returns a no-op flush.
func InitSentry(dsn, environment, release string) (func(), error) {
	if dsn == "" {
		return func() {}, nil
	}
	err := sentry.Init(sentry.ClientOptions{
		Dsn:              dsn,
		Environment:      environment,
		Release:          "clinicdesk@" + release,
		TracesSampleRate: 0.2,
	})
	if err != nil {
		return nil, fmt.Errorf("sentry initialization failed: %w", err)
	}
	return func() { sentry.Flush(2 * time.Second) }, nil
}

// CaptureError reports err with extra context on the current hub.
func CaptureError(hub *sentry.Hub, err error, extra map[string]interface{}) {
	if hub == nil {
		hub = sentry.CurrentHub()
	}
	if hub == nil || hub.Client() == nil || err == nil {
		return
	}
	hub.WithScope(func(scope *sentry.Scope) {
		for k, v := range extra {
			scope.SetExtra(k, v)
		}
		hub.CaptureException(err)
	})
}
