package app

import (
	"go.opentelemetry.io/otel/metric"

	"github.com/aelexs/realtime-messaging-platform/internal/observability"
)

// Package-level tracer/meter instruments, grounded on
// internal/chatmgmt/app/auth_service.go's module-level OTel wiring.
var (
	tracer = observability.Tracer("gateway/app")
	meter  = observability.Meter("gateway/app")

	sessionsCreatedTotal   metric.Int64Counter
	rateLimitsTotal        metric.Int64Counter
	directoryFailuresTotal metric.Int64Counter
	transportFailuresTotal metric.Int64Counter
	codeChecksTotal        metric.Int64Counter
)

func init() {
	var err error
	sessionsCreatedTotal, err = meter.Int64Counter("gateway.sessions_created_total",
		metric.WithDescription("Registration sessions created"))
	if err != nil {
		panic(err)
	}
	rateLimitsTotal, err = meter.Int64Counter("gateway.rate_limits_total",
		metric.WithDescription("Requests denied by the rate limiter, by bucket"))
	if err != nil {
		panic(err)
	}
	directoryFailuresTotal, err = meter.Int64Counter("gateway.directory_failures_total",
		metric.WithDescription("Directory authentication failures, by reason"))
	if err != nil {
		panic(err)
	}
	transportFailuresTotal, err = meter.Int64Counter("gateway.transport_failures_total",
		metric.WithDescription("Code transport send/check failures"))
	if err != nil {
		panic(err)
	}
	codeChecksTotal, err = meter.Int64Counter("gateway.code_checks_total",
		metric.WithDescription("Verification code check outcomes"))
	if err != nil {
		panic(err)
	}
}
