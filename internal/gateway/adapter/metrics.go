// Package adapter implements the gateway's outbound ports: directory
// authentication, code transport, and registration storage, plus the
// operator console's supporting infrastructure.
package adapter

import "go.opentelemetry.io/otel"

var tracer = otel.Tracer("gateway/adapter")
