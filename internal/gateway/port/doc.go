// Package port contains the registration gateway's gRPC entry points.
// Handlers translate wire requests (pkg/protocol) into app-layer calls and
// map results/errors back onto the wire.
package port
