// Package main is the entrypoint for the phone registration gateway.
// registrationd authenticates phone-registration callers against a
// directory, sends and checks verification codes, and commits verified
// registrations — plus a secondary operator console for directory lookups.
package main

import (
	"context"
	"fmt"
	"os"
	"sync"

	"google.golang.org/grpc"

	"github.com/aelexs/realtime-messaging-platform/internal/config"
	"github.com/aelexs/realtime-messaging-platform/internal/server"
)

func main() {
	ctx := context.Background()
	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	return server.Run(ctx, server.Params{
		Name:               "registrationd",
		PortFromConfig:     func(cfg *config.Config) int { return cfg.Server.HealthPort },
		GRPCPortFromConfig: func(cfg *config.Config) int { return cfg.Server.Port },
		Setup:              setup,
		UnaryInterceptors:  []grpc.UnaryServerInterceptor{operatorInterceptors.intercept},
	}, server.Listeners{})
}

// operatorInterceptors defers the operator-auth interceptor's real
// implementation until setup() builds the OperatorService it depends on.
// grpc.NewServer (called by server.Run before Setup runs) requires its
// interceptor chain up front, so this forwards to whatever setup() installs.
var operatorInterceptors = &deferredInterceptor{}

type deferredInterceptor struct {
	mu sync.RWMutex
	fn grpc.UnaryServerInterceptor
}

func (d *deferredInterceptor) set(fn grpc.UnaryServerInterceptor) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.fn = fn
}

func (d *deferredInterceptor) intercept(
	ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler,
) (any, error) {
	d.mu.RLock()
	fn := d.fn
	d.mu.RUnlock()
	if fn == nil {
		return handler(ctx, req)
	}
	return fn(ctx, req, info, handler)
}
