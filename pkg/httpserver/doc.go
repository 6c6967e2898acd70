// Package httpserver wraps net/http's Server with graceful shutdown,
// signal handling and slog integration for the operational surface.
//
//	srv := httpserver.New(httpserver.WithAddr(":8090"), httpserver.WithLogger(log))
//	if err := srv.Run(ctx, opsHandler); err != nil {
//		// handle startup failure
//	}
//
// Run blocks until the context is cancelled, SIGINT/SIGTERM arrives, or
// the listener fails; shutdown is bounded by the configured timeout.
package httpserver
