// Package httpserver runs an http.Handler until a context is cancelled and
// then shuts it down within Config.ShutdownTimeout. It also provides
// liveness and readiness handlers for orchestrator probes.
//
//	srv := httpserver.New(cfg, httpserver.WithLogger(log))
//	g.Go(srv.RunFunc(ctx, router))
package httpserver
