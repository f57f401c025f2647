// Package shutdown provides graceful shutdown for the stream coordinator.
//
// This package handles process termination signals:
//
//   - Signal handling (SIGINT, SIGTERM)
//   - Cleanup hook registration; hooks run in reverse order of registration
//   - One timeout-bounded context shared by all hooks; a hook that ignores
//     its context is not interrupted
//   - Shutdown coordination via Done
//
// Usage:
//
//	h := shutdown.NewHandler(30 * time.Second)
//	h.OnShutdown(func(ctx context.Context) error { return srv.Shutdown(ctx) })
//	err := h.Wait() // blocks until SIGINT/SIGTERM, then runs the hooks
//
package shutdown
