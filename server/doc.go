// Package server provides the gin based HTTP server that hosts a
// servicekit application.
//
// The server carries the service configuration tree, so it can register
// itself with the discovery agent:
//
//	srv := server.New(cfg, tree, log)
//	srv.ApplyDefaults("orders", manager.HealthAll)
//	if err := srv.Start(ctx); err != nil { ... }
//	if err := srv.RegisterService(ctx, reg); err != nil { ... }
//	defer srv.DeregisterService(ctx, reg)
//
// GET /health is the target of the companion health check registered with
// every service. It answers 503 when any component is unhealthy.
package server
