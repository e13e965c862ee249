// Package component defines lifecycle-managed parts of a servicekit
// process: the HTTP server, the discovery registration and anything else
// that must start in order and stop in reverse.
//
//	m := component.NewManager(log)
//	_ = m.Register(httpServer)
//	_ = m.Register(registration)
//	if err := m.StartAll(ctx); err != nil { ... }
//	defer m.StopAll(ctx)
package component
