// Package registry registers the running service with a discovery agent
// and looks up healthy instances of other services.
//
// A Registry is built once in the composition root around an AgentClient
// (see registry/consul for the Consul implementation) and passed to
// whatever needs it:
//
//	client, _ := consul.NewClient(consul.DefaultConfig())
//	reg := registry.New(ctx, client, registry.WithLogger(log))
//
//	err := reg.RegisterService(ctx, registry.ServiceRegistration{
//		Name: "orders",
//		Tags: []string{"production", "https"},
//		Port: 8443,
//	})
//
//	base, err := reg.ResolveBaseURL(ctx, "payments", "production")
//
// Every registration also registers an HTTP health check named
// "<id>.check.vapor.running" that probes the service address. Lookups only
// return instances whose checks are passing.
//
// Hosts that carry a configuration tree can register from it directly with
// RegisterFromConfig and DeregisterFromConfig, which read the
// consul.service.* block.
package registry
