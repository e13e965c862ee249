package registry

import "context"

// AgentClient is the subset of the discovery agent HTTP API the Registry
// needs. Implementations perform one blocking call per method.
type AgentClient interface {
	// Self reads the agent's own configuration.
	Self(ctx context.Context) (AgentConfiguration, error)
	// Datacenters lists datacenters known to the cluster.
	Datacenters(ctx context.Context) ([]string, error)
	// RegisterService registers or replaces a service on the local agent.
	RegisterService(ctx context.Context, reg ServiceRegistration) error
	// DeregisterService removes a service from the local agent.
	DeregisterService(ctx context.Context, serviceID string) error
	// RegisterCheck registers or replaces a check on the local agent.
	RegisterCheck(ctx context.Context, check HealthCheckRegistration) error
	// DeregisterCheck removes a check from the local agent.
	DeregisterCheck(ctx context.Context, checkID string) error
	// HealthyNodes returns instances of q.Service whose checks all pass.
	HealthyNodes(ctx context.Context, q NodeQuery) ([]NodeWithService, error)
}
