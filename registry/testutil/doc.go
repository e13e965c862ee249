// Package testutil provides an in-memory discovery agent for tests of code
// that depends on registry.AgentClient.
//
//	agent := testutil.NewAgent()
//	reg := registry.New(ctx, agent)
//	_ = reg.RegisterService(ctx, registry.ServiceRegistration{Name: "api"})
//	agent.SetStatus(registry.CheckID("api"), testutil.StatusCritical)
package testutil
