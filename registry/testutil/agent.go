package testutil

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/kbukum/servicekit/registry"
)

// Check states.
const (
	StatusPassing  = "passing"
	StatusWarning  = "warning"
	StatusCritical = "critical"
)

// Method names accepted by SetError and recorded in Calls.
const (
	MethodSelf              = "Self"
	MethodDatacenters       = "Datacenters"
	MethodRegisterService   = "RegisterService"
	MethodDeregisterService = "DeregisterService"
	MethodRegisterCheck     = "RegisterCheck"
	MethodDeregisterCheck   = "DeregisterCheck"
	MethodHealthyNodes      = "HealthyNodes"
)

// Call is one recorded AgentClient invocation.
type Call struct {
	Method string
	Arg    string
}

type checkState struct {
	check  registry.HealthCheckRegistration
	status string
}

// Agent is an in-memory registry.AgentClient. All services live on a
// single node. New checks start out passing.
type Agent struct {
	mu          sync.RWMutex
	self        registry.AgentConfiguration
	node        registry.Node
	datacenters []string
	services    map[string]registry.ServiceRegistration
	order       []string
	checks      map[string]*checkState
	errs        map[string]error
	calls       []Call
	queries     []registry.NodeQuery
}

var _ registry.AgentClient = (*Agent)(nil)

// NewAgent creates an agent for node "node-1" in datacenter "dc1".
func NewAgent() *Agent {
	return &Agent{
		self: registry.AgentConfiguration{
			Datacenter: "dc1",
			NodeID:     "2f0c7c1e-0000-4000-8000-000000000001",
			NodeName:   "node-1",
		},
		node: registry.Node{
			ID:         "2f0c7c1e-0000-4000-8000-000000000001",
			Name:       "node-1",
			Address:    "127.0.0.1",
			Datacenter: "dc1",
		},
		datacenters: []string{"dc1"},
		services:    make(map[string]registry.ServiceRegistration),
		checks:      make(map[string]*checkState),
		errs:        make(map[string]error),
	}
}

// SetSelf replaces the agent configuration returned by Self.
func (a *Agent) SetSelf(cfg registry.AgentConfiguration) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.self = cfg
	a.node.ID, a.node.Name, a.node.Datacenter = cfg.NodeID, cfg.NodeName, cfg.Datacenter
}

// SetDatacenters replaces the datacenter list.
func (a *Agent) SetDatacenters(dcs ...string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.datacenters = dcs
}

// SetError makes method fail with err. A nil err clears it.
func (a *Agent) SetError(method string, err error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err == nil {
		delete(a.errs, method)
		return
	}
	a.errs[method] = err
}

// SetStatus changes the state of a registered check.
func (a *Agent) SetStatus(checkID, status string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if c, ok := a.checks[checkID]; ok {
		c.status = status
	}
}

// Service returns the registration stored under id.
func (a *Agent) Service(id string) (registry.ServiceRegistration, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	s, ok := a.services[id]
	return s, ok
}

// ServiceCount returns the number of registered services.
func (a *Agent) ServiceCount() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.services)
}

// Check returns the check stored under id.
func (a *Agent) Check(id string) (registry.HealthCheckRegistration, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	c, ok := a.checks[id]
	if !ok {
		return registry.HealthCheckRegistration{}, false
	}
	return c.check, true
}

// Calls returns every recorded invocation in order.
func (a *Agent) Calls() []Call {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return append([]Call(nil), a.calls...)
}

// LastQuery returns the most recent HealthyNodes query.
func (a *Agent) LastQuery() (registry.NodeQuery, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if len(a.queries) == 0 {
		return registry.NodeQuery{}, false
	}
	return a.queries[len(a.queries)-1], true
}

func (a *Agent) record(method, arg string) error {
	a.calls = append(a.calls, Call{Method: method, Arg: arg})
	return a.errs[method]
}

// Self implements registry.AgentClient.
func (a *Agent) Self(_ context.Context) (registry.AgentConfiguration, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.record(MethodSelf, ""); err != nil {
		return registry.AgentConfiguration{}, err
	}
	return a.self, nil
}

// Datacenters implements registry.AgentClient.
func (a *Agent) Datacenters(_ context.Context) ([]string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.record(MethodDatacenters, ""); err != nil {
		return nil, err
	}
	return append([]string(nil), a.datacenters...), nil
}

// RegisterService implements registry.AgentClient. Registering an existing
// id replaces it.
func (a *Agent) RegisterService(_ context.Context, reg registry.ServiceRegistration) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.record(MethodRegisterService, reg.ID); err != nil {
		return err
	}
	if _, exists := a.services[reg.ID]; !exists {
		a.order = append(a.order, reg.ID)
	}
	reg.Tags = slices.Clone(reg.Tags)
	a.services[reg.ID] = reg
	return nil
}

// DeregisterService implements registry.AgentClient. Checks bound to the
// service are removed with it.
func (a *Agent) DeregisterService(_ context.Context, serviceID string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.record(MethodDeregisterService, serviceID); err != nil {
		return err
	}
	if _, ok := a.services[serviceID]; !ok {
		return fmt.Errorf("unknown service ID %q", serviceID)
	}
	delete(a.services, serviceID)
	a.order = slices.DeleteFunc(a.order, func(id string) bool { return id == serviceID })
	for id, c := range a.checks {
		if c.check.ServiceID == serviceID {
			delete(a.checks, id)
		}
	}
	return nil
}

// RegisterCheck implements registry.AgentClient.
func (a *Agent) RegisterCheck(_ context.Context, check registry.HealthCheckRegistration) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.record(MethodRegisterCheck, check.ID); err != nil {
		return err
	}
	if check.ServiceID != "" {
		if _, ok := a.services[check.ServiceID]; !ok {
			return fmt.Errorf("ServiceID %q does not exist", check.ServiceID)
		}
	}
	a.checks[check.ID] = &checkState{check: check, status: StatusPassing}
	return nil
}

// DeregisterCheck implements registry.AgentClient.
func (a *Agent) DeregisterCheck(_ context.Context, checkID string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.record(MethodDeregisterCheck, checkID); err != nil {
		return err
	}
	if _, ok := a.checks[checkID]; !ok {
		return fmt.Errorf("unknown check ID %q", checkID)
	}
	delete(a.checks, checkID)
	return nil
}

// HealthyNodes implements registry.AgentClient. Instances are returned in
// registration order.
func (a *Agent) HealthyNodes(_ context.Context, q registry.NodeQuery) ([]registry.NodeWithService, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.queries = append(a.queries, q)
	if err := a.record(MethodHealthyNodes, q.Service); err != nil {
		return nil, err
	}
	if q.Datacenter != "" && q.Datacenter != a.node.Datacenter {
		return nil, fmt.Errorf("no path to datacenter %q", q.Datacenter)
	}

	var out []registry.NodeWithService
	for _, id := range a.order {
		svc := a.services[id]
		if svc.Name != q.Service {
			continue
		}
		if q.Tag != "" && !slices.Contains(svc.Tags, q.Tag) {
			continue
		}
		if !a.passing(id) {
			continue
		}
		out = append(out, registry.NodeWithService{
			Node: a.node,
			Service: registry.ServiceInstance{
				ID:      svc.ID,
				Name:    svc.Name,
				Address: svc.Address,
				Port:    svc.Port,
				Tags:    slices.Clone(svc.Tags),
			},
		})
	}
	return out, nil
}

func (a *Agent) passing(serviceID string) bool {
	for _, c := range a.checks {
		if c.check.ServiceID == serviceID && c.status != StatusPassing {
			return false
		}
	}
	return true
}
