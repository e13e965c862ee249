package registry

import (
	"context"
	"fmt"
	"sync"

	"github.com/kbukum/servicekit/component"
)

// Component ties a host's registration to the process lifecycle: Start
// registers from the host's configuration and Stop deregisters.
type Component struct {
	registry   *Registry
	host       Host
	mu         sync.RWMutex
	registered bool
}

var (
	_ component.Component   = (*Component)(nil)
	_ component.Describable = (*Component)(nil)
)

// NewComponent creates the lifecycle adapter for host.
func NewComponent(r *Registry, host Host) *Component {
	return &Component{registry: r, host: host}
}

// Name implements component.Component.
func (c *Component) Name() string { return "registry" }

// Start registers the host's service.
func (c *Component) Start(ctx context.Context) error {
	if err := c.registry.RegisterFromConfig(ctx, c.host); err != nil {
		return err
	}
	c.mu.Lock()
	c.registered = true
	c.mu.Unlock()
	return nil
}

// Stop deregisters the host's service if Start succeeded.
func (c *Component) Stop(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.registered {
		return nil
	}
	if err := c.registry.DeregisterFromConfig(ctx, c.host); err != nil {
		return err
	}
	c.registered = false
	return nil
}

// Health reports degraded when the agent configuration could not be read.
func (c *Component) Health(_ context.Context) component.Health {
	c.mu.RLock()
	registered := c.registered
	c.mu.RUnlock()

	h := component.Health{Name: c.Name(), Status: component.StatusHealthy}
	switch {
	case !registered:
		h.Status = component.StatusUnhealthy
		h.Message = "service not registered"
	case !c.registry.hasAgent:
		h.Status = component.StatusDegraded
		h.Message = "agent configuration unavailable"
	}
	return h
}

// Describe implements component.Describable.
func (c *Component) Describe() component.Description {
	details := "agent unscoped"
	if agent, ok := c.registry.Agent(); ok {
		details = fmt.Sprintf("dc=%s node=%s", agent.Datacenter, agent.NodeName)
	}
	if tree := c.host.ConfigTree(); tree != nil {
		if name := tree.GetString(KeyServiceName); name != "" {
			details = name + " " + details
		}
	}
	return component.Description{Name: "Service Registry", Type: "discovery", Details: details}
}
