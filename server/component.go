package server

import (
	"context"

	"github.com/kbukum/servicekit/component"
)

const componentName = "http-server"

var (
	_ component.Component   = (*Component)(nil)
	_ component.Describable = (*Component)(nil)
)

// Component wraps Server to implement component.Component.
type Component struct {
	server *Server
}

// NewComponent returns a component.Component backed by s.
func NewComponent(s *Server) *Component {
	return &Component{server: s}
}

// Name returns the component name.
func (c *Component) Name() string { return componentName }

// Start starts the HTTP server.
func (c *Component) Start(ctx context.Context) error { return c.server.Start(ctx) }

// Stop shuts the HTTP server down.
func (c *Component) Stop(ctx context.Context) error { return c.server.Stop(ctx) }

// Health reports whether the server is listening.
func (c *Component) Health(_ context.Context) component.Health {
	if c.server.Running() {
		return component.Health{Name: componentName, Status: component.StatusHealthy}
	}
	return component.Health{
		Name:    componentName,
		Status:  component.StatusUnhealthy,
		Message: "HTTP server not started",
	}
}

// Describe implements component.Describable.
func (c *Component) Describe() component.Description {
	return component.Description{
		Name:    "HTTP Server",
		Type:    "server",
		Details: c.server.Addr(),
		Port:    c.server.config.Port,
	}
}
