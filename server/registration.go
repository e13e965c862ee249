package server

import (
	"context"

	"github.com/kbukum/servicekit/registry"
)

var _ registry.Host = (*Server)(nil)

// RegisterService registers this server with reg using the
// consul.service block of its configuration.
func (s *Server) RegisterService(ctx context.Context, reg *registry.Registry) error {
	return reg.RegisterFromConfig(ctx, s)
}

// DeregisterService removes this server's registration from reg.
func (s *Server) DeregisterService(ctx context.Context, reg *registry.Registry) error {
	return reg.DeregisterFromConfig(ctx, s)
}
