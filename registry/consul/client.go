// Package consul implements registry.AgentClient on top of the Consul
// agent HTTP API.
package consul

import (
	"context"
	stderrors "errors"
	"fmt"

	"github.com/hashicorp/consul/api"

	"github.com/kbukum/servicekit/errors"
	"github.com/kbukum/servicekit/registry"
)

// Client talks to one Consul agent.
type Client struct {
	api *api.Client
}

var _ registry.AgentClient = (*Client)(nil)

// NewClient builds a Client from cfg after applying defaults.
func NewClient(cfg Config) (*Client, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, errors.InvalidConfig("consul.agent", err.Error())
	}

	apiCfg := api.DefaultConfig()
	apiCfg.Address = cfg.Address
	apiCfg.Scheme = cfg.Scheme
	apiCfg.Datacenter = cfg.Datacenter
	apiCfg.Namespace = cfg.Namespace
	apiCfg.Partition = cfg.Partition
	if cfg.Token != "" {
		apiCfg.Token = cfg.Token
	}
	if cfg.TLS != nil && cfg.TLS.Enabled {
		apiCfg.TLSConfig = api.TLSConfig{
			Address:            cfg.TLS.ServerName,
			CAFile:             cfg.TLS.CACert,
			CAPath:             cfg.TLS.CAPath,
			CertFile:           cfg.TLS.ClientCert,
			KeyFile:            cfg.TLS.ClientKey,
			InsecureSkipVerify: cfg.TLS.InsecureSkipVerify,
		}
	}

	httpClient, err := api.NewHttpClient(apiCfg.Transport, apiCfg.TLSConfig)
	if err != nil {
		return nil, fmt.Errorf("consul http client: %w", err)
	}
	httpClient.Timeout = cfg.Timeout
	apiCfg.HttpClient = httpClient

	client, err := api.NewClient(apiCfg)
	if err != nil {
		return nil, fmt.Errorf("consul client: %w", err)
	}
	return &Client{api: client}, nil
}

// NewFromAPI wraps an existing api.Client.
func NewFromAPI(c *api.Client) *Client {
	return &Client{api: c}
}

// API returns the underlying api.Client.
func (c *Client) API() *api.Client { return c.api }

// Self reads the agent's Config block.
func (c *Client) Self(ctx context.Context) (registry.AgentConfiguration, error) {
	if err := ctx.Err(); err != nil {
		return registry.AgentConfiguration{}, err
	}
	self, err := c.api.Agent().Self()
	if err != nil {
		return registry.AgentConfiguration{}, wrap("agent self", err)
	}
	cfg, ok := self["Config"]
	if !ok {
		return registry.AgentConfiguration{}, errors.ExternalServiceError("consul",
			fmt.Errorf("agent self: response has no Config section"))
	}
	return registry.AgentConfiguration{
		Datacenter: stringField(cfg, "Datacenter"),
		NodeID:     stringField(cfg, "NodeID"),
		NodeName:   stringField(cfg, "NodeName"),
	}, nil
}

// Datacenters lists the datacenters known to the catalog.
func (c *Client) Datacenters(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	dcs, err := c.api.Catalog().Datacenters()
	if err != nil {
		return nil, wrap("catalog datacenters", err)
	}
	return dcs, nil
}

// RegisterService registers reg with the local agent.
func (c *Client) RegisterService(ctx context.Context, reg registry.ServiceRegistration) error {
	asr := &api.AgentServiceRegistration{
		ID:      reg.ID,
		Name:    reg.Name,
		Tags:    reg.Tags,
		Port:    reg.Port,
		Address: reg.Address,
		Meta:    reg.Meta,
	}
	if err := c.api.Agent().ServiceRegisterOpts(asr, api.ServiceRegisterOpts{}.WithContext(ctx)); err != nil {
		return wrap(fmt.Sprintf("agent service register %q", reg.ID), err)
	}
	return nil
}

// DeregisterService removes serviceID from the local agent.
func (c *Client) DeregisterService(ctx context.Context, serviceID string) error {
	q := (&api.QueryOptions{}).WithContext(ctx)
	if err := c.api.Agent().ServiceDeregisterOpts(serviceID, q); err != nil {
		return wrap(fmt.Sprintf("agent service deregister %q", serviceID), err)
	}
	return nil
}

// RegisterCheck registers an HTTP check with the local agent.
func (c *Client) RegisterCheck(ctx context.Context, check registry.HealthCheckRegistration) error {
	reg := &api.AgentCheckRegistration{
		ID:        check.ID,
		Name:      check.Name,
		ServiceID: check.ServiceID,
		AgentServiceCheck: api.AgentServiceCheck{
			HTTP:     check.HTTP,
			Interval: check.Interval,
		},
	}
	q := (&api.QueryOptions{}).WithContext(ctx)
	if err := c.api.Agent().CheckRegisterOpts(reg, q); err != nil {
		return wrap(fmt.Sprintf("agent check register %q", check.ID), err)
	}
	return nil
}

// DeregisterCheck removes checkID from the local agent.
func (c *Client) DeregisterCheck(ctx context.Context, checkID string) error {
	q := (&api.QueryOptions{}).WithContext(ctx)
	if err := c.api.Agent().CheckDeregisterOpts(checkID, q); err != nil {
		return wrap(fmt.Sprintf("agent check deregister %q", checkID), err)
	}
	return nil
}

// HealthyNodes queries /v1/health/service with passing=1.
func (c *Client) HealthyNodes(ctx context.Context, q registry.NodeQuery) ([]registry.NodeWithService, error) {
	opts := (&api.QueryOptions{
		Datacenter: q.Datacenter,
		Near:       q.Near,
	}).WithContext(ctx)

	entries, _, err := c.api.Health().Service(q.Service, q.Tag, true, opts)
	if err != nil {
		return nil, wrap(fmt.Sprintf("health service %q", q.Service), err)
	}

	nodes := make([]registry.NodeWithService, 0, len(entries))
	for _, e := range entries {
		if e == nil || e.Service == nil {
			continue
		}
		nodes = append(nodes, entryToNode(e))
	}
	return nodes, nil
}

func entryToNode(e *api.ServiceEntry) registry.NodeWithService {
	var n registry.NodeWithService
	if e.Node != nil {
		n.Node = registry.Node{
			ID:         e.Node.ID,
			Name:       e.Node.Node,
			Address:    e.Node.Address,
			Datacenter: e.Node.Datacenter,
		}
	}
	n.Service = registry.ServiceInstance{
		ID:      e.Service.ID,
		Name:    e.Service.Service,
		Address: e.Service.Address,
		Port:    e.Service.Port,
		Tags:    append([]string(nil), e.Service.Tags...),
	}
	return n
}

// wrap classifies agent errors: HTTP status errors are external service
// errors, anything else means the agent could not be reached.
func wrap(op string, err error) error {
	var statusErr api.StatusError
	if stderrors.As(err, &statusErr) {
		return errors.ExternalServiceError("consul", fmt.Errorf("%s: %w", op, err)).
			WithDetail("status", statusErr.Code)
	}
	return errors.ServiceUnavailable("consul").WithCause(fmt.Errorf("%s: %w", op, err))
}

func stringField(m map[string]interface{}, key string) string {
	s, _ := m[key].(string)
	return s
}
