package registry

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/kbukum/servicekit/logger"
	"github.com/kbukum/servicekit/observability"
)

// Registry is the discovery facade. It is immutable after New and safe for
// concurrent use.
type Registry struct {
	client        AgentClient
	agent         AgentConfiguration
	hasAgent      bool
	checkInterval time.Duration
	log           *logger.Logger
	metrics       *observability.RegistryMetrics
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the logger. The default discards output.
func WithLogger(l *logger.Logger) Option {
	return func(r *Registry) {
		if l != nil {
			r.log = l
		}
	}
}

// WithMetrics records operation counts and latencies.
func WithMetrics(m *observability.RegistryMetrics) Option {
	return func(r *Registry) { r.metrics = m }
}

// WithCheckInterval overrides the companion check interval.
func WithCheckInterval(d time.Duration) Option {
	return func(r *Registry) {
		if d > 0 {
			r.checkInterval = d
		}
	}
}

// New builds a Registry and reads the agent's own configuration once. If
// that read fails the Registry still works; lookups then run without
// datacenter or proximity defaults.
func New(ctx context.Context, client AgentClient, opts ...Option) *Registry {
	r := &Registry{
		client:        client,
		checkInterval: DefaultCheckInterval,
		log:           logger.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.log = r.log.WithComponent("registry")

	ctx, span := observability.StartSpan(ctx, observability.SpanAgentSelf)
	start := time.Now()
	agent, err := client.Self(ctx)
	r.metrics.RecordOperation(ctx, opAgentSelf, err, time.Since(start))
	observability.EndSpan(span, err)

	if err != nil {
		r.log.Warn("agent configuration unavailable, lookups will not be scoped", logger.ErrorFields(opAgentSelf, err))
		return r
	}
	r.agent, r.hasAgent = agent, true
	r.log.Debug("agent configuration read", logger.Fields(
		logger.FieldDatacenter, agent.Datacenter,
		logger.FieldNode, agent.NodeName,
	))
	return r
}

// Operation names used in logs and metrics.
const (
	opAgentSelf         = "agent_self"
	opRegisterService   = "register_service"
	opRegisterCheck     = "register_check"
	opDeregisterService = "deregister_service"
	opDeregisterCheck   = "deregister_check"
	opListDatacenters   = "list_datacenters"
	opFindNodes         = "find_nodes"
)

// Agent returns the agent configuration snapshot, if it was read.
func (r *Registry) Agent() (AgentConfiguration, bool) {
	return r.agent, r.hasAgent
}

// RegisterService registers reg and then its companion health check. A
// failed service registration is returned without attempting the check. A
// failed check registration is returned and the service stays registered.
func (r *Registry) RegisterService(ctx context.Context, reg ServiceRegistration) (err error) {
	reg.ApplyDefaults()
	ctx, span := observability.StartSpan(ctx, observability.SpanRegisterService,
		attribute.String(observability.AttrServiceName, reg.Name),
		attribute.String(observability.AttrServiceID, reg.ID),
	)
	defer func() { observability.EndSpan(span, err) }()

	if err := reg.Validate(); err != nil {
		return err
	}

	fields := logger.Fields(
		logger.FieldServiceID, reg.ID,
		logger.FieldServiceName, reg.Name,
		logger.FieldAddress, reg.Address,
		logger.FieldPort, reg.Port,
	)

	start := time.Now()
	err = r.client.RegisterService(ctx, reg)
	r.metrics.RecordOperation(ctx, opRegisterService, err, time.Since(start))
	if err != nil {
		r.log.Error("service registration failed", mergeFields(fields, logger.ErrorFields(opRegisterService, err)))
		return fmt.Errorf("register service %q: %w", reg.ID, err)
	}

	check := NewHealthCheck(reg, r.checkInterval)
	start = time.Now()
	err = r.client.RegisterCheck(ctx, check)
	r.metrics.RecordOperation(ctx, opRegisterCheck, err, time.Since(start))
	if err != nil {
		r.log.Error("health check registration failed", mergeFields(fields,
			logger.ErrorFields(opRegisterCheck, err),
			logger.Fields(logger.FieldCheckID, check.ID),
		))
		return fmt.Errorf("register check %q: %w", check.ID, err)
	}

	r.log.Info("service registered", mergeFields(fields, logger.Fields(
		logger.FieldCheckID, check.ID,
		"check_url", check.HTTP,
	)))
	return nil
}

// DeregisterService removes the companion check and then the service. A
// failed check removal is logged only; the agent drops checks bound to a
// removed service on its own.
func (r *Registry) DeregisterService(ctx context.Context, serviceID string) (err error) {
	ctx, span := observability.StartSpan(ctx, observability.SpanDeregisterService,
		attribute.String(observability.AttrServiceID, serviceID),
	)
	defer func() { observability.EndSpan(span, err) }()

	if serviceID == "" {
		return ErrMissingServiceName
	}

	checkID := CheckID(serviceID)
	start := time.Now()
	checkErr := r.client.DeregisterCheck(ctx, checkID)
	r.metrics.RecordOperation(ctx, opDeregisterCheck, checkErr, time.Since(start))
	if checkErr != nil {
		r.log.Warn("health check deregistration failed", mergeFields(
			logger.ErrorFields(opDeregisterCheck, checkErr),
			logger.Fields(logger.FieldCheckID, checkID, logger.FieldServiceID, serviceID),
		))
	}

	start = time.Now()
	err = r.client.DeregisterService(ctx, serviceID)
	r.metrics.RecordOperation(ctx, opDeregisterService, err, time.Since(start))
	if err != nil {
		r.log.Error("service deregistration failed", mergeFields(
			logger.ErrorFields(opDeregisterService, err),
			logger.Fields(logger.FieldServiceID, serviceID),
		))
		return fmt.Errorf("deregister service %q: %w", serviceID, err)
	}

	r.log.Info("service deregistered", logger.Fields(logger.FieldServiceID, serviceID))
	return nil
}

// ListDatacenters returns the datacenters known to the cluster.
func (r *Registry) ListDatacenters(ctx context.Context) (dcs []string, err error) {
	ctx, span := observability.StartSpan(ctx, observability.SpanListDatacenters)
	defer func() { observability.EndSpan(span, err) }()

	start := time.Now()
	dcs, err = r.client.Datacenters(ctx)
	r.metrics.RecordOperation(ctx, opListDatacenters, err, time.Since(start))
	if err != nil {
		r.log.Warn("listing datacenters failed", logger.ErrorFields(opListDatacenters, err))
		return nil, fmt.Errorf("list datacenters: %w", err)
	}
	return dcs, nil
}

// FindNodesForService returns passing instances matching q. Datacenter and
// Near default to the agent snapshot when unset. No match is an empty
// slice and a nil error.
func (r *Registry) FindNodesForService(ctx context.Context, q NodeQuery) (nodes []NodeWithService, err error) {
	q = r.scope(q)
	ctx, span := observability.StartSpan(ctx, observability.SpanFindNodes,
		attribute.String(observability.AttrServiceName, q.Service),
		attribute.String(observability.AttrTag, q.Tag),
		attribute.String(observability.AttrDatacenter, q.Datacenter),
		attribute.String(observability.AttrNear, q.Near),
	)
	defer func() {
		span.SetAttributes(attribute.Int(observability.AttrNodeCount, len(nodes)))
		observability.EndSpan(span, err)
	}()

	if q.Service == "" {
		return nil, ErrMissingServiceName
	}

	start := time.Now()
	nodes, err = r.client.HealthyNodes(ctx, q)
	r.metrics.RecordOperation(ctx, opFindNodes, err, time.Since(start))
	if err != nil {
		r.log.Warn("service lookup failed", mergeFields(
			logger.ErrorFields(opFindNodes, err),
			logger.Fields(
				logger.FieldServiceName, q.Service,
				logger.FieldTag, q.Tag,
				logger.FieldDatacenter, q.Datacenter,
			),
		))
		return nil, fmt.Errorf("find nodes for %q: %w", q.Service, err)
	}
	if nodes == nil {
		nodes = []NodeWithService{}
	}
	r.metrics.RecordNodes(ctx, q.Service, len(nodes))
	return nodes, nil
}

// ResolveBaseURL returns the base URL of the first passing instance of
// service carrying tag. The agent's ordering is kept as is.
func (r *Registry) ResolveBaseURL(ctx context.Context, service, tag string) (u *url.URL, err error) {
	ctx, span := observability.StartSpan(ctx, observability.SpanResolveBaseURL,
		attribute.String(observability.AttrServiceName, service),
		attribute.String(observability.AttrTag, tag),
	)
	defer func() { observability.EndSpan(span, err) }()

	nodes, err := r.FindNodesForService(ctx, NodeQuery{Service: service, Tag: tag})
	if err != nil {
		return nil, err
	}
	if len(nodes) == 0 {
		return nil, fmt.Errorf("%w: service %q tag %q", ErrNoHealthyNodes, service, tag)
	}
	return nodes[0].BaseURL()
}

func (r *Registry) scope(q NodeQuery) NodeQuery {
	if !r.hasAgent {
		return q
	}
	if q.Datacenter == "" {
		q.Datacenter = r.agent.Datacenter
	}
	if q.Near == "" {
		q.Near = r.agent.Near()
	}
	return q
}

func mergeFields(sets ...map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{})
	for _, s := range sets {
		for k, v := range s {
			out[k] = v
		}
	}
	return out
}
