package component

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/kbukum/servicekit/logger"
)

// DefaultStopTimeout bounds each component's Stop call.
const DefaultStopTimeout = 10 * time.Second

type entry struct {
	component Component
	started   bool
}

// Manager starts components in registration order and stops them in
// reverse order.
type Manager struct {
	entries     []*entry
	lookup      map[string]*entry
	stopTimeout time.Duration
	log         *logger.Logger
	mu          sync.Mutex
}

// NewManager creates a Manager. A nil logger discards output.
func NewManager(log *logger.Logger) *Manager {
	if log == nil {
		log = logger.Nop()
	}
	return &Manager{
		lookup:      make(map[string]*entry),
		stopTimeout: DefaultStopTimeout,
		log:         log.WithComponent("lifecycle"),
	}
}

// SetStopTimeout overrides the per-component stop timeout.
func (m *Manager) SetStopTimeout(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopTimeout = d
}

// Register adds a component. Register dependencies first.
func (m *Manager) Register(c Component) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	name := c.Name()
	if _, exists := m.lookup[name]; exists {
		return fmt.Errorf("component %s already registered", name)
	}
	e := &entry{component: c}
	m.entries = append(m.entries, e)
	m.lookup[name] = e

	fields := logger.Fields(logger.FieldComponent, name)
	if d, ok := c.(Describable); ok {
		desc := d.Describe()
		fields["type"] = desc.Type
		fields["details"] = desc.Details
	}
	m.log.Debug("component registered", fields)
	return nil
}

// StartAll starts every component in registration order. It stops at the
// first failure; components already started stay started so StopAll can
// unwind them.
func (m *Manager) StartAll(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.log.Info("starting components", logger.Fields("count", len(m.entries)))
	for _, e := range m.entries {
		name := e.component.Name()
		start := time.Now()
		if err := e.component.Start(ctx); err != nil {
			m.log.Error("component start failed", logger.Fields(
				logger.FieldComponent, name,
				logger.FieldError, err.Error(),
			))
			return fmt.Errorf("failed to start %s: %w", name, err)
		}
		e.started = true
		m.log.Debug("component started", logger.Fields(
			logger.FieldComponent, name,
			logger.FieldDuration, time.Since(start).Milliseconds(),
		))
	}
	return nil
}

// StopAll stops started components in reverse order and joins their
// errors. The lock is not held while components stop, so HealthAll keeps
// answering during shutdown.
func (m *Manager) StopAll(ctx context.Context) error {
	m.mu.Lock()
	stopTimeout := m.stopTimeout
	var started []Component
	for i := len(m.entries) - 1; i >= 0; i-- {
		e := m.entries[i]
		if !e.started {
			continue
		}
		e.started = false
		started = append(started, e.component)
	}
	m.mu.Unlock()

	var errs []error
	for _, c := range started {
		name := c.Name()

		stopCtx, cancel := context.WithTimeout(ctx, stopTimeout)
		err := c.Stop(stopCtx)
		cancel()

		if err != nil {
			errs = append(errs, fmt.Errorf("failed to stop %s: %w", name, err))
			m.log.Error("component stop failed", logger.Fields(
				logger.FieldComponent, name,
				logger.FieldError, err.Error(),
			))
			continue
		}
		m.log.Info("component stopped", logger.Fields(logger.FieldComponent, name))
	}
	if len(errs) > 0 {
		return fmt.Errorf("shutdown errors: %w", errors.Join(errs...))
	}
	return nil
}

// HealthAll returns the health of every component in registration order.
func (m *Manager) HealthAll(ctx context.Context) []Health {
	m.mu.Lock()
	components := make([]Component, 0, len(m.entries))
	for _, e := range m.entries {
		components = append(components, e.component)
	}
	m.mu.Unlock()

	results := make([]Health, 0, len(components))
	for _, c := range components {
		results = append(results, c.Health(ctx))
	}
	return results
}

// Get returns a registered component by name, or nil.
func (m *Manager) Get(name string) Component {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.lookup[name]; ok {
		return e.component
	}
	return nil
}
