package bootstrap

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/kbukum/servicekit/component"
	"github.com/kbukum/servicekit/config"
	"github.com/kbukum/servicekit/logger"
)

type testConfig struct {
	config.ServiceConfig
}

type mockComponent struct {
	name     string
	startErr error
	health   component.Health
	events   *[]string
}

func (m *mockComponent) Name() string { return m.name }
func (m *mockComponent) Start(ctx context.Context) error {
	*m.events = append(*m.events, "start:"+m.name)
	return m.startErr
}
func (m *mockComponent) Stop(ctx context.Context) error {
	*m.events = append(*m.events, "stop:"+m.name)
	return nil
}
func (m *mockComponent) Health(ctx context.Context) component.Health { return m.health }

func newTestApp(t *testing.T) *App[*testConfig] {
	t.Helper()
	cfg := &testConfig{ServiceConfig: config.ServiceConfig{Name: "test-svc", Version: "1.0.0"}}
	app, err := NewApp(cfg, WithLogger(logger.Nop()), WithGracefulTimeout(time.Second))
	if err != nil {
		t.Fatalf("NewApp: %v", err)
	}
	return app
}

func TestNewApp_DefaultsAndValidation(t *testing.T) {
	app := newTestApp(t)
	if app.Name != "test-svc" || app.Version != "1.0.0" {
		t.Errorf("unexpected identity: %s %s", app.Name, app.Version)
	}
	if app.Cfg.Environment != "development" {
		t.Errorf("expected default environment, got %q", app.Cfg.Environment)
	}
	if app.gracefulTimeout != time.Second {
		t.Errorf("graceful timeout = %s", app.gracefulTimeout)
	}

	if _, err := NewApp(&testConfig{}); err == nil {
		t.Error("expected validation error for empty name")
	}
}

func TestApp_RunTaskLifecycle(t *testing.T) {
	app := newTestApp(t)
	var events []string
	healthy := component.Health{Status: component.StatusHealthy}
	_ = app.RegisterComponent(&mockComponent{name: "server", health: healthy, events: &events})
	_ = app.RegisterComponent(&mockComponent{name: "registry", health: healthy, events: &events})

	app.OnStart(func(context.Context) error { events = append(events, "hook:start"); return nil })
	app.OnReady(func(context.Context) error { events = append(events, "hook:ready"); return nil })
	app.OnStop(func(context.Context) error { events = append(events, "hook:stop"); return nil })

	err := app.RunTask(context.Background(), func(context.Context) error {
		events = append(events, "task")
		return nil
	})
	if err != nil {
		t.Fatalf("RunTask: %v", err)
	}

	want := "start:server,start:registry,hook:start,hook:ready,task,hook:stop,stop:registry,stop:server"
	if got := strings.Join(events, ","); got != want {
		t.Errorf("events =\n%s\nwant\n%s", got, want)
	}
}

func TestApp_RunTaskError(t *testing.T) {
	app := newTestApp(t)
	taskErr := errors.New("task failed")
	err := app.RunTask(context.Background(), func(context.Context) error { return taskErr })
	if !errors.Is(err, taskErr) {
		t.Errorf("expected task error, got %v", err)
	}
}

func TestApp_StartFailureUnwinds(t *testing.T) {
	app := newTestApp(t)
	var events []string
	_ = app.RegisterComponent(&mockComponent{name: "a", events: &events})
	_ = app.RegisterComponent(&mockComponent{name: "b", startErr: errors.New("bind failed"), events: &events})

	err := app.RunTask(context.Background(), func(context.Context) error {
		t.Fatal("task must not run")
		return nil
	})
	if err == nil || !strings.Contains(err.Error(), "bind failed") {
		t.Fatalf("expected start error, got %v", err)
	}
	if got := strings.Join(events, ","); got != "start:a,start:b,stop:a" {
		t.Errorf("events = %s", got)
	}
}

func TestApp_Run_ContextCanceled(t *testing.T) {
	app := newTestApp(t)
	ctx, cancel := context.WithCancel(context.Background())
	app.OnReady(func(context.Context) error { cancel(); return nil })

	done := make(chan error, 1)
	go func() { done <- app.Run(ctx) }()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestApp_ReadyCheck(t *testing.T) {
	app := newTestApp(t)
	var events []string
	_ = app.RegisterComponent(&mockComponent{
		name:   "registry",
		health: component.Health{Name: "registry", Status: component.StatusDegraded, Message: "agent configuration unavailable"},
		events: &events,
	})

	err := app.ReadyCheck(context.Background())
	if err == nil || !strings.Contains(err.Error(), "registry=degraded(agent configuration unavailable)") {
		t.Errorf("unexpected ready check result: %v", err)
	}
}

func TestApp_HookFailure(t *testing.T) {
	app := newTestApp(t)
	app.OnStart(func(context.Context) error { return errors.New("migrate failed") })
	err := app.RunTask(context.Background(), func(context.Context) error { return nil })
	if err == nil || !strings.Contains(err.Error(), "onStart hook failed") {
		t.Errorf("expected hook error, got %v", err)
	}
}
