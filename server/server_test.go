package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/servicekit/component"
	"github.com/kbukum/servicekit/config"
	"github.com/kbukum/servicekit/registry"
	"github.com/kbukum/servicekit/registry/testutil"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testTree() config.MapTree {
	return config.MapTree{
		"name":        "orders",
		"version":     "1.2.3",
		"environment": "test",
		"consul": map[string]any{
			"service": map[string]any{
				"id":   "orders-1",
				"name": "orders",
				"tags": []any{"production"},
				"port": 9090,
			},
		},
	}
}

func newTestServer(t *testing.T, tree config.Tree) *Server {
	t.Helper()
	cfg := Config{Host: "127.0.0.1", Port: 0}
	return New(cfg, tree, nil)
}

func get(t *testing.T, h http.Handler, path string) (int, map[string]any) {
	t.Helper()
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, http.NoBody))
	var body map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("GET %s: invalid JSON %q: %v", path, rr.Body.String(), err)
	}
	return rr.Code, body
}

func TestConfig_ApplyDefaultsAndValidate(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults()
	if cfg.Port != 8080 || cfg.ReadTimeout != 15*time.Second || cfg.ShutdownTimeout != 5*time.Second {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}

	tests := []Config{
		{Port: 70000},
		{Port: 80, ReadTimeout: -1},
		{Port: 80, WriteTimeout: -1},
		{Port: 80, IdleTimeout: -1},
	}
	for _, c := range tests {
		if err := c.Validate(); err == nil {
			t.Errorf("expected error for %+v", c)
		}
	}
}

func TestServer_HealthEndpoint(t *testing.T) {
	tests := []struct {
		name       string
		health     []component.Health
		wantCode   int
		wantStatus string
	}{
		{"no components", nil, http.StatusOK, "healthy"},
		{"degraded", []component.Health{{Name: "registry", Status: component.StatusDegraded}}, http.StatusOK, "degraded"},
		{"unhealthy", []component.Health{
			{Name: "registry", Status: component.StatusDegraded},
			{Name: "http-server", Status: component.StatusUnhealthy},
		}, http.StatusServiceUnavailable, "unhealthy"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s := newTestServer(t, testTree())
			s.ApplyDefaults("orders", func(context.Context) []component.Health { return tc.health })

			code, body := get(t, s.Handler(), "/health")
			if code != tc.wantCode || body["status"] != tc.wantStatus {
				t.Errorf("got %d %v, want %d %s", code, body["status"], tc.wantCode, tc.wantStatus)
			}
			if body["service"] != "orders" {
				t.Errorf("service = %v", body["service"])
			}
		})
	}
}

func TestServer_InfoEndpoint(t *testing.T) {
	s := newTestServer(t, testTree())
	s.ApplyDefaults("orders", nil)

	code, body := get(t, s.Handler(), "/info")
	if code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	if body["version"] != "1.2.3" || body["environment"] != "test" || body["service_id"] != "orders-1" {
		t.Errorf("unexpected info: %v", body)
	}
	build, ok := body["build"].(map[string]any)
	if !ok || build["version"] == "" {
		t.Errorf("missing build info: %v", body["build"])
	}
}

func TestServer_StartStop(t *testing.T) {
	s := newTestServer(t, testTree())
	s.ApplyDefaults("orders", nil)
	comp := NewComponent(s)
	ctx := context.Background()

	if got := comp.Health(ctx).Status; got != component.StatusUnhealthy {
		t.Errorf("health before start = %s", got)
	}
	if err := comp.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if got := comp.Health(ctx).Status; got != component.StatusHealthy {
		t.Errorf("health after start = %s", got)
	}

	resp, err := http.Get("http://" + s.Addr() + "/health")
	if err != nil {
		t.Fatalf("GET /health: %v", err)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d", resp.StatusCode)
	}
	if resp.Header.Get("X-Request-Id") == "" {
		t.Error("expected request id header")
	}

	if d := comp.Describe(); d.Type != "server" || d.Details != s.Addr() {
		t.Errorf("unexpected description: %+v", d)
	}
	if err := comp.Stop(ctx); err != nil {
		t.Fatalf("Stop: %v", err)
	}
}

func TestServer_StartBindFailure(t *testing.T) {
	s := New(Config{Host: "127.0.0.1", Port: -1}, nil, nil)
	if err := s.Start(context.Background()); err == nil {
		t.Fatal("expected bind error")
	}
}

func TestServer_RegisterAndDeregisterService(t *testing.T) {
	agent := testutil.NewAgent()
	reg := registry.New(context.Background(), agent)
	s := newTestServer(t, testTree())
	ctx := context.Background()

	if err := s.RegisterService(ctx, reg); err != nil {
		t.Fatalf("RegisterService: %v", err)
	}
	svc, ok := agent.Service("orders-1")
	if !ok {
		t.Fatal("expected orders-1 registered")
	}
	if svc.Name != "orders" || svc.Port != 9090 || len(svc.Tags) != 1 || svc.Tags[0] != "production" {
		t.Errorf("unexpected registration: %+v", svc)
	}

	if err := s.DeregisterService(ctx, reg); err != nil {
		t.Fatalf("DeregisterService: %v", err)
	}
	if agent.ServiceCount() != 0 {
		t.Error("expected no services after deregistration")
	}
}

func TestServer_RegisterServiceMissingConfig(t *testing.T) {
	reg := registry.New(context.Background(), testutil.NewAgent())
	s := newTestServer(t, config.MapTree{})

	err := s.RegisterService(context.Background(), reg)
	if err == nil {
		t.Fatal("expected configuration error")
	}
}

func TestServer_DiscoveryEndpoints(t *testing.T) {
	agent := testutil.NewAgent()
	reg := registry.New(context.Background(), agent)
	ctx := context.Background()
	_ = reg.RegisterService(ctx, registry.ServiceRegistration{
		Name: "payments", ID: "payments-1", Address: "10.0.0.7", Port: 8443, Tags: []string{"https", "production"},
	})

	s := newTestServer(t, testTree())
	s.RegisterDiscoveryEndpoints(reg)
	h := s.Handler()

	code, body := get(t, h, "/discovery/agent")
	if code != http.StatusOK {
		t.Fatalf("/discovery/agent = %d", code)
	}
	if data, _ := body["data"].(map[string]any); data["datacenter"] != "dc1" {
		t.Errorf("unexpected agent body: %v", body)
	}

	code, body = get(t, h, "/discovery/datacenters")
	if dcs, _ := body["data"].([]any); code != http.StatusOK || len(dcs) != 1 || dcs[0] != "dc1" {
		t.Errorf("/discovery/datacenters = %d %v", code, body)
	}

	code, body = get(t, h, "/discovery/services/payments?tag=production")
	nodes, _ := body["data"].([]any)
	if code != http.StatusOK || len(nodes) != 1 {
		t.Fatalf("/discovery/services/payments = %d %v", code, body)
	}
	if n := nodes[0].(map[string]any); n["service_id"] != "payments-1" || n["address"] != "10.0.0.7" {
		t.Errorf("unexpected node: %v", n)
	}

	code, body = get(t, h, "/discovery/services/payments/url?tag=production")
	if data, _ := body["data"].(map[string]any); code != http.StatusOK || data["url"] != "https://10.0.0.7:8443" {
		t.Errorf("/url = %d %v", code, body)
	}

	code, body = get(t, h, "/discovery/services/payments/url?tag=staging")
	if code != http.StatusNotFound {
		t.Errorf("expected 404 for no healthy nodes, got %d %v", code, body)
	}

	agent.SetError(testutil.MethodDatacenters, context.DeadlineExceeded)
	code, _ = get(t, h, "/discovery/datacenters")
	if code != http.StatusInternalServerError {
		t.Errorf("expected 500 for plain agent error, got %d", code)
	}
}

func TestServer_DiscoveryAgentUnavailable(t *testing.T) {
	agent := testutil.NewAgent()
	agent.SetError(testutil.MethodSelf, context.DeadlineExceeded)
	reg := registry.New(context.Background(), agent)

	s := newTestServer(t, nil)
	s.RegisterDiscoveryEndpoints(reg)

	code, body := get(t, s.Handler(), "/discovery/agent")
	if code != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d %v", code, body)
	}
}
