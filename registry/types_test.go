package registry

import (
	"errors"
	"testing"
	"time"
)

func TestServiceRegistration_ApplyDefaults(t *testing.T) {
	tests := []struct {
		name string
		in   ServiceRegistration
		want ServiceRegistration
	}{
		{
			name: "all defaults",
			in:   ServiceRegistration{Name: "api"},
			want: ServiceRegistration{Name: "api", ID: "api", Tags: []string{}, Address: "0.0.0.0", Port: 8080},
		},
		{
			name: "explicit values kept",
			in:   ServiceRegistration{Name: "api", ID: "api-1", Tags: []string{"x"}, Address: "10.0.0.1", Port: 9000},
			want: ServiceRegistration{Name: "api", ID: "api-1", Tags: []string{"x"}, Address: "10.0.0.1", Port: 9000},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := tc.in
			got.ApplyDefaults()
			if got.ID != tc.want.ID || got.Address != tc.want.Address || got.Port != tc.want.Port {
				t.Errorf("got %+v, want %+v", got, tc.want)
			}
			if got.Tags == nil || len(got.Tags) != len(tc.want.Tags) {
				t.Errorf("tags = %#v, want %#v", got.Tags, tc.want.Tags)
			}
		})
	}
}

func TestServiceRegistration_Validate(t *testing.T) {
	if err := (&ServiceRegistration{}).Validate(); !errors.Is(err, ErrMissingServiceName) {
		t.Errorf("expected ErrMissingServiceName, got %v", err)
	}
	if err := (&ServiceRegistration{Name: "api", Port: 70000}).Validate(); err == nil {
		t.Error("expected port range error")
	}
	if err := (&ServiceRegistration{Name: "api", Port: 80}).Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestNewHealthCheck(t *testing.T) {
	reg := ServiceRegistration{Name: "api", ID: "api-1", Tags: []string{"production", "https"}, Address: "10.0.0.1", Port: 8443}
	check := NewHealthCheck(reg, 0)

	if check.ID != "api-1.check.vapor.running" {
		t.Errorf("ID = %q", check.ID)
	}
	if check.ServiceID != "api-1" {
		t.Errorf("ServiceID = %q", check.ServiceID)
	}
	if check.HTTP != "https://10.0.0.1:8443" {
		t.Errorf("HTTP = %q", check.HTTP)
	}
	if check.Interval != "10s" {
		t.Errorf("Interval = %q", check.Interval)
	}
	if got := NewHealthCheck(reg, 5*time.Second).Interval; got != "5s" {
		t.Errorf("custom interval = %q", got)
	}
}

func TestNodeWithService_BaseURL(t *testing.T) {
	tests := []struct {
		name    string
		node    NodeWithService
		want    string
		wantErr bool
	}{
		{
			name: "service address",
			node: NodeWithService{Node: Node{Address: "10.0.0.9"}, Service: ServiceInstance{Address: "10.0.0.1", Port: 80}},
			want: "http://10.0.0.1:80",
		},
		{
			name: "falls back to node address",
			node: NodeWithService{Node: Node{Address: "10.0.0.9"}, Service: ServiceInstance{Port: 443, Tags: []string{"https"}}},
			want: "https://10.0.0.9:443",
		},
		{
			name: "ipv6 is bracketed",
			node: NodeWithService{Service: ServiceInstance{Address: "::1", Port: 8080}},
			want: "http://[::1]:8080",
		},
		{
			name:    "no address",
			node:    NodeWithService{Service: ServiceInstance{Port: 8080}},
			wantErr: true,
		},
		{
			name:    "invalid host",
			node:    NodeWithService{Service: ServiceInstance{Address: "bad host", Port: 8080}},
			wantErr: true,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			u, err := tc.node.BaseURL()
			if tc.wantErr {
				if !errors.Is(err, ErrInvalidBaseURL) {
					t.Fatalf("expected ErrInvalidBaseURL, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if u.String() != tc.want {
				t.Errorf("url = %q, want %q", u.String(), tc.want)
			}
		})
	}
}

func TestAgentConfiguration_Near(t *testing.T) {
	if got := (AgentConfiguration{NodeID: "id", NodeName: "name"}).Near(); got != "name" {
		t.Errorf("Near = %q, want name", got)
	}
	if got := (AgentConfiguration{NodeID: "id"}).Near(); got != "id" {
		t.Errorf("Near = %q, want id", got)
	}
}
