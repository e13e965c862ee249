package registry

import (
	"fmt"
	"net"
	"net/url"
	"slices"
	"strconv"
)

// Registration defaults.
const (
	DefaultAddress = "0.0.0.0"
	DefaultPort    = 8080
)

// TagHTTPS marks a service that is reached over TLS.
const TagHTTPS = "https"

// AgentConfiguration is the local agent's view of itself, read once when
// the Registry is built.
type AgentConfiguration struct {
	Datacenter string
	NodeID     string
	NodeName   string
}

// Near returns the node identifier used to sort results by proximity to
// this agent.
func (a AgentConfiguration) Near() string {
	if a.NodeName != "" {
		return a.NodeName
	}
	return a.NodeID
}

// ServiceRegistration describes one service instance to register.
type ServiceRegistration struct {
	Name    string
	ID      string
	Tags    []string
	Address string
	Port    int
	Meta    map[string]string
}

// ApplyDefaults fills unset fields. ID defaults to Name.
func (r *ServiceRegistration) ApplyDefaults() {
	if r.ID == "" {
		r.ID = r.Name
	}
	if r.Tags == nil {
		r.Tags = []string{}
	}
	if r.Address == "" {
		r.Address = DefaultAddress
	}
	if r.Port == 0 {
		r.Port = DefaultPort
	}
}

// Validate checks the registration is usable.
func (r *ServiceRegistration) Validate() error {
	if r.Name == "" {
		return ErrMissingServiceName
	}
	if r.Port < 0 || r.Port > 65535 {
		return fmt.Errorf("registry: port %d out of range", r.Port)
	}
	return nil
}

// Scheme returns "https" when the registration is tagged https.
func (r *ServiceRegistration) Scheme() string {
	return schemeFor(r.Tags)
}

// HealthCheckRegistration is the companion HTTP check registered with every
// service.
type HealthCheckRegistration struct {
	ID        string
	Name      string
	ServiceID string
	HTTP      string
	Interval  string
}

// Node is the agent node hosting a service instance.
type Node struct {
	ID         string
	Name       string
	Address    string
	Datacenter string
}

// ServiceInstance is one registered instance as reported by the agent.
type ServiceInstance struct {
	ID      string
	Name    string
	Address string
	Port    int
	Tags    []string
}

// NodeWithService pairs a healthy instance with the node it runs on.
type NodeWithService struct {
	Node    Node
	Service ServiceInstance
}

// Address returns the service address, or the node address when the
// service was registered without one.
func (n NodeWithService) Address() string {
	if n.Service.Address != "" {
		return n.Service.Address
	}
	return n.Node.Address
}

// BaseURL builds <scheme>://<address>:<port> for the instance.
func (n NodeWithService) BaseURL() (*url.URL, error) {
	raw := schemeFor(n.Service.Tags) + "://" + hostPort(n.Address(), n.Service.Port)
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrInvalidBaseURL, raw, err)
	}
	if u.Host == "" || u.Hostname() == "" {
		return nil, fmt.Errorf("%w: %q has no host", ErrInvalidBaseURL, raw)
	}
	return u, nil
}

// NodeQuery selects healthy instances of a service. Only passing instances
// are ever returned.
type NodeQuery struct {
	Service    string
	Tag        string
	Datacenter string
	Near       string
}

func schemeFor(tags []string) string {
	if slices.Contains(tags, TagHTTPS) {
		return "https"
	}
	return "http"
}

func hostPort(address string, port int) string {
	return net.JoinHostPort(address, strconv.Itoa(port))
}
