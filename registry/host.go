package registry

import (
	"context"

	"github.com/spf13/cast"

	"github.com/kbukum/servicekit/config"
	"github.com/kbukum/servicekit/errors"
	"github.com/kbukum/servicekit/validation"
)

// Configuration keys read by the host integration.
const (
	KeyServiceName    = "consul.service.name"
	KeyServiceID      = "consul.service.id"
	KeyServiceTags    = "consul.service.tags"
	KeyServiceAddress = "consul.service.address"
	KeyServicePort    = "consul.service.port"
)

// Suggested fixes attached to configuration errors.
var (
	fixesMissingName = []string{
		"Add consul.json to your config directory",
		"- add service.name",
	}
	fixesMissingIDOrName = []string{
		"Add consul.json to your config directory",
		"- add service.id",
		"or",
		"- add service.name",
	}
)

// Host is an object that carries a configuration tree, such as the HTTP
// server.
type Host interface {
	ConfigTree() config.Tree
}

// Identity is the service identity read from the consul.service block.
type Identity struct {
	Name    string   `mapstructure:"name" validate:"required"`
	ID      string   `mapstructure:"id"`
	Tags    []string `mapstructure:"tags"`
	Address string   `mapstructure:"address"`
	Port    int      `mapstructure:"port" validate:"omitempty,min=1,max=65535"`
}

// Registration converts the identity into a ServiceRegistration.
func (i Identity) Registration() ServiceRegistration {
	return ServiceRegistration{
		Name:    i.Name,
		ID:      i.ID,
		Tags:    append([]string(nil), i.Tags...),
		Address: i.Address,
		Port:    i.Port,
	}
}

// IdentityFromConfig reads and validates the consul.service block of tree.
// A missing name is a MISSING_CONFIG error. Non-string tags are dropped.
func IdentityFromConfig(tree config.Tree) (Identity, error) {
	if tree == nil {
		return Identity{}, errors.MissingConfig(KeyServiceName+" not found", fixesMissingName...)
	}

	id := Identity{
		Name:    tree.GetString(KeyServiceName),
		ID:      tree.GetString(KeyServiceID),
		Tags:    stringTags(tree.Get(KeyServiceTags)),
		Address: tree.GetString(KeyServiceAddress),
	}
	if tree.IsSet(KeyServicePort) {
		port, err := cast.ToIntE(tree.Get(KeyServicePort))
		if err != nil {
			return Identity{}, errors.InvalidConfig(KeyServicePort, "not an integer").WithCause(err)
		}
		id.Port = port
	}

	if err := validation.Validate(id); err != nil {
		for _, fe := range validation.FieldErrors(err) {
			if fe.Field == "name" && fe.Tag == "required" {
				return Identity{}, errors.MissingConfig(KeyServiceName+" not found", fixesMissingName...)
			}
		}
		return Identity{}, err
	}
	return id, nil
}

// DeregistrationID returns consul.service.id, falling back to
// consul.service.name.
func DeregistrationID(tree config.Tree) (string, error) {
	if tree != nil {
		if id := tree.GetString(KeyServiceID); id != "" {
			return id, nil
		}
		if name := tree.GetString(KeyServiceName); name != "" {
			return name, nil
		}
	}
	return "", errors.MissingConfig(KeyServiceID+" or "+KeyServiceName+" not found", fixesMissingIDOrName...)
}

// RegisterFromConfig registers the service described by host's
// configuration. Configuration errors are returned before any agent call.
func (r *Registry) RegisterFromConfig(ctx context.Context, host Host) error {
	id, err := IdentityFromConfig(host.ConfigTree())
	if err != nil {
		return err
	}
	return r.RegisterService(ctx, id.Registration())
}

// DeregisterFromConfig deregisters the service described by host's
// configuration.
func (r *Registry) DeregisterFromConfig(ctx context.Context, host Host) error {
	id, err := DeregistrationID(host.ConfigTree())
	if err != nil {
		return err
	}
	return r.DeregisterService(ctx, id)
}

func stringTags(v any) []string {
	switch tags := v.(type) {
	case []string:
		return append([]string(nil), tags...)
	case []any:
		out := make([]string, 0, len(tags))
		for _, t := range tags {
			if s, ok := t.(string); ok {
				out = append(out, s)
			}
		}
		return out
	case string:
		// Environment overrides arrive as one space separated string.
		return cast.ToStringSlice(tags)
	default:
		return nil
	}
}
