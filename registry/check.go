package registry

import (
	"fmt"
	"time"
)

// DefaultCheckInterval is how often the agent probes a registered service.
const DefaultCheckInterval = 10 * time.Second

const checkIDSuffix = ".check.vapor.running"

// CheckID returns the id of the companion check for serviceID.
func CheckID(serviceID string) string {
	return serviceID + checkIDSuffix
}

// NewHealthCheck derives the companion HTTP check for reg. Defaults must
// already be applied.
func NewHealthCheck(reg ServiceRegistration, interval time.Duration) HealthCheckRegistration {
	if interval <= 0 {
		interval = DefaultCheckInterval
	}
	return HealthCheckRegistration{
		ID:        CheckID(reg.ID),
		Name:      fmt.Sprintf("Service '%s' check", reg.Name),
		ServiceID: reg.ID,
		HTTP:      reg.Scheme() + "://" + hostPort(reg.Address, reg.Port),
		Interval:  interval.String(),
	}
}
