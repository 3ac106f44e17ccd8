package consul

import (
	"fmt"
	"net"
	"strconv"

	consulapi "github.com/hashicorp/consul/api"
)

// ServiceName is the name the API registers under.
const ServiceName = "storefront-api"

// ServiceConfig contains configuration for service registration
type ServiceConfig struct {
	ID      string
	Name    string
	Address string
	Port    int
	Tags    []string
	Check   *HealthCheck
}

// HealthCheck defines health check configuration
type HealthCheck struct {
	HTTP     string
	Interval string
	Timeout  string
	// DeregisterAfter removes the instance once the check has been critical
	// this long. Empty keeps it registered.
	DeregisterAfter string
}

// ServiceRegistrar defines the interface for service registration
type ServiceRegistrar interface {
	Register(cfg *ServiceConfig) error
	Deregister(serviceID string) error
}

var _ ServiceRegistrar = (*Client)(nil)

// APIService describes this process as a Consul service with an HTTP check
// against /health. The ID is stable per host and port so a restart replaces
// the previous registration instead of duplicating it.
func APIService(host string, port int) *ServiceConfig {
	base := "http://" + net.JoinHostPort(host, strconv.Itoa(port))
	return &ServiceConfig{
		ID:      fmt.Sprintf("%s-%s-%d", ServiceName, host, port),
		Name:    ServiceName,
		Address: host,
		Port:    port,
		Tags:    []string{"storefront", "auth", "checkout"},
		Check: &HealthCheck{
			HTTP:            base + "/health",
			Interval:        "10s",
			Timeout:         "3s",
			DeregisterAfter: "1m",
		},
	}
}

// Register registers a service with Consul
func (c *Client) Register(cfg *ServiceConfig) error {
	registration := &consulapi.AgentServiceRegistration{
		ID:      cfg.ID,
		Name:    cfg.Name,
		Address: cfg.Address,
		Port:    cfg.Port,
		Tags:    cfg.Tags,
	}

	if cfg.Check != nil {
		registration.Check = &consulapi.AgentServiceCheck{
			HTTP:                           cfg.Check.HTTP,
			Interval:                       cfg.Check.Interval,
			Timeout:                        cfg.Check.Timeout,
			DeregisterCriticalServiceAfter: cfg.Check.DeregisterAfter,
		}
	}

	if err := c.api.Agent().ServiceRegister(registration); err != nil {
		return fmt.Errorf("failed to register service: %w", err)
	}

	return nil
}

// Deregister removes a service from Consul
func (c *Client) Deregister(serviceID string) error {
	if err := c.api.Agent().ServiceDeregister(serviceID); err != nil {
		return fmt.Errorf("failed to deregister service: %w", err)
	}

	return nil
}
