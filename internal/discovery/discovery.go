// Package discovery registers the API instance with Consul so gateways can
// route to healthy replicas.
package discovery

import (
	"context"
	"fmt"
	"os"

	consulapi "github.com/hashicorp/consul/api"
	"go.uber.org/zap"
)

type Registrar interface {
	Register(ctx context.Context) error
	Deregister(ctx context.Context) error
}

type Options struct {
	ConsulAddr  string
	ServiceName string
	ServiceID   string
	// Address is what other services dial; defaults to the hostname.
	Address    string
	Port       int
	HealthPath string
	Tags       []string
}

type nopRegistrar struct{}

func (nopRegistrar) Register(context.Context) error   { return nil }
func (nopRegistrar) Deregister(context.Context) error { return nil }

type consulRegistrar struct {
	client *consulapi.Client
	reg    *consulapi.AgentServiceRegistration
	log    *zap.SugaredLogger
}

func (r *consulRegistrar) Register(ctx context.Context) error {
	opts := consulapi.ServiceRegisterOpts{ReplaceExistingChecks: true}.WithContext(ctx)
	if err := r.client.Agent().ServiceRegisterOpts(r.reg, opts); err != nil {
		return fmt.Errorf("consul register %s: %w", r.reg.ID, err)
	}
	r.log.Infow("registered with consul", "service", r.reg.Name, "id", r.reg.ID, "address", r.reg.Address, "port", r.reg.Port)
	return nil
}

func (r *consulRegistrar) Deregister(ctx context.Context) error {
	opts := (&consulapi.QueryOptions{}).WithContext(ctx)
	if err := r.client.Agent().ServiceDeregisterOpts(r.reg.ID, opts); err != nil {
		return fmt.Errorf("consul deregister %s: %w", r.reg.ID, err)
	}
	r.log.Infow("deregistered from consul", "id", r.reg.ID)
	return nil
}

// NewRegistrar returns a Consul registrar, or a no-op one when no Consul
// address is configured.
func NewRegistrar(o Options, log *zap.SugaredLogger) (Registrar, error) {
	if o.ConsulAddr == "" {
		return nopRegistrar{}, nil
	}
	cfg := consulapi.DefaultConfig()
	cfg.Address = o.ConsulAddr
	client, err := consulapi.NewClient(cfg)
	if err != nil {
		return nil, err
	}

	if o.Address == "" {
		host, err := os.Hostname()
		if err != nil {
			return nil, fmt.Errorf("resolve hostname: %w", err)
		}
		o.Address = host
	}
	if o.ServiceID == "" {
		o.ServiceID = fmt.Sprintf("%s-%s-%d", o.ServiceName, o.Address, o.Port)
	}
	if o.HealthPath == "" {
		o.HealthPath = "/health"
	}

	reg := &consulapi.AgentServiceRegistration{
		ID:      o.ServiceID,
		Name:    o.ServiceName,
		Address: o.Address,
		Port:    o.Port,
		Tags:    o.Tags,
		Check: &consulapi.AgentServiceCheck{
			HTTP:                           fmt.Sprintf("http://%s:%d%s", o.Address, o.Port, o.HealthPath),
			Interval:                       "10s",
			Timeout:                        "2s",
			DeregisterCriticalServiceAfter: "1m",
		},
	}
	return &consulRegistrar{client: client, reg: reg, log: log}, nil
}
