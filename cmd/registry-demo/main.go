// Command registry-demo serves /health and the discovery lookups, and keeps
// itself registered with the local Consul agent for as long as it runs.
//
// Configuration is read from cmd/registry-demo/config.yml and consul.json
// (or ./config/), and every key can be overridden from the environment,
// for example CONSUL_SERVICE_NAME or CONSUL_AGENT_ADDRESS.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/kbukum/servicekit/bootstrap"
	"github.com/kbukum/servicekit/config"
	"github.com/kbukum/servicekit/logger"
	"github.com/kbukum/servicekit/observability"
	"github.com/kbukum/servicekit/registry"
	"github.com/kbukum/servicekit/registry/consul"
	"github.com/kbukum/servicekit/server"
	"github.com/kbukum/servicekit/version"
)

const serviceName = "registry-demo"

// AppConfig is the full configuration of the demo service.
type AppConfig struct {
	config.ServiceConfig `mapstructure:",squash"`

	Server    server.Config   `mapstructure:"server"`
	Consul    ConsulConfig    `mapstructure:"consul"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// ConsulConfig is the consul block. The service identity under
// consul.service is read by the registry itself.
type ConsulConfig struct {
	Agent consul.Config `mapstructure:"agent"`
}

// TelemetryConfig toggles OTLP export.
type TelemetryConfig struct {
	Enabled    bool    `mapstructure:"enabled"`
	Endpoint   string  `mapstructure:"endpoint"`
	SampleRate float64 `mapstructure:"sample_rate"`
}

// ApplyDefaults fills defaults for every block.
func (c *AppConfig) ApplyDefaults() {
	c.ServiceConfig.ApplyDefaults()
	c.Server.ApplyDefaults()
	c.Consul.Agent.ApplyDefaults()
}

// Validate validates every block.
func (c *AppConfig) Validate() error {
	if err := c.ServiceConfig.Validate(); err != nil {
		return err
	}
	if err := c.Server.Validate(); err != nil {
		return err
	}
	return c.Consul.Agent.Validate()
}

func main() {
	if err := run(context.Background()); err != nil {
		logger.Error("registry-demo exited", logger.Fields(logger.FieldError, err.Error()))
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	var cfg AppConfig
	tree, err := config.LoadConfig(serviceName, &cfg, config.WithDefault("name", serviceName))
	if err != nil {
		return err
	}

	app, err := bootstrap.NewApp(&cfg)
	if err != nil {
		return err
	}
	log := app.Logger
	log.Info("starting", logger.Fields("build", version.Get().String()))

	// The registered port follows the server unless consul.json pins one.
	tree.SetDefault(registry.KeyServicePort, cfg.Server.Port)

	if cfg.Telemetry.Enabled {
		if err := initTelemetry(ctx, app, &cfg); err != nil {
			return err
		}
	}

	metrics, err := observability.NewRegistryMetrics(observability.Meter(observability.TracerName))
	if err != nil {
		return err
	}

	client, err := consul.NewClient(cfg.Consul.Agent)
	if err != nil {
		return err
	}
	reg := registry.New(ctx, client,
		registry.WithLogger(log),
		registry.WithMetrics(metrics),
	)
	if dcs, err := reg.ListDatacenters(ctx); err == nil {
		log.Info("consul datacenters", logger.Fields("datacenters", dcs))
	}

	srv := server.New(cfg.Server, tree, log)
	srv.ApplyDefaults(cfg.Name, app.Components.HealthAll)
	srv.RegisterDiscoveryEndpoints(reg)

	if err := app.RegisterComponent(server.NewComponent(srv)); err != nil {
		return err
	}
	if err := app.RegisterComponent(registry.NewComponent(reg, srv)); err != nil {
		return err
	}
	return app.Run(ctx)
}

func initTelemetry(ctx context.Context, app *bootstrap.App[*AppConfig], cfg *AppConfig) error {
	tcfg := observability.DefaultTracerConfig(cfg.Name)
	tcfg.ServiceVersion = cfg.Version
	tcfg.Environment = cfg.Environment
	if cfg.Telemetry.Endpoint != "" {
		tcfg.Endpoint = cfg.Telemetry.Endpoint
	}
	if cfg.Telemetry.SampleRate > 0 {
		tcfg.SampleRate = cfg.Telemetry.SampleRate
	}
	tp, err := observability.InitTracer(ctx, tcfg)
	if err != nil {
		return err
	}

	mcfg := observability.DefaultMeterConfig(cfg.Name)
	mcfg.ServiceVersion = cfg.Version
	mcfg.Environment = cfg.Environment
	mcfg.Endpoint = tcfg.Endpoint
	mp, err := observability.InitMeter(ctx, mcfg)
	if err != nil {
		return err
	}

	app.OnStop(func(ctx context.Context) error {
		if err := tp.Shutdown(ctx); err != nil {
			return err
		}
		return mp.Shutdown(ctx)
	})
	return nil
}
