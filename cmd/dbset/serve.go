package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/flemzord/dbset/internal/config"
	"github.com/flemzord/dbset/internal/core"
	"github.com/flemzord/dbset/internal/cron"
	"github.com/flemzord/dbset/internal/events"
	"github.com/flemzord/dbset/internal/gateway"
	"github.com/flemzord/dbset/internal/provision"
	"github.com/flemzord/dbset/internal/telemetry"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the daemon: provision, then serve the gateway until interrupted",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			app, err := buildDaemon(cfg, cmd)
			if err != nil {
				return err
			}
			return app.Run()
		},
	}
}

// buildDaemon wires the daemon components in start order: telemetry,
// the provisioner, the gateway, and optionally the refresh scheduler.
// Shutdown runs in reverse, so databases are torn down last-started
// components first.
func buildDaemon(cfg *config.Config, cmd *cobra.Command) (*core.App, error) {
	logger := newLogger(cmd)
	bus := events.NewBus()
	eng := buildEngine(cfg, logger, bus)

	app := core.NewApp(logger)

	app.Append("telemetry", telemetry.New(telemetry.Config{
		Endpoint: cfg.Telemetry.OTLPEndpoint,
		Insecure: cfg.Telemetry.Insecure,
	}, logger))

	app.Append("provisioner", &provisionComponent{engine: eng})

	app.Append("gateway", gateway.New(gateway.Config{
		Listen:    cfg.Gateway.Listen,
		AuthToken: cfg.Gateway.AuthToken,
	}, eng, bus, logger))

	if cfg.Refresh.Schedule != "" {
		sched := cron.NewScheduler(logger)
		job := &cron.RefreshJob{
			Engine:       eng,
			Logger:       logger,
			ScheduleExpr: cfg.Refresh.Schedule,
		}
		if err := sched.RegisterJob(job); err != nil {
			return nil, err
		}
		app.Append("scheduler", sched)
	}

	return app, nil
}

// provisionComponent adapts the engine to the component lifecycle:
// Up on start, Down on shutdown.
type provisionComponent struct {
	engine *provision.Engine
}

func (p *provisionComponent) Start() error {
	return p.engine.Up(context.Background())
}

func (p *provisionComponent) Stop(ctx context.Context) error {
	return p.engine.Down(ctx)
}
