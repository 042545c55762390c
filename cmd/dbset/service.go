package main

import (
	"fmt"

	"github.com/kardianos/service"
	"github.com/spf13/cobra"

	"github.com/flemzord/dbset/internal/core"
)

func serviceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "service",
		Short: "Manage dbset as a system service",
	}
	for _, action := range []string{"install", "uninstall", "start", "stop"} {
		cmd.AddCommand(serviceControlCmd(action))
	}
	cmd.AddCommand(serviceRunCmd())
	return cmd
}

func serviceConfig(cmd *cobra.Command) *service.Config {
	args := []string{"service", "run"}
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		args = append(args, "--config", path)
	}
	return &service.Config{
		Name:        "dbset",
		DisplayName: "dbset database provisioner",
		Description: "Provisions dependency-ordered test database sets",
		Arguments:   args,
	}
}

func serviceControlCmd(action string) *cobra.Command {
	return &cobra.Command{
		Use:   action,
		Short: fmt.Sprintf("%s the system service", action),
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := service.New(&program{}, serviceConfig(cmd))
			if err != nil {
				return err
			}
			if err := service.Control(s, action); err != nil {
				return fmt.Errorf("service %s: %w", action, err)
			}
			fmt.Printf("Service %s: done\n", action)
			return nil
		},
	}
}

func serviceRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run under the service manager (invoked by the service itself)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			app, err := buildDaemon(cfg, cmd)
			if err != nil {
				return err
			}
			s, err := service.New(&program{app: app}, serviceConfig(cmd))
			if err != nil {
				return err
			}
			return s.Run()
		},
	}
}

// program adapts the component app to the service manager interface.
// Start must not block; the app's components run in the background.
type program struct {
	app *core.App
}

func (p *program) Start(service.Service) error {
	return p.app.Start()
}

func (p *program) Stop(service.Service) error {
	p.app.Stop()
	return nil
}
