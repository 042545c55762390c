// Package main is the entry point for the dbset CLI.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"

	"github.com/flemzord/dbset/internal/config"
	"github.com/flemzord/dbset/internal/events"
	"github.com/flemzord/dbset/internal/provision"

	_ "github.com/flemzord/dbset/internal/provision/memory" // memory driver
	_ "github.com/flemzord/dbset/internal/provision/sqlite" // sqlite driver
)

// Set by goreleaser ldflags.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "dbset",
		Short:         "Dependency-ordered test database provisioning",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringP("config", "c", "", "Path to configuration file")
	root.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	root.AddCommand(
		versionCmd(),
		planCmd(),
		upCmd(),
		downCmd(),
		serveCmd(),
		configCmd(),
		initCmd(),
		serviceCmd(),
		mcpCmd(),
	)
	return root
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version and compiled drivers",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Printf("dbset %s (commit: %s, built: %s)\n", version, commit, date)
			fmt.Println("\nCompiled drivers:")
			for _, b := range provision.Backends() {
				fmt.Printf("  %s\n", b.Driver)
			}
		},
	}
}

func planCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "plan",
		Short: "Print the creation and teardown order without provisioning",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			eng := buildEngine(cfg, newLogger(cmd), nil)
			pl, err := eng.Plan()
			if err != nil {
				return err
			}

			fmt.Println("Creation order:")
			for i, alias := range pl.Order {
				fmt.Printf("  %d. %s\n", i+1, alias)
			}
			if len(pl.Mirrors) > 0 {
				fmt.Println("Mirrors:")
				for _, mirror := range sortedKeys(pl.Mirrors) {
					fmt.Printf("  %s -> %s\n", mirror, pl.Mirrors[mirror])
				}
			}
			fmt.Println("Teardown order:")
			for i, alias := range pl.TeardownOrder() {
				fmt.Printf("  %d. %s\n", i+1, alias)
			}
			return nil
		},
	}
}

func upCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "up",
		Short: "Create every database in dependency order",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			logger := newLogger(cmd)
			eng := buildEngine(cfg, logger, nil)
			if err := eng.Up(cmd.Context()); err != nil {
				return err
			}
			fmt.Printf("Provisioned %d databases\n", len(cfg.Databases))
			return nil
		},
	}
}

func downCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "down",
		Short: "Destroy every database in reverse creation order",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			logger := newLogger(cmd)
			eng := buildEngine(cfg, logger, nil)
			if err := eng.Down(cmd.Context()); err != nil {
				return err
			}
			fmt.Println("Teardown complete")
			return nil
		},
	}
}

func configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "check <path>",
		Short: "Validate configuration and print the resulting plan",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(args[0])
			if err != nil {
				return err
			}
			if err := config.Validate(cfg); err != nil {
				return err
			}

			eng := buildEngine(cfg, newLogger(cmd), nil)
			pl, err := eng.Plan()
			if err != nil {
				return err
			}

			fmt.Printf("Configuration OK (%d databases, %d mirrors)\n",
				len(pl.Order), len(pl.Mirrors))
			for _, alias := range pl.Order {
				fmt.Printf("  %s\n", alias)
			}
			return nil
		},
	})
	return cmd
}

// loadConfig resolves the config path from the --config flag or
// standard locations, then loads and validates it.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		resolved, err := resolveConfigPath()
		if err != nil {
			return nil, err
		}
		path = resolved
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// buildEngine converts configuration into a provisioning engine.
func buildEngine(cfg *config.Config, logger *slog.Logger, bus *events.Bus) *provision.Engine {
	databases := make(map[string]provision.Database, len(cfg.Databases))
	for alias, db := range cfg.Databases {
		databases[alias] = provision.Database{
			Driver:     db.Driver,
			DependsOn:  db.DependsOn,
			Mirror:     db.Mirror,
			Serialized: db.Serialized,
			SchemaPath: db.Schema,
		}
	}
	return provision.New(databases, provision.Options{
		DataDir: cfg.Provisioner.DataDir,
		Workers: cfg.Provisioner.Workers,
		Plan:    cfg.PlanOptions(),
		Logger:  logger,
		Bus:     bus,
	})
}

// newLogger builds a text logger on stderr honoring --log-level.
func newLogger(cmd *cobra.Command) *slog.Logger {
	level := slog.LevelInfo
	if s, err := cmd.Flags().GetString("log-level"); err == nil {
		switch s {
		case "debug":
			level = slog.LevelDebug
		case "warn":
			level = slog.LevelWarn
		case "error":
			level = slog.LevelError
		}
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// resolveConfigPath searches for a config file in standard locations.
// Search order: $XDG_CONFIG_HOME/dbset/dbset.yaml → ./dbset.yaml
func resolveConfigPath() (string, error) {
	var candidates []string

	if xdg, ok := os.LookupEnv("XDG_CONFIG_HOME"); ok {
		candidates = append(candidates, filepath.Join(xdg, "dbset", "dbset.yaml"))
	} else if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, ".config", "dbset", "dbset.yaml"))
	}

	candidates = append(candidates, "dbset.yaml")

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}

	return "", fmt.Errorf("no configuration file found (searched: %v)", candidates)
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
