package config

import (
	"errors"
	"fmt"

	"github.com/robfig/cron/v3"

	"github.com/flemzord/dbset/internal/plan"
	"github.com/flemzord/dbset/internal/provision"
)

// Validate checks the structural validity of a Config.
// It verifies the version field, ensures at least one database is
// configured, checks that every driver names a registered backend,
// runs the planner to surface dependency and mirror defects before
// any provisioning happens, and parses the refresh schedule.
func Validate(cfg *Config) error {
	var errs []error

	if cfg.Version == "" {
		errs = append(errs, errors.New("config: version field is required"))
	} else if cfg.Version != "1" {
		errs = append(errs, fmt.Errorf("config: unsupported version %q (supported: \"1\")", cfg.Version))
	}

	if len(cfg.Databases) == 0 {
		errs = append(errs, errors.New("config: at least one database must be configured"))
	}

	for alias, db := range cfg.Databases {
		if db.Mirror != "" {
			continue
		}
		if _, ok := provision.GetBackend(db.Driver); !ok {
			errs = append(errs, fmt.Errorf("config: database %q: unknown driver %q", alias, db.Driver))
		}
	}

	// Planning is pure, so running it here surfaces cycles, unknown
	// dependencies, and bad mirror references at config-check time.
	if _, err := plan.Build(cfg.Specs(), cfg.PlanOptions()); err != nil {
		errs = append(errs, err)
	}

	if cfg.Refresh.Schedule != "" {
		parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
		if _, err := parser.Parse(cfg.Refresh.Schedule); err != nil {
			errs = append(errs, fmt.Errorf("config: refresh.schedule: %w", err))
		}
	}

	return errors.Join(errs...)
}
