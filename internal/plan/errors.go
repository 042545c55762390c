package plan

import (
	"fmt"
	"sort"
	"strings"
)

// ConfigError reports a defect in the database configuration: a
// dependency cycle, a dependency on an unknown alias, or an invalid
// mirror reference. It always names the offending aliases so callers
// can produce a precise diagnostic. These are static configuration
// defects; retrying never helps.
type ConfigError struct {
	// Aliases are the identifiers involved in the defect, sorted.
	Aliases []string

	// Reason is a short human-readable description.
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("plan: %s: %s", e.Reason, strings.Join(e.Aliases, ", "))
}

func configErr(reason string, aliases ...string) *ConfigError {
	sorted := make([]string, len(aliases))
	copy(sorted, aliases)
	sort.Strings(sorted)
	return &ConfigError{Aliases: sorted, Reason: reason}
}
