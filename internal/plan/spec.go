// Package plan computes the creation order for a set of named test
// databases. Each database may depend on others and must be created
// after them; a database may instead be a mirror of another, in which
// case nothing physical is created for it and all connections are
// routed to its target. Planning is pure computation: no I/O happens
// here, and every defect in the input is reported before any
// provisioning work starts.
package plan

// DefaultAlias is the alias treated as the primary database when the
// implicit-default policy is enabled.
const DefaultAlias = "default"

// Spec describes one database alias from configuration.
type Spec struct {
	// DependsOn lists aliases that must be created before this one.
	DependsOn []string

	// Mirror names another alias whose live connection this alias
	// reuses. A mirror gets no physical creation step. Mutually
	// exclusive with having a creation step of its own; DependsOn is
	// ignored for mirrors.
	Mirror string

	// Serialized marks the database for content snapshotting after
	// creation so tests can restore it between runs.
	Serialized bool
}

// Options controls planning policy.
type Options struct {
	// ImplicitDefault, when set, makes the "default" alias an implicit
	// dependency of every spec that declares no explicit dependencies,
	// provided "default" exists, is not a mirror, and nothing depends
	// on it. This is a convenience policy, not a guarantee, and can be
	// switched off in configuration.
	ImplicitDefault bool
}

// Plan is the result of Build: a creation order over physical (non-
// mirror) aliases and the mirror routing table.
type Plan struct {
	// Order lists every non-mirror alias exactly once, each after all
	// of its dependencies.
	Order []string

	// Mirrors maps each mirror alias to its non-mirror target.
	Mirrors map[string]string

	// Deps holds the resolved dependency edges over physical aliases:
	// dependencies declared on mirrors are already routed to their
	// targets, duplicates removed. Consumers use it to know when a
	// step may start without re-deriving the graph.
	Deps map[string][]string
}

// TeardownOrder returns the aliases to destroy, in exactly the reverse
// of the creation order. Mirrors never appear: nothing physical was
// created for them.
func (p *Plan) TeardownOrder() []string {
	out := make([]string, len(p.Order))
	for i, alias := range p.Order {
		out[len(p.Order)-1-i] = alias
	}
	return out
}
