package plan

import "sort"

// Build computes a creation order for the given specs.
//
// Every non-mirror alias appears in the result exactly once, strictly
// after all of its dependencies. Among aliases whose dependencies are
// already satisfied the contract leaves the order free; Build drains
// them alphabetically so the plan is deterministic across runs.
//
// A dependency declared on a mirror alias is routed to the mirror's
// target, matching how connections are routed at run time.
func Build(specs map[string]Spec, opts Options) (*Plan, error) {
	mirrors, err := ResolveMirrors(specs)
	if err != nil {
		return nil, err
	}

	// Resolved dependency edges over physical aliases only.
	deps := make(map[string][]string, len(specs))
	for alias, s := range specs {
		if s.Mirror != "" {
			continue
		}
		edges := make([]string, 0, len(s.DependsOn))
		seen := make(map[string]bool, len(s.DependsOn))
		for _, dep := range s.DependsOn {
			if _, ok := specs[dep]; !ok {
				return nil, configErr("dependency on unknown alias", dep)
			}
			if target, ok := mirrors[dep]; ok {
				dep = target
			}
			if dep == alias {
				return nil, configErr("dependency cycle", alias)
			}
			if !seen[dep] {
				seen[dep] = true
				edges = append(edges, dep)
			}
		}
		deps[alias] = edges
	}

	if opts.ImplicitDefault {
		applyImplicitDefault(deps)
	}

	order, err := topoSort(deps)
	if err != nil {
		return nil, err
	}
	return &Plan{Order: order, Mirrors: mirrors, Deps: deps}, nil
}

// applyImplicitDefault makes "default" a dependency of every alias
// that declares none, so it is created first in the common case. The
// policy only applies when "default" exists as a physical alias,
// itself declares no dependencies, and nothing already depends on it.
func applyImplicitDefault(deps map[string][]string) {
	def, ok := deps[DefaultAlias]
	if !ok || len(def) > 0 {
		return
	}
	for _, edges := range deps {
		for _, dep := range edges {
			if dep == DefaultAlias {
				return
			}
		}
	}
	for alias, edges := range deps {
		if alias != DefaultAlias && len(edges) == 0 {
			deps[alias] = []string{DefaultAlias}
		}
	}
}

// topoSort is Kahn's algorithm with an alphabetically drained ready
// set. On failure it names the aliases on a dependency cycle.
func topoSort(deps map[string][]string) ([]string, error) {
	indegree := make(map[string]int, len(deps))
	dependents := make(map[string][]string, len(deps))
	for alias, edges := range deps {
		indegree[alias] += 0
		for _, dep := range edges {
			indegree[alias]++
			dependents[dep] = append(dependents[dep], alias)
		}
	}

	var ready []string
	for alias, n := range indegree {
		if n == 0 {
			ready = append(ready, alias)
		}
	}
	sort.Strings(ready)

	order := make([]string, 0, len(deps))
	for len(ready) > 0 {
		alias := ready[0]
		ready = ready[1:]
		order = append(order, alias)

		released := false
		for _, dependent := range dependents[alias] {
			indegree[dependent]--
			if indegree[dependent] == 0 {
				ready = append(ready, dependent)
				released = true
			}
		}
		if released {
			sort.Strings(ready)
		}
	}

	if len(order) != len(deps) {
		return nil, configErr("dependency cycle", findCycle(deps, indegree)...)
	}
	return order, nil
}

// findCycle walks the unordered remainder of the graph and returns the
// aliases on one cycle. indegree identifies the nodes Kahn's algorithm
// could not release; every cycle lives among them.
func findCycle(deps map[string][]string, indegree map[string]int) []string {
	remaining := make(map[string]bool)
	for alias, n := range indegree {
		if n > 0 {
			remaining[alias] = true
		}
	}

	visited := make(map[string]bool)
	var stack []string
	onStack := make(map[string]bool)

	var cycle []string
	var visit func(alias string) bool
	visit = func(alias string) bool {
		visited[alias] = true
		onStack[alias] = true
		stack = append(stack, alias)
		for _, dep := range deps[alias] {
			if !remaining[dep] {
				continue
			}
			if onStack[dep] {
				for i, a := range stack {
					if a == dep {
						cycle = append(cycle, stack[i:]...)
						break
					}
				}
				return true
			}
			if !visited[dep] && visit(dep) {
				return true
			}
		}
		stack = stack[:len(stack)-1]
		onStack[alias] = false
		return false
	}

	aliases := make([]string, 0, len(remaining))
	for alias := range remaining {
		aliases = append(aliases, alias)
	}
	sort.Strings(aliases)
	for _, alias := range aliases {
		if !visited[alias] && visit(alias) {
			break
		}
	}
	return cycle
}
