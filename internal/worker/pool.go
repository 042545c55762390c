// Package worker executes creation-plan steps with bounded
// parallelism. Independent steps run concurrently; a step starts only
// after every one of its dependencies has finished. The first failure
// cancels the run and skips everything that was not yet started.
package worker

import (
	"context"
	"errors"
	"fmt"
)

// Step is one unit of work from a creation plan.
type Step struct {
	// Alias identifies the step.
	Alias string

	// DependsOn lists aliases that must finish before this step runs.
	// References outside the step set are ignored.
	DependsOn []string
}

type result struct {
	alias string
	err   error
}

// Run executes fn for every step, honoring dependency order, with at
// most workers steps in flight. Steps whose dependencies failed (or
// whose run was cancelled) are skipped. The returned error joins all
// step failures.
func Run(ctx context.Context, steps []Step, workers int, fn func(context.Context, string) error) error {
	if len(steps) == 0 {
		return nil
	}
	if workers < 1 {
		workers = 1
	}
	if workers > len(steps) {
		workers = len(steps)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	inSet := make(map[string]bool, len(steps))
	for _, s := range steps {
		inSet[s.Alias] = true
	}

	pending := make(map[string]int, len(steps))
	dependents := make(map[string][]string, len(steps))
	for _, s := range steps {
		n := 0
		for _, dep := range s.DependsOn {
			if inSet[dep] {
				n++
				dependents[dep] = append(dependents[dep], s.Alias)
			}
		}
		pending[s.Alias] = n
	}

	ready := make(chan string, len(steps))
	results := make(chan result, len(steps))
	for i := 0; i < workers; i++ {
		go func() {
			for alias := range ready {
				if err := ctx.Err(); err != nil {
					results <- result{alias: alias, err: err}
					continue
				}
				results <- result{alias: alias, err: fn(ctx, alias)}
			}
		}()
	}
	defer close(ready)

	enqueued := make(map[string]bool, len(steps))
	enqueue := func(alias string) {
		enqueued[alias] = true
		ready <- alias
	}
	for _, s := range steps {
		if pending[s.Alias] == 0 {
			enqueue(s.Alias)
		}
	}

	var errs []error
	completed := 0
	failed := false
	for completed < len(steps) {
		res := <-results
		completed++

		switch {
		case res.err == nil:
			for _, dep := range dependents[res.alias] {
				pending[dep]--
				if pending[dep] == 0 && !failed {
					enqueue(dep)
				}
			}
		case errors.Is(res.err, context.Canceled) && failed:
			// Skipped after an earlier failure; not a failure itself.
		default:
			errs = append(errs, fmt.Errorf("step %s: %w", res.alias, res.err))
			failed = true
			cancel()
		}

		if failed {
			// Everything not yet handed to a worker will never become
			// ready; account for it so the loop terminates.
			for _, s := range steps {
				if !enqueued[s.Alias] {
					enqueued[s.Alias] = true
					completed++
				}
			}
		}
	}

	return errors.Join(errs...)
}
