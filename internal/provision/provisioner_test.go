package provision_test

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/flemzord/dbset/internal/events"
	"github.com/flemzord/dbset/internal/plan"
	"github.com/flemzord/dbset/internal/provision"

	_ "github.com/flemzord/dbset/internal/provision/memory" // memory driver registration
	_ "github.com/flemzord/dbset/internal/provision/sqlite" // sqlite driver registration
)

// drain collects the aliases of all buffered events of the given type.
func drain(ch <-chan events.Event, typ events.Type) []string {
	var out []string
	for {
		select {
		case e := <-ch:
			if e.Type == typ {
				out = append(out, e.Alias)
			}
		default:
			return out
		}
	}
}

func TestUp_CreatesAllAndRoutesMirrors(t *testing.T) {
	eng := provision.New(map[string]provision.Database{
		"default":  {Driver: "memory"},
		"diamonds": {Driver: "memory", DependsOn: []string{"default"}},
		"replica":  {Mirror: "default"},
	}, provision.Options{Workers: 2})

	if err := eng.Up(context.Background()); err != nil {
		t.Fatalf("up: %v", err)
	}
	t.Cleanup(func() { _ = eng.Conns().Close() })

	primary, err := eng.Conns().Get("default")
	if err != nil {
		t.Fatalf("get default: %v", err)
	}
	mirrored, err := eng.Conns().Get("replica")
	if err != nil {
		t.Fatalf("get replica: %v", err)
	}
	if primary != mirrored {
		t.Error("replica should share default's connection")
	}

	for _, st := range eng.Status() {
		switch st.Alias {
		case "replica":
			if st.State != provision.StateMirrored {
				t.Errorf("replica state = %s, want mirrored", st.State)
			}
		default:
			if st.State != provision.StateCreated {
				t.Errorf("%s state = %s, want created", st.Alias, st.State)
			}
		}
	}
}

func TestUp_PlanningDefectAbortsBeforeProvisioning(t *testing.T) {
	eng := provision.New(map[string]provision.Database{
		"a": {Driver: "memory", DependsOn: []string{"b"}},
		"b": {Driver: "memory", DependsOn: []string{"a"}},
	}, provision.Options{})

	err := eng.Up(context.Background())
	var cfgErr *plan.ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected ConfigError, got %v", err)
	}

	for _, st := range eng.Status() {
		if st.State != provision.StatePending {
			t.Errorf("%s state = %s, want pending (fail-fast, no side effects)", st.Alias, st.State)
		}
	}
}

func TestUpDown_TeardownReversesCreation(t *testing.T) {
	bus := events.NewBus()
	ch, cancel := bus.Subscribe(64)
	defer cancel()

	eng := provision.New(map[string]provision.Database{
		"default": {Driver: "memory"},
		"clubs":   {Driver: "memory", DependsOn: []string{"default"}},
		"hearts":  {Driver: "memory", DependsOn: []string{"clubs"}},
		"replica": {Mirror: "default"},
	}, provision.Options{Workers: 1, Bus: bus})

	ctx := context.Background()
	if err := eng.Up(ctx); err != nil {
		t.Fatalf("up: %v", err)
	}
	created := drain(ch, events.TypeCreated)

	if err := eng.Down(ctx); err != nil {
		t.Fatalf("down: %v", err)
	}
	dropped := drain(ch, events.TypeDropped)

	if len(created) != 3 || len(dropped) != 3 {
		t.Fatalf("created %v, dropped %v; want 3 each", created, dropped)
	}
	for i := range created {
		if created[i] != dropped[len(dropped)-1-i] {
			t.Errorf("teardown order %v is not the reverse of creation order %v", dropped, created)
			break
		}
	}
	if slices.Contains(dropped, "replica") {
		t.Errorf("mirror should not be dropped: %v", dropped)
	}

	for _, st := range eng.Status() {
		if st.State != provision.StateDropped {
			t.Errorf("%s state = %s, want dropped", st.Alias, st.State)
		}
	}
}

func TestUp_UnknownDriver(t *testing.T) {
	eng := provision.New(map[string]provision.Database{
		"weird": {Driver: "no-such-driver"},
	}, provision.Options{})

	err := eng.Up(context.Background())
	if err == nil {
		t.Fatal("expected error for unknown driver")
	}
}

func TestUp_SerializedSnapshotsWithSQLite(t *testing.T) {
	bus := events.NewBus()
	ch, cancel := bus.Subscribe(16)
	defer cancel()

	eng := provision.New(map[string]provision.Database{
		"serialized": {Driver: "sqlite", Serialized: true},
	}, provision.Options{DataDir: t.TempDir(), Bus: bus})

	if err := eng.Up(context.Background()); err != nil {
		t.Fatalf("up: %v", err)
	}
	t.Cleanup(func() { _ = eng.Conns().Close() })

	if got := drain(ch, events.TypeSnapshot); !slices.Contains(got, "serialized") {
		t.Errorf("expected snapshot event for serialized alias, got %v", got)
	}
}
