package plan

import (
	"errors"
	"slices"
	"strings"
	"testing"
)

// position returns the index of alias in order, failing the test if absent.
func position(t *testing.T, order []string, alias string) int {
	t.Helper()
	i := slices.Index(order, alias)
	if i < 0 {
		t.Fatalf("alias %q missing from order %v", alias, order)
	}
	return i
}

func assertBefore(t *testing.T, order []string, earlier, later string) {
	t.Helper()
	if position(t, order, earlier) >= position(t, order, later) {
		t.Errorf("expected %q before %q in %v", earlier, later, order)
	}
}

func TestBuild_DependenciesPrecede(t *testing.T) {
	specs := map[string]Spec{
		"default":  {},
		"diamonds": {},
		"clubs":    {DependsOn: []string{"diamonds"}},
		"hearts":   {DependsOn: []string{"diamonds", "clubs"}},
		"spades":   {DependsOn: []string{"diamonds", "hearts"}},
	}

	p, err := Build(specs, Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(p.Order) != 5 {
		t.Fatalf("expected 5 aliases in order, got %v", p.Order)
	}

	assertBefore(t, p.Order, "diamonds", "clubs")
	assertBefore(t, p.Order, "diamonds", "hearts")
	assertBefore(t, p.Order, "diamonds", "spades")
	assertBefore(t, p.Order, "clubs", "hearts")
	assertBefore(t, p.Order, "hearts", "spades")
}

func TestBuild_EachAliasExactlyOnce(t *testing.T) {
	specs := map[string]Spec{
		"default": {},
		"a":       {DependsOn: []string{"default"}},
		"b":       {DependsOn: []string{"a", "default", "a"}},
	}

	p, err := Build(specs, Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	seen := make(map[string]int)
	for _, alias := range p.Order {
		seen[alias]++
	}
	for alias, n := range seen {
		if n != 1 {
			t.Errorf("alias %q appears %d times", alias, n)
		}
	}
	if len(seen) != 3 {
		t.Errorf("expected 3 distinct aliases, got %v", p.Order)
	}
}

func TestBuild_Deterministic(t *testing.T) {
	specs := map[string]Spec{
		"zeta":  {},
		"alpha": {},
		"mid":   {},
	}

	first, err := Build(specs, Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := 0; i < 20; i++ {
		p, err := Build(specs, Options{})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !slices.Equal(p.Order, first.Order) {
			t.Fatalf("order not stable: %v vs %v", p.Order, first.Order)
		}
	}
}

func TestBuild_ImplicitDefaultFirst(t *testing.T) {
	specs := map[string]Spec{
		"default":  {},
		"diamonds": {},
		"clubs":    {DependsOn: []string{"diamonds"}},
	}

	p, err := Build(specs, Options{ImplicitDefault: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Order[0] != "default" {
		t.Errorf("expected default first, got %v", p.Order)
	}
}

func TestBuild_ImplicitDefaultSkippedWhenDependedOn(t *testing.T) {
	// An explicit dependency on default disables the policy: the
	// caller has taken over ordering for it.
	specs := map[string]Spec{
		"default": {},
		"a":       {DependsOn: []string{"default"}},
		"b":       {},
	}

	p, err := Build(specs, Options{ImplicitDefault: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// "b" has no dependency at all, so only the partial order
	// default < a is required.
	assertBefore(t, p.Order, "default", "a")
}

func TestBuild_CycleNamesParticipants(t *testing.T) {
	specs := map[string]Spec{
		"a": {DependsOn: []string{"b"}},
		"b": {DependsOn: []string{"a"}},
	}

	_, err := Build(specs, Options{})
	if err == nil {
		t.Fatal("expected cycle error")
	}

	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected ConfigError, got %T: %v", err, err)
	}
	if !slices.Contains(cfgErr.Aliases, "a") || !slices.Contains(cfgErr.Aliases, "b") {
		t.Errorf("cycle error should name a and b, got %v", cfgErr.Aliases)
	}
}

func TestBuild_CycleDoesNotNameBystanders(t *testing.T) {
	specs := map[string]Spec{
		"a":        {DependsOn: []string{"b"}},
		"b":        {DependsOn: []string{"a"}},
		"innocent": {},
	}

	_, err := Build(specs, Options{})
	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected ConfigError, got %v", err)
	}
	if slices.Contains(cfgErr.Aliases, "innocent") {
		t.Errorf("cycle error should not name innocent aliases: %v", cfgErr.Aliases)
	}
}

func TestBuild_SelfDependency(t *testing.T) {
	specs := map[string]Spec{
		"a": {DependsOn: []string{"a"}},
	}

	_, err := Build(specs, Options{})
	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected ConfigError, got %v", err)
	}
	if !slices.Contains(cfgErr.Aliases, "a") {
		t.Errorf("error should name a: %v", cfgErr.Aliases)
	}
}

func TestBuild_UnknownDependency(t *testing.T) {
	specs := map[string]Spec{
		"clubs": {DependsOn: []string{"nonexistent"}},
	}

	_, err := Build(specs, Options{})
	if err == nil {
		t.Fatal("expected error for unknown dependency")
	}

	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected ConfigError, got %T: %v", err, err)
	}
	if !slices.Contains(cfgErr.Aliases, "nonexistent") {
		t.Errorf("error should name the missing alias: %v", cfgErr.Aliases)
	}
	if !strings.Contains(err.Error(), "nonexistent") {
		t.Errorf("message should mention the missing alias: %v", err)
	}
}

func TestBuild_MirrorExcludedFromOrder(t *testing.T) {
	specs := map[string]Spec{
		"default": {},
		"replica": {Mirror: "default"},
	}

	p, err := Build(specs, Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if slices.Contains(p.Order, "replica") {
		t.Errorf("mirror alias should not get a creation step: %v", p.Order)
	}
	if got := p.Mirrors["replica"]; got != "default" {
		t.Errorf("expected replica -> default, got %q", got)
	}
}

func TestBuild_DependencyOnMirrorRoutesToTarget(t *testing.T) {
	specs := map[string]Spec{
		"default": {},
		"replica": {Mirror: "default"},
		"clubs":   {DependsOn: []string{"replica"}},
	}

	p, err := Build(specs, Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertBefore(t, p.Order, "default", "clubs")
	if slices.Contains(p.Order, "replica") {
		t.Errorf("mirror alias should not appear in order: %v", p.Order)
	}
}

func TestTeardownOrder_ReversesCreation(t *testing.T) {
	specs := map[string]Spec{
		"default":  {},
		"diamonds": {},
		"clubs":    {DependsOn: []string{"diamonds"}},
		"hearts":   {DependsOn: []string{"diamonds", "clubs"}},
		"spades":   {DependsOn: []string{"diamonds", "hearts"}},
		"replica":  {Mirror: "default"},
	}

	p, err := Build(specs, Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	down := p.TeardownOrder()
	if len(down) != len(p.Order) {
		t.Fatalf("teardown length %d != creation length %d", len(down), len(p.Order))
	}
	for i, alias := range down {
		if want := p.Order[len(p.Order)-1-i]; alias != want {
			t.Errorf("teardown[%d] = %q, want %q", i, alias, want)
		}
	}
	if slices.Contains(down, "replica") {
		t.Errorf("teardown should skip mirrors: %v", down)
	}
}
