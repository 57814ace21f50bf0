package command

import "testing"

func TestRegistryLookup(t *testing.T) {
	registry := NewRegistry()
	registry.Register(&Descriptor{Name: "role", Enabled: true})
	registry.RegisterSub(&SubDescriptor{Path: "role.add", Enabled: true})
	registry.RegisterSub(&SubDescriptor{Path: "role.remove", Enabled: true})

	if _, ok := registry.Get("role"); !ok {
		t.Fatalf("expected role command")
	}
	if _, ok := registry.GetSub("role.add"); !ok {
		t.Fatalf("expected role.add subcommand")
	}
	if _, ok := registry.GetSub("role.missing"); ok {
		t.Fatalf("unexpected subcommand hit")
	}
}

func TestRegistryRemoveDropsSubcommands(t *testing.T) {
	registry := NewRegistry()
	registry.Register(&Descriptor{Name: "role", Enabled: true})
	registry.Register(&Descriptor{Name: "rolex", Enabled: true})
	registry.RegisterSub(&SubDescriptor{Path: "role.add", Enabled: true})
	registry.RegisterSub(&SubDescriptor{Path: "rolex.add", Enabled: true})

	registry.Remove("role")

	if _, ok := registry.Get("role"); ok {
		t.Fatalf("role should be removed")
	}
	if _, ok := registry.GetSub("role.add"); ok {
		t.Fatalf("role.add should be removed with its parent")
	}
	if _, ok := registry.GetSub("rolex.add"); !ok {
		t.Fatalf("rolex.add must survive removal of role")
	}
}

func TestInvocationPath(t *testing.T) {
	inv := &Invocation{Command: "role", Group: "member", Sub: "add"}
	if inv.Path() != "role.member.add" {
		t.Fatalf("expected role.member.add, got %s", inv.Path())
	}
	inv = &Invocation{Command: "clear"}
	if inv.Path() != "" {
		t.Fatalf("expected empty path, got %s", inv.Path())
	}
}

func TestJoinNames(t *testing.T) {
	if got := JoinNames([]string{"Ban Members"}); got != "Ban Members" {
		t.Fatalf("got %q", got)
	}
	if got := JoinNames([]string{"Ban Members", "Kick Members"}); got != "Ban Members and Kick Members" {
		t.Fatalf("got %q", got)
	}
	if got := JoinNames([]string{"A", "B", "C"}); got != "A, B and C" {
		t.Fatalf("got %q", got)
	}
}
