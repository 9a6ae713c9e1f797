package grove_test

import (
	"context"
	"errors"
	"testing"

	"github.com/aretw0/grove"
	"github.com/aretw0/grove/pkg/adapters/memory"
	"github.com/aretw0/grove/pkg/domain"
)

func script(name string) domain.Node {
	return domain.Node{ID: domain.NodeID("script-" + name), Name: name, Role: domain.RoleComponent, Kind: domain.KindScript}
}

func TestFacade_Integration(t *testing.T) {
	ctx := context.Background()
	doc, err := memory.NewFromNodes([]domain.Node{
		script("FixParams"),
		script("FixWires"),
		{ID: "g1", Name: "A", Role: domain.RoleGroup, Members: []domain.NodeID{"p1"}},
		{ID: "g2", Name: "B", Role: domain.RoleGroup, Members: []domain.NodeID{"c1"}},
		{ID: "p1", Name: "Width", Role: domain.RoleParam, Display: domain.DisplayIcon},
		{ID: "c1", Name: "Box", Role: domain.RoleComponent, Inputs: []domain.Input{{Name: "W", Sources: []domain.NodeID{"p1"}}}},
	})
	if err != nil {
		t.Fatal(err)
	}

	var handled []domain.EventType
	engine, err := grove.New(doc, grove.WithSeed(42), grove.WithLifecycleHooks(domain.LifecycleHooks{
		OnHandled: func(_ context.Context, e *domain.HandledEvent) { handled = append(handled, e.Type) },
	}))
	if err != nil {
		t.Fatalf("Failed to initialize engine: %v", err)
	}

	params, err := engine.FixParams(ctx, script("FixParams"))
	if err != nil {
		t.Fatal(err)
	}
	wires, err := engine.FixWires(ctx, script("FixWires"))
	if err != nil {
		t.Fatal(err)
	}
	if err := params.Run(ctx, grove.FixParamsSettings{FixOnce: true}); err != nil {
		t.Fatalf("FixParams run failed: %v", err)
	}
	if err := wires.Run(ctx, grove.FixWiresSettings{Enable: true, FixOnce: true}); err != nil {
		t.Fatalf("FixWires run failed: %v", err)
	}

	p1, _ := doc.Node("p1")
	if p1.Display != domain.DisplayName {
		t.Errorf("Expected p1 to display its name, got %q", p1.Display)
	}
	c1, _ := doc.Node("c1")
	if c1.Inputs[0].Weight != domain.WeightFaint {
		t.Errorf("Expected faint wire across groups, got %q", c1.Inputs[0].Weight)
	}

	// Regrouping raises an undo notification, which recomputes the wires.
	if err := doc.SetMembers(ctx, "g1", "p1", "c1"); err != nil {
		t.Fatal(err)
	}
	c1, _ = doc.Node("c1")
	if c1.Inputs[0].Weight != domain.WeightDefault {
		t.Errorf("Expected restored wire, got %q", c1.Inputs[0].Weight)
	}
	if len(handled) == 0 {
		t.Error("Expected lifecycle hooks to report handled events")
	}

	names := engine.Policies().Names()
	if len(names) != 2 || names[0] != grove.PolicyFixParams || names[1] != grove.PolicyFixWires {
		t.Errorf("Unexpected registry contents: %v", names)
	}
	if _, err := engine.Policies().Sweep(ctx, grove.PolicyColorGroups); !errors.Is(err, domain.ErrUnknownPolicy) {
		t.Errorf("Expected unknown policy error, got %v", err)
	}
}

func TestNew_RequiresHost(t *testing.T) {
	if _, err := grove.New(nil); err == nil {
		t.Error("Expected error for nil host")
	}
}
