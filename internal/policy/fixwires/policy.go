// Package fixwires fades the wires that cross group boundaries.
//
// A wire into a grouped node is drawn faint when none of its sources share a group
// with that node. The membership index behind the decision is rebuilt on every undo
// notification, since any structural edit produces one.
package fixwires

import (
	"context"
	"fmt"

	"github.com/aretw0/grove/internal/runtime"
	"github.com/aretw0/grove/internal/subscription"
	"github.com/aretw0/grove/pkg/domain"
)

// Name is the registry name of the policy.
const Name = "fixwires"

// Label prefixes the debug trace lines.
const Label = "FixWires"

const handlerWires = "wires"

// Settings are the inputs of one activation.
type Settings struct {
	Enable  bool `mapstructure:"enable" yaml:"enable" json:"enable"`
	FixOnce bool `mapstructure:"fix_once" yaml:"fix_once" json:"fix_once"`
	Debug   bool `mapstructure:"debug" yaml:"debug" json:"debug"`
}

// Policy is the group-disjointness wire policy.
type Policy struct {
	*runtime.Instance
	index *MembershipIndex
}

// New creates the policy instance and stamps its identity on the owner.
func New(ctx context.Context, cfg runtime.Config) (*Policy, error) {
	cfg.Policy = Name
	if cfg.Label == "" {
		cfg.Label = Label
	}
	in, err := runtime.NewInstance(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &Policy{Instance: in}, nil
}

// Index returns the last built membership index, or nil.
func (p *Policy) Index() *MembershipIndex { return p.index }

// Run performs one activation with the given settings.
func (p *Policy) Run(ctx context.Context, s Settings) error {
	if err := p.Begin(ctx, s.Debug, false); err != nil {
		return err
	}
	if err := p.BuildMembershipIndex(ctx); err != nil {
		return err
	}

	if s.Enable {
		p.Activate(ctx, runtime.Binding{
			Key:       subscription.DocumentKey(domain.EventUndoStateChanged, handlerWires),
			Subscribe: p.Host().OnUndoStateChanged,
			Handler:   p.onSolutionExpired,
		})
		p.Journal().Printf("Added the eventhandlers to UndoStateChanged")
	} else {
		p.Deactivate(ctx, domain.ReasonDisabled)
		p.Journal().Printf("Removed wire event handlers on document")
	}

	if s.FixOnce {
		n, err := p.RunOnceOverAllNodes(ctx)
		if err != nil {
			return err
		}
		p.Journal().Printf("Faded %d inputs", n)
	}
	return nil
}

// BuildMembershipIndex rebuilds the index from the current graph.
func (p *Policy) BuildMembershipIndex(ctx context.Context) error {
	nodes, err := p.Host().ListNodes(ctx)
	if err != nil {
		return fmt.Errorf("failed to list nodes: %w", err)
	}
	p.index = BuildMembershipIndex(nodes)
	p.Tracef("Indexed %d objects", p.index.Len())
	return nil
}

// FixInputs fades every input of n whose sources all lie outside n's groups and
// restores faded inputs that share a group again. Nodes outside any group and inputs
// without sources are left alone. It returns the number of inputs faded.
func (p *Policy) FixInputs(ctx context.Context, n domain.Node) (int, error) {
	if p.index == nil || !p.index.HasGroup(n.ID) {
		return 0, nil
	}

	faded := 0
	for i, in := range n.Inputs {
		if len(in.Sources) == 0 {
			continue
		}
		shared := false
		for _, src := range in.Sources {
			if p.index.HasCommonGroup(src, n.ID) {
				shared = true
				break
			}
		}

		edge := domain.Edge{Node: n.ID, Input: i}
		switch {
		case !shared && in.Weight != domain.WeightFaint:
			if err := p.Host().SetWireWeight(ctx, edge, domain.WeightFaint); err != nil {
				return faded, fmt.Errorf("failed to fade input %d of %s: %w", i, n.ID, err)
			}
			p.Annotate(ctx, domain.AnnotationWire, n.ID, string(domain.WeightFaint))
			faded++
		case shared && in.Weight == domain.WeightFaint:
			if err := p.Host().SetWireWeight(ctx, edge, domain.WeightDefault); err != nil {
				return faded, fmt.Errorf("failed to restore input %d of %s: %w", i, n.ID, err)
			}
			p.Annotate(ctx, domain.AnnotationWire, n.ID, string(domain.WeightDefault))
		}
	}
	return faded, nil
}

// OnSolutionExpired recomputes every wire while the policy is active.
func (p *Policy) OnSolutionExpired(ctx context.Context) error {
	return p.Guard(domain.EventUndoStateChanged, p.onSolutionExpired)(ctx, domain.Event{Type: domain.EventUndoStateChanged})
}

func (p *Policy) onSolutionExpired(ctx context.Context, _ domain.Event) error {
	if !p.State().Active {
		return nil
	}
	n, err := p.RunOnceOverAllNodes(ctx)
	if err != nil {
		return err
	}
	p.Tracef("Undo state changed: faded %d inputs", n)
	return nil
}

// RunOnceOverAllNodes rebuilds the index and fixes the inputs of every grouped node.
// A failing node is logged and skipped.
func (p *Policy) RunOnceOverAllNodes(ctx context.Context) (int, error) {
	nodes, err := p.Host().ListNodes(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list nodes: %w", err)
	}
	p.index = BuildMembershipIndex(nodes)

	faded := 0
	for _, n := range nodes {
		if n.IsGroup() || !p.index.Indexed(n.ID) || !p.index.HasGroup(n.ID) {
			continue
		}
		k, err := p.FixInputs(ctx, n)
		faded += k
		if err != nil {
			p.Logger().Debug("skipped node", "node", n.ID, "error", err)
			p.Tracef("Skipped node %s: %v", n.ID, err)
		}
	}
	return faded, nil
}

// Sweep runs the one-shot pass, for callers that only know the policy by name.
func (p *Policy) Sweep(ctx context.Context) (int, error) {
	return p.RunOnceOverAllNodes(ctx)
}
