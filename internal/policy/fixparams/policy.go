// Package fixparams switches parameter nodes to name display.
package fixparams

import (
	"context"
	"fmt"

	"github.com/aretw0/grove/internal/runtime"
	"github.com/aretw0/grove/internal/subscription"
	"github.com/aretw0/grove/pkg/domain"
)

// Name is the registry name of the policy.
const Name = "fixparams"

// Label prefixes the debug trace lines.
const Label = "FixParams"

const handlerParams = "params"

// Settings are the inputs of one activation.
type Settings struct {
	Enable  bool `mapstructure:"enable" yaml:"enable" json:"enable"`
	FixOnce bool `mapstructure:"fix_once" yaml:"fix_once" json:"fix_once"`
	Debug   bool `mapstructure:"debug" yaml:"debug" json:"debug"`
}

// Policy is the parameter display policy. It keeps no index.
type Policy struct {
	*runtime.Instance
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

// Run performs one activation with the given settings.
func (p *Policy) Run(ctx context.Context, s Settings) error {
	if err := p.Begin(ctx, s.Debug, false); err != nil {
		return err
	}

	if s.Enable {
		p.Activate(ctx, runtime.Binding{
			Key:       subscription.DocumentKey(domain.EventNodesAdded, handlerParams),
			Subscribe: p.Host().OnNodesAdded,
			Handler:   p.onNodesAdded,
		})
		p.Journal().Printf("Added the eventhandlers to OnObjectsAdded")
	} else {
		p.Deactivate(ctx, domain.ReasonDisabled)
		p.Journal().Printf("Removed param event handlers on document")
	}

	if s.FixOnce {
		n, err := p.RunOnceOverAllParams(ctx)
		if err != nil {
			return err
		}
		p.Journal().Printf("Fixed %d params", n)
	}
	return nil
}

// Normalize switches a parameter node to name display. It reports whether the node
// changed and is a no-op for every other role.
func (p *Policy) Normalize(ctx context.Context, n domain.Node) (bool, error) {
	if !n.IsParam() || n.Display == domain.DisplayName {
		return false, nil
	}
	if err := p.Host().SetParamDisplayMode(ctx, n.ID, domain.DisplayName); err != nil {
		return false, fmt.Errorf("failed to set display of %s: %w", n.ID, err)
	}
	p.Annotate(ctx, domain.AnnotationDisplay, n.ID, string(domain.DisplayName))
	return true, nil
}

// OnNodesAdded normalizes every parameter in the added set while the policy is active.
func (p *Policy) OnNodesAdded(ctx context.Context, nodes []domain.Node) error {
	return p.Guard(domain.EventNodesAdded, p.onNodesAdded)(ctx, domain.Event{Type: domain.EventNodesAdded, Nodes: nodes})
}

func (p *Policy) onNodesAdded(ctx context.Context, ev domain.Event) error {
	if !p.State().Active {
		return nil
	}
	for _, n := range ev.Nodes {
		changed, err := p.Normalize(ctx, n)
		if err != nil {
			return err
		}
		if changed {
			p.Tracef("Param %s shows its name", n.Name)
		}
	}
	return nil
}

// RunOnceOverAllParams normalizes every parameter in the graph, active or not, and
// returns how many changed. A failing node is logged and skipped.
func (p *Policy) RunOnceOverAllParams(ctx context.Context) (int, error) {
	nodes, err := p.Host().ListNodes(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list nodes: %w", err)
	}

	fixed := 0
	for _, n := range nodes {
		changed, err := p.Normalize(ctx, n)
		if err != nil {
			p.Logger().Debug("skipped param", "node", n.ID, "error", err)
			p.Tracef("Skipped param %s: %v", n.ID, err)
			continue
		}
		if changed {
			fixed++
		}
	}
	return fixed, nil
}

// Sweep runs the one-shot pass, for callers that only know the policy by name.
func (p *Policy) Sweep(ctx context.Context) (int, error) {
	return p.RunOnceOverAllParams(ctx)
}
