// Package colorgroups colours and optionally renames groups according to the prefix of
// their nickname. The prefix -> colour table comes from colour swatches wired into the
// owner component.
package colorgroups

import (
	"context"
	"fmt"
	"strings"

	"github.com/aretw0/grove/internal/runtime"
	"github.com/aretw0/grove/internal/subscription"
	"github.com/aretw0/grove/pkg/domain"
	"github.com/aretw0/grove/pkg/ports"
)

// Name is the registry name of the policy.
const Name = "colorgroups"

// Label prefixes the debug trace lines.
const Label = "ColGrps"

const (
	handlerColor   = "color"
	handlerGroups  = "groups"
	handlerRemoved = "groups-removed"
)

// Settings are the inputs of one activation.
type Settings struct {
	Enable  bool `mapstructure:"enable" yaml:"enable" json:"enable"`
	Rename  bool `mapstructure:"rename" yaml:"rename" json:"rename"`
	RunOnce bool `mapstructure:"run_once" yaml:"run_once" json:"run_once"`
	Debug   bool `mapstructure:"debug" yaml:"debug" json:"debug"`

	// Colors overrides the swatches wired into the owner's Colors input.
	Colors []domain.NodeID `mapstructure:"colors" yaml:"colors,omitempty" json:"colors,omitempty"`
}

// Policy is the group colouring policy.
type Policy struct {
	*runtime.Instance
	mapping *Mapping
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

// Mapping returns the table of the last successful configuration, or nil.
func (p *Policy) Mapping() *Mapping { return p.mapping }

// Run performs one activation with the given settings. A configuration error aborts the
// activation and leaves the policy detached.
func (p *Policy) Run(ctx context.Context, s Settings) error {
	if err := p.Begin(ctx, s.Debug, s.Rename); err != nil {
		return err
	}

	if s.Enable || s.RunOnce {
		if err := p.configure(ctx, s.Colors); err != nil {
			p.detach(ctx)
			return err
		}
	}

	if s.Enable {
		if err := p.attach(ctx); err != nil {
			return err
		}
	} else {
		p.detach(ctx)
	}

	if s.RunOnce {
		if _, err := p.RunOnceOverAllGroups(ctx); err != nil {
			return err
		}
	}
	return nil
}

// configure rebuilds the mapping from the explicit sources or from the owner's Colors input.
func (p *Policy) configure(ctx context.Context, explicit []domain.NodeID) error {
	p.Journal().Printf("Set up events on ID %d", p.ID())

	sources, err := p.sources(ctx, explicit)
	if err != nil {
		return err
	}
	mapping, err := BuildMapping(sources)
	if err != nil {
		return err
	}
	p.mapping = mapping
	p.Journal().Printf("%s", mapping.Summary())
	return nil
}

func (p *Policy) sources(ctx context.Context, explicit []domain.NodeID) ([]domain.Node, error) {
	nodes, err := p.Host().ListNodes(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list nodes: %w", err)
	}
	byID := make(map[domain.NodeID]domain.Node, len(nodes))
	for _, n := range nodes {
		byID[n.ID] = n
	}

	ids := explicit
	if len(ids) == 0 {
		owner, ok := byID[p.Identity().Owner().ID]
		if !ok {
			return nil, fmt.Errorf("owner %s: %w", p.Identity().Owner().ID, domain.ErrNodeNotFound)
		}
		if in, ok := owner.InputNamed(domain.InputColors); ok {
			ids = in.Sources
		}
	}

	sources := make([]domain.Node, 0, len(ids))
	for _, id := range ids {
		n, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("color source %s: %w", id, domain.ErrNodeNotFound)
		}
		sources = append(sources, n)
	}
	return sources, nil
}

// attach binds the document handlers and one change handler per existing group.
func (p *Policy) attach(ctx context.Context) error {
	groups, err := p.Host().ListGroups(ctx)
	if err != nil {
		return fmt.Errorf("failed to list groups: %w", err)
	}

	host := p.Host()
	p.Activate(ctx,
		runtime.Binding{
			Key:       subscription.DocumentKey(domain.EventNodesAdded, handlerGroups),
			Subscribe: host.OnNodesAdded,
			Handler:   p.onNodesAdded,
		},
		runtime.Binding{
			Key:       subscription.DocumentKey(domain.EventNodesRemoved, handlerRemoved),
			Subscribe: host.OnNodesRemoved,
			Handler:   p.onNodesRemoved,
		},
	)
	for _, g := range groups {
		p.Bind(p.groupBinding(g.ID))
	}
	p.Journal().Printf("Added the eventhandlers on %d existing groups and on future created groups", len(groups))
	return nil
}

func (p *Policy) detach(ctx context.Context) {
	groups := 0
	for _, k := range p.Bindings() {
		if k.Event == domain.EventGroupChanged {
			groups++
		}
	}
	p.Deactivate(ctx, domain.ReasonDisabled)
	p.Journal().Printf("Removed event handlers on document and on %d groups", groups)
}

func (p *Policy) groupBinding(id domain.NodeID) runtime.Binding {
	host := p.Host()
	return runtime.Binding{
		Key: subscription.GroupKey(id, handlerColor),
		Subscribe: func(h ports.Handler) ports.Subscription {
			return host.OnGroupChanged(id, h)
		},
		Handler: p.colorGroup,
	}
}

func (p *Policy) onNodesAdded(ctx context.Context, ev domain.Event) error {
	added := 0
	for _, n := range ev.Nodes {
		if n.IsGroup() {
			p.Bind(p.groupBinding(n.ID))
			added++
		}
	}
	if added == 0 {
		p.Tracef("Objects Added - but no groups")
		return nil
	}
	p.Tracef("Group Objects Added: Attaching Events to ObjectChanged")
	return nil
}

func (p *Policy) onNodesRemoved(ctx context.Context, ev domain.Event) error {
	for _, n := range ev.Nodes {
		if n.IsGroup() {
			p.Unbind(subscription.GroupKey(n.ID, handlerColor))
		}
	}
	return nil
}

// OnGroupChanged applies the colour of the group's prefix and, in rename mode, strips
// the prefix. Groups without a known prefix are left alone.
func (p *Policy) OnGroupChanged(ctx context.Context, group domain.Node) error {
	return p.Guard(domain.EventGroupChanged, p.colorGroup)(ctx, domain.Event{Type: domain.EventGroupChanged, Group: group})
}

// colorGroup works on the live group rather than the event snapshot, which may be
// outdated when several changes were queued.
func (p *Policy) colorGroup(ctx context.Context, ev domain.Event) error {
	if p.mapping == nil {
		return nil
	}

	grp, ok, err := p.lookupGroup(ctx, ev.Group.ID)
	if err != nil || !ok {
		return err
	}

	prefix, ok := ExtractPrefix(grp.Name)
	if !ok {
		return nil
	}
	p.Journal().Printf("prefix %s", prefix)

	color, ok := p.mapping.Lookup(prefix)
	if !ok {
		p.Tracef("Group changed but not relevant: prefix %s is not among %s", prefix, p.mapping.Prefixes())
		return nil
	}

	if grp.Color != color {
		if err := p.Host().SetGroupColor(ctx, grp.ID, color); err != nil {
			return fmt.Errorf("failed to color group %s: %w", grp.ID, err)
		}
		p.Annotate(ctx, domain.AnnotationColor, grp.ID, color.String())
	}

	if name := strings.Replace(grp.Name, prefix, "", 1); p.State().Rename && name != grp.Name {
		if err := p.Host().RenameGroup(ctx, grp.ID, name); err != nil {
			return fmt.Errorf("failed to rename group %s: %w", grp.ID, err)
		}
		p.Annotate(ctx, domain.AnnotationRename, grp.ID, name)
	}
	p.Tracef("Colored %s", grp.Name)
	return nil
}

func (p *Policy) lookupGroup(ctx context.Context, id domain.NodeID) (domain.Node, bool, error) {
	groups, err := p.Host().ListGroups(ctx)
	if err != nil {
		return domain.Node{}, false, fmt.Errorf("failed to list groups: %w", err)
	}
	for _, g := range groups {
		if g.ID == id {
			return g, true, nil
		}
	}
	return domain.Node{}, false, nil
}

// RunOnceOverAllGroups applies OnGroupChanged to every group, whether or not handlers
// are attached. A failing group is traced and skipped. It returns the number of
// groups processed without error.
func (p *Policy) RunOnceOverAllGroups(ctx context.Context) (int, error) {
	groups, err := p.Host().ListGroups(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list groups: %w", err)
	}

	done := 0
	for _, g := range groups {
		if err := p.OnGroupChanged(ctx, g); err != nil {
			p.Logger().Debug("skipped group", "group", g.ID, "error", err)
			p.Tracef("Skipped group %s: %v", g.ID, err)
			continue
		}
		done++
	}
	return done, nil
}

// Sweep runs the one-shot pass, for callers that only know the policy by name.
func (p *Policy) Sweep(ctx context.Context) (int, error) {
	return p.RunOnceOverAllGroups(ctx)
}
