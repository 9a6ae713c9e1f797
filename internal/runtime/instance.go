package runtime

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aretw0/grove/internal/identity"
	"github.com/aretw0/grove/internal/logging"
	"github.com/aretw0/grove/internal/subscription"
	"github.com/aretw0/grove/pkg/domain"
	"github.com/aretw0/grove/pkg/ports"
)

// handlerDeleted is the binding name of the owner-deletion hook.
const handlerDeleted = "deleted"

// Config holds the dependencies of an Instance.
type Config struct {
	// Policy is the stable policy name reported to hooks ("colorgroups").
	Policy string
	// Label prefixes debug trace lines ("ColGrps").
	Label string

	Host     ports.GraphHost
	Registry ports.InstanceRegistry
	Owner    domain.Node

	Logger          *slog.Logger
	Hooks           domain.LifecycleHooks
	IdentityOptions []identity.Option
}

// State is the per-instance SubscriptionState.
type State struct {
	Active bool
	Debug  bool
	Rename bool
}

// Instance is the scaffolding shared by all policies: it owns the identity, the
// bindings, the journal and the flags of one running script instance.
type Instance struct {
	policy string
	label  string

	host     ports.GraphHost
	identity *identity.Identity
	subs     *subscription.Manager
	journal  logging.Journal
	state    State

	logger *slog.Logger
	hooks  domain.LifecycleHooks
}

// Binding describes one handler to attach on activation.
type Binding struct {
	Key       subscription.Key
	Subscribe func(ports.Handler) ports.Subscription
	Handler   ports.Handler
}

// NewInstance creates the instance and stamps its identity on the owner node.
func NewInstance(ctx context.Context, cfg Config) (*Instance, error) {
	if cfg.Host == nil {
		return nil, fmt.Errorf("host is required")
	}
	if cfg.Registry == nil {
		return nil, fmt.Errorf("instance registry is required")
	}
	if cfg.Owner.ID == "" {
		return nil, fmt.Errorf("owner node is required")
	}

	id, err := identity.New(ctx, cfg.Host, cfg.Registry, cfg.Owner, cfg.IdentityOptions...)
	if err != nil {
		return nil, err
	}

	logger := cfg.Logger
	if logger == nil {
		logger = logging.NewNop()
	}

	return &Instance{
		policy:   cfg.Policy,
		label:    cfg.Label,
		host:     cfg.Host,
		identity: id,
		subs:     subscription.NewManager(),
		logger:   logger.With("policy", cfg.Label, "instance", int(id.ID())),
		hooks:    cfg.Hooks,
	}, nil
}

// Policy returns the policy name.
func (in *Instance) Policy() string { return in.policy }

// ID returns the instance identifier.
func (in *Instance) ID() domain.InstanceID { return in.identity.ID() }

// Identity returns the instance identity.
func (in *Instance) Identity() *identity.Identity { return in.identity }

// Host returns the host the instance observes.
func (in *Instance) Host() ports.GraphHost { return in.host }

// Journal returns the running journal.
func (in *Instance) Journal() *logging.Journal { return &in.journal }

// Report returns the journal of the last activation.
func (in *Instance) Report() string { return in.journal.String() }

// Active reports whether handlers are attached.
func (in *Instance) Active() bool { return in.state.Active }

// Logger returns the instance logger.
func (in *Instance) Logger() *slog.Logger { return in.logger }

// State returns a copy of the flags.
func (in *Instance) State() State { return in.state }

// Bindings returns the currently bound keys.
func (in *Instance) Bindings() []subscription.Key { return in.subs.Keys() }

// Begin starts a new run: it clears the journal, records the flags and re-stamps the
// owner node, the way a script writes its id into the component status on every run.
func (in *Instance) Begin(ctx context.Context, debug, rename bool) error {
	in.journal.Reset()
	in.state.Debug = debug
	in.state.Rename = rename
	return in.identity.Stamp(ctx)
}

// Tracef emits a debug trace line when debug is enabled.
func (in *Instance) Tracef(format string, args ...any) {
	if !in.state.Debug {
		return
	}
	in.logger.Info(fmt.Sprintf(format, args...))
}

// Activate attaches the bindings plus the owner-deletion hook. Every handler is
// guarded by the authority check. Activating twice never registers a handler twice.
func (in *Instance) Activate(ctx context.Context, bindings ...Binding) {
	in.subs.Bind(subscription.DocumentKey(domain.EventNodesRemoved, handlerDeleted), func() ports.Subscription {
		return in.host.OnNodesRemoved(in.onNodesRemoved)
	})
	for _, b := range bindings {
		in.Bind(b)
	}

	wasActive := in.state.Active
	in.state.Active = true
	if !wasActive && in.hooks.OnActivate != nil {
		in.hooks.OnActivate(ctx, &domain.InstanceEvent{Policy: in.policy, Instance: in.ID()})
	}
}

// Bind attaches one guarded binding, replacing any previous binding with the same key.
func (in *Instance) Bind(b Binding) {
	h := in.Guard(b.Key.Event, b.Handler)
	in.subs.Bind(b.Key, func() ports.Subscription {
		return b.Subscribe(h)
	})
}

// Unbind detaches one binding.
func (in *Instance) Unbind(key subscription.Key) bool {
	return in.subs.Unbind(key)
}

// Deactivate detaches every binding. It returns how many bindings were closed and is
// a no-op on an inactive instance. The stamp is kept so that one-shot sweeps still run.
func (in *Instance) Deactivate(ctx context.Context, reason string) int {
	n := in.subs.UnbindAll()
	if !in.state.Active && n == 0 {
		return 0
	}
	in.state.Active = false

	if in.hooks.OnDeactivate != nil {
		in.hooks.OnDeactivate(ctx, &domain.InstanceEvent{Policy: in.policy, Instance: in.ID(), Reason: reason})
	}
	return n
}

// Guard wraps h with the self-removal rule: when the instance is no longer authoritative
// it deactivates itself and returns without running h.
func (in *Instance) Guard(ev domain.EventType, h ports.Handler) ports.Handler {
	return func(ctx context.Context, e domain.Event) error {
		ok, err := in.identity.Authoritative(ctx)
		if err != nil {
			return fmt.Errorf("%s authority check: %w", in.policy, err)
		}
		if !ok {
			in.Tracef("Component not relevant. Disabling old id %d", in.ID())
			in.Deactivate(ctx, domain.ReasonStale)
			return nil
		}

		if err := h(ctx, e); err != nil {
			return err
		}
		if in.hooks.OnHandled != nil {
			in.hooks.OnHandled(ctx, &domain.HandledEvent{Policy: in.policy, Instance: in.ID(), Type: ev})
		}
		return nil
	}
}

// onNodesRemoved deactivates the instance and releases its stamp when a script
// component carrying the owner's nickname is deleted.
func (in *Instance) onNodesRemoved(ctx context.Context, ev domain.Event) error {
	owner := in.identity.Owner()
	for _, n := range ev.Nodes {
		if n.IsScript() && n.Name == owner.Name {
			in.Tracef("Removed template component. Removing all the eventhandlers")
			in.Deactivate(ctx, domain.ReasonDeleted)
			return in.identity.Release(ctx)
		}
	}
	return in.Guard(domain.EventNodesRemoved, func(context.Context, domain.Event) error { return nil })(ctx, ev)
}

// Annotate reports one presentation change to the hooks.
func (in *Instance) Annotate(ctx context.Context, kind domain.AnnotationKind, node domain.NodeID, value string) {
	if in.hooks.OnAnnotate != nil {
		in.hooks.OnAnnotate(ctx, &domain.AnnotationEvent{Policy: in.policy, Kind: kind, NodeID: node, Value: value})
	}
}
