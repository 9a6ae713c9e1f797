package grove

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"

	"github.com/aretw0/grove/internal/identity"
	"github.com/aretw0/grove/internal/logging"
	"github.com/aretw0/grove/internal/policy/colorgroups"
	"github.com/aretw0/grove/internal/policy/fixparams"
	"github.com/aretw0/grove/internal/policy/fixwires"
	"github.com/aretw0/grove/internal/runtime"
	"github.com/aretw0/grove/pkg/adapters/memory"
	"github.com/aretw0/grove/pkg/domain"
	"github.com/aretw0/grove/pkg/ports"
	"github.com/aretw0/grove/pkg/registry"
)

// Policy types and their settings.
type (
	ColorGroups         = colorgroups.Policy
	ColorGroupsSettings = colorgroups.Settings
	FixParams           = fixparams.Policy
	FixParamsSettings   = fixparams.Settings
	FixWires            = fixwires.Policy
	FixWiresSettings    = fixwires.Settings
)

// Policy names, as registered in Engine.Policies.
const (
	PolicyColorGroups = colorgroups.Name
	PolicyFixParams   = fixparams.Name
	PolicyFixWires    = fixwires.Name
)

// Engine is the high-level entry point for the Grove library.
// It binds policies to one host document and keeps them in a registry.
type Engine struct {
	host      ports.GraphHost
	instances ports.InstanceRegistry
	policies  *registry.Registry
	hooks     domain.LifecycleHooks
	logger    *slog.Logger
	rnd       *rand.Rand
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithInstanceRegistry injects the registry holding instance stamps. Defaults to an
// in-process registry.
func WithInstanceRegistry(r ports.InstanceRegistry) Option {
	return func(e *Engine) {
		e.instances = r
	}
}

// WithSeed makes instance identifiers reproducible.
func WithSeed(seed uint64) Option {
	return func(e *Engine) {
		e.rnd = rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	}
}

// New initializes a new Grove Engine over host.
func New(host ports.GraphHost, opts ...Option) (*Engine, error) {
	if host == nil {
		return nil, fmt.Errorf("host is required")
	}

	eng := &Engine{host: host, policies: registry.NewRegistry()}
	for _, opt := range opts {
		opt(eng)
	}

	if eng.instances == nil {
		eng.instances = memory.NewRegistry()
	}
	if eng.logger == nil {
		eng.logger = logging.NewNop()
	}
	return eng, nil
}

func (e *Engine) config(owner domain.Node) runtime.Config {
	cfg := runtime.Config{
		Host:     e.host,
		Registry: e.instances,
		Owner:    owner,
		Logger:   e.logger,
		Hooks:    e.hooks,
	}
	if e.rnd != nil {
		cfg.IdentityOptions = []identity.Option{identity.WithRand(e.rnd)}
	}
	return cfg
}

// ColorGroups creates the group colouring policy hosted by owner and registers it.
func (e *Engine) ColorGroups(ctx context.Context, owner domain.Node) (*ColorGroups, error) {
	p, err := colorgroups.New(ctx, e.config(owner))
	if err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", colorgroups.Name, err)
	}
	e.policies.Register(colorgroups.Name, p)
	return p, nil
}

// FixParams creates the parameter display policy hosted by owner and registers it.
func (e *Engine) FixParams(ctx context.Context, owner domain.Node) (*FixParams, error) {
	p, err := fixparams.New(ctx, e.config(owner))
	if err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", fixparams.Name, err)
	}
	e.policies.Register(fixparams.Name, p)
	return p, nil
}

// FixWires creates the wire policy hosted by owner and registers it.
func (e *Engine) FixWires(ctx context.Context, owner domain.Node) (*FixWires, error) {
	p, err := fixwires.New(ctx, e.config(owner))
	if err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", fixwires.Name, err)
	}
	e.policies.Register(fixwires.Name, p)
	return p, nil
}

// Policies returns the registry of the policies created so far.
func (e *Engine) Policies() *registry.Registry {
	return e.policies
}

// Host returns the document the engine annotates.
func (e *Engine) Host() ports.GraphHost {
	return e.host
}

// Inspect returns a snapshot of the annotated document.
func (e *Engine) Inspect(ctx context.Context) ([]domain.Node, error) {
	return e.host.ListNodes(ctx)
}
