package cli

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/aretw0/grove"
	"github.com/aretw0/grove/pkg/adapters/file"
	"github.com/aretw0/grove/pkg/adapters/memory"
	redisAdapter "github.com/aretw0/grove/pkg/adapters/redis"
	"github.com/aretw0/grove/pkg/domain"
	"github.com/aretw0/grove/pkg/ports"
)

// allPolicies is the activation order: params first, then groups, then wires, so that
// a recoloured or regrouped document is rewired last.
var allPolicies = []string{grove.PolicyFixParams, grove.PolicyColorGroups, grove.PolicyFixWires}

var labels = map[string]string{
	grove.PolicyColorGroups: "ColGrps",
	grove.PolicyFixParams:   "FixParams",
	grove.PolicyFixWires:    "FixWires",
}

// mode decides how the selected policies run.
type mode int

const (
	// oneShot sweeps once without attaching handlers.
	oneShot mode = iota
	// live attaches the handlers, keeping one-shot sweeps the workspace asks for.
	live
)

// Session is a loaded document with an engine bound to it.
type Session struct {
	Doc       *memory.Document
	Engine    *grove.Engine
	Workspace *file.Workspace
	Locker    ports.DistributedLocker

	// Names lists the started policies in activation order.
	Names       []string
	ColorGroups *grove.ColorGroups

	// synthetic holds the owners added to the document for policies without a script.
	synthetic []domain.NodeID
}

// createSession loads the document and workspace and creates the engine with standard
// CLI conventions. Policies are not started yet.
func createSession(opts Options, logger *slog.Logger, hooks domain.LifecycleHooks) (*Session, error) {
	doc, err := file.LoadDocument(opts.DocPath, memory.WithLogger(logger))
	if err != nil {
		return nil, err
	}
	ws, err := file.LoadWorkspace(opts.WorkspacePath)
	if err != nil {
		return nil, err
	}

	engineOpts := []grove.Option{
		grove.WithLogger(logger),
		grove.WithLifecycleHooks(hooks),
	}
	if opts.Seed != 0 {
		engineOpts = append(engineOpts, grove.WithSeed(opts.Seed))
	}

	s := &Session{Doc: doc, Workspace: ws}
	if opts.RedisAddr != "" {
		reg := redisAdapter.New(opts.RedisAddr)
		engineOpts = append(engineOpts, grove.WithInstanceRegistry(reg))
		s.Locker = redisAdapter.NewLocker(reg.Client(), "grove:lock:")
		logger.Info("Using Redis instance registry", "addr", opts.RedisAddr)
	}

	s.Engine, err = grove.New(doc, engineOpts...)
	if err != nil {
		return nil, fmt.Errorf("error initializing engine: %w", err)
	}
	return s, nil
}

// selectPolicies returns the policies to start, in activation order.
func selectPolicies(opts Options, ws *file.Workspace) ([]string, error) {
	for _, name := range opts.Policies {
		if _, ok := labels[name]; !ok {
			return nil, fmt.Errorf("%w: %s", domain.ErrUnknownPolicy, name)
		}
	}

	var selected []string
	for _, name := range allPolicies {
		switch {
		case len(opts.Policies) > 0:
			if slices.Contains(opts.Policies, name) {
				selected = append(selected, name)
			}
		case len(ws.Policies) > 0:
			if ws.Configures(name) {
				selected = append(selected, name)
			}
		default:
			selected = append(selected, name)
		}
	}
	return selected, nil
}

// resolveOwner finds the script component hosting a policy: the workspace owner, else
// the first script carrying the policy's nickname. Without one, a detached owner is
// synthesized; the caller adds it to the document so that it can hold authority.
func resolveOwner(ctx context.Context, doc ports.GraphHost, ws *file.Workspace, name string) (domain.Node, bool, error) {
	nodes, err := doc.ListNodes(ctx)
	if err != nil {
		return domain.Node{}, false, err
	}

	if id, ok := ws.Owners[name]; ok {
		for _, n := range nodes {
			if n.ID == id {
				return n, true, nil
			}
		}
		return domain.Node{}, false, fmt.Errorf("owner of %s: %w: %s", name, domain.ErrNodeNotFound, id)
	}

	label := labels[name]
	for _, n := range nodes {
		if n.Kind == domain.KindScript && n.Name == label {
			return n, true, nil
		}
	}
	return domain.Node{
		ID:   domain.NodeID("grove-" + name),
		Name: label,
		Role: domain.RoleComponent,
		Kind: domain.KindScript,
	}, false, nil
}

// swatchIDs lists every swatch of the document.
func swatchIDs(ctx context.Context, doc ports.GraphHost) ([]domain.NodeID, error) {
	nodes, err := doc.ListNodes(ctx)
	if err != nil {
		return nil, err
	}
	var ids []domain.NodeID
	for _, n := range nodes {
		if n.Kind == domain.KindSwatch {
			ids = append(ids, n.ID)
		}
	}
	return ids, nil
}

// start creates and runs the selected policies.
func (s *Session) start(ctx context.Context, opts Options, m mode) error {
	names, err := selectPolicies(opts, s.Workspace)
	if err != nil {
		return err
	}

	for _, name := range names {
		owner, found, err := resolveOwner(ctx, s.Doc, s.Workspace, name)
		if err != nil {
			return err
		}
		if !found {
			if err := s.Doc.AddNodes(ctx, owner); err != nil {
				return fmt.Errorf("failed to add %s owner: %w", name, err)
			}
			s.synthetic = append(s.synthetic, owner.ID)
		}
		if err := s.startPolicy(ctx, name, owner, found, opts, m); err != nil {
			return err
		}
		s.Names = append(s.Names, name)
	}
	return nil
}

func (s *Session) startPolicy(ctx context.Context, name string, owner domain.Node, found bool, opts Options, m mode) error {
	switch name {
	case grove.PolicyColorGroups:
		var settings grove.ColorGroupsSettings
		if err := s.Workspace.Settings(name, &settings); err != nil {
			return err
		}
		settings.Rename = settings.Rename || opts.Rename
		settings.Debug = settings.Debug || opts.Debug
		if m == oneShot {
			settings.Enable, settings.RunOnce = false, true
		} else {
			settings.Enable = true
		}
		if !found && len(settings.Colors) == 0 {
			ids, err := swatchIDs(ctx, s.Doc)
			if err != nil {
				return err
			}
			settings.Colors = ids
		}

		p, err := s.Engine.ColorGroups(ctx, owner)
		if err != nil {
			return err
		}
		s.ColorGroups = p
		return p.Run(ctx, settings)

	case grove.PolicyFixParams:
		var settings grove.FixParamsSettings
		if err := s.Workspace.Settings(name, &settings); err != nil {
			return err
		}
		settings.Debug = settings.Debug || opts.Debug
		if m == oneShot {
			settings.Enable, settings.FixOnce = false, true
		} else {
			settings.Enable = true
		}

		p, err := s.Engine.FixParams(ctx, owner)
		if err != nil {
			return err
		}
		return p.Run(ctx, settings)

	case grove.PolicyFixWires:
		var settings grove.FixWiresSettings
		if err := s.Workspace.Settings(name, &settings); err != nil {
			return err
		}
		settings.Debug = settings.Debug || opts.Debug
		if m == oneShot {
			settings.Enable, settings.FixOnce = false, true
		} else {
			settings.Enable = true
		}

		p, err := s.Engine.FixWires(ctx, owner)
		if err != nil {
			return err
		}
		return p.Run(ctx, settings)
	}
	return fmt.Errorf("%w: %s", domain.ErrUnknownPolicy, name)
}

// Nodes returns the document without the synthesized owners.
func (s *Session) Nodes(ctx context.Context) ([]domain.Node, error) {
	nodes, err := s.Engine.Inspect(ctx)
	if err != nil {
		return nil, err
	}
	return slices.DeleteFunc(nodes, func(n domain.Node) bool {
		return slices.Contains(s.synthetic, n.ID)
	}), nil
}

// Reports returns the journal of every started policy.
func (s *Session) Reports() map[string]string {
	reports := make(map[string]string, len(s.Names))
	for _, name := range s.Names {
		if p, err := s.Engine.Policies().Get(name); err == nil {
			reports[name] = p.Report()
		}
	}
	return reports
}
