package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"github.com/aretw0/grove/internal/logging"
	"github.com/aretw0/grove/internal/presentation/tui"
	"github.com/aretw0/grove/pkg/domain"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// SignalContext wraps a context and captures the signal that cancelled it.
type SignalContext struct {
	context.Context
	Cancel func()
	start  sync.Once
	stop   sync.Once
	sigCh  chan os.Signal
	sigVal os.Signal
	mu     sync.Mutex
}

// NewSignalContext creates a context that is cancelled on SIGINT or SIGTERM.
// It acts as a drop-in replacement for signal.NotifyContext but allows retrieving the signal.
func NewSignalContext(parent context.Context) *SignalContext {
	ctx, cancel := context.WithCancel(parent)
	sc := &SignalContext{
		Context: ctx,
		Cancel:  cancel,
		sigCh:   make(chan os.Signal, 1),
	}

	sc.start.Do(func() {
		signal.Notify(sc.sigCh, os.Interrupt, syscall.SIGTERM)
		go func() {
			select {
			case sig := <-sc.sigCh:
				sc.mu.Lock()
				sc.sigVal = sig
				sc.mu.Unlock()
				sc.Cancel()
			case <-sc.Context.Done():
				// Context cancelled elsewhere
			}
			sc.stop.Do(func() {
				signal.Stop(sc.sigCh)
			})
		}()
	})

	return sc
}

// Signal returns the signal that caused the context to be cancelled, or nil.
func (sc *SignalContext) Signal() os.Signal {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return sc.sigVal
}

// CreateLogger configures the application logger from a level name.
// It writes to Stderr (to separate from Stdout document output). An empty level
// silences it unless debug is set.
func CreateLogger(level string, debug bool) (*slog.Logger, error) {
	if level == "" {
		if !debug {
			return logging.NewNop(), nil
		}
		level = "debug"
	}
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	return logging.New(l), nil
}

// printSystemMessage prints a standardized system message.
func printSystemMessage(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, ">>> %s\n", fmt.Sprintf(format, args...))
}

// isTerminal reports whether w is an interactive terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func createDebugHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnActivate: func(ctx context.Context, e *domain.InstanceEvent) {
			logger.Debug("Policy Activated", "policy", e.Policy, "instance", int(e.Instance))
		},
		OnDeactivate: func(ctx context.Context, e *domain.InstanceEvent) {
			logger.Debug("Policy Deactivated", "policy", e.Policy, "instance", int(e.Instance), "reason", e.Reason)
		},
		OnHandled: func(ctx context.Context, e *domain.HandledEvent) {
			logger.Debug("Event Handled", "policy", e.Policy, "event", e.Type)
		},
		OnAnnotate: func(ctx context.Context, e *domain.AnnotationEvent) {
			logger.Debug("Annotation", "policy", e.Policy, "kind", e.Kind, "node_id", e.NodeID, "value", e.Value)
		},
	}
}

// annotationRecorder collects the nodes the policies touched, in first-touch order.
type annotationRecorder struct {
	seen  map[domain.NodeID]bool
	nodes []domain.NodeID
}

func (r *annotationRecorder) hooks(next domain.LifecycleHooks) domain.LifecycleHooks {
	hooks := next
	hooks.OnAnnotate = func(ctx context.Context, e *domain.AnnotationEvent) {
		if r.seen == nil {
			r.seen = make(map[domain.NodeID]bool)
		}
		if !r.seen[e.NodeID] {
			r.seen[e.NodeID] = true
			r.nodes = append(r.nodes, e.NodeID)
		}
		if next.OnAnnotate != nil {
			next.OnAnnotate(ctx, e)
		}
	}
	return hooks
}

// printReports writes the journals, rendered with glamour on a terminal.
func printReports(w io.Writer, s *Session) {
	md := tui.ReportMarkdown(s.Names, s.Reports())
	if isTerminal(w) {
		if render, err := tui.NewRenderer(); err == nil {
			if out, err := render(md); err == nil {
				fmt.Fprint(w, out)
				printMapping(w, s)
				return
			}
		}
	}
	fmt.Fprint(w, strings.TrimRight(md, "\n")+"\n")
}

// printMapping paints the colour dictionary of the group policy on a terminal.
func printMapping(w io.Writer, s *Session) {
	if s.ColorGroups == nil || s.ColorGroups.Mapping() == nil {
		return
	}
	var swatches []tui.Swatch
	for _, e := range s.ColorGroups.Mapping().Entries() {
		swatches = append(swatches, tui.Swatch{Prefix: e.Prefix, Color: e.Color})
	}
	tui.PrintSwatches(w, termenv.NewOutput(w).Profile, swatches)
}
