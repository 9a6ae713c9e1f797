package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/aretw0/grove/internal/presentation/graph"
	"github.com/aretw0/grove/pkg/adapters/file"
)

// RunReplay activates the selected policies, applies the scripted edits through the
// document and prints the journals followed by the final graph, with every annotated
// node highlighted.
func RunReplay(ctx context.Context, opts Options, scriptPath string, w io.Writer) error {
	logger, err := CreateLogger(opts.LogLevel, opts.Debug)
	if err != nil {
		return err
	}
	script, err := file.LoadScript(scriptPath)
	if err != nil {
		return err
	}

	rec := &annotationRecorder{}
	s, err := createSession(opts, logger, rec.hooks(createDebugHooks(logger)))
	if err != nil {
		return err
	}
	if err := s.start(ctx, opts, live); err != nil {
		return fmt.Errorf("replay failed: %w", err)
	}

	err = script.Replay(ctx, s.Doc, func(i int, step file.Step) {
		printSystemMessage(w, "step %d: %s", i+1, step)
	})
	if err != nil {
		return fmt.Errorf("replay failed: %w", err)
	}

	printReports(w, s)

	nodes, err := s.Nodes(ctx)
	if err != nil {
		return err
	}
	fmt.Fprint(w, graph.GenerateMermaid(nodes, &graph.GraphOverlay{Annotated: rec.nodes}))
	return nil
}
