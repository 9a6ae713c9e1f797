package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/aretw0/grove/pkg/adapters/file"
)

// RunApply runs the one-shot sweeps of the selected policies and writes the annotated
// document. Journals go to report.
func RunApply(ctx context.Context, opts Options, stdout, report io.Writer) error {
	logger, err := CreateLogger(opts.LogLevel, opts.Debug)
	if err != nil {
		return err
	}

	s, err := createSession(opts, logger, createDebugHooks(logger))
	if err != nil {
		return err
	}
	if err := s.start(ctx, opts, oneShot); err != nil {
		return fmt.Errorf("apply failed: %w", err)
	}

	nodes, err := s.Nodes(ctx)
	if err != nil {
		return err
	}
	if err := file.WriteNodes(opts.Output, stdout, nodes); err != nil {
		return err
	}

	printReports(report, s)
	if opts.Output != "" && opts.Output != "-" {
		printSystemMessage(report, "Wrote %d nodes to %s", len(nodes), opts.Output)
	}
	return nil
}
