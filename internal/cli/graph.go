package cli

import (
	"fmt"
	"io"

	"github.com/aretw0/grove/internal/presentation/graph"
	"github.com/aretw0/grove/pkg/adapters/file"
)

// RunGraph prints the document as a Mermaid diagram.
func RunGraph(path string, w io.Writer) error {
	nodes, err := file.ReadNodes(path)
	if err != nil {
		return err
	}
	fmt.Fprint(w, graph.GenerateMermaid(nodes, nil))
	return nil
}
