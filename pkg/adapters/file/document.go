// Package file reads and writes grove documents, workspace settings and replay scripts.
// YAML is the default format; files ending in .json are read and written as JSON.
package file

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/aretw0/grove/pkg/adapters/memory"
	"github.com/aretw0/grove/pkg/domain"
	"gopkg.in/yaml.v3"
)

// Document is the on-disk form of a graph.
type Document struct {
	Nodes []domain.Node `yaml:"nodes" json:"nodes"`
}

// Format selects the encoding of a file.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// FormatOf picks the format from the file extension.
func FormatOf(path string) Format {
	if strings.ToLower(filepath.Ext(path)) == ".json" {
		return FormatJSON
	}
	return FormatYAML
}

// Decode reads a document and validates its references.
func Decode(r io.Reader, format Format) ([]domain.Node, error) {
	var doc Document
	switch format {
	case FormatJSON:
		if err := json.NewDecoder(r).Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to parse document: %w", err)
		}
	default:
		if err := yaml.NewDecoder(r).Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("failed to parse document: %w", err)
		}
	}
	if err := Validate(doc.Nodes); err != nil {
		return nil, err
	}
	return doc.Nodes, nil
}

// Encode writes nodes as a document.
func Encode(w io.Writer, format Format, nodes []domain.Node) error {
	doc := Document{Nodes: nodes}
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(doc)
	default:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return err
		}
		return enc.Close()
	}
}

// Validate checks that every group member and wire source names an existing node and
// that wires never originate from a group.
func Validate(nodes []domain.Node) error {
	byID := make(map[domain.NodeID]domain.Node, len(nodes))
	for _, n := range nodes {
		if n.ID == "" {
			return fmt.Errorf("node %q has no id", n.Name)
		}
		if _, dup := byID[n.ID]; dup {
			return fmt.Errorf("duplicate node id %s", n.ID)
		}
		byID[n.ID] = n
	}

	for _, n := range nodes {
		for _, m := range n.Members {
			if _, ok := byID[m]; !ok {
				return fmt.Errorf("group %s: member %s: %w", n.ID, m, domain.ErrNodeNotFound)
			}
		}
		for i, in := range n.Inputs {
			for _, src := range in.Sources {
				s, ok := byID[src]
				if !ok {
					return fmt.Errorf("node %s input %d: source %s: %w", n.ID, i, src, domain.ErrNodeNotFound)
				}
				if s.IsGroup() {
					return fmt.Errorf("node %s input %d: source %s: %w", n.ID, i, src, domain.ErrGroupSource)
				}
			}
		}
	}
	return nil
}

// ReadNodes decodes the document at path.
func ReadNodes(path string) ([]domain.Node, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open document: %w", err)
	}
	defer f.Close()
	return Decode(f, FormatOf(path))
}

// LoadDocument decodes the document at path into an in-memory host.
func LoadDocument(path string, opts ...memory.Option) (*memory.Document, error) {
	nodes, err := ReadNodes(path)
	if err != nil {
		return nil, err
	}
	return memory.NewFromNodes(nodes, opts...)
}

// WriteNodes encodes nodes to path, or to w when path is "-" or empty.
func WriteNodes(path string, w io.Writer, nodes []domain.Node) error {
	if path == "" || path == "-" {
		return Encode(w, FormatYAML, nodes)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := Encode(f, FormatOf(path), nodes); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return f.Close()
}
