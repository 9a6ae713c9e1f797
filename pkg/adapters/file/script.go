package file

import (
	"context"
	"fmt"
	"os"
	"reflect"

	"github.com/aretw0/grove/pkg/adapters/memory"
	"github.com/aretw0/grove/pkg/domain"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// Replay operations.
const (
	OpAdd     = "add"
	OpRemove  = "remove"
	OpRename  = "rename"
	OpRegroup = "regroup"
	OpConnect = "connect"
	OpRecolor = "recolor"
	OpUndo    = "undo"
)

// Step is one scripted edit of a document.
type Step struct {
	Op      string          `mapstructure:"op"`
	Nodes   []domain.Node   `mapstructure:"nodes"`
	IDs     []domain.NodeID `mapstructure:"ids"`
	Target  domain.NodeID   `mapstructure:"target"`
	Name    string          `mapstructure:"name"`
	Members []domain.NodeID `mapstructure:"members"`
	Input   int             `mapstructure:"input"`
	Sources []domain.NodeID `mapstructure:"sources"`
	Color   domain.Color    `mapstructure:"color"`
}

// Script is an ordered list of steps.
type Script struct {
	Steps []Step
}

var colorType = reflect.TypeOf(domain.Color{})

// colorHook decodes "#rrggbb" strings into domain.Color.
func colorHook(from, to reflect.Type, data any) (any, error) {
	if to != colorType || from.Kind() != reflect.String {
		return data, nil
	}
	return domain.ParseColor(data.(string))
}

// DecodeScript decodes raw steps, as read from YAML, into a Script.
func DecodeScript(raw []map[string]any) (*Script, error) {
	s := &Script{Steps: make([]Step, 0, len(raw))}
	for i, r := range raw {
		var step Step
		dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
			DecodeHook:       colorHook,
			ErrorUnused:      true,
			WeaklyTypedInput: true,
			Result:           &step,
		})
		if err != nil {
			return nil, err
		}
		if err := dec.Decode(r); err != nil {
			return nil, fmt.Errorf("step %d: %w", i+1, err)
		}
		if err := step.validate(); err != nil {
			return nil, fmt.Errorf("step %d: %w", i+1, err)
		}
		s.Steps = append(s.Steps, step)
	}
	return s, nil
}

// LoadScript reads a replay script:
//
//	steps:
//	  - op: rename
//	    target: g1
//	    name: in_Width
//	  - op: undo
func LoadScript(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read script: %w", err)
	}
	var raw struct {
		Steps []map[string]any `yaml:"steps"`
	}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse script: %w", err)
	}
	return DecodeScript(raw.Steps)
}

func (s Step) validate() error {
	switch s.Op {
	case OpAdd:
		if len(s.Nodes) == 0 {
			return fmt.Errorf("%s needs nodes", s.Op)
		}
	case OpRemove:
		if len(s.IDs) == 0 {
			return fmt.Errorf("%s needs ids", s.Op)
		}
	case OpRename, OpRegroup, OpConnect, OpRecolor:
		if s.Target == "" {
			return fmt.Errorf("%s needs a target", s.Op)
		}
	case OpUndo:
	default:
		return fmt.Errorf("unknown op %q", s.Op)
	}
	return nil
}

// Apply performs the step on doc. The host dispatches the resulting events before
// Apply returns.
func (s Step) Apply(ctx context.Context, doc *memory.Document) error {
	switch s.Op {
	case OpAdd:
		return doc.AddNodes(ctx, s.Nodes...)
	case OpRemove:
		return doc.RemoveNodes(ctx, s.IDs...)
	case OpRename:
		return doc.Rename(ctx, s.Target, s.Name)
	case OpRegroup:
		return doc.SetMembers(ctx, s.Target, s.Members...)
	case OpConnect:
		return doc.Connect(ctx, domain.Edge{Node: s.Target, Input: s.Input}, s.Sources...)
	case OpRecolor:
		return doc.SetGroupColor(ctx, s.Target, s.Color)
	case OpUndo:
		return doc.NotifyUndo(ctx)
	}
	return fmt.Errorf("unknown op %q", s.Op)
}

// String is the one-line description used in replay output.
func (s Step) String() string {
	switch s.Op {
	case OpAdd:
		return fmt.Sprintf("add %d nodes", len(s.Nodes))
	case OpRemove:
		return fmt.Sprintf("remove %v", s.IDs)
	case OpRename:
		return fmt.Sprintf("rename %s to %q", s.Target, s.Name)
	case OpRegroup:
		return fmt.Sprintf("regroup %s with %v", s.Target, s.Members)
	case OpConnect:
		return fmt.Sprintf("connect %v into %s[%d]", s.Sources, s.Target, s.Input)
	case OpRecolor:
		return fmt.Sprintf("recolor %s %s", s.Target, s.Color)
	}
	return s.Op
}

// Replay applies every step in order. It stops at the first failing step; handler
// errors raised while a step is dispatched count as failures of that step.
func (s *Script) Replay(ctx context.Context, doc *memory.Document, after func(i int, step Step)) error {
	for i, step := range s.Steps {
		if err := step.Apply(ctx, doc); err != nil {
			return fmt.Errorf("step %d (%s): %w", i+1, step, err)
		}
		if after != nil {
			after(i, step)
		}
	}
	return nil
}
