package file

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/aretw0/grove/pkg/domain"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// Workspace holds the per-policy settings and, optionally, which script component hosts
// each policy.
//
//	owners:
//	  colorgroups: script-1
//	policies:
//	  colorgroups:
//	    enable: true
//	    rename: true
//	  fixwires:
//	    fix_once: true
type Workspace struct {
	Owners   map[string]domain.NodeID  `yaml:"owners" json:"owners"`
	Policies map[string]map[string]any `yaml:"policies" json:"policies"`
}

// LoadWorkspace reads a workspace file. A missing file is an empty workspace.
func LoadWorkspace(path string) (*Workspace, error) {
	ws := &Workspace{}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return ws, nil
		}
		return nil, fmt.Errorf("failed to read workspace: %w", err)
	}

	if FormatOf(path) == FormatJSON {
		if err := json.Unmarshal(data, ws); err != nil {
			return nil, fmt.Errorf("failed to parse workspace: %w", err)
		}
		return ws, nil
	}
	if err := yaml.Unmarshal(data, ws); err != nil {
		return nil, fmt.Errorf("failed to parse workspace: %w", err)
	}
	return ws, nil
}

// Configures reports whether the workspace has a section for name.
func (w *Workspace) Configures(name string) bool {
	_, ok := w.Policies[name]
	return ok
}

// Settings decodes the settings of one policy into out, a pointer to its Settings
// struct. Unknown keys are rejected. A policy absent from the workspace leaves out
// untouched.
func (w *Workspace) Settings(name string, out any) error {
	raw, ok := w.Policies[name]
	if !ok {
		return nil
	}

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       colorHook,
		ErrorUnused:      true,
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(raw); err != nil {
		return fmt.Errorf("invalid %s settings: %w", name, err)
	}
	return nil
}
