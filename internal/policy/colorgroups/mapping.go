package colorgroups

import (
	"fmt"
	"strings"

	"github.com/aretw0/grove/pkg/domain"
)

// ExtractPrefix returns the first "_"-delimited token of a group nickname, trimmed, with the
// separator appended: "in_Width" -> "in_". Names without a separator have no prefix.
func ExtractPrefix(name string) (string, bool) {
	parts := strings.Split(name, domain.PrefixSeparator)
	if len(parts) < 2 {
		return "", false
	}
	return strings.TrimSpace(parts[0]) + domain.PrefixSeparator, true
}

// swatchPrefix derives the prefix a swatch configures. Unlike group names, a swatch
// nickname without a separator still configures "<name>_".
func swatchPrefix(name string) string {
	token, _, _ := strings.Cut(name, domain.PrefixSeparator)
	return strings.TrimSpace(token) + domain.PrefixSeparator
}

// Entry is one prefix -> colour assignment (a ColorEntry).
type Entry struct {
	Prefix string
	Color  domain.Color
	Source domain.NodeID
}

// Mapping is the prefix -> colour table built from the colour swatches.
type Mapping struct {
	entries []Entry
	index   map[string]int
}

// BuildMapping derives one entry per swatch. It fails with a *domain.ConfigurationError
// when no source is supplied, when a source is not a swatch, or when two swatches
// yield the same prefix.
func BuildMapping(sources []domain.Node) (*Mapping, error) {
	if len(sources) == 0 {
		return nil, &domain.ConfigurationError{
			Reason: domain.ErrNotConfigured,
			Detail: "input swatch components and rename them",
		}
	}

	m := &Mapping{index: make(map[string]int, len(sources))}
	for _, src := range sources {
		if !src.IsSwatch() {
			return nil, &domain.ConfigurationError{
				Reason: domain.ErrNonSwatch,
				Source: src.Name,
				Detail: fmt.Sprintf("role %s, kind %q", src.Role, src.Kind),
			}
		}
		prefix := swatchPrefix(src.Name)
		if i, dup := m.index[prefix]; dup {
			return nil, &domain.ConfigurationError{
				Reason: domain.ErrDuplicatePrefix,
				Source: src.Name,
				Detail: fmt.Sprintf("prefix %q already set by %s", prefix, m.entries[i].Source),
			}
		}
		m.index[prefix] = len(m.entries)
		m.entries = append(m.entries, Entry{Prefix: prefix, Color: src.Color, Source: src.ID})
	}
	return m, nil
}

// Len returns the number of entries.
func (m *Mapping) Len() int { return len(m.entries) }

// Lookup returns the colour of an exact prefix.
func (m *Mapping) Lookup(prefix string) (domain.Color, bool) {
	i, ok := m.index[prefix]
	if !ok {
		return domain.Color{}, false
	}
	return m.entries[i].Color, true
}

// Entries returns the entries in swatch order.
func (m *Mapping) Entries() []Entry {
	return append([]Entry(nil), m.entries...)
}

// Prefixes returns the quoted prefixes, comma separated.
func (m *Mapping) Prefixes() string {
	quoted := make([]string, len(m.entries))
	for i, e := range m.entries {
		quoted[i] = fmt.Sprintf("%q", e.Prefix)
	}
	return strings.Join(quoted, ", ")
}

// Summary is the human-readable table printed on activation.
func (m *Mapping) Summary() string {
	width := 0
	for _, e := range m.entries {
		width = max(width, len(e.Prefix))
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Set up the dictionaries with %d colors\n", len(m.entries))
	for _, e := range m.entries {
		fmt.Fprintf(&sb, "%-*s -> %s\n", width+5, fmt.Sprintf("%q", e.Prefix), e.Color)
	}
	return sb.String()
}
