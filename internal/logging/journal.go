package logging

import (
	"fmt"
	"strings"
	"sync"
)

// Journal is the human-readable running log of one policy instance.
// It is cleared at the start of every activation and rebuilt as the activation
// reports what it configured, attached and removed.
type Journal struct {
	mu    sync.Mutex
	lines []string
}

// Reset clears the journal.
func (j *Journal) Reset() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.lines = j.lines[:0]
}

// Printf appends one formatted entry. Entries spanning several lines are kept verbatim.
func (j *Journal) Printf(format string, args ...any) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.lines = append(j.lines, strings.TrimRight(fmt.Sprintf(format, args...), "\n"))
}

// Lines returns a copy of the entries.
func (j *Journal) Lines() []string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]string(nil), j.lines...)
}

// String joins the entries, one per line.
func (j *Journal) String() string {
	j.mu.Lock()
	defer j.mu.Unlock()
	if len(j.lines) == 0 {
		return ""
	}
	return strings.Join(j.lines, "\n") + "\n"
}
