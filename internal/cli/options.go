package cli

import "time"

// Options are the flags shared by every command.
type Options struct {
	// DocPath is the document file (.yaml or .json).
	DocPath string
	// WorkspacePath holds the per-policy settings. A missing file is an empty workspace.
	WorkspacePath string
	// Policies restricts the run to these names. Empty selects the policies the
	// workspace configures, or all of them.
	Policies []string

	Rename bool
	Debug  bool
	// Output is where apply writes the annotated document; "-" or empty is stdout.
	Output string

	LogLevel string
	// RedisAddr moves the instance registry and the sweep lock to Redis.
	RedisAddr string
	LockTTL   time.Duration
	Seed      uint64
}
