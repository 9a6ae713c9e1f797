package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotConfigured is the reason for a ConfigurationError raised when no colour sources are wired.
	ErrNotConfigured = errors.New("colors not configured")

	// ErrNonSwatch is the reason for a ConfigurationError raised when a colour source is not a swatch.
	ErrNonSwatch = errors.New("non-swatch input")

	// ErrDuplicatePrefix is the reason for a ConfigurationError raised when two swatches share a prefix.
	ErrDuplicatePrefix = errors.New("duplicate prefix")

	// ErrNodeNotFound is returned by hosts when a referenced node no longer exists.
	ErrNodeNotFound = errors.New("node not found")

	// ErrMissingGroupEntry signals a membership index queried for a node it never indexed.
	// It is a programming error and is raised as a panic.
	ErrMissingGroupEntry = errors.New("missing group entry")

	// ErrNotGroup is returned by hosts when a group operation targets a non-group node.
	ErrNotGroup = errors.New("node is not a group")

	// ErrGroupSource is returned by hosts when a wire would originate from a group.
	ErrGroupSource = errors.New("wire source is a group")

	// ErrUnknownPolicy is returned when a policy name is not registered.
	ErrUnknownPolicy = errors.New("unknown policy")
)

// ConfigurationError reports invalid operator-supplied configuration.
// It aborts the activation that raised it; no handlers are attached.
type ConfigurationError struct {
	Reason error  // one of ErrNotConfigured, ErrNonSwatch, ErrDuplicatePrefix
	Source string // offending source nickname, if any
	Detail string
}

func (e *ConfigurationError) Error() string {
	msg := "configuration error: " + e.Reason.Error()
	if e.Source != "" {
		msg += fmt.Sprintf(" (%q)", e.Source)
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

func (e *ConfigurationError) Unwrap() error { return e.Reason }
