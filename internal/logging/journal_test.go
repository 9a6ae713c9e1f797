package logging_test

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"

	"github.com/aretw0/grove/internal/logging"
	"github.com/stretchr/testify/assert"
)

func TestJournal(t *testing.T) {
	var j logging.Journal
	assert.Empty(t, j.String())

	j.Printf("Set up events on ID %d\n", 42)
	j.Printf("%d colors", 2)
	assert.Equal(t, "Set up events on ID 42\n2 colors\n", j.String())
	assert.Len(t, j.Lines(), 2)

	j.Reset()
	assert.Empty(t, j.Lines())
}

func TestNewWithWriter_RenamesErrorKey(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.NewWithWriter(&buf, slog.LevelInfo)

	logger.Info("sweep failed", "error", errors.New("boom"))
	logger.Debug("hidden")

	assert.Contains(t, buf.String(), "err=boom")
	assert.NotContains(t, buf.String(), "hidden")
}
