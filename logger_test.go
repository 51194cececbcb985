package keywell

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoggerDefaultsToNop(t *testing.T) {
	require.NotNil(t, Logger())
	// Must not panic or write anywhere.
	Logger().Info("discarded")
}

func TestSetLogger(t *testing.T) {
	var buf bytes.Buffer
	SetLogger(slog.New(slog.NewTextHandler(&buf, nil)))
	defer SetLogger(nil)

	Logger().Info("hello", "n", 1)
	require.Contains(t, buf.String(), "hello")

	SetLogger(nil)
	require.NotNil(t, Logger())
	Logger().Info("discarded again")
}
