package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWritesConsoleAndFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "curve.log")
	var console bytes.Buffer

	l, err := newWithConsole(&Config{LogFile: path, MaxSize: 1, Level: "info"}, &console)
	require.NoError(t, err)

	mint := solana.NewWallet().PublicKey()
	l.WithCurve(mint).Info("curve created")
	l.Debug("hidden")
	require.NoError(t, l.Sync())

	assert.Contains(t, console.String(), "curve created")
	assert.NotContains(t, console.String(), "hidden")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 1)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "curve created", entry["msg"])
	assert.Equal(t, mint.String(), entry["mint"])
	assert.Equal(t, "INFO", entry["level"])
}

func TestWithComponentTagsEntries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "curve.log")
	l, err := newWithConsole(&Config{LogFile: path, MaxSize: 1, Quiet: true}, &bytes.Buffer{})
	require.NoError(t, err)

	l.WithComponent("simulate").Info("step applied")
	require.NoError(t, l.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(data), &entry))
	assert.Equal(t, "simulate", entry["component"])
	assert.Equal(t, "step applied", entry["msg"])
}

func TestQuietWithoutFile(t *testing.T) {
	var console bytes.Buffer
	l, err := newWithConsole(&Config{Quiet: true}, &console)
	require.NoError(t, err)
	l.Info("nowhere")
	assert.Zero(t, console.Len())
}

func TestInvalidLevel(t *testing.T) {
	_, err := newWithConsole(&Config{Level: "loud"}, &bytes.Buffer{})
	assert.Error(t, err)
}

func TestDevelopmentForcesDebug(t *testing.T) {
	var console bytes.Buffer
	l, err := newWithConsole(&Config{Level: "error", Development: true}, &console)
	require.NoError(t, err)

	end := l.TrackPerformance("restore")
	end()
	assert.Contains(t, console.String(), "Operation completed")
	assert.Contains(t, console.String(), "correlation_id")
}
