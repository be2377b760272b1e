package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turbekoff/calcpad/pkg/expr"
)

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()

	var stdout, stderr bytes.Buffer
	root := newRootCommand(nil)
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(args)

	err := root.Execute()
	return stdout.String(), stderr.String(), err
}

func TestEvalCommand(t *testing.T) {
	stdout, _, err := execute(t, "eval", "7", "+", "3")
	require.NoError(t, err)
	assert.Equal(t, "= 10\n", stdout)

	stdout, _, err = execute(t, "eval", "2 x (3 + 4)^2 + 0.5")
	require.NoError(t, err)
	assert.Equal(t, "= 98.5\n", stdout)
}

func TestEvalCommandError(t *testing.T) {
	_, stderr, err := execute(t, "eval", "5 / 0")
	assert.ErrorIs(t, err, expr.ErrDivisionByZero)
	assert.Equal(t, "= Error\n", stderr)

	_, _, err = execute(t, "eval")
	assert.Error(t, err)
}

func TestLoadConfigFromEnvFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(file, []byte("CALCPAD_STATUS_INTERVAL=250ms\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("CALCPAD_STATUS_INTERVAL") })

	config, err := LoadConfig[TerminalConfig](file)
	require.NoError(t, err)
	assert.Equal(t, 250*time.Millisecond, config.StatusInterval)
}

func TestLoadConfigDefaults(t *testing.T) {
	config, err := LoadConfig[MCPConfig](filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	assert.Equal(t, "calcpad", config.Name)
}

func TestTelegramConfigRequiresToken(t *testing.T) {
	os.Unsetenv("CALCPAD_TELEGRAM_TOKEN")

	_, err := LoadConfig[TelegramConfig]("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CALCPAD_TELEGRAM_TOKEN")
}
