package env

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nested struct {
	Level string `env:"TEST_ENV_LEVEL" env-default:"info"`
}

type config struct {
	Token    string            `env:"TEST_ENV_TOKEN,required"`
	Offset   int               `env:"TEST_ENV_OFFSET" env-default:"20"`
	TTL      time.Duration     `env:"TEST_ENV_TTL" env-default:"20m"`
	Debug    bool              `env:"TEST_ENV_DEBUG"`
	Ratio    float64           `env:"TEST_ENV_RATIO" env-default:"0.5"`
	Keys     []string          `env:"TEST_ENV_KEYS" env-default:"sin, cos,tan"`
	Limits   map[string]int    `env:"TEST_ENV_LIMITS"`
	Untagged string
	Nested   nested
	Pointer  *nested
	hidden   string `env:"TEST_ENV_HIDDEN"`
	Labels   map[string]string `env:"TEST_ENV_LABELS" env-separator:";"`
}

func TestRead(t *testing.T) {
	t.Setenv("TEST_ENV_TOKEN", "secret")
	t.Setenv("TEST_ENV_DEBUG", "true")
	t.Setenv("TEST_ENV_LIMITS", "a:1,b:2")
	t.Setenv("TEST_ENV_LEVEL", "debug")
	t.Setenv("TEST_ENV_LABELS", "x:1;y:2")

	var cfg config
	require.NoError(t, Read(&cfg))

	assert.Equal(t, "secret", cfg.Token)
	assert.Equal(t, 20, cfg.Offset)
	assert.Equal(t, 20*time.Minute, cfg.TTL)
	assert.True(t, cfg.Debug)
	assert.Equal(t, 0.5, cfg.Ratio)
	assert.Equal(t, []string{"sin", "cos", "tan"}, cfg.Keys)
	assert.Equal(t, map[string]int{"a": 1, "b": 2}, cfg.Limits)
	assert.Equal(t, map[string]string{"x": "1", "y": "2"}, cfg.Labels)
	assert.Equal(t, "debug", cfg.Nested.Level)
	require.NotNil(t, cfg.Pointer)
	assert.Equal(t, "debug", cfg.Pointer.Level)
	assert.Empty(t, cfg.hidden)
}

func TestReadRequired(t *testing.T) {
	os.Unsetenv("TEST_ENV_TOKEN")

	var cfg config
	err := Read(&cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TEST_ENV_TOKEN")
}

func TestReadInvalidValue(t *testing.T) {
	t.Setenv("TEST_ENV_TOKEN", "secret")
	t.Setenv("TEST_ENV_TTL", "soon")

	var cfg config
	err := Read(&cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TEST_ENV_TTL")
}

func TestReadRejectsNonPointer(t *testing.T) {
	assert.Error(t, Read(config{}))

	var n int
	assert.Error(t, Read(&n))
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(file, []byte("TEST_ENV_FROM_FILE=loaded\nTEST_ENV_PRESET=file\n"), 0o600))

	t.Setenv("TEST_ENV_PRESET", "process")
	t.Cleanup(func() { os.Unsetenv("TEST_ENV_FROM_FILE") })

	require.NoError(t, Load(file, filepath.Join(dir, "missing.env"), ""))

	assert.Equal(t, "loaded", os.Getenv("TEST_ENV_FROM_FILE"))
	assert.Equal(t, "process", os.Getenv("TEST_ENV_PRESET"))
}

func TestTagOptions(t *testing.T) {
	name, opts := parseTag("NAME,required,other")
	assert.Equal(t, "NAME", name)
	assert.True(t, opts.Contains("required"))
	assert.True(t, opts.Contains("other"))
	assert.False(t, opts.Contains("missing"))
	assert.False(t, tagOptions("").Contains("required"))
}
