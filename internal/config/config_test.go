package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hybs/groupbypass/pkg/retry"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "Main", cfg.RootLabel)
	assert.Equal(t, 250*time.Millisecond, cfg.SyncInterval.Duration)
	assert.Equal(t, 5, cfg.Ready.Attempts)
	assert.Equal(t, DefaultAddr, cfg.Serve.Addr)

	p := cfg.RetryPolicy()
	assert.Equal(t, 5, p.Attempts)
	assert.Equal(t, 50*time.Millisecond, p.InitialDelay)
	assert.Equal(t, retry.DefaultMaxDelay, p.MaxDelay)
}

func TestPathUsesXDG(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	path, err := Path()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "groupbypass", "config.toml"), path)
}

func TestPathDefault(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "")

	path, err := Path()
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(path, filepath.Join(".config", "groupbypass", "config.toml")), path)
}

func TestLoadMissingFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadFile(t *testing.T) {
	path := writeFile(t, "config.toml", `
root_label = "Root"
sync_interval = "1s"

[ready]
attempts = 3
initial_delay = "10ms"

[serve]
addr = ":9000"
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "Root", cfg.RootLabel)
	assert.Equal(t, time.Second, cfg.SyncInterval.Duration)
	assert.Equal(t, 3, cfg.Ready.Attempts)
	assert.Equal(t, 10*time.Millisecond, cfg.Ready.InitialDelay.Duration)
	assert.Equal(t, ":9000", cfg.Serve.Addr)
}

func TestLoadPartialFileKeepsDefaults(t *testing.T) {
	path := writeFile(t, "config.toml", `root_label = "Top"`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "Top", cfg.RootLabel)
	assert.Equal(t, Default().Ready, cfg.Ready)
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"syntax", `root_label = `, "read"},
		{"bad duration", `sync_interval = "soon"`, "read"},
		{"zero attempts", "[ready]\nattempts = 0", "ready.attempts"},
		{"empty label", `root_label = ""`, "root_label"},
		{"negative interval", `sync_interval = "-1s"`, "sync_interval"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeFile(t, "config.toml", tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadEnvOverridesFile(t *testing.T) {
	path := writeFile(t, "config.toml", `root_label = "File"`)
	t.Setenv(EnvRootLabel, "Env")
	t.Setenv(EnvServeAddr, ":1234")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "Env", cfg.RootLabel)
	assert.Equal(t, ":1234", cfg.Serve.Addr)
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		EnvSyncInterval:      "2s",
		EnvReadyAttempts:     "9",
		EnvReadyInitialDelay: "5ms",
	}
	lookup := func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}

	cfg := Default()
	require.NoError(t, ApplyEnv(&cfg, lookup))
	assert.Equal(t, 2*time.Second, cfg.SyncInterval.Duration)
	assert.Equal(t, 9, cfg.Ready.Attempts)
	assert.Equal(t, 5*time.Millisecond, cfg.Ready.InitialDelay.Duration)
	assert.Equal(t, "Main", cfg.RootLabel)
}

func TestApplyEnvInvalid(t *testing.T) {
	for _, key := range []string{EnvSyncInterval, EnvReadyAttempts, EnvReadyInitialDelay} {
		t.Run(key, func(t *testing.T) {
			cfg := Default()
			err := ApplyEnv(&cfg, func(k string) (string, bool) {
				if k == key {
					return "nope", true
				}
				return "", false
			})
			require.Error(t, err)
			assert.Contains(t, err.Error(), key)
		})
	}
}

func TestLoadDotEnv(t *testing.T) {
	path := writeFile(t, ".env", EnvRootLabel+"=Dot\n"+EnvServeAddr+"=:7777\n")
	t.Setenv(EnvServeAddr, ":1111")
	// Registered so the variable is restored after the test.
	t.Setenv(EnvRootLabel, "")
	require.NoError(t, os.Unsetenv(EnvRootLabel))

	require.NoError(t, LoadDotEnv(path))
	assert.Equal(t, "Dot", os.Getenv(EnvRootLabel))
	assert.Equal(t, ":1111", os.Getenv(EnvServeAddr), "set variables win over .env")
}

func TestLoadDotEnvMissing(t *testing.T) {
	require.NoError(t, LoadDotEnv(filepath.Join(t.TempDir(), ".env")))
}

func TestEncodeRoundTrip(t *testing.T) {
	cfg := Default()
	cfg.RootLabel = "Round"

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, cfg))
	assert.Contains(t, buf.String(), `sync_interval = "250ms"`)

	var got Config
	_, err := toml.Decode(buf.String(), &got)
	require.NoError(t, err)
	assert.Equal(t, cfg, got)
}
