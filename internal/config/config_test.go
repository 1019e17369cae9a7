package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestValidate checks required fields and format validations for settings.
func TestValidate(t *testing.T) {
	t.Parallel()

	// Nil config.
	require.Error(t, Validate(nil))

	// Empty config picks up defaults.
	cfg := new(Config)
	require.NoError(t, Validate(cfg))
	require.Equal(t, DefaultAPIBaseURL, cfg.APIBaseURL)
	require.Equal(t, DefaultTimeout, cfg.Timeout)
	require.True(t, cfg.HasChannel("stable"))

	// Bad source format.
	cfg = &Config{
		Sources: map[string]string{"stable": "not-a-repo"},
	}
	require.Error(t, Validate(cfg))

	// Bad API base URL.
	cfg = &Config{
		APIBaseURL: "://bad",
	}
	require.Error(t, Validate(cfg))
}

// TestLoad_MissingFileYieldsDefaults ensures a bare install still gets a working config.
func TestLoad_MissingFileYieldsDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	require.Equal(t, Default().Sources, cfg.Sources)
	require.Equal(t, []string{"nightly", "stable"}, cfg.Channels())
}

// TestSaveLoadRoundtrip ensures settings are persisted and loaded back correctly.
func TestSaveLoadRoundtrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "settings.yaml")

	cfg := &Config{
		Sources: map[string]string{
			"stable": "example/releases",
		},
		APIBaseURL: "https://updates.local/repos",
		Timeout:    10 * time.Second,
		Variant:    "linux_exe",
	}

	require.NoError(t, Save(path, cfg))

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, cfg.Sources, loaded.Sources)
	require.Equal(t, cfg.APIBaseURL, loaded.APIBaseURL)
	require.Equal(t, cfg.Variant, loaded.Variant)
}
