package updater

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/clipfeed/clipfeed/internal/config"
	"github.com/clipfeed/clipfeed/internal/domain/release"
)

// newTestOrchestrator wires an orchestrator around a fake release host
// without touching the network or the real executable.
func newTestOrchestrator(t *testing.T, source *fakeSource, cfg *config.Config, current string) *Orchestrator {
	t.Helper()

	if cfg == nil {
		cfg = config.Default()
	}

	resolver, report := NewResolver(context.Background(), source, cfg, VariantLinuxExe, "stable", current, "")
	require.Nil(t, report)

	exePath := filepath.Join(t.TempDir(), "clipfeed")
	require.NoError(t, os.WriteFile(exePath, []byte("current executable"), 0o755))

	return &Orchestrator{
		cfg:      cfg,
		reporter: NewLogReporter(),
		fetcher:  NewFetcher(source),
		resolver: resolver,
		variant:  VariantLinuxExe,
		exePath:  exePath,
		channel:  "stable",
		current:  current,
	}
}

// TestOrchestrator_CheckUpToDate verifies an up-to-date build reports no
// update and no failure.
func TestOrchestrator_CheckUpToDate(t *testing.T) {
	source := &fakeSource{infos: map[string]*release.Info{
		"clipfeed/clipfeed@latest": releaseInfo("2025.08.01"),
	}}

	o := newTestOrchestrator(t, source, nil, "2025.08.01")

	hasUpdate, resolution := o.Check(context.Background())
	require.False(t, hasUpdate)
	require.NotNil(t, resolution)
	require.False(t, o.Failed())
}

// TestOrchestrator_CheckNetworkFailure verifies transport failures are
// reported with remediation and count as no update.
func TestOrchestrator_CheckNetworkFailure(t *testing.T) {
	o := newTestOrchestrator(t, &fakeSource{infoErr: errTestTransport}, nil, "2025.08.01")

	hasUpdate, resolution := o.Check(context.Background())
	require.False(t, hasUpdate)
	require.Nil(t, resolution)
	require.True(t, o.Failed())
}

// TestOrchestrator_UpdateAppliesRelease drives a full update through the
// orchestrator against the fake release host.
func TestOrchestrator_UpdateAppliesRelease(t *testing.T) {
	newBody := []byte("release 2025.09.01")
	sum := sha256.Sum256(newBody)
	manifest := hex.EncodeToString(sum[:]) + "  clipfeed_linux\n"

	assets := map[string][]byte{
		"https://assets.test/2025.09.01/clipfeed_linux": newBody,
	}
	assets["https://assets.test/2025.09.01/"+checksumManifestAssetName] = []byte(manifest)

	source := &fakeSource{
		infos: map[string]*release.Info{
			"clipfeed/clipfeed@latest": releaseInfo("2025.09.01", "clipfeed_linux", checksumManifestAssetName),
		},
		assets: assets,
	}

	o := newTestOrchestrator(t, source, nil, "2025.08.01")

	applied, ok := o.Update(context.Background())
	require.True(t, applied)
	require.True(t, ok)
	require.False(t, o.Failed())

	data, err := os.ReadFile(o.exePath)
	require.NoError(t, err)
	require.Equal(t, newBody, data)
}

// TestOrchestrator_UpdateRefusedForNonUpdatable verifies a configured hint
// replaces the per-variant refusal message.
func TestOrchestrator_UpdateRefusedForNonUpdatable(t *testing.T) {
	source := &fakeSource{infos: map[string]*release.Info{
		"clipfeed/clipfeed@latest": releaseInfo("2025.09.01", "clipfeed_linux"),
	}}

	cfg := config.Default()
	cfg.UpdateHint = "Run your orchestrator's redeploy instead"

	o := newTestOrchestrator(t, source, cfg, "2025.08.01")
	o.variant = VariantLinuxDir

	applied, ok := o.Update(context.Background())
	require.False(t, applied)
	require.False(t, ok)
	require.True(t, o.Failed())
	require.Equal(t, cfg.UpdateHint, o.updatableReason())
}

// TestOrchestrator_UpdatableReason covers the hint precedence.
func TestOrchestrator_UpdatableReason(t *testing.T) {
	o := newTestOrchestrator(t, &fakeSource{}, nil, "2025.08.01")
	require.Empty(t, o.updatableReason())

	o.variant = VariantSource
	require.NotEmpty(t, o.updatableReason())

	o.cfg.UpdateHint = "use the deploy pipeline"
	require.Equal(t, "use the deploy pipeline", o.updatableReason())
}

// TestOrchestrator_ReleasePageURL verifies remediation links point at the
// channel source's release pages.
func TestOrchestrator_ReleasePageURL(t *testing.T) {
	o := newTestOrchestrator(t, &fakeSource{}, nil, "2025.08.01")

	require.Equal(t,
		"https://github.com/clipfeed/clipfeed/releases/latest",
		o.releasePageURL(release.LatestTag))
	require.Equal(t,
		"https://github.com/clipfeed/clipfeed/releases/tag/2025.07.01",
		o.releasePageURL("2025.07.01"))
}

// TestFileSHA256 verifies hashing matches the standard digest of the file body.
func TestFileSHA256(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "payload")
	body := []byte("payload bytes")
	require.NoError(t, os.WriteFile(path, body, 0o600))

	sum := sha256.Sum256(body)

	digest, err := fileSHA256(path)
	require.NoError(t, err)
	require.Equal(t, hex.EncodeToString(sum[:]), digest)

	_, err = fileSHA256(filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
}
