package updater

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/clipfeed/clipfeed/internal/config"
)

// TestParseVariant_RoundTrip verifies every variant name resolves back to its variant.
func TestParseVariant_RoundTrip(t *testing.T) {
	t.Parallel()

	for _, variant := range AllVariants() {
		parsed, ok := ParseVariant(variant.String())
		require.True(t, ok, "name %q should parse", variant.String())
		require.Equal(t, variant, parsed)
	}

	_, ok := ParseVariant("pocket-calculator")
	require.False(t, ok)

	parsed, ok := ParseVariant("  Linux_Exe ")
	require.True(t, ok)
	require.Equal(t, VariantLinuxExe, parsed)
}

// TestVariant_UpdatabilityIsTotal verifies every variant is either updatable
// or carries a reason, never both, and that exactly the standalone
// executables and the archive build can self-update.
func TestVariant_UpdatabilityIsTotal(t *testing.T) {
	t.Parallel()

	updatable := map[Variant]bool{
		VariantArchive:         true,
		VariantWinExe:          true,
		VariantWinX86Exe:       true,
		VariantDarwinExe:       true,
		VariantDarwinLegacyExe: true,
		VariantLinuxExe:        true,
		VariantLinuxARM64Exe:   true,
		VariantLinuxARMv7Exe:   true,
	}

	for _, variant := range AllVariants() {
		reason := variant.NonUpdatableReason()

		if updatable[variant] {
			require.Empty(t, reason, "variant %s", variant)
			require.True(t, variant.Updatable())
		} else {
			require.NotEmpty(t, reason, "variant %s", variant)
			require.False(t, variant.Updatable())
		}
	}
}

// TestVariant_FileSuffix verifies the asset suffix mapping and that exactly
// the updatable variants publish an asset.
func TestVariant_FileSuffix(t *testing.T) {
	t.Parallel()

	expected := map[Variant]string{
		VariantArchive:         "",
		VariantWinExe:          ".exe",
		VariantWinX86Exe:       "_x86.exe",
		VariantDarwinExe:       "_macos",
		VariantDarwinLegacyExe: "_macos_legacy",
		VariantLinuxExe:        "_linux",
		VariantLinuxARM64Exe:   "_linux_aarch64",
		VariantLinuxARMv7Exe:   "_linux_armv7l",
	}

	for _, variant := range AllVariants() {
		suffix, ok := variant.FileSuffix()
		want, isUpdatable := expected[variant]

		require.Equal(t, isUpdatable, ok, "variant %s", variant)
		require.Equal(t, want, suffix, "variant %s", variant)
		require.Equal(t, variant.Updatable(), ok, "asset presence should match updatability for %s", variant)
	}
}

// TestVariant_InPlace verifies only the archive build is replaced without a backup.
func TestVariant_InPlace(t *testing.T) {
	t.Parallel()

	for _, variant := range AllVariants() {
		require.Equal(t, variant == VariantArchive, variant.InPlace(), "variant %s", variant)
	}
}

// TestPlatformVariant covers the platform-to-variant normalization.
func TestPlatformVariant(t *testing.T) {
	t.Parallel()

	tests := []struct {
		goos, goarch string
		expected     Variant
	}{
		{"windows", "amd64", VariantWinExe},
		{"windows", "386", VariantWinX86Exe},
		{"windows", "arm64", VariantOther},
		{"darwin", "amd64", VariantDarwinExe},
		{"darwin", "arm64", VariantDarwinExe},
		{"linux", "amd64", VariantLinuxExe},
		{"linux", "arm64", VariantLinuxARM64Exe},
		{"linux", "arm", VariantLinuxARMv7Exe},
		{"linux", "386", VariantOther},
		{"freebsd", "amd64", VariantOther},
	}

	for _, tt := range tests {
		require.Equal(t, tt.expected, platformVariant(tt.goos, tt.goarch), "%s/%s", tt.goos, tt.goarch)
	}
}

// TestDetectVariant_ConfigOverride verifies the configured variant wins over inspection.
func TestDetectVariant_ConfigOverride(t *testing.T) {
	cfg := config.Default()
	cfg.Variant = "win_x86_exe"

	variant, exePath := DetectVariant(cfg)
	require.Equal(t, VariantWinX86Exe, variant)
	require.NotEmpty(t, exePath)
}
