package updater

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/clipfeed/clipfeed/internal/config"
	"github.com/clipfeed/clipfeed/internal/version"
)

// BundleDirEnv is set by packaged launchers to the directory the bundle was
// unpacked into. When it equals the executable's own directory the build is
// an installed-directory variant and cannot replace itself.
const BundleDirEnv = "CLIPFEED_BUNDLE_DIR"

// Variant describes how the running build is packaged. It decides both
// update eligibility and the release asset the build updates from.
type Variant int

const (
	// VariantUnknown is a build whose packaging could not be determined.
	VariantUnknown Variant = iota
	// VariantOther is an unofficial or unrecognized build.
	VariantOther
	// VariantArchive is a run-from-archive build, replaced in place.
	VariantArchive
	// VariantWinExe is the standalone Windows executable.
	VariantWinExe
	// VariantWinX86Exe is the standalone 32-bit Windows executable.
	VariantWinX86Exe
	// VariantDarwinExe is the standalone macOS executable.
	VariantDarwinExe
	// VariantDarwinLegacyExe is the standalone executable for macOS releases below 10.15.
	VariantDarwinLegacyExe
	// VariantLinuxExe is the standalone Linux executable.
	VariantLinuxExe
	// VariantLinuxARM64Exe is the standalone Linux aarch64 executable.
	VariantLinuxARM64Exe
	// VariantLinuxARMv7Exe is the standalone Linux armv7l executable.
	VariantLinuxARMv7Exe
	// VariantWinDir is the unpacked Windows install directory.
	VariantWinDir
	// VariantDarwinDir is the unpacked macOS install directory.
	VariantDarwinDir
	// VariantLinuxDir is the unpacked Linux install directory.
	VariantLinuxDir
	// VariantSource is a build run from a source checkout.
	VariantSource
)

// variantNames maps variants to their wire/identifier names.
var variantNames = map[Variant]string{
	VariantUnknown:         "unknown",
	VariantOther:           "other",
	VariantArchive:         "archive",
	VariantWinExe:          "win_exe",
	VariantWinX86Exe:       "win_x86_exe",
	VariantDarwinExe:       "darwin_exe",
	VariantDarwinLegacyExe: "darwin_legacy_exe",
	VariantLinuxExe:        "linux_exe",
	VariantLinuxARM64Exe:   "linux_aarch64_exe",
	VariantLinuxARMv7Exe:   "linux_armv7l_exe",
	VariantWinDir:          "win_dir",
	VariantDarwinDir:       "darwin_dir",
	VariantLinuxDir:        "linux_dir",
	VariantSource:          "source",
}

// AllVariants lists every packaging variant exactly once.
func AllVariants() []Variant {
	variants := make([]Variant, 0, len(variantNames))
	for v := range variantNames {
		variants = append(variants, v)
	}

	return variants
}

// ParseVariant resolves a variant from its name.
func ParseVariant(s string) (Variant, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	for v, name := range variantNames {
		if name == s {
			return v, true
		}
	}

	return VariantOther, false
}

// String returns the identifier name of the variant.
func (v Variant) String() string {
	if name, ok := variantNames[v]; ok {
		return name
	}

	return variantNames[VariantOther]
}

// FileSuffix returns the release-asset suffix for the variant.
// The second result is false for variants that have no published asset.
func (v Variant) FileSuffix() (string, bool) {
	switch v {
	case VariantArchive:
		return "", true
	case VariantWinExe:
		return ".exe", true
	case VariantWinX86Exe:
		return "_x86.exe", true
	case VariantDarwinExe:
		return "_macos", true
	case VariantDarwinLegacyExe:
		return "_macos_legacy", true
	case VariantLinuxExe:
		return "_linux", true
	case VariantLinuxARM64Exe:
		return "_linux_aarch64", true
	case VariantLinuxARMv7Exe:
		return "_linux_armv7l", true
	default:
		return "", false
	}
}

// NonUpdatableReason returns a human-readable explanation of why the
// variant cannot self-update, or "" for updatable variants. The mapping is
// total: every variant is either updatable or carries a distinct reason.
func (v Variant) NonUpdatableReason() string {
	switch v {
	case VariantArchive, VariantWinExe, VariantWinX86Exe, VariantDarwinExe,
		VariantDarwinLegacyExe, VariantLinuxExe, VariantLinuxARM64Exe, VariantLinuxARMv7Exe:
		return ""
	case VariantWinDir:
		return "Auto-update is not supported for the unpacked Windows build; re-download the latest release"
	case VariantDarwinDir:
		return "Auto-update is not supported for the unpacked macOS build; re-download the latest release"
	case VariantLinuxDir:
		return "Auto-update is not supported for the unpacked Linux build; re-download the latest release"
	case VariantSource:
		return "You cannot update when running from source code; use git to pull the latest changes"
	case VariantUnknown:
		return "You installed clipfeed with a package manager; use it to update"
	default:
		// VariantOther and anything unmapped.
		return "You are using an unofficial build of clipfeed; build the executable again"
	}
}

// Updatable reports whether the variant supports self-update.
func (v Variant) Updatable() bool {
	return v.NonUpdatableReason() == ""
}

// InPlace reports whether the variant is replaced in place,
// without a backup file.
func (v Variant) InPlace() bool {
	return v == VariantArchive
}

// DetectVariant determines the packaging variant of the running build and
// the resolved path of its executable. It is called once per run; callers
// hold the result instead of re-detecting.
func DetectVariant(cfg *config.Config) (Variant, string) {
	exePath, err := os.Executable()
	if err != nil {
		return VariantUnknown, ""
	}

	if resolved, err := filepath.EvalSymlinks(exePath); err == nil {
		exePath = resolved
	}

	// Explicit overrides win over inspection.
	if cfg != nil && cfg.Variant != "" {
		v, _ := ParseVariant(cfg.Variant)
		return v, exePath
	}

	if version.Packaging != "" {
		v, _ := ParseVariant(version.Packaging)
		return v, exePath
	}

	if isGoRunArtifact(exePath) {
		if hasGitMetadata() {
			return VariantSource, exePath
		}

		return VariantUnknown, exePath
	}

	if bundleDir := os.Getenv(BundleDirEnv); bundleDir != "" && sameDir(bundleDir, filepath.Dir(exePath)) {
		return dirVariantFor(runtime.GOOS), exePath
	}

	return platformVariant(runtime.GOOS, runtime.GOARCH), exePath
}

// platformVariant picks the standalone-executable variant for a platform,
// collapsing the x86 family naming: amd64 uses the bare OS suffix and only
// 32-bit Windows keeps an explicit x86 marker.
func platformVariant(goos, goarch string) Variant {
	switch goos {
	case "windows":
		switch goarch {
		case "amd64":
			return VariantWinExe
		case "386":
			return VariantWinX86Exe
		default:
			return VariantOther
		}
	case "darwin":
		switch goarch {
		case "amd64", "arm64":
			return VariantDarwinExe
		default:
			return VariantOther
		}
	case "linux":
		switch goarch {
		case "amd64":
			return VariantLinuxExe
		case "arm64":
			return VariantLinuxARM64Exe
		case "arm":
			return VariantLinuxARMv7Exe
		default:
			return VariantOther
		}
	default:
		return VariantOther
	}
}

// dirVariantFor maps a platform to its installed-directory variant.
func dirVariantFor(goos string) Variant {
	switch goos {
	case "windows":
		return VariantWinDir
	case "darwin":
		return VariantDarwinDir
	case "linux":
		return VariantLinuxDir
	default:
		return VariantOther
	}
}

// isGoRunArtifact reports whether the executable is a `go run` temp build.
func isGoRunArtifact(exePath string) bool {
	return strings.Contains(exePath, string(filepath.Separator)+"go-build")
}

// hasGitMetadata looks for version-control metadata above the working directory.
func hasGitMetadata() bool {
	dir, err := os.Getwd()
	if err != nil {
		return false
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, ".git", "HEAD")); err == nil {
			return true
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return false
		}

		dir = parent
	}
}

// sameDir compares two directory paths after cleaning.
func sameDir(a, b string) bool {
	return filepath.Clean(a) == filepath.Clean(b)
}
