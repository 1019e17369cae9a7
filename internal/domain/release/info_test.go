package release

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// TestAssetURL performs exact-name lookups against the asset list.
func TestAssetURL(t *testing.T) {
	t.Parallel()

	info := &Info{
		TagName: "2024.01.01",
		Assets: []Asset{
			{Name: "clipfeed_linux", BrowserDownloadURL: "https://dl.local/clipfeed_linux"},
			{Name: "clipfeed.exe", BrowserDownloadURL: "https://dl.local/clipfeed.exe"},
		},
	}

	url, err := info.AssetURL("clipfeed_linux")
	require.NoError(t, err)
	require.Equal(t, "https://dl.local/clipfeed_linux", url)

	_, err = info.AssetURL("clipfeed_macos")
	require.ErrorIs(t, err, ErrAssetNotFound)

	// Prefix matches must not count.
	_, err = info.AssetURL("clipfeed")
	require.ErrorIs(t, err, ErrAssetNotFound)
}

// TestParseChecksums maps filenames to digests and skips malformed lines.
func TestParseChecksums(t *testing.T) {
	t.Parallel()

	manifest := []byte(
		"aaaa1111 clipfeed_linux\n" +
			"bbbb2222\tclipfeed.exe\n" +
			"malformed-line\n" +
			"\n")

	checksums := ParseChecksums(manifest)
	require.Len(t, checksums, 2)
	require.Equal(t, "aaaa1111", checksums["clipfeed_linux"])
	require.Equal(t, "bbbb2222", checksums["clipfeed.exe"])
}
