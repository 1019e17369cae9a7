package updater

import (
	"context"

	"github.com/clipfeed/clipfeed/internal/domain/release"
)

// checksumManifestAssetName is the published digest list for a release.
const checksumManifestAssetName = "SHA2-256SUMS"

// Fetcher resolves named assets of a release snapshot and retrieves their bytes.
type Fetcher struct {
	source Source
}

// NewFetcher creates a fetcher over the given release source.
func NewFetcher(source Source) *Fetcher {
	return &Fetcher{source: source}
}

// Asset downloads the release asset with the exact given name.
// A missing asset surfaces release.ErrAssetNotFound.
func (f *Fetcher) Asset(ctx context.Context, info *release.Info, name string) ([]byte, error) {
	url, err := info.AssetURL(name)
	if err != nil {
		return nil, err
	}

	return f.source.DownloadAsset(ctx, url)
}

// Checksums downloads and parses the release's checksum manifest into a
// filename-to-digest map.
func (f *Fetcher) Checksums(ctx context.Context, info *release.Info) (map[string]string, error) {
	data, err := f.Asset(ctx, info, checksumManifestAssetName)
	if err != nil {
		return nil, err
	}

	return release.ParseChecksums(data), nil
}
