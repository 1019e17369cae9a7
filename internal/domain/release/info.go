package release

import (
	"errors"
	"fmt"
	"strings"
)

// ErrAssetNotFound is returned when a release carries no asset with the requested name.
var ErrAssetNotFound = errors.New("asset not found in release")

// Asset is one downloadable file attached to a release.
type Asset struct {
	// Name is the published filename of the asset.
	Name string `json:"name"`
	// BrowserDownloadURL is the direct download location for the asset bytes.
	BrowserDownloadURL string `json:"browser_download_url"`
}

// Info is the read-only remote snapshot of one published release.
type Info struct {
	// TagName is the release tag.
	TagName string `json:"tag_name"`
	// Assets are the files attached to the release, in publication order.
	Assets []Asset `json:"assets"`
}

// AssetURL finds the download URL of the asset with the exact given name.
func (i *Info) AssetURL(name string) (string, error) {
	for _, asset := range i.Assets {
		if asset.Name == name {
			return asset.BrowserDownloadURL, nil
		}
	}

	return "", fmt.Errorf("%s: %w", name, ErrAssetNotFound)
}

// ParseChecksums parses a checksum manifest into a filename-to-digest map.
// Each line carries "<hexDigest> <filename>"; malformed lines are skipped.
func ParseChecksums(data []byte) map[string]string {
	checksums := make(map[string]string)

	for _, line := range strings.Split(string(data), "\n") {
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}

		checksums[fields[1]] = fields[0]
	}

	return checksums
}
