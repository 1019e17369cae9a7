package release

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// errEmptyVersion is returned when an empty string is parsed as a version.
var errEmptyVersion = errors.New("empty version string")

// numericTagPattern matches dotted-numeric release tags such as "2025.08.01".
var numericTagPattern = regexp.MustCompile(`^(\d+\.?)*\d+$`)

// Version is a release tag parsed into its dotted-numeric components.
// Release tags carry no semantic-versioning structure: ordering is plain
// tuple comparison of the numeric parts.
type Version []int

// ParseVersion parses a dotted-numeric release tag.
func ParseVersion(s string) (Version, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, errEmptyVersion
	}

	parts := strings.Split(s, ".")
	parsed := make(Version, 0, len(parts))

	for _, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("invalid version %q: %w", s, err)
		}

		parsed = append(parsed, n)
	}

	return parsed, nil
}

// IsNumericTag reports whether the tag looks like a bare dotted-numeric version.
func IsNumericTag(tag string) bool {
	return numericTagPattern.MatchString(tag)
}

// Compare orders two versions by tuple comparison.
// It returns a negative value when v is older than other, zero when equal,
// and a positive value when newer. A version that is a strict prefix of a
// longer one is older.
func (v Version) Compare(other Version) int {
	for i := 0; i < len(v) && i < len(other); i++ {
		if v[i] != other[i] {
			if v[i] < other[i] {
				return -1
			}

			return 1
		}
	}

	switch {
	case len(v) < len(other):
		return -1
	case len(v) > len(other):
		return 1
	default:
		return 0
	}
}

// String renders the version back in dotted form.
func (v Version) String() string {
	parts := make([]string, 0, len(v))
	for _, n := range v {
		parts = append(parts, strconv.Itoa(n))
	}

	return strings.Join(parts, ".")
}
