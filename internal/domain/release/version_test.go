package release

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// TestParseVersion validates dotted-numeric parsing and its failure modes.
func TestParseVersion(t *testing.T) {
	t.Parallel()

	v, err := ParseVersion("2024.01.15")
	require.NoError(t, err)
	require.Equal(t, Version{2024, 1, 15}, v)
	require.Equal(t, "2024.1.15", v.String())

	for _, bad := range []string{"", "abc", "1.2.x", "1..2", "2024-01-01"} {
		_, err := ParseVersion(bad)
		require.Error(t, err, "input %q", bad)
	}
}

// TestVersionCompare exercises tuple ordering including unequal lengths.
func TestVersionCompare(t *testing.T) {
	t.Parallel()

	cases := []struct {
		a, b string
		want int
	}{
		{"2024.01.01", "2024.01.01", 0},
		{"2024.01.01", "2024.02.01", -1},
		{"2024.02.01", "2024.01.01", 1},
		{"1.0", "1.0.1", -1},
		{"1.0.1", "1.0", 1},
		{"1.10", "1.9", 1},
	}

	for _, tc := range cases {
		a, err := ParseVersion(tc.a)
		require.NoError(t, err)

		b, err := ParseVersion(tc.b)
		require.NoError(t, err)

		require.Equal(t, tc.want, a.Compare(b), "%s vs %s", tc.a, tc.b)
	}
}

// TestIsNumericTag separates dotted-numeric tags from named ones.
func TestIsNumericTag(t *testing.T) {
	t.Parallel()

	require.True(t, IsNumericTag("2024.01.01"))
	require.True(t, IsNumericTag("1"))
	require.False(t, IsNumericTag("latest"))
	require.False(t, IsNumericTag("v1.2.3"))
	require.False(t, IsNumericTag(""))
}
