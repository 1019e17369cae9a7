package release

import (
	"testing"

	"github.com/stretchr/testify/require"
)

const linuxIdentifier = "linux_exe stable go1.25 linux/amd64"

// TestParseLockRules keeps only well-formed lock lines.
func TestParseLockRules(t *testing.T) {
	t.Parallel()

	document := "lock 2024.01.01 .*-linux.*\n" +
		"# comment line\n" +
		"unlock 2024.02.01 .*\n" +
		"lock broken\n" +
		"lock 2024.03.01 [invalid\n" +
		"lock 2024.04.01 linux_exe .*\r\n"

	rules := ParseLockRules(document)
	require.Len(t, rules, 2)
	require.Equal(t, "2024.01.01", rules[0].Tag)
	require.Equal(t, "2024.04.01", rules[1].Tag)
}

// TestEvalLockRules_LastMatchWins resolves to the final matching rule when
// no explicit tag was requested.
func TestEvalLockRules_LastMatchWins(t *testing.T) {
	t.Parallel()

	rules := ParseLockRules(
		"lock 2024.01.01 .*linux.*\nlock 2024.02.01 .*linux.*\n")

	target := ParseTarget("stable", "stable", func(s string) bool { return s == "stable" })

	tag, ok := EvalLockRules(rules, linuxIdentifier, target)
	require.True(t, ok)
	require.Equal(t, "2024.02.01", tag)
}

// TestEvalLockRules_NoMatch leaves the target untouched when no pattern matches.
func TestEvalLockRules_NoMatch(t *testing.T) {
	t.Parallel()

	rules := ParseLockRules("lock 2024.01.01 .*windows.*\n")

	_, ok := EvalLockRules(rules, linuxIdentifier, Target{Channel: "stable", Tag: LatestTag})
	require.False(t, ok)
}

// TestEvalLockRules_PinnedTag only lets rules strictly below the pinned tag apply.
func TestEvalLockRules_PinnedTag(t *testing.T) {
	t.Parallel()

	rules := ParseLockRules(
		"lock 2024.05.01 .*linux.*\n" + // above the pin, skipped
			"lock 2024.01.01 .*linux.*\n") // strict downgrade, applies

	pinned := Target{Channel: "stable", Tag: "2024.03.01", Exact: true}

	tag, ok := EvalLockRules(rules, linuxIdentifier, pinned)
	require.True(t, ok)
	require.Equal(t, "2024.01.01", tag)
}

// TestEvalLockRules_UnparseableTagsSkipped keeps scanning past rules whose
// tag does not parse as a version while a pin is in effect.
func TestEvalLockRules_UnparseableTagsSkipped(t *testing.T) {
	t.Parallel()

	rules := ParseLockRules(
		"lock experimental .*linux.*\n" +
			"lock 2024.01.01 .*linux.*\n")

	pinned := Target{Channel: "stable", Tag: "2024.03.01", Exact: true}

	tag, ok := EvalLockRules(rules, linuxIdentifier, pinned)
	require.True(t, ok)
	require.Equal(t, "2024.01.01", tag)

	// An unparseable pinned tag disables every rule.
	badPin := Target{Channel: "stable", Tag: "experimental", Exact: true}

	_, ok = EvalLockRules(rules, linuxIdentifier, badPin)
	require.False(t, ok)
}

// TestEvalLockRules_AnchoredMatch verifies patterns anchor at the start of
// the identifier the way the published rules expect.
func TestEvalLockRules_AnchoredMatch(t *testing.T) {
	t.Parallel()

	rules := ParseLockRules("lock 2024.01.01 stable\n")

	_, ok := EvalLockRules(rules, linuxIdentifier, Target{Tag: LatestTag})
	require.False(t, ok, "pattern must not float into the middle of the identifier")

	rules = ParseLockRules("lock 2024.01.01 linux_exe stable\n")

	tag, ok := EvalLockRules(rules, linuxIdentifier, Target{Tag: LatestTag})
	require.True(t, ok)
	require.Equal(t, "2024.01.01", tag)
}
