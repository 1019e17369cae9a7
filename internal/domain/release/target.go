package release

import "strings"

// LatestTag is the pseudo-tag addressing the newest release of a channel.
const LatestTag = "latest"

// Target identifies the release a user asked to update to.
type Target struct {
	// Channel is the update track, never empty.
	Channel string
	// Tag is the requested release tag, or LatestTag.
	Tag string
	// Exact reports whether the tag was given explicitly. Exact targets
	// require strict version equality instead of "same or newer".
	Exact bool
}

// ParseTarget normalizes a raw "[channel][@tag]" target string.
//
// The string splits on the last "@". A bare string naming a known channel
// is treated as "channel@" rather than "@tag"; any other bare string is a
// tag on the default channel. A missing tag defaults to LatestTag and
// makes the target non-exact.
func ParseTarget(raw, defaultChannel string, isChannel func(string) bool) Target {
	var (
		channel string
		tag     = raw
		exact   = true
	)

	if i := strings.LastIndex(raw, "@"); i >= 0 {
		channel, tag = raw[:i], raw[i+1:]
	} else if isChannel != nil && isChannel(raw) {
		channel, tag = raw, ""
	}

	if channel == "" {
		channel = defaultChannel
	}

	if tag == "" {
		exact = false
		tag = LatestTag
	}

	return Target{
		Channel: channel,
		Tag:     tag,
		Exact:   exact,
	}
}

// IsLatest reports whether the target addresses the channel's newest release.
func (t Target) IsLatest() bool {
	return t.Tag == LatestTag
}

// String renders the target in "channel@tag" form.
func (t Target) String() string {
	return t.Channel + "@" + t.Tag
}
