package release

import (
	"regexp"
	"strings"
)

// lockDirective introduces a version-ceiling line in the update spec document.
const lockDirective = "lock"

// lockRuleFieldCount is the number of space-separated fields in a lock line.
const lockRuleFieldCount = 3

// LockRule is a remote-published version ceiling: builds whose identifier
// matches Pattern must not install anything newer than Tag.
type LockRule struct {
	// Tag is the maximum installable release tag.
	Tag string
	// Pattern matches build identifiers the rule applies to,
	// anchored at the start of the identifier.
	Pattern *regexp.Regexp
}

// ParseLockRules extracts lock rules from an update spec document.
// Lines have the form "lock <tag> <regex>"; anything else, including lines
// with malformed patterns, is ignored so that a damaged remote document
// degrades to fewer rules instead of blocking resolution.
func ParseLockRules(document string) []LockRule {
	var rules []LockRule

	for _, line := range strings.Split(document, "\n") {
		fields := strings.SplitN(strings.TrimRight(line, "\r"), " ", lockRuleFieldCount)
		if len(fields) != lockRuleFieldCount || fields[0] != lockDirective {
			continue
		}

		pattern, err := regexp.Compile("^(?:" + fields[2] + ")")
		if err != nil {
			continue
		}

		rules = append(rules, LockRule{
			Tag:     fields[1],
			Pattern: pattern,
		})
	}

	return rules
}

// EvalLockRules returns the tag forced by the lock rules for the given
// build identifier, if any. The last matching applicable rule wins.
//
// When the caller has pinned an explicit tag, a rule only applies if it
// would strictly downgrade the pinned tag; rules whose tag (or the pinned
// tag itself) fails to parse as a version are skipped, scanning continues.
func EvalLockRules(rules []LockRule, identifier string, pinned Target) (string, bool) {
	var forced string

	for _, rule := range rules {
		if !rule.Pattern.MatchString(identifier) {
			continue
		}

		if pinned.Exact && !pinned.IsLatest() {
			lockVersion, err := ParseVersion(rule.Tag)
			if err != nil {
				continue
			}

			pinnedVersion, err := ParseVersion(pinned.Tag)
			if err != nil {
				continue
			}

			if lockVersion.Compare(pinnedVersion) >= 0 {
				continue
			}
		}

		forced = rule.Tag
	}

	return forced, forced != ""
}
