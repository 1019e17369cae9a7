package updater

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strings"

	"github.com/clipfeed/clipfeed/internal/config"
	"github.com/clipfeed/clipfeed/internal/domain/release"
	"github.com/clipfeed/clipfeed/internal/logger"
	"github.com/clipfeed/clipfeed/internal/repository/releases"
)

// updateSpecAssetName is the policy document published with every latest
// release; its lock lines force version ceilings on matching builds.
const updateSpecAssetName = "_update_spec"

// minSupportedVersion is the oldest release whose builds still understand
// this update flow. Explicit downgrades below it draw a warning because
// the downgraded binary cannot update itself forward again.
var minSupportedVersion = release.Version{2024, 3, 1}

// Source abstracts the release host the resolver and fetcher talk to.
// The production implementation is releases.Client.
type Source interface {
	// VersionInfo fetches the metadata snapshot for a repository ref.
	VersionInfo(ctx context.Context, repo, ref string) (*release.Info, error)
	// DownloadAsset retrieves raw asset bytes, surfacing transport errors unchanged.
	DownloadAsset(ctx context.Context, url string) ([]byte, error)
}

// Resolution is the final decision of one resolve pass: the concrete tag
// to install, its version label, and how it compares to the running build.
type Resolution struct {
	// Tag is the resolved tag, or release.LatestTag.
	Tag string
	// Version is the version label of the resolved release.
	Version string
	// LatestVersion is the version label of the originally targeted release.
	LatestVersion string
	// Info is the metadata snapshot of the resolved release.
	Info *release.Info
	// HasUpdate reports whether the resolved release differs from the
	// running build in the direction the target demands.
	HasUpdate bool
	// Locked reports whether a remote lock rule forced the tag below the target.
	Locked bool
}

// Resolver normalizes an update target and decides the release to install,
// applying the remote lock policy for the running build's identifier.
type Resolver struct {
	source  Source
	variant Variant
	// channel and current describe the running build.
	channel string
	current string
	// target is the normalized request.
	target release.Target
	// repo is the release source of the target channel.
	repo string
}

// NewResolver parses the raw target and binds it to a channel source.
// An unknown channel is a configuration error listing the valid channels.
func NewResolver(
	ctx context.Context,
	source Source,
	cfg *config.Config,
	variant Variant,
	channel, current, rawTarget string,
) (*Resolver, *Report) {
	if rawTarget == "" {
		rawTarget = channel
	}

	target := release.ParseTarget(rawTarget, channel, cfg.HasChannel)

	repo, ok := cfg.Sources[target.Channel]
	if !ok {
		return nil, &Report{
			Kind: KindConfig,
			Message: fmt.Sprintf("No channel source for %q set. Valid channels are %s",
				target.Channel, strings.Join(cfg.Channels(), ", ")),
		}
	}

	if target.Exact && release.IsNumericTag(target.Tag) {
		if requested, err := release.ParseVersion(target.Tag); err == nil &&
			requested.Compare(minSupportedVersion) < 0 {
			logger.Warnf(ctx, "You are downgrading to a release without self-update support (%s)", target.Tag)
		}
	}

	return &Resolver{
		source:  source,
		variant: variant,
		channel: channel,
		current: current,
		target:  target,
		repo:    repo,
	}, nil
}

// Target returns the normalized update target.
func (r *Resolver) Target() release.Target {
	return r.target
}

// Repo returns the "owner/repository" source of the target channel.
func (r *Resolver) Repo() string {
	return r.repo
}

// Resolve decides the release to install. Transport failures propagate to
// the caller unchanged; the orchestrator converts them into network reports.
func (r *Resolver) Resolve(ctx context.Context) (*Resolution, error) {
	targetInfo, err := r.source.VersionInfo(ctx, r.repo, releases.RefForTag(r.target.Tag))
	if err != nil {
		return nil, err
	}

	latestVersion := targetInfo.TagName

	// When the running build already satisfies the target there is nothing
	// to resolve further and the lock policy is not consulted.
	if r.satisfies(ctx, r.current, latestVersion) {
		return &Resolution{
			Tag:           r.target.Tag,
			Version:       latestVersion,
			LatestVersion: latestVersion,
			Info:          targetInfo,
			HasUpdate:     false,
		}, nil
	}

	lockedTag, locked, err := r.evalLockPolicy(ctx)
	if err != nil {
		return nil, err
	}

	resolution := &Resolution{
		Tag:           r.target.Tag,
		Version:       latestVersion,
		LatestVersion: latestVersion,
		Info:          targetInfo,
		Locked:        locked,
	}

	if locked {
		resolution.Tag = lockedTag
		resolution.Version = lockedTag

		resolution.Info, err = r.source.VersionInfo(ctx, r.repo, releases.RefForTag(lockedTag))
		if err != nil {
			return nil, err
		}
	} else if !r.target.IsLatest() {
		resolution.Version = r.target.Tag
	}

	resolution.HasUpdate = !r.satisfies(ctx, r.current, resolution.Version)

	return resolution, nil
}

// evalLockPolicy downloads the channel's update spec document and applies
// its lock rules to this build's identifier. A latest release without the
// document yields no rules: a missing policy must not block updates.
func (r *Resolver) evalLockPolicy(ctx context.Context) (string, bool, error) {
	latestInfo, err := r.source.VersionInfo(ctx, r.repo, release.LatestTag)
	if err != nil {
		return "", false, err
	}

	url, err := latestInfo.AssetURL(updateSpecAssetName)
	if err != nil {
		if errors.Is(err, release.ErrAssetNotFound) {
			logger.DebugKV(ctx, "No update spec published, skipping lock evaluation", "repo", r.repo)
			return "", false, nil
		}

		return "", false, err
	}

	document, err := r.source.DownloadAsset(ctx, url)
	if err != nil {
		return "", false, err
	}

	rules := release.ParseLockRules(string(document))
	identifier := r.identifier()

	tag, locked := release.EvalLockRules(rules, identifier, r.target)
	if locked {
		logger.InfoKV(ctx, "Update locked by release policy", "identifier", identifier, "tag", tag)
	}

	return tag, locked, nil
}

// identifier composes the string lock patterns match against:
// variant, channel, and the platform signature of the build.
func (r *Resolver) identifier() string {
	return fmt.Sprintf("%s %s %s %s/%s",
		r.variant, r.target.Channel, runtime.Version(), runtime.GOOS, runtime.GOARCH)
}

// satisfies reports whether the running build already satisfies the target
// relative to the candidate version: strict equality for exact targets,
// same-or-newer otherwise. Versions on different channels never satisfy
// each other, so switching channels always updates. Unparseable versions
// compare conservatively: exact targets fall back to string equality and
// ranged targets report no update.
func (r *Resolver) satisfies(ctx context.Context, current, candidate string) bool {
	if r.target.Channel != r.channel {
		return false
	}

	currentVersion, errCurrent := release.ParseVersion(current)
	candidateVersion, errCandidate := release.ParseVersion(candidate)

	if errCurrent != nil || errCandidate != nil {
		logger.WarnKV(ctx, "Unparseable version strings, treating candidate as not newer",
			"current", current, "candidate", candidate)

		if r.target.Exact {
			return current == candidate
		}

		return true
	}

	if r.target.Exact {
		return currentVersion.Compare(candidateVersion) == 0
	}

	return currentVersion.Compare(candidateVersion) >= 0
}
