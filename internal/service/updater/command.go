package updater

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"

	"github.com/clipfeed/clipfeed/internal/config"
	"github.com/clipfeed/clipfeed/internal/domain/release"
	"github.com/clipfeed/clipfeed/internal/logger"
	"github.com/clipfeed/clipfeed/internal/repository/releases"
	"github.com/clipfeed/clipfeed/internal/version"
)

// binaryBaseName is the published name release assets derive from.
const binaryBaseName = "clipfeed"

var (
	// ErrReported signals that a failure was already reported to the user;
	// the host only needs to set FailureExitCode.
	ErrReported = errors.New("update failure was reported")

	// errUpdateAlreadyRunning rejects a second concurrent update attempt.
	errUpdateAlreadyRunning = errors.New("an update is already running")
)

// Options are inputs accepted by the update entry points.
type Options struct {
	// ConfigPath is the optional path to the settings YAML file.
	ConfigPath string
	// Target is the raw "[channel][@tag]" update target; empty means the
	// current build's channel at latest.
	Target string
	// ExecutablePath overrides the detected executable location.
	// Used by embedding hosts and tests.
	ExecutablePath string
	// Restart relaunches the original command line after an applied update.
	Restart bool
}

// Run executes a full update cycle and is the public entry point for the CLI.
func Run(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "clipfeed-updater")

	if IsUpdateRunningNow(ctx) {
		return errUpdateAlreadyRunning
	}

	if err := CreateMarker(); err != nil {
		return err
	}

	defer RemoveMarker()

	o, err := NewOrchestrator(ctx, opts)
	if err != nil {
		return err
	}

	applied, ok := o.Update(ctx)
	if !ok || o.Failed() {
		return ErrReported
	}

	if applied && opts.Restart {
		// The relaunched process must not trip over our marker, and any
		// deferred cleanup has to run before this process is gone.
		RemoveMarker()
		RunPostExitCleanups()

		code, err := Restart(ctx)
		if err != nil {
			return err
		}

		os.Exit(code)
	}

	return nil
}

// Check reports update availability without mutating anything.
func Check(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "clipfeed-updater")

	o, err := NewOrchestrator(ctx, opts)
	if err != nil {
		return err
	}

	o.Check(ctx)

	if o.Failed() {
		return ErrReported
	}

	return nil
}

// Orchestrator sequences variant detection, version resolution, and the
// file transaction into check and apply operations. It is built once per
// run and carries the run-scoped state: the detected variant, the resolver
// with its memoized metadata, and the reporter accumulating the outcome.
type Orchestrator struct {
	cfg      *config.Config
	reporter *LogReporter
	fetcher  *Fetcher
	resolver *Resolver

	variant Variant
	exePath string

	// channel and current describe the running build.
	channel string
	current string
}

// NewOrchestrator loads settings, detects the packaging variant, and binds
// the target to a channel source. Configuration failures are reported here
// and surface as ErrReported.
func NewOrchestrator(ctx context.Context, opts *Options) (*Orchestrator, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, err
	}

	variant, exePath := DetectVariant(cfg)
	if opts.ExecutablePath != "" {
		exePath = opts.ExecutablePath
	}

	logger.DebugKV(ctx, "Detected packaging variant", "variant", variant.String(), "executable", exePath)

	var (
		source   = releases.NewClient(cfg.APIBaseURL, cfg.Timeout)
		reporter = NewLogReporter()
	)

	resolver, report := NewResolver(ctx, source, cfg, variant, version.Channel, version.Version, opts.Target)
	if report != nil {
		reporter.Error(ctx, report.Message, true)
		return nil, ErrReported
	}

	return &Orchestrator{
		cfg:      cfg,
		reporter: reporter,
		fetcher:  NewFetcher(source),
		resolver: resolver,
		variant:  variant,
		exePath:  exePath,
		channel:  version.Channel,
		current:  version.Version,
	}, nil
}

// Failed reports whether any error was reported during this run.
func (o *Orchestrator) Failed() bool {
	return o.reporter.Failed()
}

// Check resolves the target and reports whether an update is available.
// Transport failures become a network report and count as "no update".
// Unexpected panics from metadata handling are contained here as well.
func (o *Orchestrator) Check(ctx context.Context) (hasUpdate bool, resolution *Resolution) {
	defer func() {
		if r := recover(); r != nil {
			o.reporter.Error(ctx,
				fmt.Sprintf("Unable to complete the update check (%v); please try again later", r), false)

			hasUpdate, resolution = false, nil
		}
	}()

	resolution, err := o.resolver.Resolve(ctx)
	if err != nil {
		o.reporter.Error(ctx, fmt.Sprintf(
			"Unable to obtain version info (%v); please try again later or visit %s",
			err, o.releasePageURL(o.resolver.Target().Tag)), true)

		return false, nil
	}

	target := o.resolver.Target()
	o.reporter.Info(ctx, fmt.Sprintf("Available: %s@%s, Current: %s@%s",
		target.Channel, resolution.LatestVersion, o.channel, o.current))

	if resolution.HasUpdate {
		if o.updatableReason() == "" {
			if digest, err := fileSHA256(o.exePath); err == nil {
				o.reporter.Info(ctx, "Current build hash: "+digest)
			}
		}

		return true, resolution
	}

	if !resolution.Locked {
		o.reporter.Info(ctx, fmt.Sprintf("clipfeed is up to date (%s@%s)", o.channel, o.current))
		return false, resolution
	}

	scope := "any further"
	if target.Exact {
		scope = "to the specified version"
	}

	message := fmt.Sprintf("clipfeed cannot be updated %s since this build is locked to an older release", scope)
	if target.Exact {
		o.reporter.Error(ctx, message, true)
	} else {
		o.reporter.Warn(ctx, message)
	}

	return false, resolution
}

// Update checks first and, when an update is both available and possible,
// drives the file transaction. It reports whether a release was applied and
// whether the run finished without failures.
func (o *Orchestrator) Update(ctx context.Context) (applied, ok bool) {
	hasUpdate, resolution := o.Check(ctx)
	if !hasUpdate {
		return false, !o.reporter.Failed()
	}

	if reason := o.updatableReason(); reason != "" {
		o.reporter.Error(ctx, reason, true)
		return false, false
	}

	suffix, _ := o.variant.FileSuffix()
	newLabel := fmt.Sprintf("%s@%s", o.resolver.Target().Channel, resolution.Version)

	o.reporter.Info(ctx, fmt.Sprintf("Updating to %s ...", newLabel))

	transaction := NewTransaction(TransactionParams{
		Fetcher:     o.fetcher,
		Reporter:    o.reporter,
		Variant:     o.variant,
		CurrentPath: o.exePath,
		Info:        resolution.Info,
		ReleaseName: binaryBaseName + suffix,
		ReleaseURL:  o.releasePageURL(resolution.Tag),
	})

	if report := transaction.Run(ctx); report != nil {
		// Rollback failures leave the installation inconsistent and are
		// escalated; everything else is an expected, reported failure.
		o.reporter.Error(ctx, report.Message, report.Kind != KindRollback)
		logger.InfoKV(ctx, "Update transaction finished",
			"state", transaction.State().String(), "kind", report.Kind.String())

		return false, false
	}

	o.reporter.Info(ctx, fmt.Sprintf("Updated clipfeed to %s", newLabel))

	return true, true
}

// updatableReason returns why self-update is unavailable, or "".
// Build-time and configured hints override the per-variant mapping.
func (o *Orchestrator) updatableReason() string {
	if o.cfg.UpdateHint != "" {
		return o.cfg.UpdateHint
	}

	if version.UpdateHint != "" {
		return version.UpdateHint
	}

	return o.variant.NonUpdatableReason()
}

// releasePageURL is the human-facing page offered in remediation advice.
func (o *Orchestrator) releasePageURL(tag string) string {
	page := release.LatestTag
	if tag != release.LatestTag {
		page = "tag/" + tag
	}

	return fmt.Sprintf("https://github.com/%s/releases/%s", o.resolver.Repo(), page)
}

// Restart relaunches the captured original command line and returns its
// exit code once it finishes.
func Restart(ctx context.Context) (int, error) {
	logger.DebugKV(ctx, "Restarting", "args", os.Args)

	cmd := exec.CommandContext(ctx, os.Args[0], os.Args[1:]...) //nolint:gosec // Relaunching our own command line.
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return exitErr.ExitCode(), nil
		}

		return FailureExitCode, err
	}

	return 0, nil
}

// fileSHA256 streams a file through SHA-256 and returns the hex digest.
func fileSHA256(path string) (string, error) {
	f, err := os.Open(path) //nolint:gosec // Hashing our own executable.
	if err != nil {
		return "", err
	}

	defer func() {
		_ = f.Close()
	}()

	hasher := sha256.New()
	if _, err := io.Copy(hasher, f); err != nil {
		return "", err
	}

	return hex.EncodeToString(hasher.Sum(nil)), nil
}
