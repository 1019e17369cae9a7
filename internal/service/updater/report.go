package updater

import (
	"context"

	"github.com/clipfeed/clipfeed/internal/logger"
)

// FailureExitCode is the exit code the host process must use whenever an
// error has been reported. Success paths leave the exit code untouched.
const FailureExitCode = 100

// ErrorKind classifies every expected failure of the update pipeline.
type ErrorKind int

const (
	// KindNone marks a successful outcome.
	KindNone ErrorKind = iota
	// KindConfig covers unresolvable channels and other local misconfiguration.
	KindConfig
	// KindNetwork covers transport failures and checksum mismatches.
	KindNetwork
	// KindPermission covers unwritable paths and failed file operations.
	KindPermission
	// KindVersion covers incomparable or unparseable version strings.
	KindVersion
	// KindNonUpdatable covers packaging variants that cannot self-update.
	KindNonUpdatable
	// KindRollback marks a failed restore after a failed swap; the
	// installation may be left inconsistent, so it is escalated.
	KindRollback
)

// String names the error kind for logs.
func (k ErrorKind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindConfig:
		return "config"
	case KindNetwork:
		return "network"
	case KindPermission:
		return "permission"
	case KindVersion:
		return "version"
	case KindNonUpdatable:
		return "non-updatable"
	case KindRollback:
		return "rollback"
	default:
		return "unknown"
	}
}

// Report is the outcome of a failed update step: a taxonomy kind plus the
// user-facing message, already including any remediation advice.
type Report struct {
	// Kind classifies the failure.
	Kind ErrorKind
	// Message is the user-facing description.
	Message string
}

// Reporter is the console/reporting sink all user-facing status goes
// through. Error additionally marks the run as failed so the host sets
// FailureExitCode.
type Reporter interface {
	Info(ctx context.Context, message string)
	Warn(ctx context.Context, message string)
	Error(ctx context.Context, message string, expected bool)
}

// LogReporter reports through the structured logger and remembers whether
// any error was reported.
type LogReporter struct {
	failed bool
}

// NewLogReporter creates a reporter backed by the context logger.
func NewLogReporter() *LogReporter {
	return &LogReporter{}
}

// Info writes an informational status line.
func (r *LogReporter) Info(ctx context.Context, message string) {
	logger.Info(ctx, message)
}

// Warn writes a warning status line.
func (r *LogReporter) Warn(ctx context.Context, message string) {
	logger.Warn(ctx, message)
}

// Error writes an error status line and marks the run as failed.
// Unexpected errors are logged with their origin for diagnostics.
func (r *LogReporter) Error(ctx context.Context, message string, expected bool) {
	r.failed = true

	if expected {
		logger.Error(ctx, message)
		return
	}

	logger.ErrorKV(ctx, message, "expected", false)
}

// Failed reports whether any error has been reported during the run.
func (r *LogReporter) Failed() bool {
	return r.failed
}
