package updater

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/clipfeed/clipfeed/internal/domain/release"
	"github.com/clipfeed/clipfeed/internal/logger"
)

// defaultFileMode is applied to freshly written executables.
const defaultFileMode os.FileMode = 0o755

// TransactionState tracks the update transaction through its lifecycle.
type TransactionState int

const (
	// StateIdle is the initial state before any work.
	StateIdle TransactionState = iota
	// StateCheckingVersion covers target resolution.
	StateCheckingVersion
	// StateUpToDate is terminal: no update was needed.
	StateUpToDate
	// StateDownloading covers the release asset download.
	StateDownloading
	// StateVerifying covers checksum verification.
	StateVerifying
	// StateVerifyFailed is terminal: the downloaded bytes did not match the manifest.
	StateVerifyFailed
	// StateReplacing covers the rename dance on the executable.
	StateReplacing
	// StateReplaced is terminal: the new executable is in place.
	StateReplaced
	// StateRolledBack is terminal: the swap failed and the original was restored.
	StateRolledBack
	// StateFailed is terminal: the transaction aborted before or during the swap.
	StateFailed
)

// String names the state for logs.
func (s TransactionState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateCheckingVersion:
		return "checking-version"
	case StateUpToDate:
		return "up-to-date"
	case StateDownloading:
		return "downloading"
	case StateVerifying:
		return "verifying"
	case StateVerifyFailed:
		return "verify-failed"
	case StateReplacing:
		return "replacing"
	case StateReplaced:
		return "replaced"
	case StateRolledBack:
		return "rolled-back"
	default:
		return "failed"
	}
}

// fileOps are the filesystem primitives the transaction performs.
// They are injectable so failure paths can be exercised in tests.
type fileOps struct {
	stat      func(string) (os.FileInfo, error)
	remove    func(string) error
	rename    func(string, string) error
	writeFile func(string, []byte, os.FileMode) error
	chmod     func(string, os.FileMode) error
}

// defaultFileOps performs real filesystem operations.
func defaultFileOps() fileOps {
	return fileOps{
		stat:      os.Stat,
		remove:    os.Remove,
		rename:    os.Rename,
		writeFile: os.WriteFile,
		chmod:     os.Chmod,
	}
}

// TransactionParams are the inputs of one update transaction.
type TransactionParams struct {
	// Fetcher retrieves the release asset and checksum manifest.
	Fetcher *Fetcher
	// Reporter receives non-fatal warnings and errors.
	Reporter Reporter
	// Variant is the packaging variant being replaced.
	Variant Variant
	// CurrentPath is the executable to replace.
	CurrentPath string
	// Info is the metadata snapshot of the resolved release.
	Info *release.Info
	// ReleaseName is the asset filename of this build's variant.
	ReleaseName string
	// ReleaseURL is the human-facing release page used in remediation advice.
	ReleaseURL string
}

// Transaction downloads, verifies, and installs one release over the
// current executable. It exclusively owns the current, new, and backup
// paths for its duration and is the sole writer to the executable's
// location. Once the first rename has happened the transaction runs to a
// terminal state; only earlier steps honor the context.
type Transaction struct {
	params TransactionParams

	// newPath and backupPath are derived from CurrentPath; backupPath is
	// empty for in-place variants.
	newPath    string
	backupPath string

	state TransactionState
	ops   fileOps

	// scheduleCleanup registers a post-exit task for platforms where a
	// running executable cannot delete its own backup.
	scheduleCleanup func(task func())
}

// NewTransaction prepares a transaction; nothing is touched until Run.
func NewTransaction(params TransactionParams) *Transaction {
	return &Transaction{
		params:          params,
		state:           StateIdle,
		ops:             defaultFileOps(),
		scheduleCleanup: RegisterPostExitCleanup,
	}
}

// State returns the transaction's current lifecycle state.
func (t *Transaction) State() TransactionState {
	return t.state
}

// Run executes the transaction and returns nil on success or the report of
// the step that failed. Each step's failure aborts the remaining steps;
// completed steps are not undone except for the documented rollback of the
// final swap.
func (t *Transaction) Run(ctx context.Context) *Report {
	if report := t.checkPreconditions(); report != nil {
		t.state = StateFailed
		return report
	}

	t.derivePaths()

	if report := t.removeStaleBackup(); report != nil {
		t.state = StateFailed
		return report
	}

	data, report := t.download(ctx)
	if report != nil {
		t.state = StateFailed
		return report
	}

	t.debugState(ctx)

	if report := t.verify(ctx, data); report != nil {
		return report
	}

	t.debugState(ctx)

	if err := t.ops.writeFile(t.newPath, data, defaultFileMode); err != nil {
		t.state = StateFailed
		return t.permissionReport(t.newPath)
	}

	return t.swap(ctx)
}

// checkPreconditions rejects non-updatable variants and unwritable paths
// before anything is modified.
func (t *Transaction) checkPreconditions() *Report {
	if reason := t.params.Variant.NonUpdatableReason(); reason != "" {
		return &Report{Kind: KindNonUpdatable, Message: reason}
	}

	if !writableFile(t.params.CurrentPath) {
		return t.permissionReport(t.params.CurrentPath)
	}

	if dir := filepath.Dir(t.params.CurrentPath); !writableDir(dir) {
		return t.permissionReport(dir)
	}

	return nil
}

// derivePaths computes the working paths. In-place variants write straight
// over the current file and use no backup.
func (t *Transaction) derivePaths() {
	t.newPath = t.params.CurrentPath + ".new"
	t.backupPath = t.params.CurrentPath + ".old"

	if t.params.Variant.InPlace() {
		t.newPath = t.params.CurrentPath
		t.backupPath = ""
	}
}

// removeStaleBackup clears a leftover backup file. Failure aborts the whole
// operation: with a stale backup in the way rollback safety cannot be
// guaranteed.
func (t *Transaction) removeStaleBackup() *Report {
	if t.backupPath == "" {
		return nil
	}

	if _, err := t.ops.stat(t.backupPath); err != nil {
		return nil
	}

	if err := t.ops.remove(t.backupPath); err != nil {
		return &Report{
			Kind:    KindPermission,
			Message: fmt.Sprintf("Unable to remove the stale backup at %s; %s", t.backupPath, chmodAdvice(t.backupPath)),
		}
	}

	return nil
}

// download fetches the release asset bytes for the resolved release.
func (t *Transaction) download(ctx context.Context) ([]byte, *Report) {
	t.state = StateDownloading

	data, err := t.params.Fetcher.Asset(ctx, t.params.Info, t.params.ReleaseName)
	if err != nil {
		return nil, t.networkReport(fmt.Sprintf("download %s", t.params.ReleaseName))
	}

	return data, nil
}

// verify checks the downloaded bytes against the published checksum
// manifest. Verification is best-effort: a missing manifest or entry only
// warns, but a present-and-mismatched digest aborts the transaction.
func (t *Transaction) verify(ctx context.Context, data []byte) *Report {
	t.state = StateVerifying

	checksums, err := t.params.Fetcher.Checksums(ctx, t.params.Info)
	if err != nil {
		t.params.Reporter.Warn(ctx, "No checksum information found for the release; skipping verification")
		return nil
	}

	expected, ok := checksums[t.params.ReleaseName]
	if !ok {
		t.params.Reporter.Warn(ctx,
			fmt.Sprintf("No checksum published for %s; skipping verification", t.params.ReleaseName))
		return nil
	}

	digest := sha256.Sum256(data)
	if hex.EncodeToString(digest[:]) != expected {
		t.state = StateVerifyFailed
		return t.networkReport("verify the new executable")
	}

	return nil
}

// swap moves the new executable into place, rolling back on a failed
// second rename, then cleans up the backup.
func (t *Transaction) swap(ctx context.Context) *Report {
	if t.backupPath == "" {
		// In-place variants were fully installed by the write.
		t.state = StateReplaced
		return nil
	}

	t.state = StateReplacing

	mode := defaultFileMode
	if info, err := t.ops.stat(t.params.CurrentPath); err == nil {
		mode = info.Mode()
	}

	if err := t.ops.rename(t.params.CurrentPath, t.backupPath); err != nil {
		t.state = StateFailed
		return &Report{
			Kind:    KindPermission,
			Message: fmt.Sprintf("Unable to move the current version aside; %s", chmodAdvice(t.params.CurrentPath)),
		}
	}

	if err := t.ops.rename(t.newPath, t.params.CurrentPath); err != nil {
		if rollbackErr := t.ops.rename(t.backupPath, t.params.CurrentPath); rollbackErr != nil {
			t.state = StateFailed
			return &Report{
				Kind: KindRollback,
				Message: fmt.Sprintf(
					"Unable to overwrite the current version and restoring the backup failed; "+
						"the executable at %s may be missing or incomplete, restore it from %s manually",
					t.params.CurrentPath, t.backupPath),
			}
		}

		// The file system is back in its original state, but the
		// operation still failed.
		t.state = StateRolledBack

		return &Report{
			Kind:    KindPermission,
			Message: fmt.Sprintf("Unable to overwrite the current version; %s", chmodAdvice(t.params.CurrentPath)),
		}
	}

	t.state = StateReplaced
	t.finishCleanup(ctx, mode)

	return nil
}

// finishCleanup disposes of the backup. Windows builds cannot delete the
// file backing a running process, so removal is deferred past process
// exit; elsewhere the backup is removed immediately and the original
// permission bits are restored. Failures here are non-fatal.
func (t *Transaction) finishCleanup(ctx context.Context, mode os.FileMode) {
	if t.deferBackupRemoval() {
		t.scheduleCleanup(deferredRemoval(t.backupPath))
		return
	}

	if err := t.ops.remove(t.backupPath); err != nil {
		t.params.Reporter.Error(ctx,
			fmt.Sprintf("Unable to remove the old version at %s", t.backupPath), true)
	}

	if err := t.ops.chmod(t.params.CurrentPath, mode); err != nil {
		t.params.Reporter.Error(ctx,
			fmt.Sprintf("Unable to set permissions. Run: sudo chmod a+rx %q", t.params.CurrentPath), true)
	}
}

// deferBackupRemoval reports whether backup deletion must wait for process exit.
func (t *Transaction) deferBackupRemoval() bool {
	switch t.params.Variant {
	case VariantWinExe, VariantWinX86Exe:
		return true
	default:
		return runtime.GOOS == "windows"
	}
}

// networkReport builds a transport-failure report with the release page as
// remediation.
func (t *Transaction) networkReport(action string) *Report {
	return &Report{
		Kind:    KindNetwork,
		Message: fmt.Sprintf("Unable to %s; visit %s", action, t.params.ReleaseURL),
	}
}

// permissionReport builds an unwritable-path report with remediation advice.
func (t *Transaction) permissionReport(path string) *Report {
	return &Report{
		Kind:    KindPermission,
		Message: fmt.Sprintf("Unable to write to %s; %s", path, chmodAdvice(path)),
	}
}

// chmodAdvice names the command that usually fixes a permission failure.
func chmodAdvice(path string) string {
	if runtime.GOOS == "windows" {
		return "try running as administrator"
	}

	return fmt.Sprintf("run: sudo chmod u+w %q", path)
}

// writableFile reports whether the file can be opened for writing.
func writableFile(path string) bool {
	f, err := os.OpenFile(path, os.O_WRONLY, 0)
	if err != nil {
		return false
	}

	_ = f.Close()

	return true
}

// writableDir probes the directory with a throwaway file.
func writableDir(dir string) bool {
	f, err := os.CreateTemp(dir, ".clipfeed-write-check-*")
	if err != nil {
		return false
	}

	name := f.Name()
	_ = f.Close()
	_ = os.Remove(name)

	return true
}

// debugState logs a state transition at debug level.
func (t *Transaction) debugState(ctx context.Context) {
	logger.DebugKV(ctx, "Transaction state", "state", t.state.String())
}
