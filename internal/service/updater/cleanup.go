package updater

import (
	"fmt"
	"os/exec"
	"sync"
)

// postExitCleanups are tasks the host program runs after the update
// command has finished, just before the process exits. They exist for work
// that cannot happen while the current executable is still running, such
// as deleting its own backup on Windows.
//
//nolint:gochecknoglobals // The registry must outlive every transaction in the run.
var (
	postExitCleanupsMu sync.Mutex
	postExitCleanups   []func()
)

// RegisterPostExitCleanup queues a task for RunPostExitCleanups.
func RegisterPostExitCleanup(task func()) {
	postExitCleanupsMu.Lock()
	defer postExitCleanupsMu.Unlock()

	postExitCleanups = append(postExitCleanups, task)
}

// RunPostExitCleanups executes the queued tasks. The host program calls it
// once after the command has completed; task failures are unreported by
// design since there is nobody left to tell.
func RunPostExitCleanups() {
	postExitCleanupsMu.Lock()
	tasks := postExitCleanups
	postExitCleanups = nil
	postExitCleanupsMu.Unlock()

	for _, task := range tasks {
		task()
	}
}

// deferredRemoval builds a task that deletes the backup through a detached
// shell which waits out the exiting process. Fire-and-forget: a running
// executable cannot remove itself, so the deletion happens after exit and
// any failure goes unnoticed.
func deferredRemoval(path string) func() {
	return func() {
		command := fmt.Sprintf(`ping 127.0.0.1 -n 5 -w 1000 > NUL & del /F "%s"`, path)
		_ = exec.Command("cmd.exe", "/C", command).Start()
	}
}
