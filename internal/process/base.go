package process

import (
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"time"

	"github.com/giantswarm/dynamodblocal/internal/sentinel"
)

// ErrAlreadyStarted is returned when Start is called on a process that is
// already running. Callers must Stop the process before starting it again.
const ErrAlreadyStarted = sentinel.Error("process already started")

// ErrNilCmd is returned when SetupAndStart is called with a nil *exec.Cmd.
const ErrNilCmd = sentinel.Error("cmd must not be nil")

// ErrEmptyCmdPath is returned when SetupAndStart is called with an empty cmd.Path.
const ErrEmptyCmdPath = sentinel.Error("cmd.Path must not be empty")

// ErrEmptyWorkDir is returned when SetupAndStart is called with an empty
// working directory.
const ErrEmptyWorkDir = sentinel.Error("working directory must not be empty")

// BaseProcess provides common child-process lifecycle management. Embed it
// in package-specific Process types to reuse the stop and exit-detection
// machinery.
//
// BaseProcess is not safe for concurrent use. Callers must serialize access
// to all methods. In practice the Instance that owns the embedding type is
// itself serialized by a mutex.
type BaseProcess struct {
	cmd      *exec.Cmd
	waitDone <-chan error    // receives cmd.Wait result; started once in SetupAndStart
	exited   <-chan struct{} // closed when the process exits; readable by multiple goroutines
	name     string          // process name for logging (e.g., "dynamodb-local")
	log      *slog.Logger
}

// NewBaseProcess creates a BaseProcess with the given name and logger.
// If logger is nil, slog.Default() is used. Panics if name is empty, since
// an empty name produces confusing error messages throughout the process
// lifecycle.
func NewBaseProcess(name string, logger *slog.Logger) BaseProcess {
	if name == "" {
		panic("dynamodblocal: process name must not be empty")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return BaseProcess{name: name, log: logger}
}

// SetupAndStart configures the command's working directory and output streams
// and starts it. The cmd must already have its Path and Args set.
//
// When debug is true, the child inherits the parent's stdout and stderr.
// When false, the child's output is discarded (exec's default null device).
//
// A single goroutine calling cmd.Wait is started here so that exactly one
// Wait call is made per process. The resulting channel is consumed by Stop;
// the companion exited channel is a broadcast signal for readiness loops.
//
// Returns ErrAlreadyStarted if the process is already running.
func (b *BaseProcess) SetupAndStart(cmd *exec.Cmd, workDir string, debug bool) error {
	if cmd == nil {
		return ErrNilCmd
	}
	if cmd.Path == "" {
		return ErrEmptyCmdPath
	}
	if workDir == "" {
		return ErrEmptyWorkDir
	}
	if b.cmd != nil {
		return ErrAlreadyStarted
	}

	cmd.Dir = workDir
	if debug {
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
	}
	configureSysProcAttr(cmd)

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start %s process: %w", b.name, err)
	}
	b.cmd = cmd

	// cmd.Wait must be called exactly once per started process; starting the
	// goroutine here guarantees the invariant and provides a done channel
	// for Stop. The exited channel is closed after Wait returns so any
	// number of goroutines can observe the exit.
	done := make(chan error, 1)
	exited := make(chan struct{})
	go func() {
		done <- cmd.Wait()
		close(exited)
	}()
	b.waitDone = done
	b.exited = exited

	return nil
}

// Exited returns a channel that is closed when the process exits. Safe to
// select on from multiple goroutines. Returns nil if the process has not
// been started or has already been stopped.
func (b *BaseProcess) Exited() <-chan struct{} {
	return b.exited
}

// HasExited reports whether a started process has already terminated.
// Returns false if the process was never started.
func (b *BaseProcess) HasExited() bool {
	if b.exited == nil {
		return false
	}
	select {
	case <-b.exited:
		return true
	default:
		return false
	}
}

// IsStarted reports whether the process has been started and not yet stopped.
func (b *BaseProcess) IsStarted() bool {
	return b.cmd != nil
}

// Logger returns the logger used by this process.
func (b *BaseProcess) Logger() *slog.Logger {
	return b.log
}

// Stop terminates the process: SIGTERM, then SIGKILL if it has not exited
// within grace. Escalation to SIGKILL is part of normal shutdown and is not
// reported as an error.
//
// After Stop returns, IsStarted reports false. Safe to call when cmd is nil
// or cmd.Process is nil (Start never called, or Stop already ran); returns
// nil immediately in those cases.
func (b *BaseProcess) Stop(grace time.Duration) error {
	if b.cmd == nil || b.cmd.Process == nil {
		b.cmd = nil
		b.waitDone = nil
		b.exited = nil
		return nil
	}
	pid := b.cmd.Process.Pid
	err := stopWithDone(b.cmd, b.waitDone, grace, b.name, b.log)
	if err != nil {
		b.log.Warn("process stop failed; process may be orphaned",
			"process", b.name, "pid", pid, "error", err)
	}
	b.cmd = nil
	b.waitDone = nil
	b.exited = nil
	return err
}
