package process

import (
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"syscall"
	"time"
)

// killDrainTimeout is the hard upper bound for waiting on the done channel
// after SIGKILL has been sent (or after the process has already exited).
// SIGKILL cannot be caught, so the process should exit almost immediately.
// This timeout is a safety net against indefinite blocking if cmd.Wait
// never returns (e.g., due to stuck I/O).
const killDrainTimeout = 10 * time.Second

// drainDone reads from the done channel with the given timeout as a hard
// upper bound. Returns true and the cmd.Wait error if the channel delivered
// in time, or false and a nil error if the timeout elapsed.
func drainDone(done <-chan error, timeout time.Duration) (bool, error) {
	t := time.NewTimer(timeout)
	defer t.Stop()

	select {
	case err := <-done:
		return true, err
	case <-t.C:
		return false, nil
	}
}

// stopWithDone implements the SIGTERM-then-SIGKILL shutdown sequence using a
// pre-existing done channel that already has a goroutine calling cmd.Wait.
// This avoids spawning a second cmd.Wait goroutine, which would be undefined
// behavior. The done channel must receive the result of exactly one cmd.Wait
// call.
//
// Shutdown flow:
//  1. Send SIGTERM for graceful shutdown.
//  2. If the process has not exited after grace, send SIGKILL.
//  3. Drain the wait goroutine with a hard upper bound.
//
// Escalating to SIGKILL is an expected path, not a failure; it is logged and
// the stop is reported as successful once the process is gone.
//
// stopWithDone does not nil cmd or the done channel. The caller clears those
// references after it returns so subsequent calls see the process as stopped.
func stopWithDone(cmd *exec.Cmd, done <-chan error, grace time.Duration, name string, log *slog.Logger) error {
	if cmd == nil || cmd.Process == nil {
		return nil
	}
	if done == nil {
		return fmt.Errorf("%s: done channel must not be nil", name)
	}

	if err := cmd.Process.Signal(syscall.SIGTERM); err != nil {
		// Process already exited; drain the wait goroutine with a hard
		// upper bound to avoid blocking indefinitely.
		ok, waitErr := drainDone(done, killDrainTimeout)
		if !ok {
			return fmt.Errorf("%s: timed out draining process after signal failure", name)
		}
		return expectSignalExit(waitErr, name)
	}

	graceTimer := time.NewTimer(grace)
	defer graceTimer.Stop()

	select {
	case err := <-done:
		log.Debug("process exited gracefully", "process", name)
		return expectSignalExit(err, name)
	case <-graceTimer.C:
		log.Warn("process did not exit within grace period; killing it",
			"process", name, "pid", cmd.Process.Pid, "grace", grace)
		// Kill after the process has already exited is a harmless no-op that
		// returns "os: process already finished", which we discard.
		_ = cmd.Process.Kill()
		ok, waitErr := drainDone(done, killDrainTimeout)
		if !ok {
			return fmt.Errorf("%s: timed out waiting for process to exit after SIGKILL", name)
		}
		return expectSignalExit(waitErr, name)
	}
}

// expectSignalExit interprets an error from cmd.Wait after sending a
// termination signal. Exit errors caused by SIGTERM or SIGKILL are expected
// and treated as successful stops.
func expectSignalExit(err error, name string) error {
	if err == nil {
		return nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if status, ok := exitErr.Sys().(syscall.WaitStatus); ok {
			sig := status.Signal()
			if sig == syscall.SIGTERM || sig == syscall.SIGKILL {
				return nil
			}
		}
		// The process exited on its own before the signal landed; from the
		// caller's perspective the stop still succeeded.
		return nil
	}
	return fmt.Errorf("%s: %w", name, err)
}
