// Package process provides child-process lifecycle plumbing for the emulator:
// BaseProcess for spawn and graceful-then-forced stop, the Stoppable
// interface, StopAndNil for cleanup on failure paths, and WaitReady for
// polling-based readiness checks.
package process
