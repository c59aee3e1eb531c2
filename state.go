package dynamodblocal

// State is the lifecycle state of an Instance.
//
// Transitions: NotStarted → Starting → Running → Stopping → Stopped, with
// Failed reachable from Starting when the emulator exits early or never
// becomes reachable. A Failed or Stopped instance may be started again.
type State uint32

const (
	// StateNotStarted is the state of a freshly constructed instance.
	StateNotStarted State = iota

	// StateStarting covers the whole start sequence: port check, runtime
	// discovery, install, spawn, and readiness wait.
	StateStarting

	// StateRunning means the emulator answered the readiness probe and owns
	// a live child process.
	StateRunning

	// StateStopping means Stop is terminating the child.
	StateStopping

	// StateStopped means the child has been terminated and the process
	// handle cleared.
	StateStopped

	// StateFailed means the start sequence failed; no child process remains.
	StateFailed
)

// String returns a human-readable state name for logging.
func (s State) String() string {
	switch s {
	case StateNotStarted:
		return "not-started"
	case StateStarting:
		return "starting"
	case StateRunning:
		return "running"
	case StateStopping:
		return "stopping"
	case StateStopped:
		return "stopped"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}
