package emulator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/exec"
	"strconv"
	"time"

	"github.com/giantswarm/dynamodblocal/internal/process"
	"github.com/giantswarm/dynamodblocal/internal/sentinel"
)

// jarName is the entry point inside the unpacked distributable.
const jarName = "DynamoDBLocal.jar"

// libraryPathFlag points the JVM at the native sqlite library shipped in the
// distributable, relative to the installation directory (which is also the
// child's working directory).
const libraryPathFlag = "-Djava.library.path=DynamoDBLocal_lib"

// readinessPollInterval is the interval between consecutive HTTP probes when
// waiting for the emulator to become reachable. A small fixed sleep keeps
// the CPU quiet without changing the overall timeout contract.
const readinessPollInterval = 50 * time.Millisecond

// probeTimeout is the per-attempt timeout for the readiness HTTP GET.
// Generous for a loopback connection; early attempts fail immediately with
// connection refused while the JVM is still starting.
const probeTimeout = time.Second

// ErrEarlyExit is returned when the emulator process terminates right after
// spawn, before becoming reachable (e.g., an unrecognized flag or a port
// stolen between the pre-check and the child's own bind).
const ErrEarlyExit = sentinel.Error("emulator process exited immediately")

// ErrNeverReachable is returned when the emulator stays up but its endpoint
// does not answer within the readiness timeout.
const ErrNeverReachable = sentinel.Error("emulator never became reachable")

// Compile-time interface satisfaction check.
var _ process.Stoppable = (*Process)(nil)

// Config holds the configuration for a DynamoDB Local process.
type Config struct {
	JavaBin    string   // Path to the java binary (from javabin.Discover)
	InstallDir string   // Unpacked distributable; also the child's working directory
	Port       int      // Listen port
	InMemory   bool     // Pass -inMemory
	DBPath     string   // Pass -dbPath <path> when non-empty
	SharedDB   bool     // Pass -sharedDb
	ExtraArgs  []string // Opaque trailing flags, forwarded as-is
	Debug      bool     // Inherit child stdout/stderr instead of discarding

	// Logger (optional, defaults to slog.Default())
	Logger *slog.Logger
}

// validate checks that all required Config fields are set and returns an
// error describing the first missing or invalid field.
func (c Config) validate() error {
	if c.JavaBin == "" {
		return errors.New("java binary path must not be empty")
	}
	if c.InstallDir == "" {
		return errors.New("install dir must not be empty")
	}
	if c.Port <= 0 {
		return errors.New("port must be positive")
	}
	if c.InMemory && c.DBPath != "" {
		return errors.New("in-memory and db path are mutually exclusive")
	}
	return nil
}

// Process manages one DynamoDB Local child process.
type Process struct {
	config Config
	base   process.BaseProcess
}

// New creates a new emulator Process with the given configuration.
// New performs no I/O; spawning is deferred to Start.
func New(cfg Config) (*Process, error) {
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid emulator config: %w", err)
	}
	return &Process{
		config: cfg,
		base:   process.NewBaseProcess("dynamodb-local", cfg.Logger),
	}, nil
}

// buildArgs constructs the child argument vector. The order is fixed:
// library path, jar entry, port, then the conditional storage flags, then
// the caller's pass-through arguments last. Tests assert on this ordering.
func (p *Process) buildArgs() []string {
	args := []string{
		libraryPathFlag,
		"-jar", jarName,
		"-port", strconv.Itoa(p.config.Port),
	}
	if p.config.InMemory {
		args = append(args, "-inMemory")
	}
	if p.config.DBPath != "" {
		args = append(args, "-dbPath", p.config.DBPath)
	}
	if p.config.SharedDB {
		args = append(args, "-sharedDb")
	}
	return append(args, p.config.ExtraArgs...)
}

// Start launches the emulator with its working directory set to the
// installation directory. If the child is already gone by the time Start
// returns from the spawn, ErrEarlyExit is raised synchronously instead of
// leaving the failure to the readiness poll.
func (p *Process) Start(ctx context.Context) error {
	if p.base.IsStarted() {
		return process.ErrAlreadyStarted
	}

	cmd := exec.CommandContext(ctx, p.config.JavaBin, p.buildArgs()...)
	if err := p.base.SetupAndStart(cmd, p.config.InstallDir, p.config.Debug); err != nil {
		return fmt.Errorf("setup and start emulator process: %w", err)
	}
	if p.base.HasExited() {
		_ = p.base.Stop(0)
		return fmt.Errorf("emulator exited during spawn: %w", ErrEarlyExit)
	}
	return nil
}

// WaitReady polls the emulator endpoint with plain HTTP GETs until any
// response arrives (status codes are irrelevant, reachability is the only
// signal) or the timeout elapses. Aborts as soon as the child exits.
func (p *Process) WaitReady(ctx context.Context, timeout time.Duration) error {
	endpoint := p.Endpoint()
	log := p.base.Logger()
	client := &http.Client{Timeout: probeTimeout}

	err := process.WaitReady(ctx, process.WaitReadyConfig{
		Interval:      readinessPollInterval,
		Timeout:       timeout,
		Name:          "dynamodb-local",
		Endpoint:      endpoint,
		Logger:        log,
		ProcessExited: p.base.Exited(),
	}, func(checkCtx context.Context, attempt int) (bool, error) {
		req, reqErr := http.NewRequestWithContext(checkCtx, http.MethodGet, endpoint, nil)
		if reqErr != nil {
			return false, fmt.Errorf("build readiness request: %w", reqErr)
		}
		resp, getErr := client.Do(req)
		if getErr != nil {
			log.Debug("emulator not reachable yet", "endpoint", endpoint, "attempt", attempt, "error", getErr)
			return false, nil
		}
		_ = resp.Body.Close()
		return true, nil
	})
	if err == nil {
		return nil
	}
	if errors.Is(err, process.ErrProcessExited) {
		return fmt.Errorf("emulator not ready: %w: %w", err, ErrEarlyExit)
	}
	return fmt.Errorf("emulator not ready: %w: %w", err, ErrNeverReachable)
}

// Endpoint returns the HTTP endpoint the emulator listens on.
func (p *Process) Endpoint() string {
	return Endpoint(p.config.Port)
}

// Endpoint derives the emulator endpoint for a port.
func Endpoint(port int) string {
	return fmt.Sprintf("http://localhost:%d", port)
}

// IsStarted reports whether the child has been spawned and not yet stopped.
func (p *Process) IsStarted() bool {
	return p.base.IsStarted()
}

// Stop terminates the emulator: SIGTERM, then SIGKILL after the grace
// period. Kill escalation counts as a successful stop.
func (p *Process) Stop(grace time.Duration) error {
	return p.base.Stop(grace)
}
