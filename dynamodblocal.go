package dynamodblocal

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/giantswarm/dynamodblocal/internal/emulator"
	"github.com/giantswarm/dynamodblocal/internal/installer"
	"github.com/giantswarm/dynamodblocal/internal/javabin"
	"github.com/giantswarm/dynamodblocal/internal/netutil"
	"github.com/giantswarm/dynamodblocal/internal/process"
)

// defaultConfig returns a config populated with all default values.
// The JAVA_HOME environment variable is read exactly once, here, so the
// constructed instance carries no hidden dependency on the process
// environment.
func defaultConfig() config {
	return config{
		sourceURL:    DefaultDownloadURL,
		installDir:   filepath.Join(os.TempDir(), DefaultInstallDirName),
		port:         DefaultPort,
		javaHome:     os.Getenv("JAVA_HOME"),
		javaBinary:   DefaultJavaBinary,
		readyTimeout: DefaultReadyTimeout,
		stopGrace:    DefaultStopGracePeriod,
	}
}

// Instance is one configured, independently start/stoppable DynamoDB Local
// process. The configuration is immutable after New; only the lifecycle
// state and the child process handle change across Start and Stop.
//
// Distinct instances may be started concurrently as long as they use
// distinct ports. Instances sharing an installation directory coordinate the
// install itself through a file lock, but no port coordination happens
// in-process: the only guard is the OS-level bind probe immediately before
// spawn.
type Instance struct {
	cfg      config
	endpoint string

	// state is the lifecycle state, readable lock-free via State().
	state atomic.Uint32

	// mu serializes Start and Stop. proc and procCancel are only accessed
	// under mu.
	mu   sync.Mutex
	proc *emulator.Process

	// procCancel releases the process context created in doStart.
	procCancel context.CancelFunc
}

// New creates an Instance from the given options without performing any I/O;
// downloading, runtime discovery, and spawning happen in Start.
//
// Returns ErrConflictingStorage when WithInMemory and WithDBPath are both
// set, regardless of other options. An on-disk path is made absolute and
// created here so relative paths are immune to later working-directory
// changes (the child runs in the installation directory).
func New(opts ...Option) (*Instance, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	if cfg.inMemory && cfg.dbPath != "" {
		return nil, ErrConflictingStorage
	}
	if cfg.dbPath != "" {
		abs, err := filepath.Abs(cfg.dbPath)
		if err != nil {
			return nil, fmt.Errorf("resolve db path: %w", err)
		}
		cfg.dbPath = abs
		if err := os.MkdirAll(abs, 0o755); err != nil {
			return nil, fmt.Errorf("create db path: %w", err)
		}
	}

	return &Instance{
		cfg:      cfg,
		endpoint: emulator.Endpoint(cfg.port),
	}, nil
}

// NewInMemory creates a throwaway in-memory instance on a fresh ephemeral
// port. Finding a free port is best-effort: another process could claim it
// before Start binds, which is acceptable for disposable test instances.
// Additional options are applied after the port and storage mode.
func NewInMemory(opts ...Option) (*Instance, error) {
	port, err := netutil.FreePort()
	if err != nil {
		return nil, fmt.Errorf("allocate ephemeral port: %w", err)
	}
	return New(append([]Option{WithPort(port), WithInMemory()}, opts...)...)
}

// Endpoint returns the HTTP endpoint of the emulator, derived from the port
// at construction. Valid to call in any state; the service only answers
// while the instance is running.
func (i *Instance) Endpoint() string {
	return i.endpoint
}

// Port returns the configured port.
func (i *Instance) Port() int {
	return i.cfg.port
}

// InstallDir returns the installation directory holding the distributable.
func (i *Instance) InstallDir() string {
	return i.cfg.installDir
}

// DBPath returns the absolute on-disk database directory, or the empty
// string for in-memory and default-path storage modes.
func (i *Instance) DBPath() string {
	return i.cfg.dbPath
}

// State returns the current lifecycle state. Safe to call concurrently with
// Start and Stop, though the state may be stale by the time it is observed.
func (i *Instance) State() State {
	return State(i.state.Load())
}

func (i *Instance) setState(s State) {
	i.state.Store(uint32(s))
}

// Start brings the emulator up: port pre-check, then runtime discovery and
// install-if-absent (concurrently), then spawn, then a readiness wait. On
// any failure after the child was spawned, the child is torn down before the
// error is returned, so a failed Start never leaks a process.
//
// The distinguishable failures, all matchable with errors.Is, are
// ErrPortUnavailable, ErrTargetNotDir, ErrPathTraversal, ErrRuntimeNotFound,
// ErrEarlyExit, and ErrNeverReachable. None are retried.
func (i *Instance) Start(ctx context.Context) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.proc != nil {
		return ErrAlreadyStarted
	}

	log := Logger()
	i.setState(StateStarting)
	err := i.doStart(ctx, log)
	if err != nil {
		i.setState(StateFailed)
		return err
	}
	i.setState(StateRunning)
	log.Debug("emulator running", "endpoint", i.endpoint, "installDir", i.cfg.installDir,
		"inMemory", i.cfg.inMemory, "dbPath", i.cfg.dbPath, "sharedDB", i.cfg.sharedDB)
	return nil
}

// doStart runs the start sequence under i.mu. On return with an error, no
// child process remains.
func (i *Instance) doStart(ctx context.Context, log *slog.Logger) error {
	// Fail fast on an occupied port before any download or spawn work. The
	// probe is best-effort: the port could be claimed between this check and
	// the child's own bind, in which case the early-exit detection below
	// catches it.
	if err := netutil.CheckPortFree(i.cfg.port); err != nil {
		return err
	}

	// Runtime discovery and installation are independent; run them
	// concurrently and fail on whichever breaks first.
	var javaBin string
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		bin, err := javabin.Discover(gctx, javabin.Config{
			Home:   i.cfg.javaHome,
			Binary: i.cfg.javaBinary,
			Logger: log,
		})
		if err != nil {
			return err
		}
		javaBin = bin
		return nil
	})
	g.Go(func() error {
		return installer.EnsureInstalled(gctx, installer.Config{
			SourceURL: i.cfg.sourceURL,
			TargetDir: i.cfg.installDir,
			Logger:    log,
		})
	})
	if err := g.Wait(); err != nil {
		return err
	}

	proc, err := emulator.New(emulator.Config{
		JavaBin:    javaBin,
		InstallDir: i.cfg.installDir,
		Port:       i.cfg.port,
		InMemory:   i.cfg.inMemory,
		DBPath:     i.cfg.dbPath,
		SharedDB:   i.cfg.sharedDB,
		ExtraArgs:  i.cfg.extraArgs,
		Debug:      i.cfg.debug,
		Logger:     log,
	})
	if err != nil {
		return err
	}
	// The child runs under a context derived from Background so it survives
	// beyond the Start call; the caller's ctx only bounds the start sequence
	// itself. Canceling the start context must not hard-kill a running
	// emulator out from under a later graceful Stop.
	procCtx, procCancel := context.WithCancel(context.Background())
	if err := proc.Start(procCtx); err != nil {
		procCancel()
		return err
	}
	i.proc = proc
	i.procCancel = procCancel

	if err := proc.WaitReady(ctx, i.cfg.readyTimeout); err != nil {
		// Guaranteed release on the failure path: the child was spawned, so
		// it must be stopped before the error propagates.
		if stopErr := process.StopAndNil(&i.proc, i.cfg.stopGrace); stopErr != nil {
			log.Warn("stopping emulator after failed readiness wait", "error", stopErr)
		}
		i.releaseProcContext()
		return err
	}
	return nil
}

// releaseProcContext cancels and clears the process context. Call under mu
// after the child has been stopped.
func (i *Instance) releaseProcContext() {
	if i.procCancel != nil {
		i.procCancel()
		i.procCancel = nil
	}
}

// Stop terminates the emulator gracefully, escalating to a kill after the
// grace period. Escalation is part of normal shutdown and not an error; the
// returned error is reserved for the pathological case where the child
// cannot be reaped at all. Calling Stop with no running process is a no-op.
// Safe to call multiple times and from failure paths.
func (i *Instance) Stop() error {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.proc == nil {
		return nil
	}
	i.setState(StateStopping)
	err := process.StopAndNil(&i.proc, i.cfg.stopGrace)
	i.releaseProcContext()
	i.setState(StateStopped)
	if err != nil {
		return fmt.Errorf("stop emulator: %w", err)
	}
	Logger().Debug("emulator stopped", "endpoint", i.endpoint)
	return nil
}

// Run executes fn with a running instance, guaranteeing the stop sequence on
// every exit path: Start is called first, Stop is deferred before fn runs.
// The error from fn is returned; a Start failure short-circuits fn.
func (i *Instance) Run(ctx context.Context, fn func(inst *Instance) error) error {
	if err := i.Start(ctx); err != nil {
		return err
	}
	defer func() {
		if err := i.Stop(); err != nil {
			Logger().Warn("stopping emulator after Run", "error", err)
		}
	}()
	return fn(i)
}
