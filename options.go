package dynamodblocal

import (
	"fmt"
	"time"
)

// requirePositive panics if v <= 0 with a descriptive message.
func requirePositive[T int | time.Duration](name string, v T) {
	if v <= 0 {
		panic(fmt.Sprintf("dynamodblocal: %s must be greater than 0, got %v", name, v))
	}
}

// requireNonEmpty panics if s is empty with a descriptive message.
func requireNonEmpty(name, s string) {
	if s == "" {
		panic(fmt.Sprintf("dynamodblocal: %s must not be empty", name))
	}
}

// Option configures an Instance during construction via New.
// Each With* function returns an Option that sets a specific field.
//
// Several With* functions panic on invalid input (empty paths, non-positive
// ports or durations). These panics are intentional: option values are
// typically compile-time constants, so an invalid value indicates a
// programmer error rather than a runtime condition, in the manner of
// [regexp.MustCompile]. Conflicts between otherwise-valid options (in-memory
// versus an on-disk path) are runtime input and reported as an error by New.
type Option func(*config)

// config holds the full construction-time configuration of an Instance.
// Immutable after New returns.
type config struct {
	sourceURL  string
	installDir string
	port       int
	debug      bool
	inMemory   bool
	dbPath     string
	sharedDB   bool
	extraArgs  []string

	// javaHome is the runtime root override. Captured from the JAVA_HOME
	// environment variable once at construction so the instance carries no
	// hidden global state; WithJavaHome replaces it.
	javaHome   string
	javaBinary string

	readyTimeout time.Duration
	stopGrace    time.Duration
}

// WithSourceURL sets where the distributable archive is downloaded from.
// Panics if url is empty.
func WithSourceURL(url string) Option {
	requireNonEmpty("source URL", url)
	return func(c *config) {
		c.sourceURL = url
	}
}

// WithInstallDir sets the directory holding the unpacked distributable.
// The directory must be absent (it will be created and populated) or already
// contain a previous install; its presence alone marks it installed.
// Panics if dir is empty.
func WithInstallDir(dir string) Option {
	requireNonEmpty("install directory", dir)
	return func(c *config) {
		c.installDir = dir
	}
}

// WithPort sets the port the emulator listens on. Panics if port <= 0.
func WithPort(port int) Option {
	requirePositive("port", port)
	return func(c *config) {
		c.port = port
	}
}

// WithInMemory makes the emulator keep all data in memory; contents are lost
// on shutdown. Mutually exclusive with WithDBPath, enforced by New.
func WithInMemory() Option {
	return func(c *config) {
		c.inMemory = true
	}
}

// WithDBPath sets the directory where the emulator persists its database.
// The path is made absolute and created during New. Mutually exclusive with
// WithInMemory, enforced by New. Panics if path is empty.
func WithDBPath(path string) Option {
	requireNonEmpty("db path", path)
	return func(c *config) {
		c.dbPath = path
	}
}

// WithSharedDB shares one database file across all credentials and regions
// instead of one file per access key.
func WithSharedDB() Option {
	return func(c *config) {
		c.sharedDB = true
	}
}

// WithDebug makes the emulator inherit this process's stdout and stderr.
// Without it, child output is discarded.
func WithDebug() Option {
	return func(c *config) {
		c.debug = true
	}
}

// WithExtraArgs appends opaque arguments forwarded to the emulator after all
// generated flags. A flag the emulator does not recognize makes it exit
// immediately, which Start reports as ErrEarlyExit.
func WithExtraArgs(args ...string) Option {
	return func(c *config) {
		c.extraArgs = append(c.extraArgs, args...)
	}
}

// WithJavaHome sets the runtime root; the binary at <home>/bin/java is
// probed before falling back to PATH. Overrides the JAVA_HOME environment
// variable captured at construction. Panics if home is empty.
func WithJavaHome(home string) Option {
	requireNonEmpty("java home", home)
	return func(c *config) {
		c.javaHome = home
	}
}

// WithJavaBinary sets the runtime executable name probed during discovery.
// Panics if name is empty.
func WithJavaBinary(name string) Option {
	requireNonEmpty("java binary", name)
	return func(c *config) {
		c.javaBinary = name
	}
}

// WithReadyTimeout sets the maximum time Start waits for the emulator to
// answer its first HTTP request. Panics if d <= 0.
func WithReadyTimeout(d time.Duration) Option {
	requirePositive("ready timeout", d)
	return func(c *config) {
		c.readyTimeout = d
	}
}

// WithStopGracePeriod sets how long Stop waits after SIGTERM before killing
// the emulator. Panics if d <= 0.
func WithStopGracePeriod(d time.Duration) Option {
	requirePositive("stop grace period", d)
	return func(c *config) {
		c.stopGrace = d
	}
}
