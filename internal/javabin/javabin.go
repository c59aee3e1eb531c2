package javabin

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"path/filepath"

	"github.com/giantswarm/dynamodblocal/internal/sentinel"
)

// ErrRuntimeNotFound is returned by Discover when neither the configured
// override nor the PATH lookup yields a runnable Java binary.
const ErrRuntimeNotFound = sentinel.Error("no usable java runtime found")

// DefaultBinary is the binary name probed on PATH when no override resolves.
const DefaultBinary = "java"

// Config holds the configuration for runtime discovery.
type Config struct {
	// Home is an optional runtime root (JAVA_HOME). When set, the binary at
	// <Home>/bin/<Binary> is probed first.
	Home string

	// Binary is the executable name, defaulting to "java". Overridable so
	// tests can point discovery at a stub.
	Binary string

	// Logger (optional, defaults to slog.Default())
	Logger *slog.Logger
}

// Discover locates a Java binary by running it with -version.
//
// If cfg.Home is set, <Home>/bin/<Binary> is tried first; a failed probe is
// logged and discovery falls through to the PATH lookup rather than failing.
// If the PATH probe also fails, ErrRuntimeNotFound is returned. This is
// fatal to the caller and never retried.
func Discover(ctx context.Context, cfg Config) (string, error) {
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	binary := cfg.Binary
	if binary == "" {
		binary = DefaultBinary
	}

	if cfg.Home != "" {
		candidate := filepath.Join(cfg.Home, "bin", binary)
		if err := probe(ctx, candidate); err != nil {
			log.Warn("runtime home is set but its java binary failed to run; falling back to PATH",
				"home", cfg.Home, "binary", candidate, "error", err)
		} else {
			log.Info("using java runtime from configured home", "binary", candidate)
			return candidate, nil
		}
	}

	if err := probe(ctx, binary); err != nil {
		return "", fmt.Errorf("probe %s on PATH: %w: %w", binary, err, ErrRuntimeNotFound)
	}
	log.Info("using java runtime from PATH", "binary", binary)
	return binary, nil
}

// probe runs the candidate binary with -version and reports whether it
// executed successfully. Output is discarded; only the exit status matters.
func probe(ctx context.Context, bin string) error {
	cmd := exec.CommandContext(ctx, bin, "-version")
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("run %s -version: %w", bin, err)
	}
	return nil
}
