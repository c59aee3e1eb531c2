package emulator

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/giantswarm/dynamodblocal/internal/netutil"
)

func TestConfig_Validate(t *testing.T) {
	t.Parallel()

	valid := Config{JavaBin: "java", InstallDir: "/tmp/ddb", Port: 8000}

	tests := map[string]struct {
		mutate  func(c *Config)
		wantErr bool
	}{
		"valid":               {mutate: func(_ *Config) {}, wantErr: false},
		"missing java bin":    {mutate: func(c *Config) { c.JavaBin = "" }, wantErr: true},
		"missing install dir": {mutate: func(c *Config) { c.InstallDir = "" }, wantErr: true},
		"zero port":           {mutate: func(c *Config) { c.Port = 0 }, wantErr: true},
		"negative port":       {mutate: func(c *Config) { c.Port = -1 }, wantErr: true},
		"in-memory with db path": {
			mutate:  func(c *Config) { c.InMemory = true; c.DBPath = "/tmp/data" },
			wantErr: true,
		},
	}

	for name, tc := range tests {
		tc := tc
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			cfg := valid
			tc.mutate(&cfg)
			_, err := New(cfg)
			if (err != nil) != tc.wantErr {
				t.Fatalf("New() error = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}

func TestBuildArgs(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		cfg  Config
		want []string
	}{
		"minimal": {
			cfg:  Config{JavaBin: "java", InstallDir: "/x", Port: 8000},
			want: []string{"-Djava.library.path=DynamoDBLocal_lib", "-jar", "DynamoDBLocal.jar", "-port", "8000"},
		},
		"in-memory shared": {
			cfg: Config{JavaBin: "java", InstallDir: "/x", Port: 8123, InMemory: true, SharedDB: true},
			want: []string{
				"-Djava.library.path=DynamoDBLocal_lib", "-jar", "DynamoDBLocal.jar",
				"-port", "8123", "-inMemory", "-sharedDb",
			},
		},
		"db path": {
			cfg: Config{JavaBin: "java", InstallDir: "/x", Port: 8000, DBPath: "/data/ddb"},
			want: []string{
				"-Djava.library.path=DynamoDBLocal_lib", "-jar", "DynamoDBLocal.jar",
				"-port", "8000", "-dbPath", "/data/ddb",
			},
		},
		"extra args last": {
			cfg: Config{
				JavaBin: "java", InstallDir: "/x", Port: 8000,
				InMemory: true, ExtraArgs: []string{"-delayTransientStatuses", "-optimizeDbBeforeStartup"},
			},
			want: []string{
				"-Djava.library.path=DynamoDBLocal_lib", "-jar", "DynamoDBLocal.jar",
				"-port", "8000", "-inMemory",
				"-delayTransientStatuses", "-optimizeDbBeforeStartup",
			},
		},
	}

	for name, tc := range tests {
		tc := tc
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			p, err := New(tc.cfg)
			if err != nil {
				t.Fatalf("New() error: %v", err)
			}
			if got := p.buildArgs(); !reflect.DeepEqual(got, tc.want) {
				t.Errorf("buildArgs() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestEndpoint(t *testing.T) {
	t.Parallel()

	p, err := New(Config{JavaBin: "java", InstallDir: "/x", Port: 8000})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	if got, want := p.Endpoint(), "http://localhost:8000"; got != want {
		t.Errorf("Endpoint() = %q, want %q", got, want)
	}
}

// stubBinary writes an executable shell script that ignores the emulator
// argument vector, standing in for the JVM.
func stubBinary(t *testing.T, script string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fake-java")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+script+"\n"), 0o755); err != nil {
		t.Fatalf("write stub binary: %v", err)
	}
	return path
}

// The lifecycle tests below stand in a stub binary for the JVM: the process
// machinery only cares about spawn, exit, and signals, not about what the
// child actually executes.

func TestProcess_StartStop(t *testing.T) {
	t.Parallel()

	p, err := New(Config{JavaBin: stubBinary(t, "exec sleep 60"), InstallDir: t.TempDir(), Port: 8000})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	if err := p.Start(context.Background()); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	if !p.IsStarted() {
		t.Fatal("IsStarted() = false after Start")
	}
	if err := p.Stop(5 * time.Second); err != nil {
		t.Fatalf("Stop() error: %v", err)
	}
	if p.IsStarted() {
		t.Error("IsStarted() = true after Stop")
	}
	// Stop with no process handle is a no-op, not an error.
	if err := p.Stop(5 * time.Second); err != nil {
		t.Fatalf("second Stop() = %v, want nil", err)
	}
}

func TestProcess_WaitReady_EarlyExit(t *testing.T) {
	t.Parallel()

	// "false" exits immediately, standing in for a child that rejects an
	// unrecognized flag. The wait must abort promptly, not after the full
	// readiness timeout.
	p, err := New(Config{JavaBin: stubBinary(t, "exit 1"), InstallDir: t.TempDir(), Port: 8000})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	if err := p.Start(context.Background()); err != nil {
		if !errors.Is(err, ErrEarlyExit) {
			t.Fatalf("Start() = %v, want nil or ErrEarlyExit", err)
		}
		return // exit was caught synchronously, nothing left to wait for
	}
	defer func() { _ = p.Stop(time.Second) }()

	start := time.Now()
	waitErr := p.WaitReady(context.Background(), 30*time.Second)
	if !errors.Is(waitErr, ErrEarlyExit) {
		t.Fatalf("WaitReady() = %v, want ErrEarlyExit", waitErr)
	}
	if elapsed := time.Since(start); elapsed > 10*time.Second {
		t.Fatalf("WaitReady took %v, expected prompt abort on exit", elapsed)
	}
}

func TestProcess_WaitReady_Success(t *testing.T) {
	t.Parallel()

	// A long-lived stub process plus a real listener on the probed port:
	// readiness only checks HTTP reachability, so any responder counts.
	port, err := netutil.FreePort()
	if err != nil {
		t.Fatalf("FreePort() error: %v", err)
	}
	l, err := net.Listen("tcp", Endpoint(port)[len("http://"):])
	if err != nil {
		t.Fatalf("listen on probe port: %v", err)
	}
	defer l.Close()
	srv := &http.Server{Handler: http.NotFoundHandler()} //nolint:gosec // G112: short-lived test server.
	go func() { _ = srv.Serve(l) }()
	defer func() { _ = srv.Close() }()

	p, err := New(Config{JavaBin: stubBinary(t, "exec sleep 60"), InstallDir: t.TempDir(), Port: port})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	if err := p.Start(context.Background()); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	defer func() { _ = p.Stop(5 * time.Second) }()

	// A 404 responder still signals reachability.
	if err := p.WaitReady(context.Background(), 10*time.Second); err != nil {
		t.Fatalf("WaitReady() error: %v", err)
	}
}

func TestProcess_WaitReady_Timeout(t *testing.T) {
	t.Parallel()

	port, err := netutil.FreePort()
	if err != nil {
		t.Fatalf("FreePort() error: %v", err)
	}
	p, err := New(Config{JavaBin: stubBinary(t, "exec sleep 60"), InstallDir: t.TempDir(), Port: port})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	if err := p.Start(context.Background()); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	defer func() { _ = p.Stop(5 * time.Second) }()

	waitErr := p.WaitReady(context.Background(), 500*time.Millisecond)
	if !errors.Is(waitErr, ErrNeverReachable) {
		t.Fatalf("WaitReady() = %v, want ErrNeverReachable", waitErr)
	}
}
