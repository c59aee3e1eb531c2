package process

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestWaitReady_InvalidConfig(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		cfg     WaitReadyConfig
		wantMsg string
	}{
		"zero interval": {
			cfg:     WaitReadyConfig{Interval: 0, Timeout: 5 * time.Second, Name: "test-proc"},
			wantMsg: "interval must be positive",
		},
		"negative interval": {
			cfg:     WaitReadyConfig{Interval: -time.Second, Timeout: 5 * time.Second, Name: "test-proc"},
			wantMsg: "interval must be positive",
		},
		"zero timeout": {
			cfg:     WaitReadyConfig{Interval: 100 * time.Millisecond, Timeout: 0, Name: "test-proc"},
			wantMsg: "timeout must be positive",
		},
		"negative timeout": {
			cfg:     WaitReadyConfig{Interval: 100 * time.Millisecond, Timeout: -time.Second, Name: "test-proc"},
			wantMsg: "timeout must be positive",
		},
		"empty name": {
			cfg:     WaitReadyConfig{Interval: 100 * time.Millisecond, Timeout: time.Second},
			wantMsg: "name must not be empty",
		},
	}

	for name, tc := range tests {
		tc := tc
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			err := WaitReady(context.Background(), tc.cfg, func(_ context.Context, _ int) (bool, error) {
				t.Error("check should not be called with invalid config")
				return false, nil
			})
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tc.wantMsg) {
				t.Fatalf("unexpected error message: %v", err)
			}
		})
	}
}

func TestWaitReady_SucceedsAfterRetries(t *testing.T) {
	t.Parallel()

	err := WaitReady(context.Background(), WaitReadyConfig{
		Interval: time.Millisecond,
		Timeout:  5 * time.Second,
		Name:     "test-proc",
		Endpoint: "http://localhost:0",
	}, func(_ context.Context, attempt int) (bool, error) {
		return attempt >= 3, nil
	})
	if err != nil {
		t.Fatalf("WaitReady() error: %v", err)
	}
}

func TestWaitReady_Timeout(t *testing.T) {
	t.Parallel()

	start := time.Now()
	err := WaitReady(context.Background(), WaitReadyConfig{
		Interval: 10 * time.Millisecond,
		Timeout:  100 * time.Millisecond,
		Name:     "test-proc",
	}, func(_ context.Context, _ int) (bool, error) {
		return false, nil
	})
	if err == nil {
		t.Fatal("expected timeout error, got nil")
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Fatalf("WaitReady took %v, expected prompt timeout", elapsed)
	}
}

func TestWaitReady_FatalCheckError(t *testing.T) {
	t.Parallel()

	fatal := errors.New("fatal check failure")
	err := WaitReady(context.Background(), WaitReadyConfig{
		Interval: time.Millisecond,
		Timeout:  5 * time.Second,
		Name:     "test-proc",
	}, func(_ context.Context, _ int) (bool, error) {
		return false, fatal
	})
	if !errors.Is(err, fatal) {
		t.Fatalf("WaitReady() = %v, want wrapped fatal error", err)
	}
}

func TestWaitReady_ProcessExited(t *testing.T) {
	t.Parallel()

	exited := make(chan struct{})
	close(exited)

	start := time.Now()
	err := WaitReady(context.Background(), WaitReadyConfig{
		Interval:      10 * time.Millisecond,
		Timeout:       10 * time.Second,
		Name:          "test-proc",
		ProcessExited: exited,
	}, func(_ context.Context, _ int) (bool, error) {
		t.Error("check should not run once the process has exited")
		return false, nil
	})
	if !errors.Is(err, ErrProcessExited) {
		t.Fatalf("WaitReady() = %v, want ErrProcessExited", err)
	}
	// The abort must be immediate, not after the full timeout.
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Fatalf("WaitReady took %v, expected immediate abort", elapsed)
	}
}
