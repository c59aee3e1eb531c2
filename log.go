package dynamodblocal

import (
	"log/slog"
	"sync/atomic"
)

// logger is the package-level logger, stored as an atomic pointer to allow
// safe concurrent reads and writes. A nil value means no custom logger has
// been set; Logger() falls back to a cached default derived from
// slog.Default().
var logger atomic.Pointer[slog.Logger]

// defaultLogger caches the default-derived logger (slog.Default() with the
// component attribute) so it is not re-created on every Logger() call. If
// slog.SetDefault() is called after the first Logger() call, the cached
// logger will not reflect the change; call SetLogger(nil) to clear the cache
// and pick up the new default.
var defaultLogger atomic.Pointer[slog.Logger]

// Logger returns the current package-level logger. Safe to call from
// multiple goroutines.
func Logger() *slog.Logger {
	if l := logger.Load(); l != nil {
		return l
	}
	if l := defaultLogger.Load(); l != nil {
		return l
	}
	l := slog.Default().With("component", "dynamodblocal")
	// CompareAndSwap avoids overwriting a concurrently cached value; if
	// another goroutine already stored a logger, use theirs.
	if defaultLogger.CompareAndSwap(nil, l) {
		return l
	}
	if l2 := defaultLogger.Load(); l2 != nil {
		return l2
	}
	return l
}

// SetLogger replaces the package-level logger. The provided logger should
// already carry any desired attributes; the library will not add more.
//
// If l is nil, the logger resets to the default: slog.Default() with a
// component attribute, re-derived on the next Logger() call and then cached.
// Call SetLogger(nil) after slog.SetDefault() to pick up changes.
//
// SetLogger is safe to call concurrently with other operations.
func SetLogger(l *slog.Logger) {
	logger.Store(l)
	defaultLogger.Store(nil)
}
