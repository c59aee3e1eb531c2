package dynamodblocal

import (
	"github.com/giantswarm/dynamodblocal/internal/emulator"
	"github.com/giantswarm/dynamodblocal/internal/installer"
	"github.com/giantswarm/dynamodblocal/internal/javabin"
	"github.com/giantswarm/dynamodblocal/internal/netutil"
	"github.com/giantswarm/dynamodblocal/internal/process"
	"github.com/giantswarm/dynamodblocal/internal/sentinel"
)

// Sentinel errors for error inspection with errors.Is.
// These are immutable constants safe for use in wrapped error chain comparison.
const (
	// ErrConflictingStorage is returned by New when both in-memory mode and
	// an explicit on-disk path are configured.
	ErrConflictingStorage = sentinel.Error("in-memory and on-disk storage are mutually exclusive")

	// ErrPortUnavailable is returned by Start when the configured port
	// cannot be bound on loopback. The pre-check runs before any install or
	// spawn work.
	ErrPortUnavailable = netutil.ErrPortUnavailable

	// ErrTargetNotDir is returned by Start when the install directory path
	// exists but is occupied by something other than a directory.
	ErrTargetNotDir = installer.ErrTargetNotDir

	// ErrPathTraversal is returned by Start when an archive entry would be
	// extracted outside the install directory. The partial install is
	// removed before the error surfaces.
	ErrPathTraversal = installer.ErrPathTraversal

	// ErrRuntimeNotFound is returned by Start when neither the configured
	// runtime home nor PATH yields a runnable java binary.
	ErrRuntimeNotFound = javabin.ErrRuntimeNotFound

	// ErrEarlyExit is returned by Start when the emulator process terminates
	// right after spawn, e.g. on an unrecognized pass-through flag.
	ErrEarlyExit = emulator.ErrEarlyExit

	// ErrNeverReachable is returned by Start when the emulator stays up but
	// never answers an HTTP request within the readiness timeout.
	ErrNeverReachable = emulator.ErrNeverReachable

	// ErrAlreadyStarted is returned by Start when the instance already has a
	// running emulator process.
	ErrAlreadyStarted = process.ErrAlreadyStarted
)
