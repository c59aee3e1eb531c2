package process

import "time"

// Stoppable represents a child process that can be stopped.
type Stoppable interface {
	Stop(grace time.Duration) error
}

// StopAndNil stops and nils a Stoppable pointer in a single cleanup step.
// Safe to call with a nil p or when *p is nil; returns nil immediately in
// both cases. Used on failure paths where a partially started instance must
// be torn down before the error propagates.
//
// P is constrained to both *E and Stoppable, so only pointer types that
// implement Stoppable can be passed; *E is directly comparable to nil. E is
// inferred by the compiler from the pointer type.
//
// The nil-out runs even when Stop returns an error: after a failed stop the
// process is in an unknown state and keeping a stale reference would only
// invite double stops. The error is still returned.
func StopAndNil[P interface {
	*E
	Stoppable
}, E any](p *P, grace time.Duration) error {
	if p == nil || *p == nil {
		return nil
	}
	defer func() {
		*p = nil
	}()
	return (*p).Stop(grace)
}
