// Package dynamodblocal manages the lifecycle of a locally-run DynamoDB
// Local emulator process for integration tests: it downloads the
// distributable archive if absent, locates a Java runtime, launches the
// emulator as a child process, waits until it is reachable, and tears it
// down on request.
//
// # Basic Usage
//
//	import "github.com/giantswarm/dynamodblocal"
//
//	ctx := context.Background()
//
//	inst, err := dynamodblocal.NewInMemory()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := inst.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer inst.Stop() // Returns nil on success; safe to ignore in defer
//
//	// Point any DynamoDB client at inst.Endpoint().
//
// Or scoped, with the stop guaranteed on every exit path:
//
//	err := inst.Run(ctx, func(inst *dynamodblocal.Instance) error {
//	    // Use inst.Endpoint()...
//	    return nil
//	})
//
// # Storage Modes
//
// An instance stores data in exactly one of three ways: in memory
// (WithInMemory; contents lost on shutdown), on disk at an explicit path
// (WithDBPath; survives restarts), or on disk in the installation directory
// (the emulator's default when neither option is set). In-memory and an
// explicit path are mutually exclusive and rejected at construction.
//
// # Concurrent Instances
//
// Multiple instances can run side by side on distinct ports. Instances
// sharing an installation directory serialize the download through a file
// lock; the port itself is only guarded by a best-effort bind probe
// immediately before spawn, so concurrent instances should obtain their
// ports via NewInMemory or distinct WithPort values.
//
// The emulator is a JVM application; a Java runtime must be installed. Set
// JAVA_HOME (or WithJavaHome) to pick a specific runtime, otherwise java
// from PATH is used.
package dynamodblocal
