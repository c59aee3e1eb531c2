// Package emulator manages the DynamoDB Local child process: deterministic
// argument construction, spawn in the installation directory, an HTTP
// readiness probe, and graceful-then-forced shutdown.
package emulator
