// Package installer fetches the emulator's gzip tarball and unpacks it into
// a target directory exactly once. A presence check makes installs
// idempotent, a file lock serializes concurrent installs into the same
// directory, and any failure removes the partially populated directory so a
// broken install never looks like a finished one.
package installer
