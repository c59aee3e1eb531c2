// Package netutil provides loopback port helpers: a best-effort availability
// probe run before spawning the emulator, and an ephemeral port allocator for
// throwaway instances.
package netutil
