//go:build release

package rafko

// DebugChecks is false in release builds: bounds-check panics are elided.
const DebugChecks = false
