//go:build !release

package rafko

// DebugChecks gates the bounds-check panics: a bounds violation is a
// programmer error and crashes in debug builds; release builds are free
// to elide the check. Build with `-tags release` to elide them.
const DebugChecks = true
