// Package rafko holds the settings surface and error kinds shared by every
// other rafko-go package: the function catalogue (rafkonet), the neuron
// router (neuronrouter), the dataset view (rafkodataset), the backprop data
// store / operation graph / wave scheduler / optimiser (rafkogym) and the
// kernel emitter (rafkogpu).
package rafko

import "fmt"

// BuilderInvariantError marks a violated precondition of a Builder: a
// missing input size, an incompatible function override, a zero-sized
// layer, an unknown cost function, or similar. The builder that raises it
// leaves no partially constructed value behind.
type BuilderInvariantError struct {
	Msg string
}

func (e *BuilderInvariantError) Error() string {
	return fmt.Sprintf("builder invariant violated: %s", e.Msg)
}

// GraphInvariantError marks a violated invariant of the operation graph:
// a dependency index not strictly greater than its dependent's index, a
// cycle without a reach-past edge, a dependency request for an unknown
// operation kind, or a dependency-count mismatch on register_callback.
type GraphInvariantError struct {
	Msg string
}

func (e *GraphInvariantError) Error() string {
	return fmt.Sprintf("graph invariant violated: %s", e.Msg)
}

// BoundsCheckError marks a data-store read/write outside its allocated
// extents, or an operation index out of range. Debug builds panic on such
// a violation; release builds (build tag "release") return this error from
// the BackpropData setters instead.
type BoundsCheckError struct {
	Msg string
}

func (e *BoundsCheckError) Error() string {
	return fmt.Sprintf("bounds check failed: %s", e.Msg)
}

// RuntimeResourceError marks a GPU kernel compile failure or an OpenCL/
// OpenGL enqueue failure. The caller is expected to recover by falling
// back to the CPU scheduler; the optimiser never retries on its own.
type RuntimeResourceError struct {
	Msg string
	Err error
}

func (e *RuntimeResourceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("runtime resource error: %s: %v", e.Msg, e.Err)
	}
	return fmt.Sprintf("runtime resource error: %s", e.Msg)
}

func (e *RuntimeResourceError) Unwrap() error {
	return e.Err
}

func newBuilderInvariant(format string, args ...any) error {
	return &BuilderInvariantError{Msg: fmt.Sprintf(format, args...)}
}

// NewBuilderInvariant constructs a BuilderInvariantError; exported so
// collaborating packages (e.g. rafkonet) can raise it without
// duplicating the type.
func NewBuilderInvariant(format string, args ...any) error {
	return newBuilderInvariant(format, args...)
}

// NewGraphInvariant constructs a GraphInvariantError.
func NewGraphInvariant(format string, args ...any) error {
	return &GraphInvariantError{Msg: fmt.Sprintf(format, args...)}
}

// NewBoundsCheck constructs a BoundsCheckError.
func NewBoundsCheck(format string, args ...any) error {
	return &BoundsCheckError{Msg: fmt.Sprintf(format, args...)}
}

// NewRuntimeResource constructs a RuntimeResourceError wrapping err.
func NewRuntimeResource(err error, format string, args ...any) error {
	return &RuntimeResourceError{Msg: fmt.Sprintf(format, args...), Err: err}
}
