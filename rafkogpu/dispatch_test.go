package rafkogpu

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// Compile, Dispatch and DispatchDerivative need a live OpenGL context and
// aren't covered here; toGLSL is the one pure function in dispatch.go.

func TestToGLSL_StripsOpenCLOnlyTokens(t *testing.T) {
	source := "__kernel void main() { __global float* x; CLK_GLOBAL_MEM_FENCE; }"
	out := toGLSL(source)
	assert.NotContains(t, out, "__kernel")
	assert.NotContains(t, out, "__global")
	assert.NotContains(t, out, "CLK_GLOBAL_MEM_FENCE")
}

func TestToGLSL_LeavesUnrelatedTextUntouched(t *testing.T) {
	source := "#version 430\nvoid main() {}\n"
	assert.Equal(t, source, toGLSL(source))
}
