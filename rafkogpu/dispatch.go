package rafkogpu

import (
	"fmt"
	"strings"

	"github.com/go-gl/gl/v4.3-core/gl"

	"github.com/davids91/rafko-go/rafko"
)

// toGLSL rewrites the emitter's C-like pseudo-OpenCL text into syntax the
// OpenGL GLSL compiler accepts. The emitter already targets GLSL directly
// (unlike an OpenCL-first emitter, which would need `__global`/`__kernel`
// stripped); toGLSL exists for the handful of spots the emitter's pseudo-OpenCL
// vocabulary diverges from GLSL, kept as a single narrow seam so Emitter
// itself never has to know which backend consumes its text.
func toGLSL(source string) string {
	replacer := strings.NewReplacer(
		"CLK_GLOBAL_MEM_FENCE", "",
		"__kernel", "",
		"__global", "",
	)
	return replacer.Replace(source)
}

// Program is a compiled, linked compute-shader program together with the
// SSBOs it reads and writes. One Program is built per (network, dataset
// shape) pair and reused across every weight index a training iteration
// visits, so compilation cost is paid once per shape rather than once per weight.
type Program struct {
	handle uint32

	weightsBuf, inputsBuf, labelsBuf uint32
	opValuesBuf, opDerivativesBuf    uint32
	weightDerivativesBuf             uint32

	opCount       int
	weightCount   int
	sequenceDepth int // sequence_truncation + 1 step-slices per workgroup
}

// Compile builds and links a compute-shader program from source. Returns a
// RuntimeResource error on shader compile or program link failure so the
// caller can fall back to the CPU scheduler instead of crashing.
func Compile(source string, opCount, weightCount, sequenceDepth int) (*Program, error) {
	shader := gl.CreateShader(gl.COMPUTE_SHADER)
	csource, free := gl.Strs(toGLSL(source) + "\x00")
	defer free()
	gl.ShaderSource(shader, 1, csource, nil)
	gl.CompileShader(shader)

	var status int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLen int32
		gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &logLen)
		log := strings.Repeat("\x00", int(logLen+1))
		gl.GetShaderInfoLog(shader, logLen, nil, gl.Str(log))
		gl.DeleteShader(shader)
		return nil, rafko.NewRuntimeResource(fmt.Errorf("%s", log), "compute shader compilation failed")
	}

	program := gl.CreateProgram()
	gl.AttachShader(program, shader)
	gl.LinkProgram(program)
	gl.DeleteShader(shader)

	gl.GetProgramiv(program, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var logLen int32
		gl.GetProgramiv(program, gl.INFO_LOG_LENGTH, &logLen)
		log := strings.Repeat("\x00", int(logLen+1))
		gl.GetProgramInfoLog(program, logLen, nil, gl.Str(log))
		gl.DeleteProgram(program)
		return nil, rafko.NewRuntimeResource(fmt.Errorf("%s", log), "compute program link failed")
	}

	p := &Program{
		handle:        program,
		opCount:       opCount,
		weightCount:   weightCount,
		sequenceDepth: sequenceDepth,
	}
	p.weightsBuf = newSSBO(0, weightCount)
	p.inputsBuf = newSSBO(1, 0)
	p.labelsBuf = newSSBO(2, 0)
	p.opValuesBuf = newSSBO(3, opCount*sequenceDepth)
	p.opDerivativesBuf = newSSBO(4, opCount*sequenceDepth)
	p.weightDerivativesBuf = newSSBO(5, weightCount)
	if err := glCheckError("program/buffer setup"); err != nil {
		return nil, err
	}
	return p, nil
}

func newSSBO(binding uint32, floatCount int) uint32 {
	var buf uint32
	gl.GenBuffers(1, &buf)
	gl.BindBuffer(gl.SHADER_STORAGE_BUFFER, buf)
	size := floatCount * 4
	if size < 4 {
		size = 4
	}
	gl.BufferData(gl.SHADER_STORAGE_BUFFER, size, nil, gl.DYNAMIC_DRAW)
	gl.BindBufferBase(gl.SHADER_STORAGE_BUFFER, binding, buf)
	return buf
}

// Release frees every SSBO and the linked program. The Program must not be
// used afterwards.
func (p *Program) Release() {
	gl.DeleteProgram(p.handle)
	bufs := []uint32{p.weightsBuf, p.inputsBuf, p.labelsBuf, p.opValuesBuf, p.opDerivativesBuf, p.weightDerivativesBuf}
	gl.DeleteBuffers(int32(len(bufs)), &bufs[0])
}

func uploadFloats(buf uint32, data []float64) {
	f32 := make([]float32, len(data))
	for i, v := range data {
		f32[i] = float32(v)
	}
	gl.BindBuffer(gl.SHADER_STORAGE_BUFFER, buf)
	if len(f32) > 0 {
		gl.BufferSubData(gl.SHADER_STORAGE_BUFFER, 0, len(f32)*4, gl.Ptr(f32))
	}
}

func downloadFloats(buf uint32, count int) []float64 {
	f32 := make([]float32, count)
	gl.BindBuffer(gl.SHADER_STORAGE_BUFFER, buf)
	if count > 0 {
		gl.GetBufferSubData(gl.SHADER_STORAGE_BUFFER, 0, count*4, gl.Ptr(f32))
	}
	out := make([]float64, count)
	for i, v := range f32 {
		out[i] = float64(v)
	}
	return out
}

// Dispatch runs one forward step of a single sequence (one workgroup
// along x; op_index covered by ceil(opCount/workers) workgroups of workers
// invocations along y) through execute_value_workers and returns every
// operation's resulting value for that step.
func (p *Program) Dispatch(weights []float64, input []float64, labels []float64, currentStep, sequenceTruncation, dWIndex, workers int) ([]float64, error) {
	gl.UseProgram(p.handle)
	uploadFloats(p.weightsBuf, weights)
	uploadFloats(p.inputsBuf, input)
	uploadFloats(p.labelsBuf, labels)
	p.setStepUniforms(currentStep, sequenceTruncation, dWIndex, 0, 0)

	groupsY := (p.opCount + workers - 1) / workers
	gl.DispatchCompute(1, uint32(groupsY), 1)
	gl.MemoryBarrier(gl.SHADER_STORAGE_BARRIER_BIT)

	if err := glCheckError("compute dispatch"); err != nil {
		return nil, err
	}
	return downloadFloats(p.opValuesBuf, p.opCount), nil
}

// DispatchDerivative runs one backward step for weight index weightIdx
// through execute_derivative_workers (kernel_mode=1): every operation's
// DerivativeKernelExpression runs in the same wave order Dispatch's forward
// sweep used, and -- when updateWeightDeriv is set, mirroring
// rafkogym.BackpropData's weight-derivative-update flag -- every Phase-A
// operation's derivative is atomically folded into
// weight_derivatives[weightIdx]. Returns every operation's derivative for
// that step.
func (p *Program) DispatchDerivative(currentStep, sequenceTruncation, weightIdx int, updateWeightDeriv bool, workers int) ([]float64, error) {
	gl.UseProgram(p.handle)
	var update int32
	if updateWeightDeriv {
		update = 1
	}
	p.setStepUniforms(currentStep, sequenceTruncation, weightIdx, 1, update)

	groupsY := (p.opCount + workers - 1) / workers
	gl.DispatchCompute(1, uint32(groupsY), 1)
	gl.MemoryBarrier(gl.SHADER_STORAGE_BARRIER_BIT)

	if err := glCheckError("compute derivative dispatch"); err != nil {
		return nil, err
	}
	return downloadFloats(p.opDerivativesBuf, p.opCount), nil
}

// ResetWeightDerivatives zeroes weight_derivatives, the SSBO
// DispatchDerivative's atomic-add helper accumulates into: callers clear it
// once per training iteration, before sweeping every weight index.
func (p *Program) ResetWeightDerivatives() {
	zero := make([]float32, p.weightCount)
	gl.BindBuffer(gl.SHADER_STORAGE_BUFFER, p.weightDerivativesBuf)
	if len(zero) > 0 {
		gl.BufferSubData(gl.SHADER_STORAGE_BUFFER, 0, len(zero)*4, gl.Ptr(zero))
	}
}

// WeightDerivatives downloads the accumulated weight_derivatives SSBO.
func (p *Program) WeightDerivatives() []float64 {
	return downloadFloats(p.weightDerivativesBuf, p.weightCount)
}

func (p *Program) setStepUniforms(currentStep, sequenceTruncation, dWIndex, kernelMode int, updateWeightDeriv int32) {
	loc := gl.GetUniformLocation(p.handle, gl.Str("current_step\x00"))
	gl.Uniform1i(loc, int32(currentStep))
	loc = gl.GetUniformLocation(p.handle, gl.Str("sequence_truncation\x00"))
	gl.Uniform1i(loc, int32(sequenceTruncation))
	loc = gl.GetUniformLocation(p.handle, gl.Str("d_w_index\x00"))
	gl.Uniform1i(loc, int32(dWIndex))
	loc = gl.GetUniformLocation(p.handle, gl.Str("kernel_mode\x00"))
	gl.Uniform1i(loc, int32(kernelMode))
	loc = gl.GetUniformLocation(p.handle, gl.Str("update_weight_deriv\x00"))
	gl.Uniform1i(loc, updateWeightDeriv)
}
