package rafkogpu

import (
	"fmt"
	"runtime"

	"github.com/go-gl/gl/v4.3-core/gl"
	"github.com/go-gl/glfw/v3.3/glfw"

	"github.com/davids91/rafko-go/rafko"
)

func init() {
	// GLFW and the GL context it creates are bound to the OS thread that
	// created them; every Context method must therefore run on the thread
	// that called NewContext.
	runtime.LockOSThread()
}

// Context wraps a hidden GLFW window and the OpenGL 4.3 core-profile
// context it owns, just enough surface for dispatching a compute shader.
// Nothing is ever drawn or shown; the window exists purely to obtain a GL
// context, the same trick headless GPGPU tools built on GLFW use.
type Context struct {
	window *glfw.Window
}

// NewContext opens a hidden window and an OpenGL 4.3 core context. Returns
// a RuntimeResource error if GLFW or GL initialisation fails, so the
// caller can fall back to the CPU scheduler.
func NewContext() (*Context, error) {
	if err := glfw.Init(); err != nil {
		return nil, rafko.NewRuntimeResource(err, "glfw initialisation failed")
	}

	glfw.WindowHint(glfw.Visible, glfw.False)
	glfw.WindowHint(glfw.ContextVersionMajor, 4)
	glfw.WindowHint(glfw.ContextVersionMinor, 3)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)

	window, err := glfw.CreateWindow(1, 1, "rafkogpu", nil, nil)
	if err != nil {
		glfw.Terminate()
		return nil, rafko.NewRuntimeResource(err, "opengl 4.3 context creation failed")
	}
	window.MakeContextCurrent()

	if err := gl.Init(); err != nil {
		window.Destroy()
		glfw.Terminate()
		return nil, rafko.NewRuntimeResource(err, "opengl function pointer loading failed")
	}

	return &Context{window: window}, nil
}

// Close destroys the hidden window and terminates GLFW. The Context must
// not be used afterwards.
func (c *Context) Close() {
	c.window.Destroy()
	glfw.Terminate()
}

func glCheckError(stage string) error {
	if code := gl.GetError(); code != gl.NO_ERROR {
		return rafko.NewRuntimeResource(fmt.Errorf("gl error 0x%x", code), "opengl failure during %s", stage)
	}
	return nil
}
