package clamp

import (
	"bytes"
	"errors"
	"testing"

	"github.com/Manu343726/clamp-config/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPaths() config.Paths {
	return config.Paths{
		InstallPrefix: "/opt/clamp",
		Build: config.BuildTree{
			ClampInclude:  "/src/clamp/include",
			LibcxxInclude: "/src/clamp/libc++/libcxx/include",
			AmpclLib:      "/build/lib",
			LibcxxLib:     "/build/libc++/libcxx/lib",
			LibcxxrtLib:   "/build/libc++/libcxxrt/lib",
		},
		Install: config.InstallTree{
			Include:       "/opt/clamp/include",
			LibcxxInclude: "/opt/clamp/include/c++/v1",
			Lib:           "/opt/clamp/lib",
		},
	}
}

func TestTreeMode_String(t *testing.T) {
	assert.Equal(t, "install", TreeMode_Install.String())
	assert.Equal(t, "build", TreeMode_Build.String())
	assert.Panics(t, func() { _ = TreeMode(7).String() })
}

func TestBackend_String(t *testing.T) {
	assert.Equal(t, "opencl", Backend_OpenCL.String())
	assert.Equal(t, "hsa", Backend_HSA.String())
	assert.Equal(t, "mcwamp_opencl", Backend_OpenCL.Library())
	assert.Equal(t, "mcwamp_hsa", Backend_HSA.Library())
	assert.Panics(t, func() { _ = Backend(7).Library() })
}

func TestNewComposer_Defaults(t *testing.T) {
	c := NewComposer(testPaths(), &bytes.Buffer{}, nil)

	assert.Equal(t, TreeMode_Install, c.Mode())
	assert.Equal(t, Backend_OpenCL, c.Backend())
	assert.False(t, c.Verbose())
}

func TestComposer_LastWriteWins(t *testing.T) {
	c := NewComposer(testPaths(), &bytes.Buffer{}, nil)

	c.SetMode(TreeMode_Build)
	c.SetMode(TreeMode_Build)
	assert.Equal(t, TreeMode_Build, c.Mode())
	c.SetMode(TreeMode_Install)
	assert.Equal(t, TreeMode_Install, c.Mode())

	c.SetBackend(Backend_OpenCL)
	c.SetBackend(Backend_HSA)
	assert.Equal(t, Backend_HSA, c.Backend())
	c.SetBackend(Backend_HSA)
	c.SetBackend(Backend_OpenCL)
	assert.Equal(t, Backend_OpenCL, c.Backend())

	c.SetVerbose(true)
	c.SetVerbose(false)
	assert.False(t, c.Verbose())
}

func TestComposer_CompileFlags(t *testing.T) {
	tests := []struct {
		name     string
		mode     TreeMode
		backend  Backend
		expected string
	}{
		{"install", TreeMode_Install, Backend_OpenCL, "-std=c++amp -I/opt/clamp/include -I/opt/clamp/include/c++/v1\n"},
		{"install hsa", TreeMode_Install, Backend_HSA, "-std=c++amp -I/opt/clamp/include -I/opt/clamp/include/c++/v1\n"},
		{"build", TreeMode_Build, Backend_OpenCL, "-std=c++amp -I/src/clamp/include -I/src/clamp/libc++/libcxx/include\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			c := NewComposer(testPaths(), &out, nil)
			c.SetMode(tt.mode)
			c.SetBackend(tt.backend)

			require.NoError(t, c.EmitCompileFlags())
			assert.Equal(t, tt.expected, out.String())
		})
	}
}

func TestComposer_LinkFlags(t *testing.T) {
	tests := []struct {
		name     string
		mode     TreeMode
		backend  Backend
		expected string
	}{
		{
			"install opencl", TreeMode_Install, Backend_OpenCL,
			"-std=c++amp -L/opt/clamp/lib -Wl,--rpath=/opt/clamp/lib" +
				" -Wl,--whole-archive -lmcwamp_opencl -Wl,--no-whole-archive " +
				" -lc++ -lcxxrt -ldl " +
				"-Wl,--whole-archive -lmcwamp -Wl,--no-whole-archive ",
		},
		{
			"install hsa", TreeMode_Install, Backend_HSA,
			"-std=c++amp -L/opt/clamp/lib -Wl,--rpath=/opt/clamp/lib" +
				" -Wl,--whole-archive -lmcwamp_hsa -Wl,--no-whole-archive " +
				" -lc++ -lcxxrt -ldl " +
				"-Wl,--whole-archive -lmcwamp -Wl,--no-whole-archive ",
		},
		{
			"build opencl", TreeMode_Build, Backend_OpenCL,
			"-std=c++amp -L/build/lib -L/build/libc++/libcxx/lib -L/build/libc++/libcxxrt/lib" +
				" -Wl,--rpath=/build/lib:/build/libc++/libcxx/lib:/build/libc++/libcxxrt/lib" +
				" -Wl,--whole-archive -lmcwamp_opencl -Wl,--no-whole-archive " +
				" -lc++ -lcxxrt -ldl " +
				"-Wl,--whole-archive -lmcwamp -Wl,--no-whole-archive ",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			c := NewComposer(testPaths(), &out, nil)
			c.SetMode(tt.mode)
			c.SetBackend(tt.backend)

			require.NoError(t, c.EmitLinkFlags())
			assert.Equal(t, tt.expected, out.String())
		})
	}
}

func TestComposer_LinkFlags_BackendsAreExclusive(t *testing.T) {
	c := NewComposer(testPaths(), &bytes.Buffer{}, nil)

	c.SetBackend(Backend_HSA)
	hsa, err := c.LinkFlags()
	require.NoError(t, err)
	assert.Contains(t, hsa, "-Wl,--whole-archive -lmcwamp_hsa -Wl,--no-whole-archive")
	assert.NotContains(t, hsa, "-lmcwamp_opencl")

	c.SetBackend(Backend_OpenCL)
	opencl, err := c.LinkFlags()
	require.NoError(t, err)
	assert.Contains(t, opencl, "-Wl,--whole-archive -lmcwamp_opencl -Wl,--no-whole-archive")
	assert.NotContains(t, opencl, "-lmcwamp_hsa")
}

func TestComposer_Prefix(t *testing.T) {
	var out bytes.Buffer
	paths := testPaths()
	paths.InstallPrefix = "/usr/local/clamp"

	c := NewComposer(paths, &out, nil)
	require.NoError(t, c.EmitPrefix())

	assert.Equal(t, "/usr/local/clamp", out.String())
}

func TestComposer_InvalidState(t *testing.T) {
	t.Run("mode", func(t *testing.T) {
		var out bytes.Buffer
		c := NewComposer(testPaths(), &out, nil)
		c.SetMode(TreeMode(42))

		assert.ErrorIs(t, c.EmitCompileFlags(), ErrInvalidState)
		assert.ErrorIs(t, c.EmitLinkFlags(), ErrInvalidState)
		assert.Empty(t, out.String())

		// The prefix does not depend on the mode
		assert.NoError(t, c.EmitPrefix())
	})

	t.Run("backend", func(t *testing.T) {
		c := NewComposer(testPaths(), &bytes.Buffer{}, nil)
		c.SetBackend(Backend(42))

		assert.NoError(t, c.EmitCompileFlags())
		assert.ErrorIs(t, c.EmitLinkFlags(), ErrInvalidState)
	})
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) {
	return 0, errors.New("broken pipe")
}

func TestComposer_OutputError(t *testing.T) {
	c := NewComposer(testPaths(), failingWriter{}, nil)

	err := c.EmitPrefix()
	assert.ErrorIs(t, err, ErrOutput)
	assert.Contains(t, err.Error(), "broken pipe")
}
