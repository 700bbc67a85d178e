package clamp

// Selects which directory layout flags point into
type TreeMode uint

const (
	// Paths of the installed toolchain
	TreeMode_Install TreeMode = iota
	// Paths of the not yet installed source and build directories
	TreeMode_Build
)

func (m TreeMode) String() string {
	switch m {
	case TreeMode_Install:
		return "install"
	case TreeMode_Build:
		return "build"
	}

	panic("unreachable")
}

func (m TreeMode) valid() bool {
	return m == TreeMode_Install || m == TreeMode_Build
}

// Accelerator runtime the link flags target
type Backend uint

const (
	Backend_OpenCL Backend = iota
	Backend_HSA
)

func (b Backend) String() string {
	switch b {
	case Backend_OpenCL:
		return "opencl"
	case Backend_HSA:
		return "hsa"
	}

	panic("unreachable")
}

// Name of the static runtime library implementing the backend
func (b Backend) Library() string {
	switch b {
	case Backend_OpenCL:
		return "mcwamp_opencl"
	case Backend_HSA:
		return "mcwamp_hsa"
	}

	panic("unreachable")
}

func (b Backend) valid() bool {
	return b == Backend_OpenCL || b == Backend_HSA
}
