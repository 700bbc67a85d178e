// Package clamp composes the compiler and linker flags needed to build C++AMP
// programs against a clamp toolchain.
package clamp

import (
	"errors"
	"io"
	"log/slog"
	"strings"

	"github.com/Manu343726/clamp-config/pkg/config"
	"github.com/Manu343726/clamp-config/pkg/logging"
	"github.com/Manu343726/clamp-config/pkg/utils"
)

var (
	ErrInvalidState = errors.New("invalid composer state")
	ErrOutput       = errors.New("output error")
)

const languageStandardFlag = "-std=c++amp"

// Core runtime, always linked last
const coreRuntimeLibrary = "mcwamp"

// Runtime libraries every C++AMP program links against
var runtimeLibraries = []string{"c++", "cxxrt", "dl"}

// Composer holds the tree mode and backend selected so far and prints flag
// lines for them. The zero state is install mode with the OpenCL backend.
type Composer struct {
	paths   config.Paths
	out     io.Writer
	log     *slog.Logger
	mode    TreeMode
	backend Backend
	verbose bool
}

// Returns a composer printing to out. A nil logger discards diagnostics
func NewComposer(paths config.Paths, out io.Writer, log *slog.Logger) *Composer {
	if log == nil {
		log = logging.Discard()
	}

	return &Composer{
		paths:   paths,
		out:     out,
		log:     log,
		mode:    TreeMode_Install,
		backend: Backend_OpenCL,
	}
}

func (c *Composer) Mode() TreeMode {
	return c.mode
}

func (c *Composer) Backend() Backend {
	return c.backend
}

func (c *Composer) Verbose() bool {
	return c.verbose
}

func (c *Composer) SetMode(mode TreeMode) {
	c.mode = mode
}

func (c *Composer) SetBackend(backend Backend) {
	c.backend = backend
}

func (c *Composer) SetVerbose(verbose bool) {
	c.verbose = verbose
}

// Returns the compiler flags line, newline included
func (c *Composer) CompileFlags() (string, error) {
	var b strings.Builder
	b.WriteString(languageStandardFlag)

	switch c.mode {
	case TreeMode_Build:
		includeDir(&b, c.paths.Build.ClampInclude)
		includeDir(&b, c.paths.Build.LibcxxInclude)
	case TreeMode_Install:
		includeDir(&b, c.paths.Install.Include)
		includeDir(&b, c.paths.Install.LibcxxInclude)
	default:
		return "", utils.MakeError(ErrInvalidState, "no tree mode selected (mode %d)", uint(c.mode))
	}

	b.WriteByte('\n')
	return b.String(), nil
}

// Returns the linker flags line. Like the C++ clamp-config it replaces, the line
// ends with a space and no newline.
func (c *Composer) LinkFlags() (string, error) {
	if !c.backend.valid() {
		return "", utils.MakeError(ErrInvalidState, "no backend selected (backend %d)", uint(c.backend))
	}

	var b strings.Builder
	b.WriteString(languageStandardFlag)

	switch c.mode {
	case TreeMode_Build:
		libDirs := []string{c.paths.Build.AmpclLib, c.paths.Build.LibcxxLib, c.paths.Build.LibcxxrtLib}
		for _, dir := range libDirs {
			b.WriteString(" -L" + dir)
		}
		b.WriteString(" -Wl,--rpath=" + strings.Join(libDirs, ":"))
	case TreeMode_Install:
		b.WriteString(" -L" + c.paths.Install.Lib)
		b.WriteString(" -Wl,--rpath=" + c.paths.Install.Lib)
	default:
		return "", utils.MakeError(ErrInvalidState, "no tree mode selected (mode %d)", uint(c.mode))
	}

	b.WriteString(" " + wholeArchive(c.backend.Library()) + " ")

	b.WriteString(" ")
	for _, lib := range runtimeLibraries {
		b.WriteString("-l" + lib + " ")
	}

	b.WriteString(wholeArchive(coreRuntimeLibrary) + " ")
	return b.String(), nil
}

// Returns the install prefix exactly as configured
func (c *Composer) Prefix() string {
	return c.paths.InstallPrefix
}

func (c *Composer) EmitCompileFlags() error {
	line, err := c.CompileFlags()
	if err != nil {
		return err
	}

	c.log.Debug("emitting compile flags", "mode", c.mode, "flags", strings.TrimSpace(line))
	return c.write(line)
}

func (c *Composer) EmitLinkFlags() error {
	line, err := c.LinkFlags()
	if err != nil {
		return err
	}

	c.log.Debug("emitting link flags", "mode", c.mode, "backend", c.backend, "flags", strings.TrimSpace(line))
	return c.write(line)
}

func (c *Composer) EmitPrefix() error {
	c.log.Debug("emitting install prefix", "prefix", c.paths.InstallPrefix)
	return c.write(c.Prefix())
}

func (c *Composer) write(text string) error {
	if _, err := io.WriteString(c.out, text); err != nil {
		return utils.MakeError(ErrOutput, "%v", err)
	}

	return nil
}

func includeDir(b *strings.Builder, dir string) {
	b.WriteString(" -I" + dir)
}

// Forces the linker to pull every object of a static library
func wholeArchive(library string) string {
	return "-Wl,--whole-archive -l" + library + " -Wl,--no-whole-archive"
}
