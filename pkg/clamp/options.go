package clamp

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/Manu343726/clamp-config/pkg/logging"
	"github.com/Manu343726/clamp-config/pkg/utils"
	"github.com/fatih/color"
	"github.com/spf13/pflag"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// Option is a long command line option. None of them take arguments
type Option struct {
	Name  string
	Usage string
	Run   func(c *Composer) error
}

// Options recognized by the scanner, in the order they are documented
var Options = []Option{
	{
		Name:  "verbose",
		Usage: "Report on standard error that verbose mode is on once all options are processed",
		Run:   func(c *Composer) error { c.SetVerbose(true); return nil },
	},
	{
		Name:  "brief",
		Usage: "Undo a previous --verbose",
		Run:   func(c *Composer) error { c.SetVerbose(false); return nil },
	},
	{
		Name:  "cxxflags",
		Usage: "Print the compiler flags",
		Run:   (*Composer).EmitCompileFlags,
	},
	{
		Name:  "build",
		Usage: "Point following flags into the clamp build tree",
		Run:   func(c *Composer) error { c.SetMode(TreeMode_Build); return nil },
	},
	{
		Name:  "install",
		Usage: "Point following flags into the clamp install tree (default)",
		Run:   func(c *Composer) error { c.SetMode(TreeMode_Install); return nil },
	},
	{
		Name:  "ldflags",
		Usage: "Print the linker flags",
		Run:   (*Composer).EmitLinkFlags,
	},
	{
		Name:  "prefix",
		Usage: "Print the install prefix",
		Run:   (*Composer).EmitPrefix,
	},
	{
		Name:  "opencl",
		Usage: "Link following flags against the OpenCL backend (default)",
		Run:   func(c *Composer) error { c.SetBackend(Backend_OpenCL); return nil },
	},
	{
		Name:  "hsa",
		Usage: "Link following flags against the HSA backend",
		Run:   func(c *Composer) error { c.SetBackend(Backend_HSA); return nil },
	},
}

// Returns a two column listing of Options
func Usage() string {
	var b strings.Builder

	for _, option := range Options {
		fmt.Fprintf(&b, "  --%-10s %s\n", option.Name, option.Usage)
	}

	return b.String()
}

// Scanner walks a command line running each option against a composer in
// the order options appear. Arguments that are not options are collected
// and echoed once scanning is done.
//
// Mistakes in the command line are reported on Stderr and skipped, they
// never stop the scan.
type Scanner struct {
	program string
	stdout  io.Writer
	stderr  io.Writer
	log     *slog.Logger
	options map[string]Option
	names   []string
	prefix  *color.Color
}

func NewScanner(program string, stdout, stderr io.Writer, log *slog.Logger) *Scanner {
	if log == nil {
		log = logging.Discard()
	}

	options := make(map[string]Option, len(Options))
	for _, option := range Options {
		options[option.Name] = option
	}

	names := maps.Keys(options)
	slices.Sort(names)

	return &Scanner{
		program: program,
		stdout:  stdout,
		stderr:  stderr,
		log:     log,
		options: options,
		names:   names,
		prefix:  color.New(color.FgRed, color.Bold),
	}
}

// Run scans args and applies every option to c. It returns an error only if
// an option action fails; usage errors are reported and ignored.
func (s *Scanner) Run(c *Composer, args []string) error {
	flags := pflag.NewFlagSet(s.program, pflag.ContinueOnError)
	flags.SetOutput(io.Discard)
	flags.SetInterspersed(true)
	for _, option := range Options {
		flags.Bool(option.Name, false, option.Usage)
	}

	err := flags.ParseAll(s.normalize(args), func(flag *pflag.Flag, _ string) error {
		s.log.Debug("dispatching option", "option", flag.Name)
		return s.options[flag.Name].Run(c)
	})
	if err != nil {
		return err
	}

	if c.Verbose() {
		fmt.Fprintln(s.stderr, "verbose flag is set")
	}

	if rest := flags.Args(); len(rest) > 0 {
		var b strings.Builder
		b.WriteString("non-option ARGV-elements: ")
		for _, arg := range rest {
			b.WriteString(arg + " ")
		}
		b.WriteByte('\n')

		if _, err := io.WriteString(s.stdout, b.String()); err != nil {
			return utils.MakeError(ErrOutput, "%v", err)
		}
	}

	return nil
}

// Rewrites abbreviated options to their full name and drops, after reporting
// them, the arguments that cannot be parsed as options.
func (s *Scanner) normalize(args []string) []string {
	normalized := make([]string, 0, len(args))

	for i, arg := range args {
		switch {
		case arg == "--":
			return append(normalized, args[i:]...)
		case strings.HasPrefix(arg, "--"):
			if name, ok := s.resolve(arg); ok {
				normalized = append(normalized, "--"+name)
			}
		case len(arg) > 1 && arg[0] == '-':
			// There are no short options
			for _, r := range arg[1:] {
				s.usageError("invalid option -- '%c'", r)
			}
		default:
			normalized = append(normalized, arg)
		}
	}

	return normalized
}

// Finds the option a "--name[=value]" argument refers to. Unique prefixes of
// an option name are accepted, an exact match always wins.
func (s *Scanner) resolve(arg string) (string, bool) {
	name, _, hasValue := strings.Cut(strings.TrimPrefix(arg, "--"), "=")

	var candidates []string
	if _, exact := s.options[name]; exact {
		candidates = []string{name}
	} else if name != "" {
		for _, option := range s.names {
			if strings.HasPrefix(option, name) {
				candidates = append(candidates, option)
			}
		}
	}

	switch {
	case len(candidates) == 0:
		s.usageError("unrecognized option '%s'", arg)
		return "", false
	case len(candidates) > 1:
		possibilities := make([]string, len(candidates))
		for i, candidate := range candidates {
			possibilities[i] = "'--" + candidate + "'"
		}
		s.usageError("option '%s' is ambiguous; possibilities: %s", arg, strings.Join(possibilities, " "))
		return "", false
	case hasValue:
		s.usageError("option '--%s' doesn't allow an argument", candidates[0])
		return "", false
	}

	if candidates[0] != name {
		s.log.Debug("expanded abbreviated option", "argument", arg, "option", candidates[0])
	}

	return candidates[0], true
}

func (s *Scanner) usageError(format string, args ...any) {
	s.prefix.Fprint(s.stderr, s.program+":")
	fmt.Fprintf(s.stderr, " "+format+"\n", args...)
	s.log.Debug("ignored command line argument", "reason", fmt.Sprintf(format, args...))
}
