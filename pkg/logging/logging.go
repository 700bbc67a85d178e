// Package logging builds the slog logger used for clamp-config diagnostics.
//
// Standard output belongs to the emitted flags, so every handler writes to
// standard error or to a log file.
package logging

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/Manu343726/clamp-config/pkg/utils"
	slogmulti "github.com/samber/slog-multi"
)

var ErrLogging = errors.New("logging setup error")

type Options struct {
	// Minimum level printed to Stderr: debug, info, warn or error
	Level string
	// If not empty, every record is also appended as JSON to this file
	File   string
	Stderr io.Writer
}

// Parses a level name. An empty name means warn
func ParseLevel(name string) (slog.Level, error) {
	if strings.TrimSpace(name) == "" {
		return slog.LevelWarn, nil
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(name))); err != nil {
		return slog.LevelWarn, utils.MakeError(ErrLogging, "invalid log level %q", name)
	}

	return level, nil
}

// New returns a logger fanning records out to all configured handlers and a
// function releasing its resources.
//
// If some option is wrong New still returns a working logger built from the
// options it could honour, together with the error.
func New(opts Options) (*slog.Logger, func() error, error) {
	stderr := opts.Stderr
	if stderr == nil {
		stderr = os.Stderr
	}

	var errs []error

	level, err := ParseLevel(opts.Level)
	if err != nil {
		errs = append(errs, err)
	}

	handlers := []slog.Handler{
		slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}),
	}
	closer := func() error { return nil }

	if opts.File != "" {
		file, err := os.OpenFile(opts.File, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			errs = append(errs, utils.MakeError(ErrLogging, "opening log file: %v", err))
		} else {
			handlers = append(handlers, slog.NewJSONHandler(file, &slog.HandlerOptions{Level: slog.LevelDebug}))
			closer = file.Close
		}
	}

	return slog.New(slogmulti.Fanout(handlers...)), closer, errors.Join(errs...)
}

// Returns a logger dropping every record
func Discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
