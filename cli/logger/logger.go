package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

type Options struct {
	Level     string `doc:"log from debug, info, warn or error"`
	File      string `doc:"append logs to file"`
	Format    string `doc:"format logs as text or json"         default:"text"`
	AddSource bool   `doc:"log the source position of each call"`
}

// level parses option with [slog.Level.UnmarshalText], an empty option
// keeps the handler default.
func level(option string) (slog.Leveler, bool) {
	if option == "" {
		return nil, true
	}
	var l slog.Level
	if err := l.UnmarshalText([]byte(option)); err != nil {
		return nil, false
	}
	return l, true
}

// New returns a logger built from options. Unusable options are reset,
// the resulting logger then warns about them.
func New(options *Options) *slog.Logger {
	level, ok := level(options.Level)
	if !ok {
		option := options.Level
		options.Level = ""
		logger := New(options)
		logger.Warn("could not parse logger level", "level", option)
		return logger
	}
	opts := slog.HandlerOptions{Level: level, AddSource: options.AddSource}

	var output io.Writer
	switch options.File {
	case "", "-":
		output = os.Stdout
	case os.DevNull:
		return slog.New(slog.DiscardHandler)
	default:
		var err error
		output, err = os.OpenFile(options.File, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
		if err != nil {
			options.File = ""
			logger := New(options)
			logger.Warn("could not open logger file", "err", err)
			return logger
		}
	}

	return newWithWriter(options, output, &opts)
}

func newWithWriter(options *Options, output io.Writer, opts *slog.HandlerOptions) *slog.Logger {
	switch strings.ToLower(options.Format) {
	case "json":
		return slog.New(slog.NewJSONHandler(output, opts))
	case "text", "":
		return slog.New(slog.NewTextHandler(output, opts))
	default:
		format := options.Format
		options.Format = "text"
		logger := newWithWriter(options, output, opts)
		logger.Warn("could not parse logger format", "format", format)
		return logger
	}
}
