// Package logging builds the zerolog logger the server and its interceptors
// write to.
package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/Keksclan/goRawrStrategy/config"
)

// New returns a logger writing to stdout.
func New(conf config.LogConfig) zerolog.Logger {
	return NewWithWriter(conf, os.Stdout)
}

// NewWithWriter returns a logger writing human readable lines to out for
// the text format and one JSON object per event otherwise.
func NewWithWriter(conf config.LogConfig, out io.Writer) zerolog.Logger {
	if conf.Format == config.LogTextFormat {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}

	return zerolog.New(out).Level(conf.Level).With().
		Timestamp().
		Str("service", "rawr").
		Logger()
}
