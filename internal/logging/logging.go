// Copyright (c) 2024 the authors
// Use of this source code is governed by a MIT license found in the LICENSE file.

// Package logging configures the process-wide zerolog logger for commands.
package logging

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Init sets the global level and writes human readable logs to stderr.
func Init(debug bool) {
	InitWriter(os.Stderr, debug)
}

func InitWriter(out io.Writer, debug bool) {
	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)
	log.Logger = zerolog.New(zerolog.ConsoleWriter{
		Out:        out,
		TimeFormat: time.RFC3339,
		NoColor:    out != os.Stderr,
	}).With().Timestamp().Logger()
}

// WithContext attaches the global logger to ctx, so library calls made with ctx log through it.
func WithContext(ctx context.Context) context.Context {
	return log.Logger.WithContext(ctx)
}
