// Package logutil contains shared utilities for configuring loggers from a cli context.
package logutil

import (
	"io"

	"github.com/lthibault/log"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

// New logger from a cli context. The first call binds the logger to the
// app; later calls return the same instance.
func New(c *cli.Context) log.Logger {
	if logger := get(c); logger != nil {
		return logger
	}

	return bind(c)
}

// Level parses a level name. Unknown names map to info.
func Level(name string) log.Level {
	switch name {
	case "trace", "t":
		return log.TraceLevel
	case "debug", "d":
		return log.DebugLevel
	case "info", "i":
		return log.InfoLevel
	case "warn", "warning", "w":
		return log.WarnLevel
	case "error", "err", "e":
		return log.ErrorLevel
	case "fatal", "f":
		return log.FatalLevel
	default:
		return log.InfoLevel
	}
}

// WithLevel returns a log.Option that configures a logger's level.
func WithLevel(c *cli.Context) log.Option {
	if c.String("logfmt") == "none" {
		return log.WithLevel(log.FatalLevel)
	}

	return log.WithLevel(Level(c.String("loglvl")))
}

// WithFormat returns an option that configures a logger's format.
func WithFormat(c *cli.Context) log.Option {
	var fmt logrus.Formatter

	switch c.String("logfmt") {
	case "json":
		fmt = new(logrus.JSONFormatter)
	default:
		fmt = &logrus.TextFormatter{DisableTimestamp: true}
	}

	return log.WithFormatter(fmt)
}

func withErrWriter(c *cli.Context) log.Option {
	if c.String("logfmt") == "none" || c.App.ErrWriter == nil {
		return log.WithWriter(io.Discard)
	}

	return log.WithWriter(c.App.ErrWriter)
}

// key with random component to avoid collision
const key = "lambda.logutil:q7#Vd.}2x!Lw"

// Bind a logger instance to the CLI app.
// Future calls to New will return this cached logger.
func bind(c *cli.Context) log.Logger {
	logger := log.New(
		WithLevel(c),
		WithFormat(c),
		withErrWriter(c))

	if c.App.Metadata == nil {
		c.App.Metadata = make(map[string]interface{})
	}
	c.App.Metadata[key] = func() log.Logger {
		return logger
	}

	return logger
}

func get(c *cli.Context) log.Logger {
	if logger, ok := c.App.Metadata[key].(func() log.Logger); ok {
		return logger()
	}

	return nil
}
