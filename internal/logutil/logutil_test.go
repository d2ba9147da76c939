package logutil_test

import (
	"bytes"
	"testing"

	"github.com/lthibault/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"

	"github.com/Neumenon/lambda/internal/logutil"
)

func logger(t *testing.T, args ...string) (log.Logger, *bytes.Buffer) {
	t.Helper()

	var (
		buf bytes.Buffer
		got log.Logger
	)
	app := &cli.App{
		Name:      "test",
		ErrWriter: &buf,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "logfmt", Value: "text"},
			&cli.StringFlag{Name: "loglvl", Value: "info"},
		},
		Action: func(c *cli.Context) error {
			got = logutil.New(c)
			assert.Equal(t, got, logutil.New(c), "logger is cached")
			return nil
		},
	}
	require.NoError(t, app.Run(append([]string{"test"}, args...)))
	require.NotNil(t, got)
	return got, &buf
}

func TestLevels(t *testing.T) {
	t.Parallel()

	l, buf := logger(t)
	l.Debug("hidden")
	l.Info("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")

	l, buf = logger(t, "--loglvl", "debug")
	l.Debug("now visible")
	assert.Contains(t, buf.String(), "now visible")

	l, buf = logger(t, "--loglvl", "e")
	l.Warn("quiet")
	assert.Empty(t, buf.String())
}

func TestFormats(t *testing.T) {
	t.Parallel()

	l, buf := logger(t, "--logfmt", "json")
	l.WithField("doc", "x").Info("hello")
	assert.Contains(t, buf.String(), `"msg":"hello"`)
	assert.Contains(t, buf.String(), `"doc":"x"`)

	l, buf = logger(t, "--logfmt", "text")
	l.WithField("doc", "x").Info("hello")
	assert.Contains(t, buf.String(), "msg=hello")
	assert.Contains(t, buf.String(), "doc=x")

	l, buf = logger(t, "--logfmt", "none", "--loglvl", "trace")
	l.Error("dropped")
	assert.Empty(t, buf.String())
}

func TestLevel(t *testing.T) {
	t.Parallel()

	for name, want := range map[string]log.Level{
		"trace": log.TraceLevel,
		"d":     log.DebugLevel,
		"warn":  log.WarnLevel,
		"err":   log.ErrorLevel,
		"f":     log.FatalLevel,
		"bogus": log.InfoLevel,
	} {
		assert.Equal(t, want, logutil.Level(name), name)
	}
}
