// lambda - document validation and transformation CLI
//
// Usage:
//
//	lambda validate --schema s.ls [--type T] [--from F] [file]   Validate a document
//	lambda format [--css] [--standalone] [-o out] [file...]      Render LaTeX as HTML
//	lambda convert [--from F] --to T [-o out] [file]             Convert between formats
//	lambda version                                               Print version info
//
// If no file is given, or the file is "-", input is read from stdin.
//
// Exit status is 0 on success, 1 when validation fails or an input cannot
// be processed, and 2 on a usage error.
package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/lthibault/log"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"golang.org/x/term"

	"github.com/Neumenon/lambda/input"
	"github.com/Neumenon/lambda/internal/config"
	"github.com/Neumenon/lambda/lambda"
)

const version = "0.1.0"

const (
	exitInvalid = 1
	exitUsage   = 2
)

func globalFlags() []cli.Flag {
	return []cli.Flag{
		// Logging
		&cli.StringFlag{
			Name:    "logfmt",
			Usage:   "`format` logs as text, json or none",
			Value:   "text",
			EnvVars: []string{"LAMBDA_LOGFMT"},
		},
		&cli.StringFlag{
			Name:    "loglvl",
			Usage:   "set logging `level` to trace, debug, info, warn, error or fatal",
			Value:   "warn",
			EnvVars: []string{"LAMBDA_LOGLVL"},
		},
		// Config
		&cli.PathFlag{
			Name:        "config",
			Usage:       "load settings from YAML `file`",
			DefaultText: "none",
			EnvVars:     []string{config.EnvVar},
		},
	}
}

func main() {
	os.Exit(run(os.Args, os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	app := &cli.App{
		Name:            "lambda",
		Usage:           "validate, format and convert documents",
		UsageText:       "lambda [global options] command [command options] [arguments...]",
		Version:         version,
		HideHelpCommand: true,
		Flags:           globalFlags(),
		Commands: []*cli.Command{
			validateCommand(),
			formatCommand(),
			convertCommand(),
			versionCommand(),
		},
		Reader:         stdin,
		Writer:         stdout,
		ErrWriter:      stderr,
		OnUsageError:   onUsageError,
		ExitErrHandler: func(*cli.Context, error) {},
		Action: func(c *cli.Context) error {
			if c.Args().Present() {
				return usageErrorf("unknown command %q", c.Args().First())
			}
			_ = cli.ShowAppHelp(c)
			return cli.Exit("", exitUsage)
		},
	}

	return exitCode(stderr, app.Run(args))
}

func versionCommand() *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: "print version info",
		Action: func(c *cli.Context) error {
			fmt.Fprintf(c.App.Writer, "lambda %s\n", version)
			fmt.Fprintf(c.App.Writer, "inputs:  %s\n", strings.Join(input.Names(), ", "))
			return nil
		},
	}
}

// ============================================================
// Errors and exit codes
// ============================================================

func usageErrorf(format string, args ...interface{}) error {
	return cli.Exit("lambda: "+fmt.Sprintf(format, args...), exitUsage)
}

func onUsageError(c *cli.Context, err error, _ bool) error {
	return usageErrorf("%v", err)
}

func exitCode(w io.Writer, err error) int {
	if err == nil {
		return 0
	}

	var ec cli.ExitCoder
	if errors.As(err, &ec) {
		if msg := ec.Error(); msg != "" {
			fmt.Fprintln(w, msg)
		}
		return ec.ExitCode()
	}

	fmt.Fprintf(w, "lambda: %v\n", err)
	return exitInvalid
}

// ============================================================
// Shared helpers
// ============================================================

func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, cli.Exit(err.Error(), exitUsage)
	}
	return cfg, nil
}

func newDocument(cfg *config.Config, logger log.Logger) (*lambda.Document, error) {
	opts := append(cfg.Pool.Options(), lambda.WithLogger(logger))
	return lambda.NewDocument(opts...)
}

// readInput reads the named file, or stdin for "" and "-".
func readInput(c *cli.Context, name string) ([]byte, error) {
	if name == "" || name == "-" {
		return io.ReadAll(c.App.Reader)
	}
	return os.ReadFile(name)
}

// inputFormat resolves the --from flag, falling back to the file extension.
func inputFormat(c *cli.Context, name, fallback string) (string, error) {
	if from := c.String("from"); from != "" {
		if _, ok := input.Lookup(from); !ok {
			return "", usageErrorf("unknown input format %q (have %s)", from, strings.Join(input.Names(), ", "))
		}
		return from, nil
	}
	if f, ok := input.Detect(name); ok {
		return f, nil
	}
	if fallback != "" {
		return fallback, nil
	}
	return "", usageErrorf("cannot detect the format of %q; use --from", name)
}

// output is where a command writes its result: stdout or the -o file,
// optionally gzip-compressed.
type output struct {
	io.Writer
	closers []io.Closer
}

func openOutput(c *cli.Context, gz bool) (*output, error) {
	out := &output{Writer: c.App.Writer}
	if path := c.String("output"); path != "" && path != "-" {
		f, err := os.Create(path)
		if err != nil {
			return nil, err
		}
		out.Writer = f
		out.closers = append(out.closers, f)
	}
	if gz {
		zw := gzip.NewWriter(out.Writer)
		out.Writer = zw
		out.closers = append([]io.Closer{zw}, out.closers...)
	}
	return out, nil
}

func (o *output) Close() (err error) {
	for _, c := range o.closers {
		if e := c.Close(); err == nil {
			err = e
		}
	}
	return
}

// isTerminal reports whether w is attached to a terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func outputFlags() []cli.Flag {
	return []cli.Flag{
		&cli.PathFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "write to `file` instead of stdout",
		},
		&cli.BoolFlag{
			Name:  "gzip",
			Usage: "gzip-compress the output",
		},
	}
}
