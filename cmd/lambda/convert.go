package main

import (
	"io"
	"strings"

	"github.com/lthibault/log"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"go.uber.org/multierr"

	"github.com/Neumenon/lambda/format"
	"github.com/Neumenon/lambda/input"
	"github.com/Neumenon/lambda/internal/logutil"
	"github.com/Neumenon/lambda/latexhtml"
	"github.com/Neumenon/lambda/lambda"
)

func convertCommand() *cli.Command {
	return &cli.Command{
		Name:         "convert",
		Usage:        "convert a document between formats",
		ArgsUsage:    "[file]",
		OnUsageError: onUsageError,
		Flags: append([]cli.Flag{
			&cli.StringFlag{
				Name:  "from",
				Usage: "input `format`; detected from the file extension when omitted",
			},
			&cli.StringFlag{
				Name:  "to",
				Usage: "output `format`: " + strings.Join(append(format.Names(), "html"), ", "),
			},
		}, outputFlags()...),
		Action: convert,
	}
}

func convert(c *cli.Context) error {
	if c.NArg() > 1 {
		return usageErrorf("convert takes at most one input, got %d", c.NArg())
	}

	to := c.String("to")
	emit, ok := format.Lookup(to)
	switch {
	case to == "":
		return usageErrorf("convert: --to is required")
	case to == "html":
		emit = html
	case !ok:
		return usageErrorf("unknown output format %q (have %s)", to, strings.Join(format.Names(), ", "))
	}

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	name := c.Args().First()
	from, err := inputFormat(c, name, "")
	if err != nil {
		return err
	}

	logger := logutil.New(c).With(log.F{
		"cmd":  "convert",
		"from": from,
		"to":   to,
	})

	src, err := readInput(c, name)
	if err != nil {
		return err
	}

	d, err := newDocument(cfg, logger)
	if err != nil {
		return err
	}
	defer d.Close()

	root, err := input.Parse(d, from, src)
	if err != nil {
		return err
	}
	text, err := emit(root)
	if err != nil {
		return errors.Wrapf(err, "convert to %s", to)
	}

	gz := cfg.Format.Gzip
	if c.IsSet("gzip") {
		gz = c.Bool("gzip")
	}
	out, err := openOutput(c, gz)
	if err != nil {
		return err
	}
	_, err = io.WriteString(out, text)
	return multierr.Append(err, out.Close())
}

// html renders an element tree, e.g. parsed LaTeX, as an HTML fragment.
func html(root lambda.Item) (string, error) {
	res, err := latexhtml.Format(root)
	if err != nil {
		return "", err
	}
	return res.HTML, nil
}
