package main

import (
	"fmt"
	"io"

	"github.com/lthibault/log"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/Neumenon/lambda/input"
	"github.com/Neumenon/lambda/internal/config"
	"github.com/Neumenon/lambda/internal/logutil"
	"github.com/Neumenon/lambda/latexhtml"
)

func formatCommand() *cli.Command {
	return &cli.Command{
		Name:         "format",
		Usage:        "render LaTeX documents as HTML",
		ArgsUsage:    "[file...]",
		OnUsageError: onUsageError,
		Flags: append([]cli.Flag{
			&cli.StringFlag{
				Name:  "from",
				Usage: "input `format`",
				Value: "latex",
			},
			&cli.StringFlag{
				Name:  "to",
				Usage: "output `format`",
				Value: "html",
			},
			&cli.BoolFlag{
				Name:  "css",
				Usage: "emit a <style> block for the classes used",
			},
			&cli.BoolFlag{
				Name:  "standalone",
				Usage: "emit a complete HTML page",
			},
		}, outputFlags()...),
		Action: formatDocs,
	}
}

func formatDocs(c *cli.Context) error {
	if from := c.String("from"); from != "latex" {
		return usageErrorf("format: unsupported input format %q (only latex)", from)
	}
	if to := c.String("to"); to != "html" {
		return usageErrorf("format: unsupported output format %q (only html); see convert", to)
	}

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	fc := cfg.Format
	if c.IsSet("css") {
		fc.CSS = c.Bool("css")
	}
	if c.IsSet("standalone") {
		fc.Standalone = c.Bool("standalone")
	}
	if c.IsSet("gzip") {
		fc.Gzip = c.Bool("gzip")
	}

	names := c.Args().Slice()
	if len(names) == 0 {
		names = []string{"-"}
	}

	logger := logutil.New(c).WithField("cmd", "format")
	f := latexhtml.New(
		latexhtml.WithCSS(fc.CSS && !fc.Standalone),
		latexhtml.WithStandalone(fc.Standalone),
		latexhtml.WithLogger(logger))

	pages, err := renderAll(c, cfg, f, logger, names)
	if err != nil {
		return err
	}

	out, err := openOutput(c, fc.Gzip)
	if err != nil {
		return err
	}
	for _, page := range pages {
		if _, err = io.WriteString(out, page); err != nil {
			break
		}
	}
	return multierr.Append(err, out.Close())
}

// renderAll formats each input on its own goroutine, with one document per
// input. Pages come back in argument order. The first failure cancels
// inputs that have not started; every failure is reported.
func renderAll(c *cli.Context, cfg *config.Config, f *latexhtml.Formatter, logger log.Logger, names []string) ([]string, error) {
	if len(names) > 1 {
		for _, name := range names {
			if name == "-" {
				return nil, usageErrorf("format: stdin cannot be combined with other inputs")
			}
		}
	}

	var (
		pages = make([]string, len(names))
		errs  = make([]error, len(names))
	)
	g, ctx := errgroup.WithContext(c.Context)
	for i, name := range names {
		i, name := i, name
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			pages[i], errs[i] = render(c, cfg, f, logger.WithField("input", name), name)
			return errs[i]
		})
	}
	if err := g.Wait(); err != nil {
		if failed := multierr.Combine(errs...); failed != nil {
			return nil, failed
		}
		return nil, err
	}
	return pages, nil
}

func render(c *cli.Context, cfg *config.Config, f *latexhtml.Formatter, logger log.Logger, name string) (string, error) {
	src, err := readInput(c, name)
	if err != nil {
		return "", err
	}

	d, err := newDocument(cfg, logger)
	if err != nil {
		return "", err
	}
	defer d.Close()

	root, err := input.Parse(d, "latex", src)
	if err != nil {
		return "", errors.Wrap(err, name)
	}

	res, err := f.Format(root)
	if err != nil {
		return "", errors.Wrap(err, name)
	}
	if len(res.Warnings) > 0 {
		logger.WithField("warnings", len(res.Warnings)).Info("formatted with repairs")
	}

	if res.CSS == "" {
		return res.HTML, nil
	}
	return fmt.Sprintf("<style>\n%s</style>\n%s", res.CSS, res.HTML), nil
}
