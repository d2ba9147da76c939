package main

import (
	"fmt"
	"os"

	"github.com/lthibault/log"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	"github.com/Neumenon/lambda/input"
	"github.com/Neumenon/lambda/internal/logutil"
	"github.com/Neumenon/lambda/schema"
)

func validateCommand() *cli.Command {
	return &cli.Command{
		Name:         "validate",
		Usage:        "check a document against a schema",
		ArgsUsage:    "[file]",
		OnUsageError: onUsageError,
		Flags: []cli.Flag{
			&cli.PathFlag{
				Name:    "schema",
				Aliases: []string{"s"},
				Usage:   "schema `file` (.ls)",
			},
			&cli.StringFlag{
				Name:  "type",
				Usage: "validate against type `T` instead of the first declared",
			},
			&cli.StringFlag{
				Name:  "from",
				Usage: "input `format`; detected from the file extension when omitted",
			},
			&cli.BoolFlag{
				Name:  "strict",
				Usage: "reject undeclared fields and attributes",
			},
			&cli.BoolFlag{
				Name:  "allow-unknown",
				Usage: "accept undeclared fields, even in strict mode",
			},
			&cli.IntFlag{
				Name:  "max-depth",
				Usage: "stop descending after `N` levels",
			},
		},
		Action: validate,
	}
}

func validate(c *cli.Context) error {
	if c.NArg() > 1 {
		return usageErrorf("validate takes at most one input, got %d", c.NArg())
	}
	if c.String("schema") == "" {
		return usageErrorf("validate: --schema is required")
	}

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	vc := cfg.Validate
	if c.IsSet("strict") {
		vc.Strict = c.Bool("strict")
	}
	if c.IsSet("allow-unknown") {
		allow := c.Bool("allow-unknown")
		vc.AllowUnknownFields = &allow
	}
	if c.IsSet("max-depth") {
		if vc.MaxDepth = c.Int("max-depth"); vc.MaxDepth <= 0 {
			return usageErrorf("validate: --max-depth must be positive")
		}
	}

	src, err := os.ReadFile(c.String("schema"))
	if err != nil {
		return cli.Exit(fmt.Sprintf("lambda: %v", err), exitUsage)
	}
	s, err := schema.Parse(string(src))
	if err != nil {
		return cli.Exit(fmt.Sprintf("lambda: schema %s: %v", c.String("schema"), err), exitUsage)
	}
	defer s.Close()

	name := c.Args().First()
	format, err := inputFormat(c, name, "mark")
	if err != nil {
		return err
	}

	logger := logutil.New(c).With(log.F{
		"cmd":    "validate",
		"input":  name,
		"format": format,
	})

	d, err := newDocument(cfg, logger)
	if err != nil {
		return err
	}
	defer d.Close()

	data, err := readInput(c, name)
	if err != nil {
		return err
	}

	var res *schema.ValidationResult
	if it, err := input.Parse(d, format, data); err != nil {
		res = schema.ParseErrorResult(err)
	} else {
		v := schema.NewValidator(s, append(vc.Options(), schema.WithLogger(logger))...)
		if typ := c.String("type"); typ != "" {
			if res, err = v.ValidateAs(it, typ); errors.Is(err, schema.ErrUnknownType) {
				return usageErrorf("validate: schema declares no type %q", typ)
			}
		} else {
			res = v.Validate(it)
		}
	}

	report(c, name, res)
	if !res.Valid {
		return cli.Exit("", exitInvalid)
	}
	return nil
}

// report writes one "CODE path: message" line per error to stderr. On a
// terminal it also summarizes the outcome.
func report(c *cli.Context, name string, res *schema.ValidationResult) {
	if name == "" {
		name = "<stdin>"
	}

	fmt.Fprint(c.App.ErrWriter, schema.FormatErrors(res))
	switch {
	case !isTerminal(c.App.ErrWriter):
	case res.Valid:
		fmt.Fprintf(c.App.ErrWriter, "%s: valid\n", name)
	default:
		fmt.Fprintf(c.App.ErrWriter, "%s: %d error(s)\n", name, res.ErrorCount)
	}
}
