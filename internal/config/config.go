// Package config loads the optional YAML configuration file.
package config

import (
	"bytes"
	"io"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/Neumenon/lambda/lambda"
	"github.com/Neumenon/lambda/schema"
)

// EnvVar names the environment variable holding the config path.
const EnvVar = "LAMBDA_CONFIG"

// Config is the file's schema. Zero-valued fields keep their defaults.
type Config struct {
	Validate Validate `yaml:"validate"`
	Format   Format   `yaml:"format"`
	Pool     Pool     `yaml:"pool"`
}

type Validate struct {
	MaxDepth int  `yaml:"max_depth"`
	Strict   bool `yaml:"strict"`
	// AllowUnknownFields is nil when unset, so that strict mode decides.
	AllowUnknownFields *bool `yaml:"allow_unknown_fields"`
}

type Format struct {
	CSS        bool `yaml:"css"`
	Standalone bool `yaml:"standalone"`
	Gzip       bool `yaml:"gzip"`
}

type Pool struct {
	GrowSize     int `yaml:"grow_size"`
	TolerancePct int `yaml:"tolerance_pct"`
	Limit        int `yaml:"limit"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Validate: Validate{MaxDepth: schema.DefaultMaxDepth},
		Pool: Pool{
			GrowSize:     lambda.DefaultGrowSize,
			TolerancePct: lambda.DefaultTolerance,
		},
	}
}

// Load reads the file at path over the defaults. An empty path falls back
// to $LAMBDA_CONFIG; with neither set, Load returns the defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv(EnvVar)
	}
	if path == "" {
		return Default(), nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "config")
	}
	defer f.Close()

	c, err := Decode(f)
	return c, errors.Wrapf(err, "config: %s", path)
}

// Decode reads YAML from r over the defaults. Unknown keys are rejected.
func Decode(r io.Reader) (*Config, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	c := Default()
	if len(bytes.TrimSpace(src)) == 0 {
		return c, nil
	}

	dec := yaml.NewDecoder(bytes.NewReader(src))
	dec.KnownFields(true)
	if err = dec.Decode(c); err != nil {
		return nil, err
	}
	return c, c.check()
}

func (c *Config) check() error {
	switch {
	case c.Validate.MaxDepth <= 0:
		return errors.Errorf("validate.max_depth must be positive, got %d", c.Validate.MaxDepth)
	case c.Pool.GrowSize <= 0:
		return errors.Errorf("pool.grow_size must be positive, got %d", c.Pool.GrowSize)
	case c.Pool.TolerancePct < 0:
		return errors.Errorf("pool.tolerance_pct must not be negative, got %d", c.Pool.TolerancePct)
	case c.Pool.Limit < 0:
		return errors.Errorf("pool.limit must not be negative, got %d", c.Pool.Limit)
	}
	return nil
}

// AllowUnknown reports whether maps may carry undeclared fields. Unless set
// explicitly, unknown fields are allowed outside strict mode.
func (v Validate) AllowUnknown() bool {
	if v.AllowUnknownFields != nil {
		return *v.AllowUnknownFields
	}
	return !v.Strict
}

// Options returns validator options for v.
func (v Validate) Options() []schema.Option {
	return []schema.Option{
		schema.WithMaxDepth(v.MaxDepth),
		schema.WithStrict(v.Strict),
		schema.WithAllowUnknownFields(v.AllowUnknown()),
	}
}

// Options returns document options for p.
func (p Pool) Options() []lambda.DocOption {
	opts := []lambda.DocOption{
		lambda.WithGrowSize(p.GrowSize),
		lambda.WithTolerance(p.TolerancePct),
	}
	if p.Limit > 0 {
		opts = append(opts, lambda.WithPoolLimit(p.Limit))
	}
	return opts
}
