// Package latexhtml renders the element tree built by package latex as an
// HTML fragment with an optional stylesheet.
//
// The formatter walks the tree depth-first and never aborts on content:
// unknown commands become comments, unknown environments become classed
// divs, and anything it had to repair is reported in Result.Warnings.
//
//	res, err := latexhtml.Format(root, latexhtml.WithCSS(true))
//	if err != nil {
//		return err
//	}
//	fmt.Println(res.HTML)
package latexhtml

import (
	"fmt"

	"github.com/lthibault/log"
	"github.com/pkg/errors"

	"github.com/Neumenon/lambda/lambda"
)

// ErrNotElement is returned when the root passed to Format is not an element.
var ErrNotElement = errors.New("latexhtml: root is not an element")

// Result holds the rendered document.
type Result struct {
	HTML string
	// CSS holds rules for the classes used by HTML, sorted by class name.
	// Empty unless WithCSS(true).
	CSS      string
	Warnings []FormatError
}

// FormatError describes a repair the formatter made to keep going.
type FormatError struct {
	Command string
	Env     string
	Reason  string
}

func (e FormatError) Error() string {
	switch {
	case e.Command != "":
		return fmt.Sprintf("latexhtml: \\%s: %s", e.Command, e.Reason)
	case e.Env != "":
		return fmt.Sprintf("latexhtml: environment %s: %s", e.Env, e.Reason)
	}
	return "latexhtml: " + e.Reason
}

// Loggable returns the error as structured log fields.
func (e FormatError) Loggable() map[string]interface{} {
	return log.F{
		"command": e.Command,
		"env":     e.Env,
		"reason":  e.Reason,
	}
}

// ============================================================
// Options
// ============================================================

// Option configures the formatter.
type Option func(*options)

type options struct {
	css        bool
	standalone bool
	log        log.Logger
}

// WithCSS fills Result.CSS with rules for the classes the output uses.
func WithCSS(enable bool) Option {
	return func(o *options) { o.css = enable }
}

// WithStandalone wraps the fragment in a complete HTML page with the
// stylesheet inlined.
func WithStandalone(enable bool) Option {
	return func(o *options) { o.standalone = enable }
}

// WithLogger sets the logger for warnings and diagnostics.
func WithLogger(l log.Logger) Option {
	return func(o *options) { o.log = l }
}

// ============================================================
// Formatter
// ============================================================

// Formatter renders element trees. A Formatter holds only configuration and
// may be shared; each call to Format uses its own writer state.
type Formatter struct {
	opts options
}

// New returns a formatter with the given options.
func New(opts ...Option) *Formatter {
	o := options{log: lambda.DiscardLogger()}
	for _, opt := range opts {
		opt(&o)
	}
	return &Formatter{opts: o}
}

// Format renders root with a one-off formatter.
func Format(root lambda.Item, opts ...Option) (*Result, error) {
	return New(opts...).Format(root)
}

// Format renders root, which is normally a latex_document element.
func (f *Formatter) Format(root lambda.Item) (*Result, error) {
	if root.Type() != lambda.TypeElement {
		return nil, ErrNotElement
	}
	w, err := newWriter(f.opts)
	if err != nil {
		return nil, errors.Wrap(err, "latexhtml")
	}
	defer w.close()

	w.run(root)
	res := w.result()

	f.opts.log.With(log.F{
		"bytes":    len(res.HTML),
		"warnings": len(res.Warnings),
	}).Debug("latex formatted")
	return res, nil
}
