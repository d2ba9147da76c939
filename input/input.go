// Package input parses source documents into lambda items.
//
// Parsers are registered by format name and look like
//
//	func(d *lambda.Document, src []byte) (lambda.Item, error)
//
// Every item a parser creates is owned by d; Parse also installs the
// result as the document root.
package input

import (
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/pkg/errors"

	"github.com/Neumenon/lambda/lambda"
	"github.com/Neumenon/lambda/latex"
)

// ErrUnknownFormat is returned for an unregistered format name.
var ErrUnknownFormat = errors.New("input: unknown format")

// maxDepth bounds nesting in parsers that recurse over their input.
const maxDepth = 512

// ParseFunc parses src into items owned by d.
type ParseFunc func(d *lambda.Document, src []byte) (lambda.Item, error)

var registry = struct {
	sync.RWMutex
	m map[string]ParseFunc
}{m: map[string]ParseFunc{
	"mark":     Mark,
	"json":     lambda.FromJSON,
	"yaml":     YAML,
	"toml":     TOML,
	"ini":      INI,
	"latex":    latex.ParseDocument,
	"markdown": Markdown,
}}

// Register adds or replaces the parser for name.
func Register(name string, f ParseFunc) {
	registry.Lock()
	defer registry.Unlock()
	registry.m[name] = f
}

// Lookup returns the parser registered for name.
func Lookup(name string) (ParseFunc, bool) {
	registry.RLock()
	defer registry.RUnlock()
	f, ok := registry.m[name]
	return f, ok
}

// Names returns the registered format names, sorted.
func Names() []string {
	registry.RLock()
	defer registry.RUnlock()
	names := make([]string, 0, len(registry.m))
	for name := range registry.m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Parse parses src with the parser for format and sets the document root.
func Parse(d *lambda.Document, format string, src []byte) (lambda.Item, error) {
	f, ok := Lookup(format)
	if !ok {
		return lambda.Null, errors.Wrap(ErrUnknownFormat, format)
	}
	it, err := f(d, src)
	if err != nil {
		return lambda.Null, errors.Wrapf(err, "input: %s", format)
	}
	d.SetRoot(it)
	d.Log().WithField("format", format).Debug("input parsed")
	return it, nil
}

var extensions = map[string]string{
	".mk":       "mark",
	".mark":     "mark",
	".ls":       "mark",
	".json":     "json",
	".yaml":     "yaml",
	".yml":      "yaml",
	".toml":     "toml",
	".ini":      "ini",
	".cfg":      "ini",
	".tex":      "latex",
	".latex":    "latex",
	".md":       "markdown",
	".markdown": "markdown",
}

// Detect returns the format for a file name's extension.
func Detect(filename string) (string, bool) {
	f, ok := extensions[strings.ToLower(filepath.Ext(filename))]
	return f, ok
}

// Mark parses Mark notation.
func Mark(d *lambda.Document, src []byte) (lambda.Item, error) {
	return lambda.ParseMark(d, string(src))
}
