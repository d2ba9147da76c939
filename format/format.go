// Package format renders items as text documents: TOML, INI, YAML, JSON,
// Mark, and the graph languages DOT, Mermaid and D2.
//
// Every emitter reads its input through the lambda Reader API and keeps
// map entries in shape order. Emitters are looked up by name:
//
//	out, err := format.Emit("toml", root)
package format

import (
	"sort"
	"sync"

	"github.com/pkg/errors"

	"github.com/Neumenon/lambda/lambda"
)

var (
	// ErrUnknownFormat is returned by Emit for an unregistered name.
	ErrUnknownFormat = errors.New("format: unknown output format")

	// ErrRootNotMap is returned by TOML and INI when the root is not a map.
	ErrRootNotMap = errors.New("format: root must be a map")

	// ErrNotGraph is returned by the graph emitters when the root is not a
	// graph element.
	ErrNotGraph = errors.New("format: root is not a graph element")
)

// UnsupportedError reports a value the target format cannot represent.
type UnsupportedError struct {
	Format string
	Path   string
	Type   lambda.TypeID
}

func (e *UnsupportedError) Error() string {
	return "format: " + e.Format + " cannot represent " + e.Type.String() + " at " + e.Path
}

// Emitter renders an item.
type Emitter func(it lambda.Item) (string, error)

var registry = struct {
	sync.RWMutex
	m map[string]Emitter
}{m: map[string]Emitter{
	"mark":    Mark,
	"json":    JSON,
	"yaml":    YAML,
	"toml":    TOML,
	"ini":     INI,
	"dot":     DOT,
	"mermaid": Mermaid,
	"d2":      D2,
}}

// Register adds or replaces the emitter for name.
func Register(name string, e Emitter) {
	registry.Lock()
	defer registry.Unlock()
	registry.m[name] = e
}

// Lookup returns the emitter registered for name.
func Lookup(name string) (Emitter, bool) {
	registry.RLock()
	defer registry.RUnlock()
	e, ok := registry.m[name]
	return e, ok
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

// Emit renders it with the emitter registered for name.
func Emit(name string, it lambda.Item) (string, error) {
	e, ok := Lookup(name)
	if !ok {
		return "", errors.Wrap(ErrUnknownFormat, name)
	}
	return e(it)
}

// Mark renders it in Mark notation.
func Mark(it lambda.Item) (string, error) {
	return lambda.EmitMarkWithOptions(it, lambda.MarkOptions{Indent: "  "}) + "\n", nil
}

// JSON renders it as indented JSON.
func JSON(it lambda.Item) (string, error) {
	b, err := lambda.ToJSONIndent(it, "  ")
	if err != nil {
		return "", errors.Wrap(err, "format")
	}
	return string(b) + "\n", nil
}
