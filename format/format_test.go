package format_test

import (
	"testing"

	"github.com/BurntSushi/toml"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/Neumenon/lambda/format"
	"github.com/Neumenon/lambda/lambda"
)

func mark(t *testing.T, src string) lambda.Item {
	t.Helper()
	d, err := lambda.NewDocument(lambda.WithGrowSize(8192))
	require.NoError(t, err)
	t.Cleanup(func() { d.Close() })

	it, err := lambda.ParseMark(d, src)
	require.NoError(t, err, src)
	return it
}

const config = `{
	title: "x \"q\"",
	n: 3,
	f: 1.5,
	on: true,
	tags: ["a", "b"],
	none: null,
	"odd key": 1,
	owner: {name: "y", dob: t'1979-05-27T07:32:00Z'},
	items: [{a: 1}, {a: 2, sub: {k: "v"}}]
}`

func TestTOML(t *testing.T) {
	out, err := format.TOML(mark(t, config))
	require.NoError(t, err)
	assert.Equal(t, `title = "x \"q\""
n = 3
f = 1.5
on = true
tags = ["a", "b"]
"odd key" = 1

[owner]
name = "y"
dob = 1979-05-27T07:32:00Z

[[items]]
a = 1

[[items]]
a = 2

[items.sub]
k = "v"
`, out)

	var decoded map[string]interface{}
	_, err = toml.Decode(out, &decoded)
	require.NoError(t, err, out)
	assert.Equal(t, `x "q"`, decoded["title"])
	assert.Equal(t, int64(3), decoded["n"])
	assert.NotContains(t, decoded, "none")

	items := decoded["items"].([]map[string]interface{})
	require.Len(t, items, 2)
	assert.Equal(t, "v", items[1]["sub"].(map[string]interface{})["k"])
}

func TestTOMLInlineTables(t *testing.T) {
	out, err := format.TOML(mark(t, `{mixed: [1, {a: 2}], empty: []}`))
	require.NoError(t, err)
	assert.Equal(t, "mixed = [1, { a = 2 }]\nempty = []\n", out)
}

func TestTOMLErrors(t *testing.T) {
	_, err := format.TOML(mark(t, `[1, 2]`))
	assert.ErrorIs(t, err, format.ErrRootNotMap)

	_, err = format.TOML(mark(t, `{a: {b: <x>}}`))
	var ue *format.UnsupportedError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, "a.b", ue.Path)
	assert.Equal(t, lambda.TypeElement, ue.Type)
}

func TestINI(t *testing.T) {
	out, err := format.INI(mark(t, `{
		name: "app",
		debug: false,
		server: {host: "localhost", port: 8080, tls: {cert: "a b"}},
		list: [1, 2, 3],
		empty: null,
		note: "a;b"
	}`))
	require.NoError(t, err)
	assert.Equal(t, `name = app
debug = false
list = 1, 2, 3
empty =
note = "a;b"

[server]
host = localhost
port = 8080

[server.tls]
cert = a b
`, out)

	_, err = format.INI(mark(t, `{a: [[1]]}`))
	var ue *format.UnsupportedError
	assert.ErrorAs(t, err, &ue)
}

const graph = `<graph name: "G";
	<node id: "a", label: "Start", shape: "box">,
	<node id: "b">,
	<edge from: "a", to: "b", label: "go">,
	<subgraph id: "s", label: "S"; <node id: "c">, <edge from: "b", to: "c", style: "dashed">>
>`

func TestDOT(t *testing.T) {
	out, err := format.DOT(mark(t, graph))
	require.NoError(t, err)
	assert.Equal(t, `digraph G {
  a [label="Start", shape=box];
  b;
  a -> b [label="go"];
  subgraph cluster_s {
    label="S";
    c;
    b -> c [style=dashed];
  }
}
`, out)

	out, err = format.DOT(mark(t, `<graph kind: "undirected"; <edge from: "x y", to: "z">>`))
	require.NoError(t, err)
	assert.Equal(t, "graph {\n  \"x y\" -- z;\n}\n", out)
}

func TestMermaid(t *testing.T) {
	out, err := format.Mermaid(mark(t, graph))
	require.NoError(t, err)
	assert.Equal(t, `flowchart TD
  a["Start"]
  b
  a -->|go| b
  subgraph s ["S"]
    c
    b -.-> c
  end
`, out)
}

func TestD2(t *testing.T) {
	out, err := format.D2(mark(t, graph))
	require.NoError(t, err)
	assert.Equal(t, `a: Start {
  shape: rectangle
}
b
a -> b: go
s: S {
  c
  b -> c {
    style.stroke-dash: 3
  }
}
`, out)
}

func TestGraphErrors(t *testing.T) {
	for _, src := range []string{`{a: 1}`, `<tree>`} {
		_, err := format.DOT(mark(t, src))
		assert.ErrorIs(t, err, format.ErrNotGraph, src)
	}
	_, err := format.DOT(mark(t, `<graph; <node label: "x">>`))
	assert.Error(t, err)
	_, err = format.DOT(mark(t, `<graph kind: "weird">`))
	assert.Error(t, err)
}

func TestYAML(t *testing.T) {
	out, err := format.YAML(mark(t, `{a: 1, b: [true, "x"], c: {d: null}, e: <p class: "c"; "hi">}`))
	require.NoError(t, err)
	assert.Regexp(t, `^a: 1\nb:\n  - true\n  - x\nc:\n  d: null\n`, out)

	var decoded map[string]interface{}
	require.NoError(t, yaml.Unmarshal([]byte(out), &decoded))
	assert.Equal(t, map[string]interface{}{
		"$tag":      "p",
		"class":     "c",
		"$children": []interface{}{"hi"},
	}, decoded["e"])
}

func TestRegistry(t *testing.T) {
	assert.Subset(t, format.Names(), []string{"d2", "dot", "ini", "json", "mark", "mermaid", "toml", "yaml"})

	out, err := format.Emit("json", mark(t, `{a: [1, "x"]}`))
	require.NoError(t, err)
	assert.JSONEq(t, `{"a": [1, "x"]}`, out)

	out, err = format.Emit("mark", mark(t, `[1]`))
	require.NoError(t, err)
	assert.Contains(t, out, "1")

	_, err = format.Emit("pdf", lambda.Null)
	assert.ErrorIs(t, err, format.ErrUnknownFormat)

	format.Register("count", func(it lambda.Item) (string, error) {
		return "one", nil
	})
	e, ok := format.Lookup("count")
	require.True(t, ok)
	out, err = e(lambda.Null)
	require.NoError(t, err)
	assert.Equal(t, "one", out)
}
