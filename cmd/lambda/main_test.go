package main

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type result struct {
	code           int
	stdout, stderr string
}

func lambdaCmd(t *testing.T, stdin string, args ...string) result {
	t.Helper()

	var stdout, stderr bytes.Buffer
	code := run(append([]string{"lambda", "--logfmt", "none"}, args...), strings.NewReader(stdin), &stdout, &stderr)
	return result{code: code, stdout: stdout.String(), stderr: stderr.String()}
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

const personSchema = "type Person = {name: string, age: int}\n"

func TestValidate(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	s := writeFile(t, dir, "person.ls", personSchema)

	good := writeFile(t, dir, "good.json", `{"name": "Ada", "age": 36}`)
	r := lambdaCmd(t, "", "validate", "--schema", s, good)
	assert.Equal(t, 0, r.code, r.stderr)
	assert.Empty(t, r.stderr)

	bad := writeFile(t, dir, "bad.json", `{"name": 7}`)
	r = lambdaCmd(t, "", "validate", "--schema", s, bad)
	assert.Equal(t, 1, r.code)
	assert.Contains(t, r.stderr, "TYPE_MISMATCH /name")
	assert.Contains(t, r.stderr, "MISSING_FIELD /age")

	r = lambdaCmd(t, `{name: "Ada", age: 36}`, "validate", "--schema", s, "--from", "mark", "-")
	assert.Equal(t, 0, r.code, r.stderr)

	r = lambdaCmd(t, `{name: `, "validate", "--schema", s, "--from", "mark")
	assert.Equal(t, 1, r.code)
	assert.Contains(t, r.stderr, "PARSE_ERROR")
}

func TestValidateStrict(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	s := writeFile(t, dir, "person.ls", personSchema)
	extra := writeFile(t, dir, "extra.yaml", "name: Ada\nage: 36\nnick: ada\n")

	assert.Equal(t, 0, lambdaCmd(t, "", "validate", "-s", s, extra).code)

	r := lambdaCmd(t, "", "validate", "-s", s, "--strict", extra)
	assert.Equal(t, 1, r.code)
	assert.Contains(t, r.stderr, "UNKNOWN_FIELD /nick")

	assert.Equal(t, 0, lambdaCmd(t, "", "validate", "-s", s, "--strict", "--allow-unknown", extra).code)

	cfg := writeFile(t, dir, "lambda.yaml", "validate:\n  strict: true\n")
	assert.Equal(t, 1, lambdaCmd(t, "", "--config", cfg, "validate", "-s", s, extra).code)
	assert.Equal(t, 0, lambdaCmd(t, "", "--config", cfg, "validate", "-s", s, "--strict=false", extra).code,
		"flags override the config file")
}

func TestValidateUsage(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	s := writeFile(t, dir, "person.ls", personSchema)
	doc := writeFile(t, dir, "doc.json", `{}`)

	for _, args := range [][]string{
		{"validate", doc},
		{"validate", "--schema", s, doc, doc},
		{"validate", "--schema", s, "--type", "Nope", doc},
		{"validate", "--schema", s, "--from", "pdf", doc},
		{"validate", "--schema", s, "--max-depth", "0", doc},
		{"validate", "--schema", writeFile(t, dir, "broken.ls", "type = ]"), doc},
		{"validate", "--schema", filepath.Join(dir, "missing.ls"), doc},
		{"validate", "--bogus"},
		{"--config", filepath.Join(dir, "missing.yaml"), "validate", "--schema", s, doc},
	} {
		r := lambdaCmd(t, "", args...)
		assert.Equal(t, 2, r.code, "%v: %s", args, r.stderr)
	}
}

func TestFormat(t *testing.T) {
	t.Parallel()

	r := lambdaCmd(t, "\\section{Intro}\nHello.", "format")
	require.Equal(t, 0, r.code, r.stderr)
	assert.Equal(t, "<div class=\"body\">\n<h2 id=\"sec-1\">1\u2003Intro</h2>\n<p>Hello.</p>\n</div>", r.stdout)

	r = lambdaCmd(t, `\textbf{B}`, "format", "--css")
	require.Equal(t, 0, r.code, r.stderr)
	assert.True(t, strings.HasPrefix(r.stdout, "<style>\n"), r.stdout)
	assert.Contains(t, r.stdout, ".bf")

	r = lambdaCmd(t, `x`, "format", "--standalone")
	require.Equal(t, 0, r.code, r.stderr)
	assert.True(t, strings.HasPrefix(r.stdout, "<!DOCTYPE html>"), r.stdout)
}

func TestFormatMany(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	var args []string
	for _, word := range []string{"Alpha", "Beta", "Gamma", "Delta"} {
		args = append(args, writeFile(t, dir, word+".tex", word))
	}

	r := lambdaCmd(t, "", append([]string{"format"}, args...)...)
	require.Equal(t, 0, r.code, r.stderr)
	assert.Equal(t,
		`<div class="body"><p>Alpha</p></div>`+
			`<div class="body"><p>Beta</p></div>`+
			`<div class="body"><p>Gamma</p></div>`+
			`<div class="body"><p>Delta</p></div>`,
		r.stdout)

	r = lambdaCmd(t, "", "format", args[0], filepath.Join(dir, "missing.tex"), args[1])
	assert.Equal(t, 1, r.code)
	assert.Contains(t, r.stderr, "missing.tex")
	assert.Empty(t, r.stdout)

	assert.Equal(t, 2, lambdaCmd(t, "", "format", "-", args[0]).code)
	assert.Equal(t, 2, lambdaCmd(t, "", "format", "--to", "pdf").code)
	assert.Equal(t, 2, lambdaCmd(t, "", "format", "--from", "json").code)
}

func TestFormatGzip(t *testing.T) {
	t.Parallel()

	out := filepath.Join(t.TempDir(), "out.html.gz")
	r := lambdaCmd(t, "Hello", "format", "--gzip", "-o", out)
	require.Equal(t, 0, r.code, r.stderr)
	assert.Empty(t, r.stdout)

	f, err := os.Open(out)
	require.NoError(t, err)
	defer f.Close()

	zr, err := gzip.NewReader(f)
	require.NoError(t, err)
	html, err := io.ReadAll(zr)
	require.NoError(t, err)
	assert.Equal(t, `<div class="body"><p>Hello</p></div>`, string(html))
}

func TestConvert(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	in := writeFile(t, dir, "app.json", `{"name": "app", "server": {"port": 8080}}`)

	r := lambdaCmd(t, "", "convert", "--to", "toml", in)
	require.Equal(t, 0, r.code, r.stderr)
	assert.Equal(t, "name = \"app\"\n\n[server]\nport = 8080\n", r.stdout)

	r = lambdaCmd(t, "", "convert", "--to", "ini", in)
	require.Equal(t, 0, r.code, r.stderr)
	assert.Equal(t, "name = app\n\n[server]\nport = 8080\n", r.stdout)

	r = lambdaCmd(t, "a: [1, 2]\n", "convert", "--from", "yaml", "--to", "json")
	require.Equal(t, 0, r.code, r.stderr)
	assert.JSONEq(t, `{"a": [1, 2]}`, r.stdout)

	r = lambdaCmd(t, `<graph; <edge from: "a", to: "b">>`, "convert", "--from", "mark", "--to", "dot")
	require.Equal(t, 0, r.code, r.stderr)
	assert.Equal(t, "digraph {\n  a -> b;\n}\n", r.stdout)

	r = lambdaCmd(t, `\emph{x}`, "convert", "--from", "latex", "--to", "html")
	require.Equal(t, 0, r.code, r.stderr)
	assert.Equal(t, `<div class="body"><p><span class="it">x</span></p></div>`, r.stdout)
}

func TestConvertErrors(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 2, lambdaCmd(t, "{}", "convert", "--from", "json").code)
	assert.Equal(t, 2, lambdaCmd(t, "{}", "convert", "--from", "json", "--to", "pdf").code)
	assert.Equal(t, 2, lambdaCmd(t, "{}", "convert", "--to", "toml").code, "stdin needs --from")

	r := lambdaCmd(t, "[1]", "convert", "--from", "json", "--to", "toml")
	assert.Equal(t, 1, r.code)
	assert.Contains(t, r.stderr, "convert to toml")

	r = lambdaCmd(t, "{", "convert", "--from", "json", "--to", "yaml")
	assert.Equal(t, 1, r.code)
	assert.Contains(t, r.stderr, "input: json")
}

func TestApp(t *testing.T) {
	t.Parallel()

	r := lambdaCmd(t, "", "version")
	assert.Equal(t, 0, r.code)
	assert.Contains(t, r.stdout, "lambda "+version)
	assert.Contains(t, r.stdout, "latex")

	assert.Equal(t, 2, lambdaCmd(t, "").code)
	assert.Equal(t, 2, lambdaCmd(t, "", "explode").code)
	assert.Equal(t, 2, lambdaCmd(t, "", "--nope").code)
}
