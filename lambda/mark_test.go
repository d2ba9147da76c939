package lambda_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Neumenon/lambda/lambda"
)

func parse(t *testing.T, d *lambda.Document, src string) lambda.Item {
	t.Helper()
	it, err := lambda.ParseMark(d, src)
	require.NoError(t, err, src)
	return it
}

func TestParseMarkScalars(t *testing.T) {
	d := newDoc(t)

	tests := []struct {
		src  string
		want lambda.TypeID
	}{
		{"null", lambda.TypeNull},
		{"true", lambda.TypeBool},
		{"42", lambda.TypeInt},
		{"-1_000", lambda.TypeInt},
		{"3.14", lambda.TypeFloat},
		{"1e9", lambda.TypeFloat},
		{"-inf", lambda.TypeFloat},
		{"12.50n", lambda.TypeDecimal},
		{`"text"`, lambda.TypeString},
		{"'sym'", lambda.TypeSymbol},
		{"bare", lambda.TypeSymbol},
		{"b'AAEC'", lambda.TypeBinary},
		{"t'2025-01-02T10:00:00Z'", lambda.TypeDateTime},
		{"t'2025-01-02'", lambda.TypeDateTime},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			it := parse(t, d, tt.src)
			assert.Equal(t, tt.want, it.Type())
		})
	}
}

func TestParseMarkSetsRoot(t *testing.T) {
	d := newDoc(t)
	it := parse(t, d, "{a: 1}")
	assert.True(t, it.Same(d.Root()))
}

func TestParseMarkElement(t *testing.T) {
	d := newDoc(t)
	it := parse(t, d, `<doc title: "T", lang: en; "intro" <p; "body"> 3>`)

	el := lambda.Read(it).AsElement()
	assert.Equal(t, "doc", el.TagName())
	assert.Equal(t, "T", el.AttrString("title"))
	assert.Equal(t, "en", el.AttrString("lang"))
	assert.Equal(t, 3, el.ChildCount())
	assert.Equal(t, "intro", el.Child(0).AsString())
	assert.Equal(t, "p", el.Child(1).AsElement().TagName())
	assert.Equal(t, int64(3), el.Child(2).AsInt())
	assert.Equal(t, "introbody", el.TextContent())
}

func TestParseMarkErrors(t *testing.T) {
	d := newDoc(t)

	tests := []struct {
		name string
		src  string
		line int
	}{
		{"unterminated string", `"abc`, 1},
		{"missing colon", "{a 1}", 1},
		{"unclosed array", "[1, 2", 1},
		{"trailing value", "1 2", 1},
		{"bad element tag", "<1>", 1},
		{"second line", "{\n  a: ]\n}", 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := lambda.ParseMark(d, tt.src)
			require.Error(t, err)
			var pe *lambda.ParseError
			require.ErrorAs(t, err, &pe)
			assert.Equal(t, tt.line, pe.Pos.Line)
		})
	}
}

func TestMarkRoundTrip(t *testing.T) {
	d := newDoc(t)

	inputs := []string{
		`{name: "Ada", age: 36, tags: ['math', 'code'], ok: true, none: null}`,
		`[1, 2.5, 3.0, 12.50n, "x\ny"]`,
		`(1, "two", 'three')`,
		`<a href: "url"; "text", <b; "bold">>`,
		`{"with space": 1, "null": 2}`,
		`b'AAEC'`,
		`t'2025-01-02T10:00:00Z'`,
	}
	for _, src := range inputs {
		t.Run(src, func(t *testing.T) {
			first := parse(t, d, src)
			text := lambda.EmitMark(first)
			second := parse(t, d, text)
			assert.Equal(t, text, lambda.EmitMark(second))
			assert.Equal(t, lambda.Hash(first), lambda.Hash(second))
		})
	}
}

func TestEmitMarkForms(t *testing.T) {
	d := newDoc(t)
	it := parse(t, d, `{a: 1, b: [2.0, inf], c: <p id: x; "t">}`)
	assert.Equal(t, `{a: 1, b: [2.0, inf], c: <p id: 'x'; "t">}`, lambda.EmitMark(it))

	indented := lambda.EmitMarkWithOptions(parse(t, d, "[1, 2]"), lambda.MarkOptions{Indent: "  "})
	assert.Equal(t, "[\n  1,\n  2\n]", indented)
}

func TestCanonicalSortsKeys(t *testing.T) {
	d := newDoc(t)
	a := parse(t, d, "{b: 1, a: 2}")
	b := parse(t, d, "{a: 2, b: 1}")

	assert.Equal(t, lambda.Canonical(a), lambda.Canonical(b))
	assert.Equal(t, lambda.HashHex(a), lambda.HashHex(b))
	assert.NotEqual(t, lambda.EmitMark(a), lambda.EmitMark(b))
}

func TestReaderIteration(t *testing.T) {
	d := newDoc(t)
	it := parse(t, d, `{z: 1, a: "two", m: [1, 2, 3]}`)

	r := lambda.Read(it)
	require.True(t, r.IsMap())
	m := r.AsMap()
	assert.Equal(t, 3, m.Size())

	var names []string
	for name := range m.Entries() {
		names = append(names, name)
	}
	assert.Equal(t, []string{"z", "a", "m"}, names)

	assert.True(t, m.Has("a"))
	assert.False(t, m.Has("q"))
	assert.True(t, m.Get("q").IsNull())
	assert.True(t, m.Get("a").IsString())
	assert.True(t, m.Get("a").IsText())

	arr := m.Get("m").AsArray()
	var sum int64
	for v := range arr.Items() {
		sum += v.AsInt()
	}
	assert.Equal(t, int64(6), sum)
	assert.Equal(t, 1.0, arr.At(0).AsFloat())
}

func TestReaderPredicates(t *testing.T) {
	d := newDoc(t)
	list := lambda.Read(parse(t, d, "(1, 2)"))
	assert.True(t, list.IsList())
	assert.True(t, list.IsSequence())
	assert.False(t, list.IsArray())
	assert.Equal(t, 2, list.AsArray().Length())

	big := lambda.Read(d.Int(lambda.MaxInlineInt + 10))
	assert.True(t, big.IsInt())
	assert.Equal(t, lambda.MaxInlineInt+10, big.AsInt())
}
