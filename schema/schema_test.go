package schema_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Neumenon/lambda/lambda"
	"github.com/Neumenon/lambda/schema"
)

func TestParseDeclarations(t *testing.T) {
	s := mustSchema(t, `
// authors and their work
type Author = {name: string, email: string?, tags: [symbol]}
type Pair   = (int, string)
type Fixed  = [float; 3]
type Doc    = <doc title: string; Section*>
type Section = <section; (string | Author)+>
`)

	assert.Equal(t, []string{"Author", "Pair", "Fixed", "Doc", "Section"}, s.Order)
	assert.Equal(t, "Author", s.RootName())

	author, ok := s.Lookup("Author")
	require.True(t, ok)
	mt, ok := author.(*lambda.MapType)
	require.True(t, ok)
	assert.Equal(t, 3, mt.Length)
	email, idx := mt.Lookup("email")
	require.NotNil(t, email)
	assert.Equal(t, 1, idx)
	assert.Equal(t, "string?", email.Type.String())

	fixed, _ := s.Lookup("Fixed")
	assert.Equal(t, 3, fixed.(*lambda.ArrayType).Length)

	pair, _ := s.Lookup("Pair")
	assert.Len(t, pair.(*lambda.ListType).Members, 2)

	doc, _ := s.Lookup("Doc")
	et := doc.(*lambda.ElementType)
	assert.Equal(t, "doc", et.Name.String())
	assert.Equal(t, -1, et.ContentLength)
	require.Len(t, et.Content, 1)
	ref := et.Content[0].(*lambda.OccurrenceType).Operand.(*lambda.RefType)
	assert.Equal(t, "Section", ref.Name)
	assert.NotNil(t, ref.Target)
}

func TestParseContainerPrimitives(t *testing.T) {
	s := mustSchema(t, `type T = {a: array, l: list, m: map, e: element, n: null}`)
	root := s.Root().(*lambda.MapType)

	kinds := map[string]lambda.TypeID{}
	for _, e := range root.Entries() {
		kinds[e.Name.String()] = e.Type.TypeID()
	}
	assert.Equal(t, map[string]lambda.TypeID{
		"a": lambda.TypeArray,
		"l": lambda.TypeList,
		"m": lambda.TypeMap,
		"e": lambda.TypeElement,
		"n": lambda.TypeNull,
	}, kinds)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		line int
	}{
		{"missing keyword", `Author = int`, 1},
		{"missing equals", `type A int`, 1},
		{"undefined reference", "type A = {b: B}", 1},
		{"duplicate type", "type A = int\ntype A = string", 2},
		{"duplicate field", "type A = {x: int,\n x: int}", 2},
		{"bad length", "type A = [int; x]", 1},
		{"unclosed map", "type A = {x: int", 1},
		{"alias cycle", "type A = B\ntype B = A", 1},
		{"self union", "type A = int\ntype B = B | int", 2},
		{"self occurrence", "type A = A?", 1},
		{"union cycle", "type A = B | int\ntype B = string | A*", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := schema.Parse(tt.src)
			require.Error(t, err)
			var pe *lambda.ParseError
			require.ErrorAs(t, err, &pe)
			assert.Equal(t, tt.line, pe.Pos.Line, err.Error())
		})
	}
}

func TestParseNestedRecursion(t *testing.T) {
	for _, src := range []string{
		"type A = {next: A?}",
		"type A = [A] | int",
		"type A = <a; A*>",
		"type A = B | null\ntype B = (int, A)",
	} {
		_, err := schema.Parse(src)
		assert.NoError(t, err, src)
	}
}

func TestCanonical(t *testing.T) {
	a := mustSchema(t, "type B = {x: int}\ntype A = [B]")
	b := mustSchema(t, "type A = [B]\ntype B = {x: int}")
	assert.Equal(t, a.Canonical(), b.Canonical())
	assert.Equal(t, "type A = [B]\ntype B = {x: int}\n", a.Canonical())
}

func TestPathString(t *testing.T) {
	var root *schema.PathSegment
	assert.Equal(t, "/", root.String())

	res := schema.NewValidator(mustSchema(t, `type T = {a: [<p id: int>]}`)).
		Validate(mustValue(t, `{a: [<p id: "x">]}`))
	require.Equal(t, 1, res.ErrorCount)

	p := res.Errors.Path
	assert.Equal(t, "/a[0]/<p>/@id", p.String())

	kinds := []schema.SegmentKind{}
	for _, s := range p.Segments() {
		kinds = append(kinds, s.Kind)
	}
	assert.Equal(t, []schema.SegmentKind{
		schema.SegmentField, schema.SegmentIndex, schema.SegmentElement, schema.SegmentAttribute,
	}, kinds)
}

func TestResolveMissingRoute(t *testing.T) {
	root := mustValue(t, `{a: [1]}`)
	res := schema.NewValidator(mustSchema(t, `type T = {a: [int], b: int}`)).Validate(root)
	require.Equal(t, 1, res.ErrorCount)

	_, ok := schema.Resolve(root, res.Errors.Path)
	assert.False(t, ok)
}
