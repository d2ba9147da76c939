package lambda_test

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Neumenon/lambda/lambda"
)

func newDoc(t *testing.T) *lambda.Document {
	t.Helper()
	d, err := lambda.NewDocument(lambda.WithGrowSize(4096))
	require.NoError(t, err)
	t.Cleanup(func() { d.Close() })
	return d
}

func mustString(t *testing.T, d *lambda.Document, s string) lambda.Item {
	t.Helper()
	it, err := d.String(s)
	require.NoError(t, err)
	return it
}

func TestNullIsZero(t *testing.T) {
	var it lambda.Item
	assert.True(t, it.IsNull())
	assert.Equal(t, lambda.TypeNull, lambda.Null.Type())
	assert.True(t, lambda.Bool(false).Type() == lambda.TypeBool)
	assert.False(t, lambda.Bool(false).IsNull())
}

func TestIntInlineAndBoxed(t *testing.T) {
	d := newDoc(t)

	tests := []struct {
		v    int64
		want lambda.TypeID
	}{
		{0, lambda.TypeInt},
		{-1, lambda.TypeInt},
		{lambda.MaxInlineInt, lambda.TypeInt},
		{lambda.MinInlineInt, lambda.TypeInt},
		{lambda.MaxInlineInt + 1, lambda.TypeInt64},
		{math.MinInt64, lambda.TypeInt64},
	}
	for _, tt := range tests {
		it := d.Int(tt.v)
		assert.Equal(t, tt.want, it.Type(), "value %d", tt.v)
		assert.Equal(t, tt.v, it.Int(), "value %d", tt.v)
	}
}

func TestAccessorPanicsOnMismatch(t *testing.T) {
	d := newDoc(t)
	s := mustString(t, d, "x")
	assert.Panics(t, func() { s.Int() })
	assert.Panics(t, func() { lambda.Null.Bool() })
}

func TestScalars(t *testing.T) {
	d := newDoc(t)

	f := d.Float(2.5)
	assert.Equal(t, 2.5, f.Float())

	dec, err := d.ParseDecimal("12.50")
	require.NoError(t, err)
	assert.Equal(t, "12.50", dec.Decimal().String())

	_, err = d.ParseDecimal("twelve")
	assert.Error(t, err)

	ts := time.Date(2025, 1, 2, 10, 0, 0, 0, time.UTC)
	assert.True(t, d.DateTime(ts).DateTime().Equal(ts))

	bin, err := d.Binary([]byte{0, 1, 2})
	require.NoError(t, err)
	assert.Equal(t, []byte{0, 1, 2}, bin.Str().Bytes())
	assert.NotZero(t, bin.Str().Flags()&lambda.FlagBinary)
}

func TestSymbolsAreInterned(t *testing.T) {
	d := newDoc(t)
	a, err := d.Symbol("section")
	require.NoError(t, err)
	b, err := d.Symbol("section")
	require.NoError(t, err)

	assert.True(t, a.Same(b))
	assert.Same(t, a.Str(), b.Str())
}

func TestArrayNestedType(t *testing.T) {
	d := newDoc(t)

	ints := d.Array(d.Int(1), d.Int(2))
	assert.Equal(t, lambda.TypeInt, ints.Array().Type.Nested.TypeID())
	assert.Equal(t, 2, ints.Array().Type.Length)

	mixed := d.Array(d.Int(1), mustString(t, d, "a"))
	assert.Equal(t, lambda.TypeAny, mixed.Array().Type.Nested.TypeID())
	assert.Same(t, lambda.Primitive(lambda.TypeAny), lambda.AnyType)
	assert.Equal(t, "[any; 2]", mixed.Array().Type.String())

	widened := d.List(d.Int(1), d.Float(1.5))
	assert.Equal(t, lambda.TypeFloat, widened.List().Type.Nested.TypeID())
}

func TestMapShapeOffsets(t *testing.T) {
	d := newDoc(t)
	m, err := d.NewMap().
		Put("a", d.Int(1)).
		PutString("b", "two").
		Put("a", d.Int(3)).
		Build()
	require.NoError(t, err)

	mt := m.Map().Type
	assert.Equal(t, 2, mt.Length)
	assert.Equal(t, 2*lambda.ItemSize, mt.ByteSize)
	for i, e := range mt.Entries() {
		assert.Equal(t, i*lambda.ItemSize, e.ByteOffset)
	}

	v, ok := m.Map().Get("a")
	require.True(t, ok)
	assert.Equal(t, int64(3), v.Int())
}

func TestElementLayout(t *testing.T) {
	d := newDoc(t)
	al := mustString(t, d, "center")
	el, err := d.NewElement("div").
		Attr("align", al).
		Text("hello").
		Child(d.Int(7)).
		Build()
	require.NoError(t, err)

	e := el.Element()
	assert.Equal(t, "div", e.Tag())
	assert.Equal(t, 2, e.Type.ContentLength)
	assert.Equal(t, 1, e.AttrCount())
	assert.Equal(t, e.Type.Length+e.Type.ContentLength, e.Len())
	assert.True(t, e.Items[0].Same(al))
	assert.Equal(t, "hello", e.Children()[0].Str().String())
	assert.Equal(t, int64(7), e.Children()[1].Int())
}

func TestClosedDocument(t *testing.T) {
	d, err := lambda.NewDocument()
	require.NoError(t, err)
	require.NoError(t, d.Close())
	require.NoError(t, d.Close())

	assert.True(t, d.Closed())
	_, err = d.String("late")
	assert.ErrorIs(t, err, lambda.ErrClosed)
	_, err = d.NewMap().Build()
	assert.ErrorIs(t, err, lambda.ErrClosed)
}

func TestPoolLimit(t *testing.T) {
	d, err := lambda.NewDocument(lambda.WithGrowSize(256), lambda.WithPoolLimit(256))
	require.NoError(t, err)
	defer d.Close()

	var lastErr error
	for i := 0; i < 64 && lastErr == nil; i++ {
		_, lastErr = d.String("a string that takes some room in the arena")
	}
	assert.Error(t, lastErr)
}

func TestParentNamePool(t *testing.T) {
	d1 := newDoc(t)
	shared, err := d1.Name("title")
	require.NoError(t, err)

	d2, err := lambda.NewDocument(lambda.WithParentNames(d1.Names))
	require.NoError(t, err)
	defer d2.Close()

	got, err := d2.Name("title")
	require.NoError(t, err)
	assert.Same(t, shared, got)
	assert.Equal(t, 0, d2.Names.Len())

	fresh, err := d2.Name("author")
	require.NoError(t, err)
	assert.Equal(t, 1, d2.Names.Len())
	assert.Nil(t, d1.Names.Lookup("author"))
	assert.Same(t, fresh, d2.Names.Lookup("author"))
}

func TestWiden(t *testing.T) {
	assert.Equal(t, lambda.TypeInt, lambda.Widen(lambda.TypeInt, lambda.TypeInt64))
	assert.Equal(t, lambda.TypeFloat, lambda.Widen(lambda.TypeInt, lambda.TypeFloat))
	assert.Equal(t, lambda.TypeDecimal, lambda.Widen(lambda.TypeFloat, lambda.TypeDecimal))
	assert.Equal(t, lambda.TypeAny, lambda.Widen(lambda.TypeInt, lambda.TypeString))
}
