package lambda

import (
	"iter"
	"strings"
)

// ItemReader is a read-only view of an item. The As methods require the
// matching Is method to hold and panic otherwise.
type ItemReader struct {
	item Item
}

// Read wraps it.
func Read(it Item) ItemReader {
	return ItemReader{item: it}
}

// Item returns the wrapped item.
func (r ItemReader) Item() Item { return r.item }

// Type returns the item's TypeID.
func (r ItemReader) Type() TypeID { return r.item.Type() }

func (r ItemReader) IsNull() bool     { return r.item.Type() == TypeNull }
func (r ItemReader) IsBool() bool     { return r.item.Type() == TypeBool }
func (r ItemReader) IsFloat() bool    { return r.item.Type() == TypeFloat }
func (r ItemReader) IsDecimal() bool  { return r.item.Type() == TypeDecimal }
func (r ItemReader) IsSymbol() bool   { return r.item.Type() == TypeSymbol }
func (r ItemReader) IsBinary() bool   { return r.item.Type() == TypeBinary }
func (r ItemReader) IsDateTime() bool { return r.item.Type() == TypeDateTime }
func (r ItemReader) IsArray() bool    { return r.item.Type() == TypeArray }
func (r ItemReader) IsList() bool     { return r.item.Type() == TypeList }
func (r ItemReader) IsMap() bool      { return r.item.Type() == TypeMap }
func (r ItemReader) IsElement() bool  { return r.item.Type() == TypeElement }

// IsInt reports INT and INT64 items.
func (r ItemReader) IsInt() bool {
	t := r.item.Type()
	return t == TypeInt || t == TypeInt64
}

// IsString reports STRING items only; symbols are interned names.
func (r ItemReader) IsString() bool { return r.item.Type() == TypeString }

// IsText reports STRING and SYMBOL items.
func (r ItemReader) IsText() bool {
	t := r.item.Type()
	return t == TypeString || t == TypeSymbol
}

// IsSequence reports ARRAY and LIST items.
func (r ItemReader) IsSequence() bool {
	t := r.item.Type()
	return t == TypeArray || t == TypeList
}

func (r ItemReader) AsBool() bool { return r.item.Bool() }
func (r ItemReader) AsInt() int64 { return r.item.Int() }

// AsFloat returns a FLOAT payload, converting integers.
func (r ItemReader) AsFloat() float64 {
	if r.IsInt() {
		return float64(r.item.Int())
	}
	return r.item.Float()
}

// AsString returns the text of a STRING, SYMBOL or BINARY item.
func (r ItemReader) AsString() string { return r.item.Str().String() }

// AsArray returns a view over an ARRAY or LIST.
func (r ItemReader) AsArray() ArrayReader {
	switch r.item.Type() {
	case TypeArray:
		return ArrayReader{items: r.item.Array().Items}
	case TypeList:
		return ArrayReader{items: r.item.List().Items}
	}
	r.item.assert(TypeArray)
	return ArrayReader{}
}

// AsMap returns a view over a MAP.
func (r ItemReader) AsMap() MapReader { return MapReader{m: r.item.Map()} }

// AsElement returns a view over an ELEMENT.
func (r ItemReader) AsElement() ElementReader { return ElementReader{e: r.item.Element()} }

// ============================================================
// ArrayReader
// ============================================================

// ArrayReader iterates a sequence in source order.
type ArrayReader struct {
	items []Item
}

// Length returns the number of items.
func (a ArrayReader) Length() int { return len(a.items) }

// At returns the i-th item.
func (a ArrayReader) At(i int) ItemReader { return ItemReader{item: a.items[i]} }

// Items yields each item.
func (a ArrayReader) Items() iter.Seq[ItemReader] {
	return func(yield func(ItemReader) bool) {
		for _, it := range a.items {
			if !yield(ItemReader{item: it}) {
				return
			}
		}
	}
}

// ============================================================
// MapReader
// ============================================================

// MapReader iterates map entries in shape order.
type MapReader struct {
	m *Map
}

// Size returns the number of entries.
func (m MapReader) Size() int { return len(m.m.Data) }

// Entries yields (name, value) pairs in shape order.
func (m MapReader) Entries() iter.Seq2[string, ItemReader] {
	return func(yield func(string, ItemReader) bool) {
		for i, e := range m.m.Type.Entries() {
			if i >= len(m.m.Data) {
				return
			}
			if !yield(e.Name.String(), ItemReader{item: m.m.Data[i]}) {
				return
			}
		}
	}
}

// Values yields values in shape order.
func (m MapReader) Values() iter.Seq[ItemReader] {
	return func(yield func(ItemReader) bool) {
		for _, it := range m.m.Data {
			if !yield(ItemReader{item: it}) {
				return
			}
		}
	}
}

// Get returns the value of name, or a null reader when absent.
func (m MapReader) Get(name string) ItemReader {
	it, _ := m.m.Get(name)
	return ItemReader{item: it}
}

// Has reports whether name is a field.
func (m MapReader) Has(name string) bool {
	_, ok := m.m.Get(name)
	return ok
}

// ============================================================
// ElementReader
// ============================================================

// ElementReader exposes an element's tag, attributes and children.
type ElementReader struct {
	e *Element
}

// TagName returns the element tag.
func (r ElementReader) TagName() string { return r.e.Tag() }

// Element returns the underlying element.
func (r ElementReader) Element() *Element { return r.e }

// GetAttr returns attribute name, or a null reader when absent.
func (r ElementReader) GetAttr(name string) ItemReader {
	it, _ := r.e.Attr(name)
	return ItemReader{item: it}
}

// HasAttr reports whether attribute name is present.
func (r ElementReader) HasAttr(name string) bool {
	_, ok := r.e.Attr(name)
	return ok
}

// AttrString returns attribute name as text, or "" when absent or not text.
func (r ElementReader) AttrString(name string) string {
	it, ok := r.e.Attr(name)
	if !ok {
		return ""
	}
	switch it.Type() {
	case TypeString, TypeSymbol:
		return it.Str().String()
	case TypeElement:
		return ElementReader{e: it.Element()}.TextContent()
	}
	return ""
}

// AttrCount returns the number of attributes.
func (r ElementReader) AttrCount() int { return r.e.AttrCount() }

// Attrs yields (name, value) pairs in shape order.
func (r ElementReader) Attrs() iter.Seq2[string, ItemReader] {
	return func(yield func(string, ItemReader) bool) {
		attrs := r.e.Attrs()
		for i, e := range r.e.Type.Entries() {
			if i >= len(attrs) {
				return
			}
			if !yield(e.Name.String(), ItemReader{item: attrs[i]}) {
				return
			}
		}
	}
}

// ChildCount returns the number of children.
func (r ElementReader) ChildCount() int { return r.e.Type.ContentLength }

// Child returns the i-th child.
func (r ElementReader) Child(i int) ItemReader {
	return ItemReader{item: r.e.Children()[i]}
}

// Children yields children in source order.
func (r ElementReader) Children() iter.Seq[ItemReader] {
	return func(yield func(ItemReader) bool) {
		for _, it := range r.e.Children() {
			if !yield(ItemReader{item: it}) {
				return
			}
		}
	}
}

// TextContent concatenates the text of all descendant strings.
func (r ElementReader) TextContent() string {
	var sb strings.Builder
	appendText(&sb, r.e)
	return sb.String()
}

func appendText(sb *strings.Builder, e *Element) {
	for _, c := range e.Children() {
		switch c.Type() {
		case TypeString, TypeSymbol:
			sb.Write(c.Str().Bytes())
		case TypeElement:
			appendText(sb, c.Element())
		}
	}
}
