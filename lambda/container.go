package lambda

// Array is a sequence whose descriptor records the common element type.
type Array struct {
	Type  *ArrayType
	Items []Item
}

// Len returns the number of items.
func (a *Array) Len() int { return len(a.Items) }

// List is a heterogeneous sequence.
type List struct {
	Type  *ListType
	Items []Item
}

// Len returns the number of items.
func (l *List) Len() int { return len(l.Items) }

// Map stores one value slot per shape entry. Data[i] holds the value of the
// i-th entry, which lives at byte offset i*ItemSize.
type Map struct {
	Type *MapType
	Data []Item
}

// Len returns the number of fields.
func (m *Map) Len() int { return len(m.Data) }

// Get returns the value of field name.
func (m *Map) Get(name string) (Item, bool) {
	_, i := m.Type.Lookup(name)
	if i < 0 || i >= len(m.Data) {
		return Null, false
	}
	return m.Data[i], true
}

// Element is a list whose leading Type.Length items are attribute values in
// shape order and whose trailing Type.ContentLength items are children.
type Element struct {
	Type  *ElementType
	Items []Item
}

// Tag returns the element name.
func (e *Element) Tag() string {
	if e.Type == nil || e.Type.Name == nil {
		return ""
	}
	return e.Type.Name.String()
}

// Len returns attributes plus children.
func (e *Element) Len() int { return len(e.Items) }

// AttrCount returns len - content_length.
func (e *Element) AttrCount() int {
	return len(e.Items) - e.Type.ContentLength
}

// Attrs returns the attribute value slots.
func (e *Element) Attrs() []Item {
	return e.Items[:e.AttrCount()]
}

// Children returns the child items in source order.
func (e *Element) Children() []Item {
	return e.Items[e.AttrCount():]
}

// Attr returns the value of attribute name.
func (e *Element) Attr(name string) (Item, bool) {
	_, i := e.Type.Lookup(name)
	if i < 0 || i >= e.AttrCount() {
		return Null, false
	}
	return e.Items[i], true
}

// Function is a function value. The core never executes functions; it only
// carries their signature through the item model.
type Function struct {
	Type *FuncType
	Name *String
}

// ErrorValue is an in-band error item.
type ErrorValue struct {
	Message *String
	Cause   Item
}
