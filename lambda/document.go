package lambda

import (
	"io"
	"time"
	"unsafe"

	"github.com/cockroachdb/apd"
	"github.com/google/uuid"
	"github.com/lthibault/log"
	"github.com/pkg/errors"

	"github.com/Neumenon/lambda/pool"
)

// Document defaults
const (
	DefaultGrowSize  = 64 << 10
	DefaultTolerance = 20

	itemChunk = 1024
)

// ErrClosed is returned by builders of a closed Document.
var ErrClosed = errors.New("lambda: document closed")

// Document owns every item built through it. Items must not be used after
// Close.
type Document struct {
	ID    uuid.UUID
	Pool  *pool.Pool
	Names *NamePool

	root Item
	log  log.Logger

	ints       *pool.Slab[int64]
	floats     *pool.Slab[float64]
	decimals   *pool.Slab[apd.Decimal]
	times      *pool.Slab[time.Time]
	arrays     *pool.Slab[Array]
	lists      *pool.Slab[List]
	maps       *pool.Slab[Map]
	elements   *pool.Slab[Element]
	arrayTypes *pool.Slab[ArrayType]
	listTypes  *pool.Slab[ListType]
	mapTypes   *pool.Slab[MapType]
	elemTypes  *pool.Slab[ElementType]
	shapes     *pool.Slab[ShapeEntry]

	itemBuf []Item
	closed  bool
}

type docOptions struct {
	growSize  int
	tolerance int
	limit     int
	parent    *NamePool
	log       log.Logger
}

// DocOption configures a Document.
type DocOption func(*docOptions)

// WithGrowSize sets the arena block size.
func WithGrowSize(n int) DocOption {
	return func(o *docOptions) { o.growSize = n }
}

// WithTolerance sets the oversize tolerance percentage.
func WithTolerance(pct int) DocOption {
	return func(o *docOptions) { o.tolerance = pct }
}

// WithPoolLimit caps the bytes the document's arena may reserve.
func WithPoolLimit(n int) DocOption {
	return func(o *docOptions) { o.limit = n }
}

// WithParentNames chains the document's name pool to parent.
func WithParentNames(parent *NamePool) DocOption {
	return func(o *docOptions) { o.parent = parent }
}

// WithLogger sets the document's logger.
func WithLogger(l log.Logger) DocOption {
	return func(o *docOptions) { o.log = l }
}

// DiscardLogger returns a logger that writes nowhere.
func DiscardLogger() log.Logger {
	return log.New(log.WithWriter(io.Discard))
}

// NewDocument creates an empty document with its own arena and name pool.
func NewDocument(opts ...DocOption) (*Document, error) {
	o := docOptions{growSize: DefaultGrowSize, tolerance: DefaultTolerance}
	for _, opt := range opts {
		opt(&o)
	}
	if o.log == nil {
		o.log = DiscardLogger()
	}

	p, err := pool.New(o.growSize, o.tolerance, pool.WithLimit(o.limit))
	if err != nil {
		return nil, errors.Wrap(err, "create document pool")
	}

	d := &Document{
		ID:         uuid.New(),
		Pool:       p,
		Names:      NewNamePool(p, o.parent),
		ints:       pool.NewSlab[int64](0),
		floats:     pool.NewSlab[float64](0),
		decimals:   pool.NewSlab[apd.Decimal](0),
		times:      pool.NewSlab[time.Time](0),
		arrays:     pool.NewSlab[Array](0),
		lists:      pool.NewSlab[List](0),
		maps:       pool.NewSlab[Map](0),
		elements:   pool.NewSlab[Element](0),
		arrayTypes: pool.NewSlab[ArrayType](0),
		listTypes:  pool.NewSlab[ListType](0),
		mapTypes:   pool.NewSlab[MapType](0),
		elemTypes:  pool.NewSlab[ElementType](0),
		shapes:     pool.NewSlab[ShapeEntry](0),
	}
	d.log = o.log.WithField("doc", d.ID)
	d.log.Debug("document created")
	return d, nil
}

// Log returns the document's logger.
func (d *Document) Log() log.Logger {
	return d.log
}

// Root returns the root item.
func (d *Document) Root() Item {
	return d.root
}

// SetRoot sets the root item.
func (d *Document) SetRoot(it Item) {
	d.root = it
}

// Closed reports whether Close has been called.
func (d *Document) Closed() bool {
	return d.closed
}

// Close frees every item of the document at once.
func (d *Document) Close() error {
	if d.closed {
		return nil
	}
	stats := d.Pool.Stats()
	d.Names.Release()
	d.Pool.Destroy()
	for _, s := range []interface{ Reset() }{
		d.ints, d.floats, d.decimals, d.times, d.arrays, d.lists, d.maps,
		d.elements, d.arrayTypes, d.listTypes, d.mapTypes, d.elemTypes, d.shapes,
	} {
		s.Reset()
	}
	d.itemBuf = nil
	d.root = Null
	d.closed = true
	d.log.With(log.F{
		"blocks":   stats.Blocks,
		"reserved": stats.Reserved,
	}).Debug("document closed")
	return nil
}

// items carves an n-item slice from the document's item chunks.
func (d *Document) items(n int) []Item {
	if n == 0 {
		return nil
	}
	if n > itemChunk/4 {
		return make([]Item, n)
	}
	if cap(d.itemBuf)-len(d.itemBuf) < n {
		d.itemBuf = make([]Item, 0, itemChunk)
	}
	start := len(d.itemBuf)
	d.itemBuf = d.itemBuf[:start+n]
	return d.itemBuf[start : start+n : start+n]
}

// ============================================================
// Scalars
// ============================================================

// Int returns an INT item when v fits inline, otherwise a boxed INT64.
func (d *Document) Int(v int64) Item {
	if it, ok := SmallInt(v); ok {
		return it
	}
	p := d.ints.New()
	*p = v
	return mkItem(TypeInt64, 0, unsafe.Pointer(p))
}

// Float returns a boxed FLOAT item.
func (d *Document) Float(f float64) Item {
	p := d.floats.New()
	*p = f
	return mkItem(TypeFloat, 0, unsafe.Pointer(p))
}

// Decimal returns a boxed DECIMAL item holding a copy of x.
func (d *Document) Decimal(x *apd.Decimal) Item {
	p := d.decimals.New()
	p.Set(x)
	return mkItem(TypeDecimal, 0, unsafe.Pointer(p))
}

// ParseDecimal parses s as an arbitrary-precision decimal.
func (d *Document) ParseDecimal(s string) (Item, error) {
	x, _, err := apd.NewFromString(s)
	if err != nil {
		return Null, errors.Wrapf(err, "parse decimal %q", s)
	}
	return d.Decimal(x), nil
}

// DateTime returns a boxed DATETIME item.
func (d *Document) DateTime(t time.Time) Item {
	p := d.times.New()
	*p = t
	return mkItem(TypeDateTime, 0, unsafe.Pointer(p))
}

// String copies s into the arena and returns a STRING item.
func (d *Document) String(s string) (Item, error) {
	if d.closed {
		return Null, ErrClosed
	}
	str, err := NewString(d.Pool, s)
	if err != nil {
		return Null, err
	}
	return StringItem(str), nil
}

// Symbol interns s and returns a SYMBOL item. Equal symbols share a payload.
func (d *Document) Symbol(s string) (Item, error) {
	name, err := d.Name(s)
	if err != nil {
		return Null, err
	}
	return SymbolItem(name), nil
}

// Binary copies b into the arena and returns a BINARY item.
func (d *Document) Binary(b []byte) (Item, error) {
	if d.closed {
		return Null, ErrClosed
	}
	str, err := NewStringBytes(d.Pool, b)
	if err != nil {
		return Null, err
	}
	str.flags |= FlagBinary
	return BinaryItem(str), nil
}

// Name interns s in the document's name pool.
func (d *Document) Name(s string) (*String, error) {
	if d.closed {
		return nil, ErrClosed
	}
	return d.Names.Create(s)
}

// Error returns an ERROR item carrying msg.
func (d *Document) Error(msg string, cause Item) (Item, error) {
	str, err := NewString(d.Pool, msg)
	if err != nil {
		return Null, err
	}
	return ErrorItem(&ErrorValue{Message: str, Cause: cause}), nil
}

// Func returns a FUNC item for a named signature.
func (d *Document) Func(name string, sig *FuncType) (Item, error) {
	n, err := d.Name(name)
	if err != nil {
		return Null, err
	}
	return FuncItem(&Function{Type: sig, Name: n}), nil
}

// TypeOf reifies t as a TYPE item.
func (d *Document) TypeOf(t Type) Item {
	return TypeItem(&MetaType{Inner: t})
}

// ============================================================
// Sequences
// ============================================================

// Array returns an ARRAY of items. Its descriptor's nested type is the
// common item type, or any when the items differ.
func (d *Document) Array(items ...Item) Item {
	a := d.arrays.New()
	a.Items = d.items(len(items))
	copy(a.Items, items)
	t := d.arrayTypes.New()
	t.Length = len(items)
	t.Nested = commonType(items, false)
	a.Type = t
	return ArrayItem(a)
}

// List returns a LIST of items. Its descriptor's nested type is the widened
// type of the items.
func (d *Document) List(items ...Item) Item {
	l := d.lists.New()
	l.Items = d.items(len(items))
	copy(l.Items, items)
	t := d.listTypes.New()
	t.Length = len(items)
	t.Nested = commonType(items, true)
	l.Type = t
	return ListItem(l)
}

func commonType(items []Item, widen bool) Type {
	if len(items) == 0 {
		return AnyType
	}
	id := items[0].Type()
	for _, it := range items[1:] {
		if next := it.Type(); next != id {
			if !widen {
				return AnyType
			}
			if id = Widen(id, next); id == TypeAny {
				return AnyType
			}
		}
	}
	return Primitive(id)
}

// TypeOfItem returns the descriptor of a value: the container's own
// descriptor for aggregates and the shared primitive otherwise.
func TypeOfItem(it Item) Type {
	switch it.Type() {
	case TypeArray:
		return it.Array().Type
	case TypeList:
		return it.List().Type
	case TypeMap:
		return it.Map().Type
	case TypeElement:
		return it.Element().Type
	case TypeFunc:
		return it.Func().Type
	case TypeType:
		return it.Meta()
	}
	return Primitive(it.Type())
}

// ============================================================
// Maps and elements
// ============================================================

type fieldSet struct {
	names  []*String
	values []Item
	index  map[string]int
}

func (fs *fieldSet) put(name *String, v Item) {
	key := name.String()
	if i, ok := fs.index[key]; ok {
		fs.values[i] = v
		return
	}
	if fs.index == nil {
		fs.index = make(map[string]int)
	}
	fs.index[key] = len(fs.names)
	fs.names = append(fs.names, name)
	fs.values = append(fs.values, v)
}

func (fs *fieldSet) shape(d *Document, t *MapType) {
	for i, name := range fs.names {
		e := d.shapes.New()
		e.Name = name
		e.Type = TypeOfItem(fs.values[i])
		t.AddEntry(e)
	}
}

// MapBuilder accumulates fields for a MAP. Repeated names overwrite the
// earlier value in place.
type MapBuilder struct {
	d      *Document
	fields fieldSet
	err    error
}

// NewMap starts a map.
func (d *Document) NewMap() *MapBuilder {
	return &MapBuilder{d: d}
}

// Put sets field name to v.
func (b *MapBuilder) Put(name string, v Item) *MapBuilder {
	if b.err != nil {
		return b
	}
	n, err := b.d.Name(name)
	if err != nil {
		b.err = err
		return b
	}
	b.fields.put(n, v)
	return b
}

// PutString sets field name to a STRING item of s.
func (b *MapBuilder) PutString(name, s string) *MapBuilder {
	v, err := b.d.String(s)
	if err != nil && b.err == nil {
		b.err = err
	}
	return b.Put(name, v)
}

// Len returns the number of fields so far.
func (b *MapBuilder) Len() int {
	return len(b.fields.names)
}

// Build returns the finished MAP item.
func (b *MapBuilder) Build() (Item, error) {
	if b.err != nil {
		return Null, b.err
	}
	if b.d.closed {
		return Null, ErrClosed
	}
	t := b.d.mapTypes.New()
	b.fields.shape(b.d, t)
	m := b.d.maps.New()
	m.Type = t
	m.Data = b.d.items(len(b.fields.values))
	copy(m.Data, b.fields.values)
	return MapItem(m), nil
}

// ElementBuilder accumulates attributes and children for an ELEMENT.
type ElementBuilder struct {
	d        *Document
	tag      *String
	attrs    fieldSet
	children []Item
	err      error
}

// NewElement starts an element with the given tag.
func (d *Document) NewElement(tag string) *ElementBuilder {
	b := &ElementBuilder{d: d}
	b.tag, b.err = d.Name(tag)
	return b
}

// Tag returns the element's tag name.
func (b *ElementBuilder) Tag() string {
	return b.tag.String()
}

// Attr sets attribute name to v.
func (b *ElementBuilder) Attr(name string, v Item) *ElementBuilder {
	if b.err != nil {
		return b
	}
	n, err := b.d.Name(name)
	if err != nil {
		b.err = err
		return b
	}
	b.attrs.put(n, v)
	return b
}

// HasAttr reports whether attribute name has been set.
func (b *ElementBuilder) HasAttr(name string) bool {
	_, ok := b.attrs.index[name]
	return ok
}

// AttrString sets attribute name to a STRING item of s.
func (b *ElementBuilder) AttrString(name, s string) *ElementBuilder {
	v, err := b.d.String(s)
	if err != nil && b.err == nil {
		b.err = err
	}
	return b.Attr(name, v)
}

// Child appends a child item.
func (b *ElementBuilder) Child(v Item) *ElementBuilder {
	b.children = append(b.children, v)
	return b
}

// Text appends a STRING child.
func (b *ElementBuilder) Text(s string) *ElementBuilder {
	v, err := b.d.String(s)
	if err != nil {
		if b.err == nil {
			b.err = err
		}
		return b
	}
	return b.Child(v)
}

// ChildCount returns the number of children so far.
func (b *ElementBuilder) ChildCount() int {
	return len(b.children)
}

// LastChild returns the most recent child, or null.
func (b *ElementBuilder) LastChild() Item {
	if len(b.children) == 0 {
		return Null
	}
	return b.children[len(b.children)-1]
}

// SetLastChild replaces the most recent child.
func (b *ElementBuilder) SetLastChild(v Item) {
	if len(b.children) > 0 {
		b.children[len(b.children)-1] = v
	}
}

// Err returns the first error recorded by the builder.
func (b *ElementBuilder) Err() error {
	return b.err
}

// Build returns the finished ELEMENT item. Attribute values occupy the
// leading slots in shape order and children follow in insertion order.
func (b *ElementBuilder) Build() (Item, error) {
	if b.err != nil {
		return Null, b.err
	}
	if b.d.closed {
		return Null, ErrClosed
	}
	t := b.d.elemTypes.New()
	t.Name = b.tag
	b.attrs.shape(b.d, &t.MapType)
	t.ContentLength = len(b.children)

	e := b.d.elements.New()
	e.Type = t
	e.Items = b.d.items(len(b.attrs.values) + len(b.children))
	n := copy(e.Items, b.attrs.values)
	copy(e.Items[n:], b.children)
	return ElementItem(e), nil
}
