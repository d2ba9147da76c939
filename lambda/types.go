package lambda

import (
	"fmt"
	"iter"
	"strings"
)

// Type describes the shape of a value. Runtime containers carry one, and
// schemas are built from the same descriptors plus the schema-only kinds
// (UnionType, OccurrenceType, RefType).
type Type interface {
	TypeID() TypeID
	String() string
}

// ============================================================
// Primitive
// ============================================================

// PrimitiveType is a scalar type, or one of the open types any/number.
type PrimitiveType struct {
	ID TypeID
}

func (t *PrimitiveType) TypeID() TypeID { return t.ID }
func (t *PrimitiveType) String() string { return t.ID.String() }

var primitives = func() (ps [typeIDCount]*PrimitiveType) {
	for id := range ps {
		ps[id] = &PrimitiveType{ID: TypeID(id)}
	}
	return
}()

// Primitive returns the shared descriptor for id.
func Primitive(id TypeID) *PrimitiveType {
	if id < typeIDCount {
		return primitives[id]
	}
	return primitives[TypeAny]
}

// AnyType is the top type.
var AnyType Type = Primitive(TypeAny)

// ============================================================
// Sequences
// ============================================================

// ArrayType describes a homogeneous-preferring sequence. Length is -1 when
// unbounded; Nested is the common element type or any.
type ArrayType struct {
	Length int
	Nested Type
}

func (t *ArrayType) TypeID() TypeID { return TypeArray }
func (t *ArrayType) String() string {
	if t.Length >= 0 {
		return fmt.Sprintf("[%s; %d]", typeString(t.Nested), t.Length)
	}
	return "[" + typeString(t.Nested) + "]"
}

// ListType describes a heterogeneous sequence; Nested is the widened type of
// its members.
type ListType struct {
	Length int
	Nested Type
	// Members, when set on a schema descriptor, gives a positional type per
	// entry, as in (int, string).
	Members []Type
}

func (t *ListType) TypeID() TypeID { return TypeList }
func (t *ListType) String() string {
	if len(t.Members) > 0 {
		parts := make([]string, len(t.Members))
		for i, m := range t.Members {
			parts[i] = typeString(m)
		}
		return "(" + strings.Join(parts, ", ") + ")"
	}
	return "(" + typeString(t.Nested) + "*)"
}

// ============================================================
// Maps and elements
// ============================================================

// ShapeEntry is one named slot of a map or element shape.
type ShapeEntry struct {
	Name       *String
	Type       Type
	ByteOffset int
	Next       *ShapeEntry
}

// MapType describes a map: Length slots laid out at ascending byte offsets
// inside a ByteSize data area.
type MapType struct {
	Length   int
	ByteSize int
	Shape    *ShapeEntry
	last     *ShapeEntry
}

func (t *MapType) TypeID() TypeID { return TypeMap }
func (t *MapType) String() string {
	var sb strings.Builder
	sb.WriteByte('{')
	t.writeFields(&sb)
	sb.WriteByte('}')
	return sb.String()
}

func (t *MapType) writeFields(sb *strings.Builder) {
	i := 0
	for e := t.Shape; e != nil; e = e.Next {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(e.Name.String())
		sb.WriteString(": ")
		sb.WriteString(typeString(e.Type))
		i++
	}
}

// AddEntry appends a slot with the given interned name. The entry is placed
// after the last slot and the byte size grows by one item.
func (t *MapType) AddEntry(e *ShapeEntry) {
	e.ByteOffset = t.Length * ItemSize
	e.Next = nil
	if t.last == nil {
		for t.last = t.Shape; t.last != nil && t.last.Next != nil; t.last = t.last.Next {
		}
	}
	if t.last == nil {
		t.Shape = e
	} else {
		t.last.Next = e
	}
	t.last = e
	t.Length++
	t.ByteSize = t.Length * ItemSize
}

// Lookup finds the slot for name and returns it with its index, or nil, -1.
func (t *MapType) Lookup(name string) (*ShapeEntry, int) {
	i := 0
	for e := t.Shape; e != nil; e = e.Next {
		if string(e.Name.Bytes()) == name {
			return e, i
		}
		i++
	}
	return nil, -1
}

// Entries iterates slots in shape order.
func (t *MapType) Entries() iter.Seq2[int, *ShapeEntry] {
	return func(yield func(int, *ShapeEntry) bool) {
		i := 0
		for e := t.Shape; e != nil; e = e.Next {
			if !yield(i, e) {
				return
			}
			i++
		}
	}
}

// ElementType is a MapType describing the attributes plus the tag name and
// the number of children. On schema descriptors a nil Name accepts any tag,
// Content lists the expected child sequence, and ContentLength is -1 when
// the child count is unconstrained.
type ElementType struct {
	MapType
	Name          *String
	ContentLength int
	Content       []Type
}

func (t *ElementType) TypeID() TypeID { return TypeElement }
func (t *ElementType) String() string {
	var sb strings.Builder
	sb.WriteByte('<')
	if t.Name != nil {
		sb.WriteString(t.Name.String())
	} else {
		sb.WriteByte('*')
	}
	if t.Shape != nil {
		sb.WriteByte(' ')
		t.writeFields(&sb)
	}
	if len(t.Content) > 0 || t.ContentLength == 0 {
		sb.WriteString("; ")
		for i, c := range t.Content {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(typeString(c))
		}
	}
	sb.WriteByte('>')
	return sb.String()
}

// ============================================================
// Functions and reified types
// ============================================================

// ParamType is one parameter of a function signature.
type ParamType struct {
	Name     *String
	Type     Type
	Optional bool
	Next     *ParamType
}

// FuncType is a function signature.
type FuncType struct {
	Param    *ParamType
	Returned Type
	IsPublic bool
}

func (t *FuncType) TypeID() TypeID { return TypeFunc }
func (t *FuncType) String() string {
	var sb strings.Builder
	sb.WriteString("fn(")
	for p := t.Param; p != nil; p = p.Next {
		if p != t.Param {
			sb.WriteString(", ")
		}
		if p.Name != nil {
			sb.WriteString(p.Name.String())
			sb.WriteString(": ")
		}
		sb.WriteString(typeString(p.Type))
		if p.Optional {
			sb.WriteByte('?')
		}
	}
	sb.WriteString(") ")
	sb.WriteString(typeString(t.Returned))
	return sb.String()
}

// MetaType reifies a type as a value.
type MetaType struct {
	Inner Type
}

func (t *MetaType) TypeID() TypeID { return TypeType }
func (t *MetaType) String() string { return "type(" + typeString(t.Inner) + ")" }

// ============================================================
// Schema-only descriptors
// ============================================================

// UnionType accepts a value matching any member.
type UnionType struct {
	Members []Type
}

func (t *UnionType) TypeID() TypeID { return TypeAny }
func (t *UnionType) String() string {
	parts := make([]string, len(t.Members))
	for i, m := range t.Members {
		parts[i] = typeString(m)
	}
	return strings.Join(parts, " | ")
}

// Occurrence operators.
const (
	OccurOptional   byte = '?'
	OccurOneOrMore  byte = '+'
	OccurZeroOrMore byte = '*'
)

// OccurrenceType repeats its operand over a run of siblings. As a map field
// type, '?' marks the field optional.
type OccurrenceType struct {
	Operand Type
	Op      byte
}

func (t *OccurrenceType) TypeID() TypeID { return typeIDOf(t.Operand) }
func (t *OccurrenceType) String() string { return typeString(t.Operand) + string(t.Op) }

// Bounds returns the minimum and maximum repetitions; max is -1 when
// unbounded.
func (t *OccurrenceType) Bounds() (min, max int) {
	switch t.Op {
	case OccurOptional:
		return 0, 1
	case OccurOneOrMore:
		return 1, -1
	default:
		return 0, -1
	}
}

// RefType names another schema type. Target is filled in once every
// declaration has been parsed.
type RefType struct {
	Name   string
	Target Type
}

func (t *RefType) TypeID() TypeID { return typeIDOf(t.Target) }
func (t *RefType) String() string { return t.Name }

// Resolve follows references to the underlying descriptor.
func Resolve(t Type) Type {
	for i := 0; i < 64; i++ {
		r, ok := t.(*RefType)
		if !ok || r.Target == nil {
			return t
		}
		t = r.Target
	}
	return t
}

func typeIDOf(t Type) TypeID {
	if t == nil {
		return TypeAny
	}
	return t.TypeID()
}

func typeString(t Type) string {
	if t == nil {
		return "any"
	}
	return t.String()
}

// Widen returns the narrowest TypeID covering both a and b.
func Widen(a, b TypeID) TypeID {
	if a == b {
		return a
	}
	if a.IsNumeric() && b.IsNumeric() {
		rank := func(t TypeID) int {
			switch t {
			case TypeInt, TypeInt64:
				return 0
			case TypeFloat:
				return 1
			case TypeDecimal:
				return 2
			}
			return 3
		}
		ra, rb := rank(a), rank(b)
		switch {
		case ra == 0 && rb == 0:
			return TypeInt
		case ra <= 1 && rb <= 1:
			return TypeFloat
		case ra <= 2 && rb <= 2:
			return TypeDecimal
		}
		return TypeNumber
	}
	return TypeAny
}
