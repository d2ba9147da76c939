package lambda

import (
	"fmt"
	"time"
	"unsafe"

	"github.com/cockroachdb/apd"
)

// TypeID is the discriminant of an Item.
type TypeID uint8

const (
	TypeNull TypeID = iota
	TypeBool
	TypeInt   // inline, 56-bit signed
	TypeInt64 // boxed
	TypeFloat
	TypeDecimal
	TypeNumber // schema-only widening target
	TypeString
	TypeSymbol
	TypeBinary
	TypeDateTime
	TypeArray
	TypeList
	TypeMap
	TypeElement
	TypeFunc
	TypeType
	TypeError
	TypeAny

	typeIDCount
)

var typeNames = [typeIDCount]string{
	TypeNull:     "null",
	TypeBool:     "bool",
	TypeInt:      "int",
	TypeInt64:    "int64",
	TypeFloat:    "float",
	TypeDecimal:  "decimal",
	TypeNumber:   "number",
	TypeString:   "string",
	TypeSymbol:   "symbol",
	TypeBinary:   "binary",
	TypeDateTime: "datetime",
	TypeArray:    "array",
	TypeList:     "list",
	TypeMap:      "map",
	TypeElement:  "element",
	TypeFunc:     "function",
	TypeType:     "type",
	TypeError:    "error",
	TypeAny:      "any",
}

// String returns the type name.
func (t TypeID) String() string {
	if t < typeIDCount {
		return typeNames[t]
	}
	return "unknown"
}

// TypeIDByName returns the TypeID for a primitive name.
func TypeIDByName(name string) (TypeID, bool) {
	for id, n := range typeNames {
		if n == name {
			return TypeID(id), true
		}
	}
	return 0, false
}

// IsScalar reports whether t has no nested items.
func (t TypeID) IsScalar() bool {
	return t <= TypeDateTime
}

// IsNumeric reports whether t is one of the number types.
func (t TypeID) IsNumeric() bool {
	switch t {
	case TypeInt, TypeInt64, TypeFloat, TypeDecimal, TypeNumber:
		return true
	}
	return false
}

// ============================================================
// Item
// ============================================================

const (
	tagShift    = 56
	payloadMask = uint64(1)<<tagShift - 1

	// MaxInlineInt and MinInlineInt bound integers stored without boxing.
	MaxInlineInt = int64(1)<<55 - 1
	MinInlineInt = -int64(1) << 55
)

// Item is a tagged value. The top byte of word is the TypeID; inline
// variants keep their payload in the low 56 bits and boxed variants keep a
// pointer to Document-owned storage in ptr. The zero Item is null.
type Item struct {
	word uint64
	ptr  unsafe.Pointer
}

// ItemSize is the size of one attribute slot in element and map data.
const ItemSize = int(unsafe.Sizeof(Item{}))

// Null is the null item.
var Null = Item{}

func mkItem(t TypeID, payload uint64, ptr unsafe.Pointer) Item {
	return Item{word: uint64(t)<<tagShift | payload&payloadMask, ptr: ptr}
}

// Bool returns an inline boolean item.
func Bool(b bool) Item {
	if b {
		return mkItem(TypeBool, 1, nil)
	}
	return mkItem(TypeBool, 0, nil)
}

// SmallInt returns an inline integer item. It reports false when v does not
// fit in 56 bits; use Document.Int for arbitrary values.
func SmallInt(v int64) (Item, bool) {
	if v < MinInlineInt || v > MaxInlineInt {
		return Null, false
	}
	return mkItem(TypeInt, uint64(v), nil), true
}

// StringItem wraps an existing String as a STRING item.
func StringItem(s *String) Item { return mkItem(TypeString, 0, unsafe.Pointer(s)) }

// SymbolItem wraps an interned String as a SYMBOL item.
func SymbolItem(s *String) Item { return mkItem(TypeSymbol, 0, unsafe.Pointer(s)) }

// BinaryItem wraps a String holding bytes as a BINARY item.
func BinaryItem(s *String) Item { return mkItem(TypeBinary, 0, unsafe.Pointer(s)) }

// ArrayItem wraps an Array.
func ArrayItem(a *Array) Item { return mkItem(TypeArray, 0, unsafe.Pointer(a)) }

// ListItem wraps a List.
func ListItem(l *List) Item { return mkItem(TypeList, 0, unsafe.Pointer(l)) }

// MapItem wraps a Map.
func MapItem(m *Map) Item { return mkItem(TypeMap, 0, unsafe.Pointer(m)) }

// ElementItem wraps an Element.
func ElementItem(e *Element) Item { return mkItem(TypeElement, 0, unsafe.Pointer(e)) }

// FuncItem wraps a Function.
func FuncItem(f *Function) Item { return mkItem(TypeFunc, 0, unsafe.Pointer(f)) }

// TypeItem reifies a type descriptor as a value.
func TypeItem(t *MetaType) Item { return mkItem(TypeType, 0, unsafe.Pointer(t)) }

// ErrorItem wraps an ErrorValue.
func ErrorItem(e *ErrorValue) Item { return mkItem(TypeError, 0, unsafe.Pointer(e)) }

// Type returns the item's TypeID.
func (it Item) Type() TypeID {
	return TypeID(it.word >> tagShift)
}

func (it Item) payload() uint64 {
	return it.word & payloadMask
}

func (it Item) assert(want TypeID) {
	if got := it.Type(); got != want {
		panic(fmt.Sprintf("lambda: item is %s, not %s", got, want))
	}
}

// IsNull reports whether the item is null.
func (it Item) IsNull() bool { return it.Type() == TypeNull }

// Bool returns the boolean payload.
func (it Item) Bool() bool {
	it.assert(TypeBool)
	return it.payload() == 1
}

// Int returns the integer payload of an INT or INT64 item.
func (it Item) Int() int64 {
	switch it.Type() {
	case TypeInt:
		return int64(it.word<<(64-tagShift)) >> (64 - tagShift)
	case TypeInt64:
		return *(*int64)(it.ptr)
	}
	panic(fmt.Sprintf("lambda: item is %s, not int", it.Type()))
}

// Float returns the payload of a FLOAT item.
func (it Item) Float() float64 {
	it.assert(TypeFloat)
	return *(*float64)(it.ptr)
}

// Decimal returns the payload of a DECIMAL item.
func (it Item) Decimal() *apd.Decimal {
	it.assert(TypeDecimal)
	return (*apd.Decimal)(it.ptr)
}

// Str returns the String behind a STRING, SYMBOL or BINARY item.
func (it Item) Str() *String {
	switch it.Type() {
	case TypeString, TypeSymbol, TypeBinary:
		return (*String)(it.ptr)
	}
	panic(fmt.Sprintf("lambda: item is %s, not string", it.Type()))
}

// DateTime returns the payload of a DATETIME item.
func (it Item) DateTime() time.Time {
	it.assert(TypeDateTime)
	return *(*time.Time)(it.ptr)
}

// Array returns the payload of an ARRAY item.
func (it Item) Array() *Array {
	it.assert(TypeArray)
	return (*Array)(it.ptr)
}

// List returns the payload of a LIST item.
func (it Item) List() *List {
	it.assert(TypeList)
	return (*List)(it.ptr)
}

// Map returns the payload of a MAP item.
func (it Item) Map() *Map {
	it.assert(TypeMap)
	return (*Map)(it.ptr)
}

// Element returns the payload of an ELEMENT item.
func (it Item) Element() *Element {
	it.assert(TypeElement)
	return (*Element)(it.ptr)
}

// Func returns the payload of a FUNC item.
func (it Item) Func() *Function {
	it.assert(TypeFunc)
	return (*Function)(it.ptr)
}

// Meta returns the payload of a TYPE item.
func (it Item) Meta() *MetaType {
	it.assert(TypeType)
	return (*MetaType)(it.ptr)
}

// Err returns the payload of an ERROR item.
func (it Item) Err() *ErrorValue {
	it.assert(TypeError)
	return (*ErrorValue)(it.ptr)
}

// Same reports whether two items are the identical value: equal words and,
// for boxed variants, the same payload pointer.
func (it Item) Same(o Item) bool {
	return it.word == o.word && it.ptr == o.ptr
}

// String renders the item in Mark notation.
func (it Item) String() string {
	return EmitMark(it)
}
