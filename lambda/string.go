package lambda

import (
	"bytes"
	"errors"

	"github.com/Neumenon/lambda/pool"
)

// MaxStringLen is the hard cap on a String's byte length (22 bits).
const MaxStringLen = 1<<22 - 1

// String errors
var (
	ErrStringTooLong = errors.New("lambda: string exceeds maximum length")
)

// StringFlags annotate how a String is used.
type StringFlags uint8

const (
	FlagBinary StringFlags = 1 << iota // payload is bytes, not text
	FlagSymbol                          // interned by a NamePool
	FlagStatic                          // not owned by any pool
)

// String is a refcounted, length-prefixed UTF-8 buffer. chars always holds
// one extra NUL byte at chars[Len()].
type String struct {
	chars  []byte
	refCnt uint8
	flags  StringFlags
	pool   *pool.Pool
}

// NewString copies s into memory from p. A nil pool falls back to the Go
// heap and marks the string static.
func NewString(p *pool.Pool, s string) (*String, error) {
	if len(s) > MaxStringLen {
		return nil, ErrStringTooLong
	}
	str, err := allocString(p, len(s))
	if err != nil {
		return nil, err
	}
	copy(str.chars, s)
	str.chars[len(s)] = 0
	return str, nil
}

// NewStringBytes copies b into memory from p.
func NewStringBytes(p *pool.Pool, b []byte) (*String, error) {
	if len(b) > MaxStringLen {
		return nil, ErrStringTooLong
	}
	str, err := allocString(p, len(b))
	if err != nil {
		return nil, err
	}
	copy(str.chars, b)
	str.chars[len(b)] = 0
	return str, nil
}

// StaticString wraps s in a String that no pool owns. Release never frees
// it.
func StaticString(s string) *String {
	chars := make([]byte, len(s)+1)
	copy(chars, s)
	return &String{chars: chars, refCnt: 1, flags: FlagStatic}
}

func allocString(p *pool.Pool, n int) (*String, error) {
	if p == nil {
		return &String{chars: make([]byte, n+1), refCnt: 1, flags: FlagStatic}, nil
	}
	chars, err := p.Alloc(n + 1)
	if err != nil {
		return nil, err
	}
	return &String{chars: chars, refCnt: 1, pool: p}, nil
}

// Len returns the byte length, excluding the terminator.
func (s *String) Len() int {
	if s == nil || len(s.chars) == 0 {
		return 0
	}
	return len(s.chars) - 1
}

// Bytes returns the characters without the terminator. The slice aliases
// the String's storage.
func (s *String) Bytes() []byte {
	if s == nil || len(s.chars) == 0 {
		return nil
	}
	return s.chars[:len(s.chars)-1]
}

// CString returns the characters including the NUL terminator.
func (s *String) CString() []byte {
	if s == nil {
		return nil
	}
	return s.chars
}

// String returns a Go copy of the characters.
func (s *String) String() string {
	return string(s.Bytes())
}

// Flags returns the string's flags.
func (s *String) Flags() StringFlags {
	if s == nil {
		return 0
	}
	return s.flags
}

// RefCount returns the current reference count.
func (s *String) RefCount() int {
	if s == nil {
		return 0
	}
	return int(s.refCnt)
}

// Retain increments the reference count. The count saturates at 255, after
// which the string is never freed.
func (s *String) Retain() *String {
	if s != nil && s.refCnt < 255 {
		s.refCnt++
	}
	return s
}

// Release decrements the reference count and gives the characters back to
// the owning pool when it reaches zero. Static strings and saturated counts
// are left alone.
func (s *String) Release() {
	if s == nil || s.refCnt == 0 || s.refCnt == 255 {
		return
	}
	s.refCnt--
	if s.refCnt > 0 || s.flags&FlagStatic != 0 || s.pool == nil {
		return
	}
	if s.pool.IsAssociated(s.chars) {
		_ = s.pool.Free(s.chars)
	}
	s.chars = nil
}

// Equal compares contents.
func (s *String) Equal(o *String) bool {
	return bytes.Equal(s.Bytes(), o.Bytes())
}

// ============================================================
// StrView
// ============================================================

// StrView is a borrowed window into source bytes. It does not own its
// memory and is valid only while the source is.
type StrView struct {
	src        []byte
	start, end int
}

// ViewOf returns the view src[start:end].
func ViewOf(src []byte, start, end int) StrView {
	return StrView{src: src, start: start, end: end}
}

// ViewString returns a view over all of s.
func ViewString(s string) StrView {
	return StrView{src: []byte(s), end: len(s)}
}

// Bytes returns the viewed bytes.
func (v StrView) Bytes() []byte {
	return v.src[v.start:v.end]
}

// String returns a copy of the viewed bytes.
func (v StrView) String() string {
	return string(v.Bytes())
}

// Len returns the view length.
func (v StrView) Len() int {
	return v.end - v.start
}

// Range returns the view's offsets into its source.
func (v StrView) Range() (start, end int) {
	return v.start, v.end
}
