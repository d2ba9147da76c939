package lambda

import (
	"bytes"
	"fmt"
	"strconv"
	"unicode/utf8"

	"github.com/Neumenon/lambda/pool"
)

const minBufCap = 32

// StringBuf is a growable builder bound to a pool. Capacity doubles on
// overflow. Appends that would push the length past MaxStringLen are
// rejected as a whole: the buffer is left unchanged and Rejected is
// incremented.
type StringBuf struct {
	str      *String
	length   int
	capacity int
	pool     *pool.Pool
	rejected int
	err      error
}

// NewStringBuf returns an empty builder that allocates from p. A nil pool
// uses the Go heap.
func NewStringBuf(p *pool.Pool) *StringBuf {
	return &StringBuf{pool: p}
}

// NewStringBufCap returns a builder with room for n bytes.
func NewStringBufCap(p *pool.Pool, n int) (*StringBuf, error) {
	sb := &StringBuf{pool: p}
	if err := sb.grow(n); err != nil {
		return nil, err
	}
	return sb, nil
}

// Len returns the number of bytes written.
func (sb *StringBuf) Len() int {
	return sb.length
}

// Cap returns the usable capacity, excluding the terminator slot.
func (sb *StringBuf) Cap() int {
	return sb.capacity
}

// Bytes returns the written bytes. The slice aliases the buffer.
func (sb *StringBuf) Bytes() []byte {
	if sb.str == nil {
		return nil
	}
	return sb.str.chars[:sb.length]
}

// String returns a Go copy of the contents.
func (sb *StringBuf) String() string {
	return string(sb.Bytes())
}

// Rejected returns how many appends were dropped for exceeding MaxStringLen.
func (sb *StringBuf) Rejected() int {
	return sb.rejected
}

// Err returns the first allocation failure, if any.
func (sb *StringBuf) Err() error {
	return sb.err
}

// reserve makes room for n more bytes. It reports false when the append must
// be dropped.
func (sb *StringBuf) reserve(n int) bool {
	if sb.length+n > MaxStringLen {
		sb.rejected++
		return false
	}
	if sb.str != nil && sb.length+n <= sb.capacity {
		return true
	}
	if err := sb.grow(sb.length + n); err != nil {
		if sb.err == nil {
			sb.err = err
		}
		return false
	}
	return true
}

// grow ensures capacity for need bytes plus the terminator.
func (sb *StringBuf) grow(need int) error {
	if need > MaxStringLen {
		return ErrStringTooLong
	}
	newCap := minBufCap
	if sb.str != nil {
		newCap = sb.capacity
	}
	for newCap < need {
		newCap *= 2
	}
	if newCap > MaxStringLen {
		newCap = MaxStringLen
	}

	var chars []byte
	if sb.pool != nil {
		b, err := sb.pool.Alloc(newCap + 1)
		if err != nil {
			return err
		}
		chars = b[:cap(b)]
	} else {
		chars = make([]byte, newCap+1)
	}

	flags := StringFlags(0)
	if sb.pool == nil {
		flags = FlagStatic
	}
	if sb.str != nil {
		copy(chars, sb.str.chars[:sb.length])
		if sb.pool != nil && sb.pool.IsAssociated(sb.str.chars) {
			_ = sb.pool.Free(sb.str.chars[:0:cap(sb.str.chars)])
		}
		flags = sb.str.flags
	}
	sb.str = &String{chars: chars, refCnt: 1, flags: flags, pool: sb.pool}
	sb.capacity = newCap
	sb.terminate()
	return nil
}

func (sb *StringBuf) terminate() {
	sb.str.chars[sb.length] = 0
}

// Append appends s.
func (sb *StringBuf) Append(s string) {
	if len(s) == 0 || !sb.reserve(len(s)) {
		return
	}
	copy(sb.str.chars[sb.length:], s)
	sb.length += len(s)
	sb.terminate()
}

// AppendBytes appends b.
func (sb *StringBuf) AppendBytes(b []byte) {
	if len(b) == 0 || !sb.reserve(len(b)) {
		return
	}
	copy(sb.str.chars[sb.length:], b)
	sb.length += len(b)
	sb.terminate()
}

// AppendByte appends a single byte.
func (sb *StringBuf) AppendByte(c byte) {
	if !sb.reserve(1) {
		return
	}
	sb.str.chars[sb.length] = c
	sb.length++
	sb.terminate()
}

// AppendRune appends the UTF-8 encoding of r.
func (sb *StringBuf) AppendRune(r rune) {
	n := utf8.RuneLen(r)
	if n < 0 {
		r, n = utf8.RuneError, 3
	}
	if !sb.reserve(n) {
		return
	}
	utf8.EncodeRune(sb.str.chars[sb.length:], r)
	sb.length += n
	sb.terminate()
}

// AppendInt appends the decimal form of v.
func (sb *StringBuf) AppendInt(v int64) {
	var tmp [20]byte
	sb.AppendBytes(strconv.AppendInt(tmp[:0], v, 10))
}

// AppendRepeat appends s n times as a single append.
func (sb *StringBuf) AppendRepeat(s string, n int) {
	if n <= 0 || len(s) == 0 || !sb.reserve(len(s)*n) {
		return
	}
	for i := 0; i < n; i++ {
		copy(sb.str.chars[sb.length:], s)
		sb.length += len(s)
	}
	sb.terminate()
}

// AppendFormat appends fmt.Sprintf(format, args...). The formatted length is
// measured with a dry run first, the buffer grows to fit, and only then is
// the output written into the reserved space.
func (sb *StringBuf) AppendFormat(format string, args ...any) {
	var dry countWriter
	fmt.Fprintf(&dry, format, args...)
	needed := int(dry)
	if needed == 0 || !sb.reserve(needed) {
		return
	}

	dst := sb.str.chars[sb.length : sb.length : sb.capacity]
	out := fmt.Appendf(dst, format, args...)
	if len(out) != needed || (len(out) > 0 && &out[0] != &sb.str.chars[sb.length]) {
		// A Stringer produced different output on the second call; copy
		// whatever it produced through the regular path.
		sb.AppendBytes(out)
		return
	}
	sb.length += needed
	sb.terminate()
}

// Write implements io.Writer. A write that would exceed MaxStringLen is
// dropped and reported as ErrStringTooLong.
func (sb *StringBuf) Write(p []byte) (int, error) {
	before := sb.rejected
	sb.AppendBytes(p)
	if sb.rejected != before {
		return 0, ErrStringTooLong
	}
	if len(p) > 0 && sb.err != nil {
		return 0, sb.err
	}
	return len(p), nil
}

// WriteString implements io.StringWriter.
func (sb *StringBuf) WriteString(s string) (int, error) {
	before := sb.rejected
	sb.Append(s)
	if sb.rejected != before {
		return 0, ErrStringTooLong
	}
	return len(s), nil
}

// LastByte returns the final byte, or 0 for an empty buffer.
func (sb *StringBuf) LastByte() byte {
	if sb.length == 0 {
		return 0
	}
	return sb.str.chars[sb.length-1]
}

// HasSuffix reports whether the contents end with s.
func (sb *StringBuf) HasSuffix(s string) bool {
	return bytes.HasSuffix(sb.Bytes(), []byte(s))
}

// Truncate shortens the buffer to n bytes.
func (sb *StringBuf) Truncate(n int) {
	if n < 0 || n >= sb.length {
		return
	}
	sb.length = n
	sb.terminate()
}

// TrimTrailingSpace removes trailing ASCII whitespace.
func (sb *StringBuf) TrimTrailingSpace() {
	n := sb.length
	for n > 0 {
		switch sb.str.chars[n-1] {
		case ' ', '\t', '\n', '\r':
			n--
			continue
		}
		break
	}
	sb.Truncate(n)
}

// Reset empties the buffer but keeps its storage.
func (sb *StringBuf) Reset() {
	sb.length = 0
	if sb.str != nil {
		sb.terminate()
	}
}

// ToString transfers the contents to a String and resets the builder. The
// builder allocates fresh storage on its next append.
func (sb *StringBuf) ToString() *String {
	if sb.str == nil {
		s, _ := NewString(sb.pool, "")
		return s
	}
	s := sb.str
	s.chars = s.chars[:sb.length+1]
	sb.str = nil
	sb.length = 0
	sb.capacity = 0
	return s
}

type countWriter int

func (c *countWriter) Write(p []byte) (int, error) {
	*c += countWriter(len(p))
	return len(p), nil
}
