package lambda

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Neumenon/lambda/pool"
)

func newTestPool(t *testing.T) *pool.Pool {
	t.Helper()
	p, err := pool.New(1024, 20)
	require.NoError(t, err)
	t.Cleanup(p.Destroy)
	return p
}

func TestStringTerminator(t *testing.T) {
	p := newTestPool(t)
	s, err := NewString(p, "hello")
	require.NoError(t, err)

	assert.Equal(t, 5, s.Len())
	assert.Equal(t, "hello", s.String())
	assert.Equal(t, byte(0), s.CString()[5])
	assert.Equal(t, 1, s.RefCount())
}

func TestStringRefcount(t *testing.T) {
	p := newTestPool(t)
	s, err := NewString(p, "shared")
	require.NoError(t, err)
	before := p.Stats().InUse

	s.Retain()
	s.Release()
	assert.Equal(t, "shared", s.String())

	s.Release()
	assert.Equal(t, 0, s.Len())
	assert.Less(t, p.Stats().InUse, before)
}

func TestStaticStringNeverFreed(t *testing.T) {
	s := StaticString("const")
	s.Release()
	s.Release()
	assert.Equal(t, "const", s.String())
	assert.NotZero(t, s.Flags()&FlagStatic)
}

func TestStringTooLong(t *testing.T) {
	_, err := NewString(nil, strings.Repeat("x", MaxStringLen+1))
	assert.ErrorIs(t, err, ErrStringTooLong)
}

func TestStringBufDoubles(t *testing.T) {
	p := newTestPool(t)
	sb := NewStringBuf(p)

	sb.Append("abc")
	first := sb.Cap()
	assert.Equal(t, minBufCap, first)

	sb.Append(strings.Repeat("y", first))
	assert.Equal(t, first*2, sb.Cap())
	assert.Equal(t, 3+first, sb.Len())
	assert.True(t, strings.HasPrefix(sb.String(), "abcyyy"))

	sb.Append(strings.Repeat("z", first*2))
	assert.Equal(t, first*4, sb.Cap())
	require.NoError(t, sb.Err())

	sb.ToString().Release()
	assert.Zero(t, sb.Cap())
}

func TestStringBufAppendFormatGrowsFirst(t *testing.T) {
	p := newTestPool(t)
	sb := NewStringBuf(p)
	sb.Append("prefix:")

	long := strings.Repeat("z", 500)
	sb.AppendFormat("%s|%d|%s", long, 42, long)

	assert.Equal(t, "prefix:"+long+"|42|"+long, sb.String())
	assert.GreaterOrEqual(t, sb.Cap(), sb.Len())
}

func TestStringBufAppendFormatManySmall(t *testing.T) {
	sb := NewStringBuf(nil)
	var want strings.Builder
	for i := 0; i < 200; i++ {
		sb.AppendFormat("<%d:%x>", i, i*7)
		fmt.Fprintf(&want, "<%d:%x>", i, i*7)
	}
	assert.Equal(t, want.String(), sb.String())
}

func TestStringBufRejectsOverflow(t *testing.T) {
	sb := NewStringBuf(nil)
	sb.Append(strings.Repeat("a", MaxStringLen-2))
	sb.Append("é")  // 2 bytes: fits exactly
	sb.Append("日") // 3 bytes: rejected whole
	sb.AppendFormat("%s", "xyz")

	assert.Equal(t, MaxStringLen, sb.Len())
	assert.Equal(t, 2, sb.Rejected())
	assert.True(t, sb.HasSuffix("é"))

	n, err := sb.Write([]byte("q"))
	assert.Zero(t, n)
	assert.ErrorIs(t, err, ErrStringTooLong)
}

func TestStringBufToStringTransfers(t *testing.T) {
	p := newTestPool(t)
	sb := NewStringBuf(p)
	sb.Append("owned")

	s := sb.ToString()
	assert.Equal(t, "owned", s.String())
	assert.Equal(t, byte(0), s.CString()[s.Len()])
	assert.Equal(t, 0, sb.Len())

	sb.Append("fresh")
	assert.Equal(t, "owned", s.String())
	assert.Equal(t, "fresh", sb.String())
}

func TestStringBufTrimAndTruncate(t *testing.T) {
	sb := NewStringBuf(nil)
	sb.Append("text \n\t ")
	sb.TrimTrailingSpace()
	assert.Equal(t, "text", sb.String())
	assert.Equal(t, byte('t'), sb.LastByte())

	sb.Truncate(2)
	assert.Equal(t, "te", sb.String())

	sb.AppendRune('→')
	sb.AppendByte('!')
	sb.AppendInt(-7)
	sb.AppendRepeat("ab", 2)
	assert.Equal(t, "te→!-7abab", sb.String())

	sb.Reset()
	assert.Equal(t, "", sb.String())
}

func TestStringBufIsWriter(t *testing.T) {
	sb := NewStringBuf(nil)
	fmt.Fprintf(sb, "%d-%s", 1, "two")
	assert.Equal(t, "1-two", sb.String())
}

func TestStrView(t *testing.T) {
	src := []byte("\\section{Intro}")
	v := ViewOf(src, 1, 8)
	assert.Equal(t, "section", v.String())
	assert.Equal(t, 7, v.Len())
	start, end := v.Range()
	assert.Equal(t, 1, start)
	assert.Equal(t, 8, end)
}
