package pool_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Neumenon/lambda/pool"
)

func TestAllocAligned(t *testing.T) {
	p, err := pool.New(256, 20)
	require.NoError(t, err)
	defer p.Destroy()

	for _, size := range []int{1, 3, 8, 13, 64} {
		b, err := p.Alloc(size)
		require.NoError(t, err)
		assert.Len(t, b, size)
		assert.Zero(t, cap(b)%pool.Align, "capacity %d not aligned", cap(b))
		assert.True(t, p.IsAssociated(b))
	}
}

func TestAllocZeroSizeIsNotNil(t *testing.T) {
	p, err := pool.New(64, 0)
	require.NoError(t, err)
	defer p.Destroy()

	b, err := p.Alloc(0)
	require.NoError(t, err)
	assert.NotNil(t, b)
	assert.Equal(t, pool.Align, cap(b))
}

func TestCallocZeroes(t *testing.T) {
	p, err := pool.New(64, 0)
	require.NoError(t, err)
	defer p.Destroy()

	b, err := p.Alloc(16)
	require.NoError(t, err)
	for i := range b {
		b[i] = 0xff
	}
	require.NoError(t, p.Free(b))

	z, err := p.Calloc(16)
	require.NoError(t, err)
	assert.Equal(t, make([]byte, 16), z)
}

func TestFreeListReuse(t *testing.T) {
	p, err := pool.New(128, 0)
	require.NoError(t, err)
	defer p.Destroy()

	a, err := p.Alloc(24)
	require.NoError(t, err)
	require.NoError(t, p.Free(a))

	b, err := p.Alloc(20) // same rounded size
	require.NoError(t, err)
	assert.Same(t, &a[:1][0], &b[:1][0])
	assert.Equal(t, 1, p.Stats().Blocks)
}

func TestFreeForeignRegion(t *testing.T) {
	p, err := pool.New(64, 0)
	require.NoError(t, err)
	defer p.Destroy()

	static := []byte("static data")
	assert.False(t, p.IsAssociated(static))
	assert.ErrorIs(t, p.Free(static), pool.ErrNotAssociated)
	assert.False(t, p.IsAssociated(nil))
}

func TestGrowthAndOversizedBlocks(t *testing.T) {
	p, err := pool.New(64, 50)
	require.NoError(t, err)
	defer p.Destroy()

	_, err = p.Alloc(48)
	require.NoError(t, err)
	_, err = p.Alloc(48) // does not fit the remainder of block one
	require.NoError(t, err)
	assert.Equal(t, 2, p.Stats().Blocks)

	big, err := p.Alloc(1000)
	require.NoError(t, err)
	assert.Len(t, big, 1000)
	assert.Equal(t, 3, p.Stats().Blocks)

	// the carve block is untouched by the dedicated allocation
	_, err = p.Alloc(8)
	require.NoError(t, err)
	assert.Equal(t, 3, p.Stats().Blocks)
}

func TestLimitExhausted(t *testing.T) {
	p, err := pool.New(64, 0, pool.WithLimit(128))
	require.NoError(t, err)
	defer p.Destroy()

	_, err = p.Alloc(64)
	require.NoError(t, err)
	_, err = p.Alloc(64)
	require.NoError(t, err)
	_, err = p.Alloc(8)
	assert.ErrorIs(t, err, pool.ErrExhausted)
}

func TestDestroy(t *testing.T) {
	p, err := pool.New(64, 0)
	require.NoError(t, err)

	b, err := p.Alloc(8)
	require.NoError(t, err)
	p.Destroy()
	p.Destroy() // idempotent

	assert.True(t, p.Destroyed())
	assert.False(t, p.IsAssociated(b))
	_, err = p.Alloc(8)
	assert.ErrorIs(t, err, pool.ErrDestroyed)
	assert.Equal(t, pool.Stats{}, p.Stats())
}

func TestNewRejectsBadArguments(t *testing.T) {
	_, err := pool.New(0, 10)
	assert.Error(t, err)
	_, err = pool.New(64, -1)
	assert.Error(t, err)
}

func TestSlab(t *testing.T) {
	type node struct {
		name string
		next *node
	}

	s := pool.NewSlab[node](2)
	a := s.New()
	b := s.New()
	c := s.New()
	a.next, b.next = b, c
	c.name = "tail"

	assert.Equal(t, 3, s.Len())
	assert.Equal(t, "tail", a.next.next.name)

	s.Reset()
	assert.Equal(t, 0, s.Len())
}
