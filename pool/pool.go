// Package pool provides the document-scoped arena that backs strings,
// descriptors and container payloads.
//
// A Pool hands out slices carved from large blocks. Blocks are obtained from
// a shared buffer pool and returned to it when the Pool is destroyed, so a
// whole document is released in one step. Individual frees are optional;
// freed regions are parked on a size-bucketed free list and reused by later
// allocations of the same rounded size.
package pool

import (
	"errors"
	"fmt"
	"unsafe"

	bufpool "github.com/libp2p/go-buffer-pool"
)

// Align is the allocation granularity. Every returned region starts on a
// pointer-sized boundary relative to its block.
const Align = int(unsafe.Sizeof(uintptr(0)))

// Allocation errors
var (
	ErrExhausted     = errors.New("pool: exhausted")
	ErrDestroyed     = errors.New("pool: destroyed")
	ErrInvalidSize   = errors.New("pool: invalid size")
	ErrNotAssociated = errors.New("pool: region not associated with pool")
)

// ============================================================
// Pool
// ============================================================

// Pool is a fixed-growth, variable-size arena. It is not safe for
// concurrent use; one document owns one pool.
type Pool struct {
	growSize  int
	tolerance int
	limit     int

	blocks []block
	cur    int // index of the block being carved, -1 if none
	off    int // carve offset within blocks[cur]

	free map[int][][]byte

	reserved  int
	inUse     int
	destroyed bool
}

type block struct {
	buf   []byte
	base  uintptr
	limit uintptr
}

// Option configures a Pool.
type Option func(*Pool)

// WithLimit caps the total number of block bytes the pool may reserve.
// Zero means unbounded.
func WithLimit(bytes int) Option {
	return func(p *Pool) {
		p.limit = bytes
	}
}

// New creates a pool that grows by growSize bytes at a time. Requests larger
// than growSize plus tolerancePct percent get a dedicated block.
func New(growSize, tolerancePct int, opts ...Option) (*Pool, error) {
	if growSize <= 0 {
		return nil, fmt.Errorf("pool: grow size must be positive, got %d", growSize)
	}
	if tolerancePct < 0 {
		return nil, fmt.Errorf("pool: tolerance must not be negative, got %d", tolerancePct)
	}

	p := &Pool{
		growSize:  roundUp(growSize),
		tolerance: tolerancePct,
		cur:       -1,
		free:      make(map[int][][]byte),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Alloc returns a region of size bytes. The region's contents are
// unspecified; use Calloc for zeroed memory. The returned slice has length
// size and capacity equal to the rounded allocation size.
func (p *Pool) Alloc(size int) ([]byte, error) {
	if p.destroyed {
		return nil, ErrDestroyed
	}
	if size < 0 || size > maxAlloc {
		return nil, ErrInvalidSize
	}
	rounded := roundUp(size)
	if rounded == 0 {
		rounded = Align
	}

	if list := p.free[rounded]; len(list) > 0 {
		b := list[len(list)-1]
		p.free[rounded] = list[:len(list)-1]
		p.inUse += rounded
		return b[:size:rounded], nil
	}

	if p.cur >= 0 && len(p.blocks[p.cur].buf)-p.off >= rounded {
		blk := p.blocks[p.cur].buf
		b := blk[p.off : p.off+size : p.off+rounded]
		p.off += rounded
		p.inUse += rounded
		return b, nil
	}

	if rounded > p.growSize*(100+p.tolerance)/100 {
		// Oversized requests get their own block and leave the current
		// carve position alone.
		blk, err := p.reserve(rounded)
		if err != nil {
			return nil, err
		}
		p.inUse += rounded
		return blk[:size:rounded], nil
	}

	blockSize := p.growSize
	if rounded > blockSize {
		blockSize = rounded
	}
	if _, err := p.reserve(blockSize); err != nil {
		return nil, err
	}
	p.cur = len(p.blocks) - 1
	p.off = rounded
	p.inUse += rounded
	return p.blocks[p.cur].buf[:size:rounded], nil
}

// Calloc is Alloc followed by zeroing the region.
func (p *Pool) Calloc(size int) ([]byte, error) {
	b, err := p.Alloc(size)
	if err != nil {
		return nil, err
	}
	clear(b[:cap(b)])
	return b, nil
}

// Free returns a region previously obtained from Alloc to the free list.
// Regions that do not belong to the pool are refused with ErrNotAssociated.
func (p *Pool) Free(b []byte) error {
	if p.destroyed {
		return ErrDestroyed
	}
	if !p.IsAssociated(b) {
		return ErrNotAssociated
	}
	rounded := cap(b)
	p.free[rounded] = append(p.free[rounded], b[:0:rounded])
	p.inUse -= rounded
	return nil
}

// IsAssociated reports whether b points into one of the pool's blocks.
// Static data and foreign slices report false.
func (p *Pool) IsAssociated(b []byte) bool {
	if p == nil || cap(b) == 0 {
		return false
	}
	ptr := uintptr(unsafe.Pointer(unsafe.SliceData(b[:1])))
	for _, blk := range p.blocks {
		if ptr >= blk.base && ptr < blk.limit {
			return true
		}
	}
	return false
}

// Destroy releases every block back to the shared buffer pool. Regions
// handed out by the pool must not be used afterwards.
func (p *Pool) Destroy() {
	if p.destroyed {
		return
	}
	for i := range p.blocks {
		bufpool.Put(p.blocks[i].buf)
		p.blocks[i] = block{}
	}
	p.blocks = nil
	p.free = nil
	p.cur = -1
	p.off = 0
	p.reserved = 0
	p.inUse = 0
	p.destroyed = true
}

// Destroyed reports whether Destroy has been called.
func (p *Pool) Destroyed() bool {
	return p.destroyed
}

// Stats describes pool occupancy.
type Stats struct {
	Blocks   int
	Reserved int // bytes held in blocks
	InUse    int // bytes handed out and not freed
}

// Stats returns current occupancy.
func (p *Pool) Stats() Stats {
	return Stats{Blocks: len(p.blocks), Reserved: p.reserved, InUse: p.inUse}
}

func (p *Pool) reserve(size int) ([]byte, error) {
	if p.limit > 0 && p.reserved+size > p.limit {
		return nil, fmt.Errorf("%w: need %d bytes, %d of %d reserved", ErrExhausted, size, p.reserved, p.limit)
	}
	buf := bufpool.Get(size)
	base := uintptr(unsafe.Pointer(unsafe.SliceData(buf)))
	p.blocks = append(p.blocks, block{buf: buf, base: base, limit: base + uintptr(len(buf))})
	p.reserved += size
	return buf, nil
}

const maxAlloc = 1 << 40

func roundUp(n int) int {
	return (n + Align - 1) &^ (Align - 1)
}
