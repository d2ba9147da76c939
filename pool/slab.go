package pool

// Slab is a typed chunk allocator for values that hold Go pointers and so
// cannot live in a byte arena. It hands out pointers into fixed-size chunks;
// the chunks are released together by Reset.
type Slab[T any] struct {
	chunkSize int
	chunks    [][]T
	n         int
}

// DefaultSlabChunk is the chunk length used when NewSlab is given zero.
const DefaultSlabChunk = 64

// NewSlab creates a slab whose chunks hold chunkSize values.
func NewSlab[T any](chunkSize int) *Slab[T] {
	if chunkSize <= 0 {
		chunkSize = DefaultSlabChunk
	}
	return &Slab[T]{chunkSize: chunkSize}
}

// New returns a pointer to a zero value owned by the slab.
func (s *Slab[T]) New() *T {
	if s.chunkSize == 0 {
		s.chunkSize = DefaultSlabChunk
	}
	last := len(s.chunks) - 1
	if last < 0 || len(s.chunks[last]) == cap(s.chunks[last]) {
		s.chunks = append(s.chunks, make([]T, 0, s.chunkSize))
		last++
	}
	var zero T
	s.chunks[last] = append(s.chunks[last], zero)
	s.n++
	return &s.chunks[last][len(s.chunks[last])-1]
}

// Len returns the number of values handed out since the last Reset.
func (s *Slab[T]) Len() int {
	return s.n
}

// Reset drops every chunk. Pointers returned by New must not be used
// afterwards.
func (s *Slab[T]) Reset() {
	for i := range s.chunks {
		clear(s.chunks[i])
		s.chunks[i] = nil
	}
	s.chunks = nil
	s.n = 0
}
