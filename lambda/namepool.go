package lambda

import (
	"errors"

	"github.com/Neumenon/lambda/pool"
)

var errReleasedNamePool = errors.New("lambda: name pool released")

// NamePool interns identifiers. Equal names resolve to the same *String for
// the lifetime of the pool. A pool may have a parent; lookups that miss
// locally continue up the chain, and Create returns the ancestor's entry
// when one exists.
//
// NamePool has a single writer. Lookups return pointers that stay valid
// until the pool is released.
type NamePool struct {
	mem    *pool.Pool
	parent *NamePool
	names  map[string]*String
	refs   int
}

// NewNamePool creates a name pool backed by mem. The parent, if any, is
// retained until this pool is released.
func NewNamePool(mem *pool.Pool, parent *NamePool) *NamePool {
	if parent != nil {
		parent.Retain()
	}
	return &NamePool{
		mem:    mem,
		parent: parent,
		names:  make(map[string]*String),
		refs:   1,
	}
}

// Parent returns the parent pool.
func (np *NamePool) Parent() *NamePool {
	return np.parent
}

// Len returns the number of names interned locally.
func (np *NamePool) Len() int {
	return len(np.names)
}

// Create interns name.
func (np *NamePool) Create(name string) (*String, error) {
	if s := np.Lookup(name); s != nil {
		return s, nil
	}
	return np.insert(name)
}

// CreateLen interns the first n bytes of b.
func (np *NamePool) CreateLen(b []byte, n int) (*String, error) {
	if n > len(b) {
		n = len(b)
	}
	if s := np.LookupLen(b, n); s != nil {
		return s, nil
	}
	return np.insert(string(b[:n]))
}

// CreateStrView interns the bytes of v.
func (np *NamePool) CreateStrView(v StrView) (*String, error) {
	b := v.Bytes()
	return np.CreateLen(b, len(b))
}

// Lookup returns the interned entry for name, searching parents on a miss.
func (np *NamePool) Lookup(name string) *String {
	for p := np; p != nil; p = p.parent {
		if s, ok := p.names[name]; ok {
			return s
		}
	}
	return nil
}

// LookupLen is Lookup over the first n bytes of b.
func (np *NamePool) LookupLen(b []byte, n int) *String {
	if n > len(b) {
		n = len(b)
	}
	for p := np; p != nil; p = p.parent {
		if s, ok := p.names[string(b[:n])]; ok {
			return s
		}
	}
	return nil
}

// LookupStrView is Lookup over the bytes of v.
func (np *NamePool) LookupStrView(v StrView) *String {
	b := v.Bytes()
	return np.LookupLen(b, len(b))
}

func (np *NamePool) insert(name string) (*String, error) {
	if np.names == nil {
		return nil, errReleasedNamePool
	}
	s, err := NewString(np.mem, name)
	if err != nil {
		return nil, err
	}
	s.flags |= FlagSymbol
	np.names[name] = s
	return s, nil
}

// Retain increments the reference count.
func (np *NamePool) Retain() *NamePool {
	np.refs++
	return np
}

// Release decrements the reference count. At zero the table is dropped and
// the parent released.
func (np *NamePool) Release() {
	if np.refs == 0 {
		return
	}
	np.refs--
	if np.refs > 0 {
		return
	}
	np.names = nil
	if np.parent != nil {
		np.parent.Release()
		np.parent = nil
	}
}
