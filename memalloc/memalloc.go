// Package memalloc implements C7: scoped scratch-buffer acquisition for
// the dispatcher's allocating entry points (Sort, SortCopy), preferring
// large (huge) pages and falling back to ordinary anonymous memory when
// the platform or the running process can't get a huge-page mapping.
package memalloc

// Scratch is a scoped scratch buffer. Callers must call Release exactly
// once, whether or not Acquire's large-page attempt succeeded; Release on
// a normal-page buffer is always just letting the GC reclaim it.
type Scratch struct {
	buf      []byte
	large    bool
	unmapper func()
}

// Bytes returns the acquired buffer, len(buf) == size.
func (s *Scratch) Bytes() []byte { return s.buf }

// LargePage reports whether this buffer is backed by a huge-page mapping.
func (s *Scratch) LargePage() bool { return s.large }

// Release returns the buffer's backing memory. It is safe to call exactly
// once; calling it twice, or using Bytes() afterward, is a caller bug.
func (s *Scratch) Release() {
	if s.unmapper != nil {
		s.unmapper()
		s.unmapper = nil
	}
	s.buf = nil
}

// defaultPageSize is used when the caller's page_hint is 0 ("the allocator
// chooses", §4.8).
const defaultPageSize = 2 << 20

// Acquire reserves size bytes of scratch space, per §4.7: try a huge-page
// mapping first (the large-TLB-entry win matters most for exactly the
// large buffers this engine allocates during a non-in-place sort), and
// silently fall back to a normal Go-heap allocation on any failure —
// huge pages are an optimization, never a correctness requirement, so a
// fallback is never an error condition the caller needs to observe.
//
// pageHint is the caller's requested large-page size (§4.8's page_hint);
// 0 means "the allocator chooses" and uses defaultPageSize. The dispatcher
// validates pageHint before calling Acquire, so Acquire itself never
// rejects it.
func Acquire(size, pageHint int) *Scratch {
	if size == 0 {
		return &Scratch{buf: []byte{}}
	}
	pageSize := pageHint
	if pageSize == 0 {
		pageSize = defaultPageSize
	}
	if buf, unmap, ok := acquireLargePage(size, pageSize); ok {
		return &Scratch{buf: buf[:size], large: true, unmapper: unmap}
	}
	return &Scratch{buf: make([]byte, size)}
}
