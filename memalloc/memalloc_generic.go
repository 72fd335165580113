//go:build !linux

package memalloc

// Non-Linux platforms have no portable huge-page mmap flag reachable
// through golang.org/x/sys/unix; Acquire's normal-page fallback handles
// every request here.
func acquireLargePage(size, pageSize int) (buf []byte, unmap func(), ok bool) {
	return nil, nil, false
}
