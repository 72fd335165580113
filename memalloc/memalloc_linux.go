//go:build linux

package memalloc

import (
	"golang.org/x/sys/unix"
)

// acquireLargePage requests a huge-page mapping rounded up to pageSize.
// Requests smaller than pageSize skip the large-page path entirely — a
// single huge page is wasteful for a tiny sort's scratch buffer.
func acquireLargePage(size, pageSize int) (buf []byte, unmap func(), ok bool) {
	if size < pageSize {
		return nil, nil, false
	}
	rounded := roundUp(size, pageSize)
	b, err := unix.Mmap(-1, 0, rounded,
		unix.PROT_READ|unix.PROT_WRITE,
		unix.MAP_PRIVATE|unix.MAP_ANONYMOUS|unix.MAP_HUGETLB)
	if err != nil {
		return nil, nil, false
	}
	return b, func() { _ = unix.Munmap(b) }, true
}

func roundUp(size, multiple int) int {
	return (size + multiple - 1) / multiple * multiple
}
