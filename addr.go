package rsbd8

import "unsafe"

// sliceAddr returns the half-open address range [start, end) a byte slice
// occupies, used only for the overlap checks the input-validation
// contract (§4.8) requires.
func sliceAddr(b []byte) (start, end uintptr) {
	start = uintptr(unsafe.Pointer(&b[0]))
	return start, start + uintptr(len(b))
}
