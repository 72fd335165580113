// Package fill provides the pseudo-random input-buffer fill collaborator
// the benchmark harness uses (§1's "pseudo-random fill of the input
// buffer" is explicitly an external collaborator, not core scope). It is
// deterministic given a seed, so benchmark runs are reproducible.
package fill

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"
)

// Bytes fills buf with a counter-mode pseudo-random byte stream: buf is
// carved into 8-byte lanes, each lane hashed from (seed, lane index), the
// hash's bytes copied out least-significant first. It is not
// cryptographically secure and isn't meant to be; it only needs enough
// dispersion across digit positions to exercise every scatter bucket in
// benchmark runs.
func Bytes(buf []byte, seed uint64) {
	var lane [8]byte
	for i := 0; i*8 < len(buf); i++ {
		binary.LittleEndian.PutUint64(lane[:], seed)
		h := xxhash.Sum64(append(lane[:], byte(i), byte(i>>8), byte(i>>16), byte(i>>24)))
		var out [8]byte
		binary.LittleEndian.PutUint64(out[:], h)
		n := copy(buf[i*8:], out[:])
		_ = n
	}
}

// Uint32s fills buf with pseudo-random uint32 values, each the low 32 bits
// of the xxhash of seed XOR (index * 0x9E3779B97F4A7C15), for benchmark
// scenarios that sort typed scalar arrays rather than raw bytes directly.
func Uint32s(buf []uint32, seed uint64) {
	for i := range buf {
		h := xxhash.Sum64(appendUint64(nil, seed^uint64(i)*0x9E3779B97F4A7C15))
		buf[i] = uint32(h)
	}
}

func appendUint64(b []byte, v uint64) []byte {
	var tmp [8]byte
	binary.LittleEndian.PutUint64(tmp[:], v)
	return append(b, tmp[:]...)
}
