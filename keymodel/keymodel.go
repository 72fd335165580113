package keymodel

import (
	"encoding/binary"
	"reflect"
	"unsafe"
)

// Signedness classifies how the top byte of a key participates in ordering.
type Signedness uint8

const (
	// Unsigned keys order by raw byte-lexicographic comparison.
	Unsigned Signedness = iota
	// Signed keys are two's-complement; the sign byte's MSB must be
	// rotated to the front of the bucket order on the final pass.
	Signed
	// Float keys are IEEE-754 (or an explicit-exponent composite record);
	// negative magnitudes additionally need reversed bucket iteration.
	Float
)

func (s Signedness) String() string {
	switch s {
	case Unsigned:
		return "unsigned"
	case Signed:
		return "signed"
	case Float:
		return "float"
	default:
		return "signedness(invalid)"
	}
}

// Descriptor fully classifies a fixed-width sort key, per spec.md §3.
//
// byte_order is not a field here: every Descriptor describes a
// little-endian byte layout, which is what Keyish's underlying Go types
// (and the ldouble80/96/128 composite records below) always use. A
// big-endian byte_order would only arise from reinterpreting foreign wire
// data, which is out of scope for this engine (§1 scope is contiguous
// arrays of in-memory scalar/composite keys).
type Descriptor struct {
	Width int
	Kind  Signedness
	// SignByteOffset is the byte index (within one key) carrying the sign
	// bit, or -1 if Kind == Unsigned. It is always Width-1 for every shape
	// this engine recognizes (§6's composite table stores the sign/exponent
	// word last), but it is modeled as an explicit field rather than
	// hardcoded, matching spec.md §3's Key data model.
	SignByteOffset int
}

// HasSignFixup reports whether the final pass needs the §4.5 bucket
// reorder.
func (d Descriptor) HasSignFixup() bool {
	return d.Kind != Unsigned && d.SignByteOffset >= 0
}

// Keyish is the set of Go types this engine can sort directly: every
// fixed-width primitive scalar the spec names (§3 W ∈ {1,2,4,8}), plus the
// three composite float record shapes of §6 (W ∈ {10,12,16}).
type Keyish interface {
	~uint8 | ~uint16 | ~uint32 | ~uint64 |
		~int8 | ~int16 | ~int32 | ~int64 |
		~float32 | ~float64 |
		~[10]byte | ~[12]byte | ~[16]byte
}

// LDouble80 is a simulated 80-bit extended-precision float record: 8
// mantissa bytes (little-endian) followed by a 16-bit signed-exponent word
// (little-endian), per spec.md §6.
type LDouble80 [10]byte

// LDouble96 is the 96-bit shape: 8 mantissa bytes + a 32-bit signed-exponent
// word.
type LDouble96 [12]byte

// LDouble128 is the 128-bit shape: 8 mantissa bytes + a 64-bit
// signed-exponent word.
type LDouble128 [16]byte

// NewLDouble80 packs a mantissa and signed-exponent word into the
// composite's little-endian byte layout.
func NewLDouble80(mantissa uint64, signExp uint16) LDouble80 {
	var r LDouble80
	binary.LittleEndian.PutUint64(r[0:8], mantissa)
	binary.LittleEndian.PutUint16(r[8:10], signExp)
	return r
}

// NewLDouble96 packs a mantissa and 32-bit signed-exponent word.
func NewLDouble96(mantissa uint64, signExp uint32) LDouble96 {
	var r LDouble96
	binary.LittleEndian.PutUint64(r[0:8], mantissa)
	binary.LittleEndian.PutUint32(r[8:12], signExp)
	return r
}

// NewLDouble128 packs a mantissa and 64-bit signed-exponent word.
func NewLDouble128(mantissa uint64, signExp uint64) LDouble128 {
	var r LDouble128
	binary.LittleEndian.PutUint64(r[0:8], mantissa)
	binary.LittleEndian.PutUint64(r[8:16], signExp)
	return r
}

// Mantissa returns the 64-bit mantissa field.
func (r LDouble80) Mantissa() uint64 { return binary.LittleEndian.Uint64(r[0:8]) }

// SignExp returns the 16-bit signed-exponent word (its top bit is the sign).
func (r LDouble80) SignExp() uint16 { return binary.LittleEndian.Uint16(r[8:10]) }

// Mantissa returns the 64-bit mantissa field.
func (r LDouble96) Mantissa() uint64 { return binary.LittleEndian.Uint64(r[0:8]) }

// SignExp returns the 32-bit signed-exponent word.
func (r LDouble96) SignExp() uint32 { return binary.LittleEndian.Uint32(r[8:12]) }

// Mantissa returns the 64-bit mantissa field.
func (r LDouble128) Mantissa() uint64 { return binary.LittleEndian.Uint64(r[0:8]) }

// SignExp returns the 64-bit signed-exponent word.
func (r LDouble128) SignExp() uint64 { return binary.LittleEndian.Uint64(r[8:16]) }

// SizeOf returns the width, in bytes, of T.
func SizeOf[T Keyish]() int {
	var zero T
	return int(unsafe.Sizeof(zero))
}

// Classify derives a Descriptor for T under the requested Mode. Auto infers
// signedness/float-ness from T's static Go kind; the Force* modes override
// it regardless of T, which is how a caller reinterprets raw bytes (§6).
func Classify[T Keyish](mode Mode) Descriptor {
	w := SizeOf[T]()
	switch mode {
	case ForceUnsigned:
		return Descriptor{Width: w, Kind: Unsigned, SignByteOffset: -1}
	case ForceSigned:
		return Descriptor{Width: w, Kind: Signed, SignByteOffset: w - 1}
	case ForceFloat:
		return Descriptor{Width: w, Kind: Float, SignByteOffset: w - 1}
	default:
		var zero T
		switch reflect.TypeOf(zero).Kind() {
		case reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uint, reflect.Uintptr:
			return Descriptor{Width: w, Kind: Unsigned, SignByteOffset: -1}
		case reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64, reflect.Int:
			return Descriptor{Width: w, Kind: Signed, SignByteOffset: w - 1}
		case reflect.Float32, reflect.Float64:
			return Descriptor{Width: w, Kind: Float, SignByteOffset: w - 1}
		default:
			// Array-shaped composite keys (ldoubleNN) have no Go-level
			// signedness; Auto can only treat them as opaque unsigned byte
			// strings. A caller sorting a composite float record must pass
			// ForceFloat explicitly.
			return Descriptor{Width: w, Kind: Unsigned, SignByteOffset: -1}
		}
	}
}

// BytesOf reinterprets a contiguous slice of T as one flat byte slice
// without copying, the "byte-indexing view" C1 is responsible for
// producing. It relies on Keyish containing only types with no internal
// padding (fixed-width scalars and byte arrays), so element i's bytes
// occupy buf[i*w : i*w+w].
func BytesOf[T Keyish](buf []T) []byte {
	if len(buf) == 0 {
		return nil
	}
	w := SizeOf[T]()
	return unsafe.Slice((*byte)(unsafe.Pointer(&buf[0])), len(buf)*w)
}

// ViewAs is the inverse of BytesOf: it reinterprets a flat byte slice,
// such as a memalloc.Scratch arena, as a slice of T without copying.
// len(b) must be an exact multiple of sizeof(T).
func ViewAs[T Keyish](b []byte) []T {
	if len(b) == 0 {
		return nil
	}
	w := SizeOf[T]()
	return unsafe.Slice((*T)(unsafe.Pointer(&b[0])), len(b)/w)
}

// Digit returns the raw byte that pass p consumes for the key occupying
// key[0:w]. Because every recognized shape stores bytes least-significant
// first (§4.1), the digit for pass p is simply key[p].
func Digit(key []byte, pass int) byte {
	return key[pass]
}

// NormalizedDigit returns the ascending-order-normalized digit for pass p,
// implementing the §4.5 sign/float fix-up protocol once, at the byte-view
// level, instead of as a per-pass bucket-order permutation table:
//
//   - Unsigned: the raw byte already orders correctly.
//   - Signed (two's complement): magnitude bytes are already monotonic in
//     raw unsigned-byte order regardless of sign, so only the sign byte
//     needs its MSB rotated to the front (XOR 0x80).
//   - Float (sign-magnitude): a negative key's entire byte pattern
//     compares backwards relative to a positive one, so every byte of a
//     negative key is bitwise-complemented; a non-negative key only has
//     its sign byte's MSB flipped, exactly like the signed case. Every
//     pass reads the sign byte of its own element to decide which
//     transform applies; no separate full-record transform pass is
//     needed, and the scatter/histogram loops stay unmodified — they
//     always enumerate buckets 0..255 ascending (or 255..0 descending)
//     over whatever NormalizedDigit returns.
//
// Descending order is produced by the caller reversing bucket enumeration
// order, not by this function; NormalizedDigit always normalizes to
// ascending.
func NormalizedDigit(key []byte, pass int, desc Descriptor) byte {
	raw := key[pass]
	switch desc.Kind {
	case Signed:
		if pass == desc.SignByteOffset {
			return raw ^ 0x80
		}
		return raw
	case Float:
		if key[desc.SignByteOffset]&0x80 != 0 {
			return ^raw
		}
		if pass == desc.SignByteOffset {
			return raw ^ 0x80
		}
		return raw
	default: // Unsigned
		return raw
	}
}
