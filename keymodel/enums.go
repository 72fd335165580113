// Package keymodel implements C1 of the rsbd8 design: classifying a key
// type into (endianness, byte count, signedness, sign-bit position) and
// providing the byte-indexing view the later passes consume.
package keymodel

// Direction selects the logical sort order and the output layout
// convention, per spec.md §6.
type Direction uint8

const (
	// AscFwd sorts ascending and scatters the forward (non-reversed) way.
	AscFwd Direction = iota
	// AscRev sorts ascending but scatters via the reversed-scan convention.
	AscRev
	// DescFwd sorts descending via the forward-scan convention.
	DescFwd
	// DescRev sorts descending, reversed-scan: the exact reverse of AscFwd.
	DescRev
)

// Descending reports whether d orders large keys first.
func (d Direction) Descending() bool {
	return d == DescFwd || d == DescRev
}

// Reversed reports whether d uses the reversed-scan scatter convention.
func (d Direction) Reversed() bool {
	return d == AscRev || d == DescRev
}

func (d Direction) String() string {
	switch d {
	case AscFwd:
		return "asc-fwd"
	case AscRev:
		return "asc-rev"
	case DescFwd:
		return "desc-fwd"
	case DescRev:
		return "desc-rev"
	default:
		return "direction(invalid)"
	}
}

// Mode selects how the key's byte pattern is interpreted, per spec.md §6.
type Mode uint8

const (
	// Auto infers signedness/float-ness from the static key type.
	Auto Mode = iota
	// ForceUnsigned treats the key's bytes as an unsigned integer regardless
	// of the static type — useful when reinterpreting raw bytes.
	ForceUnsigned
	// ForceSigned treats the key's bytes as two's-complement signed.
	ForceSigned
	// ForceFloat treats the key's bytes as IEEE-754 (or an explicit-exponent
	// composite float record); the top byte is the sign/exponent byte.
	ForceFloat
)

func (m Mode) String() string {
	switch m {
	case Auto:
		return "auto"
	case ForceUnsigned:
		return "force-unsigned"
	case ForceSigned:
		return "force-signed"
	case ForceFloat:
		return "force-float"
	default:
		return "mode(invalid)"
	}
}
