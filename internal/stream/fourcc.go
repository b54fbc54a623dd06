// Package stream implements the tagged, chunked binary stream used to
// serialize brain definitions: every scalar is preceded by a one-byte data
// type tag, and chunks are length-prefixed frames that may nest.
package stream

import "fmt"

// FourCC is a packed four-character code, used both as a chunk identifier
// and as a scalar tag for tagged convenience pairs (writeTaggedU32, ...).
// The four ASCII bytes are packed big-endian, so the constant's hex digits
// spell the code: fourCC("PGCT") == 0x50474354. The stream writes the
// value little-endian, so in a hex dump of encoded bytes the four
// characters appear reversed.
type FourCC uint32

// NewFourCC packs a 4-byte ASCII string into a FourCC. It fails if s is not
// exactly four bytes.
func NewFourCC(s string) (FourCC, error) {
	if len(s) != 4 {
		return 0, fmt.Errorf("fourcc: %q is not exactly 4 bytes", s)
	}
	return FourCC(uint32(s[0])<<24 | uint32(s[1])<<16 | uint32(s[2])<<8 | uint32(s[3])), nil
}

// MustFourCC is NewFourCC but panics on a malformed literal; intended for
// package-level chunk-id constants where the literal is known at compile
// time.
func MustFourCC(s string) FourCC {
	cc, err := NewFourCC(s)
	if err != nil {
		panic(err)
	}
	return cc
}

// String renders the FourCC back to its four ASCII characters.
func (cc FourCC) String() string {
	return string([]byte{
		byte(cc >> 24),
		byte(cc >> 16),
		byte(cc >> 8),
		byte(cc),
	})
}

// Well-known chunk and tag ids used by the brain binary format.
var (
	TagBRAN = MustFourCC("BRAN")
	TagNAME = MustFourCC("NAME")
	TagTCAT = MustFourCC("TCAT")
	TagTCNT = MustFourCC("TCNT")
	TagPGCT = MustFourCC("PGCT")
	TagPAGE = MustFourCC("PAGE")
	TagPGID = MustFourCC("PGID")
	TagRLCT = MustFourCC("RLCT")
	TagRUL1 = MustFourCC("RUL1")
	TagRUL2 = MustFourCC("RUL2")
	TagCRCT = MustFourCC("CRCT")
	TagTSET = MustFourCC("TSET")
	TagTDHD = MustFourCC("TDHD")
	TagTKND = MustFourCC("TKND")
	TagTIID = MustFourCC("TIID")
	TagBPAG = MustFourCC("BPAG")

	// Per-kind tile-def payload chunks, following a TDHD header. Modifier
	// has no payload of its own (its Header carries everything it needs).
	TagOPRD = MustFourCC("OPRD") // Operator
	TagCFLW = MustFourCC("CFLW") // ControlFlow
	TagPARM = MustFourCC("PARM") // Parameter
	TagVARD = MustFourCC("VARD") // Variable
	TagVFAC = MustFourCC("VFAC") // VariableFactory
	TagLITD = MustFourCC("LITD") // Literal
	TagLFAC = MustFourCC("LFAC") // LiteralFactory
	TagACCR = MustFourCC("ACCR") // Accessor
	TagSENS = MustFourCC("SENS") // Sensor
	TagACTR = MustFourCC("ACTR") // Actuator
	TagMISS = MustFourCC("MISS") // Missing
)
