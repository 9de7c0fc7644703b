// Package alphabet defines the nucleotide and amino-acid symbol sets and
// their IUPAC ambiguity-compatibility relation (spec §3, §4.1). Letters are
// represented as plain bytes (ASCII) so sequences stay cheap []byte slices;
// compatibility is looked up in a precomputed bit-set table rather than
// branching per character (spec §9 design note).
package alphabet

// Nuc is a single nucleotide letter, stored as its uppercase ASCII byte.
type Nuc = byte

// Gap is the alignment-gap character, shared by nucleotide and amino-acid
// sequences.
const Gap byte = '-'

// NucUnknown is the nucleotide "any base" ambiguity code.
const NucUnknown byte = 'N'

// nucBits holds the 4-bit {A,C,G,T} membership set for every IUPAC
// nucleotide code, indexed by ASCII byte value. A code with bits == 0 is
// not a recognized nucleotide letter (gap is handled separately since it
// must not match any base, including itself through the bitset).
var nucBits [256]uint8

const (
	bitA uint8 = 1 << iota
	bitC
	bitG
	bitT
)

func init() {
	set := func(c byte, bits uint8) { nucBits[c] = bits }
	set('A', bitA)
	set('C', bitC)
	set('G', bitG)
	set('T', bitT)
	set('U', bitT) // RNA uracil treated as thymine
	set('R', bitA|bitG)
	set('Y', bitC|bitT)
	set('S', bitC|bitG)
	set('W', bitA|bitT)
	set('K', bitG|bitT)
	set('M', bitA|bitC)
	set('B', bitC|bitG|bitT)
	set('D', bitA|bitG|bitT)
	set('H', bitA|bitC|bitT)
	set('V', bitA|bitC|bitG)
	set('N', bitA|bitC|bitG|bitT)
}

// IsNuc reports whether c is a recognized IUPAC nucleotide letter (not gap).
func IsNuc(c byte) bool {
	return nucBits[c] != 0
}

// IsACGTN reports whether c is one of the five "plain" nucleotide letters
// used by the non-ACGTN variant-range check (spec §4.9).
func IsACGTN(c byte) bool {
	switch c {
	case 'A', 'C', 'G', 'T', 'N':
		return true
	default:
		return false
	}
}

// NucMatches implements Nuc::matches (spec §4.1): true iff the IUPAC
// bit-sets of a and b intersect. The gap only matches the gap.
func NucMatches(a, b byte) bool {
	if a == Gap || b == Gap {
		return a == b
	}
	return nucBits[a]&nucBits[b] != 0
}

// nucComplement maps each nucleotide letter to its Watson-Crick complement.
// Ambiguity codes map to the code of the complementary base set (R <-> Y,
// K <-> M, B <-> V, D <-> H; S, W and N map to themselves), and the gap
// maps to itself.
var nucComplement = map[byte]byte{
	'A': 'T', 'C': 'G', 'G': 'C', 'T': 'A', 'U': 'A',
	'R': 'Y', 'Y': 'R', 'S': 'S', 'W': 'W', 'K': 'M', 'M': 'K',
	'B': 'V', 'V': 'B', 'D': 'H', 'H': 'D',
	'N': 'N', Gap: Gap,
}

// Complement returns the complement of a single nucleotide letter, or the
// input unchanged if it is not a recognized letter.
func Complement(c byte) byte {
	if comp, ok := nucComplement[c]; ok {
		return comp
	}
	return c
}

// ReverseComplement returns the reverse complement of a nucleotide sequence.
func ReverseComplement(seq []byte) []byte {
	n := len(seq)
	out := make([]byte, n)
	for i, c := range seq {
		out[n-1-i] = Complement(c)
	}
	return out
}
