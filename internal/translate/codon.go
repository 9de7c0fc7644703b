package translate

import "github.com/nextstrain-go/nextclade-go/internal/alphabet"

// standardCode maps every unambiguous DNA codon to its translated residue
// under the standard genetic code (NCBI translation table 1).
var standardCode = map[string]byte{
	"TTT": 'F', "TTC": 'F', "TTA": 'L', "TTG": 'L',
	"CTT": 'L', "CTC": 'L', "CTA": 'L', "CTG": 'L',
	"ATT": 'I', "ATC": 'I', "ATA": 'I', "ATG": 'M',
	"GTT": 'V', "GTC": 'V', "GTA": 'V', "GTG": 'V',
	"TCT": 'S', "TCC": 'S', "TCA": 'S', "TCG": 'S',
	"CCT": 'P', "CCC": 'P', "CCA": 'P', "CCG": 'P',
	"ACT": 'T', "ACC": 'T', "ACA": 'T', "ACG": 'T',
	"GCT": 'A', "GCC": 'A', "GCA": 'A', "GCG": 'A',
	"TAT": 'Y', "TAC": 'Y', "TAA": '*', "TAG": '*',
	"CAT": 'H', "CAC": 'H', "CAA": 'Q', "CAG": 'Q',
	"AAT": 'N', "AAC": 'N', "AAA": 'K', "AAG": 'K',
	"GAT": 'D', "GAC": 'D', "GAA": 'E', "GAG": 'E',
	"TGT": 'C', "TGC": 'C', "TGA": '*', "TGG": 'W',
	"CGT": 'R', "CGC": 'R', "CGA": 'R', "CGG": 'R',
	"AGT": 'S', "AGC": 'S', "AGA": 'R', "AGG": 'R',
	"GGT": 'G', "GGC": 'G', "GGA": 'G', "GGG": 'G',
}

var iupacExpansion = map[byte][]byte{
	'A': {'A'}, 'C': {'C'}, 'G': {'G'}, 'T': {'T'}, 'U': {'T'},
	'R': {'A', 'G'}, 'Y': {'C', 'T'}, 'S': {'C', 'G'}, 'W': {'A', 'T'},
	'K': {'G', 'T'}, 'M': {'A', 'C'},
	'B': {'C', 'G', 'T'}, 'D': {'A', 'G', 'T'}, 'H': {'A', 'C', 'T'}, 'V': {'A', 'C', 'G'},
	'N': {'A', 'C', 'G', 'T'},
}

// Codon translates one 3-letter codon, resolving IUPAC ambiguity codes by
// enumerating every concrete codon they could represent: if every
// resolution yields the same residue, that residue is returned; otherwise
// the codon is ambiguous and translates to AaUnknown.
func Codon(codon []byte) byte {
	if len(codon) != 3 {
		return alphabet.AaUnknown
	}
	opts := [][]byte{{}, {}, {}}
	for i, c := range codon {
		expansion, ok := iupacExpansion[c]
		if !ok {
			return alphabet.AaUnknown
		}
		opts[i] = expansion
	}

	var resolved byte
	first := true
	for _, a := range opts[0] {
		for _, b := range opts[1] {
			for _, c := range opts[2] {
				aa, ok := standardCode[string([]byte{a, b, c})]
				if !ok {
					return alphabet.AaUnknown
				}
				if first {
					resolved = aa
					first = false
				} else if aa != resolved {
					return alphabet.AaUnknown
				}
			}
		}
	}
	return resolved
}

// TranslateSequence translates a gap-free nucleotide sequence codon by
// codon, ignoring a trailing partial codon (stripGaps/masking upstream is
// expected to have already produced a length that is a multiple of 3 for
// well-formed CDSes).
func TranslateSequence(seq []byte) []byte {
	n := len(seq) / 3
	out := make([]byte, n)
	for i := 0; i < n; i++ {
		out[i] = Codon(seq[i*3 : i*3+3])
	}
	return out
}
