// Package kmerindex implements the codon-spaced k-mer index (spec §4.3):
// three exact-match indexes built over the reference with every third base
// skipped at offsets 0, 1, 2, so that k-mer lookups tolerate third-codon
// (wobble) position noise while staying strict elsewhere.
package kmerindex

// Index is one codon-spaced k-mer index: an exact-match lookup over the
// reference sequence with the base at every position p where p%3==Offset
// removed before indexing.
type Index struct {
	// Offset is which codon position (0, 1 or 2) was skipped when building
	// this index.
	Offset int
	k       int
	decimated []byte
	// natural[q'] is the natural (un-decimated) reference position
	// corresponding to decimated position q'.
	natural []int
	table   map[string][]int
}

// Set holds the three codon-spaced indexes (offsets 0, 1, 2) for one
// reference sequence.
type Set struct {
	Indexes [3]*Index
	K       int
}

// Build constructs the three codon-spaced indexes for ref using k-mers of
// length k.
func Build(ref []byte, k int) *Set {
	s := &Set{K: k}
	for offset := 0; offset < 3; offset++ {
		s.Indexes[offset] = buildOne(ref, k, offset)
	}
	return s
}

func buildOne(ref []byte, k, offset int) *Index {
	idx := &Index{Offset: offset, k: k}
	idx.decimated = make([]byte, 0, len(ref))
	idx.natural = make([]int, 0, len(ref))
	for p, c := range ref {
		if p%3 == offset {
			continue
		}
		idx.decimated = append(idx.decimated, c)
		idx.natural = append(idx.natural, p)
	}

	idx.table = make(map[string][]int)
	if len(idx.decimated) < k {
		return idx
	}
	for q := 0; q+k <= len(idx.decimated); q++ {
		kmer := string(idx.decimated[q : q+k])
		idx.table[kmer] = append(idx.table[kmer], q)
	}
	return idx
}

// NaturalPos maps a decimated-coordinate start position back to the
// reference's natural coordinate system.
func (idx *Index) NaturalPos(decimatedPos int) int {
	if decimatedPos < 0 || decimatedPos >= len(idx.natural) {
		return -1
	}
	return idx.natural[decimatedPos]
}

// Positions returns every start position (in decimated coordinates) at
// which kmer occurs exactly in this index.
func (idx *Index) Positions(kmer string) []int {
	return idx.table[kmer]
}

// decimateQuery removes the query's bases at the same codon offset this index
// was built with, tracking which decimated query position corresponds to
// which natural query position.
func (idx *Index) decimateQuery(qry []byte) (decimated []byte, natural []int) {
	decimated = make([]byte, 0, len(qry))
	natural = make([]int, 0, len(qry))
	for p, c := range qry {
		if p%3 == idx.Offset {
			continue
		}
		decimated = append(decimated, c)
		natural = append(natural, p)
	}
	return decimated, natural
}

// Hit is one exact k-mer match between query and reference, expressed in
// natural (un-decimated) coordinates.
type Hit struct {
	RefPos int
	QryPos int
	Offset int
}

// FindHits returns every exact k-mer match between qry and the reference
// this index was built over, for this index's offset.
func (idx *Index) FindHits(qry []byte) []Hit {
	decimated, natural := idx.decimateQuery(qry)
	if len(decimated) < idx.k {
		return nil
	}
	var hits []Hit
	for q := 0; q+idx.k <= len(decimated); q++ {
		kmer := string(decimated[q : q+idx.k])
		for _, refQ := range idx.table[kmer] {
			hits = append(hits, Hit{
				RefPos: idx.natural[refQ],
				QryPos: natural[q],
				Offset: idx.Offset,
			})
		}
	}
	return hits
}

// FindHits runs FindHits against each of the three codon-spaced indexes and
// returns the union.
func (s *Set) FindHits(qry []byte) []Hit {
	var all []Hit
	for _, idx := range s.Indexes {
		all = append(all, idx.FindHits(qry)...)
	}
	return all
}
