package align

import (
	"math"

	"github.com/nextstrain-go/nextclade-go/internal/alphabet"
	"github.com/nextstrain-go/nextclade-go/internal/band"
)

const negInf = math.MinInt32 / 2

// cell holds the three Gotoh affine-gap matrices for one DP cell: M (match
// or mismatch), Ix (gap in query, consumes a reference character only), Iy
// (gap in reference, consumes a query character only).
type cell struct {
	m, ix, iy       int
	tbM, tbIx, tbIy byte
}

const (
	tbNone byte = iota
	tbFromM
	tbFromIx
	tbFromIy
)

// row is one reference row's cells, dense only across its stripe.
type row struct {
	begin int // stripe.Begin for this row
	cells []cell
}

func (r row) at(q int) (cell, bool) {
	if q < r.begin || q-r.begin >= len(r.cells) {
		return cell{}, false
	}
	return r.cells[q-r.begin], true
}

// Align runs one banded affine-gap DP pass bounding row r to stripes[r].
// ref and qry are raw nucleotide or amino-acid byte sequences; matches are
// scored with alphabet-ambiguity compatibility for nucleotides, and exact
// equality otherwise (callers pass isNuc accordingly).
func Align(ref, qry []byte, stripes []band.Stripe, p Params, isNuc bool) Output {
	refLen, qryLen := len(ref), len(qry)
	rows := make([]row, refLen+1)

	matches := func(a, b byte) bool {
		if isNuc {
			return alphabet.NucMatches(a, b)
		}
		return alphabet.AaMatches(a, b)
	}

	var prev row
	for r := 0; r <= refLen; r++ {
		s := stripes[r]
		cur := row{begin: s.Begin, cells: make([]cell, s.Width())}

		for qi := 0; qi < s.Width(); qi++ {
			q := s.Begin + qi
			c := cell{m: negInf, ix: negInf, iy: negInf}

			if r == 0 && q == 0 {
				c.m = 0
			} else {
				// M: diagonal move from (r-1, q-1), consuming ref[r-1] and qry[q-1].
				if r > 0 && q > 0 {
					if pc, ok := prev.at(q - 1); ok {
						score := p.MismatchScore
						if matches(ref[r-1], qry[q-1]) {
							score = p.MatchScore
						}
						best, from := pc.m, tbFromM
						if pc.ix > best {
							best, from = pc.ix, tbFromIx
						}
						if pc.iy > best {
							best, from = pc.iy, tbFromIy
						}
						if best > negInf {
							c.m = best + score
							c.tbM = from
						}
					}
				}
				if r == 0 {
					if p.TerminalGapsFree {
						c.m = 0
					}
				}
				if q == 0 {
					if p.TerminalGapsFree {
						c.m = 0
					}
				}

				// Ix: gap in query — consumes ref[r-1] only, move from (r-1, q).
				if r > 0 {
					if pc, ok := prev.at(q); ok {
						open := p.gapOpenAt(r - 1)
						fromOpen := pc.m + open + p.GapExtend
						fromExtend := pc.ix + p.GapExtend
						if fromExtend >= fromOpen {
							c.ix, c.tbIx = fromExtend, tbFromIx
						} else {
							c.ix, c.tbIx = fromOpen, tbFromM
						}
						if q == qryLen && p.TerminalGapsFree {
							// Trailing query gap (reference continues past the
							// query's end): free to open and to extend.
							if pc.m > c.ix {
								c.ix, c.tbIx = pc.m, tbFromM
							}
							if pc.ix > c.ix {
								c.ix, c.tbIx = pc.ix, tbFromIx
							}
						}
					}
				}

				// Iy: gap in reference — consumes qry[q-1] only, move from (r, q-1).
				if q > 0 {
					if qi == 0 {
						// left neighbor (r, q-1) lies outside this row's stripe.
						if p.TerminalGapsFree && q == 0 {
							c.iy = 0
						}
					} else {
						lc := cur.cells[qi-1]
						open := p.gapOpenAt(r)
						fromOpen := lc.m + open + p.GapExtend
						fromExtend := lc.iy + p.GapExtend
						if fromExtend >= fromOpen {
							c.iy, c.tbIy = fromExtend, tbFromIy
						} else {
							c.iy, c.tbIy = fromOpen, tbFromM
						}
						if r == refLen && p.TerminalGapsFree {
							// Trailing reference gap (query continues past the
							// reference's end): free to open and to extend.
							if lc.m > c.iy {
								c.iy, c.tbIy = lc.m, tbFromM
							}
							if lc.iy > c.iy {
								c.iy, c.tbIy = lc.iy, tbFromIy
							}
						}
					}
				}
			}

			cur.cells[qi] = c
		}

		prev = cur
		rows[r] = cur
	}

	refAligned, qryAligned, score, hitBoundary := traceback(ref, qry, rows, stripes)
	return Output{
		RefAligned:  refAligned,
		QryAligned:  qryAligned,
		Score:       score,
		HitBoundary: hitBoundary,
	}
}

// traceback walks the predecessor layers back from (refLen, qryLen),
// emitting the aligned pair. It reports hitBoundary when any cell on the
// path is pressed against a *restrictive* stripe edge — an edge that is
// not the matrix border itself (q=0 / q=qryLen), so a maximally wide band
// never triggers the retry loop (spec §4.6).
func traceback(ref, qry []byte, rows []row, stripes []band.Stripe) ([]byte, []byte, int, bool) {
	refLen, qryLen := len(ref), len(qry)
	r, q := refLen, qryLen
	hitBoundary := false

	endCell, _ := rows[r].at(q)
	layer := tbFromM
	best := endCell.m
	if endCell.ix > best {
		best, layer = endCell.ix, tbFromIx
	}
	if endCell.iy > best {
		best, layer = endCell.iy, tbFromIy
	}
	score := best

	var refOut, qryOut []byte
	for r > 0 || q > 0 {
		c, ok := rows[r].at(q)
		if !ok {
			break
		}
		if (q == stripes[r].Begin && stripes[r].Begin > 0) ||
			(q == stripes[r].End-1 && stripes[r].End < qryLen+1) {
			hitBoundary = true
		}
		switch layer {
		case tbFromIx:
			refOut = append(refOut, ref[r-1])
			qryOut = append(qryOut, alphabet.Gap)
			layer = c.tbIx
			r--
		case tbFromIy:
			refOut = append(refOut, alphabet.Gap)
			qryOut = append(qryOut, qry[q-1])
			layer = c.tbIy
			q--
		default: // tbFromM or start
			if r == 0 && q == 0 {
				r, q = -1, -1
				continue
			}
			if r > 0 && q > 0 {
				refOut = append(refOut, ref[r-1])
				qryOut = append(qryOut, qry[q-1])
				layer = c.tbM
				r--
				q--
			} else if r > 0 {
				refOut = append(refOut, ref[r-1])
				qryOut = append(qryOut, alphabet.Gap)
				r--
			} else {
				refOut = append(refOut, alphabet.Gap)
				qryOut = append(qryOut, qry[q-1])
				q--
			}
		}
	}

	reverse(refOut)
	reverse(qryOut)
	return refOut, qryOut, score, hitBoundary
}

func reverse(b []byte) {
	for i, j := 0, len(b)-1; i < j; i, j = i+1, j-1 {
		b[i], b[j] = b[j], b[i]
	}
}
