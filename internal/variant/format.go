package variant

import (
	"fmt"
	"strconv"
)

// String renders the substitution in the conventional "A123T" notation
// (1-based position), the same shape Auspice trees and mutation-label
// tables use.
func (s NucSub) String() string {
	return string(s.RefNuc) + strconv.Itoa(s.Pos.Int()+1) + string(s.QryNuc)
}

// String renders the deletion as a 1-based inclusive position range,
// "123-125", or a single position "123" for one-base deletions.
func (d NucDelRange) String() string {
	begin := d.Range.Begin.Int() + 1
	last := d.Range.End.Int()
	if begin == last {
		return strconv.Itoa(begin)
	}
	return fmt.Sprintf("%d-%d", begin, last)
}

// String renders the insertion as "123:ACGT": the inserted letters follow
// the 1-based reference position they insert before.
func (i Insertion) String() string {
	return fmt.Sprintf("%d:%s", i.Before.Int()+1, i.Seq)
}

// String renders the AA substitution as "S:N501Y".
func (s AaSub) String() string {
	return s.CdsName + ":" + string(s.RefAa) + strconv.Itoa(s.Pos.Int()+1) + string(s.QryAa)
}

// String renders the AA deletion as "ORF1a:3675-3677".
func (d AaDelRange) String() string {
	begin := d.Range.Begin.Int() + 1
	last := d.Range.End.Int()
	if begin == last {
		return d.CdsName + ":" + strconv.Itoa(begin)
	}
	return fmt.Sprintf("%s:%d-%d", d.CdsName, begin, last)
}
