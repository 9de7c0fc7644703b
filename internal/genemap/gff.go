package genemap

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/nextstrain-go/nextclade-go/internal/coord"
	"github.com/nextstrain-go/nextclade-go/internal/ncerr"
)

// gffFeature is one parsed, tab-delimited GFF3-ish line.
type gffFeature struct {
	featureType string
	start       int // 1-based, inclusive (GFF convention)
	end         int // 1-based, inclusive
	strand      string
	phase       string
	attributes  map[string]string
	lineNum     int
}

// parseAttributes parses the GFF3 ninth column ("ID=foo;Parent=bar").
func parseAttributes(field string) map[string]string {
	attrs := make(map[string]string)
	for _, kv := range strings.Split(field, ";") {
		kv = strings.TrimSpace(kv)
		if kv == "" {
			continue
		}
		parts := strings.SplitN(kv, "=", 2)
		if len(parts) != 2 {
			continue
		}
		attrs[strings.TrimSpace(parts[0])] = strings.TrimSpace(parts[1])
	}
	return attrs
}

func parseLine(line string, lineNum int) (gffFeature, error) {
	cols := strings.Split(line, "\t")
	if len(cols) < 9 {
		return gffFeature{}, fmt.Errorf("line %d: expected 9 tab-delimited columns, got %d", lineNum, len(cols))
	}
	start, err := strconv.Atoi(cols[3])
	if err != nil {
		return gffFeature{}, fmt.Errorf("line %d: bad start %q: %w", lineNum, cols[3], err)
	}
	end, err := strconv.Atoi(cols[4])
	if err != nil {
		return gffFeature{}, fmt.Errorf("line %d: bad end %q: %w", lineNum, cols[4], err)
	}
	return gffFeature{
		featureType: cols[2],
		start:       start,
		end:         end,
		strand:      cols[6],
		phase:       cols[7],
		attributes:  parseAttributes(cols[8]),
		lineNum:     lineNum,
	}, nil
}

// rawFeature groups a parsed GFF line with its linkage, before the
// parent/child tree is resolved.
type rawFeature struct {
	gffFeature
	id       string
	parentID string
}

// Parse reads a GFF3-like gene map description and builds a validated
// GeneMap. landmarkLength and circular describe the reference landmark the
// features are expressed against (spec §4.2).
func Parse(r io.Reader, landmarkLength int, circular bool) (*GeneMap, error) {
	scanner := bufio.NewScanner(r)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 4*1024*1024)

	var raws []rawFeature
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimRight(scanner.Text(), "\r")
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		feat, err := parseLine(line, lineNum)
		if err != nil {
			return nil, ncerr.Wrap(ncerr.KindInputFormat, "parse gene map", err)
		}
		raws = append(raws, rawFeature{
			gffFeature: feat,
			id:         feat.attributes["ID"],
			parentID:   feat.attributes["Parent"],
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, ncerr.Wrap(ncerr.KindInputFormat, "scan gene map", err)
	}

	return build(raws, landmarkLength, circular)
}

// build groups raw features by ID, links children to parents via Parent,
// and flattens gene -> CDS -> segment (spec §4.2 "Build").
func build(raws []rawFeature, landmarkLength int, circular bool) (*GeneMap, error) {
	byID := make(map[string]*rawFeature, len(raws))
	for i := range raws {
		if raws[i].id == "" {
			continue
		}
		if _, dup := byID[raws[i].id]; dup {
			return nil, ncerr.New(ncerr.KindInputFormat, fmt.Sprintf("duplicate feature ID %q at line %d", raws[i].id, raws[i].lineNum))
		}
		byID[raws[i].id] = &raws[i]
	}

	for i := range raws {
		if raws[i].parentID == "" {
			continue
		}
		if raws[i].parentID == raws[i].id {
			return nil, ncerr.New(ncerr.KindInputFormat, fmt.Sprintf("feature %q is its own parent", raws[i].id))
		}
		if _, ok := byID[raws[i].parentID]; !ok {
			return nil, ncerr.New(ncerr.KindInputFormat, fmt.Sprintf("feature %q references missing parent %q", raws[i].id, raws[i].parentID))
		}
	}

	genesByName := make(map[string]*Gene)
	var geneOrder []string
	cdsNamesSeen := make(map[string]bool)

	// Group CDS-type rows by their gene parent. CDS rows whose parent is a
	// "CDS" ID (grandparent gene) are supported by walking up via parentID
	// chains; mRNA/transcript rows are transparent pass-throughs.
	type cdsAccum struct {
		name     string
		geneName string
		rows     []rawFeature
	}
	cdsByID := make(map[string]*cdsAccum)
	var cdsOrder []string

	geneNameOf := func(f *rawFeature) string {
		cur := f
		for cur.parentID != "" {
			parent, ok := byID[cur.parentID]
			if !ok {
				break
			}
			if strings.EqualFold(parent.featureType, "gene") {
				name := parent.attributes["Name"]
				if name == "" {
					name = parent.id
				}
				return name
			}
			cur = parent
		}
		return ""
	}

	cdsIDOf := func(f *rawFeature) string {
		cur := f
		for {
			if strings.EqualFold(cur.featureType, "CDS") {
				if cur.id != "" {
					return cur.id
				}
				return cur.attributes["Name"]
			}
			if cur.parentID == "" {
				return ""
			}
			parent, ok := byID[cur.parentID]
			if !ok {
				return ""
			}
			cur = parent
		}
	}

	for i := range raws {
		f := &raws[i]
		if strings.EqualFold(f.featureType, "gene") {
			name := f.attributes["Name"]
			if name == "" {
				name = f.id
			}
			if _, dup := genesByName[name]; dup {
				return nil, ncerr.New(ncerr.KindInputFormat, fmt.Sprintf("duplicate gene name %q", name))
			}
			genesByName[name] = &Gene{Name: name}
			geneOrder = append(geneOrder, name)
		}
	}

	for i := range raws {
		f := &raws[i]
		if !strings.EqualFold(f.featureType, "CDS") {
			continue
		}
		cdsID := cdsIDOf(f)
		if cdsID == "" {
			cdsID = fmt.Sprintf("cds-%d", f.lineNum)
		}
		acc, ok := cdsByID[cdsID]
		if !ok {
			geneName := geneNameOf(f)
			acc = &cdsAccum{name: cdsID, geneName: geneName}
			cdsByID[cdsID] = acc
			cdsOrder = append(cdsOrder, cdsID)
		}
		acc.rows = append(acc.rows, *f)
	}

	for _, cdsID := range cdsOrder {
		acc := cdsByID[cdsID]
		if cdsNamesSeen[acc.name] {
			return nil, ncerr.New(ncerr.KindInputFormat, fmt.Sprintf("duplicate CDS name %q", acc.name))
		}
		cdsNamesSeen[acc.name] = true

		gene, ok := genesByName[acc.geneName]
		if !ok {
			// CDS rows with no recognizable gene ancestor are grouped under
			// a synthetic gene named after the CDS itself.
			gene = &Gene{Name: acc.name}
			genesByName[acc.geneName] = gene
			if acc.geneName == "" {
				genesByName[acc.name] = gene
			}
			geneOrder = append(geneOrder, acc.name)
		}

		cds, err := flattenCds(acc.name, gene.Name, acc.rows, landmarkLength, circular)
		if err != nil {
			return nil, err
		}
		if cds.Length()%3 != 0 {
			return nil, ncerr.New(ncerr.KindInputFormat, fmt.Sprintf("CDS %q total length %d is not a multiple of 3", cds.Name, cds.Length()))
		}
		gene.Cdses = append(gene.Cdses, cds)
	}

	m := &GeneMap{LandmarkLength: landmarkLength, Circular: circular}
	for _, name := range geneOrder {
		g := genesByName[name]
		if g != nil && len(g.Cdses) > 0 {
			m.Genes = append(m.Genes, g)
		}
	}
	return m, nil
}

// flattenCds orders a CDS's raw CDS rows by genomic start, assigns
// phase/frame and origin-wrapping classification, and computes local
// (spliced) coordinates (spec §4.2).
func flattenCds(name, geneName string, rows []rawFeature, landmarkLength int, circular bool) (*Cds, error) {
	sort.Slice(rows, func(i, j int) bool { return rows[i].start < rows[j].start })

	strand := Forward
	if len(rows) > 0 && rows[0].strand == "-" {
		strand = Reverse
	}

	ordered := rows
	if strand == Reverse {
		// Reading order on the reverse strand runs from the highest
		// genomic coordinate to the lowest.
		ordered = make([]rawFeature, len(rows))
		for i, r := range rows {
			ordered[len(rows)-1-i] = r
		}
	}

	segments := make([]CdsSegment, 0, len(ordered))
	localOffset := 0
	for i, r := range ordered {
		length := r.end - r.start + 1
		if length <= 0 {
			return nil, ncerr.New(ncerr.KindInputFormat, fmt.Sprintf("CDS %q segment at line %d has non-positive length", name, r.lineNum))
		}
		frame := (r.start - 1) % 3
		phase := localOffset % 3
		wraps := circular && (r.start <= 0 || r.end > landmarkLength)
		kind := NonWrapping
		if wraps {
			switch {
			case i == 0:
				kind = WrappingStart
			case i == len(ordered)-1:
				kind = WrappingEnd
			default:
				kind = WrappingCentral
			}
		}
		seg := CdsSegment{
			RangeGlobal: coord.NewRange[coord.RefSpace, coord.Global, coord.NucKind](r.start-1, r.end),
			Strand:      strand,
			Phase:       phase,
			Frame:       frame,
			Wrapping:    WrappingPart{Kind: kind, Index: i},
			LocalRange:  coord.NewRange[coord.RefSpace, coord.Local, coord.NucKind](localOffset, localOffset+length),
		}
		segments = append(segments, seg)
		localOffset += length
	}

	return &Cds{Name: name, GeneName: geneName, Segments: segments}, nil
}
