// Package refbundle builds the immutable reference bundle a pipeline run
// shares by reference across every worker (spec §5): reference sequence,
// gene map, preprocessed reference tree, and pathogen config, loaded once
// at startup and never mutated on the hot path.
package refbundle

import (
	"crypto/sha256"
	"encoding/hex"
	"io"

	"github.com/nextstrain-go/nextclade-go/internal/genemap"
	"github.com/nextstrain-go/nextclade-go/internal/gtree"
	"github.com/nextstrain-go/nextclade-go/internal/ncerr"
	"github.com/nextstrain-go/nextclade-go/internal/pathogen"
)

// Bundle is the immutable, shared-by-reference dataset every query is
// analyzed against.
type Bundle struct {
	// ID identifies this bundle's content (for cache keys and logging),
	// derived from the reference sequence and the pathogen config's schema
	// version.
	ID string

	RefSeq  []byte
	GeneMap *genemap.GeneMap
	Tree    *gtree.Tree
	Config  *pathogen.Config
}

// Sources names the readers a Bundle is built from. The caller owns
// opening/closing them (they may come from plain files, embedded assets,
// or network fetches); refbundle only reads, it never decides how a
// source is obtained.
type Sources struct {
	RefFasta      io.Reader
	GeneMapGff    io.Reader
	ReferenceTree io.Reader
	PathogenCfg   io.Reader
	// LandmarkLength and Circular describe the reference genome's
	// topology for gene-map parsing (spec §4.2). A zero LandmarkLength
	// means "the reference sequence's own length".
	LandmarkLength int
	Circular       bool
}

// Build parses every source once and assembles the immutable bundle.
func Build(src Sources) (*Bundle, error) {
	refSeq, err := readSingleFastaRecord(src.RefFasta)
	if err != nil {
		return nil, err
	}

	landmarkLen := src.LandmarkLength
	if landmarkLen == 0 {
		landmarkLen = len(refSeq)
	}
	gm, err := genemap.Parse(src.GeneMapGff, landmarkLen, src.Circular)
	if err != nil {
		return nil, err
	}
	if err := genemap.Validate(gm); err != nil {
		return nil, err
	}

	cfg, err := pathogen.Load(src.PathogenCfg)
	if err != nil {
		return nil, err
	}

	tree, err := gtree.LoadAuspice(src.ReferenceTree, refSeq)
	if err != nil {
		return nil, err
	}

	id := contentID(refSeq, cfg.SchemaVersion)

	return &Bundle{
		ID:      id,
		RefSeq:  refSeq,
		GeneMap: gm,
		Tree:    tree,
		Config:  cfg,
	}, nil
}

// readSingleFastaRecord reads exactly one minimal FASTA record (header
// line then sequence lines) the way a reference genome file is expected
// to be shaped (spec §6: "exactly one record required; empty sequence is
// an error"). Full multi-format FASTA parsing lives in internal/fasta;
// this helper avoids a refbundle -> fasta import cycle concern while
// keeping the same tolerant line handling.
func readSingleFastaRecord(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, ncerr.Wrap(ncerr.KindInputFormat, "read reference FASTA", err)
	}

	seq := make([]byte, 0, len(data))
	records := 0
	lineStart := 0
	for i := 0; i <= len(data); i++ {
		if i != len(data) && data[i] != '\n' {
			continue
		}
		line := data[lineStart:i]
		lineStart = i + 1
		if len(line) == 0 {
			continue
		}
		if line[0] == '>' {
			records++
			if records > 1 {
				return nil, ncerr.New(ncerr.KindInputFormat, "reference FASTA must contain exactly one record")
			}
			continue
		}
		for _, c := range line {
			if c == '\r' {
				continue
			}
			if c >= 'a' && c <= 'z' {
				c -= 'a' - 'A'
			}
			seq = append(seq, c)
		}
	}

	if len(seq) == 0 {
		return nil, ncerr.New(ncerr.KindInputFormat, "reference FASTA has an empty sequence")
	}
	return seq, nil
}

// contentID derives a stable identity for a bundle from its reference
// sequence and config version, used as the ref_bundle_id tag in cached
// analyzer results.
func contentID(refSeq []byte, schemaVersion string) string {
	h := sha256.New()
	h.Write(refSeq)
	h.Write([]byte(schemaVersion))
	return hex.EncodeToString(h.Sum(nil))[:16]
}
