// Package pathogen parses the per-dataset pathogen config: a JSON
// document carrying alignment parameters, AA-change parameters, QC
// thresholds, phenotype data, AA motifs, a file registry, and clade
// attribute descriptors (spec §6).
package pathogen

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/nextstrain-go/nextclade-go/internal/ncerr"
	"github.com/nextstrain-go/nextclade-go/internal/qc"
)

// SupportedSchemaMajor is the schema major version this engine accepts;
// any document whose major version differs is rejected at load time
// (spec §6: "accept major equal to supported").
const SupportedSchemaMajor = 3

// AlignmentParams mirrors internal/align.Params' tunables as configured
// per dataset, plus the seed/band knobs that belong to the search stages
// upstream of alignment.
type AlignmentParams struct {
	MinSeedCover     float64 `json:"minSeedCover"`
	MinLength        int     `json:"minLength"`
	MaxBandArea      int     `json:"maxBandArea"`
	GapOpen          int     `json:"gapOpen"`
	GapExtend        int     `json:"gapExtend"`
	Mismatch         int     `json:"mismatch"`
	Match            int     `json:"match"`
	AllowReverseComp bool    `json:"allowReverseComplement"`
}

// AaChangeParams controls how amino-acid change groups are reported.
type AaChangeParams struct {
	GroupAdjacent  bool `json:"groupAdjacentChanges"`
	MinGroupLength int  `json:"minGroupLength"`
}

// QcRuleConfig is one named rule's raw threshold payload; the concrete
// shape (MissingDataConfig, SnpClusterConfig, ...) is decoded by the
// caller once it knows which rule "name" refers to, since each rule in
// internal/qc has a distinct config shape.
type QcRuleConfig struct {
	Name    string          `json:"name"`
	Enabled bool            `json:"enabled"`
	Params  json.RawMessage `json:"params"`
}

// DecodeThresholds pulls the shared Thresholds (mediocre/bad cutoffs) out
// of a rule's params; rule-specific fields are decoded separately by the
// caller from the same RawMessage.
func (c QcRuleConfig) DecodeThresholds() (qc.Thresholds, error) {
	var t qc.Thresholds
	if len(c.Params) == 0 {
		return t, nil
	}
	if err := json.Unmarshal(c.Params, &t); err != nil {
		return t, ncerr.Wrap(ncerr.KindInputFormat, "decode QC rule thresholds for "+c.Name, err)
	}
	return t, nil
}

// PhenotypeEntry maps an amino-acid position to a named phenotype effect
// (e.g. antigenic escape weight) in one CDS.
type PhenotypeEntry struct {
	CdsName string             `json:"cdsName"`
	Name    string             `json:"name"`
	Weights map[string]float64 `json:"weights"` // "123T" (pos+letter) -> weight
}

// AaMotif is a named pattern searched for in one CDS's translated
// peptide (e.g. a glycosylation motif).
type AaMotif struct {
	Name    string `json:"name"`
	CdsName string `json:"cdsName"`
	Motif   string `json:"motif"` // simple IUPAC-style pattern, letters or 'X'
}

// FileRegistryEntry names one auxiliary dataset file (reference FASTA,
// gene map, tree, primers, ...) by its logical role.
type FileRegistryEntry struct {
	Role string `json:"role"`
	Path string `json:"path"`
}

// PrimerEntry is one configured PCR primer binding site, as a half-open
// 0-based reference nucleotide range (spec §6 "Optional PCR primer table").
type PrimerEntry struct {
	Name  string `json:"name"`
	Begin int    `json:"begin"`
	End   int    `json:"end"`
}

// MutLabelEntry attaches category labels to one (position, letter) pair,
// used to classify private mutations (spec §4.10 "labeled vs unlabeled").
// Pos is 1-based, matching the "A123T" notation the labels refer to.
type MutLabelEntry struct {
	Pos    int      `json:"pos"`
	Letter string   `json:"letter"`
	Labels []string `json:"labels"`
}

// CladeAttrDescriptor describes one clade-like attribute column the
// reference tree carries (e.g. "clade", "lineage") and how it should be
// displayed.
type CladeAttrDescriptor struct {
	Name        string `json:"name"`
	DisplayName string `json:"displayName"`
	Default     string `json:"default"`
}

// Config is the full parsed pathogen config document.
type Config struct {
	SchemaVersion string                `json:"schemaVersion"`
	Alignment     AlignmentParams       `json:"alignmentParams"`
	AaChange      AaChangeParams        `json:"aaChangeParams"`
	QcRules       []QcRuleConfig        `json:"qcRules"`
	Phenotypes    []PhenotypeEntry      `json:"phenotypeData"`
	AaMotifs      []AaMotif             `json:"aaMotifs"`
	Files         []FileRegistryEntry   `json:"files"`
	CladeAttrs    []CladeAttrDescriptor `json:"cladeAttrs"`
	Primers       []PrimerEntry         `json:"pcrPrimers"`
	MutLabels     []MutLabelEntry       `json:"mutLabels"`
	// RefNodes names tree nodes to compute relative mutations against
	// (spec §4.10 "Relative mutations").
	RefNodes []string `json:"refNodes"`
}

// Load parses and validates a pathogen config document from r.
func Load(r io.Reader) (*Config, error) {
	var cfg Config
	if err := json.NewDecoder(r).Decode(&cfg); err != nil {
		return nil, ncerr.Wrap(ncerr.KindInputFormat, "parse pathogen config", err)
	}
	if err := cfg.checkSchemaVersion(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) checkSchemaVersion() error {
	major, _, ok := splitMajor(c.SchemaVersion)
	if !ok {
		return ncerr.New(ncerr.KindInputFormat, fmt.Sprintf("malformed schemaVersion %q", c.SchemaVersion))
	}
	if major != SupportedSchemaMajor {
		return ncerr.New(ncerr.KindInputFormat,
			fmt.Sprintf("unsupported pathogen config schema version %q: major must be %d", c.SchemaVersion, SupportedSchemaMajor))
	}
	return nil
}

func splitMajor(version string) (major int, rest string, ok bool) {
	parts := strings.SplitN(version, ".", 2)
	if len(parts) == 0 {
		return 0, "", false
	}
	m, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, "", false
	}
	if len(parts) == 2 {
		rest = parts[1]
	}
	return m, rest, true
}

// File looks up the first registry entry for the given role.
func (c *Config) File(role string) (string, bool) {
	for _, f := range c.Files {
		if f.Role == role {
			return f.Path, true
		}
	}
	return "", false
}
