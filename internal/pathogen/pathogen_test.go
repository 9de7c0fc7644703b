package pathogen

import (
	"strings"
	"testing"

	"github.com/nextstrain-go/nextclade-go/internal/ncerr"
)

const validDoc = `{
	"schemaVersion": "3.2.1",
	"alignmentParams": {"minSeedCover": 0.3, "minLength": 100, "maxBandArea": 500000},
	"aaChangeParams": {"groupAdjacentChanges": true, "minGroupLength": 2},
	"qcRules": [
		{"name": "missingData", "enabled": true, "params": {"mediocreAt": 100, "badAt": 3000, "missingDataThreshold": 1000}}
	],
	"files": [{"role": "reference", "path": "reference.fasta"}, {"role": "tree", "path": "tree.json"}],
	"cladeAttrs": [{"name": "clade", "displayName": "Clade"}]
}`

func TestLoadAcceptsMatchingMajorVersion(t *testing.T) {
	cfg, err := Load(strings.NewReader(validDoc))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Alignment.MinSeedCover != 0.3 || cfg.Alignment.MinLength != 100 {
		t.Errorf("Alignment = %+v", cfg.Alignment)
	}
	if len(cfg.QcRules) != 1 || cfg.QcRules[0].Name != "missingData" {
		t.Errorf("QcRules = %+v", cfg.QcRules)
	}
	path, ok := cfg.File("tree")
	if !ok || path != "tree.json" {
		t.Errorf("File(tree) = %q, %v", path, ok)
	}
}

func TestLoadRejectsMismatchedMajorVersion(t *testing.T) {
	doc := strings.Replace(validDoc, `"3.2.1"`, `"2.0.0"`, 1)
	_, err := Load(strings.NewReader(doc))
	if !ncerr.Is(err, ncerr.KindInputFormat) {
		t.Fatalf("expected KindInputFormat error, got %v", err)
	}
}

func TestLoadRejectsMalformedVersion(t *testing.T) {
	doc := strings.Replace(validDoc, `"3.2.1"`, `"not-a-version"`, 1)
	_, err := Load(strings.NewReader(doc))
	if !ncerr.Is(err, ncerr.KindInputFormat) {
		t.Fatalf("expected KindInputFormat error, got %v", err)
	}
}

func TestQcRuleConfigDecodeThresholds(t *testing.T) {
	cfg, err := Load(strings.NewReader(validDoc))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	th, err := cfg.QcRules[0].DecodeThresholds()
	if err != nil {
		t.Fatalf("DecodeThresholds() error = %v", err)
	}
	if th.MediocreAt != 100 || th.BadAt != 3000 {
		t.Errorf("Thresholds = %+v", th)
	}
}
