package fasta

import (
	"strings"
	"testing"
)

func TestReaderParsesMultipleRecords(t *testing.T) {
	in := ">seq1 description here\nACGT\nACGT\n>seq2\nTTTT\n"
	r := NewReader(strings.NewReader(in))

	rec, ok, err := r.Next()
	if err != nil || !ok {
		t.Fatalf("first record: ok=%v err=%v", ok, err)
	}
	if rec.Name != "seq1" || string(rec.Seq) != "ACGTACGT" {
		t.Errorf("rec1 = %+v", rec)
	}

	rec, ok, err = r.Next()
	if err != nil || !ok {
		t.Fatalf("second record: ok=%v err=%v", ok, err)
	}
	if rec.Name != "seq2" || string(rec.Seq) != "TTTT" {
		t.Errorf("rec2 = %+v", rec)
	}

	_, ok, err = r.Next()
	if err != nil || ok {
		t.Fatalf("expected EOF, got ok=%v err=%v", ok, err)
	}
}

func TestReaderUppercasesAndAllowsEmptySequence(t *testing.T) {
	in := ">empty\n>acgt\nacgt\n"
	r := NewReader(strings.NewReader(in))

	rec, ok, _ := r.Next()
	if !ok || rec.Name != "empty" || len(rec.Seq) != 0 {
		t.Fatalf("empty record = %+v ok=%v", rec, ok)
	}

	rec, ok, _ = r.Next()
	if !ok || rec.Name != "acgt" || string(rec.Seq) != "ACGT" {
		t.Fatalf("acgt record = %+v ok=%v", rec, ok)
	}
}

func TestReaderSkipsLeadingBlankLines(t *testing.T) {
	in := "\n\n  \n>seq1\nACGT\n"
	r := NewReader(strings.NewReader(in))
	rec, ok, err := r.Next()
	if err != nil || !ok || rec.Name != "seq1" {
		t.Fatalf("rec=%+v ok=%v err=%v", rec, ok, err)
	}
}

func TestReaderRejectsStreamNotStartingWithHeader(t *testing.T) {
	in := "ACGTACGT\n"
	r := NewReader(strings.NewReader(in))
	_, ok, err := r.Next()
	if err == nil || ok {
		t.Fatalf("expected error for non-header start, got ok=%v err=%v", ok, err)
	}
}

func TestReaderEmptyStreamYieldsNoRecords(t *testing.T) {
	r := NewReader(strings.NewReader(""))
	_, ok, err := r.Next()
	if err != nil || ok {
		t.Fatalf("expected clean EOF on empty stream, got ok=%v err=%v", ok, err)
	}
}
