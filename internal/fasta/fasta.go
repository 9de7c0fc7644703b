// Package fasta streams FASTA records from one or more (optionally
// compressed) input files, concatenated in order, the way the worker
// harness reader expects (spec §4.12, §6 "FASTA input stream").
package fasta

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/nextstrain-go/nextclade-go/internal/ncerr"
)

// maxLineBytes bounds a single FASTA line; the teacher's own FASTA loader
// raises bufio.Scanner's default buffer for the same reason (long genomic
// lines).
const maxLineBytes = 64 * 1024 * 1024

// Record is one parsed FASTA entry: header up to the first space is the
// name, subsequent lines until the next '>' or EOF form the sequence.
type Record struct {
	Name string
	Seq  []byte
}

// Reader pulls Records off a concatenated multi-file FASTA stream.
type Reader struct {
	scanner    *bufio.Scanner
	started    bool
	pendingHdr string
	done       bool
}

// NewReader wraps r (already decompressed) in a streaming FASTA reader.
func NewReader(r io.Reader) *Reader {
	scanner := bufio.NewScanner(r)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, maxLineBytes)
	return &Reader{scanner: scanner}
}

// Next returns the next record, or ok=false once the stream is exhausted.
// A stream whose first non-blank line doesn't start with '>' is an error
// (spec §6).
func (r *Reader) Next() (rec Record, ok bool, err error) {
	if r.done {
		return Record{}, false, nil
	}

	var header string
	if r.pendingHdr != "" {
		header = r.pendingHdr
		r.pendingHdr = ""
	} else {
		header, err = r.nextHeader()
		if err != nil {
			return Record{}, false, err
		}
		if header == "" {
			r.done = true
			return Record{}, false, nil
		}
	}

	var seq bytes.Buffer
	for r.scanner.Scan() {
		line := r.scanner.Text()
		if strings.HasPrefix(line, ">") {
			r.pendingHdr = line
			break
		}
		seq.WriteString(strings.ToUpper(strings.TrimSpace(line)))
	}
	if err := r.scanner.Err(); err != nil {
		return Record{}, false, ncerr.Wrap(ncerr.KindInputFormat, "read FASTA", err)
	}
	if r.pendingHdr == "" {
		r.done = true
	}

	return Record{Name: parseName(header), Seq: seq.Bytes()}, true, nil
}

// nextHeader skips leading blank/whitespace lines and returns the next
// '>' header line, or "" at EOF. The first non-blank line encountered
// that isn't a header is an error.
func (r *Reader) nextHeader() (string, error) {
	if !r.started {
		r.started = true
	}
	for r.scanner.Scan() {
		line := r.scanner.Text()
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if !strings.HasPrefix(trimmed, ">") {
			return "", ncerr.New(ncerr.KindInputFormat, fmt.Sprintf("FASTA stream must start with '>', got %q", trimmed))
		}
		return trimmed, nil
	}
	if err := r.scanner.Err(); err != nil {
		return "", ncerr.Wrap(ncerr.KindInputFormat, "read FASTA", err)
	}
	return "", nil
}

// parseName returns the header text up to the first space, with the
// leading '>' stripped.
func parseName(header string) string {
	header = strings.TrimPrefix(header, ">")
	if idx := strings.IndexByte(header, ' '); idx != -1 {
		return header[:idx]
	}
	return header
}
