package fasta

import (
	"compress/bzip2"
	"compress/gzip"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/ulikunitz/xz"

	"github.com/nextstrain-go/nextclade-go/internal/ncerr"
)

// Open transparently decompresses path by extension (.gz, .bz2, .xz, .zst)
// and returns a reader plus a closer for any resources it opened. "-"
// means stdin (never compressed). Unknown extensions are read as-is
// (spec §6).
func Open(path string) (io.Reader, io.Closer, error) {
	if path == "-" {
		return os.Stdin, io.NopCloser(nil), nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, nil, ncerr.Wrap(ncerr.KindInputFormat, "open FASTA file "+path, err)
	}

	switch {
	case strings.HasSuffix(path, ".gz"):
		gz, err := gzip.NewReader(f)
		if err != nil {
			f.Close()
			return nil, nil, ncerr.Wrap(ncerr.KindInputFormat, "open gzip reader for "+path, err)
		}
		return gz, multiCloser{gz, f}, nil
	case strings.HasSuffix(path, ".bz2"):
		return bzip2.NewReader(f), f, nil
	case strings.HasSuffix(path, ".xz"):
		xr, err := xz.NewReader(f)
		if err != nil {
			f.Close()
			return nil, nil, ncerr.Wrap(ncerr.KindInputFormat, "open xz reader for "+path, err)
		}
		return xr, f, nil
	case strings.HasSuffix(path, ".zst"):
		zr, err := zstd.NewReader(f)
		if err != nil {
			f.Close()
			return nil, nil, ncerr.Wrap(ncerr.KindInputFormat, "open zstd reader for "+path, err)
		}
		return zr, zstdCloser{zr, f}, nil
	default:
		return f, f, nil
	}
}

// multiCloser closes a chain of nested readers in reverse order.
type multiCloser struct {
	gz io.Closer
	f  io.Closer
}

func (m multiCloser) Close() error {
	err := m.gz.Close()
	if cerr := m.f.Close(); err == nil {
		err = cerr
	}
	return err
}

// zstdCloser closes a *zstd.Decoder (no error return) followed by its
// underlying file.
type zstdCloser struct {
	zr *zstd.Decoder
	f  io.Closer
}

func (z zstdCloser) Close() error {
	z.zr.Close()
	return z.f.Close()
}

// OpenConcat opens every path in order and returns a single reader that
// concatenates their decompressed contents with a '\n' delimiter between
// files (spec §6), plus a closer that releases every underlying resource.
func OpenConcat(paths []string) (io.Reader, io.Closer, error) {
	readers := make([]io.Reader, 0, 2*len(paths))
	closers := make([]io.Closer, 0, len(paths))
	for i, p := range paths {
		r, c, err := Open(p)
		if err != nil {
			for _, cc := range closers {
				cc.Close()
			}
			return nil, nil, err
		}
		closers = append(closers, c)
		if i > 0 {
			readers = append(readers, strings.NewReader("\n"))
		}
		readers = append(readers, r)
	}
	return io.MultiReader(readers...), multiCloserSlice(closers), nil
}

type multiCloserSlice []io.Closer

func (cs multiCloserSlice) Close() error {
	var first error
	for _, c := range cs {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
