// Package textio reads and writes the text files that move through a
// quantification run.  Compression is inferred from the path suffix: ".gz"
// files are gzip-compressed, ".sz" files hold framed snappy (the format used
// for intermediate pipeline files), and everything else is plain text.
package textio

import (
	"bufio"
	"io"
	"os"
	"strings"

	"github.com/golang/snappy"
	"github.com/klauspost/compress/gzip"
	"github.com/pkg/errors"
)

// scanBufSize bounds the longest line Open-based helpers can handle.
const scanBufSize = 1 << 20

type reader struct {
	io.Reader
	closers []io.Closer
}

func (r *reader) Close() error {
	var err error
	for _, c := range r.closers {
		if e := c.Close(); e != nil && err == nil {
			err = e
		}
	}
	return err
}

type writer struct {
	io.Writer
	closers []io.Closer
}

func (w *writer) Close() error {
	var err error
	for _, c := range w.closers {
		if e := c.Close(); e != nil && err == nil {
			err = e
		}
	}
	return err
}

// Open opens path for reading, decompressing transparently based on the path
// suffix.  Closing the returned ReadCloser closes the underlying file.
func Open(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	switch {
	case strings.HasSuffix(path, ".gz"):
		z, err := gzip.NewReader(f)
		if err != nil {
			f.Close() // nolint: errcheck
			return nil, errors.Wrapf(err, "opening gzip file %s", path)
		}
		return &reader{Reader: z, closers: []io.Closer{z, f}}, nil
	case strings.HasSuffix(path, ".sz"):
		return &reader{Reader: snappy.NewReader(f), closers: []io.Closer{f}}, nil
	}
	return f, nil
}

// Create creates path for writing, compressing transparently based on the
// path suffix.  Close flushes any compressor before closing the file.
func Create(path string) (io.WriteCloser, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	switch {
	case strings.HasSuffix(path, ".gz"):
		z := gzip.NewWriter(f)
		return &writer{Writer: z, closers: []io.Closer{z, f}}, nil
	case strings.HasSuffix(path, ".sz"):
		s := snappy.NewBufferedWriter(f)
		return &writer{Writer: s, closers: []io.Closer{s, f}}, nil
	}
	return f, nil
}

// DecompressGzip decompresses the gzip file at src into a plain file at dst.
func DecompressGzip(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close() // nolint: errcheck
	z, err := gzip.NewReader(in)
	if err != nil {
		return errors.Wrapf(err, "opening gzip file %s", src)
	}
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, z); err != nil {
		out.Close() // nolint: errcheck
		return errors.Wrapf(err, "decompressing %s", src)
	}
	if err := z.Close(); err != nil {
		out.Close() // nolint: errcheck
		return err
	}
	return out.Close()
}

// CompressGzip compresses the file at src into a gzip file at dst.
func CompressGzip(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close() // nolint: errcheck
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	z := gzip.NewWriter(out)
	if _, err := io.Copy(z, in); err != nil {
		out.Close() // nolint: errcheck
		return errors.Wrapf(err, "compressing %s", src)
	}
	if err := z.Close(); err != nil {
		out.Close() // nolint: errcheck
		return err
	}
	return out.Close()
}

// ConcatenateFiles concatenates the given text files (any mix of plain, gzip
// and snappy inputs) into one plain-text file at dst.  Blank and
// whitespace-only lines are dropped, and every kept line is written with a
// single trailing newline.
func ConcatenateFiles(dst string, srcs ...string) error {
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(out)
	for _, src := range srcs {
		in, err := Open(src)
		if err != nil {
			out.Close() // nolint: errcheck
			return err
		}
		scanner := bufio.NewScanner(in)
		scanner.Buffer(nil, scanBufSize)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				continue
			}
			if _, err := w.WriteString(line + "\n"); err != nil {
				in.Close()  // nolint: errcheck
				out.Close() // nolint: errcheck
				return err
			}
		}
		if err := scanner.Err(); err != nil {
			in.Close()  // nolint: errcheck
			out.Close() // nolint: errcheck
			return errors.Wrapf(err, "reading %s", src)
		}
		if err := in.Close(); err != nil {
			out.Close() // nolint: errcheck
			return err
		}
	}
	if err := w.Flush(); err != nil {
		out.Close() // nolint: errcheck
		return err
	}
	return out.Close()
}
