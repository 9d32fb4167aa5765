// Package fetch retrieves remote reference files, either buffered to disk
// with progress logging or streamed through a named pipe for consumption by
// another process without materializing the whole file.
package fetch

import (
	"io"
	"net/http"
	"os"
	"time"

	"code.cloudfoundry.org/bytefmt"
	"github.com/grailbio/base/log"
	"github.com/pkg/errors"
)

// chunkSize is the copy granularity for buffered downloads.
const chunkSize = 1 << 20

// progressLogInterval throttles download progress log lines.
const progressLogInterval = 5 * time.Second

// ErrMissingLength reports a server that did not return a usable
// Content-Length header, which the progress indicator needs.
var ErrMissingLength = errors.New("server did not report a content length")

// ErrUnsupportedPlatform reports a FIFO streaming request on a platform
// without named-pipe support.
var ErrUnsupportedPlatform = errors.New(
	"this platform does not support piping remote files; download the file instead")

// progressWriter logs humanized download progress as chunks arrive.
type progressWriter struct {
	w       io.Writer
	total   int64
	written int64
	lastLog time.Time
}

// percent reports download progress, clamped to 100 for servers that send
// more bytes than they declared.
func (p *progressWriter) percent() int {
	pct := int(100 * p.written / p.total)
	if pct > 100 {
		pct = 100
	}
	return pct
}

func (p *progressWriter) Write(b []byte) (int, error) {
	n, err := p.w.Write(b)
	p.written += int64(n)
	if now := time.Now(); now.Sub(p.lastLog) >= progressLogInterval || p.written >= p.total {
		p.lastLog = now
		log.Printf("downloaded %s / %s (%d%%)",
			bytefmt.ByteSize(uint64(p.written)), bytefmt.ByteSize(uint64(p.total)),
			p.percent())
	}
	return n, err
}

// Download retrieves url into path with a streaming GET, writing fixed-size
// chunks as they arrive and logging progress.  The server must report a
// content length (ErrMissingLength otherwise).  A nil client uses
// http.DefaultClient.  It returns the path of the downloaded file.
//
// There is no retry or resume support; a failed download must be restarted
// by the caller.
func Download(client *http.Client, url, path string) (string, error) {
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Get(url)
	if err != nil {
		return "", errors.Wrapf(err, "fetching %s", url)
	}
	defer resp.Body.Close() // nolint: errcheck
	if resp.StatusCode != http.StatusOK {
		return "", errors.Errorf("fetching %s: %s", url, resp.Status)
	}
	if resp.ContentLength <= 0 {
		return "", ErrMissingLength
	}

	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	pw := &progressWriter{w: f, total: resp.ContentLength, lastLog: time.Now()}
	buf := make([]byte, chunkSize)
	if _, err := io.CopyBuffer(pw, resp.Body, buf); err != nil {
		f.Close() // nolint: errcheck
		return "", errors.Wrapf(err, "downloading %s", url)
	}
	if err := f.Close(); err != nil {
		return "", err
	}
	return path, nil
}
