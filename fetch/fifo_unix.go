// +build !windows

package fetch

import (
	"io"
	"net/http"
	"os"

	"github.com/grailbio/base/log"
	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// Stream creates a named pipe at path and starts a background transfer of
// url into it, returning the pipe path immediately.  The caller must open
// and consume the pipe promptly: the transfer blocks until a reader
// attaches, and a failure inside the background transfer is logged but
// otherwise unobservable (the pipe simply never fills).
func Stream(url, path string) (string, error) {
	if err := unix.Mkfifo(path, 0666); err != nil {
		return "", errors.Wrapf(err, "creating fifo %s", path)
	}
	log.Printf("piping %s to %s", url, path)
	go func() {
		resp, err := http.Get(url)
		if err != nil {
			log.Error.Printf("piping %s: %v", url, err)
			return
		}
		defer resp.Body.Close() // nolint: errcheck
		if resp.StatusCode != http.StatusOK {
			// Never open the pipe: an error body must not reach the
			// consumer as payload.
			log.Error.Printf("piping %s: %s", url, resp.Status)
			return
		}
		// Blocks until the consumer opens the pipe for reading.
		f, err := os.OpenFile(path, os.O_WRONLY, 0)
		if err != nil {
			log.Error.Printf("piping %s: opening %s: %v", url, path, err)
			return
		}
		if _, err := io.Copy(f, resp.Body); err != nil {
			log.Error.Printf("piping %s into %s: %v", url, path, err)
		}
		if err := f.Close(); err != nil {
			log.Error.Printf("piping %s: closing %s: %v", url, path, err)
		}
	}()
	return path, nil
}
