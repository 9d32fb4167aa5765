// +build !windows

package fetch_test

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/grailbio/testutil"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"

	"github.com/scrnatools/scquant/fetch"
)

func TestStreamServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	tempDir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()
	path := filepath.Join(tempDir, "reads.fifo")

	_, err := fetch.Stream(server.URL, path)
	require.NoError(t, err)

	// On an HTTP error the transfer must abandon the pipe, so the consumer
	// sees an empty stream rather than the error body as payload.  With a
	// nonblocking read end and no writer attached, reads report no data; any
	// bytes arriving within the window are the error page leaking through.
	fd, err := unix.Open(path, unix.O_RDONLY|unix.O_NONBLOCK, 0)
	require.NoError(t, err)
	defer unix.Close(fd) // nolint: errcheck

	buf := make([]byte, 1024)
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		n, _ := unix.Read(fd, buf)
		if n > 0 {
			t.Fatalf("read %q from the pipe; error responses must not be piped", buf[:n])
		}
		time.Sleep(50 * time.Millisecond)
	}
}
