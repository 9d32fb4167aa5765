// +build windows

package fetch

// Stream is unsupported on Windows, which has no named pipes visible as
// filesystem paths.  It fails before any I/O is attempted.
func Stream(url, path string) (string, error) {
	return "", ErrUnsupportedPlatform
}
