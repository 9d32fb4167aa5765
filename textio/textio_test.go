package textio_test

import (
	"bytes"
	"io/ioutil"
	"math/rand"
	"path/filepath"
	"testing"

	"github.com/grailbio/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scrnatools/scquant/textio"
)

func writeFile(t *testing.T, path string, data []byte) {
	t.Helper()
	w, err := textio.Create(path)
	require.NoError(t, err)
	_, err = w.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())
}

func readFile(t *testing.T, path string) []byte {
	t.Helper()
	r, err := textio.Open(path)
	require.NoError(t, err)
	data, err := ioutil.ReadAll(r)
	require.NoError(t, err)
	require.NoError(t, r.Close())
	return data
}

func TestGzipRoundTrip(t *testing.T) {
	tempDir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()

	content := make([]byte, 1<<16)
	rnd := rand.New(rand.NewSource(0))
	_, err := rnd.Read(content)
	require.NoError(t, err)

	plain := filepath.Join(tempDir, "data.bin")
	compressed := filepath.Join(tempDir, "data.bin.gz")
	restored := filepath.Join(tempDir, "restored.bin")

	require.NoError(t, ioutil.WriteFile(plain, content, 0644))
	require.NoError(t, textio.CompressGzip(plain, compressed))
	require.NoError(t, textio.DecompressGzip(compressed, restored))

	got, err := ioutil.ReadFile(restored)
	require.NoError(t, err)
	assert.True(t, bytes.Equal(content, got))

	// The compressed file must really be gzip, not a plain copy.
	raw, err := ioutil.ReadFile(compressed)
	require.NoError(t, err)
	assert.False(t, bytes.Equal(content, raw))
}

func TestOpenCreateSuffixes(t *testing.T) {
	tempDir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()

	for _, name := range []string{"plain.txt", "zipped.txt.gz", "snapped.txt.sz"} {
		path := filepath.Join(tempDir, name)
		writeFile(t, path, []byte("barcode\tgene\n"))
		assert.Equal(t, "barcode\tgene\n", string(readFile(t, path)), name)
	}
}

func TestOpenPlainPassthrough(t *testing.T) {
	tempDir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()

	path := filepath.Join(tempDir, "labels.tsv")
	require.NoError(t, ioutil.WriteFile(path, []byte("AAAC\nGGGT\n"), 0644))
	r, err := textio.Open(path)
	require.NoError(t, err)
	data, err := ioutil.ReadAll(r)
	require.NoError(t, err)
	require.NoError(t, r.Close())
	assert.Equal(t, "AAAC\nGGGT\n", string(data))
}

func TestConcatenateFiles(t *testing.T) {
	tempDir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()

	first := filepath.Join(tempDir, "first.txt")
	second := filepath.Join(tempDir, "second.txt.gz")
	out := filepath.Join(tempDir, "out.txt")

	require.NoError(t, ioutil.WriteFile(first, []byte("AAAC\n\nGGGT"), 0644))
	writeFile(t, second, []byte("   \nTTTG\n"))

	require.NoError(t, textio.ConcatenateFiles(out, first, second))
	got, err := ioutil.ReadFile(out)
	require.NoError(t, err)
	// Blank and whitespace-only lines are dropped; every kept line gets
	// exactly one trailing newline.
	assert.Equal(t, "AAAC\nGGGT\nTTTG\n", string(got))
}

func TestConcatenateFilesEmptyInput(t *testing.T) {
	tempDir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()

	empty := filepath.Join(tempDir, "empty.txt")
	out := filepath.Join(tempDir, "out.txt")
	require.NoError(t, ioutil.WriteFile(empty, nil, 0644))
	require.NoError(t, textio.ConcatenateFiles(out, empty))
	got, err := ioutil.ReadFile(out)
	require.NoError(t, err)
	assert.Len(t, got, 0)
}
