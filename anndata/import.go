package anndata

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/grailbio/base/traverse"
	"github.com/grailbio/base/tsv"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"github.com/scrnatools/scquant/encoding/mtx"
	"github.com/scrnatools/scquant/textio"
)

// DefaultImportThreads is the worker count for equivalence-class resolution
// when the caller passes threads <= 0.
const DefaultImportThreads = 8

// readLabels reads one label per line from a barcode/gene/transcript list,
// keeping the first tab- or comma-delimited column and dropping blank lines.
// Labels stay strings throughout so that sorting and logging downstream see
// one uniform type.
func readLabels(path string) ([]string, error) {
	f, err := textio.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close() // nolint: errcheck
	var labels []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(nil, 1<<20)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		labels = append(labels, strings.FieldsFunc(line, func(r rune) bool {
			return r == '\t' || r == ','
		})[0])
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrapf(err, "reading labels from %s", path)
	}
	return labels, nil
}

func readDense(path string, rows, cols int) (*mat.Dense, error) {
	f, err := textio.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close() // nolint: errcheck
	coo, err := mtx.Read(f)
	if err != nil {
		return nil, errors.Wrapf(err, "reading matrix %s", path)
	}
	if coo.Rows != rows || coo.Cols != cols {
		return nil, errors.Errorf("matrix %s is %d x %d, label tables are %d x %d",
			path, coo.Rows, coo.Cols, rows, cols)
	}
	return coo.ToCSR().Dense(), nil
}

// ImportMatrix loads a gene-count matrix produced by the counting tool: a
// Matrix Market file plus a barcode list (row labels) and a gene list
// (column labels).
func ImportMatrix(matrixPath, barcodesPath, genesPath string) (*Matrix, error) {
	barcodes, err := readLabels(barcodesPath)
	if err != nil {
		return nil, err
	}
	genes, err := readLabels(genesPath)
	if err != nil {
		return nil, err
	}
	x, err := readDense(matrixPath, len(barcodes), len(genes))
	if err != nil {
		return nil, err
	}
	return New(x, barcodes, genes)
}

// ecRecord is one row of the equivalence-class table: an identifier and a
// comma-separated list of transcript indices.
type ecRecord struct {
	EC          string
	Transcripts string
}

func readECs(path string) (ids []string, lists []string, err error) {
	f, err := textio.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close() // nolint: errcheck
	reader := tsv.NewReader(bufio.NewReaderSize(f, 64<<10))
	var rec ecRecord
	for {
		if err := reader.Read(&rec); err != nil {
			if err == io.EOF {
				break
			}
			return nil, nil, errors.Wrapf(err, "reading equivalence classes from %s", path)
		}
		ids = append(ids, rec.EC)
		lists = append(lists, rec.Transcripts)
	}
	return ids, lists, nil
}

// resolveTranscripts expands comma-separated transcript-index lists into
// transcript-name lists, splitting the work across a bounded pool.  Chunk i
// covers rows [i*chunk, (i+1)*chunk) with chunk = ceil(n/threads), and the
// chunks are joined in order, so the result order never depends on worker
// completion order.
func resolveTranscripts(lists, transcripts []string, threads int) ([][]string, error) {
	if threads <= 0 {
		threads = DefaultImportThreads
	}
	n := len(lists)
	if n == 0 {
		return nil, nil
	}
	chunk := (n + threads - 1) / threads
	nchunks := (n + chunk - 1) / chunk

	resolved := make([][][]string, nchunks)
	err := traverse.Each(nchunks, func(ci int) error {
		lo := ci * chunk
		hi := lo + chunk
		if hi > n {
			hi = n
		}
		out := make([][]string, 0, hi-lo)
		for _, list := range lists[lo:hi] {
			indices := strings.Split(list, ",")
			names := make([]string, 0, len(indices))
			for _, s := range indices {
				idx, err := strconv.Atoi(strings.TrimSpace(s))
				if err != nil {
					return errors.Wrapf(err, "parsing transcript index %q", s)
				}
				if idx < 0 || idx >= len(transcripts) {
					return errors.Errorf("transcript index %d out of range (%d transcripts)",
						idx, len(transcripts))
				}
				names = append(names, transcripts[idx])
			}
			out = append(out, names)
		}
		resolved[ci] = out
		return nil
	})
	if err != nil {
		return nil, err
	}

	ids := make([][]string, 0, n)
	for _, part := range resolved {
		ids = append(ids, part...)
	}
	return ids, nil
}

// ImportTCCMatrix loads a transcript-compatibility-count matrix: barcodes by
// equivalence classes, where each equivalence class resolves to a list of
// transcript names via the transcript list written by the alignment step.
// threads bounds the worker pool used for that resolution; <= 0 uses
// DefaultImportThreads.
func ImportTCCMatrix(matrixPath, barcodesPath, ecPath, txnamesPath string, threads int) (*Matrix, error) {
	barcodes, err := readLabels(barcodesPath)
	if err != nil {
		return nil, err
	}
	transcripts, err := readLabels(txnamesPath)
	if err != nil {
		return nil, err
	}
	ecs, lists, err := readECs(ecPath)
	if err != nil {
		return nil, err
	}
	transcriptIDs, err := resolveTranscripts(lists, transcripts, threads)
	if err != nil {
		return nil, err
	}
	x, err := readDense(matrixPath, len(barcodes), len(ecs))
	if err != nil {
		return nil, err
	}
	m, err := New(x, barcodes, ecs)
	if err != nil {
		return nil, err
	}
	m.TranscriptIDs = transcriptIDs
	return m, nil
}
