// Package mtx parses Matrix Market coordinate files, the sparse-matrix
// format written by the counting tool.  Files look like:
//
// %%MatrixMarket matrix coordinate real general
// % optional comments
// 3 4 2
// 1 2 5.0
// 3 4 1.0
//
// The header line after the banner and comments gives the matrix dimensions
// and the number of stored entries; each following line is a 1-based
// "row column value" triplet.  Loaded matrices are converted to
// compressed-row (CSR) storage.
package mtx

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

const banner = "%%MatrixMarket"

// COO holds a matrix in coordinate form, as read from an .mtx file.
// Indices are 0-based in memory.
type COO struct {
	Rows, Cols int
	RowInd     []int
	ColInd     []int
	Values     []float64
}

// NNZ returns the number of stored entries.
func (c *COO) NNZ() int { return len(c.Values) }

// Read parses a Matrix Market coordinate file.  Only the
// "matrix coordinate real|integer general" variant is supported; that is
// what the counting tool emits.
func Read(r io.Reader) (*COO, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(nil, 1<<20)

	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return nil, errors.Wrap(err, "reading matrix header")
		}
		return nil, errors.New("empty matrix file")
	}
	header := strings.Fields(scanner.Text())
	if len(header) < 5 || header[0] != banner {
		return nil, errors.Errorf("malformed Matrix Market banner: %q", scanner.Text())
	}
	object, format, field, symmetry := header[1], header[2], header[3], header[4]
	if object != "matrix" || format != "coordinate" {
		return nil, errors.Errorf("unsupported Matrix Market type %s %s", object, format)
	}
	if field != "real" && field != "integer" {
		return nil, errors.Errorf("unsupported Matrix Market field %q", field)
	}
	if symmetry != "general" {
		return nil, errors.Errorf("unsupported Matrix Market symmetry %q", symmetry)
	}

	// Skip comments, then read the dimensions line.
	var dims []string
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || line[0] == '%' {
			continue
		}
		dims = strings.Fields(line)
		break
	}
	if dims == nil {
		return nil, errors.New("missing matrix dimensions")
	}
	if len(dims) != 3 {
		return nil, errors.Errorf("malformed dimensions line: %q", strings.Join(dims, " "))
	}
	rows, err := strconv.Atoi(dims[0])
	if err != nil {
		return nil, errors.Wrapf(err, "parsing row count %q", dims[0])
	}
	cols, err := strconv.Atoi(dims[1])
	if err != nil {
		return nil, errors.Wrapf(err, "parsing column count %q", dims[1])
	}
	nnz, err := strconv.Atoi(dims[2])
	if err != nil {
		return nil, errors.Wrapf(err, "parsing entry count %q", dims[2])
	}
	if rows < 0 || cols < 0 || nnz < 0 {
		return nil, errors.Errorf("negative matrix dimensions: %d %d %d", rows, cols, nnz)
	}

	c := &COO{
		Rows:   rows,
		Cols:   cols,
		RowInd: make([]int, 0, nnz),
		ColInd: make([]int, 0, nnz),
		Values: make([]float64, 0, nnz),
	}
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || line[0] == '%' {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 3 {
			return nil, errors.Errorf("malformed matrix entry: %q", line)
		}
		i, err := strconv.Atoi(fields[0])
		if err != nil {
			return nil, errors.Wrapf(err, "parsing row index %q", fields[0])
		}
		j, err := strconv.Atoi(fields[1])
		if err != nil {
			return nil, errors.Wrapf(err, "parsing column index %q", fields[1])
		}
		v, err := strconv.ParseFloat(fields[2], 64)
		if err != nil {
			return nil, errors.Wrapf(err, "parsing value %q", fields[2])
		}
		if i < 1 || i > rows || j < 1 || j > cols {
			return nil, errors.Errorf("matrix entry (%d, %d) out of bounds for %d x %d", i, j, rows, cols)
		}
		c.RowInd = append(c.RowInd, i-1)
		c.ColInd = append(c.ColInd, j-1)
		c.Values = append(c.Values, v)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "reading matrix entries")
	}
	if len(c.Values) != nnz {
		return nil, errors.Errorf("matrix header promised %d entries, found %d", nnz, len(c.Values))
	}
	return c, nil
}

// CSR holds a matrix in compressed-row form.  Row i's entries are
// ColInd[RowPtr[i]:RowPtr[i+1]] and Values[RowPtr[i]:RowPtr[i+1]], with
// column indices strictly increasing within a row.
type CSR struct {
	Rows, Cols int
	RowPtr     []int
	ColInd     []int
	Values     []float64
}

// ToCSR converts the coordinate matrix to compressed-row form.  Entries for
// the same coordinate are summed.
func (c *COO) ToCSR() *CSR {
	starts := make([]int, c.Rows+1)
	for _, i := range c.RowInd {
		starts[i+1]++
	}
	for i := 1; i <= c.Rows; i++ {
		starts[i] += starts[i-1]
	}

	colInd := make([]int, c.NNZ())
	values := make([]float64, c.NNZ())
	next := make([]int, c.Rows)
	copy(next, starts[:c.Rows])
	for k, i := range c.RowInd {
		colInd[next[i]] = c.ColInd[k]
		values[next[i]] = c.Values[k]
		next[i]++
	}

	m := &CSR{Rows: c.Rows, Cols: c.Cols, RowPtr: make([]int, c.Rows+1)}
	for i := 0; i < c.Rows; i++ {
		lo, hi := starts[i], starts[i+1]
		row := entrySorter{colInd[lo:hi], values[lo:hi]}
		sort.Sort(row)
		// Merge duplicate coordinates.
		for k := lo; k < hi; k++ {
			if len(m.ColInd) > m.RowPtr[i] && m.ColInd[len(m.ColInd)-1] == colInd[k] {
				m.Values[len(m.Values)-1] += values[k]
				continue
			}
			m.ColInd = append(m.ColInd, colInd[k])
			m.Values = append(m.Values, values[k])
		}
		m.RowPtr[i+1] = len(m.ColInd)
	}
	return m
}

// NNZ returns the number of stored entries.
func (m *CSR) NNZ() int { return len(m.Values) }

// Dense materializes the matrix as a dense gonum matrix.  A matrix with a
// zero dimension returns nil, since gonum rejects empty shapes.
func (m *CSR) Dense() *mat.Dense {
	if m.Rows == 0 || m.Cols == 0 {
		return nil
	}
	x := mat.NewDense(m.Rows, m.Cols, nil)
	for i := 0; i < m.Rows; i++ {
		for k := m.RowPtr[i]; k < m.RowPtr[i+1]; k++ {
			x.Set(i, m.ColInd[k], m.Values[k])
		}
	}
	return x
}

// At returns the value at (i, j), 0-based.
func (m *CSR) At(i, j int) float64 {
	lo, hi := m.RowPtr[i], m.RowPtr[i+1]
	cols := m.ColInd[lo:hi]
	k := sort.SearchInts(cols, j)
	if k < len(cols) && cols[k] == j {
		return m.Values[lo+k]
	}
	return 0
}

// Write emits the matrix in Matrix Market coordinate format.
func Write(w io.Writer, m *CSR) error {
	bw := bufio.NewWriter(w)
	if _, err := fmt.Fprintf(bw, "%s matrix coordinate real general\n", banner); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(bw, "%d %d %d\n", m.Rows, m.Cols, m.NNZ()); err != nil {
		return err
	}
	for i := 0; i < m.Rows; i++ {
		for k := m.RowPtr[i]; k < m.RowPtr[i+1]; k++ {
			if _, err := fmt.Fprintf(bw, "%d %d %g\n", i+1, m.ColInd[k]+1, m.Values[k]); err != nil {
				return err
			}
		}
	}
	return bw.Flush()
}

type entrySorter struct {
	cols []int
	vals []float64
}

func (s entrySorter) Len() int           { return len(s.cols) }
func (s entrySorter) Less(i, j int) bool { return s.cols[i] < s.cols[j] }
func (s entrySorter) Swap(i, j int) {
	s.cols[i], s.cols[j] = s.cols[j], s.cols[i]
	s.vals[i], s.vals[j] = s.vals[j], s.vals[i]
}
