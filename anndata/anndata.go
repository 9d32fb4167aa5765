// Package anndata holds quantification output as an annotated matrix: a 2D
// numeric array whose rows are observations (cell barcodes) and whose
// columns are variables (genes or equivalence classes), with label tables
// for both axes and optional named layers of identical shape.
package anndata

import (
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// Matrix is an annotated matrix.  Its data planes are dense gonum matrices;
// X is nil if and only if one of the axes is empty.  Label order is
// significant (it aligns labels with storage rows/columns), but label sets
// act as unique identifiers for intersection operations.
type Matrix struct {
	// X is the primary data plane, with len(Obs) rows and len(Var) columns.
	X *mat.Dense
	// Obs holds the row (observation) labels, unique and ordered.
	Obs []string
	// Var holds the column (variable) labels, unique and ordered.
	Var []string
	// Layers holds alternate data planes of X's shape, keyed by name.
	Layers map[string]*mat.Dense
	// TranscriptIDs, set by ImportTCCMatrix, holds the transcript names of
	// each equivalence class, aligned with Var.
	TranscriptIDs [][]string

	obsIdx map[string]int
	varIdx map[string]int
}

// New builds a Matrix from a data plane and its label tables.  The data
// dimensions must equal (len(obs), len(vars)); labels must be unique within
// each axis.  x must be nil when either axis is empty.
func New(x *mat.Dense, obs, vars []string) (*Matrix, error) {
	if len(obs) == 0 || len(vars) == 0 {
		if x != nil {
			return nil, errors.New("anndata: non-nil data plane for an empty axis")
		}
	} else {
		if x == nil {
			return nil, errors.New("anndata: nil data plane")
		}
		r, c := x.Dims()
		if r != len(obs) || c != len(vars) {
			return nil, errors.Errorf("anndata: data plane is %d x %d, labels are %d x %d",
				r, c, len(obs), len(vars))
		}
	}
	obsIdx, err := indexLabels(obs, "obs")
	if err != nil {
		return nil, err
	}
	varIdx, err := indexLabels(vars, "var")
	if err != nil {
		return nil, err
	}
	return &Matrix{
		X:      x,
		Obs:    obs,
		Var:    vars,
		Layers: make(map[string]*mat.Dense),
		obsIdx: obsIdx,
		varIdx: varIdx,
	}, nil
}

func indexLabels(labels []string, axis string) (map[string]int, error) {
	idx := make(map[string]int, len(labels))
	for i, l := range labels {
		if _, dup := idx[l]; dup {
			return nil, errors.Errorf("anndata: duplicate %s label %q", axis, l)
		}
		idx[l] = i
	}
	return idx, nil
}

// Shape returns the matrix dimensions (observations, variables).
func (m *Matrix) Shape() (int, int) {
	return len(m.Obs), len(m.Var)
}

// At returns the value at the given labels.  ok is false when either label
// is absent.
func (m *Matrix) At(obs, v string) (float64, bool) {
	i, ok := m.obsIdx[obs]
	if !ok {
		return 0, false
	}
	j, ok := m.varIdx[v]
	if !ok {
		return 0, false
	}
	return m.X.At(i, j), true
}

// AddLayer attaches an alternate data plane under the given name.  The
// layer must have X's shape.
func (m *Matrix) AddLayer(name string, layer *mat.Dense) error {
	if (layer == nil) != (m.X == nil) {
		return errors.Errorf("anndata: layer %q does not match matrix emptiness", name)
	}
	if layer != nil {
		lr, lc := layer.Dims()
		if r, c := m.Shape(); lr != r || lc != c {
			return errors.Errorf("anndata: layer %q is %d x %d, matrix is %d x %d",
				name, lr, lc, r, c)
		}
	}
	m.Layers[name] = layer
	return nil
}

// HasObs reports whether the observation label is present.
func (m *Matrix) HasObs(label string) bool {
	_, ok := m.obsIdx[label]
	return ok
}

// HasVar reports whether the variable label is present.
func (m *Matrix) HasVar(label string) bool {
	_, ok := m.varIdx[label]
	return ok
}
