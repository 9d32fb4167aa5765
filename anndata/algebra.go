package anndata

import (
	"gonum.org/v1/gonum/mat"
)

// intersectLabels returns the labels of a that also appear in bIdx, in a's
// order.  Restricting to the first matrix's order keeps results reproducible
// across runs.
func intersectLabels(a []string, bIdx map[string]int) []string {
	var out []string
	for _, l := range a {
		if _, ok := bIdx[l]; ok {
			out = append(out, l)
		}
	}
	return out
}

// restrict materializes m's data plane restricted to the given labels.
func restrict(m *Matrix, obs, vars []string) *mat.Dense {
	if len(obs) == 0 || len(vars) == 0 {
		return nil
	}
	x := mat.NewDense(len(obs), len(vars), nil)
	for i, o := range obs {
		si := m.obsIdx[o]
		for j, v := range vars {
			x.Set(i, j, m.X.At(si, m.varIdx[v]))
		}
	}
	return x
}

// Overlay intersects the row and column labels of a spliced and an
// unspliced matrix and returns a new matrix shaped to the intersection.
// The primary data plane holds the spliced restriction; layers "spliced"
// and "unspliced" hold each input's restriction.
func Overlay(spliced, unspliced *Matrix) (*Matrix, error) {
	obs := intersectLabels(spliced.Obs, unspliced.obsIdx)
	vars := intersectLabels(spliced.Var, unspliced.varIdx)

	x := restrict(spliced, obs, vars)
	out, err := New(x, obs, vars)
	if err != nil {
		return nil, err
	}
	var splicedLayer *mat.Dense
	if x != nil {
		splicedLayer = mat.DenseCopyOf(x)
	}
	if err := out.AddLayer("spliced", splicedLayer); err != nil {
		return nil, err
	}
	if err := out.AddLayer("unspliced", restrict(unspliced, obs, vars)); err != nil {
		return nil, err
	}
	return out, nil
}

// Sum intersects the row and column labels of a spliced and an unspliced
// matrix and returns a new matrix shaped to the intersection whose sole
// data plane is the element-wise sum of both restrictions.
func Sum(spliced, unspliced *Matrix) (*Matrix, error) {
	obs := intersectLabels(spliced.Obs, unspliced.obsIdx)
	vars := intersectLabels(spliced.Var, unspliced.varIdx)

	a := restrict(spliced, obs, vars)
	b := restrict(unspliced, obs, vars)
	var x *mat.Dense
	if a != nil {
		x = mat.NewDense(len(obs), len(vars), nil)
		x.Add(a, b)
	}
	return New(x, obs, vars)
}
