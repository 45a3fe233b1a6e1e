package gct

import (
	"fmt"
	"sort"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// IsBinary reports whether every value in column 0 is exactly 0 or 1.
// The answer decides the scoring mode for the whole run.
func (m *Matrix) IsBinary() bool {
	r, _ := m.Data.Dims()
	for i := 0; i < r; i++ {
		if v := m.Data.At(i, 0); v != 0 && v != 1 {
			return false
		}
	}

	return true
}

// MissingColumns returns the names that are not matrix columns, in the
// order given.
func (m *Matrix) MissingColumns(names []string) []string {
	have := make(map[string]struct{}, len(m.ColNames))
	for _, name := range m.ColNames {
		have[name] = struct{}{}
	}

	var missing []string
	for _, name := range names {
		if _, ok := have[name]; !ok {
			missing = append(missing, name)
		}
	}

	return missing
}

// Condition removes the component of every column along each named
// condition column, taking the condition columns in the order given and
// projecting against the current (already-conditioned) matrix state.
// The condition columns are then dropped from the matrix and from
// ColNames.
func (m *Matrix) Condition(conditions []string) error {
	if len(conditions) == 0 {
		return nil
	}

	colIndex := make(map[string]int, len(m.ColNames))
	for i, name := range m.ColNames {
		colIndex[name] = i
	}

	var missing []string
	for _, name := range conditions {
		if _, ok := colIndex[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("conditions not found in the gene matrix: %s", strings.Join(missing, ", "))
	}

	nrows, ncols := m.Data.Dims()
	dropped := make([]int, 0, len(conditions))

	a := make([]float64, nrows)
	b := make([]float64, nrows)

	for _, name := range conditions {
		ci := colIndex[name]
		dropped = append(dropped, ci)

		mat.Col(b, ci, m.Data)
		bb := floats.Dot(b, b)
		if bb == 0 {
			continue
		}

		for col := 0; col < ncols; col++ {
			mat.Col(a, col, m.Data)
			proj := floats.Dot(a, b) / bb
			floats.AddScaled(a, -proj, b)
			m.Data.SetCol(col, a)
		}
	}

	m.removeColumns(dropped)

	return nil
}

// removeColumns drops the given column offsets from the matrix and the
// column-name sequence.
func (m *Matrix) removeColumns(idxs []int) {
	drop := make(map[int]struct{}, len(idxs))
	for _, i := range idxs {
		drop[i] = struct{}{}
	}

	nrows, ncols := m.Data.Dims()
	kept := make([]int, 0, ncols-len(drop))
	for c := 0; c < ncols; c++ {
		if _, gone := drop[c]; !gone {
			kept = append(kept, c)
		}
	}

	data := make([]float64, nrows*len(kept))
	names := make([]string, len(kept))
	for j, c := range kept {
		names[j] = m.ColNames[c]
		for r := 0; r < nrows; r++ {
			data[r*len(kept)+j] = m.Data.At(r, c)
		}
	}

	m.Data = mat.NewDense(nrows, len(kept), data)
	m.ColNames = names
}

// NormalizeRows divides each row vector by its L2 norm. Zero rows stay
// zero.
func (m *Matrix) NormalizeRows() {
	nrows, ncols := m.Data.Dims()
	row := make([]float64, ncols)

	for r := 0; r < nrows; r++ {
		mat.Row(row, r, m.Data)
		norm := floats.Norm(row, 2)
		if norm == 0 {
			continue
		}
		floats.Scale(1/norm, row)
		m.Data.SetRow(r, row)
	}
}

// RankColumns replaces each column with its specificity percentiles:
// values are ranked descending with average ranks for ties, then
// divided by the row count, so small numbers mark the most specific
// genes. Every resulting entry lies in (0, 1].
func (m *Matrix) RankColumns() {
	nrows, ncols := m.Data.Dims()
	col := make([]float64, nrows)

	for c := 0; c < ncols; c++ {
		mat.Col(col, c, m.Data)
		ranks := rankDescending(col)
		floats.Scale(1/float64(nrows), ranks)
		m.Data.SetCol(c, ranks)
	}
}

// rankDescending assigns rank 1 to the largest value, averaging the
// ranks of tied runs as R's rank() does with ties.method="mean".
func rankDescending(x []float64) []float64 {
	n := len(x)
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		return x[order[i]] > x[order[j]]
	})

	ranks := make([]float64, n)
	for i := 0; i < n; {
		j := i
		for j+1 < n && x[order[j+1]] == x[order[i]] {
			j++
		}
		// Average of 1-based positions i+1 .. j+1.
		avg := float64(i+j)/2 + 1
		for k := i; k <= j; k++ {
			ranks[order[k]] = avg
		}
		i = j + 1
	}

	return ranks
}
