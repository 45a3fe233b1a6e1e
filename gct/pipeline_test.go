package gct

import (
	"math"
	"reflect"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func matrixOf(rows, cols int, data []float64, rowNames, colNames []string) *Matrix {
	return &Matrix{
		Data:     mat.NewDense(rows, cols, data),
		RowNames: rowNames,
		ColNames: colNames,
	}
}

func TestIsBinary(t *testing.T) {
	for _, v := range []struct {
		col0     []float64
		expected bool
	}{
		{[]float64{0, 1, 1, 0}, true},
		{[]float64{0, 0, 0, 0}, true},
		{[]float64{0, 1, 0.5, 0}, false},
		{[]float64{2, 1, 1, 0}, false},
	} {
		m := matrixOf(4, 1, v.col0, []string{"a", "b", "c", "d"}, []string{"x"})
		if got := m.IsBinary(); got != v.expected {
			t.Errorf("IsBinary(%v) = %v, expected %v", v.col0, got, v.expected)
		}
	}
}

func TestRankDescending(t *testing.T) {
	got := rankDescending([]float64{0.3, 0.1, 0.4, 0.1})
	expected := []float64{2, 3.5, 1, 3.5}
	if !reflect.DeepEqual(got, expected) {
		t.Errorf("got %v, expected %v", got, expected)
	}
}

func TestRankColumns(t *testing.T) {
	m := matrixOf(4, 1, []float64{0.3, 0.1, 0.4, 0.1}, []string{"a", "b", "c", "d"}, []string{"x"})
	m.RankColumns()

	expected := []float64{0.5, 0.875, 0.25, 0.875}
	for i, want := range expected {
		if got := m.Data.At(i, 0); math.Abs(got-want) > 1e-12 {
			t.Errorf("M[%d,0] = %v, expected %v", i, got, want)
		}
	}

	// Every ranked value lies in (0, 1].
	for i := 0; i < 4; i++ {
		if v := m.Data.At(i, 0); v <= 0 || v > 1 {
			t.Errorf("rank %v out of (0, 1]", v)
		}
	}

	// Ranking twice equals ranking once.
	m.RankColumns()
	for i, want := range expected {
		if got := m.Data.At(i, 0); math.Abs(got-want) > 1e-12 {
			t.Errorf("after reranking, M[%d,0] = %v, expected %v", i, got, want)
		}
	}
}

func TestNormalizeRows(t *testing.T) {
	m := matrixOf(2, 2, []float64{3, 4, 0, 0}, []string{"a", "b"}, []string{"x", "y"})
	m.NormalizeRows()

	if got := m.Data.At(0, 0); math.Abs(got-0.6) > 1e-12 {
		t.Errorf("M[0,0] = %v, expected 0.6", got)
	}
	if got := m.Data.At(0, 1); math.Abs(got-0.8) > 1e-12 {
		t.Errorf("M[0,1] = %v, expected 0.8", got)
	}

	// A zero row stays zero.
	if got := m.Data.At(1, 0); got != 0 {
		t.Errorf("M[1,0] = %v, expected 0", got)
	}
}

func TestConditionRemovesDuplicateColumn(t *testing.T) {
	// Column A equals column B, so conditioning on B zeroes A.
	m := matrixOf(3, 2,
		[]float64{
			1, 1,
			2, 2,
			3, 3,
		},
		[]string{"a", "b", "c"}, []string{"A", "B"})

	if err := m.Condition([]string{"B"}); err != nil {
		t.Fatal(err)
	}

	if !reflect.DeepEqual(m.ColNames, []string{"A"}) {
		t.Errorf("column names after conditioning: %v", m.ColNames)
	}
	for i := 0; i < 3; i++ {
		if got := m.Data.At(i, 0); math.Abs(got) > 1e-12 {
			t.Errorf("M[%d,0] = %v, expected 0", i, got)
		}
	}
}

func TestConditionOrthogonality(t *testing.T) {
	m := matrixOf(2, 3,
		[]float64{
			1, 1, 2,
			2, 0, 1,
		},
		[]string{"a", "b"}, []string{"A", "B", "C"})

	if err := m.Condition([]string{"B"}); err != nil {
		t.Fatal(err)
	}

	// Surviving columns are orthogonal to the original B = (1, 0).
	b := []float64{1, 0}
	for c := 0; c < 2; c++ {
		dot := 0.0
		for r := 0; r < 2; r++ {
			dot += m.Data.At(r, c) * b[r]
		}
		if math.Abs(dot) > 1e-12 {
			t.Errorf("column %d not orthogonal to condition: dot = %v", c, dot)
		}
	}
}

func TestConditionMissingName(t *testing.T) {
	m := matrixOf(1, 1, []float64{1}, []string{"a"}, []string{"A"})
	if err := m.Condition([]string{"nope"}); err == nil {
		t.Error("expected an error for a missing condition column")
	}
}

func TestMissingColumns(t *testing.T) {
	m := matrixOf(1, 2, []float64{1, 2}, []string{"a"}, []string{"A", "B"})
	got := m.MissingColumns([]string{"B", "C", "D"})
	if !reflect.DeepEqual(got, []string{"C", "D"}) {
		t.Errorf("got %v", got)
	}
}
