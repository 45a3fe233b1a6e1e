package enrichment

import (
	"math"
	"testing"

	"github.com/carbocation/snpsea/genome"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestHypergeometricPMF(t *testing.T) {
	for _, v := range []struct {
		k, n1, n2, t int
		expected     float64
	}{
		// One draw from 2 annotated + 2 background genes.
		{0, 2, 2, 1, 0.5},
		{1, 2, 2, 1, 0.5},
		// Two draws, both annotated: C(2,2)C(2,0)/C(4,2) = 1/6.
		{2, 2, 2, 2, 1.0 / 6},
		// Out of domain.
		{3, 2, 2, 2, 0},
		{-1, 2, 2, 2, 0},
		// t-k exceeds n2, so zero annotated draws are impossible.
		{0, 2, 1, 2, 0},
	} {
		got := hypergeometricPMF(v.k, v.n1, v.n2, v.t)
		if !almostEqual(got, v.expected) {
			t.Errorf("pmf(%d; %d, %d, %d) = %v, expected %v", v.k, v.n1, v.n2, v.t, got, v.expected)
		}
	}
}

func TestHypergeometricPMFSumsToOne(t *testing.T) {
	sum := 0.0
	for k := 0; k <= 3; k++ {
		sum += hypergeometricPMF(k, 5, 7, 3)
	}
	if !almostEqual(sum, 1) {
		t.Errorf("pmf sums to %v, expected 1", sum)
	}
}

func TestHypergeometricUpperTail(t *testing.T) {
	// P(X >= 1) with one draw from 2 + 2.
	if got := hypergeometricUpperTail(1, 2, 2, 1); !almostEqual(got, 0.5) {
		t.Errorf("upper tail = %v, expected 0.5", got)
	}
	// P(X >= 0) is certainty.
	if got := hypergeometricUpperTail(0, 5, 7, 3); !almostEqual(got, 1) {
		t.Errorf("upper tail = %v, expected 1", got)
	}
}

// binaryStudy pairs a 4-gene single-column 0/1 matrix with its cached
// sums and probabilities.
func binaryStudy(t *testing.T, values []float64) *Study {
	t.Helper()

	s := testStudy(t, values, 1000)
	if err := s.Prepare(nil); err != nil {
		t.Fatal(err)
	}
	if !s.Binary {
		t.Fatal("matrix should be binary")
	}

	return s
}

func TestScoreBinarySingle(t *testing.T) {
	s := binaryStudy(t, []float64{0, 1, 1, 0})

	// One geneset {1} with an annotated gene: -log(1 - pmf(0; 2,2,1)).
	got := s.scoreBinarySingle(0, []Geneset{{1}})
	expected := -math.Log(1 - 0.5)
	if !almostEqual(got, expected) {
		t.Errorf("got %v, expected %v", got, expected)
	}

	// No annotated gene contributes nothing.
	if got := s.scoreBinarySingle(0, []Geneset{{0}, {3}}); got != 0 {
		t.Errorf("got %v, expected 0", got)
	}
}

func TestScoreBinaryTotal(t *testing.T) {
	s := binaryStudy(t, []float64{0, 1, 1, 0})

	// Geneset {1, 2} hits twice: -log(P(X >= 2; 2, 2, 2)) = -log(1/6).
	got := s.scoreBinaryTotal(0, []Geneset{{1, 2}})
	expected := -math.Log(1.0 / 6)
	if !almostEqual(got, expected) {
		t.Errorf("got %v, expected %v", got, expected)
	}
}

func quantitativeStudy(values []float64) *Study {
	s := &Study{
		Matrix: matrixOf(values),
		Genes:  &genome.Tree{EffectiveRows: len(values)},
	}

	return s
}

func TestScoreQuantitativeSingle(t *testing.T) {
	s := quantitativeStudy([]float64{0.25, 0.5, 0.75, 1})

	// Geneset {0}: -log(1 - (1 - 0.25)^1).
	got := s.scoreQuantitativeSingle(0, []Geneset{{0}})
	expected := -math.Log(0.25)
	if !almostEqual(got, expected) {
		t.Errorf("got %v, expected %v", got, expected)
	}

	// Geneset {0, 1}: best percentile 0.25 over 2 genes.
	got = s.scoreQuantitativeSingle(0, []Geneset{{0, 1}})
	expected = -math.Log(1 - math.Pow(0.75, 2))
	if !almostEqual(got, expected) {
		t.Errorf("got %v, expected %v", got, expected)
	}

	// A geneset whose best percentile is 1 contributes nothing.
	if got := s.scoreQuantitativeSingle(0, []Geneset{{3}}); got != 0 {
		t.Errorf("got %v, expected 0", got)
	}
}

func TestScoreQuantitativeTotal(t *testing.T) {
	s := quantitativeStudy([]float64{0.25, 0.5, 0.75, 1})

	// For a single gene, the gamma upper tail of -log(p) with shape 1
	// is exactly p, so the score is -log(p).
	got := s.scoreQuantitativeTotal(0, []Geneset{{0}})
	expected := -math.Log(0.25)
	if !almostEqual(got, expected) {
		t.Errorf("got %v, expected %v", got, expected)
	}
}

func TestFiniteOrZero(t *testing.T) {
	for _, v := range []struct {
		in       float64
		expected float64
	}{
		{1.5, 1.5},
		{0, 0},
		{math.Inf(1), 0},
		{math.Inf(-1), 0},
		{math.NaN(), 0},
	} {
		if got := finiteOrZero(v.in); got != v.expected {
			t.Errorf("finiteOrZero(%v) = %v, expected %v", v.in, got, v.expected)
		}
	}
}

func TestScorerSelection(t *testing.T) {
	quant := quantitativeStudy([]float64{0.25, 0.5, 0.75, 1})
	if quant.Scorer(Single) == nil || quant.Scorer(Total) == nil {
		t.Fatal("nil scorer")
	}

	if _, ok := ParseMethod("single"); !ok {
		t.Error("single should parse")
	}
	if _, ok := ParseMethod("total"); !ok {
		t.Error("total should parse")
	}
	if _, ok := ParseMethod("both"); ok {
		t.Error("both should not parse")
	}
}
