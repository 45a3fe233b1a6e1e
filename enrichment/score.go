package enrichment

import (
	"math"

	"gonum.org/v1/gonum/stat/combin"
	"gonum.org/v1/gonum/stat/distuv"
)

// Method selects how a geneset contributes to a column score: through
// its single most specific gene, or through all of its genes.
type Method int

const (
	Single Method = iota
	Total
)

// ParseMethod maps the --score flag to a Method.
func ParseMethod(name string) (Method, bool) {
	switch name {
	case "single":
		return Single, true
	case "total":
		return Total, true
	}

	return Single, false
}

// ScoreFunc computes a non-negative enrichment score for one matrix
// column over a collection of genesets. Higher is more enriched.
type ScoreFunc func(col int, genesets []Geneset) float64

// Scorer picks the scoring kernel from the matrix mode and the method.
func (s *Study) Scorer(method Method) ScoreFunc {
	if s.Binary {
		if method == Total {
			return s.scoreBinaryTotal
		}
		return s.scoreBinarySingle
	}

	if method == Total {
		return s.scoreQuantitativeTotal
	}
	return s.scoreQuantitativeSingle
}

// hypergeometricPMF is the probability of drawing exactly k specific
// genes when t genes are drawn from n1 specific and n2 background
// genes, without replacement.
func hypergeometricPMF(k, n1, n2, t int) float64 {
	if k < 0 || k > t || k > n1 || t-k > n2 || t > n1+n2 {
		return 0
	}

	return math.Exp(
		combin.LogGeneralizedBinomial(float64(n1), float64(k)) +
			combin.LogGeneralizedBinomial(float64(n2), float64(t-k)) -
			combin.LogGeneralizedBinomial(float64(n1+n2), float64(t)))
}

// hypergeometricUpperTail is P(X >= k).
func hypergeometricUpperTail(k, n1, n2, t int) float64 {
	hi := t
	if n1 < hi {
		hi = n1
	}

	p := 0.0
	for i := k; i <= hi; i++ {
		p += hypergeometricPMF(i, n1, n2, t)
	}
	if p > 1 {
		p = 1
	}

	return p
}

func finiteOrZero(score float64) float64 {
	if math.IsNaN(score) || math.IsInf(score, 0) {
		return 0
	}

	return score
}

// scoreBinarySingle adds, for each geneset with at least one annotated
// gene, the improbability of drawing zero annotated genes.
func (s *Study) scoreBinarySingle(col int, genesets []Geneset) float64 {
	n1 := int(s.BinarySums[col])
	n2 := s.Genes.EffectiveRows - n1

	score := 0.0
	for _, gs := range genesets {
		hit := false
		for _, gene := range gs {
			if s.Matrix.Data.At(gene, col) > 0 {
				hit = true
				break
			}
		}
		if hit {
			score += -math.Log(1 - hypergeometricPMF(0, n1, n2, len(gs)))
		}
	}

	return finiteOrZero(score)
}

// scoreBinaryTotal adds, for each geneset, the hypergeometric upper
// tail of its full annotated-gene count.
func (s *Study) scoreBinaryTotal(col int, genesets []Geneset) float64 {
	n1 := int(s.BinarySums[col])
	n2 := s.Genes.EffectiveRows - n1

	score := 0.0
	for _, gs := range genesets {
		k := 0
		for _, gene := range gs {
			if s.Matrix.Data.At(gene, col) > 0 {
				k++
			}
		}
		if k > 0 {
			score += -math.Log(hypergeometricUpperTail(k, n1, n2, len(gs)))
		}
	}

	return finiteOrZero(score)
}

// scoreQuantitativeSingle scores each geneset by its single most
// specific percentile p: the chance that the best of |set| uniform
// draws beats p is 1-(1-p)^n.
func (s *Study) scoreQuantitativeSingle(col int, genesets []Geneset) float64 {
	score := 0.0
	for _, gs := range genesets {
		percentile := 1.0
		for _, gene := range gs {
			if v := s.Matrix.Data.At(gene, col); v < percentile {
				percentile = v
			}
		}
		if percentile < 1 {
			score += -math.Log(1 - math.Pow(1-percentile, float64(len(gs))))
		}
	}

	return finiteOrZero(score)
}

// scoreQuantitativeTotal sums -log percentiles over the whole geneset
// and compares against the gamma distribution that sum follows under
// the null.
func (s *Study) scoreQuantitativeTotal(col int, genesets []Geneset) float64 {
	score := 0.0
	for _, gs := range genesets {
		sum := 0.0
		for _, gene := range gs {
			sum += -math.Log(s.Matrix.Data.At(gene, col))
		}

		gamma := distuv.Gamma{Alpha: float64(len(gs)), Beta: 1}
		score += -math.Log(gamma.Survival(sum))
	}

	return finiteOrZero(score)
}
