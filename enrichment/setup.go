package enrichment

import (
	"fmt"
	"strings"
)

// Prepare fixes the scoring mode for the run and transforms the matrix
// accordingly. A binary matrix (column 0 all 0s and 1s) keeps its
// values and caches per-column sums and probabilities; a quantitative
// matrix is conditioned, row-normalized, and percentile-ranked.
// Condition names absent from the matrix are fatal in either mode.
func (s *Study) Prepare(conditions []string) error {
	if missing := s.Matrix.MissingColumns(conditions); len(missing) > 0 {
		return fmt.Errorf("conditions not found in the gene matrix: %s", strings.Join(missing, ", "))
	}

	if s.Matrix.IsBinary() {
		s.Binary = true

		nrows, ncols := s.Matrix.Data.Dims()
		s.BinarySums = make([]float64, ncols)
		s.BinaryProbs = make([]float64, ncols)
		for c := 0; c < ncols; c++ {
			for r := 0; r < nrows; r++ {
				if s.Matrix.Data.At(r, c) != 0 {
					s.BinarySums[c]++
				}
			}
			s.BinaryProbs[c] = s.BinarySums[c] / float64(nrows)
		}

		return nil
	}

	if err := s.Matrix.Condition(conditions); err != nil {
		return err
	}
	s.Matrix.NormalizeRows()
	s.Matrix.RankColumns()

	return nil
}

// ResolveUserSNPs resolves each user SNP to its geneset. SNPs without
// an interval come back in absent; SNPs overlapping zero genes even
// after the slop fallback come back in naked. Both are excluded from
// scoring but surfaced in the per-SNP report.
func (s *Study) ResolveUserSNPs(snps []string) (genesets map[string]Geneset, absent, naked []string) {
	genesets = make(map[string]Geneset)

	for _, snp := range snps {
		gs, ok := s.Geneset(snp)
		switch {
		case !ok:
			absent = append(absent, snp)
		case len(gs) == 0:
			naked = append(naked, snp)
		default:
			genesets[snp] = gs
		}
	}

	return genesets, absent, naked
}

// ClampSizes records the loci's geneset sizes, capped at MaxGenes, for
// size-matched sampling.
func (s *Study) ClampSizes(loci []Locus) {
	s.UserSizes = make([]int, len(loci))
	for i, locus := range loci {
		k := len(locus.Geneset)
		if k > MaxGenes {
			k = MaxGenes
		}
		s.UserSizes[i] = k
	}
}
