// Package enrichment tests whether a set of GWAS SNPs implicates genes
// that are specifically expressed in some condition of a gene matrix,
// by comparing the set's score against size-matched null SNP sets.
package enrichment

import (
	"fmt"
	"log"
	"sort"

	"golang.org/x/exp/rand"

	"github.com/carbocation/snpsea/gct"
	"github.com/carbocation/snpsea/genome"
)

// MaxGenes caps the bin key for size-matched sampling. Genesets with
// more genes land in the top bin but keep their full gene list for
// scoring.
const MaxGenes = 10

// Geneset is the sorted matrix row offsets of the genes assigned to one
// SNP or merged locus.
type Geneset []int

// Study owns every structure the permutation phase reads: the prepared
// matrix, the interval index, the SNP map, the null bins, and the
// per-worker random streams. Everything except the streams is read-only
// after setup.
type Study struct {
	Matrix *gct.Matrix

	// Binary mode caches; in quantitative mode both slices are nil.
	Binary      bool
	BinarySums  []float64
	BinaryProbs []float64

	SNPs  genome.SNPMap
	Genes *genome.Tree
	Slop  int

	Log *log.Logger

	// UserSizes holds the user loci's geneset sizes clamped at
	// MaxGenes; matched null draws follow these sizes in every phase.
	UserSizes []int

	bins     map[int][]Geneset
	nullSNPs []string
	eligible []string
	rngs     []*rand.Rand
}

// InitRNG seeds one independent random stream per worker. The streams
// persist across batches and columns so draws never repeat.
func (s *Study) InitRNG(seed uint64, workers int) {
	s.rngs = make([]*rand.Rand, workers)
	for w := range s.rngs {
		s.rngs[w] = rand.New(rand.NewSource(seed + uint64(w)))
	}
}

// RNG returns worker w's random stream.
func (s *Study) RNG(w int) *rand.Rand { return s.rngs[w] }

// MatchedSet draws one whole size-matched geneset collection, one
// geneset per user locus, from the first worker's stream. Serves the
// null-replicates phase.
func (s *Study) MatchedSet() []Geneset {
	return s.matchedGenesets(s.rngs[0])
}

// Geneset resolves a SNP name to the matrix rows of its overlapping
// genes. The second return is false when the SNP has no interval. When
// the exact interval overlaps nothing, the query widens by the slop on
// each side, clamped at coordinate 1.
func (s *Study) Geneset(snp string) (Geneset, bool) {
	iv, ok := s.SNPs[snp]
	if !ok {
		return nil, false
	}

	rows := s.Genes.Overlapping(iv.Chrom, iv.Start, iv.End)
	if len(rows) == 0 {
		lo := iv.Start - s.Slop
		if lo < 1 {
			lo = 1
		}
		rows = s.Genes.Overlapping(iv.Chrom, lo, iv.End+s.Slop)
	}
	if len(rows) == 0 {
		return nil, true
	}

	sort.Ints(rows)

	return rows, true
}

// BinNullGenesets resolves every null-pool SNP and files its geneset
// under min(size, MaxGenes). SNPs without intervals or without genes
// are dropped. An entirely empty pool is an error.
func (s *Study) BinNullGenesets(nullSNPs []string) error {
	s.bins = make(map[int][]Geneset)
	s.nullSNPs = nullSNPs

	binned := 0
	for _, snp := range nullSNPs {
		gs, ok := s.Geneset(snp)
		if !ok || len(gs) == 0 {
			continue
		}

		k := len(gs)
		if k > MaxGenes {
			k = MaxGenes
		}
		s.bins[k] = append(s.bins[k], gs)
		binned++
	}

	if binned == 0 {
		return fmt.Errorf("no SNP in the null pool overlaps any gene in the matrix")
	}

	return nil
}

// BinSizes returns the population of each non-empty bin.
func (s *Study) BinSizes() map[int]int {
	out := make(map[int]int, len(s.bins))
	for k, sets := range s.bins {
		out[k] = len(sets)
	}

	return out
}

// CheckBins verifies that every user geneset size has at least one null
// geneset to draw from.
func (s *Study) CheckBins() error {
	for _, k := range s.UserSizes {
		if len(s.bins[k]) == 0 {
			return fmt.Errorf("no null geneset of size %d to match a user locus; provide a larger null pool", k)
		}
	}

	return nil
}

// matchedGenesets draws one null geneset per user locus, matching the
// locus's clamped size. Draws are uniform with replacement.
func (s *Study) matchedGenesets(rng *rand.Rand) []Geneset {
	out := make([]Geneset, len(s.UserSizes))
	for i, k := range s.UserSizes {
		bin := s.bins[k]
		out[i] = bin[rng.Intn(len(bin))]
	}

	return out
}

// RandomSNPs samples n distinct null-pool SNPs that each resolve to at
// least one gene. Serves the randomN pseudo-source.
func (s *Study) RandomSNPs(n int, rng *rand.Rand) ([]string, error) {
	if s.eligible == nil {
		s.eligible = make([]string, 0, len(s.nullSNPs))
		for _, snp := range s.nullSNPs {
			if gs, ok := s.Geneset(snp); ok && len(gs) > 0 {
				s.eligible = append(s.eligible, snp)
			}
		}
	}

	if n > len(s.eligible) {
		return nil, fmt.Errorf("requested %d random SNPs but only %d null SNPs overlap genes", n, len(s.eligible))
	}

	// Partial Fisher-Yates over a copy.
	pool := make([]string, len(s.eligible))
	copy(pool, s.eligible)
	for i := 0; i < n; i++ {
		j := i + rng.Intn(len(pool)-i)
		pool[i], pool[j] = pool[j], pool[i]
	}

	out := make([]string, n)
	copy(out, pool[:n])
	sort.Strings(out)

	return out, nil
}

// RandomGenesets resolves a fresh random SNP draw into genesets, for
// null replicates under the randomN pseudo-source.
func (s *Study) RandomGenesets(n int, rng *rand.Rand) ([]Geneset, error) {
	snps, err := s.RandomSNPs(n, rng)
	if err != nil {
		return nil, err
	}

	out := make([]Geneset, 0, n)
	for _, snp := range snps {
		gs, _ := s.Geneset(snp)
		out = append(out, gs)
	}

	return out, nil
}
