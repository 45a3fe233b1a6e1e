package enrichment

import (
	"encoding/csv"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/carbocation/pfx"
	"github.com/gocarina/gocsv"
	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat/distuv"
)

func init() {
	// All reports are tab-separated.
	gocsv.SetCSVWriter(func(out io.Writer) *gocsv.SafeCSVWriter {
		w := csv.NewWriter(out)
		w.Comma = '\t'
		return gocsv.NewSafeCSVWriter(w)
	})
}

// SNPGeneRow is one line of snp_genes.txt. String fields allow NA
// entries for SNPs without intervals.
type SNPGeneRow struct {
	Chrom  string `csv:"chrom"`
	Start  string `csv:"start"`
	End    string `csv:"end"`
	SNP    string `csv:"snp"`
	NGenes string `csv:"n_genes"`
	Genes  string `csv:"genes"`
}

// WriteSNPGenes reports every user SNP: NA rows for SNPs absent from
// the interval map, zero-gene rows for SNPs that overlap nothing even
// with slop, and one row per locus with its bounding interval and
// comma-joined gene names.
func (s *Study) WriteSNPGenes(w io.Writer, loci []Locus, absent, naked []string) error {
	rows := make([]SNPGeneRow, 0, len(absent)+len(naked)+len(loci))

	for _, snp := range absent {
		rows = append(rows, SNPGeneRow{
			Chrom: "NA", Start: "NA", End: "NA",
			SNP: snp, NGenes: "NA", Genes: "NA",
		})
	}

	for _, snp := range naked {
		iv := s.SNPs[snp]
		rows = append(rows, SNPGeneRow{
			Chrom:  iv.Chrom,
			Start:  strconv.Itoa(iv.Start),
			End:    strconv.Itoa(iv.End),
			SNP:    snp,
			NGenes: "0",
			Genes:  "NA",
		})
	}

	for _, locus := range loci {
		// The reported interval bounds the whole merged locus.
		iv := s.SNPs[locus.SNPs[0]]
		chrom, start, end := iv.Chrom, iv.Start, iv.End
		for _, snp := range locus.SNPs[1:] {
			iv := s.SNPs[snp]
			if iv.Start < start {
				start = iv.Start
			}
			if iv.End > end {
				end = iv.End
			}
		}

		names := make([]string, len(locus.Geneset))
		for i, gene := range locus.Geneset {
			names[i] = s.Matrix.RowNames[gene]
		}

		rows = append(rows, SNPGeneRow{
			Chrom:  chrom,
			Start:  strconv.Itoa(start),
			End:    strconv.Itoa(end),
			SNP:    locus.Label,
			NGenes: strconv.Itoa(len(locus.Geneset)),
			Genes:  strings.Join(names, ","),
		})
	}

	if err := gocsv.Marshal(&rows, w); err != nil {
		return pfx.Err(err)
	}

	return nil
}

// ScoreRow is one line of snp_condition_scores.txt.
type ScoreRow struct {
	SNP       string  `csv:"snp"`
	Condition string  `csv:"condition"`
	Gene      string  `csv:"gene"`
	Score     float64 `csv:"score"`
}

// WriteScores reports, for every (locus, condition) pair, the locus's
// specificity contribution: in quantitative mode the single most
// specific gene and the chance of seeing its percentile among |set|
// draws; in binary mode the binomial probability of the annotated-gene
// count, with no single gene singled out.
func (s *Study) WriteScores(w io.Writer, loci []Locus) error {
	rows := make([]ScoreRow, 0, len(loci)*len(s.Matrix.ColNames))

	for _, locus := range loci {
		for col, colName := range s.Matrix.ColNames {
			row := ScoreRow{SNP: locus.Label, Condition: colName, Score: 1}

			if s.Binary {
				k := 0
				for _, gene := range locus.Geneset {
					if s.Matrix.Data.At(gene, col) > 0 {
						k++
					}
				}
				binom := distuv.Binomial{N: s.BinarySums[col], P: s.BinaryProbs[col]}
				row.Score = binom.Prob(float64(k))
			} else {
				percentile := 1.0
				for _, gene := range locus.Geneset {
					if v := s.Matrix.Data.At(gene, col); v < percentile {
						percentile = v
						row.Gene = s.Matrix.RowNames[gene]
					}
				}
				if percentile < 1 {
					row.Score = 1 - math.Pow(1-percentile, float64(len(locus.Geneset)))
				}
			}

			rows = append(rows, row)
		}
	}

	if err := gocsv.Marshal(&rows, w); err != nil {
		return pfx.Err(err)
	}

	return nil
}

// LogBins summarizes the null bins each user locus size draws from.
func (s *Study) LogBins() {
	sizes := s.BinSizes()

	keys := make([]int, 0, len(sizes))
	for k := range sizes {
		keys = append(keys, k)
	}
	sort.Ints(keys)

	counts := make(map[int]int)
	for _, k := range s.UserSizes {
		counts[k]++
	}

	s.Log.Printf("# on each iteration we will test %d gene sets from these bins:", len(s.UserSizes))
	for _, k := range keys {
		if counts[k] == 0 {
			continue
		}
		label := strconv.Itoa(k)
		if k == MaxGenes {
			label = ">= " + label
		}
		s.Log.Printf("# %3d gene sets with size %s from a pool of size %d", counts[k], label, sizes[k])
	}

	pops := make([]float64, 0, len(keys))
	for _, k := range keys {
		pops = append(pops, float64(sizes[k]))
	}
	if mean, err := stats.Mean(pops); err == nil {
		median, _ := stats.Median(pops)
		s.Log.Printf("# null bin population mean %.1f, median %.1f", mean, median)
	}
}
