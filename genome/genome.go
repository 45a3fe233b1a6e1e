// Package genome maps named genomic intervals and answers overlap
// queries through per-chromosome interval trees.
package genome

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/biogo/store/interval"
	"github.com/carbocation/pfx"
)

// Interval is a span on a chromosome. Endpoints are inclusive for
// overlap purposes, as drawn from the BED file.
type Interval struct {
	Chrom string
	Start int
	End   int
}

// SNPMap maps a SNP name to its interval. Populated once, read-only
// thereafter.
type SNPMap map[string]Interval

// ReadBED reads BED4+ rows (chrom, start, end, name; extra columns
// ignored) into a name -> interval map. Later rows win on duplicate
// names.
func ReadBED(r io.Reader) (SNPMap, error) {
	intervals := make(SNPMap)

	err := eachBEDRow(r, func(name string, iv Interval) {
		intervals[name] = iv
	})
	if err != nil {
		return nil, err
	}

	return intervals, nil
}

func eachBEDRow(r io.Reader, visit func(name string, iv Interval)) error {
	cr := csv.NewReader(r)
	cr.Comma = '\t'
	cr.Comment = '#'
	cr.FieldsPerRecord = -1

	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		} else if err != nil {
			return pfx.Err(err)
		}

		if len(row) < 4 {
			return fmt.Errorf("genome: BED row needs 4 columns, got %d: %v", len(row), row)
		}

		start, err := strconv.Atoi(strings.TrimSpace(row[1]))
		if err != nil {
			return pfx.Err(err)
		}
		end, err := strconv.Atoi(strings.TrimSpace(row[2]))
		if err != nil {
			return pfx.Err(err)
		}

		visit(strings.TrimSpace(row[3]), Interval{
			Chrom: strings.TrimSpace(row[0]),
			Start: start,
			End:   end,
		})
	}

	return nil
}

// treeInterval adapts an interval to the biogo IntTree contract. The
// row index of the gene in the matrix rides along as the payload.
type treeInterval struct {
	start, end int
	id         uintptr
}

func (i treeInterval) Overlap(b interval.IntRange) bool {
	// Inclusive at both endpoints.
	return i.end >= b.Start && i.start <= b.End
}

func (i treeInterval) ID() uintptr { return i.id }

func (i treeInterval) Range() interval.IntRange {
	return interval.IntRange{Start: i.start, End: i.end}
}

// Tree indexes gene intervals by chromosome and resolves overlap
// queries to gene matrix row offsets. Only genes present in the matrix
// are indexed.
type Tree struct {
	chroms map[string]*interval.IntTree
	rows   map[uintptr]int
	nextID uintptr

	// SkippedGenes counts BED rows whose name is absent from the
	// matrix. MissingGenes counts matrix rows that never appeared in
	// the BED stream; EffectiveRows is the matrix row count minus
	// MissingGenes and feeds the hypergeometric denominators.
	SkippedGenes  int
	MissingGenes  int
	EffectiveRows int
}

// BuildTree reads gene intervals from a BED4+ stream, keeping only rows
// whose name is a matrix row name. rowIndex maps row names to matrix
// offsets.
func BuildTree(r io.Reader, rowIndex map[string]int) (*Tree, error) {
	t := &Tree{
		chroms: make(map[string]*interval.IntTree),
		rows:   make(map[uintptr]int),
	}

	seen := make(map[string]struct{}, len(rowIndex))

	err := eachBEDRow(r, func(name string, iv Interval) {
		row, ok := rowIndex[name]
		if !ok {
			t.SkippedGenes++
			return
		}
		seen[name] = struct{}{}

		tree, ok := t.chroms[iv.Chrom]
		if !ok {
			tree = &interval.IntTree{}
			t.chroms[iv.Chrom] = tree
		}

		t.nextID++
		t.rows[t.nextID] = row
		tree.Insert(treeInterval{start: iv.Start, end: iv.End, id: t.nextID}, false)
	})
	if err != nil {
		return nil, err
	}

	t.MissingGenes = len(rowIndex) - len(seen)
	t.EffectiveRows = len(rowIndex) - t.MissingGenes

	return t, nil
}

// Overlapping returns the matrix row offsets of all gene intervals
// intersecting [start, end] on chrom, endpoints included.
func (t *Tree) Overlapping(chrom string, start, end int) []int {
	tree, ok := t.chroms[chrom]
	if !ok {
		return nil
	}

	hits := tree.Get(treeInterval{start: start, end: end})
	if len(hits) == 0 {
		return nil
	}

	rows := make([]int, 0, len(hits))
	for _, hit := range hits {
		rows = append(rows, t.rows[hit.ID()])
	}

	return rows
}
