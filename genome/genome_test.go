package genome

import (
	"reflect"
	"sort"
	"strings"
	"testing"
)

func TestReadBED(t *testing.T) {
	input := "chr1\t100\t200\trs1\n" +
		"chr2\t300\t400\trs2\textra\tcolumns\n" +
		"# comment\n" +
		"chr1\t500\t600\trs3\n"

	snps, err := ReadBED(strings.NewReader(input))
	if err != nil {
		t.Fatal(err)
	}

	if len(snps) != 3 {
		t.Fatalf("got %d intervals, expected 3", len(snps))
	}
	if got := snps["rs2"]; got != (Interval{Chrom: "chr2", Start: 300, End: 400}) {
		t.Errorf("rs2 = %+v", got)
	}
}

func TestReadBEDRejectsShortRows(t *testing.T) {
	if _, err := ReadBED(strings.NewReader("chr1\t100\t200\n")); err == nil {
		t.Error("expected an error for a 3-column row")
	}
}

func buildTestTree(t *testing.T, bed string, rowIndex map[string]int) *Tree {
	t.Helper()

	tree, err := BuildTree(strings.NewReader(bed), rowIndex)
	if err != nil {
		t.Fatal(err)
	}

	return tree
}

func TestBuildTreeCounts(t *testing.T) {
	bed := "chr1\t100\t200\tG1\n" +
		"chr1\t300\t400\tG2\n" +
		"chr1\t500\t600\tUNKNOWN\n"

	// G3 is in the matrix but has no interval.
	tree := buildTestTree(t, bed, map[string]int{"G1": 0, "G2": 1, "G3": 2})

	if tree.SkippedGenes != 1 {
		t.Errorf("SkippedGenes = %d, expected 1", tree.SkippedGenes)
	}
	if tree.MissingGenes != 1 {
		t.Errorf("MissingGenes = %d, expected 1", tree.MissingGenes)
	}
	if tree.EffectiveRows != 2 {
		t.Errorf("EffectiveRows = %d, expected 2", tree.EffectiveRows)
	}
}

func TestOverlapping(t *testing.T) {
	bed := "chr1\t100\t200\tG1\n" +
		"chr1\t150\t400\tG2\n" +
		"chr2\t100\t200\tG3\n"

	tree := buildTestTree(t, bed, map[string]int{"G1": 0, "G2": 1, "G3": 2})

	for _, v := range []struct {
		name       string
		chrom      string
		start, end int
		expected   []int
	}{
		{"spanning both", "chr1", 160, 170, []int{0, 1}},
		{"only the second", "chr1", 250, 300, []int{1}},
		{"inclusive left endpoint", "chr1", 400, 450, []int{1}},
		{"inclusive right endpoint", "chr1", 50, 100, []int{0}},
		{"no overlap", "chr1", 500, 600, nil},
		{"other chromosome", "chr2", 160, 170, []int{2}},
		{"unknown chromosome", "chrX", 160, 170, nil},
	} {
		got := tree.Overlapping(v.chrom, v.start, v.end)
		sort.Ints(got)
		if !reflect.DeepEqual(got, v.expected) {
			t.Errorf("%s: got %v, expected %v", v.name, got, v.expected)
		}
	}
}

func TestOverlappingDuplicateNames(t *testing.T) {
	// Two intervals for the same gene resolve to the same row.
	bed := "chr1\t100\t200\tG1\n" +
		"chr1\t300\t400\tG1\n"

	tree := buildTestTree(t, bed, map[string]int{"G1": 0})

	got := tree.Overlapping("chr1", 100, 400)
	if !reflect.DeepEqual(got, []int{0, 0}) {
		t.Errorf("got %v, expected [0 0]", got)
	}
}
