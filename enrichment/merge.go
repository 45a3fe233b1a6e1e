package enrichment

import (
	"sort"
	"strings"

	"github.com/theodesp/unionfind"
)

// Locus is one unit of scoring: a single SNP, or a cluster of SNPs
// merged because their genesets share genes. Label joins the member SNP
// names with commas in input order.
type Locus struct {
	Label   string
	SNPs    []string
	Geneset Geneset
}

// MergeLoci coalesces SNPs whose genesets share at least one gene.
// Merging is transitive: union-find over the overlap graph, so the
// result is a fixed point and no two output loci share a row offset.
// snps must be sorted; genesets maps each snp to a non-empty sorted
// geneset.
func MergeLoci(snps []string, genesets map[string]Geneset) []Locus {
	uf := unionfind.NewThreadSafeUnionFind(len(snps))

	// For every gene, link all SNPs that contain it.
	carrier := make(map[int]int)
	for i, snp := range snps {
		for _, gene := range genesets[snp] {
			if first, ok := carrier[gene]; ok {
				uf.Union(first, i)
			} else {
				carrier[gene] = i
			}
		}
	}

	members := make(map[int][]int)
	for i := range snps {
		root := uf.Root(i)
		if root < 0 {
			root = i
		}
		members[root] = append(members[root], i)
	}

	loci := make([]Locus, 0, len(members))
	for _, idxs := range members {
		sort.Ints(idxs)

		names := make([]string, len(idxs))
		union := make(map[int]struct{})
		for j, i := range idxs {
			names[j] = snps[i]
			for _, gene := range genesets[snps[i]] {
				union[gene] = struct{}{}
			}
		}

		genes := make(Geneset, 0, len(union))
		for gene := range union {
			genes = append(genes, gene)
		}
		sort.Ints(genes)

		loci = append(loci, Locus{
			Label:   strings.Join(names, ","),
			SNPs:    names,
			Geneset: genes,
		})
	}

	sort.Slice(loci, func(i, j int) bool { return loci[i].Label < loci[j].Label })

	return loci
}
