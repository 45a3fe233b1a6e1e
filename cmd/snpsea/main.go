// snpsea tests whether genes near a set of GWAS SNPs are specifically
// expressed or annotated in some condition of a gene-by-condition
// matrix, comparing the user's SNPs against size-matched null SNP sets
// drawn from a supplied pool.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/carbocation/pfx"

	"github.com/carbocation/snpsea"
	"github.com/carbocation/snpsea/enrichment"
	"github.com/carbocation/snpsea/gct"
	"github.com/carbocation/snpsea/genome"
)

const version = "1.0.0"

// Default seed of the C++11 mt19937 engine; kept so runs are
// deterministic for a given input.
const rngSeed = 5489

var client *storage.Client

func main() {
	var args Args

	flag.StringVar(&args.SNPs, "snps", "", "SNP identifiers, one per line; or randomN (e.g. random20) to draw N SNPs from the null pool")
	flag.StringVar(&args.GeneMatrix, "gene-matrix", "", "Gene x condition matrix in GCT format, optionally gzipped")
	flag.StringVar(&args.GeneIntervals, "gene-intervals", "", "BED file with gene intervals; names must match matrix row names")
	flag.StringVar(&args.SNPIntervals, "snp-intervals", "", "BED file with SNP intervals")
	flag.StringVar(&args.NullSNPs, "null-snps", "", "Null pool of SNP identifiers, one per line")
	flag.StringVar(&args.Condition, "condition", "", "Optional: column names to condition the matrix on, one per line")
	flag.StringVar(&args.Out, "out", "", "Output directory")
	flag.StringVar(&args.Score, "score", "single", "Scoring method: single or total")
	flag.IntVar(&args.Slop, "slop", 250000, "Base pairs to extend a SNP interval when it overlaps no genes")
	flag.IntVar(&args.Threads, "threads", 1, "Worker threads for the permutation phase")
	flag.IntVar(&args.NullSNPSets, "null-snpsets", 10, "Number of null SNP set replicates to test")
	flag.IntVar(&args.MinObservations, "min-observations", 25, "Stop testing a condition after this many null exceedances")
	flag.IntVar(&args.MaxIterations, "max-iterations", 1000, "Maximum null sets tested per condition")
	flag.Parse()

	if args.SNPs == "" || args.GeneMatrix == "" || args.GeneIntervals == "" ||
		args.SNPIntervals == "" || args.NullSNPs == "" || args.Out == "" {
		flag.PrintDefaults()
		log.Fatalln("Please provide --snps, --gene-matrix, --gene-intervals, --snp-intervals, --null-snps, and --out")
	}

	method, ok := enrichment.ParseMethod(args.Score)
	if !ok {
		log.Fatalf("--score must be single or total, got %q", args.Score)
	}
	if args.Slop < 0 {
		log.Fatalln("--slop must not be negative")
	}
	if args.MaxIterations <= 0 {
		log.Fatalln("--max-iterations must be positive")
	}
	if args.MinObservations < 0 {
		log.Fatalln("--min-observations must not be negative")
	}
	if args.MinObservations >= args.MaxIterations {
		log.Fatalln("--min-observations must be smaller than --max-iterations")
	}
	if args.NullSNPSets < 0 {
		log.Fatalln("--null-snpsets must not be negative")
	}

	if args.Threads < 1 {
		args.Threads = 1
	}
	if max := runtime.NumCPU(); args.Threads > max {
		args.Threads = max
	}

	if err := run(args, method); err != nil {
		log.Fatalln(pfx.Err(err))
	}
}

func run(args Args, method enrichment.Method) error {
	if err := os.MkdirAll(args.Out, 0o775); err != nil {
		return pfx.Err(err)
	}

	logFile, err := os.OpenFile(filepath.Join(args.Out, "log.txt"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o664)
	if err != nil {
		return pfx.Err(err)
	}
	defer logFile.Close()

	logger := log.New(io.MultiWriter(os.Stderr, logFile), "", log.LstdFlags)

	if err := args.Write(logger.Writer()); err != nil {
		return err
	}

	for _, path := range []string{args.SNPs, args.GeneMatrix, args.GeneIntervals, args.SNPIntervals, args.NullSNPs, args.Condition} {
		if strings.HasPrefix(path, "gs://") {
			client, err = storage.NewClient(context.Background())
			if err != nil {
				return pfx.Err(err)
			}
			break
		}
	}

	logger.Println("# Reading files ...")

	nullNames, err := readNameFile(args.NullSNPs)
	if err != nil {
		return err
	}
	logger.Printf("# %q has %d items", args.NullSNPs, len(nullNames))

	var conditions []string
	if args.Condition != "" {
		f, err := snpsea.Open(args.Condition, client)
		if err != nil {
			return err
		}
		conditions, err = snpsea.ReadColumnNames(f)
		f.Close()
		if err != nil {
			return err
		}
	}

	f, err := snpsea.Open(args.SNPIntervals, client)
	if err != nil {
		return err
	}
	snpMap, err := genome.ReadBED(f)
	f.Close()
	if err != nil {
		return err
	}
	logger.Printf("# %q has %d intervals", args.SNPIntervals, len(snpMap))

	f, err = snpsea.Open(args.GeneMatrix, client)
	if err != nil {
		return err
	}
	matrix, err := gct.Read(f)
	f.Close()
	if err != nil {
		return err
	}
	logger.Printf("# %q has %d rows, %d columns", args.GeneMatrix, matrix.Rows(), matrix.Cols())

	f, err = snpsea.Open(args.GeneIntervals, client)
	if err != nil {
		return err
	}
	tree, err := genome.BuildTree(f, matrix.RowIndex())
	f.Close()
	if err != nil {
		return err
	}
	logger.Printf("# Skipped %d gene intervals absent from the gene matrix", tree.SkippedGenes)
	logger.Printf("# %d genes in the matrix have no interval", tree.MissingGenes)

	study := &enrichment.Study{
		Matrix: matrix,
		SNPs:   snpMap,
		Genes:  tree,
		Slop:   args.Slop,
		Log:    logger,
	}

	if err := study.Prepare(conditions); err != nil {
		return err
	}
	if study.Binary {
		logger.Println("# Expression is binary.")
	}

	if err := study.BinNullGenesets(nullNames); err != nil {
		return err
	}

	study.InitRNG(rngSeed, args.Threads)

	userNames, nRandom, err := userSNPNames(args.SNPs, study)
	if err != nil {
		return err
	}
	if len(userNames) == 0 {
		return fmt.Errorf("no SNPs found in %q", args.SNPs)
	}

	argsFile, err := os.Create(filepath.Join(args.Out, "args.txt"))
	if err != nil {
		return pfx.Err(err)
	}
	if err := args.Write(argsFile); err != nil {
		argsFile.Close()
		return err
	}
	argsFile.Close()

	logger.Println("# Overlapping SNP intervals with gene intervals ...")
	genesets, absent, naked := study.ResolveUserSNPs(userNames)
	logger.Printf("# done. %d SNPs not found. %d SNPs overlap 0 genes.", len(absent), len(naked))

	if len(genesets) == 0 {
		return fmt.Errorf("none of the SNPs in %q overlaps any gene in the matrix", args.SNPs)
	}

	present := make([]string, 0, len(genesets))
	for snp := range genesets {
		present = append(present, snp)
	}
	sort.Strings(present)

	loci := enrichment.MergeLoci(present, genesets)
	merged := 0
	for _, locus := range loci {
		if len(locus.SNPs) > 1 {
			merged++
		}
	}
	logger.Printf("# Merged %d SNPs into %d loci.", len(present)-(len(loci)-merged), merged)

	snpGenesFile, err := os.Create(filepath.Join(args.Out, "snp_genes.txt"))
	if err != nil {
		return pfx.Err(err)
	}
	if err := study.WriteSNPGenes(snpGenesFile, loci, absent, naked); err != nil {
		snpGenesFile.Close()
		return err
	}
	snpGenesFile.Close()

	study.ClampSizes(loci)
	if err := study.CheckBins(); err != nil {
		return err
	}
	study.LogBins()

	params := enrichment.Params{
		Method:          method,
		MinObservations: args.MinObservations,
		MaxIterations:   args.MaxIterations,
		Threads:         args.Threads,
	}

	logger.Printf("# We will compute up to %d iterations for each condition with %d threads.", args.MaxIterations, args.Threads)

	userGenesets := make([]enrichment.Geneset, len(loci))
	for i, locus := range loci {
		userGenesets[i] = locus.Geneset
	}

	if args.NullSNPSets > 0 {
		logger.Printf("# Computing %d null SNP sets ...", args.NullSNPSets)

		nullFile, err := os.Create(filepath.Join(args.Out, "null_pvalues.txt"))
		if err != nil {
			return pfx.Err(err)
		}

		for replicate := 0; replicate < args.NullSNPSets; replicate++ {
			var sets []enrichment.Geneset
			if nRandom > 0 {
				sets, err = study.RandomGenesets(nRandom, study.RNG(0))
				if err != nil {
					nullFile.Close()
					return err
				}
			} else {
				sets = study.MatchedSet()
			}

			if err := study.CalculatePValues(nullFile, sets, params, replicate); err != nil {
				nullFile.Close()
				return err
			}
		}
		nullFile.Close()

		logger.Println("# done.")
	}

	scoresFile, err := os.Create(filepath.Join(args.Out, "snp_condition_scores.txt"))
	if err != nil {
		return pfx.Err(err)
	}
	if err := study.WriteScores(scoresFile, loci); err != nil {
		scoresFile.Close()
		return err
	}
	scoresFile.Close()

	logger.Println("# Computing one condition at a time ...")

	condFile, err := os.Create(filepath.Join(args.Out, "condition_pvalues.txt"))
	if err != nil {
		return pfx.Err(err)
	}
	defer condFile.Close()

	if _, err := fmt.Fprintln(condFile, "condition\tpvalue\tnulls_observed\tnulls_tested"); err != nil {
		return pfx.Err(err)
	}
	if err := study.CalculatePValues(condFile, userGenesets, params, -1); err != nil {
		return err
	}

	logger.Println("# done.")

	return nil
}

// readNameFile opens a list file and reads its name column.
func readNameFile(path string) ([]string, error) {
	f, err := snpsea.Open(path, client)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return snpsea.ReadNames(f)
}

// userSNPNames reads the user's SNP list, or draws N random null SNPs
// when the argument is the randomN pseudo-source rather than a file.
func userSNPNames(arg string, study *enrichment.Study) ([]string, int, error) {
	if _, err := os.Stat(arg); err == nil || strings.HasPrefix(arg, "gs://") {
		names, err := readNameFile(arg)
		return names, 0, err
	}

	if !strings.HasPrefix(arg, "random") {
		return nil, 0, fmt.Errorf("cannot open %q", arg)
	}

	n, err := strconv.Atoi(strings.TrimPrefix(arg, "random"))
	if err != nil || n <= 0 {
		return nil, 0, fmt.Errorf("malformed random SNP count %q: expected e.g. random20", arg)
	}

	names, err := study.RandomSNPs(n, study.RNG(0))
	if err != nil {
		return nil, 0, err
	}

	return names, n, nil
}
