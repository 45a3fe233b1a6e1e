package main

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/carbocation/pfx"
)

// Args carries every parameter of a run. The same block is written to
// args.txt and to the head of the log.
type Args struct {
	SNPs            string
	GeneMatrix      string
	GeneIntervals   string
	SNPIntervals    string
	NullSNPs        string
	Condition       string
	Out             string
	Score           string
	Slop            int
	Threads         int
	NullSNPSets     int
	MinObservations int
	MaxIterations   int
}

// Write prints the parameter block. Loading the block back with
// ParseArgs yields the same Args.
func (a Args) Write(w io.Writer) error {
	lines := []struct {
		flag  string
		value string
	}{
		{"--snps", a.SNPs},
		{"--gene-matrix", a.GeneMatrix},
		{"--gene-intervals", a.GeneIntervals},
		{"--snp-intervals", a.SNPIntervals},
		{"--null-snps", a.NullSNPs},
		{"--condition", a.Condition},
		{"--out", a.Out},
		{"--score", a.Score},
		{"--slop", strconv.Itoa(a.Slop)},
		{"--threads", strconv.Itoa(a.Threads)},
		{"--null-snpsets", strconv.Itoa(a.NullSNPSets)},
		{"--min-observations", strconv.Itoa(a.MinObservations)},
		{"--max-iterations", strconv.Itoa(a.MaxIterations)},
	}

	if _, err := fmt.Fprintf(w, "# snpsea %s\n", version); err != nil {
		return pfx.Err(err)
	}

	for _, line := range lines {
		if line.flag == "--condition" && line.value == "" {
			continue
		}
		if _, err := fmt.Fprintf(w, "%-18s %s\n", line.flag, line.value); err != nil {
			return pfx.Err(err)
		}
	}

	return nil
}

// ParseArgs reads a parameter block written by Write.
func ParseArgs(r io.Reader) (Args, error) {
	var a Args

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		flag, value := fields[0], fields[1]

		var err error
		switch flag {
		case "--snps":
			a.SNPs = value
		case "--gene-matrix":
			a.GeneMatrix = value
		case "--gene-intervals":
			a.GeneIntervals = value
		case "--snp-intervals":
			a.SNPIntervals = value
		case "--null-snps":
			a.NullSNPs = value
		case "--condition":
			a.Condition = value
		case "--out":
			a.Out = value
		case "--score":
			a.Score = value
		case "--slop":
			a.Slop, err = strconv.Atoi(value)
		case "--threads":
			a.Threads, err = strconv.Atoi(value)
		case "--null-snpsets":
			a.NullSNPSets, err = strconv.Atoi(value)
		case "--min-observations":
			a.MinObservations, err = strconv.Atoi(value)
		case "--max-iterations":
			a.MaxIterations, err = strconv.Atoi(value)
		}
		if err != nil {
			return a, pfx.Err(err)
		}
	}

	if err := scanner.Err(); err != nil {
		return a, pfx.Err(err)
	}

	return a, nil
}
