package snpsea

import (
	"encoding/csv"
	"io"
	"sort"
	"strings"

	"github.com/carbocation/pfx"
)

// Column labels that mark a header row in a SNP list. When one of these
// is seen, that cell's column supplies the names on every later row.
var snpHeaderLabels = map[string]struct{}{
	"SNP":    {},
	"snp":    {},
	"name":   {},
	"marker": {},
}

// ReadNames consumes a tab-delimited file and returns the unique values
// of its name column, sorted. Lines starting with '#' are comments.
// Rows are header-checked until a known SNP column label is seen; the
// matching row is consumed and its column supplies the names from then
// on. Until then, names come from column 0.
func ReadNames(r io.Reader) ([]string, error) {
	cr := csv.NewReader(r)
	cr.Comma = '\t'
	cr.Comment = '#'
	cr.FieldsPerRecord = -1

	names := make(map[string]struct{})

	foundHeader := false
	nameCol := 0

	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		} else if err != nil {
			return nil, pfx.Err(err)
		}

		if len(row) < 1 {
			continue
		}

		if !foundHeader {
			for i, cell := range row {
				if _, ok := snpHeaderLabels[strings.TrimSpace(cell)]; ok {
					foundHeader = true
					nameCol = i
					break
				}
			}
			if foundHeader {
				continue
			}
		}

		if nameCol >= len(row) {
			continue
		}

		name := strings.TrimSpace(row[nameCol])
		if name != "" {
			names[name] = struct{}{}
		}
	}

	out := make([]string, 0, len(names))
	for name := range names {
		out = append(out, name)
	}
	sort.Strings(out)

	return out, nil
}

// ReadColumnNames reads one name per line, preserving input order and
// dropping duplicates and '#' comments. Used for the conditions list,
// where the order of appearance decides the projection order.
func ReadColumnNames(r io.Reader) ([]string, error) {
	cr := csv.NewReader(r)
	cr.Comma = '\t'
	cr.Comment = '#'
	cr.FieldsPerRecord = -1

	seen := make(map[string]struct{})
	var out []string

	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		} else if err != nil {
			return nil, pfx.Err(err)
		}

		if len(row) < 1 {
			continue
		}

		name := strings.TrimSpace(row[0])
		if name == "" {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}

	return out, nil
}
