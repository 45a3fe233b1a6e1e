// Package gct loads gene-by-condition matrices in the GCT format and
// prepares them for specificity scoring.
package gct

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/carbocation/pfx"
	"gonum.org/v1/gonum/mat"
)

// Matrix is a dense gene x condition matrix with its row (gene) and
// column (condition) names. Row names are unique.
type Matrix struct {
	Data     *mat.Dense
	RowNames []string
	ColNames []string
}

// Rows returns the number of genes.
func (m *Matrix) Rows() int { return len(m.RowNames) }

// Cols returns the number of conditions.
func (m *Matrix) Cols() int { return len(m.ColNames) }

// RowIndex maps each row name to its offset in RowNames.
func (m *Matrix) RowIndex() map[string]int {
	idx := make(map[string]int, len(m.RowNames))
	for i, name := range m.RowNames {
		idx[name] = i
	}

	return idx
}

// Read parses a GCT stream. Line 1 must be the literal #1.2, line 2
// carries the row and column counts, line 3 the header (Name,
// Description, then condition names), and each remaining line one gene:
// name, description, then one value per condition.
func Read(r io.Reader) (*Matrix, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 1024*1024), 64*1024*1024)

	if !scanner.Scan() {
		return nil, fmt.Errorf("gct: empty input")
	}
	if !strings.HasPrefix(strings.TrimSpace(scanner.Text()), "#1.2") {
		return nil, fmt.Errorf("gct: not a GCT file: first line is %q, expected #1.2", scanner.Text())
	}

	if !scanner.Scan() {
		return nil, fmt.Errorf("gct: missing dimensions line")
	}
	dims := strings.Fields(scanner.Text())
	if len(dims) < 2 {
		return nil, fmt.Errorf("gct: line 2 is malformed: %q", scanner.Text())
	}
	nrows, err := strconv.Atoi(dims[0])
	if err != nil {
		return nil, pfx.Err(err)
	}
	ncols, err := strconv.Atoi(dims[1])
	if err != nil {
		return nil, pfx.Err(err)
	}
	if nrows <= 0 || ncols <= 0 {
		return nil, fmt.Errorf("gct: line 2 declares %d rows, %d columns", nrows, ncols)
	}

	if !scanner.Scan() {
		return nil, fmt.Errorf("gct: missing header line")
	}
	header := strings.Split(scanner.Text(), "\t")
	if len(header) != ncols+2 {
		return nil, fmt.Errorf("gct: header has %d fields, expected %d", len(header), ncols+2)
	}
	colNames := make([]string, ncols)
	for i, name := range header[2:] {
		colNames[i] = strings.TrimSpace(name)
	}

	data := make([]float64, nrows*ncols)
	rowNames := make([]string, 0, nrows)

	for i := 0; i < nrows; i++ {
		if !scanner.Scan() {
			return nil, fmt.Errorf("gct: expected %d data rows, found %d", nrows, i)
		}
		fields := strings.Split(scanner.Text(), "\t")
		if len(fields) != ncols+2 {
			return nil, fmt.Errorf("gct: row %d has %d fields, expected %d", i+1, len(fields), ncols+2)
		}

		// The Description column is ignored.
		rowNames = append(rowNames, strings.TrimSpace(fields[0]))

		for c, cell := range fields[2:] {
			v, err := strconv.ParseFloat(strings.TrimSpace(cell), 64)
			if err != nil {
				return nil, pfx.Err(fmt.Errorf("gct: row %d column %d: %s", i+1, c+1, err))
			}
			data[i*ncols+c] = v
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, pfx.Err(err)
	}

	return &Matrix{
		Data:     mat.NewDense(nrows, ncols, data),
		RowNames: rowNames,
		ColNames: colNames,
	}, nil
}
