package enrichment

import (
	"fmt"
	"io"
	"sync"
)

// Params configures the permutation scheduler.
type Params struct {
	Method          Method
	MinObservations int
	MaxIterations   int
	Threads         int
}

// batchSizes doubles the iteration budget at each step, starting at
// start and trimming the last batch so the total never exceeds max.
func batchSizes(start, max int) []int {
	if max < start {
		return []int{max}
	}
	result := []int{start}
	sum := start
	for sum+start*2 < max {
		start *= 2
		result = append(result, start)
		sum += start
	}
	result = append(result, max-sum)

	return result
}

// CalculatePValues scores every matrix column for the given geneset
// collection, comparing against matched null draws until enough null
// exceedances accumulate or the iteration budget runs out. One TSV row
// per column is written and flushed in column order. A replicate >= 0
// appends that index as a trailing column (the null-replicates phase);
// replicate < 0 is the user phase.
func (s *Study) CalculatePValues(w io.Writer, genesets []Geneset, p Params, replicate int) error {
	score := s.Scorer(p.Method)

	for col, colName := range s.Matrix.ColNames {
		userScore := score(col, genesets)

		// The set under test scored 0, so don't bother permuting.
		if userScore <= 0 {
			if err := writePValueRow(w, colName, "1.0", 0, 0, replicate); err != nil {
				return err
			}
			continue
		}

		nullsObserved := 0
		nullsTested := 0

		for _, count := range batchSizes(100, p.MaxIterations) {
			if count <= 0 {
				continue
			}

			var wg sync.WaitGroup
			var mu sync.Mutex

			base := count / p.Threads
			rem := count % p.Threads

			for worker := 0; worker < p.Threads; worker++ {
				iters := base
				if worker < rem {
					iters++
				}
				if iters == 0 {
					continue
				}

				wg.Add(1)
				go func(worker, iters int) {
					defer wg.Done()

					rng := s.rngs[worker]
					observed := 0
					for i := 0; i < iters; i++ {
						if score(col, s.matchedGenesets(rng)) >= userScore {
							observed++
						}
					}

					mu.Lock()
					nullsObserved += observed
					mu.Unlock()
				}(worker, iters)
			}
			wg.Wait()

			nullsTested += count

			// Null sets beat the user's set often enough that the
			// p-value is already trustworthy.
			if nullsObserved >= p.MinObservations {
				break
			}
		}

		// Exact Monte Carlo p-value, bounded away from zero no matter
		// how many draws were made (Phipson & Smyth 2010).
		pvalue := (float64(nullsObserved) + 1) / (float64(nullsTested) + 1)

		if err := writePValueRow(w, colName, fmt.Sprintf("%.6g", pvalue), nullsObserved, nullsTested, replicate); err != nil {
			return err
		}

		if replicate < 0 && (col+1)%50 == 0 {
			s.Log.Printf("# scored %d / %d conditions", col+1, len(s.Matrix.ColNames))
		}
	}

	return nil
}

func writePValueRow(w io.Writer, condition, pvalue string, observed, tested, replicate int) error {
	var err error
	if replicate >= 0 {
		_, err = fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\n", condition, pvalue, observed, tested, replicate)
	} else {
		_, err = fmt.Fprintf(w, "%s\t%s\t%d\t%d\n", condition, pvalue, observed, tested)
	}

	return err
}
