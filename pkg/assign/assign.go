// Package assign solves the 1-to-1 bipartite token-to-token assignment
// spec.md §4.13 describes: given a row x column score matrix, find the
// injective row->column mapping that maximizes the sum of chosen scores,
// where a row may also be left unmatched. Used by pkg/highlight (token
// pairing before alignment).
package assign

// Params controls which matrix entries are even eligible to be assigned.
type Params struct {
	MinimumMatch         float64
	ThreshRelativeToBest float64
}

// Result is one assigned pair; Col is -1 if Row was left unmatched.
type Result struct {
	Row, Col int
	Score    float64
}

// maxCols bounds the dense used-mask representation: a W-bit vector of
// already-chosen columns, per spec.md §4.13 and Design Notes §9. A matrix
// with more rows than columns is flipped (rows<->columns) when its column
// count is within this bound; a matrix that still has more than maxCols
// columns is solved greedily instead of by the exact search.
const maxCols = 32

// Solve finds argmax over injective partial maps pi: rows -> cols of
// sum(C[i][pi(i)]), skipping row i entirely if nothing in its row clears
// the acceptance threshold max(MinimumMatch, ThreshRelativeToBest*rowBest).
// It returns one Result per row of the matrix as given (after any internal
// flip is undone), Score 0 and Col -1 for an unmatched row.
func Solve(c [][]float64, p Params) []Result {
	rows := len(c)
	if rows == 0 {
		return nil
	}
	cols := len(c[0])
	for _, r := range c {
		if len(r) > cols {
			cols = len(r)
		}
	}
	if cols == 0 {
		out := make([]Result, rows)
		for i := range out {
			out[i] = Result{Row: i, Col: -1}
		}
		return out
	}

	flipped := false
	matrix := c
	if rows > cols && cols <= maxCols {
		matrix = transpose(c, rows, cols)
		rows, cols = cols, rows
		flipped = true
	}

	elig, rowBest := eligibility(matrix, rows, cols, p)
	if allEmpty(elig) {
		return unmatched(len(c))
	}
	if results := singleRowShortcut(matrix, elig, rows); results != nil {
		if flipped {
			return unflip(results, len(c), len(c[0]))
		}
		return results
	}
	if cols <= maxCols {
		results := solveDense(matrix, elig, rows, cols)
		if flipped {
			return unflip(results, len(c), len(c[0]))
		}
		return results
	}
	// Column count (after any flip) exceeds the dense mask width: fall back
	// to a greedy per-row best-eligible-column choice with duplicate
	// resolution, which is what the teacher's own completion ranking does
	// (best-first, resolve ties by order) rather than an exponential exact
	// search.
	results := solveGreedy(matrix, elig, rowBest, rows, cols)
	if flipped {
		return unflip(results, len(c), len(c[0]))
	}
	return results
}

func eligibility(c [][]float64, rows, cols int, p Params) ([][]bool, []float64) {
	elig := make([][]bool, rows)
	rowBest := make([]float64, rows)
	for i := 0; i < rows; i++ {
		elig[i] = make([]bool, cols)
		best := 0.0
		for j := 0; j < cols && j < len(c[i]); j++ {
			if c[i][j] > best {
				best = c[i][j]
			}
		}
		rowBest[i] = best
		thresh := p.MinimumMatch
		if rel := p.ThreshRelativeToBest * best; rel > thresh {
			thresh = rel
		}
		for j := 0; j < cols && j < len(c[i]); j++ {
			if c[i][j] >= thresh && c[i][j] > 0 {
				elig[i][j] = true
			}
		}
	}
	return elig, rowBest
}

func allEmpty(elig [][]bool) bool {
	for _, row := range elig {
		for _, e := range row {
			if e {
				return false
			}
		}
	}
	return true
}

func unmatched(rows int) []Result {
	out := make([]Result, rows)
	for i := range out {
		out[i] = Result{Row: i, Col: -1}
	}
	return out
}

func transpose(c [][]float64, rows, cols int) [][]float64 {
	t := make([][]float64, cols)
	for j := 0; j < cols; j++ {
		t[j] = make([]float64, rows)
		for i := 0; i < rows; i++ {
			if j < len(c[i]) {
				t[j][i] = c[i][j]
			}
		}
	}
	return t
}

func unflip(results []Result, origRows, origCols int) []Result {
	// results is indexed by the flipped matrix's rows (== original cols).
	// Rebuild an original-row-indexed result set.
	colOfRow := make([]int, origRows)
	for i := range colOfRow {
		colOfRow[i] = -1
	}
	scoreOfRow := make([]float64, origRows)
	for _, r := range results {
		if r.Col == -1 {
			continue
		}
		colOfRow[r.Col] = r.Row
		scoreOfRow[r.Col] = r.Score
	}
	out := make([]Result, origRows)
	for i := 0; i < origRows; i++ {
		out[i] = Result{Row: i, Col: colOfRow[i], Score: scoreOfRow[i]}
	}
	return out
}
