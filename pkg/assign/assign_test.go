package assign

import "testing"

func TestSolveBasicInjective(t *testing.T) {
	c := [][]float64{
		{5, 1, 0},
		{1, 5, 0},
		{0, 0, 5},
	}
	p := Params{MinimumMatch: 0.1, ThreshRelativeToBest: 0}
	results := Solve(c, p)
	seen := map[int]bool{}
	total := 0.0
	for _, r := range results {
		if r.Col == -1 {
			continue
		}
		if seen[r.Col] {
			t.Fatalf("column %d assigned twice", r.Col)
		}
		seen[r.Col] = true
		total += r.Score
	}
	if total != 15 {
		t.Errorf("total score = %v, want 15 (diagonal optimum)", total)
	}
}

func TestSolveNoEligibleRows(t *testing.T) {
	c := [][]float64{{0, 0}, {0, 0}}
	results := Solve(c, Params{MinimumMatch: 1})
	for _, r := range results {
		if r.Col != -1 {
			t.Errorf("expected unmatched row, got col %d", r.Col)
		}
	}
}

func TestSolveSingleRowShortcut(t *testing.T) {
	c := [][]float64{
		{0, 0, 0},
		{2, 0, 0},
		{0, 0, 0},
	}
	results := Solve(c, Params{MinimumMatch: 0.5})
	if results[1].Col != 0 || results[1].Score != 2 {
		t.Errorf("expected row 1 matched to col 0 with score 2, got %+v", results[1])
	}
	if results[0].Col != -1 || results[2].Col != -1 {
		t.Errorf("expected rows 0 and 2 unmatched, got %+v %+v", results[0], results[2])
	}
}

func TestSolveMoreRowsThanCols(t *testing.T) {
	c := [][]float64{
		{3, 0},
		{0, 4},
		{1, 1},
	}
	results := Solve(c, Params{MinimumMatch: 0.1})
	seen := map[int]bool{}
	for _, r := range results {
		if r.Col == -1 {
			continue
		}
		if seen[r.Col] {
			t.Fatalf("column %d double-assigned", r.Col)
		}
		seen[r.Col] = true
	}
	var total float64
	for _, r := range results {
		total += r.Score
	}
	if total != 7 {
		t.Errorf("total = %v, want 7 (3+4)", total)
	}
}
