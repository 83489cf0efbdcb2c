package assign

// singleRowShortcut implements spec.md §4.13's "exactly one row-best above
// threshold -> return that match directly": when only one row has any
// eligible column at all, the DFS would trivially pick that row's best
// column anyway, so skip straight to it.
func singleRowShortcut(c [][]float64, elig [][]bool, rows int) []Result {
	nonEmpty := -1
	count := 0
	for i, row := range elig {
		for _, e := range row {
			if e {
				count++
				nonEmpty = i
				break
			}
		}
	}
	if count != 1 {
		return nil
	}
	out := unmatched(rows)
	bestJ, bestScore := -1, 0.0
	for j, e := range elig[nonEmpty] {
		if e && c[nonEmpty][j] > bestScore {
			bestScore = c[nonEmpty][j]
			bestJ = j
		}
	}
	out[nonEmpty] = Result{Row: nonEmpty, Col: bestJ, Score: bestScore}
	return out
}

type memoKey struct {
	depth int
	mask  uint32
}

type dpNode struct {
	score  float64
	choice int // -1 means "skip this row"
}

// solveDense runs the memoised depth-indexed DFS of spec.md §4.13 / Design
// Notes §9: one node per (depth, used_mask), used_mask a cols-bit vector of
// already-chosen columns. Reconstructs the assignment by walking the memo
// from the root with an evolving mask.
func solveDense(c [][]float64, elig [][]bool, rows, cols int) []Result {
	memo := make(map[memoKey]dpNode)

	var dfs func(depth int, mask uint32) dpNode
	dfs = func(depth int, mask uint32) dpNode {
		if depth == rows {
			return dpNode{0, -1}
		}
		key := memoKey{depth, mask}
		if v, ok := memo[key]; ok {
			return v
		}
		skip := dfs(depth+1, mask)
		best := dpNode{score: skip.score, choice: -1}
		for j := 0; j < cols; j++ {
			if !elig[depth][j] || mask&(1<<uint(j)) != 0 {
				continue
			}
			sub := dfs(depth+1, mask|(1<<uint(j)))
			total := sub.score + c[depth][j]
			if total > best.score {
				best = dpNode{score: total, choice: j}
			}
		}
		memo[key] = best
		return best
	}
	dfs(0, 0)

	results := make([]Result, rows)
	mask := uint32(0)
	for depth := 0; depth < rows; depth++ {
		node := memo[memoKey{depth, mask}]
		if node.choice == -1 {
			results[depth] = Result{Row: depth, Col: -1}
			continue
		}
		results[depth] = Result{Row: depth, Col: node.choice, Score: c[depth][node.choice]}
		mask |= 1 << uint(node.choice)
	}
	return results
}

// solveGreedy handles the rare case of more columns than the dense mask
// can address even after role-flipping: each row takes its best still-free
// eligible column, rows processed in descending order of their own best
// score so the strongest matches claim their column first.
func solveGreedy(c [][]float64, elig [][]bool, rowBest []float64, rows, cols int) []Result {
	order := make([]int, rows)
	for i := range order {
		order[i] = i
	}
	for i := 1; i < len(order); i++ {
		for j := i; j > 0 && rowBest[order[j]] > rowBest[order[j-1]]; j-- {
			order[j], order[j-1] = order[j-1], order[j]
		}
	}

	used := make([]bool, cols)
	results := make([]Result, rows)
	for i := range results {
		results[i] = Result{Row: i, Col: -1}
	}
	for _, i := range order {
		bestJ, bestScore := -1, 0.0
		for j := 0; j < cols; j++ {
			if used[j] || !elig[i][j] {
				continue
			}
			if c[i][j] > bestScore {
				bestScore = c[i][j]
				bestJ = j
			}
		}
		if bestJ >= 0 {
			used[bestJ] = true
			results[i] = Result{Row: i, Col: bestJ, Score: bestScore}
		}
	}
	return results
}
