// Package kernel implements the three interchangeable LCS-length kernels
// spec.md §4.5 describes — short (bit-parallel, single token <= W), packed
// (bit-parallel, several query tokens against one field token), and long
// (block-list, for tokens > W) — plus the score formula common to all
// three.
package kernel

// Params are the size-discipline and bonus knobs the score formula and its
// size guard need. pkg/suggest fills it from pkg/config's Config for the
// call sites that matter (pkg/compose, pkg/highlight's assignment matrix).
type Params struct {
	BonusMatchStart float64
	TokenMinRel     float64
	TokenMaxRel     float64
}

// SizeOK reports whether a field token of length n is within query token
// length m's configured relative-size window. A guard failure means the
// two tokens are treated as unrelated for scoring purposes (spec.md §4.5.1).
func SizeOK(m, n int, p Params) bool {
	if m == 0 || n == 0 {
		return false
	}
	fm, fn := float64(m), float64(n)
	if fn < p.TokenMinRel*fm {
		return false
	}
	if fn > p.TokenMaxRel*fm {
		return false
	}
	return true
}

// Score applies the formula common to all three kernels:
//
//	sz    := (m+n) / (2*m*n)
//	score := sz * llcs^2 + bonusMatchStart * prefix
//
// m, n must be > 0; callers guard on SizeOK before reaching here (division
// by zero in sz is prevented by that guard's m==0||n==0 early return).
func Score(m, n, llcs, prefix int, p Params) float64 {
	fm, fn := float64(m), float64(n)
	sz := (fm + fn) / (2.0 * fm * fn)
	llcsf := float64(llcs)
	return sz*llcsf*llcsf + p.BonusMatchStart*float64(prefix)
}
