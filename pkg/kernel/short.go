package kernel

import (
	"math/bits"

	"github.com/bastiangx/corpusmatch/pkg/alphabet"
	"github.com/bastiangx/corpusmatch/pkg/norm"
)

// ShortLLCS computes the LCS length of a (length m <= alphabet.WordBits,
// whose bitset alphabet is aMap) against b, via the Hyyrö-2004
// bit-parallel scan from spec.md §4.5.1. It returns (llcs, commonPrefix).
//
// math/bits.OnesCount32 — a single-instruction hardware popcount with no
// third-party equivalent that operates on a bare uint32 — backs the one
// popcount call; see DESIGN.md.
func ShortLLCS(a []rune, aMap *alphabet.Map, b []rune) (llcs, prefix int) {
	m, n := len(a), len(b)
	p := norm.CommonPrefixLen(a, b)
	if p >= m || p >= n {
		return p, p
	}

	mask := uint32(1)<<uint(m) - 1
	S := mask
	// Prefix lanes are already matched by b[:p], so they take no further match.
	mask &^= uint32(1)<<uint(p) - 1
	for j := p; j < n; j++ {
		U := S & aMap.Bits(b[j]) & mask
		S = (S + U) | (S - U)
	}
	S = ^S & mask
	return p + bits.OnesCount32(S), p
}

// ScoreShort is the short-kernel entry point used by pkg/compose for a
// single query token against a single field token: it applies the size
// guard, runs ShortLLCS, and folds the result through the common formula.
func ScoreShort(a []rune, aMap *alphabet.Map, b []rune, p Params) float64 {
	m, n := len(a), len(b)
	if !SizeOK(m, n, p) {
		return 0
	}
	llcs, prefix := ShortLLCS(a, aMap, b)
	return Score(m, n, llcs, prefix, p)
}
