package kernel

import (
	"math/bits"

	"github.com/bastiangx/corpusmatch/pkg/norm"
	"github.com/bastiangx/corpusmatch/pkg/pack"
)

// PackedLLCS runs the gated bit-parallel scan of spec.md §4.5.2 for one
// field token b against every slot packed into g, and returns one
// (llcs, prefix) pair per slot, in slot order. The gated addition
// (S&gate)+(U&gate) stops a carry from one packed token's top bit from
// corrupting the next token's lane (Hyyrö 2006).
func PackedLLCS(g *pack.Info, b []rune) (llcs, prefix []int) {
	n := len(g.Slots)
	llcs = make([]int, n)
	prefix = make([]int, n)

	var S uint32
	for _, s := range g.Slots {
		S |= (uint32(1)<<uint(s.Len) - 1) << uint(s.Offset)
	}

	for _, c := range b {
		U := S & g.Alpha.Bits(c)
		S = ((S & g.Gate) + (U & g.Gate)) | (S - U)
	}
	S = ^S

	for i, s := range g.Slots {
		p := norm.CommonPrefixLen(s.Token, b)
		if p >= s.Len || p >= len(b) {
			llcs[i], prefix[i] = p, p
			continue
		}
		slotMask := uint32(1)<<uint(s.Len) - 1
		Sk := (S >> uint(s.Offset)) & slotMask
		Sk &^= uint32(1)<<uint(p) - 1
		llcs[i] = p + bits.OnesCount32(Sk)
		prefix[i] = p
	}
	return llcs, prefix
}

// ScorePacked scores field token b against every slot of g, applying the
// size guard per-slot and folding each slot's llcs through the common
// score formula.
func ScorePacked(g *pack.Info, b []rune, p Params) []float64 {
	scores := make([]float64, len(g.Slots))
	llcs, prefix := PackedLLCS(g, b)
	for i, s := range g.Slots {
		if !SizeOK(s.Len, len(b), p) {
			continue
		}
		scores[i] = Score(s.Len, len(b), llcs[i], prefix[i], p)
	}
	return scores
}
