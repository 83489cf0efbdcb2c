// Package compose combines the score kernels (pkg/kernel) into the
// field/item score composition: per-leaf, per-field, then per-record
// scoring with position decay, the word-order bonus, and the fused-pass
// fallback. Each query token takes its best-scoring leaf token
// independently; no 1-to-1 assignment between tokens is made here.
package compose

import (
	"github.com/bastiangx/corpusmatch/pkg/alphabet"
	"github.com/bastiangx/corpusmatch/pkg/assign"
	"github.com/bastiangx/corpusmatch/pkg/kernel"
	"github.com/bastiangx/corpusmatch/pkg/pack"
	"github.com/bastiangx/corpusmatch/pkg/query"
)

// Params bundles every tunable the composer's formulas read.
type Params struct {
	Kernel               kernel.Params
	Assign               assign.Params
	MinimumMatch         float64
	BonusTokenOrder      float64
	BonusPositionDecay   float64
	FieldGoodEnough      float64
	ScorePerToken        bool
	ScoreTestFused       bool
}

// LeafResult is the outcome of scoring one field against its tag-matched
// query (or the root query, when no tag applies).
type LeafResult struct {
	Score     float64
	LeafIndex int
}

// ScoreLeaves scores every leaf (token list) of one field against q (and,
// when present, the field's tag sub-query, added in), returning the best
// score and the leaf index that achieved it — spec.md §4.6 step 2. When the
// field has no tag sub-query and ScorePerToken is false, ns is the fused
// score_map(fused_str, join(leaf," "), fused_map) rather than the per-token
// score_field path.
func ScoreLeaves(leaves [][]string, q *query.Query, tagQuery *query.Query, p Params) LeafResult {
	best := LeafResult{LeafIndex: -1}
	for i, leaf := range leaves {
		var ns float64
		if tagQuery == nil && !p.ScorePerToken {
			ns = scoreFused(q, leaf, p)
		} else {
			ns = ScoreField(leaf, q, p)
			if tagQuery != nil {
				ns += ScoreField(leaf, tagQuery, p)
			}
		}
		if ns > best.Score {
			best = LeafResult{Score: ns, LeafIndex: i}
		}
	}
	return best
}

// ScoreField is spec.md §4.6's score_field(leaf, Q): the inner loop over Q's
// PackInfo groups, with the distance-weighted order bonus and the optional
// fused fallback.
func ScoreField(leaf []string, q *query.Query, p Params) float64 {
	if q == nil {
		return 0
	}
	leafRunes := make([][]rune, len(leaf))
	for i, s := range leaf {
		leafRunes[i] = []rune(s)
	}

	var fieldScore float64
	lastIndex := -1
	for _, g := range q.Groups {
		best, bestIdx := scoreGroupAgainstLeaf(g, leafRunes, p)
		for k := range best {
			fieldScore += best[k]
			if best[k] <= p.MinimumMatch {
				lastIndex = bestIdx[k]
				continue
			}
			if lastIndex >= 0 {
				d := bestIdx[k] - lastIndex
				bo := p.BonusTokenOrder / (1 + absInt(d))
				if d > 0 {
					bo *= 2
				}
				fieldScore += bo
			}
			lastIndex = bestIdx[k]
			if k < len(g.ScoreItem) && best[k] > g.ScoreItem[k] {
				g.ScoreItem[k] = best[k]
			}
		}
	}

	if p.ScoreTestFused {
		fused := scoreFused(q, leaf, p)
		fused += p.BonusTokenOrder
		if fused > fieldScore {
			fieldScore = fused
			if fused > q.FusedScore {
				q.FusedScore = fused
			}
		}
	}
	return fieldScore
}

// scoreGroupAgainstLeaf scores one PackInfo group against every token of a
// leaf, tracking per-slot best score and the leaf index that achieved it —
// the later-in-field candidate wins ties within BonusTokenOrder of the
// current best, per spec.md §4.6.
func scoreGroupAgainstLeaf(g *pack.Info, leaf [][]rune, p Params) ([]float64, []int) {
	n := len(g.Slots)
	best := make([]float64, n)
	bestIdx := make([]int, n)
	for i := range bestIdx {
		bestIdx[i] = -1
	}

	for leafIdx, tok := range leaf {
		var scores []float64
		if n == 1 {
			s := g.Slots[0]
			scores = []float64{scoreSlot(s.Token, tok, p)}
		} else {
			llcs, prefix := kernel.PackedLLCS(g, tok)
			scores = make([]float64, n)
			for k, s := range g.Slots {
				if !kernel.SizeOK(len(s.Token), len(tok), p.Kernel) {
					continue
				}
				scores[k] = kernel.Score(len(s.Token), len(tok), llcs[k], prefix[k], p.Kernel)
			}
		}
		for k, sc := range scores {
			if sc > best[k] || (sc > 0 && sc >= best[k]-p.BonusTokenOrder && bestIdx[k] < leafIdx) {
				best[k] = sc
				bestIdx[k] = leafIdx
			}
		}
	}
	return best, bestIdx
}

func scoreSlot(a, b []rune, p Params) float64 {
	if !kernel.SizeOK(len(a), len(b), p.Kernel) {
		return 0
	}
	if len(a) <= alphabet.WordBits {
		aMap := alphabet.BuildShort(a)
		return kernel.ScoreShort(a, aMap, b, p.Kernel)
	}
	return kernel.ScoreLong(a, b, p.Kernel)
}

// scoreFused scores the whole query against the space-joined concatenation
// of a leaf's tokens, the fallback for splits the tokeniser misses (e.g.
// query "old man" against field token "oldman").
func scoreFused(q *query.Query, leaf []string, p Params) float64 {
	joined := joinLeaf(leaf)
	if len(joined) == 0 || len(q.Fused) == 0 || q.FusedMap == nil {
		return 0
	}
	if !kernel.SizeOK(len(q.Fused), len(joined), p.Kernel) {
		return 0
	}
	if len(q.Fused) <= alphabet.WordBits {
		return kernel.ScoreShort(q.Fused, q.FusedMap, joined, p.Kernel)
	}
	return kernel.ScoreLong(q.Fused, joined, p.Kernel)
}

func joinLeaf(leaf []string) []rune {
	var out []rune
	for i, s := range leaf {
		if i > 0 {
			out = append(out, ' ')
		}
		out = append(out, []rune(s)...)
	}
	return out
}

func absInt(d int) float64 {
	if d < 0 {
		return float64(-d)
	}
	return float64(d)
}

// FieldSpec is one declared field's token lists for a single record, plus
// its tag sub-query when the query carried one for this field.
type FieldSpec struct {
	Leaves   [][]string
	TagQuery *query.Query
}

// RecordResult is the per-record outcome spec.md §4.6 steps 3-4 produce.
type RecordResult struct {
	ItemScore      float64
	BestFieldScore float64
	MatchField     int
	MatchLeaf      int
}

// ScoreRecord implements spec.md §4.6's per-record loop: reset Query
// scratch, score every declared field (applying the per-field position
// bonus and its decay, stopping early once a field clears
// FieldGoodEnough), then combine the best field score with the query's
// aggregated per-token score into the item score.
func ScoreRecord(fields []FieldSpec, q *query.Query, p Params) RecordResult {
	q.Reset()

	result := RecordResult{MatchField: -1, MatchLeaf: -1}
	positionBonus := 1.0

	for fi, f := range fields {
		leaf := ScoreLeaves(f.Leaves, q, f.TagQuery, p)
		fieldScore := leaf.Score * (1 + positionBonus)
		positionBonus *= p.BonusPositionDecay

		if fieldScore > result.BestFieldScore {
			result.BestFieldScore = fieldScore
			result.MatchField = fi
			result.MatchLeaf = leaf.LeafIndex
		}
		if fieldScore > p.FieldGoodEnough {
			break
		}
	}

	result.ItemScore = result.BestFieldScore
	if p.ScorePerToken {
		result.ItemScore = 0.5*result.BestFieldScore + 0.5*q.ScoreItemTotal()
	}
	return result
}
