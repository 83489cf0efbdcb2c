// Package pack greedily groups a query's short tokens into PackInfo groups
// of at most alphabet.WordBits total characters, so the packed kernel
// (pkg/kernel) can score several query tokens against one field token in a
// single bit-parallel pass.
package pack

import "github.com/bastiangx/corpusmatch/pkg/alphabet"

// Slot describes one query token's position inside a packed group: its
// bit-offset into the group's combined alphabet and its length.
type Slot struct {
	Token  []rune
	Offset int
	Len    int
}

// Info is one PackInfo: a group of tokens packed consecutively into a
// single alphabet.Map, the gate mask that suppresses carry propagation
// across token boundaries (pkg/kernel's packed kernel), and the per-slot
// scratch the active search mutates (score_item / score_field / field_pos
// in spec.md's Data Model).
type Info struct {
	Slots []Slot
	Alpha *alphabet.Map
	Gate  uint32

	// Scratch, reset per record by the composer (pkg/compose). Indexed by
	// slot position within this group.
	ScoreItem  []float64
	ScoreField []float64
	FieldPos   []int
}

// Pack greedily lays consecutive tokens of an ordered query-token list into
// PackInfo groups: a token of length l is admitted to the current group
// iff offset+l <= alphabet.WordBits. A token of length >= WordBits starts
// and ends its own single-token group with an all-ones gate and no group
// alphabet, scored by the single-token kernels (short for exactly WordBits,
// long beyond) instead of the packed one. Declared order is preserved
// both within a group and across groups.
func Pack(tokens [][]rune) []*Info {
	var groups []*Info
	var cur *Info
	offset := 0

	flush := func() {
		if cur != nil {
			groups = append(groups, cur)
		}
		cur = nil
		offset = 0
	}

	for _, tok := range tokens {
		l := len(tok)
		if l == 0 {
			continue
		}
		if l >= alphabet.WordBits {
			flush()
			groups = append(groups, singleLongGroup(tok))
			continue
		}
		if cur != nil && offset+l > alphabet.WordBits {
			flush()
		}
		if cur == nil {
			cur = &Info{}
		}
		slot := Slot{Token: tok, Offset: offset, Len: l}
		cur.Slots = append(cur.Slots, slot)
		offset += l
	}
	flush()

	for _, g := range groups {
		if g.Slots[0].Len < alphabet.WordBits {
			buildGroupAlphabet(g)
		}
		n := len(g.Slots)
		g.ScoreItem = make([]float64, n)
		g.ScoreField = make([]float64, n)
		g.FieldPos = make([]int, n)
	}
	return groups
}

// singleLongGroup builds a degenerate one-slot group for a token that
// can't be packed: alphabet is left nil here, the single-token scorer builds
// its own alphabet from the raw token, and Gate is all-ones
// (no boundary to protect, invariant 1 in spec.md's Data Model).
func singleLongGroup(tok []rune) *Info {
	return &Info{
		Slots: []Slot{{Token: tok, Offset: 0, Len: len(tok)}},
		Gate:  ^uint32(0),
	}
}

// buildGroupAlphabet lays each slot's token into the group's combined
// bitset alphabet at its bit-offset, and ORs the gate mask with every
// position of the token except its top bit, per spec.md §4.4.
func buildGroupAlphabet(g *Info) {
	bits := make(map[rune]uint32)
	var gate uint32
	for _, s := range g.Slots {
		for i, r := range s.Token {
			bits[r] |= 1 << uint(s.Offset+i)
		}
		// all positions of the token except its top bit
		for i := 0; i < s.Len-1; i++ {
			gate |= 1 << uint(s.Offset+i)
		}
	}
	g.Alpha = alphabet.BuildFromBits(bits)
	g.Gate = gate
}

// Reset zeroes a group's per-record scratch between records, per the
// Concurrency & Resource Model's single-search ownership rule.
func (g *Info) Reset() {
	for i := range g.ScoreItem {
		g.ScoreItem[i] = 0
		g.ScoreField[i] = 0
		g.FieldPos[i] = -1
	}
}
