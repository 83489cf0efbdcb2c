package pack

import (
	"testing"

	"github.com/bastiangx/corpusmatch/pkg/alphabet"
)

func toks(ss ...string) [][]rune {
	var out [][]rune
	for _, s := range ss {
		out = append(out, []rune(s))
	}
	return out
}

func TestPackGreedyCoverage(t *testing.T) {
	groups := Pack(toks("john", "ronald", "reuel", "tolkien"))
	var total int
	for _, g := range groups {
		for _, s := range g.Slots {
			total += s.Len
		}
	}
	want := len("john") + len("ronald") + len("reuel") + len("tolkien")
	if total != want {
		t.Fatalf("coverage = %d, want %d", total, want)
	}
}

func TestPackRespectsWordBits(t *testing.T) {
	// four 8-char tokens = 32 bits exactly, should fit one group
	groups := Pack(toks("aaaaaaaa", "bbbbbbbb", "cccccccc", "dddddddd"))
	if len(groups) != 1 {
		t.Fatalf("expected 1 group, got %d", len(groups))
	}
	if groups[0].Slots[3].Offset != 24 {
		t.Fatalf("offset = %d, want 24", groups[0].Slots[3].Offset)
	}
}

func TestPackSplitsOnOverflow(t *testing.T) {
	groups := Pack(toks("aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", "b"))
	if len(groups) != 2 {
		t.Fatalf("expected 2 groups for a 32-char token + 1 more, got %d", len(groups))
	}
}

func TestPackLongTokenOwnGroup(t *testing.T) {
	long := make([]rune, alphabet.WordBits+1)
	for i := range long {
		long[i] = 'x'
	}
	groups := Pack([][]rune{long, []rune("short")})
	if len(groups) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(groups))
	}
	if groups[0].Gate != ^uint32(0) {
		t.Fatalf("long token group should carry an all-ones gate")
	}
}

func TestGateExcludesTopBitPerToken(t *testing.T) {
	groups := Pack(toks("ab", "cd"))
	if len(groups) != 1 {
		t.Fatal("expected single group")
	}
	g := groups[0]
	// token "ab" occupies bits 0-1, gate should include bit 0 but not bit 1
	// token "cd" occupies bits 2-3, gate should include bit 2 but not bit 3
	want := uint32(1<<0 | 1<<2)
	if g.Gate != want {
		t.Fatalf("gate = %032b, want %032b", g.Gate, want)
	}
}
