// Package highlight stitches Smith-Waterman-Gotoh alignment spans
// (pkg/align) into a marked-up rendering of a raw field string, pairing
// query and field tokens with the 1-to-1 token assignment (pkg/assign).
package highlight

import (
	"regexp"
	"strings"

	"github.com/bastiangx/corpusmatch/pkg/align"
	"github.com/bastiangx/corpusmatch/pkg/alphabet"
	"github.com/bastiangx/corpusmatch/pkg/assign"
	"github.com/bastiangx/corpusmatch/pkg/kernel"
	"github.com/bastiangx/corpusmatch/pkg/norm"
)

// Params bundles every tunable the highlighter reads.
type Params struct {
	Sep       string
	Before    string
	After     string
	BridgeGap int
	Align     align.Params
	Assign    assign.Params
	Kernel    kernel.Params
}

// tokenRun is one non-separator run of a raw field string.
type tokenRun struct {
	start, end int // rune offsets into the original string's rune slice
	raw        []rune
	normalised []rune
}

// Highlight marks up raw against query tokens queryTokens, emitting
// preserved separator runs and per-token matched spans wrapped in
// p.Before/p.After. fusedScore and tokenwiseScore let the caller decide
// (per spec.md §4.6's rule) whether the fused whole-field pass beat the
// token-wise pass; when it does, the whole field is highlighted as one
// unit instead of per assigned token pair.
func Highlight(raw string, queryTokens [][]rune, fusedScore, tokenwiseScore float64, p Params) string {
	runes := []rune(raw)
	runs := splitRuns(runes, p.Sep)
	if len(runs) == 0 {
		return raw
	}

	if fusedScore > tokenwiseScore {
		return highlightFused(runes, queryTokens, p)
	}
	return highlightTokenwise(runes, runs, queryTokens, p)
}

func sepPattern(sep string) *regexp.Regexp {
	if sep == "" {
		sep = " \t\n\r"
	}
	return regexp.MustCompile("[^" + norm.SepClassEscape(sep) + "]+")
}

func splitRuns(runes []rune, sep string) []tokenRun {
	s := string(runes)
	re := sepPattern(sep)
	locs := re.FindAllStringIndex(s, -1)
	if len(locs) == 0 {
		return nil
	}
	// Convert byte offsets to rune offsets.
	byteToRune := make(map[int]int, len(s)+1)
	ri := 0
	for bi := range s {
		byteToRune[bi] = ri
		ri++
	}
	byteToRune[len(s)] = ri

	runs := make([]tokenRun, len(locs))
	for i, loc := range locs {
		start, end := byteToRune[loc[0]], byteToRune[loc[1]]
		raw := runes[start:end]
		runs[i] = tokenRun{
			start:      start,
			end:        end,
			raw:        raw,
			normalised: []rune(norm.Fold(string(raw), sep)),
		}
	}
	return runs
}

func highlightTokenwise(runes []rune, runs []tokenRun, queryTokens [][]rune, p Params) string {
	cost := make([][]float64, len(queryTokens))
	for i, qt := range queryTokens {
		cost[i] = make([]float64, len(runs))
		for j, r := range runs {
			cost[i][j] = scoreTokens(qt, r.normalised, p.Kernel)
		}
	}
	assignments := assign.Solve(cost, p.Assign)
	matchedRun := make(map[int]int, len(assignments))
	for _, a := range assignments {
		if a.Col >= 0 {
			matchedRun[a.Col] = a.Row
		}
	}

	var b strings.Builder
	cursor := 0
	for ri, run := range runs {
		if run.start > cursor {
			b.WriteString(string(runes[cursor:run.start]))
		}
		if qi, ok := matchedRun[ri]; ok {
			spans := align.Align(queryTokens[qi], run.normalised, p.Align, p.BridgeGap)
			b.WriteString(renderSpans(run.raw, spans, p))
		} else {
			b.WriteString(string(run.raw))
		}
		cursor = run.end
		_ = ri
	}
	if cursor < len(runes) {
		b.WriteString(string(runes[cursor:]))
	}
	return b.String()
}

func highlightFused(runes []rune, queryTokens [][]rune, p Params) string {
	fused := joinTokens(queryTokens)
	normalised := []rune(norm.Fold(string(runes), p.Sep))
	spans := align.Align(fused, normalised, p.Align, p.BridgeGap)
	return renderSpans(runes, spans, p)
}

func renderSpans(raw []rune, spans []align.Span, p Params) string {
	if len(spans) == 0 {
		return string(raw)
	}
	var b strings.Builder
	cursor := 0
	for _, s := range spans {
		if s.Start > len(raw) || s.End > len(raw) || s.Start > s.End {
			continue
		}
		if s.Start > cursor {
			b.WriteString(string(raw[cursor:s.Start]))
		}
		b.WriteString(p.Before)
		b.WriteString(string(raw[s.Start:s.End]))
		b.WriteString(p.After)
		cursor = s.End
	}
	if cursor < len(raw) {
		b.WriteString(string(raw[cursor:]))
	}
	return b.String()
}

func joinTokens(tokens [][]rune) []rune {
	var out []rune
	for i, t := range tokens {
		if i > 0 {
			out = append(out, ' ')
		}
		out = append(out, t...)
	}
	return out
}

func scoreTokens(a, b []rune, p kernel.Params) float64 {
	if !kernel.SizeOK(len(a), len(b), p) {
		return 0
	}
	if len(a) <= alphabet.WordBits {
		aMap := alphabet.BuildShort(a)
		return kernel.ScoreShort(a, aMap, b, p)
	}
	return kernel.ScoreLong(a, b, p)
}
