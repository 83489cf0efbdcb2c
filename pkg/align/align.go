// Package align implements Smith-Waterman-Gotoh local alignment with affine
// gap penalties, used to find the matched span inside a field token for
// highlighting.
package align

// Params holds the alignment scores: Match is positive, GapOpen and
// GapExtend are negative (or zero).
type Params struct {
	Match      float64
	GapOpen    float64
	GapExtend  float64
	Acronym    bool
	StripPrefix bool
}

type direction uint8

const (
	stop direction = iota
	diag
	up
	left
)

// Span is a half-open [Start,End) run of matched positions in b (the
// second sequence passed to Align).
type Span struct{ Start, End int }

// Align runs Smith-Waterman-Gotoh of a against b and returns the matched
// spans in b, in ascending order, after stitching runs separated by a gap
// no larger than bridgeGap.
func Align(a, b []rune, p Params, bridgeGap int) []Span {
	prefix := 0
	if p.StripPrefix {
		prefix = commonPrefixLen(a, b)
	}
	sa, sb := a[prefix:], b[prefix:]
	if len(sa) == 0 || len(sb) == 0 {
		if prefix > 0 {
			return []Span{{0, prefix}}
		}
		return nil
	}

	m, n := len(sa), len(sb)
	// h[i][j]: best local alignment score ending at (i,j).
	h := make([][]float64, m+1)
	e := make([][]float64, m+1) // gap in a (consuming b), i.e. "left" state
	f := make([][]float64, m+1) // gap in b (consuming a), i.e. "up" state
	trace := make([][]direction, m+1)
	for i := range h {
		h[i] = make([]float64, n+1)
		e[i] = make([]float64, n+1)
		f[i] = make([]float64, n+1)
		trace[i] = make([]direction, n+1)
	}

	bestScore := 0.0
	bestI, bestJ := 0, 0

	for i := 1; i <= m; i++ {
		for j := 1; j <= n; j++ {
			matchScore := p.Match
			if sa[i-1] != sb[j-1] {
				matchScore = -p.Match
			}
			if p.Acronym && matchScore > 0 {
				if isBoundary(sa, i-2) {
					matchScore += p.Match
				}
				if isBoundary(sb, j-2) {
					matchScore += p.Match
				}
			}

			diagVal := h[i-1][j-1] + matchScore

			e[i][j] = max2(h[i][j-1]+p.GapOpen, e[i][j-1]+p.GapExtend)
			f[i][j] = max2(h[i-1][j]+p.GapOpen, f[i-1][j]+p.GapExtend)

			best := 0.0
			dir := stop
			if diagVal > best {
				best, dir = diagVal, diag
			}
			if e[i][j] > best {
				best, dir = e[i][j], left
			}
			if f[i][j] > best {
				best, dir = f[i][j], up
			}
			h[i][j] = best
			trace[i][j] = dir

			if best > bestScore {
				bestScore = best
				bestI, bestJ = i, j
			}
		}
	}

	if bestScore <= 0 {
		if prefix > 0 {
			return []Span{{0, prefix}}
		}
		return nil
	}

	spans := traceback(trace, bestI, bestJ, bridgeGap)
	for i := range spans {
		spans[i].Start += prefix
		spans[i].End += prefix
	}
	if prefix > 0 {
		if len(spans) > 0 && spans[0].Start == prefix {
			spans[0].Start = 0
		} else {
			spans = append([]Span{{0, prefix}}, spans...)
		}
	}
	return spans
}

// traceback walks from (i,j) back to a STOP cell, closing the current run
// at a DIAGONAL step that follows a gap longer than bridgeGap and bridging
// smaller gaps rather than splitting the run across them.
func traceback(trace [][]direction, i, j, bridgeGap int) []Span {
	var spans []Span
	curEnd, curStart := -1, -1
	gapRun := 0

	for i > 0 && j > 0 && trace[i][j] != stop {
		switch trace[i][j] {
		case diag:
			if curEnd == -1 {
				curEnd = j
			} else if gapRun > bridgeGap {
				spans = append(spans, Span{curStart, curEnd})
				curEnd = j
			}
			curStart = j - 1
			gapRun = 0
			i--
			j--
		case left:
			gapRun++
			j--
		case up:
			gapRun++
			i--
		}
	}
	if curEnd != -1 {
		spans = append(spans, Span{curStart, curEnd})
	}

	for i, j := 0, len(spans)-1; i < j; i, j = i+1, j-1 {
		spans[i], spans[j] = spans[j], spans[i]
	}
	return spans
}

func isBoundary(s []rune, idx int) bool {
	if idx < 0 {
		return true
	}
	return isSeparatorRune(s[idx])
}

func isSeparatorRune(r rune) bool {
	switch r {
	case ' ', '\t', '\n', '\r', '_', '-', '.', '/':
		return true
	}
	return false
}

func commonPrefixLen(a, b []rune) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	i := 0
	for i < n && a[i] == b[i] {
		i++
	}
	return i
}

func max2(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
