// Package query parses a raw search string into a root query plus, when
// tag markers are present, one child query per declared tag.
package query

import (
	"regexp"
	"strings"

	"github.com/bastiangx/corpusmatch/pkg/alphabet"
	"github.com/bastiangx/corpusmatch/pkg/norm"
	"github.com/bastiangx/corpusmatch/pkg/pack"
)

// Params mirrors the size-discipline and separator options that apply to
// query-side tokenisation (as opposed to field-side, in pkg/field).
type Params struct {
	Sep            string
	MinLength      int
	MaxLength      int
	FusedMaxLength int
}

// Query is one parsed segment: the root, or one tag's child. Groups and
// FusedMap carry the scratch the scoring kernels read; Children is indexed
// in declared-tag order and nil where no marker for that tag appeared.
type Query struct {
	Raw      string
	Tokens   [][]rune
	Groups   []*pack.Info
	Fused    []rune
	FusedMap *alphabet.Map
	Children []*Query

	// FusedScore is per-search scratch: the best fused-pass score seen
	// across any field. Reset at the start of each search, not reallocated
	// per record. The per-token best-score scratch lives on each Group's
	// own ScoreItem (pkg/pack.Info) — there is only one such slice per
	// slot, not a duplicate copy here.
	FusedScore float64
}

// Parse splits raw on tag markers (built from tags, regex-escaped), builds
// the root Query from the pre-first-marker text, and one child Query per
// tag whose marker appears. A marker for an undeclared tag is impossible
// here by construction: tags is the caller's declared set, so any "word:"
// substring not matching one of them is left as ordinary text of whichever
// segment (root or tag) it falls in.
func Parse(raw string, tags []string, p Params) *Query {
	root, segments := splitOnTags(raw, tags)

	q := build(root, p)
	if len(tags) > 0 {
		q.Children = make([]*Query, len(tags))
		for i, tag := range tags {
			if seg, ok := segments[tag]; ok {
				q.Children[i] = build(seg, p)
			}
		}
	}
	return q
}

// splitOnTags scans raw for "tag:" markers (longest-tag-first so a tag
// name that is a prefix of another doesn't steal its match) and returns the
// pre-first-marker text plus one text segment per matched tag.
func splitOnTags(raw string, tags []string) (string, map[string]string) {
	segments := map[string]string{}
	if len(tags) == 0 {
		return raw, segments
	}

	ordered := append([]string(nil), tags...)
	for i := 1; i < len(ordered); i++ {
		for j := i; j > 0 && len(ordered[j]) > len(ordered[j-1]); j-- {
			ordered[j], ordered[j-1] = ordered[j-1], ordered[j]
		}
	}
	alts := make([]string, len(ordered))
	for i, tag := range ordered {
		alts[i] = regexp.QuoteMeta(tag)
	}
	marker := regexp.MustCompile(`(?:^|\s)(` + strings.Join(alts, "|") + `):`)

	locs := marker.FindAllStringSubmatchIndex(raw, -1)
	if len(locs) == 0 {
		return raw, segments
	}

	root := raw[:locs[0][0]]
	for i, loc := range locs {
		tagStart, tagEnd := loc[2], loc[3]
		tagName := raw[tagStart:tagEnd]
		contentStart := loc[1]
		contentEnd := len(raw)
		if i+1 < len(locs) {
			contentEnd = locs[i+1][0]
		}
		segments[tagName] = strings.TrimSpace(raw[contentStart:contentEnd])
	}
	return strings.TrimSpace(root), segments
}

func build(raw string, p Params) *Query {
	normalised := norm.Fold(raw, p.Sep)
	sp := sepPattern(p.Sep)
	parts := sp.Split(normalised, -1)

	tokens := make([][]rune, 0, len(parts))
	for _, part := range parts {
		if part == "" {
			continue
		}
		r := []rune(part)
		if len(r) < p.MinLength {
			continue
		}
		if p.MaxLength > 0 && len(r) > p.MaxLength {
			r = r[:p.MaxLength]
		}
		tokens = append(tokens, r)
	}

	fused := []rune(normalised)
	if p.FusedMaxLength > 0 && len(fused) > p.FusedMaxLength {
		fused = fused[:p.FusedMaxLength]
	}

	q := &Query{
		Raw:    raw,
		Tokens: tokens,
		Groups: pack.Pack(tokens),
		Fused:  fused,
	}
	if len(fused) > 0 {
		if len(fused) <= alphabet.WordBits {
			q.FusedMap = alphabet.BuildShort(fused)
		} else {
			q.FusedMap = alphabet.BuildLong(fused)
		}
	}
	return q
}

func sepPattern(sep string) *regexp.Regexp {
	if sep == "" {
		sep = " \t\n\r"
	}
	return regexp.MustCompile("[" + norm.SepClassEscape(sep) + "]+")
}

// Reset zeros per-search scratch so the same Query can be reused across
// the records of one search without reallocating.
func (q *Query) Reset() {
	q.FusedScore = 0
	for _, g := range q.Groups {
		g.Reset()
	}
	for _, c := range q.Children {
		if c != nil {
			c.Reset()
		}
	}
}

// ScoreItemTotal sums the best per-slot score across all PackInfo groups of
// this query and its children, substituting FusedScore where it's greater —
// the "scoreItem()" aggregate the field/item composer reads.
func (q *Query) ScoreItemTotal() float64 {
	var sum float64
	for _, g := range q.Groups {
		for _, s := range g.ScoreItem {
			sum += s
		}
	}
	if q.FusedScore > sum {
		sum = q.FusedScore
	}
	for _, c := range q.Children {
		if c != nil {
			sum += c.ScoreItemTotal()
		}
	}
	return sum
}
