// Package suggest wires the normaliser, tokeniser, query parser, score
// kernels, assignment solver, n-gram pre-filter, and alignment/highlight
// packages into the engine facade: Add/Search/Highlight over a declared set
// of field paths.
package suggest

import (
	"math"
	"sort"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/bastiangx/corpusmatch/internal/logger"
	"github.com/bastiangx/corpusmatch/pkg/align"
	"github.com/bastiangx/corpusmatch/pkg/assign"
	"github.com/bastiangx/corpusmatch/pkg/compose"
	"github.com/bastiangx/corpusmatch/pkg/config"
	"github.com/bastiangx/corpusmatch/pkg/field"
	"github.com/bastiangx/corpusmatch/pkg/highlight"
	"github.com/bastiangx/corpusmatch/pkg/index"
	"github.com/bastiangx/corpusmatch/pkg/kernel"
	"github.com/bastiangx/corpusmatch/pkg/ngram"
	"github.com/bastiangx/corpusmatch/pkg/query"
)

// Options configures a new Engine. Keys accepts a single dotted path, a
// list of dotted paths, or a map of tag name -> dotted path (tags then
// double as query prefixes and output aliases).
type Options struct {
	Keys         any
	IdentifyItem func(rec any) any
	Source       []any
	Lazy         bool
	Config       *config.Config
	OutputMap    func(Result) any
}

// Result is one ranked search hit.
type Result struct {
	Record     any
	Score      float64
	MatchField int
	MatchLeaf  int
	sortKey    string
}

// Engine is the search facade. Not safe for concurrent use by multiple
// goroutines against the same instance — per the single-threaded
// cooperative model, give each goroutine its own Engine.
type Engine struct {
	cfg       *config.Config
	tags      []string
	paths     []string
	idx       *index.Index
	store     *ngram.Store
	identify  func(rec any) any
	outputMap func(Result) any
	log       *log.Logger
}

// New builds an Engine from opts, extracting every source record's
// declared fields eagerly unless opts.Lazy defers it to the first search.
func New(opts Options) *Engine {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	tags, paths := normalizeKeys(opts.Keys)

	e := &Engine{
		cfg:       cfg,
		tags:      tags,
		paths:     paths,
		idx:       index.New(opts.Lazy),
		identify:  opts.IdentifyItem,
		outputMap: opts.OutputMap,
		log:       logger.Default("suggest"),
	}
	if cfg.Store.Enabled {
		e.store = ngram.New()
	}

	e.idx.Rebuild(opts.Source, e.identify, e.extractFields)
	if !opts.Lazy && e.store != nil {
		e.indexAllIntoStore()
	}
	return e
}

// normalizeKeys accepts the three declared shapes spec.md §6 names for
// `keys`. A map's iteration order is not declaration order in Go, so tag
// names are sorted for determinism — this is a resolved Open Question
// noted in the design ledger, since list order matters for result
// composition but a map's main role is exposing tag query prefixes.
func normalizeKeys(keys any) (tags, paths []string) {
	switch k := keys.(type) {
	case string:
		return []string{""}, []string{k}
	case []string:
		tags = make([]string, len(k))
		return tags, k
	case map[string]string:
		tags = make([]string, 0, len(k))
		for tag := range k {
			tags = append(tags, tag)
		}
		sort.Strings(tags)
		paths = make([]string, len(tags))
		for i, tag := range tags {
			paths[i] = k[tag]
		}
		return tags, paths
	default:
		return nil, nil
	}
}

func (e *Engine) fieldParams() field.Params {
	return field.Params{
		Sep:       e.cfg.Tokens.Sep,
		MinLength: e.cfg.Tokens.FieldMinLength,
		MaxLength: e.cfg.Tokens.FieldMaxLength,
		Acronym:   e.cfg.Matching.ScoreAcronym,
	}
}

func (e *Engine) queryParams() query.Params {
	return query.Params{
		Sep:            e.cfg.Tokens.Sep,
		MinLength:      e.cfg.Tokens.QueryMinLength,
		MaxLength:      e.cfg.Tokens.QueryMaxLength,
		FusedMaxLength: e.cfg.Tokens.FusedMaxLength,
	}
}

func (e *Engine) composeParams() compose.Params {
	return compose.Params{
		Kernel: kernel.Params{
			BonusMatchStart: e.cfg.Matching.BonusMatchStart,
			TokenMinRel:     e.cfg.Tokens.MinRelSize,
			TokenMaxRel:     e.cfg.Tokens.MaxRelSize,
		},
		Assign: assign.Params{
			MinimumMatch:         e.cfg.Matching.MinimumMatch,
			ThreshRelativeToBest: e.cfg.Matching.ThreshRelativeToBest,
		},
		MinimumMatch:       e.cfg.Matching.MinimumMatch,
		BonusTokenOrder:    e.cfg.Matching.BonusTokenOrder,
		BonusPositionDecay: e.cfg.Matching.BonusPositionDecay,
		FieldGoodEnough:    e.cfg.Matching.FieldGoodEnough,
		ScorePerToken:      e.cfg.Matching.ScorePerToken,
		ScoreTestFused:     e.cfg.Matching.ScoreTestFused,
	}
}

func (e *Engine) extractFields(rec any) [][][]string {
	fp := e.fieldParams()
	out := make([][][]string, len(e.paths))
	for i, p := range e.paths {
		out[i] = field.Extract(rec, p, fp)
	}
	return out
}

func (e *Engine) indexAllIntoStore() {
	for i := 0; i < e.idx.Len(); i++ {
		e.indexRecordIntoStore(uint32(i), e.idx.At(i))
	}
}

func recordWords(rec *index.IndexedRecord) []string {
	var words []string
	for _, f := range rec.Fields {
		for _, leaf := range f {
			words = append(words, leaf...)
		}
	}
	return words
}

func (e *Engine) indexRecordIntoStore(slot uint32, rec *index.IndexedRecord) {
	e.store.Index(slot, recordWords(rec))
}

// Add indexes rec, upserting by id when opts.IdentifyItem was configured.
// On upsert, the replaced record's n-gram postings are dropped before the
// new record's are indexed, so a reused slot doesn't accumulate stale keys.
func (e *Engine) Add(rec any) {
	e.idx.Ensure()
	var id any
	if e.identify != nil {
		id = e.identify(rec)
	}
	if e.store != nil && id != nil {
		if oldSlot, ok := e.idx.Lookup(id); ok {
			e.store.Remove(uint32(oldSlot), recordWords(e.idx.At(oldSlot)))
		}
	}
	slot := e.idx.Add(id, index.IndexedRecord{Record: rec, Fields: e.extractFields(rec)})
	if e.store != nil {
		e.indexRecordIntoStore(uint32(slot), e.idx.At(slot))
	}
}

// Search parses q, narrows candidates via the n-gram store when enabled,
// scores every candidate, and returns results sorted descending by score
// (alphabetical tie-break), filtered to the final inclusion threshold.
func (e *Engine) Search(q string) []Result {
	e.idx.Ensure()
	if q == "" || e.idx.Len() == 0 {
		return nil
	}

	parsed := query.Parse(q, e.tags, e.queryParams())
	candidates := e.candidateSlots(parsed)
	e.log.Debugf("search %q: %d candidates out of %d records", q, len(candidates), e.idx.Len())

	cp := e.composeParams()
	threshInclude := e.cfg.Matching.ThreshInclude
	var bestItemScore float64
	var results []Result

	for _, slot := range candidates {
		rec := e.idx.At(int(slot))
		specs := make([]compose.FieldSpec, len(rec.Fields))
		for i, leaves := range rec.Fields {
			var tagQuery *query.Query
			if i < len(parsed.Children) {
				tagQuery = parsed.Children[i]
			}
			specs[i] = compose.FieldSpec{Leaves: leaves, TagQuery: tagQuery}
		}

		rr := compose.ScoreRecord(specs, parsed, cp)
		if rr.ItemScore > bestItemScore {
			bestItemScore = rr.ItemScore
		}
		if rel := bestItemScore * e.cfg.Matching.ThreshRelativeToBest; rel > threshInclude {
			threshInclude = rel
		}

		if rr.ItemScore > threshInclude {
			rounded := roundTo(rr.ItemScore, e.cfg.Matching.ScoreRound)
			results = append(results, Result{
				Record:     rec.Record,
				Score:      rounded,
				MatchField: rr.MatchField,
				MatchLeaf:  rr.MatchLeaf,
				sortKey:    sortKeyFor(rec),
			})
		}
	}

	final := results[:0]
	for _, r := range results {
		if r.Score >= threshInclude {
			final = append(final, r)
		}
	}
	results = final

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].sortKey < results[j].sortKey
	})

	if e.cfg.Output.Limit > 0 && len(results) > e.cfg.Output.Limit {
		results = results[:e.cfg.Output.Limit]
	}
	return results
}

// Len returns the number of records currently in the live index.
func (e *Engine) Len() int {
	e.idx.Ensure()
	return e.idx.Len()
}

// Output applies the configured output projection (identity by default) to
// a Result.
func (e *Engine) Output(r Result) any {
	if e.outputMap != nil {
		return e.outputMap(r)
	}
	return r.Record
}

func sortKeyFor(rec *index.IndexedRecord) string {
	for _, f := range rec.Fields {
		for _, leaf := range f {
			if len(leaf) > 0 {
				return strings.Join(leaf, " ")
			}
		}
	}
	return ""
}

func roundTo(v, granularity float64) float64 {
	if granularity <= 0 {
		return v
	}
	return math.Round(v/granularity) * granularity
}

func (e *Engine) candidateSlots(q *query.Query) []uint32 {
	if e.store == nil {
		out := make([]uint32, e.idx.Len())
		for i := range out {
			out[i] = uint32(i)
		}
		return out
	}
	words := queryWords(q)
	return e.store.Candidates(words, e.cfg.Store.Thresh, e.cfg.Store.MaxResults)
}

func queryWords(q *query.Query) []string {
	var words []string
	for _, t := range q.Tokens {
		words = append(words, string(t))
	}
	for _, c := range q.Children {
		if c != nil {
			words = append(words, queryWords(c)...)
		}
	}
	return words
}

// Highlight renders raw (one field's raw text) with the active query's
// tokens marked, using the same kernel/align/highlight machinery as the
// search's own field composer.
func (e *Engine) Highlight(raw string, q *query.Query) string {
	hp := highlight.Params{
		Sep:       e.cfg.Tokens.Sep,
		Before:    e.cfg.Highlight.Before,
		After:     e.cfg.Highlight.After,
		BridgeGap: e.cfg.Highlight.BridgeGap,
		Align: align.Params{
			Match:       1,
			GapOpen:     -1,
			GapExtend:   -0.5,
			Acronym:     e.cfg.Matching.ScoreAcronym,
			StripPrefix: e.cfg.Highlight.Prefix,
		},
		Assign: assign.Params{
			MinimumMatch:         e.cfg.Matching.MinimumMatch,
			ThreshRelativeToBest: e.cfg.Matching.ThreshRelativeToBest,
		},
		Kernel: kernel.Params{
			BonusMatchStart: e.cfg.Matching.BonusMatchStart,
			TokenMinRel:     e.cfg.Tokens.MinRelSize,
			TokenMaxRel:     e.cfg.Tokens.MaxRelSize,
		},
	}
	tokenwise := compose.ScoreField(strings.Fields(raw), q, e.composeParams())
	return highlight.Highlight(raw, q.Tokens, q.FusedScore, tokenwise, hp)
}
