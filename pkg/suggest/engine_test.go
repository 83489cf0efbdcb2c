package suggest

import (
	"testing"

	"github.com/bastiangx/corpusmatch/pkg/config"
)

func recordsByTitle(titles ...string) []any {
	out := make([]any, len(titles))
	for i, t := range titles {
		out[i] = map[string]any{"title": t}
	}
	return out
}

func TestSearchRanksClosestLCSFirst(t *testing.T) {
	e := New(Options{
		Keys:   "title",
		Source: recordsByTitle("survey", "surgery", "insurgence"),
		Config: config.DefaultConfig(),
	})
	results := e.Search("surgeo")
	if len(results) == 0 {
		t.Fatal("expected non-empty results")
	}
	top := results[0].Record.(map[string]any)["title"]
	if top != "surgery" {
		t.Errorf("top result = %v, want surgery", top)
	}
}

func TestSearchAssuranceReturnsNonEmpty(t *testing.T) {
	e := New(Options{
		Keys:   "title",
		Source: recordsByTitle("survey", "surgery", "insurgence"),
		Config: config.DefaultConfig(),
	})
	results := e.Search("assurance")
	if len(results) == 0 {
		t.Error("expected non-empty results for 'assurance'")
	}
}

func TestSearchEmptyQueryReturnsEmpty(t *testing.T) {
	e := New(Options{Keys: "title", Source: recordsByTitle("a", "b"), Config: config.DefaultConfig()})
	if results := e.Search(""); len(results) != 0 {
		t.Errorf("expected empty results for empty query, got %v", results)
	}
}

func TestSearchEmptySourceReturnsEmpty(t *testing.T) {
	e := New(Options{Keys: "title", Source: nil, Config: config.DefaultConfig()})
	if results := e.Search("anything"); len(results) != 0 {
		t.Errorf("expected empty results for empty source, got %v", results)
	}
}

func TestSearchTagScopedQuery(t *testing.T) {
	cfg := config.DefaultConfig()
	e := New(Options{
		Keys: map[string]string{"title": "title", "domain": "domain"},
		Source: []any{
			map[string]any{"_id": 1, "title": "Item 1", "domain": "item1.com"},
			map[string]any{"_id": 2, "title": "Item 2", "domain": "item2.com"},
		},
		IdentifyItem: func(r any) any { return r.(map[string]any)["_id"] },
		Config:       cfg,
	})
	e.Add(map[string]any{"_id": 3, "title": "Item 3", "domain": "item3.com"})

	results := e.Search("title:Item")
	found := false
	for _, r := range results {
		if r.Record.(map[string]any)["_id"] == 3 {
			found = true
		}
	}
	if !found {
		t.Errorf("expected record 3 in results, got %v", results)
	}
}

func TestAddUpsertsSameSlot(t *testing.T) {
	e := New(Options{
		Keys:         "title",
		Source:       []any{map[string]any{"_id": 1, "title": "Original"}},
		IdentifyItem: func(r any) any { return r.(map[string]any)["_id"] },
		Config:       config.DefaultConfig(),
	})
	before := e.idx.Len()
	e.Add(map[string]any{"_id": 1, "title": "Replaced"})
	if e.idx.Len() != before {
		t.Errorf("NbIndexed changed on upsert: %d -> %d", before, e.idx.Len())
	}
	if e.idx.At(0).Record.(map[string]any)["title"] != "Replaced" {
		t.Errorf("slot 0 not replaced: %+v", e.idx.At(0))
	}
}

func TestAddUpsertDropsStaleNgramPostings(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Store.Enabled = true
	e := New(Options{
		Keys:         "title",
		Source:       []any{map[string]any{"_id": 1, "title": "surgery"}},
		IdentifyItem: func(r any) any { return r.(map[string]any)["_id"] },
		Config:       cfg,
	})
	// "banana" shares no letter, hence no n-gram key, with "surgery".
	e.Add(map[string]any{"_id": 1, "title": "banana"})

	candidates := e.store.Candidates([]string{"surgery"}, 0, 10)
	for _, slot := range candidates {
		if slot == 0 {
			t.Errorf("slot 0 still a candidate for 'surgery' after upserting to 'banana': %v", candidates)
		}
	}
}

func TestAcronymSearch(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Matching.ScoreAcronym = true
	e := New(Options{
		Keys:   "title",
		Source: []any{map[string]any{"title": "John Ronald Reuel Tolkien"}},
		Config: cfg,
	})
	results := e.Search("jrrt")
	if len(results) == 0 {
		t.Error("expected acronym search to return the record")
	}
}
