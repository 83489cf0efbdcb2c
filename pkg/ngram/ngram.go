// Package ngram implements the optional candidate pre-filter: a store of
// short character-combination keys, each mapping to the set of record slots
// whose tokens produced that key, used to narrow the candidate set before
// the expensive per-record scoring pass.
package ngram

import (
	"sort"

	"github.com/RoaringBitmap/roaring"
	"github.com/tchap/go-patricia/v2/patricia"
)

// Store is the n-gram inverted index: key -> bitmap of record slots.
type Store struct {
	trie *patricia.Trie
}

// New returns an empty Store.
func New() *Store {
	return &Store{trie: patricia.NewTrie()}
}

// Keys yields the full key set spec.md §4.9 derives from one word: its
// first character, every ordered 2-combination of its first 4 letters, and
// every ordered 3-combination of its first 6 letters.
func Keys(word string) []string {
	r := []rune(word)
	if len(r) == 0 {
		return nil
	}
	var keys []string
	keys = append(keys, string(r[0]))

	// Every ordered (original left-to-right order preserved) 2-combination
	// of the first 4 letters: up to C(4,2)=6 pairs.
	n4 := min(len(r), 4)
	for i := 0; i < n4; i++ {
		for j := i + 1; j < n4; j++ {
			keys = append(keys, string([]rune{r[i], r[j]}))
		}
	}

	// Every ordered 3-combination of the first 6 letters: up to C(6,3)=20
	// triples.
	n6 := min(len(r), 6)
	for i := 0; i < n6; i++ {
		for j := i + 1; j < n6; j++ {
			for k := j + 1; k < n6; k++ {
				keys = append(keys, string([]rune{r[i], r[j], r[k]}))
			}
		}
	}
	return keys
}

// Index adds slot to the postings of every key generated from every word in
// words, de-duplicating per record so repeated words don't inflate a key's
// posting list with the same slot twice.
func (s *Store) Index(slot uint32, words []string) {
	seen := make(map[string]bool)
	for _, w := range words {
		for _, k := range Keys(w) {
			if seen[k] {
				continue
			}
			seen[k] = true
			s.add(k, slot)
		}
	}
}

func (s *Store) add(key string, slot uint32) {
	p := patricia.Prefix(key)
	if item := s.trie.Get(p); item != nil {
		item.(*roaring.Bitmap).Add(slot)
		return
	}
	bm := roaring.New()
	bm.Add(slot)
	s.trie.Insert(p, bm)
}

// Remove drops slot from every key's postings; used by the index store's
// upsert/rebuild discipline when a record is replaced.
func (s *Store) Remove(slot uint32, words []string) {
	seen := make(map[string]bool)
	for _, w := range words {
		for _, k := range Keys(w) {
			if seen[k] {
				continue
			}
			seen[k] = true
			if item := s.trie.Get(patricia.Prefix(k)); item != nil {
				item.(*roaring.Bitmap).Remove(slot)
			}
		}
	}
}

// Candidates emits the key set for every query word, counts slots by
// number of matching keys, and returns slots whose count is at least
// thresh*bestCount, capped at maxResults, sorted descending by count.
func (s *Store) Candidates(queryWords []string, thresh float64, maxResults int) []uint32 {
	counts := make(map[uint32]int)
	seen := make(map[string]bool)
	for _, w := range queryWords {
		for _, k := range Keys(w) {
			if seen[k] {
				continue
			}
			seen[k] = true
			item := s.trie.Get(patricia.Prefix(k))
			if item == nil {
				continue
			}
			bm := item.(*roaring.Bitmap)
			it := bm.Iterator()
			for it.HasNext() {
				counts[it.Next()]++
			}
		}
	}
	if len(counts) == 0 {
		return nil
	}

	type slotCount struct {
		slot  uint32
		count int
	}
	list := make([]slotCount, 0, len(counts))
	best := 0
	for slot, c := range counts {
		list = append(list, slotCount{slot, c})
		if c > best {
			best = c
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].count > list[j].count })

	floor := int(thresh * float64(best))
	out := make([]uint32, 0, len(list))
	for _, sc := range list {
		if sc.count < floor {
			break
		}
		out = append(out, sc.slot)
		if maxResults > 0 && len(out) >= maxResults {
			break
		}
	}
	return out
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
