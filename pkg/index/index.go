// Package index holds the live collection of indexed records: an ordered
// slot list, the count of live entries, and an optional id->slot map
// enabling upsert.
package index

// IndexedRecord is one source record plus its extracted, per-declared-key
// field token lists (Fields[k] is an ordered sequence of leaves for the
// k-th declared key, one leaf per path node visited).
type IndexedRecord struct {
	ID     any
	Record any
	Fields [][][]string
}

// Index is the ordered collection of IndexedRecord plus live-entry count
// and id->slot map. Invariant: for every id in the map,
// index.entries[slots[id]].ID == id; slots in [0, NbIndexed) are live.
type Index struct {
	entries   []IndexedRecord
	slots     map[any]int
	NbIndexed int
	lazy      bool
	dirty     bool

	pendingSource   []any
	pendingIdentify func(any) any
	pendingExtract  func(any) [][][]string
}

// New returns an empty Index. Add upserts when given a non-nil id that
// already maps to a slot, and appends otherwise.
func New(lazy bool) *Index {
	return &Index{
		slots: make(map[any]int),
		lazy:  lazy,
	}
}

// Len returns the number of live entries.
func (ix *Index) Len() int { return ix.NbIndexed }

// At returns the IndexedRecord at slot i (i must be < Len()).
func (ix *Index) At(i int) *IndexedRecord { return &ix.entries[i] }

// Lookup returns the slot id currently maps to, and whether one exists —
// used by callers that need the replaced record before an upsert
// overwrites it in place (e.g. dropping its stale n-gram postings).
func (ix *Index) Lookup(id any) (int, bool) {
	slot, ok := ix.slots[id]
	return slot, ok
}

// Add appends rec at NbIndexed (no identify_item given), upserts in place
// when id already maps to a slot, or appends and maps a new id — spec.md
// §4.8's add/upsert discipline. Returns the slot the record occupies.
func (ix *Index) Add(id any, rec IndexedRecord) int {
	rec.ID = id
	if id == nil {
		return ix.append(rec)
	}
	if slot, ok := ix.slots[id]; ok {
		ix.entries[slot] = rec
		return slot
	}
	slot := ix.append(rec)
	ix.slots[id] = slot
	return slot
}

func (ix *Index) append(rec IndexedRecord) int {
	if ix.NbIndexed < len(ix.entries) {
		ix.entries[ix.NbIndexed] = rec
	} else {
		ix.entries = append(ix.entries, rec)
	}
	slot := ix.NbIndexed
	ix.NbIndexed++
	return slot
}

// Rebuild replaces the entire live set from source, computing each
// IndexedRecord via extract. If the index is lazy, Rebuild only marks the
// store dirty; the actual rebuild happens on the next call to Ensure.
func (ix *Index) Rebuild(source []any, identify func(any) any, extract func(any) [][][]string) {
	if ix.lazy {
		ix.pendingSource = source
		ix.pendingIdentify = identify
		ix.pendingExtract = extract
		ix.dirty = true
		return
	}
	ix.rebuildNow(source, identify, extract)
}

// Ensure performs a deferred lazy rebuild, a no-op if nothing is pending.
func (ix *Index) Ensure() {
	if !ix.dirty {
		return
	}
	ix.rebuildNow(ix.pendingSource, ix.pendingIdentify, ix.pendingExtract)
	ix.dirty = false
	ix.pendingSource = nil
	ix.pendingIdentify = nil
	ix.pendingExtract = nil
}

func (ix *Index) rebuildNow(source []any, identify func(any) any, extract func(any) [][][]string) {
	ix.entries = ix.entries[:0]
	ix.slots = make(map[any]int, len(source))
	ix.NbIndexed = 0
	for _, rec := range source {
		var id any
		if identify != nil {
			id = identify(rec)
		}
		ix.Add(id, IndexedRecord{Record: rec, Fields: extract(rec)})
	}
}
