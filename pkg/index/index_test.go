package index

import "testing"

func extractStub(r any) [][][]string {
	s := r.(string)
	return [][][]string{{{s}}}
}

func TestAddAppendsWithoutID(t *testing.T) {
	ix := New(false)
	ix.Add(nil, IndexedRecord{Record: "a"})
	ix.Add(nil, IndexedRecord{Record: "b"})
	if ix.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", ix.Len())
	}
	if ix.At(0).Record != "a" || ix.At(1).Record != "b" {
		t.Errorf("entries out of order: %+v %+v", ix.At(0), ix.At(1))
	}
}

func TestAddUpsertsByID(t *testing.T) {
	ix := New(false)
	ix.Add(1, IndexedRecord{Record: "first"})
	ix.Add(2, IndexedRecord{Record: "second"})
	before := ix.Len()
	ix.Add(1, IndexedRecord{Record: "updated"})
	if ix.Len() != before {
		t.Errorf("NbIndexed changed on upsert: %d -> %d", before, ix.Len())
	}
	if ix.At(0).Record != "updated" {
		t.Errorf("slot 0 not updated: %+v", ix.At(0))
	}
}

func TestRebuildEager(t *testing.T) {
	ix := New(false)
	ix.Rebuild([]any{"x", "y", "z"}, nil, extractStub)
	if ix.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", ix.Len())
	}
}

func TestRebuildLazyDefersUntilEnsure(t *testing.T) {
	ix := New(true)
	ix.Rebuild([]any{"x", "y"}, nil, extractStub)
	if ix.Len() != 0 {
		t.Errorf("lazy Rebuild should not populate immediately, Len() = %d", ix.Len())
	}
	ix.Ensure()
	if ix.Len() != 2 {
		t.Errorf("Ensure() did not perform deferred rebuild, Len() = %d", ix.Len())
	}
}
