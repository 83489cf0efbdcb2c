package field

import (
	"reflect"
	"testing"
)

func defaultParams() Params {
	return Params{Sep: " \t\n\r_-./", MinLength: 2, MaxLength: 64}
}

func TestExtractSimpleLeaf(t *testing.T) {
	rec := map[string]any{"title": "Hello World"}
	got := Extract(rec, "title", defaultParams())
	want := [][]string{{"hello", "world"}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Extract = %v, want %v", got, want)
	}
}

func TestExtractMissingPath(t *testing.T) {
	rec := map[string]any{"title": "Hello"}
	got := Extract(rec, "domain", defaultParams())
	if len(got) != 1 || got[0] != nil {
		t.Errorf("Extract(missing) = %v, want [[]]", got)
	}
}

func TestExtractWildcardOverSlice(t *testing.T) {
	rec := map[string]any{
		"authors": []any{
			map[string]any{"name": "John Ronald"},
			map[string]any{"name": "Christopher"},
		},
	}
	got := Extract(rec, "authors.*.name", defaultParams())
	want := [][]string{{"john", "ronald"}, {"christopher"}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Extract(wildcard) = %v, want %v", got, want)
	}
}

func TestExtractShortFieldException(t *testing.T) {
	rec := map[string]any{"code": "a"}
	p := Params{Sep: " ", MinLength: 2}
	got := Extract(rec, "code", p)
	want := [][]string{{"a"}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Extract(short field) = %v, want %v", got, want)
	}
}

func TestExtractDropsBelowMinLength(t *testing.T) {
	rec := map[string]any{"title": "a big world of things"}
	p := Params{Sep: " ", MinLength: 3}
	got := Extract(rec, "title", p)
	want := [][]string{{"big", "world", "things"}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Extract = %v, want %v", got, want)
	}
}

func TestExtractAcronym(t *testing.T) {
	rec := map[string]any{"title": "John Ronald Reuel Tolkien"}
	p := Params{Sep: " ", MinLength: 1, Acronym: true}
	got := Extract(rec, "title", p)
	if len(got) != 1 {
		t.Fatalf("expected 1 leaf, got %d", len(got))
	}
	last := got[0][len(got[0])-1]
	if last != "jrrt" {
		t.Errorf("acronym token = %q, want jrrt", last)
	}
}

func TestExtractRootPrefix(t *testing.T) {
	rec := map[string]any{"title": "Hello"}
	got := Extract(rec, "root.title", defaultParams())
	want := [][]string{{"hello"}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Extract(root.) = %v, want %v", got, want)
	}
}

func TestExtractSelfPath(t *testing.T) {
	got := Extract("Hello World", "", defaultParams())
	want := [][]string{{"hello", "world"}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Extract(self) = %v, want %v", got, want)
	}
}
