// Package field walks a host record along a declared dotted key path,
// flattening it to the per-leaf token lists the scoring pipeline consumes.
// Paths may contain a "*" segment, which branches over every element of an
// array or every value of a map/struct.
package field

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/bastiangx/corpusmatch/pkg/norm"
)

// Params controls the size discipline applied to leaves.
type Params struct {
	Sep          string
	MinLength    int
	MaxLength    int
	Acronym      bool
}

// sepPattern compiles a character-class regexp from the configured
// separator set; regexp is the only stdlib candidate here because the
// pattern is always a single bracketed character class, not a case any
// third-party engine in the pack (none offer one) meaningfully improves on.
func sepPattern(sep string) *regexp.Regexp {
	if sep == "" {
		sep = " \t\n\r"
	}
	return regexp.MustCompile("[" + norm.SepClassEscape(sep) + "]+")
}

// Extract walks rec along path (dot-separated, "*" branches over
// collections) and returns one token list per leaf visited, in traversal
// order. A path segment that does not exist on some branch contributes one
// empty (nil) token list from that branch, in walk; when the walk yields no
// leaf at all, Extract returns a single nil leaf.
func Extract(rec any, path string, p Params) [][]string {
	segs := splitPath(path)
	var out [][]string
	walk(rec, segs, p, &out)
	if len(out) == 0 {
		out = append(out, nil)
	}
	return out
}

// splitPath strips an optional leading "item." or "root." prefix (meaning
// "the record itself") and splits the remainder on ".".
func splitPath(path string) []string {
	for _, prefix := range []string{"item.", "root."} {
		if strings.HasPrefix(path, prefix) {
			path = strings.TrimPrefix(path, prefix)
			break
		}
	}
	if path == "" {
		return nil
	}
	return strings.Split(path, ".")
}

func walk(v any, segs []string, p Params, out *[][]string) {
	if len(segs) == 0 {
		*out = append(*out, leafTokens(v, p))
		return
	}
	seg, rest := segs[0], segs[1:]
	if seg == "*" {
		branchAll(v, rest, p, out)
		return
	}
	child, ok := lookup(v, seg)
	if !ok {
		*out = append(*out, nil)
		return
	}
	walk(child, rest, p, out)
}

func branchAll(v any, rest []string, p Params, out *[][]string) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		if rv.Len() == 0 {
			*out = append(*out, nil)
			return
		}
		for i := 0; i < rv.Len(); i++ {
			walk(rv.Index(i).Interface(), rest, p, out)
		}
	case reflect.Map:
		keys := rv.MapKeys()
		if len(keys) == 0 {
			*out = append(*out, nil)
			return
		}
		for _, k := range keys {
			walk(rv.MapIndex(k).Interface(), rest, p, out)
		}
	case reflect.Struct:
		if rv.NumField() == 0 {
			*out = append(*out, nil)
			return
		}
		for i := 0; i < rv.NumField(); i++ {
			if !rv.Field(i).CanInterface() {
				continue
			}
			walk(rv.Field(i).Interface(), rest, p, out)
		}
	default:
		*out = append(*out, nil)
	}
}

// lookup resolves one non-wildcard path segment against a map, a struct
// (by field name, case-insensitive), or a struct tagged `field:"name"`.
func lookup(v any, key string) (any, bool) {
	if v == nil {
		return nil, false
	}
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Ptr || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return nil, false
		}
		rv = rv.Elem()
	}
	switch rv.Kind() {
	case reflect.Map:
		mv := rv.MapIndex(reflect.ValueOf(key))
		if !mv.IsValid() {
			return nil, false
		}
		return mv.Interface(), true
	case reflect.Struct:
		rt := rv.Type()
		for i := 0; i < rt.NumField(); i++ {
			f := rt.Field(i)
			tag := f.Tag.Get("field")
			if tag == key || strings.EqualFold(f.Name, key) {
				if !rv.Field(i).CanInterface() {
					return nil, false
				}
				return rv.Field(i).Interface(), true
			}
		}
		return nil, false
	default:
		return nil, false
	}
}

// leafTokens string-coerces, normalises, splits, and size-filters a leaf
// value, optionally appending an acronym synthetic token.
func leafTokens(v any, p Params) []string {
	if v == nil {
		return nil
	}
	raw := coerceString(v)
	normalised := norm.Fold(raw, p.Sep)
	if normalised == "" {
		return nil
	}
	sp := sepPattern(p.Sep)
	parts := sp.Split(normalised, -1)

	skipFilter := len([]rune(normalised)) <= 2*p.MinLength

	tokens := make([]string, 0, len(parts))
	for _, part := range parts {
		if part == "" {
			continue
		}
		r := []rune(part)
		if !skipFilter && len(r) < p.MinLength {
			continue
		}
		if p.MaxLength > 0 && len(r) > p.MaxLength {
			r = r[:p.MaxLength]
		}
		tokens = append(tokens, string(r))
	}

	if p.Acronym {
		if ac := acronym(normalised, sp); ac != "" {
			tokens = append(tokens, ac)
		}
	}
	return tokens
}

// acronym takes the first non-separator character following each separator
// boundary (and the string start), yielding a synthetic condensed token —
// e.g. "john ronald reuel tolkien" -> "jrrt".
func acronym(normalised string, sp *regexp.Regexp) string {
	var b strings.Builder
	atBoundary := true
	for _, r := range normalised {
		isSep := sp.MatchString(string(r))
		if isSep {
			atBoundary = true
			continue
		}
		if atBoundary {
			b.WriteRune(r)
			atBoundary = false
		}
	}
	return b.String()
}

func coerceString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case fmt.Stringer:
		return s.String()
	default:
		return fmt.Sprintf("%v", v)
	}
}
