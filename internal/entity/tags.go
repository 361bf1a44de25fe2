package entity

import "strings"

// Tags is a mapping from tag key to tag value. Keys are unique; OSM
// does not define insertion order as meaningful (spec.md §3).
type Tags map[string]string

// Clone returns a shallow copy safe to mutate independently.
func (t Tags) Clone() Tags {
	if t == nil {
		return nil
	}
	out := make(Tags, len(t))
	for k, v := range t {
		out[k] = v
	}
	return out
}

// HasInteresting reports whether any tag key is outside the fixed
// uninteresting set and is not merely a lifecycle prefix (spec.md §4.1
// hasInterestingTags, §Glossary Interesting tag).
func (t Tags) HasInteresting() bool {
	for k := range t {
		if isInterestingKey(k) {
			return true
		}
	}
	return false
}

func isInterestingKey(key string) bool {
	if uninterestingKeys[key] {
		return false
	}
	if lifecyclePrefixes.hasPrefixOf(key) {
		return false
	}
	return true
}

// uninterestingMultiValueGlue is used by Merge when two values for the
// same key are "interesting but equal" in the sense of representing a
// multi-valued tag (e.g. two different cuisines) — joined with ';' per
// OSM's semicolon-separated-list convention.
const uninterestingMultiValueGlue = ";"

// Merge returns the union of t and other. On key conflict the value in
// t (the receiver, i.e. "existing") wins unless both values are
// non-empty and distinct, in which case they are semicolon-joined, per
// spec.md §4.1 mergeTags.
func (t Tags) Merge(other Tags) Tags {
	out := t.Clone()
	if out == nil {
		out = make(Tags, len(other))
	}
	for k, v := range other {
		existing, ok := out[k]
		switch {
		case !ok || existing == "":
			out[k] = v
		case existing == v || v == "":
			// already present / nothing new to add
		default:
			out[k] = joinTagValues(existing, v)
		}
	}
	return out
}

func joinTagValues(a, b string) string {
	existingParts := strings.Split(a, uninterestingMultiValueGlue)
	for _, p := range existingParts {
		if p == b {
			return a
		}
	}
	return a + uninterestingMultiValueGlue + b
}

// Equal reports whether two tag sets have identical key/value pairs.
func (t Tags) Equal(other Tags) bool {
	if len(t) != len(other) {
		return false
	}
	for k, v := range t {
		if ov, ok := other[k]; !ok || ov != v {
			return false
		}
	}
	return true
}

// ImpliesArea reports whether t carries one of the well-known
// "area-implying" keys (building, landuse, ...) independent of any
// explicit `area` tag — used to tell whether an explicit `area=yes` is
// redundant (spec.md §4.5 merge).
func (t Tags) ImpliesArea() bool {
	for k := range t {
		if areaImplyingKeys[k] {
			return true
		}
	}
	return false
}

// WithoutKeys returns a copy of t with the given keys and any
// empty-string-valued keys removed — the transformation discardTags
// applies (spec.md §4.5).
func (t Tags) WithoutKeys(discard map[string]bool) Tags {
	out := make(Tags, len(t))
	for k, v := range t {
		if discard[k] || v == "" {
			continue
		}
		out[k] = v
	}
	return out
}
