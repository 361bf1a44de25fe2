package entity

import (
	"strings"

	"github.com/coregx/ahocorasick"
	trie "github.com/derekparker/trie/v3"
)

// uninterestingKeys are exact tag keys that never make an entity
// "interesting" on their own (spec.md §4.1 hasInterestingTags, §Glossary
// Interesting tag).
var uninterestingKeys = map[string]bool{
	"source": true, "source_ref": true, "created_by": true,
	"odbl": true, "odbl:note": true, "attribution": true,
	"import": true, "import_uuid": true, "converted_by": true,
}

// lifecyclePrefixes are namespace prefixes (spec.md §Glossary: "not
// merely a lifecycle prefix") stored in a trie keyed by the bare
// prefix (without the trailing colon), matched against the text before
// a tag key's first colon.
var lifecyclePrefixes = newPrefixTrie([]string{
	"disused", "abandoned", "removed", "razed", "demolished",
	"was", "construction", "proposed", "planned", "dismantled",
	"damaged", "destroyed", "ruins", "historic",
})

// prefixTrie wraps derekparker/trie/v3 as a namespace-prefix set: each
// registered prefix is stored as an exact key, and hasPrefixOf splits
// the query on ':' to test the first segment for membership. A plain
// map would do the same exact-match job; the trie is used here because
// this set grows with editor-configurable lifecycle namespaces and a
// trie supports autocompletion of the configured list in editor UIs
// without a second index.
type prefixTrie struct {
	t *trie.Trie
}

func newPrefixTrie(prefixes []string) *prefixTrie {
	t := trie.New()
	for _, p := range prefixes {
		t.Add(p, true)
	}
	return &prefixTrie{t: t}
}

func (p *prefixTrie) hasPrefixOf(key string) bool {
	if idx := strings.IndexByte(key, ':'); idx >= 0 {
		if _, ok := p.t.Find(key[:idx]); ok {
			return true
		}
	}
	_, ok := p.t.Find(key)
	return ok
}

// fieldSep delimits "key=value" fields when a tag set is flattened into
// one haystack for a single Aho-Corasick scan. OSM keys/values may not
// contain the unit-separator control character, so this is safe.
const fieldSep = '\x1f'

// sidedValueAutomaton matches (key=value) tag signatures that make a
// way or relation "sided" per spec.md §Glossary (coastline, cliff,
// retaining_wall, kerb, barrier-with-side).
var sidedValueAutomaton = mustBuildAutomaton([]string{
	"natural=coastline", "natural=cliff",
	"barrier=retaining_wall", "barrier=kerb", "barrier=city_wall",
	"man_made=embankment", "man_made=breakwater", "man_made=groyne",
})

// roadClassAutomaton matches the `highway=*` values that make a Way a "road" for
// intersection/turn analysis (spec.md §4.4).
var roadClassAutomaton = mustBuildAutomaton([]string{
	"highway=motorway", "highway=motorway_link",
	"highway=trunk", "highway=trunk_link",
	"highway=primary", "highway=primary_link",
	"highway=secondary", "highway=secondary_link",
	"highway=tertiary", "highway=tertiary_link",
	"highway=unclassified", "highway=residential",
	"highway=living_street", "highway=service",
	"highway=track", "highway=road",
})

func mustBuildAutomaton(patterns []string) *ahocorasick.Automaton {
	a, err := ahocorasick.NewBuilder().
		AddStrings(patterns).
		SetMatchKind(ahocorasick.LeftmostLongest).
		SetPrefilter(true).
		Build()
	if err != nil {
		// The pattern list above is a fixed, compile-time constant;
		// a build failure here means the automaton library itself is
		// broken, not a data problem.
		panic("entity: failed to build tag automaton: " + err.Error())
	}
	return a
}

// scanTagSignatures flattens tags into one `k=v\x1fk=v\x1f...` haystack
// and reports whether any pattern in automaton matches a *complete*
// field (not a partial substring straddling the separator).
func scanTagSignatures(tags Tags, automaton *ahocorasick.Automaton) bool {
	if len(tags) == 0 {
		return false
	}
	var b strings.Builder
	bounds := make([]int, 0, len(tags)+1)
	bounds = append(bounds, 0)
	for k, v := range tags {
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(v)
		b.WriteByte(fieldSep)
		bounds = append(bounds, b.Len())
	}
	haystack := []byte(b.String())

	matches := automaton.FindAllOverlapping(haystack)
	for _, m := range matches {
		if isFieldAligned(haystack, m.Start, m.End, bounds) {
			return true
		}
	}
	return false
}

// isFieldAligned reports whether [start,end) exactly spans one of the
// fieldSep-delimited fields recorded in bounds.
func isFieldAligned(haystack []byte, start, end int, bounds []int) bool {
	for i := 0; i < len(bounds)-1; i++ {
		fieldStart := bounds[i]
		fieldEnd := bounds[i+1] - 1 // exclude the trailing separator
		if start == fieldStart && end == fieldEnd {
			return true
		}
	}
	return false
}

// IsSided reports whether tags describe a way/relation with an
// inherent left/right orientation.
func IsSided(tags Tags) bool {
	return scanTagSignatures(tags, sidedValueAutomaton)
}

// IsRoadClass reports whether tags carry a `highway=*` value considered
// a road for intersection analysis.
func IsRoadClass(tags Tags) bool {
	return scanTagSignatures(tags, roadClassAutomaton)
}
