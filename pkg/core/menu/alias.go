package menu

import (
	"sort"
	"strings"
)

// Span is one resolved alias occurrence inside an utterance.
type Span struct {
	ItemID string
	Alias  string
	Qty    int
	Start  int
	End    int
}

// ResolveSpans finds every alias occurrence in text, keeps the longest
// non-overlapping matches and attaches quantities. A quantity within two
// tokens before a span binds to that span; a quantity elsewhere in the text
// applies only when exactly one item matched.
func (s *Snapshot) ResolveSpans(text string) []Span {
	norm := Normalize(text)
	if norm == "" {
		return nil
	}
	padded := " " + norm + " "

	var candidates []Span
	for alias, itemID := range s.aliasMap {
		if len(alias) < minAliasLen {
			continue
		}
		needle := " " + alias + " "
		from := 0
		for {
			idx := strings.Index(padded[from:], needle)
			if idx < 0 {
				break
			}
			start := from + idx // offset into norm, padding cancels out
			candidates = append(candidates, Span{
				ItemID: itemID,
				Alias:  alias,
				Start:  start,
				End:    start + len(alias),
			})
			from = start + 1
		}
	}
	if len(candidates) == 0 {
		return nil
	}

	// Longest alias wins, ties broken by position.
	sort.Slice(candidates, func(i, j int) bool {
		if len(candidates[i].Alias) != len(candidates[j].Alias) {
			return len(candidates[i].Alias) > len(candidates[j].Alias)
		}
		return candidates[i].Start < candidates[j].Start
	})

	var picked []Span
	seen := make(map[string]bool)
	for _, c := range candidates {
		overlaps := false
		for _, p := range picked {
			if c.Start < p.End && p.Start < c.End {
				overlaps = true
				break
			}
		}
		if overlaps || seen[c.ItemID] {
			continue
		}
		seen[c.ItemID] = true
		picked = append(picked, c)
	}
	sort.Slice(picked, func(i, j int) bool { return picked[i].Start < picked[j].Start })

	attachQuantities(norm, picked)
	return picked
}

// attachQuantities fills Span.Qty from local windows: two tokens before the
// span, or a trailing "x2" shorthand right after it. Falls back to a single
// global quantity when there is exactly one span.
func attachQuantities(norm string, spans []Span) {
	type tok struct {
		text  string
		start int
	}
	var toks []tok
	pos := 0
	for _, f := range strings.Fields(norm) {
		idx := strings.Index(norm[pos:], f)
		start := pos + idx
		toks = append(toks, tok{text: f, start: start})
		pos = start + len(f)
	}

	localHits := 0
	for i := range spans {
		spans[i].Qty = 1
		// Two tokens immediately before the span.
		window := make([]string, 0, 2)
		for j := len(toks) - 1; j >= 0; j-- {
			if toks[j].start >= spans[i].Start {
				continue
			}
			window = append(window, toks[j].text)
			if len(window) == 2 {
				break
			}
		}
		if n, ok := FindQuantity(window); ok {
			spans[i].Qty = n
			localHits++
			continue
		}
		// First token after the span, shorthand only.
		for _, t := range toks {
			if t.start >= spans[i].End {
				if n, ok := ParseTrailingShorthand(t.text); ok {
					spans[i].Qty = n
					localHits++
				}
				break
			}
		}
	}

	if len(spans) == 1 && localHits == 0 {
		outside := make([]string, 0, len(toks))
		for _, t := range toks {
			if t.start >= spans[0].Start && t.start < spans[0].End {
				continue
			}
			outside = append(outside, t.text)
		}
		if n, ok := FindQuantity(outside); ok {
			spans[0].Qty = n
		}
	}
}
