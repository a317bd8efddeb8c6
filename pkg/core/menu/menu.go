package menu

import (
	"sort"
	"strings"
	"time"
)

const (
	maxAliasesPerItem = 30
	minAliasLen       = 3
)

// genericNaanAliases are spoken forms that mean "a naan" without naming a
// variant. They must resolve to the plain item when one exists, never to a
// flavored variant.
var genericNaanAliases = map[string]bool{
	"naan": true,
	"nan":  true,
	"naam": true,
}

var naanVariantKeywords = []string{"garlic", "knoflook", "butter", "boter", "cheese", "kaas", "keema", "peshawari"}

// Item is a single orderable menu entry.
type Item struct {
	ID         string
	Name       string
	NameNL     string
	Category   string
	PriceCents int
	Aliases    []string
}

// Choice pairs a display name with its item ID, used for option prompts.
type Choice struct {
	Name   string
	ItemID string
}

// Snapshot is an immutable view of one tenant's menu in one language.
// Alias keys are pre-normalized so lookups are exact string matches.
type Snapshot struct {
	TenantRef string
	Lang      string
	Items     map[string]Item
	Choices   []Choice
	LoadedAt  time.Time

	aliasMap map[string]string
}

// BuildSnapshot constructs the lookup structures for a set of items.
func BuildSnapshot(tenantRef, lang string, items []Item) *Snapshot {
	s := &Snapshot{
		TenantRef: tenantRef,
		Lang:      lang,
		Items:     make(map[string]Item, len(items)),
		aliasMap:  make(map[string]string),
		LoadedAt:  time.Now(),
	}

	for _, it := range items {
		s.Items[it.ID] = it
		s.Choices = append(s.Choices, Choice{Name: s.DisplayName(it.ID), ItemID: it.ID})

		keys := []string{it.Name, it.NameNL}
		n := 0
		for _, a := range it.Aliases {
			if n >= maxAliasesPerItem {
				break
			}
			keys = append(keys, a)
			n++
		}
		for _, k := range keys {
			nk := Normalize(k)
			if len(nk) < minAliasLen {
				continue
			}
			if _, taken := s.aliasMap[nk]; !taken {
				s.aliasMap[nk] = it.ID
			}
		}
	}

	sort.Slice(s.Choices, func(i, j int) bool { return s.Choices[i].Name < s.Choices[j].Name })

	// Generic naan words always point at the plain item when one exists.
	if plain, ok := s.plainNaanID(); ok {
		for g := range genericNaanAliases {
			s.aliasMap[g] = plain
		}
	}
	return s
}

func (s *Snapshot) plainNaanID() (string, bool) {
	for id, it := range s.Items {
		name := Normalize(it.Name)
		if !strings.Contains(name, "naan") && !strings.Contains(name, "nan") {
			continue
		}
		flavored := false
		for _, kw := range naanVariantKeywords {
			if strings.Contains(name, kw) {
				flavored = true
				break
			}
		}
		if !flavored {
			return id, true
		}
	}
	return "", false
}

// IsGenericNaanAlias reports whether an alias means "a naan" without naming
// a variant.
func IsGenericNaanAlias(alias string) bool {
	return genericNaanAliases[alias]
}

// DisplayName returns the item name for the snapshot language.
func (s *Snapshot) DisplayName(itemID string) string {
	it, ok := s.Items[itemID]
	if !ok {
		return itemID
	}
	if s.Lang == "nl" && it.NameNL != "" {
		return it.NameNL
	}
	return it.Name
}

// Lookup resolves one pre-normalized alias to an item ID.
func (s *Snapshot) Lookup(normalizedAlias string) (string, bool) {
	id, ok := s.aliasMap[normalizedAlias]
	return id, ok
}

// AliasMap returns a copy of the alias table.
func (s *Snapshot) AliasMap() map[string]string {
	out := make(map[string]string, len(s.aliasMap))
	for k, v := range s.aliasMap {
		out[k] = v
	}
	return out
}

// NaanVariants returns choices whose names contain a naan token, plain first.
func (s *Snapshot) NaanVariants() []Choice {
	var out []Choice
	for _, c := range s.Choices {
		n := Normalize(c.Name)
		if strings.Contains(n, "naan") || strings.Contains(n, "nan") {
			out = append(out, c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return isPlainNaanName(out[i].Name) && !isPlainNaanName(out[j].Name)
	})
	return out
}

func isPlainNaanName(name string) bool {
	n := Normalize(name)
	for _, kw := range naanVariantKeywords {
		if strings.Contains(n, kw) {
			return false
		}
	}
	return true
}

// ByCategory returns display names of items in the given category.
func (s *Snapshot) ByCategory(category string) []string {
	var out []string
	for _, c := range s.Choices {
		if it, ok := s.Items[c.ItemID]; ok && strings.EqualFold(it.Category, category) {
			out = append(out, c.Name)
		}
	}
	return out
}
