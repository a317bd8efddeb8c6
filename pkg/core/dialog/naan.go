package dialog

import (
	"strings"

	"github.com/ordervox/ordervox/pkg/core/menu"
)

// plainLikeWords cover both the real word and frequent transcription
// corruptions of "plain".
var plainLikeWords = map[string]bool{
	"plain": true, "plane": true, "playing": true, "plean": true, "plein": true,
	"normal": true, "normale": true, "gewoon": true, "gewone": true, "regular": true,
}

var naanVariantWords = map[string][]string{
	"garlic":    {"garlic", "knoflook"},
	"butter":    {"butter", "boter"},
	"cheese":    {"cheese", "kaas"},
	"keema":     {"keema", "kima"},
	"peshawari": {"peshawari", "peshwari"},
}

var genericNaanWords = map[string]bool{"naan": true, "nan": true, "naam": true}

// ExtractNaanVariant maps an utterance to a variant keyword ("plain",
// "garlic", ...) when one is present.
func ExtractNaanVariant(text string) (string, bool) {
	toks := menu.Tokens(text)
	for _, t := range toks {
		if plainLikeWords[t] {
			return "plain", true
		}
	}
	n := menu.Normalize(text)
	for variant, words := range naanVariantWords {
		for _, w := range words {
			if strings.Contains(n, w) {
				return variant, true
			}
		}
	}
	return "", false
}

// DetectGenericNaanRequest reports whether the user asked for naan without
// naming a variant, which opens the variant micro-flow.
func DetectGenericNaanRequest(text string) bool {
	toks := menu.Tokens(text)
	generic := false
	for _, t := range toks {
		if genericNaanWords[t] {
			generic = true
			break
		}
	}
	if !generic {
		return false
	}
	if _, named := ExtractNaanVariant(text); named {
		return false
	}
	return true
}

// naanVariantItem resolves a variant keyword against the menu.
func naanVariantItem(m *menu.Snapshot, variant string) (menu.Choice, bool) {
	for _, c := range m.NaanVariants() {
		n := menu.Normalize(c.Name)
		if variant == "plain" {
			if isPlainChoice(n) {
				return c, true
			}
			continue
		}
		for _, w := range naanVariantWords[variant] {
			if strings.Contains(n, w) {
				return c, true
			}
		}
	}
	return menu.Choice{}, false
}

func isPlainChoice(normName string) bool {
	for _, words := range naanVariantWords {
		for _, w := range words {
			if strings.Contains(normName, w) {
				return false
			}
		}
	}
	return true
}

// naanOptionsPrompt builds the variant question. Short utterances get two
// options, longer ones up to four.
func naanOptionsPrompt(m *menu.Snapshot, lang string, shortAsk bool) string {
	variants := m.NaanVariants()
	limit := 4
	if shortAsk {
		limit = 2
	}
	names := make([]string, 0, limit)
	for _, c := range variants {
		names = append(names, c.Name)
		if len(names) == limit {
			break
		}
	}
	opts := strings.Join(names, ", ")
	if lang == "nl" {
		return "Welke naan wilt u? Bijvoorbeeld " + opts + "?"
	}
	return "Which naan would you like? For example " + opts + "?"
}

// naanSpicyAnswer answers spice questions asked while the variant slot is
// open, without dropping the slot.
func naanSpicyAnswer(lang string) string {
	if lang == "nl" {
		return "Naans zijn meestal niet pittig, het is brood om pittige curry te balanceren. Keema naan kan wat kruidiger zijn, peshawari is juist wat zoeter."
	}
	return "Naans are usually not spicy, they are bread to balance spicy curries. Keema naan can be a bit more spiced, and peshawari is sweet."
}
