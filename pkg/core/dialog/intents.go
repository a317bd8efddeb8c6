package dialog

import (
	"strings"

	"github.com/ordervox/ordervox/pkg/core/menu"
)

var affirmativeTokens = map[string]bool{
	"yes": true, "yeah": true, "yep": true, "sure": true, "please": true, "ok": true, "okay": true,
	"ja": true, "graag": true, "prima": true, "goed": true, "doe": true, "lekker": true,
	"evet": true, "tamam": true,
}

var negativeTokens = map[string]bool{
	"no": true, "nope": true, "nah": true, "not": true, "dont": true,
	"nee": true, "niet": true, "geen": true, "liever": true,
	"hayir": true, "yok": true,
}

var removeMarkersEN = []string{"remove", "take off", "take out", "cancel the", "delete", "without the", "scrap"}
var removeMarkersNL = []string{"verwijder", "haal", "weg", "annuleer", "zonder de", "schrap"}

var summaryMarkers = []string{
	"my order", "whats in my order", "what did i order", "order summary", "what do i have",
	"mijn bestelling", "wat heb ik", "wat zit er in", "samenvatting",
}

var categoryWords = map[string]string{
	"lamb": "lamb", "lam": "lamb",
	"chicken": "chicken", "kip": "chicken",
	"vegetarian": "vegetarian", "vegetarisch": "vegetarian", "veggie": "vegetarian",
	"drink": "drinks", "drinks": "drinks", "drankje": "drinks", "drankjes": "drinks",
	"dessert": "dessert", "desserts": "dessert", "toetje": "dessert",
}

// IsAffirmative reports whether the utterance is a short agreement.
func IsAffirmative(text string) bool {
	toks := menu.Tokens(text)
	if len(toks) == 0 || len(toks) > 4 {
		return false
	}
	hits := 0
	for _, t := range toks {
		if negativeTokens[t] {
			return false
		}
		if affirmativeTokens[t] {
			hits++
		}
	}
	return hits > 0
}

// IsNegative reports whether the utterance is a refusal.
func IsNegative(text string) bool {
	toks := menu.Tokens(text)
	if len(toks) == 0 || len(toks) > 5 {
		return false
	}
	for _, t := range toks {
		if negativeTokens[t] {
			return true
		}
	}
	return false
}

// DetectExplicitRemove reports whether the user explicitly asked to remove
// something. Removal is never inferred; one of these markers must be present.
func DetectExplicitRemove(text string) bool {
	n := " " + menu.Normalize(text) + " "
	for _, m := range removeMarkersEN {
		if strings.Contains(n, " "+m+" ") {
			return true
		}
	}
	for _, m := range removeMarkersNL {
		if strings.Contains(n, " "+m+" ") {
			return true
		}
	}
	return false
}

// DetectOrderSummary reports whether the user asked what is in the order.
func DetectOrderSummary(text string) bool {
	n := menu.Normalize(text)
	for _, m := range summaryMarkers {
		if strings.Contains(n, m) {
			return true
		}
	}
	return false
}

// DetectCategoryRequest returns a canonical category when the user asks what
// the menu has in it ("what lamb dishes do you have").
func DetectCategoryRequest(text string) (string, bool) {
	n := menu.Normalize(text)
	asking := strings.Contains(n, "what") || strings.Contains(n, "which") ||
		strings.Contains(n, "welke") || strings.Contains(n, "wat") ||
		strings.Contains(n, "do you have") || strings.Contains(n, "hebben jullie")
	if !asking {
		return "", false
	}
	for _, tok := range strings.Fields(n) {
		if cat, ok := categoryWords[tok]; ok {
			return cat, true
		}
	}
	return "", false
}

// ParseFulfillment extracts pickup or delivery from an answer.
func ParseFulfillment(text string) (string, bool) {
	n := menu.Normalize(text)
	switch {
	case strings.Contains(n, "pickup") || strings.Contains(n, "takeaway") ||
		strings.Contains(n, "afhalen") || strings.Contains(n, "ophalen") || strings.Contains(n, "collect"):
		return "pickup", true
	case strings.Contains(n, "delivery") || strings.Contains(n, "deliver") ||
		strings.Contains(n, "bezorgen") || strings.Contains(n, "bezorging") || strings.Contains(n, "thuis"):
		return "delivery", true
	}
	return "", false
}

// ParseSpice extracts a spice preference from an answer.
func ParseSpice(text string) (string, bool) {
	n := menu.Normalize(text)
	switch {
	case strings.Contains(n, "very hot") || strings.Contains(n, "heel pittig") || strings.Contains(n, "extra hot"):
		return "very hot", true
	case strings.Contains(n, "mild") || strings.Contains(n, "niet pittig") || strings.Contains(n, "zacht"):
		return "mild", true
	case strings.Contains(n, "medium") || strings.Contains(n, "gemiddeld") || strings.Contains(n, "normaal"):
		return "medium", true
	case strings.Contains(n, "hot") || strings.Contains(n, "spicy") || strings.Contains(n, "pittig") || strings.Contains(n, "heet"):
		return "hot", true
	}
	return "", false
}

// ParseQuantityChange recognizes "make that two" and "no, I meant two"
// style corrections and returns the new absolute quantity.
func ParseQuantityChange(text string) (int, bool) {
	n := menu.Normalize(text)
	markers := []string{"make that", "make it", "change that to", "i meant", "doe maar", "maak er", "doe er", "ik bedoel"}
	hit := false
	for _, m := range markers {
		if strings.Contains(n, m) {
			hit = true
			break
		}
	}
	if !hit {
		return 0, false
	}
	if qty, ok := menu.FindQuantity(strings.Fields(n)); ok {
		return qty, true
	}
	return 0, false
}
