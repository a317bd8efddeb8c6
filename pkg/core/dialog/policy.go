package dialog

import (
	"fmt"
	"strings"

	"github.com/ordervox/ordervox/pkg/core/menu"
)

// followupCategories is the upsell order after a cart change: first missing
// category wins, each category is offered at most once per session.
var followupCategories = []string{"drinks", "bread", "rice", "dessert"}

// SystemGuard builds the system prompt for the agent fallback. The cart
// rendered here is the source of truth; the model must not contradict it.
func SystemGuard(state *State, m *menu.Snapshot) string {
	var b strings.Builder
	b.WriteString("You are a phone ordering assistant for a restaurant.\n")
	b.WriteString("Reply ONLY with a JSON object: {\"reply\": string, \"add\": [{\"name\": string, \"qty\": number}], \"remove\": [string]}.\n")
	b.WriteString("Rules:\n")
	b.WriteString("- CURRENT CART below is the source of truth. Never claim the cart is empty when it is not.\n")
	b.WriteString("- Never remove items unless the user explicitly asked for a removal.\n")
	b.WriteString("- Confirm changes briefly. Keep replies to one or two short sentences.\n")
	b.WriteString("- When you list menu options, always end with a question.\n")
	fmt.Fprintf(&b, "- Reply in language: %s.\n", state.Lang)
	if state.CustomerName != "" {
		fmt.Fprintf(&b, "- The customer's name is %s.\n", state.CustomerName)
	}

	b.WriteString("\nCURRENT CART:\n")
	lines := state.Order.Lines(m)
	if len(lines) == 0 {
		b.WriteString("(empty)\n")
	}
	for _, l := range lines {
		fmt.Fprintf(&b, "- %d x %s\n", l.Qty, l.Name)
	}

	if m != nil {
		b.WriteString("\nMENU:\n")
		for _, c := range m.Choices {
			fmt.Fprintf(&b, "- %s\n", c.Name)
		}
	}
	return b.String()
}

// FollowupOffer picks the next upsell after a cart change, at most once per
// category and never for something already in the cart.
func FollowupOffer(state *State, m *menu.Snapshot) (itemID, label string, ok bool) {
	if m == nil {
		return "", "", false
	}
	for _, cat := range followupCategories {
		if state.offeredCategories[cat] {
			continue
		}
		for _, c := range m.Choices {
			it, found := m.Items[c.ItemID]
			if !found || !strings.EqualFold(it.Category, cat) {
				continue
			}
			if state.Order.Qty(c.ItemID) > 0 {
				continue
			}
			state.offeredCategories[cat] = true
			return c.ItemID, c.Name, true
		}
	}
	return "", "", false
}

// offerPrompt phrases an upsell offer.
func offerPrompt(lang, label string) string {
	if lang == "nl" {
		return fmt.Sprintf("Wilt u er misschien een %s bij?", label)
	}
	return fmt.Sprintf("Would you like a %s with that?", label)
}

// StickyRecommendation answers "what do you recommend" from the remembered
// category pool, skipping items already in the cart.
func StickyRecommendation(state *State, m *menu.Snapshot) (string, bool) {
	if state.LastCategory == "" || len(state.LastCategoryItems) == 0 {
		return "", false
	}
	inCart := make(map[string]bool)
	for _, l := range state.Order.Lines(m) {
		inCart[strings.ToLower(l.Name)] = true
	}
	picks := make([]string, 0, 3)
	for _, name := range state.LastCategoryItems {
		if inCart[strings.ToLower(name)] {
			continue
		}
		picks = append(picks, name)
		if len(picks) == 3 {
			break
		}
	}
	if len(picks) == 0 {
		return "", false
	}
	joined := strings.Join(picks, ", ")
	if state.Lang == "nl" {
		return fmt.Sprintf("Als aanrader uit deze categorie: %s. Welke zal ik voor u toevoegen?", joined), true
	}
	return fmt.Sprintf("My top picks from this category: %s. Which one should I add?", joined), true
}

// IsRecommendationAsk reports whether the user asked for a suggestion.
func IsRecommendationAsk(text string) bool {
	n := menu.Normalize(text)
	for _, m := range []string{"recommend", "suggest", "what is good", "whats good", "wat is lekker", "aanrader", "wat raad je aan"} {
		if strings.Contains(n, m) {
			return true
		}
	}
	return false
}

var idlePromptsEN = []string{
	"Are you still there?",
	"Hello? Can I help you with anything else?",
}

var idlePromptsNL = []string{
	"Bent u er nog?",
	"Hallo? Kan ik nog iets voor u doen?",
}

// IdlePrompt returns the nth liveness reprompt, language aware.
func IdlePrompt(lang string, n int) string {
	prompts := idlePromptsEN
	if lang == "nl" {
		prompts = idlePromptsNL
	}
	if n < 1 {
		n = 1
	}
	return prompts[(n-1)%len(prompts)]
}

// Goodbye returns the hangup line.
func Goodbye(lang string) string {
	if lang == "nl" {
		return "Bedankt voor uw bestelling. Tot ziens!"
	}
	return "Thank you for calling. Goodbye!"
}

// LanguageSelectPrompt opens a session that has no preset language.
func LanguageSelectPrompt(tenantName string) string {
	if tenantName == "" {
		tenantName = "the restaurant"
	}
	return fmt.Sprintf("Welcome to %s. Would you like to continue in English or Nederlands?", tenantName)
}

// Greeting returns the opening line for a tenant.
func Greeting(lang, tenantName string) string {
	if tenantName == "" {
		tenantName = "the restaurant"
	}
	if lang == "nl" {
		return fmt.Sprintf("Welkom bij %s. Wat kan ik voor u bestellen?", tenantName)
	}
	return fmt.Sprintf("Welcome to %s. What can I get you today?", tenantName)
}
