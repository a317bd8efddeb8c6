package dialog

import (
	"regexp"
	"strings"

	"github.com/ordervox/ordervox/pkg/core/menu"
)

var namePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bmy name is\s+(.+)$`),
	regexp.MustCompile(`(?i)\bik ben\s+(.+)$`),
	regexp.MustCompile(`(?i)\bmijn naam is\s+(.+)$`),
	regexp.MustCompile(`(?i)\bop naam van\s+(.+)$`),
	regexp.MustCompile(`(?i)\bit s for\s+(.+)$`),
}

// nameBadWords are tokens that never belong in a customer name. A candidate
// containing one is rejected so fillers and greetings are not stored.
var nameBadWords = map[string]bool{
	"hello": true, "hi": true, "hey": true, "yes": true, "no": true, "okay": true, "ok": true,
	"order": true, "menu": true, "please": true, "thanks": true, "delivery": true, "pickup": true,
	"hallo": true, "ja": true, "nee": true, "graag": true, "bestelling": true, "bezorgen": true,
	"uh": true, "uhm": true, "um": true, "eh": true,
}

// ExtractCustomerName pulls a plausible name out of an utterance. Pattern
// matches win; otherwise a bare short utterance is taken as the name itself.
// Names are capped at two words and title-cased.
func ExtractCustomerName(text string) (string, bool) {
	for _, re := range namePatterns {
		if m := re.FindStringSubmatch(text); m != nil {
			if name, ok := cleanName(m[1]); ok {
				return name, true
			}
		}
	}
	toks := menu.Tokens(text)
	if len(toks) >= 1 && len(toks) <= 3 {
		return cleanName(strings.Join(toks, " "))
	}
	return "", false
}

func cleanName(raw string) (string, bool) {
	toks := menu.Tokens(raw)
	if len(toks) == 0 {
		return "", false
	}
	for _, t := range toks {
		if nameBadWords[t] {
			return "", false
		}
	}
	if len(toks) > 2 {
		toks = toks[:2]
	}
	for i, t := range toks {
		toks[i] = strings.ToUpper(t[:1]) + t[1:]
	}
	return strings.Join(toks, " "), true
}
