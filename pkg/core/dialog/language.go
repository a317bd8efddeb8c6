package dialog

import (
	"strings"

	"github.com/ordervox/ordervox/pkg/core/menu"
)

// Language hysteresis: the reply language only switches after the same
// candidate language dominates several consecutive turns. Explicit picks
// ("english please") bypass the streak entirely.

// LanguageTuning holds the hysteresis thresholds. Deployments tune these
// per tenant; the mechanism itself never changes.
type LanguageTuning struct {
	// MinScoreShort and MinScoreLong are the evidence floors for short and
	// long utterances.
	MinScoreShort float64
	MinScoreLong  float64

	// Dominance is how far the best language must lead the runner-up.
	// DominanceUltra shortens the streak requirement when exceeded.
	Dominance      float64
	DominanceUltra float64

	// StreakNeed is the consecutive-turn requirement; StreakNeedShort
	// applies to short or ultra-dominant utterances.
	StreakNeed      int
	StreakNeedShort int

	// ShortTokenCount is the token count at or below which an utterance
	// counts as short.
	ShortTokenCount int
}

// DefaultLanguageTuning returns the telephone-audio thresholds.
func DefaultLanguageTuning() LanguageTuning {
	return LanguageTuning{
		MinScoreShort:   8.0,
		MinScoreLong:    6.0,
		Dominance:       2.0,
		DominanceUltra:  3.5,
		StreakNeed:      3,
		StreakNeedShort: 2,
		ShortTokenCount: 4,
	}
}

var langTokens = map[string]map[string]float64{
	"en": {
		"the": 1, "and": 1, "please": 1, "would": 1, "like": 1, "want": 1, "have": 1,
		"can": 1, "could": 1, "what": 1, "with": 1, "order": 1, "thanks": 1, "thank": 1,
		"you": 1, "get": 1, "give": 1, "one": 1, "also": 1,
	},
	"nl": {
		"de": 1, "het": 1, "een": 1, "en": 1, "graag": 1, "wil": 1, "willen": 1, "ik": 1,
		"kan": 1, "mag": 1, "wat": 1, "met": 1, "bestellen": 1, "alstublieft": 1, "dank": 1,
		"je": 1, "ook": 1, "nog": 1, "daar": 1, "lekker": 1,
	},
	"tr": {
		"bir": 1, "ve": 1, "lutfen": 1, "istiyorum": 1, "almak": 1, "tesekkur": 1,
		"merhaba": 1, "evet": 1, "hayir": 1, "tavuk": 1, "kuzu": 1, "icin": 1, "var": 1,
	},
}

var langPhrases = map[string][]struct {
	phrase string
	bonus  float64
}{
	"en": {
		{"i would like", 4}, {"can i get", 4}, {"thank you", 2}, {"how much", 2},
	},
	"nl": {
		{"ik wil graag", 4}, {"mag ik", 4}, {"dank je wel", 2}, {"hoeveel kost", 2},
	},
	"tr": {
		{"almak istiyorum", 4}, {"tesekkur ederim", 2},
	},
}

var explicitLangPicks = map[string]string{
	"english": "en", "engels": "en", "in english": "en",
	"dutch": "nl", "nederlands": "nl", "hollands": "nl", "in het nederlands": "nl",
	"turkish": "tr", "turks": "tr", "turkce": "tr",
}

// DetectExplicitLanguagePick returns a language code when the user directly
// asks for a language.
func DetectExplicitLanguagePick(text string) (string, bool) {
	n := menu.Normalize(text)
	toks := strings.Fields(n)
	if len(toks) > 6 {
		return "", false
	}
	if lang, ok := explicitLangPicks[n]; ok {
		return lang, true
	}
	for _, t := range toks {
		if lang, ok := explicitLangPicks[t]; ok {
			// A bare language word only counts as a pick in a short utterance.
			if len(toks) <= 3 || strings.Contains(n, "speak") || strings.Contains(n, "praat") {
				return lang, true
			}
		}
	}
	return "", false
}

// LanguageScores computes the per-language token evidence for an utterance.
func LanguageScores(text string) map[string]float64 {
	n := menu.Normalize(text)
	toks := strings.Fields(n)
	scores := make(map[string]float64, len(langTokens))
	for lang, set := range langTokens {
		var score float64
		for _, t := range toks {
			score += set[t]
		}
		for _, p := range langPhrases[lang] {
			if strings.Contains(n, p.phrase) {
				score += p.bonus
			}
		}
		scores[lang] = score
	}
	return scores
}

// MaybeUpdateLanguage applies the hysteresis to one utterance and flips
// state.Lang when the streak requirement is met. Suppressed while a slot is
// armed or outside the ordering phase. Returns the decided language and
// whether it changed.
func MaybeUpdateLanguage(state *State, tuning LanguageTuning, text string) (string, bool) {
	if state.Slot.Armed() || state.Phase != PhaseOrdering {
		return state.Lang, false
	}

	toks := menu.Tokens(text)
	short := len(toks) <= tuning.ShortTokenCount
	minScore := tuning.MinScoreLong
	if short {
		minScore = tuning.MinScoreShort
	}

	scores := LanguageScores(text)
	best, second := "", 0.0
	var bestScore float64
	for lang, sc := range scores {
		if sc > bestScore {
			second = bestScore
			bestScore = sc
			best = lang
		} else if sc > second {
			second = sc
		}
	}

	if best == "" || bestScore < minScore || best == state.Lang {
		state.LangCandidate = ""
		state.LangStreak = 0
		return state.Lang, false
	}

	dominance := bestScore // second == 0 means unbounded dominance
	if second > 0 {
		dominance = bestScore / second
	} else {
		dominance = tuning.DominanceUltra + 1
	}
	if dominance < tuning.Dominance {
		state.LangCandidate = ""
		state.LangStreak = 0
		return state.Lang, false
	}

	need := tuning.StreakNeed
	if short || dominance >= tuning.DominanceUltra {
		need = tuning.StreakNeedShort
	}

	if state.LangCandidate == best {
		state.LangStreak++
	} else {
		state.LangCandidate = best
		state.LangStreak = 1
	}

	if state.LangStreak >= need {
		state.Lang = best
		state.LangCandidate = ""
		state.LangStreak = 0
		return best, true
	}
	return state.Lang, false
}
