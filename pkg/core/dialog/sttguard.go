package dialog

import (
	"strings"

	"github.com/ordervox/ordervox/pkg/core/menu"
)

// promptDumpMarkers are fragments of the transcription priming prompt. When
// a transcript echoes two or more of them the recognizer leaked its own
// instructions and the text must be dropped.
var promptDumpMarkers = []string{
	"transcribe", "verbatim", "restaurant assistant", "menu items include",
	"spoken audio", "do not translate", "phonetic",
}

// sttMarkersEN and sttMarkersNL are high-frequency function words used to
// spot a transcript that came back in the wrong language.
var sttMarkersEN = map[string]bool{
	"the": true, "and": true, "you": true, "have": true, "with": true,
	"would": true, "like": true, "please": true, "what": true, "this": true,
}

var sttMarkersNL = map[string]bool{
	"de": true, "het": true, "een": true, "ik": true, "je": true,
	"graag": true, "wil": true, "met": true, "wat": true, "niet": true,
}

// LooksLikePromptDump reports whether a transcript is the STT prompt echoed
// back instead of user speech.
func LooksLikePromptDump(text string) bool {
	n := strings.ToLower(text)
	hits := 0
	for _, m := range promptDumpMarkers {
		if strings.Contains(n, m) {
			hits++
			if hits >= 2 {
				return true
			}
		}
	}
	return false
}

// NeedsSTTRetry reports whether a short transcript contradicts the session
// language hint strongly enough to warrant one auto-detect retry. The
// recognizer soft-locks onto its language hint; a Dutch session producing
// pure English markers (or the reverse) is the symptom.
func NeedsSTTRetry(lang, transcript string) bool {
	toks := menu.Tokens(transcript)
	if len(toks) == 0 || len(toks) > 10 {
		return false
	}
	en, nl := 0, 0
	for _, t := range toks {
		if sttMarkersEN[t] {
			en++
		}
		if sttMarkersNL[t] {
			nl++
		}
	}
	switch lang {
	case "nl":
		return en >= 1 && nl == 0
	case "en":
		return nl >= 1 && en == 0
	}
	return false
}
