package dialog

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectExplicitRemove(t *testing.T) {
	assert.True(t, DetectExplicitRemove("please remove the naan"))
	assert.True(t, DetectExplicitRemove("haal de naan maar weg"))
	assert.False(t, DetectExplicitRemove("I want a naan"))
	assert.False(t, DetectExplicitRemove("no more rice for me thanks"))
}

func TestDetectOrderSummary(t *testing.T) {
	assert.True(t, DetectOrderSummary("what's in my order?"))
	assert.True(t, DetectOrderSummary("wat heb ik tot nu toe"))
	assert.False(t, DetectOrderSummary("I want to order something"))
}

func TestParseFulfillment(t *testing.T) {
	mode, ok := ParseFulfillment("I'll pick up")
	assert.True(t, ok)
	assert.Equal(t, "pickup", mode)

	mode, ok = ParseFulfillment("bezorgen graag")
	assert.True(t, ok)
	assert.Equal(t, "delivery", mode)

	_, ok = ParseFulfillment("what are my options")
	assert.False(t, ok)
}

func TestParseSpice(t *testing.T) {
	cases := map[string]string{
		"mild please":        "mild",
		"medium is fine":     "medium",
		"heel pittig graag":  "very hot",
		"hot":                "hot",
		"niet pittig graag":  "mild",
		"gemiddeld":          "medium",
	}
	for in, want := range cases {
		got, ok := ParseSpice(in)
		assert.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}
	_, ok := ParseSpice("surprise me")
	assert.False(t, ok)
}

func TestParseQuantityChange(t *testing.T) {
	qty, ok := ParseQuantityChange("make that two")
	assert.True(t, ok)
	assert.Equal(t, 2, qty)

	qty, ok = ParseQuantityChange("doe maar drie")
	assert.True(t, ok)
	assert.Equal(t, 3, qty)

	qty, ok = ParseQuantityChange("no, I meant two")
	assert.True(t, ok)
	assert.Equal(t, 2, qty)

	qty, ok = ParseQuantityChange("nee, ik bedoelde twee")
	assert.True(t, ok)
	assert.Equal(t, 2, qty)

	_, ok = ParseQuantityChange("two naan")
	assert.False(t, ok)
}

func TestIsAffirmativeNegative(t *testing.T) {
	assert.True(t, IsAffirmative("yes please"))
	assert.True(t, IsAffirmative("ja graag"))
	assert.False(t, IsAffirmative("no thank you"))
	assert.False(t, IsAffirmative("i would like to think about it for a while"))

	assert.True(t, IsNegative("no thanks"))
	assert.True(t, IsNegative("nee liever niet"))
	assert.False(t, IsNegative("yes"))
}

func TestExtractCustomerName(t *testing.T) {
	name, ok := ExtractCustomerName("my name is jan de vries")
	assert.True(t, ok)
	assert.Equal(t, "Jan De", name)

	name, ok = ExtractCustomerName("op naam van Fatima")
	assert.True(t, ok)
	assert.Equal(t, "Fatima", name)

	name, ok = ExtractCustomerName("Pieter")
	assert.True(t, ok)
	assert.Equal(t, "Pieter", name)

	_, ok = ExtractCustomerName("uh hello yes okay")
	assert.False(t, ok)

	_, ok = ExtractCustomerName("i would like to order some food for tonight please")
	assert.False(t, ok)
}

func TestExtractNaanVariant(t *testing.T) {
	cases := map[string]string{
		"plain please":      "plain",
		"plane is fine":     "plain",
		"the playing one":   "plain",
		"garlic":            "garlic",
		"knoflook graag":    "garlic",
		"peshawari":         "peshawari",
		"do the cheese one": "cheese",
	}
	for in, want := range cases {
		got, ok := ExtractNaanVariant(in)
		assert.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}
	_, ok := ExtractNaanVariant("what do you have")
	assert.False(t, ok)
}

func TestDetectGenericNaanRequest(t *testing.T) {
	assert.True(t, DetectGenericNaanRequest("can I get a naan"))
	assert.True(t, DetectGenericNaanRequest("twee nan graag"))
	// "naam" is a common transcription of naan.
	assert.True(t, DetectGenericNaanRequest("een naam erbij"))
	assert.False(t, DetectGenericNaanRequest("garlic naan please"))
	assert.False(t, DetectGenericNaanRequest("a lassi please"))
}

func TestLooksLikePromptDump(t *testing.T) {
	assert.True(t, LooksLikePromptDump("Transcribe the spoken audio verbatim."))
	assert.False(t, LooksLikePromptDump("I want to transcribe my thoughts into an order"))
	assert.False(t, LooksLikePromptDump("one naan please"))
}

func TestNeedsSTTRetry(t *testing.T) {
	// Dutch session, clean English markers: retry.
	assert.True(t, NeedsSTTRetry("nl", "the order please"))
	// Dutch session, Dutch markers present: no retry.
	assert.False(t, NeedsSTTRetry("nl", "ik wil de naan"))
	// English session, Dutch-only markers: retry.
	assert.True(t, NeedsSTTRetry("en", "ik wil graag naan"))
	// Long transcripts never retry.
	assert.False(t, NeedsSTTRetry("nl", "the one with the rice and the naan and the chicken and the lamb please thanks"))
	assert.False(t, NeedsSTTRetry("tr", "the order please"))
}
