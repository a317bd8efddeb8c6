package menu

import "strconv"

var quantityWords = map[string]int{
	// English
	"one": 1, "two": 2, "three": 3, "four": 4, "five": 5,
	"six": 6, "seven": 7, "eight": 8, "nine": 9, "ten": 10,
	// Dutch
	"een": 1, "twee": 2, "drie": 3, "vier": 4, "vijf": 5,
	"zes": 6, "zeven": 7, "acht": 8, "negen": 9, "tien": 10,
}

// ParseTrailingShorthand reads compact "x2" style multipliers that follow
// an item mention.
func ParseTrailingShorthand(tok string) (int, bool) {
	if len(tok) < 2 || tok[0] != 'x' {
		return 0, false
	}
	return ParseQuantityToken(tok[1:])
}

// ParseQuantityToken interprets a single normalized token as a quantity
// between 1 and 10. Digits win over number words.
func ParseQuantityToken(tok string) (int, bool) {
	if n, err := strconv.Atoi(tok); err == nil {
		if n >= 1 && n <= 10 {
			return n, true
		}
		return 0, false
	}
	if n, ok := quantityWords[tok]; ok {
		return n, true
	}
	return 0, false
}

// FindQuantity scans normalized tokens and returns the first quantity found.
func FindQuantity(tokens []string) (int, bool) {
	for _, tok := range tokens {
		if n, ok := ParseQuantityToken(tok); ok {
			return n, true
		}
	}
	return 0, false
}
