package game

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// foldAccents strips combining marks so "canción" and "cancion"
// compare equal. The word lists are Spanish, where players routinely
// type without accents.
var foldAccents = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

func normalizeGuess(s string) string {
	folded, _, err := transform.String(foldAccents, s)
	if err != nil {
		folded = s
	}
	return strings.ToLower(strings.TrimSpace(folded))
}

// MatchesWord reports whether a chat line is an exact guess of the
// secret word, ignoring case, surrounding space and accents.
func MatchesWord(guess, word string) bool {
	if word == "" {
		return false
	}
	return normalizeGuess(guess) == normalizeGuess(word)
}
