package game

import (
	"math/rand"
	"strings"
)

const maskRune = '*'

// preRevealThreshold: words with more maskable characters than this get
// one character revealed up front so they stay guessable.
const preRevealThreshold = 10

// Mask replaces every non-space character of word with an asterisk,
// preserving spaces and length. Long words get one random position
// pre-revealed.
func Mask(word string) string {
	runes := []rune(word)
	masked := make([]rune, len(runes))
	var maskable []int
	for i, r := range runes {
		if r == ' ' {
			masked[i] = ' '
			continue
		}
		masked[i] = maskRune
		maskable = append(maskable, i)
	}
	if len(maskable) > preRevealThreshold {
		i := maskable[rand.Intn(len(maskable))]
		masked[i] = runes[i]
	}
	return string(masked)
}

// WordStatus reports how much of a masked word is visible.
type WordStatus struct {
	Length   int // non-space characters
	Revealed int // visible, non-placeholder characters
}

func CheckWordStatus(masked string) WordStatus {
	var st WordStatus
	for _, r := range masked {
		if r == ' ' {
			continue
		}
		st.Length++
		if r != maskRune {
			st.Revealed++
		}
	}
	return st
}

// RevealOne uncovers one random still-masked character of masked,
// taking the true character from original. It fails when nothing is
// left to reveal.
func RevealOne(masked, original string) (string, error) {
	maskedRunes := []rune(masked)
	originalRunes := []rune(original)
	if len(maskedRunes) != len(originalRunes) {
		return masked, ErrInvariant
	}
	var hidden []int
	for i, r := range maskedRunes {
		if r == maskRune {
			hidden = append(hidden, i)
		}
	}
	if len(hidden) == 0 {
		return masked, ErrNothingToReveal
	}
	i := hidden[rand.Intn(len(hidden))]
	maskedRunes[i] = originalRunes[i]
	return string(maskedRunes), nil
}

// shouldRevealClue decides whether the clue checkpoint at the given
// percent of remaining time earns another character. Longer words get
// clues earlier and more often; short words are never spoiled.
func shouldRevealClue(st WordStatus, percentRemaining int) bool {
	switch {
	case percentRemaining >= 75:
		return st.Length > 8 && st.Revealed < 2
	case percentRemaining >= 50:
		return st.Length > 5 && st.Revealed < 3
	case percentRemaining >= 25:
		return st.Length > 3 && st.Revealed < st.Length/2
	default:
		return false
	}
}

// shufflePool returns a shuffled copy of words.
func shufflePool(words []string) []string {
	pool := make([]string, len(words))
	copy(pool, words)
	rand.Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })
	return pool
}

// drawerChoices takes the next offer of words from the pool, wrapping
// when the pool runs out before the match does.
func drawerChoices(pool []string, consumed int) []string {
	if len(pool) == 0 {
		return nil
	}
	choices := make([]string, 0, wordsPerTurn)
	for i := 0; i < wordsPerTurn; i++ {
		choices = append(choices, pool[(consumed+i)%len(pool)])
	}
	return choices
}

func containsWord(words []string, w string) bool {
	for _, candidate := range words {
		if strings.EqualFold(candidate, w) {
			return true
		}
	}
	return false
}
