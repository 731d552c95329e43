package game

import "math"

// GuessResult is what a correct guess is worth and what the guesser's
// countdown drops to afterwards.
type GuessResult struct {
	Score            int
	UpdatedCountdown int
}

// decayFor returns the countdown penalty applied after a guess, keyed
// by the configured turn length. Unknown durations fall back to the
// smallest penalty.
func decayFor(totalSec int) int {
	switch totalSec {
	case 90:
		return 5
	case 120:
		return 10
	case 150:
		return 15
	default:
		return 5
	}
}

// ScoreGuess converts remaining time at the moment of a correct guess
// into points. Guessers after the first are capped at half the turn
// value while more than half the time remains; below 17% remaining the
// countdown stops decaying so the final seconds cannot go negative.
func ScoreGuess(remainingSec, totalSec int, firstGuesser bool) GuessResult {
	if totalSec <= 0 {
		return GuessResult{}
	}
	if remainingSec < 0 {
		remainingSec = 0
	}
	if remainingSec > totalSec {
		remainingSec = totalSec
	}

	pct := float64(remainingSec) * 100 / float64(totalSec)
	decay := decayFor(totalSec)

	if pct > 50 {
		half := int(math.Ceil(float64(totalSec) / 2))
		if !firstGuesser {
			return GuessResult{Score: half, UpdatedCountdown: half}
		}
		if remainingSec <= half+decay {
			return GuessResult{Score: remainingSec, UpdatedCountdown: remainingSec - decay}
		}
		return GuessResult{Score: remainingSec, UpdatedCountdown: remainingSec}
	}

	if pct > 17 {
		return GuessResult{Score: remainingSec, UpdatedCountdown: remainingSec - decay}
	}

	return GuessResult{Score: remainingSec, UpdatedCountdown: remainingSec}
}
