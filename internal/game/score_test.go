package game

import "testing"

func TestScoreGuess(t *testing.T) {
	cases := []struct {
		name         string
		remaining    int
		total        int
		firstGuesser bool
		want         GuessResult
	}{
		{
			name:      "first guesser above half keeps countdown when far from half",
			remaining: 100, total: 120, firstGuesser: true,
			want: GuessResult{Score: 100, UpdatedCountdown: 100},
		},
		{
			name:      "first guesser above half near half pays decay",
			remaining: 65, total: 120, firstGuesser: true,
			want: GuessResult{Score: 65, UpdatedCountdown: 55},
		},
		{
			name:      "later guesser above half capped at half time value",
			remaining: 100, total: 120, firstGuesser: false,
			want: GuessResult{Score: 60, UpdatedCountdown: 60},
		},
		{
			name:      "mid band scores remaining and decays countdown",
			remaining: 50, total: 120, firstGuesser: false,
			want: GuessResult{Score: 50, UpdatedCountdown: 40},
		},
		{
			name:      "mid band with 90s turn decays by 5",
			remaining: 40, total: 90, firstGuesser: true,
			want: GuessResult{Score: 40, UpdatedCountdown: 35},
		},
		{
			name:      "mid band with 150s turn decays by 15",
			remaining: 70, total: 150, firstGuesser: true,
			want: GuessResult{Score: 70, UpdatedCountdown: 55},
		},
		{
			name:      "final seconds stop decaying",
			remaining: 15, total: 120, firstGuesser: false,
			want: GuessResult{Score: 15, UpdatedCountdown: 15},
		},
		{
			name:      "odd total rounds half up for later guessers",
			remaining: 80, total: 90, firstGuesser: false,
			want: GuessResult{Score: 45, UpdatedCountdown: 45},
		},
		{
			name:      "reported time above total is clamped",
			remaining: 500, total: 120, firstGuesser: true,
			want: GuessResult{Score: 120, UpdatedCountdown: 120},
		},
		{
			name:      "negative reported time is clamped to zero",
			remaining: -3, total: 120, firstGuesser: true,
			want: GuessResult{Score: 0, UpdatedCountdown: 0},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ScoreGuess(tc.remaining, tc.total, tc.firstGuesser)
			if got != tc.want {
				t.Fatalf("ScoreGuess(%d, %d, %v) = %+v, want %+v",
					tc.remaining, tc.total, tc.firstGuesser, got, tc.want)
			}
		})
	}
}

func TestDecayFor(t *testing.T) {
	cases := []struct {
		total int
		want  int
	}{
		{90, 5},
		{120, 10},
		{150, 15},
		{60, 5},
		{180, 5},
	}
	for _, tc := range cases {
		if got := decayFor(tc.total); got != tc.want {
			t.Fatalf("decayFor(%d) = %d, want %d", tc.total, got, tc.want)
		}
	}
}
