package game

import "testing"

func TestAllocateColorAvoidsUsed(t *testing.T) {
	pool := []string{"#111111", "#222222", "#333333"}
	used := []string{"#111111", "#333333"}

	for i := 0; i < 50; i++ {
		if got := AllocateColor(pool, used); got != "#222222" {
			t.Fatalf("expected the only free color, got %s", got)
		}
	}
}

func TestAllocateColorFallbackWhenExhausted(t *testing.T) {
	pool := []string{"#111111", "#222222"}
	used := []string{"#111111", "#222222"}
	if got := AllocateColor(pool, used); got != FallbackColor {
		t.Fatalf("expected fallback color, got %s", got)
	}
}

func TestAllocateColorFullRoomUnique(t *testing.T) {
	var used []string
	seen := map[string]bool{}
	for i := 0; i < len(Palette); i++ {
		c := AllocateColor(Palette, used)
		used = append(used, c)
		if c == FallbackColor {
			continue // duplicated palette entries exhaust early
		}
		if seen[c] {
			t.Fatalf("color %s handed out twice", c)
		}
		seen[c] = true
	}
	// Beyond the palette everyone shares the fallback.
	if got := AllocateColor(Palette, used); got != FallbackColor {
		t.Fatalf("expected fallback beyond palette size, got %s", got)
	}
}
