package game

import "math/rand"

const FallbackColor = "#7d7d7d"

// Palette holds one visually distinct chat color per seat.
var Palette = []string{
	"#4C6E91", "#AA4647", "#57A773", "#C9A567", "#5E7D8C",
	"#4B77A1", "#57A76B", "#C2A367", "#8465A1", "#5B96B1",
	"#B2625D", "#58A778", "#868F8F", "#9E6AB5", "#465466",
	"#8165A9", "#AE6CB0", "#476891", "#B4782F", "#5E7D8C",
}

// AllocateColor picks a random color from pool that is not already in
// use. Selection runs over pool minus used, so it terminates by
// construction; once the pool is exhausted everyone else gets the
// fallback grey.
func AllocateColor(pool []string, used []string) string {
	taken := make(map[string]bool, len(used))
	for _, c := range used {
		taken[c] = true
	}
	var free []string
	for _, c := range pool {
		if !taken[c] {
			free = append(free, c)
		}
	}
	if len(free) == 0 || len(used) >= len(pool) {
		return FallbackColor
	}
	return free[rand.Intn(len(free))]
}

func usedColors(members []Member) []string {
	colors := make([]string, 0, len(members))
	for _, m := range members {
		colors = append(colors, m.Color)
	}
	return colors
}
