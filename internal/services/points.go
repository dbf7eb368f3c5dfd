package services

import "strings"

// pointsOverride lists games whose completion is worth something other than
// the standard single point.
var pointsOverride = map[string]int64{
	"Clique":           0,
	"Autopelago":       0,
	"ArchipIDLE":       0,
	"Archipelago":      0,
	"APBingo":          0,
	"Keymaster's Keep": 2,
	"Stardew Valley":   2,
}

func pointsForGame(game string) int64 {
	if points, ok := pointsOverride[game]; ok {
		return points
	}
	return 1
}

// CalcPoints computes the award for finishing a slot: one point for the slot
// itself plus a per-game value.
func CalcPoints(games []string) int64 {
	total := int64(1)
	for _, game := range games {
		total += pointsForGame(game)
	}
	return total
}

// SplitGames parses the stored comma separated game list of a slot.
func SplitGames(games string) []string {
	if games == "" {
		return nil
	}
	parts := strings.Split(games, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
