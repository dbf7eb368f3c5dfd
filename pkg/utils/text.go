package utils

import (
	"fmt"
	"sort"
	"strings"
)

// FormatGameList collapses a slot's game list into a display string,
// e.g. ["Clique", "Clique", "Noita"] -> "Clique x2, Noita".
func FormatGameList(games []string) string {
	counts := make(map[string]int)
	for _, game := range games {
		counts[game]++
	}

	names := make([]string, 0, len(counts))
	for game := range counts {
		names = append(names, game)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, game := range names {
		if counts[game] > 1 {
			parts = append(parts, fmt.Sprintf("%s x%d", game, counts[game]))
		} else {
			parts = append(parts, game)
		}
	}

	return strings.Join(parts, ", ")
}
