package normalize

import (
	"strings"

	"github.com/badjoke-lab/cryptopaymap/internal/model"
)

// ExpandLegacy rewrites legacy boolean flags and the legacy coins array into
// free-text declaration lines, so old submissions run through the same
// pipeline as new ones.
func ExpandLegacy(sub model.Submission) []string {
	var lines []string
	if sub.BTC || sub.Onchain {
		lines = append(lines, "BTC (bitcoin)")
	}
	if sub.Lightning {
		lines = append(lines, "BTC (lightning)")
	}
	if sub.ETH {
		lines = append(lines, "ETH (ethereum)")
	}
	for _, coin := range sub.Coins {
		coin = strings.TrimSpace(coin)
		if coin != "" {
			lines = append(lines, coin)
		}
	}
	return lines
}
