package normalize

import (
	"sort"

	"github.com/badjoke-lab/cryptopaymap/internal/model"
)

// DerivePreferred orders accept keys by a fixed desirability score.
// Preferred is derived, never submitted: BTC over lightning first, then BTC
// on-chain, then ETH mainnet, then everything else alphabetically.
func DerivePreferred(accepts []model.AcceptEntry) []string {
	keys := make([]string, 0, len(accepts))
	seen := make(map[string]bool, len(accepts))
	for _, a := range accepts {
		key := a.Key()
		if !seen[key] {
			seen[key] = true
			keys = append(keys, key)
		}
	}
	sort.SliceStable(keys, func(i, j int) bool {
		si, sj := desirability(keys[i]), desirability(keys[j])
		if si != sj {
			return si < sj
		}
		return keys[i] < keys[j]
	})
	return keys
}

func desirability(key string) int {
	switch key {
	case "BTC@lightning":
		return 0
	case "BTC@bitcoin":
		return 1
	case "ETH@" + string(model.ChainEthereum):
		return 2
	default:
		return 3
	}
}
