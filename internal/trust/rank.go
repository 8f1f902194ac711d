// Package trust is the single trust model: a total order over verification
// tiers used wherever a "which source wins" decision is needed.
package trust

import "github.com/badjoke-lab/cryptopaymap/internal/model"

// Rank maps a verification status onto the total order
// unverified(0) < directory(1) < community(2) < owner(3).
// Unknown values rank as unverified.
func Rank(status model.VerificationStatus) int {
	switch status {
	case model.StatusOwner:
		return 3
	case model.StatusCommunity:
		return 2
	case model.StatusDirectory:
		return 1
	default:
		return 0
	}
}

// Upgrade returns the higher of the two statuses. A record's tier may only
// move up through merges; moving down is an explicit moderation override.
func Upgrade(current, incoming model.VerificationStatus) model.VerificationStatus {
	if Rank(incoming) > Rank(current) {
		return incoming
	}
	if current == "" {
		return model.StatusUnverified
	}
	return current
}

// Outranks reports whether a outranks b strictly.
func Outranks(a, b model.VerificationStatus) bool {
	return Rank(a) > Rank(b)
}
