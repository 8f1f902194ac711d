package model

import "time"

// ChainID is a strict chain identifier: a member of the closed set of
// supported payment networks. EVM-compatible chains are parameterized as
// "evm:<chain-id>" (ethereum mainnet is "evm:1", polygon is "evm:137").
type ChainID string

const (
	ChainBitcoin   ChainID = "bitcoin"
	ChainLightning ChainID = "lightning"
	ChainTron      ChainID = "tron"
	ChainSolana    ChainID = "solana"
	ChainTon       ChainID = "ton"
	ChainEthereum  ChainID = "evm:1"
	ChainPolygon   ChainID = "evm:137"
	ChainBSC       ChainID = "evm:56"
	ChainArbitrum  ChainID = "evm:42161"
	ChainOptimism  ChainID = "evm:10"
	ChainBase      ChainID = "evm:8453"
)

// Method is how a payment settles on its chain.
type Method string

const (
	MethodOnchain   Method = "onchain"
	MethodLightning Method = "lightning"
)

// MethodFor derives the settlement method from the chain.
func MethodFor(chain ChainID) Method {
	if chain == ChainLightning {
		return MethodLightning
	}
	return MethodOnchain
}

// AcceptEntry is one payment-acceptance fact: this place takes this asset
// on this chain. Uniqueness key is (asset, chain, processor-or-"other").
type AcceptEntry struct {
	Asset        string     `json:"asset"`               // Uppercased ticker, e.g. "BTC"
	Chain        ChainID    `json:"chain"`               // Strict chain identifier
	Method       Method     `json:"method"`              // Derived from chain unless explicit
	Processor    string     `json:"processor,omitempty"` // Payment processor, if declared
	Evidence     []string   `json:"evidence,omitempty"`  // Supporting URLs
	LastVerified *time.Time `json:"last_verified,omitempty"`
	LastChecked  *time.Time `json:"last_checked,omitempty"`
}

// Key returns the "ASSET@chain" form used by payment.preferred.
func (e AcceptEntry) Key() string {
	return e.Asset + "@" + string(e.Chain)
}

// DedupKey returns the full uniqueness key including the processor slot.
func (e AcceptEntry) DedupKey() string {
	proc := e.Processor
	if proc == "" {
		proc = "other"
	}
	return e.Asset + "@" + string(e.Chain) + "@" + proc
}

// PendingAsset is a declaration the normalizer could not map into the strict
// chain set. Quarantined, never silently discarded.
type PendingAsset struct {
	AssetRaw    string    `json:"asset_raw"`
	ChainRaw    string    `json:"chain_raw"`
	SubmittedBy string    `json:"submitted_by,omitempty"`
	SubmittedAt time.Time `json:"submitted_at"`
	Notes       string    `json:"notes,omitempty"`
}
