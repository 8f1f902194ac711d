// Package normalize turns raw submissions into strict, deduplicated patches.
package normalize

import (
	"regexp"
	"strings"
	"time"

	"github.com/badjoke-lab/cryptopaymap/internal/chains"
	"github.com/badjoke-lab/cryptopaymap/internal/model"
)

// Reject reasons produced by payment normalization.
const (
	ReasonInvalidAsset         = "invalid-asset"
	ReasonLightningRequiresBTC = "lightning-requires-btc"
	ReasonBTCChainMismatch     = "btc-chain-mismatch"
)

var assetPattern = regexp.MustCompile(`^[A-Z0-9]{2,10}$`)

// nativeChains infers the chain when a declaration names only an asset that
// unambiguously lives on one network.
var nativeChains = map[string]model.ChainID{
	"BTC":   model.ChainBitcoin,
	"ETH":   model.ChainEthereum,
	"MATIC": model.ChainPolygon,
	"POL":   model.ChainPolygon,
	"BNB":   model.ChainBSC,
	"TRX":   model.ChainTron,
	"SOL":   model.ChainSolana,
	"TON":   model.ChainTon,
}

// chainFillerWords are dropped from chain text before resolution, so that
// "ETH on mainnet" and "ETH mainnet" parse the same.
var chainFillerWords = map[string]bool{
	"on": true, "via": true, "over": true, "the": true, "network": true,
}

// PaymentResult is the complete outcome of one normalization: every input
// unit lands in exactly one of the three lists.
type PaymentResult struct {
	Accepts []model.AcceptEntry
	Rejects []model.Reject
	Pending []model.PendingAsset
}

// PaymentNormalizer parses payment declarations into strict accept entries.
type PaymentNormalizer struct {
	registry *chains.Registry
}

// NewPaymentNormalizer creates a normalizer over the given chain registry.
func NewPaymentNormalizer(registry *chains.Registry) *PaymentNormalizer {
	return &PaymentNormalizer{registry: registry}
}

// unit is the single internal shape every input form reduces to. Free text,
// structured objects and legacy flags all become units before resolution, so
// there is exactly one normalization code path.
type unit struct {
	raw       string
	assetRaw  string
	chainRaw  string
	processor string
	evidence  []string
}

// Normalize runs a free-text block and structured accept objects through
// one resolution pass, so duplicates across the two forms still collapse.
func (n *PaymentNormalizer) Normalize(block string, accepts []model.LooseAccept, submittedBy string, at time.Time) PaymentResult {
	units := textUnits(block)
	units = append(units, structuredUnits(accepts)...)
	return n.resolve(units, submittedBy, at)
}

// NormalizeText normalizes a free-text block, one declaration per line.
// Empty lines and #-comments are skipped.
func (n *PaymentNormalizer) NormalizeText(block, submittedBy string, at time.Time) PaymentResult {
	return n.resolve(textUnits(block), submittedBy, at)
}

// NormalizeStructured normalizes a list of loosely-typed accept objects
// through the same resolution path as free text.
func (n *PaymentNormalizer) NormalizeStructured(accepts []model.LooseAccept, submittedBy string, at time.Time) PaymentResult {
	return n.resolve(structuredUnits(accepts), submittedBy, at)
}

func textUnits(block string) []unit {
	var units []unit
	for _, line := range strings.Split(block, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		units = append(units, parseLine(line))
	}
	return units
}

func structuredUnits(accepts []model.LooseAccept) []unit {
	units := make([]unit, 0, len(accepts))
	for _, a := range accepts {
		raw := strings.TrimSpace(a.Asset)
		if a.Chain != "" {
			raw += " (" + a.Chain + ")"
		}
		units = append(units, unit{
			raw:       raw,
			assetRaw:  a.Asset,
			chainRaw:  a.Chain,
			processor: strings.TrimSpace(a.Processor),
			evidence:  a.Evidence,
		})
	}
	return units
}

// resolve applies chain resolution, the compatibility invariants and
// (asset, chain) dedupe to a list of units.
func (n *PaymentNormalizer) resolve(units []unit, submittedBy string, at time.Time) PaymentResult {
	result := PaymentResult{}
	index := make(map[string]int) // (asset, chain) -> position in Accepts

	for _, u := range units {
		asset := strings.ToUpper(strings.TrimSpace(u.assetRaw))

		chainRaw := strings.TrimSpace(u.chainRaw)
		var chain model.ChainID
		var resolved bool
		if chainRaw != "" {
			chain, resolved = n.registry.Resolve(chainRaw)
		} else if native, ok := nativeChains[asset]; ok {
			chain, resolved = native, true
		}

		// An unmappable chain quarantines the whole declaration, even when
		// the asset itself would not validate.
		if !resolved {
			result.Pending = append(result.Pending, model.PendingAsset{
				AssetRaw:    strings.TrimSpace(u.assetRaw),
				ChainRaw:    chainRaw,
				SubmittedBy: submittedBy,
				SubmittedAt: at,
			})
			continue
		}

		if !assetPattern.MatchString(asset) {
			result.Rejects = append(result.Rejects, model.Reject{Raw: u.raw, Reason: ReasonInvalidAsset})
			continue
		}
		if chain == model.ChainLightning && asset != "BTC" {
			result.Rejects = append(result.Rejects, model.Reject{Raw: u.raw, Reason: ReasonLightningRequiresBTC})
			continue
		}
		if asset == "BTC" && chain != model.ChainBitcoin && chain != model.ChainLightning {
			result.Rejects = append(result.Rejects, model.Reject{Raw: u.raw, Reason: ReasonBTCChainMismatch})
			continue
		}

		key := asset + "@" + string(chain)
		if pos, seen := index[key]; seen {
			result.Accepts[pos].Evidence = unionStrings(result.Accepts[pos].Evidence, u.evidence)
			continue
		}

		index[key] = len(result.Accepts)
		result.Accepts = append(result.Accepts, model.AcceptEntry{
			Asset:     asset,
			Chain:     chain,
			Method:    model.MethodFor(chain),
			Processor: u.processor,
			Evidence:  append([]string(nil), u.evidence...),
		})
	}

	return result
}

// parseLine extracts (asset, chain-text, processor) from one declaration.
// Accepted shapes: "ASSET (chain, processor)", "ASSET / chain",
// "ASSET chain words", bare "ASSET".
func parseLine(line string) unit {
	u := unit{raw: line}

	// "ASSET (chain, processor)"
	if open := strings.Index(line, "("); open >= 0 {
		if close := strings.LastIndex(line, ")"); close > open {
			u.assetRaw = strings.TrimSpace(line[:open])
			inner := line[open+1 : close]
			parts := strings.SplitN(inner, ",", 2)
			u.chainRaw = strings.TrimSpace(parts[0])
			if len(parts) == 2 {
				u.processor = strings.TrimSpace(parts[1])
			}
			return u
		}
	}

	// "ASSET / chain"
	if idx := strings.Index(line, "/"); idx >= 0 {
		u.assetRaw = strings.TrimSpace(line[:idx])
		u.chainRaw = stripFiller(line[idx+1:])
		return u
	}

	// "ASSET chain words" or bare "ASSET"
	fields := strings.Fields(line)
	if len(fields) > 0 {
		u.assetRaw = fields[0]
		u.chainRaw = stripFiller(strings.Join(fields[1:], " "))
	}
	return u
}

// stripFiller removes connective words from chain text.
func stripFiller(s string) string {
	var kept []string
	for _, f := range strings.Fields(s) {
		if !chainFillerWords[strings.ToLower(f)] {
			kept = append(kept, f)
		}
	}
	return strings.Join(kept, " ")
}

// unionStrings appends items from extra not already present in base.
func unionStrings(base, extra []string) []string {
	seen := make(map[string]bool, len(base))
	for _, s := range base {
		seen[s] = true
	}
	for _, s := range extra {
		if s != "" && !seen[s] {
			seen[s] = true
			base = append(base, s)
		}
	}
	return base
}
