// Package chains maps human-entered chain names onto the strict chain set.
package chains

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/badjoke-lab/cryptopaymap/internal/model"
	"gopkg.in/yaml.v3"
)

// evmPattern matches already-strict parameterized EVM identifiers.
var evmPattern = regexp.MustCompile(`^evm:[0-9]+$`)

// AliasTable is the loadable chain metadata format. Extending it at runtime
// adds chains and aliases without a redeploy.
type AliasTable struct {
	Chains []AliasEntry `yaml:"chains"`
}

// AliasEntry maps one chain id to its label and accepted aliases.
type AliasEntry struct {
	ID      string   `yaml:"id"`
	Label   string   `yaml:"label,omitempty"`
	Aliases []string `yaml:"aliases,omitempty"`
}

// Registry resolves free-text chain names to strict identifiers. It is an
// immutable value built once per run and passed by reference.
type Registry struct {
	external map[string]model.ChainID
	builtin  map[string]model.ChainID
}

// builtinAliases is the minimal fallback table, keyed by collapsed alias.
var builtinAliases = map[string]model.ChainID{
	"btc":               model.ChainBitcoin,
	"bitcoin":           model.ChainBitcoin,
	"xbt":               model.ChainBitcoin,
	"ln":                model.ChainLightning,
	"lightning":         model.ChainLightning,
	"lightningnetwork":  model.ChainLightning,
	"lnurl":             model.ChainLightning,
	"eth":               model.ChainEthereum,
	"ethereum":          model.ChainEthereum,
	"mainnet":           model.ChainEthereum,
	"erc20":             model.ChainEthereum,
	"matic":             model.ChainPolygon,
	"polygon":           model.ChainPolygon,
	"polygonpos":        model.ChainPolygon,
	"bsc":               model.ChainBSC,
	"bnb":               model.ChainBSC,
	"bnbchain":          model.ChainBSC,
	"binancesmartchain": model.ChainBSC,
	"bep20":             model.ChainBSC,
	"arb":               model.ChainArbitrum,
	"arbitrum":          model.ChainArbitrum,
	"arbitrumone":       model.ChainArbitrum,
	"op":                model.ChainOptimism,
	"optimism":          model.ChainOptimism,
	"base":              model.ChainBase,
	"trx":               model.ChainTron,
	"tron":              model.ChainTron,
	"trc20":             model.ChainTron,
	"sol":               model.ChainSolana,
	"solana":            model.ChainSolana,
	"spl":               model.ChainSolana,
	"ton":               model.ChainTon,
	"toncoin":           model.ChainTon,
}

// New builds a registry from an optional external table layered over the
// built-in aliases. A nil table yields the built-in fallback only.
func New(table *AliasTable) *Registry {
	r := &Registry{
		external: make(map[string]model.ChainID),
		builtin:  builtinAliases,
	}
	if table == nil {
		return r
	}
	for _, entry := range table.Chains {
		id := model.ChainID(strings.TrimSpace(entry.ID))
		if !IsStrict(id) {
			continue
		}
		if entry.Label != "" {
			r.external[collapse(entry.Label)] = id
		}
		for _, alias := range entry.Aliases {
			if key := collapse(alias); key != "" {
				r.external[key] = id
			}
		}
	}
	return r
}

// LoadTable reads an alias table from a YAML file.
func LoadTable(path string) (*AliasTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read alias table: %w", err)
	}
	var table AliasTable
	if err := yaml.Unmarshal(data, &table); err != nil {
		return nil, fmt.Errorf("parse alias table: %w", err)
	}
	return &table, nil
}

// Resolve maps free text to a strict chain id. A miss is a normal outcome
// (the declaration becomes a pending asset), never an error.
// Lookup order: external table, built-in aliases, evm pass-through.
func (r *Registry) Resolve(text string) (model.ChainID, bool) {
	key := collapse(text)
	if key == "" {
		return "", false
	}
	if id, ok := r.external[key]; ok {
		return id, true
	}
	if id, ok := r.builtin[key]; ok {
		return id, true
	}
	trimmed := strings.ToLower(strings.TrimSpace(text))
	if evmPattern.MatchString(trimmed) {
		return model.ChainID(trimmed), true
	}
	return "", false
}

// IsStrict reports whether id is a member of the closed chain set.
func IsStrict(id model.ChainID) bool {
	switch id {
	case model.ChainBitcoin, model.ChainLightning, model.ChainTron,
		model.ChainSolana, model.ChainTon:
		return true
	}
	return evmPattern.MatchString(string(id))
}

// collapse lowercases and strips spaces, hyphens and underscores so that
// "TRC-20", "trc 20" and "trc20" share one alias key.
func collapse(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	var b strings.Builder
	for _, r := range s {
		switch r {
		case ' ', '\t', '-', '_', '.':
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
