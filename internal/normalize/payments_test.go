package normalize

import (
	"strings"
	"testing"
	"time"

	"github.com/badjoke-lab/cryptopaymap/internal/chains"
	"github.com/badjoke-lab/cryptopaymap/internal/model"
)

var testTime = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestNormalizer() *PaymentNormalizer {
	return NewPaymentNormalizer(chains.New(nil))
}

func TestNormalizeText_AcceptedShapes(t *testing.T) {
	n := newTestNormalizer()

	block := strings.Join([]string{
		"BTC (Lightning)",
		"ETH on mainnet",
		"USDT (TRC-20)",
	}, "\n")

	result := n.NormalizeText(block, "tester", testTime)

	if len(result.Rejects) != 0 {
		t.Fatalf("expected no rejects, got %v", result.Rejects)
	}
	if len(result.Pending) != 0 {
		t.Fatalf("expected no pending assets, got %v", result.Pending)
	}

	want := []struct {
		asset  string
		chain  model.ChainID
		method model.Method
	}{
		{"BTC", model.ChainLightning, model.MethodLightning},
		{"ETH", model.ChainEthereum, model.MethodOnchain},
		{"USDT", model.ChainTron, model.MethodOnchain},
	}
	if len(result.Accepts) != len(want) {
		t.Fatalf("expected %d accepts, got %d: %v", len(want), len(result.Accepts), result.Accepts)
	}
	for i, w := range want {
		got := result.Accepts[i]
		if got.Asset != w.asset || got.Chain != w.chain || got.Method != w.method {
			t.Errorf("accepts[%d] = {%s %s %s}, want {%s %s %s}",
				i, got.Asset, got.Chain, got.Method, w.asset, w.chain, w.method)
		}
	}
}

func TestNormalizeText_SlashAndProcessor(t *testing.T) {
	n := newTestNormalizer()

	result := n.NormalizeText("DAI / polygon\nBTC (bitcoin, btcpay)", "", testTime)

	if len(result.Accepts) != 2 {
		t.Fatalf("expected 2 accepts, got %v", result.Accepts)
	}
	if result.Accepts[0].Chain != model.ChainPolygon {
		t.Errorf("expected DAI on polygon, got %s", result.Accepts[0].Chain)
	}
	if result.Accepts[1].Processor != "btcpay" {
		t.Errorf("expected processor btcpay, got %q", result.Accepts[1].Processor)
	}
}

func TestNormalizeText_UnknownChainGoesPending(t *testing.T) {
	n := newTestNormalizer()

	result := n.NormalizeText("XYZ-COIN unknown-chain", "alice", testTime)

	if len(result.Accepts) != 0 || len(result.Rejects) != 0 {
		t.Fatalf("expected only pending, got accepts=%v rejects=%v", result.Accepts, result.Rejects)
	}
	if len(result.Pending) != 1 {
		t.Fatalf("expected 1 pending asset, got %d", len(result.Pending))
	}
	p := result.Pending[0]
	if p.AssetRaw != "XYZ-COIN" || p.ChainRaw != "unknown-chain" {
		t.Errorf("pending = {%q %q}, want {XYZ-COIN unknown-chain}", p.AssetRaw, p.ChainRaw)
	}
	if p.SubmittedBy != "alice" || !p.SubmittedAt.Equal(testTime) {
		t.Errorf("pending provenance = {%q %v}", p.SubmittedBy, p.SubmittedAt)
	}
}

func TestNormalizeText_Invariants(t *testing.T) {
	n := newTestNormalizer()

	tests := []struct {
		name   string
		line   string
		reason string
	}{
		{"lightning requires btc", "USDT (lightning)", ReasonLightningRequiresBTC},
		{"btc off its chains", "BTC (polygon)", ReasonBTCChainMismatch},
		{"asset too long", "VERYLONGASSETNAME (bitcoin)", ReasonInvalidAsset},
		{"asset with symbol", "US$T (tron)", ReasonInvalidAsset},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := n.NormalizeText(tt.line, "", testTime)
			if len(result.Rejects) != 1 {
				t.Fatalf("expected 1 reject, got %+v", result)
			}
			if result.Rejects[0].Reason != tt.reason {
				t.Errorf("reason = %q, want %q", result.Rejects[0].Reason, tt.reason)
			}
			if result.Rejects[0].Raw != tt.line {
				t.Errorf("raw = %q, want %q", result.Rejects[0].Raw, tt.line)
			}
		})
	}
}

func TestNormalizeText_NoSilentLoss(t *testing.T) {
	n := newTestNormalizer()

	block := strings.Join([]string{
		"BTC (lightning)",
		"USDT (lightning)",
		"XYZ mystery-net",
		"ETH",
		"# a comment",
		"",
	}, "\n")

	result := n.NormalizeText(block, "", testTime)

	total := len(result.Accepts) + len(result.Rejects) + len(result.Pending)
	if total != 4 {
		t.Errorf("expected every non-comment line in exactly one bucket, got %d (%+v)", total, result)
	}
}

func TestNormalizeText_DedupeUnionsEvidence(t *testing.T) {
	n := newTestNormalizer()

	result := n.NormalizeStructured([]model.LooseAccept{
		{Asset: "btc", Chain: "bitcoin", Evidence: []string{"https://a.example/1"}},
		{Asset: "BTC", Chain: "BTC", Evidence: []string{"https://a.example/2", "https://a.example/1"}},
	}, "", testTime)

	if len(result.Accepts) != 1 {
		t.Fatalf("expected duplicate accepts to merge, got %v", result.Accepts)
	}
	got := result.Accepts[0].Evidence
	if len(got) != 2 || got[0] != "https://a.example/1" || got[1] != "https://a.example/2" {
		t.Errorf("evidence union = %v", got)
	}
}

func TestNormalize_CrossFormDuplicatesCollapse(t *testing.T) {
	n := newTestNormalizer()

	result := n.Normalize("BTC (bitcoin)", []model.LooseAccept{
		{Asset: "btc", Chain: "bitcoin"},
	}, "", testTime)

	if len(result.Accepts) != 1 {
		t.Errorf("text and structured duplicates should merge, got %v", result.Accepts)
	}
}

func TestNormalizeText_BareAssetInfersNativeChain(t *testing.T) {
	n := newTestNormalizer()

	result := n.NormalizeText("BTC\nSOL", "", testTime)
	if len(result.Accepts) != 2 {
		t.Fatalf("expected 2 accepts, got %+v", result)
	}
	if result.Accepts[0].Chain != model.ChainBitcoin || result.Accepts[1].Chain != model.ChainSolana {
		t.Errorf("native chains = %s, %s", result.Accepts[0].Chain, result.Accepts[1].Chain)
	}

	// No native chain and no chain text: quarantine, not reject.
	result = n.NormalizeText("USDT", "", testTime)
	if len(result.Pending) != 1 || result.Pending[0].ChainRaw != "" {
		t.Errorf("expected chainless USDT to go pending, got %+v", result)
	}
}

func TestExpandLegacy(t *testing.T) {
	sub := model.Submission{
		BTC:       true,
		Lightning: true,
		ETH:       true,
		Coins:     []string{"USDT", " ", "XMR"},
	}
	lines := ExpandLegacy(sub)

	want := []string{"BTC (bitcoin)", "BTC (lightning)", "ETH (ethereum)", "USDT", "XMR"}
	if len(lines) != len(want) {
		t.Fatalf("lines = %v, want %v", lines, want)
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("lines[%d] = %q, want %q", i, lines[i], want[i])
		}
	}
}

func TestDerivePreferred_Order(t *testing.T) {
	accepts := []model.AcceptEntry{
		{Asset: "USDT", Chain: model.ChainTron},
		{Asset: "ETH", Chain: model.ChainEthereum},
		{Asset: "BTC", Chain: model.ChainBitcoin},
		{Asset: "BTC", Chain: model.ChainLightning},
		{Asset: "DAI", Chain: model.ChainPolygon},
	}
	got := DerivePreferred(accepts)

	want := []string{"BTC@lightning", "BTC@bitcoin", "ETH@evm:1", "DAI@evm:137", "USDT@tron"}
	if len(got) != len(want) {
		t.Fatalf("preferred = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("preferred[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}
