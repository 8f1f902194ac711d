package merge

import (
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/badjoke-lab/cryptopaymap/internal/model"
)

var mergeTime = time.Date(2026, 4, 2, 10, 0, 0, 0, time.UTC)

func ptr(f float64) *float64 { return &f }

func ownerPatch() model.Patch {
	return model.Patch{
		Kind: model.KindOwner,
		Place: model.PlaceRecord{
			Name:    "Satoshi Cafe",
			Website: "https://b.example",
			Phone:   "+49 30 123",
			Lat:     ptr(52.52),
			Lng:     ptr(13.405),
			Socials: []model.Social{{Platform: "twitter", URL: "https://x.com/satoshicafe"}},
			Payment: model.Payment{
				Accepts: []model.AcceptEntry{
					{Asset: "BTC", Chain: model.ChainLightning, Method: model.MethodLightning},
					{Asset: "USDT", Chain: model.ChainTron, Method: model.MethodOnchain},
				},
				Preferred: []string{"BTC@lightning", "USDT@tron"},
			},
			Verification: model.Verification{
				Status:    model.StatusOwner,
				Sources:   []model.Source{{Type: model.SourceOfficialSite, URL: "https://b.example"}},
				Submitted: &mergeTime,
			},
			Profile:      &model.Profile{Summary: "The first lightning cafe in town."},
			Media:        &model.Media{Images: []string{"https://img.example/1.jpg"}},
			RulesVersion: "v2",
		},
		SubmittedAt: mergeTime,
	}
}

func TestMerge_Idempotent(t *testing.T) {
	m := New()
	patch := ownerPatch()

	first := m.Merge(nil, patch)
	second := m.Merge(&first, patch)

	if !reflect.DeepEqual(first, second) {
		t.Errorf("merge not idempotent:\nfirst:  %+v\nsecond: %+v", first, second)
	}
}

func TestMerge_OwnerOverwritesScalar(t *testing.T) {
	m := New()
	existing := model.PlaceRecord{
		Name:         "Satoshi Cafe",
		Website:      "https://a.example",
		Verification: model.Verification{Status: model.StatusCommunity},
	}

	merged := m.Merge(&existing, ownerPatch())

	if merged.Website != "https://b.example" {
		t.Errorf("owner website = %q, want https://b.example", merged.Website)
	}
	if merged.Verification.Status != model.StatusOwner {
		t.Errorf("status = %s, want owner", merged.Verification.Status)
	}
}

func TestMerge_CommunityNeverOverwritesPopulated(t *testing.T) {
	m := New()
	existing := model.PlaceRecord{
		Name:         "Satoshi Cafe",
		Website:      "https://a.example",
		Verification: model.Verification{Status: model.StatusCommunity},
	}
	patch := model.Patch{
		Kind: model.KindCommunity,
		Place: model.PlaceRecord{
			Name:    "Satoshi Cafe",
			Website: "https://elsewhere.example",
			Phone:   "+49 30 999",
		},
		SubmittedAt: mergeTime,
	}

	merged := m.Merge(&existing, patch)

	if merged.Website != "https://a.example" {
		t.Errorf("community overwrote populated website: %q", merged.Website)
	}
	if merged.Phone != "+49 30 999" {
		t.Errorf("community should fill empty phone, got %q", merged.Phone)
	}
}

func TestMerge_LocationFillsWhenNull(t *testing.T) {
	m := New()
	existing := model.PlaceRecord{
		Name:         "Satoshi Cafe",
		Verification: model.Verification{Status: model.StatusOwner},
	}
	patch := model.Patch{
		Kind:        model.KindCommunity,
		Place:       model.PlaceRecord{Lat: ptr(52.52), Lng: ptr(13.405)},
		SubmittedAt: mergeTime,
	}

	merged := m.Merge(&existing, patch)
	if merged.Lat == nil || merged.Lng == nil {
		t.Fatal("community patch should fill null coordinates at any tier")
	}

	moved := model.Patch{
		Kind:        model.KindCommunity,
		Place:       model.PlaceRecord{Lat: ptr(48.0), Lng: ptr(11.0)},
		SubmittedAt: mergeTime,
	}
	merged = m.Merge(&merged, moved)
	if *merged.Lat != 52.52 {
		t.Errorf("community patch moved populated coordinates: %f", *merged.Lat)
	}
}

func TestMerge_TrustMonotonicity(t *testing.T) {
	m := New()
	existing := model.PlaceRecord{
		Name:         "Satoshi Cafe",
		Verification: model.Verification{Status: model.StatusOwner},
	}
	patch := model.Patch{
		Kind:        model.KindCommunity,
		Place:       model.PlaceRecord{Name: "Satoshi Cafe"},
		SubmittedAt: mergeTime,
	}

	merged := m.Merge(&existing, patch)
	if merged.Verification.Status != model.StatusOwner {
		t.Errorf("lower-tier merge lowered status to %s", merged.Verification.Status)
	}
}

func TestMerge_AcceptsUnionEvidence(t *testing.T) {
	m := New()
	existing := model.PlaceRecord{
		Name: "Satoshi Cafe",
		Payment: model.Payment{
			Accepts: []model.AcceptEntry{
				{Asset: "BTC", Chain: model.ChainLightning, Method: model.MethodLightning,
					Evidence: []string{"https://old.example"}},
			},
		},
		Verification: model.Verification{Status: model.StatusCommunity},
	}
	patch := model.Patch{
		Kind: model.KindCommunity,
		Place: model.PlaceRecord{
			Payment: model.Payment{
				Accepts: []model.AcceptEntry{
					{Asset: "BTC", Chain: model.ChainLightning, Method: model.MethodLightning,
						Evidence: []string{"https://new.example"}},
					{Asset: "ETH", Chain: model.ChainEthereum, Method: model.MethodOnchain},
				},
			},
		},
		SubmittedAt: mergeTime,
	}

	merged := m.Merge(&existing, patch)

	if len(merged.Payment.Accepts) != 2 {
		t.Fatalf("accepts = %+v", merged.Payment.Accepts)
	}
	// New entries first, existing entry keeps its place with unioned evidence.
	if merged.Payment.Accepts[0].Asset != "ETH" {
		t.Errorf("expected fresh entry first, got %s", merged.Payment.Accepts[0].Asset)
	}
	btc := merged.Payment.Accepts[1]
	if len(btc.Evidence) != 2 {
		t.Errorf("evidence union = %v", btc.Evidence)
	}
	if got := merged.Payment.Preferred; len(got) != 2 || got[0] != "BTC@lightning" {
		t.Errorf("preferred not rederived: %v", got)
	}
}

func TestMerge_ImageCaps(t *testing.T) {
	m := New()

	images := make([]string, 12)
	for i := range images {
		images[i] = "https://img.example/" + strings.Repeat("x", i+1) + ".jpg"
	}

	ownerExisting := model.PlaceRecord{
		Name:         "Satoshi Cafe",
		Verification: model.Verification{Status: model.StatusOwner},
		Media:        &model.Media{Images: images[:6]},
	}
	patch := model.Patch{
		Kind:        model.KindOwner,
		Place:       model.PlaceRecord{Media: &model.Media{Images: images[6:]}},
		SubmittedAt: mergeTime,
	}
	merged := m.Merge(&ownerExisting, patch)
	if len(merged.Media.Images) != model.ImageCapOwner {
		t.Errorf("owner image count = %d, want %d", len(merged.Media.Images), model.ImageCapOwner)
	}

	communityExisting := model.PlaceRecord{
		Name:         "Satoshi Cafe",
		Verification: model.Verification{Status: model.StatusCommunity},
	}
	patch.Kind = model.KindCommunity
	merged = m.Merge(&communityExisting, patch)
	if len(merged.Media.Images) != model.ImageCapCommunity {
		t.Errorf("community image count = %d, want %d", len(merged.Media.Images), model.ImageCapCommunity)
	}
}

func TestMerge_SummaryLongerWinsAndTruncates(t *testing.T) {
	m := New()
	existing := model.PlaceRecord{
		Name:         "Satoshi Cafe",
		Verification: model.Verification{Status: model.StatusCommunity},
		Profile:      &model.Profile{Summary: "short"},
	}
	long := strings.Repeat("a", 400)
	patch := model.Patch{
		Kind:        model.KindCommunity,
		Place:       model.PlaceRecord{Profile: &model.Profile{Summary: long}},
		SubmittedAt: mergeTime,
	}

	merged := m.Merge(&existing, patch)
	if len(merged.Profile.Summary) != model.SummaryCapCommunity {
		t.Errorf("summary length = %d, want cap %d", len(merged.Profile.Summary), model.SummaryCapCommunity)
	}
}

func TestMerge_ReportOnlySuggests(t *testing.T) {
	m := New()
	existing := model.PlaceRecord{
		Name:         "Satoshi Cafe",
		Phone:        "+49 30 123",
		Verification: model.Verification{Status: model.StatusCommunity},
	}
	patch := model.Patch{
		Kind: model.KindReport,
		Place: model.PlaceRecord{
			Phone:   "+49 30 000",
			Website: "https://scam.example",
		},
		Details:     "They moved to a new street last month",
		SubmittedAt: mergeTime,
	}

	merged := m.Merge(&existing, patch)

	if merged.Phone != "+49 30 123" || merged.Website != "" {
		t.Errorf("report mutated asserted fields: phone=%q website=%q", merged.Phone, merged.Website)
	}
	if merged.StatusOverride != model.OverrideDisputed {
		t.Errorf("relocation report should set disputed, got %q", merged.StatusOverride)
	}
	if merged.Moderation == nil || len(merged.Moderation.Suggestions) != 2 {
		t.Fatalf("suggestions = %+v", merged.Moderation)
	}
	if merged.Verification.Status != model.StatusCommunity {
		t.Errorf("report changed trust tier to %s", merged.Verification.Status)
	}

	// Re-running the same report adds nothing.
	again := m.Merge(&merged, patch)
	if len(again.Moderation.Suggestions) != 2 {
		t.Errorf("report merge not idempotent: %+v", again.Moderation.Suggestions)
	}
}

func TestMerge_ReportAgainstOwnerRecordSuggestsNothing(t *testing.T) {
	m := New()
	existing := model.PlaceRecord{
		Name:         "Satoshi Cafe",
		Verification: model.Verification{Status: model.StatusOwner},
	}
	patch := model.Patch{
		Kind:        model.KindReport,
		Place:       model.PlaceRecord{Phone: "+49 30 000"},
		Details:     "wrong number listed",
		SubmittedAt: mergeTime,
	}

	merged := m.Merge(&existing, patch)
	if merged.Moderation != nil {
		t.Errorf("owner-tier record collected suggestions: %+v", merged.Moderation)
	}
	if merged.StatusOverride != model.OverrideNone {
		t.Errorf("non-closure report set override %q", merged.StatusOverride)
	}
}

func TestMerge_PendingAssetsUnion(t *testing.T) {
	m := New()
	existing := model.PlaceRecord{
		Name: "Satoshi Cafe",
		Payment: model.Payment{
			PendingAssets: []model.PendingAsset{{AssetRaw: "XYZ", ChainRaw: "mystery", SubmittedAt: mergeTime}},
		},
		Verification: model.Verification{Status: model.StatusCommunity},
	}
	patch := model.Patch{
		Kind: model.KindCommunity,
		Place: model.PlaceRecord{
			Payment: model.Payment{
				PendingAssets: []model.PendingAsset{
					{AssetRaw: "XYZ", ChainRaw: "mystery", SubmittedAt: mergeTime.Add(time.Hour)},
					{AssetRaw: "ABC", ChainRaw: "other", SubmittedAt: mergeTime},
				},
			},
		},
		SubmittedAt: mergeTime,
	}

	merged := m.Merge(&existing, patch)
	if len(merged.Payment.PendingAssets) != 2 {
		t.Errorf("pending union = %+v", merged.Payment.PendingAssets)
	}
}
