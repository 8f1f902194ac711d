// Package merge applies the field-by-field merge policy between a canonical
// record and an incoming normalized patch.
package merge

import (
	"regexp"
	"strings"

	"github.com/badjoke-lab/cryptopaymap/internal/model"
	"github.com/badjoke-lab/cryptopaymap/internal/normalize"
	"github.com/badjoke-lab/cryptopaymap/internal/trust"
)

// closurePattern detects closure/relocation language in report details.
var closurePattern = regexp.MustCompile(`(?i)\b(closed|closing|shut\s*down|out\s+of\s+business|no\s+longer|moved|relocat\w*)`)

// Merger merges submission patches into canonical records. Merging is
// idempotent: re-running a patch against its own output is a no-op.
type Merger struct{}

// New creates a merger.
func New() *Merger {
	return &Merger{}
}

// Merge applies patch to existing and returns the merged record. A nil
// existing record means the patch creates the place (the caller assigns the
// id). Owner patches overwrite scalars, community patches only fill empty
// fields, report patches never write fields directly.
func (m *Merger) Merge(existing *model.PlaceRecord, patch model.Patch) model.PlaceRecord {
	var result model.PlaceRecord
	if existing != nil {
		result = cloneRecord(*existing)
	}

	if patch.Kind == model.KindReport {
		m.applyReport(&result, patch)
		return result
	}

	incoming := patch.Place
	owner := patch.Kind == model.KindOwner

	mergeScalar(&result.Name, incoming.Name, owner)
	mergeScalar(&result.Address, incoming.Address, owner)
	mergeScalar(&result.City, incoming.City, owner)
	mergeScalar(&result.Country, incoming.Country, owner)
	mergeScalar(&result.Category, incoming.Category, owner)
	mergeScalar(&result.Website, incoming.Website, owner)
	mergeScalar(&result.Phone, incoming.Phone, owner)
	mergeScalar(&result.Hours, incoming.Hours, owner)

	// Location fills when previously null regardless of tier.
	if incoming.Lat != nil && (owner || result.Lat == nil) {
		result.Lat = incoming.Lat
	}
	if incoming.Lng != nil && (owner || result.Lng == nil) {
		result.Lng = incoming.Lng
	}

	result.Socials = mergeSocials(result.Socials, incoming.Socials, owner)
	result.Payment.Accepts = mergeAccepts(result.Payment.Accepts, incoming.Payment.Accepts)
	result.Payment.Preferred = normalize.DerivePreferred(result.Payment.Accepts)
	result.Payment.PendingAssets = mergePending(result.Payment.PendingAssets, incoming.Payment.PendingAssets)

	result.Verification.Status = trust.Upgrade(result.Verification.Status, patch.Kind.Tier())
	result.Verification.Sources = mergeSources(result.Verification.Sources, incoming.Verification.Sources)
	if result.Verification.Submitted == nil {
		result.Verification.Submitted = incoming.Verification.Submitted
	}

	mergeSummary(&result, incoming)
	mergeImages(&result, incoming)

	at := patch.SubmittedAt
	result.UpdatedAt = &at
	if incoming.RulesVersion != "" {
		result.RulesVersion = incoming.RulesVersion
	}

	return result
}

// applyReport lands a report as moderation state only: a disputed override
// when the details read like a closure or relocation, and field suggestions
// awaiting separate promotion. Reports never raise trust and never touch
// asserted fields.
func (m *Merger) applyReport(result *model.PlaceRecord, patch model.Patch) {
	if patch.ProposedStatus == model.OverrideDisputed || closurePattern.MatchString(patch.Details) {
		result.StatusOverride = model.OverrideDisputed
	}

	// Suggestions are only collected while no owner has asserted the record;
	// owner-tier records route reports straight to moderators.
	if result.Verification.Status == model.StatusOwner {
		return
	}

	proposed := []struct{ field, value string }{
		{"name", patch.Place.Name},
		{"address", patch.Place.Address},
		{"website", patch.Place.Website},
		{"phone", patch.Place.Phone},
		{"hours", patch.Place.Hours},
	}
	for _, p := range proposed {
		if p.value == "" || p.value == currentField(result, p.field) {
			continue
		}
		if hasSuggestion(result.Moderation, p.field, p.value) {
			continue
		}
		if result.Moderation == nil {
			result.Moderation = &model.Moderation{}
		}
		result.Moderation.Suggestions = append(result.Moderation.Suggestions, model.FieldSuggestion{
			Field:       p.field,
			Value:       p.value,
			SubmittedAt: patch.SubmittedAt,
			Notes:       patch.Details,
		})
	}
}

func currentField(rec *model.PlaceRecord, field string) string {
	switch field {
	case "name":
		return rec.Name
	case "address":
		return rec.Address
	case "website":
		return rec.Website
	case "phone":
		return rec.Phone
	case "hours":
		return rec.Hours
	}
	return ""
}

func hasSuggestion(mod *model.Moderation, field, value string) bool {
	if mod == nil {
		return false
	}
	for _, s := range mod.Suggestions {
		if s.Field == field && s.Value == value {
			return true
		}
	}
	return false
}

// mergeScalar overwrites for owner submissions and fills previously-empty
// fields for everyone else.
func mergeScalar(current *string, incoming string, owner bool) {
	if incoming == "" {
		return
	}
	if owner || *current == "" {
		*current = incoming
	}
}

// mergeSummary keeps the longer of current and incoming (incoming wins
// ties), truncated to the cap of the record's resulting tier.
func mergeSummary(result *model.PlaceRecord, incoming model.PlaceRecord) {
	current := ""
	if result.Profile != nil {
		current = result.Profile.Summary
	}
	proposed := ""
	if incoming.Profile != nil {
		proposed = incoming.Profile.Summary
	}

	chosen := current
	if len(proposed) >= len(current) {
		chosen = proposed
	}
	limit := model.SummaryCapFor(result.Verification.Status)
	if len(chosen) > limit {
		chosen = strings.TrimSpace(chosen[:limit])
	}

	if chosen == "" {
		return
	}
	result.Profile = &model.Profile{Summary: chosen}
}

// mergeImages prepends incoming images, dedupes by URL and truncates to the
// tier cap. Images are never deleted, only cut by the cap.
func mergeImages(result *model.PlaceRecord, incoming model.PlaceRecord) {
	var current, proposed []string
	if result.Media != nil {
		current = result.Media.Images
	}
	if incoming.Media != nil {
		proposed = incoming.Media.Images
	}

	merged := make([]string, 0, len(current)+len(proposed))
	seen := make(map[string]bool)
	for _, img := range append(append([]string{}, proposed...), current...) {
		if img == "" || seen[img] {
			continue
		}
		seen[img] = true
		merged = append(merged, img)
	}

	limit := model.ImageCapFor(result.Verification.Status)
	if len(merged) > limit {
		merged = merged[:limit]
	}
	if len(merged) == 0 {
		result.Media = nil
		return
	}
	result.Media = &model.Media{Images: merged}
}

// mergeAccepts unions by (asset, chain, processor), keeping existing entries
// in place with evidence unioned and putting previously-unseen entries
// first for newest-first display.
func mergeAccepts(current, incoming []model.AcceptEntry) []model.AcceptEntry {
	index := make(map[string]int, len(current))
	for i, e := range current {
		index[e.DedupKey()] = i
	}

	var fresh []model.AcceptEntry
	for _, e := range incoming {
		if i, ok := index[e.DedupKey()]; ok {
			current[i].Evidence = unionStrings(current[i].Evidence, e.Evidence)
			continue
		}
		index[e.DedupKey()] = -1
		fresh = append(fresh, e)
	}
	return append(fresh, current...)
}

// mergeSocials unions by platform, new platforms first. On a platform
// collision an owner submission takes the incoming link; anyone else keeps
// the existing one.
func mergeSocials(current, incoming []model.Social, owner bool) []model.Social {
	index := make(map[string]int, len(current))
	for i, s := range current {
		index[s.Platform] = i
	}
	var fresh []model.Social
	for _, s := range incoming {
		if i, ok := index[s.Platform]; ok {
			if owner {
				current[i].URL = s.URL
			}
			continue
		}
		index[s.Platform] = -1
		fresh = append(fresh, s)
	}
	return append(fresh, current...)
}

// mergeSources unions by URL, new entries first. Sources without a URL are
// kept as-is; uniqueness only applies when a URL is present.
func mergeSources(current, incoming []model.Source) []model.Source {
	seen := make(map[string]bool, len(current))
	for _, s := range current {
		if s.URL != "" {
			seen[s.URL] = true
		}
	}
	var fresh []model.Source
	for _, s := range incoming {
		if s.URL != "" && seen[s.URL] {
			continue
		}
		if s.URL != "" {
			seen[s.URL] = true
		}
		fresh = append(fresh, s)
	}
	return append(fresh, current...)
}

// mergePending unions by (asset_raw, chain_raw).
func mergePending(current, incoming []model.PendingAsset) []model.PendingAsset {
	seen := make(map[string]bool, len(current))
	for _, p := range current {
		seen[p.AssetRaw+"|"+p.ChainRaw] = true
	}
	var fresh []model.PendingAsset
	for _, p := range incoming {
		key := p.AssetRaw + "|" + p.ChainRaw
		if seen[key] {
			continue
		}
		seen[key] = true
		fresh = append(fresh, p)
	}
	return append(fresh, current...)
}

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

// cloneRecord copies the record with fresh slices so merges never alias the
// caller's pool.
func cloneRecord(rec model.PlaceRecord) model.PlaceRecord {
	out := rec
	out.Socials = append([]model.Social(nil), rec.Socials...)
	out.Payment.Accepts = make([]model.AcceptEntry, len(rec.Payment.Accepts))
	for i, e := range rec.Payment.Accepts {
		e.Evidence = append([]string(nil), e.Evidence...)
		out.Payment.Accepts[i] = e
	}
	out.Payment.Preferred = append([]string(nil), rec.Payment.Preferred...)
	out.Payment.PendingAssets = append([]model.PendingAsset(nil), rec.Payment.PendingAssets...)
	out.Verification.Sources = append([]model.Source(nil), rec.Verification.Sources...)
	if rec.Profile != nil {
		p := *rec.Profile
		out.Profile = &p
	}
	if rec.Media != nil {
		m := model.Media{Images: append([]string(nil), rec.Media.Images...)}
		out.Media = &m
	}
	if rec.Moderation != nil {
		mod := model.Moderation{Suggestions: append([]model.FieldSuggestion(nil), rec.Moderation.Suggestions...)}
		out.Moderation = &mod
	}
	return out
}
