package normalize

import (
	"strings"
	"time"

	"github.com/badjoke-lab/cryptopaymap/internal/chains"
	"github.com/badjoke-lab/cryptopaymap/internal/model"
)

// Normalizer composes payment, evidence and social parsing into one step
// producing a merge-ready patch from a raw submission.
type Normalizer struct {
	payments     *PaymentNormalizer
	evidence     *EvidenceCollector
	rulesVersion string
	now          func() time.Time
}

// New creates a normalizer over the given registry. rulesVersion tags every
// patch this normalizer produces.
func New(registry *chains.Registry, rulesVersion string) *Normalizer {
	if rulesVersion == "" {
		rulesVersion = model.RulesVersion
	}
	return &Normalizer{
		payments:     NewPaymentNormalizer(registry),
		evidence:     NewEvidenceCollector(),
		rulesVersion: rulesVersion,
		now:          time.Now,
	}
}

// BuildPatch normalizes one raw submission. Unparseable payment lines land
// in Rejects, unmappable chains in the patch's pending assets; nothing is
// silently lost.
func (n *Normalizer) BuildPatch(sub model.Submission) model.Patch {
	at := n.now().UTC()
	if sub.SubmittedAt != nil {
		at = sub.SubmittedAt.UTC()
	}

	// Legacy flags and coin arrays become declaration lines first, so there
	// is exactly one normalization path.
	lines := sub.PaymentsRaw
	if legacy := ExpandLegacy(sub); len(legacy) > 0 {
		lines = strings.Join(append([]string{lines}, legacy...), "\n")
	}
	payments := n.payments.Normalize(lines, sub.Accepts, sub.SubmittedBy, at)

	sources := n.evidence.Collect(sub.EvidenceRaw, sub.Website)
	images := n.evidence.CollectImages(sub.GalleryRaw)

	place := model.PlaceRecord{
		Name:    strings.TrimSpace(sub.Name),
		Address: strings.TrimSpace(sub.Address),
		City:    strings.TrimSpace(sub.City),
		Country: strings.TrimSpace(sub.Country),
		Website: normalizeURL(sub.Website),
		Phone:   strings.TrimSpace(sub.Phone),
		Hours:   strings.TrimSpace(sub.Hours),
		Lat:     sub.Lat,
		Lng:     sub.Lng,
		Socials: ParseSocials(sub.SocialsRaw),
		Payment: model.Payment{
			Accepts:       payments.Accepts,
			Preferred:     DerivePreferred(payments.Accepts),
			PendingAssets: payments.Pending,
		},
		Verification: model.Verification{
			Status:    sub.Kind.Tier(),
			Sources:   sources,
			Submitted: &at,
		},
		RulesVersion: n.rulesVersion,
	}
	if summary := strings.TrimSpace(sub.Summary); summary != "" {
		place.Profile = &model.Profile{Summary: summary}
	}
	if len(images) > 0 {
		place.Media = &model.Media{Images: images}
	}

	return model.Patch{
		Kind:             sub.Kind,
		Place:            place,
		Rejects:          payments.Rejects,
		AlreadyListedRef: strings.TrimSpace(sub.AlreadyListedRef),
		ProposedStatus:   sub.ProposedStatus,
		Details:          strings.TrimSpace(sub.Details),
		SubmittedAt:      at,
	}
}
