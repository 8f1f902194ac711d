// Package validate runs schema-independent semantic checks over canonical
// records. It collects every violation instead of failing fast, so one run
// gives a complete picture of store health.
package validate

import (
	"fmt"
	"net/url"

	"github.com/badjoke-lab/cryptopaymap/internal/chains"
	"github.com/badjoke-lab/cryptopaymap/internal/model"
)

// ValidationError is one business-rule violation. Violations are data, not
// exceptions; a validation run produces a report, it does not abort.
type ValidationError struct {
	Location string `json:"location"`
	Message  string `json:"message"`
}

// Validator checks business rules a structural schema cannot express. It
// runs both defensively before a write and as a standalone batch auditor.
type Validator struct{}

// New creates a validator.
func New() *Validator {
	return &Validator{}
}

// Validate returns every rule violation in the record. Locations are paths
// relative to the record; batch callers prefix them with the record id.
func (v *Validator) Validate(rec model.PlaceRecord) []ValidationError {
	var errs []ValidationError
	add := func(location, format string, args ...interface{}) {
		errs = append(errs, ValidationError{Location: location, Message: fmt.Sprintf(format, args...)})
	}

	acceptKeys := make(map[string]bool, len(rec.Payment.Accepts))
	for i, entry := range rec.Payment.Accepts {
		loc := fmt.Sprintf("payment.accepts[%d]", i)
		if !chains.IsStrict(entry.Chain) {
			add(loc, "chain %q is not a strict chain identifier", entry.Chain)
		}
		if entry.Chain == model.ChainLightning && entry.Asset != "BTC" {
			add(loc, "lightning entries must carry BTC, got %q", entry.Asset)
		}
		if entry.Asset == "BTC" && entry.Chain != model.ChainBitcoin && entry.Chain != model.ChainLightning {
			add(loc, "BTC must settle on bitcoin or lightning, got %q", entry.Chain)
		}
		acceptKeys[entry.Key()] = true
	}

	if len(rec.Payment.Accepts) > 0 && len(rec.Payment.Preferred) == 0 {
		add("payment.preferred", "preferred is empty while accepts are present")
	}
	for i, key := range rec.Payment.Preferred {
		if !acceptKeys[key] {
			add(fmt.Sprintf("payment.preferred[%d]", i), "key %q not present in accepts", key)
		}
	}

	status := rec.Verification.Status
	imageCount := 0
	if rec.Media != nil {
		imageCount = len(rec.Media.Images)
	}
	if limit := model.ImageCapFor(status); imageCount > limit {
		add("media.images", "%d images exceeds the %s cap of %d", imageCount, status, limit)
	}

	if rec.Profile != nil {
		if status != model.StatusOwner && status != model.StatusCommunity {
			add("profile", "profile is only allowed for owner or community tiers, record is %s", status)
		}
		if limit := model.SummaryCapFor(status); len(rec.Profile.Summary) > limit {
			add("profile.summary", "summary length %d exceeds the %s cap of %d", len(rec.Profile.Summary), status, limit)
		}
	}

	for i, src := range rec.Verification.Sources {
		if src.URL == "" {
			continue
		}
		parsed, err := url.Parse(src.URL)
		if err != nil || !parsed.IsAbs() || parsed.Host == "" {
			add(fmt.Sprintf("verification.sources[%d].url", i), "%q is not an absolute URL", src.URL)
		}
	}

	return errs
}

// ValidateAll audits a whole record set, prefixing each violation's
// location with the record id (or index when the id is missing).
func (v *Validator) ValidateAll(records []model.PlaceRecord) []ValidationError {
	var all []ValidationError
	for i, rec := range records {
		ref := rec.ID
		if ref == "" {
			ref = fmt.Sprintf("[%d]", i)
		}
		for _, e := range v.Validate(rec) {
			e.Location = ref + "." + e.Location
			all = append(all, e)
		}
	}
	return all
}
