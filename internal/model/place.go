package model

import "time"

// StatusOverride is a moderation flag raised by reports. Records are never
// physically deleted; they are demoted via an override instead.
type StatusOverride string

const (
	OverrideNone     StatusOverride = ""
	OverrideDisputed StatusOverride = "disputed"
	OverrideHidden   StatusOverride = "hidden"
)

// Payment groups everything a place accepts.
type Payment struct {
	Accepts       []AcceptEntry  `json:"accepts"`
	Preferred     []string       `json:"preferred,omitempty"` // "ASSET@chain" keys, subset of accepts
	PendingAssets []PendingAsset `json:"pending_assets,omitempty"`
}

// Social is one social/contact handle, deduplicated by platform.
type Social struct {
	Platform string `json:"platform"`
	URL      string `json:"url"`
}

// Profile carries owner- or community-supplied descriptive text.
type Profile struct {
	Summary string `json:"summary,omitempty"`
}

// Media carries gallery images, count-capped by trust tier.
type Media struct {
	Images []string `json:"images,omitempty"`
}

// FieldSuggestion is a report-proposed value for a contact field. Reports
// never overwrite fields directly; a suggestion must be promoted by an
// explicit moderation action.
type FieldSuggestion struct {
	Field       string    `json:"field"`
	Value       string    `json:"value"`
	SubmittedAt time.Time `json:"submitted_at"`
	Notes       string    `json:"notes,omitempty"`
}

// Moderation holds report-sourced state awaiting human action.
type Moderation struct {
	Suggestions []FieldSuggestion `json:"suggestions,omitempty"`
}

// PlaceRecord is the canonical entity: the single merged, validated
// representation of one real-world place. Created on the first accepted
// submission, mutated only through the merge policy afterwards.
type PlaceRecord struct {
	ID string `json:"id"`

	Name    string   `json:"name"`
	Address string   `json:"address,omitempty"`
	City    string   `json:"city,omitempty"`
	Country string   `json:"country,omitempty"`
	Lat     *float64 `json:"lat,omitempty"`
	Lng     *float64 `json:"lng,omitempty"`

	Category string   `json:"category,omitempty"`
	Website  string   `json:"website,omitempty"`
	Phone    string   `json:"phone,omitempty"`
	Hours    string   `json:"hours,omitempty"`
	Socials  []Social `json:"socials,omitempty"`

	Payment      Payment      `json:"payment"`
	Verification Verification `json:"verification"`

	Profile *Profile `json:"profile,omitempty"`
	Media   *Media   `json:"media,omitempty"`

	StatusOverride StatusOverride `json:"status_override,omitempty"`
	Moderation     *Moderation    `json:"moderation,omitempty"`

	// RulesVersion records which normalizer rule set last touched the
	// record, so migrations are replays of a versioned rule set.
	RulesVersion string `json:"rules_version,omitempty"`

	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}
