package model

import "time"

// VerificationStatus is the trust tier of a record. The order
// unverified < directory < community < owner is total and governs both
// merge precedence and tier upgrades.
type VerificationStatus string

const (
	StatusUnverified VerificationStatus = "unverified"
	StatusDirectory  VerificationStatus = "directory"
	StatusCommunity  VerificationStatus = "community"
	StatusOwner      VerificationStatus = "owner"
)

// SourceType classifies where a verification claim comes from.
type SourceType string

const (
	SourceOfficialSite      SourceType = "official_site"
	SourceProviderDirectory SourceType = "provider_directory"
	SourceText              SourceType = "text"
	SourceWidget            SourceType = "widget"
	SourceReceipt           SourceType = "receipt"
	SourceScreenshot        SourceType = "screenshot"
	SourceOther             SourceType = "other"
)

// Source is a provenance record backing a verification claim.
// Uniqueness is by URL when one is present. Dead flags a URL the liveness
// checker could no longer reach; the claim stays but stops counting as
// current evidence.
type Source struct {
	Type    SourceType `json:"type"`
	Name    string     `json:"name,omitempty"`
	URL     string     `json:"url,omitempty"`
	Snippet string     `json:"snippet,omitempty"`
	When    *time.Time `json:"when,omitempty"`
	Dead    bool       `json:"dead,omitempty"`
}

// Verification holds a record's trust tier and its provenance.
type Verification struct {
	Status      VerificationStatus `json:"status"`
	Sources     []Source           `json:"sources,omitempty"`
	Submitted   *time.Time         `json:"submitted,omitempty"`
	LastChecked *time.Time         `json:"last_checked,omitempty"`
}
