package model

import "time"

// SubmissionKind is the channel a submission arrived through. Each channel
// has different authority over different fields during merge.
type SubmissionKind string

const (
	KindOwner     SubmissionKind = "owner"
	KindCommunity SubmissionKind = "community"
	KindReport    SubmissionKind = "report"
)

// Tier maps a submission channel to the trust tier it can assert.
func (k SubmissionKind) Tier() VerificationStatus {
	switch k {
	case KindOwner:
		return StatusOwner
	case KindCommunity:
		return StatusCommunity
	default:
		return StatusUnverified
	}
}

// Submission is one raw form payload as received from the boundary.
// Free-text blocks are newline-separated; the boundary has already checked
// required fields, nothing here is trusted beyond that.
type Submission struct {
	Kind    SubmissionKind `json:"kind"`
	Name    string         `json:"name"`
	Address string         `json:"address,omitempty"`
	City    string         `json:"city,omitempty"`
	Country string         `json:"country,omitempty"`
	Website string         `json:"website,omitempty"`
	Phone   string         `json:"phone,omitempty"`
	Hours   string         `json:"hours,omitempty"`
	Lat     *float64       `json:"lat,omitempty"`
	Lng     *float64       `json:"lng,omitempty"`

	Summary string `json:"summary,omitempty"`

	PaymentsRaw string        `json:"payments_raw,omitempty"`
	Accepts     []LooseAccept `json:"accepts,omitempty"`
	EvidenceRaw string        `json:"evidence_raw,omitempty"`
	GalleryRaw  string        `json:"gallery_raw,omitempty"`
	SocialsRaw  string        `json:"socials_raw,omitempty"`

	// Legacy flat flags still arriving from old clients. Expanded into
	// PaymentsRaw lines before normalization.
	BTC       bool     `json:"btc,omitempty"`
	ETH       bool     `json:"eth,omitempty"`
	Lightning bool     `json:"lightning,omitempty"`
	Onchain   bool     `json:"onchain,omitempty"`
	Coins     []string `json:"coins,omitempty"`

	AlreadyListedRef string         `json:"already_listed_ref,omitempty"`
	ProposedStatus   StatusOverride `json:"proposed_status,omitempty"`
	Details          string         `json:"details,omitempty"` // Report free text
	SubmittedBy      string         `json:"submitted_by,omitempty"`
	SubmittedAt      *time.Time     `json:"submitted_at,omitempty"`
}

// LooseAccept is one loosely-typed accept object as found in structured
// submissions and legacy files. All fields are free text until the
// normalizer resolves them.
type LooseAccept struct {
	Asset     string   `json:"asset"`
	Chain     string   `json:"chain"`
	Method    string   `json:"method,omitempty"`
	Processor string   `json:"processor,omitempty"`
	Evidence  []string `json:"evidence,omitempty"`
}

// Reject records one input unit that could not be parsed or failed a
// semantic rule. Rejects are data, never errors.
type Reject struct {
	Raw    string `json:"raw"`
	Reason string `json:"reason"`
}

// Patch is the normalizer's output for one submission: a partial
// PlaceRecord plus everything that could not become one.
type Patch struct {
	Kind    SubmissionKind
	Place   PlaceRecord
	Rejects []Reject

	AlreadyListedRef string
	ProposedStatus   StatusOverride
	Details          string
	SubmittedAt      time.Time
}
