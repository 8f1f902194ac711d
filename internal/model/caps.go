package model

// Tier caps for profile and media content. Directory and unverified records
// carry neither.
const (
	SummaryCapOwner     = 600
	SummaryCapCommunity = 300
	ImageCapOwner       = 8
	ImageCapCommunity   = 4
)

// ImageCapFor returns the gallery size limit for a tier.
func ImageCapFor(status VerificationStatus) int {
	switch status {
	case StatusOwner:
		return ImageCapOwner
	case StatusCommunity:
		return ImageCapCommunity
	default:
		return 0
	}
}

// SummaryCapFor returns the profile summary length limit for a tier.
func SummaryCapFor(status VerificationStatus) int {
	switch status {
	case StatusOwner:
		return SummaryCapOwner
	default:
		return SummaryCapCommunity
	}
}
