package models

// Category is the developer-intent category assigned to a message.
type Category string

const (
	CategoryBug       Category = "bug"
	CategoryFeature   Category = "feature"
	CategoryPRMention Category = "pr_mention"
	CategoryOther     Category = "other"

	// CategoryError tags a failed entry in a batch result. Never persisted
	// as a real classification.
	CategoryError Category = "error"
)

// Actionable reports whether the category warrants building an issue draft.
func (c Category) Actionable() bool {
	switch c {
	case CategoryBug, CategoryFeature, CategoryPRMention:
		return true
	}
	return false
}

// ParseCategory maps a raw token to a Category, defaulting to other.
func ParseCategory(s string) Category {
	switch Category(s) {
	case CategoryBug, CategoryFeature, CategoryPRMention, CategoryOther:
		return Category(s)
	}
	return CategoryOther
}

// Confidence is the classifier's self-reported confidence level.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// ParseConfidence maps a raw token to a Confidence, defaulting to low.
func ParseConfidence(s string) Confidence {
	switch Confidence(s) {
	case ConfidenceHigh, ConfidenceMedium, ConfidenceLow:
		return Confidence(s)
	}
	return ConfidenceLow
}

// DraftStatus is the lifecycle state of an issue draft.
type DraftStatus string

const (
	StatusDraft    DraftStatus = "draft"
	StatusApproved DraftStatus = "approved"
	StatusRejected DraftStatus = "rejected"
)

// Valid reports whether s is a known draft status value.
func (s DraftStatus) Valid() bool {
	switch s {
	case StatusDraft, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// Terminal reports whether the status permits no further transitions.
func (s DraftStatus) Terminal() bool {
	return s == StatusApproved || s == StatusRejected
}

// AnalysisType is the lightweight keyword-based message type used by the
// message analyzer. Distinct from Category: it is computed locally without
// the generation capability.
type AnalysisType string

const (
	AnalysisBug       AnalysisType = "bug"
	AnalysisFeature   AnalysisType = "feature"
	AnalysisPRMention AnalysisType = "pr-mention"
	AnalysisGeneral   AnalysisType = "general"
)
