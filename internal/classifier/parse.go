package classifier

import (
	"regexp"
	"strings"

	"github.com/ghosthub/ghosthub/internal/models"
)

// Model output format cannot be perfectly guaranteed, so parsing is
// tolerant: any recognizable category/confidence token counts, and a failed
// match downgrades to other/low instead of erroring.
var (
	categoryRe   = regexp.MustCompile(`(?i)category\s*[:\-]?\s*(bug|feature|pr[_\- ]?mention|other)`)
	confidenceRe = regexp.MustCompile(`(?i)confidence\s*[:\-]?\s*(high|medium|low)`)
)

// ParseResponse extracts the category and confidence from raw model output.
// Pure function of the response text: the same raw text always yields the
// same pair.
func ParseResponse(raw string) (models.Category, models.Confidence) {
	category := models.CategoryOther
	confidence := models.ConfidenceLow

	if m := categoryRe.FindStringSubmatch(raw); m != nil {
		token := strings.ToLower(m[1])
		token = strings.NewReplacer("-", "_", " ", "_").Replace(token)
		category = models.ParseCategory(token)
	}
	if m := confidenceRe.FindStringSubmatch(raw); m != nil {
		confidence = models.ParseConfidence(strings.ToLower(m[1]))
	}
	return category, confidence
}
