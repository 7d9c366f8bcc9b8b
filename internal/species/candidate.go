package species

import (
	"fmt"
	"math"
)

// UnknownName is the placeholder used when the API omits a name field.
const UnknownName = "Unknown"

// DefaultConfidenceThreshold is the minimum combined score, in percent,
// a candidate needs to be offered to the user.
const DefaultConfidenceThreshold = 5.0

// Candidate is a single species prediction from the vision scorer.
// Confidence is the combined score in [0, 100].
type Candidate struct {
	CommonName string
	LatinName  string
	Confidence float64
}

// Filter returns the candidates whose confidence meets the threshold.
// The boundary is inclusive: a candidate at exactly the threshold is kept.
// Order is preserved as returned by the API.
func Filter(candidates []Candidate, threshold float64) []Candidate {
	kept := make([]Candidate, 0, len(candidates))
	for _, candidate := range candidates {
		if candidate.Confidence >= threshold {
			kept = append(kept, candidate)
		}
	}
	return kept
}

// Label renders the candidate for display, score rounded to the nearest
// integer percent. A candidate without a common name is shown by its Latin
// name alone.
func (c Candidate) Label() string {
	score := int(math.Round(c.Confidence))
	if c.CommonName == UnknownName || c.CommonName == "" {
		return fmt.Sprintf("%s — %d%%", c.LatinName, score)
	}
	return fmt.Sprintf("%s (%s) — %d%%", c.CommonName, c.LatinName, score)
}

// Keyword renders the candidate as a catalog keyword: the display label
// without the score suffix.
func (c Candidate) Keyword() string {
	if c.CommonName == UnknownName || c.CommonName == "" {
		return c.LatinName
	}
	return fmt.Sprintf("%s (%s)", c.CommonName, c.LatinName)
}
