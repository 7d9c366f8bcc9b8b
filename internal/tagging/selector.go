package tagging

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"naturatag/internal/species"
)

// ErrSelectionCancelled is returned when the user backs out of the picker
// without confirming a selection.
var ErrSelectionCancelled = errors.New("selection cancelled")

// Selector resolves which candidates the user wants applied as keywords. An
// empty selection with a nil error means "apply nothing" and is a valid
// outcome.
type Selector interface {
	Select(ctx context.Context, photo string, candidates []species.Candidate) ([]species.Candidate, error)
}

// StaticSelector resolves a selection expression without user interaction.
// Used for scripted runs where no terminal is available.
type StaticSelector struct {
	Expression string
}

// Select resolves the expression against the candidate list.
func (s StaticSelector) Select(_ context.Context, _ string, candidates []species.Candidate) ([]species.Candidate, error) {
	return ParseSelection(s.Expression, candidates)
}

// ParseSelection resolves an expression like "all", "top", "none", or "1,3"
// (1-based positions) against the candidate list.
func ParseSelection(expression string, candidates []species.Candidate) ([]species.Candidate, error) {
	expression = strings.TrimSpace(strings.ToLower(expression))
	switch expression {
	case "", "none":
		return nil, nil
	case "all":
		return append([]species.Candidate(nil), candidates...), nil
	case "top":
		if len(candidates) == 0 {
			return nil, nil
		}
		return []species.Candidate{candidates[0]}, nil
	}

	seen := make(map[int]struct{})
	var chosen []species.Candidate
	for _, token := range strings.Split(expression, ",") {
		token = strings.TrimSpace(token)
		if token == "" {
			continue
		}
		position, err := strconv.Atoi(token)
		if err != nil {
			return nil, fmt.Errorf("selection %q: %q is not a position", expression, token)
		}
		if position < 1 || position > len(candidates) {
			return nil, fmt.Errorf("selection %q: position %d out of range 1-%d", expression, position, len(candidates))
		}
		if _, dup := seen[position]; dup {
			continue
		}
		seen[position] = struct{}{}
		chosen = append(chosen, candidates[position-1])
	}
	return chosen, nil
}
