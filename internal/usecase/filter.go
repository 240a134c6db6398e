package usecase

import "github.com/cartscout/backend/internal/domain"

// FilterCompatible returns the candidates that are eligible (available with a
// known price) and satisfy every constraint tag. Input order is preserved and
// the input slice is never modified. Empty constraints keep every eligible
// candidate.
func FilterCompatible(candidates []domain.Candidate, constraints domain.TagSet) []domain.Candidate {
	filtered := make([]domain.Candidate, 0, len(candidates))
	for _, c := range candidates {
		if !c.Eligible() {
			continue
		}
		if !c.MeetsConstraints(constraints) {
			continue
		}
		filtered = append(filtered, c)
	}
	return filtered
}
