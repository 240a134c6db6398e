package domain

// DietaryInfo describes what a product claims to accommodate.
type DietaryInfo struct {
	// HandledRestrictions lists the dietary restrictions this product
	// satisfies, as normalized tags.
	HandledRestrictions []Tag `json:"restrictions_handled"`
	// Ingredients is the declared ingredient list, when the store exposes one.
	Ingredients []string `json:"ingredients,omitempty"`
	// AllergenNote is free-text allergen guidance, e.g. "contains: milk, soy".
	AllergenNote string `json:"allergen_info,omitempty"`
}

// Handles reports whether the product claims to satisfy the given tag.
func (d DietaryInfo) Handles(t Tag) bool {
	for _, h := range d.HandledRestrictions {
		if h == t {
			return true
		}
	}
	return false
}

// Candidate is one store's offer for a queried item. Price is a pointer
// because "unknown" and "zero" are different facts: a nil price means the
// store returned no usable price and the candidate can never be selected.
type Candidate struct {
	Store       string      `json:"store"`
	ProductName string      `json:"product_name"`
	Price       *float64    `json:"price"`
	Available   bool        `json:"available"`
	Dietary     DietaryInfo `json:"dietary_info"`
}

// PriceOf returns a pointer to v, for building candidates with known prices.
func PriceOf(v float64) *float64 {
	return &v
}

// Priced reports whether the candidate carries a usable price.
func (c Candidate) Priced() bool {
	return c.Price != nil
}

// Eligible reports whether the candidate can ever be selected: it must be
// available and carry a price.
func (c Candidate) Eligible() bool {
	return c.Available && c.Price != nil
}

// MeetsConstraints reports whether every constraint tag appears in the
// candidate's handled restrictions. An empty constraint set is always met.
// Matching is exact on normalized tags; "gluten-free" does not match a
// product tagged only "free".
func (c Candidate) MeetsConstraints(constraints TagSet) bool {
	for t := range constraints {
		if !c.Dietary.Handles(t) {
			return false
		}
	}
	return true
}
