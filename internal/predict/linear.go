// Package predict holds the placeholder rent model: a single linear scale of
// the listing's rent per square foot.
package predict

import "github.com/sells-group/geocentral/internal/model"

// DefaultFactor is the multiplier applied to rent per square foot.
const DefaultFactor = 1.1

// Linear returns one prediction per listing, in input order. Listings without
// a rent per square foot predict 0.
func Linear(listings []model.Listing, factor float64) []float64 {
	out := make([]float64, len(listings))
	for i, l := range listings {
		out[i] = l.RentPerSqft.Or(0) * factor
	}
	return out
}
