// Package proximity buckets a distance inside a search radius without
// exposing the exact figure.
package proximity

// Band is a coarse closeness bucket.
type Band string

const (
	VeryClose Band = "very_close"
	Close     Band = "close"
	InArea    Band = "in_area"
	Edge      Band = "edge"
)

// Closeness scores distanceKm against radiusKm: 100 at the query point,
// 0 on or beyond the edge of the radius.
func Closeness(distanceKm, radiusKm float64) float64 {
	if radiusKm <= 0 || distanceKm >= radiusKm {
		return 0
	}
	if distanceKm <= 0 {
		return 100
	}
	return (1 - distanceKm/radiusKm) * 100
}

// Of returns the band for a closeness score, one band per quarter.
func Of(closeness float64) Band {
	switch {
	case closeness >= 75:
		return VeryClose
	case closeness >= 50:
		return Close
	case closeness >= 25:
		return InArea
	default:
		return Edge
	}
}
