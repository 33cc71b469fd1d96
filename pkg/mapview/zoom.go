package mapview

import "math"

// Zoom cutoffs shared by the classifier and the thinning thresholds.
const (
	CountryMaxZoom      = 3.0
	RegionMaxZoom       = 6.0
	CityMaxZoom         = 10.0
	NeighborhoodMaxZoom = 14.0
)

// ValidZoom reports whether zoom can be fed to the pipeline.
func ValidZoom(zoom float64) bool {
	return !math.IsNaN(zoom) && !math.IsInf(zoom, 0)
}

// VisibleTypesForZoom returns the place types shown at the given zoom.
// Callers must reject non-finite values with ValidZoom first.
func VisibleTypesForZoom(zoom float64) TypeSet {
	switch {
	case zoom <= CountryMaxZoom:
		return NewTypeSet(TypeCountry)
	case zoom <= RegionMaxZoom:
		return NewTypeSet(TypeCountry, TypeRegion)
	case zoom <= CityMaxZoom:
		return NewTypeSet(TypeRegion, TypeCity)
	case zoom <= NeighborhoodMaxZoom:
		return NewTypeSet(TypeCity, TypeNeighborhood)
	default:
		return NewTypeSet(TypeNeighborhood, TypeSight)
	}
}
