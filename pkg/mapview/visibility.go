package mapview

// Baseline is the share of minor places shown at zoom.
func Baseline(zoom float64) float64 {
	return clamp(zoom/CityMaxZoom*0.8, 0.1, 1.0)
}

// VisibilityThreshold returns the probability-like threshold a place's
// StableRandom value must stay below to be shown at zoom.
func VisibilityThreshold(p Place, zoom float64) float64 {
	base := Baseline(zoom)
	switch p.Type {
	case TypeCountry:
		if zoom <= CountryMaxZoom {
			return 1.0
		}
		return clamp(base*2, 0, 1.0)
	case TypeRegion:
		if zoom > RegionMaxZoom {
			return 1.0
		}
		return clamp(base*1.5, 0, 1.0)
	case TypeCity:
		n, ok := ParsePopulation(p.Population)
		switch {
		case ok && n >= megacityMinPopulation:
			return 1.0
		case ok && n >= largeCityPopulation:
			return clamp(base*1.5, 0, 1.0)
		default:
			return base
		}
	case TypeNeighborhood, TypeSight:
		if zoom > CountryMaxZoom {
			return 0.9
		}
		return base * 0.5
	default:
		return 0
	}
}

// FilterByZoom thins places for the given zoom. With a population category
// only cities in that bucket are returned; otherwise each place is kept when
// its StableRandom value is below its VisibilityThreshold. Input order is
// preserved and the result is identical for identical input.
func FilterByZoom(places []Place, zoom float64, category *PopulationCategory) []Place {
	out := make([]Place, 0, len(places))
	for _, p := range places {
		if p.ID == "" || p.Type == "" {
			continue
		}
		if category != nil {
			if p.Type == TypeCity && category.MatchesPopulation(p.Population) {
				out = append(out, p)
			}
			continue
		}
		if StableRandom(p) < VisibilityThreshold(p, zoom) {
			out = append(out, p)
		}
	}
	return out
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
