package mapview

import (
	"errors"
	"strings"
)

var ErrInvalidBounds = errors.New("invalid bounds")

// Bounds is the geographic rectangle visible on the map. West may exceed
// East when the viewport crosses the antimeridian.
type Bounds struct {
	South float64 `json:"south"`
	West  float64 `json:"west"`
	North float64 `json:"north"`
	East  float64 `json:"east"`
}

func (b Bounds) Validate() error {
	if b.South > b.North || b.South < -90 || b.North > 90 {
		return ErrInvalidBounds
	}
	if b.West < -180 || b.West > 180 || b.East < -180 || b.East > 180 {
		return ErrInvalidBounds
	}
	return nil
}

func (b Bounds) Contains(pt Point) bool {
	if pt.Lat < b.South || pt.Lat > b.North {
		return false
	}
	if b.West <= b.East {
		return pt.Lng >= b.West && pt.Lng <= b.East
	}
	return pt.Lng >= b.West || pt.Lng <= b.East
}

// Center returns the midpoint of the rectangle.
func (b Bounds) Center() Point {
	east := b.East
	if b.West > b.East {
		east += 360
	}
	lng := (b.West + east) / 2
	if lng > 180 {
		lng -= 360
	}
	return Point{Lat: (b.South + b.North) / 2, Lng: lng}
}

// Filters is the explorer filter state chosen in the UI.
type Filters struct {
	Search     string              `json:"search,omitempty"`
	Types      TypeSet             `json:"types,omitempty"`
	MinRating  float64             `json:"min_rating,omitempty"`
	Population *PopulationCategory `json:"population,omitempty"`
	Sort       SortOrder           `json:"sort,omitempty"`
}

// VisibleInViewport keeps the places that have coordinates, lie inside
// bounds (skipped when nil), belong to activeTypes and pass the UI filters.
// An empty type set means no type restriction. Input order is preserved.
func VisibleInViewport(places []Place, bounds *Bounds, activeTypes TypeSet, f Filters) []Place {
	query := strings.ToLower(strings.TrimSpace(f.Search))
	out := make([]Place, 0, len(places))
	for _, p := range places {
		if p.Location == nil {
			continue
		}
		if len(activeTypes) > 0 && !activeTypes.Has(p.Type) {
			continue
		}
		if len(f.Types) > 0 && !f.Types.Has(p.Type) {
			continue
		}
		if f.MinRating > 0 && (p.Rating == nil || *p.Rating < f.MinRating) {
			continue
		}
		if bounds != nil && !bounds.Contains(*p.Location) {
			continue
		}
		if f.Population != nil && !f.Population.MatchesPopulation(p.Population) {
			continue
		}
		if query != "" && !matchesSearch(p, query) {
			continue
		}
		out = append(out, p)
	}
	return out
}

func matchesSearch(p Place, query string) bool {
	return strings.Contains(strings.ToLower(p.Name), query) ||
		strings.Contains(strings.ToLower(p.Description), query) ||
		strings.Contains(string(p.Type), query)
}
