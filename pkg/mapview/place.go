// Package mapview decides which places the explorer map shows for a given
// zoom level, viewport and filter state.
package mapview

import (
	"encoding/json"
	"sort"
)

// PlaceType is the granularity of a place.
type PlaceType string

const (
	TypeCountry      PlaceType = "country"
	TypeRegion       PlaceType = "region"
	TypeCity         PlaceType = "city"
	TypeNeighborhood PlaceType = "neighborhood"
	TypeSight        PlaceType = "sight"
)

// AllTypes lists place types from coarsest to finest.
var AllTypes = []PlaceType{TypeCountry, TypeRegion, TypeCity, TypeNeighborhood, TypeSight}

func typeRank(t PlaceType) int {
	for i, v := range AllTypes {
		if v == t {
			return i
		}
	}
	return len(AllTypes)
}

// ParsePlaceType accepts the canonical lower-case names only.
func ParsePlaceType(s string) (PlaceType, bool) {
	t := PlaceType(s)
	return t, typeRank(t) < len(AllTypes)
}

// Point is a WGS84 coordinate in degrees.
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Place is the normalized view of a place record used by the pipeline.
// Location is nil when the record has no usable coordinates.
type Place struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug,omitempty"`
	Type        PlaceType `json:"type"`
	Country     string    `json:"country,omitempty"`
	Description string    `json:"description,omitempty"`
	Location    *Point    `json:"location,omitempty"`
	Population  string    `json:"population,omitempty"`
	Rating      *float64  `json:"rating,omitempty"`
	Cost        *float64  `json:"cost,omitempty"`
	CrowdLevel  int       `json:"crowd_level,omitempty"`
	TagIDs      []string  `json:"tag_ids,omitempty"`
	ImageURL    string    `json:"image_url,omitempty"`
}

// TypeSet is a set of place types. The zero value is an empty set.
type TypeSet map[PlaceType]struct{}

func NewTypeSet(types ...PlaceType) TypeSet {
	s := make(TypeSet, len(types))
	for _, t := range types {
		s[t] = struct{}{}
	}
	return s
}

func (s TypeSet) Has(t PlaceType) bool {
	_, ok := s[t]
	return ok
}

// Slice returns the members ordered from coarsest to finest.
func (s TypeSet) Slice() []PlaceType {
	out := make([]PlaceType, 0, len(s))
	for t := range s {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return typeRank(out[i]) < typeRank(out[j]) })
	return out
}

func (s TypeSet) Equal(o TypeSet) bool {
	if len(s) != len(o) {
		return false
	}
	for t := range s {
		if !o.Has(t) {
			return false
		}
	}
	return true
}

func (s TypeSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Slice())
}

func (s *TypeSet) UnmarshalJSON(data []byte) error {
	var types []PlaceType
	if err := json.Unmarshal(data, &types); err != nil {
		return err
	}
	*s = NewTypeSet(types...)
	return nil
}
