package mapview

import (
	"sort"
	"strings"
)

// SortOrder selects the explicit ordering applied after filtering.
type SortOrder string

const (
	SortNone      SortOrder = ""
	SortAlphaAsc  SortOrder = "alpha_asc"
	SortAlphaDesc SortOrder = "alpha_desc"
	SortCostAsc   SortOrder = "cost_asc"
	SortCostDesc  SortOrder = "cost_desc"
	SortPopular   SortOrder = "popular"
	SortMatch     SortOrder = "match"
)

func ParseSortOrder(s string) (SortOrder, bool) {
	switch o := SortOrder(strings.TrimSpace(s)); o {
	case SortNone, SortAlphaAsc, SortAlphaDesc, SortCostAsc, SortCostDesc, SortPopular, SortMatch:
		return o, true
	}
	return "", false
}

// SortPlaces returns a sorted copy of places. Ties keep their input order.
// Places without a cost sort last in both cost orders; scores is only read
// for SortMatch and missing ids score zero.
func SortPlaces(places []Place, order SortOrder, scores map[string]float64) []Place {
	out := make([]Place, len(places))
	copy(out, places)
	var less func(a, b Place) bool
	switch order {
	case SortAlphaAsc:
		less = func(a, b Place) bool { return strings.ToLower(a.Name) < strings.ToLower(b.Name) }
	case SortAlphaDesc:
		less = func(a, b Place) bool { return strings.ToLower(a.Name) > strings.ToLower(b.Name) }
	case SortCostAsc:
		less = costLess(false)
	case SortCostDesc:
		less = costLess(true)
	case SortPopular:
		less = func(a, b Place) bool { return a.CrowdLevel > b.CrowdLevel }
	case SortMatch:
		less = func(a, b Place) bool { return scores[a.ID] > scores[b.ID] }
	default:
		return out
	}
	sort.SliceStable(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out
}

func costLess(desc bool) func(a, b Place) bool {
	return func(a, b Place) bool {
		switch {
		case a.Cost == nil:
			return false
		case b.Cost == nil:
			return true
		case desc:
			return *a.Cost > *b.Cost
		default:
			return *a.Cost < *b.Cost
		}
	}
}
