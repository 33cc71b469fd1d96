package service

import (
	"fmt"
	"math"
	"strings"

	"wayfare/pkg/mapview"
)

// FilterInput is the wire form of the explorer filters, shared by the HTTP
// query string and the map channel.
type FilterInput struct {
	Search     string   `json:"search" form:"q"`
	Types      []string `json:"types" form:"types"`
	MinRating  float64  `json:"min_rating" form:"min_rating"`
	Population string   `json:"population" form:"population"`
	Sort       string   `json:"sort" form:"sort"`
}

func (in FilterInput) Parse() (mapview.Filters, error) {
	f := mapview.Filters{Search: strings.TrimSpace(in.Search)}
	for _, raw := range in.Types {
		for _, part := range strings.Split(raw, ",") {
			part = strings.ToLower(strings.TrimSpace(part))
			if part == "" {
				continue
			}
			t, ok := mapview.ParsePlaceType(part)
			if !ok {
				return mapview.Filters{}, fmt.Errorf("%w: %q", ErrInvalidPlaceType, part)
			}
			if f.Types == nil {
				f.Types = mapview.NewTypeSet()
			}
			f.Types[t] = struct{}{}
		}
	}
	if math.IsNaN(in.MinRating) || in.MinRating < 0 || in.MinRating > 5 {
		return mapview.Filters{}, fmt.Errorf("%w: min_rating must be between 0 and 5", ErrInvalidFilter)
	}
	f.MinRating = in.MinRating
	if in.Population != "" {
		c, ok := mapview.ParsePopulationCategory(in.Population)
		if !ok {
			return mapview.Filters{}, fmt.Errorf("%w: unknown population %q", ErrInvalidFilter, in.Population)
		}
		f.Population = &c
	}
	order, ok := mapview.ParseSortOrder(in.Sort)
	if !ok {
		return mapview.Filters{}, fmt.Errorf("%w: unknown sort %q", ErrInvalidFilter, in.Sort)
	}
	f.Sort = order
	return f, nil
}
