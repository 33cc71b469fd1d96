package mapview

// Query is one evaluation of the explorer pipeline.
type Query struct {
	Zoom    float64
	Bounds  *Bounds
	Filters Filters
	Prefs   Preferences
}

// Result is what the map renders for a Query.
type Result struct {
	Zoom         float64            `json:"zoom"`
	VisibleTypes TypeSet            `json:"visible_types"`
	Places       []Place            `json:"places"`
	Scores       map[string]float64 `json:"scores,omitempty"`
}

// Run classifies the zoom, thins the candidates and applies the viewport and
// UI filters, then sorts when the filters ask for it. A population category
// overrides the zoom classification: only cities are eligible then.
func Run(places []Place, q Query) Result {
	active := VisibleTypesForZoom(q.Zoom)
	if q.Filters.Population != nil {
		active = NewTypeSet(TypeCity)
	}
	thinned := FilterByZoom(places, q.Zoom, q.Filters.Population)
	visible := VisibleInViewport(thinned, q.Bounds, active, q.Filters)

	res := Result{Zoom: q.Zoom, VisibleTypes: active, Places: visible}
	if !q.Prefs.Empty() {
		res.Scores = MatchScores(visible, q.Prefs)
	}
	if q.Filters.Sort != SortNone {
		res.Places = SortPlaces(visible, q.Filters.Sort, res.Scores)
	}
	return res
}
