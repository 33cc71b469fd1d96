package mapview

// Preferences holds what a user follows.
type Preferences struct {
	Tags   map[string]struct{}
	Places map[string]struct{}
}

func NewPreferences(tagIDs, placeIDs []string) Preferences {
	p := Preferences{
		Tags:   make(map[string]struct{}, len(tagIDs)),
		Places: make(map[string]struct{}, len(placeIDs)),
	}
	for _, id := range tagIDs {
		p.Tags[id] = struct{}{}
	}
	for _, id := range placeIDs {
		p.Places[id] = struct{}{}
	}
	return p
}

func (p Preferences) Empty() bool {
	return len(p.Tags) == 0 && len(p.Places) == 0
}

// MatchScore ranks a place against preferences: 3 for a followed place,
// 1 per followed tag, plus rating/5.
func MatchScore(pl Place, prefs Preferences) float64 {
	score := 0.0
	if _, ok := prefs.Places[pl.ID]; ok {
		score += 3
	}
	for _, t := range pl.TagIDs {
		if _, ok := prefs.Tags[t]; ok {
			score++
		}
	}
	if pl.Rating != nil {
		score += *pl.Rating / 5
	}
	return score
}

func MatchScores(places []Place, prefs Preferences) map[string]float64 {
	out := make(map[string]float64, len(places))
	for _, p := range places {
		out[p.ID] = MatchScore(p, prefs)
	}
	return out
}
