package service

import (
	"context"

	"wayfare/internal/models"
	"wayfare/internal/store"
	"wayfare/pkg/mapview"
)

type PreferenceStore interface {
	PreferenceReader
	Save(ctx context.Context, p *models.UserPreference) error
}

type FeedPlaces interface {
	GetByID(ctx context.Context, id string) (*models.Place, error)
	ByIDs(ctx context.Context, ids []string) ([]models.Place, error)
	WithTag(ctx context.Context, tagID string) ([]models.Place, error)
}

type TagLookup interface {
	All(ctx context.Context) ([]models.Tag, error)
	GetByID(ctx context.Context, id string) (*models.Tag, error)
}

// FeedSection groups the places carrying one followed tag.
type FeedSection struct {
	Tag    string             `json:"tag"`
	Label  string             `json:"label"`
	Places []mapview.Place    `json:"places"`
	Scores map[string]float64 `json:"scores"`
}

type Feed struct {
	Followed []mapview.Place `json:"followed"`
	Sections []FeedSection   `json:"sections"`
}

type FeedService struct {
	tx     Transactor
	prefs  PreferenceStore
	places FeedPlaces
	tags   TagLookup
}

func NewFeedService(tx Transactor, prefs PreferenceStore, places FeedPlaces, tags TagLookup) *FeedService {
	return &FeedService{tx: tx, prefs: prefs, places: places, tags: tags}
}

// Preferences returns the user's row, or an unsaved empty one.
func (s *FeedService) Preferences(ctx context.Context, userID string) (*models.UserPreference, error) {
	p, err := s.prefs.GetByUser(ctx, userID)
	if err != nil {
		if store.IsNotFound(err) {
			return &models.UserPreference{UserID: userID, Tags: models.StringList{}, Places: models.StringList{}}, nil
		}
		return nil, err
	}
	return p, nil
}

func (s *FeedService) update(ctx context.Context, userID string, fn func(p *models.UserPreference) bool) (*models.UserPreference, error) {
	var out *models.UserPreference
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		p, err := s.Preferences(ctx, userID)
		if err != nil {
			return err
		}
		out = p
		if !fn(p) {
			return nil
		}
		return s.prefs.Save(ctx, p)
	})
	return out, err
}

func (s *FeedService) FollowTag(ctx context.Context, userID, tagID string) (*models.UserPreference, error) {
	if _, err := s.tags.GetByID(ctx, tagID); err != nil {
		return nil, err
	}
	return s.update(ctx, userID, func(p *models.UserPreference) bool {
		if p.Tags.Contains(tagID) {
			return false
		}
		p.Tags = append(p.Tags, tagID)
		return true
	})
}

func (s *FeedService) UnfollowTag(ctx context.Context, userID, tagID string) (*models.UserPreference, error) {
	return s.update(ctx, userID, func(p *models.UserPreference) bool {
		return remove(&p.Tags, tagID)
	})
}

func (s *FeedService) FollowPlace(ctx context.Context, userID, placeID string) (*models.UserPreference, error) {
	if _, err := s.places.GetByID(ctx, placeID); err != nil {
		return nil, err
	}
	return s.update(ctx, userID, func(p *models.UserPreference) bool {
		if p.Places.Contains(placeID) {
			return false
		}
		p.Places = append(p.Places, placeID)
		return true
	})
}

func (s *FeedService) UnfollowPlace(ctx context.Context, userID, placeID string) (*models.UserPreference, error) {
	return s.update(ctx, userID, func(p *models.UserPreference) bool {
		return remove(&p.Places, placeID)
	})
}

func remove(list *models.StringList, v string) bool {
	for i, x := range *list {
		if x == v {
			*list = append((*list)[:i], (*list)[i+1:]...)
			return true
		}
	}
	return false
}

// Feed returns the followed places plus one section per followed tag,
// keyed by the tag's identifier. Sections keep the order the tags were
// followed in; places inside a section are sorted by match score.
func (s *FeedService) Feed(ctx context.Context, userID string) (*Feed, error) {
	pref, err := s.Preferences(ctx, userID)
	if err != nil {
		return nil, err
	}
	prefs := mapview.NewPreferences(pref.Tags, pref.Places)
	feed := &Feed{Followed: []mapview.Place{}, Sections: []FeedSection{}}

	if len(pref.Places) > 0 {
		records, err := s.places.ByIDs(ctx, pref.Places)
		if err != nil {
			return nil, err
		}
		feed.Followed = NormalizePlaces(records)
	}
	if len(pref.Tags) == 0 {
		return feed, nil
	}
	tags, err := s.tags.All(ctx)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]models.Tag, len(tags))
	for _, t := range tags {
		byID[t.ID] = t
	}
	for _, tagID := range pref.Tags {
		tag, ok := byID[tagID]
		if !ok || !tag.Active {
			continue
		}
		records, err := s.places.WithTag(ctx, tagID)
		if err != nil {
			return nil, err
		}
		places := NormalizePlaces(records)
		scores := mapview.MatchScores(places, prefs)
		feed.Sections = append(feed.Sections, FeedSection{
			Tag:    tag.Identifier,
			Label:  tag.Label,
			Places: mapview.SortPlaces(places, mapview.SortMatch, scores),
			Scores: scores,
		})
	}
	return feed, nil
}
