package service

import (
	"context"
	"fmt"
	"log"
	"math"
	"sort"
	"time"

	"wayfare/internal/cache"
	"wayfare/internal/models"
	"wayfare/internal/store"
	"wayfare/pkg/geojson"
	"wayfare/pkg/location"
	"wayfare/pkg/mapview"
	"wayfare/pkg/proximity"

	orbjson "github.com/paulmach/orb/geojson"
)

const catalogKey = "catalog:places"

type PlaceCatalog interface {
	All(ctx context.Context) ([]models.Place, error)
}

type PreferenceReader interface {
	GetByUser(ctx context.Context, userID string) (*models.UserPreference, error)
}

type ExploreService struct {
	places PlaceCatalog
	prefs  PreferenceReader
	cache  cache.Cache
	ttl    time.Duration
}

func NewExploreService(places PlaceCatalog, prefs PreferenceReader, c cache.Cache, ttl time.Duration) *ExploreService {
	return &ExploreService{places: places, prefs: prefs, cache: c, ttl: ttl}
}

// ViewportQuery is one map refresh. UserID is optional and only feeds the
// preference score.
type ViewportQuery struct {
	Zoom    float64
	Bounds  *mapview.Bounds
	Filters mapview.Filters
	UserID  string
}

func (s *ExploreService) VisibleTypes(zoom float64) (mapview.TypeSet, error) {
	if !mapview.ValidZoom(zoom) {
		return nil, ErrInvalidZoom
	}
	return mapview.VisibleTypesForZoom(zoom), nil
}

// Visible runs the explorer pipeline over the cached catalog.
func (s *ExploreService) Visible(ctx context.Context, q ViewportQuery) (*mapview.Result, error) {
	if !mapview.ValidZoom(q.Zoom) {
		return nil, ErrInvalidZoom
	}
	if q.Bounds != nil {
		if err := q.Bounds.Validate(); err != nil {
			return nil, err
		}
	}
	catalog, err := s.Catalog(ctx)
	if err != nil {
		return nil, err
	}
	var prefs mapview.Preferences
	if q.UserID != "" {
		if prefs, err = s.Preferences(ctx, q.UserID); err != nil {
			return nil, err
		}
	}
	res := mapview.Run(catalog, mapview.Query{
		Zoom:    q.Zoom,
		Bounds:  q.Bounds,
		Filters: q.Filters,
		Prefs:   prefs,
	})
	return &res, nil
}

// Preferences returns the user's followed tags and places; a user who never
// followed anything gets empty preferences.
func (s *ExploreService) Preferences(ctx context.Context, userID string) (mapview.Preferences, error) {
	p, err := s.prefs.GetByUser(ctx, userID)
	if err != nil {
		if store.IsNotFound(err) {
			return mapview.Preferences{}, nil
		}
		return mapview.Preferences{}, err
	}
	return mapview.NewPreferences(p.Tags, p.Places), nil
}

// Catalog returns every well-formed place, from cache when possible.
func (s *ExploreService) Catalog(ctx context.Context) ([]mapview.Place, error) {
	var cached []mapview.Place
	if ok, err := cache.GetJSON(ctx, s.cache, catalogKey, &cached); err != nil {
		log.Printf("[CACHE] catalog read: %v", err)
	} else if ok {
		return cached, nil
	}
	records, err := s.places.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	catalog := NormalizePlaces(records)
	if err := cache.SetJSON(ctx, s.cache, catalogKey, catalog, s.ttl); err != nil {
		log.Printf("[CACHE] catalog write: %v", err)
	}
	return catalog, nil
}

// Invalidate drops the catalog and the cached feature of each given place.
func (s *ExploreService) Invalidate(ctx context.Context, places ...mapview.Place) {
	keys := []string{catalogKey}
	for _, p := range places {
		keys = append(keys, featureKey(p))
	}
	if err := s.cache.Delete(ctx, keys...); err != nil {
		log.Printf("[CACHE] invalidate: %v", err)
	}
}

func featureKey(p mapview.Place) string {
	return "feature:" + string(p.Type) + ":" + p.ID
}

// Feature returns the GeoJSON marker of p, cached by type and id.
func (s *ExploreService) Feature(ctx context.Context, p mapview.Place) *orbjson.Feature {
	key := featureKey(p)
	if raw, ok, err := s.cache.Get(ctx, key); err == nil && ok {
		if f, err := orbjson.UnmarshalFeature(raw); err == nil {
			return f
		}
	}
	f := geojson.PlaceFeature(p)
	if raw, err := f.MarshalJSON(); err == nil {
		if err := s.cache.Set(ctx, key, raw, s.ttl); err != nil {
			log.Printf("[CACHE] feature %s: %v", key, err)
		}
	}
	return f
}

// Markers renders places as a FeatureCollection; places without a location
// are left out.
func (s *ExploreService) Markers(ctx context.Context, places []mapview.Place) *orbjson.FeatureCollection {
	features := make([]*orbjson.Feature, 0, len(places))
	for _, p := range places {
		if p.Location == nil {
			continue
		}
		features = append(features, s.Feature(ctx, p))
	}
	return geojson.Markers(features)
}

// NearbyPlace is a catalog place with its distance from the query point.
// Closeness (0-100) and Proximity rate that distance against the radius.
type NearbyPlace struct {
	Place      mapview.Place  `json:"place"`
	DistanceKm float64        `json:"distance_km"`
	Closeness  float64        `json:"closeness"`
	Proximity  proximity.Band `json:"proximity"`
}

const (
	DefaultNearbyRadiusKm = 10.0
	MaxNearbyRadiusKm     = 500.0
	MaxNearbyResults      = 100
)

// Nearby returns located places within radiusKm of (lat, lng), closest
// first. An empty types set means every type.
func (s *ExploreService) Nearby(ctx context.Context, lat, lng, radiusKm float64, limit int, types mapview.TypeSet) ([]NearbyPlace, error) {
	if !location.ValidCoordinate(lat, lng) {
		return nil, ErrInvalidCoordinates
	}
	if radiusKm <= 0 || radiusKm > MaxNearbyRadiusKm {
		radiusKm = DefaultNearbyRadiusKm
	}
	if limit <= 0 || limit > MaxNearbyResults {
		limit = 20
	}
	catalog, err := s.Catalog(ctx)
	if err != nil {
		return nil, err
	}
	out := []NearbyPlace{}
	for _, p := range catalog {
		if p.Location == nil || (len(types) > 0 && !types.Has(p.Type)) {
			continue
		}
		d := location.HaversineKm(lat, lng, p.Location.Lat, p.Location.Lng)
		if d <= radiusKm {
			c := math.Round(proximity.Closeness(d, radiusKm))
			out = append(out, NearbyPlace{
				Place:      p,
				DistanceKm: math.Round(d*10) / 10,
				Closeness:  c,
				Proximity:  proximity.Of(c),
			})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].DistanceKm < out[j].DistanceKm })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
