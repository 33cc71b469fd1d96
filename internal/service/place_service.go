package service

import (
	"context"
	"fmt"
	"log"
	"strings"

	"wayfare/internal/models"
	"wayfare/pkg/location"
	"wayfare/pkg/mapview"
)

type PlaceStore interface {
	GetByID(ctx context.Context, id string) (*models.Place, error)
	GetBySlug(ctx context.Context, slug string) (*models.Place, error)
	Create(ctx context.Context, p *models.Place) error
	Update(ctx context.Context, p *models.Place) error
	Delete(ctx context.Context, id string) error
	// SlugTaken reports slugs held by live or deleted places.
	SlugTaken(ctx context.Context, slug string) (bool, error)
}

// Geocoder resolves coordinates for places created without them.
type Geocoder interface {
	Resolve(ctx context.Context, name, country string) (lat, lng float64, ok bool, err error)
}

type PlaceInput struct {
	Name        string   `json:"name" binding:"required,max=255"`
	Slug        string   `json:"slug"`
	Type        string   `json:"type" binding:"required"`
	Country     string   `json:"country"`
	Description string   `json:"description"`
	Lat         *float64 `json:"lat"`
	Lng         *float64 `json:"lng"`
	Population  string   `json:"population"`
	Rating      *float64 `json:"rating"`
	Cost        *float64 `json:"cost"`
	CrowdLevel  int      `json:"crowd_level"`
	Tags        []string `json:"tags"`
	ImageURL    string   `json:"image_url"`
}

// PlacePatch carries the editable fields; nil means unchanged.
type PlacePatch struct {
	Name        *string   `json:"name"`
	Type        *string   `json:"type"`
	Country     *string   `json:"country"`
	Description *string   `json:"description"`
	Lat         *float64  `json:"lat"`
	Lng         *float64  `json:"lng"`
	Population  *string   `json:"population"`
	Rating      *float64  `json:"rating"`
	Cost        *float64  `json:"cost"`
	CrowdLevel  *int      `json:"crowd_level"`
	Tags        *[]string `json:"tags"`
	ImageURL    *string   `json:"image_url"`
}

type PlaceService struct {
	places   PlaceStore
	explore  *ExploreService
	geocoder Geocoder
	onChange func()
}

func NewPlaceService(places PlaceStore, explore *ExploreService, geocoder Geocoder) *PlaceService {
	return &PlaceService{places: places, explore: explore, geocoder: geocoder}
}

// OnChange registers fn to run after every successful place write.
func (s *PlaceService) OnChange(fn func()) { s.onChange = fn }

func (s *PlaceService) Get(ctx context.Context, id string) (*models.Place, error) {
	return s.places.GetByID(ctx, id)
}

func (s *PlaceService) Create(ctx context.Context, in PlaceInput) (*models.Place, error) {
	t, ok := mapview.ParsePlaceType(strings.ToLower(in.Type))
	if !ok {
		return nil, ErrInvalidPlaceType
	}
	if (in.Lat == nil) != (in.Lng == nil) {
		return nil, ErrInvalidCoordinates
	}
	if in.Lat != nil && !location.ValidCoordinate(*in.Lat, *in.Lng) {
		return nil, ErrInvalidCoordinates
	}
	slug, err := s.uniqueSlug(ctx, in.Slug, in.Name)
	if err != nil {
		return nil, err
	}
	p := &models.Place{
		Name:        strings.TrimSpace(in.Name),
		Slug:        slug,
		Type:        string(t),
		Country:     in.Country,
		Description: in.Description,
		Latitude:    in.Lat,
		Longitude:   in.Lng,
		Population:  in.Population,
		Rating:      in.Rating,
		Cost:        in.Cost,
		CrowdLevel:  in.CrowdLevel,
		Tags:        models.StringList(in.Tags),
		ImageURL:    in.ImageURL,
	}
	s.locate(ctx, p)
	if err := s.places.Create(ctx, p); err != nil {
		return nil, err
	}
	log.Printf("[EXPLORE] place created id=%s slug=%s type=%s", p.ID, p.Slug, p.Type)
	s.changed(ctx, *p)
	return p, nil
}

// locate fills missing coordinates from the geocoder. Failures leave the
// place without a location.
func (s *PlaceService) locate(ctx context.Context, p *models.Place) {
	if s.geocoder == nil || p.HasLocation() {
		return
	}
	lat, lng, ok, err := s.geocoder.Resolve(ctx, p.Name, p.Country)
	if err != nil {
		log.Printf("[GEOCODE] %s: %v", p.Name, err)
		return
	}
	if ok {
		p.Latitude, p.Longitude = &lat, &lng
	}
}

func (s *PlaceService) Update(ctx context.Context, id string, patch PlacePatch) (*models.Place, error) {
	p, err := s.places.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	before := *p
	if patch.Type != nil && !strings.EqualFold(*patch.Type, p.Type) {
		return nil, ErrTypeImmutable
	}
	if patch.Name != nil {
		p.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.Country != nil {
		p.Country = *patch.Country
	}
	if patch.Description != nil {
		p.Description = *patch.Description
	}
	if patch.Lat != nil || patch.Lng != nil {
		if patch.Lat == nil || patch.Lng == nil || !location.ValidCoordinate(*patch.Lat, *patch.Lng) {
			return nil, ErrInvalidCoordinates
		}
		p.Latitude, p.Longitude = patch.Lat, patch.Lng
	}
	if patch.Population != nil {
		p.Population = *patch.Population
	}
	if patch.Rating != nil {
		p.Rating = patch.Rating
	}
	if patch.Cost != nil {
		p.Cost = patch.Cost
	}
	if patch.CrowdLevel != nil {
		p.CrowdLevel = *patch.CrowdLevel
	}
	if patch.Tags != nil {
		p.Tags = models.StringList(*patch.Tags)
	}
	if patch.ImageURL != nil {
		p.ImageURL = *patch.ImageURL
	}
	if err := s.places.Update(ctx, p); err != nil {
		return nil, err
	}
	s.changed(ctx, before)
	return p, nil
}

func (s *PlaceService) Delete(ctx context.Context, id string) error {
	p, err := s.places.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.places.Delete(ctx, id); err != nil {
		return err
	}
	log.Printf("[EXPLORE] place deleted id=%s", id)
	s.changed(ctx, *p)
	return nil
}

func (s *PlaceService) changed(ctx context.Context, p models.Place) {
	if s.explore != nil {
		if np, err := NormalizePlace(p); err == nil {
			s.explore.Invalidate(ctx, np)
		} else {
			s.explore.Invalidate(ctx)
		}
	}
	if s.onChange != nil {
		s.onChange()
	}
}

// uniqueSlug derives a slug from want (or name) and suffixes -2, -3, ...
// until no place, live or deleted, holds it.
func (s *PlaceService) uniqueSlug(ctx context.Context, want, name string) (string, error) {
	base := Slugify(want)
	if base == "" {
		base = Slugify(name)
	}
	if base == "" {
		return "", ErrInvalidName
	}
	return firstFreeSlug(base, func(slug string) (bool, error) {
		return s.places.SlugTaken(ctx, slug)
	})
}

const maxSlugAttempts = 50

func firstFreeSlug(base string, taken func(string) (bool, error)) (string, error) {
	for i := 1; i <= maxSlugAttempts; i++ {
		slug := base
		if i > 1 {
			slug = fmt.Sprintf("%s-%d", base, i)
		}
		used, err := taken(slug)
		if err != nil {
			return "", err
		}
		if !used {
			return slug, nil
		}
	}
	return "", ErrSlugTaken
}
