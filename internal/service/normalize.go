package service

import (
	"errors"
	"fmt"
	"log"
	"regexp"
	"strings"

	"wayfare/internal/models"
	"wayfare/pkg/location"
	"wayfare/pkg/mapview"
)

var errMalformedPlace = errors.New("malformed place record")

// NormalizePlace converts a stored record into the pipeline's Place. Records
// without an id or with an unknown type are rejected; nil or (0,0)
// coordinates become "no location"; out-of-range coordinates are rejected.
func NormalizePlace(m models.Place) (mapview.Place, error) {
	if strings.TrimSpace(m.ID) == "" {
		return mapview.Place{}, fmt.Errorf("%w: empty id", errMalformedPlace)
	}
	t, ok := mapview.ParsePlaceType(strings.ToLower(strings.TrimSpace(m.Type)))
	if !ok {
		return mapview.Place{}, fmt.Errorf("%w: %s has unknown type %q", errMalformedPlace, m.ID, m.Type)
	}
	p := mapview.Place{
		ID:          m.ID,
		Name:        m.Name,
		Slug:        m.Slug,
		Type:        t,
		Country:     m.Country,
		Description: m.Description,
		Population:  m.Population,
		Rating:      m.Rating,
		Cost:        m.Cost,
		CrowdLevel:  m.CrowdLevel,
		TagIDs:      []string(m.Tags),
		ImageURL:    m.ImageURL,
	}
	if m.HasLocation() {
		if !location.ValidCoordinate(*m.Latitude, *m.Longitude) {
			return mapview.Place{}, fmt.Errorf("%w: %s has coordinates out of range", errMalformedPlace, m.ID)
		}
		p.Location = &mapview.Point{Lat: *m.Latitude, Lng: *m.Longitude}
	}
	return p, nil
}

// NormalizePlaces drops and logs malformed records.
func NormalizePlaces(records []models.Place) []mapview.Place {
	out := make([]mapview.Place, 0, len(records))
	for _, r := range records {
		p, err := NormalizePlace(r)
		if err != nil {
			log.Printf("[EXPLORE] quarantined record: %v", err)
			continue
		}
		out = append(out, p)
	}
	return out
}

var slugStrip = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify lower-cases s and joins its alphanumeric runs with dashes.
func Slugify(s string) string {
	return strings.Trim(slugStrip.ReplaceAllString(strings.ToLower(s), "-"), "-")
}
