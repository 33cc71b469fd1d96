// Package geojson renders explorer markers and list routes as GeoJSON.
package geojson

import (
	"wayfare/pkg/mapview"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// PlaceFeature returns a Point feature for p, or nil when p has no location.
func PlaceFeature(p mapview.Place) *geojson.Feature {
	if p.Location == nil {
		return nil
	}
	f := geojson.NewFeature(orb.Point{p.Location.Lng, p.Location.Lat})
	f.ID = p.ID
	f.Properties["name"] = p.Name
	f.Properties["type"] = string(p.Type)
	if p.Slug != "" {
		f.Properties["slug"] = p.Slug
	}
	if p.Country != "" {
		f.Properties["country"] = p.Country
	}
	if p.Rating != nil {
		f.Properties["rating"] = *p.Rating
	}
	if p.ImageURL != "" {
		f.Properties["image_url"] = p.ImageURL
	}
	return f
}

// Markers builds a FeatureCollection from already rendered place features.
func Markers(features []*geojson.Feature) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, f := range features {
		if f != nil {
			fc.Append(f)
		}
	}
	return fc
}

// Route returns the list's places as Point features followed by a
// LineString joining them in the given order. Places without coordinates
// are skipped; the line is omitted when fewer than two points remain.
func Route(listID string, places []mapview.Place) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	line := make(orb.LineString, 0, len(places))
	for i, p := range places {
		f := PlaceFeature(p)
		if f == nil {
			continue
		}
		f.Properties["rank"] = i + 1
		fc.Append(f)
		line = append(line, orb.Point{p.Location.Lng, p.Location.Lat})
	}
	if len(line) >= 2 {
		route := geojson.NewFeature(line)
		route.ID = listID
		route.Properties["kind"] = "route"
		fc.Append(route)
	}
	return fc
}
