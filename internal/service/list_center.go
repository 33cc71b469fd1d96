package service

import (
	"context"
	"fmt"
	"log"

	"wayfare/internal/metrics"
	"wayfare/internal/models"
	"wayfare/pkg/location"
)

type ListPlaceReader interface {
	// ByList returns rows in rank order with Place expanded; a row whose
	// place is gone has a nil Place.
	ByList(ctx context.Context, listID string) ([]models.ListPlace, error)
}

type ListLocationWriter interface {
	Upsert(ctx context.Context, listID string, lat, lng float64) error
}

// ListCenter keeps list_locations in step with list membership.
type ListCenter struct {
	listPlaces ListPlaceReader
	locations  ListLocationWriter
}

func NewListCenter(listPlaces ListPlaceReader, locations ListLocationWriter) *ListCenter {
	return &ListCenter{listPlaces: listPlaces, locations: locations}
}

// RecomputeListCenter averages the coordinates of the list's resolvable
// places and upserts the result. A failed read aborts without writing. When
// nothing resolves the existing row is left as is.
func (c *ListCenter) RecomputeListCenter(ctx context.Context, listID string) error {
	rows, err := c.listPlaces.ByList(ctx, listID)
	if err != nil {
		metrics.ListCenterRecomputes.WithLabelValues(metrics.OutcomeError).Inc()
		log.Printf("[LISTS] center list=%s: fetch failed: %v", listID, err)
		return fmt.Errorf("recompute center of %s: %w", listID, err)
	}
	points := make([]location.Coordinate, 0, len(rows))
	for _, lp := range rows {
		if lp.Place == nil || !lp.Place.HasLocation() {
			continue
		}
		points = append(points, location.Coordinate{Lat: *lp.Place.Latitude, Lng: *lp.Place.Longitude})
	}
	center, ok := location.Centroid(points)
	if !ok {
		metrics.ListCenterRecomputes.WithLabelValues(metrics.OutcomeEmpty).Inc()
		log.Printf("[LISTS] center list=%s: no resolvable places (%d rows), keeping previous", listID, len(rows))
		return nil
	}
	if err := c.locations.Upsert(ctx, listID, center.Lat, center.Lng); err != nil {
		metrics.ListCenterRecomputes.WithLabelValues(metrics.OutcomeError).Inc()
		log.Printf("[LISTS] center list=%s: write failed: %v", listID, err)
		return fmt.Errorf("recompute center of %s: %w", listID, err)
	}
	metrics.ListCenterRecomputes.WithLabelValues(metrics.OutcomeWritten).Inc()
	return nil
}
