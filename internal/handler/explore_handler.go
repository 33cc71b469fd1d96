package handler

import (
	"errors"
	"net/http"
	"strconv"

	"wayfare/config"
	"wayfare/internal/metrics"
	"wayfare/internal/middleware"
	"wayfare/internal/service"
	"wayfare/pkg/mapview"

	"github.com/gin-gonic/gin"
)

type ExploreHandler struct {
	explore *service.ExploreService
	mapCfg  *config.MapConfig
}

func NewExploreHandler(explore *service.ExploreService, mapCfg *config.MapConfig) *ExploreHandler {
	return &ExploreHandler{explore: explore, mapCfg: mapCfg}
}

// MapConfig handles GET /config/map; the values the map client boots with.
func (h *ExploreHandler) MapConfig(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"api_base_url": h.mapCfg.APIBaseURL,
		"tile_token":   h.mapCfg.TileToken,
		"place_types":  mapview.AllTypes,
	})
}

func queryZoom(c *gin.Context) (float64, error) {
	raw := c.Query("zoom")
	if raw == "" {
		return 0, errors.New("zoom is required")
	}
	z, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, service.ErrInvalidZoom
	}
	return z, nil
}

// queryBounds reads south/west/north/east. All four or none must be given.
func queryBounds(c *gin.Context) (*mapview.Bounds, error) {
	keys := []string{"south", "west", "north", "east"}
	vals := make([]float64, 0, len(keys))
	for _, k := range keys {
		raw, ok := c.GetQuery(k)
		if !ok {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, mapview.ErrInvalidBounds
		}
		vals = append(vals, v)
	}
	switch len(vals) {
	case 0:
		return nil, nil
	case len(keys):
		b := &mapview.Bounds{South: vals[0], West: vals[1], North: vals[2], East: vals[3]}
		return b, b.Validate()
	}
	return nil, mapview.ErrInvalidBounds
}

// VisibleTypes handles GET /map/visible-types?zoom=.
func (h *ExploreHandler) VisibleTypes(c *gin.Context) {
	zoom, err := queryZoom(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	types, err := h.explore.VisibleTypes(zoom)
	if err != nil {
		respondError(c, err, "failed to classify zoom")
		return
	}
	c.JSON(http.StatusOK, gin.H{"zoom": zoom, "visible_types": types})
}

// Places handles GET /map/places. With format=geojson the markers are
// returned as a FeatureCollection instead of place records.
func (h *ExploreHandler) Places(c *gin.Context) {
	zoom, err := queryZoom(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	bounds, err := queryBounds(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	var in service.FilterInput
	if err := c.ShouldBindQuery(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	filters, err := in.Parse()
	if err != nil {
		respondError(c, err, "invalid filters")
		return
	}
	res, err := h.explore.Visible(c.Request.Context(), service.ViewportQuery{
		Zoom:    zoom,
		Bounds:  bounds,
		Filters: filters,
		UserID:  middleware.GetUserID(c),
	})
	if err != nil {
		respondError(c, err, "failed to load places")
		return
	}
	metrics.MarkersRendered.WithLabelValues("http").Observe(float64(len(res.Places)))
	if c.Query("format") == "geojson" {
		c.JSON(http.StatusOK, h.explore.Markers(c.Request.Context(), res.Places))
		return
	}
	c.JSON(http.StatusOK, res)
}

// Nearby handles GET /map/nearby?lat=&lng=&radius_km=&limit=&types=.
func (h *ExploreHandler) Nearby(c *gin.Context) {
	lat, errLat := strconv.ParseFloat(c.Query("lat"), 64)
	lng, errLng := strconv.ParseFloat(c.Query("lng"), 64)
	if errLat != nil || errLng != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "lat and lng are required"})
		return
	}
	radiusKm, _ := strconv.ParseFloat(c.DefaultQuery("radius_km", "10"), 64)
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	filters, err := service.FilterInput{Types: c.QueryArray("types")}.Parse()
	if err != nil {
		respondError(c, err, "invalid filters")
		return
	}
	results, err := h.explore.Nearby(c.Request.Context(), lat, lng, radiusKm, limit, filters.Types)
	if err != nil {
		respondError(c, err, "nearby lookup failed")
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": results, "radius_km": radiusKm})
}
