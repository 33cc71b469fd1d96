package ws

import (
	"context"
	"encoding/json"
	"errors"
	"log"

	"wayfare/internal/metrics"
	"wayfare/internal/service"
	"wayfare/pkg/mapview"

	orbjson "github.com/paulmach/orb/geojson"
)

// Explorer answers viewport queries.
type Explorer interface {
	Visible(ctx context.Context, q service.ViewportQuery) (*mapview.Result, error)
	Markers(ctx context.Context, places []mapview.Place) *orbjson.FeatureCollection
}

// inbound is any client message; Type selects the fields that matter.
type inbound struct {
	Type    string              `json:"type"`
	Seq     int64               `json:"seq"`
	Zoom    *float64            `json:"zoom"`
	Bounds  *mapview.Bounds     `json:"bounds"`
	Filters service.FilterInput `json:"filters"`
}

// MarkersMessage answers a viewport message. Seq echoes the request so the
// client can drop responses that arrive after a newer viewport was sent.
type MarkersMessage struct {
	Type         string                     `json:"type"`
	Seq          int64                      `json:"seq"`
	Zoom         float64                    `json:"zoom"`
	VisibleTypes mapview.TypeSet            `json:"visible_types"`
	Places       []mapview.Place            `json:"places"`
	Scores       map[string]float64         `json:"scores,omitempty"`
	Markers      *orbjson.FeatureCollection `json:"markers"`
}

type errorMessage struct {
	Type  string `json:"type"`
	Seq   int64  `json:"seq,omitempty"`
	Error string `json:"error"`
}

// MapHub serves the explorer map channel: clients send their viewport and
// get markers back; place edits are pushed to everyone.
type MapHub struct {
	*Hub
	explore Explorer
}

func NewMapHub(explore Explorer) *MapHub {
	return &MapHub{Hub: NewHub(), explore: explore}
}

// PlacesChanged tells every viewer to re-send its viewport.
func (m *MapHub) PlacesChanged() {
	m.BroadcastAll(map[string]string{"type": "places_changed"})
}

// RoleChanged tells the user's open sessions to refresh their token; the
// old one still carries the previous role.
func (m *MapHub) RoleChanged(userID, role string) {
	m.BroadcastToUser(userID, map[string]string{"type": "role_changed", "role": role})
}

// Handle answers one client message. A nil result means no reply.
func (m *MapHub) Handle(ctx context.Context, c *Client, raw []byte) []byte {
	var msg inbound
	if err := json.Unmarshal(raw, &msg); err != nil {
		return encode(errorMessage{Type: "error", Error: "malformed message"})
	}
	switch msg.Type {
	case "ping":
		return encode(map[string]string{"type": "pong"})
	case "viewport":
		res, err := m.viewport(ctx, c, msg)
		if err != nil {
			return encode(errorMessage{Type: "error", Seq: msg.Seq, Error: err.Error()})
		}
		return encode(res)
	default:
		return encode(errorMessage{Type: "error", Seq: msg.Seq, Error: "unknown message type"})
	}
}

var errZoomRequired = errors.New("zoom is required")

func (m *MapHub) viewport(ctx context.Context, c *Client, msg inbound) (*MarkersMessage, error) {
	if msg.Zoom == nil {
		return nil, errZoomRequired
	}
	filters, err := msg.Filters.Parse()
	if err != nil {
		return nil, err
	}
	res, err := m.explore.Visible(ctx, service.ViewportQuery{
		Zoom:    *msg.Zoom,
		Bounds:  msg.Bounds,
		Filters: filters,
		UserID:  c.UserID,
	})
	if err != nil {
		return nil, err
	}
	metrics.MarkersRendered.WithLabelValues("ws").Observe(float64(len(res.Places)))
	return &MarkersMessage{
		Type:         "markers",
		Seq:          msg.Seq,
		Zoom:         res.Zoom,
		VisibleTypes: res.VisibleTypes,
		Places:       res.Places,
		Scores:       res.Scores,
		Markers:      m.explore.Markers(ctx, res.Places),
	}, nil
}

func encode(v any) []byte {
	data, err := json.Marshal(v)
	if err != nil {
		log.Printf("[WS] encode reply: %v", err)
		return []byte(`{"type":"error","error":"internal error"}`)
	}
	return data
}
