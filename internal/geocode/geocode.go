// Package geocode resolves place names to coordinates through Nominatim.
package geocode

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"
	"sync"
	"time"

	"wayfare/internal/cache"

	"github.com/muesli/gominatim"
)

// Result is a resolved coordinate pair. Found is false for a cached miss.
type Result struct {
	Lat   float64 `json:"lat"`
	Lng   float64 `json:"lng"`
	Found bool    `json:"found"`
}

type candidate struct {
	lat, lng string
}

type lookupFunc func(q string) ([]candidate, error)

// DefaultLookupTimeout bounds one upstream request.
const DefaultLookupTimeout = 10 * time.Second

// Geocoder spaces lookups so the upstream sees at most one request per
// minInterval, and remembers answers in the injected cache.
type Geocoder struct {
	cache       cache.Cache
	lookup      lookupFunc
	minInterval time.Duration
	ttl         time.Duration
	negativeTTL time.Duration
	timeout     time.Duration

	mu    sync.Mutex
	last  time.Time // start of the latest reserved request slot
	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

var serverOnce sync.Once

func New(server string, c cache.Cache, minInterval, negativeTTL time.Duration) *Geocoder {
	serverOnce.Do(func() {
		gominatim.SetServer(server)
	})
	return newGeocoder(nominatimLookup, c, minInterval, negativeTTL)
}

func newGeocoder(lookup lookupFunc, c cache.Cache, minInterval, negativeTTL time.Duration) *Geocoder {
	return &Geocoder{
		cache:       c,
		lookup:      lookup,
		minInterval: minInterval,
		ttl:         30 * 24 * time.Hour,
		negativeTTL: negativeTTL,
		timeout:     DefaultLookupTimeout,
		now:         time.Now,
		sleep:       sleepCtx,
	}
}

func nominatimLookup(q string) ([]candidate, error) {
	query := gominatim.SearchQuery{Q: q}
	res, err := query.Get()
	if err != nil {
		return nil, err
	}
	out := make([]candidate, 0, len(res))
	for _, r := range res {
		out = append(out, candidate{lat: r.Lat, lng: r.Lon})
	}
	return out, nil
}

// Resolve looks up "name, country". ok is false when nothing matched.
func (g *Geocoder) Resolve(ctx context.Context, name, country string) (lat, lng float64, ok bool, err error) {
	q := strings.TrimSpace(name)
	if country != "" {
		q += ", " + strings.TrimSpace(country)
	}
	if q == "" {
		return 0, 0, false, nil
	}
	key := "geo:" + strings.ToLower(q)

	var cached Result
	if hit, err := cache.GetJSON(ctx, g.cache, key, &cached); err != nil {
		log.Printf("[GEOCODE] cache read %q: %v", q, err)
	} else if hit {
		return cached.Lat, cached.Lng, cached.Found, nil
	}

	res, err := g.fetch(ctx, q)
	if err != nil {
		return 0, 0, false, err
	}
	ttl := g.ttl
	if !res.Found {
		ttl = g.negativeTTL
	}
	if err := cache.SetJSON(ctx, g.cache, key, res, ttl); err != nil {
		log.Printf("[GEOCODE] cache write %q: %v", q, err)
	}
	return res.Lat, res.Lng, res.Found, nil
}

// reserve claims the next request slot and returns how long to wait for it.
// Callers wait and fetch without holding the lock.
func (g *Geocoder) reserve() time.Duration {
	g.mu.Lock()
	defer g.mu.Unlock()
	now := g.now()
	slot := now
	if !g.last.IsZero() {
		if next := g.last.Add(g.minInterval); next.After(now) {
			slot = next
		}
	}
	g.last = slot
	return slot.Sub(now)
}

// lookupCtx runs the context-free upstream call under ctx and the lookup
// timeout. An abandoned call finishes in the background.
func (g *Geocoder) lookupCtx(ctx context.Context, q string) ([]candidate, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()
	type answer struct {
		cands []candidate
		err   error
	}
	done := make(chan answer, 1)
	go func() {
		cands, err := g.lookup(q)
		done <- answer{cands, err}
	}()
	select {
	case a := <-done:
		return a.cands, a.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (g *Geocoder) fetch(ctx context.Context, q string) (Result, error) {
	if wait := g.reserve(); wait > 0 {
		if err := g.sleep(ctx, wait); err != nil {
			return Result{}, err
		}
	}

	cands, err := g.lookupCtx(ctx, q)
	if err != nil {
		return Result{}, fmt.Errorf("geocode %q: %w", q, err)
	}
	for _, c := range cands {
		lat, err1 := strconv.ParseFloat(c.lat, 64)
		lng, err2 := strconv.ParseFloat(c.lng, 64)
		if err1 != nil || err2 != nil {
			continue
		}
		log.Printf("[GEOCODE] %q -> %.5f,%.5f", q, lat, lng)
		return Result{Lat: lat, Lng: lng, Found: true}, nil
	}
	log.Printf("[GEOCODE] %q: no match", q)
	return Result{}, nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
