package service

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"wayfare/internal/models"
	"wayfare/internal/store"
)

// memDB is an in-memory stand-in for the record store. failOn injects an
// error into the named operation.
type memDB struct {
	places     map[string]models.Place
	lists      map[string]models.List
	listPlaces map[string]models.ListPlace
	locations  map[string]models.ListLocation
	saved      map[string]models.SavedList
	ratings    map[string]models.ListRating
	prefs      map[string]models.UserPreference
	tags       map[string]models.Tag
	users      map[string]models.User
	// deleted slugs stay reserved, keyed "table:slug"
	tombstones map[string]bool

	seq    int
	failOn map[string]error
	calls  map[string]int
}

func newMemDB() *memDB {
	return &memDB{
		places:     map[string]models.Place{},
		lists:      map[string]models.List{},
		listPlaces: map[string]models.ListPlace{},
		locations:  map[string]models.ListLocation{},
		saved:      map[string]models.SavedList{},
		ratings:    map[string]models.ListRating{},
		prefs:      map[string]models.UserPreference{},
		tags:       map[string]models.Tag{},
		users:      map[string]models.User{},
		tombstones: map[string]bool{},
		failOn:     map[string]error{},
		calls:      map[string]int{},
	}
}

func (db *memDB) nextID(prefix string) string {
	db.seq++
	return fmt.Sprintf("%s-%d", prefix, db.seq)
}

func (db *memDB) op(name string) error {
	db.calls[name]++
	return db.failOn[name]
}

func notFound(coll, key string) error {
	return fmt.Errorf("%s %s: %w", coll, key, store.ErrNotFound)
}

func cloneMap[K comparable, V any](m map[K]V, clone func(V) V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		if clone != nil {
			v = clone(v)
		}
		out[k] = v
	}
	return out
}

func (db *memDB) snapshot() *memDB {
	return &memDB{
		places:     cloneMap(db.places, nil),
		lists:      cloneMap(db.lists, nil),
		listPlaces: cloneMap(db.listPlaces, nil),
		locations:  cloneMap(db.locations, nil),
		saved:      cloneMap(db.saved, nil),
		ratings:    cloneMap(db.ratings, nil),
		prefs: cloneMap(db.prefs, func(p models.UserPreference) models.UserPreference {
			p.Tags = append(models.StringList(nil), p.Tags...)
			p.Places = append(models.StringList(nil), p.Places...)
			return p
		}),
		tags:       cloneMap(db.tags, nil),
		users:      cloneMap(db.users, nil),
		tombstones: cloneMap(db.tombstones, nil),
	}
}

func (db *memDB) restore(s *memDB) {
	db.places, db.lists, db.listPlaces = s.places, s.lists, s.listPlaces
	db.locations, db.saved, db.ratings = s.locations, s.saved, s.ratings
	db.prefs, db.tags, db.users = s.prefs, s.tags, s.users
	db.tombstones = s.tombstones
}

type txMarker struct{}

type memTx struct{ db *memDB }

func (t memTx) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(txMarker{}) != nil {
		return fn(ctx)
	}
	snap := t.db.snapshot()
	if err := fn(context.WithValue(ctx, txMarker{}, true)); err != nil {
		t.db.restore(snap)
		return err
	}
	return nil
}

// places

type memPlaces struct{ db *memDB }

func (r memPlaces) All(context.Context) ([]models.Place, error) {
	if err := r.db.op("places.all"); err != nil {
		return nil, err
	}
	out := make([]models.Place, 0, len(r.db.places))
	for _, p := range r.db.places {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r memPlaces) GetByID(_ context.Context, id string) (*models.Place, error) {
	p, ok := r.db.places[id]
	if !ok {
		return nil, notFound("cities", id)
	}
	return &p, nil
}

func (r memPlaces) GetBySlug(_ context.Context, slug string) (*models.Place, error) {
	if err := r.db.op("places.by_slug"); err != nil {
		return nil, err
	}
	for _, p := range r.db.places {
		if p.Slug == slug {
			return &p, nil
		}
	}
	return nil, notFound("cities", slug)
}

func (r memPlaces) ByIDs(_ context.Context, ids []string) ([]models.Place, error) {
	var out []models.Place
	for _, id := range ids {
		if p, ok := r.db.places[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r memPlaces) WithTag(_ context.Context, tagID string) ([]models.Place, error) {
	var out []models.Place
	for _, p := range r.db.places {
		if p.Tags.Contains(tagID) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r memPlaces) Create(_ context.Context, p *models.Place) error {
	if err := r.db.op("places.create"); err != nil {
		return err
	}
	if p.ID == "" {
		p.ID = r.db.nextID("place")
	}
	r.db.places[p.ID] = *p
	return nil
}

func (r memPlaces) Update(_ context.Context, p *models.Place) error {
	if err := r.db.op("places.update"); err != nil {
		return err
	}
	r.db.places[p.ID] = *p
	return nil
}

func (r memPlaces) Delete(_ context.Context, id string) error {
	p, ok := r.db.places[id]
	if !ok {
		return notFound("cities", id)
	}
	r.db.tombstones["cities:"+p.Slug] = true
	delete(r.db.places, id)
	return nil
}

func (r memPlaces) SlugTaken(_ context.Context, slug string) (bool, error) {
	if err := r.db.op("places.slug_taken"); err != nil {
		return false, err
	}
	if r.db.tombstones["cities:"+slug] {
		return true, nil
	}
	for _, p := range r.db.places {
		if p.Slug == slug {
			return true, nil
		}
	}
	return false, nil
}

// lists

type memLists struct{ db *memDB }

func (r memLists) GetByID(_ context.Context, id string) (*models.List, error) {
	l, ok := r.db.lists[id]
	if !ok {
		return nil, notFound("lists", id)
	}
	return &l, nil
}

func (r memLists) GetBySlug(_ context.Context, slug string) (*models.List, error) {
	for _, l := range r.db.lists {
		if l.Slug == slug {
			return &l, nil
		}
	}
	return nil, notFound("lists", slug)
}

func (r memLists) Public(_ context.Context, page, perPage int, search string) (*store.Page[models.List], error) {
	var items []models.List
	for _, l := range r.db.lists {
		if l.Visibility == "public" && strings.Contains(strings.ToLower(l.Title), strings.ToLower(search)) {
			items = append(items, l)
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Title < items[j].Title })
	return &store.Page[models.List]{Page: page, PerPage: perPage, TotalItems: int64(len(items)), Items: items}, nil
}

func (r memLists) ByOwner(_ context.Context, ownerID string) ([]models.List, error) {
	var out []models.List
	for _, l := range r.db.lists {
		if l.OwnerID == ownerID {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Title < out[j].Title })
	return out, nil
}

func (r memLists) ByIDs(_ context.Context, ids []string) ([]models.List, error) {
	var out []models.List
	for _, id := range ids {
		if l, ok := r.db.lists[id]; ok {
			out = append(out, l)
		}
	}
	return out, nil
}

func (r memLists) Create(_ context.Context, l *models.List) error {
	if err := r.db.op("lists.create"); err != nil {
		return err
	}
	if l.ID == "" {
		l.ID = r.db.nextID("list")
	}
	r.db.lists[l.ID] = *l
	return nil
}

func (r memLists) UpdateFields(_ context.Context, id string, fields map[string]any) error {
	if err := r.db.op("lists.update"); err != nil {
		return err
	}
	l, ok := r.db.lists[id]
	if !ok {
		return notFound("lists", id)
	}
	for k, v := range fields {
		switch k {
		case "title":
			l.Title = v.(string)
		case "description":
			l.Description = v.(string)
		case "visibility":
			l.Visibility = v.(string)
		case "place_count":
			l.PlaceCount = v.(int)
		case "saves":
			l.Saves = v.(int)
		case "rating_sum":
			l.RatingSum = v.(int)
		case "rating_count":
			l.RatingCount = v.(int)
		default:
			return fmt.Errorf("unexpected field %q", k)
		}
	}
	r.db.lists[id] = l
	return nil
}

func (r memLists) Delete(_ context.Context, id string) error {
	l, ok := r.db.lists[id]
	if !ok {
		return notFound("lists", id)
	}
	r.db.tombstones["lists:"+l.Slug] = true
	delete(r.db.lists, id)
	return nil
}

func (r memLists) SlugTaken(_ context.Context, slug string) (bool, error) {
	if r.db.tombstones["lists:"+slug] {
		return true, nil
	}
	for _, l := range r.db.lists {
		if l.Slug == slug {
			return true, nil
		}
	}
	return false, nil
}

func (r memLists) Increment(_ context.Context, id string, deltas map[string]int) error {
	if err := r.db.op("lists.increment"); err != nil {
		return err
	}
	l, ok := r.db.lists[id]
	if !ok {
		return notFound("lists", id)
	}
	for k, d := range deltas {
		switch k {
		case "saves":
			l.Saves += d
		case "rating_sum":
			l.RatingSum += d
		case "rating_count":
			l.RatingCount += d
		default:
			return fmt.Errorf("unexpected counter %q", k)
		}
	}
	r.db.lists[id] = l
	return nil
}

func (r memLists) Lock(ctx context.Context, id string) (*models.List, error) {
	if err := r.db.op("lists.lock"); err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

// list_places

type memListPlaces struct{ db *memDB }

func (r memListPlaces) ByList(_ context.Context, listID string) ([]models.ListPlace, error) {
	if err := r.db.op("list_places.by_list"); err != nil {
		return nil, err
	}
	var out []models.ListPlace
	for _, lp := range r.db.listPlaces {
		if lp.ListID != listID {
			continue
		}
		if p, ok := r.db.places[lp.PlaceID]; ok {
			lp.Place = &p
		} else {
			lp.Place = nil
		}
		out = append(out, lp)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Rank != out[j].Rank {
			return out[i].Rank < out[j].Rank
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r memListPlaces) Get(_ context.Context, listID, placeID string) (*models.ListPlace, error) {
	for _, lp := range r.db.listPlaces {
		if lp.ListID == listID && lp.PlaceID == placeID {
			return &lp, nil
		}
	}
	return nil, notFound("list_places", listID+"/"+placeID)
}

func (r memListPlaces) Create(_ context.Context, lp *models.ListPlace) error {
	if err := r.db.op("list_places.create"); err != nil {
		return err
	}
	if lp.ID == "" {
		lp.ID = r.db.nextID("lp")
	}
	row := *lp
	row.Place = nil
	r.db.listPlaces[lp.ID] = row
	return nil
}

func (r memListPlaces) SetRank(_ context.Context, id string, rank int) error {
	if err := r.db.op("list_places.set_rank"); err != nil {
		return err
	}
	lp, ok := r.db.listPlaces[id]
	if !ok {
		return notFound("list_places", id)
	}
	lp.Rank = rank
	r.db.listPlaces[id] = lp
	return nil
}

func (r memListPlaces) Delete(_ context.Context, id string) error {
	if err := r.db.op("list_places.delete"); err != nil {
		return err
	}
	if _, ok := r.db.listPlaces[id]; !ok {
		return notFound("list_places", id)
	}
	delete(r.db.listPlaces, id)
	return nil
}

func (r memListPlaces) DeleteByList(_ context.Context, listID string) error {
	for id, lp := range r.db.listPlaces {
		if lp.ListID == listID {
			delete(r.db.listPlaces, id)
		}
	}
	return nil
}

func (r memListPlaces) CountByList(_ context.Context, listID string) (int64, error) {
	var n int64
	for _, lp := range r.db.listPlaces {
		if lp.ListID == listID {
			n++
		}
	}
	return n, nil
}

// list_locations

type memLocations struct{ db *memDB }

func (r memLocations) GetByList(_ context.Context, listID string) (*models.ListLocation, error) {
	ll, ok := r.db.locations[listID]
	if !ok {
		return nil, notFound("list_locations", listID)
	}
	return &ll, nil
}

func (r memLocations) Upsert(_ context.Context, listID string, lat, lng float64) error {
	if err := r.db.op("list_locations.upsert"); err != nil {
		return err
	}
	ll, ok := r.db.locations[listID]
	if !ok {
		ll = models.ListLocation{ID: r.db.nextID("loc"), ListID: listID}
	}
	ll.CenterLat, ll.CenterLng = lat, lng
	r.db.locations[listID] = ll
	return nil
}

func (r memLocations) DeleteByList(_ context.Context, listID string) error {
	delete(r.db.locations, listID)
	return nil
}

// saved_lists

type memSaved struct{ db *memDB }

func (r memSaved) Get(_ context.Context, userID, listID string) (*models.SavedList, error) {
	for _, s := range r.db.saved {
		if s.UserID == userID && s.ListID == listID {
			return &s, nil
		}
	}
	return nil, notFound("saved_lists", userID+"/"+listID)
}

func (r memSaved) ByUser(_ context.Context, userID string) ([]models.SavedList, error) {
	var out []models.SavedList
	for _, s := range r.db.saved {
		if s.UserID == userID {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r memSaved) Create(_ context.Context, s *models.SavedList) error {
	if s.ID == "" {
		s.ID = r.db.nextID("saved")
	}
	r.db.saved[s.ID] = *s
	return nil
}

func (r memSaved) Delete(_ context.Context, id string) error {
	delete(r.db.saved, id)
	return nil
}

func (r memSaved) DeleteByList(_ context.Context, listID string) error {
	for id, s := range r.db.saved {
		if s.ListID == listID {
			delete(r.db.saved, id)
		}
	}
	return nil
}

// list_ratings

type memRatings struct{ db *memDB }

func (r memRatings) Get(_ context.Context, userID, listID string) (*models.ListRating, error) {
	for _, rt := range r.db.ratings {
		if rt.UserID == userID && rt.ListID == listID {
			return &rt, nil
		}
	}
	return nil, notFound("list_ratings", userID+"/"+listID)
}

func (r memRatings) Create(_ context.Context, rt *models.ListRating) error {
	if rt.ID == "" {
		rt.ID = r.db.nextID("rating")
	}
	r.db.ratings[rt.ID] = *rt
	return nil
}

func (r memRatings) SetScore(_ context.Context, id string, score int) error {
	rt := r.db.ratings[id]
	rt.Score = score
	r.db.ratings[id] = rt
	return nil
}

// user_preferences

type memPrefs struct{ db *memDB }

func (r memPrefs) GetByUser(_ context.Context, userID string) (*models.UserPreference, error) {
	if err := r.db.op("prefs.get"); err != nil {
		return nil, err
	}
	p, ok := r.db.prefs[userID]
	if !ok {
		return nil, notFound("user_preferences", userID)
	}
	p.Tags = append(models.StringList(nil), p.Tags...)
	p.Places = append(models.StringList(nil), p.Places...)
	return &p, nil
}

func (r memPrefs) Save(_ context.Context, p *models.UserPreference) error {
	if err := r.db.op("prefs.save"); err != nil {
		return err
	}
	if p.ID == "" {
		p.ID = r.db.nextID("pref")
	}
	r.db.prefs[p.UserID] = *p
	return nil
}

// tags

type memTags struct{ db *memDB }

func (r memTags) All(context.Context) ([]models.Tag, error) {
	out := make([]models.Tag, 0, len(r.db.tags))
	for _, t := range r.db.tags {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SortOrder < out[j].SortOrder })
	return out, nil
}

func (r memTags) GetByID(_ context.Context, id string) (*models.Tag, error) {
	t, ok := r.db.tags[id]
	if !ok {
		return nil, notFound("tags", id)
	}
	return &t, nil
}

// users

type memUsers struct{ db *memDB }

func (r memUsers) find(match func(models.User) bool, key string) (*models.User, error) {
	for _, u := range r.db.users {
		if match(u) {
			return &u, nil
		}
	}
	return nil, notFound("users", key)
}

func (r memUsers) Create(_ context.Context, u *models.User) error {
	if u.ID == "" {
		u.ID = r.db.nextID("user")
	}
	r.db.users[u.ID] = *u
	return nil
}

func (r memUsers) GetByID(_ context.Context, id string) (*models.User, error) {
	return r.find(func(u models.User) bool { return u.ID == id }, id)
}

func (r memUsers) GetByEmail(_ context.Context, email string) (*models.User, error) {
	return r.find(func(u models.User) bool { return u.Email == email }, email)
}

func (r memUsers) GetByUsername(_ context.Context, username string) (*models.User, error) {
	return r.find(func(u models.User) bool { return u.Username == username }, username)
}

func (r memUsers) GetByGoogleID(_ context.Context, googleID string) (*models.User, error) {
	return r.find(func(u models.User) bool { return u.GoogleID != nil && *u.GoogleID == googleID }, googleID)
}

func (r memUsers) Update(_ context.Context, u *models.User) error {
	r.db.users[u.ID] = *u
	return nil
}

// helpers

func fptr(v float64) *float64 { return &v }

func (db *memDB) addPlace(id, name, typ string, lat, lng *float64) models.Place {
	p := models.Place{ID: id, Name: name, Slug: Slugify(name), Type: typ, Latitude: lat, Longitude: lng}
	db.places[id] = p
	return p
}

func newTestListService(db *memDB) *ListService {
	return NewListService(ListDeps{
		Tx:         memTx{db},
		Lists:      memLists{db},
		ListPlaces: memListPlaces{db},
		Locations:  memLocations{db},
		Places:     memPlaces{db},
		Saved:      memSaved{db},
		Ratings:    memRatings{db},
	})
}

// ranksOf returns list member place ids in rank order with their ranks.
func ranksOf(t interface{ Helper() }, db *memDB, listID string) ([]string, []int) {
	t.Helper()
	rows, _ := memListPlaces{db}.ByList(context.Background(), listID)
	ids := make([]string, len(rows))
	ranks := make([]int, len(rows))
	for i, r := range rows {
		ids[i], ranks[i] = r.PlaceID, r.Rank
	}
	return ids, ranks
}
