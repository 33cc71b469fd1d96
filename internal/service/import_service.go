package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"reflect"
	"strconv"
	"strings"

	"wayfare/internal/models"

	"github.com/go-playground/validator/v10"
	"github.com/xuri/excelize/v2"
)

// ImportPlace is one candidate place of an import.
type ImportPlace struct {
	Name        string   `json:"name" validate:"required,max=255"`
	Slug        string   `json:"slug" validate:"omitempty,max=255"`
	Type        string   `json:"type" validate:"required,oneof=country region city neighborhood sight"`
	Country     string   `json:"country" validate:"max=128"`
	Description string   `json:"description"`
	Lat         *float64 `json:"lat" validate:"omitempty,min=-90,max=90"`
	Lng         *float64 `json:"lng" validate:"omitempty,min=-180,max=180"`
	Population  string   `json:"population" validate:"max=64"`
	Rating      *float64 `json:"rating" validate:"omitempty,min=0,max=5"`
	Tags        []string `json:"tags"`
}

// ImportList is a list with its candidate places in rank order.
type ImportList struct {
	Title       string        `json:"title" validate:"required,max=255"`
	Slug        string        `json:"slug" validate:"omitempty,max=255"`
	Description string        `json:"description"`
	Visibility  string        `json:"visibility" validate:"omitempty,oneof=public private unlisted"`
	Places      []ImportPlace `json:"places"`
}

// ImportReport summarises one imported list. Errors holds one message per
// failed check; the records they name were skipped whole.
type ImportReport struct {
	ListID   string   `json:"list_id,omitempty"`
	Title    string   `json:"title"`
	Imported int      `json:"imported"`
	Created  int      `json:"created"`
	Matched  int      `json:"matched"`
	Skipped  int      `json:"skipped"`
	Errors   []string `json:"errors,omitempty"`
}

type ImportService struct {
	tx       Transactor
	places   PlaceStore
	lists    *ListService
	geocoder Geocoder
	validate *validator.Validate
}

func NewImportService(tx Transactor, places PlaceStore, lists *ListService, geocoder Geocoder) *ImportService {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return &ImportService{tx: tx, places: places, lists: lists, geocoder: geocoder, validate: v}
}

func (s *ImportService) messages(label string, err error) []string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []string{fmt.Sprintf("%s: %v", label, err)}
	}
	out := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msg := fmt.Sprintf("%s: %s failed %q", label, fe.Field(), fe.Tag())
		if fe.Param() != "" {
			msg += " (" + fe.Param() + ")"
		}
		out = append(out, msg)
	}
	return out
}

type candidate struct {
	in   ImportPlace
	slug string
}

// ImportList validates the candidates, matches existing places by slug,
// creates the rest and then creates the list with ranks in input order.
// Invalid candidates are reported and skipped; an invalid list header
// fails the whole import with ErrInvalidImport.
func (s *ImportService) ImportList(ctx context.Context, ownerID string, in ImportList) (*ImportReport, error) {
	rep := &ImportReport{Title: in.Title}
	if err := s.validate.Struct(in); err != nil {
		rep.Errors = s.messages("list", err)
		return rep, fmt.Errorf("%w: %s", ErrInvalidImport, strings.Join(rep.Errors, "; "))
	}

	var cands []candidate
	seen := map[string]struct{}{}
	for i, p := range in.Places {
		label := fmt.Sprintf("place[%d] %q", i, p.Name)
		p.Type = strings.ToLower(strings.TrimSpace(p.Type))
		if err := s.validate.Struct(p); err != nil {
			rep.Errors = append(rep.Errors, s.messages(label, err)...)
			rep.Skipped++
			continue
		}
		if (p.Lat == nil) != (p.Lng == nil) {
			rep.Errors = append(rep.Errors, label+": lat and lng must be given together")
			rep.Skipped++
			continue
		}
		slug := Slugify(p.Slug)
		if slug == "" {
			slug = Slugify(p.Name)
		}
		if slug == "" {
			rep.Errors = append(rep.Errors, label+": "+ErrInvalidName.Error())
			rep.Skipped++
			continue
		}
		if _, dup := seen[slug]; dup {
			rep.Errors = append(rep.Errors, label+": duplicate of an earlier place")
			rep.Skipped++
			continue
		}
		seen[slug] = struct{}{}
		if p.Lat == nil && s.geocoder != nil {
			if lat, lng, ok, err := s.geocoder.Resolve(ctx, p.Name, p.Country); err != nil {
				log.Printf("[IMPORT] geocode %s: %v", label, err)
			} else if ok {
				p.Lat, p.Lng = &lat, &lng
			}
		}
		cands = append(cands, candidate{in: p, slug: slug})
	}

	err := inTx(ctx, s.tx, func(ctx context.Context) error {
		ids := make([]string, 0, len(cands))
		for _, c := range cands {
			existing, err := s.places.GetBySlug(ctx, c.slug)
			found, err := exists(err)
			if err != nil {
				return err
			}
			if found {
				ids = append(ids, existing.ID)
				rep.Matched++
				continue
			}
			// A deleted place may still hold the slug.
			slug, err := firstFreeSlug(c.slug, func(slug string) (bool, error) {
				return s.places.SlugTaken(ctx, slug)
			})
			if err != nil {
				return err
			}
			p := &models.Place{
				Name:        strings.TrimSpace(c.in.Name),
				Slug:        slug,
				Type:        c.in.Type,
				Country:     c.in.Country,
				Description: c.in.Description,
				Latitude:    c.in.Lat,
				Longitude:   c.in.Lng,
				Population:  c.in.Population,
				Rating:      c.in.Rating,
				Tags:        models.StringList(c.in.Tags),
			}
			if err := s.places.Create(ctx, p); err != nil {
				return err
			}
			ids = append(ids, p.ID)
			rep.Created++
		}
		l, err := s.lists.CreateList(ctx, ownerID, CreateListInput{
			Title:       in.Title,
			Slug:        in.Slug,
			Description: in.Description,
			Visibility:  in.Visibility,
			PlaceIDs:    ids,
		})
		if err != nil {
			return err
		}
		rep.ListID = l.ID
		rep.Imported = len(ids)
		return nil
	})
	if err != nil {
		rep.Created, rep.Matched, rep.Imported = 0, 0, 0
		return rep, err
	}
	log.Printf("[IMPORT] list=%s %q imported=%d created=%d matched=%d skipped=%d",
		rep.ListID, rep.Title, rep.Imported, rep.Created, rep.Matched, rep.Skipped)
	return rep, nil
}

// ImportXLSX reads the first sheet, one place per row, grouping rows into
// lists by list_title in order of first appearance. Headers are matched by
// name: list_title, name and type are required; list_description,
// visibility, slug, country, lat, lng, population, rating and tags
// (comma separated) are optional.
func (s *ImportService) ImportXLSX(ctx context.Context, ownerID string, r io.Reader) ([]ImportReport, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImport, err)
	}
	defer f.Close()
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%w: workbook has no sheets", ErrInvalidImport)
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImport, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: empty sheet", ErrInvalidImport)
	}
	col := map[string]int{}
	for i, h := range rows[0] {
		col[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, required := range []string{"list_title", "name", "type"} {
		if _, ok := col[required]; !ok {
			return nil, fmt.Errorf("%w: missing column %q", ErrInvalidImport, required)
		}
	}
	cell := func(row []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var order []string
	groups := map[string]*ImportList{}
	rowErrs := map[string][]string{}
	for n, row := range rows[1:] {
		title := cell(row, "list_title")
		if title == "" {
			continue
		}
		g, ok := groups[title]
		if !ok {
			g = &ImportList{
				Title:       title,
				Description: cell(row, "list_description"),
				Visibility:  cell(row, "visibility"),
			}
			groups[title] = g
			order = append(order, title)
		}
		p := ImportPlace{
			Name:       cell(row, "name"),
			Slug:       cell(row, "slug"),
			Type:       strings.ToLower(cell(row, "type")),
			Country:    cell(row, "country"),
			Population: cell(row, "population"),
		}
		var bad []string
		p.Lat, bad = parseOptionalFloat(cell(row, "lat"), "lat", bad)
		p.Lng, bad = parseOptionalFloat(cell(row, "lng"), "lng", bad)
		p.Rating, bad = parseOptionalFloat(cell(row, "rating"), "rating", bad)
		if len(bad) > 0 {
			rowErrs[title] = append(rowErrs[title], fmt.Sprintf("row %d %q: %s is not a number", n+2, p.Name, strings.Join(bad, ", ")))
			continue
		}
		if tags := cell(row, "tags"); tags != "" {
			for _, t := range strings.Split(tags, ",") {
				if t = strings.TrimSpace(t); t != "" {
					p.Tags = append(p.Tags, t)
				}
			}
		}
		g.Places = append(g.Places, p)
	}

	reports := make([]ImportReport, 0, len(order))
	for _, title := range order {
		rep, err := s.ImportList(ctx, ownerID, *groups[title])
		if rep == nil {
			rep = &ImportReport{Title: title}
		}
		rep.Errors = append(rowErrs[title], rep.Errors...)
		rep.Skipped += len(rowErrs[title])
		if err != nil && !errors.Is(err, ErrInvalidImport) {
			return reports, err
		}
		reports = append(reports, *rep)
	}
	return reports, nil
}

func parseOptionalFloat(s, name string, bad []string) (*float64, []string) {
	if s == "" {
		return nil, bad
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, append(bad, name)
	}
	return &v, bad
}

const exportSheet = "Places"

// ExportXLSX writes the list's places in rank order.
func (s *ImportService) ExportXLSX(ctx context.Context, listID, viewerID string, w io.Writer) error {
	l, err := s.lists.GetList(ctx, listID, viewerID)
	if err != nil {
		return err
	}
	ranked, err := s.lists.Places(ctx, listID, viewerID)
	if err != nil {
		return err
	}
	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName("Sheet1", exportSheet); err != nil {
		return err
	}
	header := []any{"rank", "list_title", "name", "slug", "type", "country", "lat", "lng", "population", "rating"}
	if err := f.SetSheetRow(exportSheet, "A1", &header); err != nil {
		return err
	}
	for i, rp := range ranked {
		p := rp.Place
		row := []any{rp.Rank, l.Title, p.Name, p.Slug, string(p.Type), p.Country, "", "", p.Population, ""}
		if p.Location != nil {
			row[6], row[7] = p.Location.Lat, p.Location.Lng
		}
		if p.Rating != nil {
			row[9] = *p.Rating
		}
		cellName, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(exportSheet, cellName, &row); err != nil {
			return err
		}
	}
	return f.Write(w)
}
