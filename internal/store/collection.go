package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Query narrows, orders and expands a collection read. WithDeleted also
// matches soft-deleted rows.
type Query struct {
	Filter      Filter
	Sort        string
	Expand      []string
	WithDeleted bool
}

// Page is one page of a paged read.
type Page[T any] struct {
	Page       int   `json:"page"`
	PerPage    int   `json:"per_page"`
	TotalItems int64 `json:"total_items"`
	TotalPages int   `json:"total_pages"`
	Items      []T   `json:"items"`
}

const maxPerPage = 200

// Collection gives record-store access to one gorm model. Calls made with a
// context returned by Transactor.WithinTx run inside that transaction.
type Collection[T any] struct {
	db   *gorm.DB
	name string
}

func NewCollection[T any](db *gorm.DB, name string) *Collection[T] {
	return &Collection[T]{db: db, name: name}
}

func (c *Collection[T]) Name() string { return c.name }

func (c *Collection[T]) conn(ctx context.Context) *gorm.DB {
	if tx := txFrom(ctx); tx != nil {
		return tx.WithContext(ctx)
	}
	return c.db.WithContext(ctx)
}

func (c *Collection[T]) scoped(ctx context.Context, q Query) (*gorm.DB, error) {
	db := c.conn(ctx).Model(new(T))
	if q.WithDeleted {
		db = db.Unscoped()
	}
	if !q.Filter.IsZero() {
		sql, vars, err := q.Filter.SQL()
		if err != nil {
			return nil, err
		}
		db = db.Where(sql, vars...)
	}
	orders, err := ParseSort(q.Sort)
	if err != nil {
		return nil, err
	}
	for _, o := range orders {
		db = db.Order(o)
	}
	for _, e := range q.Expand {
		if err := checkExpand(e); err != nil {
			return nil, err
		}
		db = db.Preload(e)
	}
	return db, nil
}

func (c *Collection[T]) notFound(key string) error {
	return fmt.Errorf("%s %s: %w", c.name, key, ErrNotFound)
}

// FullList returns every record matching q.
func (c *Collection[T]) FullList(ctx context.Context, q Query) ([]T, error) {
	db, err := c.scoped(ctx, q)
	if err != nil {
		return nil, err
	}
	var out []T
	if err := db.Find(&out).Error; err != nil {
		return nil, fmt.Errorf("%s: list: %w", c.name, err)
	}
	return out, nil
}

// List returns one page (1-based) of records matching q.
func (c *Collection[T]) List(ctx context.Context, page, perPage int, q Query) (*Page[T], error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 30
	}
	if perPage > maxPerPage {
		perPage = maxPerPage
	}
	total, err := c.Count(ctx, q.Filter)
	if err != nil {
		return nil, err
	}
	db, err := c.scoped(ctx, q)
	if err != nil {
		return nil, err
	}
	items := make([]T, 0, perPage)
	if err := db.Limit(perPage).Offset((page - 1) * perPage).Find(&items).Error; err != nil {
		return nil, fmt.Errorf("%s: page: %w", c.name, err)
	}
	return &Page[T]{
		Page:       page,
		PerPage:    perPage,
		TotalItems: total,
		TotalPages: int((total + int64(perPage) - 1) / int64(perPage)),
		Items:      items,
	}, nil
}

// One loads a record by primary id.
func (c *Collection[T]) One(ctx context.Context, id string, expand ...string) (*T, error) {
	db, err := c.scoped(ctx, Query{Filter: Eq("id", id), Expand: expand})
	if err != nil {
		return nil, err
	}
	var out T
	if err := db.Take(&out).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, c.notFound(id)
		}
		return nil, fmt.Errorf("%s %s: %w", c.name, id, err)
	}
	return &out, nil
}

// OneForUpdate loads record id and holds a row lock on it until the
// surrounding transaction ends. Outside a transaction it behaves like One.
func (c *Collection[T]) OneForUpdate(ctx context.Context, id string) (*T, error) {
	var out T
	err := c.conn(ctx).Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", id).Take(&out).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, c.notFound(id)
		}
		return nil, fmt.Errorf("%s %s: lock: %w", c.name, id, err)
	}
	return &out, nil
}

// FirstListItem returns the first record matching q or ErrNotFound.
func (c *Collection[T]) FirstListItem(ctx context.Context, q Query) (*T, error) {
	db, err := c.scoped(ctx, q)
	if err != nil {
		return nil, err
	}
	var out T
	if err := db.Take(&out).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, c.notFound("(first)")
		}
		return nil, fmt.Errorf("%s: first: %w", c.name, err)
	}
	return &out, nil
}

func (c *Collection[T]) Create(ctx context.Context, rec *T) error {
	if err := c.conn(ctx).Create(rec).Error; err != nil {
		return fmt.Errorf("%s: create: %w", c.name, err)
	}
	return nil
}

// Update writes every column of rec.
func (c *Collection[T]) Update(ctx context.Context, rec *T) error {
	if err := c.conn(ctx).Save(rec).Error; err != nil {
		return fmt.Errorf("%s: update: %w", c.name, err)
	}
	return nil
}

// UpdateFields writes only the given columns of record id.
func (c *Collection[T]) UpdateFields(ctx context.Context, id string, fields map[string]any) error {
	for k := range fields {
		if err := checkField(k); err != nil {
			return err
		}
	}
	res := c.conn(ctx).Model(new(T)).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return fmt.Errorf("%s %s: update: %w", c.name, id, res.Error)
	}
	return nil
}

// Increment adds each delta to its column in a single UPDATE, so
// concurrent writers never overwrite each other's counts.
func (c *Collection[T]) Increment(ctx context.Context, id string, deltas map[string]int) error {
	exprs := make(map[string]any, len(deltas))
	for col, d := range deltas {
		if err := checkField(col); err != nil {
			return err
		}
		// MySQL reports unchanged rows as unaffected
		if d != 0 {
			exprs[col] = gorm.Expr(col+" + ?", d)
		}
	}
	if len(exprs) == 0 {
		return nil
	}
	res := c.conn(ctx).Model(new(T)).Where("id = ?", id).UpdateColumns(exprs)
	if res.Error != nil {
		return fmt.Errorf("%s %s: increment: %w", c.name, id, res.Error)
	}
	if res.RowsAffected == 0 {
		return c.notFound(id)
	}
	return nil
}

func (c *Collection[T]) Delete(ctx context.Context, id string) error {
	res := c.conn(ctx).Where("id = ?", id).Delete(new(T))
	if res.Error != nil {
		return fmt.Errorf("%s %s: delete: %w", c.name, id, res.Error)
	}
	if res.RowsAffected == 0 {
		return c.notFound(id)
	}
	return nil
}

// DeleteWhere removes every record matching f. A zero filter is refused.
func (c *Collection[T]) DeleteWhere(ctx context.Context, f Filter) (int64, error) {
	if f.IsZero() {
		return 0, fmt.Errorf("%w: refusing unfiltered delete on %s", ErrInvalidFilter, c.name)
	}
	sql, vars, err := f.SQL()
	if err != nil {
		return 0, err
	}
	res := c.conn(ctx).Where(sql, vars...).Delete(new(T))
	if res.Error != nil {
		return 0, fmt.Errorf("%s: delete: %w", c.name, res.Error)
	}
	return res.RowsAffected, nil
}

func (c *Collection[T]) Count(ctx context.Context, f Filter) (int64, error) {
	return c.count(ctx, Query{Filter: f})
}

// CountWithDeleted counts soft-deleted rows too; unique indexes still see them.
func (c *Collection[T]) CountWithDeleted(ctx context.Context, f Filter) (int64, error) {
	return c.count(ctx, Query{Filter: f, WithDeleted: true})
}

func (c *Collection[T]) count(ctx context.Context, q Query) (int64, error) {
	db, err := c.scoped(ctx, q)
	if err != nil {
		return 0, err
	}
	var n int64
	if err := db.Count(&n).Error; err != nil {
		return 0, fmt.Errorf("%s: count: %w", c.name, err)
	}
	return n, nil
}

// IsNotFound reports whether err means the record does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
