package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"slices"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Page selects a window of a listing. A zero Limit means everything.
type Page struct {
	Limit int
	Skip  int
}

func (p Page) apply(db *gorm.DB) *gorm.DB {
	if p.Limit > 0 {
		db = db.Limit(p.Limit)
	}
	if p.Skip > 0 {
		db = db.Offset(p.Skip)
	}
	return db
}

// PageNo converts a 1-based page number into a Page of size pageSize; 0 selects everything.
func PageNo(pageNo, pageSize int) Page {
	if pageNo <= 0 {
		return Page{}
	}
	return Page{Limit: pageSize, Skip: pageSize * (pageNo - 1)}
}

func totalPages(count int64, pageSize int) int {
	return int(math.Ceil(float64(count) / float64(pageSize)))
}

func getByID[T any](ctx context.Context, db *gorm.DB, id, what string) (*T, error) {
	var out T
	if err := db.WithContext(ctx).First(&out, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound(what)
		}
		return nil, fmt.Errorf("failed to load %s %s: %w", what, id, err)
	}
	return &out, nil
}

var lockForUpdate = clause.Locking{Strength: "UPDATE"}

// lockByID loads a row inside tx and locks it for the rest of the transaction.
func lockByID[T any](tx *gorm.DB, id, what string) (*T, error) {
	var out T
	err := tx.Clauses(lockForUpdate).First(&out, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound(what)
		}
		return nil, fmt.Errorf("failed to load %s %s: %w", what, id, err)
	}
	return &out, nil
}

// taken reports whether another row of T already has value in column.
func taken[T any](tx *gorm.DB, column, value, exceptID string) (bool, error) {
	var n int64
	q := tx.Model(new(T)).Where(column+" = ?", value)
	if exceptID != "" {
		q = q.Where("id <> ?", exceptID)
	}
	if err := q.Count(&n).Error; err != nil {
		return false, fmt.Errorf("failed to check %s uniqueness: %w", column, err)
	}
	return n > 0, nil
}

func addToSet(list datatypes.JSONSlice[string], id string) datatypes.JSONSlice[string] {
	if slices.Contains(list, id) {
		return list
	}
	return append(list, id)
}

func pull(list datatypes.JSONSlice[string], id string) datatypes.JSONSlice[string] {
	out := datatypes.JSONSlice[string]{}
	for _, v := range list {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

func pluckIDs(tx *gorm.DB) ([]string, error) {
	var ids []string
	if err := tx.Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

type identified interface {
	GetID() string
}

// resolveIDs loads every row of T named in ids with one query, keyed by id.
// Unknown and empty ids are left out of the map.
func resolveIDs[T identified](db *gorm.DB, ids []string) (map[string]*T, error) {
	seen := make(map[string]bool, len(ids))
	wanted := make([]string, 0, len(ids))
	for _, id := range ids {
		if id != "" && !seen[id] {
			seen[id] = true
			wanted = append(wanted, id)
		}
	}
	out := make(map[string]*T, len(wanted))
	if len(wanted) == 0 {
		return out, nil
	}
	var rows []T
	if err := db.Where("id IN ?", wanted).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to resolve references: %w", err)
	}
	for i := range rows {
		out[rows[i].GetID()] = &rows[i]
	}
	return out, nil
}

// inOrder lists the resolved rows in the order of ids.
func inOrder[T any](byID map[string]*T, ids []string) []T {
	out := make([]T, 0, len(ids))
	for _, id := range ids {
		if row, ok := byID[id]; ok {
			out = append(out, *row)
		}
	}
	return out
}
