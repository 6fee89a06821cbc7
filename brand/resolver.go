// Package brand is the franchise brand directory: normalized lookup,
// create-on-demand for custom brands, prefix search and popularity ranking.
package brand

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/chorock-rock/proto-bizblah/models"
	"github.com/chorock-rock/proto-bizblah/store"
)

// ErrEmptyName is returned when the raw brand name normalizes to nothing.
var ErrEmptyName = errors.New("brand name is empty")

// searchCap bounds prefix search results.
const searchCap = 20

// prefixUpper closes a lowercase prefix range; sorts after every extension
// of the prefix.
const prefixUpper = ""

// Resolver reads and extends the brands collection.
type Resolver struct {
	st store.Store
}

// NewResolver returns a Resolver over the given store.
func NewResolver(st store.Store) *Resolver {
	return &Resolver{st: st}
}

// Normalize trims and lowercases a raw brand name for matching.
func Normalize(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

// ResolveOrCreate returns the active brand matching the name
// case-insensitively, creating a custom brand entry when none exists.
func (r *Resolver) ResolveOrCreate(ctx context.Context, rawName string) (models.Brand, error) {
	name := strings.TrimSpace(rawName)
	lower := Normalize(rawName)
	if lower == "" {
		return models.Brand{}, ErrEmptyName
	}

	docs, err := r.st.GetOnce(ctx, "brands", store.Query{
		Filters: []store.Filter{
			{Field: "isActive", Op: "==", Value: true},
			{Field: "nameLower", Op: "==", Value: lower},
		},
		Limit: 1,
	})
	if err != nil {
		return models.Brand{}, err
	}
	if len(docs) > 0 {
		return models.BrandFromDoc(docs[0]), nil
	}

	b := models.Brand{
		Name:      name,
		NameLower: lower,
		IsActive:  true,
		IsCustom:  true,
		CreatedAt: time.Now().UnixMilli(),
	}
	id, err := r.st.Create(ctx, "brands", b.Doc())
	if err != nil {
		return models.Brand{}, err
	}
	b.ID = id
	return b, nil
}

// RecordUsage bumps a brand's usage counter. Best effort.
func (r *Resolver) RecordUsage(ctx context.Context, brandID string) error {
	err := r.st.AtomicIncrement(ctx, store.Join("brands", brandID), "usageCount", 1)
	if store.IsNotFound(err) {
		return nil
	}
	return err
}

// Search returns active brands whose lowercase name starts with the prefix,
// name-ordered and capped. When the composite index backing the range query
// is unavailable it falls back to fetching active brands and filtering
// in-process.
func (r *Resolver) Search(ctx context.Context, prefix string, limit int) ([]models.Brand, error) {
	prefix = Normalize(prefix)
	if limit <= 0 || limit > searchCap {
		limit = searchCap
	}

	docs, err := r.st.GetOnce(ctx, "brands", store.Query{
		Filters: []store.Filter{
			{Field: "isActive", Op: "==", Value: true},
			{Field: "nameLower", Op: ">=", Value: prefix},
			{Field: "nameLower", Op: "<", Value: prefix + prefixUpper},
		},
		OrderBy: []store.Order{{Field: "nameLower"}},
		Limit:   limit,
	})
	if store.IsIndexMissing(err) {
		return r.searchUnindexed(ctx, prefix, limit)
	}
	if err != nil {
		return nil, err
	}
	return toBrands(docs), nil
}

// searchUnindexed is the degraded path: full fetch of active brands, then
// filter and sort here.
func (r *Resolver) searchUnindexed(ctx context.Context, prefix string, limit int) ([]models.Brand, error) {
	docs, err := r.st.GetOnce(ctx, "brands", store.Query{
		Filters: []store.Filter{{Field: "isActive", Op: "==", Value: true}},
	})
	if err != nil {
		return nil, err
	}

	var out []models.Brand
	for _, d := range docs {
		b := models.BrandFromDoc(d)
		if strings.HasPrefix(b.NameLower, prefix) {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].NameLower < out[j].NameLower })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// TopByPopularity returns the n active brands with the most stores.
func (r *Resolver) TopByPopularity(ctx context.Context, n int) ([]models.Brand, error) {
	docs, err := r.st.GetOnce(ctx, "brands", store.Query{
		Filters: []store.Filter{{Field: "isActive", Op: "==", Value: true}},
		OrderBy: []store.Order{{Field: "storeCount", Desc: true}},
		Limit:   n,
	})
	if err != nil {
		return nil, err
	}
	return toBrands(docs), nil
}

// BulkResult reports a directory import.
type BulkResult struct {
	Total   int `json:"total"`
	Created int `json:"created"`
	Skipped int `json:"skipped"`
}

// BulkCreate inserts brand rows, skipping blanks and case-insensitive
// duplicates. Used by the admin back-office import.
func (r *Resolver) BulkCreate(ctx context.Context, rows []models.Brand) (BulkResult, error) {
	res := BulkResult{Total: len(rows)}
	for _, row := range rows {
		lower := Normalize(row.Name)
		if lower == "" {
			res.Skipped++
			continue
		}

		existing, err := r.st.GetOnce(ctx, "brands", store.Query{
			Filters: []store.Filter{{Field: "nameLower", Op: "==", Value: lower}},
			Limit:   1,
		})
		if err != nil {
			return res, err
		}
		if len(existing) > 0 {
			res.Skipped++
			continue
		}

		b := models.Brand{
			Name:       strings.TrimSpace(row.Name),
			NameLower:  lower,
			StoreCount: row.StoreCount,
			IsActive:   true,
			CreatedAt:  time.Now().UnixMilli(),
		}
		if _, err := r.st.Create(ctx, "brands", b.Doc()); err != nil {
			return res, err
		}
		res.Created++
	}
	return res, nil
}

func toBrands(docs []store.Document) []models.Brand {
	out := make([]models.Brand, 0, len(docs))
	for _, d := range docs {
		out = append(out, models.BrandFromDoc(d))
	}
	return out
}
