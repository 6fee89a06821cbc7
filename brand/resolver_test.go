package brand

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chorock-rock/proto-bizblah/models"
	"github.com/chorock-rock/proto-bizblah/store"
	"github.com/chorock-rock/proto-bizblah/store/memstore"
)

func seedBrand(t *testing.T, s *memstore.Store, name string, storeCount int64, active bool) string {
	t.Helper()
	id, err := s.Create(context.Background(), "brands", models.Brand{
		Name:       name,
		NameLower:  Normalize(name),
		StoreCount: storeCount,
		IsActive:   active,
	}.Doc())
	require.NoError(t, err)
	return id
}

func TestResolveMatchesCaseInsensitively(t *testing.T) {
	s := memstore.New()
	r := NewResolver(s)
	ctx := context.Background()

	id := seedBrand(t, s, "Mega Chicken", 120, true)

	b, err := r.ResolveOrCreate(ctx, "  mega chicken ")
	require.NoError(t, err)
	assert.Equal(t, id, b.ID)
	assert.Equal(t, "Mega Chicken", b.Name)
	assert.False(t, b.IsCustom)
	assert.Equal(t, 1, s.Len("brands"))
}

func TestResolveCreatesCustomBrand(t *testing.T) {
	s := memstore.New()
	r := NewResolver(s)
	ctx := context.Background()

	b, err := r.ResolveOrCreate(ctx, "Corner Cafe")
	require.NoError(t, err)
	assert.NotEmpty(t, b.ID)
	assert.Equal(t, "Corner Cafe", b.Name)
	assert.Equal(t, "corner cafe", b.NameLower)
	assert.True(t, b.IsCustom)
	assert.True(t, b.IsActive)

	// Resolving again reuses the created entry.
	again, err := r.ResolveOrCreate(ctx, "corner CAFE")
	require.NoError(t, err)
	assert.Equal(t, b.ID, again.ID)
	assert.Equal(t, 1, s.Len("brands"))
}

func TestResolveIgnoresInactiveBrands(t *testing.T) {
	s := memstore.New()
	r := NewResolver(s)
	ctx := context.Background()

	seedBrand(t, s, "Retired Brand", 10, false)

	b, err := r.ResolveOrCreate(ctx, "Retired Brand")
	require.NoError(t, err)
	assert.True(t, b.IsCustom)
	assert.Equal(t, 2, s.Len("brands"))
}

func TestResolveEmptyName(t *testing.T) {
	r := NewResolver(memstore.New())

	_, err := r.ResolveOrCreate(context.Background(), "   ")
	assert.ErrorIs(t, err, ErrEmptyName)
}

func TestRecordUsage(t *testing.T) {
	s := memstore.New()
	r := NewResolver(s)
	ctx := context.Background()

	id := seedBrand(t, s, "Mega Chicken", 120, true)

	require.NoError(t, r.RecordUsage(ctx, id))
	require.NoError(t, r.RecordUsage(ctx, id))

	doc, err := s.Get(ctx, store.Join("brands", id))
	require.NoError(t, err)
	assert.Equal(t, int64(2), doc.Int64("usageCount"))

	// A vanished brand is a no-op, not an error.
	assert.NoError(t, r.RecordUsage(ctx, "gone"))
}

func TestSearchPrefix(t *testing.T) {
	s := memstore.New()
	r := NewResolver(s)
	ctx := context.Background()

	seedBrand(t, s, "Mega Chicken", 120, true)
	seedBrand(t, s, "Mega Burger", 80, true)
	seedBrand(t, s, "Mega Pizza", 60, false)
	seedBrand(t, s, "Noodle House", 40, true)

	got, err := r.Search(ctx, "mega", 10)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Mega Burger", got[0].Name)
	assert.Equal(t, "Mega Chicken", got[1].Name)
}

func TestSearchFallsBackWithoutIndex(t *testing.T) {
	s := memstore.New()
	r := NewResolver(indexless{s})
	ctx := context.Background()

	seedBrand(t, s, "Mega Chicken", 120, true)
	seedBrand(t, s, "Noodle House", 40, true)

	got, err := r.Search(ctx, "mega", 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Mega Chicken", got[0].Name)
}

func TestTopByPopularity(t *testing.T) {
	s := memstore.New()
	r := NewResolver(s)
	ctx := context.Background()

	seedBrand(t, s, "Small", 5, true)
	seedBrand(t, s, "Big", 500, true)
	seedBrand(t, s, "Medium", 50, true)
	seedBrand(t, s, "Huge But Gone", 900, false)

	got, err := r.TopByPopularity(ctx, 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Big", got[0].Name)
	assert.Equal(t, "Medium", got[1].Name)
}

func TestBulkCreateSkipsDuplicatesAndBlanks(t *testing.T) {
	s := memstore.New()
	r := NewResolver(s)
	ctx := context.Background()

	seedBrand(t, s, "Mega Chicken", 120, true)

	res, err := r.BulkCreate(ctx, []models.Brand{
		{Name: "MEGA CHICKEN", StoreCount: 130},
		{Name: "Noodle House", StoreCount: 40},
		{Name: "   "},
	})
	require.NoError(t, err)
	assert.Equal(t, 3, res.Total)
	assert.Equal(t, 1, res.Created)
	assert.Equal(t, 2, res.Skipped)
	assert.Equal(t, 2, s.Len("brands"))
}

// indexless wraps the memory store and fails range queries the way a real
// backend does when the composite index is absent.
type indexless struct {
	*memstore.Store
}

func (w indexless) GetOnce(ctx context.Context, collectionPath string, q store.Query) ([]store.Document, error) {
	for _, f := range q.Filters {
		if f.Op != "==" {
			return nil, &store.StoreError{
				Kind: store.IndexMissing,
				Index: &store.IndexSpec{
					Collection: collectionPath,
					Fields:     []store.IndexField{{Field: f.Field}},
				},
			}
		}
	}
	return w.Store.GetOnce(ctx, collectionPath, q)
}
