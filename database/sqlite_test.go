package database_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/ray-remotestate/restro/database"
)

func newSQLite(t *testing.T, opts ...database.Option) *database.Store {
	t.Helper()
	store, err := database.OpenSQLite(context.Background(), ":memory:", opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func seedRestaurant(t *testing.T, store *database.Store, slug string) int64 {
	t.Helper()
	res, err := store.Run(context.Background(),
		"INSERT INTO restaurants (name, slug, email, password) VALUES (?, ?, ?, ?)",
		"Cafe "+slug, slug, slug+"@example.com", "hash")
	require.NoError(t, err)
	require.NotZero(t, res.LastInsertID)
	return res.LastInsertID
}

func TestSQLiteRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newSQLite(t)
	rid := seedRestaurant(t, store, "demo")

	res, err := store.Run(ctx, "INSERT INTO categories (restaurant_id, name, order_index) VALUES (?, ?, ?)", rid, "Drinks", 1)
	require.NoError(t, err)
	cid := res.LastInsertID
	assert.EqualValues(t, 1, res.RowsAffected)

	row, err := store.Get(ctx, "SELECT * FROM categories WHERE id = ?", cid)
	require.NoError(t, err)
	assert.Equal(t, "Drinks", row["name"])
	assert.EqualValues(t, rid, row["restaurant_id"])

	res, err = store.Run(ctx, "UPDATE categories SET name = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?", "Hot drinks", cid)
	require.NoError(t, err)
	assert.EqualValues(t, 1, res.RowsAffected)

	rows, err := store.All(ctx, "SELECT id, name FROM categories WHERE restaurant_id = ? ORDER BY order_index", rid)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Hot drinks", rows[0]["name"])

	res, err = store.Run(ctx, "DELETE FROM categories WHERE id = ?", cid)
	require.NoError(t, err)
	assert.EqualValues(t, 1, res.RowsAffected)

	_, err = store.Get(ctx, "SELECT * FROM categories WHERE id = ?", cid)
	assert.ErrorIs(t, err, database.ErrNoRows)
}

func TestSQLiteAllEmptyIsNotNil(t *testing.T) {
	store := newSQLite(t)

	rows, err := store.All(context.Background(), "SELECT * FROM products WHERE category_id = ?", 42)
	require.NoError(t, err)
	assert.NotNil(t, rows)
	assert.Empty(t, rows)
}

func TestSQLiteIntents(t *testing.T) {
	ctx := context.Background()
	store := newSQLite(t)
	rid := seedRestaurant(t, store, "intents")

	for i, name := range []string{"b", "a", "c"} {
		_, err := store.Exec(ctx, database.Insert("categories").
			Value("restaurant_id", rid).
			Value("name", name).
			Value("order_index", i).
			Value("is_active", i != 2))
		require.NoError(t, err)
	}

	rows, err := store.Find(ctx, database.Select("categories", "name").
		Where("restaurant_id", rid).
		Where("is_active", true).
		OrderBy("name", false))
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "a", rows[0]["name"])
	assert.Equal(t, "b", rows[1]["name"])

	first, err := store.First(ctx, database.Select("categories").Where("restaurant_id", rid).OrderBy("order_index", true))
	require.NoError(t, err)
	assert.Equal(t, "c", first["name"])

	_, err = store.Find(ctx, database.Delete("categories").Where("id", 1))
	assert.ErrorIs(t, err, database.ErrUnsupportedOperation)

	_, err = store.Exec(ctx, database.Delete("categories"))
	assert.ErrorIs(t, err, database.ErrParseFailure)
}

func TestSQLiteConstraintIsBackendError(t *testing.T) {
	store := newSQLite(t)
	seedRestaurant(t, store, "dup")

	_, err := store.Run(context.Background(),
		"INSERT INTO restaurants (name, slug, email, password) VALUES (?, ?, ?, ?)",
		"Other", "dup", "other@example.com", "hash")
	require.Error(t, err)

	var berr *database.BackendError
	require.ErrorAs(t, err, &berr)
	assert.Equal(t, database.BackendSQLite, berr.Backend)
}

func TestUpdateTimestamp(t *testing.T) {
	ctx := context.Background()
	store := newSQLite(t)
	rid := seedRestaurant(t, store, "stamp")

	_, err := store.Run(ctx, "UPDATE restaurants SET updated_at = ? WHERE id = ?", "2000-01-01 00:00:00", rid)
	require.NoError(t, err)
	require.NoError(t, store.UpdateTimestamp(ctx, "restaurants", rid))

	var r struct {
		UpdatedAt time.Time `db:"updated_at"`
	}
	row, err := store.First(ctx, database.Select("restaurants", "updated_at").Where("id", rid))
	require.NoError(t, err)
	require.NoError(t, database.Decode(row, &r))
	assert.Greater(t, r.UpdatedAt.Year(), 2000)
}

func TestAddStatisticRejectsUnknownCounter(t *testing.T) {
	store := newSQLite(t)
	rid := seedRestaurant(t, store, "bad")

	err := store.AddStatistic(context.Background(), rid, database.Counter("clicks"))
	assert.ErrorIs(t, err, database.ErrInvalidCounter)

	rows, err := store.All(context.Background(), "SELECT * FROM statistics WHERE restaurant_id = ?", rid)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestAddStatisticConcurrent(t *testing.T) {
	ctx := context.Background()
	store := newSQLite(t)
	rid := seedRestaurant(t, store, "busy")

	const n = 50
	var g errgroup.Group
	for i := 0; i < n; i++ {
		g.Go(func() error {
			return store.AddStatistic(ctx, rid, database.CounterViews)
		})
	}
	require.NoError(t, g.Wait())

	rows, err := store.All(ctx, "SELECT * FROM statistics WHERE restaurant_id = ?", rid)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.EqualValues(t, n, rows[0]["views"])
	assert.EqualValues(t, 0, rows[0]["scans"])
}

func TestRestaurantStatsWindows(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 5, 20, 12, 0, 0, 0, time.Local)
	clock := func() time.Time { return now }
	store := newSQLite(t, database.WithClock(clock))
	rid := seedRestaurant(t, store, "stats")

	empty, err := store.RestaurantStats(ctx, rid)
	require.NoError(t, err)
	assert.Equal(t, database.Stats{}, empty)

	history := []struct {
		date         string
		views, scans int
	}{
		{"2026-05-20", 0, 0},
		{"2026-05-02", 4, 1},
		{"2026-04-30", 10, 3},
		{"2025-05-20", 7, 0},
	}
	for _, h := range history {
		_, err := store.Run(ctx, "INSERT INTO statistics (restaurant_id, date, views, scans) VALUES (?, ?, ?, ?)", rid, h.date, h.views, h.scans)
		require.NoError(t, err)
	}

	require.NoError(t, store.AddStatistic(ctx, rid, database.CounterViews))
	require.NoError(t, store.AddStatistic(ctx, rid, database.CounterViews))
	require.NoError(t, store.AddStatistic(ctx, rid, database.CounterScans))

	other := seedRestaurant(t, store, "other")
	require.NoError(t, store.AddStatistic(ctx, other, database.CounterViews))

	st, err := store.RestaurantStats(ctx, rid)
	require.NoError(t, err)
	assert.Equal(t, database.Counts{Views: 2, Scans: 1}, st.Today)
	assert.Equal(t, database.Counts{Views: 6, Scans: 2}, st.Month)
	assert.Equal(t, database.Counts{Views: 23, Scans: 5}, st.Total)
}
