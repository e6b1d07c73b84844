package dbhelper_test

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ray-remotestate/restro/database"
	"github.com/ray-remotestate/restro/database/dbhelper"
	"github.com/ray-remotestate/restro/internal/fakerest"
	"github.com/ray-remotestate/restro/models"
)

func openSQLite(t *testing.T) *database.Store {
	t.Helper()
	store, err := database.OpenSQLite(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func openREST(t *testing.T) *database.Store {
	t.Helper()
	srv := httptest.NewServer(fakerest.New(openSQLite(t)))
	t.Cleanup(srv.Close)

	store, err := database.OpenREST(srv.URL, "anon-key", srv.Client())
	require.NoError(t, err)
	return store
}

// eachBackend runs fn with database.Restro pointing at every backend in turn.
func eachBackend(t *testing.T, fn func(t *testing.T)) {
	backends := map[string]func(*testing.T) *database.Store{
		"sqlite": openSQLite,
		"rest":   openREST,
	}
	for name, open := range backends {
		t.Run(name, func(t *testing.T) {
			prev := database.Restro
			database.Restro = open(t)
			t.Cleanup(func() { database.Restro = prev })
			fn(t)
		})
	}
}

func register(t *testing.T, slug string) int64 {
	t.Helper()
	id, err := dbhelper.CreateRestaurant(context.Background(), "Cafe "+slug, slug, slug+"@example.com", "not-a-hash", nil)
	require.NoError(t, err)
	require.NotZero(t, id)
	return id
}

func TestRegistration(t *testing.T) {
	eachBackend(t, func(t *testing.T) {
		ctx := context.Background()
		id, err := dbhelper.CreateRestaurant(ctx, " Cafe ", "My-Cafe", "Owner@Example.com", "hash", nil)
		require.NoError(t, err)
		require.NoError(t, dbhelper.CreateDefaultCategories(ctx, id))

		r, err := dbhelper.GetRestaurantByID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "Cafe", r.Name)
		assert.Equal(t, "my-cafe", r.Slug)
		assert.Equal(t, "owner@example.com", r.Email)
		assert.True(t, r.IsActive)
		assert.Nil(t, r.Phone)
		assert.Nil(t, r.LastLogin)

		categories, err := dbhelper.ListCategories(ctx, id, false)
		require.NoError(t, err)
		require.Len(t, categories, 4)
		var names []string
		for _, c := range categories {
			require.NotNil(t, c.NameEn)
			names = append(names, *c.NameEn)
		}
		assert.Equal(t, []string{"Appetizers", "Main Dishes", "Beverages", "Desserts"}, names)

		taken, err := dbhelper.IsEmailTaken(ctx, "OWNER@example.com ")
		require.NoError(t, err)
		assert.True(t, taken)
		taken, err = dbhelper.IsSlugTaken(ctx, "my-cafe")
		require.NoError(t, err)
		assert.True(t, taken)
		taken, err = dbhelper.IsSlugTaken(ctx, "someone-else")
		require.NoError(t, err)
		assert.False(t, taken)

		_, err = dbhelper.CreateRestaurant(ctx, "Copy", "my-cafe", "copy@example.com", "hash", nil)
		assert.Error(t, err)
	})
}

func TestLoginBookkeeping(t *testing.T) {
	eachBackend(t, func(t *testing.T) {
		ctx := context.Background()
		id := register(t, "login")

		require.NoError(t, dbhelper.UpdateLastLogin(ctx, id))
		require.NoError(t, dbhelper.UpdateLastLogout(ctx, id))

		r, err := dbhelper.GetRestaurantBySlug(ctx, "login")
		require.NoError(t, err)
		assert.NotNil(t, r.LastLogin)
		assert.NotNil(t, r.LastLogout)

		_, err = dbhelper.GetRestaurantByPassword(ctx, "nobody@example.com", "x")
		assert.ErrorIs(t, err, database.ErrNoRows)
		_, err = dbhelper.GetRestaurantByPassword(ctx, "login@example.com", "x")
		assert.ErrorIs(t, err, dbhelper.ErrIncorrectPassword)
	})
}

func TestUpdateSettingsAndPassword(t *testing.T) {
	eachBackend(t, func(t *testing.T) {
		ctx := context.Background()
		id := register(t, "settings")

		logo := "https://cdn.example.com/logo.png"
		phone := "+15550100"
		require.NoError(t, dbhelper.UpdateSettings(ctx, id, models.Settings{Name: "Renamed", Phone: &phone, Logo: &logo}))
		require.NoError(t, dbhelper.UpdatePassword(ctx, id, "new-hash"))

		r, err := dbhelper.GetRestaurantByID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "Renamed", r.Name)
		require.NotNil(t, r.Phone)
		assert.Equal(t, phone, *r.Phone)
		require.NotNil(t, r.Logo)
		assert.Equal(t, logo, *r.Logo)
		assert.Equal(t, "new-hash", r.Password)

		assert.ErrorIs(t, dbhelper.UpdateSettings(ctx, id+100, models.Settings{Name: "x"}), database.ErrNoRows)
	})
}

func TestCategoryCRUD(t *testing.T) {
	eachBackend(t, func(t *testing.T) {
		ctx := context.Background()
		owner := register(t, "owner")
		other := register(t, "other")

		inactive := false
		id, err := dbhelper.CreateCategory(ctx, owner, models.CategoryInput{Name: "Soups", OrderIndex: 2})
		require.NoError(t, err)
		_, err = dbhelper.CreateCategory(ctx, owner, models.CategoryInput{Name: "Hidden", OrderIndex: 1, IsActive: &inactive})
		require.NoError(t, err)

		all, err := dbhelper.ListCategories(ctx, owner, false)
		require.NoError(t, err)
		require.Len(t, all, 2)
		assert.Equal(t, "Hidden", all[0].Name)

		active, err := dbhelper.ListCategories(ctx, owner, true)
		require.NoError(t, err)
		require.Len(t, active, 1)
		assert.Equal(t, "Soups", active[0].Name)

		_, err = dbhelper.GetCategory(ctx, id, other)
		assert.ErrorIs(t, err, database.ErrNoRows)
		assert.ErrorIs(t, dbhelper.UpdateCategory(ctx, id, other, models.CategoryInput{Name: "Stolen"}), database.ErrNoRows)
		assert.ErrorIs(t, dbhelper.DeleteCategory(ctx, id, other), database.ErrNoRows)

		require.NoError(t, dbhelper.UpdateCategory(ctx, id, owner, models.CategoryInput{Name: "Hot soups", OrderIndex: 5}))
		c, err := dbhelper.GetCategory(ctx, id, owner)
		require.NoError(t, err)
		assert.Equal(t, "Hot soups", c.Name)
		assert.Equal(t, 5, c.OrderIndex)

		count, err := dbhelper.CountCategories(ctx, owner)
		require.NoError(t, err)
		assert.Equal(t, 2, count)

		require.NoError(t, dbhelper.DeleteCategory(ctx, id, owner))
		count, err = dbhelper.CountCategories(ctx, owner)
		require.NoError(t, err)
		assert.Equal(t, 1, count)
	})
}

func TestProductOwnership(t *testing.T) {
	eachBackend(t, func(t *testing.T) {
		ctx := context.Background()
		owner := register(t, "owner")
		other := register(t, "other")

		cid, err := dbhelper.CreateCategory(ctx, owner, models.CategoryInput{Name: "Drinks"})
		require.NoError(t, err)
		theirs, err := dbhelper.CreateCategory(ctx, other, models.CategoryInput{Name: "Theirs"})
		require.NoError(t, err)

		pid, err := dbhelper.CreateProduct(ctx, owner, models.ProductInput{CategoryID: cid, Name: "Tea", Price: 2.5})
		require.NoError(t, err)

		_, err = dbhelper.CreateProduct(ctx, owner, models.ProductInput{CategoryID: theirs, Name: "Sneaky", Price: 1})
		assert.ErrorIs(t, err, database.ErrNoRows)
		_, err = dbhelper.CreateProduct(ctx, owner, models.ProductInput{CategoryID: cid, Name: "Free", Price: -1})
		assert.ErrorIs(t, err, dbhelper.ErrInvalidProduct)

		_, err = dbhelper.GetProduct(ctx, pid, other)
		assert.ErrorIs(t, err, database.ErrNoRows)
		_, err = dbhelper.ToggleProduct(ctx, pid, other)
		assert.ErrorIs(t, err, database.ErrNoRows)
		assert.ErrorIs(t, dbhelper.DeleteProduct(ctx, pid, other), database.ErrNoRows)
		assert.ErrorIs(t, dbhelper.UpdateProduct(ctx, pid, owner, models.ProductInput{CategoryID: theirs, Name: "Moved", Price: 1}), database.ErrNoRows)

		p, err := dbhelper.GetProduct(ctx, pid, owner)
		require.NoError(t, err)
		assert.Equal(t, "Tea", p.Name)
		assert.Equal(t, 2.5, p.Price)
		assert.True(t, p.IsAvailable)

		available, err := dbhelper.ToggleProduct(ctx, pid, owner)
		require.NoError(t, err)
		assert.False(t, available)

		image := "tea.png"
		require.NoError(t, dbhelper.UpdateProduct(ctx, pid, owner, models.ProductInput{CategoryID: cid, Name: "Green tea", Price: 3, Image: &image, IsNew: true}))
		p, err = dbhelper.GetProduct(ctx, pid, owner)
		require.NoError(t, err)
		assert.Equal(t, "Green tea", p.Name)
		assert.True(t, p.IsNew)
		assert.False(t, p.IsAvailable)
		require.NotNil(t, p.Image)
		assert.Equal(t, image, *p.Image)

		count, err := dbhelper.CountProducts(ctx, owner)
		require.NoError(t, err)
		assert.Equal(t, 1, count)

		require.NoError(t, dbhelper.DeleteProduct(ctx, pid, owner))
		_, err = dbhelper.GetProduct(ctx, pid, owner)
		assert.ErrorIs(t, err, database.ErrNoRows)
	})
}

func TestMenuShowsOnlyAvailableProducts(t *testing.T) {
	eachBackend(t, func(t *testing.T) {
		ctx := context.Background()
		rid := register(t, "demo")

		cid, err := dbhelper.CreateCategory(ctx, rid, models.CategoryInput{Name: "Drinks"})
		require.NoError(t, err)
		_, err = dbhelper.CreateProduct(ctx, rid, models.ProductInput{CategoryID: cid, Name: "Tea", Price: 2})
		require.NoError(t, err)
		gone, err := dbhelper.CreateProduct(ctx, rid, models.ProductInput{CategoryID: cid, Name: "Coffee", Price: 3})
		require.NoError(t, err)
		_, err = dbhelper.ToggleProduct(ctx, gone, rid)
		require.NoError(t, err)

		menu, err := dbhelper.GetMenu(ctx, "demo")
		require.NoError(t, err)
		assert.Equal(t, "demo", menu.Restaurant.Slug)
		require.Len(t, menu.Categories, 1)
		require.Len(t, menu.Categories[0].Products, 1)
		assert.Equal(t, "Tea", menu.Categories[0].Products[0].Name)

		_, err = dbhelper.GetMenu(ctx, "missing")
		assert.ErrorIs(t, err, database.ErrNoRows)
	})
}

func TestRecordVisit(t *testing.T) {
	eachBackend(t, func(t *testing.T) {
		ctx := context.Background()
		rid := register(t, "visits")

		require.NoError(t, dbhelper.RecordVisit(ctx, rid, false))
		require.NoError(t, dbhelper.RecordVisit(ctx, rid, true))

		history, err := dbhelper.ListStatistics(ctx, rid, 30)
		require.NoError(t, err)
		require.Len(t, history, 1)
		assert.EqualValues(t, 2, history[0].Views)
		assert.EqualValues(t, 1, history[0].Scans)
	})
}

func TestSeedDemo(t *testing.T) {
	prev := database.Restro
	database.Restro = openSQLite(t)
	t.Cleanup(func() { database.Restro = prev })
	ctx := context.Background()

	require.NoError(t, dbhelper.SeedDemo(ctx))
	require.NoError(t, dbhelper.SeedDemo(ctx))

	r, err := dbhelper.GetRestaurantByPassword(ctx, dbhelper.DemoEmail, dbhelper.DemoPassword)
	require.NoError(t, err)
	assert.Equal(t, dbhelper.DemoSlug, r.Slug)

	menu, err := dbhelper.GetMenu(ctx, dbhelper.DemoSlug)
	require.NoError(t, err)
	require.Len(t, menu.Categories, 3)
	products := 0
	for _, c := range menu.Categories {
		products += len(c.Products)
	}
	assert.Equal(t, 6, products)
}
