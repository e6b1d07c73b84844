package database

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIntentValidate(t *testing.T) {
	assert.NoError(t, Select("products").Where("id", 1).Validate())
	assert.NoError(t, Insert("products").Value("name", "x").Validate())

	cases := map[string]*Intent{
		"bad table":        Select("products; DROP TABLE x"),
		"bad column":       Select("products", "name AS n"),
		"bad condition":    Select("products").Where("id = 1 OR 1", 1),
		"bad order":        Select("products").OrderBy("price desc", false),
		"negative limit":   Select("products").Take(-1),
		"empty insert":     Insert("products"),
		"empty update":     Update("products").Where("id", 1),
		"unfiltered write": Update("products").Assign("name", "x"),
		"unfiltered drop":  Delete("products"),
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			assert.ErrorIs(t, in.Validate(), ErrParseFailure)
		})
	}

	assert.ErrorIs(t, (&Intent{Op: Op(9), Table: "products"}).Validate(), ErrUnsupportedOperation)
}

func TestNormalizeArg(t *testing.T) {
	yes := true
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	assert.Equal(t, int64(1), normalizeArg(true))
	assert.Equal(t, int64(0), normalizeArg(false))
	assert.Equal(t, int64(1), normalizeArg(&yes))
	assert.Nil(t, normalizeArg((*bool)(nil)))
	assert.Equal(t, now, normalizeArg(&now))
	assert.Equal(t, int64(12), normalizeArg(12))
	assert.Equal(t, int64(12), normalizeArg(json.Number("12")))
	assert.Equal(t, 1.5, normalizeArg(json.Number("1.5")))
	assert.Equal(t, "x", normalizeArg("x"))
}

type decodedProduct struct {
	ID          int64     `db:"id"`
	Name        string    `db:"name"`
	Price       float64   `db:"price"`
	IsAvailable bool      `db:"is_available"`
	Image       *string   `db:"image"`
	CreatedAt   time.Time `db:"created_at"`
}

func TestDecodeWeakTypes(t *testing.T) {
	var p decodedProduct
	err := Decode(Row{
		"id":           json.Number("4"),
		"name":         "Tea",
		"price":        "2.50",
		"is_available": int64(1),
		"image":        nil,
		"created_at":   "2026-03-04 05:06:07",
	}, &p)
	require.NoError(t, err)

	assert.Equal(t, int64(4), p.ID)
	assert.Equal(t, 2.5, p.Price)
	assert.True(t, p.IsAvailable)
	assert.Nil(t, p.Image)
	assert.Equal(t, time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC), p.CreatedAt)
}

func TestDecodeAll(t *testing.T) {
	var out []decodedProduct
	err := DecodeAll([]Row{
		{"id": int64(1), "name": "a", "price": 1.0, "is_available": int64(0), "created_at": time.Now()},
		{"id": int64(2), "name": "b", "price": json.Number("3"), "is_available": int64(1), "created_at": "2026-03-04T05:06:07Z"},
	}, &out)
	require.NoError(t, err)

	require.Len(t, out, 2)
	assert.False(t, out[0].IsAvailable)
	assert.Equal(t, 3.0, out[1].Price)
}
