package dbhelper

import (
	"context"
	"errors"
	"strings"

	"github.com/hashicorp/go-multierror"
	"golang.org/x/crypto/bcrypt"

	"github.com/ray-remotestate/restro/database"
	"github.com/ray-remotestate/restro/models"
)

var ErrIncorrectPassword = errors.New("incorrect password")

type defaultCategory struct {
	name   string
	nameEn string
}

// every new restaurant starts with these, in this order
var defaultCategories = []defaultCategory{
	{"المقبلات", "Appetizers"},
	{"الأطباق الرئيسية", "Main Dishes"},
	{"المشروبات", "Beverages"},
	{"الحلويات", "Desserts"},
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func NormalizeSlug(slug string) string {
	return strings.ToLower(strings.TrimSpace(slug))
}

func CreateRestaurant(ctx context.Context, name, slug, email, hashedPassword string, phone *string) (int64, error) {
	res, err := database.Restro.Run(ctx, `
		INSERT INTO restaurants (name, slug, email, password, phone, created_at)
		VALUES (?, ?, ?, ?, ?, CURRENT_TIMESTAMP)`,
		strings.TrimSpace(name), NormalizeSlug(slug), NormalizeEmail(email), hashedPassword, phone)
	if err != nil {
		return 0, err
	}
	return res.LastInsertID, nil
}

// CreateDefaultCategories adds the starter categories. It keeps going past a failed
// insert and reports every failure together.
func CreateDefaultCategories(ctx context.Context, restaurantID int64) error {
	var result error
	for i, c := range defaultCategories {
		_, err := database.Restro.Run(ctx, `
			INSERT INTO categories (restaurant_id, name, name_en, order_index)
			VALUES (?, ?, ?, ?)`, restaurantID, c.name, c.nameEn, i+1)
		if err != nil {
			result = multierror.Append(result, err)
		}
	}
	return result
}

func IsEmailTaken(ctx context.Context, email string) (bool, error) {
	return exists(ctx, `SELECT id FROM restaurants WHERE email = ?`, NormalizeEmail(email))
}

func IsSlugTaken(ctx context.Context, slug string) (bool, error) {
	return exists(ctx, `SELECT id FROM restaurants WHERE slug = ?`, NormalizeSlug(slug))
}

func exists(ctx context.Context, query string, args ...any) (bool, error) {
	_, err := database.Restro.Get(ctx, query, args...)
	if errors.Is(err, database.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func GetRestaurantByID(ctx context.Context, id int64) (*models.Restaurant, error) {
	return getRestaurant(ctx, `SELECT * FROM restaurants WHERE id = ?`, id)
}

func GetRestaurantBySlug(ctx context.Context, slug string) (*models.Restaurant, error) {
	return getRestaurant(ctx, `SELECT * FROM restaurants WHERE slug = ?`, NormalizeSlug(slug))
}

func GetRestaurantByEmail(ctx context.Context, email string) (*models.Restaurant, error) {
	return getRestaurant(ctx, `SELECT * FROM restaurants WHERE email = ?`, NormalizeEmail(email))
}

func getRestaurant(ctx context.Context, query string, args ...any) (*models.Restaurant, error) {
	row, err := database.Restro.Get(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	var r models.Restaurant
	if err := database.Decode(row, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// GetRestaurantByPassword returns database.ErrNoRows for an unknown email and
// ErrIncorrectPassword for a wrong password.
func GetRestaurantByPassword(ctx context.Context, email, password string) (*models.Restaurant, error) {
	r, err := GetRestaurantByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(r.Password), []byte(password)) != nil {
		return nil, ErrIncorrectPassword
	}
	return r, nil
}

func UpdateLastLogin(ctx context.Context, id int64) error {
	_, err := database.Restro.Run(ctx, `UPDATE restaurants SET last_login = CURRENT_TIMESTAMP WHERE id = ?`, id)
	return err
}

func UpdateLastLogout(ctx context.Context, id int64) error {
	_, err := database.Restro.Run(ctx, `UPDATE restaurants SET last_logout = CURRENT_TIMESTAMP WHERE id = ?`, id)
	return err
}

func UpdateSettings(ctx context.Context, id int64, s models.Settings) error {
	in := database.Update("restaurants").
		Assign("name", strings.TrimSpace(s.Name)).
		Assign("name_en", s.NameEn).
		Assign("phone", s.Phone).
		Assign("address", s.Address).
		Assign("address_en", s.AddressEn).
		Assign("updated_at", database.CurrentTimestamp)
	if s.Logo != nil {
		in.Assign("logo", *s.Logo)
	}
	res, err := database.Restro.Exec(ctx, in.Where("id", id))
	if err != nil {
		return err
	}
	if res.RowsAffected == 0 {
		return database.ErrNoRows
	}
	return nil
}

func UpdatePassword(ctx context.Context, id int64, hashedPassword string) error {
	_, err := database.Restro.Run(ctx, `
		UPDATE restaurants SET password = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`, hashedPassword, id)
	return err
}
