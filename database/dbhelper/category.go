package dbhelper

import (
	"context"
	"strings"

	"github.com/ray-remotestate/restro/database"
	"github.com/ray-remotestate/restro/models"
)

func ListCategories(ctx context.Context, restaurantID int64, activeOnly bool) ([]models.Category, error) {
	query := `SELECT * FROM categories WHERE restaurant_id = ? ORDER BY order_index`
	args := []any{restaurantID}
	if activeOnly {
		query = `SELECT * FROM categories WHERE restaurant_id = ? AND is_active = ? ORDER BY order_index`
		args = append(args, true)
	}

	rows, err := database.Restro.All(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	categories := make([]models.Category, 0, len(rows))
	if err := database.DecodeAll(rows, &categories); err != nil {
		return nil, err
	}
	return categories, nil
}

// GetCategory returns database.ErrNoRows when the category belongs to someone else.
func GetCategory(ctx context.Context, id, restaurantID int64) (*models.Category, error) {
	row, err := database.Restro.Get(ctx, `SELECT * FROM categories WHERE id = ? AND restaurant_id = ?`, id, restaurantID)
	if err != nil {
		return nil, err
	}
	var c models.Category
	if err := database.Decode(row, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

func CreateCategory(ctx context.Context, restaurantID int64, in models.CategoryInput) (int64, error) {
	active := true
	if in.IsActive != nil {
		active = *in.IsActive
	}
	res, err := database.Restro.Run(ctx, `
		INSERT INTO categories (restaurant_id, name, name_en, order_index, is_active)
		VALUES (?, ?, ?, ?, ?)`,
		restaurantID, strings.TrimSpace(in.Name), in.NameEn, in.OrderIndex, active)
	if err != nil {
		return 0, err
	}
	return res.LastInsertID, nil
}

func UpdateCategory(ctx context.Context, id, restaurantID int64, in models.CategoryInput) error {
	upd := database.Update("categories").
		Assign("name", strings.TrimSpace(in.Name)).
		Assign("name_en", in.NameEn).
		Assign("order_index", in.OrderIndex).
		Assign("updated_at", database.CurrentTimestamp)
	if in.IsActive != nil {
		upd.Assign("is_active", *in.IsActive)
	}

	res, err := database.Restro.Exec(ctx, upd.Where("id", id).Where("restaurant_id", restaurantID))
	if err != nil {
		return err
	}
	if res.RowsAffected == 0 {
		return database.ErrNoRows
	}
	return nil
}

// DeleteCategory removes the category; its products go with it through the foreign key.
func DeleteCategory(ctx context.Context, id, restaurantID int64) error {
	res, err := database.Restro.Run(ctx, `DELETE FROM categories WHERE id = ? AND restaurant_id = ?`, id, restaurantID)
	if err != nil {
		return err
	}
	if res.RowsAffected == 0 {
		return database.ErrNoRows
	}
	return nil
}

func CountCategories(ctx context.Context, restaurantID int64) (int, error) {
	rows, err := database.Restro.All(ctx, `SELECT id FROM categories WHERE restaurant_id = ?`, restaurantID)
	if err != nil {
		return 0, err
	}
	return len(rows), nil
}
