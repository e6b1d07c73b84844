package dbhelper

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/ray-remotestate/restro/database"
	"github.com/ray-remotestate/restro/models"
)

var ErrInvalidProduct = errors.New("invalid product")

func ListProductsByCategory(ctx context.Context, categoryID int64, availableOnly bool) ([]models.Product, error) {
	in := database.Select("products").Where("category_id", categoryID).OrderBy("order_index", false)
	if availableOnly {
		in.Where("is_available", true)
	}

	rows, err := database.Restro.Find(ctx, in)
	if err != nil {
		return nil, err
	}
	products := make([]models.Product, 0, len(rows))
	if err := database.DecodeAll(rows, &products); err != nil {
		return nil, err
	}
	return products, nil
}

// ListProducts returns every product of the restaurant grouped by category order.
func ListProducts(ctx context.Context, restaurantID int64) ([]models.Product, error) {
	categories, err := ListCategories(ctx, restaurantID, false)
	if err != nil {
		return nil, err
	}

	perCategory, err := productsFor(ctx, categories, false)
	if err != nil {
		return nil, err
	}
	products := []models.Product{}
	for _, p := range perCategory {
		products = append(products, p...)
	}
	return products, nil
}

// productsFor loads the products of each category concurrently, keeping category order.
func productsFor(ctx context.Context, categories []models.Category, availableOnly bool) ([][]models.Product, error) {
	out := make([][]models.Product, len(categories))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i, c := range categories {
		i, c := i, c
		g.Go(func() error {
			products, err := ListProductsByCategory(gctx, c.ID, availableOnly)
			if err != nil {
				return err
			}
			out[i] = products
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// GetProduct checks ownership through the product's category.
func GetProduct(ctx context.Context, id, restaurantID int64) (*models.Product, error) {
	row, err := database.Restro.Get(ctx, `SELECT * FROM products WHERE id = ?`, id)
	if err != nil {
		return nil, err
	}
	var p models.Product
	if err := database.Decode(row, &p); err != nil {
		return nil, err
	}
	if _, err := GetCategory(ctx, p.CategoryID, restaurantID); err != nil {
		return nil, err
	}
	return &p, nil
}

func ValidateProduct(in models.ProductInput) error {
	switch {
	case strings.TrimSpace(in.Name) == "":
		return fmt.Errorf("%w: name is required", ErrInvalidProduct)
	case in.CategoryID == 0:
		return fmt.Errorf("%w: category is required", ErrInvalidProduct)
	case in.Price < 0:
		return fmt.Errorf("%w: price must not be negative", ErrInvalidProduct)
	}
	return nil
}

// CreateProduct returns database.ErrNoRows when the category is not the restaurant's.
func CreateProduct(ctx context.Context, restaurantID int64, in models.ProductInput) (int64, error) {
	if err := ValidateProduct(in); err != nil {
		return 0, err
	}
	if _, err := GetCategory(ctx, in.CategoryID, restaurantID); err != nil {
		return 0, err
	}

	res, err := database.Restro.Run(ctx, `
		INSERT INTO products (
			category_id, name, name_en, description, description_en,
			price, image, is_available, is_new, order_index, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)`,
		in.CategoryID, strings.TrimSpace(in.Name), in.NameEn, in.Description, in.DescriptionEn,
		in.Price, in.Image, true, in.IsNew, in.OrderIndex)
	if err != nil {
		return 0, err
	}
	return res.LastInsertID, nil
}

func UpdateProduct(ctx context.Context, id, restaurantID int64, in models.ProductInput) error {
	if err := ValidateProduct(in); err != nil {
		return err
	}
	if _, err := GetProduct(ctx, id, restaurantID); err != nil {
		return err
	}
	if _, err := GetCategory(ctx, in.CategoryID, restaurantID); err != nil {
		return err
	}

	upd := database.Update("products").
		Assign("category_id", in.CategoryID).
		Assign("name", strings.TrimSpace(in.Name)).
		Assign("name_en", in.NameEn).
		Assign("description", in.Description).
		Assign("description_en", in.DescriptionEn).
		Assign("price", in.Price).
		Assign("is_new", in.IsNew).
		Assign("order_index", in.OrderIndex).
		Assign("updated_at", database.CurrentTimestamp)
	if in.Image != nil {
		upd.Assign("image", *in.Image)
	}
	_, err := database.Restro.Exec(ctx, upd.Where("id", id))
	return err
}

func DeleteProduct(ctx context.Context, id, restaurantID int64) error {
	if _, err := GetProduct(ctx, id, restaurantID); err != nil {
		return err
	}
	_, err := database.Restro.Run(ctx, `DELETE FROM products WHERE id = ?`, id)
	return err
}

// ToggleProduct flips availability and returns the new state.
func ToggleProduct(ctx context.Context, id, restaurantID int64) (bool, error) {
	p, err := GetProduct(ctx, id, restaurantID)
	if err != nil {
		return false, err
	}
	available := !p.IsAvailable
	_, err = database.Restro.Run(ctx, `
		UPDATE products SET is_available = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`, available, id)
	if err != nil {
		return false, err
	}
	return available, nil
}

func CountProducts(ctx context.Context, restaurantID int64) (int, error) {
	products, err := ListProducts(ctx, restaurantID)
	if err != nil {
		return 0, err
	}
	return len(products), nil
}
