package dbhelper

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/ray-remotestate/restro/database"
	"github.com/ray-remotestate/restro/models"
	"github.com/ray-remotestate/restro/utils"
)

const (
	DemoSlug     = "demo"
	DemoEmail    = "demo@restro.local"
	DemoPassword = "demo123"
)

type demoProduct struct {
	name, nameEn string
	price        float64
	isNew        bool
}

var demoMenu = []struct {
	category models.CategoryInput
	products []demoProduct
}{
	{
		category: models.CategoryInput{Name: "المشروبات", NameEn: ptr("Beverages"), OrderIndex: 1},
		products: []demoProduct{
			{"قهوة عربية", "Arabic Coffee", 8, false},
			{"شاي بالنعناع", "Mint Tea", 6, false},
			{"عصير برتقال", "Orange Juice", 12, true},
		},
	},
	{
		category: models.CategoryInput{Name: "الأطباق الرئيسية", NameEn: ptr("Main Dishes"), OrderIndex: 2},
		products: []demoProduct{
			{"كبسة دجاج", "Chicken Kabsa", 35, false},
			{"مندي لحم", "Lamb Mandi", 55, true},
		},
	},
	{
		category: models.CategoryInput{Name: "الحلويات", NameEn: ptr("Desserts"), OrderIndex: 3},
		products: []demoProduct{
			{"كنافة", "Kunafa", 18, false},
		},
	},
}

// SeedDemo creates the demo restaurant and its menu once. It does nothing when the demo
// slug already exists.
func SeedDemo(ctx context.Context) error {
	_, err := GetRestaurantBySlug(ctx, DemoSlug)
	if err == nil {
		return nil
	}
	if !errors.Is(err, database.ErrNoRows) {
		return err
	}

	hash, err := utils.HashPassword(DemoPassword)
	if err != nil {
		return fmt.Errorf("hash demo password: %w", err)
	}
	id, err := CreateRestaurant(ctx, "مطعم تجريبي", DemoSlug, DemoEmail, hash, ptr("+966500000000"))
	if err != nil {
		return fmt.Errorf("create demo restaurant: %w", err)
	}

	products := 0
	for _, section := range demoMenu {
		cid, err := CreateCategory(ctx, id, section.category)
		if err != nil {
			return fmt.Errorf("create demo category: %w", err)
		}
		for i, p := range section.products {
			_, err := CreateProduct(ctx, id, models.ProductInput{
				CategoryID: cid,
				Name:       p.name,
				NameEn:     ptr(p.nameEn),
				Price:      p.price,
				IsNew:      p.isNew,
				OrderIndex: i + 1,
			})
			if err != nil {
				return fmt.Errorf("create demo product: %w", err)
			}
			products++
		}
	}

	logrus.WithFields(logrus.Fields{
		"slug":       DemoSlug,
		"categories": len(demoMenu),
		"products":   products,
	}).Info("demo restaurant seeded")
	return nil
}

func ptr[T any](v T) *T {
	return &v
}
