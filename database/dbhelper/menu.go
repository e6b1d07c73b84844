package dbhelper

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/ray-remotestate/restro/database"
	"github.com/ray-remotestate/restro/models"
)

// GetMenu builds the public menu for a slug. Unknown and deactivated restaurants are
// reported as database.ErrNoRows.
func GetMenu(ctx context.Context, slug string) (*models.Menu, error) {
	r, err := GetRestaurantBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if !r.IsActive {
		return nil, database.ErrNoRows
	}

	categories, err := ListCategories(ctx, r.ID, true)
	if err != nil {
		return nil, err
	}
	products, err := productsFor(ctx, categories, true)
	if err != nil {
		return nil, err
	}
	for i := range categories {
		categories[i].Products = products[i]
	}

	logrus.WithFields(logrus.Fields{
		"slug":       r.Slug,
		"categories": len(categories),
	}).Debug("menu built")

	return &models.Menu{
		Restaurant: r.Public(),
		Categories: categories,
	}, nil
}

// RecordVisit counts a menu view and, for QR traffic, a scan.
func RecordVisit(ctx context.Context, restaurantID int64, fromQR bool) error {
	if err := database.Restro.AddStatistic(ctx, restaurantID, database.CounterViews); err != nil {
		return err
	}
	if fromQR {
		return database.Restro.AddStatistic(ctx, restaurantID, database.CounterScans)
	}
	return nil
}

func ListStatistics(ctx context.Context, restaurantID int64, days int) ([]models.StatisticDay, error) {
	in := database.Select("statistics").
		Where("restaurant_id", restaurantID).
		OrderBy("date", true).
		Take(days)
	rows, err := database.Restro.Find(ctx, in)
	if err != nil {
		return nil, err
	}
	history := make([]models.StatisticDay, 0, len(rows))
	if err := database.DecodeAll(rows, &history); err != nil {
		return nil, err
	}
	return history, nil
}
