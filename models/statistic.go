package models

import (
	"github.com/ray-remotestate/restro/database"
)

type StatisticDay struct {
	ID           int64  `db:"id" json:"id"`
	RestaurantID int64  `db:"restaurant_id" json:"restaurant_id"`
	Date         string `db:"date" json:"date"`
	Views        int64  `db:"views" json:"views"`
	Scans        int64  `db:"scans" json:"scans"`
}

type Dashboard struct {
	Restaurant    PublicRestaurant `json:"restaurant"`
	CategoryCount int              `json:"category_count"`
	ProductCount  int              `json:"product_count"`
	MenuURL       string           `json:"menu_url"`
	Stats         database.Stats   `json:"stats"`
}
