package models

import (
	"time"
)

type Restaurant struct {
	ID         int64      `db:"id" json:"id"`
	Name       string     `db:"name" json:"name"`
	NameEn     *string    `db:"name_en" json:"name_en,omitempty"`
	Slug       string     `db:"slug" json:"slug"`
	Email      string     `db:"email" json:"email"`
	Password   string     `db:"password" json:"-"`
	Phone      *string    `db:"phone" json:"phone,omitempty"`
	Address    *string    `db:"address" json:"address,omitempty"`
	AddressEn  *string    `db:"address_en" json:"address_en,omitempty"`
	Logo       *string    `db:"logo" json:"logo,omitempty"`
	IsActive   bool       `db:"is_active" json:"is_active"`
	LastLogin  *time.Time `db:"last_login" json:"last_login,omitempty"`
	LastLogout *time.Time `db:"last_logout" json:"last_logout,omitempty"`
	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time  `db:"updated_at" json:"updated_at"`
}

// PublicRestaurant is what the menu page exposes about a restaurant.
type PublicRestaurant struct {
	ID        int64   `json:"id"`
	Name      string  `json:"name"`
	NameEn    *string `json:"name_en,omitempty"`
	Slug      string  `json:"slug"`
	Phone     *string `json:"phone,omitempty"`
	Address   *string `json:"address,omitempty"`
	AddressEn *string `json:"address_en,omitempty"`
	Logo      *string `json:"logo,omitempty"`
}

func (r *Restaurant) Public() PublicRestaurant {
	return PublicRestaurant{
		ID:        r.ID,
		Name:      r.Name,
		NameEn:    r.NameEn,
		Slug:      r.Slug,
		Phone:     r.Phone,
		Address:   r.Address,
		AddressEn: r.AddressEn,
		Logo:      r.Logo,
	}
}

type Settings struct {
	Name      string  `json:"name"`
	NameEn    *string `json:"name_en"`
	Phone     *string `json:"phone"`
	Address   *string `json:"address"`
	AddressEn *string `json:"address_en"`
	Logo      *string `json:"logo"`
}

type Category struct {
	ID           int64     `db:"id" json:"id"`
	RestaurantID int64     `db:"restaurant_id" json:"restaurant_id"`
	Name         string    `db:"name" json:"name"`
	NameEn       *string   `db:"name_en" json:"name_en,omitempty"`
	OrderIndex   int       `db:"order_index" json:"order_index"`
	IsActive     bool      `db:"is_active" json:"is_active"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
	Products     []Product `db:"-" json:"products,omitempty"`
}

type Product struct {
	ID            int64     `db:"id" json:"id"`
	CategoryID    int64     `db:"category_id" json:"category_id"`
	Name          string    `db:"name" json:"name"`
	NameEn        *string   `db:"name_en" json:"name_en,omitempty"`
	Description   *string   `db:"description" json:"description,omitempty"`
	DescriptionEn *string   `db:"description_en" json:"description_en,omitempty"`
	Price         float64   `db:"price" json:"price"`
	Image         *string   `db:"image" json:"image,omitempty"`
	IsAvailable   bool      `db:"is_available" json:"is_available"`
	IsNew         bool      `db:"is_new" json:"is_new"`
	OrderIndex    int       `db:"order_index" json:"order_index"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// Menu is the public view of one restaurant: active categories with their available
// products.
type Menu struct {
	Restaurant PublicRestaurant `json:"restaurant"`
	Categories []Category       `json:"categories"`
}
