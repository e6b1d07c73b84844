package models

// CategoryInput is the editable part of a category.
type CategoryInput struct {
	Name       string  `json:"name"`
	NameEn     *string `json:"name_en"`
	OrderIndex int     `json:"order_index"`
	IsActive   *bool   `json:"is_active"`
}

// ProductInput is the editable part of a product. A nil Image keeps the current one.
type ProductInput struct {
	CategoryID    int64   `json:"category_id"`
	Name          string  `json:"name"`
	NameEn        *string `json:"name_en"`
	Description   *string `json:"description"`
	DescriptionEn *string `json:"description_en"`
	Price         float64 `json:"price"`
	Image         *string `json:"image"`
	IsNew         bool    `json:"is_new"`
	OrderIndex    int     `json:"order_index"`
}
