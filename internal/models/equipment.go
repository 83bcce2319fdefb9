package models

type Equipment struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name" validate:"required,max=200"`
	Category    string  `json:"category" validate:"required,max=100"`
	Description *string `json:"description"`
	// price_per_day is NUMERIC(12,2): whole cents below 10^10.
	PricePerDay float64 `json:"price_per_day" validate:"gte=0,lt=10000000000,cents"`
	ImageURL    *string `json:"image_url" validate:"omitempty,url"`
}
