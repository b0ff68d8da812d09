package models

import "time"

// Product is the single normalized catalog shape. Prices are stored in
// paise; converting to rupees for display is the caller's concern.
type Product struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Description   string    `json:"description"`
	Type          string    `json:"type"`
	Price         int64     `json:"price"` // paise
	OriginalPrice *int64    `json:"original_price,omitempty"`
	Category      string    `json:"category"`
	Occasion      []string  `json:"occasion"`
	Stock         int       `json:"stock"`
	IsActive      bool      `json:"is_active"`
	IsFeatured    bool      `json:"is_featured"`
	Rating        float64   `json:"rating"`
	ReviewCount   int       `json:"review_count"`
	PartnerID     string    `json:"partner_id"`
	PartnerName   string    `json:"partner_name"`
	Image         string    `json:"image"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}
