package domain

import (
	"strings"
	"time"
)

// Category is the closed set of catalog sections.
type Category string

const (
	CategoryEmail    Category = "email"
	CategorySMS      Category = "sms"
	CategoryDatabase Category = "database"
	CategoryAccount  Category = "account"
	CategoryTool     Category = "tool"
)

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	switch c {
	case CategoryEmail, CategorySMS, CategoryDatabase, CategoryAccount, CategoryTool:
		return true
	}
	return false
}

// Product represents a catalog listing. Immutable once listed, except
// through the admin panel.
type Product struct {
	ID          string    `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Description string    `json:"description" db:"description"`
	Price       float64   `json:"price" db:"price"`
	ImageURL    string    `json:"image_url" db:"image_url"`
	Category    Category  `json:"category" db:"category"`
	Verified    bool      `json:"verified" db:"verified"`
	Rating      float64   `json:"rating" db:"rating"`
	Reviews     int       `json:"reviews" db:"reviews"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// Features splits the comma-delimited description into its feature list.
// The first entry doubles as the product's short tagline.
func (p Product) Features() []string {
	parts := strings.Split(p.Description, ",")
	features := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			features = append(features, trimmed)
		}
	}
	return features
}
