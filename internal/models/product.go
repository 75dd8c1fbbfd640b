package models

import (
	"time"
)

// Product is shared by every storage backend: gorm maps it to the products
// table, the document store keeps it as one document with Reviews embedded.
type Product struct {
	ID          string    `json:"id" gorm:"primaryKey;type:varchar(36)" bson:"_id"`
	Name        string    `json:"name" gorm:"not null" bson:"name"`
	Description string    `json:"description" gorm:"not null" bson:"description"`
	Brand       string    `json:"brand" gorm:"not null" bson:"brand"`
	ImageURL    string    `json:"imageUrl" gorm:"not null" bson:"imageUrl"`
	Price       float64   `json:"price" gorm:"not null" bson:"price"`
	Category    string    `json:"category" gorm:"index;not null" bson:"category"`
	CreatedAt   time.Time `json:"createdAt" gorm:"autoCreateTime:false;index" bson:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt" gorm:"autoUpdateTime:false" bson:"updatedAt"`

	// Relations
	Reviews []Review `json:"reviews" gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE" bson:"reviews"`
}

// Request structs for API
type CreateProductRequest struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Brand       string  `json:"brand"`
	ImageURL    string  `json:"imageUrl"`
	Price       float64 `json:"price"`
	Category    string  `json:"category"`
}

type UpdateProductRequest struct {
	Name        *string  `json:"name,omitempty"`
	Description *string  `json:"description,omitempty"`
	Brand       *string  `json:"brand,omitempty"`
	ImageURL    *string  `json:"imageUrl,omitempty"`
	Price       *float64 `json:"price,omitempty"`
	Category    *string  `json:"category,omitempty"`
}

// Apply copies every field present in the request onto p.
func (r *UpdateProductRequest) Apply(p *Product) {
	if r.Name != nil {
		p.Name = *r.Name
	}
	if r.Description != nil {
		p.Description = *r.Description
	}
	if r.Brand != nil {
		p.Brand = *r.Brand
	}
	if r.ImageURL != nil {
		p.ImageURL = *r.ImageURL
	}
	if r.Price != nil {
		p.Price = *r.Price
	}
	if r.Category != nil {
		p.Category = *r.Category
	}
}

type ProductFilter struct {
	Category string
}

// Matches reports whether p passes the filter. Category is an exact match.
func (f ProductFilter) Matches(p *Product) bool {
	return f.Category == "" || p.Category == f.Category
}
