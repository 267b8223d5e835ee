package models

import "time"

// DefaultFoodImage is stored when a food item is created without an upload.
// It is never removed from disk.
const DefaultFoodImage = "default-food.jpg"

type Food struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"type:varchar(255);not null" json:"name"`
	Description string    `gorm:"type:text;not null" json:"description"`
	Price       float64   `gorm:"type:decimal(10,2);not null" json:"price"`
	Category    string    `gorm:"type:varchar(100);not null;index" json:"category"`
	Image       string    `gorm:"type:varchar(255);not null" json:"image"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// CategoryCount is one row of the foods-by-category aggregation.
type CategoryCount struct {
	Category string `json:"_id"`
	Count    int64  `json:"count"`
}
