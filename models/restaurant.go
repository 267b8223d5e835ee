package models

import "time"

const DefaultRestaurantImage = "default-restaurant.jpg"

type Restaurant struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Name         string    `gorm:"type:varchar(255);not null" json:"name"`
	Image        string    `gorm:"type:varchar(255);not null" json:"image"`
	Rating       float64   `gorm:"not null" json:"rating"`
	DeliveryTime string    `gorm:"type:varchar(100);not null" json:"deliveryTime"`
	Cuisine      string    `gorm:"type:varchar(100);not null" json:"cuisine"`
	Badge        string    `gorm:"type:varchar(100)" json:"badge"`
	Discount     string    `gorm:"type:varchar(100)" json:"discount"`
	Address      string    `gorm:"type:varchar(255);not null" json:"address"`
	Phone        string    `gorm:"type:varchar(50);not null" json:"phone"`
	Email        string    `gorm:"type:varchar(255);not null" json:"email"`
	IsActive     bool      `gorm:"not null" json:"isActive"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}
