package models

import "time"

type Menu struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"type:varchar(255); not null" json:"name"`
	Price       float64   `gorm:"type:decimal(10,2); not null" json:"price"`
	Category    string    `gorm:"type:varchar(100)" json:"category"`
	Description string    `gorm:"type:text" json:"description"`
	Available   bool      `gorm:"not null;default:true" json:"available"`
	CreatedAt   time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time `gorm:"not null" json:"updated_at"`
}
