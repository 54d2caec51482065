package models

import "time"

// CartItem is one row of the server-held cart, keyed by the owner ref.
// The cart is only a staging area; it is cleared once an order is
// placed from it.
type CartItem struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	OwnerRef  string    `gorm:"type:varchar(64);index;not null" json:"owner_ref"`
	MenuID    uint      `gorm:"not null" json:"menu_id"`
	Menu      Menu      `gorm:"foreignKey:MenuID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"menu"`
	Quantity  int       `gorm:"not null" json:"quantity"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}
