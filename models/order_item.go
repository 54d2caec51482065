package models

import (
	"time"
)

// OrderItem is a line of an order with name and unit price snapshotted
// at placement time. Later catalog changes must not touch these rows.
type OrderItem struct {
	ID      uint `gorm:"primaryKey" json:"id"`
	OrderID uint `gorm:"not null;index" json:"order_id"`
	// Omitting Order field from JSON to avoid recursive nesting
	Order Order `gorm:"foreignKey:OrderID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	// ItemRef is empty for synthetic add-ons supplied directly by the
	// client snapshot (they have no catalog row to point at).
	ItemRef   string    `gorm:"type:varchar(64)" json:"item_ref"`
	Name      string    `gorm:"type:varchar(255);not null" json:"name"`
	UnitPrice float64   `gorm:"type:decimal(10,2);not null" json:"unit_price"`
	Quantity  int       `gorm:"not null" json:"quantity"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

// Subtotal of this line.
func (it OrderItem) Subtotal() float64 {
	return it.UnitPrice * float64(it.Quantity)
}
