package models

import (
	"time"
)

// Order kinds. "single" is the one-order-per-checkout model; "adhoc"
// orders belong to a dining session and are later merged into one
// "final" order for billing.
const (
	OrderKindSingle = "single"
	OrderKindAdhoc  = "adhoc"
	OrderKindFinal  = "final"
)

// Payment status axis.
const (
	PaymentUnpaid = "unpaid"
	PaymentPaid   = "paid"
)

// Kitchen status axis. Independent from payment status.
const (
	KitchenPending   = "pending"
	KitchenPreparing = "preparing"
	KitchenReady     = "ready"
	KitchenServed    = "served"
	KitchenCancelled = "cancelled"
)

type Order struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	OwnerRef string `gorm:"type:varchar(64);index;not null" json:"owner_ref"`
	// SessionRef groups adhoc orders from one dine-in visit until they
	// are merged into a final order.
	SessionRef  *string `gorm:"type:varchar(64);index" json:"session_ref,omitempty"`
	TableNumber int     `gorm:"not null" json:"table_number"`
	OrderKind   string  `gorm:"type:varchar(10);not null;default:'single'" json:"order_kind"`

	Items []OrderItem `gorm:"foreignKey:OrderID" json:"items"`

	// Amount is fixed at creation from the snapshotted items and is
	// never recomputed from live catalog prices.
	Amount float64 `gorm:"type:decimal(10,2);not null;default:0.00" json:"amount"`
	// MergedAmount is set only on a final order produced by a merge.
	MergedAmount float64 `gorm:"type:decimal(10,2);not null;default:0.00" json:"merged_amount"`

	PaymentStatus    string `gorm:"type:varchar(10);not null;default:'unpaid'" json:"payment_status"`
	PaymentRequested bool   `gorm:"not null;default:false" json:"payment_requested"`
	KitchenStatus    string `gorm:"type:varchar(20);not null;default:'pending'" json:"kitchen_status"`

	// Merged marks an adhoc order that was folded into a final order.
	// Merged orders are kept for audit, never deleted.
	Merged bool `gorm:"not null;default:false" json:"merged"`

	Notes     string    `gorm:"type:text" json:"notes"`
	CreatedAt time.Time `gorm:"not null;index" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

// IsKitchenStatus reports whether s is a known kitchen status.
func IsKitchenStatus(s string) bool {
	switch s {
	case KitchenPending, KitchenPreparing, KitchenReady, KitchenServed, KitchenCancelled:
		return true
	}
	return false
}

// IsPaymentStatus reports whether s is a known payment status.
func IsPaymentStatus(s string) bool {
	return s == PaymentUnpaid || s == PaymentPaid
}
