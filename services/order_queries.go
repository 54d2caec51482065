package services

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/tablemate/dinein-backend/models"
)

// OrderQueries is the pull side of the core: every reconciliation
// fetch re-reads the store, nothing is cached in process.
type OrderQueries struct {
	DB *gorm.DB
}

func NewOrderQueries(db *gorm.DB) *OrderQueries {
	return &OrderQueries{DB: db}
}

// ListFilter narrows the admin listing. From/To are calendar days
// ("2006-01-02") with inclusive boundaries: From at 00:00:00.000,
// To at 23:59:59.999.
type ListFilter struct {
	From          string
	To            string
	PaymentStatus string
	KitchenStatus string
	OrderKind     string
}

func (oq *OrderQueries) ListOrders(f ListFilter) ([]models.Order, error) {
	q := oq.DB.Preload("Items").Order("created_at desc")

	if f.PaymentStatus != "" {
		q = q.Where("payment_status = ?", f.PaymentStatus)
	}
	if f.KitchenStatus != "" {
		q = q.Where("kitchen_status = ?", f.KitchenStatus)
	}
	if f.OrderKind != "" {
		q = q.Where("order_kind = ?", f.OrderKind)
	}

	q, err := applyDateRange(q, f.From, f.To)
	if err != nil {
		return nil, err
	}

	var orders []models.Order
	if err := q.Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

// OwnerOrders is the customer's history, newest first. From/To work
// like the admin listing bounds.
func (oq *OrderQueries) OwnerOrders(ownerRef, from, to string) ([]models.Order, error) {
	q := oq.DB.Preload("Items").Where("owner_ref = ?", ownerRef).Order("created_at desc")

	q, err := applyDateRange(q, from, to)
	if err != nil {
		return nil, err
	}

	var orders []models.Order
	if err := q.Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

// Outstanding lists the owner's unpaid orders oldest first with their
// aggregate total, for the bill view.
func (oq *OrderQueries) Outstanding(ownerRef string) ([]models.Order, float64, error) {
	var orders []models.Order
	if err := oq.DB.Preload("Items").
		Where("owner_ref = ? AND payment_status = ?", ownerRef, models.PaymentUnpaid).
		Order("created_at asc").
		Find(&orders).Error; err != nil {
		return nil, 0, err
	}

	var total float64
	for _, o := range orders {
		total += o.Amount
	}
	return orders, total, nil
}

func (oq *OrderQueries) GetOrder(id uint) (*models.Order, error) {
	var order models.Order
	if err := oq.DB.Preload("Items").First(&order, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	return &order, nil
}

func applyDateRange(q *gorm.DB, from, to string) (*gorm.DB, error) {
	if from != "" {
		day, err := parseDay(from)
		if err != nil {
			return nil, err
		}
		q = q.Where("created_at >= ?", day)
	}
	if to != "" {
		day, err := parseDay(to)
		if err != nil {
			return nil, err
		}
		// End of the given calendar day, inclusive.
		q = q.Where("created_at <= ?", day.Add(24*time.Hour-time.Millisecond))
	}
	return q, nil
}

func parseDay(s string) (time.Time, error) {
	day, err := time.ParseInLocation("2006-01-02", s, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrBadDate, s)
	}
	return day, nil
}
