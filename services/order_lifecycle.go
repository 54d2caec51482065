package services

import (
	"fmt"
	"math"
	"time"

	"gorm.io/gorm"

	"github.com/tablemate/dinein-backend/events"
	"github.com/tablemate/dinein-backend/models"
	"github.com/tablemate/dinein-backend/utils"
)

// OrderLifecycle owns every state-changing command against the order
// store. Each command is a single read-then-write (or one bulk update),
// and each successful command emits exactly one event on the hub.
type OrderLifecycle struct {
	DB  *gorm.DB
	Hub *events.Hub
}

func NewOrderLifecycle(db *gorm.DB, hub *events.Hub) *OrderLifecycle {
	return &OrderLifecycle{DB: db, Hub: hub}
}

// LineItemInput is a client-supplied cart line. Synthetic add-ons come
// in with an empty ItemRef and are accepted as-is since they have no
// catalog row to resolve against.
type LineItemInput struct {
	ItemRef   string  `json:"item_ref"`
	Name      string  `json:"name"`
	UnitPrice float64 `json:"unit_price"`
	Quantity  int     `json:"quantity"`
}

type PlaceOrderInput struct {
	OwnerRef    string
	TableNumber int
	Items       []LineItemInput // client snapshot, wins over the server cart
	SessionRef  *string
	OrderKind   string // defaults to single
	Notes       string
}

// PlaceOrder resolves line items from the client snapshot or the
// server-held cart, snapshots name and price, and persists a new
// unpaid/pending order. The server cart is cleared only when it was
// the item source.
func (ol *OrderLifecycle) PlaceOrder(in PlaceOrderInput) (*models.Order, error) {
	kind := in.OrderKind
	if kind == "" {
		kind = models.OrderKindSingle
	}
	if kind != models.OrderKindSingle && kind != models.OrderKindAdhoc {
		return nil, fmt.Errorf("%w: order kind %q", ErrInvalidStatus, in.OrderKind)
	}
	if kind == models.OrderKindAdhoc && (in.SessionRef == nil || *in.SessionRef == "") {
		return nil, fmt.Errorf("%w: adhoc order requires a session ref", ErrInvalidSelector)
	}

	var items []models.OrderItem
	usedServerCart := false

	if len(in.Items) > 0 {
		items = coerceClientItems(in.Items)
	} else {
		cartItems, err := ol.itemsFromCart(in.OwnerRef)
		if err != nil {
			return nil, err
		}
		items = cartItems
		usedServerCart = true
	}

	if len(items) == 0 {
		return nil, ErrEmptyCart
	}

	var amount float64
	for _, it := range items {
		amount += it.Subtotal()
	}

	order := models.Order{
		OwnerRef:      in.OwnerRef,
		SessionRef:    in.SessionRef,
		TableNumber:   in.TableNumber,
		OrderKind:     kind,
		Items:         items,
		Amount:        amount,
		PaymentStatus: models.PaymentUnpaid,
		KitchenStatus: models.KitchenPending,
		Notes:         in.Notes,
		CreatedAt:     time.Now(),
		UpdatedAt:     time.Now(),
	}

	if err := ol.DB.Create(&order).Error; err != nil {
		return nil, err
	}

	if usedServerCart {
		if err := ol.DB.Where("owner_ref = ?", in.OwnerRef).Delete(&models.CartItem{}).Error; err != nil {
			// Order is already placed; a stale cart is recoverable.
			utils.ErrorLogger.Errorf("clear cart for %s: %v", in.OwnerRef, err)
		}
	}

	ol.Hub.OrderCreated(order)
	return &order, nil
}

// RequestPayment flags the owner's unpaid orders (narrowed to orderIDs
// when given) as awaiting collection and returns them with the total.
func (ol *OrderLifecycle) RequestPayment(ownerRef string, orderIDs []uint) ([]models.Order, float64, error) {
	q := ol.DB.Where("owner_ref = ? AND payment_status = ?", ownerRef, models.PaymentUnpaid)
	if len(orderIDs) > 0 {
		q = q.Where("id IN ?", orderIDs)
	}

	var unpaid []models.Order
	if err := q.Find(&unpaid).Error; err != nil {
		return nil, 0, err
	}
	if len(unpaid) == 0 {
		return nil, 0, ErrNoUnpaidOrders
	}

	ids := orderIDList(unpaid)
	if err := ol.DB.Model(&models.Order{}).Where("id IN ?", ids).
		Update("payment_requested", true).Error; err != nil {
		return nil, 0, err
	}

	var updated []models.Order
	if err := ol.DB.Preload("Items").Where("id IN ?", ids).Find(&updated).Error; err != nil {
		return nil, 0, err
	}

	var total float64
	for _, o := range updated {
		total += o.Amount
	}

	table := updated[0].TableNumber
	summary := fmt.Sprintf("Table %d requests the bill: %s", table, utils.FormatCurrency(total))
	ol.Hub.PayRequested(table, ids, total, summary)

	return updated, total, nil
}

// MarkPaid settles orders by explicit id list, or every
// requested-but-unpaid order of ownerRef. Re-marking a paid order is a
// no-op, so concurrent or retried calls are safe without locking.
func (ol *OrderLifecycle) MarkPaid(orderIDs []uint, ownerRef string) ([]models.Order, error) {
	var ids []uint

	switch {
	case len(orderIDs) > 0:
		ids = orderIDs
	case ownerRef != "":
		var pending []models.Order
		if err := ol.DB.Where("owner_ref = ? AND payment_requested = ?", ownerRef, true).
			Find(&pending).Error; err != nil {
			return nil, err
		}
		ids = orderIDList(pending)
		if len(ids) == 0 {
			// Nothing awaiting collection; a repeat call lands here.
			return []models.Order{}, nil
		}
	default:
		return nil, ErrInvalidSelector
	}

	if err := ol.DB.Model(&models.Order{}).Where("id IN ?", ids).
		Updates(map[string]interface{}{
			"payment_status":    models.PaymentPaid,
			"payment_requested": false,
		}).Error; err != nil {
		return nil, err
	}

	var updated []models.Order
	if err := ol.DB.Preload("Items").Where("id IN ?", ids).Find(&updated).Error; err != nil {
		return nil, err
	}

	ol.Hub.OrderPaid(ids)
	return updated, nil
}

// UpdateKitchenStatus moves one order along the kitchen axis and,
// only when newPaymentStatus is supplied, along the payment axis.
// The two axes never affect each other implicitly.
func (ol *OrderLifecycle) UpdateKitchenStatus(orderID uint, newStatus, newPaymentStatus string) (*models.Order, error) {
	update := map[string]interface{}{}
	if newStatus != "" {
		if !models.IsKitchenStatus(newStatus) {
			return nil, fmt.Errorf("%w: kitchen status %q", ErrInvalidStatus, newStatus)
		}
		update["kitchen_status"] = newStatus
	}
	if newPaymentStatus != "" {
		if !models.IsPaymentStatus(newPaymentStatus) {
			return nil, fmt.Errorf("%w: payment status %q", ErrInvalidStatus, newPaymentStatus)
		}
		update["payment_status"] = newPaymentStatus
	}

	var order models.Order
	if err := ol.DB.Preload("Items").First(&order, orderID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}

	// No fields given means no mutation, so nothing is announced.
	if len(update) == 0 {
		return &order, nil
	}

	if err := ol.DB.Model(&order).Updates(update).Error; err != nil {
		return nil, err
	}

	ol.Hub.OrderUpdated(order.ID, newStatus, newPaymentStatus)
	return &order, nil
}

// MergeSessionToFinal folds every un-merged adhoc order of a session
// into one final order. Quantities of the same item are summed across
// constituents. The source orders stay on record with merged=true, so
// running the merge again fails with ErrNothingToMerge until new adhoc
// orders arrive.
func (ol *OrderLifecycle) MergeSessionToFinal(sessionRef string, payAll bool) (*models.Order, error) {
	var sources []models.Order
	if err := ol.DB.Preload("Items").
		Where("session_ref = ? AND order_kind = ? AND merged = ?", sessionRef, models.OrderKindAdhoc, false).
		Order("created_at asc").
		Find(&sources).Error; err != nil {
		return nil, err
	}
	if len(sources) == 0 {
		return nil, ErrNothingToMerge
	}

	merged := aggregateItems(sources)

	var combined float64
	for _, it := range merged {
		combined += it.Subtotal()
	}

	// The combined amount is recomputed from the aggregated lines, as
	// the constituent sum can drift when synthetic lines are involved.
	var constituentSum float64
	for _, o := range sources {
		constituentSum += o.Amount
	}
	if math.Abs(combined-constituentSum) > 0.005 {
		utils.ErrorLogger.Errorf("merge %s: aggregated amount %.2f != constituent sum %.2f",
			sessionRef, combined, constituentSum)
	}

	paymentStatus := models.PaymentUnpaid
	if payAll {
		paymentStatus = models.PaymentPaid
	}

	final := models.Order{
		OwnerRef:      sources[0].OwnerRef,
		SessionRef:    &sessionRef,
		TableNumber:   sources[0].TableNumber,
		OrderKind:     models.OrderKindFinal,
		Items:         merged,
		Amount:        combined,
		MergedAmount:  combined,
		PaymentStatus: paymentStatus,
		KitchenStatus: models.KitchenPending,
		CreatedAt:     time.Now(),
		UpdatedAt:     time.Now(),
	}

	if err := ol.DB.Create(&final).Error; err != nil {
		return nil, err
	}

	if err := ol.DB.Model(&models.Order{}).Where("id IN ?", orderIDList(sources)).
		Update("merged", true).Error; err != nil {
		return nil, err
	}

	ol.Hub.OrderCreated(final)
	return &final, nil
}

// itemsFromCart snapshots the server-held cart against the catalog.
// Rows whose menu item no longer resolves are skipped.
func (ol *OrderLifecycle) itemsFromCart(ownerRef string) ([]models.OrderItem, error) {
	var cart []models.CartItem
	if err := ol.DB.Preload("Menu").Where("owner_ref = ?", ownerRef).Find(&cart).Error; err != nil {
		return nil, err
	}

	var items []models.OrderItem
	for _, ci := range cart {
		if ci.Quantity <= 0 || ci.Menu.ID == 0 {
			continue
		}
		items = append(items, models.OrderItem{
			ItemRef:   fmt.Sprintf("%d", ci.MenuID),
			Name:      ci.Menu.Name,
			UnitPrice: ci.Menu.Price,
			Quantity:  ci.Quantity,
			CreatedAt: time.Now(),
			UpdatedAt: time.Now(),
		})
	}
	return items, nil
}

// coerceClientItems sanitizes a client snapshot: nameless or
// zero-quantity lines are dropped, everything else is taken verbatim
// (client snapshot wins, including synthetic add-ons).
func coerceClientItems(in []LineItemInput) []models.OrderItem {
	var items []models.OrderItem
	for _, raw := range in {
		if raw.Name == "" || raw.Quantity <= 0 {
			continue
		}
		items = append(items, models.OrderItem{
			ItemRef:   raw.ItemRef,
			Name:      raw.Name,
			UnitPrice: raw.UnitPrice,
			Quantity:  raw.Quantity,
			CreatedAt: time.Now(),
			UpdatedAt: time.Now(),
		})
	}
	return items
}

// aggregateItems sums quantities per distinct item across all source
// orders, keeping first-seen line order. Synthetic lines (no item ref)
// are keyed by name so identical add-ons still combine.
func aggregateItems(sources []models.Order) []models.OrderItem {
	index := map[string]int{}
	var out []models.OrderItem

	for _, o := range sources {
		for _, it := range o.Items {
			key := it.ItemRef
			if key == "" {
				key = "name:" + it.Name
			}
			if i, ok := index[key]; ok {
				out[i].Quantity += it.Quantity
				continue
			}
			index[key] = len(out)
			out = append(out, models.OrderItem{
				ItemRef:   it.ItemRef,
				Name:      it.Name,
				UnitPrice: it.UnitPrice,
				Quantity:  it.Quantity,
				CreatedAt: time.Now(),
				UpdatedAt: time.Now(),
			})
		}
	}
	return out
}

func orderIDList(orders []models.Order) []uint {
	ids := make([]uint, 0, len(orders))
	for _, o := range orders {
		ids = append(ids, o.ID)
	}
	return ids
}
