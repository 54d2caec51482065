package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/tablemate/dinein-backend/events"
	"github.com/tablemate/dinein-backend/models"
)

func setupLifecycleDB(t *testing.T, name string) *gorm.DB {
	db, err := gorm.Open(sqlite.Open("file:"+name+"?mode=memory&cache=shared"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to connect database: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.Menu{}, &models.CartItem{}, &models.Order{}, &models.OrderItem{}); err != nil {
		t.Fatal(err)
	}
	return db
}

func newLifecycle(db *gorm.DB) *OrderLifecycle {
	return NewOrderLifecycle(db, events.NewHub())
}

func TestPlaceOrderSnapshotsAmount(t *testing.T) {
	db := setupLifecycleDB(t, "lc_snapshot")
	ol := newLifecycle(db)

	menu := models.Menu{Name: "Nasi Goreng", Price: 100, Available: true}
	db.Create(&menu)

	order, err := ol.PlaceOrder(PlaceOrderInput{
		OwnerRef:    "user-1",
		TableNumber: 4,
		Items: []LineItemInput{
			{ItemRef: "1", Name: "Nasi Goreng", UnitPrice: 100, Quantity: 2},
		},
	})
	assert.NoError(t, err)
	assert.Equal(t, models.PaymentUnpaid, order.PaymentStatus)
	assert.Equal(t, models.KitchenPending, order.KitchenStatus)
	assert.InDelta(t, 200.0, order.Amount, 0.001)

	// Catalog price change must not touch the placed order.
	db.Model(&menu).Update("price", 999)

	var reloaded models.Order
	assert.NoError(t, db.Preload("Items").First(&reloaded, order.ID).Error)
	assert.InDelta(t, 200.0, reloaded.Amount, 0.001)
	assert.InDelta(t, 100.0, reloaded.Items[0].UnitPrice, 0.001)
}

func TestPlaceOrderFromServerCart(t *testing.T) {
	db := setupLifecycleDB(t, "lc_cart")
	ol := newLifecycle(db)

	menu := models.Menu{Name: "Mie Ayam", Price: 25, Available: true}
	db.Create(&menu)
	db.Create(&models.CartItem{OwnerRef: "user-2", MenuID: menu.ID, Quantity: 3})

	order, err := ol.PlaceOrder(PlaceOrderInput{OwnerRef: "user-2", TableNumber: 7})
	assert.NoError(t, err)
	assert.InDelta(t, 75.0, order.Amount, 0.001)
	assert.Len(t, order.Items, 1)
	assert.Equal(t, "Mie Ayam", order.Items[0].Name)

	// Cart was the source, so it is cleared.
	var count int64
	db.Model(&models.CartItem{}).Where("owner_ref = ?", "user-2").Count(&count)
	assert.Equal(t, int64(0), count)

	// Second placement has nothing left to resolve.
	_, err = ol.PlaceOrder(PlaceOrderInput{OwnerRef: "user-2", TableNumber: 7})
	assert.ErrorIs(t, err, ErrEmptyCart)
}

func TestPlaceOrderClientSnapshotWins(t *testing.T) {
	db := setupLifecycleDB(t, "lc_snapshot_wins")
	ol := newLifecycle(db)

	menu := models.Menu{Name: "Teh Manis", Price: 5, Available: true}
	db.Create(&menu)
	db.Create(&models.CartItem{OwnerRef: "user-3", MenuID: menu.ID, Quantity: 10})

	// Synthetic add-on with no catalog ref only works via snapshot.
	order, err := ol.PlaceOrder(PlaceOrderInput{
		OwnerRef:    "user-3",
		TableNumber: 2,
		Items: []LineItemInput{
			{Name: "Extra sambal", UnitPrice: 2, Quantity: 1},
		},
	})
	assert.NoError(t, err)
	assert.InDelta(t, 2.0, order.Amount, 0.001)
	assert.Equal(t, "", order.Items[0].ItemRef)

	// Server cart was not the source and stays put.
	var count int64
	db.Model(&models.CartItem{}).Where("owner_ref = ?", "user-3").Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestRequestPaymentSelectsUnpaidOnly(t *testing.T) {
	db := setupLifecycleDB(t, "lc_payrequest")
	ol := newLifecycle(db)

	items := []LineItemInput{{Name: "Item", UnitPrice: 10, Quantity: 1}}
	for i := 0; i < 3; i++ {
		_, err := ol.PlaceOrder(PlaceOrderInput{OwnerRef: "user-4", TableNumber: 1, Items: items})
		assert.NoError(t, err)
	}
	paid, err := ol.PlaceOrder(PlaceOrderInput{OwnerRef: "user-4", TableNumber: 1, Items: items})
	assert.NoError(t, err)
	_, err = ol.MarkPaid([]uint{paid.ID}, "")
	assert.NoError(t, err)

	orders, total, err := ol.RequestPayment("user-4", nil)
	assert.NoError(t, err)
	assert.Len(t, orders, 3)
	assert.InDelta(t, 30.0, total, 0.001)
	for _, o := range orders {
		assert.True(t, o.PaymentRequested)
	}

	// The paid order was left untouched.
	var reloaded models.Order
	db.First(&reloaded, paid.ID)
	assert.False(t, reloaded.PaymentRequested)
	assert.Equal(t, models.PaymentPaid, reloaded.PaymentStatus)
}

func TestRequestPaymentNoUnpaidOrders(t *testing.T) {
	db := setupLifecycleDB(t, "lc_nounpaid")
	ol := newLifecycle(db)

	_, _, err := ol.RequestPayment("user-5", nil)
	assert.ErrorIs(t, err, ErrNoUnpaidOrders)
}

func TestMarkPaidIdempotent(t *testing.T) {
	db := setupLifecycleDB(t, "lc_idempotent")
	ol := newLifecycle(db)

	order, err := ol.PlaceOrder(PlaceOrderInput{
		OwnerRef:    "user-6",
		TableNumber: 3,
		Items:       []LineItemInput{{Name: "Item", UnitPrice: 50, Quantity: 1}},
	})
	assert.NoError(t, err)

	first, err := ol.MarkPaid([]uint{order.ID}, "")
	assert.NoError(t, err)
	assert.Equal(t, models.PaymentPaid, first[0].PaymentStatus)
	assert.False(t, first[0].PaymentRequested)

	// Re-marking a paid order is a no-op, not an error.
	second, err := ol.MarkPaid([]uint{order.ID}, "")
	assert.NoError(t, err)
	assert.Equal(t, models.PaymentPaid, second[0].PaymentStatus)
	assert.False(t, second[0].PaymentRequested)
}

func TestMarkPaidByOwnerSelector(t *testing.T) {
	db := setupLifecycleDB(t, "lc_ownerselector")
	ol := newLifecycle(db)

	items := []LineItemInput{{Name: "Item", UnitPrice: 20, Quantity: 1}}
	for i := 0; i < 2; i++ {
		_, err := ol.PlaceOrder(PlaceOrderInput{OwnerRef: "user-7", TableNumber: 5, Items: items})
		assert.NoError(t, err)
	}
	_, _, err := ol.RequestPayment("user-7", nil)
	assert.NoError(t, err)

	orders, err := ol.MarkPaid(nil, "user-7")
	assert.NoError(t, err)
	assert.Len(t, orders, 2)
	for _, o := range orders {
		assert.Equal(t, models.PaymentPaid, o.PaymentStatus)
		assert.False(t, o.PaymentRequested)
	}

	// Nothing awaiting collection anymore: a repeat call is an empty no-op.
	orders, err = ol.MarkPaid(nil, "user-7")
	assert.NoError(t, err)
	assert.Empty(t, orders)
}

func TestMarkPaidRequiresSelector(t *testing.T) {
	db := setupLifecycleDB(t, "lc_selector")
	ol := newLifecycle(db)

	_, err := ol.MarkPaid(nil, "")
	assert.ErrorIs(t, err, ErrInvalidSelector)
}

func TestUpdateKitchenStatusLeavesPaymentAlone(t *testing.T) {
	db := setupLifecycleDB(t, "lc_axes")
	ol := newLifecycle(db)

	order, err := ol.PlaceOrder(PlaceOrderInput{
		OwnerRef:    "user-8",
		TableNumber: 9,
		Items:       []LineItemInput{{Name: "Item", UnitPrice: 15, Quantity: 2}},
	})
	assert.NoError(t, err)

	updated, err := ol.UpdateKitchenStatus(order.ID, models.KitchenPreparing, "")
	assert.NoError(t, err)
	assert.Equal(t, models.KitchenPreparing, updated.KitchenStatus)
	assert.Equal(t, models.PaymentUnpaid, updated.PaymentStatus)

	// Both axes only move together when explicitly asked.
	updated, err = ol.UpdateKitchenStatus(order.ID, models.KitchenServed, models.PaymentPaid)
	assert.NoError(t, err)
	assert.Equal(t, models.KitchenServed, updated.KitchenStatus)
	assert.Equal(t, models.PaymentPaid, updated.PaymentStatus)
}

func TestUpdateKitchenStatusValidation(t *testing.T) {
	db := setupLifecycleDB(t, "lc_validation")
	ol := newLifecycle(db)

	_, err := ol.UpdateKitchenStatus(1, "grilling", "")
	assert.ErrorIs(t, err, ErrInvalidStatus)

	_, err = ol.UpdateKitchenStatus(12345, models.KitchenReady, "")
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestMergeSessionAggregatesItems(t *testing.T) {
	db := setupLifecycleDB(t, "lc_merge")
	ol := newLifecycle(db)

	session := "sess-42"
	a1, err := ol.PlaceOrder(PlaceOrderInput{
		OwnerRef:    "user-9",
		TableNumber: 6,
		SessionRef:  &session,
		OrderKind:   models.OrderKindAdhoc,
		Items:       []LineItemInput{{ItemRef: "x", Name: "Item X", UnitPrice: 10, Quantity: 2}},
	})
	assert.NoError(t, err)
	a2, err := ol.PlaceOrder(PlaceOrderInput{
		OwnerRef:    "user-9",
		TableNumber: 6,
		SessionRef:  &session,
		OrderKind:   models.OrderKindAdhoc,
		Items: []LineItemInput{
			{ItemRef: "x", Name: "Item X", UnitPrice: 10, Quantity: 1},
			{ItemRef: "y", Name: "Item Y", UnitPrice: 4, Quantity: 3},
		},
	})
	assert.NoError(t, err)

	final, err := ol.MergeSessionToFinal(session, false)
	assert.NoError(t, err)
	assert.Equal(t, models.OrderKindFinal, final.OrderKind)
	assert.Equal(t, models.PaymentUnpaid, final.PaymentStatus)
	assert.Len(t, final.Items, 2)

	byRef := map[string]int{}
	for _, it := range final.Items {
		byRef[it.ItemRef] = it.Quantity
	}
	assert.Equal(t, 3, byRef["x"])
	assert.Equal(t, 3, byRef["y"])
	assert.InDelta(t, a1.Amount+a2.Amount, final.MergedAmount, 0.001)
	assert.InDelta(t, final.Amount, final.MergedAmount, 0.001)

	// Constituents are retained for audit, flagged merged.
	var sources []models.Order
	db.Where("session_ref = ? AND order_kind = ?", session, models.OrderKindAdhoc).Find(&sources)
	assert.Len(t, sources, 2)
	for _, o := range sources {
		assert.True(t, o.Merged)
	}
}

func TestMergeSessionExhaustion(t *testing.T) {
	db := setupLifecycleDB(t, "lc_exhaustion")
	ol := newLifecycle(db)

	session := "sess-77"
	_, err := ol.PlaceOrder(PlaceOrderInput{
		OwnerRef:    "user-10",
		TableNumber: 8,
		SessionRef:  &session,
		OrderKind:   models.OrderKindAdhoc,
		Items:       []LineItemInput{{Name: "Item", UnitPrice: 30, Quantity: 1}},
	})
	assert.NoError(t, err)

	_, err = ol.MergeSessionToFinal(session, true)
	assert.NoError(t, err)

	// No un-merged adhoc orders left: the repeat call must fail loudly.
	_, err = ol.MergeSessionToFinal(session, true)
	assert.ErrorIs(t, err, ErrNothingToMerge)
}

func TestMergeSessionPayAll(t *testing.T) {
	db := setupLifecycleDB(t, "lc_payall")
	ol := newLifecycle(db)

	session := "sess-88"
	_, err := ol.PlaceOrder(PlaceOrderInput{
		OwnerRef:    "user-11",
		TableNumber: 10,
		SessionRef:  &session,
		OrderKind:   models.OrderKindAdhoc,
		Items:       []LineItemInput{{Name: "Item", UnitPrice: 12, Quantity: 2}},
	})
	assert.NoError(t, err)

	final, err := ol.MergeSessionToFinal(session, true)
	assert.NoError(t, err)
	assert.Equal(t, models.PaymentPaid, final.PaymentStatus)
	assert.InDelta(t, 24.0, final.MergedAmount, 0.001)
}

func TestPlaceAdhocRequiresSession(t *testing.T) {
	db := setupLifecycleDB(t, "lc_adhoc_session")
	ol := newLifecycle(db)

	_, err := ol.PlaceOrder(PlaceOrderInput{
		OwnerRef:    "user-12",
		TableNumber: 1,
		OrderKind:   models.OrderKindAdhoc,
		Items:       []LineItemInput{{Name: "Item", UnitPrice: 1, Quantity: 1}},
	})
	assert.ErrorIs(t, err, ErrInvalidSelector)
}
