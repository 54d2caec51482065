package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/tablemate/dinein-backend/events"
	"github.com/tablemate/dinein-backend/services"
	"github.com/tablemate/dinein-backend/utils"
)

type OrderController struct {
	Lifecycle *services.OrderLifecycle
	Queries   *services.OrderQueries
}

func NewOrderController(db *gorm.DB, hub *events.Hub) *OrderController {
	return &OrderController{
		Lifecycle: services.NewOrderLifecycle(db, hub),
		Queries:   services.NewOrderQueries(db),
	}
}

// ownerRef returns the caller's owner ref set by the auth middleware.
func ownerRef(c *gin.Context) (string, bool) {
	ref, exists := c.Get("owner_ref")
	if !exists {
		utils.RespondError(c, http.StatusUnauthorized, errors.New("unauthorized"))
		return "", false
	}
	return ref.(string), true
}

// respondLifecycleError maps the lifecycle error kinds to HTTP codes.
func respondLifecycleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrEmptyCart),
		errors.Is(err, services.ErrNoUnpaidOrders),
		errors.Is(err, services.ErrNothingToMerge),
		errors.Is(err, services.ErrInvalidSelector),
		errors.Is(err, services.ErrInvalidStatus),
		errors.Is(err, services.ErrBadDate):
		utils.RespondError(c, http.StatusBadRequest, err)
	case errors.Is(err, services.ErrOrderNotFound):
		utils.RespondError(c, http.StatusNotFound, err)
	default:
		utils.ErrorLogger.Errorf("order command failed: %v", err)
		utils.RespondError(c, http.StatusInternalServerError, errors.New("server error"))
	}
}

// PlaceOrder -> customer places an order. Items come from the request
// body when present, otherwise from the server-held cart.
func (oc *OrderController) PlaceOrder(c *gin.Context) {
	owner, ok := ownerRef(c)
	if !ok {
		return
	}

	var body struct {
		Items       []services.LineItemInput `json:"items"`
		TableNumber int                      `json:"table_number"`
		SessionRef  *string                  `json:"session_ref"`
		OrderKind   string                   `json:"order_kind"`
		Notes       string                   `json:"notes"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	order, err := oc.Lifecycle.PlaceOrder(services.PlaceOrderInput{
		OwnerRef:    owner,
		TableNumber: body.TableNumber,
		Items:       body.Items,
		SessionRef:  body.SessionRef,
		OrderKind:   body.OrderKind,
		Notes:       body.Notes,
	})
	if err != nil {
		respondLifecycleError(c, err)
		return
	}

	utils.RespondJSON(c, http.StatusCreated, "Order placed", order)
}

// GetOutstanding -> customer's unpaid orders plus aggregate total.
func (oc *OrderController) GetOutstanding(c *gin.Context) {
	owner, ok := ownerRef(c)
	if !ok {
		return
	}

	orders, total, err := oc.Queries.Outstanding(owner)
	if err != nil {
		respondLifecycleError(c, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Outstanding orders", gin.H{
		"orders": orders,
		"total":  total,
	})
}

// RequestPay -> customer asks staff to collect payment.
func (oc *OrderController) RequestPay(c *gin.Context) {
	owner, ok := ownerRef(c)
	if !ok {
		return
	}

	var body struct {
		OrderIDs []uint `json:"order_ids"`
	}
	// Body is optional: no ids means every unpaid order.
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&body); err != nil {
			utils.RespondError(c, http.StatusBadRequest, err)
			return
		}
	}

	orders, total, err := oc.Lifecycle.RequestPayment(owner, body.OrderIDs)
	if err != nil {
		respondLifecycleError(c, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Payment requested", gin.H{
		"orders": orders,
		"total":  total,
	})
}

// MarkPaid -> admin settles orders by id list or by owner ref.
func (oc *OrderController) MarkPaid(c *gin.Context) {
	var body struct {
		OrderIDs []uint `json:"order_ids"`
		OwnerRef string `json:"owner_ref"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	orders, err := oc.Lifecycle.MarkPaid(body.OrderIDs, body.OwnerRef)
	if err != nil {
		respondLifecycleError(c, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Orders marked paid", orders)
}

// UpdateStatus -> kitchen/admin updates the kitchen axis and,
// optionally and explicitly, the payment axis.
func (oc *OrderController) UpdateStatus(c *gin.Context) {
	var body struct {
		OrderID       uint   `json:"order_id" binding:"required"`
		Status        string `json:"status"`
		PaymentStatus string `json:"payment_status"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	order, err := oc.Lifecycle.UpdateKitchenStatus(body.OrderID, body.Status, body.PaymentStatus)
	if err != nil {
		respondLifecycleError(c, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Status updated", order)
}

// MergeSession -> admin folds a session's adhoc orders into one final
// bill. Repeat calls fail until new adhoc orders arrive.
func (oc *OrderController) MergeSession(c *gin.Context) {
	var body struct {
		SessionRef string `json:"session_ref" binding:"required"`
		PayAll     bool   `json:"pay_all"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	final, err := oc.Lifecycle.MergeSessionToFinal(body.SessionRef, body.PayAll)
	if err != nil {
		respondLifecycleError(c, err)
		return
	}

	utils.RespondJSON(c, http.StatusCreated, "Session merged", final)
}

// ListOrders -> admin listing with date/status/kind filters.
func (oc *OrderController) ListOrders(c *gin.Context) {
	orders, err := oc.Queries.ListOrders(services.ListFilter{
		From:          c.Query("from"),
		To:            c.Query("to"),
		PaymentStatus: c.Query("paymentStatus"),
		KitchenStatus: c.Query("status"),
		OrderKind:     c.Query("kind"),
	})
	if err != nil {
		respondLifecycleError(c, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "List of orders", orders)
}

// UserOrders -> caller's own order history, optionally date-filtered.
func (oc *OrderController) UserOrders(c *gin.Context) {
	owner, ok := ownerRef(c)
	if !ok {
		return
	}

	orders, err := oc.Queries.OwnerOrders(owner, c.Query("from"), c.Query("to"))
	if err != nil {
		respondLifecycleError(c, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Order history", orders)
}

// GetOrderByID -> detail of one order.
func (oc *OrderController) GetOrderByID(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("order_id"))
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, errors.New("valid order id required"))
		return
	}

	order, err := oc.Queries.GetOrder(uint(id))
	if err != nil {
		respondLifecycleError(c, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Order detail", order)
}

// VerifyOrder -> payment-verification hook: marks one order paid when
// the caller reports success. Shares MarkPaid semantics, so repeats
// are harmless.
func (oc *OrderController) VerifyOrder(c *gin.Context) {
	var body struct {
		OrderID uint `json:"order_id" binding:"required"`
		Success bool `json:"success"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	if !body.Success {
		utils.RespondJSON(c, http.StatusOK, "Not paid", nil)
		return
	}

	orders, err := oc.Lifecycle.MarkPaid([]uint{body.OrderID}, "")
	if err != nil {
		respondLifecycleError(c, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Paid", orders)
}
