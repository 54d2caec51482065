package services

import "errors"

// Lifecycle error kinds. Controllers translate these to HTTP codes;
// anything else surfaces as a generic server failure.
var (
	// ErrEmptyCart: no resolvable line items at placement time.
	ErrEmptyCart = errors.New("no items provided or cart is empty")
	// ErrNoUnpaidOrders: a payment request matched nothing.
	ErrNoUnpaidOrders = errors.New("no unpaid orders to request payment for")
	// ErrNothingToMerge: a session has no un-merged adhoc orders left.
	ErrNothingToMerge = errors.New("no adhoc orders left to merge for this session")
	// ErrInvalidSelector: a mutating command lacks its minimum selector.
	ErrInvalidSelector = errors.New("provide order ids or an owner ref")
	// ErrInvalidStatus: unknown kitchen or payment status value.
	ErrInvalidStatus = errors.New("unknown status value")
	// ErrBadDate: malformed date filter on a listing query.
	ErrBadDate = errors.New("invalid date, want YYYY-MM-DD")
	// ErrOrderNotFound: referenced order id does not resolve.
	ErrOrderNotFound = errors.New("order not found")
)
