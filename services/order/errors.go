package order

import "errors"

// ErrOrderNotFound is returned when the order does not exist.
var ErrOrderNotFound = errors.New("order not found")

// ErrNotOwner is returned when a guest addresses an order they do not own.
var ErrNotOwner = errors.New("order belongs to another guest")

// ErrEmptyOrder is returned when a cart order has no billable lines.
var ErrEmptyOrder = errors.New("order has no lines")

// ErrInvalidLine is returned for lines with non-positive quantity or
// negative price.
var ErrInvalidLine = errors.New("invalid order line")

// ErrCancelConflict is returned when a cancel loses the race against an
// in-flight settlement or the order is already terminal. The settlement wins.
var ErrCancelConflict = errors.New("order can no longer be cancelled")
