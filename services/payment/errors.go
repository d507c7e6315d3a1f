package payment

import "errors"

// ErrOrderNotFound is returned when the order to pay for does not exist.
var ErrOrderNotFound = errors.New("order not found")

// ErrOrderNotPayable is returned when the order is not in a payable status
// (initiated or pending).
var ErrOrderNotPayable = errors.New("order not payable")

// ErrInvalidAmount is returned when the computed payable amount is not
// strictly positive.
var ErrInvalidAmount = errors.New("invalid payment amount")

// ErrProcessorUnavailable is returned when the payment processor could not
// be reached or rejected the session request. Order state is left
// unchanged; the caller may retry.
var ErrProcessorUnavailable = errors.New("payment processor unavailable")
