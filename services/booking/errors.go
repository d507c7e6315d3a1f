package booking

import "errors"

// ErrNoAvailability is returned when no open slot matches the request, or
// when a competing reservation claimed the slot first. Callers see both
// the same way; the allocator never retries on its own.
var ErrNoAvailability = errors.New("no availability for the requested slot")

// ErrResourceNotFound is returned when the resource does not exist.
var ErrResourceNotFound = errors.New("resource not found")

// ErrInvalidRange is returned for malformed time ranges.
var ErrInvalidRange = errors.New("invalid slot time range")
