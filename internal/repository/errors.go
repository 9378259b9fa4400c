// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// handlers to distinguish between different failure scenarios. For
// example, ErrForbidden indicates that the current user is not
// authorized to perform an operation on a resource owned by someone
// else, while ErrIntegrity signals a broken invariant that foreign-key
// discipline should have made impossible.
package repository

import "errors"

// ErrForbidden is returned when the caller attempts an operation
// on a resource they do not own. Handlers should translate this
// into an HTTP 403 response.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when a delete or update cannot be
// performed because of conflicting state, such as deleting an
// accommodation that still has active bookings. Handlers should
// translate this into an HTTP 409 response.
var ErrConflict = errors.New("conflict")

// ErrBookingNotFound is returned when a booking id or number does not
// resolve to a row.
var ErrBookingNotFound = errors.New("booking not found")

// ErrRebookingNotFound is returned when a rebooking id does not resolve
// to a row.
var ErrRebookingNotFound = errors.New("rebooking not found")

// ErrPaymentNotFound is returned when a payment id does not resolve to a
// row.
var ErrPaymentNotFound = errors.New("payment not found")

// ErrRefundNotFound is returned when a refund id does not resolve to a
// row.
var ErrRefundNotFound = errors.New("refund not found")

// ErrAccommodationNotFound is returned when an accommodation id does not
// resolve to a row.
var ErrAccommodationNotFound = errors.New("accommodation not found")

// ErrIntegrity is returned when a side-effecting operation cannot locate
// a parent row that must exist, e.g. recomputing a booking aggregate for
// a refund whose booking row is gone. This is a fatal data fault, not a
// user-correctable error.
var ErrIntegrity = errors.New("data integrity fault")
