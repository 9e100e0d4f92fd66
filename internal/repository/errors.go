// Package repository defines error values that are shared across the
// repositories and the service layer. These sentinel values let handlers
// distinguish failure scenarios without string matching: for example
// ErrForbidden maps to HTTP 403 while ErrInsufficientFunds maps to a
// rejected purchase. Purchase preconditions (capacity, balance) reuse
// these values both in the pure validators and in the guarded UPDATE
// paths of the repositories.
package repository

import "errors"

// ErrInvalidRequest is returned for malformed input such as a
// non-positive quantity or a missing identifier. Handlers should
// translate this into an HTTP 400 response.
var ErrInvalidRequest = errors.New("invalid request")

// ErrForbidden is returned when the caller attempts an operation on a
// resource they do not own, such as reading another user's ticket.
// Handlers should translate this into an HTTP 403 response.
var ErrForbidden = errors.New("forbidden")

// ErrInsufficientCapacity is returned when a purchase requests more
// seats than the function has available. The function row is never
// mutated when this error is returned.
var ErrInsufficientCapacity = errors.New("insufficient capacity")

// ErrInsufficientFunds is returned when the total cost of a purchase
// exceeds the card balance. The card row is never mutated when this
// error is returned.
var ErrInsufficientFunds = errors.New("insufficient funds")

// ErrConflict is returned when a delete or update cannot be performed
// because of conflicting state, such as deleting a movie that still has
// scheduled functions. Handlers should translate this into an HTTP 409
// response.
var ErrConflict = errors.New("conflict")

// ErrMovieNotFound is returned when a movie cannot be located.
var ErrMovieNotFound = errors.New("movie not found")

// ErrCinemaNotFound is returned when a cinema cannot be located.
var ErrCinemaNotFound = errors.New("cinema not found")

// ErrFunctionNotFound is returned when a screening function cannot be
// located.
var ErrFunctionNotFound = errors.New("function not found")

// ErrCardNotFound is returned when the user has no registered card.
var ErrCardNotFound = errors.New("card not found")

// ErrTicketNotFound is returned when a ticket cannot be located.
var ErrTicketNotFound = errors.New("ticket not found")

// ErrCardExists is returned when a user attempts to register a second
// card; each user owns at most one.
var ErrCardExists = errors.New("card already exists")

// ErrMovieExists is returned on a duplicate movie title.
var ErrMovieExists = errors.New("movie title already exists")
