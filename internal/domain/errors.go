package domain

import "errors"

var (
	ErrSerializationFailure = errors.New("serialization failure")
	ErrNotFound             = errors.New("not found")
	ErrAlreadyExists        = errors.New("already exists")
	ErrEmptyInput           = errors.New("no seats selected")
	ErrBuyerMismatch        = errors.New("caller does not match buyer")
	ErrNoSeatsHeld          = errors.New("no seats available")
	ErrNotSeatOwner         = errors.New("you do not own all selected seats")
	ErrSeatNotHeld          = errors.New("seat is not currently held")
	ErrHoldExpired          = errors.New("reservation expired")
	ErrSeatNotFound         = errors.New("seat not found")
)
