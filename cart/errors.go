package cart

import (
	"errors"
	"strings"
)

var (
	ErrEmptyCart           = errors.New("your cart is empty")
	ErrPromoAlreadyApplied = errors.New("promo code already applied")
	ErrInvalidPromoCode    = errors.New("invalid promo code")
	ErrCartLocked          = errors.New("cart cannot be changed after the order is placed")
	ErrInvalidRating       = errors.New("rating must be between 1 and 5")
	ErrClosed              = errors.New("session is closed")
)

// MissingFieldsError lists the contact fields that were blank.
type MissingFieldsError struct {
	Fields []string
}

func (e *MissingFieldsError) Error() string {
	return "please fill in all required fields: " + strings.Join(e.Fields, ", ")
}
