package twi

import (
	"errors"
	"fmt"
)

var (
	ErrArbitrationLost = errors.New("twi: arbitration lost")
	ErrAddressNack     = errors.New("twi: address not acknowledged")
	ErrDataNack        = errors.New("twi: data not acknowledged")
	ErrInvalidAddress  = errors.New("twi: invalid 7-bit address")
	ErrBus             = errors.New("twi: bus error")
	ErrCancelled       = errors.New("twi: transfer cancelled")
)

// classify maps a bus driver error onto the twi taxonomy. Errors that are
// already one of ours pass through; anything else is wrapped in ErrBus.
func classify(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrArbitrationLost),
		errors.Is(err, ErrAddressNack),
		errors.Is(err, ErrDataNack):
		return err
	default:
		return fmt.Errorf("%w: %w", ErrBus, err)
	}
}
