package pricing

import "errors"

var (
	// ErrInvalidInput reports a negative price or cost, or a rate outside [0, 1).
	ErrInvalidInput = errors.New("invalid input")

	// ErrInfeasible reports that no finite price reaches the requested outcome
	// because proportional charges (plus any target margin) consume all revenue.
	ErrInfeasible = errors.New("infeasible")

	// ErrAmbiguous reports that neither low-price tier yields a self-consistent price.
	ErrAmbiguous = errors.New("ambiguous price tier")

	// ErrVerification reports a solved price that does not reproduce its target margin.
	ErrVerification = errors.New("solution failed verification")
)
