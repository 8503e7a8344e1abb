package domain

import "errors"

// Sentinel errors for the amortization engine. Transport maps these to HTTP
// statuses; storage failures are wrapped with %w and fall through as 500s.
var (
	// ErrAmountBelowMinimum is returned when a payment is below the
	// configured minimum amortization amount.
	ErrAmountBelowMinimum = errors.New("payment amount below minimum")

	// ErrClientNotFound is returned when the client id does not resolve.
	ErrClientNotFound = errors.New("client not found")

	// ErrNoOpenBillings is returned when the client has no pending or
	// overdue billings to allocate against.
	ErrNoOpenBillings = errors.New("client has no open billings")

	// ErrForbidden is returned on an ownership mismatch between the caller
	// and the client or amortization.
	ErrForbidden = errors.New("caller does not own this resource")

	// ErrNotFound is returned when a payment code does not resolve.
	ErrNotFound = errors.New("amortization not found")

	// ErrAlreadyProcessed is returned when the request left pending before
	// the caller got to it. This is also what the losing side of a
	// concurrent commit observes.
	ErrAlreadyProcessed = errors.New("amortization already processed")

	// ErrPaymentCodeExhausted is returned after repeated payment code
	// collisions during generation.
	ErrPaymentCodeExhausted = errors.New("could not generate a unique payment code")

	// ErrInvalidCalculation is returned when the supplied calculation
	// payload is missing or its totals disagree with a recomputation.
	ErrInvalidCalculation = errors.New("calculation payload is invalid")

	// ErrReceiptUnavailable is returned when a receipt is requested for an
	// amortization that has not completed.
	ErrReceiptUnavailable = errors.New("amortization is not completed")
)

// IsClientError reports whether the error is a caller mistake or business
// rule rejection, i.e. terminal and not worth retrying.
func IsClientError(err error) bool {
	return errors.Is(err, ErrAmountBelowMinimum) ||
		errors.Is(err, ErrClientNotFound) ||
		errors.Is(err, ErrNoOpenBillings) ||
		errors.Is(err, ErrForbidden) ||
		errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrAlreadyProcessed) ||
		errors.Is(err, ErrInvalidCalculation) ||
		errors.Is(err, ErrReceiptUnavailable)
}
