package metrics

import (
	"errors"
	"fmt"
)

// ErrInvalidRecord is matched by every per-donor invariant violation.
var ErrInvalidRecord = errors.New("invalid donor record")

// Invalid record reasons.
const (
	ReasonNilRecord        = "record is nil"
	ReasonZeroGifts        = "number_of_gifts must be positive"
	ReasonMissingDate      = "donation dates must be set"
	ReasonInvertedDates    = "last_donation_date precedes first_donation_date"
	ReasonNegativeAmount   = "total_donation_amount is negative"
	ReasonNonFiniteAmount  = "total_donation_amount is not finite"
	ReasonNonFiniteDerived = "derived metric is not finite"
)

// InvalidRecordError reports a donor excluded from the run.
type InvalidRecordError struct {
	DonorID int64
	Reason  string
}

func (e *InvalidRecordError) Error() string {
	return fmt.Sprintf("invalid record donor_id=%d: %s", e.DonorID, e.Reason)
}

// Unwrap allows errors.Is(err, ErrInvalidRecord).
func (e *InvalidRecordError) Unwrap() error {
	return ErrInvalidRecord
}

func invalid(donorID int64, reason string) *InvalidRecordError {
	return &InvalidRecordError{DonorID: donorID, Reason: reason}
}
