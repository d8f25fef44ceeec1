package pipeline

import "errors"

var (
	// ErrConnection is returned when the donor source cannot be read.
	// Nothing is computed or published.
	ErrConnection = errors.New("donor source unavailable")

	// ErrNoValidDonors is returned when no record produced metrics.
	// Nothing is published.
	ErrNoValidDonors = errors.New("no valid donors")

	// ErrPublication is returned when a sink write fails. Sinks written before
	// the failure keep the new run's output; the failing sink keeps its
	// previous state.
	ErrPublication = errors.New("publication failed")
)
