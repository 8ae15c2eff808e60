package report

import "errors"

// Domain-specific errors for reading dispatch.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrUnknownMode is returned when a reporting mode string does not name
	// one of the supported modes, or a Dispatcher is built with an
	// out-of-range mode value.
	ErrUnknownMode = errors.New("report: unknown reporting mode")

	// ErrNoBroker is returned when a broker-backed action is executed by a
	// publisher that was built without a broker connection.
	ErrNoBroker = errors.New("report: no broker connection")

	// ErrItemsUnsupported is returned when an openHAB items export is
	// requested for a reporting mode whose topic layout the generated
	// channel bindings cannot express.
	ErrItemsUnsupported = errors.New("report: reporting mode not supported for openHAB items export")
)
