package report

// Action is one publish operation produced by the dispatcher.
//
// Actions are plain data: the dispatcher never talks to the broker itself,
// so a mode's full output can be inspected in tests without any I/O.
type Action struct {
	// Topic is the broker topic. Empty for local actions.
	Topic string

	// Payload is the serialised message body.
	Payload []byte

	// QoS is the delivery guarantee level (0 or 1).
	QoS byte

	// Retained asks the broker to keep the message for new subscribers.
	Retained bool

	// Username, when set, requires the broker connection to be
	// re-established with this credential before publishing
	// (thingsboard-json convention).
	Username string

	// Local routes the payload to the local sink instead of the broker.
	Local bool
}
