package interfaces

// -----------------------------------------------------------------------------
// ISubscriber is one push-channel endpoint as seen by the subscription hub.
// -----------------------------------------------------------------------------

type ISubscriber interface {

	// ID returns the connection identity.
	ID() string

	// Deliver queues payload for the connection without blocking.
	// An error means the connection is gone or cannot keep up.
	Deliver(payload interface{}) error

	// Close releases the connection. It must be safe to call more than once.
	Close()
}
