package registry

// Sender is the outbound half of one client connection. Implementations are
// provided by the transport layer; the registry and the game never touch raw
// connections directly.
type Sender interface {
	// Send delivers one message to the client.
	Send(v any) error
	// IsOpen reports whether the underlying connection is usable.
	IsOpen() bool
	// Close releases the connection. Closing twice must be safe.
	Close() error
}
