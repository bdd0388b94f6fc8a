package domain

// PlayerState is the logical state of a connected player. A player moves
// through these states over the lifetime of one session.
type PlayerState string

const (
	// StateLobby means connected but not attached to any match.
	StateLobby PlayerState = "LOBBY"
	// StateMatchmaking means waiting for a match to start.
	StateMatchmaking PlayerState = "MATCHMAKING"
	// StatePlaying means currently inside a running match.
	StatePlaying PlayerState = "PLAYING"
	// StateDisconnected means the connection dropped; the identity survives
	// until a reconnect or cleanup.
	StateDisconnected PlayerState = "DISCONNECTED"
)
