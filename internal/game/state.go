package game

// State is the session-wide game state. It only advances, except for the
// reversible PLAYING/PAUSED pair. The two half-ready states make the start
// rendezvous explicit: controller-ready and start-validated must both occur,
// in either order, before initialization.
type State int

const (
	StateIdle State = iota
	StateControllerReady
	StateStartValidated
	StateInitialized
	StatePlaying
	StatePaused
	StatePost
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateControllerReady:
		return "CONTROLLER_READY"
	case StateStartValidated:
		return "START_VALIDATED"
	case StateInitialized:
		return "INITIALIZED"
	case StatePlaying:
		return "PLAYING"
	case StatePaused:
		return "PAUSED"
	case StatePost:
		return "POST"
	}
	return "UNKNOWN"
}

// InstanceState is the per-player state within a session.
type InstanceState int

const (
	InstancePending InstanceState = iota
	InstancePlaying
	InstancePaused
	InstanceFinished
)

func (s InstanceState) String() string {
	switch s {
	case InstancePending:
		return "PENDING"
	case InstancePlaying:
		return "PLAYING"
	case InstancePaused:
		return "PAUSED"
	case InstanceFinished:
		return "FINISHED"
	}
	return "UNKNOWN"
}
