package contract

// PlayerState is the playback state reported by the broadcast subsystem.
type PlayerState int

const (
	PlayerIdle PlayerState = iota
	PlayerReady
	PlayerBuffering
	PlayerPlaying
	PlayerEnded
)

func (s PlayerState) String() string {
	switch s {
	case PlayerReady:
		return "ready"
	case PlayerBuffering:
		return "buffering"
	case PlayerPlaying:
		return "playing"
	case PlayerEnded:
		return "ended"
	default:
		return "idle"
	}
}

// PlayerHandler receives asynchronous events from the broadcast playback
// subsystem, delivered from the subsystem's own goroutines.
type PlayerHandler interface {
	StateChanged(s PlayerState)
	// TimedMetadata delivers one raw metadata document embedded in the
	// broadcast. Delivery order is not guaranteed.
	TimedMetadata(raw []byte)
	Failed(err error)
}

// PlayerConn is an open one-to-many playback connection.
type PlayerConn interface {
	Play() error
	Pause()
	Close()
}

// PlayerDialer opens playback connections.
type PlayerDialer interface {
	Dial(credential string, h PlayerHandler) (PlayerConn, error)
}

// AudioOutput is the platform audio output session that must be active
// before broadcast playback starts.
type AudioOutput interface {
	Activate() error
	Deactivate()
}
