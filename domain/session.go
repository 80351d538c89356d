package domain

// Role is the part a user currently plays in a session. Moderator is
// assigned at room creation and never changes; Speaker and Audience
// freely transition into each other while the session lasts.
type Role int

const (
	RoleAudience Role = iota
	RoleSpeaker
	RoleModerator
)

func (r Role) String() string {
	switch r {
	case RoleModerator:
		return "moderator"
	case RoleSpeaker:
		return "speaker"
	default:
		return "audience"
	}
}

// State is the lifecycle of one continuous room membership.
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	default:
		return "disconnected"
	}
}
