package contract

import "fmt"

// Error codes the audio room transport reports on disconnect. They mirror
// the upstream media server's error namespace.
const (
	CodeRoomCompleted       = 53118
	CodeParticipantNotFound = 53204
)

// RoomError is a transport-level failure carrying its upstream code.
type RoomError struct {
	Code    int
	Message string
}

func (e *RoomError) Error() string {
	return fmt.Sprintf("audio room error %d: %s", e.Code, e.Message)
}

// RoomParticipant describes one connected audio room participant. A
// participant without a published audio track is usually the server-side
// media composer, not a human.
type RoomParticipant struct {
	Identity      string
	Local         bool
	HasAudioTrack bool
	AudioTrackSID string
	AudioEnabled  bool
}

// AudioRoomHandler receives asynchronous events from the audio room
// subsystem, delivered from the subsystem's own goroutines.
type AudioRoomHandler interface {
	// RoomConnected fires once the join completed, with the local
	// participant and everyone already in the room.
	RoomConnected(local RoomParticipant, remotes []RoomParticipant)
	// RoomDisconnected fires on any terminal drop. A nil error means the
	// server closed the connection silently.
	RoomDisconnected(cause *RoomError)
	ParticipantConnected(p RoomParticipant)
	ParticipantDisconnected(identity string)
	// AudioTrackToggled fires when a participant's microphone track is
	// enabled or disabled.
	AudioTrackToggled(p RoomParticipant)
	DataReceived(data []byte)
}

// AudioRoomConn is an open two-way audio connection with a local
// microphone track and a data track for control messages.
type AudioRoomConn interface {
	SetMicEnabled(enabled bool) error
	MicEnabled() bool
	SendData(data []byte) error
	// AudioLevels returns the latest smoothed level per audio track SID,
	// as reported by the transport's statistics API.
	AudioLevels() map[string]int
	Close()
}

// AudioRoomDialer joins audio rooms. Dial allocates the local microphone
// and data tracks and starts the join; completion arrives on the handler.
type AudioRoomDialer interface {
	Dial(credential, roomName string, h AudioRoomHandler) (AudioRoomConn, error)
}
