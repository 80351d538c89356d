//go:generate go run go.uber.org/mock/mockgen -source=backend.go -destination=../mocks/mock_backend.go -package=mocks
package contract

import "context"

// JoinRoomRequest asks the backend for room credentials. Every request
// carries the shared-secret passcode the backend validates.
type JoinRoomRequest struct {
	Passcode     string
	UserIdentity string
	RoomName     string
	// CreateRoom is set when the caller is the moderator opening the room.
	CreateRoom bool
}

// JoinRoomResponse carries the access credential shared by all three
// transports, plus the messaging session to subscribe to.
type JoinRoomResponse struct {
	Token     string
	SessionID string
}

// RoomSummary is one entry of the room directory.
type RoomSummary struct {
	Name string
}

// Backend is the credential-issuing API behind the session. It is
// consumed, never implemented, by the session core.
type Backend interface {
	JoinRoom(ctx context.Context, req JoinRoomRequest) (*JoinRoomResponse, error)
	LeaveRoom(ctx context.Context, passcode, roomName, userIdentity string) error
	// DeleteRoom ends the room for everyone. Moderator only.
	DeleteRoom(ctx context.Context, passcode, roomName string) error
	// RemoveSpeaker forcibly moves another participant back to the
	// audience. Moderator only; the removed speaker learns about it
	// through its own transport events.
	RemoveSpeaker(ctx context.Context, passcode, roomName, userIdentity string) error
	ListRooms(ctx context.Context, passcode string) ([]RoomSummary, error)
}
