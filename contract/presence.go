package contract

// PresenceParticipant is a raw roster entry as the messaging subsystem
// reports it: an opaque identity plus a JSON attribute document.
type PresenceParticipant struct {
	Identity   string
	Attributes []byte
}

// PresenceHandler receives asynchronous events from the messaging
// subsystem. Implementations of PresenceConn call these from their own
// goroutines; the presence channel serializes them.
type PresenceHandler interface {
	// SyncCompleted fires once the roster is fully resolved server-side.
	SyncCompleted()
	SyncFailed()
	ParticipantJoined(p PresenceParticipant)
	ParticipantLeft(identity string)
	ParticipantUpdated(p PresenceParticipant)
	// MessageAdded delivers the attribute document of an in-room message.
	MessageAdded(attributes []byte)
}

// PresenceConn is the capability surface the session needs from an open
// connection to the messaging subsystem.
type PresenceConn interface {
	// Participants returns the current server-side roster snapshot.
	// Only meaningful after SyncCompleted.
	Participants() []PresenceParticipant
	// UpdateSelfAttributes replaces the local user's attribute document;
	// the subsystem echoes the change back as a ParticipantUpdated event.
	UpdateSelfAttributes(attributes []byte) error
	SendMessage(attributes []byte) error
	Close()
}

// PresenceDialer opens presence connections. Dial returns as soon as the
// connection attempt is underway; the outcome arrives on the handler.
type PresenceDialer interface {
	Dial(credential, identity, sessionID string, h PresenceHandler) (PresenceConn, error)
}
