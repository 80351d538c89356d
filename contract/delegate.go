package contract

// SessionDelegate is the notification contract consumed by the UI layer.
// The UI issues commands only and never mutates session state directly.
//
// Callbacks are delivered on the session's internal execution context.
// Implementations must hand work off to their own context and must not
// call back into the session synchronously.
type SessionDelegate interface {
	// SessionConnecting fires when a connect or role switch begins.
	SessionConnecting()
	// SessionConnected fires when the session stabilizes. A non-nil
	// softErr is informational only (e.g. a soft demotion notice); the
	// session is healthy.
	SessionConnected(softErr error)
	SessionDisconnected(err error)
	// ParticipantsChanged reports a structural change: an insert, delete
	// or move in the speaker or audience lists.
	ParticipantsChanged()
	SpeakerUpdated(index int)
	AudienceUpdated(index int)
	SpeakerInviteReceived()
	MutedByModerator()
}
