// Package errors defines the domain error taxonomy of the session core.
// Transient transport noise is logged at the source and never reaches
// this package; everything here is visible to the embedding application.
package errors

import "fmt"

var (
	// ErrPresenceSyncFailed means the presence roster never stabilized.
	ErrPresenceSyncFailed = fmt.Errorf("presence synchronization failed")

	// ErrStreamEndedByModerator is terminal: the room itself is gone.
	ErrStreamEndedByModerator = fmt.Errorf("live stream ended by moderator")

	// ErrMovedToAudienceByModerator is the one error a session absorbs
	// into a role downgrade instead of a hard disconnect.
	ErrMovedToAudienceByModerator = fmt.Errorf("speaker moved to audience by moderator")

	// ErrInvalidBroadcastMetadata marks a broadcast metadata message that
	// could not be decoded. Single bad messages are dropped and logged.
	ErrInvalidBroadcastMetadata = fmt.Errorf("invalid broadcast metadata")
)

// BackendError is the structured rejection returned by the backend API.
type BackendError struct {
	Message     string
	Explanation string
}

// Error prefers the human-readable explanation supplied by the backend.
func (e *BackendError) Error() string {
	if e.Explanation != "" {
		return e.Explanation
	}
	return e.Message
}
