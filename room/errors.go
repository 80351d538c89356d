package room

import (
	"stream-lab/contract"
	"stream-lab/errors"
)

// translateDisconnect maps the transport's ambiguous disconnect causes
// onto domain errors.
//
// A "room completed" code means the moderator ended the stream. A
// "participant not found" code surfaces when the moderator removes a
// speaker while other room activity is in flight, and most of the time a
// moderator-initiated removal carries no error at all; both cases read as
// a move back to the audience. Anything else passes through unchanged.
func translateDisconnect(cause *contract.RoomError) error {
	switch {
	case cause == nil:
		return errors.ErrMovedToAudienceByModerator
	case cause.Code == contract.CodeRoomCompleted:
		return errors.ErrStreamEndedByModerator
	case cause.Code == contract.CodeParticipantNotFound:
		return errors.ErrMovedToAudienceByModerator
	default:
		return cause
	}
}
