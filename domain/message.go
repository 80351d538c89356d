package domain

import (
	"encoding/json"
	"fmt"
)

// MessageType discriminates the small control messages exchanged over the
// transports' side channels.
type MessageType string

const (
	// MessageSpeakerInvite travels over the presence channel, from the
	// moderator to one audience member.
	MessageSpeakerInvite MessageType = "speaker_invite"
	// MessageMute travels over the audio room data channel, from the
	// moderator to one speaker.
	MessageMute MessageType = "mute"
)

// ControlMessage is the envelope shared by both side channels. Receivers
// act on a message only when it is addressed to them.
type ControlMessage struct {
	Type MessageType `json:"message_type"`
	To   string      `json:"to_participant_identity"`
}

func (m ControlMessage) Encode() ([]byte, error) {
	return json.Marshal(m)
}

// DecodeControlMessage parses a control message envelope. Messages of an
// unknown type or without an addressee are rejected so transports can drop
// them without acting.
func DecodeControlMessage(data []byte) (ControlMessage, error) {
	var m ControlMessage
	if err := json.Unmarshal(data, &m); err != nil {
		return ControlMessage{}, fmt.Errorf("control message: %w", err)
	}
	switch m.Type {
	case MessageSpeakerInvite, MessageMute:
	default:
		return ControlMessage{}, fmt.Errorf("control message: unknown type %q", m.Type)
	}
	if m.To == "" {
		return ControlMessage{}, fmt.Errorf("control message: missing addressee")
	}
	return m, nil
}
