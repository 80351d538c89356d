package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecodeControlMessage(t *testing.T) {
	t.Run("should decode a speaker invite", func(t *testing.T) {
		req := require.New(t)

		msg, err := DecodeControlMessage(
			[]byte(`{"message_type":"speaker_invite","to_participant_identity":"s_Bob"}`))

		req.NoError(err)
		req.Equal(MessageSpeakerInvite, msg.Type)
		req.Equal("s_Bob", msg.To)
	})

	t.Run("should decode a mute order", func(t *testing.T) {
		req := require.New(t)

		msg, err := DecodeControlMessage(
			[]byte(`{"message_type":"mute","to_participant_identity":"s_Bob"}`))

		req.NoError(err)
		req.Equal(MessageMute, msg.Type)
	})

	t.Run("should reject an unknown message type", func(t *testing.T) {
		req := require.New(t)

		_, err := DecodeControlMessage(
			[]byte(`{"message_type":"kick","to_participant_identity":"s_Bob"}`))

		req.ErrorContains(err, "unknown type")
	})

	t.Run("should reject a message without addressee", func(t *testing.T) {
		req := require.New(t)

		_, err := DecodeControlMessage([]byte(`{"message_type":"mute"}`))

		req.ErrorContains(err, "missing addressee")
	})

	t.Run("should reject malformed JSON", func(t *testing.T) {
		req := require.New(t)

		_, err := DecodeControlMessage([]byte(`mute s_Bob`))

		req.Error(err)
	})
}

func TestControlMessage_Encode(t *testing.T) {
	req := require.New(t)

	data, err := ControlMessage{Type: MessageMute, To: "s_Bob"}.Encode()

	req.NoError(err)
	req.JSONEq(`{"message_type":"mute","to_participant_identity":"s_Bob"}`, string(data))
}
