package player

// metadata is the timed-metadata document embedded in the broadcast. It
// is the only participant information this transport ever gets: the
// playback subsystem has no native participant concept.
type metadata struct {
	// Sequence detects and discards out-of-order documents; the
	// transport does not guarantee delivery order.
	Sequence int `json:"s"`
	// Participants maps participant identity to volume.
	Participants map[string]participantVolume `json:"p"`
}

type participantVolume struct {
	// Volume is -1 when the speaker is muted.
	Volume int `json:"v"`
}

const mutedVolume = -1
