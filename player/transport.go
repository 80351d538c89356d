// Package player wraps the one-to-many broadcast playback transport used
// while the local user listens. Its speaker roster is derived entirely
// from timed metadata embedded in the stream.
package player

import (
	"encoding/json"
	"log/slog"
	"math"
	"sort"
	"sync"

	"github.com/samber/lo"

	"stream-lab/contract"
	"stream-lab/domain"
	"stream-lab/errors"
)

// Transport is a speaker source backed by broadcast playback.
type Transport struct {
	mu     sync.Mutex
	log    *slog.Logger
	dialer contract.PlayerDialer
	output contract.AudioOutput

	sub        *contract.Subscription
	credential string
	identity   string
	conn       contract.PlayerConn
	speakers   []domain.Speaker
	lastSeq    int
	adopted    bool

	// dialing covers the window between Dial starting and the returned
	// connection being stored; a ready state reported inside it is
	// remembered in pendingReady and played once the handle lands.
	dialing      bool
	pendingReady bool
}

func NewTransport(log *slog.Logger, dialer contract.PlayerDialer, output contract.AudioOutput) *Transport {
	return &Transport{log: log, dialer: dialer, output: output, lastSeq: math.MinInt}
}

func (t *Transport) Configure(credential, identity string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.credential = credential
	t.identity = identity
}

// Connect starts playback. When the player survived an earlier stint as
// a speaker it is reused and resumed instead of reallocated; the sequence
// watermark survives with it, so stale queued metadata stays filtered.
func (t *Transport) Connect() {
	t.mu.Lock()
	t.speakers = nil
	t.adopted = false
	conn := t.conn
	credential := t.credential
	if conn == nil {
		t.dialing = true
	}
	t.mu.Unlock()

	if conn != nil {
		t.play(conn)
		return
	}

	conn, err := t.dialer.Dial(credential, t)
	if err != nil {
		t.log.Error("Playback dial failed", "err", err)
		t.handleError(err)
		return
	}

	t.mu.Lock()
	if !t.dialing {
		// Disconnected while the dial was in flight.
		t.mu.Unlock()
		conn.Close()
		return
	}
	t.conn = conn
	t.dialing = false
	ready := t.pendingReady
	t.pendingReady = false
	t.mu.Unlock()

	if ready {
		t.play(conn)
	}
}

// Pause suspends playback but keeps the player alive for a later resume.
func (t *Transport) Pause() {
	t.mu.Lock()
	conn := t.conn
	t.mu.Unlock()
	if conn != nil {
		conn.Pause()
	}
}

// Disconnect releases the player. Safe to call when already disconnected.
func (t *Transport) Disconnect() {
	t.mu.Lock()
	conn := t.conn
	t.conn = nil
	t.speakers = nil
	t.lastSeq = math.MinInt
	t.adopted = false
	t.dialing = false
	t.pendingReady = false
	t.mu.Unlock()

	if conn != nil {
		conn.Pause()
		conn.Close()
		t.output.Deactivate()
	}
}

// Speakers implements contract.SpeakerSource.
func (t *Transport) Speakers() []domain.Speaker {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]domain.Speaker, len(t.speakers))
	copy(out, t.speakers)
	return out
}

// Subscribe implements contract.SpeakerSource.
func (t *Transport) Subscribe(l contract.SourceListener) *contract.Subscription {
	sub := contract.NewSubscription(l)
	t.mu.Lock()
	t.sub = sub
	t.mu.Unlock()
	return sub
}

func (t *Transport) listener() (contract.SourceListener, bool) {
	t.mu.Lock()
	sub := t.sub
	t.mu.Unlock()
	return sub.Listener()
}

func (t *Transport) handleError(err error) {
	t.Disconnect()
	if l, ok := t.listener(); ok {
		l.SourceDisconnected(err)
	}
}

// play activates the platform audio output before starting playback.
func (t *Transport) play(conn contract.PlayerConn) {
	if err := t.output.Activate(); err != nil {
		t.handleError(err)
		return
	}
	if err := conn.Play(); err != nil {
		t.handleError(err)
	}
}

// StateChanged implements contract.PlayerHandler. Transient states are
// ignored; ready starts playback and ended means the moderator closed
// the room.
func (t *Transport) StateChanged(s contract.PlayerState) {
	t.mu.Lock()
	conn := t.conn
	if conn == nil {
		// The player may report ready before Dial has handed the
		// connection back; remember it and play once it lands.
		dialing := t.dialing
		if dialing && s == contract.PlayerReady {
			t.pendingReady = true
		}
		t.mu.Unlock()
		if dialing && s == contract.PlayerEnded {
			t.handleError(errors.ErrStreamEndedByModerator)
		}
		return
	}
	t.mu.Unlock()

	switch s {
	case contract.PlayerReady:
		t.play(conn)
	case contract.PlayerEnded:
		t.handleError(errors.ErrStreamEndedByModerator)
	case contract.PlayerIdle, contract.PlayerBuffering, contract.PlayerPlaying:
	}
}

// Failed implements contract.PlayerHandler.
func (t *Transport) Failed(err error) {
	t.handleError(err)
}

type rosterEvent struct {
	kind    int // 0 removed, 1 updated, 2 added
	speaker domain.Speaker
}

// TimedMetadata implements contract.PlayerHandler. One bad document never
// compromises the session: anything that does not decode is logged and
// dropped, as are out-of-sequence documents and the empty participant
// maps observed while a room is ending.
func (t *Transport) TimedMetadata(raw []byte) {
	var doc metadata
	if err := json.Unmarshal(raw, &doc); err != nil {
		t.log.Warn("Dropping broadcast metadata",
			"reason", errors.ErrInvalidBroadcastMetadata, "err", err)
		return
	}

	var events []rosterEvent
	connected := false

	t.mu.Lock()
	if t.conn == nil {
		t.mu.Unlock()
		return
	}
	if doc.Sequence <= t.lastSeq {
		t.mu.Unlock()
		return
	}
	if len(doc.Participants) == 0 {
		t.mu.Unlock()
		return
	}
	t.lastSeq = doc.Sequence

	incoming := t.decodeRoster(doc)
	if !t.adopted {
		t.adopted = true
		t.speakers = incoming
		connected = true
	} else {
		events = t.reconcileLocked(incoming)
	}
	t.mu.Unlock()

	l, ok := t.listener()
	if !ok {
		return
	}
	if connected {
		l.SourceConnected()
		return
	}
	for _, e := range events {
		switch e.kind {
		case 0:
			l.SpeakerRemoved(e.speaker)
		case 1:
			l.SpeakerUpdated(e.speaker)
		case 2:
			l.SpeakerAdded(e.speaker)
		}
	}
}

// decodeRoster turns a metadata document into speakers, dropping the
// local user. Identities are visited in sorted order; the document's map
// carries no order of its own.
func (t *Transport) decodeRoster(doc metadata) []domain.Speaker {
	identities := lo.Keys(doc.Participants)
	sort.Strings(identities)

	roster := make([]domain.Speaker, 0, len(identities))
	for _, identity := range identities {
		if identity == t.identity {
			continue
		}
		id := domain.ParseIdentity(identity)
		vol := doc.Participants[identity].Volume
		roster = append(roster, domain.Speaker{
			Identity:   identity,
			Name:       id.Name,
			Moderator:  id.Moderator,
			Muted:      vol == mutedVolume,
			AudioLevel: max(vol, 0),
		})
	}
	return roster
}

// reconcileLocked diffs the incoming roster against the current one.
// Removals come first, then updates and additions, so downstream UI
// diffing stays stable.
func (t *Transport) reconcileLocked(incoming []domain.Speaker) []rosterEvent {
	var events []rosterEvent

	kept := lo.SliceToMap(incoming, func(s domain.Speaker) (string, domain.Speaker) {
		return s.Identity, s
	})
	for i := 0; i < len(t.speakers); {
		if _, ok := kept[t.speakers[i].Identity]; !ok {
			events = append(events, rosterEvent{kind: 0, speaker: t.speakers[i]})
			t.speakers = append(t.speakers[:i], t.speakers[i+1:]...)
			continue
		}
		i++
	}

	for _, s := range incoming {
		_, idx, found := lo.FindIndexOf(t.speakers, func(cur domain.Speaker) bool {
			return cur.Identity == s.Identity
		})
		if found {
			t.speakers[idx] = s
			events = append(events, rosterEvent{kind: 1, speaker: s})
		} else {
			t.speakers = append(t.speakers, s)
			events = append(events, rosterEvent{kind: 2, speaker: s})
		}
	}
	return events
}
