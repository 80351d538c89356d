// Package room wraps the interactive audio room transport used while the
// local user is a speaker or the moderator. It derives the speaker roster
// from room participant events and samples per-speaker audio levels on a
// fixed interval.
package room

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"stream-lab/contract"
	"stream-lab/domain"
)

// DefaultStatsInterval is how often audio levels are polled from the
// transport's statistics API.
const DefaultStatsInterval = 500 * time.Millisecond

// MessageListener receives control messages from the room's data channel.
type MessageListener interface {
	RoomMessageReceived(msg domain.ControlMessage)
}

// ExcludeFilter decides which room participants never appear as speakers.
type ExcludeFilter func(p contract.RoomParticipant) bool

// excludeComposer is the default filter: a participant without a
// published audio track is the server-side media composer, not a human.
func excludeComposer(p contract.RoomParticipant) bool {
	return !p.HasAudioTrack
}

type Option func(*Transport)

// WithExcludeFilter replaces the media composer filter.
func WithExcludeFilter(f ExcludeFilter) Option {
	return func(t *Transport) { t.exclude = f }
}

// WithStatsInterval overrides the audio level sampling interval.
func WithStatsInterval(d time.Duration) Option {
	return func(t *Transport) { t.interval = d }
}

type roomSpeaker struct {
	speaker  domain.Speaker
	trackSID string
	local    bool
}

// Transport is a speaker source backed by the two-way audio room.
type Transport struct {
	mu       sync.Mutex
	log      *slog.Logger
	dialer   contract.AudioRoomDialer
	msgs     MessageListener
	exclude  ExcludeFilter
	interval time.Duration

	sub        *contract.Subscription
	credential string
	roomName   string
	conn       contract.AudioRoomConn
	speakers   []roomSpeaker
	stopStats  chan struct{}

	// dialing covers the window between Dial starting and the returned
	// connection being stored; a join completing inside it is parked in
	// pending and adopted once the handle lands.
	dialing bool
	pending *pendingJoin
}

type pendingJoin struct {
	local   contract.RoomParticipant
	remotes []contract.RoomParticipant
}

func NewTransport(log *slog.Logger, dialer contract.AudioRoomDialer, msgs MessageListener, opts ...Option) *Transport {
	t := &Transport{
		log:      log,
		dialer:   dialer,
		msgs:     msgs,
		exclude:  excludeComposer,
		interval: DefaultStatsInterval,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *Transport) Configure(credential, roomName string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.credential = credential
	t.roomName = roomName
}

// Connect allocates the local microphone and data tracks and joins the
// room; completion arrives as a SourceConnected event. Connecting twice
// is a programming error.
func (t *Transport) Connect() {
	t.mu.Lock()
	if t.conn != nil || t.dialing {
		t.mu.Unlock()
		panic("room: connection already in progress")
	}
	t.dialing = true
	credential, roomName := t.credential, t.roomName
	t.mu.Unlock()

	conn, err := t.dialer.Dial(credential, roomName, t)
	if err != nil {
		t.log.Error("Audio room dial failed", "room", roomName, "err", err)
		t.handleError(fmt.Errorf("audio room connect: %w", err))
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
	join := t.pending
	t.pending = nil
	t.mu.Unlock()

	if join != nil {
		t.adoptRoom(join.local, join.remotes)
	}
}

// Disconnect leaves the room and stops audio level sampling. Safe to call
// when already disconnected.
func (t *Transport) Disconnect() {
	t.mu.Lock()
	conn := t.conn
	stop := t.stopStats
	t.conn = nil
	t.stopStats = nil
	t.speakers = nil
	t.dialing = false
	t.pending = nil
	t.mu.Unlock()

	if stop != nil {
		close(stop)
	}
	if conn != nil {
		conn.Close()
	}
}

// Muted reports whether the local microphone is disabled.
func (t *Transport) Muted() bool {
	t.mu.Lock()
	conn := t.conn
	t.mu.Unlock()
	if conn == nil {
		return false
	}
	return !conn.MicEnabled()
}

// SetMuted toggles only the local microphone enable flag, then reports
// the local speaker updated so the UI reflects it without a reconcile.
func (t *Transport) SetMuted(muted bool) {
	t.mu.Lock()
	conn := t.conn
	t.mu.Unlock()
	if conn == nil {
		return
	}
	if err := conn.SetMicEnabled(!muted); err != nil {
		t.log.Warn("Microphone toggle failed", "err", err)
		return
	}

	var local *domain.Speaker
	t.mu.Lock()
	for i := range t.speakers {
		if t.speakers[i].local {
			t.speakers[i].speaker.Muted = muted
			if muted {
				t.speakers[i].speaker.AudioLevel = 0
			}
			s := t.speakers[i].speaker
			local = &s
			break
		}
	}
	t.mu.Unlock()

	if local != nil {
		if l, ok := t.sub.Listener(); ok {
			l.SpeakerUpdated(*local)
		}
	}
}

// SendMessage delivers a control message over the data channel. Fire and
// forget.
func (t *Transport) SendMessage(msg domain.ControlMessage) {
	t.mu.Lock()
	conn := t.conn
	t.mu.Unlock()
	if conn == nil {
		return
	}
	data, err := msg.Encode()
	if err != nil {
		return
	}
	if err := conn.SendData(data); err != nil {
		t.log.Warn("Room message send failed", "type", msg.Type, "err", err)
	}
}

// Speakers implements contract.SpeakerSource.
func (t *Transport) Speakers() []domain.Speaker {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]domain.Speaker, 0, len(t.speakers))
	for _, s := range t.speakers {
		out = append(out, s.speaker)
	}
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

func newRoomSpeaker(p contract.RoomParticipant) roomSpeaker {
	id := domain.ParseIdentity(p.Identity)
	return roomSpeaker{
		speaker: domain.Speaker{
			Identity:  p.Identity,
			Name:      id.Name,
			Moderator: id.Moderator,
			Muted:     !p.HasAudioTrack || !p.AudioEnabled,
		},
		trackSID: p.AudioTrackSID,
		local:    p.Local,
	}
}

// addLocked inserts a speaker following the roster ordering policy: the
// moderator always sits at index 0, everyone else joins in arrival order.
func (t *Transport) addLocked(s roomSpeaker) {
	if s.speaker.Moderator {
		t.speakers = append([]roomSpeaker{s}, t.speakers...)
		return
	}
	t.speakers = append(t.speakers, s)
}

// RoomConnected implements contract.AudioRoomHandler. The transport may
// report the join before Dial has handed the connection back; in that
// case the roster is parked and adopted once the handle lands.
func (t *Transport) RoomConnected(local contract.RoomParticipant, remotes []contract.RoomParticipant) {
	t.mu.Lock()
	if t.conn == nil {
		if t.dialing {
			t.pending = &pendingJoin{local: local, remotes: remotes}
		}
		t.mu.Unlock()
		return
	}
	t.mu.Unlock()
	t.adoptRoom(local, remotes)
}

func (t *Transport) adoptRoom(local contract.RoomParticipant, remotes []contract.RoomParticipant) {
	stop := make(chan struct{})

	t.mu.Lock()
	if t.conn == nil {
		t.mu.Unlock()
		return
	}
	for _, p := range remotes {
		if t.exclude(p) {
			continue
		}
		t.addLocked(newRoomSpeaker(p))
	}
	t.addLocked(newRoomSpeaker(local))
	t.stopStats = stop
	t.mu.Unlock()

	go t.sampleLoop(stop)

	if l, ok := t.listener(); ok {
		l.SourceConnected()
	}
}

// RoomDisconnected implements contract.AudioRoomHandler.
func (t *Transport) RoomDisconnected(cause *contract.RoomError) {
	t.handleError(translateDisconnect(cause))
}

// ParticipantConnected implements contract.AudioRoomHandler.
func (t *Transport) ParticipantConnected(p contract.RoomParticipant) {
	t.mu.Lock()
	if t.conn == nil || t.exclude(p) {
		t.mu.Unlock()
		return
	}
	s := newRoomSpeaker(p)
	t.addLocked(s)
	t.mu.Unlock()

	if l, ok := t.listener(); ok {
		l.SpeakerAdded(s.speaker)
	}
}

// ParticipantDisconnected implements contract.AudioRoomHandler.
func (t *Transport) ParticipantDisconnected(identity string) {
	t.mu.Lock()
	if t.conn == nil {
		t.mu.Unlock()
		return
	}
	var removed *domain.Speaker
	for i, s := range t.speakers {
		if s.speaker.Identity == identity {
			removed = &s.speaker
			t.speakers = append(t.speakers[:i], t.speakers[i+1:]...)
			break
		}
	}
	t.mu.Unlock()

	if removed == nil {
		return
	}
	if l, ok := t.listener(); ok {
		l.SpeakerRemoved(*removed)
	}
}

// AudioTrackToggled implements contract.AudioRoomHandler.
func (t *Transport) AudioTrackToggled(p contract.RoomParticipant) {
	t.mu.Lock()
	if t.conn == nil {
		t.mu.Unlock()
		return
	}
	var updated *domain.Speaker
	for i := range t.speakers {
		if t.speakers[i].speaker.Identity == p.Identity {
			t.speakers[i].speaker.Muted = !p.HasAudioTrack || !p.AudioEnabled
			t.speakers[i].trackSID = p.AudioTrackSID
			s := t.speakers[i].speaker
			updated = &s
			break
		}
	}
	t.mu.Unlock()

	if updated == nil {
		return
	}
	if l, ok := t.listener(); ok {
		l.SpeakerUpdated(*updated)
	}
}

// DataReceived implements contract.AudioRoomHandler.
func (t *Transport) DataReceived(data []byte) {
	t.mu.Lock()
	alive := t.conn != nil
	t.mu.Unlock()
	if !alive {
		return
	}

	msg, err := domain.DecodeControlMessage(data)
	if err != nil {
		t.log.Debug("Dropping unrecognized room message", "err", err)
		return
	}
	t.msgs.RoomMessageReceived(msg)
}

func (t *Transport) sampleLoop(stop chan struct{}) {
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			t.sampleAudioLevels()
		}
	}
}

// sampleAudioLevels polls the statistics API and pushes fresh levels to
// the listener. The transport keeps reporting a non-zero level for a
// disabled microphone, so muted speakers are forced to zero here.
func (t *Transport) sampleAudioLevels() {
	t.mu.Lock()
	conn := t.conn
	t.mu.Unlock()
	if conn == nil {
		// Ticker cancellation is not instantaneous across goroutines.
		return
	}

	levels := conn.AudioLevels()
	if len(levels) == 0 {
		return
	}

	var updated []domain.Speaker
	t.mu.Lock()
	if t.conn != conn {
		t.mu.Unlock()
		return
	}
	for i := range t.speakers {
		level, ok := levels[t.speakers[i].trackSID]
		if !ok {
			continue
		}
		if t.speakers[i].speaker.Muted {
			level = 0
		}
		t.speakers[i].speaker.AudioLevel = level
		updated = append(updated, t.speakers[i].speaker)
	}
	t.mu.Unlock()

	if l, ok := t.listener(); ok {
		for _, s := range updated {
			l.SpeakerUpdated(s)
		}
	}
}
