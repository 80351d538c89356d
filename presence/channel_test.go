package presence

import (
	"encoding/json"
	"log/slog"
	"sync"
	"testing"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"

	"stream-lab/contract"
	"stream-lab/domain"
	"stream-lab/errors"
)

// fakePresenceConn records outgoing calls and lets tests script the
// server-side roster.
type fakePresenceConn struct {
	mu           sync.Mutex
	roster       []contract.PresenceParticipant
	selfAttrs    [][]byte
	sentMessages [][]byte
	closed       bool
}

func (c *fakePresenceConn) Participants() []contract.PresenceParticipant {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.roster
}

func (c *fakePresenceConn) UpdateSelfAttributes(attributes []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.selfAttrs = append(c.selfAttrs, attributes)
	return nil
}

func (c *fakePresenceConn) SendMessage(attributes []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sentMessages = append(c.sentMessages, attributes)
	return nil
}

func (c *fakePresenceConn) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
}

type fakePresenceDialer struct {
	conn    *fakePresenceConn
	dialErr error

	handler  contract.PresenceHandler
	identity string
}

func (d *fakePresenceDialer) Dial(credential, identity, sessionID string, h contract.PresenceHandler) (contract.PresenceConn, error) {
	d.handler = h
	d.identity = identity
	if d.dialErr != nil {
		return nil, d.dialErr
	}
	return d.conn, nil
}

// eagerSyncDialer reports the roster synced before Dial hands the
// connection back, as a subsystem running its own event goroutine may.
type eagerSyncDialer struct {
	conn *fakePresenceConn
}

func (d *eagerSyncDialer) Dial(credential, identity, sessionID string, h contract.PresenceHandler) (contract.PresenceConn, error) {
	h.SyncCompleted()
	return d.conn, nil
}

// recordingListener captures every event the channel emits.
type recordingListener struct {
	mu           sync.Mutex
	connected    int
	disconnected []error
	added        []domain.AudienceMember
	removed      []domain.AudienceMember
	updated      []domain.AudienceMember
	messages     []domain.ControlMessage
}

func (l *recordingListener) PresenceConnected() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.connected++
}

func (l *recordingListener) PresenceDisconnected(err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.disconnected = append(l.disconnected, err)
}

func (l *recordingListener) ParticipantAdded(m domain.AudienceMember) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.added = append(l.added, m)
}

func (l *recordingListener) ParticipantRemoved(m domain.AudienceMember) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.removed = append(l.removed, m)
}

func (l *recordingListener) ParticipantUpdated(m domain.AudienceMember) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.updated = append(l.updated, m)
}

func (l *recordingListener) MessageReceived(msg domain.ControlMessage) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.messages = append(l.messages, msg)
}

func attrsJSON(t *testing.T, role string, raised bool) []byte {
	t.Helper()
	data, err := json.Marshal(attributes{Role: role, HandRaised: raised})
	require.NoError(t, err)
	return data
}

func newTestChannel(dialer *fakePresenceDialer) (*Channel, *recordingListener) {
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	listener := &recordingListener{}
	return NewChannel(log, dialer, listener), listener
}

func TestChannel_Connect(t *testing.T) {
	t.Run("should adopt the roster and report connected on sync", func(t *testing.T) {
		req := require.New(t)
		conn := &fakePresenceConn{roster: []contract.PresenceParticipant{
			{Identity: "m_Alice"},
			{Identity: "s_Bob", Attributes: attrsJSON(t, "audience", true)},
		}}
		dialer := &fakePresenceDialer{conn: conn}
		channel, listener := newTestChannel(dialer)

		channel.Connect("tok", "s_Carol", "CH123")
		req.Equal("s_Carol", dialer.identity)

		dialer.handler.SyncCompleted()

		req.Equal(1, listener.connected)
		req.Equal([]domain.AudienceMember{
			{Identity: "m_Alice", Name: "Alice"},
			{Identity: "s_Bob", Name: "Bob", HandRaised: true},
		}, channel.Participants())
	})

	t.Run("should adopt a sync reported before the dial returns", func(t *testing.T) {
		req := require.New(t)
		conn := &fakePresenceConn{roster: []contract.PresenceParticipant{
			{Identity: "m_Alice"},
		}}
		log := logs.GetLoggerFromLevel(slog.LevelDebug)
		listener := &recordingListener{}
		channel := NewChannel(log, &eagerSyncDialer{conn: conn}, listener)

		channel.Connect("tok", "s_Carol", "CH123")

		req.Equal(1, listener.connected)
		req.Equal([]domain.AudienceMember{{Identity: "m_Alice", Name: "Alice"}}, channel.Participants())
	})

	t.Run("should report a sync failure when the dial fails", func(t *testing.T) {
		req := require.New(t)
		dialer := &fakePresenceDialer{dialErr: errors.ErrPresenceSyncFailed}
		channel, listener := newTestChannel(dialer)

		channel.Connect("tok", "s_Carol", "CH123")

		req.Zero(listener.connected)
		req.Len(listener.disconnected, 1)
		req.ErrorIs(listener.disconnected[0], errors.ErrPresenceSyncFailed)
		req.Empty(channel.Participants())
	})

	t.Run("should report a sync failure when the subsystem fails", func(t *testing.T) {
		req := require.New(t)
		conn := &fakePresenceConn{}
		dialer := &fakePresenceDialer{conn: conn}
		channel, listener := newTestChannel(dialer)

		channel.Connect("tok", "s_Carol", "CH123")
		dialer.handler.SyncFailed()

		req.Len(listener.disconnected, 1)
		req.ErrorIs(listener.disconnected[0], errors.ErrPresenceSyncFailed)
		req.True(conn.closed)
	})

	t.Run("should panic on a second connect", func(t *testing.T) {
		req := require.New(t)
		dialer := &fakePresenceDialer{conn: &fakePresenceConn{}}
		channel, _ := newTestChannel(dialer)

		channel.Connect("tok", "s_Carol", "CH123")

		req.Panics(func() { channel.Connect("tok", "s_Carol", "CH123") })
	})
}

func TestChannel_RosterEvents(t *testing.T) {
	connect := func(t *testing.T, roster ...contract.PresenceParticipant) (*Channel, *fakePresenceDialer, *recordingListener) {
		conn := &fakePresenceConn{roster: roster}
		dialer := &fakePresenceDialer{conn: conn}
		channel, listener := newTestChannel(dialer)
		channel.Connect("tok", "s_Carol", "CH123")
		dialer.handler.SyncCompleted()
		return channel, dialer, listener
	}

	t.Run("should append joined participants", func(t *testing.T) {
		req := require.New(t)
		channel, dialer, listener := connect(t)

		dialer.handler.ParticipantJoined(contract.PresenceParticipant{Identity: "s_Bob"})

		req.Equal([]domain.AudienceMember{{Identity: "s_Bob", Name: "Bob"}}, listener.added)
		req.Len(channel.Participants(), 1)
	})

	t.Run("should remove left participants", func(t *testing.T) {
		req := require.New(t)
		channel, dialer, listener := connect(t,
			contract.PresenceParticipant{Identity: "s_Bob"},
			contract.PresenceParticipant{Identity: "s_Dana"},
		)

		dialer.handler.ParticipantLeft("s_Bob")

		req.Equal([]domain.AudienceMember{{Identity: "s_Bob", Name: "Bob"}}, listener.removed)
		req.Equal([]domain.AudienceMember{{Identity: "s_Dana", Name: "Dana"}}, channel.Participants())
	})

	t.Run("should ignore a leave for an unknown identity", func(t *testing.T) {
		req := require.New(t)
		_, dialer, listener := connect(t)

		dialer.handler.ParticipantLeft("s_Ghost")

		req.Empty(listener.removed)
	})

	t.Run("should update attributes in place", func(t *testing.T) {
		req := require.New(t)
		channel, dialer, listener := connect(t,
			contract.PresenceParticipant{Identity: "s_Bob"},
		)

		dialer.handler.ParticipantUpdated(contract.PresenceParticipant{
			Identity: "s_Bob", Attributes: attrsJSON(t, "audience", true),
		})

		req.Len(listener.updated, 1)
		req.True(listener.updated[0].HandRaised)
		req.True(channel.Participants()[0].HandRaised)
	})

	t.Run("should keep a participant with malformed attributes", func(t *testing.T) {
		req := require.New(t)
		channel, dialer, listener := connect(t)

		dialer.handler.ParticipantJoined(contract.PresenceParticipant{
			Identity: "s_Bob", Attributes: []byte("not json"),
		})

		req.Len(listener.added, 1)
		req.False(channel.Participants()[0].HandRaised)
	})

	t.Run("should drop events after disconnect", func(t *testing.T) {
		req := require.New(t)
		channel, dialer, listener := connect(t)

		channel.Disconnect()
		dialer.handler.ParticipantJoined(contract.PresenceParticipant{Identity: "s_Bob"})

		req.Empty(listener.added)
	})
}

func TestChannel_Messages(t *testing.T) {
	connect := func(t *testing.T) (*Channel, *fakePresenceDialer, *fakePresenceConn, *recordingListener) {
		conn := &fakePresenceConn{}
		dialer := &fakePresenceDialer{conn: conn}
		channel, listener := newTestChannel(dialer)
		channel.Connect("tok", "m_Alice", "CH123")
		dialer.handler.SyncCompleted()
		return channel, dialer, conn, listener
	}

	t.Run("should deliver decoded control messages", func(t *testing.T) {
		req := require.New(t)
		_, dialer, _, listener := connect(t)

		dialer.handler.MessageAdded(
			[]byte(`{"message_type":"speaker_invite","to_participant_identity":"s_Bob"}`))

		req.Equal([]domain.ControlMessage{
			{Type: domain.MessageSpeakerInvite, To: "s_Bob"},
		}, listener.messages)
	})

	t.Run("should drop undecodable messages", func(t *testing.T) {
		req := require.New(t)
		_, dialer, _, listener := connect(t)

		dialer.handler.MessageAdded([]byte(`{"message_type":"kick","to_participant_identity":"s_Bob"}`))
		dialer.handler.MessageAdded([]byte("garbage"))

		req.Empty(listener.messages)
	})

	t.Run("should encode sent messages on the wire format", func(t *testing.T) {
		req := require.New(t)
		channel, _, conn, _ := connect(t)

		channel.SendMessage(domain.MessageSpeakerInvite, "s_Bob")

		req.Len(conn.sentMessages, 1)
		req.JSONEq(
			`{"message_type":"speaker_invite","to_participant_identity":"s_Bob"}`,
			string(conn.sentMessages[0]))
	})
}

func TestChannel_SetHandRaised(t *testing.T) {
	req := require.New(t)
	conn := &fakePresenceConn{roster: []contract.PresenceParticipant{
		{Identity: "s_Carol"},
		{Identity: "s_Bob"},
	}}
	dialer := &fakePresenceDialer{conn: conn}
	channel, _ := newTestChannel(dialer)
	channel.Connect("tok", "s_Carol", "CH123")
	dialer.handler.SyncCompleted()

	channel.SetHandRaised(true)

	req.True(channel.HandRaised())
	members := channel.Participants()
	req.True(members[0].HandRaised)
	req.False(members[1].HandRaised)
	req.Len(conn.selfAttrs, 1)
	req.JSONEq(`{"role":"audience","hand_raised":true}`, string(conn.selfAttrs[0]))
}
