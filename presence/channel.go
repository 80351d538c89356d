// Package presence wraps the messaging subsystem that tracks every
// session participant, regardless of role, and carries small in-room
// control messages such as the speaker invite.
package presence

import (
	"encoding/json"
	"log/slog"
	"sync"

	"stream-lab/contract"
	"stream-lab/domain"
	"stream-lab/errors"
)

// Listener receives decoded presence events. Events are delivered one at
// a time from the channel's own context.
type Listener interface {
	PresenceConnected()
	PresenceDisconnected(err error)
	ParticipantAdded(m domain.AudienceMember)
	ParticipantRemoved(m domain.AudienceMember)
	ParticipantUpdated(m domain.AudienceMember)
	MessageReceived(msg domain.ControlMessage)
}

// attributes is the JSON document carried by the subsystem for each
// participant.
type attributes struct {
	Role       string `json:"role"`
	HandRaised bool   `json:"hand_raised"`
}

// Channel is the authoritative roster of session participants. It owns
// the presence connection and decodes raw subsystem events into domain
// values before handing them to its listener.
type Channel struct {
	mu       sync.Mutex
	log      *slog.Logger
	dialer   contract.PresenceDialer
	listener Listener

	conn     contract.PresenceConn
	identity string
	raised   bool
	roster   []domain.AudienceMember

	// dialing covers the window between Dial starting and the returned
	// connection being stored; a sync completing inside it is remembered
	// in pendingSync and adopted once the handle lands.
	dialing     bool
	pendingSync bool
}

func NewChannel(log *slog.Logger, dialer contract.PresenceDialer, listener Listener) *Channel {
	return &Channel{log: log, dialer: dialer, listener: listener}
}

// Connect opens the presence connection and resolves the session roster
// asynchronously; the outcome arrives as PresenceConnected or
// PresenceDisconnected. Connecting twice is a programming error.
func (c *Channel) Connect(credential, identity, sessionID string) {
	c.mu.Lock()
	if c.identity != "" {
		c.mu.Unlock()
		panic("presence: connection already in progress")
	}
	c.identity = identity
	c.dialing = true
	c.mu.Unlock()

	conn, err := c.dialer.Dial(credential, identity, sessionID, c)
	if err != nil {
		c.log.Error("Presence dial failed", "err", err)
		c.fail()
		return
	}

	c.mu.Lock()
	if !c.dialing {
		// Disconnected while the dial was in flight.
		c.mu.Unlock()
		conn.Close()
		return
	}
	c.conn = conn
	c.dialing = false
	pending := c.pendingSync
	c.pendingSync = false
	c.mu.Unlock()

	if pending {
		c.adoptRoster(conn)
	}
}

// Disconnect releases the connection and clears the roster. Safe to call
// when already disconnected.
func (c *Channel) Disconnect() {
	c.mu.Lock()
	conn := c.conn
	c.conn = nil
	c.identity = ""
	c.raised = false
	c.roster = nil
	c.dialing = false
	c.pendingSync = false
	c.mu.Unlock()

	if conn != nil {
		conn.Close()
	}
}

// Participants returns a snapshot of the current roster.
func (c *Channel) Participants() []domain.AudienceMember {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]domain.AudienceMember, len(c.roster))
	copy(out, c.roster)
	return out
}

func (c *Channel) HandRaised() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.raised
}

// SetHandRaised updates the local user's own presence record. Remote
// participants learn about it through the subsystem's standard update
// event; there is no dedicated hand-raise message.
func (c *Channel) SetHandRaised(raised bool) {
	c.mu.Lock()
	c.raised = raised
	for i := range c.roster {
		if c.roster[i].Identity == c.identity {
			c.roster[i].HandRaised = raised
		}
	}
	conn := c.conn
	identity := c.identity
	c.mu.Unlock()

	if conn == nil {
		return
	}
	attrs, err := json.Marshal(attributes{Role: "audience", HandRaised: raised})
	if err != nil {
		return
	}
	if err := conn.UpdateSelfAttributes(attrs); err != nil {
		c.log.Warn("Hand raise update failed", "identity", identity, "err", err)
	}
}

// SendMessage delivers a control message to the room. Fire and forget:
// delivery failures are logged, never surfaced.
func (c *Channel) SendMessage(msgType domain.MessageType, toIdentity string) {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return
	}

	data, err := domain.ControlMessage{Type: msgType, To: toIdentity}.Encode()
	if err != nil {
		return
	}
	if err := conn.SendMessage(data); err != nil {
		c.log.Warn("Presence message send failed", "type", msgType, "err", err)
	}
}

// fail tears the channel down and reports the sync failure upward.
func (c *Channel) fail() {
	c.Disconnect()
	c.listener.PresenceDisconnected(errors.ErrPresenceSyncFailed)
}

func (c *Channel) decode(p contract.PresenceParticipant) domain.AudienceMember {
	id := domain.ParseIdentity(p.Identity)
	var attrs attributes
	if len(p.Attributes) > 0 {
		if err := json.Unmarshal(p.Attributes, &attrs); err != nil {
			c.log.Debug("Dropping malformed participant attributes", "identity", p.Identity, "err", err)
		}
	}
	return domain.AudienceMember{Identity: p.Identity, Name: id.Name, HandRaised: attrs.HandRaised}
}

// SyncCompleted implements contract.PresenceHandler. The subsystem has
// resolved the full roster; adopt it and report the channel connected.
func (c *Channel) SyncCompleted() {
	c.mu.Lock()
	conn := c.conn
	if conn == nil {
		// The subsystem may report sync before Dial has handed the
		// connection back; remember it and adopt once it lands.
		if c.dialing {
			c.pendingSync = true
		}
		c.mu.Unlock()
		return
	}
	c.mu.Unlock()
	c.adoptRoster(conn)
}

func (c *Channel) adoptRoster(conn contract.PresenceConn) {
	raw := conn.Participants()
	roster := make([]domain.AudienceMember, 0, len(raw))
	for _, p := range raw {
		roster = append(roster, c.decode(p))
	}

	c.mu.Lock()
	if c.conn != conn {
		c.mu.Unlock()
		return
	}
	c.roster = roster
	c.mu.Unlock()

	c.listener.PresenceConnected()
}

// SyncFailed implements contract.PresenceHandler.
func (c *Channel) SyncFailed() {
	c.fail()
}

// ParticipantJoined implements contract.PresenceHandler.
func (c *Channel) ParticipantJoined(p contract.PresenceParticipant) {
	member := c.decode(p)

	c.mu.Lock()
	if c.conn == nil {
		c.mu.Unlock()
		return
	}
	c.roster = append(c.roster, member)
	c.mu.Unlock()

	c.listener.ParticipantAdded(member)
}

// ParticipantLeft implements contract.PresenceHandler.
func (c *Channel) ParticipantLeft(identity string) {
	c.mu.Lock()
	if c.conn == nil {
		c.mu.Unlock()
		return
	}
	var removed *domain.AudienceMember
	for i, m := range c.roster {
		if m.Identity == identity {
			removed = &m
			c.roster = append(c.roster[:i], c.roster[i+1:]...)
			break
		}
	}
	c.mu.Unlock()

	if removed != nil {
		c.listener.ParticipantRemoved(*removed)
	}
}

// ParticipantUpdated implements contract.PresenceHandler.
func (c *Channel) ParticipantUpdated(p contract.PresenceParticipant) {
	member := c.decode(p)

	c.mu.Lock()
	if c.conn == nil {
		c.mu.Unlock()
		return
	}
	found := false
	for i, m := range c.roster {
		if m.Identity == member.Identity {
			c.roster[i] = member
			found = true
			break
		}
	}
	c.mu.Unlock()

	if found {
		c.listener.ParticipantUpdated(member)
	}
}

// MessageAdded implements contract.PresenceHandler. Messages that do not
// decode as a known control message are noise and dropped.
func (c *Channel) MessageAdded(attrs []byte) {
	c.mu.Lock()
	alive := c.conn != nil
	c.mu.Unlock()
	if !alive {
		return
	}

	msg, err := domain.DecodeControlMessage(attrs)
	if err != nil {
		c.log.Debug("Dropping unrecognized presence message", "err", err)
		return
	}
	c.listener.MessageReceived(msg)
}
