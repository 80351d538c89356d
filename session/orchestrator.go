// Package session owns the live stream session state machine. The
// orchestrator composes the presence channel, the audio room transport
// and the broadcast playback transport into one consistent view of who
// is speaking and who is listening, and drives role transitions between
// them.
package session

import (
	"context"
	stderrors "errors"
	"log/slog"
	"sync"
	"time"

	"github.com/samber/lo"

	"stream-lab/contract"
	"stream-lab/domain"
	"stream-lab/errors"
	"stream-lab/player"
	"stream-lab/presence"
	"stream-lab/room"
)

// backendTimeout bounds the fire-and-forget leave/delete notifications
// sent while tearing a session down.
const backendTimeout = 10 * time.Second

// Settings identifies the room membership a session is for.
type Settings struct {
	RoomName string
	UserName string
	Passcode string
	// CreateRoom marks the caller as the room's moderator.
	CreateRoom bool
}

// Orchestrator is the single owner of one continuous room membership.
// All commands must come from one logical execution context; transport
// callbacks converge on the orchestrator's internal mutex.
type Orchestrator struct {
	mu  sync.Mutex
	log *slog.Logger

	roomName string
	userName string
	passcode string

	state domain.State
	role  domain.Role

	backend  contract.Backend
	delegate contract.SessionDelegate
	presence *presence.Channel
	room     *room.Transport
	player   *player.Transport

	source    contract.SpeakerSource
	sourceSub *contract.Subscription
	audience  []domain.AudienceMember
	softErr   error
}

// NewOrchestrator wires a session from its collaborators. Nothing
// connects until Connect is called; exactly one orchestrator exists per
// active room membership.
func NewOrchestrator(
	log *slog.Logger,
	settings Settings,
	backend contract.Backend,
	presenceDialer contract.PresenceDialer,
	roomDialer contract.AudioRoomDialer,
	playerDialer contract.PlayerDialer,
	output contract.AudioOutput,
	delegate contract.SessionDelegate,
	roomOpts ...room.Option,
) *Orchestrator {
	o := &Orchestrator{
		log:      log,
		roomName: settings.RoomName,
		userName: settings.UserName,
		passcode: settings.Passcode,
		backend:  backend,
		delegate: delegate,
	}
	if settings.CreateRoom {
		o.role = domain.RoleModerator
	}
	o.presence = presence.NewChannel(log, presenceDialer, o)
	o.room = room.NewTransport(log, roomDialer, o, roomOpts...)
	o.player = player.NewTransport(log, playerDialer, output)
	return o
}

func (o *Orchestrator) RoomName() string { return o.roomName }

func (o *Orchestrator) State() domain.State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

func (o *Orchestrator) Role() domain.Role {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.role
}

// UserIdentity is the local user's transport identity under the current
// role.
func (o *Orchestrator) UserIdentity() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.userIdentityLocked()
}

func (o *Orchestrator) userIdentityLocked() string {
	return domain.NewIdentity(o.userName, o.role).Identity
}

// Speakers is the roster supplied by the active speaker source.
func (o *Orchestrator) Speakers() []domain.Speaker {
	o.mu.Lock()
	src := o.source
	o.mu.Unlock()
	if src == nil {
		return nil
	}
	return src.Speakers()
}

// Audience is the presence roster minus the current speakers, raised
// hands first.
func (o *Orchestrator) Audience() []domain.AudienceMember {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]domain.AudienceMember, len(o.audience))
	copy(out, o.audience)
	return out
}

func (o *Orchestrator) Muted() bool { return o.room.Muted() }

func (o *Orchestrator) SetMuted(muted bool) { o.room.SetMuted(muted) }

func (o *Orchestrator) HandRaised() bool { return o.presence.HandRaised() }

func (o *Orchestrator) SetHandRaised(raised bool) { o.presence.SetHandRaised(raised) }

// Connect requests credentials from the backend and brings the presence
// channel up; the transports follow once the roster resolves. Calling
// Connect on anything but a disconnected session is a programming error.
func (o *Orchestrator) Connect(ctx context.Context) {
	o.mu.Lock()
	if o.state != domain.StateDisconnected {
		o.mu.Unlock()
		panic("session: connection already in progress")
	}
	o.state = domain.StateConnecting
	req := contract.JoinRoomRequest{
		Passcode:     o.passcode,
		UserIdentity: o.userIdentityLocked(),
		RoomName:     o.roomName,
		CreateRoom:   o.role == domain.RoleModerator,
	}
	o.mu.Unlock()

	o.log.Info("Connecting to room", "room", o.roomName, "role", o.role.String())
	o.delegate.SessionConnecting()

	go func() {
		res, err := o.backend.JoinRoom(ctx, req)
		if err != nil {
			// No membership was created, so there is nothing to tell
			// the backend goodbye for.
			o.log.Error("Room join rejected", "room", req.RoomName, "err", err)
			o.teardown()
			o.delegate.SessionDisconnected(err)
			return
		}

		o.mu.Lock()
		if o.state != domain.StateConnecting {
			// Disconnected while the request was in flight.
			o.mu.Unlock()
			return
		}
		o.room.Configure(res.Token, o.roomName)
		o.player.Configure(res.Token, req.UserIdentity)
		o.mu.Unlock()

		o.presence.Connect(res.Token, req.UserIdentity, res.SessionID)
	}()
}

// Disconnect ends the membership, tears all three transports down and
// notifies the backend. Nothing survives into the next session.
func (o *Orchestrator) Disconnect() {
	role := o.teardown()
	o.notifyBackendLeft(role)
}

// SendSpeakerInvite asks one audience member to join the speakers.
// Moderator only.
func (o *Orchestrator) SendSpeakerInvite(toIdentity string) {
	if !o.requireRole(domain.RoleModerator, "speaker invite") {
		return
	}
	o.presence.SendMessage(domain.MessageSpeakerInvite, toIdentity)
}

// MuteSpeaker tells another speaker to mute itself. Moderator only.
func (o *Orchestrator) MuteSpeaker(identity string) {
	if !o.requireRole(domain.RoleModerator, "mute speaker") {
		return
	}
	o.room.SendMessage(domain.ControlMessage{Type: domain.MessageMute, To: identity})
}

// MoveSpeakerToAudience forcibly demotes another speaker. Moderator
// only. The local model does not change here: the removal propagates
// back through the normal transport events.
func (o *Orchestrator) MoveSpeakerToAudience(identity string) {
	if !o.requireRole(domain.RoleModerator, "move speaker to audience") {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), backendTimeout)
		defer cancel()
		if err := o.backend.RemoveSpeaker(ctx, o.passcode, o.roomName, identity); err != nil {
			o.log.Warn("Speaker removal request failed", "identity", identity, "err", err)
		}
	}()
}

// AcceptSpeakerInvite moves the local audience member to the speakers:
// playback pauses, the audio room connects, and the speaker source
// switches once the room stabilizes.
func (o *Orchestrator) AcceptSpeakerInvite() {
	o.mu.Lock()
	if o.state != domain.StateConnected || o.role != domain.RoleAudience {
		o.mu.Unlock()
		o.log.Warn("Ignoring speaker invite accept outside audience role")
		return
	}
	o.role = domain.RoleSpeaker
	o.state = domain.StateConnecting
	o.mu.Unlock()

	o.delegate.SessionConnecting()
	o.joinSpeakers()
}

// LeaveSpeakers returns the local speaker to the audience. A no-op for
// anyone not currently speaking.
func (o *Orchestrator) LeaveSpeakers() {
	o.mu.Lock()
	if o.state != domain.StateConnected || o.role != domain.RoleSpeaker {
		o.mu.Unlock()
		o.log.Warn("Ignoring leave speakers outside speaker role")
		return
	}
	o.role = domain.RoleAudience
	o.state = domain.StateConnecting
	o.mu.Unlock()

	o.delegate.SessionConnecting()
	o.joinAudience()
}

func (o *Orchestrator) requireRole(role domain.Role, command string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.state != domain.StateConnected || o.role != role {
		o.log.Warn("Command refused", "command", command, "role", o.role.String())
		return false
	}
	return true
}

// switchSource detaches the previous speaker source before activating
// the next one, so duplicate or stale roster events never get through.
func (o *Orchestrator) switchSource(src contract.SpeakerSource) {
	o.mu.Lock()
	if o.sourceSub != nil {
		o.sourceSub.Cancel()
	}
	o.sourceSub = src.Subscribe(o)
	o.source = src
	o.mu.Unlock()
}

func (o *Orchestrator) joinSpeakers() {
	o.player.Pause()
	o.switchSource(o.room)
	o.room.Connect()
}

func (o *Orchestrator) joinAudience() {
	o.room.Disconnect()
	o.switchSource(o.player)
	o.player.Connect()
	o.presence.SetHandRaised(false)
}

// teardown brings the session back to its initial state and reports the
// role held when it started, which decides the backend goodbye.
func (o *Orchestrator) teardown() domain.Role {
	o.mu.Lock()
	o.state = domain.StateDisconnected
	if o.sourceSub != nil {
		o.sourceSub.Cancel()
		o.sourceSub = nil
	}
	o.source = nil
	o.audience = nil
	o.softErr = nil
	role := o.role
	if o.role == domain.RoleSpeaker {
		o.role = domain.RoleAudience
	}
	o.mu.Unlock()

	o.presence.Disconnect()
	o.room.Disconnect()
	o.player.Disconnect()
	return role
}

// notifyBackendLeft tells the backend the membership ended: moderators
// delete the room, everyone else just leaves. Fire and forget.
func (o *Orchestrator) notifyBackendLeft(role domain.Role) {
	identity := domain.NewIdentity(o.userName, role).Identity
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), backendTimeout)
		defer cancel()
		var err error
		if role == domain.RoleModerator {
			err = o.backend.DeleteRoom(ctx, o.passcode, o.roomName)
		} else {
			err = o.backend.LeaveRoom(ctx, o.passcode, o.roomName, identity)
		}
		if err != nil {
			o.log.Warn("Backend goodbye failed", "room", o.roomName, "err", err)
		}
	}()
}

func (o *Orchestrator) handleError(err error) {
	role := o.teardown()
	o.notifyBackendLeft(role)
	o.delegate.SessionDisconnected(err)
}

// connecting reports whether a connect or role switch is in flight.
// Participant deltas are suppressed while it is: the switch's completion
// event triggers a full reconciliation, so intermediate deltas would
// only tear the model.
func (o *Orchestrator) connecting() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state == domain.StateConnecting
}

// PresenceConnected implements presence.Listener. The roster resolved;
// bring up whichever speaker source the current role needs.
func (o *Orchestrator) PresenceConnected() {
	o.mu.Lock()
	role := o.role
	o.mu.Unlock()

	switch role {
	case domain.RoleModerator, domain.RoleSpeaker:
		o.joinSpeakers()
	case domain.RoleAudience:
		o.joinAudience()
	}
}

// PresenceDisconnected implements presence.Listener.
func (o *Orchestrator) PresenceDisconnected(err error) {
	o.handleError(err)
}

// ParticipantAdded implements presence.Listener.
func (o *Orchestrator) ParticipantAdded(m domain.AudienceMember) {
	if o.connecting() {
		return
	}
	o.mu.Lock()
	o.audience = append(o.audience, m)
	o.mu.Unlock()
	o.delegate.ParticipantsChanged()
}

// ParticipantRemoved implements presence.Listener.
func (o *Orchestrator) ParticipantRemoved(m domain.AudienceMember) {
	if o.connecting() {
		return
	}
	o.mu.Lock()
	before := len(o.audience)
	o.audience = lo.Reject(o.audience, func(cur domain.AudienceMember, _ int) bool {
		return cur.Identity == m.Identity
	})
	changed := len(o.audience) != before
	o.mu.Unlock()
	if changed {
		o.delegate.ParticipantsChanged()
	}
}

// ParticipantUpdated implements presence.Listener.
func (o *Orchestrator) ParticipantUpdated(m domain.AudienceMember) {
	if o.connecting() {
		return
	}
	o.mu.Lock()
	_, index, found := lo.FindIndexOf(o.audience, func(cur domain.AudienceMember) bool {
		return cur.Identity == m.Identity
	})
	if found {
		o.audience[index] = m
	}
	o.mu.Unlock()
	if !found {
		return
	}

	o.delegate.AudienceUpdated(index)

	o.mu.Lock()
	next, moved := reorderRaisedHands(o.audience)
	if moved {
		o.audience = next
	}
	o.mu.Unlock()
	if moved {
		o.delegate.ParticipantsChanged()
	}
}

// MessageReceived implements presence.Listener. Only messages addressed
// to the local user trigger anything. Unlike participant deltas, messages
// are delivered even while a role switch is in flight: an invite does not
// depend on the roster being stable.
func (o *Orchestrator) MessageReceived(msg domain.ControlMessage) {
	if msg.To != o.UserIdentity() {
		return
	}
	switch msg.Type {
	case domain.MessageSpeakerInvite:
		o.delegate.SpeakerInviteReceived()
	default:
	}
}

// RoomMessageReceived implements room.MessageListener.
func (o *Orchestrator) RoomMessageReceived(msg domain.ControlMessage) {
	if msg.To != o.UserIdentity() {
		return
	}
	switch msg.Type {
	case domain.MessageMute:
		o.SetMuted(true)
		o.delegate.MutedByModerator()
	default:
	}
}

// SourceConnected implements contract.SourceListener. The active source
// stabilized: recompute the audience as presence roster minus speakers
// and report the session connected, forwarding any pending soft error.
func (o *Orchestrator) SourceConnected() {
	o.mu.Lock()
	src := o.source
	if src == nil {
		o.mu.Unlock()
		return
	}
	speakers := src.Speakers()
	roster := o.presence.Participants()
	audience := lo.Reject(roster, func(m domain.AudienceMember, _ int) bool {
		return lo.ContainsBy(speakers, func(s domain.Speaker) bool {
			return s.Identity == m.Identity
		})
	})
	audience, _ = reorderRaisedHands(audience)
	o.audience = audience
	o.state = domain.StateConnected
	softErr := o.softErr
	o.softErr = nil
	o.mu.Unlock()

	o.log.Info("Session connected",
		"room", o.roomName, "speakers", len(speakers), "audience", len(audience))
	o.delegate.SessionConnected(softErr)
}

// SourceDisconnected implements contract.SourceListener. A speaker being
// moved out by the moderator is absorbed into an automatic return to the
// audience; every other cause ends the session.
func (o *Orchestrator) SourceDisconnected(err error) {
	o.mu.Lock()
	soft := stderrors.Is(err, errors.ErrMovedToAudienceByModerator) && o.role == domain.RoleSpeaker
	if soft {
		o.softErr = err
		o.role = domain.RoleAudience
		o.state = domain.StateConnecting
	}
	o.mu.Unlock()

	if !soft {
		o.handleError(err)
		return
	}

	o.log.Info("Moved to audience by moderator, rejoining playback")
	o.delegate.SessionConnecting()
	o.joinAudience()
}

// SpeakerAdded implements contract.SourceListener. A new speaker leaves
// the audience by definition.
func (o *Orchestrator) SpeakerAdded(s domain.Speaker) {
	if o.connecting() {
		return
	}
	o.mu.Lock()
	o.audience = lo.Reject(o.audience, func(cur domain.AudienceMember, _ int) bool {
		return cur.Identity == s.Identity
	})
	o.mu.Unlock()
	o.delegate.ParticipantsChanged()
}

// SpeakerRemoved implements contract.SourceListener. The speaker drops
// back into the audience, provided presence still knows it.
func (o *Orchestrator) SpeakerRemoved(s domain.Speaker) {
	if o.connecting() {
		return
	}
	member, found := lo.Find(o.presence.Participants(), func(m domain.AudienceMember) bool {
		return m.Identity == s.Identity
	})
	if !found {
		return
	}

	o.mu.Lock()
	o.audience = append(o.audience, member)
	o.mu.Unlock()
	o.delegate.ParticipantsChanged()

	o.mu.Lock()
	next, moved := reorderRaisedHands(o.audience)
	if moved {
		o.audience = next
	}
	o.mu.Unlock()
	if moved {
		o.delegate.ParticipantsChanged()
	}
}

// SpeakerUpdated implements contract.SourceListener.
func (o *Orchestrator) SpeakerUpdated(s domain.Speaker) {
	if o.connecting() {
		return
	}
	o.mu.Lock()
	src := o.source
	o.mu.Unlock()
	if src == nil {
		return
	}
	_, index, found := lo.FindIndexOf(src.Speakers(), func(cur domain.Speaker) bool {
		return cur.Identity == s.Identity
	})
	if !found {
		return
	}
	o.delegate.SpeakerUpdated(index)
}
