// Package contract holds the capability interfaces the session core is
// built against: the speaker source abstraction, the underlying realtime
// transports, the backend API, and the delegate consumed by the UI layer.
// Concrete transports live in their own packages; external SDK bindings
// implement the connection interfaces defined here.
package contract

import (
	"sync/atomic"

	"stream-lab/domain"
)

// SpeakerSource is whichever transport currently supplies the live list
// of active speakers: the audio room while the user speaks, the broadcast
// player while the user listens. Exactly one source is active at a time;
// the previous subscription must be canceled before the next source is
// subscribed so stale events never reach the session.
type SpeakerSource interface {
	Speakers() []domain.Speaker
	Subscribe(l SourceListener) *Subscription
}

// SourceListener receives roster events from the active speaker source.
// Events are delivered one at a time from the source's own context.
type SourceListener interface {
	// SourceConnected fires once the source's roster has stabilized.
	SourceConnected()
	SourceDisconnected(err error)
	SpeakerAdded(s domain.Speaker)
	SpeakerRemoved(s domain.Speaker)
	SpeakerUpdated(s domain.Speaker)
}

// Subscription ties a listener to a source. Cancel detaches immediately:
// events emitted after Cancel returns are dropped, even when the source
// is mid-delivery on another goroutine.
type Subscription struct {
	listener SourceListener
	canceled atomic.Bool
}

func NewSubscription(l SourceListener) *Subscription {
	return &Subscription{listener: l}
}

func (s *Subscription) Cancel() {
	if s != nil {
		s.canceled.Store(true)
	}
}

// Listener returns the subscribed listener, or false once canceled.
func (s *Subscription) Listener() (SourceListener, bool) {
	if s == nil || s.canceled.Load() {
		return nil, false
	}
	return s.listener, true
}
