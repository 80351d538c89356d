// Package domain contains core concepts of the live stream session.
// This file defines the identity scheme shared by every transport.
// No runtime, network, or UI logic should be added here.
package domain

const identityTagLen = 2

const (
	moderatorTag = "m_"
	// Speakers and audience members share one tag: the two roles are
	// indistinguishable at the transport level and tracked in memory only.
	listenerTag = "s_"
)

// IdentityComponents binds an opaque transport identity to the display
// name and the moderator discrimination encoded in its tag. The tag is
// the sole place a role is persisted across transports.
type IdentityComponents struct {
	Identity  string
	Name      string
	Moderator bool
}

// NewIdentity encodes a display name and a role into a transport identity.
func NewIdentity(name string, role Role) IdentityComponents {
	tag := listenerTag
	if role == RoleModerator {
		tag = moderatorTag
	}
	return IdentityComponents{
		Identity:  tag + name,
		Name:      name,
		Moderator: role == RoleModerator,
	}
}

// ParseIdentity decodes a transport identity. Identities shorter than the
// tag never come out of NewIdentity; they decode as a non-moderator whose
// name is the whole string, so callers always get a usable display name.
func ParseIdentity(identity string) IdentityComponents {
	if len(identity) < identityTagLen {
		return IdentityComponents{Identity: identity, Name: identity}
	}
	return IdentityComponents{
		Identity:  identity,
		Name:      identity[identityTagLen:],
		Moderator: identity[:identityTagLen] == moderatorTag,
	}
}
