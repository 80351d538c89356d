package session

import "stream-lab/domain"

// reorderRaisedHands moves members with a raised hand to the front while
// preserving the relative order inside both groups. The second result
// reports whether the identity sequence actually changed; flag-only
// updates do not count as a move, so the UI is never asked to animate a
// reorder that is not one.
func reorderRaisedHands(members []domain.AudienceMember) ([]domain.AudienceMember, bool) {
	next := make([]domain.AudienceMember, 0, len(members))
	for _, m := range members {
		if m.HandRaised {
			next = append(next, m)
		}
	}
	for _, m := range members {
		if !m.HandRaised {
			next = append(next, m)
		}
	}

	for i := range next {
		if next[i].Identity != members[i].Identity {
			return next, true
		}
	}
	return next, false
}
