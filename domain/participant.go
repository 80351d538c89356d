package domain

// Speaker is a participant currently heard on the live mix. Speakers are
// produced by whichever speaker source is active; a speaker never belongs
// to two sources at once.
type Speaker struct {
	Identity  string
	Name      string
	Moderator bool
	Muted     bool
	// AudioLevel is a smoothed loudness measure, not a raw amplitude.
	AudioLevel int
}

// AudienceMember is a listener known through the presence roster.
type AudienceMember struct {
	Identity   string
	Name       string
	HandRaised bool
}
