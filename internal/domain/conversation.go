package domain

// Conversation is the read-trackable capability set shared by channels and
// direct conversations. Account aggregates (read flag, mention count) are
// folded over values of this interface.
type Conversation interface {
	ID() string
	IsRead() bool
	IsMuted() bool
	Mentions() int
}

// DirectConversation is a Conversation addressed by its peer user rather
// than by topic.
type DirectConversation interface {
	Conversation
	PeerID() string
}
