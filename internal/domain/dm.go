package domain

// DM is a direct conversation with a single peer. It is read-trackable like
// a channel but additionally keyed by the peer's user id.
type DM struct {
	DMID         string `json:"id"`
	UserID       string `json:"user_id"`
	Read         bool   `json:"is_read"`
	Muted        bool   `json:"is_muted"`
	MentionCount int    `json:"mentions"`
}

func (d *DM) ID() string    { return d.DMID }
func (d *DM) IsRead() bool  { return d.Read }
func (d *DM) IsMuted() bool { return d.Muted }
func (d *DM) Mentions() int { return d.MentionCount }
func (d *DM) PeerID() string { return d.UserID }
