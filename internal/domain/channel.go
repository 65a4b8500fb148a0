package domain

type Channel struct {
	ChannelID    string  `json:"id"`
	Name         string  `json:"name"`
	Description  *string `json:"description,omitempty"`
	Read         bool    `json:"is_read"`
	Muted        bool    `json:"is_muted"`
	MentionCount int     `json:"mentions"`
}

func (c *Channel) ID() string    { return c.ChannelID }
func (c *Channel) IsRead() bool  { return c.Read }
func (c *Channel) IsMuted() bool { return c.Muted }
func (c *Channel) Mentions() int { return c.MentionCount }
