package account

// Record is the minimal persistable identity of an account, used for
// restart-time reconnection. Optional fields are omitted, never null.
type Record struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	CurrentChannelID string `json:"current_channel_id,omitempty"`
	Icon             string `json:"icon,omitempty"`
}

// Serialize produces the identity record for this account.
func (a *Account) Serialize() Record {
	return Record{
		ID:               a.id,
		Name:             a.name,
		CurrentChannelID: a.currentChannelID,
		Icon:             a.icon,
	}
}
