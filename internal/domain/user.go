package domain

type User struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	AvatarURL *string `json:"avatar_url,omitempty"`
	Status    string  `json:"status,omitempty"` // "online" | "offline"
}
