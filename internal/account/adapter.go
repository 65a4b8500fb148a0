package account

import (
	"context"

	"github.com/vedran77/pulsedesk/internal/domain"
)

// Adapter is the connection lifecycle capability set a concrete chat
// protocol must provide. The account stays protocol-agnostic: a pulse
// adapter, an IRC adapter and a test stub all satisfy the same contract.
type Adapter interface {
	// Disconnect closes the backend session.
	Disconnect(ctx context.Context) error

	// Reload re-establishes the backend session after an error.
	Reload(ctx context.Context) error

	// GetAllChannels fetches the channels the session user is a member of.
	GetAllChannels(ctx context.Context) ([]*domain.Channel, error)

	// Join adds the session user to the named channel.
	Join(ctx context.Context, name string) (*domain.Channel, error)

	// Leave removes the session user from the channel.
	Leave(ctx context.Context, channel *domain.Channel) error
}
