// Package account implements the per-workspace state container: channel and
// DM collections, the user directory, derived read/mention aggregates and
// the signals observers subscribe to for exact, deduplicated updates.
//
// An account is owned by a single goroutine. Every mutation runs its
// recompute-then-dispatch sequence to completion before control returns, so
// interleaved events always observe a consistent container.
package account

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/vedran77/pulsedesk/internal/directory"
	"github.com/vedran77/pulsedesk/internal/domain"
	"github.com/vedran77/pulsedesk/internal/logging"
	"github.com/vedran77/pulsedesk/internal/readstate"
	"github.com/vedran77/pulsedesk/internal/signal"
)

// Account is the in-memory state container for one connected workspace.
type Account struct {
	id   string
	name string
	icon string
	url  string

	channels []*domain.Channel
	dms      []*domain.DM
	users    *directory.Directory

	currentChannelID string
	currentUserID    string
	currentUserName  string

	isRead        bool
	mentionCount  int
	status        domain.Status
	channelsReady bool

	registry *Registry
	adapter  Adapter

	// gen guards in-flight fetches: results captured under an older
	// generation are discarded instead of being applied to a container
	// that has since been reloaded or torn down.
	gen uint64

	OnUpdateChannels   signal.Signal[signal.Void]
	OnUpdateInfo       signal.Signal[signal.Void]
	OnUpdateReadState  signal.Signal[bool]
	OnUpdateMentions   signal.Signal[signal.Void]
	OnUpdateConnection signal.Signal[domain.Status]
	OnAddChannel       signal.Signal[*domain.Channel]
	OnRemoveChannel    signal.Signal[string]
	OnOpenDM           signal.Signal[*domain.DM]
	OnCloseDM          signal.Signal[string]

	log zerolog.Logger
}

// New creates an account for one workspace and registers it with the
// registry. The account starts in the connecting status with no adapter
// bound; use BindAdapter before invoking lifecycle operations.
func New(reg *Registry, id, name, icon, url string) *Account {
	a := &Account{
		id:       id,
		name:     name,
		icon:     icon,
		url:      url,
		users:    directory.New(),
		isRead:   true,
		status:   domain.StatusConnecting,
		registry: reg,
		log:      logging.Component("account").With().Str("account_id", id).Logger(),
	}
	if reg != nil {
		reg.AddAccount(a)
	}
	return a
}

// BindAdapter attaches the protocol implementation serving this account.
func (a *Account) BindAdapter(ad Adapter) {
	a.adapter = ad
}

func (a *Account) ID() string             { return a.id }
func (a *Account) Name() string           { return a.name }
func (a *Account) Icon() string           { return a.icon }
func (a *Account) URL() string            { return a.url }
func (a *Account) IsRead() bool           { return a.isRead }
func (a *Account) MentionCount() int      { return a.mentionCount }
func (a *Account) Status() domain.Status  { return a.status }
func (a *Account) ChannelsReady() bool    { return a.channelsReady }
func (a *Account) Channels() []*domain.Channel { return a.channels }
func (a *Account) DMs() []*domain.DM      { return a.dms }

func (a *Account) CurrentChannelID() string { return a.currentChannelID }
func (a *Account) CurrentUserID() string    { return a.currentUserID }
func (a *Account) CurrentUserName() string  { return a.currentUserName }

// SetCurrentUser records the session user as reported by the backend.
func (a *Account) SetCurrentUser(id, name string) {
	a.currentUserID = id
	a.currentUserName = name
}

// SetCurrentChannel moves the session cursor.
func (a *Account) SetCurrentChannel(id string) {
	a.currentChannelID = id
}

// UpdateInfo applies a workspace rename or icon change and notifies
// observers.
func (a *Account) UpdateInfo(name, icon string) {
	if name == a.name && icon == a.icon {
		return
	}
	a.name = name
	a.icon = icon
	a.OnUpdateInfo.Dispatch(signal.Void{})
}

// FindChannelByID searches channels first, then DMs.
func (a *Account) FindChannelByID(id string) domain.Conversation {
	for _, ch := range a.channels {
		if ch.ChannelID == id {
			return ch
		}
	}
	for _, dm := range a.dms {
		if dm.DMID == id {
			return dm
		}
	}
	return nil
}

// FindChannelByUserID returns the DM thread with the given peer. Regular
// channels never match; an incoming direct message routes here to decide
// whether a new thread must be opened.
func (a *Account) FindChannelByUserID(userID string) *domain.DM {
	for _, dm := range a.dms {
		if dm.UserID == userID {
			return dm
		}
	}
	return nil
}

// SaveUser stores the user in the directory. Renaming the session user
// keeps the cursor name in sync.
func (a *Account) SaveUser(u *domain.User) (*domain.User, error) {
	stored, err := a.users.SaveUser(u)
	if err != nil {
		return nil, err
	}
	if stored.ID == a.currentUserID {
		a.currentUserName = stored.Name
	}
	return stored, nil
}

// FindUserByID looks up a user in the directory.
func (a *Account) FindUserByID(id string) (*domain.User, bool) {
	return a.users.FindByID(id)
}

// FindUsersByName returns up to limit users whose name matches the prefix,
// with an exact match moved to the front. Callers that only need the match
// position use the directory directly.
func (a *Account) FindUsersByName(name string, limit int) []*domain.User {
	res := a.users.FindByNamePrefix(name, limit)
	if res.ExactIndex > 0 {
		exact := res.Matches[res.ExactIndex]
		copy(res.Matches[1:res.ExactIndex+1], res.Matches[:res.ExactIndex])
		res.Matches[0] = exact
	}
	return res.Matches
}

// Directory exposes the raw user directory.
func (a *Account) Directory() *directory.Directory {
	return a.users
}

// SetReadState assigns the account read flag, dispatching only on change
// and then asking the registry to refresh the cross-account aggregate.
func (a *Account) SetReadState(v bool) {
	if v == a.isRead {
		return
	}
	a.isRead = v
	a.log.Debug().Bool("is_read", v).Msg("read state changed")
	a.OnUpdateReadState.Dispatch(v)
	if a.registry != nil {
		a.registry.UpdateReadState()
	}
}

// UpdateReadState recomputes the read flag over channels and DMs.
func (a *Account) UpdateReadState() {
	a.SetReadState(readstate.Read(a.channels) && readstate.Read(a.dms))
}

// UpdateMentions recomputes the mention total over channels and DMs,
// dispatching only on change.
func (a *Account) UpdateMentions() {
	total := readstate.MentionCount(a.channels) + readstate.MentionCount(a.dms)
	if total == a.mentionCount {
		return
	}
	a.mentionCount = total
	a.log.Debug().Int("mentions", total).Msg("mention count changed")
	a.OnUpdateMentions.Dispatch(signal.Void{})
	if a.registry != nil {
		a.registry.UpdateMentions()
	}
}

// AddChannel appends a channel the backend reported and refreshes the
// aggregates.
func (a *Account) AddChannel(ch *domain.Channel) {
	a.channels = append(a.channels, ch)
	a.OnAddChannel.Dispatch(ch)
	a.updateAggregates()
}

// RemoveChannel drops the channel with the given id.
func (a *Account) RemoveChannel(id string) {
	for i, ch := range a.channels {
		if ch.ChannelID == id {
			a.channels = append(a.channels[:i], a.channels[i+1:]...)
			a.OnRemoveChannel.Dispatch(id)
			a.updateAggregates()
			return
		}
	}
}

// OpenDM adds a direct conversation thread.
func (a *Account) OpenDM(dm *domain.DM) {
	a.dms = append(a.dms, dm)
	a.OnOpenDM.Dispatch(dm)
	a.updateAggregates()
}

// CloseDM drops the DM thread with the given id.
func (a *Account) CloseDM(id string) {
	for i, dm := range a.dms {
		if dm.DMID == id {
			a.dms = append(a.dms[:i], a.dms[i+1:]...)
			a.OnCloseDM.Dispatch(id)
			a.updateAggregates()
			return
		}
	}
}

// MarkRead marks the conversation read and clears its mentions.
func (a *Account) MarkRead(id string) {
	switch c := a.FindChannelByID(id).(type) {
	case *domain.Channel:
		c.Read, c.MentionCount = true, 0
	case *domain.DM:
		c.Read, c.MentionCount = true, 0
	default:
		return
	}
	a.updateAggregates()
}

// MarkUnread marks the conversation unread, adding mentions new mention
// hits.
func (a *Account) MarkUnread(id string, mentions int) {
	switch c := a.FindChannelByID(id).(type) {
	case *domain.Channel:
		c.Read = false
		c.MentionCount += mentions
	case *domain.DM:
		c.Read = false
		c.MentionCount += mentions
	default:
		return
	}
	a.updateAggregates()
}

func (a *Account) updateAggregates() {
	a.UpdateReadState()
	a.UpdateMentions()
}

// Disconnect closes the backend session. Disconnected is terminal for this
// account instance.
func (a *Account) Disconnect(ctx context.Context) error {
	if a.adapter == nil {
		return ErrNotImplemented
	}
	if a.status == domain.StatusDisconnected {
		return ErrAccountClosed
	}
	a.gen++
	if err := a.adapter.Disconnect(ctx); err != nil {
		return a.backendFailed("disconnect", err)
	}
	a.setStatus(domain.StatusDisconnected)
	return nil
}

// Reload re-enters connecting after an error and refetches the channel
// list.
func (a *Account) Reload(ctx context.Context) error {
	if a.adapter == nil {
		return ErrNotImplemented
	}
	if a.status == domain.StatusDisconnected {
		return ErrAccountClosed
	}
	a.setStatus(domain.StatusConnecting)
	a.gen++
	if err := a.adapter.Reload(ctx); err != nil {
		return a.backendFailed("reload", err)
	}
	return a.GetAllChannels(ctx)
}

// GetAllChannels fetches the channel list from the backend and installs it.
// A result that arrives after the account was reloaded or torn down is
// discarded.
func (a *Account) GetAllChannels(ctx context.Context) error {
	if a.adapter == nil {
		return ErrNotImplemented
	}
	if a.status == domain.StatusDisconnected {
		return ErrAccountClosed
	}
	gen := a.gen
	channels, err := a.adapter.GetAllChannels(ctx)
	if gen != a.gen {
		a.log.Debug().Msg("discarding stale channel fetch")
		return ErrResultDiscarded
	}
	if err != nil {
		return a.backendFailed("get channels", err)
	}
	a.channels = channels
	a.channelsReady = true
	a.setStatus(domain.StatusReady)
	a.OnUpdateChannels.Dispatch(signal.Void{})
	a.updateAggregates()
	return nil
}

// Join joins the named channel and adds it to the container.
func (a *Account) Join(ctx context.Context, name string) (*domain.Channel, error) {
	if a.adapter == nil {
		return nil, ErrNotImplemented
	}
	if a.status == domain.StatusDisconnected {
		return nil, ErrAccountClosed
	}
	gen := a.gen
	ch, err := a.adapter.Join(ctx, name)
	if gen != a.gen {
		a.log.Debug().Str("channel", name).Msg("discarding stale join result")
		return nil, ErrResultDiscarded
	}
	if err != nil {
		return nil, a.backendFailed("join", err)
	}
	a.AddChannel(ch)
	return ch, nil
}

// Leave leaves the channel and removes it from the container.
func (a *Account) Leave(ctx context.Context, ch *domain.Channel) error {
	if a.adapter == nil {
		return ErrNotImplemented
	}
	if a.status == domain.StatusDisconnected {
		return ErrAccountClosed
	}
	gen := a.gen
	err := a.adapter.Leave(ctx, ch)
	if gen != a.gen {
		return ErrResultDiscarded
	}
	if err != nil {
		return a.backendFailed("leave", err)
	}
	a.RemoveChannel(ch.ChannelID)
	return nil
}

// Close tears the account down: in-flight fetches are invalidated, the
// final status transition fires, the registry forgets the account and all
// observers are detached.
func (a *Account) Close() {
	a.gen++
	a.setStatus(domain.StatusDisconnected)
	if a.registry != nil {
		a.registry.RemoveAccount(a)
		a.registry = nil
	}
	a.clearSignals()
	a.log.Info().Msg("account closed")
}

func (a *Account) setStatus(s domain.Status) {
	if s == a.status {
		return
	}
	a.status = s
	a.log.Info().Stringer("status", s).Msg("connection status changed")
	a.OnUpdateConnection.Dispatch(s)
}

func (a *Account) backendFailed(op string, err error) error {
	a.log.Error().Err(err).Str("op", op).Msg("backend operation failed")
	a.setStatus(domain.StatusError)
	return &BackendError{Op: op, Err: err}
}

func (a *Account) clearSignals() {
	a.OnUpdateChannels.Clear()
	a.OnUpdateInfo.Clear()
	a.OnUpdateReadState.Clear()
	a.OnUpdateMentions.Clear()
	a.OnUpdateConnection.Clear()
	a.OnAddChannel.Clear()
	a.OnRemoveChannel.Clear()
	a.OnOpenDM.Clear()
	a.OnCloseDM.Clear()
}
