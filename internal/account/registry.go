package account

import (
	"github.com/rs/zerolog"

	"github.com/vedran77/pulsedesk/internal/logging"
	"github.com/vedran77/pulsedesk/internal/signal"
)

// Registry tracks every connected account and maintains the cross-account
// aggregates one level above the per-account ones, with the same
// dedup-then-broadcast pattern.
type Registry struct {
	accounts []*Account

	isRead       bool
	mentionCount int

	OnUpdateReadState signal.Signal[bool]
	OnUpdateMentions  signal.Signal[int]

	log zerolog.Logger
}

func NewRegistry() *Registry {
	return &Registry{
		isRead: true,
		log:    logging.Component("registry"),
	}
}

// AddAccount starts tracking an account and refreshes the aggregates.
func (r *Registry) AddAccount(a *Account) {
	r.accounts = append(r.accounts, a)
	r.log.Info().Str("account_id", a.ID()).Msg("account registered")
	r.UpdateReadState()
	r.UpdateMentions()
}

// RemoveAccount stops tracking an account and refreshes the aggregates.
func (r *Registry) RemoveAccount(a *Account) {
	for i, cur := range r.accounts {
		if cur == a {
			r.accounts = append(r.accounts[:i], r.accounts[i+1:]...)
			r.log.Info().Str("account_id", a.ID()).Msg("account unregistered")
			r.UpdateReadState()
			r.UpdateMentions()
			return
		}
	}
}

// Accounts returns the tracked accounts in registration order.
func (r *Registry) Accounts() []*Account {
	return r.accounts
}

// FindAccount returns the tracked account with the given id.
func (r *Registry) FindAccount(id string) *Account {
	for _, a := range r.accounts {
		if a.ID() == id {
			return a
		}
	}
	return nil
}

func (r *Registry) IsRead() bool      { return r.isRead }
func (r *Registry) MentionCount() int { return r.mentionCount }

// ComputeReadState reports whether every tracked account is read.
func (r *Registry) ComputeReadState() bool {
	for _, a := range r.accounts {
		if !a.IsRead() {
			return false
		}
	}
	return true
}

// UpdateReadState recomputes the cross-account read flag and broadcasts on
// change.
func (r *Registry) UpdateReadState() {
	v := r.ComputeReadState()
	if v == r.isRead {
		return
	}
	r.isRead = v
	r.OnUpdateReadState.Dispatch(v)
}

// UpdateMentions recomputes the cross-account mention total and broadcasts
// on change.
func (r *Registry) UpdateMentions() {
	total := 0
	for _, a := range r.accounts {
		total += a.MentionCount()
	}
	if total == r.mentionCount {
		return
	}
	r.mentionCount = total
	r.OnUpdateMentions.Dispatch(total)
}
