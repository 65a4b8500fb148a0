package pulse

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/vedran77/pulsedesk/internal/account"
	"github.com/vedran77/pulsedesk/internal/domain"
)

// Apply translates one server event into account mutations. It must run on
// the goroutine that owns the account so that each mutation's
// recompute-then-dispatch sequence commits before the next event is
// applied.
func Apply(a *account.Account, evt Event) error {
	switch evt.Type {
	case EventTypeMessageNew:
		var p MessagePayload
		if err := json.Unmarshal(evt.Payload, &p); err != nil {
			return err
		}
		if evt.ChannelID == nil || p.SenderID == a.CurrentUserID() {
			return nil
		}
		if *evt.ChannelID == a.CurrentChannelID() {
			// The open channel stays read.
			a.MarkRead(*evt.ChannelID)
			return nil
		}
		a.MarkUnread(*evt.ChannelID, countMentions(p.Content, a.CurrentUserName()))

	case EventTypeDMNew:
		var p DMMessagePayload
		if err := json.Unmarshal(evt.Payload, &p); err != nil {
			return err
		}
		if p.SenderID == a.CurrentUserID() {
			return nil
		}
		// Direct messages always count as a mention.
		if dm := a.FindChannelByUserID(p.SenderID); dm != nil {
			a.MarkUnread(dm.DMID, 1)
			return nil
		}
		a.OpenDM(&domain.DM{
			DMID:         p.ConversationID,
			UserID:       p.SenderID,
			MentionCount: 1,
		})

	case EventTypeMessageEdited, EventTypeMessageDeleted:
		// Edits and deletions do not move the read horizon.

	case EventTypeChannelAdded:
		var p ChannelPayload
		if err := json.Unmarshal(evt.Payload, &p); err != nil {
			return err
		}
		a.AddChannel(&domain.Channel{ChannelID: p.ID, Name: p.Name, Read: true})

	case EventTypeChannelRemoved:
		var p ChannelPayload
		if err := json.Unmarshal(evt.Payload, &p); err != nil {
			return err
		}
		a.RemoveChannel(p.ID)

	case EventTypeUserUpdated:
		var p UserPayload
		if err := json.Unmarshal(evt.Payload, &p); err != nil {
			return err
		}
		user := &domain.User{ID: p.ID, Name: p.Name, AvatarURL: p.AvatarURL}
		if prev, ok := a.FindUserByID(p.ID); ok {
			user.Status = prev.Status
		}
		if _, err := a.SaveUser(user); err != nil {
			return err
		}

	case EventTypePresence:
		var p PresencePayload
		if err := json.Unmarshal(evt.Payload, &p); err != nil {
			return err
		}
		// Presence for a user the directory has not seen yet carries no
		// name to index; it is dropped until the user record arrives.
		if u, ok := a.FindUserByID(p.UserID); ok {
			u.Status = p.Status
		}

	case EventTypeError:
		var p ErrorPayload
		if err := json.Unmarshal(evt.Payload, &p); err != nil {
			return err
		}
		return fmt.Errorf("server error %s: %s", p.Code, p.Message)
	}
	return nil
}

func countMentions(content, userName string) int {
	if userName == "" {
		return 0
	}
	if strings.Contains(content, "@"+userName) {
		return 1
	}
	return 0
}
