// Package pulse is the backend adapter for a pulse chat server: REST for
// the connection lifecycle, WebSocket for live events. It satisfies the
// account.Adapter contract; everything protocol-specific stays in here.
package pulse

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/vedran77/pulsedesk/internal/domain"
	"github.com/vedran77/pulsedesk/internal/logging"
)

const (
	pingInterval = 30 * time.Second
	eventBufSize = 256
)

// Adapter connects one account to a pulse server.
//
// The event stream lives as long as the adapter: Reload retires the old
// socket and its pumps and dials a new one, but Events keeps delivering on
// the same channel. Done reports the permanent end of the session.
type Adapter struct {
	baseURL string
	token   string
	userID  string

	http *http.Client

	// conn and connDone belong to the current session; connDone is
	// closed when that session is retired so its pumps exit without
	// touching the shared event stream.
	conn     *websocket.Conn
	connDone chan struct{}

	events chan Event
	stop   chan struct{}

	log zerolog.Logger
}

// New creates an adapter for the given server URL and session token. The
// session user id is read from the token's subject claim; the signature is
// the server's to verify, not ours.
func New(baseURL, token string) (*Adapter, error) {
	userID, err := userIDFromToken(token)
	if err != nil {
		return nil, fmt.Errorf("parsing session token: %w", err)
	}
	return &Adapter{
		baseURL: baseURL,
		token:   token,
		userID:  userID,
		http:    &http.Client{Timeout: 15 * time.Second},
		events:  make(chan Event, eventBufSize),
		stop:    make(chan struct{}),
		log:     logging.Component("pulse-adapter").With().Str("server", baseURL).Logger(),
	}, nil
}

// UserID returns the session user id carried by the token.
func (ad *Adapter) UserID() string {
	return ad.userID
}

// Events is the stream of server events. The channel is never closed;
// consumers select on Done to learn that the session ended for good.
func (ad *Adapter) Events() <-chan Event {
	return ad.events
}

// Done is closed when the adapter is permanently disconnected.
func (ad *Adapter) Done() <-chan struct{} {
	return ad.stop
}

// Connect dials the WebSocket endpoint and starts the read and ping pumps
// for the new session.
func (ad *Adapter) Connect(ctx context.Context) error {
	wsURL, err := ad.websocketURL()
	if err != nil {
		return err
	}

	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		return fmt.Errorf("dialing %s: %w", ad.baseURL, err)
	}
	ad.conn = conn
	ad.connDone = make(chan struct{})

	go ad.readPump(conn, ad.connDone)
	go ad.pingPump(conn, ad.connDone)

	ad.log.Info().Msg("connected")
	return nil
}

// Disconnect ends the session. The account calls this at most once;
// disconnected is terminal.
func (ad *Adapter) Disconnect(ctx context.Context) error {
	ad.retire("client disconnect")
	close(ad.stop)
	return nil
}

// Reload retires the current socket and dials again. Pumps of the old
// session exit; the event stream stays open.
func (ad *Adapter) Reload(ctx context.Context) error {
	ad.retire("reload")
	return ad.Connect(ctx)
}

// retire shuts down the current session's socket and pumps.
func (ad *Adapter) retire(reason string) {
	if ad.conn == nil {
		return
	}
	close(ad.connDone)
	ad.conn.Close(websocket.StatusNormalClosure, reason)
	ad.conn = nil
	ad.connDone = nil
}

// GetAllChannels fetches the channels the session user is a member of.
func (ad *Adapter) GetAllChannels(ctx context.Context) ([]*domain.Channel, error) {
	var resp struct {
		Channels []struct {
			ID          string  `json:"id"`
			Name        string  `json:"name"`
			Description *string `json:"description,omitempty"`
		} `json:"channels"`
	}
	if err := ad.doJSON(ctx, http.MethodGet, "/api/v1/channels", nil, &resp); err != nil {
		return nil, err
	}

	channels := make([]*domain.Channel, 0, len(resp.Channels))
	for _, c := range resp.Channels {
		channels = append(channels, &domain.Channel{
			ChannelID:   c.ID,
			Name:        c.Name,
			Description: c.Description,
			Read:        true,
		})
	}
	return channels, nil
}

// Join adds the session user to the named channel and subscribes to its
// events.
func (ad *Adapter) Join(ctx context.Context, name string) (*domain.Channel, error) {
	req := map[string]string{"name": name}
	var resp struct {
		ID          string  `json:"id"`
		Name        string  `json:"name"`
		Description *string `json:"description,omitempty"`
	}
	if err := ad.doJSON(ctx, http.MethodPost, "/api/v1/channels/join", req, &resp); err != nil {
		return nil, err
	}

	ch := &domain.Channel{
		ChannelID:   resp.ID,
		Name:        resp.Name,
		Description: resp.Description,
		Read:        true,
	}
	ad.subscribe(ctx, ch.ChannelID)
	return ch, nil
}

// Leave removes the session user from the channel.
func (ad *Adapter) Leave(ctx context.Context, channel *domain.Channel) error {
	path := fmt.Sprintf("/api/v1/channels/%s/leave", channel.ChannelID)
	if err := ad.doJSON(ctx, http.MethodPost, path, nil, nil); err != nil {
		return err
	}
	ad.unsubscribe(ctx, channel.ChannelID)
	return nil
}

func (ad *Adapter) subscribe(ctx context.Context, channelID string) {
	ad.send(ctx, ad.conn, EventTypeChannelSubscribe, &channelID, nil)
}

func (ad *Adapter) unsubscribe(ctx context.Context, channelID string) {
	ad.send(ctx, ad.conn, EventTypeChannelUnsubscribe, &channelID, nil)
}

func (ad *Adapter) send(ctx context.Context, conn *websocket.Conn, eventType string, channelID *string, payload any) {
	if conn == nil {
		return
	}
	evt, err := NewEvent(eventType, channelID, payload)
	if err != nil {
		ad.log.Error().Err(err).Str("type", eventType).Msg("marshal error")
		return
	}
	if err := wsjson.Write(ctx, conn, evt); err != nil {
		ad.log.Warn().Err(err).Str("type", eventType).Msg("write error")
	}
}

// readPump reads server events for one session until its socket closes.
// It never closes the event stream: a reload may already have handed the
// stream to a newer session's pump.
func (ad *Adapter) readPump(conn *websocket.Conn, done chan struct{}) {
	for {
		var evt Event
		if err := wsjson.Read(context.Background(), conn, &evt); err != nil {
			select {
			case <-done:
				// Session retired by Reload or Disconnect.
			default:
				if websocket.CloseStatus(err) != -1 {
					ad.log.Info().Msg("server closed connection")
				} else {
					ad.log.Warn().Err(err).Msg("read error")
				}
			}
			return
		}
		if evt.Type == EventTypePong {
			continue
		}
		select {
		case ad.events <- evt:
		case <-done:
			return
		}
	}
}

func (ad *Adapter) pingPump(conn *websocket.Conn, done chan struct{}) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ad.send(context.Background(), conn, EventTypePing, nil, nil)
		case <-done:
			return
		}
	}
}

func (ad *Adapter) doJSON(ctx context.Context, method, path string, body, out any) error {
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, ad.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+ad.token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())

	resp, err := ad.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr struct {
			Error struct {
				Code    string `json:"code"`
				Message string `json:"message"`
			} `json:"error"`
		}
		if json.NewDecoder(resp.Body).Decode(&apiErr) == nil && apiErr.Error.Message != "" {
			return fmt.Errorf("%s %s: %s (%s)", method, path, apiErr.Error.Message, apiErr.Error.Code)
		}
		return fmt.Errorf("%s %s: status %d", method, path, resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// websocketURL derives the ws endpoint from the base URL. Auth goes in the
// token query param because the browser WebSocket API cannot send headers,
// and the server keeps one handshake for all clients.
func (ad *Adapter) websocketURL() (string, error) {
	u, err := url.Parse(ad.baseURL)
	if err != nil {
		return "", fmt.Errorf("parsing server url: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	}
	u.Path = "/ws"
	q := u.Query()
	q.Set("token", ad.token)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func userIDFromToken(token string) (string, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return "", err
	}
	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return "", jwt.ErrTokenInvalidClaims
	}
	return sub, nil
}
