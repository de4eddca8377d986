package server

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"ajnadfm/cache"
	"ajnadfm/core/playback"
	"ajnadfm/logger"
	"ajnadfm/model"

	"github.com/gorilla/websocket"
)

var wsUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// sessionMessage is the client-to-server frame. The browser element
// reports its state through "transport" frames; everything else is a
// user action.
type sessionMessage struct {
	Type      string          `json:"type"`
	Tracks    []model.Nasheed `json:"tracks,omitempty"`
	Index     int             `json:"index,omitempty"`
	On        bool            `json:"on,omitempty"`
	NasheedID string          `json:"nasheed_id,omitempty"`

	Event       string  `json:"event,omitempty"`
	CurrentTime float64 `json:"current_time,omitempty"`
	Duration    float64 `json:"duration,omitempty"`
	Ended       bool    `json:"ended,omitempty"`
}

// sessionReply is the server-to-client frame: resolved sources, element
// commands and state echoes.
type sessionReply struct {
	Type          string `json:"type"`
	Cmd           string `json:"cmd,omitempty"`
	On            bool   `json:"on,omitempty"`
	TrackID       string `json:"track_id,omitempty"`
	URL           string `json:"url,omitempty"`
	Index         int    `json:"index,omitempty"`
	RepeatOne     bool   `json:"repeat_one,omitempty"`
	FavoritesOnly bool   `json:"favorites_only,omitempty"`
	Favored       bool   `json:"favored,omitempty"`
}

// wsTransport proxies the browser's player element over the socket. The
// element's reported state is cached locally so the session's handlers
// and watchdog can read it without a round trip; commands go back out as
// "cmd" frames.
type wsTransport struct {
	playback.ListenerRegistry

	writeMu sync.Mutex
	conn    *websocket.Conn

	stateMu     sync.Mutex
	currentTime time.Duration
	duration    time.Duration
	hasDuration bool
	ended       bool
}

func newWSTransport(conn *websocket.Conn) *wsTransport {
	return &wsTransport{conn: conn}
}

func (t *wsTransport) send(reply sessionReply) error {
	t.writeMu.Lock()
	defer t.writeMu.Unlock()
	return t.conn.WriteJSON(reply)
}

func (t *wsTransport) Play() error {
	return t.send(sessionReply{Type: "cmd", Cmd: "play"})
}

func (t *wsTransport) SeekStart() {
	// The element rewinds; mirror the position locally so an end check
	// right after the restart does not see the old near-end time.
	t.stateMu.Lock()
	t.currentTime = 0
	t.ended = false
	t.stateMu.Unlock()

	if err := t.send(sessionReply{Type: "cmd", Cmd: "seek_start"}); err != nil {
		logger.Debug("seek command failed", logger.ErrorField(err))
	}
}

func (t *wsTransport) SetLoop(on bool) {
	if err := t.send(sessionReply{Type: "cmd", Cmd: "set_loop", On: on}); err != nil {
		logger.Debug("loop command failed", logger.ErrorField(err))
	}
}

func (t *wsTransport) CurrentTime() time.Duration {
	t.stateMu.Lock()
	defer t.stateMu.Unlock()
	return t.currentTime
}

func (t *wsTransport) Duration() (time.Duration, bool) {
	t.stateMu.Lock()
	defer t.stateMu.Unlock()
	return t.duration, t.hasDuration
}

func (t *wsTransport) Ended() bool {
	t.stateMu.Lock()
	defer t.stateMu.Unlock()
	return t.ended
}

// report applies a transport frame and then fires the matching event.
// State is committed before listeners run so handlers observe the
// position the event describes.
func (t *wsTransport) report(msg sessionMessage) {
	t.stateMu.Lock()
	t.currentTime = secondsToDuration(msg.CurrentTime)
	if msg.Duration > 0 {
		t.duration = secondsToDuration(msg.Duration)
		t.hasDuration = true
	}
	t.ended = msg.Ended
	t.stateMu.Unlock()

	switch msg.Event {
	case "ended":
		t.Fire(playback.EventEnded)
	case "pause":
		t.Fire(playback.EventPause)
	case "timeupdate":
		t.Fire(playback.EventTimeUpdate)
	}
}

func secondsToDuration(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

// SessionHandler upgrades to a WebSocket and runs one playback session
// per connection. Authenticated users get their queue restored from the
// last connection and saved back on every change.
func (h *APIHandler) SessionHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Error("websocket upgrade failed", logger.ErrorField(err))
		return
	}
	defer conn.Close()

	userID := userIDFromContext(r.Context())

	transport := newWSTransport(conn)
	session := playback.NewSession(h.bucket)
	defer session.Close()

	session.OnSourceChange(func(trackID, url string) {
		if err := transport.send(sessionReply{Type: "source", TrackID: trackID, URL: url}); err != nil {
			logger.Debug("source push failed", logger.ErrorField(err))
		}
	})
	session.Attach(transport)

	if userID != 0 {
		if snap, err := cache.LoadSession(r.Context(), userID); err != nil {
			logger.Warn("session restore failed", logger.Int64("userID", userID), logger.ErrorField(err))
		} else if snap != nil && len(snap.Queue) > 0 {
			session.SetQueue(snap.Queue, snap.Index)
		}
	}

	logger.Info("session connected", logger.Int64("userID", userID))

	for {
		var msg sessionMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Warn("session read failed", logger.ErrorField(err))
			}
			break
		}

		switch msg.Type {
		case "select":
			tracks, index := visibleSelection(session, msg.Tracks, msg.Index, h.favoriteChecker(r.Context(), userID))
			session.SetQueue(tracks, index)
			h.persistSession(userID, session)
			h.echoState(transport, session)
		case "next":
			session.Next()
			h.persistSession(userID, session)
			h.echoState(transport, session)
		case "prev":
			session.Prev()
			h.persistSession(userID, session)
			h.echoState(transport, session)
		case "repeat":
			session.SetRepeatOne(msg.On)
			h.echoState(transport, session)
		case "favorites_only":
			session.ToggleFavoritesOnly()
			h.echoState(transport, session)
		case "favorite":
			if msg.NasheedID == "" {
				logger.Debug("favorite message without nasheed_id")
				continue
			}
			favored, err := h.toggleFavorite(r.Context(), userID, msg.NasheedID)
			if err != nil {
				logger.Warn("favorite toggle failed",
					logger.String("nasheed", msg.NasheedID), logger.ErrorField(err))
				continue
			}
			if err := transport.send(sessionReply{Type: "favored", TrackID: msg.NasheedID, Favored: favored}); err != nil {
				logger.Debug("favored push failed", logger.ErrorField(err))
			}
		case "transport":
			transport.report(msg)
		default:
			logger.Debug("unknown session message", logger.String("type", msg.Type))
		}
	}

	h.persistSession(userID, session)
	logger.Info("session disconnected", logger.Int64("userID", userID))
}

func (h *APIHandler) persistSession(userID int64, s *playback.Session) {
	if userID == 0 {
		return
	}
	snap := cache.SessionSnapshot{Queue: s.Queue(), Index: s.Index()}
	if err := cache.SaveSession(context.Background(), userID, snap); err != nil {
		logger.Warn("session persist failed", logger.Int64("userID", userID), logger.ErrorField(err))
	}
}

// favoriteChecker returns the membership predicate for the caller's
// favorites tier: the shared local file for anonymous visitors, the
// backend map for signed-in users. Lookup failures filter nothing.
func (h *APIHandler) favoriteChecker(ctx context.Context, userID int64) func(id string) bool {
	if userID == 0 {
		if h.localFavs == nil {
			return func(string) bool { return false }
		}
		return h.localFavs.Has
	}

	favMap, err := h.favService.ListMap(ctx, userID, tokenFromContext(ctx))
	if err != nil {
		logger.Warn("favorites lookup failed", logger.Int64("userID", userID), logger.ErrorField(err))
		return func(string) bool { return false }
	}
	return func(id string) bool {
		_, ok := favMap[id]
		return ok
	}
}

// toggleFavorite flips the mark in the caller's tier: local file for
// anonymous visitors, backend service for signed-in users.
func (h *APIHandler) toggleFavorite(ctx context.Context, userID int64, nasheedID string) (bool, error) {
	if userID == 0 {
		if h.localFavs == nil {
			return false, fmt.Errorf("local favorites store unavailable")
		}
		return h.localFavs.Toggle(nasheedID)
	}
	return h.favService.Toggle(ctx, userID, tokenFromContext(ctx), nasheedID)
}

// visibleSelection reduces an incoming selection to the favorites-only
// view. The selected track keeps its position within the filtered rows;
// a selection that was filtered out falls back to the front. Out-of-range
// indexes pass through so the queue's own validation rejects them.
func visibleSelection(s *playback.Session, tracks []model.Nasheed, index int, isFavorite func(id string) bool) ([]model.Nasheed, int) {
	if index < 0 || index >= len(tracks) {
		return tracks, index
	}
	selectedID := tracks[index].ID

	visible := s.FilterVisible(tracks, isFavorite)
	idx := 0
	for i, row := range visible {
		if row.ID == selectedID {
			idx = i
			break
		}
	}
	return visible, idx
}

func (h *APIHandler) echoState(t *wsTransport, s *playback.Session) {
	err := t.send(sessionReply{
		Type:          "state",
		Index:         s.Index(),
		RepeatOne:     s.RepeatOne(),
		FavoritesOnly: s.FavoritesOnly(),
	})
	if err != nil {
		logger.Debug("state push failed", logger.ErrorField(err))
	}
}
