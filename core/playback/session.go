package playback

import (
	"context"
	"sync"
	"time"

	"ajnadfm/logger"
	"ajnadfm/model"
)

const (
	// nearEndTolerance is how close to the duration a position counts
	// as "at the end". Some backends fire pause instead of ended at the
	// boundary, or stop reporting just short of the full duration.
	nearEndTolerance = 50 * time.Millisecond

	// restartWindow is the re-entrancy gate: once a restart has been
	// issued, further restart requests are ignored for this long.
	restartWindow = 200 * time.Millisecond

	// watchdogInterval is the polling rate of the last-resort ended
	// check that runs while repeat-one is on.
	watchdogInterval = 250 * time.Millisecond
)

// SourceResolver exchanges a source locator for a playable URL.
// *storage.Bucket satisfies it.
type SourceResolver interface {
	SignedOrPublicURL(ctx context.Context, pathOrURL string) (string, error)
}

// Session owns the playback queue, the current position and the mode
// flags, and interprets transport events under the repeat/advance
// policy. All methods are safe for concurrent use.
type Session struct {
	mu sync.Mutex

	queue         []model.Nasheed
	index         int
	repeatOne     bool
	favoritesOnly bool

	resolver   SourceResolver
	seq        uint64 // generation counter for source resolutions
	currentURL string

	transport      Transport
	boundTransport Transport
	bound          []boundListener

	restarting   bool
	restartTimer *time.Timer
	watchdogStop chan struct{}
	watchdogDone chan struct{}

	onSource func(trackID, url string)

	closed bool
}

type boundListener struct {
	ev Event
	id ListenerID
}

// NewSession creates a session resolving source locators through resolver.
func NewSession(resolver SourceResolver) *Session {
	return &Session{resolver: resolver}
}

// OnSourceChange registers the observer notified whenever a source
// resolution for the current track completes and is still fresh.
func (s *Session) OnSourceChange(fn func(trackID, url string)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onSource = fn
}

// Attach binds the session to a transport. Listeners on any previously
// attached transport are detached first.
func (s *Session) Attach(t Transport) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.transport = t
	s.rebindLocked()
	if t != nil {
		t.SetLoop(s.repeatOne)
	}
}

// SetQueue replaces the queue and jumps to startIndex. Selecting a
// track always clears repeat-one.
func (s *Session) SetQueue(items []model.Nasheed, startIndex int) {
	s.mu.Lock()
	if s.closed || startIndex < 0 || startIndex >= len(items) {
		s.mu.Unlock()
		return
	}
	s.queue = append([]model.Nasheed(nil), items...)
	s.index = startIndex
	s.clearRepeatLocked()
	s.rebindLocked()
	s.resolveCurrentLocked()
	s.mu.Unlock()
}

// Next advances by one. No-op when the queue is empty or the position
// is already the last index; an actual advance clears repeat-one.
func (s *Session) Next() {
	s.mu.Lock()
	if s.closed || len(s.queue) == 0 || s.index >= len(s.queue)-1 {
		s.mu.Unlock()
		return
	}
	s.index++
	s.clearRepeatLocked()
	s.rebindLocked()
	s.resolveCurrentLocked()
	s.mu.Unlock()
}

// Prev retreats by one, clamped at zero. Clears repeat-one.
func (s *Session) Prev() {
	s.mu.Lock()
	if s.closed || len(s.queue) == 0 {
		s.mu.Unlock()
		return
	}
	moved := s.index > 0
	if moved {
		s.index--
	}
	s.clearRepeatLocked()
	s.rebindLocked()
	if moved {
		s.resolveCurrentLocked()
	}
	s.mu.Unlock()
}

// SetRepeatOne toggles single-track repeat without touching the queue.
// Turning it on while the track is already at or near its end restarts
// playback immediately instead of waiting for the next end event.
func (s *Session) SetRepeatOne(on bool) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.repeatOne = on
	if on {
		s.startWatchdogLocked()
	} else {
		s.stopWatchdogLocked()
	}
	s.rebindLocked()
	t := s.transport
	s.mu.Unlock()

	if t == nil {
		return
	}
	t.SetLoop(on)
	if on && s.atEnd(t) {
		s.restart()
	}
}

// ToggleFavoritesOnly flips the visibility filter. The in-flight queue
// is unaffected; only subsequent selections see the filtered view.
func (s *Session) ToggleFavoritesOnly() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.favoritesOnly = !s.favoritesOnly
	return s.favoritesOnly
}

// FilterVisible returns the rows visible under the favorites-only flag.
func (s *Session) FilterVisible(rows []model.Nasheed, isFavorite func(id string) bool) []model.Nasheed {
	s.mu.Lock()
	only := s.favoritesOnly
	s.mu.Unlock()

	if !only {
		return rows
	}
	out := make([]model.Nasheed, 0, len(rows))
	for _, row := range rows {
		if isFavorite(row.ID) {
			out = append(out, row)
		}
	}
	return out
}

// Queue returns a copy of the queue.
func (s *Session) Queue() []model.Nasheed {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.Nasheed(nil), s.queue...)
}

// Index returns the current position.
func (s *Session) Index() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index
}

// RepeatOne reports the repeat flag.
func (s *Session) RepeatOne() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.repeatOne
}

// FavoritesOnly reports the visibility filter flag.
func (s *Session) FavoritesOnly() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.favoritesOnly
}

// Current returns the selected track, if any.
func (s *Session) Current() (model.Nasheed, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentLocked()
}

// CurrentURL returns the last applied playable URL for the current
// track, or "" while resolution is in flight.
func (s *Session) CurrentURL() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentURL
}

// Close detaches listeners and stops the watchdog. The session must not
// be used afterwards.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.seq++ // invalidate in-flight resolutions
	s.detachLocked()
	s.stopWatchdogLocked()
	if s.restartTimer != nil {
		s.restartTimer.Stop()
	}
	done := s.watchdogDone
	s.mu.Unlock()

	if done != nil {
		<-done
	}
}

func (s *Session) currentLocked() (model.Nasheed, bool) {
	if len(s.queue) == 0 || s.index < 0 || s.index >= len(s.queue) {
		return model.Nasheed{}, false
	}
	return s.queue[s.index], true
}

func (s *Session) clearRepeatLocked() {
	if !s.repeatOne {
		return
	}
	s.repeatOne = false
	s.stopWatchdogLocked()
	if s.transport != nil {
		s.transport.SetLoop(false)
	}
}

// resolveCurrentLocked issues a source resolution for the current track,
// tagged with a fresh generation number. A completion is applied only if
// no newer resolution has been issued since; stale results are dropped
// so a slow lookup can never clobber a newer selection.
func (s *Session) resolveCurrentLocked() {
	s.seq++
	seq := s.seq
	s.currentURL = ""

	current, ok := s.currentLocked()
	if !ok || s.resolver == nil {
		return
	}
	trackID := current.ID
	locator := current.FileURL

	go func() {
		url, err := s.resolver.SignedOrPublicURL(context.Background(), locator)
		if err != nil {
			logger.Warn("source resolution failed",
				logger.String("track", trackID), logger.ErrorField(err))
			url = ""
		}

		s.mu.Lock()
		if s.closed || seq != s.seq {
			// A newer selection superseded this resolution.
			s.mu.Unlock()
			return
		}
		s.currentURL = url
		cb := s.onSource
		s.mu.Unlock()

		if cb != nil {
			cb(trackID, url)
		}
	}()
}

// rebindLocked detaches the handlers from the previously bound
// transport and attaches fresh ones to the current transport. Done on
// every repeat or position change so handlers never act on stale state.
func (s *Session) rebindLocked() {
	s.detachLocked()
	t := s.transport
	if t == nil {
		return
	}
	s.bound = []boundListener{
		{EventEnded, t.AddListener(EventEnded, s.handleEnded)},
		{EventPause, t.AddListener(EventPause, s.handlePause)},
		{EventTimeUpdate, t.AddListener(EventTimeUpdate, s.handleTimeUpdate)},
	}
	s.boundTransport = t
}

func (s *Session) detachLocked() {
	if s.boundTransport != nil {
		for _, b := range s.bound {
			s.boundTransport.RemoveListener(b.ev, b.id)
		}
	}
	s.bound = nil
	s.boundTransport = nil
}

// handleEnded implements the end-of-track policy: restart under
// repeat-one, otherwise advance unless already at the last index.
func (s *Session) handleEnded() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	repeat := s.repeatOne
	s.mu.Unlock()

	if repeat {
		s.restart()
		return
	}
	s.Next()
}

// handlePause treats a pause at or near the end as an end event; some
// backends fire pause instead of ended at the boundary.
func (s *Session) handlePause() {
	s.mu.Lock()
	repeat := s.repeatOne && !s.closed
	t := s.transport
	s.mu.Unlock()

	if !repeat || t == nil {
		return
	}
	if s.atEnd(t) {
		s.restart()
	}
}

// handleTimeUpdate proactively restarts when the remaining time drops
// inside the tolerance, covering backends that never fire ended.
func (s *Session) handleTimeUpdate() {
	s.mu.Lock()
	repeat := s.repeatOne && !s.closed
	t := s.transport
	s.mu.Unlock()

	if !repeat || t == nil {
		return
	}
	d, ok := t.Duration()
	if !ok {
		return
	}
	if d-t.CurrentTime() <= nearEndTolerance {
		s.restart()
	}
}

func (s *Session) atEnd(t Transport) bool {
	if t.Ended() {
		return true
	}
	d, ok := t.Duration()
	return ok && t.CurrentTime() >= d-nearEndTolerance
}

// restart rewinds and replays the current track. All restart paths
// funnel through here and share one re-entrancy gate, so at most one
// restart is issued per window. Play rejections are swallowed.
func (s *Session) restart() {
	s.mu.Lock()
	if s.closed || s.restarting || s.transport == nil {
		s.mu.Unlock()
		return
	}
	s.restarting = true
	t := s.transport
	s.restartTimer = time.AfterFunc(restartWindow, func() {
		s.mu.Lock()
		s.restarting = false
		s.mu.Unlock()
	})
	s.mu.Unlock()

	t.SeekStart()
	if err := t.Play(); err != nil {
		// Expected under autoplay policy; the next end event retries.
		logger.Debug("play rejected on restart", logger.ErrorField(err))
	}
}

// startWatchdogLocked launches the polling safety net: while repeat-one
// is on, an element stuck in the ended state gets restarted even if
// every event was missed.
func (s *Session) startWatchdogLocked() {
	if s.watchdogStop != nil {
		return
	}
	stop := make(chan struct{})
	done := make(chan struct{})
	s.watchdogStop = stop
	s.watchdogDone = done

	go func() {
		defer close(done)
		ticker := time.NewTicker(watchdogInterval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				s.mu.Lock()
				active := s.repeatOne && !s.closed
				t := s.transport
				s.mu.Unlock()
				if !active || t == nil {
					continue
				}
				if t.Ended() {
					s.restart()
				}
			}
		}
	}()
}

func (s *Session) stopWatchdogLocked() {
	if s.watchdogStop != nil {
		close(s.watchdogStop)
		s.watchdogStop = nil
	}
}
