package playback

import (
	"sync"
	"time"
)

// Event identifies a transport event.
type Event string

const (
	EventEnded      Event = "ended"
	EventPause      Event = "pause"
	EventTimeUpdate Event = "timeupdate"
)

// ListenerID identifies a bound listener so it can be detached again.
type ListenerID int64

// Transport abstracts the player element the session drives. The real
// element lives in the browser; implementations proxy its reported
// state and forward commands back to it. Event delivery is allowed to
// be unreliable, which is why the session layers several end-of-track
// detection mechanisms on top.
type Transport interface {
	// Play starts playback at the current position. Playback-start
	// rejections (autoplay policy, decoding errors) come back as errors.
	Play() error
	// SeekStart rewinds to position zero.
	SeekStart()
	// SetLoop mirrors the repeat flag onto the element.
	SetLoop(on bool)
	// CurrentTime is the playback position.
	CurrentTime() time.Duration
	// Duration is the track length; ok is false until metadata loads.
	Duration() (d time.Duration, ok bool)
	// Ended reports whether the element is at its natural end.
	Ended() bool

	AddListener(ev Event, fn func()) ListenerID
	RemoveListener(ev Event, id ListenerID)
}

// ListenerRegistry is a reusable listener table for Transport
// implementations. Fire invokes a snapshot of the bound listeners so a
// handler may detach or rebind listeners without deadlocking.
type ListenerRegistry struct {
	mu        sync.Mutex
	nextID    ListenerID
	listeners map[Event]map[ListenerID]func()
}

// AddListener binds fn to ev and returns its detach handle.
func (r *ListenerRegistry) AddListener(ev Event, fn func()) ListenerID {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.listeners == nil {
		r.listeners = make(map[Event]map[ListenerID]func())
	}
	if r.listeners[ev] == nil {
		r.listeners[ev] = make(map[ListenerID]func())
	}
	r.nextID++
	id := r.nextID
	r.listeners[ev][id] = fn
	return id
}

// RemoveListener detaches a previously bound listener.
func (r *ListenerRegistry) RemoveListener(ev Event, id ListenerID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.listeners[ev] != nil {
		delete(r.listeners[ev], id)
	}
}

// Fire invokes every listener bound to ev.
func (r *ListenerRegistry) Fire(ev Event) {
	r.mu.Lock()
	fns := make([]func(), 0, len(r.listeners[ev]))
	for _, fn := range r.listeners[ev] {
		fns = append(fns, fn)
	}
	r.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

// ListenerCount reports how many listeners are bound to ev.
func (r *ListenerRegistry) ListenerCount(ev Event) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.listeners[ev])
}
