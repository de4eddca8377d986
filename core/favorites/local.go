package favorites

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"ajnadfm/logger"

	"github.com/fsnotify/fsnotify"
)

// localFileName mirrors the fixed storage key of the browser tier.
const localFileName = "favorites_v1.json"

// LocalStore is the local-only favorites tier: a JSON array of track
// ids in a single file, read once at startup and rewritten on every
// change. External rewrites of the file are picked up via fsnotify;
// concurrent writers keep last-write-wins semantics.
type LocalStore struct {
	mu   sync.Mutex
	path string
	ids  map[string]bool

	watcher *fsnotify.Watcher
	done    chan struct{}
}

// NewLocalStore opens (or creates) the favorites file under dataDir and
// starts watching it for external changes.
func NewLocalStore(dataDir string) (*LocalStore, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data dir: %w", err)
	}

	s := &LocalStore{
		path: filepath.Join(dataDir, localFileName),
		ids:  make(map[string]bool),
	}
	if err := s.reload(); err != nil {
		return nil, err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	// Watch the directory: editors replace files by rename, which would
	// silently drop a watch on the file itself.
	if err := watcher.Add(dataDir); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch data dir: %w", err)
	}
	s.watcher = watcher
	s.done = make(chan struct{})

	go s.watch()
	return s, nil
}

func (s *LocalStore) watch() {
	defer close(s.done)
	for {
		select {
		case event, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != localFileName {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if err := s.reload(); err != nil {
				logger.Warn("failed to reload favorites file", logger.ErrorField(err))
			}
		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			logger.Warn("favorites watcher error", logger.ErrorField(err))
		}
	}
}

// reload replaces the in-memory set with the file contents. A missing
// or corrupt file degrades to an empty set.
func (s *LocalStore) reload() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read favorites file: %w", err)
	}

	var arr []string
	if err := json.Unmarshal(data, &arr); err != nil {
		logger.Warn("favorites file is not a JSON array, ignoring", logger.ErrorField(err))
		return nil
	}

	ids := make(map[string]bool, len(arr))
	for _, id := range arr {
		ids[id] = true
	}

	s.mu.Lock()
	s.ids = ids
	s.mu.Unlock()
	return nil
}

// save rewrites the whole file from the in-memory set. Caller holds s.mu.
func (s *LocalStore) saveLocked() error {
	arr := make([]string, 0, len(s.ids))
	for id := range s.ids {
		arr = append(arr, id)
	}
	sort.Strings(arr)

	data, err := json.Marshal(arr)
	if err != nil {
		return fmt.Errorf("failed to marshal favorites: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0644); err != nil {
		return fmt.Errorf("failed to write favorites file: %w", err)
	}
	return nil
}

// Has reports membership.
func (s *LocalStore) Has(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ids[id]
}

// IDs returns the favorite ids, sorted.
func (s *LocalStore) IDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	arr := make([]string, 0, len(s.ids))
	for id := range s.ids {
		arr = append(arr, id)
	}
	sort.Strings(arr)
	return arr
}

// Toggle flips membership and persists, returning the new membership.
func (s *LocalStore) Toggle(id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ids[id] {
		delete(s.ids, id)
	} else {
		s.ids[id] = true
	}
	nowFav := s.ids[id]

	if err := s.saveLocked(); err != nil {
		return nowFav, err
	}
	return nowFav, nil
}

// Close stops the file watcher.
func (s *LocalStore) Close() error {
	if s.watcher == nil {
		return nil
	}
	err := s.watcher.Close()
	<-s.done
	return err
}
