package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"
)

const (
	stateKeyUploader = "photosUploader"
	stateKeyItems    = "uploadedMediaItemIdByAbsolutePath"
)

// UploadTokenState is an upload token together with the instant it was
// obtained. Tokens expire server-side, so the instant decides reuse.
type UploadTokenState struct {
	Token         string    `json:"token"`
	UploadInstant time.Time `json:"uploadInstant"`
}

// ItemState is the durable per-file upload state. A file with a MediaID has
// been fully created in the cloud; a file with only an UploadState has its
// bytes uploaded but no media item yet.
type ItemState struct {
	MediaID     *string           `json:"mediaId,omitempty"`
	AlbumID     *string           `json:"albumId,omitempty"`
	UploadState *UploadTokenState `json:"uploadState,omitempty"`
}

// persistable reports whether the state carries any information worth
// writing. Empty states exist in memory only, to suppress re-processing of
// files rejected during data upload within the same run.
func (s ItemState) persistable() bool {
	return s.MediaID != nil || s.UploadState != nil
}

// StateStore holds the upload state snapshot keyed by absolute file path and
// writes it atomically to a single JSON file. Fields in the file that this
// program does not know about are preserved across load/save cycles.
type StateStore struct {
	path string

	mu            sync.Mutex
	items         map[string]ItemState
	extraTop      map[string]json.RawMessage
	extraUploader map[string]json.RawMessage
}

// LoadStateStore reads the snapshot at path. A missing file yields an empty
// store; a file that fails to parse is an error, the caller decides whether
// to abort or start over.
func LoadStateStore(path string) (*StateStore, error) {
	store := &StateStore{
		path:          path,
		items:         map[string]ItemState{},
		extraTop:      map[string]json.RawMessage{},
		extraUploader: map[string]json.RawMessage{},
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return store, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading state file %s: %w", path, err)
	}

	if err := json.Unmarshal(data, &store.extraTop); err != nil {
		return nil, fmt.Errorf("parsing state file %s: %w", path, err)
	}
	if raw, ok := store.extraTop[stateKeyUploader]; ok {
		delete(store.extraTop, stateKeyUploader)
		if err := json.Unmarshal(raw, &store.extraUploader); err != nil {
			return nil, fmt.Errorf("parsing state file %s: %w", path, err)
		}
		if rawItems, ok := store.extraUploader[stateKeyItems]; ok {
			delete(store.extraUploader, stateKeyItems)
			if err := json.Unmarshal(rawItems, &store.items); err != nil {
				return nil, fmt.Errorf("parsing state file %s: %w", path, err)
			}
		}
	}
	return store, nil
}

// Get returns the state recorded for the given absolute path.
func (s *StateStore) Get(path string) (ItemState, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	state, ok := s.items[path]
	return state, ok
}

// Put records state for the given absolute path. Non-persistable states are
// ignored; they never reach the file.
func (s *StateStore) Put(path string, state ItemState) {
	if !state.persistable() {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[path] = state
}

// Len returns the number of recorded items.
func (s *StateStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// Save writes the snapshot atomically: marshal to a temp file in the same
// directory, then rename over the target. Readers never observe a partial
// file.
func (s *StateStore) Save() error {
	s.mu.Lock()
	uploader := make(map[string]any, len(s.extraUploader)+1)
	for k, v := range s.extraUploader {
		uploader[k] = v
	}
	uploader[stateKeyItems] = s.items
	top := make(map[string]any, len(s.extraTop)+1)
	for k, v := range s.extraTop {
		top[k] = v
	}
	top[stateKeyUploader] = uploader
	data, err := json.MarshalIndent(top, "", "  ")
	s.mu.Unlock()
	if err != nil {
		return fmt.Errorf("marshalling state: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating state directory %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp*")
	if err != nil {
		return fmt.Errorf("creating temp state file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing temp state file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing temp state file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replacing state file %s: %w", s.path, err)
	}
	return nil
}

// stateSaver debounces StateStore.Save. Mutations mark the store dirty; a
// background loop flushes at most once per interval, and Close flushes any
// remaining dirty state.
type stateSaver struct {
	store    *StateStore
	interval time.Duration

	dirty atomic.Bool
	quit  chan struct{}
	done  chan struct{}
}

func newStateSaver(store *StateStore, interval time.Duration) *stateSaver {
	s := &stateSaver{
		store:    store,
		interval: interval,
		quit:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	go s.loop()
	return s
}

// Put records the state and schedules a flush.
func (s *stateSaver) Put(path string, state ItemState) {
	s.store.Put(path, state)
	s.dirty.Store(true)
}

func (s *stateSaver) loop() {
	defer close(s.done)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.flushIfDirty()
		case <-s.quit:
			return
		}
	}
}

func (s *stateSaver) flushIfDirty() {
	if !s.dirty.Swap(false) {
		return
	}
	if err := s.store.Save(); err != nil {
		// Keep going; the state will be retried on the next flush.
		s.dirty.Store(true)
		logger.Warn("failed to save upload state", "error", err)
	}
}

// Close stops the background loop and performs a final flush.
func (s *stateSaver) Close() error {
	close(s.quit)
	<-s.done
	if s.dirty.Swap(false) {
		return s.store.Save()
	}
	return nil
}
