package commands

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// uploadTokenTTL is how long an upload token obtained from the service is
// trusted before the file's bytes are uploaded again.
const uploadTokenTTL = 24 * time.Hour

// uploader drives the per-file upload state machine. Concurrent requests for
// the same absolute path coalesce into a single operation; every path is
// processed at most once per run.
type uploader struct {
	client   CloudClient
	clock    Clock
	limiter  *rate.Limiter
	backoff  *backoffPolicy
	sink     ProgressSink
	saver    *stateSaver
	store    *StateStore
	tokenTTL time.Duration
	resume   bool

	mu       sync.Mutex
	inflight map[string]*itemEntry
}

type itemEntry struct {
	done chan struct{}
	err  error
}

// Process uploads one file into the given album. An empty albumID targets
// the library only. Permanent per-item failures are reported through the
// progress sink and return nil; transient budget exhaustion and fatal
// failures return an error.
func (u *uploader) Process(ctx context.Context, path, albumID string) error {
	entry, claimed := u.claim(path)
	if !claimed {
		select {
		case <-entry.done:
			return entry.err
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	entry.err = u.upload(ctx, path, albumID)
	close(entry.done)
	return entry.err
}

func (u *uploader) claim(path string) (*itemEntry, bool) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if entry, ok := u.inflight[path]; ok {
		return entry, false
	}
	entry := &itemEntry{done: make(chan struct{})}
	u.inflight[path] = entry
	return entry, true
}

func (u *uploader) upload(ctx context.Context, path, albumID string) error {
	var token string
	var instant time.Time

	if u.resume {
		if state, ok := u.store.Get(path); ok {
			if state.MediaID != nil {
				logger.Debug("already uploaded, skipping", "path", path, "mediaId", *state.MediaID)
				u.sink.IncrementSuccess()
				return nil
			}
			if state.UploadState == nil {
				// Older state files record a permanently rejected file as an
				// entry with neither a media id nor a token.
				logger.Debug("previously rejected, skipping", "path", path)
				return nil
			}
			age := u.clock.Now().Sub(state.UploadState.UploadInstant)
			if age < u.tokenTTL {
				token = state.UploadState.Token
				instant = state.UploadState.UploadInstant
				logger.Debug("reusing upload token", "path", path, "age", age)
			} else {
				logger.Debug("upload token expired, re-uploading", "path", path, "age", age)
			}
		}
	}

	if token == "" {
		var err error
		token, instant, err = u.uploadData(ctx, path)
		if err != nil {
			if isInvalidArgument(err) {
				// The file itself is unacceptable to the service. Report it
				// and move on; nothing is persisted so a later run tries
				// again.
				u.sink.KeyedError(path, err.Error())
				return nil
			}
			return err
		}
		u.saver.Put(path, ItemState{
			UploadState: &UploadTokenState{Token: token, UploadInstant: instant},
		})
	}

	return u.createItem(ctx, path, albumID, token, instant)
}

func (u *uploader) uploadData(ctx context.Context, path string) (string, time.Time, error) {
	var token string
	err := u.call(ctx, opUploadData, func() error {
		var err error
		token, err = u.client.UploadMediaData(ctx, path)
		return err
	})
	if err != nil {
		return "", time.Time{}, err
	}
	return token, u.clock.Now(), nil
}

func (u *uploader) createItem(ctx context.Context, path, albumID, token string, instant time.Time) error {
	item, err := u.createMediaItem(ctx, albumID, token, path)
	if err != nil && isInvalidArgument(err) && albumID != "" {
		// Typically the album pre-dates this app and the service refuses to
		// add items to it. Fall back to creating the item in the library
		// only, keeping the album association out of the state. The album
		// rejection is reported only when the fallback succeeds; otherwise
		// the fallback's own failure is the one that matters.
		albumErr := err
		albumID = ""
		item, err = u.createMediaItem(ctx, albumID, token, path)
		if err == nil {
			u.sink.KeyedError(path, albumErr.Error())
		}
	}
	if err != nil {
		if isInvalidArgument(err) {
			// The token is kept so a later run can retry the creation
			// without uploading the bytes again.
			u.sink.KeyedError(path, err.Error())
			u.saver.Put(path, ItemState{
				UploadState: &UploadTokenState{Token: token, UploadInstant: instant},
			})
			return nil
		}
		return err
	}

	state := ItemState{
		MediaID:     &item.ID,
		UploadState: &UploadTokenState{Token: token, UploadInstant: instant},
	}
	if albumID != "" {
		state.AlbumID = &albumID
	}
	u.saver.Put(path, state)
	u.sink.IncrementSuccess()
	logger.Debug("uploaded", "path", path, "mediaId", item.ID)
	return nil
}

func (u *uploader) createMediaItem(ctx context.Context, albumID, token, path string) (*CloudMediaItem, error) {
	var item *CloudMediaItem
	err := u.call(ctx, opCreateItems, func() error {
		var err error
		item, err = u.client.CreateMediaItem(ctx, albumID, token, filepath.Base(path))
		return err
	})
	return item, err
}

func (u *uploader) call(ctx context.Context, opName string, op func() error) error {
	return withBackoff(ctx, u.backoff, opName, func() error {
		if err := u.limiter.Wait(ctx); err != nil {
			return err
		}
		return op()
	})
}
