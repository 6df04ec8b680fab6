package commands

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// Runner wires the scanner, album manager and uploader into one run over a
// directory tree. Zero values get sensible defaults in Run.
type Runner struct {
	Client    CloudClient
	StateFile string
	Progress  ProgressSinkFactory
	Clock     Clock
	Limiter   *rate.Limiter

	Parallelism         int
	TokenTTL            time.Duration
	BackoffInitialDelay time.Duration
	BackoffMaxDelay     time.Duration
	MaxTransientRetries int
	SaveInterval        time.Duration
}

func (r *Runner) defaults() {
	if r.Progress == nil {
		r.Progress = NewProgressBarFactory()
	}
	if r.Clock == nil {
		r.Clock = SystemClock()
	}
	if r.Limiter == nil {
		r.Limiter = rate.NewLimiter(rate.Every(time.Second/5), 10)
	}
	if r.Parallelism <= 0 {
		r.Parallelism = 8
	}
	if r.TokenTTL <= 0 {
		r.TokenTTL = uploadTokenTTL
	}
	if r.BackoffInitialDelay <= 0 {
		r.BackoffInitialDelay = time.Second
	}
	if r.BackoffMaxDelay <= 0 {
		r.BackoffMaxDelay = time.Minute
	}
	if r.MaxTransientRetries <= 0 {
		r.MaxTransientRetries = 10
	}
	if r.SaveInterval <= 0 {
		r.SaveInterval = 5 * time.Second
	}
}

// Run uploads the media files under rootDir. With resume, files recorded as
// uploaded in the state file are skipped and fresh upload tokens are reused;
// without it every file is uploaded from scratch.
func (r *Runner) Run(ctx context.Context, rootDir string, resume bool) error {
	r.defaults()

	store, err := LoadStateStore(r.StateFile)
	if err != nil {
		return err
	}

	var dirs []AlbumDirectory
	var cloudAlbums []CloudAlbum
	listBackoff := r.newBackoff()
	prep, prepCtx := errgroup.WithContext(ctx)
	prep.Go(func() error {
		var err error
		dirs, err = ScanDirectory(rootDir)
		return err
	})
	prep.Go(func() error {
		return withBackoff(prepCtx, listBackoff, opListAlbums, func() error {
			if err := r.Limiter.Wait(prepCtx); err != nil {
				return err
			}
			var err error
			cloudAlbums, err = r.Client.ListAlbums(prepCtx)
			return err
		})
	})
	if err := prep.Wait(); err != nil {
		return err
	}

	var titles []string
	seen := map[string]bool{}
	totalFiles := 0
	for _, dir := range dirs {
		totalFiles += len(dir.Files)
		if dir.Title == "" || seen[dir.Title] {
			continue
		}
		seen[dir.Title] = true
		titles = append(titles, dir.Title)
	}
	logger.Debug("scan complete", "directories", len(dirs), "files", totalFiles, "albums", len(titles))

	uploadSink := r.Progress.NewSink(uploadProgressName, totalFiles)
	reconcileSink := r.Progress.NewSink(reconcileProgressName(len(titles)), len(titles))

	manager := &albumManager{
		client:      r.Client,
		limiter:     r.Limiter,
		backoff:     r.newBackoff(),
		sink:        reconcileSink,
		parallelism: r.Parallelism,
	}
	albumsByTitle, err := manager.bind(ctx, titles, indexAlbumsByTitle(cloudAlbums))
	if err != nil {
		reconcileSink.Close(false)
		uploadSink.Close(false)
		return err
	}
	reconcileSink.Close(true)

	saver := newStateSaver(store, r.SaveInterval)
	up := &uploader{
		client:   r.Client,
		clock:    r.Clock,
		limiter:  r.Limiter,
		backoff:  r.newBackoff(),
		sink:     uploadSink,
		saver:    saver,
		store:    store,
		tokenTTL: r.TokenTTL,
		resume:   resume,
		inflight: map[string]*itemEntry{},
	}

	var failMu sync.Mutex
	var lastFailure error
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(r.Parallelism)
	for _, dir := range dirs {
		albumID := ""
		if dir.Title != "" {
			albumID = albumsByTitle[dir.Title].ID
		}
		for _, path := range dir.Files {
			group.Go(func() error {
				if err := up.Process(groupCtx, path, albumID); err != nil {
					failMu.Lock()
					lastFailure = fmt.Errorf("uploading %s: %w", path, err)
					failMu.Unlock()
				}
				return nil
			})
		}
	}
	_ = group.Wait()

	if err := saver.Close(); err != nil && lastFailure == nil {
		lastFailure = err
	}
	uploadSink.Close(lastFailure == nil)
	if lastFailure != nil {
		return lastFailure
	}
	logger.Info("all done without errors", "files", totalFiles, "albums", len(titles))
	return nil
}

func (r *Runner) newBackoff() *backoffPolicy {
	return newBackoffPolicy(r.BackoffInitialDelay, r.BackoffMaxDelay, r.MaxTransientRetries)
}
