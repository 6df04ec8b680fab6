package commands

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// indexAlbumsByTitle groups cloud albums by title. Duplicate titles are
// possible; the album manager merges them.
func indexAlbumsByTitle(albums []CloudAlbum) map[string][]CloudAlbum {
	index := make(map[string][]CloudAlbum, len(albums))
	for _, album := range albums {
		index[album.Title] = append(index[album.Title], album)
	}
	return index
}

// albumManager reconciles the set of local album titles with the cloud:
// missing albums are created and duplicate titles are merged into one
// primary album.
type albumManager struct {
	client      CloudClient
	limiter     *rate.Limiter
	backoff     *backoffPolicy
	sink        ProgressSink
	parallelism int
}

// bind resolves every title to exactly one cloud album and returns the
// mapping. Per-album transient failures are retried; any other failure
// aborts the reconciliation.
func (m *albumManager) bind(ctx context.Context, titles []string, index map[string][]CloudAlbum) (map[string]CloudAlbum, error) {
	var mu sync.Mutex
	resolved := make(map[string]CloudAlbum, len(titles))

	group, ctx := errgroup.WithContext(ctx)
	group.SetLimit(m.parallelism)
	for _, title := range titles {
		group.Go(func() error {
			album, err := m.resolve(ctx, title, index[title])
			if err != nil {
				return fmt.Errorf("reconciling album %q: %w", title, err)
			}
			mu.Lock()
			resolved[title] = *album
			mu.Unlock()
			m.sink.IncrementSuccess()
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}
	return resolved, nil
}

func (m *albumManager) resolve(ctx context.Context, title string, candidates []CloudAlbum) (*CloudAlbum, error) {
	switch len(candidates) {
	case 0:
		return m.createAlbum(ctx, title)
	case 1:
		return &candidates[0], nil
	default:
		return m.mergeDuplicates(ctx, title, candidates)
	}
}

func (m *albumManager) createAlbum(ctx context.Context, title string) (*CloudAlbum, error) {
	var album *CloudAlbum
	err := m.call(ctx, opCreateAlbum, func() error {
		var err error
		album, err = m.client.CreateAlbum(ctx, title)
		return err
	})
	if err != nil {
		return nil, err
	}
	logger.Debug("created album", "title", title, "id", album.ID)
	return album, nil
}

// mergeDuplicates picks the fullest duplicate as the primary and moves the
// contents of the others into it. The service offers no album deletion, so
// drained albums are reported for manual cleanup.
func (m *albumManager) mergeDuplicates(ctx context.Context, title string, candidates []CloudAlbum) (*CloudAlbum, error) {
	sorted := make([]CloudAlbum, len(candidates))
	copy(sorted, candidates)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].MediaItemCount != sorted[j].MediaItemCount {
			return sorted[i].MediaItemCount > sorted[j].MediaItemCount
		}
		return sorted[i].ID < sorted[j].ID
	})
	primary := sorted[0]
	secondaries := sorted[1:]
	sort.Slice(secondaries, func(i, j int) bool { return secondaries[i].ID < secondaries[j].ID })

	for _, secondary := range secondaries {
		if err := m.drainInto(ctx, primary, secondary); err != nil {
			return nil, err
		}
		m.sink.KeyedError(secondary.ProductURL, fmt.Sprintf(
			"Album '%s' may now be empty and will require manual deletion (Google Photos API does not allow me to delete it for you)",
			title))
	}
	return &primary, nil
}

func (m *albumManager) drainInto(ctx context.Context, primary, secondary CloudAlbum) error {
	var items []CloudMediaItem
	err := m.call(ctx, opSearchItems, func() error {
		var err error
		items, err = m.client.ListAlbumItems(ctx, secondary.ID)
		return err
	})
	if err != nil {
		return err
	}

	for start := 0; start < len(items); start += maxItemsPerBatch {
		end := min(start+maxItemsPerBatch, len(items))
		ids := make([]string, 0, end-start)
		for _, item := range items[start:end] {
			ids = append(ids, item.ID)
		}
		err := m.call(ctx, opBatchAdd, func() error {
			return m.client.BatchAddToAlbum(ctx, primary.ID, ids)
		})
		if err != nil {
			return err
		}
	}
	logger.Debug("drained duplicate album",
		"from", secondary.ID, "into", primary.ID, "items", len(items))
	return nil
}

func (m *albumManager) call(ctx context.Context, opName string, op func() error) error {
	return withBackoff(ctx, m.backoff, opName, func() error {
		if err := m.limiter.Wait(ctx); err != nil {
			return err
		}
		return op()
	})
}
