package commands

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
)

// Filenames and album names that make the fake service fail, so tests can
// exercise the failure paths without mock choreography.
const (
	failCreateFileName     = "failOnMeWithInvalidArgumentDuringCreationOfMediaItem"
	failUploadFileName     = "failOnMeWithInvalidArgumentDuringUploadIngMediaData"
	failFatalPrefix        = "failOnMe"
	preExistingAlbumTitle  = "fail-on-me-pre-existing-album"
	noPermissionMessage    = "INVALID_ARGUMENT: No permission to add media items to this album"
	createFailedMessage    = "INVALID_ARGUMENT: createMediaItems"
	uploadFailedMessage    = "INVALID_ARGUMENT: uploadMediaData"
	albumCreateFailMessage = "failed to create album"
)

type fakeAlbum struct {
	album CloudAlbum
	items []string
}

// fakeCloudClient is an in-memory Google Photos double. Media item ids are
// the uploaded file paths and upload tokens embed the path, so assertions
// can reason about identity directly.
type fakeCloudClient struct {
	mu sync.Mutex

	albums     map[string]*fakeAlbum
	albumOrder []string
	tokens     map[string]string // upload token -> file path
	uploadSeq  int

	uploadCounts map[string]int
	uploadOrder  []string
	batchSizes   []int

	nameBasedFailures bool
	resourceExhausted bool
	failedOps         map[string]bool
}

func newFakeCloudClient() *fakeCloudClient {
	f := &fakeCloudClient{
		albums:            map[string]*fakeAlbum{},
		tokens:            map[string]string{},
		uploadCounts:      map[string]int{},
		nameBasedFailures: true,
		failedOps:         map[string]bool{},
	}
	// An album this app did not create and has no write access to.
	f.addAlbum(preExistingAlbumTitle)
	return f
}

func (f *fakeCloudClient) disableFileNameBasedFailures() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nameBasedFailures = false
}

func (f *fakeCloudClient) enableResourceExhaustedMode() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resourceExhausted = true
}

// addAlbum seeds an album. Duplicate titles get ids title, title1, title2...
func (f *fakeCloudClient) addAlbum(title string, itemIDs ...string) CloudAlbum {
	id := title
	for n := 1; ; n++ {
		if _, taken := f.albums[id]; !taken {
			break
		}
		id = title + strconv.Itoa(n)
	}
	album := &fakeAlbum{
		album: CloudAlbum{
			ID:         id,
			Title:      title,
			ProductURL: "http://photos.com/" + id,
		},
		items: append([]string(nil), itemIDs...),
	}
	f.albums[id] = album
	f.albumOrder = append(f.albumOrder, id)
	return album.album
}

func (f *fakeCloudClient) seedAlbum(title string, itemIDs ...string) CloudAlbum {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.addAlbum(title, itemIDs...)
}

func (f *fakeCloudClient) albumByID(id string) (CloudAlbum, []string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	album, ok := f.albums[id]
	if !ok {
		return CloudAlbum{}, nil
	}
	a := album.album
	a.MediaItemCount = int64(len(album.items))
	return a, append([]string(nil), album.items...)
}

func (f *fakeCloudClient) albumsWithTitle(title string) []CloudAlbum {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []CloudAlbum
	for _, id := range f.albumOrder {
		if f.albums[id].album.Title == title {
			a := f.albums[id].album
			a.MediaItemCount = int64(len(f.albums[id].items))
			out = append(out, a)
		}
	}
	return out
}

func (f *fakeCloudClient) uploadCount(path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.uploadCounts[path]
}

func (f *fakeCloudClient) uploadedOrder() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.uploadOrder...)
}

func (f *fakeCloudClient) batchAddSizes() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int(nil), f.batchSizes...)
}

// failOnceIfExhausted makes every distinct operation fail exactly once in
// resource exhausted mode.
func (f *fakeCloudClient) failOnceIfExhausted(opKey, op string) error {
	if !f.resourceExhausted || f.failedOps[opKey] {
		return nil
	}
	f.failedOps[opKey] = true
	return &APIError{Kind: KindTransient, Op: op, Message: "RESOURCE_EXHAUSTED: " + opKey}
}

func (f *fakeCloudClient) ListAlbums(ctx context.Context) ([]CloudAlbum, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failOnceIfExhausted("albums.list", opListAlbums); err != nil {
		return nil, err
	}
	var out []CloudAlbum
	for _, id := range f.albumOrder {
		album := f.albums[id].album
		album.MediaItemCount = int64(len(f.albums[id].items))
		out = append(out, album)
	}
	return out, nil
}

func (f *fakeCloudClient) CreateAlbum(ctx context.Context, title string) (*CloudAlbum, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failOnceIfExhausted("albums.create:"+title, opCreateAlbum); err != nil {
		return nil, err
	}
	if f.nameBasedFailures && strings.HasPrefix(title, failFatalPrefix) {
		return nil, &APIError{Kind: KindFatal, Op: opCreateAlbum, Message: albumCreateFailMessage}
	}
	album := f.addAlbum(title)
	return &album, nil
}

func (f *fakeCloudClient) ListAlbumItems(ctx context.Context, albumID string) ([]CloudMediaItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failOnceIfExhausted("mediaItems.search:"+albumID, opSearchItems); err != nil {
		return nil, err
	}
	album, ok := f.albums[albumID]
	if !ok {
		return nil, &APIError{Kind: KindInvalidArgument, Op: opSearchItems, Message: "INVALID_ARGUMENT: no such album " + albumID}
	}
	var out []CloudMediaItem
	for _, id := range album.items {
		out = append(out, CloudMediaItem{ID: id, Filename: filepath.Base(id)})
	}
	return out, nil
}

func (f *fakeCloudClient) BatchAddToAlbum(ctx context.Context, albumID string, mediaItemIDs []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failOnceIfExhausted(fmt.Sprintf("batchAdd:%s:%d", albumID, len(f.batchSizes)), opBatchAdd); err != nil {
		return err
	}
	if len(mediaItemIDs) > maxItemsPerBatch {
		return &APIError{Kind: KindInvalidArgument, Op: opBatchAdd, Message: fmt.Sprintf("INVALID_ARGUMENT: %d items exceeds batch limit", len(mediaItemIDs))}
	}
	target, ok := f.albums[albumID]
	if !ok {
		return &APIError{Kind: KindInvalidArgument, Op: opBatchAdd, Message: "INVALID_ARGUMENT: no such album " + albumID}
	}
	f.batchSizes = append(f.batchSizes, len(mediaItemIDs))
	// The real service moves nothing, but modelling adds as moves lets
	// tests assert that drained duplicates end up empty.
	for _, itemID := range mediaItemIDs {
		for _, other := range f.albums {
			if other == target {
				continue
			}
			for i, existing := range other.items {
				if existing == itemID {
					other.items = append(other.items[:i], other.items[i+1:]...)
					break
				}
			}
		}
		target.items = append(target.items, itemID)
	}
	return nil
}

func (f *fakeCloudClient) UploadMediaData(ctx context.Context, filePath string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failOnceIfExhausted("upload:"+filePath, opUploadData); err != nil {
		return "", err
	}
	base := filepath.Base(filePath)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	if f.nameBasedFailures {
		if name == failUploadFileName {
			return "", &APIError{Kind: KindInvalidArgument, Op: opUploadData, Message: uploadFailedMessage}
		}
		if name != failCreateFileName && strings.HasPrefix(name, failFatalPrefix) {
			return "", &APIError{Kind: KindFatal, Op: opUploadData, Message: "upload failed"}
		}
	}
	f.uploadSeq++
	f.uploadCounts[filePath]++
	f.uploadOrder = append(f.uploadOrder, filePath)
	token := fmt.Sprintf("%s-token%d", filePath, f.uploadSeq)
	f.tokens[token] = filePath
	return token, nil
}

func (f *fakeCloudClient) CreateMediaItem(ctx context.Context, albumID, uploadToken, filename string) (*CloudMediaItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failOnceIfExhausted(fmt.Sprintf("create:%s:%s", albumID, uploadToken), opCreateItems); err != nil {
		return nil, err
	}
	path, ok := f.tokens[uploadToken]
	if !ok {
		return nil, &APIError{Kind: KindInvalidArgument, Op: opCreateItems, Message: "INVALID_ARGUMENT: unknown upload token"}
	}
	name := strings.TrimSuffix(filename, filepath.Ext(filename))
	if f.nameBasedFailures && name == failCreateFileName {
		return nil, &APIError{Kind: KindInvalidArgument, Op: opCreateItems, Message: createFailedMessage}
	}
	if albumID != "" {
		album, ok := f.albums[albumID]
		if !ok {
			return nil, &APIError{Kind: KindInvalidArgument, Op: opCreateItems, Message: "INVALID_ARGUMENT: no such album " + albumID}
		}
		if album.album.Title == preExistingAlbumTitle {
			return nil, &APIError{Kind: KindInvalidArgument, Op: opCreateItems, Message: noPermissionMessage}
		}
		album.items = append(album.items, path)
	}
	return &CloudMediaItem{ID: path, Filename: filename}, nil
}

var _ CloudClient = (*fakeCloudClient)(nil)
