//go:generate go run github.com/golang/mock/mockgen -source=${GOFILE} -destination=zz_generated_cloud_client_mock_test.go -package=commands CloudClient

package commands

import "context"

// maxItemsPerBatch is the Google Photos limit on media item ids per
// batchAddMediaItems request.
const maxItemsPerBatch = 50

// CloudAlbum is a remote album. Titles are not unique across the cloud.
type CloudAlbum struct {
	ID             string
	Title          string
	ProductURL     string
	MediaItemCount int64
}

// CloudMediaItem is a remote media item.
type CloudMediaItem struct {
	ID       string
	Filename string
}

// CloudClient is the contract the upload core needs from the remote photos
// service. Implementations classify every failure into an *APIError exactly
// once at this boundary; errors that are not *APIError are treated as fatal.
type CloudClient interface {
	// ListAlbums returns all albums visible to the app.
	ListAlbums(ctx context.Context) ([]CloudAlbum, error)

	// CreateAlbum creates an empty album with the given title.
	CreateAlbum(ctx context.Context, title string) (*CloudAlbum, error)

	// ListAlbumItems returns the media items of an album in album order.
	ListAlbumItems(ctx context.Context, albumID string) ([]CloudMediaItem, error)

	// BatchAddToAlbum adds up to maxItemsPerBatch media items to an album.
	BatchAddToAlbum(ctx context.Context, albumID string, mediaItemIDs []string) error

	// UploadMediaData uploads the file's bytes and returns an opaque upload
	// token, which is valid server-side for about a day.
	UploadMediaData(ctx context.Context, filePath string) (string, error)

	// CreateMediaItem exchanges an upload token for a media item. An empty
	// albumID puts the item in the library only.
	CreateMediaItem(ctx context.Context, albumID, uploadToken, filename string) (*CloudMediaItem, error)
}
