package googlephotos

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	gphotos "github.com/gphotosuploader/google-photos-api-client-go/v3"
	"google.golang.org/api/googleapi"

	"github.com/ccfrost/albumsync/commands"
)

// Base URL for Google Photos API - made variable for testing
var photosBaseURL = "https://photoslibrary.googleapis.com/v1"

const (
	albumsPageSize     = 50
	mediaItemsPageSize = 100
)

// Client implements commands.CloudClient against the Google Photos API.
// Media bytes go through the gphotosuploader uploader; everything else is
// plain REST, so every response can be classified into a commands.APIError.
type Client struct {
	httpClient *http.Client
	uploader   gphotos.MediaUploader
}

// NewClient wraps an authenticated HTTP client, as returned by
// NewAuthenticatedHTTPClient.
func NewClient(httpClient *http.Client) (*Client, error) {
	gp, err := gphotos.NewClient(httpClient)
	if err != nil {
		return nil, fmt.Errorf("creating Google Photos client: %w", err)
	}
	return &Client{
		httpClient: httpClient,
		uploader:   gp.Uploader,
	}, nil
}

type albumJSON struct {
	ID              string `json:"id"`
	Title           string `json:"title"`
	ProductURL      string `json:"productUrl"`
	MediaItemsCount string `json:"mediaItemsCount"`
}

func (a albumJSON) toCloudAlbum() commands.CloudAlbum {
	// mediaItemsCount is a decimal string in the API; absent for empty
	// albums.
	count, _ := strconv.ParseInt(a.MediaItemsCount, 10, 64)
	return commands.CloudAlbum{
		ID:             a.ID,
		Title:          a.Title,
		ProductURL:     a.ProductURL,
		MediaItemCount: count,
	}
}

// ListAlbums returns all app-created albums, following pagination.
func (c *Client) ListAlbums(ctx context.Context) ([]commands.CloudAlbum, error) {
	var all []commands.CloudAlbum
	pageToken := ""
	for {
		url := fmt.Sprintf("%s/albums?pageSize=%d&excludeNonAppCreatedData=true", photosBaseURL, albumsPageSize)
		if pageToken != "" {
			url += "&pageToken=" + pageToken
		}
		var result struct {
			Albums        []albumJSON `json:"albums"`
			NextPageToken string      `json:"nextPageToken"`
		}
		if err := c.doJSON(ctx, "albums.list", http.MethodGet, url, nil, &result); err != nil {
			return nil, err
		}
		for _, album := range result.Albums {
			all = append(all, album.toCloudAlbum())
		}
		if result.NextPageToken == "" {
			return all, nil
		}
		pageToken = result.NextPageToken
	}
}

// CreateAlbum creates an empty album with the given title.
func (c *Client) CreateAlbum(ctx context.Context, title string) (*commands.CloudAlbum, error) {
	reqBody := map[string]any{
		"album": map[string]string{"title": title},
	}
	var created albumJSON
	if err := c.doJSON(ctx, "albums.create", http.MethodPost, photosBaseURL+"/albums", reqBody, &created); err != nil {
		return nil, err
	}
	album := created.toCloudAlbum()
	return &album, nil
}

// ListAlbumItems returns the media items of an album, following pagination.
func (c *Client) ListAlbumItems(ctx context.Context, albumID string) ([]commands.CloudMediaItem, error) {
	var all []commands.CloudMediaItem
	pageToken := ""
	for {
		reqBody := map[string]any{
			"albumId":  albumID,
			"pageSize": mediaItemsPageSize,
		}
		if pageToken != "" {
			reqBody["pageToken"] = pageToken
		}
		var result struct {
			MediaItems []struct {
				ID       string `json:"id"`
				Filename string `json:"filename"`
			} `json:"mediaItems"`
			NextPageToken string `json:"nextPageToken"`
		}
		if err := c.doJSON(ctx, "mediaItems.search", http.MethodPost, photosBaseURL+"/mediaItems:search", reqBody, &result); err != nil {
			return nil, err
		}
		for _, item := range result.MediaItems {
			all = append(all, commands.CloudMediaItem{ID: item.ID, Filename: item.Filename})
		}
		if result.NextPageToken == "" {
			return all, nil
		}
		pageToken = result.NextPageToken
	}
}

// BatchAddToAlbum adds the given media items to an album.
func (c *Client) BatchAddToAlbum(ctx context.Context, albumID string, mediaItemIDs []string) error {
	reqBody := map[string]any{
		"mediaItemIds": mediaItemIDs,
	}
	url := photosBaseURL + "/albums/" + albumID + ":batchAddMediaItems"
	return c.doJSON(ctx, "batchAddMediaItems", http.MethodPost, url, reqBody, nil)
}

// UploadMediaData uploads the file's bytes and returns the upload token.
func (c *Client) UploadMediaData(ctx context.Context, filePath string) (string, error) {
	token, err := c.uploader.UploadFile(ctx, filePath)
	if err != nil {
		return "", classifyUploaderError("uploadMediaData", err)
	}
	return token, nil
}

// CreateMediaItem exchanges an upload token for a media item, optionally
// placing it in an album.
func (c *Client) CreateMediaItem(ctx context.Context, albumID, uploadToken, filename string) (*commands.CloudMediaItem, error) {
	reqBody := map[string]any{
		"newMediaItems": []map[string]any{
			{
				"simpleMediaItem": map[string]string{
					"uploadToken": uploadToken,
					"fileName":    filename,
				},
			},
		},
	}
	if albumID != "" {
		reqBody["albumId"] = albumID
	}

	var result struct {
		NewMediaItemResults []struct {
			Status struct {
				Code    int    `json:"code"`
				Message string `json:"message"`
			} `json:"status"`
			MediaItem struct {
				ID       string `json:"id"`
				Filename string `json:"filename"`
			} `json:"mediaItem"`
		} `json:"newMediaItemResults"`
	}
	if err := c.doJSON(ctx, "createMediaItems", http.MethodPost, photosBaseURL+"/mediaItems:batchCreate", reqBody, &result); err != nil {
		return nil, err
	}
	if len(result.NewMediaItemResults) == 0 {
		return nil, &commands.APIError{
			Kind:    commands.KindFatal,
			Op:      "createMediaItems",
			Message: "no media items created",
		}
	}
	itemResult := result.NewMediaItemResults[0]
	if itemResult.MediaItem.ID == "" {
		return nil, &commands.APIError{
			Kind:    kindFromGRPCCode(itemResult.Status.Code),
			Op:      "createMediaItems",
			Message: itemResult.Status.Message,
		}
	}
	return &commands.CloudMediaItem{
		ID:       itemResult.MediaItem.ID,
		Filename: itemResult.MediaItem.Filename,
	}, nil
}

// doJSON performs one API request, decoding a 200 response into respBody and
// classifying anything else.
func (c *Client) doJSON(ctx context.Context, op, method, url string, reqBody, respBody any) error {
	var body io.Reader
	if reqBody != nil {
		data, err := json.Marshal(reqBody)
		if err != nil {
			return fmt.Errorf("marshalling %s request: %w", op, err)
		}
		body = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return fmt.Errorf("creating %s request: %w", op, err)
	}
	if reqBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		// Network level failure, worth retrying.
		return &commands.APIError{Kind: commands.KindTransient, Op: op, Message: err.Error()}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &commands.APIError{Kind: commands.KindTransient, Op: op, Message: err.Error()}
	}
	if resp.StatusCode != http.StatusOK {
		return classifyResponse(op, resp.StatusCode, data)
	}
	if respBody != nil {
		if err := json.Unmarshal(data, respBody); err != nil {
			return fmt.Errorf("decoding %s response: %w", op, err)
		}
	}
	return nil
}

// classifyResponse turns a non-200 API response into an APIError. The body is
// usually a JSON error envelope carrying a gRPC style status.
func classifyResponse(op string, statusCode int, body []byte) error {
	var envelope struct {
		Error struct {
			Message string `json:"message"`
			Status  string `json:"status"`
		} `json:"error"`
	}
	message := strings.TrimSpace(string(body))
	status := ""
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Error.Message != "" {
		status = envelope.Error.Status
		if status != "" {
			message = status + ": " + envelope.Error.Message
		} else {
			message = envelope.Error.Message
		}
	}
	if message == "" {
		message = http.StatusText(statusCode)
	}
	return &commands.APIError{
		Kind:    kindFromHTTPStatus(statusCode),
		Op:      op,
		Message: message,
	}
}

func kindFromHTTPStatus(statusCode int) commands.ErrorKind {
	switch statusCode {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return commands.KindTransient
	case http.StatusBadRequest:
		return commands.KindInvalidArgument
	default:
		return commands.KindFatal
	}
}

// kindFromGRPCCode maps a per-item status code from batchCreate results.
func kindFromGRPCCode(code int) commands.ErrorKind {
	switch code {
	case 3: // INVALID_ARGUMENT
		return commands.KindInvalidArgument
	case 4, 8, 14: // DEADLINE_EXCEEDED, RESOURCE_EXHAUSTED, UNAVAILABLE
		return commands.KindTransient
	default:
		return commands.KindFatal
	}
}

// classifyUploaderError maps an uploader failure. The uploader surfaces
// googleapi errors for API level rejections; anything else is treated as a
// network level failure.
func classifyUploaderError(op string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return &commands.APIError{
			Kind:    kindFromHTTPStatus(apiErr.Code),
			Op:      op,
			Message: apiErr.Message,
		}
	}
	return &commands.APIError{Kind: commands.KindTransient, Op: op, Message: err.Error()}
}
