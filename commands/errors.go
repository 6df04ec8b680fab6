package commands

import "errors"

// ErrorKind classifies a remote API failure. Classification happens once, at
// the CloudClient boundary.
type ErrorKind int

const (
	// KindTransient covers rate limiting, RESOURCE_EXHAUSTED and timeouts.
	// Transient failures are retried with backoff up to the run's budget.
	KindTransient ErrorKind = iota

	// KindInvalidArgument covers INVALID_ARGUMENT responses. Permanent for
	// the item concerned; never retried with the same arguments.
	KindInvalidArgument

	// KindFatal covers everything else and fails the run.
	KindFatal
)

// Remote operation names used in APIError.Op.
const (
	opListAlbums  = "albums.list"
	opCreateAlbum = "albums.create"
	opSearchItems = "mediaItems.search"
	opBatchAdd    = "batchAddMediaItems"
	opUploadData  = "uploadMediaData"
	opCreateItems = "createMediaItems"
)

// APIError is a classified remote API failure.
type APIError struct {
	Kind    ErrorKind
	Op      string
	Message string
}

func (e *APIError) Error() string { return e.Message }

func errorKind(err error) ErrorKind {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return KindFatal
}

func isTransient(err error) bool       { return errorKind(err) == KindTransient }
func isInvalidArgument(err error) bool { return errorKind(err) == KindInvalidArgument }
