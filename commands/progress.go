package commands

import (
	"fmt"
	"os"

	"github.com/schollz/progressbar/v3"
)

const uploadProgressName = "Uploading media files"

func reconcileProgressName(albumCount int) string {
	return fmt.Sprintf("Reconciling %d album(s) with Google Photos", albumCount)
}

// KeyedError is a per-item failure surfaced through a progress stream. Key
// identifies the item, a file path or an album URL.
type KeyedError struct {
	Key     string
	Message string
}

// ProgressSink receives progress updates for one named stream. All methods
// may be called concurrently.
type ProgressSink interface {
	// IncrementSuccess records one successfully handled item.
	IncrementSuccess()

	// KeyedError records a permanent per-item failure without stopping the
	// stream.
	KeyedError(key, message string)

	// Close finishes the stream. successful is false when the run aborted.
	Close(successful bool)
}

// ProgressSinkFactory creates progress sinks. A negative total means the
// stream length is unknown.
type ProgressSinkFactory interface {
	NewSink(name string, total int) ProgressSink
}

type barSinkFactory struct{}

// NewProgressBarFactory returns a factory rendering terminal progress bars.
func NewProgressBarFactory() ProgressSinkFactory {
	return barSinkFactory{}
}

func (barSinkFactory) NewSink(name string, total int) ProgressSink {
	if total < 0 {
		total = -1
	}
	bar := progressbar.NewOptions(total,
		progressbar.OptionSetDescription(name),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)
	return &barSink{bar: bar}
}

type barSink struct {
	bar *progressbar.ProgressBar
}

func (s *barSink) IncrementSuccess() {
	s.bar.Add(1)
}

func (s *barSink) KeyedError(key, message string) {
	s.bar.Clear()
	fmt.Fprintf(os.Stderr, "%s: %s\n", key, message)
	s.bar.RenderBlank()
}

func (s *barSink) Close(successful bool) {
	if successful {
		s.bar.Finish()
	}
	s.bar.Exit()
}
