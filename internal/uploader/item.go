package uploader

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"
)

var (
	ErrUnknownItem    = errors.New("unknown upload item")
	ErrNotRetryable   = errors.New("only failed items can be retried")
	ErrAlreadyRunning = errors.New("orchestrator is already running")
)

// State của một item: queued -> uploading -> done | error; error -> queued chỉ qua Retry
type State string

const (
	StateQueued    State = "queued"
	StateUploading State = "uploading"
	StateDone      State = "done"
	StateError     State = "error"
)

// Source mô tả file cần upload; nội dung chỉ được mở khi worker nhận item
type Source struct {
	Name        string
	Size        int64
	ContentType string
	Open        func() (io.ReadCloser, error)
}

// FileSource stat file trên đĩa, content type lấy theo extension
func FileSource(path string) (Source, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Source{}, err
	}
	if info.IsDir() {
		return Source{}, fmt.Errorf("%s is a directory", path)
	}

	contentType := mime.TypeByExtension(strings.ToLower(filepath.Ext(path)))
	if i := strings.Index(contentType, ";"); i >= 0 {
		contentType = contentType[:i]
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	return Source{
		Name:        filepath.Base(path),
		Size:        info.Size(),
		ContentType: contentType,
		Open: func() (io.ReadCloser, error) {
			return os.Open(path)
		},
	}, nil
}

// Item là snapshot trạng thái của một upload
type Item struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Key      string `json:"key,omitempty"`
	Progress int    `json:"progress"`
	State    State  `json:"state"`
	Err      string `json:"error,omitempty"`
	ViewURL  string `json:"viewUrl,omitempty"`
}
