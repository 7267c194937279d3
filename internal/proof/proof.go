// Package proof handles payment-slip intake: size ceiling, content sniffing
// and handing the slip to storage.
package proof

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

var (
	ErrTooLarge    = errors.New("payment slip exceeds size limit")
	ErrEmpty       = errors.New("payment slip is empty")
	ErrUnsupported = errors.New("payment slip must be an image or PDF")
)

// File is an attached payment slip
type File struct {
	Name        string `json:"name"`
	Size        int64  `json:"size"`
	ContentType string `json:"contentType"`
	Data        []byte `json:"-"`
}

// Read consumes at most maxBytes+1 bytes from r. Anything over maxBytes is
// rejected rather than truncated.
func Read(name string, r io.Reader, maxBytes int64) (*File, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read payment slip: %w", err)
	}
	if int64(len(data)) > maxBytes {
		return nil, ErrTooLarge
	}
	if len(data) == 0 {
		return nil, ErrEmpty
	}

	mt := mimetype.Detect(data)
	if !allowed(mt) {
		return nil, fmt.Errorf("%w: got %s", ErrUnsupported, mt.String())
	}

	return &File{
		Name:        name,
		Size:        int64(len(data)),
		ContentType: mt.String(),
		Data:        data,
	}, nil
}

func allowed(mt *mimetype.MIME) bool {
	for m := mt; m != nil; m = m.Parent() {
		if strings.HasPrefix(m.String(), "image/") || m.Is("application/pdf") {
			return true
		}
	}
	return false
}

// Store persists a slip and returns a URL referencing it
type Store interface {
	Upload(ctx context.Context, f *File) (string, error)
}

// PlaceholderStore stands in for object storage: nothing is uploaded and the
// same configured URL is returned for every slip.
type PlaceholderStore struct {
	url string
}

// NewPlaceholderStore creates a store that always answers with url
func NewPlaceholderStore(url string) *PlaceholderStore {
	return &PlaceholderStore{url: url}
}

func (s *PlaceholderStore) Upload(ctx context.Context, f *File) (string, error) {
	if f == nil {
		return "", ErrEmpty
	}
	return s.url, nil
}
