package loader

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"

	"github.com/robbyt/go-edgeworker/internal/helpers"
)

// FromBytes implements the Loader interface for content held in memory, such as an embedded module.
type FromBytes struct {
	content   []byte
	sourceURL *url.URL
}

// NewFromBytes creates a new Loader from a byte slice.
func NewFromBytes(content []byte) (*FromBytes, error) {
	if len(content) == 0 {
		return nil, fmt.Errorf("%w: content is empty", ErrModuleUnavailable)
	}

	// Text content made only of whitespace is rejected, binary content never is
	if !hasBinaryCharacters(content) && isOnlyWhitespace(content) {
		return nil, fmt.Errorf(
			"%w: content is empty or contains only whitespace",
			ErrModuleUnavailable,
		)
	}

	u, err := url.Parse("bytes://inline/" + helpers.ShortHash(content))
	if err != nil {
		return nil, fmt.Errorf("failed to create source URL: %w", err)
	}

	return &FromBytes{
		content:   content,
		sourceURL: u,
	}, nil
}

func (l *FromBytes) String() string {
	return fmt.Sprintf("loader.FromBytes{Bytes: %d}", len(l.content))
}

// GetReader returns a new reader for the stored content.
func (l *FromBytes) GetReader(_ context.Context) (io.ReadCloser, error) {
	return Decompress(io.NopCloser(bytes.NewReader(l.content)))
}

// GetSourceURL returns the source URL of the module.
func (l *FromBytes) GetSourceURL() *url.URL {
	return l.sourceURL
}

func isOnlyWhitespace(data []byte) bool {
	for _, b := range data {
		if b != ' ' && b != '\t' && b != '\n' && b != '\r' && b != '\f' && b != '\v' {
			return false
		}
	}
	return true
}

// hasBinaryCharacters reports null bytes or control characters other than common whitespace
func hasBinaryCharacters(data []byte) bool {
	for _, b := range data {
		if b == 0 || (b < 32 && b != '\n' && b != '\r' && b != '\t') {
			return true
		}
	}
	return false
}
