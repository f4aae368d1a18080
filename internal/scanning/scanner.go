package scanning

import (
	"errors"
	"fmt"
	"mime"
	"strings"
)

// ErrUnsupportedContentType is returned when a scanner cannot read an upload
var ErrUnsupportedContentType = errors.New("unsupported content type")

// Scanner turns an uploaded receipt into raw text
type Scanner interface {
	// ScanText returns the text printed on the receipt, or "" when none was found
	ScanText(data []byte, contentType string) (string, error)
	// Close closes the scanner and releases resources
	Close() error
}

// PlainText is a Scanner for uploads that are already text, such as the
// output of an external OCR step
type PlainText struct{}

// NewPlainText creates a PlainText scanner
func NewPlainText() *PlainText {
	return &PlainText{}
}

func (PlainText) ScanText(data []byte, contentType string) (string, error) {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil || mediaType != "text/plain" {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedContentType, contentType)
	}
	return strings.TrimSpace(string(data)), nil
}

func (PlainText) Close() error {
	return nil
}
