package scanning

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF decoder
	_ "image/jpeg" // Register JPEG decoder
	"image/png"
	"log/slog"
	"mime"
	"strings"

	"github.com/gen2brain/go-fitz"
	"github.com/gen2brain/heic"
)

// normalizeContentType lowercases the media type and drops parameters.
// An empty or unparseable type is treated as JPEG, the common camera format.
func normalizeContentType(contentType string) string {
	mediaType, _, err := mime.ParseMediaType(strings.TrimSpace(contentType))
	if err != nil || mediaType == "" {
		return "image/jpeg"
	}
	return strings.ToLower(mediaType)
}

// isPlainText reports whether the upload is already a text transcript
func isPlainText(contentType string) bool {
	return normalizeContentType(contentType) == "text/plain"
}

// preparePNG renders an upload as a single PNG image for a vision model.
// PDFs contribute their first page; PNGs pass through untouched.
func preparePNG(data []byte, contentType string) ([]byte, error) {
	if len(data) == 0 {
		return nil, errors.New("empty upload")
	}

	mediaType := normalizeContentType(contentType)
	switch {
	case mediaType == "application/pdf":
		img, err := renderPDFPage(data)
		if err != nil {
			return nil, fmt.Errorf("converting PDF to image: %w", err)
		}
		return encodePNG(img)
	case isHEIC(data, mediaType):
		img, err := heic.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("decoding HEIC/HEIF image: %w", err)
		}
		return encodePNG(img)
	case mediaType == "image/png":
		return data, nil
	case strings.HasPrefix(mediaType, "image/"):
		img, format, err := image.Decode(bytes.NewReader(data))
		if err != nil {
			if errors.Is(err, image.ErrFormat) {
				return nil, fmt.Errorf("%w: %s (supported: JPEG, PNG, GIF, HEIC, HEIF, PDF)", ErrUnsupportedContentType, mediaType)
			}
			return nil, fmt.Errorf("decoding image: %w", err)
		}
		slog.Debug("Converting image to PNG", "format", format, "bytes", len(data))
		return encodePNG(img)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedContentType, mediaType)
	}
}

func renderPDFPage(data []byte) (image.Image, error) {
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return nil, fmt.Errorf("opening PDF: %w", err)
	}
	defer doc.Close()

	if doc.NumPage() > 1 {
		slog.Debug("Only the first PDF page is scanned", "pages", doc.NumPage())
	}

	img, err := doc.Image(0)
	if err != nil {
		return nil, fmt.Errorf("rendering PDF page: %w", err)
	}
	return img, nil
}

func encodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encoding PNG: %w", err)
	}
	return buf.Bytes(), nil
}

// isHEIC checks the declared type and the ISO-BMFF ftyp brand, since phones
// often upload HEIC as application/octet-stream or image/jpeg.
func isHEIC(data []byte, mediaType string) bool {
	if strings.Contains(mediaType, "heic") || strings.Contains(mediaType, "heif") {
		return true
	}
	if len(data) < 12 || string(data[4:8]) != "ftyp" {
		return false
	}
	switch string(data[8:12]) {
	case "heic", "heix", "heif", "mif1", "msf1":
		return true
	}
	return false
}
