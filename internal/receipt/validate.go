package receipt

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/zombor/receipt-extractor/internal/extraction"
)

// DefaultMaxFileSize is the largest accepted document, 10MB.
const DefaultMaxFileSize int64 = 10 << 20

// ErrInvalidFile wraps every reason a document is rejected before extraction.
var ErrInvalidFile = errors.New("invalid receipt file")

var imageExtensions = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true,
	".tif": true, ".tiff": true, ".webp": true, ".heic": true, ".heif": true,
}

// ValidateFile checks that path is a readable document the extraction
// backends can handle: a PDF with at least one page or, when allowImages is
// set, a supported image.
func ValidateFile(path string, maxSize int64, allowImages bool) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("%w: file not found", ErrInvalidFile)
	}
	if info.IsDir() {
		return fmt.Errorf("%w: not a file", ErrInvalidFile)
	}
	if maxSize > 0 && info.Size() > maxSize {
		return fmt.Errorf("%w: file too large (%d bytes, maximum %d)", ErrInvalidFile, info.Size(), maxSize)
	}
	if info.Size() == 0 {
		return fmt.Errorf("%w: file is empty", ErrInvalidFile)
	}

	ext := strings.ToLower(filepath.Ext(path))
	switch {
	case ext == ".pdf":
		n, err := extraction.PageCount(path)
		if err != nil {
			return fmt.Errorf("%w: invalid PDF: %v", ErrInvalidFile, err)
		}
		if n == 0 {
			return fmt.Errorf("%w: PDF has no pages", ErrInvalidFile)
		}
		return nil
	case allowImages && imageExtensions[ext]:
		return nil
	case allowImages:
		return fmt.Errorf("%w: unsupported file type %q", ErrInvalidFile, ext)
	default:
		return fmt.Errorf("%w: only PDF files are allowed", ErrInvalidFile)
	}
}

// AcceptsImages reports whether the named backend can read image files.
func AcceptsImages(backend string) bool {
	switch backend {
	case extraction.BackendTesseract, extraction.BackendVision, extraction.BackendOllama:
		return true
	}
	return false
}
