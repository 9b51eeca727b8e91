package extraction

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF decoder
	_ "image/jpeg" // Register JPEG decoder
	"image/png"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/gen2brain/go-fitz"
	"github.com/gen2brain/heic"
	_ "golang.org/x/image/tiff" // Register TIFF decoder
	_ "golang.org/x/image/webp" // Register WebP decoder
)

// renderPages rasterizes the document at path into one PNG per page inside
// dir and returns their paths in page order. A page that cannot be rendered
// is logged and left as an empty path so later stages keep page numbering.
func renderPages(ctx context.Context, path, dir string, dpi int, logger *slog.Logger) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading document: %w", err)
	}

	if !isPDFFormat(data) {
		img, err := decodeImage(data)
		if err != nil {
			return nil, err
		}
		out := pagePath(dir, 1)
		if err := writePNG(out, img); err != nil {
			return nil, err
		}
		return []string{out}, nil
	}

	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return nil, fmt.Errorf("opening PDF: %w", err)
	}
	defer doc.Close()

	n := doc.NumPage()
	if n == 0 {
		return nil, fmt.Errorf("PDF has no pages")
	}

	paths := make([]string, n)
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		pngData, err := doc.ImagePNG(i, float64(dpi))
		if err != nil {
			logger.Warn("page could not be rendered", "page", i+1, "error", err)
			continue
		}
		out := pagePath(dir, i+1)
		if err := os.WriteFile(out, pngData, 0600); err != nil {
			logger.Warn("page image could not be written", "page", i+1, "error", err)
			continue
		}
		paths[i] = out
	}
	return paths, nil
}

func pagePath(dir string, page int) string {
	return filepath.Join(dir, fmt.Sprintf("page-%04d.png", page))
}

// decodeImage decodes a photo or scan, including HEIC which the standard
// image package does not support.
func decodeImage(data []byte) (image.Image, error) {
	if isHEICFormat(data) {
		img, err := heic.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("decoding HEIC/HEIF image: %w", err)
		}
		return img, nil
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding image: %w", err)
	}
	return img, nil
}

func writePNG(path string, img image.Image) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("creating page image: %w", err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("encoding PNG: %w", err)
	}
	return f.Close()
}

func isPDFFormat(data []byte) bool {
	return bytes.HasPrefix(bytes.TrimLeft(data[:min(len(data), 1024)], "\x00\t\n\r "), []byte("%PDF"))
}

// isHEICFormat checks the ftyp box for a HEIC-related brand
func isHEICFormat(data []byte) bool {
	if len(data) < 12 || string(data[4:8]) != "ftyp" {
		return false
	}
	switch string(data[8:12]) {
	case "heic", "heix", "heif", "mif1", "msf1":
		return true
	}
	return false
}

// removeAll deletes a per-call scratch directory.
func removeAll(logger *slog.Logger, dir string) {
	if err := os.RemoveAll(dir); err != nil {
		logger.Warn("failed to remove temp dir", "dir", dir, "error", err)
	}
}
