package receipt

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/zombor/receipt-extractor/internal/extraction"
	"github.com/zombor/receipt-extractor/internal/parsing"
)

// Extractor turns a stored document into text
type Extractor interface {
	Extract(ctx context.Context, path string) (extraction.Document, error)
	Backend() string
}

// Parser turns extracted text into receipt fields
type Parser interface {
	Parse(text string) parsing.Receipt
}

// IDGenerator generates unique IDs for receipts
type IDGenerator interface {
	Generate() string
}

// TimeSource provides the current time
type TimeSource interface {
	Now() time.Time
}

type uuidGenerator struct{}

func (g *uuidGenerator) Generate() string {
	return uuid.NewString()
}

type defaultTimeSource struct{}

func (t *defaultTimeSource) Now() time.Time {
	return time.Now()
}

// Service drives a document through validation, extraction, parsing and
// persistence.
type Service struct {
	db          DB
	extractor   Extractor
	parser      Parser
	storage     Storage
	idGenerator IDGenerator
	timeSource  TimeSource
	maxFileSize int64
}

// NewService creates a new Service with default ID generator and time source
func NewService(db DB, extractor Extractor, parser Parser, storage Storage) *Service {
	return NewServiceWithDeps(db, extractor, parser, storage, &uuidGenerator{}, &defaultTimeSource{})
}

// NewServiceWithDeps creates a new Service with custom dependencies for testing
func NewServiceWithDeps(db DB, extractor Extractor, parser Parser, storage Storage, idGen IDGenerator, timeSrc TimeSource) *Service {
	return &Service{
		db:          db,
		extractor:   extractor,
		parser:      parser,
		storage:     storage,
		idGenerator: idGen,
		timeSource:  timeSrc,
		maxFileSize: DefaultMaxFileSize,
	}
}

// SetMaxFileSize overrides the upload size limit; zero disables it.
func (s *Service) SetMaxFileSize(n int64) {
	s.maxFileSize = n
}

var (
	unsafeFilenameChars = regexp.MustCompile(`[^a-zA-Z0-9\s\-_]`)
	repeatedSpaces      = regexp.MustCompile(`\s+`)
)

// sanitizeFilename strips special characters and truncates long names
func sanitizeFilename(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	base := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))

	base = unsafeFilenameChars.ReplaceAllString(base, "")
	base = repeatedSpaces.ReplaceAllString(base, " ")
	base = strings.TrimSpace(base)

	if len(base) > 50 {
		base = base[:50]
	}
	if base == "" {
		base = "receipt"
	}
	return base + ext
}

// ProcessFile stores a document, extracts and parses it, moves the document
// to the processed folder and saves the record. The record is written once,
// after the move, so its path always matches where the file is.
func (s *Service) ProcessFile(ctx context.Context, filename string, data []byte) (*Receipt, error) {
	id := s.idGenerator.Generate()
	now := s.timeSource.Now()

	savedPath, err := s.storage.Save(fmt.Sprintf("%s_%s", id, sanitizeFilename(filename)), data)
	if err != nil {
		return nil, fmt.Errorf("saving file: %w", err)
	}
	fullPath := s.storage.Path(savedPath)

	if err := ValidateFile(fullPath, s.maxFileSize, AcceptsImages(s.extractor.Backend())); err != nil {
		slog.Warn("Rejected receipt file", "filename", filename, "file_size", len(data), "error", err)
		s.discard(savedPath)
		return nil, err
	}

	doc, err := s.extractor.Extract(ctx, fullPath)
	if err != nil {
		slog.Error("Failed to extract receipt text",
			"filename", filename,
			"file_size", len(data),
			"error", err,
		)
		s.discard(savedPath)
		if errors.Is(err, extraction.ErrDocumentRead) {
			return nil, fmt.Errorf("%w: %v", ErrInvalidFile, err)
		}
		return nil, fmt.Errorf("extracting text: %w", err)
	}

	text := doc.Text()
	receipt := &Receipt{
		ID:         id,
		FileName:   filename,
		FilePath:   savedPath,
		OCRText:    text,
		Confidence: doc.Confidence,
		Backend:    doc.Backend,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	receipt.applyParsed(s.parser.Parse(text))

	if newPath, err := s.storage.MoveToProcessed(savedPath); err != nil {
		// Keep the record pointing at the unprocessed copy.
		slog.Error("Error moving file to processed folder", "path", savedPath, "error", err)
	} else {
		receipt.FilePath = newPath
		receipt.Processed = true
	}

	if err := s.db.SaveReceipt(receipt); err != nil {
		s.discard(receipt.FilePath)
		return nil, fmt.Errorf("saving receipt to database: %w", err)
	}

	return receipt, nil
}

func (s *Service) discard(path string) {
	if err := s.storage.Delete(path); err != nil {
		slog.Warn("Failed to delete file", "path", path, "error", err)
	}
}

// GetReceipt retrieves a receipt by ID
func (s *Service) GetReceipt(id string) (*Receipt, error) {
	receipt, err := s.db.GetReceipt(id)
	if err != nil {
		return nil, fmt.Errorf("getting receipt: %w", err)
	}
	return receipt, nil
}

// ListReceipts returns one page of receipts, newest first
func (s *Service) ListReceipts(page, perPage int) (*Page, error) {
	receipts, err := s.db.ListReceipts()
	if err != nil {
		return nil, fmt.Errorf("listing receipts: %w", err)
	}
	return paginate(receipts, page, perPage), nil
}

// SearchReceipts returns one page of receipts whose merchant name or
// extracted text contains query, newest first
func (s *Service) SearchReceipts(query string, page, perPage int) (*Page, error) {
	receipts, err := s.db.SearchReceipts(query)
	if err != nil {
		return nil, fmt.Errorf("searching receipts: %w", err)
	}
	return paginate(receipts, page, perPage), nil
}

// DeleteReceipt removes a receipt and its file
func (s *Service) DeleteReceipt(id string) error {
	receipt, err := s.db.GetReceipt(id)
	if err != nil {
		return fmt.Errorf("getting receipt for deletion: %w", err)
	}

	if err := s.storage.Delete(receipt.FilePath); err != nil {
		// Log error but continue with database deletion
		slog.Warn("Failed to delete file", "filename", receipt.FilePath, "error", err)
	}

	if err := s.db.DeleteReceipt(id); err != nil {
		return fmt.Errorf("deleting receipt from database: %w", err)
	}
	return nil
}

// GetReceiptFile retrieves the document a receipt was parsed from
func (s *Service) GetReceiptFile(id string) ([]byte, error) {
	receipt, err := s.db.GetReceipt(id)
	if err != nil {
		return nil, fmt.Errorf("getting receipt: %w", err)
	}

	data, err := s.storage.Get(receipt.FilePath)
	if err != nil {
		return nil, fmt.Errorf("getting receipt file: %w", err)
	}
	return data, nil
}
