package invoice

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// minUsableTextLen is the shortest extracted text worth running the field
// extractor over; anything below is rejected as unusable input. Counted in
// runes so accented French text does not inflate the measure.
const minUsableTextLen = 50

// TextSource converts an uploaded PDF to plain text and checks that the
// document structurally looks like the expected vendor's invoice.
type TextSource interface {
	ExtractText(ctx context.Context, pdfData []byte) (text string, method string, err error)
	ValidateStructure(text string) bool
}

// RecordExtractor runs the field-extraction pipeline over invoice text.
type RecordExtractor interface {
	Extract(text string) (*Record, error)
}

// IDGenerator generates unique IDs for stored extractions.
type IDGenerator interface {
	Generate() string
}

// TimeSource provides the current time.
type TimeSource interface {
	Now() time.Time
}

type uuidGenerator struct{}

func (uuidGenerator) Generate() string { return uuid.NewString() }

type systemTimeSource struct{}

func (systemTimeSource) Now() time.Time { return time.Now() }

// InputRejectedError means the uploaded document itself is at fault: wrong
// file type, not this vendor's invoice, or no usable text. It is a request
// failure distinct from an extraction failure.
type InputRejectedError struct {
	Reason string
}

func (e *InputRejectedError) Error() string { return e.Reason }

// Service orchestrates the pipeline: text source, field extractor,
// plausibility check and the extraction archive.
type Service struct {
	db        DB
	source    TextSource
	extractor RecordExtractor
	storage   Storage
	ids       IDGenerator
	clock     TimeSource
}

// NewService creates a Service with uuid IDs and the system clock.
func NewService(db DB, source TextSource, extractor RecordExtractor, storage Storage) *Service {
	return &Service{
		db:        db,
		source:    source,
		extractor: extractor,
		storage:   storage,
		ids:       uuidGenerator{},
		clock:     systemTimeSource{},
	}
}

// NewServiceWithDeps creates a Service with custom ID and time sources for
// testing.
func NewServiceWithDeps(db DB, source TextSource, extractor RecordExtractor, storage Storage, ids IDGenerator, clock TimeSource) *Service {
	return &Service{
		db:        db,
		source:    source,
		extractor: extractor,
		storage:   storage,
		ids:       ids,
		clock:     clock,
	}
}

var (
	reSpecialChars = regexp.MustCompile(`[^a-zA-Z0-9\s\-_]`)
	reSpaces       = regexp.MustCompile(`\s+`)
)

// sanitizeFilename strips special characters and truncates over-long upload
// names before they become storage paths.
func sanitizeFilename(filename string) string {
	ext := filepath.Ext(filename)
	base := strings.TrimSuffix(filename, ext)

	base = reSpecialChars.ReplaceAllString(base, "")
	base = reSpaces.ReplaceAllString(base, " ")
	base = strings.TrimSpace(base)

	maxLen := 50
	if len(base) > maxLen {
		base = base[:maxLen]
	}
	if base == "" {
		base = "invoice"
	}
	return base + ext
}

// ProcessInvoice runs the full extraction pipeline over an uploaded PDF and
// archives the result. It returns *InputRejectedError when the document
// itself is unusable and the extractor's *ShapeError when a captured value
// cannot be coerced; per-field pattern misses never surface as errors.
func (s *Service) ProcessInvoice(ctx context.Context, filename string, data []byte) (*StoredExtraction, error) {
	if !strings.HasSuffix(strings.ToLower(filename), ".pdf") {
		return nil, &InputRejectedError{Reason: "Only PDF files are supported"}
	}

	text, method, err := s.source.ExtractText(ctx, data)
	if err != nil {
		return nil, fmt.Errorf("extracting text: %w", err)
	}

	if !s.source.ValidateStructure(text) {
		return nil, &InputRejectedError{Reason: "The uploaded file doesn't appear to be a valid SPEEDMECAHOME invoice"}
	}

	if utf8.RuneCountInString(strings.TrimSpace(text)) < minUsableTextLen {
		return nil, &InputRejectedError{Reason: "Could not extract sufficient text from the PDF"}
	}

	record, err := s.extractor.Extract(text)
	if err != nil {
		return nil, err
	}

	plausible := Plausible(record)
	if !plausible {
		slog.Warn("extraction produced implausible record", "filename", filename, "method", method)
	}

	id := s.ids.Generate()
	now := s.clock.Now()

	savedPath, err := s.storage.Save(fmt.Sprintf("%s_%s", id, sanitizeFilename(filename)), data)
	if err != nil {
		return nil, fmt.Errorf("saving file: %w", err)
	}

	stored := &StoredExtraction{
		ID:          id,
		Filename:    savedPath,
		ContentType: "application/pdf",
		Method:      method,
		Plausible:   plausible,
		Record:      record,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.db.SaveExtraction(stored); err != nil {
		s.storage.Delete(savedPath)
		return nil, fmt.Errorf("saving extraction to database: %w", err)
	}

	return stored, nil
}

// GetExtraction retrieves a stored extraction by ID.
func (s *Service) GetExtraction(id string) (*StoredExtraction, error) {
	stored, err := s.db.GetExtraction(id)
	if err != nil {
		return nil, fmt.Errorf("getting extraction: %w", err)
	}
	return stored, nil
}

// ListExtractions returns all stored extractions.
func (s *Service) ListExtractions() ([]*StoredExtraction, error) {
	extractions, err := s.db.ListExtractions()
	if err != nil {
		return nil, fmt.Errorf("listing extractions: %w", err)
	}
	return extractions, nil
}

// GetExtractionFile retrieves the original uploaded PDF for an extraction.
func (s *Service) GetExtractionFile(id string) ([]byte, string, error) {
	stored, err := s.db.GetExtraction(id)
	if err != nil {
		return nil, "", fmt.Errorf("getting extraction: %w", err)
	}
	data, err := s.storage.Get(stored.Filename)
	if err != nil {
		return nil, "", fmt.Errorf("getting extraction file: %w", err)
	}
	return data, stored.ContentType, nil
}

// DeleteExtraction removes a stored extraction and its file.
func (s *Service) DeleteExtraction(id string) error {
	stored, err := s.db.GetExtraction(id)
	if err != nil {
		return fmt.Errorf("getting extraction for deletion: %w", err)
	}

	if err := s.storage.Delete(stored.Filename); err != nil {
		slog.Warn("Failed to delete file", "filename", stored.Filename, "error", err)
	}

	if err := s.db.DeleteExtraction(id); err != nil {
		return fmt.Errorf("deleting extraction from database: %w", err)
	}
	return nil
}
