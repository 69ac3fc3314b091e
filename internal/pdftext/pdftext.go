// Package pdftext converts invoice PDFs to plain text. It reads the text
// layer first and falls back to rendering pages and running tesseract when
// the document is a scan with little or no embedded text.
package pdftext

import (
	"context"
	"fmt"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/gen2brain/go-fitz"
)

// Extraction methods reported alongside the text.
const (
	MethodText = "pdf-text"
	MethodOCR  = "pdf-ocr"
)

// minDirectTextLen is the shortest direct text-layer result considered
// usable; anything shorter triggers the OCR fallback. Counted in runes so
// accented French text does not inflate the measure.
const minDirectTextLen = 100

func usableTextLayer(text string) bool {
	return utf8.RuneCountInString(strings.TrimSpace(text)) > minDirectTextLen
}

// structureMarkers are the tokens every SPEEDMECAHOME invoice carries.
// A document showing fewer than 70% of them is rejected before extraction.
var structureMarkers = []string{
	"SPEEDMECAHOME",
	"NET À PAYER",
	"TVA",
	"DT",
}

const structureThreshold = 0.7

// Source extracts text from PDF documents.
type Source struct {
	tesseract string
	lang      string
	runner    Runner
}

// New creates a Source using the given tesseract binary (empty means
// "tesseract" on PATH) and OCR language spec (empty means "fra+eng").
func New(tesseract, lang string) *Source {
	return NewWithRunner(tesseract, lang, execRunner{})
}

// NewWithRunner creates a Source with a custom command runner for tests.
func NewWithRunner(tesseract, lang string, runner Runner) *Source {
	if tesseract == "" {
		tesseract = "tesseract"
	}
	if lang == "" {
		lang = "fra+eng"
	}
	return &Source{tesseract: tesseract, lang: lang, runner: runner}
}

// ExtractText returns the plain text of a PDF and the method that produced
// it. The text layer is tried first; when it yields less than
// minDirectTextLen characters the pages are rendered and OCRed instead.
func (s *Source) ExtractText(ctx context.Context, pdfData []byte) (string, string, error) {
	text, directErr := textLayer(pdfData)
	if directErr == nil && usableTextLayer(text) {
		return text, MethodText, nil
	}
	if directErr != nil {
		slog.Warn("direct text extraction failed, falling back to OCR", "error", directErr)
	} else {
		slog.Info("text layer too short, falling back to OCR", "length", utf8.RuneCountInString(strings.TrimSpace(text)))
	}

	ocrText, err := s.ocr(ctx, pdfData)
	if err != nil {
		return "", "", fmt.Errorf("ocr extraction: %w", err)
	}
	return ocrText, MethodOCR, nil
}

// ValidateStructure reports whether the text looks like the expected
// vendor's invoice: at least 70% of the fixed marker tokens are present.
func (s *Source) ValidateStructure(text string) bool {
	found := 0
	for _, marker := range structureMarkers {
		if strings.Contains(text, marker) {
			found++
		}
	}
	confidence := float64(found) / float64(len(structureMarkers))
	slog.Debug("structure validation", "markers_found", found, "confidence", confidence)
	return confidence >= structureThreshold
}

// textLayer reads the embedded text of every page.
func textLayer(pdfData []byte) (string, error) {
	doc, err := fitz.NewFromMemory(pdfData)
	if err != nil {
		return "", fmt.Errorf("opening PDF: %w", err)
	}
	defer doc.Close()

	var b strings.Builder
	for n := 0; n < doc.NumPage(); n++ {
		pageText, err := doc.Text(n)
		if err != nil {
			return "", fmt.Errorf("reading page %d: %w", n, err)
		}
		b.WriteString(pageText)
		b.WriteString("\n")
	}
	return b.String(), nil
}

// ocr renders each page to a PNG and runs tesseract over it.
func (s *Source) ocr(ctx context.Context, pdfData []byte) (string, error) {
	doc, err := fitz.NewFromMemory(pdfData)
	if err != nil {
		return "", fmt.Errorf("opening PDF: %w", err)
	}
	defer doc.Close()

	tmpDir, err := os.MkdirTemp("", "invoice-scan-ocr-*")
	if err != nil {
		return "", fmt.Errorf("creating temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	var b strings.Builder
	for n := 0; n < doc.NumPage(); n++ {
		img, err := doc.Image(n)
		if err != nil {
			return "", fmt.Errorf("rendering page %d: %w", n, err)
		}

		pagePath := filepath.Join(tmpDir, fmt.Sprintf("page-%d.png", n))
		f, err := os.Create(pagePath)
		if err != nil {
			return "", fmt.Errorf("creating page image: %w", err)
		}
		if err := png.Encode(f, img); err != nil {
			f.Close()
			return "", fmt.Errorf("encoding page %d: %w", n, err)
		}
		f.Close()

		out, _, err := s.runner.Run(ctx, s.tesseract, pagePath, "stdout", "-l", s.lang)
		if err != nil {
			return "", fmt.Errorf("tesseract on page %d: %w", n, err)
		}
		b.Write(out)
		b.WriteString("\n")
	}
	return b.String(), nil
}
