package invoice

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
)

// maxUploadSize caps multipart uploads; scanned invoices are single pages
// but phone scans at high DPI can be large.
const maxUploadSize = int64(50 << 20) // 50MB

// ExtractionResponse is the payload of POST /extract-invoice. Failures are
// reported inside the payload rather than as HTTP errors so the frontend
// handles one shape.
type ExtractionResponse struct {
	Success          bool     `json:"success"`
	Data             *Record  `json:"data,omitempty"`
	Errors           []string `json:"errors"`
	Warnings         []string `json:"warnings"`
	ValidationPassed bool     `json:"validation_passed"`
}

// corsError writes an error response with CORS headers set.
func corsError(w http.ResponseWriter, message string, code int) {
	setCORSHeaders(w)
	http.Error(w, message, code)
}

// setCORSHeaders sets CORS headers on a response.
func setCORSHeaders(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
	w.Header().Set("Access-Control-Max-Age", "3600")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	setCORSHeaders(w)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}

// extractionFailure reports a failed extraction inside a 200 payload.
func extractionFailure(w http.ResponseWriter, messages ...string) {
	writeJSON(w, http.StatusOK, ExtractionResponse{
		Success:  false,
		Errors:   messages,
		Warnings: []string{},
	})
}

// handleIndex serves the service status banner.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"message": "SPEEDMECAHOME Invoice API",
		"status":  "running",
	})
}

// handleExtractInvoice handles the PDF upload and runs the full pipeline.
func (s *Server) handleExtractInvoice(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		slog.Error("Error parsing multipart form", "error", err)
		errorMsg := "Error parsing form"
		if err.Error() == "http: request body too large" {
			errorMsg = "File is too large. Maximum size is 50MB."
		}
		extractionFailure(w, errorMsg)
		return
	}

	f, header, err := r.FormFile("file")
	if err != nil {
		slog.Error("Error getting file from form", "error", err)
		extractionFailure(w, "No file provided")
		return
	}
	defer f.Close()

	if header.Size > maxUploadSize {
		extractionFailure(w, "File is too large. Maximum size is 50MB.")
		return
	}

	data, err := io.ReadAll(f)
	if err != nil {
		slog.Error("Error reading file data", "error", err, "filename", header.Filename)
		extractionFailure(w, "Error reading file. Please try again.")
		return
	}

	stored, err := s.service.ProcessInvoice(r.Context(), header.Filename, data)
	if err != nil {
		var rejected *InputRejectedError
		if errors.As(err, &rejected) {
			extractionFailure(w, rejected.Reason)
			return
		}
		slog.Error("Error processing invoice", "filename", header.Filename, "error", err)
		extractionFailure(w, fmt.Sprintf("Processing error: %s", err))
		return
	}

	resp := ExtractionResponse{
		Success:          true,
		Data:             stored.Record,
		Errors:           []string{},
		Warnings:         []string{},
		ValidationPassed: stored.Plausible,
	}
	if !stored.Plausible {
		resp.Warnings = append(resp.Warnings, "Some data validation issues found")
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleValidateInvoice cross-validates an already extracted record.
func (s *Server) handleValidateInvoice(w http.ResponseWriter, r *http.Request) {
	var rec Record
	if err := json.NewDecoder(r.Body).Decode(&rec); err != nil {
		corsError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, Validate(&rec))
}

// handleInvoiceTemplate returns the expected invoice field catalogue.
func (s *Server) handleInvoiceTemplate(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"expected_fields": map[string][]string{
			"supplier_info": {
				"supplier_name", "supplier_address", "supplier_phone",
				"supplier_vat_code", "supplier_email", "supplier_bank", "supplier_iban",
			},
			"client_info": {
				"client_name", "client_mf", "client_email", "client_mobile",
			},
			"invoice_metadata": {
				"invoice_date", "invoice_number", "vehicle_plate", "vehicle_mileage",
			},
			"financial_data": {
				"subtotal_ht", "total_ht", "total_vat", "fiscal_stamp", "total_ttc",
			},
		},
		"required_fields": []string{
			"client_name", "invoice_number", "vehicle_plate", "total_ttc",
		},
	})
}

// handleListExtractions returns all archived extractions.
func (s *Server) handleListExtractions(w http.ResponseWriter, r *http.Request) {
	extractions, err := s.service.ListExtractions()
	if err != nil {
		slog.Error("Error listing extractions", "error", err)
		corsError(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if extractions == nil {
		extractions = []*StoredExtraction{}
	}
	writeJSON(w, http.StatusOK, extractions)
}

// handleGetExtraction returns a single archived extraction.
func (s *Server) handleGetExtraction(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		corsError(w, "Extraction ID required", http.StatusBadRequest)
		return
	}
	stored, err := s.service.GetExtraction(id)
	if err != nil {
		corsError(w, "Extraction not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, stored)
}

// handleGetExtractionFile returns the original uploaded PDF.
func (s *Server) handleGetExtractionFile(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		corsError(w, "Extraction ID required", http.StatusBadRequest)
		return
	}
	data, contentType, err := s.service.GetExtractionFile(id)
	if err != nil {
		corsError(w, "File not found", http.StatusNotFound)
		return
	}
	setCORSHeaders(w)
	w.Header().Set("Content-Type", contentType)
	w.Write(data)
}

// handleDeleteExtraction deletes an archived extraction.
func (s *Server) handleDeleteExtraction(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		corsError(w, "Extraction ID required", http.StatusBadRequest)
		return
	}
	if err := s.service.DeleteExtraction(id); err != nil {
		corsError(w, "Error deleting extraction", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
