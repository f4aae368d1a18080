package receipt

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"path/filepath"
	"strings"
	"time"
)

const (
	maxUploadSize  = 50 << 20
	maxExtractSize = 1 << 20
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}

// writeError maps a service error onto a status code and {"error": msg}
func writeError(w http.ResponseWriter, err error) {
	code := CodeOf(err)
	if code == CodeInternal {
		slog.Error("Request failed", "error", err)
	}
	writeJSON(w, HTTPStatus(code), map[string]string{"error": MessageOf(err)})
}

func badRequest(w http.ResponseWriter, message string) {
	writeError(w, newError(CodeInvalidArgument, message, nil))
}

func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxExtractSize))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// handleExtract runs the pipeline over posted text. Accepts either
// {"text": "..."} or a text/plain body.
func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	var text string
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		var req struct {
			Text string `json:"text"`
		}
		if err := decodeBody(r, &req); err != nil {
			badRequest(w, "Invalid request body")
			return
		}
		text = req.Text
	} else {
		body, err := io.ReadAll(io.LimitReader(r.Body, maxExtractSize))
		if err != nil {
			badRequest(w, "Error reading request body")
			return
		}
		text = string(body)
	}

	// blank text yields a null result
	writeJSON(w, http.StatusOK, s.service.Extract(text))
}

// handleListReceipts returns the user's receipts, optionally limited to a
// ?from=YYYY-MM-DD&to=YYYY-MM-DD range
func (s *Server) handleListReceipts(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r)
	from, to := r.URL.Query().Get("from"), r.URL.Query().Get("to")

	var (
		receipts []*Receipt
		err      error
	)
	if from != "" || to != "" {
		receipts, err = s.service.FindReceiptsInDateRange(user, from, to)
	} else {
		receipts, err = s.service.ListReceipts(user)
	}
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, receipts)
}

// handleUploadReceipt handles receipt upload
func (s *Server) handleUploadReceipt(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		slog.Error("Error parsing multipart form", "error", err)
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			badRequest(w, "File is too large. Maximum size is 50MB. Please compress or resize your image.")
			return
		}
		badRequest(w, "Error parsing form")
		return
	}

	f, header, err := r.FormFile("file")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			badRequest(w, "No file was selected. Please choose a file to upload.")
			return
		}
		badRequest(w, "No file provided")
		return
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		slog.Error("Error reading file data", "error", err, "filename", header.Filename)
		writeError(w, newError(CodeInternal, "Error reading file. Please try again.", err))
		return
	}

	contentType := uploadContentType(header.Header.Get("Content-Type"), header.Filename)

	receipt, err := s.service.UploadReceipt(userFrom(r), header.Filename, data, contentType)
	if err != nil {
		slog.Error("Error processing receipt", "filename", header.Filename, "error", err)
		if receipt == nil {
			writeError(w, err)
			return
		}
		writeJSON(w, HTTPStatus(CodeOf(err)), map[string]any{
			"error":   MessageOf(err),
			"receipt": receipt,
		})
		return
	}

	writeJSON(w, http.StatusCreated, receipt)
}

// uploadContentType falls back to the file extension when the part has no
// usable Content-Type
func uploadContentType(declared, filename string) string {
	declared = strings.ToLower(strings.TrimSpace(declared))
	if declared != "" && declared != "application/octet-stream" {
		return declared
	}
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".pdf":
		return "application/pdf"
	case ".heic":
		return "image/heic"
	case ".heif":
		return "image/heif"
	case ".txt":
		return "text/plain"
	default:
		return "application/octet-stream"
	}
}

func (s *Server) handleGetReceipt(w http.ResponseWriter, r *http.Request) {
	receipt, err := s.service.GetReceipt(userFrom(r), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, receipt)
}

func (s *Server) handleUpdateReceipt(w http.ResponseWriter, r *http.Request) {
	var update ReceiptUpdate
	if err := decodeBody(r, &update); err != nil {
		badRequest(w, "Invalid request body")
		return
	}

	receipt, err := s.service.UpdateReceipt(userFrom(r), r.PathValue("id"), update)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, receipt)
}

func (s *Server) handleDeleteReceipt(w http.ResponseWriter, r *http.Request) {
	if err := s.service.DeleteReceipt(userFrom(r), r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGetReceiptFile(w http.ResponseWriter, r *http.Request) {
	data, contentType, err := s.service.GetReceiptFile(userFrom(r), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", contentType)
	if _, err := w.Write(data); err != nil {
		slog.Error("Error writing receipt file", "error", err)
	}
}

// handleProcessReceipt re-runs text detection and extraction
func (s *Server) handleProcessReceipt(w http.ResponseWriter, r *http.Request) {
	receipt, err := s.service.ProcessReceipt(userFrom(r), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, receipt)
}

func (s *Server) handleAssignTrip(w http.ResponseWriter, r *http.Request) {
	var req struct {
		TripID   string `json:"tripId"`
		TripName string `json:"tripName"`
	}
	if err := decodeBody(r, &req); err != nil {
		badRequest(w, "Invalid request body")
		return
	}

	receipt, err := s.service.AssignReceiptToTrip(userFrom(r), r.PathValue("id"), req.TripID, req.TripName)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, receipt)
}

func (s *Server) handleExportReceipts(w http.ResponseWriter, r *http.Request) {
	from, to := r.URL.Query().Get("from"), r.URL.Query().Get("to")
	data, err := s.service.ExportReceiptsXLSX(userFrom(r), from, to)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="receipts.xlsx"`)
	if _, err := w.Write(data); err != nil {
		slog.Error("Error writing export", "error", err)
	}
}

func (s *Server) handleListTrips(w http.ResponseWriter, r *http.Request) {
	trips, err := s.service.ListTrips(userFrom(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, trips)
}

func (s *Server) handleCreateTrip(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name      string `json:"name"`
		StartDate string `json:"startDate"`
		EndDate   string `json:"endDate"`
		Location  string `json:"location"`
	}
	if err := decodeBody(r, &req); err != nil {
		badRequest(w, "Invalid request body")
		return
	}

	trip, err := s.service.CreateTrip(userFrom(r), req.Name, req.StartDate, req.EndDate, req.Location)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, trip)
}

// handleGetTrip returns a trip with its receipts
func (s *Server) handleGetTrip(w http.ResponseWriter, r *http.Request) {
	trip, receipts, err := s.service.GetTripWithReceipts(userFrom(r), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"trip":     trip,
		"receipts": receipts,
	})
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := s.service.GetSettings(userFrom(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

func (s *Server) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	var update SettingsUpdate
	if err := decodeBody(r, &update); err != nil {
		badRequest(w, "Invalid request body")
		return
	}

	settings, err := s.service.UpdateSettings(userFrom(r), update)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "ok",
		"message":   "Receipt Manager",
		"version":   s.version,
		"timestamp": s.service.timeSource.Now().Format(time.RFC3339),
	})
}
