package receipt

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/zombor/receipt-manager/internal/extraction"
	"github.com/zombor/receipt-manager/internal/metrics"
	"github.com/zombor/receipt-manager/internal/scanning"
)

const dateLayout = "2006-01-02"

// IDGenerator generates unique IDs for receipts and trips
type IDGenerator interface {
	Generate() string
}

// TimeSource provides the current time
type TimeSource interface {
	Now() time.Time
}

type uuidGenerator struct{}

func (uuidGenerator) Generate() string {
	return uuid.NewString()
}

type systemClock struct{}

func (systemClock) Now() time.Time {
	return time.Now().UTC()
}

// Service owns the receipt lifecycle: upload, text detection, field
// extraction, user edits, trips and settings
type Service struct {
	db          DB
	scanner     scanning.Scanner
	storage     Storage
	idGenerator IDGenerator
	timeSource  TimeSource
	pipeline    *extraction.Pipeline
	metrics     *metrics.Metrics
}

// NewService creates a new Service with UUID ids and the system clock.
// scanner may be nil, in which case processing reports unavailable.
func NewService(db DB, scanner scanning.Scanner, storage Storage) *Service {
	return NewServiceWithDeps(db, scanner, storage, uuidGenerator{}, systemClock{})
}

// NewServiceWithDeps creates a new Service with custom dependencies for testing
func NewServiceWithDeps(db DB, scanner scanning.Scanner, storage Storage, idGen IDGenerator, timeSrc TimeSource) *Service {
	return &Service{
		db:          db,
		scanner:     scanner,
		storage:     storage,
		idGenerator: idGen,
		timeSource:  timeSrc,
		pipeline:    extraction.NewPipelineWithClock(timeSrc.Now),
	}
}

// SetMetrics enables processing metrics
func (s *Service) SetMetrics(m *metrics.Metrics) {
	s.metrics = m
}

// Extract runs the extraction pipeline over already-detected text
func (s *Service) Extract(text string) *extraction.Result {
	start := time.Now()
	result := s.pipeline.Extract(text)
	s.metrics.ObserveExtraction(time.Since(start), result)
	return result
}

var (
	reFilenameUnsafe = regexp.MustCompile(`[^a-zA-Z0-9\s\-_]`)
	reWhitespace     = regexp.MustCompile(`\s+`)
	reExtension      = regexp.MustCompile(`^\.[a-zA-Z0-9]{1,8}$`)
)

// sanitizeFilename trims phone-generated names down to a short, path-safe form
func sanitizeFilename(filename string) string {
	filename = filepath.Base(strings.ReplaceAll(filename, `\`, "/"))
	ext := filepath.Ext(filename)
	base := strings.TrimSuffix(filename, ext)
	if !reExtension.MatchString(ext) {
		ext = ""
	}

	base = reFilenameUnsafe.ReplaceAllString(base, "")
	base = strings.TrimSpace(reWhitespace.ReplaceAllString(base, " "))

	if len(base) > 50 {
		base = base[:50]
	}
	if base == "" {
		base = "receipt"
	}
	return base + strings.ToLower(ext)
}

// UploadReceipt stores a new upload and processes it. When processing
// fails the receipt stays stored with status error and is returned along
// with the error.
func (s *Service) UploadReceipt(userID, filename string, data []byte, contentType string) (*Receipt, error) {
	if userID == "" {
		return nil, newError(CodeUnauthenticated, "user must be authenticated", nil)
	}
	if len(data) == 0 {
		return nil, newError(CodeInvalidArgument, "file is empty", nil)
	}

	id := s.idGenerator.Generate()
	now := s.timeSource.Now()
	cleanFilename := sanitizeFilename(filename)

	savedPath, err := s.storage.Save(fmt.Sprintf("%s/%s_%s", userID, id, cleanFilename), data)
	if err != nil {
		return nil, newError(CodeInternal, "saving file failed", err)
	}

	receipt := &Receipt{
		ID:          id,
		UserID:      userID,
		Filename:    savedPath,
		ContentType: contentType,
		Status:      StatusUploaded,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.db.SaveReceipt(receipt); err != nil {
		if delErr := s.storage.Delete(savedPath); delErr != nil {
			slog.Warn("Failed to clean up file", "filename", savedPath, "error", delErr)
		}
		return nil, newError(CodeInternal, "saving receipt failed", err)
	}

	slog.Info("Receipt uploaded", "receipt_id", id, "user_id", userID, "content_type", contentType, "file_size", len(data))

	processed, err := s.ProcessReceipt(userID, id)
	if err != nil {
		if stored, getErr := s.db.GetReceipt(id); getErr == nil {
			return stored, err
		}
		receipt.Status = StatusError
		receipt.Error = failureMessage(err)
		return receipt, err
	}
	return processed, nil
}

// ProcessReceipt detects the text on a stored receipt, extracts its fields
// and saves them with status processed
func (s *Service) ProcessReceipt(userID, receiptID string) (*Receipt, error) {
	if userID == "" {
		return nil, newError(CodeUnauthenticated, "user must be authenticated", nil)
	}
	if receiptID == "" {
		return nil, newError(CodeInvalidArgument, "receipt id is required", nil)
	}
	if s.scanner == nil {
		return nil, newError(CodeUnavailable, "text detection is not configured", nil)
	}

	receipt, err := s.ownedReceipt(userID, receiptID)
	if err != nil {
		return nil, err
	}

	processed, err := s.process(receipt)
	if err != nil {
		slog.Error("Failed to process receipt", "receipt_id", receiptID, "user_id", userID, "error", err)
		s.markFailed(receipt, err)
		s.metrics.ReceiptProcessed(string(StatusError))
		return nil, classify(err, "processing receipt failed")
	}

	s.metrics.ReceiptProcessed(string(StatusProcessed))
	slog.Info("Receipt processed",
		"receipt_id", receiptID,
		"date", deref(processed.Date),
		"total", derefFloat(processed.Total),
		"category", processed.SuggestedCategory,
		"potential_trip", processed.ExtractedData.IsPotentialTrip,
	)
	return processed, nil
}

// process works on a copy so a failure part way through leaves the
// original record untouched for markFailed
func (s *Service) process(original *Receipt) (*Receipt, error) {
	data, err := s.storage.Get(original.Filename)
	if err != nil {
		return nil, fmt.Errorf("loading receipt file: %w", err)
	}

	start := time.Now()
	text, err := s.scanner.ScanText(data, original.ContentType)
	s.metrics.ObserveOCR(time.Since(start))
	if err != nil {
		if errors.Is(err, scanning.ErrUnsupportedContentType) {
			return nil, newError(CodeInvalidArgument, "unsupported file type", err)
		}
		return nil, fmt.Errorf("detecting text: %w", err)
	}
	if strings.TrimSpace(text) == "" {
		return nil, newError(CodeNotFound, "no text found in image", nil)
	}

	result := s.Extract(text)

	home, err := s.defaultLocation(original.UserID)
	if err != nil {
		return nil, err
	}

	now := s.timeSource.Now()
	receipt := *original
	receipt.Status = StatusProcessed
	receipt.Error = ""
	// a missed field keeps the stored value, which may be a user correction
	if result.Date != nil {
		receipt.Date = result.Date
	}
	if result.Total != nil {
		receipt.Total = result.Total
	}
	if result.Merchant != nil {
		receipt.Merchant = result.Merchant
	}
	if result.Location != nil {
		receipt.Location = result.Location
	}
	receipt.SuggestedCategory = result.SuggestedCategory
	if receipt.Category == "" {
		receipt.Category = string(result.SuggestedCategory)
	}
	receipt.ExtractedText = text
	receipt.ExtractedData = &ExtractedData{
		Date:              result.Date,
		Total:             result.Total,
		Merchant:          result.Merchant,
		Location:          result.Location,
		SuggestedCategory: result.SuggestedCategory,
		IsPotentialTrip:   extraction.IsPotentialTrip(result.Location, home),
		Lines:             result.Lines,
		ExtractedAt:       result.ExtractedAt,
	}
	receipt.ProcessedAt = &now
	receipt.UpdatedAt = now

	if err := s.db.SaveReceipt(&receipt); err != nil {
		return nil, fmt.Errorf("saving receipt: %w", err)
	}
	return &receipt, nil
}

// markFailed records status error. A failed write is logged and never
// replaces the processing error.
func (s *Service) markFailed(receipt *Receipt, cause error) {
	failed := *receipt
	failed.Status = StatusError
	failed.Error = failureMessage(cause)
	failed.UpdatedAt = s.timeSource.Now()
	if err := s.db.SaveReceipt(&failed); err != nil {
		slog.Error("Failed to record receipt error status", "receipt_id", receipt.ID, "error", err)
	}
}

func failureMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

func (s *Service) defaultLocation(userID string) (*extraction.Location, error) {
	settings, err := s.db.GetSettings(userID)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading user settings: %w", err)
	}
	return settings.DefaultLocation, nil
}

// ownedReceipt loads a receipt and checks it belongs to userID
func (s *Service) ownedReceipt(userID, receiptID string) (*Receipt, error) {
	if userID == "" {
		return nil, newError(CodeUnauthenticated, "user must be authenticated", nil)
	}
	if receiptID == "" {
		return nil, newError(CodeInvalidArgument, "receipt id is required", nil)
	}

	receipt, err := s.db.GetReceipt(receiptID)
	if errors.Is(err, ErrNotFound) {
		return nil, newError(CodeNotFound, "receipt not found", err)
	}
	if err != nil {
		return nil, newError(CodeInternal, "loading receipt failed", err)
	}
	if receipt.UserID != userID {
		return nil, newError(CodePermissionDenied, "receipt not found or access denied", nil)
	}
	return receipt, nil
}

// GetReceipt retrieves one of the user's receipts
func (s *Service) GetReceipt(userID, id string) (*Receipt, error) {
	return s.ownedReceipt(userID, id)
}

// ListReceipts returns the user's receipts, newest receipt date first
func (s *Service) ListReceipts(userID string) ([]*Receipt, error) {
	if userID == "" {
		return nil, newError(CodeUnauthenticated, "user must be authenticated", nil)
	}
	receipts, err := s.db.ListReceipts(userID)
	if err != nil {
		return nil, newError(CodeInternal, "listing receipts failed", err)
	}
	sort.SliceStable(receipts, func(i, j int) bool {
		a, b := deref(receipts[i].Date), deref(receipts[j].Date)
		if a != b {
			return a > b
		}
		return receipts[i].CreatedAt.After(receipts[j].CreatedAt)
	})
	return receipts, nil
}

// FindReceiptsInDateRange returns the user's receipts dated within
// [start, end], both inclusive and formatted YYYY-MM-DD
func (s *Service) FindReceiptsInDateRange(userID, start, end string) ([]*Receipt, error) {
	if err := validateRange(start, end); err != nil {
		return nil, err
	}

	receipts, err := s.ListReceipts(userID)
	if err != nil {
		return nil, err
	}

	inRange := make([]*Receipt, 0, len(receipts))
	for _, r := range receipts {
		if r.Date != nil && *r.Date >= start && *r.Date <= end {
			inRange = append(inRange, r)
		}
	}
	sort.SliceStable(inRange, func(i, j int) bool {
		return *inRange[i].Date < *inRange[j].Date
	})

	slog.Debug("Found receipts in date range", "user_id", userID, "start", start, "end", end, "count", len(inRange))
	return inRange, nil
}

func validateRange(start, end string) error {
	if start == "" || end == "" {
		return newError(CodeInvalidArgument, "start and end dates are required", nil)
	}
	if !validDate(start) || !validDate(end) {
		return newError(CodeInvalidArgument, "dates must be formatted YYYY-MM-DD", nil)
	}
	if start > end {
		return newError(CodeInvalidArgument, "start date is after end date", nil)
	}
	return nil
}

func validDate(s string) bool {
	_, err := time.Parse(dateLayout, s)
	return err == nil
}

// UpdateReceipt applies user corrections to the editable fields
func (s *Service) UpdateReceipt(userID, id string, update ReceiptUpdate) (*Receipt, error) {
	receipt, err := s.ownedReceipt(userID, id)
	if err != nil {
		return nil, err
	}

	if update.Date != nil {
		if !validDate(*update.Date) {
			return nil, newError(CodeInvalidArgument, "date must be formatted YYYY-MM-DD", nil)
		}
		date := *update.Date
		receipt.Date = &date
	}
	if update.Total != nil {
		if *update.Total < 0 {
			return nil, newError(CodeInvalidArgument, "total cannot be negative", nil)
		}
		total := *update.Total
		receipt.Total = &total
	}
	if update.Category != nil {
		category := strings.TrimSpace(*update.Category)
		if category == "" {
			return nil, newError(CodeInvalidArgument, "category cannot be empty", nil)
		}
		receipt.Category = category
	}

	receipt.UpdatedAt = s.timeSource.Now()
	if err := s.db.SaveReceipt(receipt); err != nil {
		return nil, newError(CodeInternal, "saving receipt failed", err)
	}
	return receipt, nil
}

// DeleteReceipt removes a receipt, its file and any trip membership
func (s *Service) DeleteReceipt(userID, id string) error {
	receipt, err := s.ownedReceipt(userID, id)
	if err != nil {
		return err
	}

	if err := s.storage.Delete(receipt.Filename); err != nil {
		slog.Warn("Failed to delete file", "filename", receipt.Filename, "error", err)
	}

	if err := s.db.DeleteReceipt(id); err != nil {
		return newError(CodeInternal, "deleting receipt failed", err)
	}

	removed, err := s.removeFromTrips(userID, id)
	if err != nil {
		return newError(CodeInternal, "removing receipt from trips failed", err)
	}
	if removed > 0 {
		slog.Info("Removed receipt from trips", "receipt_id", id, "trips", removed)
	}
	return nil
}

// GetReceiptFile retrieves the uploaded file for a receipt
func (s *Service) GetReceiptFile(userID, id string) ([]byte, string, error) {
	receipt, err := s.ownedReceipt(userID, id)
	if err != nil {
		return nil, "", err
	}

	data, err := s.storage.Get(receipt.Filename)
	if err != nil {
		return nil, "", newError(CodeNotFound, "receipt file not found", err)
	}
	return data, receipt.ContentType, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func derefFloat(f *float64) float64 {
	if f == nil {
		return 0
	}
	return *f
}
