package receipt

import (
	"time"

	"github.com/zombor/receipt-manager/internal/extraction"
)

// Status tracks where a receipt is in the processing lifecycle
type Status string

const (
	StatusUploaded  Status = "uploaded"
	StatusProcessed Status = "processed"
	StatusError     Status = "error"
)

// Receipt is a stored upload together with the fields extracted from it.
// Top-level Date, Total and Category are user-editable; ExtractedData keeps
// what the pipeline originally found.
type Receipt struct {
	ID                string               `json:"id"`
	UserID            string               `json:"userId"`
	Filename          string               `json:"filename"`
	ContentType       string               `json:"contentType"`
	Status            Status               `json:"status"`
	Error             string               `json:"error,omitempty"`
	Date              *string              `json:"date"` // YYYY-MM-DD
	Total             *float64             `json:"total"`
	Merchant          *string              `json:"merchant"`
	Category          string               `json:"category,omitempty"`
	SuggestedCategory extraction.Category  `json:"suggestedCategory,omitempty"`
	Location          *extraction.Location `json:"location"`
	ExtractedText     string               `json:"extractedText,omitempty"`
	ExtractedData     *ExtractedData       `json:"extractedData,omitempty"`
	TripID            string               `json:"tripId,omitempty"`
	TripName          string               `json:"tripName,omitempty"`
	ProcessedAt       *time.Time           `json:"processedAt,omitempty"`
	CreatedAt         time.Time            `json:"createdAt"`
	UpdatedAt         time.Time            `json:"updatedAt"`
}

// ExtractedData is the pipeline output as recorded at processing time
type ExtractedData struct {
	Date              *string              `json:"date"`
	Total             *float64             `json:"total"`
	Merchant          *string              `json:"merchant"`
	Location          *extraction.Location `json:"location"`
	SuggestedCategory extraction.Category  `json:"suggestedCategory"`
	IsPotentialTrip   bool                 `json:"isPotentialTrip"`
	Lines             []string             `json:"lines"`
	ExtractedAt       time.Time            `json:"extractedAt"`
}

// ReceiptUpdate holds user corrections; nil fields are left untouched
type ReceiptUpdate struct {
	Date     *string  `json:"date"`
	Total    *float64 `json:"total"`
	Category *string  `json:"category"`
}

// Trip groups receipts from a stretch of travel
type Trip struct {
	ID         string    `json:"id"`
	UserID     string    `json:"userId"`
	Name       string    `json:"name"`
	StartDate  string    `json:"startDate"` // YYYY-MM-DD
	EndDate    string    `json:"endDate"`   // YYYY-MM-DD
	Location   string    `json:"location,omitempty"`
	ReceiptIDs []string  `json:"receiptIds"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// UserSettings are per-user preferences
type UserSettings struct {
	UserID          string               `json:"userId"`
	DefaultLocation *extraction.Location `json:"defaultLocation"`
	Preferences     map[string]string    `json:"preferences,omitempty"`
	UpdatedAt       time.Time            `json:"updatedAt"`
}
