package receipt

import (
	"errors"
	"log/slog"
	"slices"
	"sort"
	"strings"

	"github.com/zombor/receipt-manager/internal/extraction"
)

// CreateTrip creates an empty trip. Dates are YYYY-MM-DD and inclusive.
func (s *Service) CreateTrip(userID, name, startDate, endDate, location string) (*Trip, error) {
	if userID == "" {
		return nil, newError(CodeUnauthenticated, "user must be authenticated", nil)
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, newError(CodeInvalidArgument, "name, startDate, and endDate are required", nil)
	}
	if err := validateRange(startDate, endDate); err != nil {
		return nil, err
	}

	now := s.timeSource.Now()
	trip := &Trip{
		ID:         s.idGenerator.Generate(),
		UserID:     userID,
		Name:       name,
		StartDate:  startDate,
		EndDate:    endDate,
		Location:   strings.TrimSpace(location),
		ReceiptIDs: []string{},
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.db.SaveTrip(trip); err != nil {
		return nil, newError(CodeInternal, "failed to create trip", err)
	}

	slog.Info("Trip created", "trip_id", trip.ID, "name", name, "user_id", userID)
	return trip, nil
}

// AssignReceiptToTrip links a receipt to a trip. With a tripID the trip must
// exist and belong to the user; with only a tripName the receipt is labelled
// without a stored trip.
func (s *Service) AssignReceiptToTrip(userID, receiptID, tripID, tripName string) (*Receipt, error) {
	if userID == "" {
		return nil, newError(CodeUnauthenticated, "user must be authenticated", nil)
	}
	if receiptID == "" || (tripID == "" && strings.TrimSpace(tripName) == "") {
		return nil, newError(CodeInvalidArgument, "receiptId and either tripId or tripName are required", nil)
	}

	receipt, err := s.ownedReceipt(userID, receiptID)
	if err != nil {
		return nil, err
	}

	var trip *Trip
	if tripID != "" {
		trip, err = s.ownedTrip(userID, tripID)
		if err != nil {
			return nil, err
		}
		if strings.TrimSpace(tripName) == "" {
			tripName = trip.Name
		}
	}

	if receipt.TripID != "" && receipt.TripID != tripID {
		if _, err := s.removeFromTrips(userID, receiptID); err != nil {
			return nil, newError(CodeInternal, "failed to assign receipt to trip", err)
		}
	}

	now := s.timeSource.Now()
	if trip != nil && !slices.Contains(trip.ReceiptIDs, receiptID) {
		trip.ReceiptIDs = append(trip.ReceiptIDs, receiptID)
		trip.UpdatedAt = now
		if err := s.db.SaveTrip(trip); err != nil {
			return nil, newError(CodeInternal, "failed to assign receipt to trip", err)
		}
	}

	receipt.TripID = tripID
	receipt.TripName = strings.TrimSpace(tripName)
	receipt.UpdatedAt = now
	if err := s.db.SaveReceipt(receipt); err != nil {
		return nil, newError(CodeInternal, "failed to assign receipt to trip", err)
	}

	slog.Info("Receipt assigned to trip", "receipt_id", receiptID, "trip_id", tripID, "trip_name", receipt.TripName)
	return receipt, nil
}

// GetTripWithReceipts returns a trip and the receipts assigned to it
func (s *Service) GetTripWithReceipts(userID, tripID string) (*Trip, []*Receipt, error) {
	trip, err := s.ownedTrip(userID, tripID)
	if err != nil {
		return nil, nil, err
	}

	receipts := make([]*Receipt, 0, len(trip.ReceiptIDs))
	for _, id := range trip.ReceiptIDs {
		receipt, err := s.db.GetReceipt(id)
		if errors.Is(err, ErrNotFound) {
			slog.Warn("Trip references missing receipt", "trip_id", tripID, "receipt_id", id)
			continue
		}
		if err != nil {
			return nil, nil, newError(CodeInternal, "loading trip receipts failed", err)
		}
		receipts = append(receipts, receipt)
	}
	return trip, receipts, nil
}

// ListTrips returns the user's trips, latest start date first
func (s *Service) ListTrips(userID string) ([]*Trip, error) {
	if userID == "" {
		return nil, newError(CodeUnauthenticated, "user must be authenticated", nil)
	}
	trips, err := s.db.ListTrips(userID)
	if err != nil {
		return nil, newError(CodeInternal, "listing trips failed", err)
	}
	sort.SliceStable(trips, func(i, j int) bool {
		return trips[i].StartDate > trips[j].StartDate
	})
	return trips, nil
}

func (s *Service) ownedTrip(userID, tripID string) (*Trip, error) {
	if userID == "" {
		return nil, newError(CodeUnauthenticated, "user must be authenticated", nil)
	}
	if tripID == "" {
		return nil, newError(CodeInvalidArgument, "trip id is required", nil)
	}
	trip, err := s.db.GetTrip(tripID)
	if errors.Is(err, ErrNotFound) {
		return nil, newError(CodeNotFound, "trip not found", err)
	}
	if err != nil {
		return nil, newError(CodeInternal, "loading trip failed", err)
	}
	if trip.UserID != userID {
		return nil, newError(CodePermissionDenied, "trip not found or access denied", nil)
	}
	return trip, nil
}

// removeFromTrips drops receiptID from every trip of the user and reports
// how many trips changed
func (s *Service) removeFromTrips(userID, receiptID string) (int, error) {
	trips, err := s.db.ListTrips(userID)
	if err != nil {
		return 0, err
	}

	changed := 0
	for _, trip := range trips {
		if !slices.Contains(trip.ReceiptIDs, receiptID) {
			continue
		}
		trip.ReceiptIDs = slices.DeleteFunc(trip.ReceiptIDs, func(id string) bool { return id == receiptID })
		trip.UpdatedAt = s.timeSource.Now()
		if err := s.db.SaveTrip(trip); err != nil {
			return changed, err
		}
		changed++
	}
	return changed, nil
}

// SettingsUpdate holds a partial settings change; nil fields are kept
type SettingsUpdate struct {
	DefaultLocation *extraction.Location `json:"defaultLocation"`
	Preferences     map[string]string    `json:"preferences"`
}

// GetSettings returns the user's settings, or empty settings for a new user
func (s *Service) GetSettings(userID string) (*UserSettings, error) {
	if userID == "" {
		return nil, newError(CodeUnauthenticated, "user must be authenticated", nil)
	}
	settings, err := s.db.GetSettings(userID)
	if errors.Is(err, ErrNotFound) {
		return &UserSettings{UserID: userID}, nil
	}
	if err != nil {
		return nil, newError(CodeInternal, "loading settings failed", err)
	}
	return settings, nil
}

// UpdateSettings merges update into the stored settings. The default
// location drives potential-trip detection for later receipts.
func (s *Service) UpdateSettings(userID string, update SettingsUpdate) (*UserSettings, error) {
	settings, err := s.GetSettings(userID)
	if err != nil {
		return nil, err
	}

	if loc := update.DefaultLocation; loc != nil {
		home := *loc
		home.City = strings.TrimSpace(home.City)
		home.State = strings.ToUpper(strings.TrimSpace(home.State))
		if home.City == "" || home.State == "" {
			return nil, newError(CodeInvalidArgument, "default location needs a city and state", nil)
		}
		if home.Full == "" {
			home.Full = home.City + ", " + home.State
		}
		settings.DefaultLocation = &home
	}
	if update.Preferences != nil {
		if settings.Preferences == nil {
			settings.Preferences = make(map[string]string, len(update.Preferences))
		}
		for k, v := range update.Preferences {
			settings.Preferences[k] = v
		}
	}

	settings.UpdatedAt = s.timeSource.Now()
	if err := s.db.SaveSettings(settings); err != nil {
		return nil, newError(CodeInternal, "failed to update user settings", err)
	}

	slog.Info("User settings updated", "user_id", userID)
	return settings, nil
}
