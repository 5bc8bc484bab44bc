package services

import (
	"context"
	"errors"
	"path"
	"time"

	"venue-crm-backend/pkg/database"
	"venue-crm-backend/pkg/models"
	"venue-crm-backend/pkg/utils"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var bookingSortColumns = map[string]string{
	"status":       "status",
	"eventDate":    "event_date",
	"optionExpiry": "option_expiry",
	"totalValue":   "total_value",
	"createdAt":    "created_at",
	"updatedAt":    "updated_at",
}

// CreateBookingInput converts one venue option of a proposal into a booking.
type CreateBookingInput struct {
	ProposalID   string     `json:"proposalId" validate:"required"`
	VenueID      string     `json:"venueId" validate:"required"`
	EventDate    *time.Time `json:"eventDate"`
	OptionExpiry *time.Time `json:"optionExpiry"`
	Notes        *string    `json:"notes"`
}

// UpdateBookingInput is the body of PUT /api/bookings/{id}. A status change
// goes through the same workflow check as PATCH /status.
type UpdateBookingInput struct {
	EventDate        *time.Time            `json:"eventDate"`
	OptionExpiry     *time.Time            `json:"optionExpiry"`
	TotalValue       *decimal.Decimal      `json:"totalValue" validate:"omitempty,gte=0"`
	CommissionAmount *decimal.Decimal      `json:"commissionAmount" validate:"omitempty,gte=0"`
	Notes            *string               `json:"notes"`
	Status           *models.BookingStatus `json:"status"`
}

// StatusChangeInput is the body of PATCH /api/bookings/{id}/status.
type StatusChangeInput struct {
	Status       models.BookingStatus `json:"status" validate:"required"`
	OptionExpiry *time.Time           `json:"optionExpiry"`
}

// BookingService manages bookings and drives the status workflow.
type BookingService struct {
	db  database.DatabaseInterface
	now func() time.Time
}

func NewBookingService(db database.DatabaseInterface) *BookingService {
	return &BookingService{db: db, now: time.Now}
}

func preloadBooking(tx *gorm.DB) *gorm.DB {
	return tx.Preload("Client").Preload("Venue").Preload("Proposal").
		Preload("Claims", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") })
}

func (s *BookingService) List(ctx context.Context, user *models.User, params ListParams) (*Page[models.Booking], error) {
	query := s.db.DB(ctx).Model(&models.Booking{}).
		Scopes(database.OwnedBy(user, "created_by_id"))
	if status := params.Filter("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if clientID := params.Filter("clientId"); clientID != "" {
		query = query.Where("client_id = ?", clientID)
	}
	if venueID := params.Filter("venueId"); venueID != "" {
		query = query.Where("venue_id = ?", venueID)
	}

	items, total, err := database.FindPage[models.Booking](query, params.Pagination,
		database.Sort(params.SortBy, params.SortOrder, bookingSortColumns),
		func(db *gorm.DB) *gorm.DB { return db.Preload("Client").Preload("Venue") })
	if err != nil {
		return nil, database.TranslateError(err)
	}
	return &Page[models.Booking]{Items: items, Total: total}, nil
}

func (s *BookingService) Get(ctx context.Context, user *models.User, id string) (*models.Booking, error) {
	return loadOwned[models.Booking](preloadBooking(s.db.DB(ctx)), user, id, "Booking")
}

// Create books one venue option of a proposal. The booking inherits the
// proposal's client and the option's totals, and starts at proposal_sent
// when the proposal has already been sent.
func (s *BookingService) Create(ctx context.Context, user *models.User, in CreateBookingInput) (*models.Booking, error) {
	in.Notes = utils.NullableString(in.Notes)
	if err := utils.Validate(in); err != nil {
		return nil, err
	}

	var bookingID string
	err := s.db.WithTransaction(ctx, func(tx *gorm.DB) error {
		proposal, err := loadOwned[models.Proposal](tx, user, in.ProposalID, "Proposal")
		if err != nil {
			if utils.AsAppError(err).Code == utils.CodeNotFound {
				return utils.NewValidationError("proposalId does not reference an existing proposal", "proposalId")
			}
			return err
		}

		var option models.ProposalVenue
		if err := tx.Where("proposal_id = ? AND venue_id = ?", proposal.ID, in.VenueID).First(&option).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return utils.NewValidationError("venueId is not a venue option of this proposal", "venueId")
			}
			return err
		}

		status := models.BookingStatusDraft
		if proposal.Status == models.ProposalStatusSent {
			status = models.BookingStatusProposalSent
		}
		eventDate := in.EventDate
		if eventDate == nil {
			eventDate = proposal.EventDate
		}

		booking := &models.Booking{
			ProposalID:       proposal.ID,
			ClientID:         proposal.ClientID,
			VenueID:          in.VenueID,
			Status:           status,
			EventDate:        eventDate,
			OptionExpiry:     in.OptionExpiry,
			TotalValue:       option.Subtotal,
			CommissionAmount: option.Commission,
			Documents:        []models.DocumentRef{},
			Notes:            in.Notes,
			CreatedByID:      user.ID,
		}
		if err := tx.Create(booking).Error; err != nil {
			return err
		}
		bookingID = booking.ID
		return nil
	})
	if err != nil {
		return nil, database.TranslateError(err)
	}
	return s.Get(ctx, user, bookingID)
}

func (s *BookingService) Update(ctx context.Context, user *models.User, id string, in UpdateBookingInput) (*models.Booking, error) {
	if err := utils.Validate(in); err != nil {
		return nil, err
	}

	err := s.db.WithTransaction(ctx, func(tx *gorm.DB) error {
		booking, err := loadOwned[models.Booking](tx, user, id, "Booking")
		if err != nil {
			return err
		}

		updates := make(map[string]interface{})
		if in.EventDate != nil {
			updates["event_date"] = in.EventDate
		}
		if in.OptionExpiry != nil {
			updates["option_expiry"] = in.OptionExpiry
		}
		if in.TotalValue != nil {
			updates["total_value"] = in.TotalValue.Round(2)
		}
		if in.CommissionAmount != nil {
			updates["commission_amount"] = in.CommissionAmount.Round(2)
		}
		setOptional(updates, "notes", in.Notes)
		if in.Status != nil {
			if err := applyTransition(booking, *in.Status, in.OptionExpiry, s.now(), updates); err != nil {
				return err
			}
		}

		if len(updates) == 0 {
			return nil
		}
		return tx.Model(booking).Updates(updates).Error
	})
	if err != nil {
		return nil, database.TranslateError(err)
	}
	return s.Get(ctx, user, id)
}

// ChangeStatus moves the booking one step along the workflow.
func (s *BookingService) ChangeStatus(ctx context.Context, user *models.User, id string, in StatusChangeInput) (*models.Booking, error) {
	if err := utils.Validate(in); err != nil {
		return nil, err
	}

	err := s.db.WithTransaction(ctx, func(tx *gorm.DB) error {
		booking, err := loadOwned[models.Booking](tx, user, id, "Booking")
		if err != nil {
			return err
		}
		updates := make(map[string]interface{})
		if in.OptionExpiry != nil {
			updates["option_expiry"] = in.OptionExpiry
		}
		if err := applyTransition(booking, in.Status, in.OptionExpiry, s.now(), updates); err != nil {
			return err
		}
		if len(updates) == 0 {
			return nil
		}
		return tx.Model(booking).Updates(updates).Error
	})
	if err != nil {
		return nil, database.TranslateError(err)
	}
	return s.Get(ctx, user, id)
}

// applyTransition validates from -> to and records the side effects in updates.
func applyTransition(b *models.Booking, to models.BookingStatus, optionExpiry *time.Time, now time.Time, updates map[string]interface{}) error {
	if !to.IsValid() {
		return utils.NewValidationError("status must be one of [draft proposal_sent option confirmed completed]", "status")
	}
	if b.Status == to {
		return nil
	}
	if !models.CanTransition(b.Status, to) {
		return utils.NewInvalidTransitionError(string(b.Status), string(to))
	}

	switch to {
	case models.BookingStatusOption:
		if optionExpiry == nil && b.OptionExpiry == nil {
			return utils.NewValidationError("optionExpiry is required to hold an option", "optionExpiry")
		}
	case models.BookingStatusConfirmed:
		updates["confirmed_at"] = now
	case models.BookingStatusCompleted:
		updates["completed_at"] = now
	}
	updates["status"] = to
	return nil
}

// AddDocument appends an uploaded document reference to the booking.
func (s *BookingService) AddDocument(ctx context.Context, user *models.User, id string, ref models.DocumentRef) (*models.Booking, error) {
	err := s.db.WithTransaction(ctx, func(tx *gorm.DB) error {
		booking, err := loadOwned[models.Booking](tx, user, id, "Booking")
		if err != nil {
			return err
		}
		booking.Documents = append(booking.Documents, ref)
		return tx.Model(booking).Select("Documents").Updates(booking).Error
	})
	if err != nil {
		return nil, database.TranslateError(err)
	}
	return s.Get(ctx, user, id)
}

// Authorize loads the booking only to check the caller may act on it.
func (s *BookingService) Authorize(ctx context.Context, user *models.User, id string) error {
	_, err := loadOwned[models.Booking](s.db.DB(ctx), user, id, "Booking")
	return err
}

// Document returns the ref of a document attached to the booking, matched by
// the last segment of its storage key.
func (s *BookingService) Document(ctx context.Context, user *models.User, id, name string) (*models.DocumentRef, error) {
	booking, err := loadOwned[models.Booking](s.db.DB(ctx), user, id, "Booking")
	if err != nil {
		return nil, err
	}
	for i := range booking.Documents {
		if path.Base(booking.Documents[i].Key) == name {
			return &booking.Documents[i], nil
		}
	}
	return nil, utils.NewNotFoundError("Document")
}

// Delete removes the booking together with its commission claims.
func (s *BookingService) Delete(ctx context.Context, user *models.User, id string) error {
	err := s.db.WithTransaction(ctx, func(tx *gorm.DB) error {
		booking, err := loadOwned[models.Booking](tx, user, id, "Booking")
		if err != nil {
			return err
		}
		if err := tx.Where("booking_id = ?", id).Delete(&models.CommissionClaim{}).Error; err != nil {
			return err
		}
		return tx.Delete(booking).Error
	})
	return database.TranslateError(err)
}
