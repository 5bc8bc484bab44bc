package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"venue-crm-backend/pkg/database"
	"venue-crm-backend/pkg/models"
	"venue-crm-backend/pkg/utils"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const invoicePrefix = "INV"

var claimSortColumns = map[string]string{
	"status":        "status",
	"amount":        "amount",
	"invoiceNumber": "invoice_number",
	"sentDate":      "sent_date",
	"dueDate":       "due_date",
	"createdAt":     "created_at",
	"updatedAt":     "updated_at",
}

// CreateClaimInput is the body of POST /api/claims.
type CreateClaimInput struct {
	BookingID     string              `json:"bookingId" validate:"required"`
	Amount        *decimal.Decimal    `json:"amount" validate:"omitempty,gte=0"`
	InvoiceNumber *string             `json:"invoiceNumber" validate:"omitempty,max=50"`
	Status        *models.ClaimStatus `json:"status" validate:"omitempty,oneof=draft sent paid overdue"`
	DueDate       *time.Time          `json:"dueDate"`
	Notes         *string             `json:"notes"`
}

// UpdateClaimInput is the body of PUT /api/claims/{id}.
type UpdateClaimInput struct {
	Amount        *decimal.Decimal    `json:"amount" validate:"omitempty,gte=0"`
	InvoiceNumber *string             `json:"invoiceNumber" validate:"omitempty,max=50"`
	Status        *models.ClaimStatus `json:"status" validate:"omitempty,oneof=draft sent paid overdue"`
	DueDate       *time.Time          `json:"dueDate"`
	Notes         *string             `json:"notes"`
}

// ClaimService manages commission claims and allocates invoice numbers.
type ClaimService struct {
	db           database.DatabaseInterface
	locker       Locker
	paymentTerms time.Duration
	now          func() time.Time
}

// NewClaimService builds the service. A nil locker falls back to an in-process one.
func NewClaimService(db database.DatabaseInterface, locker Locker, paymentTermsDays int) *ClaimService {
	if locker == nil {
		locker = NewLocalLocker()
	}
	if paymentTermsDays <= 0 {
		paymentTermsDays = 30
	}
	return &ClaimService{
		db:           db,
		locker:       locker,
		paymentTerms: time.Duration(paymentTermsDays) * 24 * time.Hour,
		now:          time.Now,
	}
}

func (s *ClaimService) List(ctx context.Context, user *models.User, params ListParams) (*Page[models.CommissionClaim], error) {
	query := s.db.DB(ctx).Model(&models.CommissionClaim{}).
		Scopes(database.OwnedBy(user, "created_by_id")).
		Scopes(database.Search(params.Search, "invoice_number"))
	if status := params.Filter("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if bookingID := params.Filter("bookingId"); bookingID != "" {
		query = query.Where("booking_id = ?", bookingID)
	}

	items, total, err := database.FindPage[models.CommissionClaim](query, params.Pagination,
		database.Sort(params.SortBy, params.SortOrder, claimSortColumns),
		func(db *gorm.DB) *gorm.DB { return db.Preload("Booking") })
	if err != nil {
		return nil, database.TranslateError(err)
	}
	return &Page[models.CommissionClaim]{Items: items, Total: total}, nil
}

func (s *ClaimService) Get(ctx context.Context, user *models.User, id string) (*models.CommissionClaim, error) {
	return loadOwned[models.CommissionClaim](s.db.DB(ctx), user, id, "Claim",
		"Booking", "Booking.Venue", "Booking.Client")
}

// Create records a claim against a booking. The amount defaults to the
// booking's commission and a missing invoice number is allocated.
func (s *ClaimService) Create(ctx context.Context, user *models.User, in CreateClaimInput) (*models.CommissionClaim, error) {
	blankToNil(&in.InvoiceNumber, &in.Notes)
	if err := utils.Validate(in); err != nil {
		return nil, err
	}

	now := s.now()
	var claimID string
	create := func(invoiceNumber *string) error {
		return s.db.WithTransaction(ctx, func(tx *gorm.DB) error {
			booking, err := loadOwned[models.Booking](tx, user, in.BookingID, "Booking")
			if err != nil {
				if utils.AsAppError(err).Code == utils.CodeNotFound {
					return utils.NewValidationError("bookingId does not reference an existing booking", "bookingId")
				}
				return err
			}
			if invoiceNumber == nil {
				next, err := nextInvoiceNumber(tx, now)
				if err != nil {
					return err
				}
				invoiceNumber = &next
			}

			claim := &models.CommissionClaim{
				BookingID:     booking.ID,
				Status:        models.ClaimStatusDraft,
				Amount:        booking.CommissionAmount,
				InvoiceNumber: invoiceNumber,
				DueDate:       in.DueDate,
				Notes:         in.Notes,
				CreatedByID:   user.ID,
			}
			if in.Amount != nil {
				claim.Amount = in.Amount.Round(2)
			}
			if in.Status != nil {
				s.stampStatus(claim, *in.Status, now)
			}
			if err := tx.Create(claim).Error; err != nil {
				return err
			}
			claimID = claim.ID
			return nil
		})
	}

	var err error
	if in.InvoiceNumber != nil {
		err = create(in.InvoiceNumber)
	} else {
		err = s.withInvoiceLock(ctx, now, func() error { return create(nil) })
	}
	if err != nil {
		return nil, database.TranslateError(err)
	}
	return s.Get(ctx, user, claimID)
}

func (s *ClaimService) Update(ctx context.Context, user *models.User, id string, in UpdateClaimInput) (*models.CommissionClaim, error) {
	clean := in
	blankToNil(&clean.InvoiceNumber, &clean.Notes)
	if err := utils.Validate(clean); err != nil {
		return nil, err
	}

	err := s.db.WithTransaction(ctx, func(tx *gorm.DB) error {
		claim, err := loadOwned[models.CommissionClaim](tx, user, id, "Claim")
		if err != nil {
			return err
		}

		updates := make(map[string]interface{})
		if in.Amount != nil {
			updates["amount"] = in.Amount.Round(2)
		}
		setOptional(updates, "invoice_number", in.InvoiceNumber)
		setOptional(updates, "notes", in.Notes)
		if in.DueDate != nil {
			updates["due_date"] = in.DueDate
		}
		if in.Status != nil && *in.Status != claim.Status {
			s.stampStatus(claim, *in.Status, s.now())
			updates["status"] = claim.Status
			updates["sent_date"] = claim.SentDate
			updates["paid_date"] = claim.PaidDate
			if in.DueDate == nil {
				updates["due_date"] = claim.DueDate
			}
		}

		if len(updates) == 0 {
			return nil
		}
		return tx.Model(claim).Updates(updates).Error
	})
	if err != nil {
		return nil, database.TranslateError(err)
	}
	return s.Get(ctx, user, id)
}

// stampStatus moves the claim to status and fills the dates that go with it.
// Sent sets the sent date and a due date from the payment terms; paid sets
// the paid date. Existing dates are kept.
func (s *ClaimService) stampStatus(c *models.CommissionClaim, status models.ClaimStatus, now time.Time) {
	c.Status = status
	switch status {
	case models.ClaimStatusSent:
		if c.SentDate == nil {
			c.SentDate = &now
		}
		if c.DueDate == nil {
			due := c.SentDate.Add(s.paymentTerms)
			c.DueDate = &due
		}
	case models.ClaimStatusPaid:
		if c.SentDate == nil {
			c.SentDate = &now
		}
		if c.PaidDate == nil {
			c.PaidDate = &now
		}
	}
}

func (s *ClaimService) Delete(ctx context.Context, user *models.User, id string) error {
	err := s.db.WithTransaction(ctx, func(tx *gorm.DB) error {
		claim, err := loadOwned[models.CommissionClaim](tx, user, id, "Claim")
		if err != nil {
			return err
		}
		return tx.Delete(claim).Error
	})
	return database.TranslateError(err)
}

func (s *ClaimService) withInvoiceLock(ctx context.Context, now time.Time, fn func() error) error {
	unlock, err := s.locker.Lock(ctx, fmt.Sprintf("invoice:%d", now.Year()))
	if err != nil {
		return err
	}
	defer unlock()
	return fn()
}

// nextInvoiceNumber returns INV-YYYY-NNNN, one past the highest number issued this year.
func nextInvoiceNumber(tx *gorm.DB, now time.Time) (string, error) {
	prefix := fmt.Sprintf("%s-%d-", invoicePrefix, now.Year())

	var numbers []string
	err := tx.Model(&models.CommissionClaim{}).
		Where("invoice_number LIKE ?", prefix+"%").
		Pluck("invoice_number", &numbers).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", err
	}

	highest := 0
	for _, n := range numbers {
		seq, err := strconv.Atoi(strings.TrimPrefix(n, prefix))
		if err == nil && seq > highest {
			highest = seq
		}
	}
	return fmt.Sprintf("%s%04d", prefix, highest+1), nil
}
