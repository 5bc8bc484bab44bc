package services

import (
	"context"
	"fmt"
	"time"

	"venue-crm-backend/pkg/database"
	"venue-crm-backend/pkg/models"
	"venue-crm-backend/pkg/utils"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var proposalSortColumns = map[string]string{
	"title":      "title",
	"status":     "status",
	"eventDate":  "event_date",
	"totalValue": "total_value",
	"createdAt":  "created_at",
	"updatedAt":  "updated_at",
}

// ChargeLineInput is one line of a venue option.
type ChargeLineInput struct {
	Description string                `json:"description" validate:"required,max=500"`
	Quantity    decimal.Decimal       `json:"quantity" validate:"gte=0"`
	UnitPrice   decimal.Decimal       `json:"unitPrice" validate:"gte=0"`
	Category    models.ChargeCategory `json:"category" validate:"omitempty,oneof=room_hire food_beverage av_equipment other"`
}

// ProposalVenueInput is one venue option with its charge lines.
type ProposalVenueInput struct {
	VenueID        string            `json:"venueId" validate:"required"`
	CommissionRate *decimal.Decimal  `json:"commissionRate" validate:"omitempty,gte=0,lte=100"`
	ChargeLines    []ChargeLineInput `json:"chargeLines" validate:"dive"`
	Notes          *string           `json:"notes"`
}

// CreateProposalInput is the body of POST /api/proposals.
type CreateProposalInput struct {
	ClientID   string               `json:"clientId" validate:"required"`
	Title      string               `json:"title" validate:"required,max=255"`
	EventDate  *time.Time           `json:"eventDate"`
	GuestCount *int                 `json:"guestCount" validate:"omitempty,gte=0"`
	Notes      *string              `json:"notes"`
	Venues     []ProposalVenueInput `json:"venues" validate:"dive"`
}

// UpdateProposalInput is the body of PUT /api/proposals/{id}. When Venues is
// present it replaces every venue option of the proposal.
type UpdateProposalInput struct {
	ClientID   *string                `json:"clientId" validate:"omitempty,min=1"`
	Title      *string                `json:"title" validate:"omitempty,min=1,max=255"`
	EventDate  *time.Time             `json:"eventDate"`
	GuestCount *int                   `json:"guestCount" validate:"omitempty,gte=0"`
	Notes      *string                `json:"notes"`
	Status     *models.ProposalStatus `json:"status" validate:"omitempty,oneof=draft sent"`
	Venues     *[]ProposalVenueInput  `json:"venues" validate:"omitempty,dive"`
}

// ProposalService manages proposals and their venue options.
type ProposalService struct {
	db database.DatabaseInterface
}

func NewProposalService(db database.DatabaseInterface) *ProposalService {
	return &ProposalService{db: db}
}

func preloadProposal(tx *gorm.DB) *gorm.DB {
	return tx.Preload("Client").
		Preload("Venues", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Preload("Venues.Venue")
}

func (s *ProposalService) List(ctx context.Context, user *models.User, params ListParams) (*Page[models.Proposal], error) {
	query := s.db.DB(ctx).Model(&models.Proposal{}).
		Scopes(database.OwnedBy(user, "created_by_id")).
		Scopes(database.Search(params.Search, "title"))
	if status := params.Filter("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if clientID := params.Filter("clientId"); clientID != "" {
		query = query.Where("client_id = ?", clientID)
	}

	items, total, err := database.FindPage[models.Proposal](query, params.Pagination,
		database.Sort(params.SortBy, params.SortOrder, proposalSortColumns),
		func(db *gorm.DB) *gorm.DB { return db.Preload("Client") })
	if err != nil {
		return nil, database.TranslateError(err)
	}
	return &Page[models.Proposal]{Items: items, Total: total}, nil
}

func (s *ProposalService) Get(ctx context.Context, user *models.User, id string) (*models.Proposal, error) {
	return s.get(preloadProposal(s.db.DB(ctx)), user, id)
}

func (s *ProposalService) get(tx *gorm.DB, user *models.User, id string) (*models.Proposal, error) {
	return loadOwned[models.Proposal](tx, user, id, "Proposal")
}

func (s *ProposalService) Create(ctx context.Context, user *models.User, in CreateProposalInput) (*models.Proposal, error) {
	in.Title = utils.StringValue(utils.NullableString(&in.Title))
	in.Notes = utils.NullableString(in.Notes)
	if err := utils.Validate(in); err != nil {
		return nil, err
	}

	var proposalID string
	err := s.db.WithTransaction(ctx, func(tx *gorm.DB) error {
		if err := requireClient(tx, user, in.ClientID, "clientId"); err != nil {
			return err
		}
		venues, err := buildProposalVenues(tx, user, in.Venues)
		if err != nil {
			return err
		}
		proposal := &models.Proposal{
			ClientID:    in.ClientID,
			Title:       in.Title,
			EventDate:   in.EventDate,
			GuestCount:  in.GuestCount,
			Notes:       in.Notes,
			Status:      models.ProposalStatusDraft,
			Venues:      venues,
			CreatedByID: user.ID,
		}
		proposal.TotalValue, proposal.ExpectedCommission = CalculateProposal(venues)
		if err := tx.Create(proposal).Error; err != nil {
			return err
		}
		proposalID = proposal.ID
		return nil
	})
	if err != nil {
		return nil, database.TranslateError(err)
	}
	return s.Get(ctx, user, proposalID)
}

func (s *ProposalService) Update(ctx context.Context, user *models.User, id string, in UpdateProposalInput) (*models.Proposal, error) {
	if err := utils.Validate(in); err != nil {
		return nil, err
	}

	err := s.db.WithTransaction(ctx, func(tx *gorm.DB) error {
		proposal, err := s.get(tx, user, id)
		if err != nil {
			return err
		}

		updates := make(map[string]interface{})
		if in.ClientID != nil && *in.ClientID != proposal.ClientID {
			if err := requireClient(tx, user, *in.ClientID, "clientId"); err != nil {
				return err
			}
			// Bookings copy the client, so it is fixed once any exist.
			check, err := CheckProposalDeletion(tx, id)
			if err != nil {
				return err
			}
			if !check.CanDelete {
				return utils.NewConflictError("Cannot change the client of a proposal that has bookings").
					WithField("clientId").
					WithDetails(check.Dependents)
			}
			updates["client_id"] = *in.ClientID
		}
		if in.Title != nil {
			title := utils.StringValue(utils.NullableString(in.Title))
			if title == "" {
				return utils.NewValidationError("title is required", "title")
			}
			updates["title"] = title
		}
		if in.EventDate != nil {
			updates["event_date"] = in.EventDate
		}
		if in.GuestCount != nil {
			updates["guest_count"] = *in.GuestCount
		}
		setOptional(updates, "notes", in.Notes)
		if in.Status != nil && *in.Status != proposal.Status {
			updates["status"] = *in.Status
			if *in.Status == models.ProposalStatusSent {
				updates["sent_at"] = time.Now()
			}
		}

		if in.Venues != nil {
			if err := tx.Where("proposal_id = ?", id).Delete(&models.ProposalVenue{}).Error; err != nil {
				return err
			}
			venues, err := buildProposalVenues(tx, user, *in.Venues)
			if err != nil {
				return err
			}
			for i := range venues {
				venues[i].ProposalID = id
			}
			if len(venues) > 0 {
				if err := tx.Create(&venues).Error; err != nil {
					return err
				}
			}
		}

		if len(updates) > 0 {
			if err := tx.Model(proposal).Updates(updates).Error; err != nil {
				return err
			}
		}
		return recalculateProposal(tx, id)
	})
	if err != nil {
		return nil, database.TranslateError(err)
	}
	return s.Get(ctx, user, id)
}

// Recalculate refreshes stored totals from the current charge lines and venue rates.
func (s *ProposalService) Recalculate(ctx context.Context, user *models.User, id string) (*models.Proposal, error) {
	err := s.db.WithTransaction(ctx, func(tx *gorm.DB) error {
		if _, err := s.get(tx, user, id); err != nil {
			return err
		}
		return recalculateProposal(tx, id)
	})
	if err != nil {
		return nil, database.TranslateError(err)
	}
	return s.Get(ctx, user, id)
}

// Send marks the proposal as sent. Sending twice keeps the first sent time.
func (s *ProposalService) Send(ctx context.Context, user *models.User, id string) (*models.Proposal, error) {
	err := s.db.WithTransaction(ctx, func(tx *gorm.DB) error {
		proposal, err := s.get(tx, user, id)
		if err != nil {
			return err
		}
		if proposal.Status == models.ProposalStatusSent {
			return nil
		}
		return tx.Model(proposal).Updates(map[string]interface{}{
			"status":  models.ProposalStatusSent,
			"sent_at": time.Now(),
		}).Error
	})
	if err != nil {
		return nil, database.TranslateError(err)
	}
	return s.Get(ctx, user, id)
}

// Delete removes the proposal and its venue options unless bookings were made from it.
func (s *ProposalService) Delete(ctx context.Context, user *models.User, id string) error {
	err := s.db.WithSerializableTransaction(ctx, func(tx *gorm.DB) error {
		proposal, err := s.get(tx, user, id)
		if err != nil {
			return err
		}
		check, err := CheckProposalDeletion(tx, id)
		if err != nil {
			return err
		}
		if err := check.Conflict(); err != nil {
			return err
		}
		if err := tx.Where("proposal_id = ?", id).Delete(&models.ProposalVenue{}).Error; err != nil {
			return err
		}
		return tx.Delete(proposal).Error
	})
	return database.TranslateError(err)
}

// requireClient checks clientID names a client the user can access.
func requireClient(tx *gorm.DB, user *models.User, clientID, field string) error {
	_, err := loadOwned[models.Client](tx, user, clientID, "Client")
	if err != nil && utils.AsAppError(err).Code == utils.CodeNotFound {
		return utils.NewValidationError(field+" does not reference an existing client", field)
	}
	return err
}

// buildProposalVenues turns inputs into rows with computed totals. Venues the
// user cannot access are reported like unknown ones.
func buildProposalVenues(tx *gorm.DB, user *models.User, inputs []ProposalVenueInput) ([]models.ProposalVenue, error) {
	if len(inputs) == 0 {
		return []models.ProposalVenue{}, nil
	}

	ids := make([]string, 0, len(inputs))
	for _, in := range inputs {
		ids = append(ids, in.VenueID)
	}
	var found []models.Venue
	if err := tx.Scopes(database.OwnedBy(user, "created_by_id")).Where("id IN ?", ids).Find(&found).Error; err != nil {
		return nil, err
	}
	rates := make(map[string]decimal.Decimal, len(found))
	for _, v := range found {
		rates[v.ID] = v.StandardCommission
	}

	venues := make([]models.ProposalVenue, 0, len(inputs))
	for i, in := range inputs {
		if _, ok := rates[in.VenueID]; !ok {
			field := fmt.Sprintf("venues[%d].venueId", i)
			return nil, utils.NewValidationError(field+" does not reference an existing venue", field)
		}
		lines := make([]models.ChargeLine, 0, len(in.ChargeLines))
		for _, l := range in.ChargeLines {
			category := l.Category
			if category == "" {
				category = models.ChargeOther
			}
			lines = append(lines, models.ChargeLine{
				Description: l.Description,
				Quantity:    l.Quantity,
				UnitPrice:   l.UnitPrice,
				Category:    category,
			})
		}
		var rate *decimal.Decimal
		if in.CommissionRate != nil {
			r := in.CommissionRate.Round(2)
			rate = &r
		}
		venues = append(venues, models.ProposalVenue{
			VenueID:        in.VenueID,
			Position:       i,
			CommissionRate: rate,
			ChargeLines:    lines,
			Notes:          utils.NullableString(in.Notes),
		})
	}
	ApplyVenueTotals(venues, rates)
	return venues, nil
}

// recalculateProposal recomputes every venue option and the proposal totals in place.
func recalculateProposal(tx *gorm.DB, proposalID string) error {
	var venues []models.ProposalVenue
	if err := tx.Preload("Venue").Where("proposal_id = ?", proposalID).Order("position ASC").Find(&venues).Error; err != nil {
		return err
	}
	rates := make(map[string]decimal.Decimal, len(venues))
	for i := range venues {
		if venues[i].Venue != nil {
			rates[venues[i].VenueID] = venues[i].Venue.StandardCommission
		}
		venues[i].Venue = nil
	}
	total, commission := ApplyVenueTotals(venues, rates)
	for i := range venues {
		if err := tx.Model(&venues[i]).Select("ChargeLines", "Subtotal", "Commission").Updates(&venues[i]).Error; err != nil {
			return err
		}
	}
	return tx.Model(&models.Proposal{}).Where("id = ?", proposalID).Updates(map[string]interface{}{
		"total_value":         total,
		"expected_commission": commission,
	}).Error
}
