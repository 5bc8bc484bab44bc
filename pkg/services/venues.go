package services

import (
	"context"

	"venue-crm-backend/pkg/database"
	"venue-crm-backend/pkg/models"
	"venue-crm-backend/pkg/utils"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var venueSortColumns = map[string]string{
	"name":               "name",
	"location":           "location",
	"standardCommission": "standard_commission",
	"capacity":           "capacity",
	"createdAt":          "created_at",
	"updatedAt":          "updated_at",
}

// CreateVenueInput is the body of POST /api/venues.
type CreateVenueInput struct {
	Name               string           `json:"name" validate:"required,max=255"`
	Location           *string          `json:"location" validate:"omitempty,max=255"`
	Address            *string          `json:"address"`
	ContactName        *string          `json:"contactName" validate:"omitempty,max=255"`
	Email              *string          `json:"email" validate:"omitempty,email,max=255"`
	Phone              *string          `json:"phone" validate:"omitempty,max=50"`
	Website            *string          `json:"website" validate:"omitempty,url,max=255"`
	Capacity           *int             `json:"capacity" validate:"omitempty,gte=0"`
	StandardCommission *decimal.Decimal `json:"standardCommission" validate:"omitempty,gte=0,lte=100"`
	Notes              *string          `json:"notes"`
}

func (in *CreateVenueInput) Normalize() {
	in.Name = utils.StringValue(utils.NullableString(&in.Name))
	blankToNil(&in.Location, &in.Address, &in.ContactName, &in.Email, &in.Phone, &in.Website, &in.Notes)
}

// UpdateVenueInput is the body of PUT /api/venues/{id}.
type UpdateVenueInput struct {
	Name               *string          `json:"name" validate:"omitempty,min=1,max=255"`
	Location           *string          `json:"location" validate:"omitempty,max=255"`
	Address            *string          `json:"address"`
	ContactName        *string          `json:"contactName" validate:"omitempty,max=255"`
	Email              *string          `json:"email" validate:"omitempty,email,max=255"`
	Phone              *string          `json:"phone" validate:"omitempty,max=50"`
	Website            *string          `json:"website" validate:"omitempty,url,max=255"`
	Capacity           *int             `json:"capacity" validate:"omitempty,gte=0"`
	StandardCommission *decimal.Decimal `json:"standardCommission" validate:"omitempty,gte=0,lte=100"`
	Notes              *string          `json:"notes"`
}

func (in UpdateVenueInput) Validate() error {
	clean := in
	if in.Name != nil {
		trimmed := utils.StringValue(utils.NullableString(in.Name))
		clean.Name = &trimmed
	}
	blankToNil(&clean.Location, &clean.Address, &clean.ContactName, &clean.Email, &clean.Phone, &clean.Website, &clean.Notes)
	return utils.Validate(clean)
}

func (in UpdateVenueInput) updates() map[string]interface{} {
	updates := make(map[string]interface{})
	if in.Name != nil {
		updates["name"] = utils.StringValue(utils.NullableString(in.Name))
	}
	setOptional(updates, "location", in.Location)
	setOptional(updates, "address", in.Address)
	setOptional(updates, "contact_name", in.ContactName)
	setOptional(updates, "email", in.Email)
	setOptional(updates, "phone", in.Phone)
	setOptional(updates, "website", in.Website)
	setOptional(updates, "notes", in.Notes)
	if in.Capacity != nil {
		updates["capacity"] = *in.Capacity
	}
	if in.StandardCommission != nil {
		updates["standard_commission"] = in.StandardCommission.Round(2)
	}
	return updates
}

// VenueService manages venues.
type VenueService struct {
	db database.DatabaseInterface
}

func NewVenueService(db database.DatabaseInterface) *VenueService {
	return &VenueService{db: db}
}

func (s *VenueService) List(ctx context.Context, user *models.User, params ListParams) (*Page[models.Venue], error) {
	query := s.db.DB(ctx).Model(&models.Venue{}).
		Scopes(database.OwnedBy(user, "created_by_id")).
		Scopes(database.Search(params.Search, "name", "location", "contact_name"))
	if location := params.Filter("location"); location != "" {
		query = query.Scopes(database.Search(location, "location"))
	}

	items, total, err := database.FindPage[models.Venue](query, params.Pagination,
		database.Sort(params.SortBy, params.SortOrder, venueSortColumns))
	if err != nil {
		return nil, database.TranslateError(err)
	}
	return &Page[models.Venue]{Items: items, Total: total}, nil
}

func (s *VenueService) Get(ctx context.Context, user *models.User, id string) (*models.Venue, error) {
	return loadOwned[models.Venue](s.db.DB(ctx), user, id, "Venue")
}

func (s *VenueService) Create(ctx context.Context, user *models.User, in CreateVenueInput) (*models.Venue, error) {
	in.Normalize()
	if err := utils.Validate(in); err != nil {
		return nil, err
	}
	venue := &models.Venue{
		Name:        in.Name,
		Location:    in.Location,
		Address:     in.Address,
		ContactName: in.ContactName,
		Email:       in.Email,
		Phone:       in.Phone,
		Website:     in.Website,
		Capacity:    in.Capacity,
		Notes:       in.Notes,
		CreatedByID: user.ID,
	}
	if in.StandardCommission != nil {
		venue.StandardCommission = in.StandardCommission.Round(2)
	}
	if err := s.db.DB(ctx).Create(venue).Error; err != nil {
		return nil, database.TranslateError(err)
	}
	return venue, nil
}

// Update changes a venue. A new standard rate does not touch existing
// proposals; their totals are recomputed the next time they are saved.
func (s *VenueService) Update(ctx context.Context, user *models.User, id string, in UpdateVenueInput) (*models.Venue, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	var venue *models.Venue
	err := s.db.WithTransaction(ctx, func(tx *gorm.DB) error {
		var err error
		if venue, err = loadOwned[models.Venue](tx, user, id, "Venue"); err != nil {
			return err
		}
		if updates := in.updates(); len(updates) > 0 {
			if err := tx.Model(venue).Updates(updates).Error; err != nil {
				return err
			}
		}
		return tx.First(venue, "id = ?", id).Error
	})
	if err != nil {
		return nil, database.TranslateError(err)
	}
	return venue, nil
}

func (s *VenueService) CheckDeletion(ctx context.Context, user *models.User, id string) (*DeletionCheck, error) {
	tx := s.db.DB(ctx)
	if _, err := loadOwned[models.Venue](tx, user, id, "Venue"); err != nil {
		return nil, err
	}
	check, err := CheckVenueDeletion(tx, id)
	if err != nil {
		return nil, database.TranslateError(err)
	}
	return check, nil
}

// Delete removes the venue if no proposal or booking references it.
func (s *VenueService) Delete(ctx context.Context, user *models.User, id string) error {
	err := s.db.WithSerializableTransaction(ctx, func(tx *gorm.DB) error {
		venue, err := loadOwned[models.Venue](tx, user, id, "Venue")
		if err != nil {
			return err
		}
		check, err := CheckVenueDeletion(tx, id)
		if err != nil {
			return err
		}
		if err := check.Conflict(); err != nil {
			return err
		}
		return tx.Delete(venue).Error
	})
	return database.TranslateError(err)
}
