package services

import (
	"context"

	"venue-crm-backend/pkg/database"
	"venue-crm-backend/pkg/models"
	"venue-crm-backend/pkg/utils"

	"gorm.io/gorm"
)

var clientSortColumns = map[string]string{
	"name":      "name",
	"company":   "company",
	"createdAt": "created_at",
	"updatedAt": "updated_at",
}

// CreateClientInput is the body of POST /api/clients.
type CreateClientInput struct {
	Name        string  `json:"name" validate:"required,max=255"`
	Company     *string `json:"company" validate:"omitempty,max=255"`
	ContactName *string `json:"contactName" validate:"omitempty,max=255"`
	Email       *string `json:"email" validate:"omitempty,email,max=255"`
	Phone       *string `json:"phone" validate:"omitempty,max=50"`
	Address     *string `json:"address"`
	Notes       *string `json:"notes"`
}

// Normalize trims the name and turns blank optional fields into nil.
func (in *CreateClientInput) Normalize() {
	if name := utils.NullableString(&in.Name); name != nil {
		in.Name = *name
	} else {
		in.Name = ""
	}
	blankToNil(&in.Company, &in.ContactName, &in.Email, &in.Phone, &in.Address, &in.Notes)
}

// UpdateClientInput is the body of PUT /api/clients/{id}.
// Absent fields are left alone; a blank string clears an optional field.
type UpdateClientInput struct {
	Name        *string `json:"name" validate:"omitempty,min=1,max=255"`
	Company     *string `json:"company" validate:"omitempty,max=255"`
	ContactName *string `json:"contactName" validate:"omitempty,max=255"`
	Email       *string `json:"email" validate:"omitempty,email,max=255"`
	Phone       *string `json:"phone" validate:"omitempty,max=50"`
	Address     *string `json:"address"`
	Notes       *string `json:"notes"`
}

// Validate checks the non-blank values.
func (in UpdateClientInput) Validate() error {
	clean := in
	if in.Name != nil {
		trimmed := utils.StringValue(utils.NullableString(in.Name))
		clean.Name = &trimmed
	}
	blankToNil(&clean.Company, &clean.ContactName, &clean.Email, &clean.Phone, &clean.Address, &clean.Notes)
	return utils.Validate(clean)
}

func (in UpdateClientInput) updates() map[string]interface{} {
	updates := make(map[string]interface{})
	if in.Name != nil {
		updates["name"] = utils.StringValue(utils.NullableString(in.Name))
	}
	setOptional(updates, "company", in.Company)
	setOptional(updates, "contact_name", in.ContactName)
	setOptional(updates, "email", in.Email)
	setOptional(updates, "phone", in.Phone)
	setOptional(updates, "address", in.Address)
	setOptional(updates, "notes", in.Notes)
	return updates
}

// ClientService manages clients.
type ClientService struct {
	db database.DatabaseInterface
}

func NewClientService(db database.DatabaseInterface) *ClientService {
	return &ClientService{db: db}
}

func (s *ClientService) List(ctx context.Context, user *models.User, params ListParams) (*Page[models.Client], error) {
	query := s.db.DB(ctx).Model(&models.Client{}).
		Scopes(database.OwnedBy(user, "created_by_id")).
		Scopes(database.Search(params.Search, "name", "company", "contact_name", "email"))

	items, total, err := database.FindPage[models.Client](query, params.Pagination,
		database.Sort(params.SortBy, params.SortOrder, clientSortColumns))
	if err != nil {
		return nil, database.TranslateError(err)
	}
	return &Page[models.Client]{Items: items, Total: total}, nil
}

func (s *ClientService) Get(ctx context.Context, user *models.User, id string) (*models.Client, error) {
	return loadOwned[models.Client](s.db.DB(ctx), user, id, "Client")
}

func (s *ClientService) Create(ctx context.Context, user *models.User, in CreateClientInput) (*models.Client, error) {
	in.Normalize()
	if err := utils.Validate(in); err != nil {
		return nil, err
	}
	client := &models.Client{
		Name:        in.Name,
		Company:     in.Company,
		ContactName: in.ContactName,
		Email:       in.Email,
		Phone:       in.Phone,
		Address:     in.Address,
		Notes:       in.Notes,
		CreatedByID: user.ID,
	}
	if err := s.db.DB(ctx).Create(client).Error; err != nil {
		return nil, database.TranslateError(err)
	}
	return client, nil
}

func (s *ClientService) Update(ctx context.Context, user *models.User, id string, in UpdateClientInput) (*models.Client, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	var client *models.Client
	err := s.db.WithTransaction(ctx, func(tx *gorm.DB) error {
		var err error
		if client, err = loadOwned[models.Client](tx, user, id, "Client"); err != nil {
			return err
		}
		if updates := in.updates(); len(updates) > 0 {
			if err := tx.Model(client).Updates(updates).Error; err != nil {
				return err
			}
		}
		return tx.First(client, "id = ?", id).Error
	})
	if err != nil {
		return nil, database.TranslateError(err)
	}
	return client, nil
}

// CheckDeletion reports whether the client can be deleted right now.
func (s *ClientService) CheckDeletion(ctx context.Context, user *models.User, id string) (*DeletionCheck, error) {
	tx := s.db.DB(ctx)
	if _, err := loadOwned[models.Client](tx, user, id, "Client"); err != nil {
		return nil, err
	}
	check, err := CheckClientDeletion(tx, id)
	if err != nil {
		return nil, database.TranslateError(err)
	}
	return check, nil
}

// Delete removes the client if nothing references it. The dependency check
// and the delete share one serializable transaction.
func (s *ClientService) Delete(ctx context.Context, user *models.User, id string) error {
	err := s.db.WithSerializableTransaction(ctx, func(tx *gorm.DB) error {
		client, err := loadOwned[models.Client](tx, user, id, "Client")
		if err != nil {
			return err
		}
		check, err := CheckClientDeletion(tx, id)
		if err != nil {
			return err
		}
		if err := check.Conflict(); err != nil {
			return err
		}
		return tx.Delete(client).Error
	})
	return database.TranslateError(err)
}
