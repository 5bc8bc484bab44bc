package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"venue-crm-backend/pkg/database"
	"venue-crm-backend/pkg/models"
	"venue-crm-backend/pkg/utils"

	"gorm.io/gorm"
)

var userSortColumns = map[string]string{
	"email":       "email",
	"name":        "name",
	"role":        "role",
	"lastLoginAt": "last_login_at",
	"createdAt":   "created_at",
}

// OAuthProfile is the identity a provider vouched for.
type OAuthProfile struct {
	Provider   string
	ProviderID string
	Email      string
	Name       string
	AvatarURL  string
}

// CreateUserInput pre-provisions a user before their first login.
type CreateUserInput struct {
	Email string      `json:"email" validate:"required,email,max=255"`
	Name  string      `json:"name" validate:"max=255"`
	Role  models.Role `json:"role" validate:"omitempty,oneof=admin consultant"`
}

// UpdateRoleInput is the body of PATCH /api/users/{id}/role.
type UpdateRoleInput struct {
	Role models.Role `json:"role" validate:"required,oneof=admin consultant"`
}

// UserService owns user records. Users are never hard-deleted.
type UserService struct {
	db      database.DatabaseInterface
	isAdmin func(email string) bool
	now     func() time.Time
}

// NewUserService builds the service. isAdminEmail decides the role of a
// user created by their first login; nil means nobody is promoted.
func NewUserService(db database.DatabaseInterface, isAdminEmail func(string) bool) *UserService {
	if isAdminEmail == nil {
		isAdminEmail = func(string) bool { return false }
	}
	return &UserService{db: db, isAdmin: isAdminEmail, now: time.Now}
}

// UpsertOAuthUser creates the user on first login and refreshes the profile
// afterwards. Users are matched by email so repeated logins never duplicate a row.
func (s *UserService) UpsertOAuthUser(ctx context.Context, profile OAuthProfile) (*models.User, error) {
	email := normalizeEmail(profile.Email)
	if email == "" {
		return nil, utils.NewValidationError("Provider did not return an email address", "email")
	}
	now := s.now()

	var user models.User
	err := s.db.WithTransaction(ctx, func(tx *gorm.DB) error {
		err := tx.Where("email = ?", email).First(&user).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			role := models.RoleConsultant
			if s.isAdmin(email) {
				role = models.RoleAdmin
			}
			user = models.User{
				Email:       email,
				Name:        profile.Name,
				AvatarURL:   utils.NullableString(&profile.AvatarURL),
				Role:        role,
				Provider:    profile.Provider,
				ProviderID:  profile.ProviderID,
				LastLoginAt: &now,
			}
			return tx.Create(&user).Error
		}
		if err != nil {
			return err
		}

		updates := map[string]interface{}{
			"provider":      profile.Provider,
			"provider_id":   profile.ProviderID,
			"last_login_at": now,
		}
		if name := strings.TrimSpace(profile.Name); name != "" {
			updates["name"] = name
		}
		if avatar := utils.NullableString(&profile.AvatarURL); avatar != nil {
			updates["avatar_url"] = *avatar
		}
		if err := tx.Model(&user).Updates(updates).Error; err != nil {
			return err
		}
		return tx.First(&user, "id = ?", user.ID).Error
	})
	if err != nil {
		return nil, database.TranslateError(err)
	}
	return &user, nil
}

// GetByID loads a user, mapping a missing row to 404.
func (s *UserService) GetByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := s.db.DB(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, database.NotFoundOr(err, "User")
	}
	return &user, nil
}

func (s *UserService) List(ctx context.Context, params ListParams) (*Page[models.User], error) {
	query := s.db.DB(ctx).Model(&models.User{}).
		Scopes(database.Search(params.Search, "email", "name"))
	if role := params.Filter("role"); role != "" {
		query = query.Where("role = ?", role)
	}
	items, total, err := database.FindPage[models.User](query, params.Pagination,
		database.Sort(params.SortBy, params.SortOrder, userSortColumns))
	if err != nil {
		return nil, database.TranslateError(err)
	}
	return &Page[models.User]{Items: items, Total: total}, nil
}

// Create pre-provisions a user. A taken email is a 409 on field email.
func (s *UserService) Create(ctx context.Context, in CreateUserInput) (*models.User, error) {
	in.Email = normalizeEmail(in.Email)
	in.Name = strings.TrimSpace(in.Name)
	if err := utils.Validate(in); err != nil {
		return nil, err
	}
	if in.Role == "" {
		in.Role = models.RoleConsultant
	}

	user := &models.User{Email: in.Email, Name: in.Name, Role: in.Role, Provider: "manual"}
	if err := s.db.DB(ctx).Create(user).Error; err != nil {
		return nil, database.TranslateError(err)
	}
	return user, nil
}

// UpdateRole changes a user's role. Admins cannot demote themselves.
func (s *UserService) UpdateRole(ctx context.Context, actor *models.User, id string, in UpdateRoleInput) (*models.User, error) {
	if err := utils.Validate(in); err != nil {
		return nil, err
	}
	if actor != nil && actor.ID == id && in.Role != models.RoleAdmin {
		return nil, utils.NewValidationError("You cannot remove your own admin role", "role")
	}

	var user models.User
	err := s.db.WithTransaction(ctx, func(tx *gorm.DB) error {
		if err := tx.First(&user, "id = ?", id).Error; err != nil {
			return database.NotFoundOr(err, "User")
		}
		if user.Role == in.Role {
			return nil
		}
		if err := tx.Model(&user).Update("role", in.Role).Error; err != nil {
			return err
		}
		user.Role = in.Role
		return nil
	})
	if err != nil {
		return nil, database.TranslateError(err)
	}
	return &user, nil
}

// SeedAdmin makes sure email exists with the admin role.
func (s *UserService) SeedAdmin(ctx context.Context, email string) (*models.User, error) {
	email = normalizeEmail(email)
	if email == "" {
		return nil, utils.NewValidationError("email is required", "email")
	}
	var user models.User
	err := s.db.WithTransaction(ctx, func(tx *gorm.DB) error {
		err := tx.Where("email = ?", email).First(&user).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			user = models.User{Email: email, Role: models.RoleAdmin, Provider: "manual"}
			return tx.Create(&user).Error
		}
		if err != nil {
			return err
		}
		user.Role = models.RoleAdmin
		return tx.Model(&user).Update("role", models.RoleAdmin).Error
	})
	if err != nil {
		return nil, database.TranslateError(err)
	}
	return &user, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
