package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/okanji/platform-services-registry-web/internal/models"
	appErr "github.com/okanji/platform-services-registry-web/pkg/errors"
)

type UserRepository interface {
	BaseRepository[models.User]
	GetByEmail(ctx context.Context, email string, dest *models.User) error
	// Upsert stores u by e-mail and fills in its id.
	Upsert(ctx context.Context, u *models.User) error
}

type userRepository struct {
	BaseRepository[models.User]
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{BaseRepository: NewBaseRepository[models.User](db, "user"), db: db}
}

func (r *userRepository) GetByEmail(ctx context.Context, email string, dest *models.User) error {
	if err := r.db.WithContext(ctx).Where("email = ?", models.NormalizeEmail(email)).First(dest).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return appErr.NotFound("user not found")
		}
		return wrapDB(err, "get user by email")
	}
	return nil
}

func (r *userRepository) Upsert(ctx context.Context, u *models.User) error {
	return upsertUser(r.db.WithContext(ctx), u)
}

// upsertUser inserts the user or refreshes the names of the existing row
// with the same e-mail. The returned id is always the stored one.
func upsertUser(tx *gorm.DB, u *models.User) error {
	u.Email = models.NormalizeEmail(u.Email)
	if u.Email == "" {
		return appErr.Validation("email", "required")
	}
	row := models.User{Email: u.Email, FirstName: u.FirstName, LastName: u.LastName, Ministry: u.Ministry}
	err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "email"}},
		DoUpdates: clause.AssignmentColumns([]string{"first_name", "last_name", "ministry", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		return wrapDB(err, "upsert user")
	}
	u.ID = row.ID
	return nil
}
