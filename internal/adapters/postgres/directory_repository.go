package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/sardarit-bd/real-estate-punta-backend/internal/domain"
	"gorm.io/gorm"
)

type DirectoryRepository struct {
	db *gorm.DB
}

func (r *DirectoryRepository) FindUserByID(ctx context.Context, userID uuid.UUID) (domain.User, error) {
	var rec userModel
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.User{}, domain.ErrNotFound
		}
		return domain.User{}, err
	}
	return domain.User{ID: rec.UserID, Name: rec.Name, Email: rec.Email, Role: domain.UserRole(rec.Role)}, nil
}

func (r *DirectoryRepository) FindPropertyByID(ctx context.Context, propertyID uuid.UUID) (domain.Property, error) {
	var rec propertyModel
	if err := r.db.WithContext(ctx).Where("property_id = ?", propertyID).First(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Property{}, domain.ErrNotFound
		}
		return domain.Property{}, err
	}
	return domain.Property{ID: rec.PropertyID, Title: rec.Title, OwnerID: rec.OwnerID, IsDeleted: rec.IsDeleted}, nil
}

// UpsertUser and UpsertProperty seed the read-only projections; the CLI and
// tests use them.
func (r *DirectoryRepository) UpsertUser(ctx context.Context, u domain.User) error {
	rec := userModel{UserID: u.ID, Name: u.Name, Email: u.Email, Role: string(u.Role)}
	return r.db.WithContext(ctx).Save(&rec).Error
}

func (r *DirectoryRepository) UpsertProperty(ctx context.Context, p domain.Property) error {
	rec := propertyModel{PropertyID: p.ID, Title: p.Title, OwnerID: p.OwnerID, IsDeleted: p.IsDeleted}
	return r.db.WithContext(ctx).Save(&rec).Error
}
