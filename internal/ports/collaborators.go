package ports

import (
	"context"

	"github.com/google/uuid"
	"github.com/sardarit-bd/real-estate-punta-backend/internal/domain"
)

type UserDirectory interface {
	FindUserByID(ctx context.Context, userID uuid.UUID) (domain.User, error)
}

type PropertyDirectory interface {
	FindPropertyByID(ctx context.Context, propertyID uuid.UUID) (domain.Property, error)
}

type Notification struct {
	UserID  uuid.UUID
	Event   string
	LeaseID uuid.UUID
	Data    map[string]string
}

// Notifier delivers a best-effort message to a user. Callers never roll back
// on a notification failure.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}
