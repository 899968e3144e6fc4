package domain

import "github.com/google/uuid"

type UserRole string

const (
	UserRoleOwner      UserRole = "owner"
	UserRoleTenant     UserRole = "tenant"
	UserRoleAdmin      UserRole = "admin"
	UserRoleSuperAdmin UserRole = "super_admin"
)

func (r UserRole) IsAdmin() bool {
	return r == UserRoleAdmin || r == UserRoleSuperAdmin
}

type User struct {
	ID    uuid.UUID
	Name  string
	Email string
	Role  UserRole
}

type Property struct {
	ID        uuid.UUID
	Title     string
	OwnerID   uuid.UUID
	IsDeleted bool
}
