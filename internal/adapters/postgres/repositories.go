package postgres

import (
	"github.com/sardarit-bd/real-estate-punta-backend/internal/ports"
	"gorm.io/gorm"
)

type Repositories struct {
	Leases     ports.LeaseRepository
	Users      ports.UserDirectory
	Properties ports.PropertyDirectory
	Outbox     ports.OutboxRepository
	Directory  *DirectoryRepository
}

func NewRepositories(db *gorm.DB) Repositories {
	dir := &DirectoryRepository{db: db}
	return Repositories{
		Leases:     &leaseRepository{db: db},
		Users:      dir,
		Properties: dir,
		Outbox:     &outboxRepository{db: db},
		Directory:  dir,
	}
}
