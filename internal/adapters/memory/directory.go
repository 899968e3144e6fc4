package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/sardarit-bd/real-estate-punta-backend/internal/domain"
)

// Directory serves users and properties from maps. Local runs seed it from
// configuration; tests seed it directly.
type Directory struct {
	mu         sync.RWMutex
	users      map[uuid.UUID]domain.User
	properties map[uuid.UUID]domain.Property
}

func NewDirectory() *Directory {
	return &Directory{
		users:      map[uuid.UUID]domain.User{},
		properties: map[uuid.UUID]domain.Property{},
	}
}

func (d *Directory) PutUser(u domain.User) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.users[u.ID] = u
}

func (d *Directory) PutProperty(p domain.Property) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.properties[p.ID] = p
}

func (d *Directory) FindUserByID(_ context.Context, userID uuid.UUID) (domain.User, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	u, ok := d.users[userID]
	if !ok {
		return domain.User{}, domain.ErrNotFound
	}
	return u, nil
}

func (d *Directory) FindPropertyByID(_ context.Context, propertyID uuid.UUID) (domain.Property, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	p, ok := d.properties[propertyID]
	if !ok {
		return domain.Property{}, domain.ErrNotFound
	}
	return p, nil
}
