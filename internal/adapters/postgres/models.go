package postgres

import (
	"time"

	"github.com/google/uuid"
	"github.com/sardarit-bd/real-estate-punta-backend/internal/domain"
	"gorm.io/datatypes"
)

type leaseModel struct {
	LeaseID          uuid.UUID                                  `gorm:"column:lease_id;type:uuid;primaryKey"`
	Title            string                                     `gorm:"column:title"`
	Description      string                                     `gorm:"column:description"`
	LandlordID       uuid.UUID                                  `gorm:"column:landlord_id;type:uuid;index"`
	TenantID         uuid.UUID                                  `gorm:"column:tenant_id;type:uuid;index"`
	PropertyID       uuid.UUID                                  `gorm:"column:property_id;type:uuid"`
	CreatedBy        uuid.UUID                                  `gorm:"column:created_by;type:uuid"`
	StartDate        time.Time                                  `gorm:"column:start_date"`
	EndDate          time.Time                                  `gorm:"column:end_date"`
	RentAmount       float64                                    `gorm:"column:rent_amount"`
	RentFrequency    string                                     `gorm:"column:rent_frequency"`
	SecurityDeposit  float64                                    `gorm:"column:security_deposit"`
	Terms            datatypes.JSONType[map[string]string]      `gorm:"column:terms"`
	CustomClauses    datatypes.JSONType[[]domain.CustomClause]  `gorm:"column:custom_clauses"`
	Status           string                                     `gorm:"column:status;index"`
	StatusHistory    datatypes.JSONType[[]domain.StatusChange]  `gorm:"column:status_history"`
	Messages         datatypes.JSONType[[]domain.Message]       `gorm:"column:messages"`
	RequestedChanges datatypes.JSONType[[]domain.ChangeRequest] `gorm:"column:requested_changes"`
	Signatures       datatypes.JSONType[domain.Signatures]      `gorm:"column:signatures"`
	IsLocked         bool                                       `gorm:"column:is_locked"`
	LockedAt         *time.Time                                 `gorm:"column:locked_at"`
	ExpiresAt        *time.Time                                 `gorm:"column:expires_at"`
	IsDeleted        bool                                       `gorm:"column:is_deleted"`
	DeletedAt        *time.Time                                 `gorm:"column:deleted_at"`
	Version          int64                                      `gorm:"column:version"`
	CreatedAt        time.Time                                  `gorm:"column:created_at"`
	UpdatedAt        time.Time                                  `gorm:"column:updated_at"`
}

func (leaseModel) TableName() string { return "leases" }

type leaseOutboxModel struct {
	OutboxID         uuid.UUID  `gorm:"column:outbox_id;type:uuid;primaryKey"`
	EventType        string     `gorm:"column:event_type"`
	PartitionKey     string     `gorm:"column:partition_key"`
	PartitionKeyPath string     `gorm:"column:partition_key_path"`
	Payload          string     `gorm:"column:payload"`
	SchemaVersion    string     `gorm:"column:schema_version"`
	TraceID          string     `gorm:"column:trace_id"`
	CreatedAt        time.Time  `gorm:"column:created_at"`
	FirstSeenAt      time.Time  `gorm:"column:first_seen_at"`
	PublishedAt      *time.Time `gorm:"column:published_at"`
	RetryCount       int        `gorm:"column:retry_count"`
	LastError        *string    `gorm:"column:last_error"`
	LastErrorAt      *time.Time `gorm:"column:last_error_at"`
}

func (leaseOutboxModel) TableName() string { return "lease_outbox" }

type userModel struct {
	UserID uuid.UUID `gorm:"column:user_id;type:uuid;primaryKey"`
	Name   string    `gorm:"column:name"`
	Email  string    `gorm:"column:email"`
	Role   string    `gorm:"column:role"`
}

func (userModel) TableName() string { return "users" }

type propertyModel struct {
	PropertyID uuid.UUID `gorm:"column:property_id;type:uuid;primaryKey"`
	Title      string    `gorm:"column:title"`
	OwnerID    uuid.UUID `gorm:"column:owner_id;type:uuid;index"`
	IsDeleted  bool      `gorm:"column:is_deleted"`
}

func (propertyModel) TableName() string { return "properties" }
