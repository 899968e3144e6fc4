package application

import (
	"encoding/json"
	"time"
)

type Config struct {
	ServiceName           string
	SignatureWindow       time.Duration
	ExpiringSoonWindow    time.Duration
	StatsCacheTTL         time.Duration
	PersistTimeout        time.Duration
	MaxTransitionAttempts int
	SweepBatchSize        int
}

type CustomClauseInput struct {
	Title string `json:"title" validate:"required,max=200"`
	Body  string `json:"body" validate:"required,max=5000"`
}

type CreateLeaseRequest struct {
	PropertyID      string              `json:"property_id" validate:"required,uuid"`
	TenantID        string              `json:"tenant_id" validate:"required,uuid"`
	StartDate       string              `json:"start_date" validate:"required"`
	EndDate         string              `json:"end_date" validate:"required"`
	RentAmount      float64             `json:"rent_amount" validate:"gte=0"`
	RentFrequency   string              `json:"rent_frequency,omitempty" validate:"omitempty,oneof=monthly weekly biweekly quarterly yearly"`
	SecurityDeposit float64             `json:"security_deposit" validate:"gte=0"`
	Terms           map[string]string   `json:"terms,omitempty"`
	CustomClauses   []CustomClauseInput `json:"custom_clauses,omitempty" validate:"omitempty,dive"`
}

type SendLeaseRequest struct {
	Message string `json:"message,omitempty" validate:"max=2000"`
}

type RequestChangesRequest struct {
	Changes string `json:"changes" validate:"required,max=2000"`
}

type UpdateLeaseRequest struct {
	Title           *string             `json:"title,omitempty" validate:"omitempty,max=200"`
	Description     *string             `json:"description,omitempty" validate:"omitempty,max=2000"`
	StartDate       *string             `json:"start_date,omitempty"`
	EndDate         *string             `json:"end_date,omitempty"`
	RentAmount      *float64            `json:"rent_amount,omitempty" validate:"omitempty,gte=0"`
	RentFrequency   *string             `json:"rent_frequency,omitempty" validate:"omitempty,oneof=monthly weekly biweekly quarterly yearly"`
	SecurityDeposit *float64            `json:"security_deposit,omitempty" validate:"omitempty,gte=0"`
	Terms           map[string]string   `json:"terms,omitempty"`
	CustomClauses   []CustomClauseInput `json:"custom_clauses,omitempty" validate:"omitempty,dive"`
	ResolutionNote  string              `json:"resolution_note,omitempty" validate:"max=2000"`
	Message         string              `json:"message,omitempty" validate:"max=2000"`
}

type SignLeaseRequest struct {
	SignatureType     string          `json:"signature_type,omitempty" validate:"omitempty,oneof=simple drawn typed uploaded"`
	SignatureData     json.RawMessage `json:"signature_data,omitempty"`
	SignatureImageURL string          `json:"signature_image_url,omitempty" validate:"omitempty,url"`
	IPAddress         string          `json:"-"`
	UserAgent         string          `json:"-"`
}

type CancelLeaseRequest struct {
	Reason string `json:"reason,omitempty" validate:"max=2000"`
}

type PostMessageRequest struct {
	Message string `json:"message" validate:"required,max=2000"`
}

type ListLeasesQuery struct {
	Role   string `validate:"omitempty,oneof=landlord tenant"`
	Status string `validate:"omitempty"`
}

type TermsView struct {
	StartDate       time.Time          `json:"start_date"`
	EndDate         time.Time          `json:"end_date"`
	RentAmount      float64            `json:"rent_amount"`
	RentFrequency   string             `json:"rent_frequency"`
	SecurityDeposit float64            `json:"security_deposit"`
	Terms           map[string]string  `json:"terms,omitempty"`
	CustomClauses   []CustomClauseView `json:"custom_clauses,omitempty"`
}

type CustomClauseView struct {
	Title   string    `json:"title"`
	Body    string    `json:"body"`
	AddedBy string    `json:"added_by"`
	AddedAt time.Time `json:"added_at"`
}

type SignatureView struct {
	SignedAt      time.Time `json:"signed_at"`
	SignatureType string    `json:"signature_type"`
	ImageURL      string    `json:"image_url,omitempty"`
	EvidenceHash  string    `json:"evidence_hash"`
}

type SignaturesView struct {
	Landlord *SignatureView `json:"landlord,omitempty"`
	Tenant   *SignatureView `json:"tenant,omitempty"`
}

type NextActionView struct {
	By     string `json:"by"`
	Action string `json:"action"`
}

type LeaseView struct {
	LeaseID           string          `json:"lease_id"`
	Title             string          `json:"title"`
	Description       string          `json:"description,omitempty"`
	LandlordID        string          `json:"landlord_id"`
	TenantID          string          `json:"tenant_id"`
	PropertyID        string          `json:"property_id"`
	Status            string          `json:"status"`
	Terms             TermsView       `json:"terms"`
	Signatures        SignaturesView  `json:"signatures"`
	NextAction        *NextActionView `json:"next_action,omitempty"`
	IsLocked          bool            `json:"is_locked"`
	LockedAt          *time.Time      `json:"locked_at,omitempty"`
	ExpiresAt         *time.Time      `json:"expires_at,omitempty"`
	IsExpired         bool            `json:"is_expired"`
	IsActive          bool            `json:"is_active"`
	DurationDays      int             `json:"duration_days"`
	UnresolvedChanges int             `json:"unresolved_changes"`
	IsDeleted         bool            `json:"is_deleted"`
	DeletedAt         *time.Time      `json:"deleted_at,omitempty"`
	Version           int64           `json:"version"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

type PartyView struct {
	UserID string `json:"user_id"`
	Name   string `json:"name,omitempty"`
	Email  string `json:"email,omitempty"`
}

type PropertyView struct {
	PropertyID string `json:"property_id"`
	Title      string `json:"title,omitempty"`
}

type StatusChangeView struct {
	Status    string    `json:"status"`
	ChangedBy string    `json:"changed_by"`
	Reason    string    `json:"reason,omitempty"`
	ChangedAt time.Time `json:"changed_at"`
}

type MessageView struct {
	MessageID string    `json:"message_id"`
	From      string    `json:"from"`
	Body      string    `json:"body"`
	SentAt    time.Time `json:"sent_at"`
}

type ChangeRequestView struct {
	ChangeID       string     `json:"change_id"`
	RequestedBy    string     `json:"requested_by"`
	Description    string     `json:"description"`
	RequestedAt    time.Time  `json:"requested_at"`
	Resolved       bool       `json:"resolved"`
	ResolvedAt     *time.Time `json:"resolved_at,omitempty"`
	ResolutionNote string     `json:"resolution_note,omitempty"`
}

type LeaseDetail struct {
	LeaseView
	MyRole           string              `json:"my_role"`
	Landlord         PartyView           `json:"landlord"`
	Tenant           PartyView           `json:"tenant"`
	Property         PropertyView        `json:"property"`
	StatusHistory    []StatusChangeView  `json:"status_history"`
	Messages         []MessageView       `json:"messages"`
	RequestedChanges []ChangeRequestView `json:"requested_changes"`
}

type StatusBucketView struct {
	Status    string  `json:"status"`
	Count     int64   `json:"count"`
	TotalRent float64 `json:"total_rent"`
}

type LeaseStatsView struct {
	ByStatus     []StatusBucketView `json:"by_status"`
	Total        int64              `json:"total"`
	AsLandlord   int64              `json:"as_landlord"`
	AsTenant     int64              `json:"as_tenant"`
	ExpiringSoon int64              `json:"expiring_soon"`
}

type SweepResult struct {
	Scanned int `json:"scanned"`
	Expired int `json:"expired"`
	Skipped int `json:"skipped"`
}
