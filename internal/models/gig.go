package models

import (
	"time"

	"github.com/lib/pq"
)

// GigStatus represents the lifecycle state of a gig listing.
type GigStatus string

const (
	GigStatusDraft     GigStatus = "DRAFT"
	GigStatusActive    GigStatus = "ACTIVE"
	GigStatusPaused    GigStatus = "PAUSED"
	GigStatusCompleted GigStatus = "COMPLETED"
	GigStatusArchived  GigStatus = "ARCHIVED"
)

// Valid returns true when the status is a supported value.
func (s GigStatus) Valid() bool {
	switch s {
	case GigStatusDraft, GigStatusActive, GigStatusPaused, GigStatusCompleted, GigStatusArchived:
		return true
	default:
		return false
	}
}

// DefaultCurrency is applied when a gig is created without one.
const DefaultCurrency = "NGN"

// Gig represents a marketplace listing owned by a user.
type Gig struct {
	ID               string         `db:"id" json:"id"`
	OwnerID          string         `db:"owner_id" json:"owner_id"`
	Title            string         `db:"title" json:"title"`
	Description      string         `db:"description" json:"description"`
	Category         string         `db:"category" json:"category"`
	Price            float64        `db:"price" json:"price"`
	Currency         string         `db:"currency" json:"currency"`
	DeliveryTimeDays int            `db:"delivery_time_days" json:"delivery_time_days"`
	Attachments      pq.StringArray `db:"attachments" json:"attachments"`
	Tags             pq.StringArray `db:"tags" json:"tags"`
	Status           GigStatus      `db:"status" json:"status"`
	CreatedAt        time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time      `db:"updated_at" json:"updated_at"`
}

// GigFilter captures listing criteria for the marketplace catalog.
type GigFilter struct {
	Category string
	Status   *GigStatus
	OwnerID  string
	MinPrice *float64
	MaxPrice *float64
	Search   string
	Page     int
	PageSize int
}

// CreateGigRequest is the payload for creating a gig.
type CreateGigRequest struct {
	Title            string   `json:"title" validate:"required"`
	Description      string   `json:"description" validate:"required"`
	Category         string   `json:"category" validate:"required"`
	Price            float64  `json:"price" validate:"gte=0"`
	Currency         string   `json:"currency"`
	DeliveryTimeDays int      `json:"delivery_time_days" validate:"required,gt=0"`
	Attachments      []string `json:"attachments" validate:"dive,url"`
	Tags             []string `json:"tags"`
}

// UpdateGigRequest is a partial patch; nil fields are left untouched.
type UpdateGigRequest struct {
	Title            *string    `json:"title"`
	Description      *string    `json:"description"`
	Category         *string    `json:"category"`
	Price            *float64   `json:"price" validate:"omitempty,gte=0"`
	Currency         *string    `json:"currency"`
	DeliveryTimeDays *int       `json:"delivery_time_days" validate:"omitempty,gt=0"`
	Attachments      *[]string  `json:"attachments"`
	Tags             *[]string  `json:"tags"`
	Status           *GigStatus `json:"status"`
}
