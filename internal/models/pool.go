package models

import "time"

// PoolType distinguishes the identifier pools.
type PoolType string

const (
	PoolRegistration PoolType = "REGISTRATION"
	PoolStaff        PoolType = "STAFF"
)

// Valid returns true when the pool type is supported.
func (p PoolType) Valid() bool {
	return p == PoolRegistration || p == PoolStaff
}

// IdentifierPoolEntry is a pre-minted unique identifier with a used flag.
// An entry transitions is_used false -> true exactly once.
type IdentifierPoolEntry struct {
	ID       string     `db:"id" json:"id"`
	PoolType PoolType   `db:"pool_type" json:"pool_type"`
	Value    string     `db:"value" json:"value"`
	IsUsed   bool       `db:"is_used" json:"is_used"`
	UsedBy   *string    `db:"used_by" json:"used_by,omitempty"`
	UsedAt   *time.Time `db:"used_at" json:"used_at,omitempty"`
}

// InitializePoolRequest seeds a pool with sequential values.
type InitializePoolRequest struct {
	Prefix      string `json:"prefix" validate:"required"`
	StartNumber int    `json:"start_number" validate:"gte=0"`
	Count       int    `json:"count" validate:"required,gt=0"`
}

// InitializePoolResult reports whether seeding ran and how many entries exist.
type InitializePoolResult struct {
	Initialized bool `json:"initialized"`
	Count       int  `json:"count"`
}

// MarkUsedRequest claims a specific identifier for a holder.
type MarkUsedRequest struct {
	Value  string `json:"value" validate:"required"`
	UsedBy string `json:"used_by" validate:"required"`
}

// AutoGenerateResult reports the outcome of a replenishment run.
type AutoGenerateResult struct {
	Generated int  `json:"generated"`
	Skipped   bool `json:"skipped"`
	Available int  `json:"available"`
}
