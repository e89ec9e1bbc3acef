package models

import "time"

// ProposalStatus tracks the lifecycle of a proposal against a gig.
type ProposalStatus string

const (
	ProposalStatusPending  ProposalStatus = "PENDING"
	ProposalStatusAccepted ProposalStatus = "ACCEPTED"
	ProposalStatusDeclined ProposalStatus = "DECLINED"
)

// Proposal is an offer made by a user against an existing gig.
type Proposal struct {
	ID               string         `db:"id" json:"id"`
	GigID            string         `db:"gig_id" json:"gig_id"`
	ProposerID       string         `db:"proposer_id" json:"proposer_id"`
	Message          string         `db:"message" json:"message"`
	Amount           float64        `db:"amount" json:"amount"`
	DeliveryTimeDays int            `db:"delivery_time_days" json:"delivery_time_days"`
	Status           ProposalStatus `db:"status" json:"status"`
	CreatedAt        time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time      `db:"updated_at" json:"updated_at"`
}

// CreateProposalRequest is the payload for proposing against a gig.
type CreateProposalRequest struct {
	Message          string  `json:"message" validate:"required"`
	Amount           float64 `json:"amount" validate:"required,gt=0"`
	DeliveryTimeDays int     `json:"delivery_time_days" validate:"required,gt=0"`
}

// OrderStatus tracks order fulfilment.
type OrderStatus string

const (
	OrderStatusInProgress OrderStatus = "IN_PROGRESS"
	OrderStatusDelivered  OrderStatus = "DELIVERED"
	OrderStatusCompleted  OrderStatus = "COMPLETED"
	OrderStatusCancelled  OrderStatus = "CANCELLED"
)

// Order is created when a proposal is accepted; one order per accepted proposal.
type Order struct {
	ID               string      `db:"id" json:"id"`
	GigID            string      `db:"gig_id" json:"gig_id"`
	ProposalID       string      `db:"proposal_id" json:"proposal_id"`
	BuyerID          string      `db:"buyer_id" json:"buyer_id"`
	SellerID         string      `db:"seller_id" json:"seller_id"`
	Amount           float64     `db:"amount" json:"amount"`
	DeliveryTimeDays int         `db:"delivery_time_days" json:"delivery_time_days"`
	Status           OrderStatus `db:"status" json:"status"`
	CreatedAt        time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time   `db:"updated_at" json:"updated_at"`
}

// TransactionType classifies ledger entries.
type TransactionType string

const (
	TransactionTypeCredit TransactionType = "CREDIT"
	TransactionTypeDebit  TransactionType = "DEBIT"
)

// TransactionStatus tracks escrow settlement.
type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "PENDING"
	TransactionStatusSettled   TransactionStatus = "SETTLED"
	TransactionStatusCancelled TransactionStatus = "CANCELLED"
)

// Transaction is an escrow ledger entry created alongside an order.
type Transaction struct {
	ID        string            `db:"id" json:"id"`
	WalletID  string            `db:"wallet_id" json:"wallet_id"`
	OrderID   string            `db:"order_id" json:"order_id"`
	Reference string            `db:"reference" json:"reference"`
	Amount    float64           `db:"amount" json:"amount"`
	Type      TransactionType   `db:"type" json:"type"`
	Status    TransactionStatus `db:"status" json:"status"`
	CreatedAt time.Time         `db:"created_at" json:"created_at"`
}

// Wallet holds a user's escrow balance.
type Wallet struct {
	ID        string    `db:"id" json:"id"`
	UserID    string    `db:"user_id" json:"user_id"`
	Balance   float64   `db:"balance" json:"balance"`
	Currency  string    `db:"currency" json:"currency"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// AcceptProposalResult bundles the records written when a proposal is accepted.
type AcceptProposalResult struct {
	Proposal    *Proposal    `json:"proposal"`
	Order       *Order       `json:"order"`
	Transaction *Transaction `json:"transaction"`
}
