package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/campuslink-ng/campus-api/internal/models"
)

// ProposalRepository persists proposals and the records spawned when one is
// accepted (order, wallet, escrow transaction).
type ProposalRepository struct {
	db *sqlx.DB
}

// NewProposalRepository constructs a ProposalRepository.
func NewProposalRepository(db *sqlx.DB) *ProposalRepository {
	return &ProposalRepository{db: db}
}

const proposalColumns = `id, gig_id, proposer_id, message, amount, delivery_time_days, status, created_at, updated_at`

// Create inserts a new proposal.
func (r *ProposalRepository) Create(ctx context.Context, proposal *models.Proposal) error {
	if proposal.ID == "" {
		proposal.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if proposal.CreatedAt.IsZero() {
		proposal.CreatedAt = now
	}
	proposal.UpdatedAt = proposal.CreatedAt
	const query = `INSERT INTO proposals (id, gig_id, proposer_id, message, amount, delivery_time_days, status, created_at, updated_at)
		VALUES (:id, :gig_id, :proposer_id, :message, :amount, :delivery_time_days, :status, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, proposal); err != nil {
		return fmt.Errorf("create proposal: %w", err)
	}
	return nil
}

// FindByID returns the proposal with the given id.
func (r *ProposalRepository) FindByID(ctx context.Context, id string) (*models.Proposal, error) {
	query := fmt.Sprintf("SELECT %s FROM proposals WHERE id = $1", proposalColumns)
	var proposal models.Proposal
	if err := r.db.GetContext(ctx, &proposal, query, id); err != nil {
		return nil, err
	}
	return &proposal, nil
}

// ListByGig returns proposals against a gig, newest first.
func (r *ProposalRepository) ListByGig(ctx context.Context, gigID string) ([]models.Proposal, error) {
	query := fmt.Sprintf("SELECT %s FROM proposals WHERE gig_id = $1 ORDER BY created_at DESC", proposalColumns)
	var proposals []models.Proposal
	if err := r.db.SelectContext(ctx, &proposals, query, gigID); err != nil {
		return nil, fmt.Errorf("list proposals: %w", err)
	}
	return proposals, nil
}

// Accept transitions the proposal to ACCEPTED and creates the order and escrow
// transaction inside a single database transaction. The proposal update is
// conditional on PENDING status; sql.ErrNoRows signals it was not acceptable.
func (r *ProposalRepository) Accept(ctx context.Context, proposal *models.Proposal, gig *models.Gig) (*models.AcceptProposalResult, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin accept transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	now := time.Now().UTC()

	res, err := tx.ExecContext(ctx,
		`UPDATE proposals SET status = $1, updated_at = $2 WHERE id = $3 AND status = $4`,
		models.ProposalStatusAccepted, now, proposal.ID, models.ProposalStatusPending)
	if err != nil {
		return nil, fmt.Errorf("accept proposal: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("check accepted proposal rows: %w", err)
	}
	if affected == 0 {
		return nil, sql.ErrNoRows
	}

	wallet, err := findOrCreateWallet(ctx, tx, proposal.ProposerID, gig.Currency, now)
	if err != nil {
		return nil, err
	}

	order := &models.Order{
		ID:               uuid.NewString(),
		GigID:            gig.ID,
		ProposalID:       proposal.ID,
		BuyerID:          proposal.ProposerID,
		SellerID:         gig.OwnerID,
		Amount:           proposal.Amount,
		DeliveryTimeDays: proposal.DeliveryTimeDays,
		Status:           models.OrderStatusInProgress,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if _, err := tx.NamedExecContext(ctx,
		`INSERT INTO orders (id, gig_id, proposal_id, buyer_id, seller_id, amount, delivery_time_days, status, created_at, updated_at)
		VALUES (:id, :gig_id, :proposal_id, :buyer_id, :seller_id, :amount, :delivery_time_days, :status, :created_at, :updated_at)`,
		order); err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	transaction := &models.Transaction{
		ID:        uuid.NewString(),
		WalletID:  wallet.ID,
		OrderID:   order.ID,
		Reference: fmt.Sprintf("ESC-%s", order.ID),
		Amount:    proposal.Amount,
		Type:      models.TransactionTypeCredit,
		Status:    models.TransactionStatusPending,
		CreatedAt: now,
	}
	if _, err := tx.NamedExecContext(ctx,
		`INSERT INTO transactions (id, wallet_id, order_id, reference, amount, type, status, created_at)
		VALUES (:id, :wallet_id, :order_id, :reference, :amount, :type, :status, :created_at)`,
		transaction); err != nil {
		return nil, fmt.Errorf("create escrow transaction: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit accept transaction: %w", err)
	}

	accepted := *proposal
	accepted.Status = models.ProposalStatusAccepted
	accepted.UpdatedAt = now
	return &models.AcceptProposalResult{
		Proposal:    &accepted,
		Order:       order,
		Transaction: transaction,
	}, nil
}

func findOrCreateWallet(ctx context.Context, tx *sqlx.Tx, userID, currency string, now time.Time) (*models.Wallet, error) {
	var wallet models.Wallet
	err := tx.GetContext(ctx, &wallet,
		`SELECT id, user_id, balance, currency, created_at, updated_at FROM wallets WHERE user_id = $1`, userID)
	if err == nil {
		return &wallet, nil
	}
	if err != sql.ErrNoRows {
		return nil, fmt.Errorf("find wallet: %w", err)
	}

	wallet = models.Wallet{
		ID:        uuid.NewString(),
		UserID:    userID,
		Balance:   0,
		Currency:  currency,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := tx.NamedExecContext(ctx,
		`INSERT INTO wallets (id, user_id, balance, currency, created_at, updated_at)
		VALUES (:id, :user_id, :balance, :currency, :created_at, :updated_at)`,
		&wallet); err != nil {
		return nil, fmt.Errorf("create wallet: %w", err)
	}
	return &wallet, nil
}
