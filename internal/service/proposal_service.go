package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/campuslink-ng/campus-api/internal/models"
	appErrors "github.com/campuslink-ng/campus-api/pkg/errors"
)

type proposalRepository interface {
	Create(ctx context.Context, proposal *models.Proposal) error
	FindByID(ctx context.Context, id string) (*models.Proposal, error)
	ListByGig(ctx context.Context, gigID string) ([]models.Proposal, error)
	Accept(ctx context.Context, proposal *models.Proposal, gig *models.Gig) (*models.AcceptProposalResult, error)
}

type gigReader interface {
	FindByID(ctx context.Context, id string) (*models.Gig, error)
}

// ProposalService owns the proposal/order workflow.
type ProposalService struct {
	proposals proposalRepository
	gigs      gigReader
	validator *validator.Validate
	logger    *zap.Logger
}

// NewProposalService constructs a ProposalService.
func NewProposalService(proposals proposalRepository, gigs gigReader, validate *validator.Validate, logger *zap.Logger) *ProposalService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProposalService{proposals: proposals, gigs: gigs, validator: validate, logger: logger}
}

// Create records a proposal against an existing gig; status is fixed PENDING.
func (s *ProposalService) Create(ctx context.Context, proposerID, gigID string, req models.CreateProposalRequest) (*models.Proposal, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid proposal payload")
	}

	if _, err := s.gigs.FindByID(ctx, gigID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "gig not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load gig")
	}

	proposal := &models.Proposal{
		GigID:            gigID,
		ProposerID:       proposerID,
		Message:          req.Message,
		Amount:           req.Amount,
		DeliveryTimeDays: req.DeliveryTimeDays,
		Status:           models.ProposalStatusPending,
	}
	if err := s.proposals.Create(ctx, proposal); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create proposal")
	}
	return proposal, nil
}

// ListByGig returns proposals for a gig; restricted to the gig owner or admin.
func (s *ProposalService) ListByGig(ctx context.Context, gigID string, caller *models.JWTClaims) ([]models.Proposal, error) {
	gig, err := s.gigs.FindByID(ctx, gigID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "gig not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load gig")
	}
	if caller == nil || (caller.UserID != gig.OwnerID && !caller.IsAdmin()) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only the gig owner may view its proposals")
	}
	proposals, err := s.proposals.ListByGig(ctx, gigID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list proposals")
	}
	return proposals, nil
}

// Accept transitions a PENDING proposal to ACCEPTED and spawns the order and
// escrow transaction. The three writes commit or roll back together.
func (s *ProposalService) Accept(ctx context.Context, proposalID string, caller *models.JWTClaims) (*models.AcceptProposalResult, error) {
	proposal, err := s.proposals.FindByID(ctx, proposalID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "proposal not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load proposal")
	}

	gig, err := s.gigs.FindByID(ctx, proposal.GigID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "gig not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load gig")
	}
	if caller == nil || (caller.UserID != gig.OwnerID && !caller.IsAdmin()) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only the gig owner may accept a proposal")
	}
	if proposal.Status != models.ProposalStatusPending {
		return nil, appErrors.Clone(appErrors.ErrConflict, "proposal is not pending")
	}

	result, err := s.proposals.Accept(ctx, proposal, gig)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "proposal is not pending")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to accept proposal")
	}

	s.logger.Info("proposal accepted",
		zap.String("proposal_id", proposalID),
		zap.String("order_id", result.Order.ID),
	)
	return result, nil
}
