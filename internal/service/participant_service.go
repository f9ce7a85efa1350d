package service

import (
	"context"
	"log/slog"

	"github.com/Tanh1603/auction-hub-sub000/internal/apperr"
	"github.com/Tanh1603/auction-hub-sub000/internal/model"
	"github.com/Tanh1603/auction-hub-sub000/internal/storage"
)

// ParticipantService handles registration and the participant lifecycle.
type ParticipantService struct {
	store    storage.Store
	payments PaymentGateway
}

// NewParticipantService constructs a ParticipantService.
func NewParticipantService(store storage.Store, payments PaymentGateway) *ParticipantService {
	return &ParticipantService{store: store, payments: payments}
}

// Register creates a participant record for the authenticated user.
func (s *ParticipantService) Register(ctx context.Context, auctionID, userID string) (*model.Participant, error) {
	if auctionID == "" {
		return nil, apperr.Validation("auction id is required")
	}
	p, err := s.store.RegisterParticipant(ctx, auctionID, userID)
	if err != nil {
		slog.Warn("registration failed", "auction_id", auctionID, "user_id", userID, "error", err)
		return nil, err
	}
	slog.Info("participant registered", "auction_id", auctionID, "participant_id", p.ID)
	return p, nil
}

// byUser resolves the caller's participant record for an auction.
func (s *ParticipantService) byUser(ctx context.Context, auctionID, userID string) (*model.Participant, error) {
	p, err := s.store.GetParticipantByUser(ctx, auctionID, userID)
	if err != nil {
		if apperr.IsKind(err, apperr.KindNotFound) {
			return nil, apperr.NotFound("not registered for this auction")
		}
		return nil, err
	}
	return p, nil
}

// CheckIn records the authenticated user's check-in for the live session.
func (s *ParticipantService) CheckIn(ctx context.Context, auctionID, userID string) (*model.Participant, error) {
	p, err := s.byUser(ctx, auctionID, userID)
	if err != nil {
		return nil, err
	}
	return s.store.CheckInParticipant(ctx, p.ID)
}

// Withdraw records the authenticated user's voluntary exit.
func (s *ParticipantService) Withdraw(ctx context.Context, auctionID, userID string) (*model.Participant, error) {
	p, err := s.byUser(ctx, auctionID, userID)
	if err != nil {
		return nil, err
	}
	return s.store.WithdrawParticipant(ctx, p.ID)
}

// ConfirmDeposit verifies a payment session with the gateway and records
// the deposit when paid.
func (s *ParticipantService) ConfirmDeposit(ctx context.Context, auctionID, userID, sessionID string) (*model.Participant, error) {
	if sessionID == "" {
		return nil, apperr.Validation("payment session id is required")
	}
	p, err := s.byUser(ctx, auctionID, userID)
	if err != nil {
		return nil, err
	}
	paid, amount, err := s.payments.DepositStatus(ctx, sessionID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "payment gateway lookup failed", err)
	}
	if !paid {
		return nil, apperr.Forbidden("payment session is unpaid")
	}
	updated, err := s.store.MarkDepositPaid(ctx, p.ID, amount)
	if err != nil {
		return nil, err
	}
	slog.Info("deposit recorded", "participant_id", p.ID, "amount", amount.String())
	return updated, nil
}

// Confirm records admin approval of a registration.
func (s *ParticipantService) Confirm(ctx context.Context, participantID, adminID string) (*model.Participant, error) {
	return s.store.ConfirmParticipant(ctx, participantID, adminID)
}

// Disqualify marks a participant ineligible (admin).
func (s *ParticipantService) Disqualify(ctx context.Context, participantID, reason, adminID string) (*model.Participant, error) {
	p, err := s.store.DisqualifyParticipant(ctx, participantID, reason, adminID)
	if err != nil {
		return nil, err
	}
	slog.Info("participant disqualified", "participant_id", participantID, "reason", reason, "admin", adminID)
	return p, nil
}

// List returns all participants for an auction (admin).
func (s *ParticipantService) List(ctx context.Context, auctionID string) ([]model.Participant, error) {
	if _, err := s.store.GetAuction(ctx, auctionID); err != nil {
		return nil, err
	}
	return s.store.ListParticipants(ctx, auctionID)
}
