package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/Tanh1603/auction-hub-sub000/internal/apperr"
	"github.com/Tanh1603/auction-hub-sub000/internal/model"
	"github.com/Tanh1603/auction-hub-sub000/internal/storage"
)

// RefundService drives the per-participant refund workflow.
type RefundService struct {
	store  storage.Store
	window time.Duration
}

// NewRefundService constructs a RefundService. window is the early-exit
// cutoff measured back from auction start.
func NewRefundService(store storage.Store, window time.Duration) *RefundService {
	return &RefundService{store: store, window: window}
}

// Request opens a refund request for the authenticated user.
func (s *RefundService) Request(ctx context.Context, auctionID, userID, reason string) (*model.Participant, error) {
	p, err := s.store.GetParticipantByUser(ctx, auctionID, userID)
	if err != nil {
		return nil, err
	}
	updated, err := s.store.RequestRefund(ctx, p.ID, reason, s.window)
	if err != nil {
		slog.Info("refund request rejected", "participant_id", p.ID, "error", err)
		return nil, err
	}
	slog.Info("refund requested", "participant_id", p.ID, "auction_id", auctionID)
	return updated, nil
}

// Apply runs an admin action on a refund request.
func (s *RefundService) Apply(ctx context.Context, participantID, action, reason, adminID string) (*model.Participant, error) {
	var (
		p   *model.Participant
		err error
	)
	switch action {
	case "approve":
		p, err = s.store.ApproveRefund(ctx, participantID, adminID)
	case "reject":
		p, err = s.store.RejectRefund(ctx, participantID, reason, adminID)
	case "process":
		p, err = s.store.ProcessRefund(ctx, participantID, adminID)
	default:
		return nil, apperr.Newf(apperr.KindValidation, "unknown refund action %q", action)
	}
	if err != nil {
		slog.Warn("refund action failed", "participant_id", participantID, "action", action, "error", err)
		return nil, err
	}
	slog.Info("refund action applied", "participant_id", participantID, "action", action, "status", p.RefundStatus)
	return p, nil
}
