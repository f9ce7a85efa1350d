package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/Tanh1603/auction-hub-sub000/internal/apperr"
	"github.com/Tanh1603/auction-hub-sub000/internal/auction"
	"github.com/Tanh1603/auction-hub-sub000/internal/model"
)

// setRefundStatus updates the workflow column for a locked participant.
func setRefundStatus(ctx context.Context, tx pgx.Tx, p *model.Participant, to model.RefundStatus) error {
	if _, err := tx.Exec(ctx,
		`UPDATE participants SET refund_status = $1 WHERE id = $2`, to, p.ID); err != nil {
		return fmt.Errorf("set refund status: %w", err)
	}
	p.RefundStatus = to
	return nil
}

// RequestRefund opens a refund request when the participant is eligible:
// deposit paid, not the current winner, not disqualified, and (for
// early exits) withdrawn before the configured deadline window.
func (s *Store) RequestRefund(ctx context.Context, participantID, reason string, window time.Duration) (*model.Participant, error) {
	tx, rollback, err := s.begin(ctx)
	if err != nil {
		return nil, err
	}
	defer rollback()

	// The winner check must be stable against concurrent arbitration, so
	// take the auction row lock like every other winner read.
	var auctionID string
	err = tx.QueryRow(ctx, `SELECT auction_id FROM participants WHERE id = $1`, participantID).Scan(&auctionID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperr.NotFound("participant not found")
		}
		return nil, fmt.Errorf("resolve participant auction: %w", err)
	}
	a, err := lockAuction(ctx, tx, auctionID)
	if err != nil {
		return nil, err
	}
	p, err := lockParticipant(ctx, tx, participantID)
	if err != nil {
		return nil, err
	}

	winner, err := winningBid(ctx, tx, auctionID)
	if err != nil {
		return nil, err
	}
	isWinner := winner != nil && winner.ParticipantID == p.ID
	if err := auction.CheckRefundRequest(p, a, isWinner, time.Now().UTC(), window); err != nil {
		return nil, err
	}

	if err := setRefundStatus(ctx, tx, p, model.RefundPending); err != nil {
		return nil, err
	}
	if err := appendAudit(ctx, tx, auctionID, model.ActionRefundRequested, p.UserID, reason); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}
	return p, nil
}

// ApproveRefund moves a pending request to approved.
func (s *Store) ApproveRefund(ctx context.Context, participantID, adminID string) (*model.Participant, error) {
	return s.mutateParticipant(ctx, participantID, func(tx pgx.Tx, p *model.Participant) (string, string, string, error) {
		if p.RefundStatus != model.RefundPending {
			return "", "", "", apperr.Newf(apperr.KindConflict, "refund is %s, not pending", p.RefundStatus)
		}
		if err := setRefundStatus(ctx, tx, p, model.RefundApproved); err != nil {
			return "", "", "", err
		}
		return model.ActionRefundApproved, adminID, p.UserID, nil
	})
}

// RejectRefund moves a pending request to rejected; a reason is required.
func (s *Store) RejectRefund(ctx context.Context, participantID, reason, adminID string) (*model.Participant, error) {
	if reason == "" {
		return nil, apperr.Validation("rejection reason is required")
	}
	return s.mutateParticipant(ctx, participantID, func(tx pgx.Tx, p *model.Participant) (string, string, string, error) {
		if p.RefundStatus != model.RefundPending {
			return "", "", "", apperr.Newf(apperr.KindConflict, "refund is %s, not pending", p.RefundStatus)
		}
		if err := setRefundStatus(ctx, tx, p, model.RefundRejected); err != nil {
			return "", "", "", err
		}
		return model.ActionRefundRejected, adminID, reason, nil
	})
}

// ProcessRefund completes an approved refund. Disqualification occurring
// after approval blocks processing.
func (s *Store) ProcessRefund(ctx context.Context, participantID, adminID string) (*model.Participant, error) {
	return s.mutateParticipant(ctx, participantID, func(tx pgx.Tx, p *model.Participant) (string, string, string, error) {
		if p.RefundStatus != model.RefundApproved {
			return "", "", "", apperr.Newf(apperr.KindConflict, "refund is %s, not approved", p.RefundStatus)
		}
		if p.IsDisqualified {
			return "", "", "", apperr.Conflict("participant was disqualified after approval")
		}
		if err := setRefundStatus(ctx, tx, p, model.RefundProcessed); err != nil {
			return "", "", "", err
		}
		return model.ActionRefundProcessed, adminID, p.UserID, nil
	})
}
