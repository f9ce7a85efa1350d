package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/Tanh1603/auction-hub-sub000/internal/apperr"
	"github.com/Tanh1603/auction-hub-sub000/internal/model"
)

// RegisterParticipant creates a participant record for a user. Duplicate
// registration for the same auction is a conflict; the check runs under the
// auction row lock so concurrent registrations cannot slip past it.
func (s *Store) RegisterParticipant(ctx context.Context, auctionID, userID string) (*model.Participant, error) {
	tx, rollback, err := s.begin(ctx)
	if err != nil {
		return nil, err
	}
	defer rollback()

	a, err := lockAuction(ctx, tx, auctionID)
	if err != nil {
		return nil, err
	}
	if a.Status != model.StatusScheduled {
		return nil, apperr.Forbidden("registration is closed for this auction")
	}

	var exists bool
	err = tx.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM participants WHERE auction_id = $1 AND user_id = $2)`,
		auctionID, userID).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("check duplicate registration: %w", err)
	}
	if exists {
		return nil, apperr.Conflict("already registered for this auction")
	}

	p := &model.Participant{
		ID:           uuid.New().String(),
		AuctionID:    auctionID,
		UserID:       userID,
		RegisteredAt: time.Now().UTC(),
		RefundStatus: model.RefundNone,
	}
	_, err = tx.Exec(ctx,
		`INSERT INTO participants (id, auction_id, user_id, registered_at, refund_status)
		 VALUES ($1, $2, $3, $4, $5)`,
		p.ID, p.AuctionID, p.UserID, p.RegisteredAt, p.RefundStatus,
	)
	if err != nil {
		return nil, fmt.Errorf("insert participant: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}
	return p, nil
}

// GetParticipant returns a participant by ID.
func (s *Store) GetParticipant(ctx context.Context, id string) (*model.Participant, error) {
	return scanParticipant(s.pool.QueryRow(ctx,
		`SELECT `+participantCols+` FROM participants WHERE id = $1`, id))
}

// GetParticipantByUser returns the participant record linking a user to an auction.
func (s *Store) GetParticipantByUser(ctx context.Context, auctionID, userID string) (*model.Participant, error) {
	return scanParticipant(s.pool.QueryRow(ctx,
		`SELECT `+participantCols+` FROM participants WHERE auction_id = $1 AND user_id = $2`,
		auctionID, userID))
}

// ListParticipants returns all participants for an auction.
func (s *Store) ListParticipants(ctx context.Context, auctionID string) ([]model.Participant, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+participantCols+` FROM participants WHERE auction_id = $1 ORDER BY registered_at ASC`,
		auctionID)
	if err != nil {
		return nil, fmt.Errorf("list participants: %w", err)
	}
	defer rows.Close()

	var participants []model.Participant
	for rows.Next() {
		p, err := scanParticipant(rows)
		if err != nil {
			return nil, err
		}
		participants = append(participants, *p)
	}
	return participants, rows.Err()
}

// lockParticipant loads a participant under a row lock inside tx.
func lockParticipant(ctx context.Context, tx pgx.Tx, id string) (*model.Participant, error) {
	return scanParticipant(tx.QueryRow(ctx,
		`SELECT `+participantCols+` FROM participants WHERE id = $1 FOR UPDATE`, id))
}

// mutateParticipant runs fn against the locked participant row and commits
// the resulting column updates plus an audit entry.
func (s *Store) mutateParticipant(ctx context.Context, participantID string,
	fn func(tx pgx.Tx, p *model.Participant) (action, performedBy, metadata string, err error),
) (*model.Participant, error) {
	tx, rollback, err := s.begin(ctx)
	if err != nil {
		return nil, err
	}
	defer rollback()

	p, err := lockParticipant(ctx, tx, participantID)
	if err != nil {
		return nil, err
	}
	action, performedBy, metadata, err := fn(tx, p)
	if err != nil {
		return nil, err
	}
	if err := appendAudit(ctx, tx, p.AuctionID, action, performedBy, metadata); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}
	return p, nil
}

// ConfirmParticipant records admin approval of a registration.
func (s *Store) ConfirmParticipant(ctx context.Context, participantID, adminID string) (*model.Participant, error) {
	return s.mutateParticipant(ctx, participantID, func(tx pgx.Tx, p *model.Participant) (string, string, string, error) {
		if p.IsConfirmed() {
			return "", "", "", apperr.Conflict("participant already confirmed")
		}
		if p.HasWithdrawn() || p.IsDisqualified {
			return "", "", "", apperr.Forbidden("participant cannot be confirmed")
		}
		now := time.Now().UTC()
		if _, err := tx.Exec(ctx, `UPDATE participants SET confirmed_at = $1 WHERE id = $2`, now, p.ID); err != nil {
			return "", "", "", fmt.Errorf("confirm participant: %w", err)
		}
		p.ConfirmedAt = &now
		return model.ActionParticipantConfirmed, adminID, p.UserID, nil
	})
}

// CheckInParticipant records check-in for the live session. The check-in
// window on the auction bounds when this is allowed.
func (s *Store) CheckInParticipant(ctx context.Context, participantID string) (*model.Participant, error) {
	return s.mutateParticipant(ctx, participantID, func(tx pgx.Tx, p *model.Participant) (string, string, string, error) {
		if p.IsCheckedIn() {
			return "", "", "", apperr.Conflict("participant already checked in")
		}
		if !p.IsConfirmed() || p.HasWithdrawn() || p.IsDisqualified {
			return "", "", "", apperr.Forbidden("participant is not eligible to check in")
		}
		a, err := scanAuction(tx.QueryRow(ctx, `SELECT `+auctionCols+` FROM auctions WHERE id = $1`, p.AuctionID))
		if err != nil {
			return "", "", "", err
		}
		now := time.Now().UTC()
		if now.Before(a.CheckInOpensAt) || now.After(a.CheckInClosesAt) {
			return "", "", "", apperr.Forbidden("check-in window is closed")
		}
		if _, err := tx.Exec(ctx, `UPDATE participants SET checked_in_at = $1 WHERE id = $2`, now, p.ID); err != nil {
			return "", "", "", fmt.Errorf("check in participant: %w", err)
		}
		p.CheckedInAt = &now
		return model.ActionCheckedIn, p.UserID, "", nil
	})
}

// WithdrawParticipant records a voluntary exit from the auction.
func (s *Store) WithdrawParticipant(ctx context.Context, participantID string) (*model.Participant, error) {
	return s.mutateParticipant(ctx, participantID, func(tx pgx.Tx, p *model.Participant) (string, string, string, error) {
		if p.HasWithdrawn() {
			return "", "", "", apperr.Conflict("participant already withdrawn")
		}
		if p.IsDisqualified {
			return "", "", "", apperr.Forbidden("disqualified participant cannot withdraw")
		}
		now := time.Now().UTC()
		if _, err := tx.Exec(ctx, `UPDATE participants SET withdrawn_at = $1 WHERE id = $2`, now, p.ID); err != nil {
			return "", "", "", fmt.Errorf("withdraw participant: %w", err)
		}
		p.WithdrawnAt = &now
		return model.ActionWithdrawn, p.UserID, "", nil
	})
}

// DisqualifyParticipant marks a participant ineligible with a reason.
func (s *Store) DisqualifyParticipant(ctx context.Context, participantID, reason, adminID string) (*model.Participant, error) {
	if reason == "" {
		return nil, apperr.Validation("disqualification reason is required")
	}
	return s.mutateParticipant(ctx, participantID, func(tx pgx.Tx, p *model.Participant) (string, string, string, error) {
		if p.IsDisqualified {
			return "", "", "", apperr.Conflict("participant already disqualified")
		}
		if _, err := tx.Exec(ctx,
			`UPDATE participants SET is_disqualified = TRUE, disqualified_reason = $1 WHERE id = $2`,
			reason, p.ID); err != nil {
			return "", "", "", fmt.Errorf("disqualify participant: %w", err)
		}
		p.IsDisqualified = true
		p.DisqualifiedReason = reason
		return model.ActionDisqualified, adminID, reason, nil
	})
}

// MarkDepositPaid records a captured deposit, gated by the deposit deadline.
func (s *Store) MarkDepositPaid(ctx context.Context, participantID string, amount decimal.Decimal) (*model.Participant, error) {
	if amount.Sign() <= 0 {
		return nil, apperr.Validation("deposit amount must be positive")
	}
	return s.mutateParticipant(ctx, participantID, func(tx pgx.Tx, p *model.Participant) (string, string, string, error) {
		if p.DepositPaid() {
			return "", "", "", apperr.Conflict("deposit already paid")
		}
		a, err := scanAuction(tx.QueryRow(ctx, `SELECT `+auctionCols+` FROM auctions WHERE id = $1`, p.AuctionID))
		if err != nil {
			return "", "", "", err
		}
		now := time.Now().UTC()
		if now.After(a.DepositDeadline) {
			return "", "", "", apperr.Forbidden("deposit deadline has passed")
		}
		if _, err := tx.Exec(ctx,
			`UPDATE participants SET deposit_paid_at = $1, deposit_amount = $2 WHERE id = $3`,
			now, amount.String(), p.ID); err != nil {
			return "", "", "", fmt.Errorf("mark deposit paid: %w", err)
		}
		p.DepositPaidAt = &now
		p.DepositAmount = &amount
		return model.ActionDepositPaid, p.UserID, amount.String(), nil
	})
}
