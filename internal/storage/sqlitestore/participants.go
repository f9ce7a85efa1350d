package sqlitestore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Tanh1603/auction-hub-sub000/internal/apperr"
	"github.com/Tanh1603/auction-hub-sub000/internal/model"
)

// RegisterParticipant creates a participant record for a user. The
// duplicate check and insert share one transaction.
func (s *Store) RegisterParticipant(ctx context.Context, auctionID, userID string) (*model.Participant, error) {
	tx, rollback, err := s.begin(ctx)
	if err != nil {
		return nil, err
	}
	defer rollback()

	a, err := getAuctionTx(ctx, tx, auctionID)
	if err != nil {
		return nil, err
	}
	if a.Status != model.StatusScheduled {
		return nil, apperr.Forbidden("registration is closed for this auction")
	}

	var exists bool
	err = tx.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM participants WHERE auction_id = ? AND user_id = ?)`,
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
	_, err = tx.ExecContext(ctx,
		`INSERT INTO participants (id, auction_id, user_id, registered_at, refund_status)
		 VALUES (?, ?, ?, ?, ?)`,
		p.ID, p.AuctionID, p.UserID, ts(p.RegisteredAt), p.RefundStatus,
	)
	if err != nil {
		return nil, fmt.Errorf("insert participant: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}
	return p, nil
}

// GetParticipant returns a participant by ID.
func (s *Store) GetParticipant(ctx context.Context, id string) (*model.Participant, error) {
	return scanParticipant(s.db.QueryRowContext(ctx,
		`SELECT `+participantCols+` FROM participants WHERE id = ?`, id))
}

// GetParticipantByUser returns the participant record linking a user to an auction.
func (s *Store) GetParticipantByUser(ctx context.Context, auctionID, userID string) (*model.Participant, error) {
	return scanParticipant(s.db.QueryRowContext(ctx,
		`SELECT `+participantCols+` FROM participants WHERE auction_id = ? AND user_id = ?`,
		auctionID, userID))
}

// ListParticipants returns all participants for an auction.
func (s *Store) ListParticipants(ctx context.Context, auctionID string) ([]model.Participant, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+participantCols+` FROM participants WHERE auction_id = ? ORDER BY registered_at ASC`,
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

// mutateParticipant runs fn against the participant inside a transaction
// and commits the resulting column updates plus an audit entry.
func (s *Store) mutateParticipant(ctx context.Context, participantID string,
	fn func(tx *sql.Tx, p *model.Participant) (action, performedBy, metadata string, err error),
) (*model.Participant, error) {
	tx, rollback, err := s.begin(ctx)
	if err != nil {
		return nil, err
	}
	defer rollback()

	p, err := getParticipantTx(ctx, tx, participantID)
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
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}
	return p, nil
}

// ConfirmParticipant records admin approval of a registration.
func (s *Store) ConfirmParticipant(ctx context.Context, participantID, adminID string) (*model.Participant, error) {
	return s.mutateParticipant(ctx, participantID, func(tx *sql.Tx, p *model.Participant) (string, string, string, error) {
		if p.IsConfirmed() {
			return "", "", "", apperr.Conflict("participant already confirmed")
		}
		if p.HasWithdrawn() || p.IsDisqualified {
			return "", "", "", apperr.Forbidden("participant cannot be confirmed")
		}
		now := time.Now().UTC()
		if _, err := tx.ExecContext(ctx, `UPDATE participants SET confirmed_at = ? WHERE id = ?`, ts(now), p.ID); err != nil {
			return "", "", "", fmt.Errorf("confirm participant: %w", err)
		}
		p.ConfirmedAt = &now
		return model.ActionParticipantConfirmed, adminID, p.UserID, nil
	})
}

// CheckInParticipant records check-in for the live session, bounded by the
// auction's check-in window.
func (s *Store) CheckInParticipant(ctx context.Context, participantID string) (*model.Participant, error) {
	return s.mutateParticipant(ctx, participantID, func(tx *sql.Tx, p *model.Participant) (string, string, string, error) {
		if p.IsCheckedIn() {
			return "", "", "", apperr.Conflict("participant already checked in")
		}
		if !p.IsConfirmed() || p.HasWithdrawn() || p.IsDisqualified {
			return "", "", "", apperr.Forbidden("participant is not eligible to check in")
		}
		a, err := getAuctionTx(ctx, tx, p.AuctionID)
		if err != nil {
			return "", "", "", err
		}
		now := time.Now().UTC()
		if now.Before(a.CheckInOpensAt) || now.After(a.CheckInClosesAt) {
			return "", "", "", apperr.Forbidden("check-in window is closed")
		}
		if _, err := tx.ExecContext(ctx, `UPDATE participants SET checked_in_at = ? WHERE id = ?`, ts(now), p.ID); err != nil {
			return "", "", "", fmt.Errorf("check in participant: %w", err)
		}
		p.CheckedInAt = &now
		return model.ActionCheckedIn, p.UserID, "", nil
	})
}

// WithdrawParticipant records a voluntary exit from the auction.
func (s *Store) WithdrawParticipant(ctx context.Context, participantID string) (*model.Participant, error) {
	return s.mutateParticipant(ctx, participantID, func(tx *sql.Tx, p *model.Participant) (string, string, string, error) {
		if p.HasWithdrawn() {
			return "", "", "", apperr.Conflict("participant already withdrawn")
		}
		if p.IsDisqualified {
			return "", "", "", apperr.Forbidden("disqualified participant cannot withdraw")
		}
		now := time.Now().UTC()
		if _, err := tx.ExecContext(ctx, `UPDATE participants SET withdrawn_at = ? WHERE id = ?`, ts(now), p.ID); err != nil {
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
	return s.mutateParticipant(ctx, participantID, func(tx *sql.Tx, p *model.Participant) (string, string, string, error) {
		if p.IsDisqualified {
			return "", "", "", apperr.Conflict("participant already disqualified")
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE participants SET is_disqualified = 1, disqualified_reason = ? WHERE id = ?`,
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
	return s.mutateParticipant(ctx, participantID, func(tx *sql.Tx, p *model.Participant) (string, string, string, error) {
		if p.DepositPaid() {
			return "", "", "", apperr.Conflict("deposit already paid")
		}
		a, err := getAuctionTx(ctx, tx, p.AuctionID)
		if err != nil {
			return "", "", "", err
		}
		now := time.Now().UTC()
		if now.After(a.DepositDeadline) {
			return "", "", "", apperr.Forbidden("deposit deadline has passed")
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE participants SET deposit_paid_at = ?, deposit_amount = ? WHERE id = ?`,
			ts(now), amount.String(), p.ID); err != nil {
			return "", "", "", fmt.Errorf("mark deposit paid: %w", err)
		}
		p.DepositPaidAt = &now
		p.DepositAmount = &amount
		return model.ActionDepositPaid, p.UserID, amount.String(), nil
	})
}
