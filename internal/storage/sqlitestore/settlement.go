package sqlitestore

import (
	"context"
	"fmt"

	"github.com/Tanh1603/auction-hub-sub000/internal/apperr"
	"github.com/Tanh1603/auction-hub-sub000/internal/model"
)

// Finalize converts an ended auction's bid state into a definitive outcome.
// Single-shot: the status gate runs inside the transaction, so a second
// caller always sees the terminal state and fails.
func (s *Store) Finalize(ctx context.Context, auctionID, adminID string, minConfirmed int) (*model.FinalizeResult, error) {
	tx, rollback, err := s.begin(ctx)
	if err != nil {
		return nil, err
	}
	defer rollback()

	a, err := getAuctionTx(ctx, tx, auctionID)
	if err != nil {
		return nil, err
	}
	switch a.Status {
	case model.StatusAwaitingResult:
	case model.StatusSuccess, model.StatusFailed:
		return nil, apperr.Validation("already finalized")
	default:
		return nil, apperr.Newf(apperr.KindValidation, "cannot finalize auction in %s state", a.Status)
	}

	var confirmed int
	err = tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM participants WHERE auction_id = ? AND confirmed_at IS NOT NULL`,
		auctionID).Scan(&confirmed)
	if err != nil {
		return nil, fmt.Errorf("count confirmed participants: %w", err)
	}

	total, err := countValidBids(ctx, tx, auctionID)
	if err != nil {
		return nil, err
	}

	result := &model.FinalizeResult{AuctionID: auctionID, TotalValidBids: total}
	if confirmed < minConfirmed {
		// Too few confirmed participants fails the auction regardless of
		// bid presence.
		result.Status = model.StatusFailed
	} else {
		winner, err := winningBid(ctx, tx, auctionID)
		if err != nil {
			return nil, err
		}
		if winner == nil {
			result.Status = model.StatusFailed
		} else {
			result.Status = model.StatusSuccess
			result.WinningBid = winner
		}
	}

	if _, err := tx.ExecContext(ctx, `UPDATE auctions SET status = ? WHERE id = ?`, result.Status, auctionID); err != nil {
		return nil, fmt.Errorf("update auction status: %w", err)
	}
	meta := fmt.Sprintf("outcome %s, confirmed %d, valid bids %d", result.Status, confirmed, total)
	if err := appendAudit(ctx, tx, auctionID, model.ActionFinalized, adminID, meta); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}
	return result, nil
}

// HandleWinnerDefault disqualifies the current winner for payment default,
// forfeits the deposit, and promotes the next-highest eligible bid. When no
// runner-up remains the auction is marked failed.
func (s *Store) HandleWinnerDefault(ctx context.Context, auctionID, reason, adminID string) (*model.WinnerDefaultResult, error) {
	tx, rollback, err := s.begin(ctx)
	if err != nil {
		return nil, err
	}
	defer rollback()

	a, err := getAuctionTx(ctx, tx, auctionID)
	if err != nil {
		return nil, err
	}
	if a.Status != model.StatusSuccess {
		return nil, apperr.Forbidden("winner default requires a successful auction")
	}

	winner, err := winningBid(ctx, tx, auctionID)
	if err != nil {
		return nil, err
	}
	if winner == nil {
		return nil, apperr.Conflict("auction has no current winner")
	}

	p, err := getParticipantTx(ctx, tx, winner.ParticipantID)
	if err != nil {
		return nil, err
	}
	_, err = tx.ExecContext(ctx,
		`UPDATE participants
		 SET is_disqualified = 1, disqualified_reason = ?, refund_status = ?
		 WHERE id = ?`,
		model.DisqualifiedPaymentDefault, model.RefundForfeited, p.ID)
	if err != nil {
		return nil, fmt.Errorf("disqualify defaulting winner: %w", err)
	}
	p.IsDisqualified = true
	p.DisqualifiedReason = model.DisqualifiedPaymentDefault
	p.RefundStatus = model.RefundForfeited

	if _, err := tx.ExecContext(ctx, `UPDATE bids SET is_winning_bid = 0 WHERE id = ?`, winner.ID); err != nil {
		return nil, fmt.Errorf("demote defaulted winner: %w", err)
	}
	winner.IsWinningBid = false

	promoted, err := promoteWinner(ctx, tx, auctionID, adminID)
	if err != nil {
		return nil, err
	}

	result := &model.WinnerDefaultResult{
		AuctionID:    auctionID,
		Status:       a.Status,
		DefaultedBid: winner,
		Promoted:     promoted,
		Participant:  p,
	}
	if promoted == nil {
		result.Status = model.StatusFailed
		if _, err := tx.ExecContext(ctx, `UPDATE auctions SET status = ? WHERE id = ?`, model.StatusFailed, auctionID); err != nil {
			return nil, fmt.Errorf("fail auction after default: %w", err)
		}
	}

	meta := fmt.Sprintf("bid %s participant %s: %s", winner.ID, p.ID, reason)
	if err := appendAudit(ctx, tx, auctionID, model.ActionWinnerDefaulted, adminID, meta); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}
	return result, nil
}
