package sqlitestore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Tanh1603/auction-hub-sub000/internal/apperr"
	"github.com/Tanh1603/auction-hub-sub000/internal/auction"
	"github.com/Tanh1603/auction-hub-sub000/internal/model"
)

// PlaceBid runs the full arbitration step as one transaction: status gate,
// participant eligibility, increment rule against the current winner,
// demotion of the previous winning bid and insertion of the new one.
// Racing bids are sequenced by the single-connection transaction; the loser
// re-reads the new winner and fails the increment rule.
func (s *Store) PlaceBid(ctx context.Context, auctionID, participantID string, amount decimal.Decimal) (*model.BidPlacement, error) {
	tx, rollback, err := s.begin(ctx)
	if err != nil {
		return nil, err
	}
	defer rollback()

	a, err := getAuctionTx(ctx, tx, auctionID)
	if err != nil {
		return nil, err
	}
	if a.Status != model.StatusLive {
		return nil, apperr.Forbidden("auction not open for bidding")
	}

	p, err := getParticipantTx(ctx, tx, participantID)
	if err != nil {
		return nil, err
	}
	if p.AuctionID != auctionID || !p.CanBid() {
		return nil, apperr.Forbidden("ineligible participant")
	}

	current, err := winningBid(ctx, tx, auctionID)
	if err != nil {
		return nil, err
	}
	var currentAmount *decimal.Decimal
	if current != nil {
		currentAmount = &current.Amount
	}
	floor := auction.MinimumNextBid(a.StartingPrice, a.BidIncrement, currentAmount)
	if err := auction.ValidateBidAmount(amount, floor); err != nil {
		return nil, err
	}

	if current != nil {
		if _, err := tx.ExecContext(ctx,
			`UPDATE bids SET is_winning_bid = 0 WHERE id = ?`, current.ID); err != nil {
			return nil, fmt.Errorf("demote previous winner: %w", err)
		}
	}

	bid := &model.Bid{
		ID:            uuid.New().String(),
		AuctionID:     auctionID,
		ParticipantID: participantID,
		Amount:        amount,
		BidAt:         time.Now().UTC(),
		IsWinningBid:  true,
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO bids (id, auction_id, participant_id, amount, bid_at, is_winning_bid)
		 VALUES (?, ?, ?, ?, ?, 1)`,
		bid.ID, bid.AuctionID, bid.ParticipantID, bid.Amount.String(), ts(bid.BidAt),
	)
	if err != nil {
		return nil, fmt.Errorf("insert bid: %w", err)
	}

	total, err := countValidBids(ctx, tx, auctionID)
	if err != nil {
		return nil, err
	}
	meta := fmt.Sprintf("bid %s amount %s", bid.ID, amount.String())
	if err := appendAudit(ctx, tx, auctionID, model.ActionBidPlaced, p.UserID, meta); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	return &model.BidPlacement{
		Bid:         bid,
		NextMinimum: auction.MinimumNextBid(a.StartingPrice, a.BidIncrement, &bid.Amount),
		TotalBids:   total,
	}, nil
}

// DenyBid invalidates a bid and, when it was winning, promotes the
// next-highest eligible bid inside the same transaction.
func (s *Store) DenyBid(ctx context.Context, bidID, reason, denierID string) (*model.BidDenial, error) {
	tx, rollback, err := s.begin(ctx)
	if err != nil {
		return nil, err
	}
	defer rollback()

	b, err := scanBid(tx.QueryRowContext(ctx, `SELECT `+bidCols+` FROM bids WHERE id = ?`, bidID))
	if err != nil {
		return nil, err
	}
	if b.IsDenied {
		return nil, apperr.Conflict("bid already denied")
	}

	now := time.Now().UTC()
	wasWinning := b.IsWinningBid
	_, err = tx.ExecContext(ctx,
		`UPDATE bids SET is_denied = 1, is_winning_bid = 0,
		        denied_at = ?, denier_id = ?, denial_reason = ?
		 WHERE id = ?`,
		ts(now), denierID, reason, bidID)
	if err != nil {
		return nil, fmt.Errorf("deny bid: %w", err)
	}
	b.IsDenied = true
	b.IsWinningBid = false
	b.DeniedAt = &now
	b.DenierID = denierID
	b.DenialReason = reason

	var promoted *model.Bid
	if wasWinning {
		promoted, err = promoteWinner(ctx, tx, b.AuctionID, denierID)
		if err != nil {
			return nil, err
		}
	}

	meta := fmt.Sprintf("bid %s: %s", bidID, reason)
	if err := appendAudit(ctx, tx, b.AuctionID, model.ActionBidDenied, denierID, meta); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}
	return &model.BidDenial{Bid: b, Promoted: promoted}, nil
}

// promoteWinner re-runs winner selection among the remaining eligible bids
// and marks the result winning. Shared by denial and winner-default
// handling. Returns nil when no candidate remains.
func promoteWinner(ctx context.Context, tx *sql.Tx, auctionID, performedBy string) (*model.Bid, error) {
	candidates, err := eligibleBids(ctx, tx, auctionID)
	if err != nil {
		return nil, err
	}
	next := auction.NextWinner(candidates)
	if next == nil {
		return nil, nil
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE bids SET is_winning_bid = 1 WHERE id = ?`, next.ID); err != nil {
		return nil, fmt.Errorf("promote winner: %w", err)
	}
	next.IsWinningBid = true
	meta := fmt.Sprintf("bid %s amount %s", next.ID, next.Amount.String())
	if err := appendAudit(ctx, tx, auctionID, model.ActionWinnerPromoted, performedBy, meta); err != nil {
		return nil, err
	}
	return next, nil
}

// GetBid returns a single bid by ID.
func (s *Store) GetBid(ctx context.Context, id string) (*model.Bid, error) {
	return scanBid(s.db.QueryRowContext(ctx, `SELECT `+bidCols+` FROM bids WHERE id = ?`, id))
}

// ListBids returns bids for an auction, newest first. limit <= 0 means all.
func (s *Store) ListBids(ctx context.Context, auctionID string, limit int) ([]model.Bid, error) {
	q := `SELECT ` + bidCols + ` FROM bids WHERE auction_id = ? ORDER BY bid_at DESC`
	args := []any{auctionID}
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list bids: %w", err)
	}
	defer rows.Close()

	var bids []model.Bid
	for rows.Next() {
		b, err := scanBid(rows)
		if err != nil {
			return nil, err
		}
		bids = append(bids, *b)
	}
	return bids, rows.Err()
}

// GetWinningBid returns the current non-denied winning bid, or nil when none.
func (s *Store) GetWinningBid(ctx context.Context, auctionID string) (*model.Bid, error) {
	b, err := scanBid(s.db.QueryRowContext(ctx,
		`SELECT `+bidCols+` FROM bids
		 WHERE auction_id = ? AND is_winning_bid AND NOT is_denied`, auctionID))
	if err != nil {
		if apperr.IsKind(err, apperr.KindNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return b, nil
}
