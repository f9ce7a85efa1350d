package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/Tanh1603/auction-hub-sub000/internal/apperr"
	"github.com/Tanh1603/auction-hub-sub000/internal/auction"
	"github.com/Tanh1603/auction-hub-sub000/internal/model"
)

// PlaceBid runs the full arbitration step as one serialized transaction:
// lock the auction row, gate on status and participant eligibility, apply
// the increment rule against the current winner, demote the previous
// winning bid and insert the new one. Racing bids at the same amount are
// sequenced by the row lock; the loser re-reads the new winner and fails
// the increment rule.
func (s *Store) PlaceBid(ctx context.Context, auctionID, participantID string, amount decimal.Decimal) (*model.BidPlacement, error) {
	tx, rollback, err := s.begin(ctx)
	if err != nil {
		return nil, err
	}
	defer rollback()

	a, err := lockAuction(ctx, tx, auctionID)
	if err != nil {
		return nil, err
	}
	if a.Status != model.StatusLive {
		return nil, apperr.Forbidden("auction not open for bidding")
	}

	p, err := scanParticipant(tx.QueryRow(ctx,
		`SELECT `+participantCols+` FROM participants WHERE id = $1`, participantID))
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
		if _, err := tx.Exec(ctx,
			`UPDATE bids SET is_winning_bid = FALSE WHERE id = $1`, current.ID); err != nil {
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
	_, err = tx.Exec(ctx,
		`INSERT INTO bids (id, auction_id, participant_id, amount, bid_at, is_winning_bid)
		 VALUES ($1, $2, $3, $4, $5, TRUE)`,
		bid.ID, bid.AuctionID, bid.ParticipantID, bid.Amount.String(), bid.BidAt,
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
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	return &model.BidPlacement{
		Bid:         bid,
		NextMinimum: auction.MinimumNextBid(a.StartingPrice, a.BidIncrement, &bid.Amount),
		TotalBids:   total,
	}, nil
}

// DenyBid invalidates a bid and, when it was winning, promotes the
// next-highest eligible bid inside the same transaction. A concurrent
// PlaceBid never observes a transient zero- or two-winner state.
func (s *Store) DenyBid(ctx context.Context, bidID, reason, denierID string) (*model.BidDenial, error) {
	tx, rollback, err := s.begin(ctx)
	if err != nil {
		return nil, err
	}
	defer rollback()

	// Resolve the auction first so the row lock is taken in the same order
	// as PlaceBid.
	var auctionID string
	err = tx.QueryRow(ctx, `SELECT auction_id FROM bids WHERE id = $1`, bidID).Scan(&auctionID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperr.NotFound("bid not found")
		}
		return nil, fmt.Errorf("resolve bid auction: %w", err)
	}
	if _, err := lockAuction(ctx, tx, auctionID); err != nil {
		return nil, err
	}

	b, err := scanBid(tx.QueryRow(ctx, `SELECT `+bidCols+` FROM bids WHERE id = $1`, bidID))
	if err != nil {
		return nil, err
	}
	if b.IsDenied {
		return nil, apperr.Conflict("bid already denied")
	}

	now := time.Now().UTC()
	wasWinning := b.IsWinningBid
	_, err = tx.Exec(ctx,
		`UPDATE bids SET is_denied = TRUE, is_winning_bid = FALSE,
		        denied_at = $1, denier_id = $2, denial_reason = $3
		 WHERE id = $4`,
		now, denierID, reason, bidID)
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
		promoted, err = s.promoteWinner(ctx, tx, auctionID, denierID)
		if err != nil {
			return nil, err
		}
	}

	meta := fmt.Sprintf("bid %s: %s", bidID, reason)
	if err := appendAudit(ctx, tx, auctionID, model.ActionBidDenied, denierID, meta); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}
	return &model.BidDenial{Bid: b, Promoted: promoted}, nil
}

// promoteWinner re-runs winner selection among the remaining eligible bids
// and marks the result winning. Shared by denial and winner-default
// handling so tie-break behavior cannot diverge. Returns nil when no
// candidate remains.
func (s *Store) promoteWinner(ctx context.Context, tx pgx.Tx, auctionID, performedBy string) (*model.Bid, error) {
	candidates, err := eligibleBids(ctx, tx, auctionID)
	if err != nil {
		return nil, err
	}
	next := auction.NextWinner(candidates)
	if next == nil {
		return nil, nil
	}
	if _, err := tx.Exec(ctx,
		`UPDATE bids SET is_winning_bid = TRUE WHERE id = $1`, next.ID); err != nil {
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
	return scanBid(s.pool.QueryRow(ctx, `SELECT `+bidCols+` FROM bids WHERE id = $1`, id))
}

// ListBids returns bids for an auction, newest first. limit <= 0 means all.
func (s *Store) ListBids(ctx context.Context, auctionID string, limit int) ([]model.Bid, error) {
	q := `SELECT ` + bidCols + ` FROM bids WHERE auction_id = $1 ORDER BY bid_at DESC`
	args := []any{auctionID}
	if limit > 0 {
		q += ` LIMIT $2`
		args = append(args, limit)
	}
	rows, err := s.pool.Query(ctx, q, args...)
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
	b, err := scanBid(s.pool.QueryRow(ctx,
		`SELECT `+bidCols+` FROM bids
		 WHERE auction_id = $1 AND is_winning_bid AND NOT is_denied`, auctionID))
	if err != nil {
		if apperr.IsKind(err, apperr.KindNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return b, nil
}
