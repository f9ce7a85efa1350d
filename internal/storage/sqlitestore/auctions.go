package sqlitestore

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Tanh1603/auction-hub-sub000/internal/apperr"
	"github.com/Tanh1603/auction-hub-sub000/internal/model"
)

// CreateAuction inserts a new auction in scheduled state.
func (s *Store) CreateAuction(ctx context.Context, a *model.Auction, performedBy string) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	a.Status = model.StatusScheduled
	a.CreatedAt = time.Now().UTC()

	tx, rollback, err := s.begin(ctx)
	if err != nil {
		return err
	}
	defer rollback()

	var exists bool
	err = tx.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM auctions WHERE code = ?)`, a.Code).Scan(&exists)
	if err != nil {
		return fmt.Errorf("check auction code: %w", err)
	}
	if exists {
		return apperr.Newf(apperr.KindConflict, "auction code %q already in use", a.Code)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO auctions (id, code, name, starting_price, bid_increment,
		    sale_start_at, sale_end_at, deposit_deadline, auction_start_at, auction_end_at,
		    check_in_opens_at, check_in_closes_at, status, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.Code, a.Name, a.StartingPrice.String(), a.BidIncrement.String(),
		ts(a.SaleStartAt), ts(a.SaleEndAt), ts(a.DepositDeadline), ts(a.AuctionStartAt), ts(a.AuctionEndAt),
		ts(a.CheckInOpensAt), ts(a.CheckInClosesAt), a.Status, ts(a.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert auction: %w", err)
	}
	if err := appendAudit(ctx, tx, a.ID, model.ActionAuctionCreated, performedBy, a.Code); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// GetAuction returns a single auction by ID.
func (s *Store) GetAuction(ctx context.Context, id string) (*model.Auction, error) {
	return scanAuction(s.db.QueryRowContext(ctx,
		`SELECT `+auctionCols+` FROM auctions WHERE id = ?`, id))
}

// ListAuctions returns all auctions ordered by creation time descending.
func (s *Store) ListAuctions(ctx context.Context) ([]model.Auction, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+auctionCols+` FROM auctions ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list auctions: %w", err)
	}
	defer rows.Close()

	var auctions []model.Auction
	for rows.Next() {
		a, err := scanAuction(rows)
		if err != nil {
			return nil, err
		}
		auctions = append(auctions, *a)
	}
	return auctions, rows.Err()
}

// TransitionAuction moves an auction along the lifecycle graph, validating
// the edge inside the transaction.
func (s *Store) TransitionAuction(ctx context.Context, auctionID string, to model.AuctionStatus, performedBy string) (*model.Auction, error) {
	if !to.Valid() {
		return nil, apperr.Newf(apperr.KindValidation, "unknown auction status %q", to)
	}

	tx, rollback, err := s.begin(ctx)
	if err != nil {
		return nil, err
	}
	defer rollback()

	a, err := getAuctionTx(ctx, tx, auctionID)
	if err != nil {
		return nil, err
	}
	if !a.Status.CanTransitionTo(to) {
		return nil, apperr.Newf(apperr.KindValidation, "illegal transition: %s -> %s", a.Status, to)
	}

	if _, err := tx.ExecContext(ctx, `UPDATE auctions SET status = ? WHERE id = ?`, to, auctionID); err != nil {
		return nil, fmt.Errorf("update auction status: %w", err)
	}
	meta := fmt.Sprintf("%s -> %s", a.Status, to)
	if err := appendAudit(ctx, tx, auctionID, model.ActionStatusChanged, performedBy, meta); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}
	a.Status = to
	return a, nil
}

// ListAuditLog returns the append-only audit trail for an auction.
func (s *Store) ListAuditLog(ctx context.Context, auctionID string) ([]model.AuditLog, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, auction_id, action, performed_by, metadata, created_at
		 FROM audit_log WHERE auction_id = ? ORDER BY created_at ASC`, auctionID)
	if err != nil {
		return nil, fmt.Errorf("list audit log: %w", err)
	}
	defer rows.Close()

	var entries []model.AuditLog
	for rows.Next() {
		var (
			e  model.AuditLog
			at int64
		)
		if err := rows.Scan(&e.ID, &e.AuctionID, &e.Action, &e.PerformedBy, &e.Metadata, &at); err != nil {
			return nil, fmt.Errorf("scan audit log: %w", err)
		}
		e.CreatedAt = fromTS(at)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
