// Package sqlitestore implements storage.Store on SQLite using the pure Go
// modernc driver. The pool is capped at a single connection and every
// write runs in one transaction, which serializes arbitration globally,
// a superset of the per-auction serialization the interface requires.
// Used for tests and local development; PostgreSQL is the production backend.
package sqlitestore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)

	"github.com/Tanh1603/auction-hub-sub000/internal/apperr"
	"github.com/Tanh1603/auction-hub-sub000/internal/model"
	"github.com/Tanh1603/auction-hub-sub000/internal/storage"
)

// Ensure Store implements storage.Store.
var _ storage.Store = (*Store)(nil)

// Store implements storage.Store using SQLite.
type Store struct {
	db *sql.DB
}

// New creates a Store at the given database path. Parent directories are
// created and migrations run automatically.
func New(dbPath string) (*Store, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One connection serializes all transactions and avoids SQLITE_BUSY
	// under concurrent writers.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// begin starts a transaction; the returned rollback is safe to defer.
func (s *Store) begin(ctx context.Context) (*sql.Tx, func(), error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("begin transaction: %w", err)
	}
	return tx, func() { _ = tx.Rollback() }, nil
}

// Timestamps are stored as unix nanoseconds so bid ordering stays exact.

func ts(t time.Time) int64 { return t.UTC().UnixNano() }

func fromTS(n int64) time.Time { return time.Unix(0, n).UTC() }

func tsPtr(t *time.Time) *int64 {
	if t == nil {
		return nil
	}
	n := ts(*t)
	return &n
}

func fromTSPtr(n *int64) *time.Time {
	if n == nil {
		return nil
	}
	t := fromTS(*n)
	return &t
}

// appendAudit writes an audit row inside tx; failure aborts the operation.
func appendAudit(ctx context.Context, tx *sql.Tx, auctionID, action, performedBy, metadata string) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO audit_log (id, auction_id, action, performed_by, metadata, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		uuid.New().String(), auctionID, action, performedBy, metadata, ts(time.Now()),
	)
	if err != nil {
		return fmt.Errorf("insert audit log: %w", err)
	}
	return nil
}

type row interface {
	Scan(dest ...any) error
}

const auctionCols = `id, code, name, starting_price, bid_increment,
	sale_start_at, sale_end_at, deposit_deadline, auction_start_at, auction_end_at,
	check_in_opens_at, check_in_closes_at, status, created_at`

func scanAuction(r row) (*model.Auction, error) {
	var (
		a                                                                      model.Auction
		startingPrice, increment                                               string
		saleStart, saleEnd, depDeadline, aucStart, aucEnd, ciOpen, ciClose, at int64
	)
	err := r.Scan(&a.ID, &a.Code, &a.Name, &startingPrice, &increment,
		&saleStart, &saleEnd, &depDeadline, &aucStart, &aucEnd,
		&ciOpen, &ciClose, &a.Status, &at)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("auction not found")
		}
		return nil, fmt.Errorf("scan auction: %w", err)
	}
	if a.StartingPrice, err = decimal.NewFromString(startingPrice); err != nil {
		return nil, fmt.Errorf("parse starting price: %w", err)
	}
	if a.BidIncrement, err = decimal.NewFromString(increment); err != nil {
		return nil, fmt.Errorf("parse bid increment: %w", err)
	}
	a.SaleStartAt = fromTS(saleStart)
	a.SaleEndAt = fromTS(saleEnd)
	a.DepositDeadline = fromTS(depDeadline)
	a.AuctionStartAt = fromTS(aucStart)
	a.AuctionEndAt = fromTS(aucEnd)
	a.CheckInOpensAt = fromTS(ciOpen)
	a.CheckInClosesAt = fromTS(ciClose)
	a.CreatedAt = fromTS(at)
	return &a, nil
}

const participantCols = `id, auction_id, user_id, registered_at, confirmed_at, checked_in_at,
	withdrawn_at, deposit_paid_at, deposit_amount, is_disqualified, disqualified_reason, refund_status`

func scanParticipant(r row) (*model.Participant, error) {
	var (
		p                                        model.Participant
		registered                               int64
		confirmed, checkedIn, withdrawn, depPaid *int64
		deposit                                  *string
	)
	err := r.Scan(&p.ID, &p.AuctionID, &p.UserID, &registered, &confirmed, &checkedIn,
		&withdrawn, &depPaid, &deposit, &p.IsDisqualified, &p.DisqualifiedReason, &p.RefundStatus)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("participant not found")
		}
		return nil, fmt.Errorf("scan participant: %w", err)
	}
	p.RegisteredAt = fromTS(registered)
	p.ConfirmedAt = fromTSPtr(confirmed)
	p.CheckedInAt = fromTSPtr(checkedIn)
	p.WithdrawnAt = fromTSPtr(withdrawn)
	p.DepositPaidAt = fromTSPtr(depPaid)
	if deposit != nil {
		d, err := decimal.NewFromString(*deposit)
		if err != nil {
			return nil, fmt.Errorf("parse deposit amount: %w", err)
		}
		p.DepositAmount = &d
	}
	return &p, nil
}

const bidCols = `id, auction_id, participant_id, amount, bid_at,
	is_winning_bid, is_denied, denied_at, denier_id, denial_reason`

func scanBid(r row) (*model.Bid, error) {
	var (
		b      model.Bid
		amount string
		bidAt  int64
		denied *int64
	)
	err := r.Scan(&b.ID, &b.AuctionID, &b.ParticipantID, &amount, &bidAt,
		&b.IsWinningBid, &b.IsDenied, &denied, &b.DenierID, &b.DenialReason)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("bid not found")
		}
		return nil, fmt.Errorf("scan bid: %w", err)
	}
	if b.Amount, err = decimal.NewFromString(amount); err != nil {
		return nil, fmt.Errorf("parse bid amount: %w", err)
	}
	b.BidAt = fromTS(bidAt)
	b.DeniedAt = fromTSPtr(denied)
	return &b, nil
}

// getAuctionTx loads the auction row inside tx. SQLite transactions are
// fully serialized by the single connection, so no explicit row lock is
// needed to make the winner read-then-write atomic.
func getAuctionTx(ctx context.Context, tx *sql.Tx, auctionID string) (*model.Auction, error) {
	return scanAuction(tx.QueryRowContext(ctx,
		`SELECT `+auctionCols+` FROM auctions WHERE id = ?`, auctionID))
}

func getParticipantTx(ctx context.Context, tx *sql.Tx, id string) (*model.Participant, error) {
	return scanParticipant(tx.QueryRowContext(ctx,
		`SELECT `+participantCols+` FROM participants WHERE id = ?`, id))
}

// winningBid returns the single non-denied winning bid, or nil when none.
func winningBid(ctx context.Context, tx *sql.Tx, auctionID string) (*model.Bid, error) {
	b, err := scanBid(tx.QueryRowContext(ctx,
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

// eligibleBids loads promotion candidates: non-denied bids whose
// participants are neither withdrawn nor disqualified.
func eligibleBids(ctx context.Context, tx *sql.Tx, auctionID string) ([]model.Bid, error) {
	rows, err := tx.QueryContext(ctx,
		`SELECT b.id, b.auction_id, b.participant_id, b.amount, b.bid_at,
		        b.is_winning_bid, b.is_denied, b.denied_at, b.denier_id, b.denial_reason
		 FROM bids b
		 JOIN participants p ON p.id = b.participant_id
		 WHERE b.auction_id = ? AND NOT b.is_denied
		   AND NOT p.is_disqualified AND p.withdrawn_at IS NULL`, auctionID)
	if err != nil {
		return nil, fmt.Errorf("query eligible bids: %w", err)
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

func countValidBids(ctx context.Context, tx *sql.Tx, auctionID string) (int, error) {
	var n int
	err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM bids WHERE auction_id = ? AND NOT is_denied`, auctionID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count bids: %w", err)
	}
	return n, nil
}
