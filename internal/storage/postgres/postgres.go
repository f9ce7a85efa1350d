// Package postgres implements storage.Store on PostgreSQL using pgx.
// Per-auction serialization is done with SELECT ... FOR UPDATE row locks on
// the auctions table: every arbitration transaction locks its auction row
// first, so read-then-write sequences on the winning bid never interleave.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/Tanh1603/auction-hub-sub000/internal/apperr"
	"github.com/Tanh1603/auction-hub-sub000/internal/model"
	"github.com/Tanh1603/auction-hub-sub000/internal/storage"
)

// Ensure Store implements storage.Store.
var _ storage.Store = (*Store)(nil)

// Store implements storage.Store using a pgx connection pool.
type Store struct {
	pool *pgxpool.Pool
}

const schema = `
CREATE TABLE IF NOT EXISTS auctions (
    id TEXT PRIMARY KEY,
    code TEXT NOT NULL UNIQUE,
    name TEXT NOT NULL,
    starting_price NUMERIC NOT NULL,
    bid_increment NUMERIC NOT NULL,
    sale_start_at TIMESTAMPTZ NOT NULL,
    sale_end_at TIMESTAMPTZ NOT NULL,
    deposit_deadline TIMESTAMPTZ NOT NULL,
    auction_start_at TIMESTAMPTZ NOT NULL,
    auction_end_at TIMESTAMPTZ NOT NULL,
    check_in_opens_at TIMESTAMPTZ NOT NULL,
    check_in_closes_at TIMESTAMPTZ NOT NULL,
    status TEXT NOT NULL,
    created_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS participants (
    id TEXT PRIMARY KEY,
    auction_id TEXT NOT NULL REFERENCES auctions(id),
    user_id TEXT NOT NULL,
    registered_at TIMESTAMPTZ NOT NULL,
    confirmed_at TIMESTAMPTZ,
    checked_in_at TIMESTAMPTZ,
    withdrawn_at TIMESTAMPTZ,
    deposit_paid_at TIMESTAMPTZ,
    deposit_amount NUMERIC,
    is_disqualified BOOLEAN NOT NULL DEFAULT FALSE,
    disqualified_reason TEXT NOT NULL DEFAULT '',
    refund_status TEXT NOT NULL DEFAULT 'none',
    UNIQUE (auction_id, user_id)
);

CREATE TABLE IF NOT EXISTS bids (
    id TEXT PRIMARY KEY,
    auction_id TEXT NOT NULL REFERENCES auctions(id),
    participant_id TEXT NOT NULL REFERENCES participants(id),
    amount NUMERIC NOT NULL,
    bid_at TIMESTAMPTZ NOT NULL,
    is_winning_bid BOOLEAN NOT NULL DEFAULT FALSE,
    is_denied BOOLEAN NOT NULL DEFAULT FALSE,
    denied_at TIMESTAMPTZ,
    denier_id TEXT NOT NULL DEFAULT '',
    denial_reason TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS audit_log (
    id TEXT PRIMARY KEY,
    auction_id TEXT NOT NULL REFERENCES auctions(id),
    action TEXT NOT NULL,
    performed_by TEXT NOT NULL,
    metadata TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_participants_auction_id ON participants(auction_id);
CREATE INDEX IF NOT EXISTS idx_bids_auction_id ON bids(auction_id);
CREATE INDEX IF NOT EXISTS idx_bids_winning ON bids(auction_id) WHERE is_winning_bid AND NOT is_denied;
CREATE INDEX IF NOT EXISTS idx_audit_log_auction_id ON audit_log(auction_id);
`

// New creates a Store on the given pool and runs schema setup.
func New(ctx context.Context, pool *pgxpool.Pool) (*Store, error) {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{pool: pool}, nil
}

// Close releases the connection pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

// begin starts a transaction; the returned rollback is safe to defer.
func (s *Store) begin(ctx context.Context) (pgx.Tx, func(), error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("begin transaction: %w", err)
	}
	return tx, func() { _ = tx.Rollback(ctx) }, nil
}

// appendAudit writes an audit row inside tx. Audit writes are part of the
// state-changing transaction: if this fails, the whole operation fails.
func appendAudit(ctx context.Context, tx pgx.Tx, auctionID, action, performedBy, metadata string) error {
	_, err := tx.Exec(ctx,
		`INSERT INTO audit_log (id, auction_id, action, performed_by, metadata, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		uuid.New().String(), auctionID, action, performedBy, metadata, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert audit log: %w", err)
	}
	return nil
}

// row is satisfied by both pgx.Row and pgx.Rows.
type row interface {
	Scan(dest ...any) error
}

const auctionCols = `id, code, name, starting_price::text, bid_increment::text,
	sale_start_at, sale_end_at, deposit_deadline, auction_start_at, auction_end_at,
	check_in_opens_at, check_in_closes_at, status, created_at`

func scanAuction(r row) (*model.Auction, error) {
	var (
		a                     model.Auction
		startingPrice, increm string
	)
	err := r.Scan(&a.ID, &a.Code, &a.Name, &startingPrice, &increm,
		&a.SaleStartAt, &a.SaleEndAt, &a.DepositDeadline, &a.AuctionStartAt, &a.AuctionEndAt,
		&a.CheckInOpensAt, &a.CheckInClosesAt, &a.Status, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("auction not found")
		}
		return nil, fmt.Errorf("scan auction: %w", err)
	}
	if a.StartingPrice, err = decimal.NewFromString(startingPrice); err != nil {
		return nil, fmt.Errorf("parse starting price: %w", err)
	}
	if a.BidIncrement, err = decimal.NewFromString(increm); err != nil {
		return nil, fmt.Errorf("parse bid increment: %w", err)
	}
	return &a, nil
}

const participantCols = `id, auction_id, user_id, registered_at, confirmed_at, checked_in_at,
	withdrawn_at, deposit_paid_at, deposit_amount::text, is_disqualified, disqualified_reason, refund_status`

func scanParticipant(r row) (*model.Participant, error) {
	var (
		p       model.Participant
		deposit *string
	)
	err := r.Scan(&p.ID, &p.AuctionID, &p.UserID, &p.RegisteredAt, &p.ConfirmedAt, &p.CheckedInAt,
		&p.WithdrawnAt, &p.DepositPaidAt, &deposit, &p.IsDisqualified, &p.DisqualifiedReason, &p.RefundStatus)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("participant not found")
		}
		return nil, fmt.Errorf("scan participant: %w", err)
	}
	if deposit != nil {
		d, err := decimal.NewFromString(*deposit)
		if err != nil {
			return nil, fmt.Errorf("parse deposit amount: %w", err)
		}
		p.DepositAmount = &d
	}
	return &p, nil
}

const bidCols = `id, auction_id, participant_id, amount::text, bid_at,
	is_winning_bid, is_denied, denied_at, denier_id, denial_reason`

func scanBid(r row) (*model.Bid, error) {
	var (
		b      model.Bid
		amount string
	)
	err := r.Scan(&b.ID, &b.AuctionID, &b.ParticipantID, &amount, &b.BidAt,
		&b.IsWinningBid, &b.IsDenied, &b.DeniedAt, &b.DenierID, &b.DenialReason)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("bid not found")
		}
		return nil, fmt.Errorf("scan bid: %w", err)
	}
	if b.Amount, err = decimal.NewFromString(amount); err != nil {
		return nil, fmt.Errorf("parse bid amount: %w", err)
	}
	return &b, nil
}

// lockAuction loads the auction row under an exclusive row lock. Every
// arbitration transaction goes through here first, which serialises all
// winner read-then-write sequences for the auction.
func lockAuction(ctx context.Context, tx pgx.Tx, auctionID string) (*model.Auction, error) {
	return scanAuction(tx.QueryRow(ctx,
		`SELECT `+auctionCols+` FROM auctions WHERE id = $1 FOR UPDATE`, auctionID))
}

// winningBid returns the single non-denied winning bid, or nil when none.
func winningBid(ctx context.Context, tx pgx.Tx, auctionID string) (*model.Bid, error) {
	b, err := scanBid(tx.QueryRow(ctx,
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

// eligibleBids loads promotion candidates: non-denied bids whose
// participants are neither withdrawn nor disqualified.
func eligibleBids(ctx context.Context, tx pgx.Tx, auctionID string) ([]model.Bid, error) {
	rows, err := tx.Query(ctx,
		`SELECT b.id, b.auction_id, b.participant_id, b.amount::text, b.bid_at,
		        b.is_winning_bid, b.is_denied, b.denied_at, b.denier_id, b.denial_reason
		 FROM bids b
		 JOIN participants p ON p.id = b.participant_id
		 WHERE b.auction_id = $1 AND NOT b.is_denied
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

// countValidBids counts non-denied bids for an auction inside tx.
func countValidBids(ctx context.Context, tx pgx.Tx, auctionID string) (int, error) {
	var n int
	err := tx.QueryRow(ctx,
		`SELECT COUNT(*) FROM bids WHERE auction_id = $1 AND NOT is_denied`, auctionID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count bids: %w", err)
	}
	return n, nil
}
