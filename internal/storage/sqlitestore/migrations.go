package sqlitestore

import "database/sql"

// schema contains the SQL statements to set up the database.
// These run on startup to ensure tables exist. Monetary amounts are stored
// as TEXT (decimal strings), timestamps as INTEGER unix nanoseconds.
const schema = `
CREATE TABLE IF NOT EXISTS auctions (
    id TEXT PRIMARY KEY,
    code TEXT NOT NULL UNIQUE,
    name TEXT NOT NULL,
    starting_price TEXT NOT NULL,
    bid_increment TEXT NOT NULL,
    sale_start_at INTEGER NOT NULL,
    sale_end_at INTEGER NOT NULL,
    deposit_deadline INTEGER NOT NULL,
    auction_start_at INTEGER NOT NULL,
    auction_end_at INTEGER NOT NULL,
    check_in_opens_at INTEGER NOT NULL,
    check_in_closes_at INTEGER NOT NULL,
    status TEXT NOT NULL,
    created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS participants (
    id TEXT PRIMARY KEY,
    auction_id TEXT NOT NULL REFERENCES auctions(id),
    user_id TEXT NOT NULL,
    registered_at INTEGER NOT NULL,
    confirmed_at INTEGER,
    checked_in_at INTEGER,
    withdrawn_at INTEGER,
    deposit_paid_at INTEGER,
    deposit_amount TEXT,
    is_disqualified INTEGER NOT NULL DEFAULT 0,
    disqualified_reason TEXT NOT NULL DEFAULT '',
    refund_status TEXT NOT NULL DEFAULT 'none',
    UNIQUE (auction_id, user_id)
);

CREATE TABLE IF NOT EXISTS bids (
    id TEXT PRIMARY KEY,
    auction_id TEXT NOT NULL REFERENCES auctions(id),
    participant_id TEXT NOT NULL REFERENCES participants(id),
    amount TEXT NOT NULL,
    bid_at INTEGER NOT NULL,
    is_winning_bid INTEGER NOT NULL DEFAULT 0,
    is_denied INTEGER NOT NULL DEFAULT 0,
    denied_at INTEGER,
    denier_id TEXT NOT NULL DEFAULT '',
    denial_reason TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS audit_log (
    id TEXT PRIMARY KEY,
    auction_id TEXT NOT NULL REFERENCES auctions(id),
    action TEXT NOT NULL,
    performed_by TEXT NOT NULL,
    metadata TEXT NOT NULL DEFAULT '',
    created_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_participants_auction_id ON participants(auction_id);
CREATE INDEX IF NOT EXISTS idx_bids_auction_id ON bids(auction_id);
CREATE INDEX IF NOT EXISTS idx_audit_log_auction_id ON audit_log(auction_id);
`

// runMigrations executes the schema setup.
func runMigrations(db *sql.DB) error {
	_, err := db.Exec(schema)
	return err
}
