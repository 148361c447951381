// Package repository owns the SQLite store: schema, WAL setup, the atomic
// ingest operations, and every read query the API serves.
package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

type Repository struct {
	rw  *sqlx.DB
	ro  *sqlx.DB
	log *zap.SugaredLogger
}

// Open initializes the store at path: a read-write pool for the indexer
// (single connection, SQLite allows one writer) and a read-only pool for
// the API. WAL keeps readers unblocked during commits.
func Open(path string, log *zap.SugaredLogger) (*Repository, error) {
	rw, err := sqlx.Open("sqlite3", "file:"+path+"?_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	rw.SetMaxOpenConns(1)

	ro, err := sqlx.Open("sqlite3", "file:"+path+"?mode=ro&_busy_timeout=5000")
	if err != nil {
		rw.Close()
		return nil, fmt.Errorf("failed to open read-only pool: %w", err)
	}

	repo := &Repository{rw: rw, ro: ro, log: log}
	if err := repo.init(context.Background()); err != nil {
		rw.Close()
		ro.Close()
		return nil, err
	}
	return repo, nil
}

func (r *Repository) Close() {
	r.rw.Close()
	r.ro.Close()
}

func (r *Repository) init(ctx context.Context) error {
	var mode string
	if err := r.rw.GetContext(ctx, &mode, "PRAGMA journal_mode"); err != nil {
		return fmt.Errorf("failed to query journal mode: %w", err)
	}
	if mode == "wal" {
		r.log.Debug("WAL mode already active.")
	} else {
		if err := r.rw.GetContext(ctx, &mode, "PRAGMA journal_mode=WAL"); err != nil {
			return fmt.Errorf("failed to enable WAL: %w", err)
		}
		if mode != "wal" {
			return fmt.Errorf("failed to enable WAL: journal mode is %q", mode)
		}
	}

	if _, err := r.rw.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	if _, err := r.rw.ExecContext(ctx, indexes); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	return nil
}

const schema = `
CREATE TABLE IF NOT EXISTS blocks (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	hash TEXT NOT NULL UNIQUE,
	size INTEGER NOT NULL,
	version INTEGER NOT NULL,
	merkle_root TEXT NOT NULL,
	time INTEGER NOT NULL,
	nonce TEXT NOT NULL,
	speaker INTEGER NOT NULL,
	next_consensus TEXT NOT NULL,
	reward FLOAT NOT NULL,
	reward_receiver TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS witnesses (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	block_index INTEGER,
	transaction_id INTEGER,
	invocation TEXT NOT NULL,
	verification TEXT NOT NULL,
	FOREIGN KEY (block_index) REFERENCES blocks (id),
	FOREIGN KEY (transaction_id) REFERENCES transactions (id)
);

CREATE TABLE IF NOT EXISTS transactions (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	hash TEXT NOT NULL UNIQUE,
	block_index INTEGER NOT NULL,
	vm_state TEXT NOT NULL,
	size INTEGER NOT NULL,
	version INTEGER NOT NULL,
	nonce INTEGER NOT NULL,
	sender TEXT NOT NULL,
	sysfee TEXT NOT NULL,
	netfee TEXT NOT NULL,
	valid_until INTEGER NOT NULL,
	signers TEXT NOT NULL,
	script TEXT NOT NULL,
	stack_result TEXT,
	FOREIGN KEY (block_index) REFERENCES blocks (id)
);

CREATE TABLE IF NOT EXISTS transaction_notifications (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	transaction_hash TEXT NOT NULL,
	contract TEXT NOT NULL,
	event_name TEXT NOT NULL,
	state_type TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS transaction_notification_state_values (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	transaction_notification_id INTEGER NOT NULL,
	type TEXT NOT NULL,
	value TEXT,
	FOREIGN KEY (transaction_notification_id) REFERENCES transaction_notifications (id)
);

CREATE TABLE IF NOT EXISTS contracts (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	block_index INTEGER NOT NULL,
	hash TEXT NOT NULL UNIQUE,
	contract_type TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS daily_address_balances (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	block_index INTEGER NOT NULL,
	date TEXT NOT NULL,
	address TEXT NOT NULL,
	token_contract TEXT NOT NULL,
	balance INTEGER NOT NULL,
	UNIQUE (date, address, token_contract)
);

CREATE TABLE IF NOT EXISTS daily_token_price_history (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	block_index INTEGER NOT NULL,
	date TEXT NOT NULL,
	token_contract TEXT NOT NULL,
	price FLOAT NOT NULL,
	UNIQUE (date, token_contract)
);

CREATE TABLE IF NOT EXISTS daily_contract_usage (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	date TEXT NOT NULL,
	contract TEXT NOT NULL,
	usage INTEGER NOT NULL,
	UNIQUE (date, contract)
);
`

const indexes = `
CREATE INDEX IF NOT EXISTS idx_blocks_hash ON blocks (hash);
CREATE INDEX IF NOT EXISTS idx_tx_hash ON transactions (hash);
CREATE INDEX IF NOT EXISTS idx_tx_senders ON transactions (sender);
CREATE INDEX IF NOT EXISTS idx_transaction_block_index ON transactions (block_index);
CREATE INDEX IF NOT EXISTS idx_transaction_notifications_event_name ON transaction_notifications (event_name);
CREATE INDEX IF NOT EXISTS idx_transaction_notification_state_values_value ON transaction_notification_state_values (value);
CREATE INDEX IF NOT EXISTS idx_daily_address_balances_address ON daily_address_balances (address);
CREATE INDEX IF NOT EXISTS idx_daily_address_balances_date ON daily_address_balances (date);
CREATE INDEX IF NOT EXISTS idx_daily_token_price_history_date ON daily_token_price_history (date);
CREATE INDEX IF NOT EXISTS idx_contract_hash ON contracts (hash);
CREATE INDEX IF NOT EXISTS idx_daily_contract_usage_date ON daily_contract_usage (date);
CREATE INDEX IF NOT EXISTS idx_daily_contract_usage_contract ON daily_contract_usage (contract);
`

var watermarkTables = map[string]bool{
	"blocks":                    true,
	"transactions":              true,
	"contracts":                 true,
	"daily_address_balances":    true,
	"daily_token_price_history": true,
}

// LastID returns max(id) of the given table, 0 when empty. The blocks
// variant is the indexer's resume watermark.
func (r *Repository) LastID(ctx context.Context, table string) (uint64, error) {
	if !watermarkTables[table] {
		return 0, fmt.Errorf("unknown table %q", table)
	}
	var id uint64
	query := fmt.Sprintf("SELECT COALESCE(max(id), 0) FROM %s", table)
	if err := r.rw.GetContext(ctx, &id, query); err != nil {
		return 0, fmt.Errorf("failed to read last id of %s: %w", table, err)
	}
	return id, nil
}
