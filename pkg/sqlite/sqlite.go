package sqlite

import (
	"context"
	"database/sql"
	"time"

	_ "modernc.org/sqlite"
)

// Open returns a *sql.DB over a SQLite file. busy_timeout keeps concurrent
// writers from surfacing "database is locked"; a single open connection
// serializes writes the way SQLite wants them.
func Open(path string) (*sql.DB, error) {
	dsn := path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(1)
	db.SetConnMaxIdleTime(2 * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// Migrate applies the schema. Monetary columns are TEXT: decimals round-trip
// through their string form without float drift.
func Migrate(ctx context.Context, db *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS products(
  id          TEXT PRIMARY KEY,
  name        TEXT NOT NULL,
  description TEXT NOT NULL DEFAULT '',
  price       TEXT NOT NULL,
  quantity    INTEGER NOT NULL DEFAULT 0 CHECK(quantity >= 0),
  created_at  INTEGER NOT NULL,
  updated_at  INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS carts(
  id          TEXT PRIMARY KEY,
  buyer_id    TEXT NOT NULL UNIQUE,
  total_price TEXT NOT NULL DEFAULT '0',
  version     INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS cart_items(
  id         TEXT PRIMARY KEY,
  cart_id    TEXT NOT NULL REFERENCES carts(id) ON DELETE CASCADE,
  product_id TEXT NOT NULL,
  quantity   INTEGER NOT NULL CHECK(quantity >= 1),
  unit_price TEXT NOT NULL,
  line_total TEXT NOT NULL,
  UNIQUE(cart_id, product_id)
);

CREATE TABLE IF NOT EXISTS orders(
  id          TEXT PRIMARY KEY,
  buyer_id    TEXT NOT NULL,
  date        INTEGER NOT NULL,
  status      TEXT NOT NULL,
  address     TEXT NOT NULL,
  total_price TEXT NOT NULL,
  version     INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_orders_buyer ON orders(buyer_id);

CREATE TABLE IF NOT EXISTS order_items(
  id         TEXT PRIMARY KEY,
  order_id   TEXT NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
  product_id TEXT NOT NULL,
  quantity   INTEGER NOT NULL,
  unit_price TEXT NOT NULL,
  line_total TEXT NOT NULL
);
`
	_, err := db.ExecContext(ctx, schema)
	return err
}
