// store/sqlite/schema.go
package sqlite

const Schema = `
CREATE TABLE IF NOT EXISTS accounts (
	id TEXT PRIMARY KEY,
	category TEXT NOT NULL DEFAULT 'Student',
	cash REAL NOT NULL,
	total_value REAL NOT NULL,
	percent_gain REAL NOT NULL,
	amount_gained REAL NOT NULL,
	created_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS positions (
	account_id TEXT NOT NULL,
	ticker TEXT NOT NULL,
	name TEXT NOT NULL,
	quantity REAL NOT NULL,
	avg_cost REAL NOT NULL,
	last_price REAL NOT NULL,
	updated_at DATETIME NOT NULL,
	PRIMARY KEY (account_id, ticker)
);

CREATE TABLE IF NOT EXISTS orders (
	id TEXT PRIMARY KEY,
	account_id TEXT NOT NULL,
	ticker TEXT NOT NULL,
	name TEXT NOT NULL,
	kind TEXT NOT NULL,
	side TEXT NOT NULL,
	quantity REAL NOT NULL,
	price REAL NOT NULL,
	total_value REAL NOT NULL,
	option_details TEXT,
	created_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_positions_account ON positions(account_id);
CREATE INDEX IF NOT EXISTS idx_orders_account_time ON orders(account_id, created_at);
`
