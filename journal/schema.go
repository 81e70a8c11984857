package journal

const Schema = `
CREATE TABLE IF NOT EXISTS orders (
	id TEXT PRIMARY KEY,
	time DATETIME NOT NULL,
	symbol TEXT NOT NULL,
	side TEXT NOT NULL,
	kind TEXT NOT NULL,
	ticket INTEGER NOT NULL,
	code INTEGER NOT NULL,
	volume REAL NOT NULL,
	price REAL NOT NULL,
	stop_loss REAL NOT NULL,
	take_profit REAL NOT NULL,
	comment TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS pairs (
	id TEXT PRIMARY KEY,
	symbol TEXT NOT NULL,
	resolution TEXT NOT NULL,
	leg_a_ticket INTEGER NOT NULL,
	leg_b_ticket INTEGER NOT NULL,
	kept_ticket INTEGER NOT NULL,
	cancelled_ticket INTEGER NOT NULL,
	volume REAL NOT NULL,
	opened_at DATETIME NOT NULL,
	resolved_at DATETIME NOT NULL,
	note TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_orders_time ON orders(time);
CREATE INDEX IF NOT EXISTS idx_pairs_resolved_at ON pairs(resolved_at);
`
