package store

// Timestamps are stored as Unix milliseconds so both drivers scan them the
// same way.
var schemas = map[string][]string{
	DriverSQLite: {
		`CREATE TABLE IF NOT EXISTS alerts (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			owner TEXT NOT NULL,
			url TEXT NOT NULL,
			target_price REAL NOT NULL,
			site_name TEXT NOT NULL DEFAULT '',
			product_name TEXT NOT NULL DEFAULT '',
			current_price REAL,
			currency TEXT NOT NULL DEFAULT 'INR',
			status TEXT NOT NULL DEFAULT 'active',
			created_at INTEGER NOT NULL,
			updated_at INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS alerts_owner_idx ON alerts (owner)`,
		`CREATE TABLE IF NOT EXISTS price_history (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			alert_id INTEGER NOT NULL REFERENCES alerts (id),
			price REAL NOT NULL,
			currency TEXT NOT NULL DEFAULT '',
			site_name TEXT NOT NULL DEFAULT '',
			recorded_at INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS price_history_alert_idx ON price_history (alert_id, recorded_at)`,
	},
	DriverPostgres: {
		`CREATE TABLE IF NOT EXISTS alerts (
			id BIGSERIAL PRIMARY KEY,
			owner TEXT NOT NULL,
			url TEXT NOT NULL,
			target_price DOUBLE PRECISION NOT NULL,
			site_name TEXT NOT NULL DEFAULT '',
			product_name TEXT NOT NULL DEFAULT '',
			current_price DOUBLE PRECISION,
			currency TEXT NOT NULL DEFAULT 'INR',
			status TEXT NOT NULL DEFAULT 'active',
			created_at BIGINT NOT NULL,
			updated_at BIGINT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS alerts_owner_idx ON alerts (owner)`,
		`CREATE TABLE IF NOT EXISTS price_history (
			id BIGSERIAL PRIMARY KEY,
			alert_id BIGINT NOT NULL REFERENCES alerts (id) ON DELETE CASCADE,
			price DOUBLE PRECISION NOT NULL,
			currency TEXT NOT NULL DEFAULT '',
			site_name TEXT NOT NULL DEFAULT '',
			recorded_at BIGINT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS price_history_alert_idx ON price_history (alert_id, recorded_at)`,
	},
}
