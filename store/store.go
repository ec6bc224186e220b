// Package store persists price alerts and their observed price history in
// SQLite or PostgreSQL.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/use-agent/pricewatch/models"
)

// Supported drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// ErrNotFound is returned when an alert does not exist or belongs to
// another owner.
var ErrNotFound = errors.New("store: not found")

const alertColumns = `id, owner, url, target_price, site_name, product_name, current_price, currency, status, created_at, updated_at`

// Store is a database-backed alert repository. It is safe for concurrent
// use.
type Store struct {
	db     *sql.DB
	driver string
	now    func() time.Time
}

// Open connects to the database and creates the schema if needed.
func Open(driver, dsn string) (*Store, error) {
	if _, ok := schemas[driver]; !ok {
		return nil, fmt.Errorf("store: unsupported driver %q", driver)
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", driver, err)
	}
	if driver == DriverSQLite {
		// One connection keeps ":memory:" databases shared and serializes
		// writers.
		db.SetMaxOpenConns(1)
	}

	s := &Store{db: db, driver: driver, now: time.Now}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: ping %s: %w", driver, err)
	}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Driver returns the database driver name.
func (s *Store) Driver() string { return s.driver }

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

// Close closes the database.
func (s *Store) Close() error { return s.db.Close() }

func (s *Store) migrate(ctx context.Context) error {
	for _, q := range schemas[s.driver] {
		if _, err := s.db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("store: migrate: %w", err)
		}
	}
	return nil
}

// CreateAlert inserts a and fills in its ID, status and timestamps.
func (s *Store) CreateAlert(ctx context.Context, a *models.Alert) error {
	now := s.now()
	if a.Status == "" {
		a.Status = models.AlertActive
	}
	err := s.db.QueryRowContext(ctx, s.rebind(`
		INSERT INTO alerts (owner, url, target_price, site_name, product_name, current_price, currency, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id`),
		a.Owner, a.URL, a.TargetPrice, a.Site, a.ProductName, nullFloat(a.CurrentPrice),
		a.Currency, a.Status, now.UnixMilli(), now.UnixMilli(),
	).Scan(&a.ID)
	if err != nil {
		return fmt.Errorf("store: create alert: %w", err)
	}
	a.CreatedAt = time.UnixMilli(now.UnixMilli())
	a.UpdatedAt = a.CreatedAt
	return nil
}

// GetAlert returns one of owner's alerts.
func (s *Store) GetAlert(ctx context.Context, owner string, id int64) (*models.Alert, error) {
	row := s.db.QueryRowContext(ctx, s.rebind(`SELECT `+alertColumns+` FROM alerts WHERE id = ? AND owner = ?`), id, owner)
	a, err := scanAlert(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: get alert: %w", err)
	}
	return a, nil
}

// ListAlerts returns owner's alerts, newest first.
func (s *Store) ListAlerts(ctx context.Context, owner string) ([]models.Alert, error) {
	return s.queryAlerts(ctx, `SELECT `+alertColumns+` FROM alerts WHERE owner = ? ORDER BY created_at DESC, id DESC`, owner)
}

// ActiveAlerts returns every alert that has not triggered yet, oldest first.
func (s *Store) ActiveAlerts(ctx context.Context) ([]models.Alert, error) {
	return s.queryAlerts(ctx, `SELECT `+alertColumns+` FROM alerts WHERE status = ? ORDER BY id`, models.AlertActive)
}

func (s *Store) queryAlerts(ctx context.Context, query string, args ...any) ([]models.Alert, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("store: query alerts: %w", err)
	}
	defer rows.Close()

	alerts := []models.Alert{}
	for rows.Next() {
		a, err := scanAlert(rows)
		if err != nil {
			return nil, fmt.Errorf("store: scan alert: %w", err)
		}
		alerts = append(alerts, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: query alerts: %w", err)
	}
	return alerts, nil
}

// DeleteAlert removes one of owner's alerts with its history.
func (s *Store) DeleteAlert(ctx context.Context, owner string, id int64) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, s.rebind(`DELETE FROM alerts WHERE id = ? AND owner = ?`), id, owner)
		if err != nil {
			return fmt.Errorf("store: delete alert: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return ErrNotFound
		}
		if _, err := tx.ExecContext(ctx, s.rebind(`DELETE FROM price_history WHERE alert_id = ?`), id); err != nil {
			return fmt.Errorf("store: delete history: %w", err)
		}
		return nil
	})
}

// RecordPrice appends p to the alert's history and updates the alert's
// current price in one transaction. A non-empty productName replaces the
// stored one.
func (s *Store) RecordPrice(ctx context.Context, p models.PricePoint, productName string) error {
	if p.RecordedAt.IsZero() {
		p.RecordedAt = s.now()
	}
	return s.inTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, s.rebind(`
			UPDATE alerts
			SET current_price = ?, updated_at = ?, product_name = CASE WHEN ? = '' THEN product_name ELSE ? END
			WHERE id = ?`),
			p.Price, p.RecordedAt.UnixMilli(), productName, productName, p.AlertID)
		if err != nil {
			return fmt.Errorf("store: update alert price: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return ErrNotFound
		}
		if _, err := tx.ExecContext(ctx, s.rebind(`
			INSERT INTO price_history (alert_id, price, currency, site_name, recorded_at)
			VALUES (?, ?, ?, ?, ?)`),
			p.AlertID, p.Price, p.Currency, p.Site, p.RecordedAt.UnixMilli()); err != nil {
			return fmt.Errorf("store: insert price: %w", err)
		}
		return nil
	})
}

// MarkTriggered flips an alert to the triggered status.
func (s *Store) MarkTriggered(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, s.rebind(`UPDATE alerts SET status = ?, updated_at = ? WHERE id = ?`),
		models.AlertTriggered, s.now().UnixMilli(), id)
	if err != nil {
		return fmt.Errorf("store: mark triggered: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// History returns up to limit price points for one of owner's alerts,
// oldest first. limit <= 0 means 100.
func (s *Store) History(ctx context.Context, owner string, alertID int64, limit int) ([]models.PricePoint, error) {
	if _, err := s.GetAlert(ctx, owner, alertID); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx, s.rebind(`
		SELECT alert_id, price, currency, site_name, recorded_at FROM (
			SELECT id, alert_id, price, currency, site_name, recorded_at FROM price_history
			WHERE alert_id = ?
			ORDER BY recorded_at DESC, id DESC
			LIMIT ?
		) recent ORDER BY recorded_at, id`), alertID, limit)
	if err != nil {
		return nil, fmt.Errorf("store: history: %w", err)
	}
	defer rows.Close()

	points := []models.PricePoint{}
	for rows.Next() {
		var (
			p  models.PricePoint
			ms int64
		)
		if err := rows.Scan(&p.AlertID, &p.Price, &p.Currency, &p.Site, &ms); err != nil {
			return nil, fmt.Errorf("store: scan price: %w", err)
		}
		p.RecordedAt = time.UnixMilli(ms)
		points = append(points, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: history: %w", err)
	}
	return points, nil
}

func (s *Store) inTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("store: commit: %w", err)
	}
	return nil
}

// rebind rewrites ? placeholders to $n for PostgreSQL.
func (s *Store) rebind(query string) string {
	if s.driver != DriverPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanAlert(row scanner) (*models.Alert, error) {
	var (
		a                models.Alert
		current          sql.NullFloat64
		created, updated int64
	)
	err := row.Scan(&a.ID, &a.Owner, &a.URL, &a.TargetPrice, &a.Site, &a.ProductName,
		&current, &a.Currency, &a.Status, &created, &updated)
	if err != nil {
		return nil, err
	}
	if current.Valid {
		v := current.Float64
		a.CurrentPrice = &v
	}
	a.CreatedAt = time.UnixMilli(created)
	a.UpdatedAt = time.UnixMilli(updated)
	return &a, nil
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}
