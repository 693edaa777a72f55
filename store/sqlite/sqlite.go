/*
Package sqlite provides a SQLite-backed implementation of amc.Store.

DOCUMENT SHAPE:
  Orders keep their sub-collections (customizations, licenses, agreements,
  status logs) as JSON columns, the way the order document carries them.
  AMC payments live in their own table keyed by (amc_id, seq) so the
  due-check append touches only new rows.

KEY TABLES:
  clients:        Billing cadence and rate override
  orders:         Cost basis, start date, JSON sub-collections
  amcs:           Contract document header (cached amount/total cost)
  amc_payments:   Ordered payment periods, unique per (amc_id, from_date)
  due_check_runs: Batch history for audit and UI display

ATOMIC APPEND:
  AppendPayments inserts the new rows and updates the AMC's cached
  amount/total cost inside one transaction.

CONCURRENCY:
  Uses sync.RWMutex for thread-safety; WAL mode lets readers proceed while
  a writer commits.

USAGE:
  store, err := sqlite.New("./data/amc.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"github.com/warp/amc-engine/amc"
)

const dateLayout = "2006-01-02"

// Store implements amc.Store using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// every connection to ":memory:" is a separate database
	if strings.Contains(dbPath, ":memory:") {
		db.SetMaxOpenConns(1)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS clients (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL DEFAULT '',
		amc_frequency_in_months INTEGER NOT NULL DEFAULT 12,
		amc_percentage TEXT,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS orders (
		id TEXT PRIMARY KEY,
		client_id TEXT NOT NULL,
		title TEXT NOT NULL DEFAULT '',
		amc_start_date TEXT,
		base_cost TEXT,
		amc_rate_percentage TEXT,
		amc_rate_amount TEXT,
		customizations_json TEXT NOT NULL DEFAULT '[]',
		licenses_json TEXT NOT NULL DEFAULT '[]',
		agreements_json TEXT NOT NULL DEFAULT '[]',
		status_logs_json TEXT NOT NULL DEFAULT '[]',
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_orders_client
		ON orders(client_id);

	CREATE TABLE IF NOT EXISTS amcs (
		id TEXT PRIMARY KEY,
		order_id TEXT NOT NULL,
		client_id TEXT NOT NULL DEFAULT '',
		total_cost TEXT NOT NULL DEFAULT '0',
		amount TEXT NOT NULL DEFAULT '0',
		amc_percentage TEXT NOT NULL DEFAULT '0',
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		deleted_at TEXT
	);

	-- One live AMC per order
	CREATE UNIQUE INDEX IF NOT EXISTS idx_amcs_order_live
		ON amcs(order_id) WHERE deleted_at IS NULL;

	CREATE TABLE IF NOT EXISTS amc_payments (
		amc_id TEXT NOT NULL REFERENCES amcs(id) ON DELETE CASCADE,
		seq INTEGER NOT NULL,
		from_date TEXT NOT NULL,
		to_date TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending',
		amc_rate_applied TEXT NOT NULL DEFAULT '0',
		amc_rate_amount TEXT NOT NULL DEFAULT '0',
		total_cost TEXT NOT NULL DEFAULT '0',
		received_date TEXT,
		received_amount TEXT NOT NULL DEFAULT '0',
		invoice_number TEXT NOT NULL DEFAULT '',
		purchase_order_number TEXT NOT NULL DEFAULT '',
		PRIMARY KEY (amc_id, seq)
	);

	-- No two periods of one AMC may start on the same day
	CREATE UNIQUE INDEX IF NOT EXISTS idx_amc_payments_from
		ON amc_payments(amc_id, from_date);

	CREATE TABLE IF NOT EXISTS due_check_runs (
		id TEXT PRIMARY KEY,
		status TEXT NOT NULL,
		processed INTEGER NOT NULL DEFAULT 0,
		updated INTEGER NOT NULL DEFAULT 0,
		skipped INTEGER NOT NULL DEFAULT 0,
		errors INTEGER NOT NULL DEFAULT 0,
		new_payments INTEGER NOT NULL DEFAULT 0,
		error TEXT,
		started_at TEXT NOT NULL,
		completed_at TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_due_check_runs_started
		ON due_check_runs(started_at DESC);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// CLIENT STORE
// =============================================================================

// SaveClient upserts a client.
func (s *Store) SaveClient(ctx context.Context, c amc.Client) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO clients (id, name, amc_frequency_in_months, amc_percentage, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			amc_frequency_in_months = excluded.amc_frequency_in_months,
			amc_percentage = excluded.amc_percentage
	`
	_, err := s.db.ExecContext(ctx, query,
		c.ID, c.Name, c.AMCFrequencyInMonths, nullDecimal(c.AMCPercentage),
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to save client: %w", err)
	}
	return nil
}

// GetClient retrieves a client by ID. Returns (nil, nil) when absent.
func (s *Store) GetClient(ctx context.Context, id string) (*amc.Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		c          amc.Client
		percentage decimal.NullDecimal
	)
	err := s.db.QueryRowContext(ctx,
		"SELECT id, name, amc_frequency_in_months, amc_percentage FROM clients WHERE id = ?",
		id,
	).Scan(&c.ID, &c.Name, &c.AMCFrequencyInMonths, &percentage)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get client: %w", err)
	}
	c.AMCPercentage = decimalPtr(percentage)
	return &c, nil
}

// =============================================================================
// ORDER STORE
// =============================================================================

// SaveOrder upserts an order with its sub-collections.
func (s *Store) SaveOrder(ctx context.Context, o amc.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	customizations, err := marshalList(o.Customizations)
	if err != nil {
		return err
	}
	licenses, err := marshalList(o.Licenses)
	if err != nil {
		return err
	}
	agreements, err := marshalList(o.Agreements)
	if err != nil {
		return err
	}
	statusLogs, err := marshalList(o.StatusLogs)
	if err != nil {
		return err
	}

	var startDate sql.NullString
	if o.AMCStartDate != nil {
		startDate = sql.NullString{String: amc.DateOf(*o.AMCStartDate).Format(dateLayout), Valid: true}
	}
	createdAt := o.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	query := `
		INSERT INTO orders
		(id, client_id, title, amc_start_date, base_cost, amc_rate_percentage, amc_rate_amount,
		 customizations_json, licenses_json, agreements_json, status_logs_json, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			client_id = excluded.client_id,
			title = excluded.title,
			amc_start_date = excluded.amc_start_date,
			base_cost = excluded.base_cost,
			amc_rate_percentage = excluded.amc_rate_percentage,
			amc_rate_amount = excluded.amc_rate_amount,
			customizations_json = excluded.customizations_json,
			licenses_json = excluded.licenses_json,
			agreements_json = excluded.agreements_json,
			status_logs_json = excluded.status_logs_json
	`
	_, err = s.db.ExecContext(ctx, query,
		o.ID, o.ClientID, o.Title, startDate,
		nullDecimal(o.BaseCost), nullDecimal(o.AMCRate.Percentage), nullDecimal(o.AMCRate.Amount),
		customizations, licenses, agreements, statusLogs,
		createdAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to save order: %w", err)
	}
	return nil
}

// GetOrder retrieves an order by ID. Returns (nil, nil) when absent.
func (s *Store) GetOrder(ctx context.Context, id string) (*amc.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		o                                                amc.Order
		startDate                                        sql.NullString
		baseCost, ratePct, rateAmt                       decimal.NullDecimal
		customizations, licenses, agreements, statusLogs string
		createdAt                                        string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, client_id, title, amc_start_date, base_cost, amc_rate_percentage, amc_rate_amount,
		       customizations_json, licenses_json, agreements_json, status_logs_json, created_at
		FROM orders WHERE id = ?`, id,
	).Scan(&o.ID, &o.ClientID, &o.Title, &startDate, &baseCost, &ratePct, &rateAmt,
		&customizations, &licenses, &agreements, &statusLogs, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	if startDate.Valid {
		t, err := time.Parse(dateLayout, startDate.String)
		if err != nil {
			return nil, fmt.Errorf("order %s: bad amc_start_date %q: %w", id, startDate.String, err)
		}
		o.AMCStartDate = &t
	}
	o.BaseCost = decimalPtr(baseCost)
	o.AMCRate = amc.Rate{Percentage: decimalPtr(ratePct), Amount: decimalPtr(rateAmt)}
	o.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)

	for _, part := range []struct {
		raw  string
		dest any
	}{
		{customizations, &o.Customizations},
		{licenses, &o.Licenses},
		{agreements, &o.Agreements},
		{statusLogs, &o.StatusLogs},
	} {
		if err := json.Unmarshal([]byte(part.raw), part.dest); err != nil {
			return nil, fmt.Errorf("order %s: corrupt sub-collection: %w", id, err)
		}
	}
	return &o, nil
}

// =============================================================================
// AMC STORE
// =============================================================================

const amcColumns = `id, order_id, client_id, total_cost, amount, amc_percentage, created_at, updated_at, deleted_at`

// ListAMCs returns every live AMC with its payments.
func (s *Store) ListAMCs(ctx context.Context) ([]amc.AMC, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	amcs, err := s.queryAMCs(ctx, "SELECT "+amcColumns+" FROM amcs WHERE deleted_at IS NULL ORDER BY id")
	if err != nil {
		return nil, err
	}

	payments, err := s.queryPayments(ctx, `
		SELECT p.amc_id, `+paymentColumns+`
		FROM amc_payments p JOIN amcs a ON a.id = p.amc_id
		WHERE a.deleted_at IS NULL
		ORDER BY p.amc_id, p.seq`)
	if err != nil {
		return nil, err
	}
	for i := range amcs {
		amcs[i].Payments = payments[amcs[i].ID]
	}
	return amcs, nil
}

// GetAMC retrieves a live AMC by ID. Returns (nil, nil) when absent.
func (s *Store) GetAMC(ctx context.Context, id string) (*amc.AMC, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.getAMCWhere(ctx, "id = ?", id)
}

// GetAMCByOrder retrieves the live AMC of an order. Returns (nil, nil) when absent.
func (s *Store) GetAMCByOrder(ctx context.Context, orderID string) (*amc.AMC, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.getAMCWhere(ctx, "order_id = ?", orderID)
}

func (s *Store) getAMCWhere(ctx context.Context, cond string, arg any) (*amc.AMC, error) {
	amcs, err := s.queryAMCs(ctx, "SELECT "+amcColumns+" FROM amcs WHERE deleted_at IS NULL AND "+cond, arg)
	if err != nil {
		return nil, err
	}
	if len(amcs) == 0 {
		return nil, nil
	}
	a := amcs[0]

	payments, err := s.queryPayments(ctx,
		"SELECT amc_id, "+paymentColumns+" FROM amc_payments WHERE amc_id = ? ORDER BY seq", a.ID)
	if err != nil {
		return nil, err
	}
	a.Payments = payments[a.ID]
	return &a, nil
}

// AppendPayments adds payments after the existing ones and updates the cached
// amount/total cost in one transaction.
func (s *Store) AppendPayments(ctx context.Context, amcID string, payments []amc.Payment, amount, totalCost decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		"UPDATE amcs SET amount = ?, total_cost = ?, updated_at = ? WHERE id = ? AND deleted_at IS NULL",
		amount, totalCost, time.Now().UTC().Format(time.RFC3339), amcID)
	if err != nil {
		return fmt.Errorf("failed to update amc: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("amc %s not found", amcID)
	}

	var next int
	if err := tx.QueryRowContext(ctx,
		"SELECT COALESCE(MAX(seq) + 1, 0) FROM amc_payments WHERE amc_id = ?", amcID,
	).Scan(&next); err != nil {
		return fmt.Errorf("failed to read payment sequence: %w", err)
	}

	for i, p := range payments {
		if err := insertPayment(ctx, tx, amcID, next+i, p); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// SaveAMC writes the whole document: header upsert plus a full rewrite of
// the payment rows.
func (s *Store) SaveAMC(ctx context.Context, a amc.AMC) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	createdAt, updatedAt := a.CreatedAt, a.UpdatedAt
	if createdAt.IsZero() {
		createdAt = now
	}
	if updatedAt.IsZero() {
		updatedAt = now
	}
	var deletedAt sql.NullString
	if a.DeletedAt != nil {
		deletedAt = sql.NullString{String: a.DeletedAt.UTC().Format(time.RFC3339), Valid: true}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO amcs (`+amcColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			order_id = excluded.order_id,
			client_id = excluded.client_id,
			total_cost = excluded.total_cost,
			amount = excluded.amount,
			amc_percentage = excluded.amc_percentage,
			updated_at = excluded.updated_at,
			deleted_at = excluded.deleted_at`,
		a.ID, a.OrderID, a.ClientID, a.TotalCost, a.Amount, a.AMCPercentage,
		createdAt.UTC().Format(time.RFC3339), updatedAt.UTC().Format(time.RFC3339), deletedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save amc: %w", err)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM amc_payments WHERE amc_id = ?", a.ID); err != nil {
		return fmt.Errorf("failed to clear payments: %w", err)
	}
	for i, p := range a.Payments {
		if err := insertPayment(ctx, tx, a.ID, i, p); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// SoftDeleteAMC marks an AMC deleted. It disappears from every read.
func (s *Store) SoftDeleteAMC(ctx context.Context, id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		"UPDATE amcs SET deleted_at = ? WHERE id = ? AND deleted_at IS NULL",
		at.UTC().Format(time.RFC3339), id)
	return err
}

func (s *Store) queryAMCs(ctx context.Context, query string, args ...any) ([]amc.AMC, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query amcs: %w", err)
	}
	defer rows.Close()

	var amcs []amc.AMC
	for rows.Next() {
		var (
			a                    amc.AMC
			createdAt, updatedAt string
			deletedAt            sql.NullString
		)
		if err := rows.Scan(&a.ID, &a.OrderID, &a.ClientID, &a.TotalCost, &a.Amount, &a.AMCPercentage,
			&createdAt, &updatedAt, &deletedAt); err != nil {
			return nil, fmt.Errorf("failed to scan amc: %w", err)
		}
		a.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		a.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
		if deletedAt.Valid {
			t, _ := time.Parse(time.RFC3339, deletedAt.String)
			a.DeletedAt = &t
		}
		amcs = append(amcs, a)
	}
	return amcs, rows.Err()
}

// =============================================================================
// PAYMENT ROWS
// =============================================================================

const paymentColumns = `from_date, to_date, status, amc_rate_applied, amc_rate_amount, total_cost,
		received_date, received_amount, invoice_number, purchase_order_number`

func insertPayment(ctx context.Context, tx *sql.Tx, amcID string, seq int, p amc.Payment) error {
	var received sql.NullString
	if p.ReceivedDate != nil {
		received = sql.NullString{String: p.ReceivedDate.UTC().Format(time.RFC3339), Valid: true}
	}
	status := p.Status
	if status == "" {
		status = amc.StatusPending
	}
	if !status.Valid() {
		return fmt.Errorf("payment starting %s: unknown status %q", p.FromDate, status)
	}

	_, err := tx.ExecContext(ctx, `
		INSERT INTO amc_payments (amc_id, seq, `+paymentColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		amcID, seq,
		p.FromDate.Format(dateLayout), p.ToDate.Format(dateLayout), string(status),
		p.AMCRateApplied, p.AMCRateAmount, p.TotalCost,
		received, p.ReceivedAmount, p.InvoiceNumber, p.PurchaseOrderNumber,
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return fmt.Errorf("amc %s already has a payment starting %s: %w", amcID, p.FromDate, err)
		}
		return fmt.Errorf("failed to insert payment: %w", err)
	}
	return nil
}

// queryPayments groups payment rows by AMC id, preserving row order.
func (s *Store) queryPayments(ctx context.Context, query string, args ...any) (map[string][]amc.Payment, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query payments: %w", err)
	}
	defer rows.Close()

	result := make(map[string][]amc.Payment)
	for rows.Next() {
		var (
			amcID, from, to, status string
			received                sql.NullString
			p                       amc.Payment
		)
		if err := rows.Scan(&amcID, &from, &to, &status,
			&p.AMCRateApplied, &p.AMCRateAmount, &p.TotalCost,
			&received, &p.ReceivedAmount, &p.InvoiceNumber, &p.PurchaseOrderNumber); err != nil {
			return nil, fmt.Errorf("failed to scan payment: %w", err)
		}
		if p.FromDate, err = parseDate(from); err != nil {
			return nil, err
		}
		if p.ToDate, err = parseDate(to); err != nil {
			return nil, err
		}
		p.Status = amc.PaymentStatus(status)
		if !p.Status.Valid() {
			return nil, fmt.Errorf("payment %s/%s: unknown status %q", amcID, from, status)
		}
		if received.Valid {
			t, _ := time.Parse(time.RFC3339, received.String)
			p.ReceivedDate = &t
		}
		result[amcID] = append(result[amcID], p)
	}
	return result, rows.Err()
}

// =============================================================================
// DUE CHECK RUNS
// =============================================================================

// DueCheckRun records one batch execution.
type DueCheckRun struct {
	ID          string
	Status      string // "running", "completed", "failed"
	Result      amc.DueCheckResult
	Error       string
	StartedAt   time.Time
	CompletedAt *time.Time
}

// SaveDueCheckRun upserts a run record.
func (s *Store) SaveDueCheckRun(ctx context.Context, r DueCheckRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var completedAt sql.NullString
	if r.CompletedAt != nil {
		completedAt = sql.NullString{String: r.CompletedAt.UTC().Format(time.RFC3339Nano), Valid: true}
	}

	query := `
		INSERT INTO due_check_runs
		(id, status, processed, updated, skipped, errors, new_payments, error, started_at, completed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			status = excluded.status,
			processed = excluded.processed,
			updated = excluded.updated,
			skipped = excluded.skipped,
			errors = excluded.errors,
			new_payments = excluded.new_payments,
			error = excluded.error,
			completed_at = excluded.completed_at
	`
	_, err := s.db.ExecContext(ctx, query,
		r.ID, r.Status,
		r.Result.Processed, r.Result.Updated, r.Result.Skipped, r.Result.Errors, r.Result.NewPaymentsAdded,
		nullString(r.Error), r.StartedAt.UTC().Format(time.RFC3339Nano), completedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save due check run: %w", err)
	}
	return nil
}

// ListDueCheckRuns returns the most recent runs first.
func (s *Store) ListDueCheckRuns(ctx context.Context, limit int) ([]DueCheckRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, status, processed, updated, skipped, errors, new_payments, error, started_at, completed_at
		FROM due_check_runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query due check runs: %w", err)
	}
	defer rows.Close()

	var runs []DueCheckRun
	for rows.Next() {
		var (
			r                   DueCheckRun
			errMsg, completedAt sql.NullString
			startedAt           string
		)
		if err := rows.Scan(&r.ID, &r.Status,
			&r.Result.Processed, &r.Result.Updated, &r.Result.Skipped, &r.Result.Errors, &r.Result.NewPaymentsAdded,
			&errMsg, &startedAt, &completedAt); err != nil {
			return nil, fmt.Errorf("failed to scan due check run: %w", err)
		}
		r.Error = errMsg.String
		r.StartedAt, _ = time.Parse(time.RFC3339Nano, startedAt)
		if completedAt.Valid {
			t, _ := time.Parse(time.RFC3339Nano, completedAt.String)
			r.CompletedAt = &t
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Reset deletes all data. Used by the demo scenario loader.
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tables := []string{"amc_payments", "amcs", "orders", "clients", "due_check_runs"}
	for _, table := range tables {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}
	return nil
}

// =============================================================================
// HELPERS
// =============================================================================

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullDecimal(d *decimal.Decimal) decimal.NullDecimal {
	if d == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: *d, Valid: true}
}

func decimalPtr(d decimal.NullDecimal) *decimal.Decimal {
	if !d.Valid {
		return nil
	}
	v := d.Decimal
	return &v
}

func parseDate(s string) (amc.Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return amc.Date{}, fmt.Errorf("bad date %q: %w", s, err)
	}
	return amc.DateOf(t), nil
}

func marshalList(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("failed to encode sub-collection: %w", err)
	}
	if string(data) == "null" {
		return "[]", nil
	}
	return string(data), nil
}

func isUniqueConstraintError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
