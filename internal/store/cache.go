// Package store provides a SQLite-backed cache of month aggregates and a
// history of computed index series.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/theirongolddev/canasta/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite" // register sqlite driver
)

// timeLayout is RFC 3339 with a fixed nine-digit fraction, so stored
// timestamps order correctly as text. RFC3339Nano parses it back.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Cache provides SQLite-backed month and run storage.
type Cache struct {
	db *sql.DB
}

// Open opens or creates the cache database at the given path.
func Open(dbPath string) (*Cache, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating cache dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=synchronous(normal)&_pragma=foreign_keys(on)")
	if err != nil {
		return nil, fmt.Errorf("opening cache db: %w", err)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &Cache{db: db}, nil
}

// Close closes the cache database.
func (c *Cache) Close() error {
	return c.db.Close()
}

// MonthKey identifies one cached month: the data source, the date pattern
// and the allowed status set it was filtered with.
type MonthKey struct {
	Source   string
	Month    string
	Statuses []string
}

func (k MonthKey) statuses() string {
	s := append([]string(nil), k.Statuses...)
	sort.Strings(s)
	return strings.Join(s, ",")
}

// MonthRecord is a cached month aggregate plus the counts seen while building it.
type MonthRecord struct {
	Aggregate model.MonthAggregate
	Lines     int
	Kept      int
	Rejected  int
	Malformed int
	Bytes     int
	FetchedAt time.Time
}

// LoadMonth returns the cached month for key, if any.
func (c *Cache) LoadMonth(key MonthKey) (MonthRecord, bool, error) {
	var (
		rec       MonthRecord
		fetchedAt string
	)
	err := c.db.QueryRow(`SELECT lines, kept, rejected, malformed, bytes, fetched_at
		FROM month_fetches WHERE source = ? AND month = ? AND statuses = ?`,
		key.Source, key.Month, key.statuses(),
	).Scan(&rec.Lines, &rec.Kept, &rec.Rejected, &rec.Malformed, &rec.Bytes, &fetchedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return MonthRecord{}, false, nil
	}
	if err != nil {
		return MonthRecord{}, false, err
	}
	rec.FetchedAt, _ = time.Parse(time.RFC3339Nano, fetchedAt)

	rows, err := c.db.Query(`SELECT sku, name, price, count FROM month_aggregates
		WHERE source = ? AND month = ? AND statuses = ?`,
		key.Source, key.Month, key.statuses())
	if err != nil {
		return MonthRecord{}, false, err
	}
	defer func() { _ = rows.Close() }()

	var products []model.ProductAggregate
	for rows.Next() {
		var p model.ProductAggregate
		if err := rows.Scan(&p.SKU, &p.Name, &p.Price, &p.Count); err != nil {
			return MonthRecord{}, false, err
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return MonthRecord{}, false, err
	}

	rec.Aggregate = model.NewMonthAggregate(key.Month, products)
	return rec, true, nil
}

// SaveMonth replaces the cached month for key.
func (c *Cache) SaveMonth(key MonthKey, rec MonthRecord) error {
	tx, err := c.db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	fetchedAt := rec.FetchedAt
	if fetchedAt.IsZero() {
		fetchedAt = time.Now()
	}

	// Cascades to month_aggregates.
	_, err = tx.Exec("DELETE FROM month_fetches WHERE source = ? AND month = ? AND statuses = ?",
		key.Source, key.Month, key.statuses())
	if err != nil {
		return err
	}

	_, err = tx.Exec(`INSERT INTO month_fetches
		(source, month, statuses, lines, kept, rejected, malformed, bytes, fetched_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		key.Source, key.Month, key.statuses(), rec.Lines, rec.Kept, rec.Rejected,
		rec.Malformed, rec.Bytes, fetchedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return err
	}

	for _, p := range rec.Aggregate.Products() {
		_, err = tx.Exec(`INSERT INTO month_aggregates
			(source, month, statuses, sku, name, price, count)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			key.Source, key.Month, key.statuses(), p.SKU, p.Name, p.Price, p.Count,
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// ClearMonths drops every cached month of source, or of all sources when
// source is empty. It returns the number of months removed.
func (c *Cache) ClearMonths(source string) (int64, error) {
	var (
		res sql.Result
		err error
	)
	if source == "" {
		res, err = c.db.Exec("DELETE FROM month_fetches")
	} else {
		res, err = c.db.Exec("DELETE FROM month_fetches WHERE source = ?", source)
	}
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Run is one computed index series.
type Run struct {
	ID          string
	Source      string
	Months      []string
	BaseMonth   string
	BaseTotal   decimal.Decimal
	BasketSize  int
	Accumulated float64
	ComputedAt  time.Time
	Points      []model.IndexPoint
}

// NewRun builds a Run for series with a fresh id.
func NewRun(source string, months []string, series model.IndexSeries) Run {
	return Run{
		ID:          uuid.NewString(),
		Source:      source,
		Months:      months,
		BaseMonth:   series.BaseMonth,
		BaseTotal:   series.BaseTotal,
		BasketSize:  series.BasketSize,
		Accumulated: series.Accumulated,
		ComputedAt:  time.Now(),
		Points:      series.Points,
	}
}

// SaveRun stores a run and its points.
func (c *Cache) SaveRun(r Run) error {
	if r.ID == "" {
		return errors.New("run has no id")
	}

	tx, err := c.db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.Exec(`INSERT OR REPLACE INTO runs
		(run_id, source, months, base_month, base_total, basket_size, accumulated, computed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.Source, strings.Join(r.Months, ","), r.BaseMonth, r.BaseTotal.String(),
		r.BasketSize, r.Accumulated, r.ComputedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return err
	}

	_, err = tx.Exec("DELETE FROM run_points WHERE run_id = ?", r.ID)
	if err != nil {
		return err
	}

	for i, p := range r.Points {
		_, err = tx.Exec(`INSERT INTO run_points
			(run_id, idx, month, total, ipc, inflation, accumulated)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			r.ID, i, p.Month, p.Total.String(), p.IPC, p.Inflation, p.Accumulated,
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// ListRuns returns the most recent runs, newest first, without points.
// limit <= 0 returns every run.
func (c *Cache) ListRuns(limit int) ([]Run, error) {
	query := `SELECT run_id, source, months, base_month, base_total, basket_size, accumulated, computed_at
		FROM runs ORDER BY computed_at DESC`
	var args []any
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := c.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var runs []Run
	for rows.Next() {
		var (
			r                Run
			months, base, at string
		)
		if err := rows.Scan(&r.ID, &r.Source, &months, &r.BaseMonth, &base,
			&r.BasketSize, &r.Accumulated, &at); err != nil {
			return nil, err
		}
		if months != "" {
			r.Months = strings.Split(months, ",")
		}
		r.BaseTotal, _ = decimal.NewFromString(base)
		r.ComputedAt, _ = time.Parse(time.RFC3339Nano, at)
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// LoadRun returns one run with its points. The boolean is false if no run
// has that id.
func (c *Cache) LoadRun(id string) (Run, bool, error) {
	var (
		r                Run
		months, base, at string
	)
	err := c.db.QueryRow(`SELECT run_id, source, months, base_month, base_total, basket_size, accumulated, computed_at
		FROM runs WHERE run_id = ?`, id,
	).Scan(&r.ID, &r.Source, &months, &r.BaseMonth, &base, &r.BasketSize, &r.Accumulated, &at)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, false, nil
	}
	if err != nil {
		return Run{}, false, err
	}
	if months != "" {
		r.Months = strings.Split(months, ",")
	}
	r.BaseTotal, _ = decimal.NewFromString(base)
	r.ComputedAt, _ = time.Parse(time.RFC3339Nano, at)

	rows, err := c.db.Query(`SELECT month, total, ipc, inflation, accumulated
		FROM run_points WHERE run_id = ? ORDER BY idx`, id)
	if err != nil {
		return Run{}, false, err
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var (
			p     model.IndexPoint
			total string
		)
		if err := rows.Scan(&p.Month, &total, &p.IPC, &p.Inflation, &p.Accumulated); err != nil {
			return Run{}, false, err
		}
		p.Total, _ = decimal.NewFromString(total)
		p.BaseTotal = r.BaseTotal
		r.Points = append(r.Points, p)
	}
	if err := rows.Err(); err != nil {
		return Run{}, false, err
	}
	return r, true, nil
}
