package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/webinar-impact/webinar-impact/internal/cohort"
)

var ErrNotFound = errors.New("not found")

type SQLiteStore struct {
	db *sql.DB
}

// Compile-time interface check.
var _ Store = (*SQLiteStore)(nil)

const schema = `
CREATE TABLE IF NOT EXISTS imports (
    id TEXT PRIMARY KEY,
    name TEXT UNIQUE NOT NULL,
    event_count INTEGER NOT NULL DEFAULT 0,
    store_count INTEGER NOT NULL DEFAULT 0,
    created_at INTEGER NOT NULL DEFAULT (unixepoch())
);

CREATE INDEX IF NOT EXISTS idx_imports_created ON imports(created_at);

CREATE TABLE IF NOT EXISTS webinar_events (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    import_id TEXT NOT NULL,
    row_num INTEGER NOT NULL,
    store_id TEXT NOT NULL,
    month_label TEXT NOT NULL DEFAULT '',
    month TEXT NOT NULL DEFAULT '',
    webinar_name TEXT NOT NULL DEFAULT '',
    webinar_status TEXT NOT NULL DEFAULT '',
    status_at_webinar TEXT NOT NULL DEFAULT '',
    status_month_before TEXT NOT NULL DEFAULT '',
    first_seller_at INTEGER,
    created_at INTEGER,
    FOREIGN KEY (import_id) REFERENCES imports(id)
);

CREATE INDEX IF NOT EXISTS idx_webinar_events_import ON webinar_events(import_id, row_num);

CREATE TABLE IF NOT EXISTS stores (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    import_id TEXT NOT NULL,
    store_id TEXT NOT NULL,
    gmv_d30 REAL,
    gmv_d90 REAL,
    current_status TEXT NOT NULL DEFAULT '',
    store_age_days REAL,
    FOREIGN KEY (import_id) REFERENCES imports(id)
);

CREATE INDEX IF NOT EXISTS idx_stores_import ON stores(import_id);

CREATE TABLE IF NOT EXISTS settings (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL
);
`

func Open(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Enable WAL mode
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	// Apply schema
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// CreateImport stores both datasets under a fresh id in a single
// transaction.
func (s *SQLiteStore) CreateImport(ctx context.Context, name string, events []cohort.WebinarEvent, roster []cohort.StoreRecord) (*Import, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.New("import name is required")
	}

	imp := &Import{
		ID:         uuid.NewString(),
		Name:       name,
		EventCount: len(events),
		StoreCount: len(roster),
		CreatedAt:  time.Unix(time.Now().Unix(), 0),
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO imports (id, name, event_count, store_count, created_at) VALUES (?, ?, ?, ?, ?)`,
		imp.ID, imp.Name, imp.EventCount, imp.StoreCount, imp.CreatedAt.Unix(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert import: %w", err)
	}

	if err := insertEvents(ctx, tx, imp.ID, events); err != nil {
		return nil, err
	}
	if err := insertRoster(ctx, tx, imp.ID, roster); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit import: %w", err)
	}
	return imp, nil
}

func insertEvents(ctx context.Context, tx *sql.Tx, importID string, events []cohort.WebinarEvent) error {
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO webinar_events (import_id, row_num, store_id, month_label, month, webinar_name, webinar_status,
		 status_at_webinar, status_month_before, first_seller_at, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare event insert: %w", err)
	}
	defer stmt.Close()

	for _, e := range events {
		_, err := stmt.ExecContext(ctx, importID, e.Row, e.StoreID, e.MonthLabel, e.Month, e.WebinarName, e.WebinarStatus,
			e.StatusAtWebinar, e.StatusMonthBefore, nullableTime(e.FirstSellerAt), nullableTime(e.CreatedAt))
		if err != nil {
			return fmt.Errorf("failed to insert event row %d: %w", e.Row, err)
		}
	}
	return nil
}

func insertRoster(ctx context.Context, tx *sql.Tx, importID string, roster []cohort.StoreRecord) error {
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO stores (import_id, store_id, gmv_d30, gmv_d90, current_status, store_age_days)
		 VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare store insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range roster {
		_, err := stmt.ExecContext(ctx, importID, r.StoreID, nullableFloat(r.GMVD30), nullableFloat(r.GMVD90),
			r.CurrentStatus, nullableFloat(r.StoreAgeDays))
		if err != nil {
			return fmt.Errorf("failed to insert store %s: %w", r.StoreID, err)
		}
	}
	return nil
}

const importColumns = `id, name, event_count, store_count, created_at`

func scanImport(row interface{ Scan(...any) error }) (*Import, error) {
	var imp Import
	var createdAt int64
	if err := row.Scan(&imp.ID, &imp.Name, &imp.EventCount, &imp.StoreCount, &createdAt); err != nil {
		return nil, err
	}
	imp.CreatedAt = time.Unix(createdAt, 0)
	return &imp, nil
}

// GetImport finds an import by id, unique id prefix, or name.
func (s *SQLiteStore) GetImport(ctx context.Context, ref string) (*Import, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, ErrNotFound
	}

	imp, err := scanImport(s.db.QueryRowContext(ctx,
		`SELECT `+importColumns+` FROM imports WHERE id = ? OR name = ?`, ref, ref))
	if err == nil {
		return imp, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to get import: %w", err)
	}

	if strings.ContainsAny(ref, "%_") {
		return nil, ErrNotFound
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+importColumns+` FROM imports WHERE id LIKE ? LIMIT 2`, ref+"%")
	if err != nil {
		return nil, fmt.Errorf("failed to get import: %w", err)
	}
	defer rows.Close()

	var matches []*Import
	for rows.Next() {
		imp, err := scanImport(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan import: %w", err)
		}
		matches = append(matches, imp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to get import: %w", err)
	}

	switch len(matches) {
	case 0:
		return nil, ErrNotFound
	case 1:
		return matches[0], nil
	default:
		return nil, fmt.Errorf("import id prefix %q is ambiguous", ref)
	}
}

func (s *SQLiteStore) ListImports(ctx context.Context) ([]*Import, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+importColumns+` FROM imports ORDER BY created_at DESC, rowid DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list imports: %w", err)
	}
	defer rows.Close()

	var imports []*Import
	for rows.Next() {
		imp, err := scanImport(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan import: %w", err)
		}
		imports = append(imports, imp)
	}
	return imports, rows.Err()
}

// LatestImport returns the most recently created import.
func (s *SQLiteStore) LatestImport(ctx context.Context) (*Import, error) {
	imp, err := scanImport(s.db.QueryRowContext(ctx,
		`SELECT `+importColumns+` FROM imports ORDER BY created_at DESC, rowid DESC LIMIT 1`))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest import: %w", err)
	}
	return imp, nil
}

func (s *SQLiteStore) DeleteImport(ctx context.Context, ref string) error {
	imp, err := s.GetImport(ctx, ref)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// First delete related rows
	if _, err := tx.ExecContext(ctx, `DELETE FROM webinar_events WHERE import_id = ?`, imp.ID); err != nil {
		return fmt.Errorf("failed to delete events: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM stores WHERE import_id = ?`, imp.ID); err != nil {
		return fmt.Errorf("failed to delete stores: %w", err)
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM imports WHERE id = ?`, imp.ID)
	if err != nil {
		return fmt.Errorf("failed to delete import: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}

	return tx.Commit()
}

// GetEvents returns the webinar events of an import in source order.
func (s *SQLiteStore) GetEvents(ctx context.Context, importID string) ([]cohort.WebinarEvent, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT row_num, store_id, month_label, month, webinar_name, webinar_status, status_at_webinar,
		 status_month_before, first_seller_at, created_at
		 FROM webinar_events WHERE import_id = ? ORDER BY row_num, id`,
		importID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get events: %w", err)
	}
	defer rows.Close()

	var events []cohort.WebinarEvent
	for rows.Next() {
		var e cohort.WebinarEvent
		var firstSellerAt, createdAt sql.NullInt64
		if err := rows.Scan(&e.Row, &e.StoreID, &e.MonthLabel, &e.Month, &e.WebinarName, &e.WebinarStatus,
			&e.StatusAtWebinar, &e.StatusMonthBefore, &firstSellerAt, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		e.FirstSellerAt = timeFromNull(firstSellerAt)
		e.CreatedAt = timeFromNull(createdAt)
		events = append(events, e)
	}

	return events, rows.Err()
}

// GetRoster returns the store roster of an import in insertion order.
func (s *SQLiteStore) GetRoster(ctx context.Context, importID string) ([]cohort.StoreRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT store_id, gmv_d30, gmv_d90, current_status, store_age_days
		 FROM stores WHERE import_id = ? ORDER BY id`,
		importID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get stores: %w", err)
	}
	defer rows.Close()

	var roster []cohort.StoreRecord
	for rows.Next() {
		var r cohort.StoreRecord
		var gmv30, gmv90, age sql.NullFloat64
		if err := rows.Scan(&r.StoreID, &gmv30, &gmv90, &r.CurrentStatus, &age); err != nil {
			return nil, fmt.Errorf("failed to scan store: %w", err)
		}
		r.GMVD30 = floatFromNull(gmv30)
		r.GMVD90 = floatFromNull(gmv90)
		r.StoreAgeDays = floatFromNull(age)
		roster = append(roster, r)
	}

	return roster, rows.Err()
}

func (s *SQLiteStore) GetSetting(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to get setting: %w", err)
	}
	return value, nil
}

func (s *SQLiteStore) SetSetting(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO settings (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value,
	)
	if err != nil {
		return fmt.Errorf("failed to set setting: %w", err)
	}
	return nil
}

// DB returns the underlying database connection for health checks
func (s *SQLiteStore) DB() *sql.DB {
	return s.db
}

func nullableTime(t *time.Time) sql.NullInt64 {
	if t == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: t.Unix(), Valid: true}
}

func timeFromNull(v sql.NullInt64) *time.Time {
	if !v.Valid {
		return nil
	}
	t := time.Unix(v.Int64, 0).UTC()
	return &t
}

func nullableFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}

func floatFromNull(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}
