package records

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// rowColumns is the closed set of writable columns. An update naming any
// other column is rejected rather than silently dropped.
var rowColumns = map[string]bool{
	"call_id":               true,
	"phone":                 true,
	"business_name":         true,
	"lead_name":             true,
	"email":                 true,
	"international":         true,
	"main_couriers":         true,
	"shipping_frequency":    true,
	"main_countries":        true,
	"example_shipment":      true,
	"example_shipment_cost": true,
	"domestic_frequency":    true,
	"domestic_courier":      true,
	"standard_rate":         true,
	"excluding_fuel_vat":    true,
	"single_or_multi":       true,
	"decision_maker":        true,
	"callback_needed":       true,
	"status":                true,
	"outcome":               true,
	"duration_seconds":      true,
	"cost_usd":              true,
	"recording_uri":         true,
	"summary":               true,
	"sentiment":             true,
	"quality_score":         true,
	"objections":            true,
	"key_phrases":           true,
}

// SQLiteStore is the default Store implementation.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (and if needed initializes) the record store at path.
func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open record store: %w", err)
	}
	s := &SQLiteStore{db: db}
	if err := s.init(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) init() error {
	cols := make([]string, 0, len(rowColumns))
	for col := range rowColumns {
		cols = append(cols, col+" TEXT NOT NULL DEFAULT ''")
	}
	sort.Strings(cols)
	schema := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS call_rows (
        id TEXT PRIMARY KEY,
        created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
        updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
        %s
    );
    CREATE INDEX IF NOT EXISTS idx_call_rows_call_id ON call_rows(call_id);
    CREATE INDEX IF NOT EXISTS idx_call_rows_phone ON call_rows(phone);`,
		strings.Join(cols, ",\n        "))
	_, err := s.db.Exec(schema)
	if err != nil {
		return fmt.Errorf("init record store: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error { return s.db.Close() }

func (s *SQLiteStore) FindByCallID(ctx context.Context, callID string) (*Row, error) {
	if callID == "" {
		return nil, nil
	}
	return s.queryOne(ctx, `SELECT id, created_at FROM call_rows WHERE call_id = ? LIMIT 1`, callID)
}

func (s *SQLiteStore) FindByPhone(ctx context.Context, phone string) (*Row, error) {
	if phone == "" {
		return nil, nil
	}
	return s.queryOne(ctx, `SELECT id, created_at FROM call_rows WHERE phone = ? ORDER BY created_at DESC LIMIT 1`, phone)
}

func (s *SQLiteStore) queryOne(ctx context.Context, query string, arg any) (*Row, error) {
	row := s.db.QueryRowContext(ctx, query, arg)
	var id string
	var createdAt time.Time
	if err := row.Scan(&id, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return s.load(ctx, id, createdAt)
}

// Recent returns the most recently created rows, newest first.
func (s *SQLiteStore) Recent(ctx context.Context, limit int) ([]*Row, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, created_at FROM call_rows ORDER BY created_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*Row
	for rows.Next() {
		var id string
		var createdAt time.Time
		if err := rows.Scan(&id, &createdAt); err != nil {
			return nil, err
		}
		r, err := s.load(ctx, id, createdAt)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) load(ctx context.Context, id string, createdAt time.Time) (*Row, error) {
	cols := sortedColumns()
	selects := strings.Join(cols, ", ")
	row := s.db.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT %s FROM call_rows WHERE id = ?`, selects), id)
	values := make([]string, len(cols))
	dest := make([]any, len(cols))
	for i := range values {
		dest[i] = &values[i]
	}
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	out := &Row{ID: id, CreatedAt: createdAt, Fields: make(map[string]string, len(cols))}
	for i, col := range cols {
		if values[i] == "" {
			continue
		}
		switch col {
		case "call_id":
			out.CallID = values[i]
		case "phone":
			out.Phone = values[i]
		}
		out.Fields[col] = values[i]
	}
	return out, nil
}

// Create inserts a new row and returns its generated id.
func (s *SQLiteStore) Create(ctx context.Context, r *Row) (string, error) {
	id := uuid.NewString()
	cols := []string{"id", "call_id", "phone"}
	args := []any{id, r.CallID, r.Phone}
	for col, val := range r.Fields {
		if col == "call_id" || col == "phone" {
			continue
		}
		if !rowColumns[col] {
			return "", fmt.Errorf("create: unknown column %q", col)
		}
		cols = append(cols, col)
		args = append(args, val)
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", ")
	_, err := s.db.ExecContext(ctx,
		fmt.Sprintf(`INSERT INTO call_rows (%s) VALUES (%s)`, strings.Join(cols, ", "), placeholders),
		args...)
	if err != nil {
		return "", fmt.Errorf("create row: %w", err)
	}
	return id, nil
}

// Update overwrites exactly the named columns of one row. Columns absent
// from cols keep their current values.
func (s *SQLiteStore) Update(ctx context.Context, id string, cols map[string]string) error {
	if len(cols) == 0 {
		return nil
	}
	sets := make([]string, 0, len(cols)+1)
	args := make([]any, 0, len(cols)+1)
	names := make([]string, 0, len(cols))
	for col := range cols {
		names = append(names, col)
	}
	sort.Strings(names)
	for _, col := range names {
		if !rowColumns[col] {
			return fmt.Errorf("update: unknown column %q", col)
		}
		sets = append(sets, col+" = ?")
		args = append(args, cols[col])
	}
	sets = append(sets, "updated_at = CURRENT_TIMESTAMP")
	args = append(args, id)
	res, err := s.db.ExecContext(ctx,
		fmt.Sprintf(`UPDATE call_rows SET %s WHERE id = ?`, strings.Join(sets, ", ")), args...)
	if err != nil {
		return fmt.Errorf("update row: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("update row: no row with id %s", id)
	}
	return nil
}

func sortedColumns() []string {
	cols := make([]string, 0, len(rowColumns))
	for col := range rowColumns {
		cols = append(cols, col)
	}
	sort.Strings(cols)
	return cols
}
