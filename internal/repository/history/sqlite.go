package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	// Register the pure-Go sqlite driver.
	_ "modernc.org/sqlite"
)

// SQLiteRepository journals firings in a local SQLite database.
type SQLiteRepository struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS firings (
    seq INTEGER PRIMARY KEY AUTOINCREMENT,
    alarm_id TEXT NOT NULL,
    label TEXT,
    group_name TEXT,
    time TEXT NOT NULL,
    fired_at DATETIME NOT NULL,
    delivered BOOLEAN NOT NULL,
    error TEXT
);

CREATE INDEX IF NOT EXISTS idx_firings_alarm ON firings(alarm_id);
CREATE INDEX IF NOT EXISTS idx_firings_fired_at ON firings(fired_at);
`

// Open opens or creates the journal database at the given path.
func Open(path string) (*SQLiteRepository, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create journal directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}

	if err = db.Ping(); err != nil {
		_ = db.Close()

		return nil, fmt.Errorf("connect journal: %w", err)
	}

	if _, err = db.Exec(schema); err != nil {
		_ = db.Close()

		return nil, fmt.Errorf("initialize journal schema: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

// Close closes the underlying database.
func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

// Record appends one firing row.
func (r *SQLiteRepository) Record(ctx context.Context, firing Firing) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO firings (alarm_id, label, group_name, time, fired_at, delivered, error)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		firing.AlarmID, firing.Label, firing.GroupName, firing.Time,
		firing.FiredAt, firing.Delivered, firing.Error,
	)
	if err != nil {
		return fmt.Errorf("record firing: %w", err)
	}

	return nil
}

// List returns journal rows newest-first, honoring the filter.
func (r *SQLiteRepository) List(ctx context.Context, filter Filter) ([]Firing, error) {
	query := `SELECT seq, alarm_id, label, group_name, time, fired_at, delivered, error
		FROM firings`

	var args []any

	if filter.AlarmID != "" {
		query += " WHERE alarm_id = ?"
		args = append(args, filter.AlarmID)
	}

	query += " ORDER BY seq DESC"

	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query firings: %w", err)
	}
	defer rows.Close()

	var firings []Firing

	for rows.Next() {
		var (
			f                      Firing
			label, group, errorMsg sql.NullString
		)

		if err = rows.Scan(&f.Seq, &f.AlarmID, &label, &group, &f.Time,
			&f.FiredAt, &f.Delivered, &errorMsg); err != nil {
			return nil, fmt.Errorf("scan firing: %w", err)
		}

		f.Label = label.String
		f.GroupName = group.String
		f.Error = errorMsg.String

		firings = append(firings, f)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate firings: %w", err)
	}

	return firings, nil
}

// Cleanup deletes rows fired before the cutoff and reports how many were
// removed.
func (r *SQLiteRepository) Cleanup(ctx context.Context, before time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		"DELETE FROM firings WHERE fired_at < ?", before)
	if err != nil {
		return 0, fmt.Errorf("clean up firings: %w", err)
	}

	removed, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("count removed firings: %w", err)
	}

	return removed, nil
}
