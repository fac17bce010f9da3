package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"storyloader/internal/batch"
)

var (
	// ErrNotFound is returned when no batch matches an id or prefix.
	ErrNotFound = errors.New("batch not found")
	// ErrAmbiguous is returned when an id prefix matches several batches.
	ErrAmbiguous = errors.New("batch id prefix is ambiguous")
)

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
	timeLayout              = time.RFC3339Nano
)

// Store persists batch reports in SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Summary is one ledger row without per-story detail.
type Summary struct {
	BatchID    string
	ProjectKey string
	EpicKey    string
	Source     string
	StartedAt  time.Time
	FinishedAt time.Time
	Total      int
	Successful int
	Failed     int
	Warnings   int
}

// Entry is a recorded batch with its full report.
type Entry struct {
	Summary
	Report batch.Report
}

// Open initializes or connects to the ledger at path.
func Open(path string) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("history path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure history directory: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// Pragmas are per connection.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Path returns the database file location.
func (s *Store) Path() string { return s.path }

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Record stores a report with the input it came from. Recording the same
// batch id twice fails.
func (s *Store) Record(ctx context.Context, report batch.Report, source string) error {
	if strings.TrimSpace(report.BatchID) == "" {
		return errors.New("record batch: batch id is required")
	}
	ctx = ensureContext(ctx)
	return retryOnBusy(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin record tx: %w", err)
		}
		defer func() { _ = tx.Rollback() }()

		if _, err := tx.ExecContext(ctx, `INSERT INTO batches
			(id, project_key, epic_key, source, started_at, finished_at, total, successful, failed, warnings)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			report.BatchID, report.ProjectKey, nullable(report.EpicKey), nullable(source),
			formatTime(report.StartedAt), formatTime(report.FinishedAt),
			report.Total, report.Successful, report.Failed, report.Warnings,
		); err != nil {
			return fmt.Errorf("insert batch: %w", err)
		}

		position := 0
		for _, group := range [][]batch.Outcome{report.Epics, report.Stories} {
			for _, o := range group {
				if _, err := tx.ExecContext(ctx, `INSERT INTO outcomes
					(batch_id, position, kind, local_id, epic_name, title, remote_key, parent_key, reason, error_detail, warning)
					VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
					report.BatchID, position, string(o.Kind), o.LocalID,
					nullable(o.EpicName), o.Title, nullable(o.RemoteKey), nullable(o.ParentKey),
					nullable(string(o.Reason)), nullable(o.ErrorDetail), nullable(o.Warning),
				); err != nil {
					return fmt.Errorf("insert outcome %d: %w", position, err)
				}
				position++
			}
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit batch: %w", err)
		}
		return nil
	})
}

const summaryColumns = "id, project_key, epic_key, source, started_at, finished_at, total, successful, failed, warnings"

// List returns the most recent batches first. A limit of zero or less
// returns every batch.
func (s *Store) List(ctx context.Context, limit int) ([]Summary, error) {
	query := "SELECT " + summaryColumns + " FROM batches ORDER BY started_at DESC, id"
	var args []any
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ensureContext(ctx), query, args...)
	if err != nil {
		return nil, fmt.Errorf("list batches: %w", err)
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		summary, err := scanSummary(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, summary)
	}
	return out, rows.Err()
}

// Get loads a batch by full id or unique id prefix.
func (s *Store) Get(ctx context.Context, idOrPrefix string) (Entry, error) {
	ctx = ensureContext(ctx)
	idOrPrefix = strings.TrimSpace(idOrPrefix)
	if idOrPrefix == "" {
		return Entry{}, ErrNotFound
	}
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+summaryColumns+" FROM batches WHERE id = ? OR id LIKE ? ESCAPE '\\' ORDER BY id = ? DESC LIMIT 2",
		idOrPrefix, escapeLike(idOrPrefix)+"%", idOrPrefix,
	)
	if err != nil {
		return Entry{}, fmt.Errorf("get batch: %w", err)
	}
	var matches []Summary
	for rows.Next() {
		summary, err := scanSummary(rows)
		if err != nil {
			rows.Close()
			return Entry{}, err
		}
		matches = append(matches, summary)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return Entry{}, err
	}

	switch {
	case len(matches) == 0:
		return Entry{}, fmt.Errorf("%w: %s", ErrNotFound, idOrPrefix)
	case len(matches) > 1 && matches[0].BatchID != idOrPrefix:
		return Entry{}, fmt.Errorf("%w: %s", ErrAmbiguous, idOrPrefix)
	}

	entry := Entry{Summary: matches[0]}
	report, err := s.loadReport(ctx, entry.Summary)
	if err != nil {
		return Entry{}, err
	}
	entry.Report = report
	return entry, nil
}

// Prune deletes batches that started before cutoff and returns how many were removed.
func (s *Store) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	ctx = ensureContext(ctx)
	var removed int64
	err := retryOnBusy(ctx, func() error {
		res, err := s.db.ExecContext(ctx, "DELETE FROM batches WHERE started_at < ?", formatTime(cutoff))
		if err != nil {
			return err
		}
		removed, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("prune batches: %w", err)
	}
	return removed, nil
}

func (s *Store) loadReport(ctx context.Context, summary Summary) (batch.Report, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT kind, local_id, epic_name, title, remote_key, parent_key, reason, error_detail, warning
		FROM outcomes WHERE batch_id = ? ORDER BY position`, summary.BatchID)
	if err != nil {
		return batch.Report{}, fmt.Errorf("load outcomes: %w", err)
	}
	defer rows.Close()

	var outcomes []batch.Outcome
	for rows.Next() {
		var (
			o    batch.Outcome
			kind string

			epicName, title, remoteKey, parentKey sql.NullString
			reason, detail, warning               sql.NullString
		)
		if err := rows.Scan(&kind, &o.LocalID, &epicName, &title, &remoteKey, &parentKey, &reason, &detail, &warning); err != nil {
			return batch.Report{}, fmt.Errorf("scan outcome: %w", err)
		}
		o.Kind = batch.OutcomeKind(kind)
		o.EpicName = epicName.String
		o.Title = title.String
		o.RemoteKey = remoteKey.String
		o.ParentKey = parentKey.String
		o.Reason = batch.Reason(reason.String)
		o.ErrorDetail = detail.String
		o.Warning = warning.String
		outcomes = append(outcomes, o)
	}
	if err := rows.Err(); err != nil {
		return batch.Report{}, err
	}

	report := batch.Aggregate(outcomes)
	report.BatchID = summary.BatchID
	report.ProjectKey = summary.ProjectKey
	report.EpicKey = summary.EpicKey
	report.StartedAt = summary.StartedAt
	report.FinishedAt = summary.FinishedAt
	return report, nil
}

func scanSummary(scanner interface{ Scan(dest ...any) error }) (Summary, error) {
	var (
		summary             Summary
		epicKey, source     sql.NullString
		startedRaw, doneRaw string
	)
	if err := scanner.Scan(&summary.BatchID, &summary.ProjectKey, &epicKey, &source, &startedRaw, &doneRaw,
		&summary.Total, &summary.Successful, &summary.Failed, &summary.Warnings); err != nil {
		return Summary{}, fmt.Errorf("scan batch: %w", err)
	}
	summary.EpicKey = epicKey.String
	summary.Source = source.String
	summary.StartedAt = parseTime(startedRaw)
	summary.FinishedAt = parseTime(doneRaw)
	return summary, nil
}
