// Package journal keeps a local record of submitted transactions so an
// unconfirmed hash can be re-queried later instead of resubmitted. It
// lives on the caller side of the lifecycle: the submitter itself holds no
// state.
package journal

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS submissions (
	hash         TEXT PRIMARY KEY,
	kind         TEXT NOT NULL,
	status       TEXT NOT NULL,
	detail       TEXT NOT NULL DEFAULT '',
	submitted_at TIMESTAMP NOT NULL,
	updated_at   TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS submissions_status ON submissions(status);
`

// Submission kinds.
const (
	KindMetered = "metered"
	KindSimple  = "simple"
)

// Local status values. "timeout" is a local classification, not a ledger
// state: the transaction may still confirm.
const (
	StatusSubmitted = "submitted"
	StatusSuccess   = "success"
	StatusFailed    = "failed"
	StatusTimeout   = "timeout"
)

type Entry struct {
	Hash        string
	Kind        string
	Status      string
	Detail      string
	SubmittedAt time.Time
	UpdatedAt   time.Time
}

type Journal struct {
	db *sql.DB
}

// Open opens (creating if needed) the journal database at path.
func Open(path string) (*Journal, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrap(err, "opening journal")
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "creating journal schema")
	}
	return &Journal{db: db}, nil
}

func (j *Journal) Close() error { return j.db.Close() }

// Record inserts a fresh submission.
func (j *Journal) Record(ctx context.Context, hash, kind string) error {
	now := time.Now().UTC()
	_, err := j.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO submissions (hash, kind, status, detail, submitted_at, updated_at)
		 VALUES (?, ?, ?, '', ?, ?)`,
		hash, kind, StatusSubmitted, now, now)
	return errors.Wrap(err, "recording submission")
}

// Update sets the outcome of a recorded submission.
func (j *Journal) Update(ctx context.Context, hash, status, detail string) error {
	_, err := j.db.ExecContext(ctx,
		`UPDATE submissions SET status = ?, detail = ?, updated_at = ? WHERE hash = ?`,
		status, detail, time.Now().UTC(), hash)
	return errors.Wrap(err, "updating submission")
}

// Get looks up one submission by hash.
func (j *Journal) Get(ctx context.Context, hash string) (*Entry, error) {
	row := j.db.QueryRowContext(ctx,
		`SELECT hash, kind, status, detail, submitted_at, updated_at FROM submissions WHERE hash = ?`, hash)
	var e Entry
	err := row.Scan(&e.Hash, &e.Kind, &e.Status, &e.Detail, &e.SubmittedAt, &e.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "reading submission")
	}
	return &e, nil
}

// Unresolved lists submissions still awaiting a terminal status, oldest
// first.
func (j *Journal) Unresolved(ctx context.Context) ([]Entry, error) {
	rows, err := j.db.QueryContext(ctx,
		`SELECT hash, kind, status, detail, submitted_at, updated_at FROM submissions
		 WHERE status IN (?, ?) ORDER BY submitted_at`,
		StatusSubmitted, StatusTimeout)
	if err != nil {
		return nil, errors.Wrap(err, "listing unresolved submissions")
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Hash, &e.Kind, &e.Status, &e.Detail, &e.SubmittedAt, &e.UpdatedAt); err != nil {
			return nil, errors.Wrap(err, "scanning submission")
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
