// Package audit provides a SQLite-backed trail of authorization decisions.
// Every privileged command attempt is recorded with the caller id and the
// gate's decision; command arguments and secret values are never stored.
package audit

import (
	"context"
	"database/sql"
	"time"

	// database/sql SQLite driver
	_ "github.com/mattn/go-sqlite3"
)

// Decision values recorded per event.
const (
	DecisionAllow = "allow"
	DecisionDeny  = "deny"
)

// Event is one recorded authorization decision.
type Event struct {
	ID       int64
	At       time.Time
	Actor    int64
	Command  string
	Decision string
}

// Log implements an append-only audit trail over database/sql. It is safe
// for concurrent use; database/sql manages connection pooling.
type Log struct{ db *sql.DB }

// New constructs a Log, initializing the required schema if absent.
func New(db *sql.DB) (*Log, error) {
	l := &Log{db: db}
	if err := l.init(); err != nil {
		return nil, err
	}
	return l, nil
}

func (l *Log) init() error {
	schema := `CREATE TABLE IF NOT EXISTS audit_events (
id INTEGER PRIMARY KEY AUTOINCREMENT,
at INTEGER NOT NULL,
actor INTEGER NOT NULL,
command TEXT NOT NULL,
decision TEXT NOT NULL
);`
	_, err := l.db.Exec(schema)
	return err
}

// Record appends one decision row.
func (l *Log) Record(ctx context.Context, actor int64, command, decision string) error {
	const q = `INSERT INTO audit_events (at, actor, command, decision) VALUES (?,?,?,?)`
	_, err := l.db.ExecContext(ctx, q, time.Now().UTC().Unix(), actor, command, decision)
	return err
}

// Recent returns up to n most recent events, newest first.
func (l *Log) Recent(ctx context.Context, n int) ([]Event, error) {
	const q = `SELECT id, at, actor, command, decision FROM audit_events ORDER BY id DESC LIMIT ?`
	rows, err := l.db.QueryContext(ctx, q, n)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Event
	for rows.Next() {
		var e Event
		var atUnix int64
		if err = rows.Scan(&e.ID, &atUnix, &e.Actor, &e.Command, &e.Decision); err != nil {
			return nil, err
		}
		e.At = time.Unix(atUnix, 0).UTC()
		out = append(out, e)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
