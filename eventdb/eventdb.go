// Copyright (c) 2025 The Soulstake developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package eventdb

import (
	"context"
	"database/sql"
	"math/big"

	_ "github.com/mattn/go-sqlite3" // sqlite3 driver
	"github.com/pkg/errors"

	"github.com/soulstake/soulstake/soul"
)

const eventTableSchema = `CREATE TABLE IF NOT EXISTS event (
	seq INTEGER PRIMARY KEY AUTOINCREMENT,
	time INTEGER NOT NULL,
	kind TEXT NOT NULL,
	user BLOB(20) NOT NULL,
	collection BLOB(20),
	tokenID INTEGER,
	taskID BLOB(32),
	amount TEXT,
	score TEXT,
	success INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS event_i0 ON event(kind);
CREATE INDEX IF NOT EXISTS event_i1 ON event(user);
CREATE INDEX IF NOT EXISTS event_i2 ON event(time);`

// EventDB is the sqlite-backed audit trail of engine operations.
type EventDB struct {
	path string
	db   *sql.DB
}

// New creates or opens the event db at the given path.
func New(path string) (eventDB *EventDB, err error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if eventDB == nil {
			db.Close()
		}
	}()
	if _, err := db.Exec(eventTableSchema); err != nil {
		return nil, err
	}
	return &EventDB{path, db}, nil
}

// NewMem creates an event db in ram.
func NewMem() (*EventDB, error) {
	return New(":memory:")
}

// Close closes the event db.
func (db *EventDB) Close() error {
	return db.db.Close()
}

func (db *EventDB) Path() string {
	return db.path
}

// Insert appends an event in its own transaction and fills in its sequence.
func (db *EventDB) Insert(ev *Event) error {
	tx, err := db.db.Begin()
	if err != nil {
		return errors.Wrap(err, "failed to begin tx")
	}
	res, err := tx.Exec(
		"INSERT INTO event(time, kind, user, collection, tokenID, taskID, amount, score, success) VALUES(?,?,?,?,?,?,?,?,?)",
		ev.Time,
		string(ev.Kind),
		ev.User.Bytes(),
		ev.Collection.Bytes(),
		ev.TokenID,
		ev.TaskID.Bytes(),
		bigToText(ev.Amount),
		bigToText(ev.Score),
		boolToInt(ev.Success),
	)
	if err != nil {
		tx.Rollback()
		return errors.Wrap(err, "failed to insert event")
	}
	seq, err := res.LastInsertId()
	if err != nil {
		tx.Rollback()
		return errors.Wrap(err, "failed to get event seq")
	}
	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "failed to commit event")
	}
	ev.Seq = uint64(seq)
	return nil
}

// Filter queries events matching the filter. A nil filter returns everything
// in insertion order.
func (db *EventDB) Filter(ctx context.Context, filter *Filter) ([]*Event, error) {
	if filter == nil {
		return db.query(ctx, "SELECT * FROM event ORDER BY seq ASC")
	}
	var args []any
	stmt := "SELECT * FROM event WHERE 1"
	if filter.Kind != "" {
		args = append(args, string(filter.Kind))
		stmt += " AND kind = ? "
	}
	if filter.User != nil {
		args = append(args, filter.User.Bytes())
		stmt += " AND user = ? "
	}
	if filter.Range != nil {
		args = append(args, filter.Range.From)
		stmt += " AND time >= ? "
		if filter.Range.To >= filter.Range.From {
			args = append(args, filter.Range.To)
			stmt += " AND time <= ? "
		}
	}

	if filter.Order == DESC {
		stmt += " ORDER BY seq DESC "
	} else {
		stmt += " ORDER BY seq ASC "
	}

	if filter.Options != nil {
		stmt += " limit ?, ? "
		args = append(args, filter.Options.Offset, filter.Options.Limit)
	}
	return db.query(ctx, stmt, args...)
}

func (db *EventDB) query(ctx context.Context, stmt string, args ...any) ([]*Event, error) {
	rows, err := db.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query events")
	}
	defer rows.Close()

	var events []*Event
	for rows.Next() {
		var (
			ev         Event
			kind       string
			user       []byte
			collection []byte
			taskID     []byte
			amount     sql.NullString
			score      sql.NullString
			success    int
		)
		if err := rows.Scan(
			&ev.Seq,
			&ev.Time,
			&kind,
			&user,
			&collection,
			&ev.TokenID,
			&taskID,
			&amount,
			&score,
			&success,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan event")
		}
		ev.Kind = Kind(kind)
		ev.User = soul.BytesToAddress(user)
		ev.Collection = soul.BytesToAddress(collection)
		ev.TaskID = soul.BytesToBytes32(taskID)
		ev.Amount = textToBig(amount)
		ev.Score = textToBig(score)
		ev.Success = success != 0
		events = append(events, &ev)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate events")
	}
	return events, nil
}

// big.Int columns are stored as decimal text; sqlite integers top out at
// int64 while balances do not.
func bigToText(v *big.Int) any {
	if v == nil {
		return nil
	}
	return v.String()
}

func textToBig(v sql.NullString) *big.Int {
	if !v.Valid {
		return nil
	}
	b, ok := new(big.Int).SetString(v.String, 10)
	if !ok {
		return nil
	}
	return b
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}
