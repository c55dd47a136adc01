// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package eventlog keeps the history of staking operations in sqlite.
package eventlog

import (
	"context"
	"database/sql"
	"math/big"
	"strings"

	sqlite3 "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"

	"github.com/vechain/stakepool/thor"
)

type EventLog struct {
	path          string
	db            *sql.DB
	driverVersion string
}

// New creates or opens the event log at the given path.
func New(path string) (log *EventLog, err error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if log == nil {
			db.Close()
		}
	}()
	// an in-memory database lives as long as its connection
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}
	if _, err := db.Exec(eventTableSchema); err != nil {
		return nil, errors.Wrap(err, "create schema")
	}

	driverVer, _, _ := sqlite3.Version()
	return &EventLog{
		path:          path,
		db:            db,
		driverVersion: driverVer,
	}, nil
}

// NewMem creates an event log in ram.
func NewMem() (*EventLog, error) {
	return New(":memory:")
}

func (l *EventLog) Close() error {
	return l.db.Close()
}

func (l *EventLog) Path() string {
	return l.path
}

func (l *EventLog) DriverVersion() string {
	return l.driverVersion
}

// Append stores events in one transaction and assigns their sequence numbers.
func (l *EventLog) Append(ctx context.Context, events ...*Event) error {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	for _, ev := range events {
		res, err := tx.ExecContext(ctx,
			"INSERT INTO event(campaign, account, kind, day, amount, time) VALUES (?, ?, ?, ?, ?, ?);",
			ev.Campaign.Bytes(),
			ev.Account.Bytes(),
			string(ev.Kind),
			ev.Day,
			new(big.Int).SetUint64(ev.Amount).Bytes(),
			ev.Time,
		)
		if err != nil {
			tx.Rollback()
			return errors.Wrap(err, "insert event")
		}
		seq, err := res.LastInsertId()
		if err != nil {
			tx.Rollback()
			return err
		}
		ev.Seq = uint64(seq)
	}
	return tx.Commit()
}

// Filter queries events matching the filter, ordered by sequence.
func (l *EventLog) Filter(ctx context.Context, filter *Filter) ([]*Event, error) {
	const query = "SELECT seq, campaign, account, kind, day, amount, time FROM event WHERE 1"
	if filter == nil {
		return l.query(ctx, query+" ORDER BY seq ASC")
	}

	var (
		stmt strings.Builder
		args []any
	)
	stmt.WriteString(query)
	if filter.Campaign != nil {
		stmt.WriteString(" AND campaign = ?")
		args = append(args, filter.Campaign.Bytes())
	}
	if filter.Account != nil {
		stmt.WriteString(" AND account = ?")
		args = append(args, filter.Account.Bytes())
	}
	if len(filter.Kinds) > 0 {
		stmt.WriteString(" AND kind IN (?" + strings.Repeat(", ?", len(filter.Kinds)-1) + ")")
		for _, k := range filter.Kinds {
			args = append(args, string(k))
		}
	}
	if filter.Range != nil {
		stmt.WriteString(" AND day >= ?")
		args = append(args, filter.Range.From)
		if filter.Range.To >= filter.Range.From {
			stmt.WriteString(" AND day <= ?")
			args = append(args, filter.Range.To)
		}
	}
	if filter.Order == DESC {
		stmt.WriteString(" ORDER BY seq DESC")
	} else {
		stmt.WriteString(" ORDER BY seq ASC")
	}
	if filter.Options != nil {
		stmt.WriteString(" LIMIT ?, ?")
		args = append(args, filter.Options.Offset, filter.Options.Limit)
	}
	return l.query(ctx, stmt.String(), args...)
}

func (l *EventLog) query(ctx context.Context, stmt string, args ...any) ([]*Event, error) {
	rows, err := l.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []*Event
	for rows.Next() {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		var (
			campaign, account []byte
			kind              string
			amount            []byte
			seq, day, evTime  uint64
		)
		if err := rows.Scan(&seq, &campaign, &account, &kind, &day, &amount, &evTime); err != nil {
			return nil, err
		}
		events = append(events, &Event{
			Seq:      seq,
			Campaign: thor.BytesToAddress(campaign),
			Account:  thor.BytesToAddress(account),
			Kind:     Kind(kind),
			Day:      day,
			Amount:   new(big.Int).SetBytes(amount).Uint64(),
			Time:     evTime,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return events, nil
}
