// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package eventdb stores the events of committed operations in sqlite for filtering.
package eventdb

import (
	"context"
	"database/sql"
	"encoding/json"

	sqlite3 "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"

	"github.com/vechain/stakevault/common"
	"github.com/vechain/stakevault/log"
	"github.com/vechain/stakevault/xenv"
)

var logger = log.WithContext("pkg", "eventdb")

type EventDB struct {
	path          string
	db            *sql.DB
	driverVersion string
}

// New create or open event db at given path.
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
	// an in-memory database lives as long as its only connection
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(eventTableSchema); err != nil {
		return nil, errors.Wrap(err, "create event table")
	}

	driverVer, _, _ := sqlite3.Version()
	logger.Debug("event db opened", "path", path, "sqlite", driverVer)
	return &EventDB{
		path:          path,
		db:            db,
		driverVersion: driverVer,
	}, nil
}

// NewMem create an event db in ram.
func NewMem() (*EventDB, error) {
	return New(":memory:")
}

func (db *EventDB) Close() error {
	return db.db.Close()
}

func (db *EventDB) Path() string {
	return db.path
}

func (db *EventDB) DriverVersion() string {
	return db.driverVersion
}

// Insert stores the events of one block in a single transaction.
func (db *EventDB) Insert(height, time uint64, events []*xenv.Event) (err error) {
	if len(events) == 0 {
		return nil
	}
	tx, err := db.db.Begin()
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	for i, ev := range events {
		attrs, err := json.Marshal(ev.Attributes)
		if err != nil {
			return err
		}
		if _, err := tx.Exec("INSERT INTO event(height, time, eventIndex, contract, type, attrs) VALUES (?, ?, ?, ?, ?, ?);",
			height,
			time,
			i,
			ev.Contract.Bytes(),
			ev.Type,
			string(attrs),
		); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (db *EventDB) FilterEvents(ctx context.Context, filter *Filter) ([]*Event, error) {
	if filter == nil {
		return db.queryEvents(ctx, "SELECT seq, height, time, eventIndex, contract, type, attrs FROM event ORDER BY seq ASC")
	}
	var args []any
	stmt := "SELECT seq, height, time, eventIndex, contract, type, attrs FROM event WHERE 1"
	if filter.Range != nil {
		condition := "height"
		if filter.Range.Unit == Time {
			condition = "time"
		}
		args = append(args, filter.Range.From)
		stmt += " AND " + condition + " >= ? "
		if filter.Range.To >= filter.Range.From {
			args = append(args, filter.Range.To)
			stmt += " AND " + condition + " <= ? "
		}
	}
	for i, criteria := range filter.CriteriaSet {
		if i == 0 {
			stmt += " AND (( 1"
		} else {
			stmt += " OR ( 1"
		}
		if criteria.Contract != nil {
			args = append(args, criteria.Contract.Bytes())
			stmt += " AND contract = ? "
		}
		if criteria.Type != nil {
			args = append(args, *criteria.Type)
			stmt += " AND type = ? "
		}
		stmt += ")"
		if i == len(filter.CriteriaSet)-1 {
			stmt += ")"
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
	return db.queryEvents(ctx, stmt, args...)
}

func (db *EventDB) queryEvents(ctx context.Context, stmt string, args ...any) ([]*Event, error) {
	rows, err := db.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := []*Event{}
	for rows.Next() {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		var (
			ev       Event
			contract []byte
			attrs    sql.NullString
		)
		if err := rows.Scan(
			&ev.Seq,
			&ev.Height,
			&ev.Time,
			&ev.Index,
			&contract,
			&ev.Type,
			&attrs,
		); err != nil {
			return nil, err
		}
		ev.Contract = common.BytesToAddress(contract)
		if attrs.Valid && attrs.String != "" {
			if err := json.Unmarshal([]byte(attrs.String), &ev.Attributes); err != nil {
				return nil, errors.Wrap(err, "decode attributes")
			}
		}
		events = append(events, &ev)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return events, nil
}

// LastHeight returns the height of the newest stored event, or zero.
func (db *EventDB) LastHeight(ctx context.Context) (uint64, error) {
	var height sql.NullInt64
	if err := db.db.QueryRowContext(ctx, "SELECT MAX(height) FROM event").Scan(&height); err != nil {
		return 0, err
	}
	return uint64(height.Int64), nil
}
