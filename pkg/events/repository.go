// Copyright 2020 The Moov Authors
// Use of this source code is governed by an Apache License
// license that can be found in the LICENSE file.

package events

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/moov-io/ledger/pkg/database"

	"github.com/go-kit/kit/log"
)

// RecordResult reports what happened when an event was offered to the store.
//
// Seq is the store-assigned insertion sequence, a monotone total order used
// to break ties between events carrying equal timestamps.
type RecordResult struct {
	Seq       int64
	Duplicate bool
}

type Repository interface {
	Record(event *Event) (*RecordResult, error)

	GetEvent(eventID string) (*Event, error)
	GetResourceEvents(resourceExternalID string) ([]*Event, error)
}

func NewRepo(logger log.Logger, db *sql.DB) *SQLRepository {
	return &SQLRepository{log: logger, db: db}
}

type SQLRepository struct {
	db  *sql.DB
	log log.Logger
}

func (r *SQLRepository) Close() error {
	return r.db.Close()
}

// Record appends the event to the store. Inserting an event_id seen before
// performs no write and reports Duplicate, so redelivered events are no-ops.
func (r *SQLRepository) Record(event *Event) (*RecordResult, error) {
	data, err := event.marshalData()
	if err != nil {
		return nil, err
	}

	query := `insert into events (event_id, resource_external_id, resource_type, event_type, event_date, event_data, inserted_at) values (?, ?, ?, ?, ?, ?, ?)`
	stmt, err := r.db.Prepare(query)
	if err != nil {
		return nil, fmt.Errorf("record event: prepare: %v", err)
	}
	defer stmt.Close()

	res, err := stmt.Exec(event.EventID, event.ResourceExternalID, event.ResourceType, event.EventType, event.EventDate, data, time.Now())
	if err != nil {
		if database.UniqueViolation(err) {
			return &RecordResult{Duplicate: true}, nil
		}
		return nil, fmt.Errorf("record event %s: %v", event.EventID, err)
	}

	seq, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("record event %s: insert id: %v", event.EventID, err)
	}
	return &RecordResult{Seq: seq}, nil
}

func (r *SQLRepository) GetEvent(eventID string) (*Event, error) {
	query := `select event_id, resource_external_id, resource_type, event_type, event_date, event_data from events where event_id = ? limit 1`
	stmt, err := r.db.Prepare(query)
	if err != nil {
		return nil, err
	}
	defer stmt.Close()

	event, err := scanEvent(stmt.QueryRow(eventID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // not found
		}
		return nil, err
	}
	return event, nil
}

// GetResourceEvents returns every stored event for a resource in insertion
// order, which is the order the digester saw them.
func (r *SQLRepository) GetResourceEvents(resourceExternalID string) ([]*Event, error) {
	query := `select event_id, resource_external_id, resource_type, event_type, event_date, event_data from events where resource_external_id = ? order by seq asc`
	stmt, err := r.db.Prepare(query)
	if err != nil {
		return nil, err
	}
	defer stmt.Close()

	rows, err := stmt.Query(resourceExternalID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Event
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, event)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanEvent(row rowScanner) (*Event, error) {
	var event Event
	var data sql.NullString
	if err := row.Scan(&event.EventID, &event.ResourceExternalID, &event.ResourceType, &event.EventType, &event.EventDate, &data); err != nil {
		return nil, err
	}
	payload, err := unmarshalData(data.String)
	if err != nil {
		return nil, fmt.Errorf("event %s: unmarshal data: %v", event.EventID, err)
	}
	event.EventData = payload
	return &event, nil
}
