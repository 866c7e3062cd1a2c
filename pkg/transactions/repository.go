// Copyright 2020 The Moov Authors
// Use of this source code is governed by an Apache License
// license that can be found in the LICENSE file.

package transactions

import (
	"database/sql"
	"fmt"
	"strings"
	"time"
)

type Repository interface {
	Get(resourceExternalID string) (*Transaction, error)
	Upsert(t *Transaction) error

	Search(params SearchParams) ([]*Transaction, error)
}

func NewRepo(db *sql.DB) *sqlRepo {
	return &sqlRepo{db: db}
}

type sqlRepo struct {
	db *sql.DB
}

func (r *sqlRepo) Close() error {
	return r.db.Close()
}

const transactionColumns = `resource_external_id, resource_type, state, state_details, state_event_id, state_event_date, state_event_seq, state_corrected, amount, fee, net_amount, total_amount, reference, description, email, language, gateway_transaction_id, captured_date, settled_date, delayed_capture, last_event_id, event_count, created_at, last_resolved_at`

func (r *sqlRepo) Get(resourceExternalID string) (*Transaction, error) {
	query := fmt.Sprintf(`select %s from transactions where resource_external_id = ? limit 1`, transactionColumns)
	stmt, err := r.db.Prepare(query)
	if err != nil {
		return nil, err
	}
	defer stmt.Close()

	row := stmt.QueryRow(resourceExternalID)
	t, err := scanTransaction(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // not found
		}
		return nil, err
	}
	return t, nil
}

// Upsert writes the projected record for a resource. Callers are expected to
// hold the per-resource serialization scope, so update-then-insert can't race
// with another writer for the same resource.
func (r *sqlRepo) Upsert(t *Transaction) error {
	query := `update transactions set resource_type = ?, state = ?, state_details = ?, state_event_id = ?, state_event_date = ?, state_event_seq = ?, state_corrected = ?, amount = ?, fee = ?, net_amount = ?, total_amount = ?, reference = ?, description = ?, email = ?, language = ?, gateway_transaction_id = ?, captured_date = ?, settled_date = ?, delayed_capture = ?, last_event_id = ?, event_count = ?, last_resolved_at = ? where resource_external_id = ?`
	stmt, err := r.db.Prepare(query)
	if err != nil {
		return fmt.Errorf("upsert transaction: prepare: %v", err)
	}
	defer stmt.Close()

	res, err := stmt.Exec(
		t.ResourceType, t.State, t.StateDetails,
		t.StateEventID, t.StateEventDate, t.StateEventSeq, t.StateCorrected,
		t.Amount, t.Fee, t.NetAmount, t.TotalAmount,
		t.Reference, t.Description, t.Email, t.Language, t.GatewayTransactionID,
		t.CapturedDate, t.SettledDate, t.DelayedCapture,
		t.LastEventID, t.EventCount, t.LastResolvedAt,
		t.ResourceExternalID,
	)
	if err != nil {
		return fmt.Errorf("upsert transaction: update: %v", err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return nil
	}

	query = fmt.Sprintf(`insert into transactions (%s) values (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, transactionColumns)
	stmt, err = r.db.Prepare(query)
	if err != nil {
		return fmt.Errorf("upsert transaction: prepare insert: %v", err)
	}
	defer stmt.Close()

	_, err = stmt.Exec(
		t.ResourceExternalID, t.ResourceType, t.State, t.StateDetails,
		t.StateEventID, t.StateEventDate, t.StateEventSeq, t.StateCorrected,
		t.Amount, t.Fee, t.NetAmount, t.TotalAmount,
		t.Reference, t.Description, t.Email, t.Language, t.GatewayTransactionID,
		t.CapturedDate, t.SettledDate, t.DelayedCapture,
		t.LastEventID, t.EventCount, t.CreatedAt, t.LastResolvedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert transaction: insert: %v", err)
	}
	return nil
}

// SearchParams are the filters accepted when listing transactions.
type SearchParams struct {
	State        State
	ResourceType string
	Reference    string
	Email        string

	StartDate time.Time
	EndDate   time.Time

	Limit  int64
	Offset int64
}

func (r *sqlRepo) Search(params SearchParams) ([]*Transaction, error) {
	var where []string
	var args []interface{}

	if params.State != "" {
		where = append(where, "state = ?")
		args = append(args, params.State)
	}
	if params.ResourceType != "" {
		where = append(where, "resource_type = ?")
		args = append(args, params.ResourceType)
	}
	if params.Reference != "" {
		where = append(where, "reference = ?")
		args = append(args, params.Reference)
	}
	if params.Email != "" {
		where = append(where, "email = ?")
		args = append(args, params.Email)
	}
	if !params.StartDate.IsZero() {
		where = append(where, "created_at >= ?")
		args = append(args, params.StartDate)
	}
	if !params.EndDate.IsZero() {
		where = append(where, "created_at <= ?")
		args = append(args, params.EndDate)
	}

	query := fmt.Sprintf(`select %s from transactions`, transactionColumns)
	if len(where) > 0 {
		query += " where " + strings.Join(where, " and ")
	}
	query += " order by created_at desc limit ? offset ?"
	args = append(args, params.Limit, params.Offset)

	stmt, err := r.db.Prepare(query)
	if err != nil {
		return nil, err
	}
	defer stmt.Close()

	rows, err := stmt.Query(args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanTransaction(row rowScanner) (*Transaction, error) {
	var t Transaction
	var (
		stateDetails         sql.NullString
		stateEventID         sql.NullString
		stateEventDate       sql.NullTime
		stateEventSeq        sql.NullInt64
		stateCorrected       sql.NullBool
		amount               sql.NullInt64
		fee                  sql.NullInt64
		netAmount            sql.NullInt64
		totalAmount          sql.NullInt64
		reference            sql.NullString
		description          sql.NullString
		email                sql.NullString
		language             sql.NullString
		gatewayTransactionID sql.NullString
		capturedDate         sql.NullTime
		settledDate          sql.NullTime
		delayedCapture       sql.NullBool
		state                sql.NullString
	)
	err := row.Scan(
		&t.ResourceExternalID, &t.ResourceType, &state, &stateDetails,
		&stateEventID, &stateEventDate, &stateEventSeq, &stateCorrected,
		&amount, &fee, &netAmount, &totalAmount,
		&reference, &description, &email, &language, &gatewayTransactionID,
		&capturedDate, &settledDate, &delayedCapture,
		&t.LastEventID, &t.EventCount, &t.CreatedAt, &t.LastResolvedAt,
	)
	if err != nil {
		return nil, err
	}

	t.State = State(state.String)
	t.StateDetails = stateDetails.String
	t.StateEventID = stateEventID.String
	if stateEventDate.Valid {
		t.StateEventDate = stateEventDate.Time
	}
	t.StateEventSeq = stateEventSeq.Int64
	t.StateCorrected = stateCorrected.Bool

	if amount.Valid {
		t.Amount = &amount.Int64
	}
	if fee.Valid {
		t.Fee = &fee.Int64
	}
	if netAmount.Valid {
		t.NetAmount = &netAmount.Int64
	}
	if totalAmount.Valid {
		t.TotalAmount = &totalAmount.Int64
	}
	if reference.Valid {
		t.Reference = &reference.String
	}
	if description.Valid {
		t.Description = &description.String
	}
	if email.Valid {
		t.Email = &email.String
	}
	if language.Valid {
		t.Language = &language.String
	}
	if gatewayTransactionID.Valid {
		t.GatewayTransactionID = &gatewayTransactionID.String
	}
	if capturedDate.Valid {
		t.CapturedDate = &capturedDate.Time
	}
	if settledDate.Valid {
		t.SettledDate = &settledDate.Time
	}
	if delayedCapture.Valid {
		t.DelayedCapture = &delayedCapture.Bool
	}
	return &t, nil
}
