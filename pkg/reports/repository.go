// Copyright 2020 The Moov Authors
// Use of this source code is governed by an Apache License
// license that can be found in the LICENSE file.

// Package reports offers aggregate views over the projected transactions:
// counts by state, gross volume summaries, and a daily timeseries. All
// figures come from projections, so they reflect digested events only.
package reports

import (
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// StateCount is how many projections currently sit in one state.
type StateCount struct {
	State string `json:"state"`
	Count int64  `json:"count"`
}

// Summary totals the projections matching a filter. GrossAmount sums
// total_amount (falling back to amount) in minor currency units.
type Summary struct {
	Count       int64 `json:"count"`
	GrossAmount int64 `json:"grossAmount"`
}

// DailyVolume is one day's worth of projected transactions.
type DailyVolume struct {
	Date        string `json:"date"` // YYYY-MM-DD
	Count       int64  `json:"count"`
	GrossAmount int64  `json:"grossAmount"`
}

// Params filter report queries. Zero time values mean unbounded.
type Params struct {
	ResourceType string
	From         time.Time
	To           time.Time
}

type Repository interface {
	CountsByState(params Params) ([]StateCount, error)
	Summarize(params Params) (*Summary, error)
	DailyVolume(params Params) ([]DailyVolume, error)
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

// grossAmount prefers the settled total when present since it includes fees.
const grossAmount = `coalesce(total_amount, amount, 0)`

func (r *sqlRepo) CountsByState(params Params) ([]StateCount, error) {
	where, args := buildWhere(params)
	query := fmt.Sprintf(`select state, count(*) from transactions %s group by state order by state asc`, where)

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("counts by state: %v", err)
	}
	defer rows.Close()

	var out []StateCount
	for rows.Next() {
		var sc StateCount
		if err := rows.Scan(&sc.State, &sc.Count); err != nil {
			return nil, err
		}
		out = append(out, sc)
	}
	return out, rows.Err()
}

func (r *sqlRepo) Summarize(params Params) (*Summary, error) {
	where, args := buildWhere(params)
	query := fmt.Sprintf(`select count(*), coalesce(sum(%s), 0) from transactions %s`, grossAmount, where)

	var summary Summary
	if err := r.db.QueryRow(query, args...).Scan(&summary.Count, &summary.GrossAmount); err != nil {
		return nil, fmt.Errorf("summarize: %v", err)
	}
	return &summary, nil
}

func (r *sqlRepo) DailyVolume(params Params) ([]DailyVolume, error) {
	where, args := buildWhere(params)
	query := fmt.Sprintf(`select date(created_at), count(*), coalesce(sum(%s), 0) from transactions %s group by date(created_at) order by date(created_at) asc`, grossAmount, where)

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("daily volume: %v", err)
	}
	defer rows.Close()

	var out []DailyVolume
	for rows.Next() {
		var dv DailyVolume
		if err := rows.Scan(&dv.Date, &dv.Count, &dv.GrossAmount); err != nil {
			return nil, err
		}
		out = append(out, dv)
	}
	return out, rows.Err()
}

func buildWhere(params Params) (string, []interface{}) {
	var clauses []string
	var args []interface{}

	if params.ResourceType != "" {
		clauses = append(clauses, "resource_type = ?")
		args = append(args, params.ResourceType)
	}
	if !params.From.IsZero() {
		clauses = append(clauses, "created_at >= ?")
		args = append(args, params.From)
	}
	if !params.To.IsZero() {
		clauses = append(clauses, "created_at < ?")
		args = append(args, params.To)
	}
	if len(clauses) == 0 {
		return "", nil
	}
	return "where " + strings.Join(clauses, " and "), args
}
