// Copyright 2020 The Moov Authors
// Use of this source code is governed by an Apache License
// license that can be found in the LICENSE file.

// Package digest applies one stored event to a resource's projection. The
// resolver decides the canonical state under the precedence rules for
// out-of-order delivery and retroactive corrections, and the Digester owns
// the store-classify-resolve-project pipeline per event.
package digest

import (
	"time"

	"github.com/moov-io/ledger/pkg/events"
	"github.com/moov-io/ledger/pkg/transactions"
)

// Resolution is the outcome of resolving one event against the current
// projection. A nil Resolution means no projection write is needed.
type Resolution struct {
	Transaction *transactions.Transaction

	StateChanged  bool
	ChangedFields []string
}

// Resolve computes the projection after applying one event. It is a pure
// function over the current projection (nil when the resource is unseen),
// the incoming event, its classification (nil for inert types), and the
// event-store insertion sequence assigned to the event.
//
// State rules, in order:
//   - an inert event never changes state
//   - the first salient event for a resource sets its state
//   - a correction event always overrides the current state, whatever its
//     timestamp, since it re-declares ground truth observed later
//   - once a correction has set the state it stays corrected: normal events
//     never displace it regardless of delivery order or timestamps
//   - a normal event applies only if its event time is not older than the
//     event that set the current state, so a late-arriving stale event can't
//     revert a more advanced state; equal timestamps go to the later-inserted
//     event (the incoming one, which holds the newest sequence)
//
// Recognized payload fields fold into the projection independently of the
// state decision: a later event may add a settlement date without being a
// state transition at all.
func Resolve(current *transactions.Transaction, event *events.Event, cls *events.Classification, seq int64) *Resolution {
	next := current.Clone()
	if next == nil {
		next = &transactions.Transaction{
			ResourceExternalID: event.ResourceExternalID,
			ResourceType:       string(event.ResourceType),
			CreatedAt:          time.Now(),
		}
	}

	changed := foldFields(next, event)

	var stateChanged bool
	if cls != nil && overrides(current, event, cls) {
		if next.State != cls.State {
			stateChanged = true
			changed = append(changed, "state")
		} else if next.StateEventDate != event.EventDate {
			// same state from a newer event: advance provenance so stale
			// events keep comparing against the latest lifecycle progress
			changed = append(changed, "state_provenance")
		}
		next.State = cls.State
		next.StateDetails = stateDetails(event)
		next.StateEventID = event.EventID
		next.StateEventDate = event.EventDate
		next.StateEventSeq = seq
		next.StateCorrected = cls.Correction
	}

	if len(changed) == 0 {
		return nil
	}

	next.LastEventID = event.EventID
	next.EventCount++
	next.LastResolvedAt = time.Now()

	return &Resolution{
		Transaction:   next,
		StateChanged:  stateChanged,
		ChangedFields: changed,
	}
}

// overrides reports whether the event's classified state replaces the
// current one.
func overrides(current *transactions.Transaction, event *events.Event, cls *events.Classification) bool {
	if current == nil || current.State == "" {
		return true
	}
	if cls.Correction {
		// Corrections always win. Between two corrections the later-inserted
		// one wins, and the incoming event is always the latest insertion.
		return true
	}
	if current.StateCorrected {
		// A corrected state is ground truth. Normal lifecycle events can't
		// displace it no matter their timestamps, only another correction.
		return false
	}
	return !event.EventDate.Before(current.StateEventDate)
}

// stateDetails pulls a failure reason out of the event payload. Each
// state-setting event fully replaces previously recorded details.
func stateDetails(event *events.Event) string {
	if v, ok := event.DataString("reason"); ok {
		return v
	}
	if v, ok := event.DataString("code"); ok {
		return v
	}
	return ""
}

// foldFields copies recognized payload values onto the projection and
// returns the names of fields that changed.
func foldFields(next *transactions.Transaction, event *events.Event) []string {
	var changed []string

	setInt64 := func(name string, dst **int64) {
		if v, ok := event.DataInt64(name); ok {
			if *dst == nil || **dst != v {
				*dst = &v
				changed = append(changed, name)
			}
		}
	}
	setString := func(name string, dst **string) {
		if v, ok := event.DataString(name); ok {
			if *dst == nil || **dst != v {
				*dst = &v
				changed = append(changed, name)
			}
		}
	}
	setTime := func(name string, dst **time.Time) {
		if v, ok := event.DataTime(name); ok {
			if *dst == nil || !(*dst).Equal(v) {
				*dst = &v
				changed = append(changed, name)
			}
		}
	}

	setInt64("amount", &next.Amount)
	setInt64("fee", &next.Fee)
	setInt64("net_amount", &next.NetAmount)
	setInt64("total_amount", &next.TotalAmount)

	setString("reference", &next.Reference)
	setString("description", &next.Description)
	setString("email", &next.Email)
	setString("language", &next.Language)
	setString("gateway_transaction_id", &next.GatewayTransactionID)

	setTime("captured_date", &next.CapturedDate)
	setTime("settled_date", &next.SettledDate)

	if v, ok := event.DataBool("delayed_capture"); ok {
		if next.DelayedCapture == nil || *next.DelayedCapture != v {
			next.DelayedCapture = &v
			changed = append(changed, "delayed_capture")
		}
	}

	return changed
}
