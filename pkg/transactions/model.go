// Copyright 2020 The Moov Authors
// Use of this source code is governed by an Apache License
// license that can be found in the LICENSE file.

// Package transactions holds the projected current-state record kept for
// each payment resource. A Transaction row is a cache derived from the
// resource's event history, never an independent source of truth.
package transactions

import (
	"time"
)

// State is the canonical lifecycle state projected for a resource.
type State string

const (
	StateCreated    State = "created"
	StateStarted    State = "started"
	StateSubmitted  State = "submitted"
	StateCapturable State = "capturable"
	StateSuccess    State = "success"
	StateDeclined   State = "declined"
	StateCancelled  State = "cancelled"
	StateExpired    State = "expired"
	StateError      State = "error"

	StateRefundSubmitted State = "refund_submitted"
	StateRefundSuccess   State = "refund_success"
	StateRefundError     State = "refund_error"
)

// Transaction is the projected record for one resource, keyed by the
// external identifier assigned upstream.
//
// Monetary values are integer minor currency units. Optional fields are
// pointers so an absent payload value is distinguishable from a zero.
type Transaction struct {
	ResourceExternalID string `json:"resourceExternalID"`
	ResourceType       string `json:"resourceType"`

	State        State  `json:"state"`
	StateDetails string `json:"stateDetails,omitempty"`

	// Provenance of the current State, used by the resolver to decide if
	// a later event may replace it.
	StateEventID   string    `json:"-"`
	StateEventDate time.Time `json:"-"`
	StateEventSeq  int64     `json:"-"`
	StateCorrected bool      `json:"-"`

	Amount      *int64 `json:"amount,omitempty"`
	Fee         *int64 `json:"fee,omitempty"`
	NetAmount   *int64 `json:"netAmount,omitempty"`
	TotalAmount *int64 `json:"totalAmount,omitempty"`

	Reference            *string `json:"reference,omitempty"`
	Description          *string `json:"description,omitempty"`
	Email                *string `json:"email,omitempty"`
	Language             *string `json:"language,omitempty"`
	GatewayTransactionID *string `json:"gatewayTransactionID,omitempty"`

	CapturedDate   *time.Time `json:"capturedDate,omitempty"`
	SettledDate    *time.Time `json:"settledDate,omitempty"`
	DelayedCapture *bool      `json:"delayedCapture,omitempty"`

	LastEventID    string    `json:"lastEventID"`
	EventCount     int64     `json:"eventCount"`
	CreatedAt      time.Time `json:"createdAt"`
	LastResolvedAt time.Time `json:"lastResolvedAt"`
}

// Clone returns a deep copy so resolution can mutate a candidate record
// without touching the stored projection.
func (t *Transaction) Clone() *Transaction {
	if t == nil {
		return nil
	}
	out := *t
	out.Amount = cloneInt64(t.Amount)
	out.Fee = cloneInt64(t.Fee)
	out.NetAmount = cloneInt64(t.NetAmount)
	out.TotalAmount = cloneInt64(t.TotalAmount)
	out.Reference = cloneString(t.Reference)
	out.Description = cloneString(t.Description)
	out.Email = cloneString(t.Email)
	out.Language = cloneString(t.Language)
	out.GatewayTransactionID = cloneString(t.GatewayTransactionID)
	out.CapturedDate = cloneTime(t.CapturedDate)
	out.SettledDate = cloneTime(t.SettledDate)
	if t.DelayedCapture != nil {
		v := *t.DelayedCapture
		out.DelayedCapture = &v
	}
	return &out
}

func cloneInt64(v *int64) *int64 {
	if v == nil {
		return nil
	}
	vv := *v
	return &vv
}

func cloneString(v *string) *string {
	if v == nil {
		return nil
	}
	vv := *v
	return &vv
}

func cloneTime(v *time.Time) *time.Time {
	if v == nil {
		return nil
	}
	vv := *v
	return &vv
}
