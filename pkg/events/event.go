// Copyright 2020 The Moov Authors
// Use of this source code is governed by an Apache License
// license that can be found in the LICENSE file.

// Package events models the lifecycle events emitted by upstream payment
// services and the append-only store they are recorded in. Events are
// immutable once stored and deduplicated by their producer-assigned id.
package events

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ResourceType identifies which kind of payment resource an event is about.
type ResourceType string

const (
	ResourceTypePayment ResourceType = "PAYMENT"
	ResourceTypeRefund  ResourceType = "REFUND"
	ResourceTypePayout  ResourceType = "PAYOUT"
	ResourceTypeDispute ResourceType = "DISPUTE"
)

var (
	// ErrMalformed is returned for events missing required identifying
	// fields. These are rejected permanently since redelivery can't fix a
	// structurally invalid message.
	ErrMalformed = errors.New("malformed event")
)

// Event is one lifecycle event as reported by an upstream service.
//
// EventDate is event-time assigned by the producer, not ingestion time.
// EventData is an opaque payload; the digester only reads the handful of
// recognized fields used for state and field derivation.
type Event struct {
	EventID            string                 `json:"eventID"`
	ResourceExternalID string                 `json:"resourceExternalID"`
	ResourceType       ResourceType           `json:"resourceType"`
	EventType          string                 `json:"eventType"`
	EventDate          time.Time              `json:"eventDate"`
	EventData          map[string]interface{} `json:"eventData,omitempty"`
}

func (e *Event) Validate() error {
	if e == nil {
		return ErrMalformed
	}
	if e.EventID == "" {
		return fmt.Errorf("%w: missing event_id", ErrMalformed)
	}
	if e.ResourceExternalID == "" {
		return fmt.Errorf("%w: missing resource_external_id", ErrMalformed)
	}
	if e.EventType == "" {
		return fmt.Errorf("%w: missing event_type", ErrMalformed)
	}
	if e.EventDate.IsZero() {
		return fmt.Errorf("%w: missing timestamp", ErrMalformed)
	}
	return nil
}

func (e *Event) marshalData() (string, error) {
	if len(e.EventData) == 0 {
		return "", nil
	}
	bs, err := json.Marshal(e.EventData)
	if err != nil {
		return "", fmt.Errorf("event %s: marshal data: %v", e.EventID, err)
	}
	return string(bs), nil
}

func unmarshalData(raw string) (map[string]interface{}, error) {
	if raw == "" {
		return nil, nil
	}
	var out map[string]interface{}
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, err
	}
	return out, nil
}
