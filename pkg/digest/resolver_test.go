// Copyright 2020 The Moov Authors
// Use of this source code is governed by an Apache License
// license that can be found in the LICENSE file.

package digest

import (
	"testing"
	"time"

	"github.com/moov-io/ledger/pkg/events"
	"github.com/moov-io/ledger/pkg/transactions"
)

var (
	t0 = time.Date(2020, time.March, 18, 9, 0, 0, 0, time.UTC)
)

func makeEvent(eventType string, date time.Time, data map[string]interface{}) *events.Event {
	return &events.Event{
		EventID:            "evt_" + eventType + date.Format("150405"),
		ResourceExternalID: "9np0pslkvcmpnqwdrxdq2cv2g",
		ResourceType:       events.ResourceTypePayment,
		EventType:          eventType,
		EventDate:          date,
		EventData:          data,
	}
}

func classify(t *testing.T, eventType string) *events.Classification {
	t.Helper()
	cls, ok := events.Classify(eventType)
	if !ok {
		t.Fatalf("expected %s to be salient", eventType)
	}
	return cls
}

func TestResolve__firstEvent(t *testing.T) {
	event := makeEvent("PAYMENT_CREATED", t0, map[string]interface{}{
		"amount":    float64(1250),
		"reference": "order-4411",
	})
	res := Resolve(nil, event, classify(t, "PAYMENT_CREATED"), 1)
	if res == nil {
		t.Fatal("expected a resolution")
	}
	if !res.StateChanged {
		t.Error("expected a state change")
	}
	tx := res.Transaction
	if tx.State != transactions.StateCreated {
		t.Errorf("state=%s", tx.State)
	}
	if tx.ResourceExternalID != event.ResourceExternalID {
		t.Errorf("resourceExternalID=%s", tx.ResourceExternalID)
	}
	if tx.Amount == nil || *tx.Amount != 1250 {
		t.Errorf("amount=%v", tx.Amount)
	}
	if tx.Reference == nil || *tx.Reference != "order-4411" {
		t.Errorf("reference=%v", tx.Reference)
	}
	if tx.StateEventSeq != 1 {
		t.Errorf("stateEventSeq=%d", tx.StateEventSeq)
	}
	if tx.EventCount != 1 {
		t.Errorf("eventCount=%d", tx.EventCount)
	}
}

func TestResolve__staleEventDoesNotRevertState(t *testing.T) {
	capture := makeEvent("CAPTURE_CONFIRMED", t0.Add(10*time.Minute), nil)
	res := Resolve(nil, capture, classify(t, "CAPTURE_CONFIRMED"), 1)
	if res == nil || res.Transaction.State != transactions.StateSuccess {
		t.Fatalf("res=%#v", res)
	}
	current := res.Transaction

	// PAYMENT_CREATED delivered late, with an earlier event time
	created := makeEvent("PAYMENT_CREATED", t0, map[string]interface{}{"amount": float64(1250)})
	res = Resolve(current, created, classify(t, "PAYMENT_CREATED"), 2)
	if res == nil {
		t.Fatal("stale event still folds fields, expected a resolution")
	}
	if res.StateChanged {
		t.Error("stale event must not change state")
	}
	if res.Transaction.State != transactions.StateSuccess {
		t.Errorf("state=%s", res.Transaction.State)
	}
	if res.Transaction.Amount == nil || *res.Transaction.Amount != 1250 {
		t.Errorf("amount=%v, field folding is independent of the state decision", res.Transaction.Amount)
	}
}

func TestResolve__correctionOverridesNewerState(t *testing.T) {
	capture := makeEvent("CAPTURE_CONFIRMED", t0.Add(10*time.Minute), nil)
	current := Resolve(nil, capture, classify(t, "CAPTURE_CONFIRMED"), 1).Transaction

	// correction carries an older event time but still wins
	correction := makeEvent("STATUS_CORRECTED_TO_AUTHORISATION_ERROR_TO_MATCH_GATEWAY_STATUS", t0, map[string]interface{}{
		"reason": "gateway reported declined authorisation",
	})
	res := Resolve(current, correction, classify(t, correction.EventType), 2)
	if res == nil || !res.StateChanged {
		t.Fatalf("res=%#v", res)
	}
	if res.Transaction.State != transactions.StateError {
		t.Errorf("state=%s", res.Transaction.State)
	}
	if !res.Transaction.StateCorrected {
		t.Error("expected StateCorrected")
	}
	if res.Transaction.StateDetails != "gateway reported declined authorisation" {
		t.Errorf("stateDetails=%q", res.Transaction.StateDetails)
	}
}

func TestResolve__correctedStateStaysPut(t *testing.T) {
	correction := makeEvent("STATUS_CORRECTED_TO_AUTHORISATION_ERROR_TO_MATCH_GATEWAY_STATUS", t0, nil)
	current := Resolve(nil, correction, classify(t, correction.EventType), 1).Transaction

	// a normal event with a newer timestamp still can't displace a correction
	capture := makeEvent("CAPTURE_CONFIRMED", t0.Add(10*time.Minute), nil)
	res := Resolve(current, capture, classify(t, "CAPTURE_CONFIRMED"), 2)
	if res != nil {
		t.Fatalf("res=%#v", res)
	}
}

func TestResolve__correctionBeatsCorrection(t *testing.T) {
	first := makeEvent("STATUS_CORRECTED_TO_AUTHORISATION_ERROR_TO_MATCH_GATEWAY_STATUS", t0, nil)
	current := Resolve(nil, first, classify(t, first.EventType), 1).Transaction

	second := makeEvent("STATUS_CORRECTED_TO_CAPTURED_TO_MATCH_GATEWAY_STATUS", t0.Add(-time.Hour), nil)
	res := Resolve(current, second, classify(t, second.EventType), 2)
	if res == nil || !res.StateChanged {
		t.Fatalf("res=%#v", res)
	}
	if res.Transaction.State != transactions.StateSuccess {
		t.Errorf("later-recorded correction must win, state=%s", res.Transaction.State)
	}
}

func TestResolve__equalTimestampsIncomingWins(t *testing.T) {
	started := makeEvent("PAYMENT_STARTED", t0, nil)
	current := Resolve(nil, started, classify(t, "PAYMENT_STARTED"), 1).Transaction

	approved := makeEvent("USER_APPROVED_FOR_CAPTURE", t0, nil)
	res := Resolve(current, approved, classify(t, "USER_APPROVED_FOR_CAPTURE"), 2)
	if res == nil || !res.StateChanged {
		t.Fatalf("res=%#v", res)
	}
	if res.Transaction.State != transactions.StateCapturable {
		t.Errorf("state=%s", res.Transaction.State)
	}
}

func TestResolve__inertEventFoldsFields(t *testing.T) {
	created := makeEvent("PAYMENT_CREATED", t0, nil)
	current := Resolve(nil, created, classify(t, "PAYMENT_CREATED"), 1).Transaction

	details := makeEvent("PAYMENT_DETAILS_ENTERED", t0.Add(time.Minute), map[string]interface{}{
		"email":                  "jane@example.com",
		"gateway_transaction_id": "gw-100392",
	})
	res := Resolve(current, details, nil, 2)
	if res == nil {
		t.Fatal("expected a resolution")
	}
	if res.StateChanged {
		t.Error("inert event must not change state")
	}
	if res.Transaction.State != transactions.StateCreated {
		t.Errorf("state=%s", res.Transaction.State)
	}
	if res.Transaction.Email == nil || *res.Transaction.Email != "jane@example.com" {
		t.Errorf("email=%v", res.Transaction.Email)
	}
}

func TestResolve__nothingChanged(t *testing.T) {
	created := makeEvent("PAYMENT_CREATED", t0, nil)
	current := Resolve(nil, created, classify(t, "PAYMENT_CREATED"), 1).Transaction

	inert := makeEvent("SOME_UNRECOGNIZED_EVENT", t0.Add(time.Minute), map[string]interface{}{
		"unused": "value",
	})
	if res := Resolve(current, inert, nil, 2); res != nil {
		t.Errorf("expected nil resolution, got %#v", res)
	}
}

func TestResolve__doesNotMutateCurrent(t *testing.T) {
	created := makeEvent("PAYMENT_CREATED", t0, map[string]interface{}{"amount": float64(100)})
	current := Resolve(nil, created, classify(t, "PAYMENT_CREATED"), 1).Transaction

	update := makeEvent("CAPTURE_CONFIRMED", t0.Add(time.Minute), map[string]interface{}{"amount": float64(250)})
	res := Resolve(current, update, classify(t, "CAPTURE_CONFIRMED"), 2)
	if res == nil {
		t.Fatal("expected a resolution")
	}
	if *current.Amount != 100 {
		t.Errorf("current mutated: amount=%d", *current.Amount)
	}
	if current.State != transactions.StateCreated {
		t.Errorf("current mutated: state=%s", current.State)
	}
	if *res.Transaction.Amount != 250 {
		t.Errorf("amount=%d", *res.Transaction.Amount)
	}
}

func TestResolve__settlementFields(t *testing.T) {
	capture := makeEvent("CAPTURE_CONFIRMED", t0, map[string]interface{}{
		"fee":          float64(35),
		"net_amount":   float64(1215),
		"settled_date": "2020-03-20",
	})
	res := Resolve(nil, capture, classify(t, "CAPTURE_CONFIRMED"), 1)
	if res == nil {
		t.Fatal("expected a resolution")
	}
	tx := res.Transaction
	if tx.Fee == nil || *tx.Fee != 35 {
		t.Errorf("fee=%v", tx.Fee)
	}
	if tx.NetAmount == nil || *tx.NetAmount != 1215 {
		t.Errorf("netAmount=%v", tx.NetAmount)
	}
	if tx.SettledDate == nil || tx.SettledDate.Format("2006-01-02") != "2020-03-20" {
		t.Errorf("settledDate=%v", tx.SettledDate)
	}
}
