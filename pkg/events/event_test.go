// Copyright 2020 The Moov Authors
// Use of this source code is governed by an Apache License
// license that can be found in the LICENSE file.

package events

import (
	"errors"
	"testing"
	"time"
)

func validEvent() *Event {
	return &Event{
		EventID:            "evt_01e9f2",
		ResourceExternalID: "9np0pslkvcmpnqwdrxdq2cv2g",
		ResourceType:       ResourceTypePayment,
		EventType:          "PAYMENT_CREATED",
		EventDate:          time.Date(2020, time.March, 18, 9, 0, 0, 0, time.UTC),
	}
}

func TestEvent__Validate(t *testing.T) {
	if err := validEvent().Validate(); err != nil {
		t.Fatal(err)
	}

	cases := []struct {
		name  string
		mange func(e *Event)
	}{
		{"missing event id", func(e *Event) { e.EventID = "" }},
		{"missing resource external id", func(e *Event) { e.ResourceExternalID = "" }},
		{"missing event type", func(e *Event) { e.EventType = "" }},
		{"missing timestamp", func(e *Event) { e.EventDate = time.Time{} }},
	}
	for _, tc := range cases {
		event := validEvent()
		tc.mange(event)
		err := event.Validate()
		if err == nil {
			t.Errorf("%s: expected error", tc.name)
			continue
		}
		if !errors.Is(err, ErrMalformed) {
			t.Errorf("%s: got %v", tc.name, err)
		}
	}

	var event *Event
	if err := event.Validate(); !errors.Is(err, ErrMalformed) {
		t.Errorf("nil event: got %v", err)
	}
}

func TestEvent__marshalData(t *testing.T) {
	event := validEvent()
	if data, err := event.marshalData(); err != nil || data != "" {
		t.Errorf("data=%q err=%v", data, err)
	}

	event.EventData = map[string]interface{}{"amount": 1250}
	data, err := event.marshalData()
	if err != nil {
		t.Fatal(err)
	}
	if data != `{"amount":1250}` {
		t.Errorf("data=%q", data)
	}

	payload, err := unmarshalData(data)
	if err != nil {
		t.Fatal(err)
	}
	if v, ok := payload["amount"].(float64); !ok || v != 1250 {
		t.Errorf("payload=%v", payload)
	}

	if payload, err := unmarshalData(""); err != nil || payload != nil {
		t.Errorf("payload=%v err=%v", payload, err)
	}
}
