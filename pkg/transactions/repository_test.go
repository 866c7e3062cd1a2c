// Copyright 2020 The Moov Authors
// Use of this source code is governed by an Apache License
// license that can be found in the LICENSE file.

package transactions

import (
	"fmt"
	"testing"
	"time"

	"github.com/moov-io/ledger/pkg/database"
)

func testTransaction(resourceExternalID string) *Transaction {
	amount := int64(1250)
	reference := "order-4411"
	return &Transaction{
		ResourceExternalID: resourceExternalID,
		ResourceType:       "PAYMENT",
		State:              StateCreated,
		StateEventID:       "evt_01e9f2",
		StateEventDate:     time.Date(2020, time.March, 18, 9, 0, 0, 0, time.UTC),
		StateEventSeq:      1,
		Amount:             &amount,
		Reference:          &reference,
		LastEventID:        "evt_01e9f2",
		EventCount:         1,
		CreatedAt:          time.Date(2020, time.March, 18, 9, 0, 0, 0, time.UTC),
		LastResolvedAt:     time.Date(2020, time.March, 18, 9, 0, 0, 0, time.UTC),
	}
}

func TestRepository__GetMissing(t *testing.T) {
	db := database.CreateTestSqliteDB(t)
	defer db.Close()

	repo := NewRepo(db.DB)
	tx, err := repo.Get("does-not-exist")
	if err != nil {
		t.Fatal(err)
	}
	if tx != nil {
		t.Errorf("tx=%#v", tx)
	}
}

func TestRepository__UpsertInsertsThenUpdates(t *testing.T) {
	db := database.CreateTestSqliteDB(t)
	defer db.Close()

	repo := NewRepo(db.DB)

	tx := testTransaction("payment-1")
	if err := repo.Upsert(tx); err != nil {
		t.Fatal(err)
	}

	found, err := repo.Get("payment-1")
	if err != nil {
		t.Fatal(err)
	}
	if found == nil {
		t.Fatal("expected transaction")
	}
	if found.State != StateCreated {
		t.Errorf("state=%s", found.State)
	}
	if found.Amount == nil || *found.Amount != 1250 {
		t.Errorf("amount=%v", found.Amount)
	}
	if found.Reference == nil || *found.Reference != "order-4411" {
		t.Errorf("reference=%v", found.Reference)
	}
	if found.Fee != nil || found.Email != nil || found.SettledDate != nil {
		t.Errorf("unset fields came back: %#v", found)
	}

	// advance the projection
	tx = found
	tx.State = StateSuccess
	tx.StateEventID = "evt_01e9f3"
	tx.StateEventSeq = 2
	fee := int64(35)
	tx.Fee = &fee
	tx.EventCount = 2
	if err := repo.Upsert(tx); err != nil {
		t.Fatal(err)
	}

	found, err = repo.Get("payment-1")
	if err != nil {
		t.Fatal(err)
	}
	if found.State != StateSuccess || found.EventCount != 2 {
		t.Errorf("found=%#v", found)
	}
	if found.Fee == nil || *found.Fee != 35 {
		t.Errorf("fee=%v", found.Fee)
	}
	if found.StateEventSeq != 2 {
		t.Errorf("stateEventSeq=%d", found.StateEventSeq)
	}
}

func TestRepository__provenanceRoundTrips(t *testing.T) {
	db := database.CreateTestSqliteDB(t)
	defer db.Close()

	repo := NewRepo(db.DB)

	tx := testTransaction("payment-1")
	tx.StateCorrected = true
	tx.StateDetails = "gateway reported declined authorisation"
	if err := repo.Upsert(tx); err != nil {
		t.Fatal(err)
	}

	found, err := repo.Get("payment-1")
	if err != nil {
		t.Fatal(err)
	}
	if !found.StateCorrected {
		t.Error("expected StateCorrected")
	}
	if found.StateDetails != "gateway reported declined authorisation" {
		t.Errorf("stateDetails=%q", found.StateDetails)
	}
	if !found.StateEventDate.Equal(tx.StateEventDate) {
		t.Errorf("stateEventDate=%v", found.StateEventDate)
	}
}

func TestRepository__Search(t *testing.T) {
	db := database.CreateTestSqliteDB(t)
	defer db.Close()

	repo := NewRepo(db.DB)

	for i := 0; i < 3; i++ {
		tx := testTransaction(fmt.Sprintf("payment-%d", i))
		tx.CreatedAt = time.Date(2020, time.March, 18+i, 9, 0, 0, 0, time.UTC)
		if i == 2 {
			tx.State = StateSuccess
			email := "jane@example.com"
			tx.Email = &email
		}
		if err := repo.Upsert(tx); err != nil {
			t.Fatal(err)
		}
	}

	found, err := repo.Search(SearchParams{Limit: 10})
	if err != nil {
		t.Fatal(err)
	}
	if len(found) != 3 {
		t.Fatalf("found %d", len(found))
	}
	// newest first
	if found[0].ResourceExternalID != "payment-2" {
		t.Errorf("first=%s", found[0].ResourceExternalID)
	}

	found, err = repo.Search(SearchParams{State: StateSuccess, Limit: 10})
	if err != nil {
		t.Fatal(err)
	}
	if len(found) != 1 || found[0].ResourceExternalID != "payment-2" {
		t.Errorf("found=%v", found)
	}

	found, err = repo.Search(SearchParams{Email: "jane@example.com", Limit: 10})
	if err != nil {
		t.Fatal(err)
	}
	if len(found) != 1 {
		t.Errorf("found=%v", found)
	}

	found, err = repo.Search(SearchParams{
		StartDate: time.Date(2020, time.March, 19, 0, 0, 0, 0, time.UTC),
		Limit:     10,
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(found) != 2 {
		t.Errorf("found %d", len(found))
	}

	found, err = repo.Search(SearchParams{Limit: 2, Offset: 2})
	if err != nil {
		t.Fatal(err)
	}
	if len(found) != 1 || found[0].ResourceExternalID != "payment-0" {
		t.Errorf("found=%v", found)
	}
}
