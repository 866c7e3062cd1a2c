// Copyright 2020 The Moov Authors
// Use of this source code is governed by an Apache License
// license that can be found in the LICENSE file.

package reports

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/moov-io/ledger/pkg/config"

	"github.com/go-kit/kit/log"
)

func TestScheduler__disabled(t *testing.T) {
	s, err := NewScheduler(log.NewNopLogger(), config.Reports{}, &mockRepository{})
	if err != nil {
		t.Fatal(err)
	}
	if s != nil {
		t.Errorf("expected nil scheduler, got %#v", s)
	}

	// nil receivers are no-ops so callers don't need to branch
	if err := s.Start(); err != nil {
		t.Fatal(err)
	}
	s.Stop()
}

func TestScheduler__Snapshot(t *testing.T) {
	dir, err := ioutil.TempDir("", "ledger-reports")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dir)

	repo := &mockRepository{
		counts: []StateCount{
			{State: "success", Count: 2},
			{State: "declined", Count: 1},
		},
		volume: []DailyVolume{
			{Date: "2020-03-18", Count: 2, GrossAmount: 3035},
			{Date: "2020-03-19", Count: 1, GrossAmount: 500},
		},
	}
	s, err := NewScheduler(log.NewNopLogger(), config.Reports{Directory: dir}, repo)
	if err != nil {
		t.Fatal(err)
	}

	when := time.Date(2020, time.March, 20, 0, 0, 0, 0, time.UTC)
	if err := s.Snapshot(when); err != nil {
		t.Fatal(err)
	}

	bs, err := ioutil.ReadFile(filepath.Join(dir, "states-2020-03-20.csv"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(bs), "success,2") {
		t.Errorf("states csv:\n%s", string(bs))
	}

	bs, err = ioutil.ReadFile(filepath.Join(dir, "volume-2020-03-20.csv"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(bs), "2020-03-18,2,3035") {
		t.Errorf("volume csv:\n%s", string(bs))
	}
}

func TestScheduler__badSchedule(t *testing.T) {
	dir, err := ioutil.TempDir("", "ledger-reports")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dir)

	s, err := NewScheduler(log.NewNopLogger(), config.Reports{Directory: dir, Schedule: "not a cron expr"}, &mockRepository{})
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Start(); err == nil {
		t.Error("expected error")
	}
	s.Stop()
}
