// Copyright 2020 The Moov Authors
// Use of this source code is governed by an Apache License
// license that can be found in the LICENSE file.

package reports

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/moov-io/ledger/pkg/config"

	"github.com/go-kit/kit/log"
	"github.com/robfig/cron/v3"
)

// Scheduler writes periodic report snapshots to a local directory. Each run
// produces a state-count file and a daily volume file stamped with the run
// date, so operators keep a history without querying the HTTP endpoints.
type Scheduler struct {
	logger log.Logger
	repo   Repository

	dir      string
	schedule string

	cron *cron.Cron
}

// NewScheduler sets up snapshot generation from config. A nil Scheduler is
// returned when no reports directory is configured.
func NewScheduler(logger log.Logger, cfg config.Reports, repo Repository) (*Scheduler, error) {
	if cfg.Directory == "" {
		return nil, nil
	}
	if err := os.MkdirAll(cfg.Directory, 0777); err != nil {
		return nil, fmt.Errorf("reports: %v", err)
	}
	return &Scheduler{
		logger:   logger,
		repo:     repo,
		dir:      cfg.Directory,
		schedule: cfg.GetSchedule(),
		cron:     cron.New(),
	}, nil
}

func (s *Scheduler) Start() error {
	if s == nil {
		return nil
	}
	_, err := s.cron.AddFunc(s.schedule, func() {
		if err := s.Snapshot(time.Now()); err != nil {
			s.logger.Log("reports", fmt.Sprintf("snapshot: %v", err))
		}
	})
	if err != nil {
		return fmt.Errorf("reports: schedule %q: %v", s.schedule, err)
	}
	s.cron.Start()
	s.logger.Log("reports", fmt.Sprintf("writing snapshots to %s on schedule %q", s.dir, s.schedule))
	return nil
}

func (s *Scheduler) Stop() {
	if s == nil {
		return
	}
	s.cron.Stop()
}

// Snapshot writes report files for the given run time.
func (s *Scheduler) Snapshot(when time.Time) error {
	stamp := when.Format("2006-01-02")

	counts, err := s.repo.CountsByState(Params{})
	if err != nil {
		return err
	}
	countRows := [][]string{{"State", "Count"}}
	for i := range counts {
		countRows = append(countRows, []string{counts[i].State, strconv.FormatInt(counts[i].Count, 10)})
	}
	if err := s.writeFile(fmt.Sprintf("states-%s.csv", stamp), countRows); err != nil {
		return err
	}

	volume, err := s.repo.DailyVolume(Params{})
	if err != nil {
		return err
	}
	volumeRows := [][]string{{"Date", "Count", "Gross Amount"}}
	for i := range volume {
		volumeRows = append(volumeRows, []string{
			volume[i].Date,
			strconv.FormatInt(volume[i].Count, 10),
			strconv.FormatInt(volume[i].GrossAmount, 10),
		})
	}
	return s.writeFile(fmt.Sprintf("volume-%s.csv", stamp), volumeRows)
}

func (s *Scheduler) writeFile(name string, rows [][]string) error {
	path := filepath.Join(s.dir, name)
	fd, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("reports: %v", err)
	}
	defer fd.Close()

	out := csv.NewWriter(fd)
	if err := out.WriteAll(rows); err != nil {
		return fmt.Errorf("reports: write %s: %v", path, err)
	}
	out.Flush()
	return out.Error()
}
