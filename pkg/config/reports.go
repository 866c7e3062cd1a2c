// Copyright 2020 The Moov Authors
// Use of this source code is governed by an Apache License
// license that can be found in the LICENSE file.

package config

import (
	"fmt"
	"os"
)

type Reports struct {
	// Directory is where scheduled report snapshots are written. Reports
	// are disabled when empty.
	Directory string

	// Schedule is a cron expression for when snapshots are generated.
	Schedule string
}

func (cfg Reports) Validate() error {
	if cfg.Directory == "" {
		return nil
	}
	if info, err := os.Stat(cfg.Directory); err == nil && !info.IsDir() {
		return fmt.Errorf("%s is not a directory", cfg.Directory)
	}
	return nil
}

func (cfg Reports) GetSchedule() string {
	if cfg.Schedule == "" {
		return "0 0 * * *" // daily at midnight
	}
	return cfg.Schedule
}
