// Copyright 2020 The Moov Authors
// Use of this source code is governed by an Apache License
// license that can be found in the LICENSE file.

package config

import (
	"errors"
	"fmt"
	"time"
)

type Pipeline struct {
	Stream *StreamPipeline

	// Workers is how many events are digested concurrently. Events for the
	// same resource are still serialized by the digester.
	Workers int

	// StoreTimeout bounds each event store and projection write. A step
	// exceeding this is failed and the event is left for redelivery.
	StoreTimeout time.Duration
}

func (cfg Pipeline) Validate() error {
	if err := cfg.Stream.Validate(); err != nil {
		return fmt.Errorf("stream: %v", err)
	}
	if cfg.Workers < 0 {
		return fmt.Errorf("invalid workers: %d", cfg.Workers)
	}
	return nil
}

func (cfg Pipeline) GetWorkers() int {
	if cfg.Workers <= 0 {
		return 5
	}
	return cfg.Workers
}

func (cfg Pipeline) GetStoreTimeout() time.Duration {
	if cfg.StoreTimeout <= 0*time.Second {
		return 10 * time.Second
	}
	return cfg.StoreTimeout
}

type StreamPipeline struct {
	InMem *InMemPipeline
	Kafka *KafkaPipeline
}

func (cfg *StreamPipeline) Validate() error {
	if cfg == nil {
		return nil
	}
	if cfg.InMem != nil && cfg.InMem.URL == "" {
		return errors.New("inmem: missing stream url")
	}
	if k := cfg.Kafka; k != nil {
		if len(k.Brokers) == 0 || k.Group == "" || k.Topic == "" {
			return errors.New("kafka: missing brokers, group, or topic")
		}
	}
	return nil
}

type InMemPipeline struct {
	URL string
}

type KafkaPipeline struct {
	Brokers []string
	Group   string
	Topic   string
}
