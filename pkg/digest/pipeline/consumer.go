// Copyright 2020 The Moov Authors
// Use of this source code is governed by an Apache License
// license that can be found in the LICENSE file.

package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/moov-io/ledger/pkg/digest"
	"github.com/moov-io/ledger/pkg/events"

	"github.com/go-kit/kit/log"
	kitprom "github.com/go-kit/kit/metrics/prometheus"
	stdprometheus "github.com/prometheus/client_golang/prometheus"
	"gocloud.dev/pubsub"
)

var (
	undecodableMessages = kitprom.NewCounterFrom(stdprometheus.CounterOpts{
		Name: "pipeline_undecodable_messages_total",
		Help: "Messages whose body could not be decoded as an event",
	}, []string{})
	nackedMessages = kitprom.NewCounterFrom(stdprometheus.CounterOpts{
		Name: "pipeline_nacked_messages_total",
		Help: "Messages returned to the subscription for redelivery",
	}, []string{})
)

// Consumer pulls event messages off a subscription and hands each to the
// digester on a fixed pool of workers. Per-resource ordering doesn't depend
// on the pool size since the digester serializes by resource.
//
// Deliveries are acknowledged when ingestion fully handled the event,
// including permanent rejections. Transient failures leave the delivery
// unacknowledged (nacked where the broker supports it) for redelivery.
type Consumer struct {
	logger   log.Logger
	sub      *pubsub.Subscription
	digester *digest.Digester
	workers  int

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewConsumer(logger log.Logger, sub *pubsub.Subscription, digester *digest.Digester, workers int) *Consumer {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	if workers <= 0 {
		workers = 1
	}
	return &Consumer{
		logger:   logger,
		sub:      sub,
		digester: digester,
		workers:  workers,
	}
}

// Start launches the worker pool. Workers run until Shutdown is called or
// ctx is cancelled.
func (c *Consumer) Start(ctx context.Context) {
	ctx, c.cancel = context.WithCancel(ctx)
	for i := 0; i < c.workers; i++ {
		c.wg.Add(1)
		go func() {
			defer c.wg.Done()
			c.run(ctx)
		}()
	}
	c.logger.Log("pipeline", fmt.Sprintf("started %d workers", c.workers))
}

func (c *Consumer) run(ctx context.Context) {
	for {
		msg, err := c.sub.Receive(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return // shutting down
			}
			c.logger.Log("pipeline", fmt.Sprintf("receive: %v", err))
			return
		}
		c.handle(ctx, msg)
	}
}

func (c *Consumer) handle(ctx context.Context, msg *pubsub.Message) {
	var event events.Event
	if err := json.Unmarshal(msg.Body, &event); err != nil {
		// undecodable bodies can never succeed, drop them
		c.logger.Log("pipeline", fmt.Sprintf("undecodable message: %v", err))
		undecodableMessages.With().Add(1)
		msg.Ack()
		return
	}

	outcome, err := c.digester.Ingest(ctx, &event)
	if err != nil {
		c.logger.Log("pipeline", fmt.Sprintf("event %s: %v", event.EventID, err))
		nackedMessages.With().Add(1)
		if msg.Nackable() {
			msg.Nack()
		}
		return
	}

	c.logger.Log("pipeline", string(outcome), "eventID", event.EventID, "eventType", event.EventType)
	msg.Ack()
}

// Shutdown stops the workers and closes the subscription. It blocks until
// in-flight events finish or ctx expires.
func (c *Consumer) Shutdown(ctx context.Context) error {
	if c.cancel != nil {
		c.cancel()
	}

	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}

	return c.sub.Shutdown(ctx)
}
