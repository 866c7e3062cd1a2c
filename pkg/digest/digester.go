// Copyright 2020 The Moov Authors
// Use of this source code is governed by an Apache License
// license that can be found in the LICENSE file.

package digest

import (
	"context"
	"fmt"
	"time"

	"github.com/moov-io/ledger/pkg/events"
	"github.com/moov-io/ledger/pkg/transactions"
	"github.com/moov-io/ledger/pkg/util"

	"github.com/go-kit/kit/log"
	kitprom "github.com/go-kit/kit/metrics/prometheus"
	stdprometheus "github.com/prometheus/client_golang/prometheus"
)

var (
	ingestedEvents = kitprom.NewCounterFrom(stdprometheus.CounterOpts{
		Name: "digest_events_ingested_total",
		Help: "Events offered to the digester, by outcome",
	}, []string{"outcome"})
)

// Outcome reports what ingesting one event did.
type Outcome string

const (
	// OutcomeApplied means the event changed the resource's projection.
	OutcomeApplied Outcome = "applied"

	// OutcomeNoOpDuplicate means the event_id was already stored, so the
	// redelivery was discarded without touching the projection.
	OutcomeNoOpDuplicate Outcome = "no_op_duplicate"

	// OutcomeNoOpInert means the event type carries no lifecycle meaning and
	// its payload held nothing new, so only the event store recorded it.
	OutcomeNoOpInert Outcome = "no_op_inert"

	// OutcomeNoOpUnchanged means a salient event arrived but changed nothing,
	// typically an out-of-order event older than the current state.
	OutcomeNoOpUnchanged Outcome = "no_op_unchanged"

	// OutcomeRejected means the event failed validation. Rejections are
	// permanent, so callers should acknowledge rather than redeliver.
	OutcomeRejected Outcome = "rejected"
)

// Digester runs the full pipeline for one incoming event: validate, append
// to the event store, classify, and resolve the resource's projection under
// that resource's serialization scope.
//
// Ingest is safe for concurrent use. Events for different resources proceed
// in parallel while events for the same resource apply one at a time.
type Digester struct {
	logger log.Logger

	eventRepo       events.Repository
	transactionRepo transactions.Repository

	locks        *keyedMutex
	storeTimeout time.Duration
}

func NewDigester(logger log.Logger, eventRepo events.Repository, transactionRepo transactions.Repository, storeTimeout time.Duration) *Digester {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	return &Digester{
		logger:          logger,
		eventRepo:       eventRepo,
		transactionRepo: transactionRepo,
		locks:           newKeyedMutex(),
		storeTimeout:    storeTimeout,
	}
}

// Ingest processes one event end to end.
//
// A nil error means the event is fully handled and should be acknowledged,
// including rejections and no-ops. A non-nil error means a transient failure
// (storage unavailable, timeout) and the delivery should be retried; the
// event store's dedup makes the retry safe.
func (d *Digester) Ingest(ctx context.Context, event *events.Event) (Outcome, error) {
	if err := event.Validate(); err != nil {
		d.logger.Log("digest", fmt.Sprintf("rejected event: %v", err))
		ingestedEvents.With("outcome", string(OutcomeRejected)).Add(1)
		return OutcomeRejected, nil
	}

	var result *events.RecordResult
	err := util.Timeout(func() error {
		var err error
		result, err = d.eventRepo.Record(event)
		return err
	}, d.storeTimeout)
	if err != nil {
		return "", fmt.Errorf("digest: record event %s: %v", event.EventID, err)
	}
	if result.Duplicate {
		ingestedEvents.With("outcome", string(OutcomeNoOpDuplicate)).Add(1)
		return OutcomeNoOpDuplicate, nil
	}

	outcome, err := d.project(ctx, event, result.Seq)
	if err != nil {
		return "", err
	}
	ingestedEvents.With("outcome", string(outcome)).Add(1)
	return outcome, nil
}

func (d *Digester) project(ctx context.Context, event *events.Event, seq int64) (Outcome, error) {
	cls, _ := events.Classify(event.EventType)

	unlock := d.locks.Lock(event.ResourceExternalID)

	if err := ctx.Err(); err != nil {
		unlock()
		return "", err
	}

	// The resource's lock is released by the storage goroutine, not by us.
	// When we stop waiting a slow write may still commit, but holding the
	// lock until it finishes means it can never land on top of a later
	// event's projection for the same resource.
	done := make(chan projection, 1)
	go func() {
		defer unlock()
		done <- d.applyLocked(event, cls, seq)
	}()

	select {
	case p := <-done:
		if p.err != nil {
			return "", fmt.Errorf("digest: resource %s: %v", event.ResourceExternalID, p.err)
		}
		return p.outcome, nil
	case <-time.After(d.storeTimeout):
		return "", fmt.Errorf("digest: resource %s: %v", event.ResourceExternalID, util.ErrTimeout)
	}
}

type projection struct {
	outcome Outcome
	err     error
}

// applyLocked resolves and writes one event's projection. Callers must hold
// the resource's keyed mutex for the full call.
func (d *Digester) applyLocked(event *events.Event, cls *events.Classification, seq int64) projection {
	current, err := d.transactionRepo.Get(event.ResourceExternalID)
	if err != nil {
		return projection{err: fmt.Errorf("get transaction: %v", err)}
	}

	res := Resolve(current, event, cls, seq)
	if res == nil {
		if cls == nil {
			return projection{outcome: OutcomeNoOpInert}
		}
		return projection{outcome: OutcomeNoOpUnchanged}
	}

	if err := d.transactionRepo.Upsert(res.Transaction); err != nil {
		return projection{err: fmt.Errorf("upsert transaction: %v", err)}
	}
	if res.StateChanged {
		d.logger.Log(
			"digest", "state transition",
			"resourceExternalID", event.ResourceExternalID,
			"state", string(res.Transaction.State),
			"eventType", event.EventType,
			"corrected", fmt.Sprintf("%t", res.Transaction.StateCorrected),
		)
	}
	return projection{outcome: OutcomeApplied}
}
