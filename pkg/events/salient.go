// Copyright 2020 The Moov Authors
// Use of this source code is governed by an Apache License
// license that can be found in the LICENSE file.

package events

import (
	"github.com/moov-io/ledger/pkg/transactions"
)

// Classification describes how a salient event type affects projected state.
//
// Correction marks event types whose purpose is to retroactively overwrite a
// previously projected state to match what the gateway actually reported.
// They win over normal timestamp ordering.
type Classification struct {
	State      transactions.State
	Correction bool
}

// salientEventTypes is the single source of truth for which event types
// affect projected state. An event type absent from this table is stored for
// audit but never changes a projection.
//
// The table is read-only after process start.
var salientEventTypes = map[string]Classification{
	"PAYMENT_CREATED": {State: transactions.StateCreated},
	"PAYMENT_STARTED": {State: transactions.StateStarted},
	"PAYMENT_EXPIRED": {State: transactions.StateExpired},

	"AUTHORISATION_REJECTED": {State: transactions.StateDeclined},
	"STATUS_CORRECTED_TO_AUTHORISATION_REJECTED_TO_MATCH_GATEWAY_STATUS": {State: transactions.StateDeclined, Correction: true},
	"AUTHORISATION_SUCCEEDED":  {State: transactions.StateSubmitted},
	"AUTHORISATION_CANCELLED":  {State: transactions.StateCancelled},
	"GATEWAY_ERROR_DURING_AUTHORISATION":            {State: transactions.StateError},
	"GATEWAY_TIMEOUT_DURING_AUTHORISATION":          {State: transactions.StateError},
	"UNEXPECTED_GATEWAY_ERROR_DURING_AUTHORISATION": {State: transactions.StateError},
	"STATUS_CORRECTED_TO_AUTHORISATION_ERROR_TO_MATCH_GATEWAY_STATUS": {State: transactions.StateError, Correction: true},
	"GATEWAY_REQUIRES_3DS_AUTHORISATION":                              {State: transactions.StateStarted},

	"CAPTURE_CONFIRMED": {State: transactions.StateSuccess},
	"CAPTURE_SUBMITTED": {State: transactions.StateSuccess},
	"CAPTURE_ERRORED":   {State: transactions.StateError},
	"CAPTURE_ABANDONED_AFTER_TOO_MANY_RETRIES":           {State: transactions.StateError},
	"USER_APPROVED_FOR_CAPTURE":                          {State: transactions.StateCapturable},
	"USER_APPROVED_FOR_CAPTURE_AWAITING_SERVICE_APPROVAL": {State: transactions.StateCapturable},
	"SERVICE_APPROVED_FOR_CAPTURE":                        {State: transactions.StateCapturable},
	"STATUS_CORRECTED_TO_CAPTURED_TO_MATCH_GATEWAY_STATUS": {State: transactions.StateSuccess, Correction: true},
	"CAPTURE_CONFIRMED_BY_GATEWAY_NOTIFICATION":            {State: transactions.StateSuccess},

	"CANCEL_BY_EXPIRATION_SUBMITTED": {State: transactions.StateExpired},
	"CANCEL_BY_EXPIRATION_FAILED":    {State: transactions.StateExpired},
	"CANCELLED_BY_EXPIRATION":        {State: transactions.StateExpired},

	"CANCEL_BY_EXTERNAL_SERVICE_SUBMITTED": {State: transactions.StateCancelled},
	"CANCEL_BY_EXTERNAL_SERVICE_FAILED":    {State: transactions.StateCancelled},
	"CANCELLED_BY_EXTERNAL_SERVICE":        {State: transactions.StateCancelled},
	"CANCEL_BY_USER_SUBMITTED":             {State: transactions.StateCancelled},
	"CANCEL_BY_USER_FAILED":                {State: transactions.StateCancelled},
	"CANCELLED_BY_USER":                    {State: transactions.StateCancelled},

	"REFUND_CREATED_BY_USER":    {State: transactions.StateRefundSubmitted},
	"REFUND_CREATED_BY_SERVICE": {State: transactions.StateRefundSubmitted},
	"REFUND_SUBMITTED":          {State: transactions.StateRefundSubmitted},
	"REFUND_SUCCEEDED":          {State: transactions.StateRefundSuccess},
	"REFUND_ERROR":              {State: transactions.StateRefundError},
}

// Classify looks up the salient classification for an event type name.
// The second return is false for event types that don't affect state.
func Classify(eventType string) (*Classification, bool) {
	cls, ok := salientEventTypes[eventType]
	if !ok {
		return nil, false
	}
	return &cls, true
}
