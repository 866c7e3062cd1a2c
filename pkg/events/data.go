// Copyright 2020 The Moov Authors
// Use of this source code is governed by an Apache License
// license that can be found in the LICENSE file.

package events

import (
	"encoding/json"
	"strconv"
	"time"
)

// DataString reads a string field from the event payload.
// The second return is false when the field is absent or not a string.
func (e *Event) DataString(key string) (string, bool) {
	if e == nil || e.EventData == nil {
		return "", false
	}
	v, ok := e.EventData[key].(string)
	return v, ok
}

// DataInt64 reads an integer field from the event payload. Monetary values
// arrive as JSON numbers in minor currency units, so fractional values are
// rejected rather than rounded.
func (e *Event) DataInt64(key string) (int64, bool) {
	if e == nil || e.EventData == nil {
		return 0, false
	}
	switch v := e.EventData[key].(type) {
	case float64:
		n := int64(v)
		if float64(n) != v {
			return 0, false
		}
		return n, true
	case json.Number:
		n, err := v.Int64()
		return n, err == nil
	case int64:
		return v, true
	case int:
		return int64(v), true
	case string:
		n, err := strconv.ParseInt(v, 10, 64)
		return n, err == nil
	}
	return 0, false
}

// DataBool reads a boolean field from the event payload.
func (e *Event) DataBool(key string) (bool, bool) {
	if e == nil || e.EventData == nil {
		return false, false
	}
	v, ok := e.EventData[key].(bool)
	return v, ok
}

// DataTime reads an RFC3339 or YYYY-MM-DD timestamp field from the payload.
func (e *Event) DataTime(key string) (time.Time, bool) {
	v, ok := e.DataString(key)
	if !ok {
		return time.Time{}, false
	}
	for _, format := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(format, v); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
