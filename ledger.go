// Copyright 2020 The Moov Authors
// Use of this source code is governed by an Apache License
// license that can be found in the LICENSE file.

// Package ledger ingests lifecycle events for payment resources and keeps a
// queryable current-state projection (a Transaction record) per resource.
package ledger

// Version is the semantic version of this app
var Version = "v0.1.0-dev"
