// Copyright 2020 The Moov Authors
// Use of this source code is governed by an Apache License
// license that can be found in the LICENSE file.

package transactions

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/moov-io/ledger/pkg/util"
	"github.com/moov-io/ledger/x/route"

	"github.com/go-kit/kit/log"
	"github.com/gorilla/mux"
)

type Router struct {
	Logger log.Logger
	Repo   Repository

	GetTransaction     http.HandlerFunc
	SearchTransactions http.HandlerFunc
}

func NewRouter(logger log.Logger, repo Repository) *Router {
	return &Router{
		Logger:             logger,
		Repo:               repo,
		GetTransaction:     GetTransactionHandler(logger, repo),
		SearchTransactions: SearchTransactionsHandler(logger, repo),
	}
}

func (c *Router) RegisterRoutes(r *mux.Router) {
	r.Methods("GET").Path("/transactions").HandlerFunc(c.SearchTransactions)
	r.Methods("GET").Path("/transactions/{resourceExternalID}").HandlerFunc(c.GetTransaction)
}

func GetTransactionHandler(logger log.Logger, repo Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responder := route.NewResponder(logger, w, r)

		resourceExternalID := route.ReadPathID("resourceExternalID", r)
		if resourceExternalID == "" {
			responder.NotFound()
			return
		}

		transaction, err := repo.Get(resourceExternalID)
		if err != nil {
			responder.Problem(err)
			return
		}
		if transaction == nil {
			responder.NotFound()
			return
		}

		responder.Respond(func(w http.ResponseWriter) {
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(transaction)
		})
	}
}

func SearchTransactionsHandler(logger log.Logger, repo Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responder := route.NewResponder(logger, w, r)

		params := readSearchParams(r)
		transactions, err := repo.Search(params)
		if err != nil {
			responder.Problem(err)
			return
		}

		if strings.EqualFold(r.URL.Query().Get("format"), "csv") {
			// Respond sets a JSON content-type, so write the CSV directly
			w.Header().Set("Content-Type", "text/csv")
			w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="transactions-%s.csv"`, time.Now().Format(util.YYMMDDTimeFormat)))
			w.WriteHeader(http.StatusOK)
			if err := WriteCSV(w, transactions); err != nil {
				responder.Log("transactions", fmt.Sprintf("problem writing csv: %v", err))
			}
			return
		}

		responder.Respond(func(w http.ResponseWriter) {
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(transactions)
		})
	}
}

func readSearchParams(r *http.Request) SearchParams {
	params := SearchParams{
		State:        State(r.URL.Query().Get("state")),
		ResourceType: r.URL.Query().Get("resourceType"),
		Reference:    r.URL.Query().Get("reference"),
		Email:        r.URL.Query().Get("email"),
		Limit:        100,
	}
	if v := r.URL.Query().Get("startDate"); v != "" {
		params.StartDate = util.FirstParsedTime(v, util.YYMMDDTimeFormat, time.RFC3339)
	}
	if v := r.URL.Query().Get("endDate"); v != "" {
		params.EndDate = util.FirstParsedTime(v, util.YYMMDDTimeFormat, time.RFC3339)
	}
	if limit, err := strconv.ParseInt(r.URL.Query().Get("limit"), 10, 32); err == nil && limit > 0 {
		if limit > 1000 {
			limit = 1000
		}
		params.Limit = limit
	}
	if offset, err := strconv.ParseInt(r.URL.Query().Get("offset"), 10, 32); err == nil && offset > 0 {
		params.Offset = offset
	}
	return params
}
