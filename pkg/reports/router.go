// Copyright 2020 The Moov Authors
// Use of this source code is governed by an Apache License
// license that can be found in the LICENSE file.

package reports

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/moov-io/ledger/pkg/util"
	"github.com/moov-io/ledger/x/route"

	"github.com/go-kit/kit/log"
	"github.com/gorilla/mux"
)

type Router struct {
	Logger log.Logger
	Repo   Repository

	GetCountsByState http.HandlerFunc
	GetSummary       http.HandlerFunc
	GetDailyVolume   http.HandlerFunc
}

func NewRouter(logger log.Logger, repo Repository) *Router {
	return &Router{
		Logger:           logger,
		Repo:             repo,
		GetCountsByState: GetCountsByStateHandler(logger, repo),
		GetSummary:       GetSummaryHandler(logger, repo),
		GetDailyVolume:   GetDailyVolumeHandler(logger, repo),
	}
}

func (c *Router) RegisterRoutes(r *mux.Router) {
	r.Methods("GET").Path("/reports/states").HandlerFunc(c.GetCountsByState)
	r.Methods("GET").Path("/reports/summary").HandlerFunc(c.GetSummary)
	r.Methods("GET").Path("/reports/volume").HandlerFunc(c.GetDailyVolume)
}

func GetCountsByStateHandler(logger log.Logger, repo Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responder := route.NewResponder(logger, w, r)

		counts, err := repo.CountsByState(readParams(r))
		if err != nil {
			responder.Problem(err)
			return
		}
		responder.Respond(func(w http.ResponseWriter) {
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(counts)
		})
	}
}

func GetSummaryHandler(logger log.Logger, repo Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responder := route.NewResponder(logger, w, r)

		summary, err := repo.Summarize(readParams(r))
		if err != nil {
			responder.Problem(err)
			return
		}
		responder.Respond(func(w http.ResponseWriter) {
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(summary)
		})
	}
}

func GetDailyVolumeHandler(logger log.Logger, repo Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responder := route.NewResponder(logger, w, r)

		volume, err := repo.DailyVolume(readParams(r))
		if err != nil {
			responder.Problem(err)
			return
		}
		responder.Respond(func(w http.ResponseWriter) {
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(volume)
		})
	}
}

func readParams(r *http.Request) Params {
	params := Params{
		ResourceType: r.URL.Query().Get("resourceType"),
	}
	if v := r.URL.Query().Get("from"); v != "" {
		params.From = util.FirstParsedTime(v, util.YYMMDDTimeFormat, time.RFC3339)
	}
	if v := r.URL.Query().Get("to"); v != "" {
		params.To = util.FirstParsedTime(v, util.YYMMDDTimeFormat, time.RFC3339)
	}
	return params
}
