// Copyright 2020 The Moov Authors
// Use of this source code is governed by an Apache License
// license that can be found in the LICENSE file.

package events

import (
	"encoding/json"
	"net/http"

	"github.com/moov-io/ledger/x/route"

	"github.com/go-kit/kit/log"
	"github.com/gorilla/mux"
)

type Router struct {
	Logger log.Logger
	Repo   Repository

	GetEvent          http.HandlerFunc
	GetResourceEvents http.HandlerFunc
}

func NewRouter(logger log.Logger, repo Repository) *Router {
	return &Router{
		Logger:            logger,
		Repo:              repo,
		GetEvent:          GetEventHandler(logger, repo),
		GetResourceEvents: GetResourceEventsHandler(logger, repo),
	}
}

func (c *Router) RegisterRoutes(r *mux.Router) {
	r.Methods("GET").Path("/events/{eventID}").HandlerFunc(c.GetEvent)
	r.Methods("GET").Path("/resources/{resourceExternalID}/events").HandlerFunc(c.GetResourceEvents)
}

func GetEventHandler(logger log.Logger, repo Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responder := route.NewResponder(logger, w, r)

		eventID := route.ReadPathID("eventID", r)
		if eventID == "" {
			responder.NotFound()
			return
		}

		event, err := repo.GetEvent(eventID)
		if err != nil {
			responder.Problem(err)
			return
		}
		if event == nil {
			responder.NotFound()
			return
		}

		responder.Respond(func(w http.ResponseWriter) {
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(event)
		})
	}
}

func GetResourceEventsHandler(logger log.Logger, repo Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responder := route.NewResponder(logger, w, r)

		resourceExternalID := route.ReadPathID("resourceExternalID", r)
		if resourceExternalID == "" {
			responder.NotFound()
			return
		}

		events, err := repo.GetResourceEvents(resourceExternalID)
		if err != nil {
			responder.Problem(err)
			return
		}

		responder.Respond(func(w http.ResponseWriter) {
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(events)
		})
	}
}
