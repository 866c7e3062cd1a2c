// Copyright 2020 The Moov Authors
// Use of this source code is governed by an Apache License
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/moov-io/base/admin"

	"github.com/moov-io/ledger"
	"github.com/moov-io/ledger/pkg/config"
	"github.com/moov-io/ledger/pkg/database"
	"github.com/moov-io/ledger/pkg/digest"
	"github.com/moov-io/ledger/pkg/digest/pipeline"
	"github.com/moov-io/ledger/pkg/events"
	"github.com/moov-io/ledger/pkg/reports"
	"github.com/moov-io/ledger/pkg/transactions"
	"github.com/moov-io/ledger/pkg/util"
	"github.com/moov-io/ledger/x/route"
	"github.com/moov-io/ledger/x/trace"

	"github.com/gorilla/mux"
	"github.com/opentracing/opentracing-go"
)

var (
	flagConfigFile = flag.String("config", "", "Filepath for config file to load")
)

func main() {
	flag.Parse()

	configFilepath := util.Or(os.Getenv("CONFIG_FILE"), *flagConfigFile)
	cfg, err := config.FromFile(configFilepath)
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}
	cfg.Logger.Log("startup", fmt.Sprintf("Starting ledger server version %s", ledger.Version))

	ctx, cancelFunc := context.WithCancel(context.Background())
	defer cancelFunc()

	// migrate database
	db, err := database.New(ctx, cfg.Logger, cfg.Database)
	if err != nil {
		panic(fmt.Sprintf("error creating database: %v", err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			cfg.Logger.Log("exit", err)
		}
	}()

	// Listen for application termination.
	errs := make(chan error)
	go func() {
		c := make(chan os.Signal, 1)
		signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
		errs <- fmt.Errorf("%s", <-c)
	}()

	tracer, closer, err := trace.NewConstantTracer(cfg.Logger, "ledger")
	if err != nil {
		panic(fmt.Sprintf("error starting tracer: %v", err))
	}
	defer closer.Close()
	opentracing.SetGlobalTracer(tracer)

	// Spin up admin HTTP server
	adminAddr := cfg.Admin.BindAddress
	if v := os.Getenv("HTTP_ADMIN_BIND_ADDRESS"); v != "" {
		adminAddr = v
	}
	adminServer := admin.NewServer(adminAddr)
	adminServer.AddVersionHandler(ledger.Version) // Setup 'GET /version'
	adminServer.AddLivenessCheck("database", db.Ping)
	go func() {
		cfg.Logger.Log("admin", fmt.Sprintf("listening on %s", adminServer.BindAddr()))
		if err := adminServer.Listen(); err != nil {
			err = fmt.Errorf("problem starting admin http: %v", err)
			cfg.Logger.Log("admin", err)
			errs <- err
		}
	}()
	defer adminServer.Shutdown()

	// Setup repositories
	eventRepo := events.NewRepo(cfg.Logger, db)
	transactionRepo := transactions.NewRepo(db)
	reportRepo := reports.NewRepo(db)

	// Digest pipeline
	digester := digest.NewDigester(cfg.Logger, eventRepo, transactionRepo, cfg.Pipeline.GetStoreTimeout())
	if util.Yes(os.Getenv("PIPELINE_DISABLED")) {
		cfg.Logger.Log("startup", "pipeline disabled, running in read-only mode")
	} else if cfg.Pipeline.Stream != nil {
		sub, err := pipeline.NewSubscription(cfg)
		if err != nil {
			panic(fmt.Sprintf("error opening subscription: %v", err))
		}
		consumer := pipeline.NewConsumer(cfg.Logger, sub, digester, cfg.Pipeline.GetWorkers())
		consumer.Start(ctx)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := consumer.Shutdown(shutdownCtx); err != nil {
				cfg.Logger.Log("shutdown", err)
			}
		}()
	} else {
		cfg.Logger.Log("startup", "no stream configured, running in read-only mode")
	}

	// Scheduled report snapshots
	scheduler, err := reports.NewScheduler(cfg.Logger, cfg.Reports, reportRepo)
	if err != nil {
		panic(fmt.Sprintf("error setting up reports: %v", err))
	}
	if err := scheduler.Start(); err != nil {
		panic(fmt.Sprintf("error starting reports: %v", err))
	}
	defer scheduler.Stop()

	// Create HTTP handler
	handler := mux.NewRouter()
	route.PingRoute(handler)
	events.NewRouter(cfg.Logger, eventRepo).RegisterRoutes(handler)
	transactions.NewRouter(cfg.Logger, transactionRepo).RegisterRoutes(handler)
	reports.NewRouter(cfg.Logger, reportRepo).RegisterRoutes(handler)

	// Check to see if our bind address has been overridden
	httpAddr := cfg.Http.BindAddress
	if v := os.Getenv("HTTP_BIND_ADDRESS"); v != "" {
		httpAddr = v
	}
	serve := &http.Server{
		Addr:         httpAddr,
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	shutdownServer := func() {
		if err := serve.Shutdown(context.TODO()); err != nil {
			cfg.Logger.Log("shutdown", err)
		}
	}
	defer shutdownServer()

	// Start main HTTP server
	go func() {
		cfg.Logger.Log("startup", fmt.Sprintf("binding to %s for HTTP server", httpAddr))
		if err := serve.ListenAndServe(); err != nil {
			cfg.Logger.Log("exit", err)
		}
	}()

	if err := <-errs; err != nil {
		cfg.Logger.Log("exit", err)
	}
}
