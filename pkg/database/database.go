// Copyright 2020 The Moov Authors
// Use of this source code is governed by an Apache License
// license that can be found in the LICENSE file.

// Package database wraps database/sql connections to SQLite or MySQL with
// the schema migrations the ledger needs: an append-only events table and a
// transactions table holding one projected row per resource.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"

	"github.com/moov-io/ledger/pkg/config"
	"github.com/moov-io/ledger/pkg/util"

	"github.com/go-kit/kit/log"
	"github.com/lopezator/migrator"
)

// Type returns a string for which database to be used.
func Type() string {
	return util.Or(os.Getenv("DATABASE_TYPE"), "sqlite")
}

// New establishes a database connection according to the given Config,
// preferring MySQL when both are defined. With neither defined the
// connection falls back to DATABASE_TYPE and that database's env vars.
func New(ctx context.Context, logger log.Logger, cfg config.Database) (*sql.DB, error) {
	if cfg.MySQL != nil {
		logger.Log("database", "setting up mysql database provider")
		return mysqlConnection(logger, cfg.MySQL.Username, cfg.MySQL.GetPassword(), cfg.MySQL.Address, cfg.MySQL.Database).Connect(ctx)
	}
	if cfg.SQLite != nil {
		logger.Log("database", "setting up sqlite database provider")
		return sqliteConnection(logger, cfg.SQLite.Path).Connect(ctx)
	}
	logger.Log("database", fmt.Sprintf("setting up %s database provider from environment", Type()))
	return NewFromEnv(ctx, logger)
}

// NewFromEnv establishes a database connection from DATABASE_TYPE and the
// environmental variables for that specific database.
func NewFromEnv(ctx context.Context, logger log.Logger) (*sql.DB, error) {
	switch strings.ToLower(Type()) {
	case "sqlite":
		return sqliteConnection(logger, getSqlitePath()).Connect(ctx)
	case "mysql":
		return mysqlConnection(logger, os.Getenv("MYSQL_USER"), os.Getenv("MYSQL_PASSWORD"), os.Getenv("MYSQL_ADDRESS"), os.Getenv("MYSQL_DATABASE")).Connect(ctx)
	}
	return nil, fmt.Errorf("unknown database type %q", Type())
}

func execsql(name, raw string) *migrator.MigrationNoTx {
	return &migrator.MigrationNoTx{
		Name: name,
		Func: func(db *sql.DB) error {
			_, err := db.Exec(raw)
			return err
		},
	}
}

// UniqueViolation returns true when the provided error matches a database error
// for duplicate entries (violating a unique table constraint).
func UniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	return MySQLUniqueViolation(err) || SqliteUniqueViolation(err)
}
