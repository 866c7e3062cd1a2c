// Copyright 2020 The Moov Authors
// Use of this source code is governed by an Apache License
// license that can be found in the LICENSE file.

package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/moov-io/base/docker"

	"github.com/go-kit/kit/log"
	kitprom "github.com/go-kit/kit/metrics/prometheus"
	gomysql "github.com/go-sql-driver/mysql"
	"github.com/lopezator/migrator"
	"github.com/ory/dockertest/v3"
	stdprom "github.com/prometheus/client_golang/prometheus"
)

var (
	// mySQLErrDuplicateKey is the error code for duplicate entries
	// https://dev.mysql.com/doc/refman/8.0/en/server-error-reference.html#error_er_dup_entry
	mySQLErrDuplicateKey uint16 = 1062

	mysqlConnections = kitprom.NewGaugeFrom(stdprom.GaugeOpts{
		Name: "mysql_connections",
		Help: "How many MySQL connections and what status they're in.",
	}, []string{"state"})

	mysqlMigrations = migrator.Migrations(
		execsql(
			"create_events",
			`create table if not exists events(seq bigint auto_increment primary key, event_id varchar(64) not null, resource_external_id varchar(64) not null, resource_type varchar(16) not null, event_type varchar(140) not null, event_date datetime not null, event_data text, inserted_at datetime not null, constraint events_event_id_idx unique (event_id));`,
		),
		execsql(
			"create_events__resource_idx",
			`create index events_resource_idx on events(resource_external_id);`,
		),
		execsql(
			"create_transactions",
			`create table if not exists transactions(resource_external_id varchar(64) primary key, resource_type varchar(16), state varchar(30), state_details varchar(140), state_event_id varchar(64), state_event_date datetime, state_event_seq bigint, state_corrected boolean, amount bigint, fee bigint, net_amount bigint, total_amount bigint, reference varchar(140), description varchar(250), email varchar(140), language varchar(10), gateway_transaction_id varchar(140), captured_date datetime, settled_date datetime, delayed_capture boolean, last_event_id varchar(64), event_count bigint, created_at datetime, last_resolved_at datetime);`,
		),
		execsql(
			"create_transactions__state_idx",
			`create index transactions_state_idx on transactions(state);`,
		),
	)
)

type discardLogger struct{}

func (l discardLogger) Print(v ...interface{}) {}

func init() {
	gomysql.SetLogger(discardLogger{})
}

type mysql struct {
	dsn string

	connections *kitprom.Gauge
	logger      log.Logger
}

func (my *mysql) Connect(ctx context.Context) (*sql.DB, error) {
	if my == nil {
		return nil, fmt.Errorf("nil %T", my)
	}

	db, err := sql.Open("mysql", my.dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return db, err
	}

	// Migrate our database
	if m, err := migrator.New(mysqlMigrations); err != nil {
		return db, err
	} else {
		if err := m.Migrate(db); err != nil {
			return db, err
		}
	}

	// Setup metrics after the database is setup
	go func() {
		t := time.NewTicker(1 * time.Second)
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				stats := db.Stats()
				my.connections.With("state", "idle").Set(float64(stats.Idle))
				my.connections.With("state", "inuse").Set(float64(stats.InUse))
				my.connections.With("state", "open").Set(float64(stats.OpenConnections))
			}
		}
	}()

	return db, nil
}

func mysqlConnection(logger log.Logger, user, pass string, address string, database string) *mysql {
	timeout := "30s"
	params := fmt.Sprintf("timeout=%s&charset=utf8mb4&parseTime=true&sql_mode=ALLOW_INVALID_DATES", timeout)
	dsn := fmt.Sprintf("%s:%s@%s/%s?%s", user, pass, address, database, params)
	return &mysql{
		dsn:         dsn,
		logger:      logger,
		connections: mysqlConnections,
	}
}

// TestMySQLDB is a wrapper around sql.DB for MySQL connections designed for tests to provide
// a clean database for each testcase.  Callers should cleanup with Close() when finished.
type TestMySQLDB struct {
	DB *sql.DB

	container *dockertest.Resource

	shutdown func() // context shutdown func
}

func (r *TestMySQLDB) Close() error {
	r.shutdown()
	r.container.Close()
	return r.DB.Close()
}

// CreateTestMySQLDB returns a TestMySQLDB which can be used in tests
// as a clean mysql database. All migrations are ran on the db before.
//
// Callers should call close on the returned *TestMySQLDB.
func CreateTestMySQLDB(t *testing.T) *TestMySQLDB {
	if testing.Short() {
		t.Skip("-short flag enabled")
	}
	if !docker.Enabled() {
		t.Skip("Docker not enabled")
	}

	pool, err := dockertest.NewPool("")
	if err != nil {
		t.Fatal(err)
	}
	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: "mysql",
		Tag:        "8",
		Env: []string{
			"MYSQL_USER=moov",
			"MYSQL_PASSWORD=secret",
			"MYSQL_ROOT_PASSWORD=secret",
			"MYSQL_DATABASE=ledger",
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	address := fmt.Sprintf("tcp(localhost:%s)", resource.GetPort("3306/tcp"))

	err = pool.Retry(func() error {
		db, err := sql.Open("mysql", fmt.Sprintf("moov:secret@%s/ledger", address))
		if err != nil {
			return err
		}
		defer db.Close()
		return db.Ping()
	})
	if err != nil {
		resource.Close()
		t.Fatal(err)
	}

	ctx, cancelFunc := context.WithCancel(context.Background())

	db, err := mysqlConnection(log.NewNopLogger(), "moov", "secret", address, "ledger").Connect(ctx)
	if err != nil {
		resource.Close()
		cancelFunc()
		t.Fatal(err)
	}
	return &TestMySQLDB{DB: db, container: resource, shutdown: cancelFunc}
}

// MySQLUniqueViolation returns true when the provided error matches the MySQL code
// for duplicate entries (violating a unique table constraint).
func MySQLUniqueViolation(err error) bool {
	match := strings.Contains(err.Error(), fmt.Sprintf("Error %d: Duplicate entry", mySQLErrDuplicateKey))
	if e, ok := err.(*gomysql.MySQLError); ok {
		return match || e.Number == mySQLErrDuplicateKey
	}
	return match
}
