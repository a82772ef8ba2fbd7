// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

// Package csql opens the postgres database of the service within its own schema
package csql

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strings"

	_ "github.com/lib/pq" // load database driver for postgres

	"github.com/relabs-tech/contaconmigo/core/logger"
)

// DB encapsulates a standard sql.DB with a schema
type DB struct {
	*sql.DB
	Schema string
}

// ErrNoRows is returned by Scan when QueryRow doesn't return a row
var ErrNoRows = sql.ErrNoRows

var validSchema = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// OpenWithSchema opens a postgres database and selects schema, which gets created
// if it does not exist yet. An empty schema selects "public".
//
// dataSourceName is a connection string without password, the password is passed
// separately so that the connection string can be logged.
func OpenWithSchema(ctx context.Context, dataSourceName, password, schema string) (*DB, error) {
	rlog := logger.FromContext(ctx)
	if schema == "" {
		schema = "public"
	}
	if !validSchema.MatchString(schema) {
		return nil, fmt.Errorf("invalid database schema name '%s'", schema)
	}

	rlog.Infoln("connecting to postgres database:", dataSourceName)
	dsn := dataSourceName
	if password != "" {
		dsn = strings.TrimSpace(dsn) + " password=" + quoteValue(password)
	}
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("cannot open database: %w", err)
	}
	if err = db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("cannot reach database: %w", err)
	}

	if schema != "public" {
		rlog.Infoln("selected database schema:", schema)
		if _, err = db.ExecContext(ctx, `CREATE schema IF NOT EXISTS `+schema+`;`); err != nil {
			db.Close()
			return nil, fmt.Errorf("cannot create schema %s: %w", schema, err)
		}
	}
	return &DB{DB: db, Schema: schema}, nil
}

// ClearSchema clears all the data contained in the database's schema.
// Technically this is done by dropping the schema and then recreating it
func (db *DB) ClearSchema(ctx context.Context) error {
	if db.Schema == "public" {
		return fmt.Errorf("refuse to drop public schema")
	}
	_, err := db.ExecContext(ctx, `DROP SCHEMA IF EXISTS `+db.Schema+` CASCADE;
	CREATE schema IF NOT EXISTS `+db.Schema+`;`)
	if err != nil {
		return fmt.Errorf("clear schema %s: %w", db.Schema, err)
	}
	return nil
}

// quoteValue quotes a connection string value in the key=value format of lib/pq
func quoteValue(v string) string {
	return "'" + strings.NewReplacer(`\`, `\\`, `'`, `\'`).Replace(v) + "'"
}
