// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

/*Package registry provides a persistent registry of objects in a SQL database

The package uses JSON to serialize the data. The store keeps the version of its table
layout here.
*/
package registry

import (
	"context"
	"fmt"
	"time"

	"github.com/goccy/go-json"

	"github.com/relabs-tech/contaconmigo/core/csql"
)

// New creates a new registry for the specified database
func New(ctx context.Context, db *csql.DB) (Registry, error) {
	_, err := db.ExecContext(ctx, `CREATE table IF NOT EXISTS `+db.Schema+`."_registry_" 
(key varchar NOT NULL, 
value json NOT NULL, 
timestamp timestamp NOT NULL, 
PRIMARY KEY(key)
);`)
	if err != nil {
		return Registry{}, fmt.Errorf("cannot create registry: %w", err)
	}
	return Registry{db: db}, nil
}

// Registry provides a persistent registry of objects in a sql database.
type Registry struct {
	db *csql.DB
}

// Accessor is an accessor with optional prefix
type Accessor struct {
	Prefix   string
	Registry Registry
}

// Accessor returns a registry accessor with prefix
func (r Registry) Accessor(prefix string) Accessor {
	return Accessor{
		Prefix:   prefix,
		Registry: r,
	}
}

func (r Accessor) key(key string) string {
	if len(r.Prefix) > 0 {
		return r.Prefix + ":" + key
	}
	return key
}

// Read reads a value from the registry. It returns the time when the value was
// written, or a zero timestamp if there is no value.
func (r Accessor) Read(ctx context.Context, key string, value interface{}) (time.Time, error) {
	var (
		rawValue  json.RawMessage
		timestamp time.Time
	)
	key = r.key(key)
	err := r.Registry.db.QueryRowContext(ctx,
		`SELECT value, timestamp FROM `+r.Registry.db.Schema+`."_registry_" WHERE key=$1;`,
		key).Scan(&rawValue, &timestamp)
	if err == csql.ErrNoRows {
		return timestamp, nil
	}
	if err != nil {
		return timestamp, fmt.Errorf("cannot read key '%s': %w", key, err)
	}
	return timestamp, json.Unmarshal(rawValue, value)
}

// Write writes a value into the registry, replacing a previous value
func (r Accessor) Write(ctx context.Context, key string, value interface{}) error {
	body, err := json.Marshal(value)
	if err != nil {
		return err
	}
	key = r.key(key)
	now := time.Now().UTC()
	res, err := r.Registry.db.ExecContext(ctx,
		`INSERT INTO `+r.Registry.db.Schema+`."_registry_"(key,value,timestamp)
VALUES($1,$2,$3)
ON CONFLICT (key) DO UPDATE SET value=$2,timestamp=$3;`,
		key, string(body), now)
	if err != nil {
		return err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if count == 0 {
		return fmt.Errorf("could not write key %s", key)
	}
	return nil
}

// Delete deletes a value from the registry
func (r Accessor) Delete(ctx context.Context, key string) error {
	_, err := r.Registry.db.ExecContext(ctx,
		`DELETE FROM `+r.Registry.db.Schema+`."_registry_" WHERE key=$1;`,
		r.key(key))
	return err
}
