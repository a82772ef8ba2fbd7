// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

package store

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/relabs-tech/contaconmigo/core/csql"
	"github.com/relabs-tech/contaconmigo/core/logger"
	"github.com/relabs-tech/contaconmigo/core/registry"
	"github.com/relabs-tech/contaconmigo/core/schema"
)

// ErrInUse is returned when a template cannot be deleted because data records still
// reference it
var ErrInUse = errors.New("record is still referenced")

// layoutVersion is the version of the table layout created by NewPostgres
const layoutVersion = 1

// Postgres is the Store realized with a postgres database
type Postgres struct {
	db *csql.DB
}

var _ Store = (*Postgres)(nil)

// NewPostgres creates the tables if they do not exist yet and returns the store
func NewPostgres(ctx context.Context, db *csql.DB) (*Postgres, error) {
	rlog := logger.FromContext(ctx)
	reg, err := registry.New(ctx, db)
	if err != nil {
		return nil, err
	}
	accessor := reg.Accessor("store")
	var version int
	if _, err := accessor.Read(ctx, "layout", &version); err != nil {
		return nil, err
	}
	if version > layoutVersion {
		return nil, fmt.Errorf("database layout version %d is newer than supported version %d", version, layoutVersion)
	}

	dbSchema := db.Schema
	createQuery := `CREATE table IF NOT EXISTS ` + dbSchema + `."template"
(template_id uuid NOT NULL PRIMARY KEY,
user_id varchar NOT NULL,
name varchar NOT NULL,
fields json NOT NULL,
created_at timestamp NOT NULL,
updated_at timestamp NOT NULL
);
CREATE index IF NOT EXISTS template_user_id ON ` + dbSchema + `."template"(user_id, created_at);
CREATE table IF NOT EXISTS ` + dbSchema + `."template_data"
(data_id uuid NOT NULL PRIMARY KEY,
template_id uuid NOT NULL REFERENCES ` + dbSchema + `."template"(template_id) ON DELETE RESTRICT,
user_id varchar NOT NULL,
"values" json NOT NULL,
created_at timestamp NOT NULL,
updated_at timestamp NOT NULL
);
CREATE index IF NOT EXISTS template_data_template_id ON ` + dbSchema + `."template_data"(template_id, user_id, created_at);`

	if _, err = db.ExecContext(ctx, createQuery); err != nil {
		rlog.WithError(err).Errorf("Error while updating schema when running: %s", createQuery)
		return nil, fmt.Errorf("cannot create tables: %w", err)
	}
	if version < layoutVersion {
		if err := accessor.Write(ctx, "layout", layoutVersion); err != nil {
			return nil, err
		}
	}
	return &Postgres{db: db}, nil
}

func now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

func (p *Postgres) table(name string) string {
	return p.db.Schema + `."` + name + `"`
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanTemplate(row scanner) (Template, error) {
	var (
		t      Template
		fields []byte
	)
	err := row.Scan(&t.ID, &t.UserID, &t.Name, &fields, &t.CreatedAt, &t.UpdatedAt)
	if err == csql.ErrNoRows {
		return t, ErrNotFound
	}
	if err != nil {
		return t, err
	}
	if err = json.Unmarshal(fields, &t.Fields); err != nil {
		return t, fmt.Errorf("corrupt fields of template %s: %w", t.ID, err)
	}
	return t, nil
}

func scanData(row scanner) (TemplateData, error) {
	var (
		d      TemplateData
		values []byte
	)
	err := row.Scan(&d.ID, &d.TemplateID, &d.UserID, &values, &d.CreatedAt, &d.UpdatedAt)
	if err == csql.ErrNoRows {
		return d, ErrNotFound
	}
	if err != nil {
		return d, err
	}
	// numbers stay json.Number so that integer and floating literals remain distinguishable
	dec := json.NewDecoder(bytes.NewReader(values))
	dec.UseNumber()
	if err = dec.Decode(&d.Values); err != nil {
		return d, fmt.Errorf("corrupt values of data %s: %w", d.ID, err)
	}
	return d, nil
}

const templateColumns = `template_id, user_id, name, fields, created_at, updated_at`

// CreateTemplate implements Store
func (p *Postgres) CreateTemplate(ctx context.Context, t Template) (Template, error) {
	if t.Fields == nil {
		t.Fields = schema.Fields{}
	}
	fields, err := json.Marshal(t.Fields)
	if err != nil {
		return t, err
	}
	t.ID = uuid.New()
	t.CreatedAt = now()
	t.UpdatedAt = t.CreatedAt
	_, err = p.db.ExecContext(ctx, `INSERT INTO `+p.table("template")+`(`+templateColumns+`)
VALUES($1,$2,$3,$4,$5,$6);`, t.ID, t.UserID, t.Name, string(fields), t.CreatedAt, t.UpdatedAt)
	if err != nil {
		return t, fmt.Errorf("cannot insert template: %w", err)
	}
	return t, nil
}

// ListTemplates implements Store
func (p *Postgres) ListTemplates(ctx context.Context, userID string) ([]Template, error) {
	rows, err := p.db.QueryContext(ctx, `SELECT `+templateColumns+` FROM `+p.table("template")+`
WHERE user_id=$1 ORDER BY created_at DESC, template_id;`, userID)
	if err != nil {
		return nil, fmt.Errorf("cannot list templates: %w", err)
	}
	defer rows.Close()
	templates := []Template{}
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, err
		}
		templates = append(templates, t)
	}
	return templates, rows.Err()
}

// GetTemplate implements Store
func (p *Postgres) GetTemplate(ctx context.Context, id uuid.UUID, userID string) (Template, error) {
	return scanTemplate(p.db.QueryRowContext(ctx, `SELECT `+templateColumns+` FROM `+p.table("template")+`
WHERE template_id=$1 AND user_id=$2;`, id, userID))
}

// UpdateTemplate implements Store
func (p *Postgres) UpdateTemplate(ctx context.Context, t Template) (Template, error) {
	if t.Fields == nil {
		t.Fields = schema.Fields{}
	}
	fields, err := json.Marshal(t.Fields)
	if err != nil {
		return t, err
	}
	return scanTemplate(p.db.QueryRowContext(ctx, `UPDATE `+p.table("template")+`
SET name=$3, fields=$4, updated_at=$5
WHERE template_id=$1 AND user_id=$2
RETURNING `+templateColumns+`;`, t.ID, t.UserID, t.Name, string(fields), now()))
}

// DeleteTemplate implements Store. It fails with ErrInUse while data records reference
// the template.
func (p *Postgres) DeleteTemplate(ctx context.Context, id uuid.UUID, userID string) error {
	res, err := p.db.ExecContext(ctx, `DELETE FROM `+p.table("template")+`
WHERE template_id=$1 AND user_id=$2;`, id, userID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "foreign_key_violation" {
			return ErrInUse
		}
		return fmt.Errorf("cannot delete template: %w", err)
	}
	return expectOne(res)
}

// CountData implements Store
func (p *Postgres) CountData(ctx context.Context, templateID uuid.UUID, userID string) (int, error) {
	var count int
	err := p.db.QueryRowContext(ctx, `SELECT count(*) FROM `+p.table("template_data")+`
WHERE template_id=$1 AND user_id=$2;`, templateID, userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("cannot count data: %w", err)
	}
	return count, nil
}

// DeleteDataForTemplate implements Store
func (p *Postgres) DeleteDataForTemplate(ctx context.Context, templateID uuid.UUID, userID string) (int, error) {
	res, err := p.db.ExecContext(ctx, `DELETE FROM `+p.table("template_data")+`
WHERE template_id=$1 AND user_id=$2;`, templateID, userID)
	if err != nil {
		return 0, fmt.Errorf("cannot delete data: %w", err)
	}
	count, err := res.RowsAffected()
	return int(count), err
}

const dataColumns = `data_id, template_id, user_id, "values", created_at, updated_at`

func marshalValues(values map[string]interface{}) (string, error) {
	if values == nil {
		values = map[string]interface{}{}
	}
	body, err := json.Marshal(values)
	return string(body), err
}

// CreateData implements Store
func (p *Postgres) CreateData(ctx context.Context, d TemplateData) (TemplateData, error) {
	values, err := marshalValues(d.Values)
	if err != nil {
		return d, err
	}
	d.ID = uuid.New()
	d.CreatedAt = now()
	d.UpdatedAt = d.CreatedAt
	_, err = p.db.ExecContext(ctx, `INSERT INTO `+p.table("template_data")+`(`+dataColumns+`)
VALUES($1,$2,$3,$4,$5,$6);`, d.ID, d.TemplateID, d.UserID, values, d.CreatedAt, d.UpdatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "foreign_key_violation" {
			return d, ErrNotFound
		}
		return d, fmt.Errorf("cannot insert data: %w", err)
	}
	return d, nil
}

// ListData implements Store
func (p *Postgres) ListData(ctx context.Context, templateID uuid.UUID, userID string) ([]TemplateData, error) {
	rows, err := p.db.QueryContext(ctx, `SELECT `+dataColumns+` FROM `+p.table("template_data")+`
WHERE template_id=$1 AND user_id=$2 ORDER BY created_at DESC, data_id;`, templateID, userID)
	if err != nil {
		return nil, fmt.Errorf("cannot list data: %w", err)
	}
	defer rows.Close()
	data := []TemplateData{}
	for rows.Next() {
		d, err := scanData(rows)
		if err != nil {
			return nil, err
		}
		data = append(data, d)
	}
	return data, rows.Err()
}

// GetData implements Store
func (p *Postgres) GetData(ctx context.Context, templateID, id uuid.UUID, userID string) (TemplateData, error) {
	return scanData(p.db.QueryRowContext(ctx, `SELECT `+dataColumns+` FROM `+p.table("template_data")+`
WHERE data_id=$1 AND template_id=$2 AND user_id=$3;`, id, templateID, userID))
}

// UpdateData implements Store
func (p *Postgres) UpdateData(ctx context.Context, d TemplateData) (TemplateData, error) {
	values, err := marshalValues(d.Values)
	if err != nil {
		return d, err
	}
	return scanData(p.db.QueryRowContext(ctx, `UPDATE `+p.table("template_data")+`
SET "values"=$4, updated_at=$5
WHERE data_id=$1 AND template_id=$2 AND user_id=$3
RETURNING `+dataColumns+`;`, d.ID, d.TemplateID, d.UserID, values, now()))
}

// DeleteData implements Store
func (p *Postgres) DeleteData(ctx context.Context, templateID, id uuid.UUID, userID string) error {
	res, err := p.db.ExecContext(ctx, `DELETE FROM `+p.table("template_data")+`
WHERE data_id=$1 AND template_id=$2 AND user_id=$3;`, id, templateID, userID)
	if err != nil {
		return fmt.Errorf("cannot delete data: %w", err)
	}
	return expectOne(res)
}

func expectOne(res sql.Result) error {
	count, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrNotFound
	}
	return nil
}
