package repository

import (
	"context"
	"fmt"
	"strings"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	entschema "entgo.io/ent/dialect/sql/schema"
	"entgo.io/ent/schema/field"

	"github.com/joseph-ayodele/broker-reports/internal/schema"
	"github.com/joseph-ayodele/broker-reports/internal/statement"
)

const (
	documentsTable = "statement_documents"
	recordsTable   = "portfolio_records"
)

// EnsureSchema creates the tables if they do not exist yet. Running it against
// an up-to-date database is a no-op.
func (d *DB) EnsureSchema(ctx context.Context) error {
	m, err := entschema.NewMigrate(entsql.OpenDB(d.entDialect, d.SQL))
	if err != nil {
		d.logger.Error("failed to create schema", "error", err)
		return fmt.Errorf("ensure schema: %w", err)
	}
	if err := m.Create(ctx, d.tables()...); err != nil {
		d.logger.Error("failed to create schema", "error", err)
		return fmt.Errorf("ensure schema: %w", err)
	}
	d.logger.Debug("schema ready", "driver", d.Driver)
	return nil
}

func (d *DB) tables() []*entschema.Table {
	docID := idColumn("id")
	docs := entschema.NewTable(documentsTable).
		AddPrimary(docID).
		AddColumn(idColumn("run_id")).
		AddColumn(textColumn("name")).
		AddColumn(withDefault(textColumn("heading"), "")).
		AddColumn(nullable(timeColumn("period_from"))).
		AddColumn(nullable(timeColumn("period_to"))).
		AddColumn(textColumn("status")).
		AddColumn(withDefault(&entschema.Column{Name: "record_count", Type: field.TypeInt64}, 0)).
		AddColumn(withDefault(textColumn("error"), "")).
		AddColumn(timeColumn("created_at"))
	docs.AddIndex("idx_"+documentsTable+"_run", false, []string{"run_id"})

	recDocID := idColumn("document_id")
	position := &entschema.Column{Name: "position", Type: field.TypeInt64}
	records := entschema.NewTable(recordsTable).
		AddColumn(recDocID).
		AddColumn(position)
	for i := 0; i < statement.PortfolioSchema.Len(); i++ {
		f := statement.PortfolioSchema.Field(i)
		records.AddColumn(fieldColumn(f.Name, f.Type))
	}
	records.PrimaryKey = []*entschema.Column{recDocID, position}
	records.AddForeignKey(&entschema.ForeignKey{
		Symbol:     recordsTable + "_document",
		Columns:    []*entschema.Column{recDocID},
		RefTable:   docs,
		RefColumns: []*entschema.Column{docID},
		OnDelete:   entschema.Cascade,
	})
	records.AddIndex("idx_"+recordsTable+"_isin", false, []string{column(statement.FieldISIN)})

	return []*entschema.Table{docs, records}
}

// fieldColumn maps a field type to a column. SQLite keeps decimals and
// timestamps as text so values round-trip exactly.
func fieldColumn(name string, t schema.Type) *entschema.Column {
	switch t {
	case schema.Integer:
		return &entschema.Column{Name: column(name), Type: field.TypeInt64}
	case schema.Decimal:
		return &entschema.Column{
			Name:       column(name),
			Type:       field.TypeOther,
			SchemaType: map[string]string{dialect.Postgres: "numeric", dialect.SQLite: "text"},
		}
	case schema.Timestamp:
		return timeColumn(column(name))
	default:
		return textColumn(column(name))
	}
}

func idColumn(name string) *entschema.Column {
	return &entschema.Column{
		Name:       name,
		Type:       field.TypeString,
		SchemaType: map[string]string{dialect.Postgres: "uuid", dialect.SQLite: "text"},
	}
}

func textColumn(name string) *entschema.Column {
	return &entschema.Column{
		Name:       name,
		Type:       field.TypeString,
		SchemaType: map[string]string{dialect.Postgres: "text", dialect.SQLite: "text"},
	}
}

func timeColumn(name string) *entschema.Column {
	return &entschema.Column{
		Name:       name,
		Type:       field.TypeTime,
		SchemaType: map[string]string{dialect.Postgres: "timestamptz", dialect.SQLite: "text"},
	}
}

func nullable(c *entschema.Column) *entschema.Column {
	c.Nullable = true
	return c
}

func withDefault(c *entschema.Column, v any) *entschema.Column {
	c.Default = v
	return c
}

func column(field string) string {
	return strings.ToLower(field)
}
