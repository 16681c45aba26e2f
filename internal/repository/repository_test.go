package repository

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/broker-reports/constants"
	"github.com/joseph-ayodele/broker-reports/internal/common"
	"github.com/joseph-ayodele/broker-reports/internal/statement"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(context.Background(), Config{Driver: DriverSQLite, DSN: ":memory:"}, nil)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(db.Close)
	if err := db.EnsureSchema(context.Background()); err != nil {
		t.Fatalf("EnsureSchema() error = %v", err)
	}
	return db
}

func testRecord(t *testing.T, name, isin string) statement.PortfolioRecord {
	t.Helper()
	rec, err := statement.NewPortfolioRecord([]string{
		name, isin, "RUB",
		"10", "1 500,50", "150,05", "150,05", "0",
		"12", "1 812,00", "151", "151", "0,12",
		"2", "311,5", "0", "0", "12",
		"01.01.2023", "31.01.2023",
	})
	if err != nil {
		t.Fatalf("NewPortfolioRecord() error = %v", err)
	}
	return rec
}

func TestOpen_UnsupportedDriver(t *testing.T) {
	if _, err := Open(context.Background(), Config{Driver: "mysql"}, nil); err == nil {
		t.Error("Open(mysql) succeeded")
	}
}

func TestHealthCheck(t *testing.T) {
	db := openTestDB(t)
	if err := db.HealthCheck(context.Background(), time.Second); err != nil {
		t.Errorf("HealthCheck() error = %v", err)
	}
}

func TestEnsureSchema_Idempotent(t *testing.T) {
	db := openTestDB(t)
	if err := db.EnsureSchema(context.Background()); err != nil {
		t.Errorf("second EnsureSchema() error = %v", err)
	}
}

func TestSaveDocument_RoundTrip(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	repo := NewStatementRepository(db, nil)

	runID := uuid.New()
	from := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2023, 1, 31, 0, 0, 0, 0, time.UTC)
	records := []statement.PortfolioRecord{
		testRecord(t, "Газпром ПАО, ао", "RU0007661625"),
		testRecord(t, "Сбербанк ПАО, ао", "RU0009029540"),
	}

	saved, err := repo.SaveDocument(ctx, DocumentRow{
		RunID:      runID,
		Name:       "report.html",
		Heading:    "Отчет брокера за период с 01.01.2023 по 31.01.2023",
		PeriodFrom: from,
		PeriodTo:   to,
		Status:     constants.DocumentStatusParsed,
	}, records)
	if err != nil {
		t.Fatalf("SaveDocument() error = %v", err)
	}
	if saved.ID == uuid.Nil || saved.RecordCount != 2 || saved.CreatedAt.IsZero() {
		t.Errorf("SaveDocument() = %+v", saved)
	}

	if _, err := repo.SaveDocument(ctx, DocumentRow{
		RunID:  runID,
		Name:   "broken.html",
		Status: constants.DocumentStatusFailed,
		Error:  "heading not found",
	}, nil); err != nil {
		t.Fatalf("SaveDocument(failed) error = %v", err)
	}

	docs, err := repo.ListDocuments(ctx, runID)
	if err != nil {
		t.Fatalf("ListDocuments() error = %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("len(ListDocuments()) = %d, want 2", len(docs))
	}
	var parsed, failed DocumentRow
	for _, d := range docs {
		switch d.Name {
		case "report.html":
			parsed = d
		case "broken.html":
			failed = d
		}
	}
	if parsed.ID != saved.ID || parsed.RunID != runID || !parsed.PeriodFrom.Equal(from) || !parsed.PeriodTo.Equal(to) {
		t.Errorf("parsed document = %+v", parsed)
	}
	if failed.Status != constants.DocumentStatusFailed || !failed.PeriodFrom.IsZero() || failed.Error != "heading not found" {
		t.Errorf("failed document = %+v", failed)
	}

	got, err := repo.ListRecords(ctx, saved.ID)
	if err != nil {
		t.Fatalf("ListRecords() error = %v", err)
	}
	if len(got) != len(records) {
		t.Fatalf("len(ListRecords()) = %d, want %d", len(got), len(records))
	}
	for i := range records {
		if !got[i].Equal(records[i]) {
			t.Errorf("record %d = %v, want %v", i, got[i], records[i])
		}
	}

	other, err := repo.ListDocuments(ctx, uuid.New())
	if err != nil || len(other) != 0 {
		t.Errorf("ListDocuments(other run) = %v, %v", other, err)
	}
}

func TestSaveDocument_DuplicateID(t *testing.T) {
	ctx := context.Background()
	repo := NewStatementRepository(openTestDB(t), nil)
	row := DocumentRow{ID: uuid.New(), RunID: uuid.New(), Name: "a.html", Status: constants.DocumentStatusEmpty}
	if _, err := repo.SaveDocument(ctx, row, nil); err != nil {
		t.Fatalf("SaveDocument() error = %v", err)
	}
	_, err := repo.SaveDocument(ctx, row, []statement.PortfolioRecord{testRecord(t, "x", "y")})
	if !errors.Is(err, common.ErrDatabase) {
		t.Errorf("SaveDocument(duplicate) error = %v, want ErrDatabase", err)
	}
	recs, err := repo.ListRecords(ctx, row.ID)
	if err != nil || len(recs) != 0 {
		t.Errorf("rolled back records = %v, %v", recs, err)
	}
}

func TestBuilder_Dialects(t *testing.T) {
	pg := &DB{Driver: DriverPostgres, entDialect: dialect.Postgres}
	q, args := pg.builder().Insert("t").Columns("a", "b").Values(1, "x").Query()
	if q != `INSERT INTO "t" ("a", "b") VALUES ($1, $2)` || len(args) != 2 {
		t.Errorf("postgres insert = %q %v", q, args)
	}
	lite := &DB{Driver: DriverSQLite, entDialect: dialect.SQLite}
	q, _ = lite.builder().Insert("t").Columns("a", "b").Values(1, "x").Query()
	if q != "INSERT INTO `t` (`a`, `b`) VALUES (?, ?)" {
		t.Errorf("sqlite insert = %q", q)
	}

	b := pg.builder()
	q, args = b.Select("id").From(b.Table(documentsTable)).Where(entsql.EQ("run_id", "r")).Query()
	if !strings.Contains(q, `WHERE "run_id" = $1`) || len(args) != 1 {
		t.Errorf("postgres select = %q %v", q, args)
	}
}

func TestTables_Definition(t *testing.T) {
	tables := (&DB{Driver: DriverPostgres, entDialect: dialect.Postgres}).tables()
	if len(tables) != 2 {
		t.Fatalf("tables() = %d, want 2", len(tables))
	}
	records := tables[1]
	if records.Name != recordsTable || len(records.PrimaryKey) != 2 {
		t.Fatalf("records table = %s with %d key columns", records.Name, len(records.PrimaryKey))
	}
	if len(records.ForeignKeys) != 1 || records.ForeignKeys[0].RefTable != tables[0] {
		t.Errorf("records foreign keys = %+v", records.ForeignKeys)
	}
	for _, f := range statement.PortfolioSchema.Fields() {
		if !records.HasColumn(column(f)) {
			t.Errorf("records table missing column %q", column(f))
		}
	}
	c, _ := records.Column(column(statement.FieldISIN))
	if c.SchemaType[dialect.Postgres] != "text" {
		t.Errorf("isin type = %v", c.SchemaType)
	}
}

func TestEnsureSchema_CascadeDelete(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	repo := NewStatementRepository(db, nil)
	row, err := repo.SaveDocument(ctx, DocumentRow{RunID: uuid.New(), Name: "a.html", Status: constants.DocumentStatusParsed},
		[]statement.PortfolioRecord{testRecord(t, "a", "b")})
	if err != nil {
		t.Fatal(err)
	}
	q, args := db.builder().Delete(documentsTable).Where(entsql.EQ("id", row.ID.String())).Query()
	if _, err := db.SQL.ExecContext(ctx, q, args...); err != nil {
		t.Fatalf("delete document: %v", err)
	}
	docs, recs, err := db.Counts(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if docs != 0 || recs != 0 {
		t.Errorf("Counts() after delete = %d, %d, want 0, 0", docs, recs)
	}
}

func TestCounts(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	repo := NewStatementRepository(db, nil)
	if _, err := repo.SaveDocument(ctx, DocumentRow{RunID: uuid.New(), Name: "a.html", Status: constants.DocumentStatusParsed},
		[]statement.PortfolioRecord{testRecord(t, "a", "b"), testRecord(t, "c", "d")}); err != nil {
		t.Fatal(err)
	}
	docs, recs, err := db.Counts(ctx)
	if err != nil {
		t.Fatalf("Counts() error = %v", err)
	}
	if docs != 1 || recs != 2 {
		t.Errorf("Counts() = %d, %d, want 1, 2", docs, recs)
	}
}

func TestConfigFrom(t *testing.T) {
	cfg := ConfigFrom(common.DatabaseConfig{Driver: DriverPostgres, DSN: "postgres://x", MaxConns: 7, DialTimeout: time.Second})
	if cfg.Driver != DriverPostgres || cfg.DSN != "postgres://x" || cfg.MaxConns != 7 || cfg.DialTimeout != time.Second {
		t.Errorf("ConfigFrom() = %+v", cfg)
	}
}
