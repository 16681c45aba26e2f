package export

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/broker-reports/constants"
	"github.com/joseph-ayodele/broker-reports/internal/common"
	"github.com/joseph-ayodele/broker-reports/internal/repository"
	"github.com/joseph-ayodele/broker-reports/internal/statement"
)

func record(t *testing.T, name string) statement.PortfolioRecord {
	t.Helper()
	rec, err := statement.NewPortfolioRecord([]string{
		name, "RU0007661625", "RUB",
		"10", "1000,00", "100,00", "100,00", "0,00",
		"12", "1 320,50", "110,04", "110,04", "0,00",
		"2", "320,50", "2", "0", "12",
		"01.01.2023", "31.01.2023",
	})
	if err != nil {
		t.Fatalf("NewPortfolioRecord() error = %v", err)
	}
	return rec
}

func openWorkbook(t *testing.T, data []byte) *excelize.File {
	t.Helper()
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("OpenReader() error = %v", err)
	}
	t.Cleanup(func() { _ = f.Close() })
	return f
}

func TestExportRecordsXLSX(t *testing.T) {
	svc := NewService(nil, nil)
	data, err := svc.ExportRecordsXLSX(context.Background(), []statement.PortfolioRecord{
		record(t, "Газпром"),
		record(t, "Лукойл"),
	})
	if err != nil {
		t.Fatalf("ExportRecordsXLSX() error = %v", err)
	}

	f := openWorkbook(t, data)
	rows, err := f.GetRows(Sheet)
	if err != nil {
		t.Fatalf("GetRows() error = %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("len(rows) = %d, want 3", len(rows))
	}
	header := statement.PortfolioSchema.Fields()
	for i, h := range header {
		if rows[0][i] != h {
			t.Errorf("header[%d] = %q, want %q", i, rows[0][i], h)
		}
	}

	tests := []struct {
		cell string
		want string
	}{
		{"A2", "Газпром"},
		{"A3", "Лукойл"},
		{"B2", "RU0007661625"},
		{"D2", "10"},
		{"J2", "1320.5"},
		{"S2", "44927"}, // 2023-01-01 as a date serial
	}
	for _, tt := range tests {
		got, err := f.GetCellValue(Sheet, tt.cell, excelize.Options{RawCellValue: true})
		if err != nil {
			t.Fatalf("GetCellValue(%s) error = %v", tt.cell, err)
		}
		if got != tt.want {
			t.Errorf("%s = %q, want %q", tt.cell, got, tt.want)
		}
	}

	typ, err := f.GetCellType(Sheet, "D2")
	if err != nil {
		t.Fatal(err)
	}
	if typ == excelize.CellTypeSharedString || typ == excelize.CellTypeInlineString {
		t.Errorf("quantity cell stored as text (type %v)", typ)
	}
}

func TestExportRecordsXLSX_Empty(t *testing.T) {
	data, err := NewService(nil, nil).ExportRecordsXLSX(context.Background(), nil)
	if err != nil {
		t.Fatalf("ExportRecordsXLSX() error = %v", err)
	}
	rows, err := openWorkbook(t, data).GetRows(Sheet)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 {
		t.Errorf("len(rows) = %d, want header only", len(rows))
	}
}

func TestExportRunXLSX(t *testing.T) {
	ctx := context.Background()
	db, err := repository.Open(ctx, repository.Config{Driver: repository.DriverSQLite, DSN: ":memory:"}, nil)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(db.Close)
	if err := db.EnsureSchema(ctx); err != nil {
		t.Fatal(err)
	}
	repo := repository.NewStatementRepository(db, nil)
	runID := uuid.New()
	if _, err := repo.SaveDocument(ctx, repository.DocumentRow{
		RunID: runID, Name: "a.html", Status: constants.DocumentStatusParsed,
	}, []statement.PortfolioRecord{record(t, "Газпром")}); err != nil {
		t.Fatal(err)
	}
	if _, err := repo.SaveDocument(ctx, repository.DocumentRow{
		RunID: runID, Name: "b.html", Status: constants.DocumentStatusEmpty,
	}, nil); err != nil {
		t.Fatal(err)
	}

	data, err := NewService(repo, nil).ExportRunXLSX(ctx, runID)
	if err != nil {
		t.Fatalf("ExportRunXLSX() error = %v", err)
	}
	rows, err := openWorkbook(t, data).GetRows(Sheet)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 || rows[1][0] != "Газпром" {
		t.Errorf("rows = %v", rows)
	}

	if _, err := NewService(repo, nil).ExportRunXLSX(ctx, uuid.New()); !errors.Is(err, common.ErrNotFound) {
		t.Errorf("ExportRunXLSX() of unknown run error = %v, want ErrNotFound", err)
	}
	if _, err := NewService(nil, nil).ExportRunXLSX(ctx, runID); !errors.Is(err, common.ErrInternal) {
		t.Errorf("ExportRunXLSX() without repository error = %v, want ErrInternal", err)
	}
}
