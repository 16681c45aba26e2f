package export

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/broker-reports/internal/common"
	"github.com/joseph-ayodele/broker-reports/internal/repository"
	"github.com/joseph-ayodele/broker-reports/internal/schema"
	"github.com/joseph-ayodele/broker-reports/internal/statement"
)

// Sheet is the name of the worksheet holding portfolio records.
const Sheet = "Portfolio"

// Service produces XLSX bytes for portfolio records.
type Service struct {
	repo   repository.StatementRepository
	logger *slog.Logger
}

// NewService creates an export service. repo may be nil when only
// ExportRecordsXLSX is used.
func NewService(repo repository.StatementRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, logger: logger}
}

// ExportRunXLSX exports every record stored for a batch run.
func (s *Service) ExportRunXLSX(ctx context.Context, runID uuid.UUID) ([]byte, error) {
	if s.repo == nil {
		return nil, common.NewAppError("EXPORT_ERROR", "no repository configured", common.ErrInternal)
	}
	docs, err := s.repo.ListDocuments(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("query documents: %w", err)
	}
	if len(docs) == 0 {
		return nil, common.NewAppError("NOT_FOUND", "run "+runID.String(), common.ErrNotFound)
	}
	var recs []statement.PortfolioRecord
	for _, d := range docs {
		if d.RecordCount == 0 {
			continue
		}
		rs, err := s.repo.ListRecords(ctx, d.ID)
		if err != nil {
			return nil, fmt.Errorf("query records of %s: %w", d.Name, err)
		}
		recs = append(recs, rs...)
	}
	return s.ExportRecordsXLSX(ctx, recs)
}

// ExportRecordsXLSX returns a workbook with one header row of field names
// and one typed row per record.
func (s *Service) ExportRecordsXLSX(ctx context.Context, recs []statement.PortfolioRecord) ([]byte, error) {
	start := time.Now()
	sc := statement.PortfolioSchema

	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName("Sheet1", Sheet); err != nil {
		return nil, err
	}

	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}
	dateFmt := "dd.mm.yyyy"
	dateStyle, err := f.NewStyle(&excelize.Style{CustomNumFmt: &dateFmt})
	if err != nil {
		return nil, err
	}

	for i, name := range sc.Fields() {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(Sheet, cell, name); err != nil {
			return nil, err
		}
	}
	last, _ := excelize.CoordinatesToCellName(sc.Len(), 1)
	_ = f.SetCellStyle(Sheet, "A1", last, headerStyle)

	for r, rec := range recs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		row := r + 2
		for c, v := range rec.Tuple() {
			cell, _ := excelize.CoordinatesToCellName(c+1, row)
			if err := f.SetCellValue(Sheet, cell, cellValue(v)); err != nil {
				return nil, fmt.Errorf("write %s: %w", cell, err)
			}
			if sc.Field(c).Type == schema.Timestamp {
				_ = f.SetCellStyle(Sheet, cell, cell, dateStyle)
			}
		}
	}

	for i := 0; i < sc.Len(); i++ {
		col, _ := excelize.ColumnNumberToName(i + 1)
		_ = f.SetColWidth(Sheet, col, col, columnWidth(sc.Field(i)))
	}
	_ = f.SetPanes(Sheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"})

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"rows", len(recs),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

func cellValue(v any) any {
	if d, ok := v.(decimal.Decimal); ok {
		return d.InexactFloat64()
	}
	return v
}

func columnWidth(f schema.Field) float64 {
	switch {
	case f.Name == statement.FieldName:
		return 40
	case f.Type == schema.Text:
		return 16
	case f.Type == schema.Timestamp:
		return 12
	default:
		return 14
	}
}
