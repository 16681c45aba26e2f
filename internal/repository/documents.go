package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/joseph-ayodele/broker-reports/constants"
	"github.com/joseph-ayodele/broker-reports/internal/common"
	"github.com/joseph-ayodele/broker-reports/internal/schema"
	"github.com/joseph-ayodele/broker-reports/internal/statement"
)

// DocumentRow is one parsed attachment as stored.
type DocumentRow struct {
	ID          uuid.UUID
	RunID       uuid.UUID
	Name        string
	Heading     string
	PeriodFrom  time.Time // zero when the period is unknown
	PeriodTo    time.Time
	Status      constants.DocumentStatus
	RecordCount int
	Error       string
	CreatedAt   time.Time
}

type StatementRepository interface {
	// SaveDocument stores a document and its records in one transaction.
	SaveDocument(ctx context.Context, row DocumentRow, records []statement.PortfolioRecord) (DocumentRow, error)
	ListDocuments(ctx context.Context, runID uuid.UUID) ([]DocumentRow, error)
	ListRecords(ctx context.Context, documentID uuid.UUID) ([]statement.PortfolioRecord, error)
}

type statementRepo struct {
	db     *DB
	logger *slog.Logger
}

func NewStatementRepository(db *DB, logger *slog.Logger) StatementRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &statementRepo{db: db, logger: logger}
}

func (r *statementRepo) SaveDocument(ctx context.Context, row DocumentRow, records []statement.PortfolioRecord) (DocumentRow, error) {
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}
	row.RecordCount = len(records)

	tx, err := r.db.SQL.BeginTx(ctx, nil)
	if err != nil {
		return DocumentRow{}, common.DatabaseError("begin transaction", err)
	}
	defer func() { _ = tx.Rollback() }()

	q, args := r.db.builder().Insert(documentsTable).
		Columns(documentColumns...).
		Values(
			row.ID.String(), row.RunID.String(), row.Name, row.Heading,
			r.timeArg(row.PeriodFrom), r.timeArg(row.PeriodTo),
			string(row.Status), row.RecordCount, row.Error, r.timeArg(row.CreatedAt),
		).
		Query()
	if _, err = tx.ExecContext(ctx, q, args...); err != nil {
		r.logger.Error("failed to insert document", "document", row.Name, "error", err)
		return DocumentRow{}, common.DatabaseError("insert document", err)
	}

	if len(records) > 0 {
		cols := recordColumns()
		for i, rec := range records {
			q, args := r.db.builder().Insert(recordsTable).
				Columns(cols...).
				Values(append([]any{row.ID.String(), i}, r.recordArgs(rec)...)...).
				Query()
			if _, err := tx.ExecContext(ctx, q, args...); err != nil {
				r.logger.Error("failed to insert record", "document", row.Name, "position", i, "error", err)
				return DocumentRow{}, common.DatabaseError("insert record", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return DocumentRow{}, common.DatabaseError("commit document", err)
	}
	r.logger.Debug("repository.document.saved", "document", row.Name, "id", row.ID, "records", row.RecordCount)
	return row, nil
}

func (r *statementRepo) ListDocuments(ctx context.Context, runID uuid.UUID) ([]DocumentRow, error) {
	b := r.db.builder()
	q, args := b.Select(documentColumns...).
		From(b.Table(documentsTable)).
		Where(entsql.EQ("run_id", runID.String())).
		OrderBy("created_at", "name").
		Query()
	rows, err := r.db.SQL.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, common.DatabaseError("list documents", err)
	}
	defer rows.Close()

	var out []DocumentRow
	for rows.Next() {
		var (
			d                   DocumentRow
			status              string
			from, to, createdAt sql.NullString
		)
		if err := rows.Scan(&d.ID, &d.RunID, &d.Name, &d.Heading, &from, &to, &status, &d.RecordCount, &d.Error, &createdAt); err != nil {
			return nil, common.DatabaseError("scan document", err)
		}
		d.Status = constants.DocumentStatus(status)
		if d.PeriodFrom, err = parseTime(from); err != nil {
			return nil, common.DatabaseError("scan document", err)
		}
		if d.PeriodTo, err = parseTime(to); err != nil {
			return nil, common.DatabaseError("scan document", err)
		}
		if d.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, common.DatabaseError("scan document", err)
		}
		out = append(out, d)
	}
	return out, common.DatabaseError("list documents", rows.Err())
}

func (r *statementRepo) ListRecords(ctx context.Context, documentID uuid.UUID) ([]statement.PortfolioRecord, error) {
	s := statement.PortfolioSchema
	cols := make([]string, s.Len())
	for i := range cols {
		cols[i] = column(s.Field(i).Name)
	}
	b := r.db.builder()
	q, args := b.Select(cols...).
		From(b.Table(recordsTable)).
		Where(entsql.EQ("document_id", documentID.String())).
		OrderBy("position").
		Query()
	rows, err := r.db.SQL.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, common.DatabaseError("list records", err)
	}
	defer rows.Close()

	var out []statement.PortfolioRecord
	for rows.Next() {
		dest := make([]any, s.Len())
		for i := range dest {
			switch s.Field(i).Type {
			case schema.Integer:
				dest[i] = new(int64)
			case schema.Decimal:
				dest[i] = new(decimal.Decimal)
			default:
				dest[i] = new(string)
			}
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, common.DatabaseError("scan record", err)
		}
		tuple := make([]any, s.Len())
		for i, p := range dest {
			switch v := p.(type) {
			case *int64:
				tuple[i] = *v
			case *decimal.Decimal:
				tuple[i] = *v
			case *string:
				if s.Field(i).Type == schema.Timestamp {
					t, err := time.Parse(time.RFC3339Nano, *v)
					if err != nil {
						return nil, common.DatabaseError("scan record", err)
					}
					tuple[i] = t.UTC()
					continue
				}
				tuple[i] = *v
			}
		}
		rec, err := statement.PortfolioRecordFromTuple(tuple)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, common.DatabaseError("list records", rows.Err())
}

var documentColumns = []string{
	"id", "run_id", "name", "heading", "period_from", "period_to",
	"status", "record_count", "error", "created_at",
}

func recordColumns() []string {
	cols := []string{"document_id", "position"}
	for _, f := range statement.PortfolioSchema.Fields() {
		cols = append(cols, column(f))
	}
	return cols
}

func (r *statementRepo) recordArgs(rec statement.PortfolioRecord) []any {
	args := rec.Tuple()
	for i, v := range args {
		if t, ok := v.(time.Time); ok {
			args[i] = r.timeArg(t)
		}
	}
	return args
}

// timeArg binds a timestamp. SQLite stores RFC 3339 text; zero means NULL.
func (r *statementRepo) timeArg(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	if r.db.Driver == DriverPostgres {
		return t.UTC()
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s sql.NullString) (time.Time, error) {
	if !s.Valid || s.String == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339Nano, s.String)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}
