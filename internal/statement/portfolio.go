package statement

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/joseph-ayodele/broker-reports/internal/schema"
)

// Portfolio field names, in table column order.
const (
	FieldName                    = "name"
	FieldISIN                    = "ISIN"
	FieldMarketPriceCurrency     = "market_price_currency"
	FieldQuantityStart           = "quantity_start"
	FieldValueStart              = "value_start"
	FieldMarketPriceStart        = "market_price_start"
	FieldMarketPriceStartWoNKD   = "market_price_start_wonkd"
	FieldNKDStart                = "nkd_start"
	FieldQuantityEnd             = "quantity_end"
	FieldValueEnd                = "value_end"
	FieldMarketPriceEnd          = "market_price_end"
	FieldMarketPriceEndWoNKD     = "market_price_end_wonkd"
	FieldNKDEnd                  = "nkd_end"
	FieldAmountPeriod            = "amount_period"
	FieldMarketValuePeriod       = "market_value_period"
	FieldCreditForTransaction    = "credit_for_transaction"
	FieldWriteoffsForTransaction = "writeoffs_for_transaction"
	FieldOutgoingBalance         = "outgoing_balance"
	FieldPeriodFrom              = "period_from"
	FieldPeriodTo                = "period_to"
)

// PortfolioSchema is the layout of one "Портфель Ценных Бумаг" row. The last
// two fields are not table cells: they come from the document heading.
var PortfolioSchema = schema.MustNew("portfolio",
	schema.Field{Name: FieldName, Type: schema.Text},
	schema.Field{Name: FieldISIN, Type: schema.Text},
	schema.Field{Name: FieldMarketPriceCurrency, Type: schema.Text},
	schema.Field{Name: FieldQuantityStart, Type: schema.Integer},
	schema.Field{Name: FieldValueStart, Type: schema.Decimal},
	schema.Field{Name: FieldMarketPriceStart, Type: schema.Decimal},
	schema.Field{Name: FieldMarketPriceStartWoNKD, Type: schema.Decimal},
	schema.Field{Name: FieldNKDStart, Type: schema.Decimal},
	schema.Field{Name: FieldQuantityEnd, Type: schema.Integer},
	schema.Field{Name: FieldValueEnd, Type: schema.Decimal},
	schema.Field{Name: FieldMarketPriceEnd, Type: schema.Decimal},
	schema.Field{Name: FieldMarketPriceEndWoNKD, Type: schema.Decimal},
	schema.Field{Name: FieldNKDEnd, Type: schema.Decimal},
	schema.Field{Name: FieldAmountPeriod, Type: schema.Integer},
	schema.Field{Name: FieldMarketValuePeriod, Type: schema.Decimal},
	schema.Field{Name: FieldCreditForTransaction, Type: schema.Integer},
	schema.Field{Name: FieldWriteoffsForTransaction, Type: schema.Integer},
	schema.Field{Name: FieldOutgoingBalance, Type: schema.Integer},
	schema.Field{Name: FieldPeriodFrom, Type: schema.Timestamp},
	schema.Field{Name: FieldPeriodTo, Type: schema.Timestamp},
)

// syntheticFields is the number of trailing fields that are not table cells.
const syntheticFields = 2

// CellCount is the number of cells a portfolio row must have.
func CellCount() int {
	return PortfolioSchema.Len() - syntheticFields
}

// PortfolioRecord is one security line of the portfolio table.
type PortfolioRecord struct {
	schema.Record
}

// NewPortfolioRecord coerces 18 cells plus the two period boundaries.
func NewPortfolioRecord(values []string) (PortfolioRecord, error) {
	r, err := PortfolioSchema.New(values)
	if err != nil {
		return PortfolioRecord{}, err
	}
	return PortfolioRecord{r}, nil
}

// PortfolioRecordFromTuple rebuilds a record from its Tuple view.
func PortfolioRecordFromTuple(values []any) (PortfolioRecord, error) {
	r, err := PortfolioSchema.FromTuple(values)
	if err != nil {
		return PortfolioRecord{}, err
	}
	return PortfolioRecord{r}, nil
}

func (p PortfolioRecord) Name() string                { return p.Text(FieldName) }
func (p PortfolioRecord) ISIN() string                { return p.Text(FieldISIN) }
func (p PortfolioRecord) MarketPriceCurrency() string { return p.Text(FieldMarketPriceCurrency) }

func (p PortfolioRecord) QuantityStart() int64 { return p.Int(FieldQuantityStart) }
func (p PortfolioRecord) QuantityEnd() int64   { return p.Int(FieldQuantityEnd) }
func (p PortfolioRecord) AmountPeriod() int64  { return p.Int(FieldAmountPeriod) }

func (p PortfolioRecord) ValueStart() decimal.Decimal        { return p.Decimal(FieldValueStart) }
func (p PortfolioRecord) ValueEnd() decimal.Decimal          { return p.Decimal(FieldValueEnd) }
func (p PortfolioRecord) MarketPriceStart() decimal.Decimal  { return p.Decimal(FieldMarketPriceStart) }
func (p PortfolioRecord) MarketPriceEnd() decimal.Decimal    { return p.Decimal(FieldMarketPriceEnd) }
func (p PortfolioRecord) NKDStart() decimal.Decimal          { return p.Decimal(FieldNKDStart) }
func (p PortfolioRecord) NKDEnd() decimal.Decimal            { return p.Decimal(FieldNKDEnd) }
func (p PortfolioRecord) MarketValuePeriod() decimal.Decimal { return p.Decimal(FieldMarketValuePeriod) }

func (p PortfolioRecord) CreditForTransaction() int64    { return p.Int(FieldCreditForTransaction) }
func (p PortfolioRecord) WriteoffsForTransaction() int64 { return p.Int(FieldWriteoffsForTransaction) }
func (p PortfolioRecord) OutgoingBalance() int64         { return p.Int(FieldOutgoingBalance) }

func (p PortfolioRecord) PeriodFrom() time.Time { return p.Time(FieldPeriodFrom) }
func (p PortfolioRecord) PeriodTo() time.Time   { return p.Time(FieldPeriodTo) }

// Equal compares two portfolio records by value.
func (p PortfolioRecord) Equal(o PortfolioRecord) bool {
	return p.Record.Equal(o.Record)
}
