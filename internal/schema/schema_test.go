package schema

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

var testSchema = MustNew("test",
	Field{Name: "name", Type: Text},
	Field{Name: "qty", Type: Integer},
	Field{Name: "value", Type: Decimal},
	Field{Name: "date", Type: Timestamp},
)

func TestParseNumber(t *testing.T) {
	tests := []struct {
		in   string
		want string
		err  bool
	}{
		{"5 0,0", "50", false},
		{"50.0", "50", false},
		{"5  0,0  ", "50", false},
		{"1 000,25", "1000.25", false},
		{"1\u00a0234\u00a0567,89", "1234567.89", false},
		{"1 000", "1000", false},
		{"-12,5", "-12.5", false},
		{"\t42\n", "42", false},
		{"", "", true},
		{"   ", "", true},
		{",", "", true},
		{"abc", "", true},
		{"1,000,5", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseNumber(tt.in)
			if (err != nil) != tt.err {
				t.Fatalf("ParseNumber(%q) error = %v, wantErr %v", tt.in, err, tt.err)
			}
			if tt.err {
				return
			}
			if !got.Equal(decimal.RequireFromString(tt.want)) {
				t.Errorf("ParseNumber(%q) = %s, want %s", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
		err  bool
	}{
		{"01.02.2023", time.Date(2023, 2, 1, 0, 0, 0, 0, time.UTC), false},
		{"31.01.2023", time.Date(2023, 1, 31, 0, 0, 0, 0, time.UTC), false},
		{"1.2.2023", time.Date(2023, 2, 1, 0, 0, 0, 0, time.UTC), false},
		{"30.03.2020", time.Date(2020, 3, 30, 0, 0, 0, 0, time.UTC), false},
		{"05.06.21", time.Date(2021, 6, 5, 0, 0, 0, 0, time.UTC), false},
		{"05/06/2021", time.Date(2021, 6, 5, 0, 0, 0, 0, time.UTC), false},
		{"2021-06-05", time.Date(2021, 6, 5, 0, 0, 0, 0, time.UTC), false},
		{"отчет с 01.01.2023", time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC), false},
		{"дата: 15.03.2022 14:30", time.Date(2022, 3, 15, 14, 30, 0, 0, time.UTC), false},
		{"15.03.2022 09:05:07", time.Date(2022, 3, 15, 9, 5, 7, 0, time.UTC), false},
		{"5 января 2023", time.Date(2023, 1, 5, 0, 0, 0, 0, time.UTC), false},
		{"31.01.2023 (изм. 2023-02-05)", time.Date(2023, 1, 31, 0, 0, 0, 0, time.UTC), false},
		{"2023-02-05, ранее 31.01.2023", time.Date(2023, 2, 5, 0, 0, 0, 0, time.UTC), false},
		{"5 января 2023, выписка 10.02.2023", time.Date(2023, 1, 5, 0, 0, 0, 0, time.UTC), false},
		{"on 12 March 2024", time.Date(2024, 3, 12, 0, 0, 0, 0, time.UTC), false},
		{"31.02.2023", time.Time{}, true},
		{"13.13.2023", time.Time{}, true},
		{"no date here", time.Time{}, true},
		{"", time.Time{}, true},
		{"5 foo 2023", time.Time{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseDate(tt.in)
			if (err != nil) != tt.err {
				t.Fatalf("ParseDate(%q) error = %v, wantErr %v", tt.in, err, tt.err)
			}
			if !tt.err && !got.Equal(tt.want) {
				t.Errorf("ParseDate(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestSchemaNew(t *testing.T) {
	r, err := testSchema.New([]string{"Газпром", "1 0", "1 000,50", "31.01.2023"})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if got := r.Text("name"); got != "Газпром" {
		t.Errorf("name = %q", got)
	}
	if got := r.Int("qty"); got != 10 {
		t.Errorf("qty = %d, want 10", got)
	}
	if got := r.Decimal("value"); !got.Equal(decimal.RequireFromString("1000.5")) {
		t.Errorf("value = %s, want 1000.5", got)
	}
	if got := r.Time("date"); !got.Equal(time.Date(2023, 1, 31, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("date = %v", got)
	}
}

func TestSchemaNew_TextIsVerbatim(t *testing.T) {
	r, err := testSchema.New([]string{"  ОФЗ 26238\\n(выпуск 1) ", "0", "0", "01.01.2020"})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if got := r.Text("name"); got != "  ОФЗ 26238\\n(выпуск 1) " {
		t.Errorf("name = %q, want verbatim input", got)
	}
}

func TestSchemaNew_IntegerTruncates(t *testing.T) {
	for in, want := range map[string]int64{"2,0": 2, "2,9": 2, "-2,9": -2, "1 000": 1000} {
		r, err := testSchema.New([]string{"x", in, "0", "01.01.2020"})
		if err != nil {
			t.Fatalf("New(%q) error = %v", in, err)
		}
		if got := r.Int("qty"); got != want {
			t.Errorf("qty(%q) = %d, want %d", in, got, want)
		}
	}
}

func TestSchemaNew_CoercionError(t *testing.T) {
	tests := []struct {
		values []string
		field  string
		raw    string
	}{
		{[]string{"x", "abc", "0", "01.01.2020"}, "qty", "abc"},
		{[]string{"x", "1", ",", "01.01.2020"}, "value", ","},
		{[]string{"x", "1", "a,b", "01.01.2020"}, "value", "a,b"},
		{[]string{"x", "1", "1", "yesterday"}, "date", "yesterday"},
		{[]string{"x", "99999999999999999999", "1", "01.01.2020"}, "qty", "99999999999999999999"},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			_, err := testSchema.New(tt.values)
			var ce *CoercionError
			if !errors.As(err, &ce) {
				t.Fatalf("New() error = %v, want *CoercionError", err)
			}
			if ce.Field != tt.field || ce.Raw != tt.raw {
				t.Errorf("CoercionError = {%s %q}, want {%s %q}", ce.Field, ce.Raw, tt.field, tt.raw)
			}
			if ce.Unwrap() == nil {
				t.Error("CoercionError does not wrap the parse failure")
			}
		})
	}
}

func TestSchemaNew_Arity(t *testing.T) {
	_, err := testSchema.New([]string{"x"})
	var ae *ArityError
	if !errors.As(err, &ae) {
		t.Fatalf("New() error = %v, want *ArityError", err)
	}
	if ae.Got != 1 || ae.Want != 4 {
		t.Errorf("ArityError = %+v", ae)
	}
}

func TestRecordRoundTrip(t *testing.T) {
	r, err := testSchema.New([]string{"name1", "7", "5 0,0", "30.03.2020"})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	again, err := testSchema.FromTuple(r.Tuple())
	if err != nil {
		t.Fatalf("FromTuple() error = %v", err)
	}
	if !again.Equal(r) {
		t.Errorf("FromTuple(Tuple()) = %v, want %v", again, r)
	}
	fields := again.Fields()
	for i, name := range r.Fields() {
		if fields[i] != name {
			t.Errorf("field %d = %q, want %q", i, fields[i], name)
		}
	}
}

func TestFromTuple_MixedValues(t *testing.T) {
	r, err := testSchema.FromTuple([]any{"name1", 0.0, "4,0", time.Date(2020, 3, 30, 0, 0, 0, 0, time.UTC)})
	if err != nil {
		t.Fatalf("FromTuple() error = %v", err)
	}
	if r.Int("qty") != 0 || !r.Decimal("value").Equal(decimal.NewFromInt(4)) {
		t.Errorf("FromTuple() = %v", r)
	}

	_, err = testSchema.FromTuple([]any{"name1", true, "1", "01.01.2020"})
	if !errors.Is(err, ErrUnsupportedValue) {
		t.Errorf("FromTuple(bool) error = %v, want ErrUnsupportedValue", err)
	}
}

func TestTupleIsACopy(t *testing.T) {
	r, _ := testSchema.New([]string{"a", "1", "1", "01.01.2020"})
	tup := r.Tuple()
	tup[0] = "changed"
	if r.Text("name") != "a" {
		t.Error("mutating Tuple() changed the record")
	}
}

func TestNewSchema_Invalid(t *testing.T) {
	if _, err := New("dup", Field{Name: "a"}, Field{Name: "a"}); err == nil {
		t.Error("New() accepted duplicate fields")
	}
	if _, err := New("empty"); err == nil {
		t.Error("New() accepted an empty schema")
	}
	if _, err := New("blank", Field{Name: " "}); err == nil {
		t.Error("New() accepted a blank field name")
	}
}

func TestSchemaIndex(t *testing.T) {
	if got := testSchema.Index("value"); got != 2 {
		t.Errorf("Index(value) = %d, want 2", got)
	}
	if got := testSchema.Index("missing"); got != -1 {
		t.Errorf("Index(missing) = %d, want -1", got)
	}
}
