package wavecap

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// ---------------------------------------------------------------------------
// Chart intervals
// ---------------------------------------------------------------------------

// Interval is the time granularity of a requested price series.
type Interval string

const (
	IntervalIntraday Interval = "intraday"
	IntervalDay      Interval = "day"
	IntervalMonth    Interval = "month"
	IntervalYear     Interval = "year"
)

// Intervals lists every interval in selector order.
var Intervals = []Interval{IntervalIntraday, IntervalDay, IntervalMonth, IntervalYear}

// Path returns the path segment the backend expects for the interval.
func (i Interval) Path() string {
	switch i {
	case IntervalIntraday:
		return "minutes"
	case IntervalMonth:
		return "months"
	case IntervalYear:
		return "years"
	default:
		return "days"
	}
}

// ParseInterval accepts both the client names (intraday, day, month, year)
// and the backend path names (minutes, days, months, years).
func ParseInterval(s string) (Interval, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "intraday", "minutes", "minute":
		return IntervalIntraday, nil
	case "day", "days":
		return IntervalDay, nil
	case "month", "months":
		return IntervalMonth, nil
	case "year", "years":
		return IntervalYear, nil
	}
	return "", fmt.Errorf("unknown interval %q", s)
}

// ---------------------------------------------------------------------------
// Loosely typed JSON scalars
// ---------------------------------------------------------------------------

// Scalar holds a JSON string or number in textual form. The backend is not
// consistent about which it sends for labels and identifiers.
type Scalar string

func (s *Scalar) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case bytes.Equal(b, []byte("null")):
		*s = ""
		return nil
	case len(b) > 0 && b[0] == '"':
		var str string
		if err := json.Unmarshal(b, &str); err != nil {
			return err
		}
		*s = Scalar(str)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("scalar: %w", err)
	}
	*s = Scalar(n.String())
	return nil
}

// Value is an optional metric. It may be absent, a number, or free text.
type Value struct {
	present bool
	num     float64
	isNum   bool
	text    string
}

// Num returns a present numeric Value.
func Num(f float64) Value {
	return Value{present: true, num: f, isNum: true, text: strconv.FormatFloat(f, 'f', -1, 64)}
}

// Text returns a present textual Value. Numeric strings are also readable
// through Float.
func Text(s string) Value {
	v := Value{present: true, text: s}
	if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
		v.num, v.isNum = f, true
	}
	return v
}

func (v *Value) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*v = Value{}
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		if strings.TrimSpace(s) == "" {
			*v = Value{}
			return nil
		}
		*v = Text(s)
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		// Booleans and objects carry nothing displayable.
		*v = Value{}
		return nil
	}
	*v = Num(f)
	return nil
}

func (v Value) MarshalJSON() ([]byte, error) {
	switch {
	case !v.present:
		return []byte("null"), nil
	case v.isNum && v.text == strconv.FormatFloat(v.num, 'f', -1, 64):
		return json.Marshal(v.num)
	default:
		return json.Marshal(v.text)
	}
}

// Valid reports whether the backend supplied a value.
func (v Value) Valid() bool { return v.present }

// Float returns the numeric reading of v, if it has one.
func (v Value) Float() (float64, bool) { return v.num, v.present && v.isNum }

// String returns the value as sent, or "" when absent.
func (v Value) String() string { return v.text }

// Amount is a simulation money or ratio field. The backend usually sends a
// number, but display text such as "0%" is passed through untouched.
type Amount struct {
	present bool
	dec     decimal.Decimal
	isNum   bool
	text    string
}

// Dec returns a present numeric Amount.
func Dec(d decimal.Decimal) Amount {
	return Amount{present: true, dec: d, isNum: true, text: d.String()}
}

func (a *Amount) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	*a = Amount{}
	if bytes.Equal(b, []byte("null")) {
		return nil
	}
	raw := string(b)
	if len(b) > 0 && b[0] == '"' {
		if err := json.Unmarshal(b, &raw); err != nil {
			return err
		}
		if strings.TrimSpace(raw) == "" {
			return nil
		}
	} else if _, err := strconv.ParseFloat(raw, 64); err != nil {
		// Booleans and objects carry nothing displayable.
		return nil
	}
	a.present, a.text = true, raw
	if d, err := decimal.NewFromString(strings.TrimSpace(raw)); err == nil {
		a.dec, a.isNum = d, true
	}
	return nil
}

func (a Amount) MarshalJSON() ([]byte, error) {
	switch {
	case !a.present:
		return []byte("null"), nil
	case a.isNum:
		return []byte(a.dec.String()), nil
	default:
		return json.Marshal(a.text)
	}
}

// Valid reports whether the backend supplied a value.
func (a Amount) Valid() bool { return a.present }

// Decimal returns the exact numeric reading of a, if it has one.
func (a Amount) Decimal() (decimal.Decimal, bool) { return a.dec, a.present && a.isNum }

// String returns the value as sent, or "" when absent.
func (a Amount) String() string { return a.text }

// ---------------------------------------------------------------------------
// Wire types
// ---------------------------------------------------------------------------

// AuthResult is the decoded body of /login and /signup.
type AuthResult struct {
	UID      string `json:"uid"`
	Message  string `json:"message"`
	IPFSHash string `json:"ipfs_hash"`
}

// Suggestion is a single autocomplete hit.
type Suggestion struct {
	Symbol string `json:"symbol"`
	Name   string `json:"name"`
}

// Candle is one OHLC point of a candlestick series.
type Candle struct {
	Timestamp Scalar  `json:"timestamp"`
	Open      float64 `json:"open"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Close     float64 `json:"close"`
}

// Graph is the /stock-graph payload. Labels and Data describe the line
// series; CandleData the candlestick series for the same window.
type Graph struct {
	Labels     []Scalar  `json:"labels"`
	Data       []float64 `json:"data"`
	CandleData []Candle  `json:"candleData"`
}

// Metrics describes a company. Every field is optional.
type Metrics struct {
	Name          Value `json:"name"`
	StockName     Value `json:"stockName"`
	MarketCap     Value `json:"marketCap"`
	Sector        Value `json:"sector"`
	Industry      Value `json:"industry"`
	EPS           Value `json:"eps"`
	Volume        Value `json:"volume"`
	DayHigh       Value `json:"dayHigh"`
	DayLow        Value `json:"dayLow"`
	DividendYield Value `json:"dividendYield"`
	YearHigh      Value `json:"yearHigh"`
	YearLow       Value `json:"yearLow"`
	Summary       Value `json:"summary"`
}

// DisplayName picks the company name for saving a symbol.
func (m *Metrics) DisplayName() string {
	if m != nil {
		if m.Name.Valid() {
			return m.Name.String()
		}
		if m.StockName.Valid() {
			return m.StockName.String()
		}
	}
	return "Unknown Stock"
}

// PortfolioEntry is one saved symbol.
type PortfolioEntry struct {
	Symbol string `json:"symbol"`
	Name   string `json:"name"`
}

// Gainer is one top-gainer summary.
type Gainer struct {
	Symbol        string `json:"symbol"`
	Name          string `json:"name"`
	Price         Value  `json:"price"`
	PercentChange Value  `json:"percentChange"`
	High          Value  `json:"high"`
	Low           Value  `json:"low"`
}

// DateOpened is the calendar date a simulation was opened. OK is false when
// the backend sent something other than three numeric parts.
type DateOpened struct {
	Day   int
	Month int
	Year  int
	OK    bool
}

func (d *DateOpened) UnmarshalJSON(b []byte) error {
	*d = DateOpened{}
	var raw map[string]any
	if err := json.Unmarshal(b, &raw); err != nil || raw == nil {
		return nil
	}
	day, ok1 := raw["day"].(float64)
	month, ok2 := raw["month"].(float64)
	year, ok3 := raw["year"].(float64)
	if !ok1 || !ok2 || !ok3 {
		return nil
	}
	*d = DateOpened{Day: int(day), Month: int(month), Year: int(year), OK: true}
	return nil
}

func (d DateOpened) MarshalJSON() ([]byte, error) {
	if !d.OK {
		return []byte("null"), nil
	}
	return json.Marshal(map[string]int{"day": d.Day, "month": d.Month, "year": d.Year})
}

// Simulation is a paper-trading simulation as stored by the backend.
type Simulation struct {
	ID              Scalar      `json:"id"`
	Name            string      `json:"name"`
	StartingBalance Amount      `json:"startingBalance"`
	CurrentBalance  Amount      `json:"currentBalance"`
	SimulatedCash   Amount      `json:"simulatedCash"`
	ProfitLoss      Amount      `json:"profitLoss"`
	WinRate         Amount      `json:"winRate"`
	StartingTicker  string      `json:"startingTicker"`
	DateOpened      *DateOpened `json:"dateOpened"`
}

// NewSimulation is the body of /create-new-simulation.
type NewSimulation struct {
	UID             string          `json:"uid"`
	Name            string          `json:"name"`
	StartingBalance decimal.Decimal `json:"-"`
	StartingTicker  string          `json:"startingTicker"`
}

// MarshalJSON sends the balance as a JSON number.
func (n NewSimulation) MarshalJSON() ([]byte, error) {
	type alias NewSimulation
	return json.Marshal(struct {
		alias
		StartingBalance json.Number `json:"startingBalance"`
	}{alias(n), json.Number(n.StartingBalance.String())})
}

// OrderRequest is the body of /place-order. DollarAmount is forwarded as
// typed by the user.
type OrderRequest struct {
	Ticker       string `json:"ticker"`
	DollarAmount string `json:"dollarAmount"`
	OrderType    string `json:"orderType"`
	Side         string `json:"side"`
}

// Order is the backend acknowledgment of a placed order.
type Order struct {
	ID Scalar `json:"id"`
}

// Article is one news headline.
type Article struct {
	Title       string `json:"title"`
	Link        string `json:"link"`
	Description string `json:"description"`
	Source      string `json:"source"`
	Published   string `json:"published"`
}
