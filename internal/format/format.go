// Package format renders backend values for display.
package format

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"wavecap/pkg/wavecap"
)

// Placeholder is shown for any metric the backend did not supply.
const Placeholder = "N/A"

var printer = message.NewPrinter(language.English)

// Int formats an integer with comma separators.
func Int(n int64) string {
	return printer.Sprintf("%d", n)
}

// Compact formats a large value with T/B/M/K suffixes.
func Compact(v float64) string {
	sign := ""
	if v < 0 {
		sign, v = "-", -v
	}
	switch {
	case v >= 1e12:
		return fmt.Sprintf("%s%.2fT", sign, v/1e12)
	case v >= 1e9:
		return fmt.Sprintf("%s%.2fB", sign, v/1e9)
	case v >= 1e6:
		return fmt.Sprintf("%s%.2fM", sign, v/1e6)
	case v >= 1e3:
		return fmt.Sprintf("%s%.1fK", sign, v/1e3)
	default:
		return fmt.Sprintf("%s%.0f", sign, v)
	}
}

// Price formats a price as $X.XX.
func Price(p float64) string {
	return printer.Sprintf("$%.2f", p)
}

// Money formats an exact amount as $X,XXX.XX without going through float64.
func Money(d decimal.Decimal) string {
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Neg()
	}
	whole, frac, _ := strings.Cut(d.StringFixed(2), ".")
	n, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return sign + "$" + whole + "." + frac
	}
	return sign + "$" + Int(n) + "." + frac
}

// Amount renders a simulation money field, or the text sent when it is not
// numeric.
func Amount(a wavecap.Amount) string {
	d, ok := a.Decimal()
	switch {
	case ok:
		return Money(d)
	case a.Valid():
		return a.String()
	}
	return Placeholder
}

// Rate renders a simulation win rate with two decimals, or the text sent.
func Rate(a wavecap.Amount) string {
	d, ok := a.Decimal()
	switch {
	case ok:
		return d.StringFixed(2)
	case a.Valid():
		return a.String()
	}
	return Placeholder
}

// Percent formats a signed percentage, e.g. "+4.20%" or "-1.05%".
func Percent(pct float64) string {
	if pct > 0 {
		return fmt.Sprintf("+%.2f%%", pct)
	}
	return fmt.Sprintf("%.2f%%", pct)
}

// ---------------------------------------------------------------------------
// Metrics
// ---------------------------------------------------------------------------

// MetricText renders v as sent.
func MetricText(v wavecap.Value) string {
	if !v.Valid() {
		return Placeholder
	}
	return v.String()
}

// MetricPrice renders a per-share value.
func MetricPrice(v wavecap.Value) string {
	f, ok := v.Float()
	if !ok {
		return MetricText(v)
	}
	return Price(f)
}

// MetricCompact renders market cap and volume.
func MetricCompact(v wavecap.Value) string {
	f, ok := v.Float()
	if !ok {
		return MetricText(v)
	}
	return Compact(f)
}

// MetricPercent renders a value already expressed in percent.
func MetricPercent(v wavecap.Value) string {
	f, ok := v.Float()
	if !ok {
		return MetricText(v)
	}
	return fmt.Sprintf("%.2f%%", f)
}

// MetricNumber renders a plain number such as EPS.
func MetricNumber(v wavecap.Value) string {
	f, ok := v.Float()
	if !ok {
		return MetricText(v)
	}
	return printer.Sprintf("%.2f", f)
}

// ---------------------------------------------------------------------------
// Dates
// ---------------------------------------------------------------------------

// SimDate renders a simulation's open date as MM/DD/YYYY.
func SimDate(d *wavecap.DateOpened) string {
	if d == nil || !d.OK {
		return "Invalid date"
	}
	return fmt.Sprintf("%02d/%02d/%d", d.Month, d.Day, d.Year)
}

var publishedLayouts = []string{
	time.RFC1123Z,
	time.RFC1123,
	time.RFC3339,
	"Mon, 2 Jan 2006 15:04:05 -0700",
	"Mon, 2 Jan 2006 15:04:05 MST",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Published renders a news timestamp relative to now ("3 hours ago").
// Unrecognised timestamps are returned unchanged.
func Published(s string, now time.Time) string {
	s = strings.TrimSpace(s)
	for _, layout := range publishedLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return humanize.RelTime(t, now, "ago", "from now")
		}
	}
	return s
}

// Description substitutes a fixed line for an empty article description.
func Description(s string) string {
	if strings.TrimSpace(s) == "" {
		return "No description available."
	}
	return s
}
