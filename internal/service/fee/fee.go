package fee

import (
	"regexp"

	"github.com/shopspring/decimal"
)

var (
	rangePattern  = regexp.MustCompile(`(\d+)-(\d+)%`)
	singlePattern = regexp.MustCompile(`(\d+)%`)

	// DefaultPercent applies when a schedule cannot be parsed.
	DefaultPercent = decimal.NewFromInt(5)
	// MinimumFee is charged whenever the percentage fee falls below it.
	MinimumFee = decimal.NewFromInt(5)

	hundred = decimal.NewFromInt(100)
)

// Result is a computed fee breakdown.
type Result struct {
	Percent decimal.Decimal
	Fee     decimal.Decimal
	Net     decimal.Decimal
}

// Percent extracts the percentage from schedule text such as "5% fee" or "5-8% fee".
// For a range the upper bound is used.
func Percent(schedule string) decimal.Decimal {
	if m := rangePattern.FindStringSubmatch(schedule); m != nil {
		if p, err := decimal.NewFromString(m[2]); err == nil {
			return p
		}
	}
	if m := singlePattern.FindStringSubmatch(schedule); m != nil {
		if p, err := decimal.NewFromString(m[1]); err == nil {
			return p
		}
	}
	return DefaultPercent
}

// Calculate prices amount against schedule. Values are exact; round only for display.
// Callers must reject non-positive amounts first.
func Calculate(amount decimal.Decimal, schedule string) Result {
	p := Percent(schedule)
	f := amount.Mul(p).Div(hundred)
	if f.LessThan(MinimumFee) {
		f = MinimumFee
	}
	return Result{
		Percent: p,
		Fee:     f,
		Net:     amount.Sub(f),
	}
}
