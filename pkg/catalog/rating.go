package catalog

import "github.com/shopspring/decimal"

// AggregateRating averages count ratings summing to sum, rounded to one
// decimal place. No ratings yields 0 with a count of 0.
func AggregateRating(sum, count int64) (decimal.Decimal, int64) {
	if count <= 0 {
		return decimal.Zero, 0
	}
	avg := decimal.NewFromInt(sum).Div(decimal.NewFromInt(count)).Round(1)
	return avg, count
}
