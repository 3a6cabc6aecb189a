package domain

import "github.com/shopspring/decimal"

// Quote is a read-only preview of what converting the cart would charge,
// with the current availability of each line for the buyer to review.
type Quote struct {
	Lines []QuoteLine
	Total decimal.Decimal
}

type QuoteLine struct {
	ProductID string
	Quantity  int
	UnitPrice decimal.Decimal
	LineTotal decimal.Decimal
	Available int
	InStock   bool
}
