package price

import (
	"time"

	"github.com/bookq-dev/bookq/lib/common/compare"
	"github.com/bookq-dev/bookq/lib/model/commodity"
	"github.com/shopspring/decimal"
)

// Price is a quote for one unit of Commodity, expressed in Currency.
type Price struct {
	ID        string
	Commodity *commodity.Commodity
	Currency  *commodity.Commodity
	Date      time.Time
	Value     decimal.Decimal
	Source    string
	Type      string
}

// Compare orders prices by date, then identity, so that the latest
// quote for a commodity is the last element of a sorted slice.
func Compare(p1, p2 *Price) compare.Order {
	if o := compare.Time(p1.Date, p2.Date); o != compare.Equal {
		return o
	}
	return compare.Ordered(p1.ID, p2.ID)
}
