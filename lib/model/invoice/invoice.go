// Copyright 2024 The bookq authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package invoice contains the unified invoice/bill entity and its
// lines.
package invoice

import (
	"time"

	"github.com/bookq-dev/bookq/lib/common/compare"
	"github.com/bookq-dev/bookq/lib/model/commodity"
	"github.com/bookq-dev/bookq/lib/model/party"
	"github.com/shopspring/decimal"
)

// Invoice is a customer invoice or a vendor bill. The owner reference
// is either a concrete customer/vendor or a job which resolves to
// one; the distinction is carried by the Owner tag, checked once at
// load.
type Invoice struct {
	ID         string
	Num        string
	Owner      party.Ref
	DateOpened time.Time
	DatePosted time.Time
	Currency   *commodity.Commodity
	// LotID is the settlement lot shared with the transactions that
	// pay this invoice.
	LotID string
	// PostTxnID references the posting transaction, if posted.
	PostTxnID string
	Active    bool
	Notes     string
	// Lines is populated by the registry's index pass, sorted by date.
	Lines []*Line
}

// Posted reports whether the invoice has been posted to the ledger.
func (inv *Invoice) Posted() bool {
	return !inv.DatePosted.IsZero()
}

func (inv *Invoice) String() string {
	return inv.Num
}

// Line is a single line of an invoice. It carries both the
// customer-side and the vendor-side unit price; which one applies
// follows from the owning invoice's resolved owner kind.
type Line struct {
	ID          string
	InvoiceID   string
	Date        time.Time
	Description string
	Action      string
	Quantity    decimal.Decimal
	// InvoicePrice is the customer-side unit price.
	InvoicePrice decimal.Decimal
	// BillPrice is the vendor-side unit price.
	BillPrice decimal.Decimal
	Taxable   bool
	// TaxIncluded reports whether the stored price already includes
	// tax.
	TaxIncluded bool
	TaxTableID  string
}

// Compare orders invoices by opening date, then identity.
func Compare(i1, i2 *Invoice) compare.Order {
	if o := compare.Time(i1.DateOpened, i2.DateOpened); o != compare.Equal {
		return o
	}
	return compare.Ordered(i1.ID, i2.ID)
}

// CompareLines orders lines by date, then identity.
func CompareLines(l1, l2 *Line) compare.Order {
	if o := compare.Time(l1.Date, l2.Date); o != compare.Equal {
		return o
	}
	return compare.Ordered(l1.ID, l2.ID)
}
