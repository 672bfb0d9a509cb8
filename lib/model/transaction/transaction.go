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

package transaction

import (
	"time"

	"github.com/bookq-dev/bookq/lib/common/compare"
	"github.com/bookq-dev/bookq/lib/model/commodity"
	"github.com/shopspring/decimal"
)

// ActionPayment is the action tag on splits which settle an invoice's
// lot.
const ActionPayment = "Payment"

// Transaction is an immutable snapshot of a transaction with its
// splits.
type Transaction struct {
	ID          string
	DatePosted  time.Time
	DateEntered time.Time
	Currency    *commodity.Commodity
	Description string
	Num         string
	Splits      []*Split
}

// Split is one signed leg of a transaction. Txn points back to the
// owning transaction; the pointer is wired by Builder before the
// transaction is published, never afterwards.
type Split struct {
	ID        string
	Txn       *Transaction
	AccountID string
	// Value is signed, in the transaction's currency.
	Value decimal.Decimal
	// Quantity is signed, in the account's commodity.
	Quantity decimal.Decimal
	// LotID links the split to an invoice's settlement lot.
	LotID  string
	Action string
	Memo   string
}

// IsPayment reports whether the split carries the payment action tag
// and a settlement lot.
func (s *Split) IsPayment() bool {
	return s.LotID != "" && s.Action == ActionPayment
}

// Residual returns the signed sum of all split values. A balanced
// transaction has a zero residual in its own currency.
func (t *Transaction) Residual() decimal.Decimal {
	var sum decimal.Decimal
	for _, s := range t.Splits {
		sum = sum.Add(s.Value)
	}
	return sum
}

// Builder builds transactions.
type Builder struct {
	ID          string
	DatePosted  time.Time
	DateEntered time.Time
	Currency    *commodity.Commodity
	Description string
	Num         string
	Splits      []*Split
}

// Build builds a transaction and wires the splits' back-pointers.
func (tb Builder) Build() *Transaction {
	t := &Transaction{
		ID:          tb.ID,
		DatePosted:  tb.DatePosted,
		DateEntered: tb.DateEntered,
		Currency:    tb.Currency,
		Description: tb.Description,
		Num:         tb.Num,
		Splits:      tb.Splits,
	}
	for _, s := range t.Splits {
		s.Txn = t
	}
	return t
}

// Compare orders transactions by posting date, then identity.
func Compare(t1, t2 *Transaction) compare.Order {
	if o := compare.Time(t1.DatePosted, t2.DatePosted); o != compare.Equal {
		return o
	}
	return compare.Ordered(t1.ID, t2.ID)
}
