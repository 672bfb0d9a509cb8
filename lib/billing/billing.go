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

// Package billing computes per-invoice totals, tax breakdowns and
// payment status.
package billing

import (
	"fmt"
	"log/slog"

	"github.com/bookq-dev/bookq/lib/common/compare"
	"github.com/bookq-dev/bookq/lib/common/dict"
	"github.com/bookq-dev/bookq/lib/model/account"
	"github.com/bookq-dev/bookq/lib/model/invoice"
	"github.com/bookq-dev/bookq/lib/model/party"
	"github.com/bookq-dev/bookq/lib/model/registry"
	"github.com/bookq-dev/bookq/lib/owner"
	"github.com/bookq-dev/bookq/lib/taxtab"
	"github.com/shopspring/decimal"
)

var one = decimal.NewFromInt(1)

// KindError reports that a side-specific computation was invoked on
// an invoice of the other side, e.g. a customer-side query on a
// vendor bill.
type KindError struct {
	Op        string
	InvoiceID string
	Got       party.Kind
	Want      party.Kind
}

func (e *KindError) Error() string {
	return fmt.Sprintf("%s: invoice %s is %s-side, want %s", e.Op, e.InvoiceID, e.Got, e.Want)
}

// TaxShare is the tax liability of one distinct rate on an invoice.
type TaxShare struct {
	// Percent is the rate in percent units.
	Percent decimal.Decimal
	Tax     decimal.Decimal
}

// Totals are the derived amounts of a single invoice.
type Totals struct {
	// Side is the effective owner kind after resolving a job hop.
	Side      party.Kind
	ExclTax   decimal.Decimal
	InclTax   decimal.Decimal
	Paid      decimal.Decimal
	Unpaid    decimal.Decimal
	Breakdown []TaxShare
	FullyPaid bool
	// FallbackTax reports that at least one line's rate came from the
	// fallback policy. A data-quality signal.
	FallbackTax bool
}

// Ledger computes invoice totals and payment status.
type Ledger struct {
	reg       *registry.Registry
	owners    *owner.Resolver
	taxes     *taxtab.Resolver
	tolerance decimal.Decimal
	log       *slog.Logger
}

// New creates a ledger. tolerance is the residue below which an
// invoice counts as fully paid; fixed-point rounding across tax
// computations can leave residues below a cent.
func New(reg *registry.Registry, owners *owner.Resolver, taxes *taxtab.Resolver, tolerance decimal.Decimal, log *slog.Logger) *Ledger {
	if log == nil {
		log = slog.Default()
	}
	return &Ledger{reg: reg, owners: owners, taxes: taxes, tolerance: tolerance, log: log}
}

// Totals computes the invoice's totals on its own effective side,
// resolving a job-owned invoice to its customer or vendor first.
func (l *Ledger) Totals(inv *invoice.Invoice) (*Totals, error) {
	side, err := l.side(inv)
	if err != nil {
		return nil, err
	}
	return l.compute(inv, side), nil
}

// CustomerTotals computes customer-side totals. Invoking it on a
// vendor bill is a KindError.
func (l *Ledger) CustomerTotals(inv *invoice.Invoice) (*Totals, error) {
	return l.sideTotals(inv, party.Customer, "customer totals")
}

// VendorTotals computes vendor-side totals. Invoking it on a customer
// invoice is a KindError.
func (l *Ledger) VendorTotals(inv *invoice.Invoice) (*Totals, error) {
	return l.sideTotals(inv, party.Vendor, "vendor totals")
}

func (l *Ledger) sideTotals(inv *invoice.Invoice, want party.Kind, op string) (*Totals, error) {
	side, err := l.side(inv)
	if err != nil {
		return nil, err
	}
	if side != want {
		return nil, &KindError{Op: op, InvoiceID: inv.ID, Got: side, Want: want}
	}
	return l.compute(inv, side), nil
}

// side resolves the invoice's effective owner kind. An unresolvable
// owner makes every side-dependent quantity meaningless, so it
// propagates as an error.
func (l *Ledger) side(inv *invoice.Invoice) (party.Kind, error) {
	ref, err := l.owners.Effective(inv.Owner)
	if err != nil {
		return 0, err
	}
	if ref.Empty() {
		return 0, fmt.Errorf("invoice %s: owner %v cannot be resolved", inv.ID, inv.Owner)
	}
	return ref.Kind, nil
}

func (l *Ledger) compute(inv *invoice.Invoice, side party.Kind) *Totals {
	res := &Totals{Side: side}
	taxByPercent := make(map[string]*TaxShare)
	for _, line := range inv.Lines {
		price := line.InvoicePrice
		if side == party.Vendor {
			price = line.BillPrice
		}
		excl := line.Quantity.Mul(price).Truncate(8)
		rate := l.taxes.EffectivePercent(line)
		if rate.Fallback {
			res.FallbackTax = true
		}
		incl := excl
		if !line.TaxIncluded {
			incl = excl.Mul(one.Add(rate.Rate())).Truncate(8)
		}
		res.ExclTax = res.ExclTax.Add(excl)
		res.InclTax = res.InclTax.Add(incl)
		share := dict.GetDefault(taxByPercent, rate.Percent.String(), func() *TaxShare {
			return &TaxShare{Percent: rate.Percent}
		})
		share.Tax = share.Tax.Add(incl.Sub(excl))
	}
	for _, share := range taxByPercent {
		res.Breakdown = append(res.Breakdown, *share)
	}
	compare.Sort(res.Breakdown, func(s1, s2 TaxShare) compare.Order {
		return compare.Decimal(s1.Percent, s2.Percent)
	})

	res.Paid = l.paidAmount(inv, side)
	res.Unpaid = res.InclTax.Sub(res.Paid)
	res.FullyPaid = !res.Unpaid.GreaterThan(l.tolerance)
	return res
}

// paidAmount scans the transactions sharing the invoice's settlement
// lot and sums the settlement legs. By bookkeeping convention a
// receivable settles with a negative split and a payable with a
// positive one; this is a documented assumption of the source data,
// not an independently validated invariant.
func (l *Ledger) paidAmount(inv *invoice.Invoice, side party.Kind) decimal.Decimal {
	var paid decimal.Decimal
	if inv.LotID == "" {
		return paid
	}
	for _, txn := range l.reg.PayingTransactions(inv.LotID) {
		for _, s := range txn.Splits {
			if s.LotID != inv.LotID || !s.IsPayment() {
				continue
			}
			acct, ok := l.reg.Account(s.AccountID)
			if !ok {
				l.log.Warn("payment split references unknown account", "split", s.ID, "account", s.AccountID)
				continue
			}
			switch side {
			case party.Customer:
				if acct.Type == account.Receivable && s.Value.IsNegative() {
					paid = paid.Add(s.Value.Neg())
				}
			case party.Vendor:
				if acct.Type == account.Payable && s.Value.IsPositive() {
					paid = paid.Add(s.Value)
				}
			}
		}
	}
	return paid
}
