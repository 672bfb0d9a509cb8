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

// Package book assembles a queryable book from decoded records. The
// load pass runs exactly once; afterwards the book is immutable and
// safe for concurrent readers.
package book

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/multierr"

	"github.com/bookq-dev/bookq/lib/balance"
	"github.com/bookq-dev/bookq/lib/billing"
	"github.com/bookq-dev/bookq/lib/model/account"
	"github.com/bookq-dev/bookq/lib/model/commodity"
	"github.com/bookq-dev/bookq/lib/model/invoice"
	"github.com/bookq-dev/bookq/lib/model/party"
	"github.com/bookq-dev/bookq/lib/model/price"
	"github.com/bookq-dev/bookq/lib/model/registry"
	"github.com/bookq-dev/bookq/lib/model/taxtable"
	"github.com/bookq-dev/bookq/lib/model/transaction"
	"github.com/bookq-dev/bookq/lib/owner"
	"github.com/bookq-dev/bookq/lib/prices"
	"github.com/bookq-dev/bookq/lib/records"
	"github.com/bookq-dev/bookq/lib/taxtab"
)

// Book is a loaded dataset together with its derived-computation
// components.
type Book struct {
	Config   Config
	Registry *registry.Registry
	Base     *commodity.Commodity

	Owners   *owner.Resolver
	Taxes    *taxtab.Resolver
	Prices   *prices.Resolver
	Balances *balance.Aggregator
	Billing  *billing.Ledger

	// Warnings collects everything that was skipped or degraded
	// during the load. The book is usable regardless.
	Warnings error
}

// LoadFile reads a JSON-lines record dump and loads it.
func LoadFile(cfg Config, path string, log *slog.Logger) (*Book, error) {
	set, err := records.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Load(cfg, set, log)
}

// Load builds a book from the decoded record set. Malformed records
// are skipped and collected in Warnings; only a broken configuration
// is a hard failure.
func Load(cfg Config, set *records.Set, log *slog.Logger) (*Book, error) {
	if log == nil {
		log = slog.Default()
	}
	tolerance, err := cfg.tolerance()
	if err != nil {
		return nil, err
	}
	fallback, err := cfg.fallbackPercent()
	if err != nil {
		return nil, err
	}
	reg := registry.New(log)
	base, err := reg.Commodities().Get("CURRENCY", cfg.BaseCurrency)
	if err != nil {
		return nil, fmt.Errorf("invalid base currency: %w", err)
	}

	ld := &loader{reg: reg, log: log}
	for _, err := range set.Errs {
		ld.skip(err)
	}

	// Construction order matters: accounts and invoices must exist
	// before transactions resolve their splits and lots, and lines
	// attach to invoices during the index pass.
	for _, rec := range set.Customers {
		ld.customer(rec)
	}
	for _, rec := range set.Vendors {
		ld.vendor(rec)
	}
	for _, rec := range set.Jobs {
		ld.job(rec)
	}
	for _, rec := range set.Accounts {
		ld.account(rec)
	}
	for _, rec := range set.TaxTables {
		ld.taxTable(rec)
	}
	for _, rec := range set.Invoices {
		ld.invoice(rec)
	}
	for _, rec := range set.Lines {
		ld.line(rec)
	}
	for _, rec := range set.Transactions {
		ld.transaction(rec)
	}
	for _, rec := range set.Prices {
		ld.price(rec)
	}
	if err := reg.Build(); err != nil {
		return nil, err
	}

	owners := owner.New(reg, log)
	taxes := taxtab.New(reg, taxtab.FallbackPolicy{Percent: fallback}, log)
	prc := prices.New(reg, base, cfg.MaxConversionDepth, log)
	return &Book{
		Config:   cfg,
		Registry: reg,
		Base:     base,
		Owners:   owners,
		Taxes:    taxes,
		Prices:   prc,
		Balances: balance.New(reg, prc, tolerance, log),
		Billing:  billing.New(reg, owners, taxes, tolerance, log),
		Warnings: ld.warnings,
	}, nil
}

type loader struct {
	reg      *registry.Registry
	log      *slog.Logger
	warnings error
}

// skip records a malformed record and carries on.
func (ld *loader) skip(err error) {
	ld.log.Error("skipping malformed record", "error", err)
	ld.warnings = multierr.Append(ld.warnings, err)
}

func (ld *loader) commodity(c records.Commodity) (*commodity.Commodity, error) {
	return ld.reg.Commodities().Get(c.Namespace, c.Mnemonic)
}

func (ld *loader) customer(rec records.Customer) {
	err := ld.reg.RegisterCustomer(&party.CustomerEntity{
		ID:     rec.ID,
		Name:   rec.Name,
		Number: rec.Number,
		Active: rec.Active,
	})
	if err != nil {
		ld.skip(err)
	}
}

func (ld *loader) vendor(rec records.Vendor) {
	err := ld.reg.RegisterVendor(&party.VendorEntity{
		ID:     rec.ID,
		Name:   rec.Name,
		Number: rec.Number,
		Active: rec.Active,
	})
	if err != nil {
		ld.skip(err)
	}
}

func (ld *loader) job(rec records.Job) {
	ref, err := parseOwner(rec.OwnerKind, rec.OwnerID)
	if err != nil {
		ld.skip(fmt.Errorf("job %s: %w", rec.ID, err))
		return
	}
	if ref.Kind == party.Job {
		ld.skip(fmt.Errorf("job %s: jobs cannot be owned by jobs", rec.ID))
		return
	}
	err = ld.reg.RegisterJob(&party.JobEntity{
		ID:     rec.ID,
		Name:   rec.Name,
		Number: rec.Number,
		Active: rec.Active,
		Owner:  ref,
	})
	if err != nil {
		ld.skip(err)
	}
}

func (ld *loader) account(rec records.Account) {
	typ, err := account.ParseType(rec.Type)
	if err != nil {
		ld.skip(fmt.Errorf("account %s: %w", rec.ID, err))
		return
	}
	com, err := ld.commodity(rec.Commodity)
	if err != nil {
		ld.skip(fmt.Errorf("account %s: %w", rec.ID, err))
		return
	}
	err = ld.reg.RegisterAccount(&account.Account{
		ID:          rec.ID,
		ParentID:    rec.ParentID,
		Name:        rec.Name,
		Code:        rec.Code,
		Description: rec.Description,
		Type:        typ,
		Commodity:   com,
	})
	if err != nil {
		ld.skip(err)
	}
}

func (ld *loader) taxTable(rec records.TaxTable) {
	entries := make([]taxtable.Entry, 0, len(rec.Entries))
	for i, e := range rec.Entries {
		amount, err := records.ParseNumeric(e.Amount)
		if err != nil {
			ld.skip(fmt.Errorf("tax table %s, entry %d: %w", rec.ID, i, err))
			return
		}
		typ, err := taxtable.ParseEntryType(e.Type)
		if err != nil {
			ld.skip(fmt.Errorf("tax table %s, entry %d: %w", rec.ID, i, err))
			return
		}
		entries = append(entries, taxtable.Entry{Amount: amount, Type: typ})
	}
	err := ld.reg.RegisterTaxTable(&taxtable.TaxTable{
		ID:       rec.ID,
		Name:     rec.Name,
		ParentID: rec.ParentID,
		Entries:  entries,
	})
	if err != nil {
		ld.skip(err)
	}
}

func (ld *loader) invoice(rec records.Invoice) {
	ref, err := parseOwner(rec.OwnerKind, rec.OwnerID)
	if err != nil {
		ld.skip(fmt.Errorf("invoice %s: %w", rec.ID, err))
		return
	}
	opened, err := parseDate(rec.DateOpened)
	if err != nil {
		ld.skip(fmt.Errorf("invoice %s: %w", rec.ID, err))
		return
	}
	posted, err := parseDate(rec.DatePosted)
	if err != nil {
		ld.skip(fmt.Errorf("invoice %s: %w", rec.ID, err))
		return
	}
	cur, err := ld.commodity(rec.Currency)
	if err != nil {
		ld.skip(fmt.Errorf("invoice %s: %w", rec.ID, err))
		return
	}
	err = ld.reg.RegisterInvoice(&invoice.Invoice{
		ID:         rec.ID,
		Num:        rec.Num,
		Owner:      ref,
		DateOpened: opened,
		DatePosted: posted,
		Currency:   cur,
		LotID:      rec.LotID,
		PostTxnID:  rec.PostTxnID,
		Active:     rec.Active,
		Notes:      rec.Notes,
	})
	if err != nil {
		ld.skip(err)
	}
}

func (ld *loader) line(rec records.Line) {
	date, err := parseDate(rec.Date)
	if err != nil {
		ld.skip(fmt.Errorf("line %s: %w", rec.ID, err))
		return
	}
	qty, err := records.ParseNumeric(rec.Quantity)
	if err != nil {
		ld.skip(fmt.Errorf("line %s: %w", rec.ID, err))
		return
	}
	invPrice, err := optionalNumeric(rec.InvoicePrice)
	if err != nil {
		ld.skip(fmt.Errorf("line %s: %w", rec.ID, err))
		return
	}
	billPrice, err := optionalNumeric(rec.BillPrice)
	if err != nil {
		ld.skip(fmt.Errorf("line %s: %w", rec.ID, err))
		return
	}
	err = ld.reg.RegisterLine(&invoice.Line{
		ID:           rec.ID,
		InvoiceID:    rec.InvoiceID,
		Date:         date,
		Description:  rec.Description,
		Action:       rec.Action,
		Quantity:     qty,
		InvoicePrice: invPrice,
		BillPrice:    billPrice,
		Taxable:      rec.Taxable,
		TaxIncluded:  rec.TaxIncluded,
		TaxTableID:   rec.TaxTableID,
	})
	if err != nil {
		ld.skip(err)
	}
}

func (ld *loader) transaction(rec records.Transaction) {
	posted, err := parseDate(rec.DatePosted)
	if err != nil {
		ld.skip(fmt.Errorf("transaction %s: %w", rec.ID, err))
		return
	}
	entered, err := parseDate(rec.DateEntered)
	if err != nil {
		ld.skip(fmt.Errorf("transaction %s: %w", rec.ID, err))
		return
	}
	cur, err := ld.commodity(rec.Currency)
	if err != nil {
		ld.skip(fmt.Errorf("transaction %s: %w", rec.ID, err))
		return
	}
	splits := make([]*transaction.Split, 0, len(rec.Splits))
	for _, s := range rec.Splits {
		value, err := records.ParseNumeric(s.Value)
		if err != nil {
			ld.skip(fmt.Errorf("transaction %s, split %s: %w", rec.ID, s.ID, err))
			return
		}
		qty, err := records.ParseNumeric(s.Quantity)
		if err != nil {
			ld.skip(fmt.Errorf("transaction %s, split %s: %w", rec.ID, s.ID, err))
			return
		}
		splits = append(splits, &transaction.Split{
			ID:        s.ID,
			AccountID: s.AccountID,
			Value:     value,
			Quantity:  qty,
			LotID:     s.LotID,
			Action:    s.Action,
			Memo:      s.Memo,
		})
	}
	if len(splits) == 0 {
		ld.skip(fmt.Errorf("transaction %s has no splits", rec.ID))
		return
	}
	err = ld.reg.RegisterTransaction(transaction.Builder{
		ID:          rec.ID,
		DatePosted:  posted,
		DateEntered: entered,
		Currency:    cur,
		Description: rec.Description,
		Num:         rec.Num,
		Splits:      splits,
	}.Build())
	if err != nil {
		ld.skip(err)
	}
}

func (ld *loader) price(rec records.Price) {
	date, err := parseDate(rec.Date)
	if err != nil {
		ld.skip(fmt.Errorf("price %s: %w", rec.ID, err))
		return
	}
	value, err := records.ParseNumeric(rec.Value)
	if err != nil {
		ld.skip(fmt.Errorf("price %s: %w", rec.ID, err))
		return
	}
	com, err := ld.commodity(rec.Commodity)
	if err != nil {
		ld.skip(fmt.Errorf("price %s: %w", rec.ID, err))
		return
	}
	cur, err := ld.commodity(rec.Currency)
	if err != nil {
		ld.skip(fmt.Errorf("price %s: %w", rec.ID, err))
		return
	}
	err = ld.reg.RegisterPrice(&price.Price{
		ID:        rec.ID,
		Commodity: com,
		Currency:  cur,
		Date:      date,
		Value:     value,
		Source:    rec.Source,
		Type:      rec.Type,
	})
	if err != nil {
		ld.skip(err)
	}
}

func parseOwner(kind, id string) (party.Ref, error) {
	if id == "" {
		return party.Ref{}, fmt.Errorf("missing owner identity")
	}
	k, err := party.ParseKind(kind)
	if err != nil {
		return party.Ref{}, err
	}
	return party.Ref{Kind: k, ID: id}, nil
}

func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse("2006-01-02", s)
}

func optionalNumeric(s string) (res decimal.Decimal, err error) {
	if s == "" {
		return res, nil
	}
	return records.ParseNumeric(s)
}
