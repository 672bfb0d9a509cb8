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

// Package registry contains the identity-indexed storage for all
// entity kinds, plus the secondary indices derived from it. Entities
// are registered during a single load pass; Build then constructs the
// indices in an explicit second pass and freezes the registry.
package registry

import (
	"fmt"
	"log/slog"

	"github.com/bookq-dev/bookq/lib/common/compare"
	"github.com/bookq-dev/bookq/lib/common/dict"
	"github.com/bookq-dev/bookq/lib/common/set"
	"github.com/bookq-dev/bookq/lib/model/account"
	"github.com/bookq-dev/bookq/lib/model/commodity"
	"github.com/bookq-dev/bookq/lib/model/invoice"
	"github.com/bookq-dev/bookq/lib/model/party"
	"github.com/bookq-dev/bookq/lib/model/price"
	"github.com/bookq-dev/bookq/lib/model/taxtable"
	"github.com/bookq-dev/bookq/lib/model/transaction"
)

// Registry holds every entity of the loaded dataset, indexed by
// identity. It is single-writer during load and immutable after
// Build.
type Registry struct {
	log         *slog.Logger
	commodities *commodity.Registry

	accounts     map[string]*account.Account
	transactions map[string]*transaction.Transaction
	invoices     map[string]*invoice.Invoice
	lines        map[string]*invoice.Line
	customers    map[string]*party.CustomerEntity
	vendors      map[string]*party.VendorEntity
	jobs         map[string]*party.JobEntity
	taxTables    map[string]*taxtable.TaxTable
	prices       map[string]*price.Price

	// secondary indices, built by Build
	children          map[string][]*account.Account
	splits            map[string][]*transaction.Split
	invoicesByOwner   map[string][]*invoice.Invoice
	jobsByOwner       map[string][]*party.JobEntity
	payingTxns        map[string][]*transaction.Transaction
	pricesByCommodity map[*commodity.Commodity][]*price.Price

	built bool
}

// New creates an empty registry. A nil logger defaults to
// slog.Default.
func New(log *slog.Logger) *Registry {
	if log == nil {
		log = slog.Default()
	}
	return &Registry{
		log:          log,
		commodities:  commodity.NewRegistry(),
		accounts:     make(map[string]*account.Account),
		transactions: make(map[string]*transaction.Transaction),
		invoices:     make(map[string]*invoice.Invoice),
		lines:        make(map[string]*invoice.Line),
		customers:    make(map[string]*party.CustomerEntity),
		vendors:      make(map[string]*party.VendorEntity),
		jobs:         make(map[string]*party.JobEntity),
		taxTables:    make(map[string]*taxtable.TaxTable),
		prices:       make(map[string]*price.Price),
	}
}

// Commodities returns the commodity registry.
func (reg *Registry) Commodities() *commodity.Registry {
	return reg.commodities
}

func register[T any](reg *Registry, m map[string]*T, id string, e *T, kind string) error {
	if reg.built {
		return fmt.Errorf("registry is frozen, cannot register %s %q", kind, id)
	}
	if id == "" {
		return fmt.Errorf("cannot register %s without identity", kind)
	}
	if _, ok := m[id]; ok {
		reg.log.Warn("duplicate identity, overwriting", "kind", kind, "id", id)
	}
	m[id] = e
	return nil
}

func (reg *Registry) RegisterAccount(a *account.Account) error {
	return register(reg, reg.accounts, a.ID, a, "account")
}

func (reg *Registry) RegisterTransaction(t *transaction.Transaction) error {
	return register(reg, reg.transactions, t.ID, t, "transaction")
}

func (reg *Registry) RegisterInvoice(inv *invoice.Invoice) error {
	return register(reg, reg.invoices, inv.ID, inv, "invoice")
}

func (reg *Registry) RegisterLine(l *invoice.Line) error {
	return register(reg, reg.lines, l.ID, l, "invoice line")
}

func (reg *Registry) RegisterCustomer(c *party.CustomerEntity) error {
	return register(reg, reg.customers, c.ID, c, "customer")
}

func (reg *Registry) RegisterVendor(v *party.VendorEntity) error {
	return register(reg, reg.vendors, v.ID, v, "vendor")
}

func (reg *Registry) RegisterJob(j *party.JobEntity) error {
	return register(reg, reg.jobs, j.ID, j, "job")
}

func (reg *Registry) RegisterTaxTable(t *taxtable.TaxTable) error {
	return register(reg, reg.taxTables, t.ID, t, "tax table")
}

func (reg *Registry) RegisterPrice(p *price.Price) error {
	return register(reg, reg.prices, p.ID, p, "price")
}

// Build constructs the secondary indices and freezes the registry.
// It must be called exactly once, after all entities are registered.
func (reg *Registry) Build() error {
	if reg.built {
		return fmt.Errorf("registry has already been built")
	}
	reg.built = true

	reg.children = make(map[string][]*account.Account)
	for _, a := range reg.accounts {
		if a.IsRoot() {
			continue
		}
		if _, ok := reg.accounts[a.ParentID]; !ok {
			reg.log.Warn("account has dangling parent", "account", a.ID, "parent", a.ParentID)
			continue
		}
		reg.children[a.ParentID] = append(reg.children[a.ParentID], a)
	}
	for _, ch := range reg.children {
		compare.Sort(ch, account.Compare)
	}

	reg.splits = make(map[string][]*transaction.Split)
	reg.payingTxns = make(map[string][]*transaction.Transaction)
	lotSeen := make(map[string]set.Set[*transaction.Transaction])
	for _, t := range dict.SortedValues(reg.transactions, transaction.Compare) {
		for _, s := range t.Splits {
			if _, ok := reg.accounts[s.AccountID]; !ok {
				reg.log.Warn("split references unknown account", "split", s.ID, "account", s.AccountID)
			}
			reg.splits[s.AccountID] = append(reg.splits[s.AccountID], s)
			if s.IsPayment() {
				seen := dict.GetDefault(lotSeen, s.LotID, set.New[*transaction.Transaction])
				if !seen.Has(t) {
					seen.Add(t)
					reg.payingTxns[s.LotID] = append(reg.payingTxns[s.LotID], t)
				}
			}
		}
	}

	reg.invoicesByOwner = make(map[string][]*invoice.Invoice)
	for _, inv := range dict.SortedValues(reg.invoices, invoice.Compare) {
		if !inv.Owner.Empty() {
			reg.invoicesByOwner[inv.Owner.ID] = append(reg.invoicesByOwner[inv.Owner.ID], inv)
		}
	}
	reg.jobsByOwner = make(map[string][]*party.JobEntity)
	for _, j := range dict.SortedValues(reg.jobs, party.CompareJobs) {
		if !j.Owner.Empty() {
			reg.jobsByOwner[j.Owner.ID] = append(reg.jobsByOwner[j.Owner.ID], j)
		}
	}

	for _, l := range dict.SortedValues(reg.lines, invoice.CompareLines) {
		inv, ok := reg.invoices[l.InvoiceID]
		if !ok {
			reg.log.Warn("line references unknown invoice", "line", l.ID, "invoice", l.InvoiceID)
			continue
		}
		inv.Lines = append(inv.Lines, l)
	}

	reg.pricesByCommodity = make(map[*commodity.Commodity][]*price.Price)
	for _, p := range reg.prices {
		reg.pricesByCommodity[p.Commodity] = append(reg.pricesByCommodity[p.Commodity], p)
	}
	for _, ps := range reg.pricesByCommodity {
		compare.Sort(ps, price.Compare)
	}
	return nil
}

// Account returns the account with the given identity.
func (reg *Registry) Account(id string) (*account.Account, bool) {
	a, ok := reg.accounts[id]
	return a, ok
}

// Transaction returns the transaction with the given identity.
func (reg *Registry) Transaction(id string) (*transaction.Transaction, bool) {
	t, ok := reg.transactions[id]
	return t, ok
}

// Invoice returns the invoice with the given identity.
func (reg *Registry) Invoice(id string) (*invoice.Invoice, bool) {
	inv, ok := reg.invoices[id]
	return inv, ok
}

// Customer returns the customer with the given identity.
func (reg *Registry) Customer(id string) (*party.CustomerEntity, bool) {
	c, ok := reg.customers[id]
	return c, ok
}

// Vendor returns the vendor with the given identity.
func (reg *Registry) Vendor(id string) (*party.VendorEntity, bool) {
	v, ok := reg.vendors[id]
	return v, ok
}

// Job returns the job with the given identity.
func (reg *Registry) Job(id string) (*party.JobEntity, bool) {
	j, ok := reg.jobs[id]
	return j, ok
}

// TaxTable returns the tax table with the given identity.
func (reg *Registry) TaxTable(id string) (*taxtable.TaxTable, bool) {
	t, ok := reg.taxTables[id]
	return t, ok
}

// Price returns the price with the given identity.
func (reg *Registry) Price(id string) (*price.Price, bool) {
	p, ok := reg.prices[id]
	return p, ok
}

// Accounts returns all accounts, sorted.
func (reg *Registry) Accounts() []*account.Account {
	return dict.SortedValues(reg.accounts, account.Compare)
}

// RootAccounts returns all accounts without a parent, sorted.
func (reg *Registry) RootAccounts() []*account.Account {
	var res []*account.Account
	for _, a := range reg.accounts {
		if a.IsRoot() {
			res = append(res, a)
		}
	}
	compare.Sort(res, account.Compare)
	return res
}

// Transactions returns all transactions, sorted by posting date.
func (reg *Registry) Transactions() []*transaction.Transaction {
	return dict.SortedValues(reg.transactions, transaction.Compare)
}

// Invoices returns all invoices, sorted by opening date.
func (reg *Registry) Invoices() []*invoice.Invoice {
	return dict.SortedValues(reg.invoices, invoice.Compare)
}

// Customers returns all customers, sorted by name.
func (reg *Registry) Customers() []*party.CustomerEntity {
	return dict.SortedValues(reg.customers, party.CompareCustomers)
}

// Vendors returns all vendors, sorted by name.
func (reg *Registry) Vendors() []*party.VendorEntity {
	return dict.SortedValues(reg.vendors, party.CompareVendors)
}

// Jobs returns all jobs, sorted by name.
func (reg *Registry) Jobs() []*party.JobEntity {
	return dict.SortedValues(reg.jobs, party.CompareJobs)
}

// TaxTables returns all tax tables, sorted by name.
func (reg *Registry) TaxTables() []*taxtable.TaxTable {
	return dict.SortedValues(reg.taxTables, taxtable.Compare)
}

// Prices returns all prices, sorted by date.
func (reg *Registry) Prices() []*price.Price {
	return dict.SortedValues(reg.prices, price.Compare)
}

// Children returns the direct children of the given account, sorted.
func (reg *Registry) Children(accountID string) []*account.Account {
	return reg.children[accountID]
}

// Splits returns the splits referencing the given account, ordered by
// transaction posting date.
func (reg *Registry) Splits(accountID string) []*transaction.Split {
	return reg.splits[accountID]
}

// InvoicesOwnedBy returns the invoices whose owner field references
// the given customer, vendor or job identity directly.
func (reg *Registry) InvoicesOwnedBy(ownerID string) []*invoice.Invoice {
	return reg.invoicesByOwner[ownerID]
}

// JobsOwnedBy returns the jobs owned by the given customer or vendor.
func (reg *Registry) JobsOwnedBy(ownerID string) []*party.JobEntity {
	return reg.jobsByOwner[ownerID]
}

// PayingTransactions returns the transactions which carry a payment
// split in the given settlement lot, ordered by posting date.
func (reg *Registry) PayingTransactions(lotID string) []*transaction.Transaction {
	return reg.payingTxns[lotID]
}

// PricesFor returns all quotes for the given commodity, sorted by
// date ascending.
func (reg *Registry) PricesFor(c *commodity.Commodity) []*price.Price {
	return reg.pricesByCommodity[c]
}

// PricedCommodities returns all commodities which have at least one
// quote, sorted.
func (reg *Registry) PricedCommodities() []*commodity.Commodity {
	return dict.SortedKeys(reg.pricesByCommodity, commodity.Compare)
}
