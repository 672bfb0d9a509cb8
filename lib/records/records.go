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

// Package records defines the flat, already-decoded records the
// engine consumes. An external decoder produces them from the source
// file; this package only defines the handoff contract and a reader
// for the JSON-lines dump format.
package records

// Commodity identifies a commodity or currency by namespace and
// symbol.
type Commodity struct {
	Namespace string `json:"namespace"`
	Mnemonic  string `json:"mnemonic"`
}

// Account is a decoded account record.
type Account struct {
	ID          string    `json:"id"`
	ParentID    string    `json:"parent_id,omitempty"`
	Name        string    `json:"name"`
	Code        string    `json:"code,omitempty"`
	Description string    `json:"description,omitempty"`
	Type        string    `json:"type"`
	Commodity   Commodity `json:"commodity"`
}

// Customer is a decoded customer record.
type Customer struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Number string `json:"number,omitempty"`
	Active bool   `json:"active"`
}

// Vendor is a decoded vendor record.
type Vendor struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Number string `json:"number,omitempty"`
	Active bool   `json:"active"`
}

// Job is a decoded job record. OwnerKind is "customer" or "vendor".
type Job struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Number    string `json:"number,omitempty"`
	Active    bool   `json:"active"`
	OwnerKind string `json:"owner_kind"`
	OwnerID   string `json:"owner_id"`
}

// TaxTableEntry is one rate or amount of a tax table. Amount is a
// decimal string or a fraction such as "1900/100".
type TaxTableEntry struct {
	Amount string `json:"amount"`
	Type   string `json:"type"`
}

// TaxTable is a decoded tax table record.
type TaxTable struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	ParentID string          `json:"parent_id,omitempty"`
	Entries  []TaxTableEntry `json:"entries"`
}

// Invoice is a decoded invoice or bill record. OwnerKind is
// "customer", "vendor" or "job".
type Invoice struct {
	ID         string    `json:"id"`
	Num        string    `json:"num,omitempty"`
	OwnerKind  string    `json:"owner_kind"`
	OwnerID    string    `json:"owner_id"`
	DateOpened string    `json:"date_opened,omitempty"`
	DatePosted string    `json:"date_posted,omitempty"`
	Currency   Commodity `json:"currency"`
	LotID      string    `json:"lot_id,omitempty"`
	PostTxnID  string    `json:"post_txn_id,omitempty"`
	Active     bool      `json:"active"`
	Notes      string    `json:"notes,omitempty"`
}

// Line is a decoded invoice line record.
type Line struct {
	ID           string `json:"id"`
	InvoiceID    string `json:"invoice_id"`
	Date         string `json:"date,omitempty"`
	Description  string `json:"description,omitempty"`
	Action       string `json:"action,omitempty"`
	Quantity     string `json:"quantity"`
	InvoicePrice string `json:"invoice_price,omitempty"`
	BillPrice    string `json:"bill_price,omitempty"`
	Taxable      bool   `json:"taxable"`
	TaxIncluded  bool   `json:"tax_included"`
	TaxTableID   string `json:"tax_table_id,omitempty"`
}

// Split is one decoded leg of a transaction.
type Split struct {
	ID        string `json:"id"`
	AccountID string `json:"account_id"`
	Value     string `json:"value"`
	Quantity  string `json:"quantity"`
	LotID     string `json:"lot_id,omitempty"`
	Action    string `json:"action,omitempty"`
	Memo      string `json:"memo,omitempty"`
}

// Transaction is a decoded transaction record with its splits.
type Transaction struct {
	ID          string    `json:"id"`
	DatePosted  string    `json:"date_posted"`
	DateEntered string    `json:"date_entered,omitempty"`
	Currency    Commodity `json:"currency"`
	Description string    `json:"description,omitempty"`
	Num         string    `json:"num,omitempty"`
	Splits      []Split   `json:"splits"`
}

// Price is a decoded commodity quote.
type Price struct {
	ID        string    `json:"id"`
	Commodity Commodity `json:"commodity"`
	Currency  Commodity `json:"currency"`
	Date      string    `json:"date"`
	Value     string    `json:"value"`
	Source    string    `json:"source,omitempty"`
	Type      string    `json:"type,omitempty"`
}

// Set is the complete decoded dataset, one slice per entity kind, in
// input order. Errs collects per-record decoding problems; a non-empty
// Errs does not invalidate the rest of the set.
type Set struct {
	Accounts     []Account
	Customers    []Customer
	Vendors      []Vendor
	Jobs         []Job
	TaxTables    []TaxTable
	Invoices     []Invoice
	Lines        []Line
	Transactions []Transaction
	Prices       []Price

	Errs []error
}
