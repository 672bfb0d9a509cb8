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

// Package web exposes the book's query surface as a read-only JSON
// API.
package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/bookq-dev/bookq/lib/billing"
	"github.com/bookq-dev/bookq/lib/book"
	"github.com/bookq-dev/bookq/lib/model/invoice"
	"github.com/bookq-dev/bookq/lib/owner"
)

// NewRouter creates the router for the given book. All routes are
// pure queries; nothing mutates the book.
func NewRouter(b *book.Book) *chi.Mux {
	h := &handler{book: b}
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET"},
	}))
	r.Route("/api", func(r chi.Router) {
		r.Get("/accounts", h.listAccounts)
		r.Get("/accounts/{id}", h.getAccount)
		r.Get("/accounts/{id}/balance", h.getBalance)
		r.Get("/customers", h.listCustomers)
		r.Get("/vendors", h.listVendors)
		r.Get("/jobs", h.listJobs)
		r.Get("/invoices", h.listInvoices)
		r.Get("/invoices/{id}", h.getInvoice)
		r.Get("/prices", h.listPrices)
	})
	return r
}

type handler struct {
	book *book.Book
}

type accountDTO struct {
	ID        string `json:"id"`
	ParentID  string `json:"parent_id,omitempty"`
	Name      string `json:"name"`
	Code      string `json:"code,omitempty"`
	Type      string `json:"type"`
	Commodity string `json:"commodity"`
}

type balanceDTO struct {
	Account   string `json:"account"`
	AsOf      string `json:"as_of,omitempty"`
	Currency  string `json:"currency"`
	Recursive bool   `json:"recursive"`
	Balance   string `json:"balance"`
}

type partyDTO struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Number string `json:"number,omitempty"`
	Active bool   `json:"active"`
}

type jobDTO struct {
	partyDTO
	OwnerKind string `json:"owner_kind"`
	OwnerID   string `json:"owner_id"`
}

type taxShareDTO struct {
	Percent string `json:"percent"`
	Tax     string `json:"tax"`
}

type invoiceDTO struct {
	ID          string        `json:"id"`
	Num         string        `json:"num,omitempty"`
	Side        string        `json:"side"`
	Owner       string        `json:"owner"`
	DateOpened  string        `json:"date_opened,omitempty"`
	DatePosted  string        `json:"date_posted,omitempty"`
	Currency    string        `json:"currency"`
	ExclTax     string        `json:"amount_excl_tax"`
	InclTax     string        `json:"amount_incl_tax"`
	Paid        string        `json:"paid"`
	Unpaid      string        `json:"unpaid"`
	FullyPaid   bool          `json:"fully_paid"`
	FallbackTax bool          `json:"fallback_tax,omitempty"`
	Breakdown   []taxShareDTO `json:"tax_breakdown,omitempty"`
}

type priceDTO struct {
	Commodity string `json:"commodity"`
	Currency  string `json:"currency"`
	Factor    string `json:"factor"`
}

func (h *handler) listAccounts(w http.ResponseWriter, r *http.Request) {
	var res []accountDTO
	for _, a := range h.book.Registry.Accounts() {
		res = append(res, accountDTO{
			ID:        a.ID,
			ParentID:  a.ParentID,
			Name:      a.Name,
			Code:      a.Code,
			Type:      a.Type.String(),
			Commodity: a.Commodity.String(),
		})
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *handler) getAccount(w http.ResponseWriter, r *http.Request) {
	a, ok := h.book.Registry.Account(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, "account not found")
		return
	}
	writeJSON(w, http.StatusOK, accountDTO{
		ID:        a.ID,
		ParentID:  a.ParentID,
		Name:      a.Name,
		Code:      a.Code,
		Type:      a.Type.String(),
		Commodity: a.Commodity.String(),
	})
}

func (h *handler) getBalance(w http.ResponseWriter, r *http.Request) {
	a, ok := h.book.Registry.Account(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, "account not found")
		return
	}
	asOf, err := parseAsOf(r.URL.Query().Get("as_of"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	recursive := r.URL.Query().Get("recursive") == "true"
	target := a.Commodity
	if cur := r.URL.Query().Get("currency"); cur != "" {
		target, ok = h.book.Registry.Commodities().Lookup("CURRENCY", cur)
		if !ok {
			writeError(w, http.StatusNotFound, "unknown currency")
			return
		}
	}
	res := balanceDTO{
		Account:   a.ID,
		AsOf:      r.URL.Query().Get("as_of"),
		Currency:  target.String(),
		Recursive: recursive,
	}
	if recursive {
		bal, ok := h.book.Balances.RecursiveIn(a, asOf, target)
		if !ok {
			writeError(w, http.StatusUnprocessableEntity, "balance not convertible")
			return
		}
		res.Balance = bal.String()
	} else {
		bal, ok := h.book.Balances.OwnIn(a, asOf, target)
		if !ok {
			writeError(w, http.StatusUnprocessableEntity, "balance not convertible")
			return
		}
		res.Balance = bal.String()
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *handler) listCustomers(w http.ResponseWriter, r *http.Request) {
	var res []partyDTO
	for _, c := range h.book.Registry.Customers() {
		res = append(res, partyDTO{ID: c.ID, Name: c.Name, Number: c.Number, Active: c.Active})
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *handler) listVendors(w http.ResponseWriter, r *http.Request) {
	var res []partyDTO
	for _, v := range h.book.Registry.Vendors() {
		res = append(res, partyDTO{ID: v.ID, Name: v.Name, Number: v.Number, Active: v.Active})
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *handler) listJobs(w http.ResponseWriter, r *http.Request) {
	var res []jobDTO
	for _, j := range h.book.Registry.Jobs() {
		res = append(res, jobDTO{
			partyDTO:  partyDTO{ID: j.ID, Name: j.Name, Number: j.Number, Active: j.Active},
			OwnerKind: j.Owner.Kind.String(),
			OwnerID:   j.Owner.ID,
		})
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *handler) listInvoices(w http.ResponseWriter, r *http.Request) {
	var (
		unpaidOnly = r.URL.Query().Get("unpaid") == "true"
		ownerID    = r.URL.Query().Get("owner")
		res        []invoiceDTO
	)
	invoices := h.book.Registry.Invoices()
	if ownerID != "" {
		invoices = h.book.Registry.InvoicesOwnedBy(ownerID)
	}
	for _, inv := range invoices {
		dto, err := h.invoiceDTO(inv)
		if err != nil {
			continue
		}
		if unpaidOnly && dto.FullyPaid {
			continue
		}
		res = append(res, dto)
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *handler) getInvoice(w http.ResponseWriter, r *http.Request) {
	inv, ok := h.book.Registry.Invoice(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, "invoice not found")
		return
	}
	dto, err := h.invoiceDTO(inv)
	if err != nil {
		var kindErr *owner.KindError
		var billErr *billing.KindError
		if errors.As(err, &kindErr) || errors.As(err, &billErr) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, dto)
}

func (h *handler) invoiceDTO(inv *invoice.Invoice) (invoiceDTO, error) {
	totals, err := h.book.Billing.Totals(inv)
	if err != nil {
		return invoiceDTO{}, err
	}
	ref, err := h.book.Owners.Effective(inv.Owner)
	if err != nil {
		return invoiceDTO{}, err
	}
	dto := invoiceDTO{
		ID:          inv.ID,
		Num:         inv.Num,
		Side:        totals.Side.String(),
		Owner:       ref.Name(),
		DateOpened:  formatDate(inv.DateOpened),
		DatePosted:  formatDate(inv.DatePosted),
		Currency:    inv.Currency.String(),
		ExclTax:     totals.ExclTax.String(),
		InclTax:     totals.InclTax.String(),
		Paid:        totals.Paid.String(),
		Unpaid:      totals.Unpaid.String(),
		FullyPaid:   totals.FullyPaid,
		FallbackTax: totals.FallbackTax,
	}
	for _, share := range totals.Breakdown {
		dto.Breakdown = append(dto.Breakdown, taxShareDTO{
			Percent: share.Percent.String(),
			Tax:     share.Tax.String(),
		})
	}
	return dto, nil
}

func (h *handler) listPrices(w http.ResponseWriter, r *http.Request) {
	asOf, err := parseAsOf(r.URL.Query().Get("as_of"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	table := h.book.Prices.Table(asOf)
	var res []priceDTO
	for _, c := range h.book.Registry.PricedCommodities() {
		factor, ok := table[c]
		if !ok {
			continue
		}
		res = append(res, priceDTO{
			Commodity: c.String(),
			Currency:  h.book.Base.String(),
			Factor:    factor.String(),
		})
	}
	writeJSON(w, http.StatusOK, res)
}

func parseAsOf(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse("2006-01-02", s)
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
