package web_test

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bookq-dev/bookq/lib/book"
	"github.com/bookq-dev/bookq/lib/records"
	"github.com/bookq-dev/bookq/lib/web"
)

func quiet() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func eur() records.Commodity {
	return records.Commodity{Namespace: "CURRENCY", Mnemonic: "EUR"}
}

func server(t *testing.T) *httptest.Server {
	t.Helper()
	set := &records.Set{
		Accounts: []records.Account{
			{ID: "acc-root", Name: "Root", Type: "ROOT", Commodity: eur()},
			{ID: "acc-bank", ParentID: "acc-root", Name: "Bank", Type: "BANK", Commodity: eur()},
			{ID: "acc-ar", ParentID: "acc-root", Name: "Receivable", Type: "RECEIVABLE", Commodity: eur()},
			{ID: "acc-metal", ParentID: "acc-root", Name: "Metal", Type: "ASSET",
				Commodity: records.Commodity{Namespace: "COMMODITY", Mnemonic: "XAU"}},
		},
		Customers: []records.Customer{
			{ID: "cust-1", Name: "Acme", Active: true},
		},
		TaxTables: []records.TaxTable{
			{ID: "tt-19", Name: "Standard", Entries: []records.TaxTableEntry{
				{Amount: "19", Type: "PERCENT"},
			}},
		},
		Invoices: []records.Invoice{
			{ID: "inv-1", Num: "INV-001", OwnerKind: "customer", OwnerID: "cust-1",
				DateOpened: "2024-01-10", Currency: eur(), LotID: "lot-1", Active: true},
			{ID: "inv-2", Num: "INV-002", OwnerKind: "customer", OwnerID: "cust-1",
				DateOpened: "2024-01-15", Currency: eur(), LotID: "lot-2", Active: true},
			{ID: "inv-bad", Num: "INV-BAD", OwnerKind: "customer", OwnerID: "cust-404",
				DateOpened: "2024-01-20", Currency: eur(), Active: true},
		},
		Lines: []records.Line{
			{ID: "line-1", InvoiceID: "inv-1", Date: "2024-01-10", Quantity: "1",
				InvoicePrice: "50", Taxable: true, TaxTableID: "tt-19"},
			{ID: "line-2", InvoiceID: "inv-2", Date: "2024-01-15", Quantity: "1",
				InvoicePrice: "100", Taxable: false},
		},
		Transactions: []records.Transaction{
			{ID: "txn-1", DatePosted: "2024-01-25", Currency: eur(), Splits: []records.Split{
				{ID: "s1", AccountID: "acc-bank", Value: "100", Quantity: "100"},
				{ID: "s2", AccountID: "acc-ar", Value: "-100", Quantity: "-100",
					LotID: "lot-2", Action: "Payment"},
			}},
		},
		Prices: []records.Price{
			{ID: "p1", Commodity: records.Commodity{Namespace: "CURRENCY", Mnemonic: "USD"},
				Currency: eur(), Date: "2024-01-01", Value: "0.9"},
		},
	}
	b, err := book.Load(book.DefaultConfig(), set, quiet())
	require.NoError(t, err)

	srv := httptest.NewServer(web.NewRouter(b))
	t.Cleanup(srv.Close)
	return srv
}

func get(t *testing.T, srv *httptest.Server, path string, status int, v any) {
	t.Helper()
	resp, err := http.Get(srv.URL + path)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, status, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	if v != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
	}
}

func TestListAccounts(t *testing.T) {
	srv := server(t)
	var res []map[string]any
	get(t, srv, "/api/accounts", http.StatusOK, &res)
	assert.Len(t, res, 4)
}

func TestGetAccount(t *testing.T) {
	srv := server(t)

	var res map[string]any
	get(t, srv, "/api/accounts/acc-bank", http.StatusOK, &res)
	assert.Equal(t, "Bank", res["name"])
	assert.Equal(t, "EUR", res["commodity"])

	get(t, srv, "/api/accounts/acc-404", http.StatusNotFound, nil)
}

func TestGetBalance(t *testing.T) {
	srv := server(t)

	var res map[string]any
	get(t, srv, "/api/accounts/acc-bank/balance", http.StatusOK, &res)
	assert.Equal(t, "100", res["balance"])
	assert.Equal(t, "EUR", res["currency"])

	get(t, srv, "/api/accounts/acc-root/balance?recursive=true", http.StatusUnprocessableEntity, nil)
	get(t, srv, "/api/accounts/acc-bank/balance?as_of=2024-01-10", http.StatusOK, &res)
	assert.Equal(t, "0", res["balance"])

	get(t, srv, "/api/accounts/acc-bank/balance?as_of=bogus", http.StatusBadRequest, nil)
	get(t, srv, "/api/accounts/acc-bank/balance?currency=XXX", http.StatusNotFound, nil)
	get(t, srv, "/api/accounts/acc-metal/balance?currency=EUR", http.StatusUnprocessableEntity, nil)
}

func TestListInvoices(t *testing.T) {
	srv := server(t)

	var res []map[string]any
	get(t, srv, "/api/invoices", http.StatusOK, &res)
	// inv-bad's owner cannot be resolved, so it is omitted
	require.Len(t, res, 2)

	get(t, srv, "/api/invoices?unpaid=true", http.StatusOK, &res)
	require.Len(t, res, 1)
	assert.Equal(t, "inv-1", res[0]["id"])
	assert.Equal(t, "59.5", res[0]["amount_incl_tax"])

	get(t, srv, "/api/invoices?owner=cust-1", http.StatusOK, &res)
	require.Len(t, res, 2)
}

func TestGetInvoice(t *testing.T) {
	srv := server(t)

	var res map[string]any
	get(t, srv, "/api/invoices/inv-1", http.StatusOK, &res)
	assert.Equal(t, "customer", res["side"])
	assert.Equal(t, "Acme", res["owner"])
	assert.Equal(t, "50", res["amount_excl_tax"])
	assert.Equal(t, "59.5", res["amount_incl_tax"])
	assert.Equal(t, false, res["fully_paid"])

	get(t, srv, "/api/invoices/inv-404", http.StatusNotFound, nil)
	get(t, srv, "/api/invoices/inv-bad", http.StatusUnprocessableEntity, nil)
}

func TestListPrices(t *testing.T) {
	srv := server(t)

	var res []map[string]any
	get(t, srv, "/api/prices", http.StatusOK, &res)
	require.Len(t, res, 1)
	assert.Equal(t, "USD", res[0]["commodity"])
	assert.Equal(t, "EUR", res[0]["currency"])
	assert.Equal(t, "0.9", res[0]["factor"])
}

func TestListParties(t *testing.T) {
	srv := server(t)

	var res []map[string]any
	get(t, srv, "/api/customers", http.StatusOK, &res)
	require.Len(t, res, 1)
	assert.Equal(t, "Acme", res[0]["name"])

	var vendors []map[string]any
	get(t, srv, "/api/vendors", http.StatusOK, &vendors)
	assert.Empty(t, vendors)
}
