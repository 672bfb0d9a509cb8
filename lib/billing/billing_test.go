package billing_test

import (
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/bookq-dev/bookq/lib/billing"
	"github.com/bookq-dev/bookq/lib/model/account"
	"github.com/bookq-dev/bookq/lib/model/invoice"
	"github.com/bookq-dev/bookq/lib/model/party"
	"github.com/bookq-dev/bookq/lib/model/registry"
	"github.com/bookq-dev/bookq/lib/model/taxtable"
	"github.com/bookq-dev/bookq/lib/model/transaction"
	"github.com/bookq-dev/bookq/lib/owner"
	"github.com/bookq-dev/bookq/lib/taxtab"
)

func quiet() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func date(s string) time.Time {
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return d
}

func num(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// fixture builds a ledger with one customer invoice (settlement lot
// "lot-1", 70 excl / 83.30 incl at 19%) and one vendor bill
// ("lot-2", 200 excl / 238 incl). payments lists (lotID, accountID,
// value) settlement splits to register alongside.
type payment struct {
	lotID     string
	accountID string
	value     string
}

func fixture(t *testing.T, payments []payment) (*registry.Registry, *billing.Ledger) {
	t.Helper()
	reg := registry.New(quiet())
	eur := reg.Commodities().MustGet("CURRENCY", "EUR")

	accounts := []*account.Account{
		{ID: "ar", Name: "Receivable", Type: account.Receivable, Commodity: eur},
		{ID: "ap", Name: "Payable", Type: account.Payable, Commodity: eur},
		{ID: "bank", Name: "Bank", Type: account.Bank, Commodity: eur},
	}
	for _, a := range accounts {
		if err := reg.RegisterAccount(a); err != nil {
			t.Fatal(err)
		}
	}
	if err := reg.RegisterCustomer(&party.CustomerEntity{ID: "cust-1", Name: "Acme", Active: true}); err != nil {
		t.Fatal(err)
	}
	if err := reg.RegisterVendor(&party.VendorEntity{ID: "vend-1", Name: "Initech", Active: true}); err != nil {
		t.Fatal(err)
	}
	if err := reg.RegisterJob(&party.JobEntity{
		ID: "job-1", Name: "Rollout", Active: true,
		Owner: party.Ref{Kind: party.Vendor, ID: "vend-1"},
	}); err != nil {
		t.Fatal(err)
	}
	if err := reg.RegisterTaxTable(&taxtable.TaxTable{
		ID: "tt-19", Name: "Standard",
		Entries: []taxtable.Entry{{Amount: num("19"), Type: taxtable.Percent}},
	}); err != nil {
		t.Fatal(err)
	}

	invoices := []*invoice.Invoice{
		{
			ID: "inv-1", Num: "INV-001",
			Owner:      party.Ref{Kind: party.Customer, ID: "cust-1"},
			DateOpened: date("2024-01-10"), DatePosted: date("2024-01-10"),
			Currency: eur, LotID: "lot-1", Active: true,
		},
		{
			ID: "bill-1", Num: "BILL-001",
			Owner:      party.Ref{Kind: party.Vendor, ID: "vend-1"},
			DateOpened: date("2024-01-12"), DatePosted: date("2024-01-12"),
			Currency: eur, LotID: "lot-2", Active: true,
		},
	}
	for _, inv := range invoices {
		if err := reg.RegisterInvoice(inv); err != nil {
			t.Fatal(err)
		}
	}
	lines := []*invoice.Line{
		{
			ID: "line-1", InvoiceID: "inv-1", Date: date("2024-01-10"),
			Quantity: num("1"), InvoicePrice: num("50"),
			Taxable: true, TaxTableID: "tt-19",
		},
		{
			ID: "line-2", InvoiceID: "inv-1", Date: date("2024-01-10"),
			Quantity: num("2"), InvoicePrice: num("10"),
			Taxable: true, TaxTableID: "tt-19",
		},
		{
			ID: "line-3", InvoiceID: "bill-1", Date: date("2024-01-12"),
			Quantity: num("4"), BillPrice: num("50"),
			Taxable: true, TaxTableID: "tt-19",
		},
	}
	for _, line := range lines {
		if err := reg.RegisterLine(line); err != nil {
			t.Fatal(err)
		}
	}
	for i, p := range payments {
		txn := transaction.Builder{
			ID:         "pay-" + p.lotID,
			DatePosted: date("2024-01-20").AddDate(0, 0, i),
			Currency:   eur,
			Splits: []*transaction.Split{
				{
					ID: "ps-" + p.lotID, AccountID: p.accountID,
					Value: num(p.value), Quantity: num(p.value),
					LotID: p.lotID, Action: transaction.ActionPayment,
				},
				{
					ID: "ps-bank-" + p.lotID, AccountID: "bank",
					Value: num(p.value).Neg(), Quantity: num(p.value).Neg(),
				},
			},
		}.Build()
		if err := reg.RegisterTransaction(txn); err != nil {
			t.Fatal(err)
		}
	}
	if err := reg.Build(); err != nil {
		t.Fatal(err)
	}
	owners := owner.New(reg, quiet())
	taxes := taxtab.New(reg, taxtab.DefaultFallback(), quiet())
	return reg, billing.New(reg, owners, taxes, num("0.01"), quiet())
}

func get(t *testing.T, reg *registry.Registry, id string) *invoice.Invoice {
	t.Helper()
	inv, ok := reg.Invoice(id)
	if !ok {
		t.Fatalf("invoice %s not found", id)
	}
	return inv
}

func TestCustomerInvoiceTotals(t *testing.T) {
	reg, led := fixture(t, nil)

	got, err := led.Totals(get(t, reg, "inv-1"))
	if err != nil {
		t.Fatal(err)
	}
	if got.Side != party.Customer {
		t.Errorf("Side = %s, want customer", got.Side)
	}
	if !got.ExclTax.Equal(num("70")) {
		t.Errorf("ExclTax = %s, want 70", got.ExclTax)
	}
	if !got.InclTax.Equal(num("83.3")) {
		t.Errorf("InclTax = %s, want 83.30", got.InclTax)
	}
	if !got.Paid.IsZero() || got.FullyPaid {
		t.Errorf("Paid = %s, FullyPaid = %t, want unpaid", got.Paid, got.FullyPaid)
	}
	if len(got.Breakdown) != 1 {
		t.Fatalf("Breakdown has %d shares, want 1", len(got.Breakdown))
	}
	share := got.Breakdown[0]
	if !share.Percent.Equal(num("19")) || !share.Tax.Equal(num("13.3")) {
		t.Errorf("Breakdown[0] = %s%% %s, want 19%% 13.30", share.Percent, share.Tax)
	}
	if got.FallbackTax {
		t.Error("FallbackTax = true, want false")
	}
}

func TestVendorBillTotals(t *testing.T) {
	reg, led := fixture(t, nil)

	got, err := led.Totals(get(t, reg, "bill-1"))
	if err != nil {
		t.Fatal(err)
	}
	if got.Side != party.Vendor {
		t.Errorf("Side = %s, want vendor", got.Side)
	}
	if !got.ExclTax.Equal(num("200")) || !got.InclTax.Equal(num("238")) {
		t.Errorf("totals = %s / %s, want 200 / 238", got.ExclTax, got.InclTax)
	}
}

func TestFullPayment(t *testing.T) {
	reg, led := fixture(t, []payment{{"lot-1", "ar", "-83.30"}})

	got, err := led.Totals(get(t, reg, "inv-1"))
	if err != nil {
		t.Fatal(err)
	}
	if !got.Paid.Equal(num("83.3")) {
		t.Errorf("Paid = %s, want 83.30", got.Paid)
	}
	if !got.Unpaid.IsZero() || !got.FullyPaid {
		t.Errorf("Unpaid = %s, FullyPaid = %t, want settled", got.Unpaid, got.FullyPaid)
	}
}

func TestPartialPayment(t *testing.T) {
	reg, led := fixture(t, []payment{{"lot-1", "ar", "-50"}})

	got, err := led.Totals(get(t, reg, "inv-1"))
	if err != nil {
		t.Fatal(err)
	}
	if !got.Paid.Equal(num("50")) || !got.Unpaid.Equal(num("33.3")) {
		t.Errorf("Paid = %s, Unpaid = %s, want 50 / 33.30", got.Paid, got.Unpaid)
	}
	if got.FullyPaid {
		t.Error("FullyPaid = true for a partially paid invoice")
	}
}

func TestVendorPayment(t *testing.T) {
	reg, led := fixture(t, []payment{{"lot-2", "ap", "238"}})

	got, err := led.Totals(get(t, reg, "bill-1"))
	if err != nil {
		t.Fatal(err)
	}
	if !got.Paid.Equal(num("238")) || !got.FullyPaid {
		t.Errorf("Paid = %s, FullyPaid = %t, want settled", got.Paid, got.FullyPaid)
	}
}

func TestPaymentOnWrongSideSplitIgnored(t *testing.T) {
	// A positive receivable split carries the payment tag but is not a
	// customer settlement; it must not count towards Paid.
	reg, led := fixture(t, []payment{{"lot-1", "ar", "20"}})

	got, err := led.Totals(get(t, reg, "inv-1"))
	if err != nil {
		t.Fatal(err)
	}
	if !got.Paid.IsZero() {
		t.Errorf("Paid = %s, want 0", got.Paid)
	}
}

func TestTaxIncludedLineAddsNoTax(t *testing.T) {
	reg := registry.New(quiet())
	eur := reg.Commodities().MustGet("CURRENCY", "EUR")
	if err := reg.RegisterCustomer(&party.CustomerEntity{ID: "cust-1", Name: "Acme", Active: true}); err != nil {
		t.Fatal(err)
	}
	if err := reg.RegisterTaxTable(&taxtable.TaxTable{
		ID: "tt-19", Name: "Standard",
		Entries: []taxtable.Entry{{Amount: num("19"), Type: taxtable.Percent}},
	}); err != nil {
		t.Fatal(err)
	}
	if err := reg.RegisterInvoice(&invoice.Invoice{
		ID: "inv-1", Num: "INV-001",
		Owner:      party.Ref{Kind: party.Customer, ID: "cust-1"},
		DateOpened: date("2024-01-10"), Currency: eur, Active: true,
	}); err != nil {
		t.Fatal(err)
	}
	if err := reg.RegisterLine(&invoice.Line{
		ID: "line-1", InvoiceID: "inv-1", Date: date("2024-01-10"),
		Quantity: num("1"), InvoicePrice: num("59.5"),
		Taxable: true, TaxIncluded: true, TaxTableID: "tt-19",
	}); err != nil {
		t.Fatal(err)
	}
	if err := reg.Build(); err != nil {
		t.Fatal(err)
	}
	led := billing.New(reg, owner.New(reg, quiet()), taxtab.New(reg, taxtab.DefaultFallback(), quiet()), num("0.01"), quiet())

	got, err := led.Totals(get(t, reg, "inv-1"))
	if err != nil {
		t.Fatal(err)
	}
	if !got.ExclTax.Equal(num("59.5")) || !got.InclTax.Equal(num("59.5")) {
		t.Errorf("totals = %s / %s, want 59.50 / 59.50", got.ExclTax, got.InclTax)
	}
	if len(got.Breakdown) != 1 || !got.Breakdown[0].Tax.IsZero() {
		t.Errorf("Breakdown = %+v, want a single zero-tax share", got.Breakdown)
	}
}

func TestSideMismatchIsKindError(t *testing.T) {
	reg, led := fixture(t, nil)

	_, err := led.CustomerTotals(get(t, reg, "bill-1"))
	var kindErr *billing.KindError
	if !errors.As(err, &kindErr) {
		t.Fatalf("CustomerTotals(bill) = %v, want KindError", err)
	}
	if kindErr.Got != party.Vendor || kindErr.Want != party.Customer {
		t.Errorf("KindError = got %s want %s", kindErr.Got, kindErr.Want)
	}

	if _, err := led.VendorTotals(get(t, reg, "inv-1")); !errors.As(err, &kindErr) {
		t.Fatalf("VendorTotals(invoice) = %v, want KindError", err)
	}

	if _, err := led.VendorTotals(get(t, reg, "bill-1")); err != nil {
		t.Fatalf("VendorTotals(bill) = %v, want success", err)
	}
}

func TestJobInvoiceResolvesToOwnerSide(t *testing.T) {
	reg := registry.New(quiet())
	eur := reg.Commodities().MustGet("CURRENCY", "EUR")
	if err := reg.RegisterVendor(&party.VendorEntity{ID: "vend-1", Name: "Initech", Active: true}); err != nil {
		t.Fatal(err)
	}
	if err := reg.RegisterJob(&party.JobEntity{
		ID: "job-1", Name: "Rollout", Active: true,
		Owner: party.Ref{Kind: party.Vendor, ID: "vend-1"},
	}); err != nil {
		t.Fatal(err)
	}
	if err := reg.RegisterInvoice(&invoice.Invoice{
		ID: "bill-j", Num: "BILL-J",
		Owner:      party.Ref{Kind: party.Job, ID: "job-1"},
		DateOpened: date("2024-02-01"), Currency: eur, Active: true,
	}); err != nil {
		t.Fatal(err)
	}
	if err := reg.RegisterLine(&invoice.Line{
		ID: "line-j", InvoiceID: "bill-j", Date: date("2024-02-01"),
		Quantity: num("1"), BillPrice: num("100"),
	}); err != nil {
		t.Fatal(err)
	}
	if err := reg.Build(); err != nil {
		t.Fatal(err)
	}
	led := billing.New(reg, owner.New(reg, quiet()), taxtab.New(reg, taxtab.DefaultFallback(), quiet()), num("0.01"), quiet())

	got, err := led.Totals(get(t, reg, "bill-j"))
	if err != nil {
		t.Fatal(err)
	}
	if got.Side != party.Vendor {
		t.Errorf("Side = %s, want vendor", got.Side)
	}
	// the line is not taxable, so excl and incl coincide
	if !got.ExclTax.Equal(num("100")) || !got.InclTax.Equal(num("100")) {
		t.Errorf("totals = %s / %s, want 100 / 100", got.ExclTax, got.InclTax)
	}
}

func TestFallbackTaxIsFlagged(t *testing.T) {
	reg := registry.New(quiet())
	eur := reg.Commodities().MustGet("CURRENCY", "EUR")
	if err := reg.RegisterCustomer(&party.CustomerEntity{ID: "cust-1", Name: "Acme", Active: true}); err != nil {
		t.Fatal(err)
	}
	if err := reg.RegisterInvoice(&invoice.Invoice{
		ID: "inv-1", Num: "INV-001",
		Owner:      party.Ref{Kind: party.Customer, ID: "cust-1"},
		DateOpened: date("2024-01-10"), Currency: eur, Active: true,
	}); err != nil {
		t.Fatal(err)
	}
	if err := reg.RegisterLine(&invoice.Line{
		ID: "line-1", InvoiceID: "inv-1", Date: date("2024-01-10"),
		Quantity: num("1"), InvoicePrice: num("100"),
		Taxable: true, TaxTableID: "tt-404",
	}); err != nil {
		t.Fatal(err)
	}
	if err := reg.Build(); err != nil {
		t.Fatal(err)
	}
	led := billing.New(reg, owner.New(reg, quiet()), taxtab.New(reg, taxtab.DefaultFallback(), quiet()), num("0.01"), quiet())

	got, err := led.Totals(get(t, reg, "inv-1"))
	if err != nil {
		t.Fatal(err)
	}
	if !got.FallbackTax {
		t.Error("FallbackTax = false, want true")
	}
	if !got.InclTax.Equal(num("119")) {
		t.Errorf("InclTax = %s, want 119", got.InclTax)
	}
}
