package balance_test

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/bookq-dev/bookq/lib/balance"
	"github.com/bookq-dev/bookq/lib/model/account"
	"github.com/bookq-dev/bookq/lib/model/price"
	"github.com/bookq-dev/bookq/lib/model/registry"
	"github.com/bookq-dev/bookq/lib/model/transaction"
	"github.com/bookq-dev/bookq/lib/prices"
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

// fixture builds a three level account tree with splits in EUR and one
// leaf in USD:
//
//	root
//	  assets        +100 -40        (EUR)
//	    bank        +25             (EUR)
//	      vault     +5              (EUR)
//	    broker      +10             (USD)
func fixture(t *testing.T) (*registry.Registry, *balance.Aggregator) {
	t.Helper()
	reg := registry.New(quiet())
	eur := reg.Commodities().MustGet("CURRENCY", "EUR")
	usd := reg.Commodities().MustGet("CURRENCY", "USD")

	accounts := []*account.Account{
		{ID: "root", Name: "Root", Type: account.Root, Commodity: eur},
		{ID: "assets", ParentID: "root", Name: "Assets", Type: account.Asset, Commodity: eur},
		{ID: "bank", ParentID: "assets", Name: "Bank", Type: account.Bank, Commodity: eur},
		{ID: "vault", ParentID: "bank", Name: "Vault", Type: account.Cash, Commodity: eur},
		{ID: "broker", ParentID: "assets", Name: "Broker", Type: account.Asset, Commodity: usd},
	}
	for _, a := range accounts {
		if err := reg.RegisterAccount(a); err != nil {
			t.Fatal(err)
		}
	}

	txns := []*transaction.Transaction{
		transaction.Builder{
			ID: "t1", DatePosted: date("2024-01-10"), Currency: eur,
			Splits: []*transaction.Split{
				{ID: "s1", AccountID: "assets", Value: num("100"), Quantity: num("100")},
				{ID: "s2", AccountID: "bank", Value: num("25"), Quantity: num("25")},
				{ID: "s3", AccountID: "vault", Value: num("5"), Quantity: num("5")},
			},
		}.Build(),
		transaction.Builder{
			ID: "t2", DatePosted: date("2024-02-10"), Currency: eur,
			Splits: []*transaction.Split{
				{ID: "s4", AccountID: "assets", Value: num("-40"), Quantity: num("-40")},
				{ID: "s5", AccountID: "broker", Value: num("9"), Quantity: num("10")},
			},
		}.Build(),
	}
	for _, txn := range txns {
		if err := reg.RegisterTransaction(txn); err != nil {
			t.Fatal(err)
		}
	}
	if err := reg.RegisterPrice(&price.Price{
		ID: "p1", Commodity: usd, Currency: eur,
		Date: date("2024-01-01"), Value: num("0.9"),
	}); err != nil {
		t.Fatal(err)
	}
	if err := reg.Build(); err != nil {
		t.Fatal(err)
	}
	res := prices.New(reg, eur, 5, quiet())
	return reg, balance.New(reg, res, num("0.01"), quiet())
}

func get(t *testing.T, reg *registry.Registry, id string) *account.Account {
	t.Helper()
	a, ok := reg.Account(id)
	if !ok {
		t.Fatalf("account %s not found", id)
	}
	return a
}

func TestOwn(t *testing.T) {
	reg, ag := fixture(t)
	assets := get(t, reg, "assets")

	if got := ag.Own(assets, time.Time{}); !got.Equal(num("60")) {
		t.Fatalf("Own() = %s, want 60", got)
	}
	if got := ag.Own(assets, date("2024-01-31")); !got.Equal(num("100")) {
		t.Fatalf("Own() as of 2024-01-31 = %s, want 100", got)
	}
	if got := ag.Own(get(t, reg, "root"), time.Time{}); !got.IsZero() {
		t.Fatalf("Own() of an account with no splits = %s, want 0", got)
	}
}

func TestRecursive(t *testing.T) {
	reg, ag := fixture(t)

	// root has no own splits; everything rolls up from three levels
	// below: 60 + 25 + 5 + 10.
	if got := ag.Recursive(get(t, reg, "root"), time.Time{}); !got.Equal(num("100")) {
		t.Fatalf("Recursive(root) = %s, want 100", got)
	}
	if got := ag.Recursive(get(t, reg, "bank"), time.Time{}); !got.Equal(num("30")) {
		t.Fatalf("Recursive(bank) = %s, want 30", got)
	}
	if got := ag.Recursive(get(t, reg, "bank"), date("2024-01-31")); !got.Equal(num("30")) {
		t.Fatalf("Recursive(bank) as of 2024-01-31 = %s, want 30", got)
	}
}

func TestOwnIn(t *testing.T) {
	reg, ag := fixture(t)
	eur := reg.Commodities().MustGet("CURRENCY", "EUR")
	broker := get(t, reg, "broker")

	got, ok := ag.OwnIn(broker, time.Time{}, eur)
	if !ok || !got.Equal(num("9")) {
		t.Fatalf("OwnIn(broker, EUR) = %s, %t, want 9", got, ok)
	}
}

func TestRecursiveIn(t *testing.T) {
	reg, ag := fixture(t)
	eur := reg.Commodities().MustGet("CURRENCY", "EUR")
	chf := reg.Commodities().MustGet("CURRENCY", "CHF")
	root := get(t, reg, "root")

	// 90 EUR own-tree plus 10 USD at 0.9.
	got, ok := ag.RecursiveIn(root, time.Time{}, eur)
	if !ok || !got.Equal(num("99")) {
		t.Fatalf("RecursiveIn(root, EUR) = %s, %t, want 99", got, ok)
	}

	// CHF has no quote; a single unconvertible account poisons the
	// whole subtree result.
	if _, ok := ag.RecursiveIn(root, time.Time{}, chf); ok {
		t.Fatal("RecursiveIn() with an unconvertible target, want absent")
	}
}

func TestIsBalanced(t *testing.T) {
	reg, ag := fixture(t)
	eur := reg.Commodities().MustGet("CURRENCY", "EUR")

	balanced := transaction.Builder{
		ID: "tb", DatePosted: date("2024-03-01"), Currency: eur,
		Splits: []*transaction.Split{
			{ID: "b1", AccountID: "bank", Value: num("10"), Quantity: num("10")},
			{ID: "b2", AccountID: "assets", Value: num("-9.995"), Quantity: num("-9.995")},
		},
	}.Build()
	if !ag.IsBalanced(balanced) {
		t.Fatal("IsBalanced() = false for a residual within tolerance")
	}

	unbalanced := transaction.Builder{
		ID: "tu", DatePosted: date("2024-03-01"), Currency: eur,
		Splits: []*transaction.Split{
			{ID: "u1", AccountID: "bank", Value: num("10"), Quantity: num("10")},
		},
	}.Build()
	if ag.IsBalanced(unbalanced) {
		t.Fatal("IsBalanced() = true for a residual of 10")
	}
}
