package account

import (
	"fmt"

	"github.com/bookq-dev/bookq/lib/common/compare"
	"github.com/bookq-dev/bookq/lib/model/commodity"
)

// Type is the type of an account.
type Type int

const (
	Asset Type = iota
	Bank
	Cash
	Credit
	Liability
	Equity
	Income
	Expense
	Receivable
	Payable
	Trading
	Root
)

var typeNames = map[Type]string{
	Asset:      "ASSET",
	Bank:       "BANK",
	Cash:       "CASH",
	Credit:     "CREDIT",
	Liability:  "LIABILITY",
	Equity:     "EQUITY",
	Income:     "INCOME",
	Expense:    "EXPENSE",
	Receivable: "RECEIVABLE",
	Payable:    "PAYABLE",
	Trading:    "TRADING",
	Root:       "ROOT",
}

var types = func() map[string]Type {
	res := make(map[string]Type, len(typeNames))
	for t, n := range typeNames {
		res[n] = t
	}
	return res
}()

func (t Type) String() string {
	return typeNames[t]
}

// ParseType parses an account type name as it appears in decoded
// records.
func ParseType(s string) (Type, error) {
	t, ok := types[s]
	if !ok {
		return 0, fmt.Errorf("invalid account type %q", s)
	}
	return t, nil
}

// Account is an immutable snapshot of an account. Splits referencing
// the account are kept in the registry's secondary index, not here.
type Account struct {
	ID          string
	ParentID    string // empty for a root account
	Name        string
	Code        string
	Description string
	Type        Type
	Commodity   *commodity.Commodity
}

// IsRoot reports whether the account has no parent.
func (a *Account) IsRoot() bool {
	return a.ParentID == ""
}

func (a *Account) String() string {
	return a.Name
}

// Compare orders accounts by code, then name, then identity. Codes
// are compared as strings, matching the source system's sort.
func Compare(a1, a2 *Account) compare.Order {
	if o := compare.Ordered(a1.Code, a2.Code); o != compare.Equal {
		return o
	}
	if o := compare.Ordered(a1.Name, a2.Name); o != compare.Equal {
		return o
	}
	return compare.Ordered(a1.ID, a2.ID)
}
