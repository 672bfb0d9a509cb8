package taxtable

import (
	"fmt"

	"github.com/bookq-dev/bookq/lib/common/compare"
	"github.com/shopspring/decimal"
)

// EntryType is the type of a tax table entry.
type EntryType int

const (
	// Percent is a percentage rate, e.g. 19 for 19%.
	Percent EntryType = iota
	// Fixed is a fixed amount per line.
	Fixed
)

func (t EntryType) String() string {
	switch t {
	case Percent:
		return "PERCENT"
	case Fixed:
		return "VALUE"
	}
	return ""
}

// ParseEntryType parses an entry type as it appears in decoded
// records.
func ParseEntryType(s string) (EntryType, error) {
	switch s {
	case "PERCENT":
		return Percent, nil
	case "VALUE":
		return Fixed, nil
	}
	return 0, fmt.Errorf("invalid tax table entry type %q", s)
}

// Entry is a single rate or amount in a tax table.
type Entry struct {
	Amount decimal.Decimal
	Type   EntryType
}

// TaxTable is a named, ordered set of tax entries. ParentID links
// versioned tables; the chain is informational and not resolved here.
type TaxTable struct {
	ID       string
	Name     string
	ParentID string
	Entries  []Entry
}

// FirstPercent returns the table's first entry's percentage, or false
// if the table is empty or its first entry is not a percentage.
func (t *TaxTable) FirstPercent() (decimal.Decimal, bool) {
	if len(t.Entries) == 0 || t.Entries[0].Type != Percent {
		return decimal.Zero, false
	}
	return t.Entries[0].Amount, true
}

func (t *TaxTable) String() string {
	return t.Name
}

func Compare(t1, t2 *TaxTable) compare.Order {
	if o := compare.Ordered(t1.Name, t2.Name); o != compare.Equal {
		return o
	}
	return compare.Ordered(t1.ID, t2.ID)
}
