package commodity

import (
	"fmt"

	"github.com/bookq-dev/bookq/lib/common/compare"
)

// CurrencyNamespaces are the namespaces whose commodities are
// currencies. Source datasets use either spelling.
var CurrencyNamespaces = map[string]bool{
	"CURRENCY": true,
	"ISO4217":  true,
}

// Commodity is an interned commodity or currency. Two commodities are
// identical iff their pointers are identical; instances are obtained
// exclusively from a Registry.
type Commodity struct {
	namespace string
	mnemonic  string
}

// Namespace returns the commodity's namespace, e.g. "CURRENCY".
func (c *Commodity) Namespace() string {
	return c.namespace
}

// Mnemonic returns the commodity's symbol, e.g. "EUR".
func (c *Commodity) Mnemonic() string {
	return c.mnemonic
}

// IsCurrency reports whether the commodity lives in a currency
// namespace.
func (c *Commodity) IsCurrency() bool {
	return CurrencyNamespaces[c.namespace]
}

func (c *Commodity) String() string {
	if c.IsCurrency() {
		return c.mnemonic
	}
	return fmt.Sprintf("%s:%s", c.namespace, c.mnemonic)
}

func Compare(c1, c2 *Commodity) compare.Order {
	if o := compare.Ordered(c1.namespace, c2.namespace); o != compare.Equal {
		return o
	}
	return compare.Ordered(c1.mnemonic, c2.mnemonic)
}
