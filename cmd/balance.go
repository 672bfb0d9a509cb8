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

package cmd

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/bookq-dev/bookq/lib/book"
	"github.com/bookq-dev/bookq/lib/model/account"
	"github.com/bookq-dev/bookq/lib/model/commodity"
	"github.com/bookq-dev/bookq/lib/report"
)

func createBalanceCmd() *cobra.Command {
	var r balanceRunner
	c := &cobra.Command{
		Use:   "balance FILE",
		Short: "compute account balances",
		Long:  `Compute the balance of every account as of a date, optionally converted into a single currency.`,
		Args:  cobra.ExactArgs(1),
		RunE:  r.run,
	}
	r.setupFlags(c)
	return c
}

type balanceRunner struct {
	bookFlags
	renderFlags

	asOf      dateFlag
	valuation string
	recursive bool
}

func (r *balanceRunner) setupFlags(c *cobra.Command) {
	r.bookFlags.setup(c)
	r.renderFlags.setup(c)
	c.Flags().Var(&r.asOf, "as-of", "cutoff date")
	c.Flags().StringVar(&r.valuation, "val", "", "convert balances into the given currency")
	c.Flags().BoolVar(&r.recursive, "recursive", false, "show subtree totals instead of own balances")
}

func (r *balanceRunner) run(cmd *cobra.Command, args []string) error {
	b, err := r.load(args[0])
	if err != nil {
		return err
	}
	asOf := r.asOf.Value()
	var target *commodity.Commodity
	if r.valuation != "" {
		if target, err = b.Registry.Commodities().Get("CURRENCY", r.valuation); err != nil {
			return err
		}
	}

	t := report.New(3)
	header := t.AddRow()
	header.AddText("Account", report.Left)
	header.AddText("Commodity", report.Left)
	header.AddText("Balance", report.Right)
	t.AddSeparatorRow()
	for _, root := range b.Registry.RootAccounts() {
		r.addRows(t, b, root, 0, asOf, target)
	}
	return r.render(t, cmd.OutOrStdout())
}

func (r *balanceRunner) addRows(t *report.Table, b *book.Book, a *account.Account, indent int, asOf time.Time, target *commodity.Commodity) {
	row := t.AddRow()
	row.AddIndented(a.Name, indent)
	com := a.Commodity
	if target != nil {
		com = target
	}
	row.AddText(com.String(), report.Left)
	switch {
	case target == nil && r.recursive:
		row.AddNumber(b.Balances.Recursive(a, asOf))
	case target == nil:
		row.AddNumber(b.Balances.Own(a, asOf))
	case r.recursive:
		if bal, ok := b.Balances.RecursiveIn(a, asOf, target); ok {
			row.AddNumber(bal)
		} else {
			row.AddText("n/a", report.Right)
		}
	default:
		if bal, ok := b.Balances.OwnIn(a, asOf, target); ok {
			row.AddNumber(bal)
		} else {
			row.AddText("n/a", report.Right)
		}
	}
	for _, child := range b.Registry.Children(a.ID) {
		r.addRows(t, b, child, indent+2, asOf, target)
	}
}
