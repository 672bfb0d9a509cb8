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
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"
)

func createCheckCmd() *cobra.Command {
	var r checkRunner
	c := &cobra.Command{
		Use:   "check FILE",
		Short: "report data-quality findings",
		Long: `Report unbalanced transactions, records skipped during the load,
invoices whose tax tables fall back to the default rate, and owner
references which cannot be resolved. Findings are reported, never
fixed; the dataset is read-only.`,
		Args: cobra.ExactArgs(1),
		RunE: r.run,
	}
	r.setupFlags(c)
	return c
}

type checkRunner struct {
	bookFlags
}

func (r *checkRunner) setupFlags(c *cobra.Command) {
	r.bookFlags.setup(c)
}

func (r *checkRunner) run(cmd *cobra.Command, args []string) error {
	b, err := r.load(args[0])
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	findings := 0

	for _, err := range multierr.Errors(b.Warnings) {
		findings++
		fmt.Fprintf(out, "skipped: %v\n", err)
	}
	for _, t := range b.Registry.Transactions() {
		if !b.Balances.IsBalanced(t) {
			findings++
			fmt.Fprintf(out, "unbalanced transaction %s %s: residual %s\n",
				formatDate(t.DatePosted), t.Description, t.Residual())
		}
	}
	for _, inv := range b.Registry.Invoices() {
		totals, err := b.Billing.Totals(inv)
		if err != nil {
			findings++
			fmt.Fprintf(out, "invoice %s: %v\n", inv.Num, err)
			continue
		}
		if totals.FallbackTax {
			findings++
			fmt.Fprintf(out, "invoice %s: tax fallback applied (%s%%)\n",
				inv.Num, b.Config.TaxFallbackPercent)
		}
	}
	if findings == 0 {
		fmt.Fprintln(out, "no findings")
	} else {
		fmt.Fprintf(out, "%d finding(s)\n", findings)
	}
	return nil
}
