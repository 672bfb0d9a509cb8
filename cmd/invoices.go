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
	"github.com/spf13/cobra"

	"github.com/bookq-dev/bookq/lib/report"
)

func createInvoicesCmd() *cobra.Command {
	var r invoicesRunner
	c := &cobra.Command{
		Use:   "invoices FILE",
		Short: "list invoices with totals and payment status",
		Long: `List every invoice and bill with its tax-exclusive and tax-inclusive
totals, the amount paid through its settlement lot, and its payment
status.`,
		Args: cobra.ExactArgs(1),
		RunE: r.run,
	}
	r.setupFlags(c)
	return c
}

type invoicesRunner struct {
	bookFlags
	renderFlags

	unpaidOnly bool
	ownerID    string
}

func (r *invoicesRunner) setupFlags(c *cobra.Command) {
	r.bookFlags.setup(c)
	r.renderFlags.setup(c)
	c.Flags().BoolVar(&r.unpaidOnly, "unpaid", false, "show only invoices which are not fully paid")
	c.Flags().StringVar(&r.ownerID, "owner", "", "show only invoices owned by the given customer, vendor or job")
}

func (r *invoicesRunner) run(cmd *cobra.Command, args []string) error {
	b, err := r.load(args[0])
	if err != nil {
		return err
	}
	invoices := b.Registry.Invoices()
	if r.ownerID != "" {
		invoices = b.Registry.InvoicesOwnedBy(r.ownerID)
	}

	t := report.New(8)
	header := t.AddRow()
	header.AddText("Invoice", report.Left)
	header.AddText("Side", report.Left)
	header.AddText("Owner", report.Left)
	header.AddText("Date", report.Left)
	header.AddText("Excl. Tax", report.Right)
	header.AddText("Incl. Tax", report.Right)
	header.AddText("Paid", report.Right)
	header.AddText("Status", report.Left)
	t.AddSeparatorRow()
	for _, inv := range invoices {
		totals, err := b.Billing.Totals(inv)
		if err != nil {
			row := t.AddRow()
			row.AddText(inv.Num, report.Left)
			row.AddText(err.Error(), report.Left)
			row.FillEmpty()
			continue
		}
		if r.unpaidOnly && totals.FullyPaid {
			continue
		}
		ref, err := b.Owners.Effective(inv.Owner)
		if err != nil {
			return err
		}
		status := "open"
		if totals.FullyPaid {
			status = "paid"
		}
		if totals.FallbackTax {
			status += " (tax fallback)"
		}
		row := t.AddRow()
		row.AddText(inv.Num, report.Left)
		row.AddText(totals.Side.String(), report.Left)
		row.AddText(ref.Name(), report.Left)
		row.AddText(formatDate(inv.DateOpened), report.Left)
		row.AddNumber(totals.ExclTax)
		row.AddNumber(totals.InclTax)
		row.AddNumber(totals.Paid)
		row.AddText(status, report.Left)
	}
	return r.render(t, cmd.OutOrStdout())
}
