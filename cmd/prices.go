package cmd

import (
	"github.com/spf13/cobra"

	"github.com/bookq-dev/bookq/lib/report"
)

func createPricesCmd() *cobra.Command {
	var r pricesRunner
	c := &cobra.Command{
		Use:   "prices FILE",
		Short: "show conversion factors into the base currency",
		Args:  cobra.ExactArgs(1),
		RunE:  r.run,
	}
	r.setupFlags(c)
	return c
}

type pricesRunner struct {
	bookFlags
	renderFlags

	asOf dateFlag
}

func (r *pricesRunner) setupFlags(c *cobra.Command) {
	r.bookFlags.setup(c)
	r.renderFlags.setup(c)
	c.Flags().Var(&r.asOf, "as-of", "cutoff date")
}

func (r *pricesRunner) run(cmd *cobra.Command, args []string) error {
	b, err := r.load(args[0])
	if err != nil {
		return err
	}
	table := b.Prices.Table(r.asOf.Value())

	t := report.New(3)
	header := t.AddRow()
	header.AddText("Commodity", report.Left)
	header.AddText("Currency", report.Left)
	header.AddText("Factor", report.Right)
	t.AddSeparatorRow()
	for _, c := range b.Registry.PricedCommodities() {
		factor, ok := table[c]
		row := t.AddRow()
		row.AddText(c.String(), report.Left)
		row.AddText(b.Base.String(), report.Left)
		if ok {
			row.AddNumber(factor)
		} else {
			row.AddText("n/a", report.Right)
		}
	}
	return r.render(t, cmd.OutOrStdout())
}
