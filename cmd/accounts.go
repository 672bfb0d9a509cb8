package cmd

import (
	"github.com/spf13/cobra"

	"github.com/bookq-dev/bookq/lib/book"
	"github.com/bookq-dev/bookq/lib/model/account"
	"github.com/bookq-dev/bookq/lib/report"
)

func createAccountsCmd() *cobra.Command {
	var r accountsRunner
	c := &cobra.Command{
		Use:   "accounts FILE",
		Short: "list the account tree",
		Args:  cobra.ExactArgs(1),
		RunE:  r.run,
	}
	r.setupFlags(c)
	return c
}

type accountsRunner struct {
	bookFlags
	renderFlags
}

func (r *accountsRunner) setupFlags(c *cobra.Command) {
	r.bookFlags.setup(c)
	r.renderFlags.setup(c)
}

func (r *accountsRunner) run(cmd *cobra.Command, args []string) error {
	b, err := r.load(args[0])
	if err != nil {
		return err
	}
	t := report.New(4)
	header := t.AddRow()
	header.AddText("Account", report.Left)
	header.AddText("Code", report.Left)
	header.AddText("Type", report.Left)
	header.AddText("Commodity", report.Left)
	t.AddSeparatorRow()
	for _, root := range b.Registry.RootAccounts() {
		addAccountRows(t, b, root, 0)
	}
	return r.render(t, cmd.OutOrStdout())
}

func addAccountRows(t *report.Table, b *book.Book, a *account.Account, indent int) {
	row := t.AddRow()
	row.AddIndented(a.Name, indent)
	row.AddText(a.Code, report.Left)
	row.AddText(a.Type.String(), report.Left)
	row.AddText(a.Commodity.String(), report.Left)
	for _, child := range b.Registry.Children(a.ID) {
		addAccountRows(t, b, child, indent+2)
	}
}
