package cmd

import (
	"bytes"
	"io"
	"log/slog"
	"time"

	"github.com/natefinch/atomic"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/bookq-dev/bookq/lib/book"
	"github.com/bookq-dev/bookq/lib/report"
)

// dateFlag manages a flag holding a cutoff date.
type dateFlag time.Time

var _ pflag.Value = (*dateFlag)(nil)

func (df dateFlag) String() string {
	return formatDate(time.Time(df))
}

// Set implements pflag.Value.
func (df *dateFlag) Set(v string) error {
	t, err := time.Parse("2006-01-02", v)
	if err != nil {
		return err
	}
	*df = dateFlag(t)
	return nil
}

// Type implements pflag.Value.
func (df dateFlag) Type() string {
	return "YYYY-MM-DD"
}

// Value returns the flag value. An unset flag is the zero time,
// meaning no cutoff.
func (df dateFlag) Value() time.Time {
	return time.Time(df)
}

// bookFlags are the flags shared by all commands which load a book.
type bookFlags struct {
	config string
}

func (bf *bookFlags) setup(c *cobra.Command) {
	c.Flags().StringVar(&bf.config, "config", "", "path to a bookq.yaml config file")
}

func (bf *bookFlags) load(file string) (*book.Book, error) {
	cfg := book.DefaultConfig()
	if bf.config != "" {
		var err error
		if cfg, err = book.ReadConfig(bf.config); err != nil {
			return nil, err
		}
	}
	return book.LoadFile(cfg, file, slog.Default())
}

// renderFlags are the flags shared by all table-producing commands.
type renderFlags struct {
	csv    bool
	color  bool
	round  int32
	output string
}

func (rf *renderFlags) setup(c *cobra.Command) {
	c.Flags().BoolVar(&rf.csv, "csv", false, "render as CSV")
	c.Flags().BoolVar(&rf.color, "color", true, "print output in color")
	c.Flags().Int32Var(&rf.round, "digits", 2, "round to number of digits")
	c.Flags().StringVarP(&rf.output, "output", "o", "", "write output to a file")
}

// render writes the table to the command's stdout, or atomically to
// the --output file.
func (rf *renderFlags) render(t *report.Table, out io.Writer) error {
	var buf bytes.Buffer
	if rf.csv {
		r := report.CSVRenderer{Round: rf.round}
		if err := r.Render(t, &buf); err != nil {
			return err
		}
	} else {
		r := report.TextRenderer{Color: rf.color && rf.output == "", Round: rf.round}
		if err := r.Render(t, &buf); err != nil {
			return err
		}
	}
	if rf.output != "" {
		return atomic.WriteFile(rf.output, &buf)
	}
	_, err := out.Write(buf.Bytes())
	return err
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}
