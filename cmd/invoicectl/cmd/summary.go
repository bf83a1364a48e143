package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"invoicepro/internal/backend"
	"invoicepro/internal/core"
	"invoicepro/internal/records/memory"
	"invoicepro/internal/services"
)

type summaryOptions struct {
	seedFile string
	asJSON   bool
}

func newSummaryCmd() *cobra.Command {
	opts := &summaryOptions{}
	c := &cobra.Command{
		Use:   "summary",
		Short: "Print invoice or timesheet summaries",
		Long: `Print the dashboard aggregates computed from the configured backend,
or from a seed file with --file.

Example:
  invoicectl summary invoices
  invoicectl summary timesheet --file data/seed.yaml --json`,
	}
	c.PersistentFlags().StringVar(&opts.seedFile, "file", "", "summarize a seed YAML file instead of the configured backend")
	c.PersistentFlags().BoolVar(&opts.asJSON, "json", false, "print JSON")

	c.AddCommand(&cobra.Command{
		Use:   "invoices",
		Short: "Totals and counts over all invoices",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, closeFn, err := opts.service(cmd)
			if err != nil {
				return err
			}
			defer closeFn()
			sum, err := svc.InvoiceSummary(commandContext(cmd))
			if err != nil {
				return err
			}
			if opts.asJSON {
				return writeJSON(cmd.OutOrStdout(), invoiceSummaryJSON(sum))
			}
			return printInvoiceSummary(cmd.OutOrStdout(), sum)
		},
	})
	c.AddCommand(&cobra.Command{
		Use:   "timesheet",
		Short: "Hours per employee and per project",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, closeFn, err := opts.service(cmd)
			if err != nil {
				return err
			}
			defer closeFn()
			sum, err := svc.TimesheetSummary(commandContext(cmd))
			if err != nil {
				return err
			}
			if opts.asJSON {
				return writeJSON(cmd.OutOrStdout(), timesheetSummaryJSON(sum))
			}
			return printTimesheetSummary(cmd.OutOrStdout(), sum)
		},
	})
	return c
}

// service opens the record source for a summary run.
func (o *summaryOptions) service(cmd *cobra.Command) (*services.RecordService, func(), error) {
	if o.seedFile != "" {
		store, err := memory.NewFromFile(o.seedFile)
		if err != nil {
			return nil, nil, err
		}
		return services.NewRecordService(store, nil), func() {}, nil
	}

	_, bc, logger, err := loadConfig(cmd.ErrOrStderr())
	if err != nil {
		return nil, nil, err
	}
	// Summaries only read; no events are published.
	bc.Broker = ""
	res, err := backend.NewFactory(logger.Logger).CreateBackend(commandContext(cmd), bc)
	if err != nil {
		return nil, nil, err
	}
	return res.Service, func() { _ = res.Cleanup() }, nil
}

func printInvoiceSummary(w io.Writer, s core.InvoiceSummary) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Total\t%s\t%d invoices\n", core.FormatMoney(s.TotalAmount), s.TotalCount)
	fmt.Fprintf(tw, "Paid\t%s\t%d invoices\n", core.FormatMoney(s.PaidAmount), s.PaidCount)
	fmt.Fprintf(tw, "Pending\t%s\t%d invoices\n", core.FormatMoney(s.PendingAmount), s.PendingCount())
	if len(s.ByStatus) > 0 {
		fmt.Fprintln(tw, "\t\t")
		for _, st := range s.ByStatus {
			fmt.Fprintf(tw, "  %s\t%s\t%d\n", st.Status, core.FormatMoney(st.Amount), st.Count)
		}
	}
	return tw.Flush()
}

func printTimesheetSummary(w io.Writer, s core.TimesheetSummary) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Total hours\t%s\n", core.FormatHours(s.TotalHours))
	fmt.Fprintf(tw, "Employees\t%d\n", s.EmployeeCount())
	fmt.Fprintf(tw, "Average per employee\t%s\n", core.FormatHours(s.AverageHoursPerEmployee))
	fmt.Fprintln(tw, "\t")
	fmt.Fprintln(tw, "Employee\tHours")
	for _, g := range s.PerEmployee {
		fmt.Fprintf(tw, "%s\t%s\n", g.Name, core.FormatHours(g.Hours))
	}
	fmt.Fprintln(tw, "\t")
	fmt.Fprintln(tw, "Project\tHours\tShare")
	for _, g := range s.PerProject {
		fmt.Fprintf(tw, "%s\t%s\t%s%%\n", g.Name, core.FormatHours(g.Hours), s.Share(g).StringFixed(1))
	}
	return tw.Flush()
}

type groupJSON struct {
	Name  string `json:"name"`
	Hours string `json:"hours"`
}

func invoiceSummaryJSON(s core.InvoiceSummary) map[string]any {
	return map[string]any{
		"total":      s.TotalAmount.StringFixed(2),
		"paid":       s.PaidAmount.StringFixed(2),
		"pending":    s.PendingAmount.StringFixed(2),
		"paidCount":  s.PaidCount,
		"totalCount": s.TotalCount,
	}
}

func timesheetSummaryJSON(s core.TimesheetSummary) map[string]any {
	groups := func(in []core.GroupHours) []groupJSON {
		out := make([]groupJSON, len(in))
		for i, g := range in {
			out[i] = groupJSON{Name: g.Name, Hours: g.Hours.StringFixed(2)}
		}
		return out
	}
	return map[string]any{
		"perEmployee":             groups(s.PerEmployee),
		"perProject":              groups(s.PerProject),
		"totalHours":              s.TotalHours.StringFixed(2),
		"averageHoursPerEmployee": s.AverageHoursPerEmployee.StringFixed(2),
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
