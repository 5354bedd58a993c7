package cli

import (
	"fmt"
	"net/http"
	"os"
	"strconv"
	"time"

	"seotrack/internal/client"
	"seotrack/internal/report"

	"github.com/spf13/cobra"
)

type filterFlags struct {
	year       string
	month      string
	title      string
	completion string
	live       string
}

func (f *filterFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.year, "year", "", "only this year")
	cmd.Flags().StringVar(&f.month, "month", "", "only this month (1-12)")
	cmd.Flags().StringVar(&f.title, "title", "", "title contains (case-insensitive)")
	cmd.Flags().StringVar(&f.completion, "completion", "", "completed | pending")
	cmd.Flags().StringVar(&f.live, "live", "", "live | not-live")
}

func (f *filterFlags) filter() (report.Filter, error) {
	return report.ParseFilter(f.year, f.month, f.title, f.completion, f.live)
}

func newReportCmd(opts *rootOptions) *cobra.Command {
	var (
		filters filterFlags
		page    int
	)
	cmd := &cobra.Command{
		Use:   "report <code>",
		Short: "Show the public report of a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := filters.filter()
			if err != nil {
				return err
			}

			s := client.NewSession(opts.client(), args[0], f)
			s.SetPage(page)
			r, _, err := s.Refresh(cmd.Context())
			if err != nil {
				return describe(err, args[0])
			}
			renderReport(cmd.OutOrStdout(), r)
			return nil
		},
	}
	filters.register(cmd)
	cmd.Flags().IntVar(&page, "page", 1, "page number")
	return cmd
}

func newMonthCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "month <code> <year> <month>",
		Short: "Show one month of a project, with its summary",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			year, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid year %q", args[1])
			}
			month, err := strconv.Atoi(args[2])
			if err != nil {
				return fmt.Errorf("invalid month %q", args[2])
			}

			m, err := opts.client().Month(cmd.Context(), args[0], year, month)
			if err != nil {
				return describe(err, args[0])
			}
			renderMonth(cmd.OutOrStdout(), m)
			return nil
		},
	}
}

func newExportCmd(opts *rootOptions) *cobra.Command {
	var (
		filters filterFlags
		output  string
	)
	cmd := &cobra.Command{
		Use:   "export <code>",
		Short: "Download the report as an Excel workbook",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := filters.filter()
			if err != nil {
				return err
			}
			if output == "" {
				output = fmt.Sprintf("report-%s.xlsx", args[0])
			}

			file, err := os.Create(output)
			if err != nil {
				return fmt.Errorf("failed to create %s: %w", output, err)
			}
			if err := opts.client().Export(cmd.Context(), args[0], f, file); err != nil {
				file.Close()
				os.Remove(output)
				return describe(err, args[0])
			}
			if err := file.Close(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "saved %s\n", output)
			return nil
		},
	}
	filters.register(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default report-<code>.xlsx)")
	return cmd
}

func describe(err error, code string) error {
	if client.IsNotFound(err) {
		return fmt.Errorf("no project with code %q", code)
	}
	return err
}

func newHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{Timeout: timeout}
}
