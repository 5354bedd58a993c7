// Package cli implements reportctl, a terminal reader for public reports.
package cli

import (
	"os"
	"time"

	"seotrack/internal/client"

	"github.com/spf13/cobra"
)

const (
	serverEnv     = "REPORTCTL_SERVER"
	defaultServer = "http://localhost:8080"
)

type rootOptions struct {
	server  string
	timeout time.Duration
}

func (o *rootOptions) client() *client.Client {
	return client.New(o.server, client.WithHTTPClient(newHTTPClient(o.timeout)))
}

// NewRootCmd builds the reportctl command tree.
func NewRootCmd(version string) *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "reportctl",
		Short: "Read SEO achievement reports from the command line",
		Long: `reportctl reads the public report of a project by its share code.

Examples:
  reportctl report ABCD2345                       # latest achievements
  reportctl report ABCD2345 --year 2024 --month 1 # one month, with stats
  reportctl month ABCD2345 2024 1                 # month view with summary
  reportctl export ABCD2345 -o report.xlsx        # workbook download`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	server := os.Getenv(serverEnv)
	if server == "" {
		server = defaultServer
	}
	root.PersistentFlags().StringVar(&opts.server, "server", server, "API base URL (env "+serverEnv+")")
	root.PersistentFlags().DurationVar(&opts.timeout, "timeout", 10*time.Second, "request timeout")

	root.AddCommand(newReportCmd(opts))
	root.AddCommand(newMonthCmd(opts))
	root.AddCommand(newExportCmd(opts))
	return root
}
