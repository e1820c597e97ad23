// Package cli implements kilnctl, the operator command line for a running
// kilntrack server.
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/dalemusser/kilntrack/internal/app/system/apiclient"
	"github.com/dalemusser/kilntrack/internal/domain/errs"
	"github.com/spf13/cobra"
)

// DefaultServer is used when neither --server nor KILNCTL_SERVER is set.
const DefaultServer = "http://localhost:8080"

type options struct {
	server  string
	timeout time.Duration
}

// NewRootCmd builds the kilnctl command tree.
func NewRootCmd(version string) *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:     "kilnctl",
		Short:   "kilnctl - manage pieces waiting for the kiln",
		Version: version,
		Long: `kilnctl talks to a kilntrack server. It lists pending pieces and the
firing history, shows the urgency queue, and submits or fires pieces through
the server's confirmation gate.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	server := os.Getenv("KILNCTL_SERVER")
	if server == "" {
		server = DefaultServer
	}
	root.PersistentFlags().StringVar(&opts.server, "server", server, "kilntrack server URL (env KILNCTL_SERVER)")
	root.PersistentFlags().DurationVar(&opts.timeout, "timeout", apiclient.DefaultTimeout, "per-request timeout")

	root.AddCommand(listCmd(opts))
	root.AddCommand(historyCmd(opts))
	root.AddCommand(queueCmd(opts))
	root.AddCommand(statsCmd(opts))
	root.AddCommand(submitCmd(opts))
	root.AddCommand(fireCmd(opts))

	return root
}

// Execute runs the command tree and prints any error to stderr. It returns
// the process exit code.
func Execute(root *cobra.Command) int {
	if err := root.Execute(); err != nil {
		fmt.Fprintln(root.ErrOrStderr(), Describe(err))
		return 1
	}
	return 0
}

// Describe turns an error into the message shown to the operator.
func Describe(err error) string {
	var apiErr *apiclient.APIError
	switch {
	case errors.Is(err, errs.ErrTransport):
		return "cannot reach the kilntrack server: " + err.Error()
	case errors.As(err, &apiErr) && apiErr.Message != "":
		return "error: " + apiErr.Message
	default:
		return "error: " + err.Error()
	}
}

func (o *options) client() (*apiclient.Client, error) {
	return apiclient.New(o.server, o.timeout)
}

func newContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// confirm asks a y/N question on the command's input. Anything but y or yes
// is a no.
func confirm(cmd *cobra.Command, msg string) bool {
	fmt.Fprintf(cmd.OutOrStdout(), "%s [y/N]: ", msg)
	response, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false
	}
	response = strings.TrimSpace(strings.ToLower(response))
	return response == "y" || response == "yes"
}
