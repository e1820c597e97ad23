package cli

import (
	"fmt"

	"github.com/dalemusser/kilntrack/internal/app/system/urgency"
	"github.com/spf13/cobra"
)

func listCmd(opts *options) *cobra.Command {
	var owner string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List pieces waiting for the kiln",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.client()
			if err != nil {
				return err
			}
			list, err := c.List(newContext(cmd), owner)
			if err != nil {
				return err
			}
			if len(list) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No pending pieces.")
				return nil
			}
			printPieces(cmd.OutOrStdout(), list, false)
			return nil
		},
	}
	cmd.Flags().StringVar(&owner, "user", "", "Only pieces submitted by this email")
	return cmd
}

func historyCmd(opts *options) *cobra.Command {
	var owner string
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List fired pieces",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.client()
			if err != nil {
				return err
			}
			list, err := c.ListFired(newContext(cmd), owner)
			if err != nil {
				return err
			}
			if len(list) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No fired pieces.")
				return nil
			}
			printPieces(cmd.OutOrStdout(), list, true)
			return nil
		},
	}
	cmd.Flags().StringVar(&owner, "user", "", "Only pieces submitted by this email")
	return cmd
}

func queueCmd(opts *options) *cobra.Command {
	var firingType, sortKey string
	cmd := &cobra.Command{
		Use:   "queue",
		Short: "Show pending pieces by urgency",
		Long: `Show pending pieces with days remaining until their desired date.
Pieces due within 2 days are urgent, within 5 days soon.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.client()
			if err != nil {
				return err
			}
			entries, err := c.Queue(newContext(cmd), firingType, sortKey)
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "Queue is empty.")
				return nil
			}
			printQueue(cmd.OutOrStdout(), entries)
			return nil
		},
	}
	cmd.Flags().StringVar(&firingType, "firing-type", "", "Only this firing type")
	cmd.Flags().StringVar(&sortKey, "sort", "date", "Order by date, urgency or created")
	return cmd
}

func statsCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show piece counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.client()
			if err != nil {
				return err
			}
			s, err := c.Stats(newContext(cmd))
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Pending: %d\n", s.Pending)
			fmt.Fprintf(out, "Fired:   %d\n", s.Fired)
			fmt.Fprintf(out, "  %s %d   %s %d   %s %d\n",
				urgencyLabel(urgency.Urgent), s.Urgent,
				urgencyLabel(urgency.Soon), s.Soon,
				urgencyLabel(urgency.OK), s.OK)
			return nil
		},
	}
}
