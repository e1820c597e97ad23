package cli

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dalemusser/kilntrack/internal/app/system/apiclient"
	"github.com/dalemusser/kilntrack/internal/domain/models"
	"github.com/spf13/cobra"
)

func submitCmd(opts *options) *cobra.Command {
	var (
		in   models.PieceInput
		date string
		yes  bool
	)
	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Submit a piece for firing",
		Long: `Stage a new piece on the server, show it, and ask for confirmation
before it is added to the kiln queue. Declining discards the submission.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if date != "" {
				t, err := time.Parse("2006-01-02", date)
				if err != nil {
					return fmt.Errorf("--date must be YYYY-MM-DD: %w", err)
				}
				in.DesiredDate = &t
			}

			c, err := opts.client()
			if err != nil {
				return err
			}
			ctx := newContext(cmd)
			a, err := c.StageSubmission(ctx, in)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if a.Input != nil {
				printPiece(out, pieceFromInput(*a.Input))
			}
			return resolve(cmd, c, a, yes, "Submit this piece?")
		},
	}
	f := cmd.Flags()
	f.StringVar(&in.Title, "title", "", "Piece title (required)")
	f.StringVar(&in.SubmittedBy.Email, "email", "", "Owner email (required)")
	f.StringVar(&in.SubmittedBy.FirstName, "first-name", "", "Owner first name")
	f.StringVar(&in.SubmittedBy.LastName, "last-name", "", "Owner last name")
	f.StringVar(&in.Description, "description", "", "Description")
	f.StringVar(&in.ImageURL, "image-url", "", "Image URL")
	f.StringVar(&in.ClayType, "clay", "", "Clay type")
	f.StringVar(&in.GlazeType, "glaze", "", "Glaze type")
	f.StringVar(&in.FiringType, "firing-type", "", "Firing type (default Autre)")
	f.StringVar(&in.Priority, "priority", "", "Normal or Urgent (default Normal)")
	f.StringVar(&date, "date", "", "Desired date, YYYY-MM-DD")
	f.BoolVarP(&yes, "yes", "y", false, "Skip confirmation prompt")
	return cmd
}

func fireCmd(opts *options) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "fire [piece-id]",
		Short: "Mark a piece as fired",
		Long: `Stage firing a pending piece, show it, and ask for confirmation. On
approval the piece moves to the history and its owner is notified.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil || id <= 0 {
				return fmt.Errorf("invalid piece id %q", args[0])
			}

			c, err := opts.client()
			if err != nil {
				return err
			}
			a, err := c.StageFire(newContext(cmd), id)
			if err != nil {
				return err
			}

			if a.Piece != nil {
				printPiece(cmd.OutOrStdout(), *a.Piece)
			}
			return resolve(cmd, c, a, yes, "Fire this piece and notify its owner?")
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip confirmation prompt")
	return cmd
}

// resolve approves or cancels a staged action depending on --yes or the
// operator's answer.
func resolve(cmd *cobra.Command, c *apiclient.Client, a apiclient.Action, yes bool, question string) error {
	ctx := newContext(cmd)
	out := cmd.OutOrStdout()

	if !yes && !confirm(cmd, question) {
		if err := c.Cancel(ctx, a.Token); err != nil {
			return err
		}
		fmt.Fprintln(out, "Cancelled. Nothing was changed.")
		return nil
	}

	p, err := c.Approve(ctx, a.Token)
	if err != nil {
		return err
	}
	switch {
	case p.IsFired():
		fmt.Fprintf(out, "Piece %d fired on %s.\n", p.ID, formatDate(p.FiredDate))
	default:
		fmt.Fprintf(out, "Piece %d submitted (%s).\n", p.ID, strings.ToLower(p.Status))
	}
	return nil
}

func pieceFromInput(in models.PieceInput) models.Piece {
	if in.FiringType == "" {
		in.FiringType = models.DefaultFiringType
	}
	if in.Priority == "" {
		in.Priority = models.PriorityNormal
	}
	return models.Piece{
		Title:       in.Title,
		FiringType:  in.FiringType,
		DesiredDate: in.DesiredDate,
		Priority:    in.Priority,
		SubmittedBy: in.SubmittedBy,
	}
}
