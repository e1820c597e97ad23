package cli

import (
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/dalemusser/kilntrack/internal/app/system/urgency"
	"github.com/dalemusser/kilntrack/internal/domain/models"
	"github.com/fatih/color"
)

const displayDate = "02/01/2006"

func urgencyLabel(l urgency.Level) string {
	switch l {
	case urgency.Urgent:
		return color.New(color.FgRed, color.Bold).Sprint("URGENT")
	case urgency.Soon:
		return color.New(color.FgYellow).Sprint("SOON")
	default:
		return color.New(color.FgGreen).Sprint("OK")
	}
}

func statusLabel(p models.Piece) string {
	if p.IsFired() {
		return color.New(color.FgGreen).Sprint(p.Status)
	}
	return color.New(color.FgCyan).Sprint(p.Status)
}

func formatDate(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Local().Format(displayDate)
}

func formatDays(d *int) string {
	if d == nil {
		return "-"
	}
	return strconv.Itoa(*d)
}

func printPieces(out io.Writer, list []models.Piece, fired bool) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	if fired {
		fmt.Fprintln(w, "ID\tTITLE\tOWNER\tFIRING\tFIRED\tSTATUS")
		fmt.Fprintln(w, "--\t-----\t-----\t------\t-----\t------")
	} else {
		fmt.Fprintln(w, "ID\tTITLE\tOWNER\tFIRING\tDESIRED\tPRIORITY\tSTATUS")
		fmt.Fprintln(w, "--\t-----\t-----\t------\t-------\t--------\t------")
	}
	for _, p := range list {
		if fired {
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n",
				p.ID, p.Title, p.SubmittedBy.Email, p.FiringType, formatDate(p.FiredDate), statusLabel(p))
			continue
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\t%s\n",
			p.ID, p.Title, p.SubmittedBy.Email, p.FiringType, formatDate(p.DesiredDate), p.Priority, statusLabel(p))
	}
	w.Flush()
}

func printQueue(out io.Writer, entries []urgency.Entry) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tOWNER\tFIRING\tDESIRED\tDAYS\tURGENCY")
	fmt.Fprintln(w, "--\t-----\t-----\t------\t-------\t----\t-------")
	for _, e := range entries {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\t%s\n",
			e.ID, e.Title, e.SubmittedBy.Email, e.FiringType,
			formatDate(e.DesiredDate), formatDays(e.DaysRemaining), urgencyLabel(e.Urgency))
	}
	w.Flush()
}

func printPiece(out io.Writer, p models.Piece) {
	fmt.Fprintf(out, "Piece:    %s\n", p.Title)
	if p.ID != 0 {
		fmt.Fprintf(out, "ID:       %d\n", p.ID)
	}
	fmt.Fprintf(out, "Owner:    %s <%s>\n", p.SubmittedBy.FullName(), p.SubmittedBy.Email)
	fmt.Fprintf(out, "Firing:   %s\n", p.FiringType)
	fmt.Fprintf(out, "Desired:  %s\n", formatDate(p.DesiredDate))
	fmt.Fprintf(out, "Priority: %s\n", p.Priority)
	if p.Status != "" {
		fmt.Fprintf(out, "Status:   %s\n", statusLabel(p))
	}
	if p.FiredDate != nil {
		fmt.Fprintf(out, "Fired:    %s\n", formatDate(p.FiredDate))
	}
}
