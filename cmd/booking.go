package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func newBookingCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "booking",
		Short: "Inspect bookings from the command line",
	}
	cmd.AddCommand(newBookingListCmd())
	cmd.AddCommand(newBookingShowCmd())
	return cmd
}

func newBookingListCmd() *cobra.Command {
	var year, month int

	c := &cobra.Command{
		Use:   "list",
		Short: "List bookings overlapping a calendar month",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			rt, err := newRuntime(ctx, false)
			if err != nil {
				return err
			}
			defer rt.close()

			if year == 0 {
				year = rt.clock.Now().Year()
			}
			if month == 0 {
				month = int(rt.clock.Now().Month())
			}
			items, err := rt.coord.Calendar(ctx, year, time.Month(month))
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tDATES\tDAYS\tSIZE\tREQUESTER\tSTATUS")
			for _, b := range items {
				fmt.Fprintf(w, "%s\t%s..%s\t%d\t%d\t%s\t%s\n",
					b.ID, b.StartDate.Format("2006-01-02"), b.EndDate.Format("2006-01-02"),
					b.TotalDays, b.PartySize, b.RequesterFirstName, b.Status)
			}
			return w.Flush()
		},
	}

	c.Flags().IntVar(&year, "year", 0, "calendar year (default: current)")
	c.Flags().IntVar(&month, "month", 0, "calendar month 1-12 (default: current)")
	return c
}

func newBookingShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one booking with its approvals and timeline",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("not a booking id: %q", args[0])
			}

			ctx := context.Background()
			rt, err := newRuntime(ctx, false)
			if err != nil {
				return err
			}
			defer rt.close()

			b, err := rt.coord.Get(ctx, id)
			if err != nil {
				return err
			}
			events, err := rt.coord.Timeline(ctx, id)
			if err != nil {
				return err
			}

			fmt.Printf("%s  %s..%s (%d days)  %s, party of %d  [%s, round %d]\n",
				b.RequesterFirstName, b.StartDate.Format("2006-01-02"), b.EndDate.Format("2006-01-02"),
				b.TotalDays, b.Affiliation, b.PartySize, b.Status, b.Round)
			if b.Description != "" {
				fmt.Printf("  %s\n", b.Description)
			}
			for _, a := range b.Approvals {
				line := fmt.Sprintf("  %-10s %s", a.Party, a.Decision)
				if a.Comment != "" {
					line += fmt.Sprintf(" (%s)", a.Comment)
				}
				fmt.Println(line)
			}
			fmt.Println("timeline:")
			for _, ev := range events {
				fmt.Printf("  %s  %-12s %s  %s\n",
					ev.When.Format(time.RFC3339), ev.Type, ev.Actor, ev.Note)
			}
			return nil
		},
	}
}
