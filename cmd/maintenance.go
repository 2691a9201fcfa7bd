package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// digest and cleanup mirror what the in-process scheduler does daily, for
// manual runs and cron-style deployments.

func newDigestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "digest",
		Short: "Send the outstanding-approvals digest to each reviewer now",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			rt, err := newRuntime(ctx, false)
			if err != nil {
				return err
			}
			defer rt.close()

			sent, err := rt.coord.DispatchDigests(ctx, rt.clock.Now())
			if err != nil {
				return err
			}
			fmt.Printf("dispatched %d digest(s)\n", sent)
			return nil
		},
	}
}

func newCleanupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cleanup",
		Short: "Cancel pending bookings whose dates have fully elapsed",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			rt, err := newRuntime(ctx, false)
			if err != nil {
				return err
			}
			defer rt.close()

			n, err := rt.coord.AutoCleanup(ctx)
			if err != nil {
				return err
			}
			fmt.Printf("auto-canceled %d booking(s)\n", n)
			return nil
		},
	}
}
